package events

import (
	"github.com/bloghub/posts-service/internal/types"
)

// Publisher interface for publishing post events
type Publisher interface {
	PublishPostCreated(post types.Post) error
	PublishPostLiked(postID, likes, likedBy int64) error
	PublishLikesReset() error
}

// EventPublisher implements the Publisher interface
type EventPublisher struct {
	hub WebSocketHub
}

// WebSocketHub interface for the WebSocket hub
type WebSocketHub interface {
	BroadcastAll(event *types.Event)
	GetClientCount() int
}

// NewEventPublisher creates a new event publisher
func NewEventPublisher(hub WebSocketHub) *EventPublisher {
	return &EventPublisher{
		hub: hub,
	}
}

// PublishPostCreated broadcasts a new post to every connected client
func (p *EventPublisher) PublishPostCreated(post types.Post) error {
	if p.hub.GetClientCount() == 0 {
		return nil
	}

	event := types.NewEvent(types.EventPostCreated, &types.PostCreatedEvent{Post: post})
	p.hub.BroadcastAll(event)

	return nil
}

// PublishPostLiked broadcasts an updated like count to every connected client
func (p *EventPublisher) PublishPostLiked(postID, likes, likedBy int64) error {
	if p.hub.GetClientCount() == 0 {
		return nil
	}

	event := types.NewEvent(types.EventPostLiked, &types.PostLikedEvent{
		PostID:  postID,
		Likes:   likes,
		LikedBy: likedBy,
	})
	p.hub.BroadcastAll(event)

	return nil
}

// PublishLikesReset broadcasts that every like counter was zeroed
func (p *EventPublisher) PublishLikesReset() error {
	if p.hub.GetClientCount() == 0 {
		return nil
	}

	p.hub.BroadcastAll(types.NewEvent(types.EventLikesReset, nil))

	return nil
}
