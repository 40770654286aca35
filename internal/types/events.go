package types

import "time"

// EventType represents the type of real-time event
type EventType string

const (
	EventPostCreated EventType = "post.created"
	EventPostLiked   EventType = "post.liked"
	EventLikesReset  EventType = "post.likes_reset"
)

// Event represents a real-time event that can be sent over WebSocket
type Event struct {
	Type      EventType   `json:"type"`
	Data      interface{} `json:"data"`
	Timestamp string      `json:"timestamp"`
}

// PostCreatedEvent is broadcast when a new post is published
type PostCreatedEvent struct {
	Post Post `json:"post"`
}

// PostLikedEvent is broadcast when a post's like counter changes
type PostLikedEvent struct {
	PostID  int64 `json:"post_id"`
	Likes   int64 `json:"likes"`
	LikedBy int64 `json:"liked_by"`
}

// NewEvent creates a new event with the current timestamp
func NewEvent(eventType EventType, data interface{}) *Event {
	return &Event{
		Type:      eventType,
		Data:      data,
		Timestamp: time.Now().UTC().Format(time.RFC3339),
	}
}
