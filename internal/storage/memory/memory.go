// Package memory provides a mutex-guarded in-memory Storage, used by the
// handler tests and handy for running the service without Postgres.
package memory

import (
	"sync"
	"time"

	"github.com/bloghub/posts-service/internal/storage"
	"github.com/bloghub/posts-service/internal/types"
	"github.com/bloghub/posts-service/internal/types/users"
)

type userRecord struct {
	user users.User
	hash string
}

type Memory struct {
	mu         sync.Mutex
	users      map[string]userRecord
	nextUserID int64
	posts      map[int64]types.Post
	nextPostID int64
}

func NewMemory() *Memory {
	return &Memory{
		users:      make(map[string]userRecord),
		nextUserID: 1,
		posts:      make(map[int64]types.Post),
		nextPostID: 1,
	}
}

func (m *Memory) CreateUser(email, passwordHash string) (users.User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if _, exists := m.users[email]; exists {
		return users.User{}, storage.ErrEmailTaken
	}

	user := users.User{ID: m.nextUserID, Email: email}
	m.users[email] = userRecord{user: user, hash: passwordHash}
	m.nextUserID++

	return user, nil
}

func (m *Memory) GetUserByEmail(email string) (users.User, string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	record, ok := m.users[email]
	if !ok {
		return users.User{}, "", storage.ErrUserNotFound
	}

	return record.user, record.hash, nil
}

func (m *Memory) GetAllPosts() ([]types.Post, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	posts := []types.Post{}
	for id := int64(1); id < m.nextPostID; id++ {
		if post, ok := m.posts[id]; ok {
			posts = append(posts, post)
		}
	}

	return posts, nil
}

func (m *Memory) GetPostByID(id int64) (types.Post, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	post, ok := m.posts[id]
	if !ok {
		return types.Post{}, storage.ErrPostNotFound
	}

	return post, nil
}

func (m *Memory) CreatePost(userID int64, author, title, content, image string) (types.Post, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	now := time.Now()
	owner := userID
	post := types.Post{
		ID:          m.nextPostID,
		UserID:      &owner,
		Author:      author,
		Date:        now,
		Title:       title,
		Description: content,
		Image:       image,
		Likes:       0,
		CreatedAt:   now,
	}
	m.posts[post.ID] = post
	m.nextPostID++

	return post, nil
}

func (m *Memory) UpdatePost(id, userID int64, content string) (types.Post, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	post, ok := m.posts[id]
	if !ok || post.UserID == nil || *post.UserID != userID {
		return types.Post{}, storage.ErrPostNotFound
	}

	post.Description = content
	m.posts[id] = post

	return post, nil
}

func (m *Memory) DeletePost(id, userID int64) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	post, ok := m.posts[id]
	if !ok || post.UserID == nil || *post.UserID != userID {
		return storage.ErrPostNotFound
	}

	delete(m.posts, id)
	return nil
}

func (m *Memory) DeleteAllPosts() error {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.posts = make(map[int64]types.Post)
	return nil
}

func (m *Memory) IncrementLikes(id int64) (int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	post, ok := m.posts[id]
	if !ok {
		return 0, storage.ErrPostNotFound
	}

	post.Likes++
	m.posts[id] = post

	return post.Likes, nil
}

func (m *Memory) ResetAllLikes() error {
	m.mu.Lock()
	defer m.mu.Unlock()

	for id, post := range m.posts {
		post.Likes = 0
		m.posts[id] = post
	}

	return nil
}
