package storage

import (
	"errors"

	"github.com/bloghub/posts-service/internal/types"
	"github.com/bloghub/posts-service/internal/types/users"
)

var (
	ErrEmailTaken   = errors.New("email already registered")
	ErrUserNotFound = errors.New("user not found")
	ErrPostNotFound = errors.New("post not found")
)

type Storage interface {
	CreateUser(email, passwordHash string) (users.User, error)
	GetUserByEmail(email string) (users.User, string, error)

	GetAllPosts() ([]types.Post, error)
	GetPostByID(id int64) (types.Post, error)
	CreatePost(userID int64, author, title, content, image string) (types.Post, error)
	UpdatePost(id, userID int64, content string) (types.Post, error)
	DeletePost(id, userID int64) error
	DeleteAllPosts() error
	IncrementLikes(id int64) (int64, error)
	ResetAllLikes() error
}
