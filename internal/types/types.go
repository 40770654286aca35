package types

import "time"

type Post struct {
	ID          int64     `json:"id"`
	UserID      *int64    `json:"user_id,omitempty"`
	Author      string    `json:"author"`
	Date        time.Time `json:"date"`
	Title       string    `json:"title,omitempty"`
	Description string    `json:"description"`
	Image       string    `json:"image,omitempty"`
	Likes       int64     `json:"likes"`
	CreatedAt   time.Time `json:"created_at"`
}

type PostCreateRequest struct {
	Content string `json:"content" validate:"required"`
	Title   string `json:"title"`
	Image   string `json:"image"`
}

type PostUpdateRequest struct {
	Content string `json:"content" validate:"required"`
}

type LikeResult struct {
	Success bool  `json:"success"`
	Likes   int64 `json:"likes"`
}

// SeedPost mirrors one entry of the bundled posts.json fixture.
type SeedPost struct {
	ID          int64  `json:"id"`
	Author      string `json:"author"`
	Date        string `json:"date"`
	Title       string `json:"title"`
	Description string `json:"description"`
	Image       string `json:"image"`
	Likes       int64  `json:"likes"`
}

type SeedFile struct {
	Posts []SeedPost `json:"Posts"`
}
