package cache

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/go-redis/redis/v8"

	"github.com/bloghub/posts-service/internal/storage"
	"github.com/bloghub/posts-service/internal/types"
	"github.com/bloghub/posts-service/internal/types/users"
)

// CacheService wraps storage with Redis caching. It implements
// storage.Storage so it can be dropped in front of the Postgres store.
type CacheService struct {
	storage storage.Storage
	redis   *redis.Client
}

// NewCacheService creates a new cache service
func NewCacheService(storage storage.Storage, redisClient *redis.Client) *CacheService {
	return &CacheService{
		storage: storage,
		redis:   redisClient,
	}
}

// Cache key patterns
const (
	AllPostsKey = "posts:all"
	PostKey     = "post:%d" // post:postID
)

// Cache durations
const (
	AllPostsCacheDuration = 45 * time.Second // Hot list cache
	PostCacheDuration     = 10 * time.Minute // Individual posts
)

// GetAllPosts returns the cached post list or fetches from DB
func (c *CacheService) GetAllPosts() ([]types.Post, error) {
	ctx := context.Background()

	// Try cache first
	cached, err := c.redis.Get(ctx, AllPostsKey).Result()
	if err == nil {
		var posts []types.Post
		if err := json.Unmarshal([]byte(cached), &posts); err == nil {
			return posts, nil
		}
	}

	// Cache miss - fetch from database
	posts, err := c.storage.GetAllPosts()
	if err != nil {
		return nil, err
	}

	// Cache the result
	data, _ := json.Marshal(posts)
	c.redis.Set(ctx, AllPostsKey, data, AllPostsCacheDuration)

	return posts, nil
}

// GetPostByID returns a cached post or fetches from DB
func (c *CacheService) GetPostByID(id int64) (types.Post, error) {
	ctx := context.Background()
	key := fmt.Sprintf(PostKey, id)

	// Try cache first
	cached, err := c.redis.Get(ctx, key).Result()
	if err == nil {
		var post types.Post
		if err := json.Unmarshal([]byte(cached), &post); err == nil {
			return post, nil
		}
	}

	// Cache miss - fetch from database
	post, err := c.storage.GetPostByID(id)
	if err != nil {
		return post, err
	}

	data, _ := json.Marshal(post)
	c.redis.Set(ctx, key, data, PostCacheDuration)

	return post, nil
}

// InvalidatePost clears the caches touched by a single-post mutation
func (c *CacheService) InvalidatePost(ctx context.Context, id int64) {
	c.redis.Del(ctx, fmt.Sprintf(PostKey, id), AllPostsKey)
}

// InvalidateAllPosts clears the list cache and every cached post
func (c *CacheService) InvalidateAllPosts(ctx context.Context) {
	iter := c.redis.Scan(ctx, 0, "post:*", 0).Iterator()
	for iter.Next(ctx) {
		c.redis.Del(ctx, iter.Val())
	}
	c.redis.Del(ctx, AllPostsKey)
}

// Methods to pass through to storage (implement storage.Storage interface)

func (c *CacheService) CreateUser(email, passwordHash string) (users.User, error) {
	return c.storage.CreateUser(email, passwordHash)
}

func (c *CacheService) GetUserByEmail(email string) (users.User, string, error) {
	return c.storage.GetUserByEmail(email)
}

func (c *CacheService) CreatePost(userID int64, author, title, content, image string) (types.Post, error) {
	post, err := c.storage.CreatePost(userID, author, title, content, image)
	if err != nil {
		return post, err
	}

	c.InvalidatePost(context.Background(), post.ID)
	return post, nil
}

func (c *CacheService) UpdatePost(id, userID int64, content string) (types.Post, error) {
	post, err := c.storage.UpdatePost(id, userID, content)
	if err != nil {
		return post, err
	}

	c.InvalidatePost(context.Background(), id)
	return post, nil
}

func (c *CacheService) DeletePost(id, userID int64) error {
	err := c.storage.DeletePost(id, userID)
	if err != nil {
		return err
	}

	c.InvalidatePost(context.Background(), id)
	return nil
}

func (c *CacheService) DeleteAllPosts() error {
	err := c.storage.DeleteAllPosts()
	if err != nil {
		return err
	}

	c.InvalidateAllPosts(context.Background())
	return nil
}

func (c *CacheService) IncrementLikes(id int64) (int64, error) {
	likes, err := c.storage.IncrementLikes(id)
	if err != nil {
		return 0, err
	}

	c.InvalidatePost(context.Background(), id)
	return likes, nil
}

func (c *CacheService) ResetAllLikes() error {
	err := c.storage.ResetAllLikes()
	if err != nil {
		return err
	}

	c.InvalidateAllPosts(context.Background())
	return nil
}
