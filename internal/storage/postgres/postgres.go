package postgres

import (
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"os"

	"github.com/lib/pq"

	"github.com/bloghub/posts-service/internal/config"
	"github.com/bloghub/posts-service/internal/storage"
	"github.com/bloghub/posts-service/internal/types"
	"github.com/bloghub/posts-service/internal/types/users"
)

const uniqueViolation = "23505"

type Postgres struct {
	Db *sql.DB
}

// NewPostgres opens a connection pool and verifies it with a ping. It does
// not touch the schema; callers run Migrate explicitly before serving.
func NewPostgres(cfg *config.Config) (*Postgres, error) {
	connStr := fmt.Sprintf("host=%s port=%s user=%s password=%s dbname=%s sslmode=%s",
		cfg.PGSQL.Host, cfg.PGSQL.Port, cfg.PGSQL.User, cfg.PGSQL.Password, cfg.PGSQL.DBName, cfg.PGSQL.SSLMode)

	db, err := sql.Open("postgres", connStr)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	err = db.Ping()
	if err != nil {
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	return &Postgres{Db: db}, nil
}

// Migrate creates the required tables if they don't exist. Safe to re-run.
func (p *Postgres) Migrate() error {
	queries := []string{
		`
		CREATE TABLE IF NOT EXISTS users (
			id SERIAL PRIMARY KEY,
			email VARCHAR(255) UNIQUE NOT NULL,
			password TEXT NOT NULL,
			created_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP
		);
		`,
		`
		CREATE TABLE IF NOT EXISTS posts (
			id SERIAL PRIMARY KEY,
			user_id INTEGER REFERENCES users(id) ON DELETE SET NULL,
			author VARCHAR(255) NOT NULL,
			date TIMESTAMP NOT NULL DEFAULT CURRENT_TIMESTAMP,
			title VARCHAR(255),
			description TEXT,
			image VARCHAR(500),
			likes INTEGER NOT NULL DEFAULT 0 CHECK (likes >= 0),
			created_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP
		);
		`,
	}

	for _, q := range queries {
		if _, err := p.Db.Exec(q); err != nil {
			return err
		}
	}

	return nil
}

// SeedFromFile loads the bundled fixture into the posts table when it is
// empty. Seeded posts carry no owner; they predate the accounts system.
func (p *Postgres) SeedFromFile(path string) error {
	var count int
	if err := p.Db.QueryRow(`SELECT COUNT(*) FROM posts`).Scan(&count); err != nil {
		return fmt.Errorf("failed to count posts: %w", err)
	}
	if count > 0 {
		return nil
	}

	seed, err := loadSeedFile(path)
	if err != nil {
		return err
	}
	if seed == nil {
		slog.Warn("seed file not found, skipping seed", slog.String("path", path))
		return nil
	}
	// With no rows to insert there is no max id; setval(NULL) would fail.
	if len(seed.Posts) == 0 {
		slog.Warn("seed file contains no posts, skipping seed", slog.String("path", path))
		return nil
	}

	for _, post := range seed.Posts {
		_, err := p.Db.Exec(`
		INSERT INTO posts (id, author, date, title, description, image, likes)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		`, post.ID, post.Author, post.Date, post.Title, post.Description, post.Image, post.Likes)
		if err != nil {
			return fmt.Errorf("failed to seed post %d: %w", post.ID, err)
		}
	}

	// Continue the sequence after the seeded ids
	if _, err := p.Db.Exec(`SELECT setval('posts_id_seq', (SELECT MAX(id) FROM posts))`); err != nil {
		return fmt.Errorf("failed to reset posts sequence: %w", err)
	}

	slog.Info("Seeded posts from fixture", slog.Int("count", len(seed.Posts)), slog.String("path", path))
	return nil
}

// loadSeedFile reads and parses the fixture. A missing file yields nil
// without an error so a deployment without the fixture still boots.
func loadSeedFile(path string) (*types.SeedFile, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to read seed file: %w", err)
	}

	var seed types.SeedFile
	if err := json.Unmarshal(data, &seed); err != nil {
		return nil, fmt.Errorf("failed to parse seed file: %w", err)
	}

	return &seed, nil
}

func (p *Postgres) CreateUser(email, passwordHash string) (users.User, error) {
	var user users.User
	query := `
	INSERT INTO users (email, password)
	VALUES ($1, $2)
	RETURNING id, email
	`

	err := p.Db.QueryRow(query, email, passwordHash).Scan(&user.ID, &user.Email)
	if err != nil {
		var pqErr *pq.Error
		if errors.As(err, &pqErr) && pqErr.Code == uniqueViolation {
			return users.User{}, storage.ErrEmailTaken
		}
		return users.User{}, err
	}

	return user, nil
}

func (p *Postgres) GetUserByEmail(email string) (users.User, string, error) {
	var user users.User
	var passwordHash string
	query := `
	SELECT id, email, password FROM users WHERE email = $1
	`

	err := p.Db.QueryRow(query, email).Scan(&user.ID, &user.Email, &passwordHash)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return users.User{}, "", storage.ErrUserNotFound
		}
		return users.User{}, "", err
	}

	return user, passwordHash, nil
}

const postColumns = `id, user_id, author, date, COALESCE(title, ''), COALESCE(description, ''), COALESCE(image, ''), likes, created_at`

func scanPost(row interface{ Scan(...interface{}) error }) (types.Post, error) {
	var post types.Post
	err := row.Scan(&post.ID, &post.UserID, &post.Author, &post.Date,
		&post.Title, &post.Description, &post.Image, &post.Likes, &post.CreatedAt)
	return post, err
}

func (p *Postgres) GetAllPosts() ([]types.Post, error) {
	rows, err := p.Db.Query(`SELECT ` + postColumns + ` FROM posts ORDER BY id ASC`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	posts := []types.Post{}
	for rows.Next() {
		post, err := scanPost(rows)
		if err != nil {
			return nil, err
		}
		posts = append(posts, post)
	}

	return posts, rows.Err()
}

func (p *Postgres) GetPostByID(id int64) (types.Post, error) {
	row := p.Db.QueryRow(`SELECT `+postColumns+` FROM posts WHERE id = $1`, id)

	post, err := scanPost(row)
	if errors.Is(err, sql.ErrNoRows) {
		return types.Post{}, storage.ErrPostNotFound
	}
	return post, err
}

func (p *Postgres) CreatePost(userID int64, author, title, content, image string) (types.Post, error) {
	row := p.Db.QueryRow(`
	INSERT INTO posts (user_id, author, date, title, description, image, likes)
	VALUES ($1, $2, CURRENT_TIMESTAMP, $3, $4, $5, 0)
	RETURNING `+postColumns, userID, author, title, content, image)

	return scanPost(row)
}

// UpdatePost rewrites a post's content. Ownership is part of the lookup
// predicate: a post owned by someone else behaves exactly like a missing one.
func (p *Postgres) UpdatePost(id, userID int64, content string) (types.Post, error) {
	row := p.Db.QueryRow(`
	UPDATE posts SET description = $3
	WHERE id = $1 AND user_id = $2
	RETURNING `+postColumns, id, userID, content)

	post, err := scanPost(row)
	if errors.Is(err, sql.ErrNoRows) {
		return types.Post{}, storage.ErrPostNotFound
	}
	return post, err
}

func (p *Postgres) DeletePost(id, userID int64) error {
	result, err := p.Db.Exec(`DELETE FROM posts WHERE id = $1 AND user_id = $2`, id, userID)
	if err != nil {
		return err
	}

	affected, err := result.RowsAffected()
	if err != nil {
		return err
	}
	if affected == 0 {
		return storage.ErrPostNotFound
	}

	return nil
}

func (p *Postgres) DeleteAllPosts() error {
	_, err := p.Db.Exec(`DELETE FROM posts`)
	return err
}

// IncrementLikes bumps the counter in a single statement so concurrent likes
// never lose updates.
func (p *Postgres) IncrementLikes(id int64) (int64, error) {
	var likes int64
	err := p.Db.QueryRow(`
	UPDATE posts SET likes = likes + 1 WHERE id = $1 RETURNING likes
	`, id).Scan(&likes)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return 0, storage.ErrPostNotFound
		}
		return 0, err
	}

	return likes, nil
}

func (p *Postgres) ResetAllLikes() error {
	_, err := p.Db.Exec(`UPDATE posts SET likes = 0`)
	return err
}
