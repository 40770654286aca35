package posts

import (
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/go-playground/validator/v10"

	"github.com/bloghub/posts-service/internal/events"
	"github.com/bloghub/posts-service/internal/http/middleware"
	"github.com/bloghub/posts-service/internal/storage"
	"github.com/bloghub/posts-service/internal/types"
	"github.com/bloghub/posts-service/internal/utils/response"
)

func parsePostID(r *http.Request) (int64, error) {
	id, err := strconv.ParseInt(r.PathValue("id"), 10, 64)
	if err != nil {
		return 0, errors.New("invalid post id")
	}
	return id, nil
}

// GetAll handles listing every post
// @Summary List all posts
// @Description List all posts ordered by ascending id
// @Tags posts
// @Produce json
// @Success 200 {array} types.Post "Posts"
// @Failure 401 {object} response.Response "Unauthorized"
// @Security BearerAuth
// @Router /api/posts [get]
func GetAll(store storage.Storage) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		posts, err := store.GetAllPosts()
		if err != nil {
			slog.Error("Failed to fetch posts", slog.String("error", err.Error()))
			response.WriteJSON(w, http.StatusInternalServerError, response.GeneralError(errors.New("failed to fetch posts")))
			return
		}

		response.WriteJSON(w, http.StatusOK, posts)
	}
}

// GetByID handles fetching a single post
// @Summary Get one post
// @Tags posts
// @Produce json
// @Param id path int true "Post ID"
// @Success 200 {object} types.Post "Post"
// @Failure 404 {object} response.Response "Post not found"
// @Security BearerAuth
// @Router /api/posts/{id} [get]
func GetByID(store storage.Storage) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, err := parsePostID(r)
		if err != nil {
			response.WriteJSON(w, http.StatusBadRequest, response.GeneralError(err))
			return
		}

		post, err := store.GetPostByID(id)
		if err != nil {
			if errors.Is(err, storage.ErrPostNotFound) {
				response.WriteJSON(w, http.StatusNotFound, response.GeneralError(errors.New("Post not found")))
				return
			}
			slog.Error("Failed to fetch post", slog.String("error", err.Error()), slog.Int64("post_id", id))
			response.WriteJSON(w, http.StatusInternalServerError, response.GeneralError(errors.New("failed to fetch post")))
			return
		}

		response.WriteJSON(w, http.StatusOK, post)
	}
}

// Create handles publishing a new post
// @Summary Create a post
// @Description Create a new post owned by the authenticated user
// @Tags posts
// @Accept json
// @Produce json
// @Param post body types.PostCreateRequest true "Post content"
// @Success 201 {object} types.Post "Created post"
// @Failure 400 {object} response.Response "Missing content"
// @Failure 401 {object} response.Response "Unauthorized"
// @Security BearerAuth
// @Router /api/posts [post]
func Create(store storage.Storage, publisher events.Publisher) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		identity, ok := middleware.GetIdentityFromContext(r.Context())
		if !ok {
			response.WriteJSON(w, http.StatusUnauthorized, response.GeneralError(errors.New("user not authenticated")))
			return
		}

		var req types.PostCreateRequest

		err := json.NewDecoder(r.Body).Decode(&req)
		if errors.Is(err, io.EOF) {
			response.WriteJSON(w, http.StatusBadRequest, response.GeneralError(errors.New("request body cannot be empty")))
			return
		} else if err != nil {
			response.WriteJSON(w, http.StatusBadRequest, response.GeneralError(err))
			return
		}

		// Validate request
		validate := validator.New()
		err = validate.Struct(req)
		if err != nil {
			if ve, ok := err.(validator.ValidationErrors); ok {
				response.WriteJSON(w, http.StatusBadRequest, response.ValidationError(ve))
				return
			}
			response.WriteJSON(w, http.StatusBadRequest, response.GeneralError(err))
			return
		}

		// The email doubles as the display name, as in the original client
		post, err := store.CreatePost(identity.UserID, identity.Email, req.Title, req.Content, req.Image)
		if err != nil {
			slog.Error("Failed to create post", slog.String("error", err.Error()))
			response.WriteJSON(w, http.StatusInternalServerError, response.GeneralError(errors.New("failed to create post")))
			return
		}
		slog.Info("Post created", slog.Int64("post_id", post.ID), slog.Int64("user_id", identity.UserID))

		publisher.PublishPostCreated(post)

		response.WriteJSON(w, http.StatusCreated, post)
	}
}

// Update handles editing a post's content
// @Summary Update a post
// @Description Rewrite a post's content; only the owner's posts are visible to this operation
// @Tags posts
// @Accept json
// @Produce json
// @Param id path int true "Post ID"
// @Param post body types.PostUpdateRequest true "New content"
// @Success 200 {object} types.Post "Updated post"
// @Failure 400 {object} response.Response "Missing content"
// @Failure 404 {object} response.Response "Post not found or not the author"
// @Security BearerAuth
// @Router /api/posts/{id} [put]
func Update(store storage.Storage) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		identity, ok := middleware.GetIdentityFromContext(r.Context())
		if !ok {
			response.WriteJSON(w, http.StatusUnauthorized, response.GeneralError(errors.New("user not authenticated")))
			return
		}

		id, err := parsePostID(r)
		if err != nil {
			response.WriteJSON(w, http.StatusBadRequest, response.GeneralError(err))
			return
		}

		var req types.PostUpdateRequest

		err = json.NewDecoder(r.Body).Decode(&req)
		if errors.Is(err, io.EOF) {
			response.WriteJSON(w, http.StatusBadRequest, response.GeneralError(errors.New("request body cannot be empty")))
			return
		} else if err != nil {
			response.WriteJSON(w, http.StatusBadRequest, response.GeneralError(err))
			return
		}

		validate := validator.New()
		err = validate.Struct(req)
		if err != nil {
			if ve, ok := err.(validator.ValidationErrors); ok {
				response.WriteJSON(w, http.StatusBadRequest, response.ValidationError(ve))
				return
			}
			response.WriteJSON(w, http.StatusBadRequest, response.GeneralError(err))
			return
		}

		post, err := store.UpdatePost(id, identity.UserID, req.Content)
		if err != nil {
			if errors.Is(err, storage.ErrPostNotFound) {
				response.WriteJSON(w, http.StatusNotFound, response.GeneralError(errors.New("Post not found or you are not the author")))
				return
			}
			slog.Error("Failed to update post", slog.String("error", err.Error()), slog.Int64("post_id", id))
			response.WriteJSON(w, http.StatusInternalServerError, response.GeneralError(errors.New("failed to update post")))
			return
		}

		response.WriteJSON(w, http.StatusOK, post)
	}
}

// Delete handles removing a single post
// @Summary Delete a post
// @Description Delete one of the authenticated user's posts
// @Tags posts
// @Produce json
// @Param id path int true "Post ID"
// @Success 200 {object} map[string]bool "Deleted"
// @Failure 404 {object} response.Response "Post not found or not the author"
// @Security BearerAuth
// @Router /api/posts/{id} [delete]
func Delete(store storage.Storage) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		identity, ok := middleware.GetIdentityFromContext(r.Context())
		if !ok {
			response.WriteJSON(w, http.StatusUnauthorized, response.GeneralError(errors.New("user not authenticated")))
			return
		}

		id, err := parsePostID(r)
		if err != nil {
			response.WriteJSON(w, http.StatusBadRequest, response.GeneralError(err))
			return
		}

		err = store.DeletePost(id, identity.UserID)
		if err != nil {
			if errors.Is(err, storage.ErrPostNotFound) {
				response.WriteJSON(w, http.StatusNotFound, response.GeneralError(errors.New("Post not found or you are not the author")))
				return
			}
			slog.Error("Failed to delete post", slog.String("error", err.Error()), slog.Int64("post_id", id))
			response.WriteJSON(w, http.StatusInternalServerError, response.GeneralError(errors.New("failed to delete post")))
			return
		}

		response.WriteJSON(w, http.StatusOK, map[string]bool{"success": true})
	}
}

// DeleteAll handles the administrative bulk delete
// @Summary Delete all posts
// @Description Remove every post unconditionally
// @Tags posts
// @Produce json
// @Success 200 {object} map[string]bool "Deleted"
// @Failure 401 {object} response.Response "Unauthorized"
// @Security BearerAuth
// @Router /api/posts [delete]
func DeleteAll(store storage.Storage) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if err := store.DeleteAllPosts(); err != nil {
			slog.Error("Failed to delete all posts", slog.String("error", err.Error()))
			response.WriteJSON(w, http.StatusInternalServerError, response.GeneralError(errors.New("failed to delete all posts")))
			return
		}

		response.WriteJSON(w, http.StatusOK, map[string]bool{"success": true})
	}
}

// Like handles incrementing a post's like counter
// @Summary Like a post
// @Description Atomically increment a post's like counter
// @Tags posts
// @Produce json
// @Param id path int true "Post ID"
// @Success 200 {object} types.LikeResult "New like count"
// @Failure 404 {object} response.Response "Post not found"
// @Security BearerAuth
// @Router /api/posts/{id}/like [post]
func Like(store storage.Storage, publisher events.Publisher) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		identity, ok := middleware.GetIdentityFromContext(r.Context())
		if !ok {
			response.WriteJSON(w, http.StatusUnauthorized, response.GeneralError(errors.New("user not authenticated")))
			return
		}

		id, err := parsePostID(r)
		if err != nil {
			response.WriteJSON(w, http.StatusBadRequest, response.GeneralError(err))
			return
		}

		likes, err := store.IncrementLikes(id)
		if err != nil {
			if errors.Is(err, storage.ErrPostNotFound) {
				response.WriteJSON(w, http.StatusNotFound, response.GeneralError(errors.New("Post not found")))
				return
			}
			slog.Error("Failed to like post", slog.String("error", err.Error()), slog.Int64("post_id", id))
			response.WriteJSON(w, http.StatusInternalServerError, response.GeneralError(errors.New("failed to like post")))
			return
		}

		publisher.PublishPostLiked(id, likes, identity.UserID)

		response.WriteJSON(w, http.StatusOK, types.LikeResult{Success: true, Likes: likes})
	}
}

// ResetLikes handles the administrative bulk like reset
// @Summary Reset all likes
// @Description Set every post's like counter back to zero
// @Tags posts
// @Produce json
// @Success 200 {object} map[string]bool "Reset"
// @Failure 401 {object} response.Response "Unauthorized"
// @Security BearerAuth
// @Router /api/posts/reset-likes [post]
func ResetLikes(store storage.Storage, publisher events.Publisher) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if err := store.ResetAllLikes(); err != nil {
			slog.Error("Failed to reset likes", slog.String("error", err.Error()))
			response.WriteJSON(w, http.StatusInternalServerError, response.GeneralError(errors.New("failed to reset likes")))
			return
		}

		publisher.PublishLikesReset()

		response.WriteJSON(w, http.StatusOK, map[string]bool{"success": true})
	}
}
