package media

import (
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/bloghub/posts-service/internal/http/middleware"
	mediaService "github.com/bloghub/posts-service/internal/services/media"
	"github.com/bloghub/posts-service/internal/utils/response"
)

type MediaHandlers struct {
	mediaService *mediaService.Service
}

type UploadURLRequest struct {
	ContentType string `json:"content_type" validate:"required"`
}

type MediaInfoResponse struct {
	ObjectKey   string    `json:"object_key"`
	Size        int64     `json:"size"`
	ContentType string    `json:"content_type"`
	UploadedAt  time.Time `json:"uploaded_at"`
	ImageURL    string    `json:"image_url"`
}

// NewMediaHandlers creates a new media handlers instance
func NewMediaHandlers(mediaService *mediaService.Service) *MediaHandlers {
	return &MediaHandlers{
		mediaService: mediaService,
	}
}

// GenerateUploadURL generates a presigned URL for a post image upload
// @Summary Generate presigned upload URL
// @Description Generate a presigned URL for uploading a post image
// @Tags media
// @Accept json
// @Produce json
// @Param request body UploadURLRequest true "Upload URL request"
// @Success 200 {object} mediaService.UploadInfo "Upload URL generated successfully"
// @Failure 400 {object} response.Response "Bad request"
// @Failure 401 {object} response.Response "Unauthorized"
// @Security BearerAuth
// @Router /api/media/upload-url [post]
func (h *MediaHandlers) GenerateUploadURL() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		identity, ok := middleware.GetIdentityFromContext(r.Context())
		if !ok {
			response.WriteJSON(w, http.StatusUnauthorized, response.GeneralError(errors.New("user not authenticated")))
			return
		}

		var req UploadURLRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			response.WriteJSON(w, http.StatusBadRequest, response.GeneralError(errors.New("invalid request body")))
			return
		}
		if req.ContentType == "" {
			response.WriteJSON(w, http.StatusBadRequest, response.GeneralError(errors.New("content_type is required")))
			return
		}

		uploadInfo, err := h.mediaService.GeneratePresignedUploadURL(identity.UserID, req.ContentType)
		if err != nil {
			response.WriteJSON(w, http.StatusBadRequest, response.GeneralError(err))
			return
		}

		response.WriteJSON(w, http.StatusOK, response.RequestOK("Upload URL generated successfully", uploadInfo))
	}
}

// GetMediaInfo retrieves information about an uploaded image
// @Summary Get image information
// @Tags media
// @Produce json
// @Param object_key path string true "Object key"
// @Success 200 {object} MediaInfoResponse "Image information"
// @Failure 401 {object} response.Response "Unauthorized"
// @Failure 404 {object} response.Response "Image not found"
// @Security BearerAuth
// @Router /api/media/{object_key} [get]
func (h *MediaHandlers) GetMediaInfo() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		_, ok := middleware.GetIdentityFromContext(r.Context())
		if !ok {
			response.WriteJSON(w, http.StatusUnauthorized, response.GeneralError(errors.New("user not authenticated")))
			return
		}

		objectKey := r.PathValue("object_key")
		if objectKey == "" {
			response.WriteJSON(w, http.StatusBadRequest, response.GeneralError(errors.New("object key is required")))
			return
		}

		info, err := h.mediaService.GetObjectInfo(objectKey)
		if err != nil {
			response.WriteJSON(w, http.StatusNotFound, response.GeneralError(errors.New("image not found")))
			return
		}

		resp := MediaInfoResponse{
			ObjectKey:   info.Key,
			Size:        info.Size,
			ContentType: info.ContentType,
			UploadedAt:  info.LastModified,
			ImageURL:    h.mediaService.GetMediaURL(info.Key),
		}

		response.WriteJSON(w, http.StatusOK, resp)
	}
}
