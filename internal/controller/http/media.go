package http

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"

	"github.com/eldar/school-social/internal/httpx/response"
	"github.com/eldar/school-social/internal/storage"
)

// MaxUploadSize is the maximum allowed image upload size (10MB)
const MaxUploadSize = 10 << 20

// ImageUploader defines the interface for storing uploaded images
type ImageUploader interface {
	Upload(ctx context.Context, in storage.UploadInput) (*storage.UploadOutput, error)
}

// MediaHandler handles image upload HTTP requests for avatars and post
// attachments.
type MediaHandler struct {
	uploader ImageUploader
}

// NewMediaHandler creates a new media handler
func NewMediaHandler(uploader ImageUploader) *MediaHandler {
	return &MediaHandler{uploader: uploader}
}

// RegisterRoutes registers media routes
func (h *MediaHandler) RegisterRoutes(r chi.Router) {
	r.Post("/media/upload", h.Upload())
}

// UploadResponse represents the response from the upload endpoint
type UploadResponse struct {
	URL  string `json:"url"`
	Key  string `json:"key"`
	Size int64  `json:"size"`
}

// Upload handles POST /media/upload
func (h *MediaHandler) Upload() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		r.Body = http.MaxBytesReader(w, r.Body, MaxUploadSize)

		if err := r.ParseMultipartForm(MaxUploadSize); err != nil {
			response.BadRequest(w, "file too large or invalid multipart form")
			return
		}

		file, header, err := r.FormFile("file")
		if err != nil {
			response.BadRequest(w, "missing file in request")
			return
		}
		defer file.Close()

		contentType := header.Header.Get("Content-Type")
		if !isAllowedImageType(contentType) {
			response.BadRequest(w, fmt.Sprintf("unsupported image type: %s", contentType))
			return
		}

		folder := r.URL.Query().Get("folder")
		if folder != "avatars" && folder != "posts" {
			folder = "posts"
		}

		result, err := h.uploader.Upload(r.Context(), storage.UploadInput{
			Reader:      io.Reader(file),
			ContentType: contentType,
			Size:        header.Size,
			Filename:    header.Filename,
			Folder:      folder,
		})
		if err != nil {
			response.InternalError(w, "failed to store file")
			return
		}

		response.Created(w, UploadResponse{
			URL:  result.URL,
			Key:  result.Key,
			Size: result.Size,
		})
	}
}

// isAllowedImageType checks if the content type is allowed for upload
func isAllowedImageType(contentType string) bool {
	allowed := []string{
		"image/jpeg",
		"image/png",
		"image/gif",
		"image/webp",
	}

	for _, a := range allowed {
		if strings.EqualFold(contentType, a) {
			return true
		}
	}
	return false
}
