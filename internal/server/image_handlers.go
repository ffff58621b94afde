package server

import (
	"io"
	"strings"

	"inkwell/internal/models"
	"inkwell/internal/service"

	"github.com/gofiber/fiber/v2"
)

// ImageUploadResponse is the API response after uploading an image.
type ImageUploadResponse struct {
	ID        uint   `json:"id"`
	Hash      string `json:"hash"`
	Width     int    `json:"width"`
	Height    int    `json:"height"`
	SizeBytes int64  `json:"size_bytes"`
	URL       string `json:"url"`
}

// UploadImage handles POST /images
func (s *Server) UploadImage(c *fiber.Ctx) error {
	userID := currentUserID(c)
	file, err := c.FormFile("image")
	if err != nil {
		return models.RespondWithError(c, fiber.StatusBadRequest,
			models.NewValidationError("No file uploaded"))
	}

	src, err := file.Open()
	if err != nil {
		return models.RespondWithError(c, fiber.StatusBadRequest,
			models.NewValidationError("Unable to read uploaded file"))
	}
	defer func() { _ = src.Close() }()

	content, err := io.ReadAll(src)
	if err != nil {
		return models.RespondWithError(c, fiber.StatusBadRequest,
			models.NewValidationError("Unable to read uploaded file"))
	}

	uploaded, err := s.imageService.Upload(c.UserContext(), service.UploadImageInput{
		UserID:      userID,
		ContentType: file.Header.Get("Content-Type"),
		Content:     content,
	})
	if err != nil {
		return s.respondDomainError(c, err, 0)
	}

	return c.Status(fiber.StatusCreated).JSON(ImageUploadResponse{
		ID:        uploaded.ID,
		Hash:      uploaded.Hash,
		Width:     uploaded.Width,
		Height:    uploaded.Height,
		SizeBytes: uploaded.SizeBytes,
		URL:       s.imageService.MasterURL(uploaded.Hash),
	})
}

// ServeImage handles GET /media/i/:hash/:file
func (s *Server) ServeImage(c *fiber.Ctx) error {
	hash := strings.TrimSpace(c.Params("hash"))
	file := strings.TrimSpace(c.Params("file"))

	path, err := s.imageService.ResolveForServing(c.UserContext(), hash, file)
	if err != nil {
		return s.respondDomainError(c, err, 0)
	}

	c.Set("Cache-Control", "public, max-age=31536000, immutable")
	return c.SendFile(path)
}
