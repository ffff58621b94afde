package service

import (
	"bytes"
	"context"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"image"
	"image/jpeg"
	"mime"
	"net/http"
	"os"
	"path/filepath"
	"strings"

	"inkwell/internal/models"
	"inkwell/internal/repository"

	"github.com/chai2010/webp"
	xdraw "golang.org/x/image/draw"
	_ "golang.org/x/image/webp" // Register WebP decoder

	_ "image/gif"
	_ "image/png"
)

const (
	DefaultMediaDir    = "/tmp/inkwell/media"
	maxUploadSizeBytes = 10 * 1024 * 1024
	masterMaxSize      = 2048
	thumbnailSize      = 512
	jpegQuality        = 82
	webpQuality        = 70
)

type UploadImageInput struct {
	UserID      uint
	ContentType string
	Content     []byte
}

// ImageService validates, normalizes and stores uploaded images. Renditions
// are produced inline during upload.
type ImageService struct {
	repo     repository.ImageRepository
	mediaDir string
}

func NewImageService(repo repository.ImageRepository, mediaDir string) *ImageService {
	if mediaDir == "" {
		mediaDir = DefaultMediaDir
	}
	return &ImageService{repo: repo, mediaDir: mediaDir}
}

// Upload decodes and re-encodes the picture, deduplicating by content hash.
// The master is stored as JPEG plus a WebP rendition and a 512px thumbnail.
func (s *ImageService) Upload(ctx context.Context, in UploadImageInput) (*models.Image, error) {
	if in.UserID == 0 {
		return nil, models.NewValidationError("Invalid user")
	}
	if len(in.Content) == 0 {
		return nil, models.NewValidationError("No file uploaded")
	}
	if len(in.Content) > maxUploadSizeBytes {
		return nil, models.NewValidationError("File too large (max 10MB)")
	}

	detectedType := http.DetectContentType(in.Content)
	if !isAllowedImageMIME(detectedType) {
		return nil, models.NewValidationError("Invalid image type")
	}
	if provided := normalizeContentType(in.ContentType); strings.HasPrefix(provided, "image/") && !isMatchingContentType(provided, detectedType) {
		return nil, models.NewValidationError("Image content type mismatch")
	}

	decoded, _, err := image.Decode(bytes.NewReader(in.Content))
	if err != nil {
		return nil, models.NewValidationError("Invalid image file")
	}

	master := resizeToFit(decoded, masterMaxSize, masterMaxSize)
	masterJPG, err := encodeJPEG(master, jpegQuality)
	if err != nil {
		return nil, models.NewInternalError(err)
	}

	hash := contentHash(in.UserID, masterJPG)
	if existing, getErr := s.repo.GetByHash(ctx, hash); getErr == nil {
		return existing, nil
	}

	masterWebP, err := encodeWebP(master, webpQuality)
	if err != nil {
		return nil, models.NewInternalError(err)
	}

	written := []string{}
	store := func(rel string, data []byte) error {
		abs := filepath.Join(s.mediaDir, rel)
		if err := writeBytesToFile(abs, data); err != nil {
			return err
		}
		written = append(written, abs)
		return nil
	}

	if err := store(filepath.Join(hash, "master.jpg"), masterJPG); err != nil {
		return nil, models.NewInternalError(err)
	}
	if err := store(filepath.Join(hash, "master.webp"), masterWebP); err != nil {
		cleanupFiles(written)
		return nil, models.NewInternalError(err)
	}

	variants := []models.ImageVariant{{SizePx: masterMaxSize, Format: "webp"}}
	mb := master.Bounds()
	if mb.Dx() > thumbnailSize && mb.Dy() > thumbnailSize {
		thumb := resizeToFit(master, thumbnailSize, thumbnailSize)
		thumbWebP, err := encodeWebP(thumb, webpQuality)
		if err != nil {
			cleanupFiles(written)
			return nil, models.NewInternalError(err)
		}
		if err := store(filepath.Join(hash, fmt.Sprintf("%d.webp", thumbnailSize)), thumbWebP); err != nil {
			cleanupFiles(written)
			return nil, models.NewInternalError(err)
		}
		variants = append(variants, models.ImageVariant{SizePx: thumbnailSize, Format: "webp"})
	}

	record := &models.Image{
		Hash:        hash,
		ContentType: "image/jpeg",
		Width:       mb.Dx(),
		Height:      mb.Dy(),
		SizeBytes:   int64(len(masterJPG)),
		UploadedBy:  in.UserID,
		Variants:    variants,
	}
	if err := s.repo.Create(ctx, record); err != nil {
		cleanupFiles(written)
		return nil, err
	}
	return record, nil
}

// MasterURL is the canonical serving path for an uploaded image.
func (s *ImageService) MasterURL(hash string) string {
	return fmt.Sprintf("/media/i/%s/master.jpg", hash)
}

// ResolveForServing maps a hash and filename to a path on disk, rejecting
// anything that could traverse outside the media directory.
func (s *ImageService) ResolveForServing(ctx context.Context, hash, file string) (string, error) {
	if !isValidImageHash(hash) {
		return "", models.NewValidationError("Invalid image hash")
	}
	if !isValidRenditionName(file) {
		return "", models.NewValidationError("Invalid image file name")
	}
	if _, err := s.repo.GetByHash(ctx, hash); err != nil {
		return "", err
	}
	fullPath := filepath.Join(s.mediaDir, hash, file)
	if _, err := os.Stat(fullPath); err != nil {
		if os.IsNotExist(err) {
			return "", models.NewNotFoundError("Image", hash)
		}
		return "", models.NewInternalError(err)
	}
	return fullPath, nil
}

// isValidImageHash checks that the hash is strictly lowercase hex. This
// prevents path traversal via crafted hash parameters.
func isValidImageHash(hash string) bool {
	if len(hash) == 0 || len(hash) > 128 {
		return false
	}
	for _, c := range hash {
		if (c < '0' || c > '9') && (c < 'a' || c > 'f') {
			return false
		}
	}
	return true
}

func isValidRenditionName(file string) bool {
	switch file {
	case "master.jpg", "master.webp":
		return true
	}
	var size int
	if _, err := fmt.Sscanf(file, "%d.webp", &size); err == nil && size > 0 {
		return file == fmt.Sprintf("%d.webp", size)
	}
	return false
}

func resizeToFit(src image.Image, maxWidth, maxHeight int) image.Image {
	bounds := src.Bounds()
	w := bounds.Dx()
	h := bounds.Dy()
	if w <= 0 || h <= 0 {
		return src
	}
	if w <= maxWidth && h <= maxHeight {
		return src
	}

	scaleW := float64(maxWidth) / float64(w)
	scaleH := float64(maxHeight) / float64(h)
	scale := scaleW
	if scaleH < scale {
		scale = scaleH
	}
	newW := int(float64(w) * scale)
	newH := int(float64(h) * scale)
	if newW < 1 {
		newW = 1
	}
	if newH < 1 {
		newH = 1
	}

	dst := image.NewRGBA(image.Rect(0, 0, newW, newH))
	xdraw.CatmullRom.Scale(dst, dst.Bounds(), src, bounds, xdraw.Over, nil)
	return dst
}

func encodeJPEG(img image.Image, quality int) ([]byte, error) {
	buf := bytes.NewBuffer(nil)
	if err := jpeg.Encode(buf, img, &jpeg.Options{Quality: quality}); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

func encodeWebP(img image.Image, quality int) ([]byte, error) {
	buf := bytes.NewBuffer(nil)
	if err := webp.Encode(buf, img, &webp.Options{Quality: float32(quality)}); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

func isAllowedImageMIME(contentType string) bool {
	switch normalizeContentType(contentType) {
	case "image/jpeg", "image/jpg", "image/png", "image/gif", "image/webp":
		return true
	default:
		return false
	}
}

func normalizeContentType(contentType string) string {
	if contentType == "" {
		return ""
	}
	mediaType, _, err := mime.ParseMediaType(contentType)
	if err != nil {
		return strings.ToLower(strings.TrimSpace(contentType))
	}
	return strings.ToLower(strings.TrimSpace(mediaType))
}

func isMatchingContentType(provided, detected string) bool {
	p := normalizeContentType(provided)
	d := normalizeContentType(detected)
	if p == d {
		return true
	}
	return (p == "image/jpg" && d == "image/jpeg") || (p == "image/jpeg" && d == "image/jpg")
}

func contentHash(userID uint, content []byte) string {
	h := sha256.New()
	_, _ = fmt.Fprintf(h, "%d:", userID)
	h.Write(content)
	return hex.EncodeToString(h.Sum(nil))
}

func writeBytesToFile(path string, data []byte) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o750); err != nil {
		return err
	}
	return os.WriteFile(path, data, 0o600)
}

func cleanupFiles(paths []string) {
	for _, p := range paths {
		_ = os.Remove(p)
	}
}
