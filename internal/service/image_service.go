package service

import (
	"bytes"
	"context"
	"fmt"
	"image"
	"image/jpeg"
	_ "image/png" // Register PNG decoder
	"net/http"
	"strings"

	"audiovault/internal/config"
	"audiovault/internal/middleware"
	"audiovault/internal/models"
	"audiovault/internal/storage"

	"github.com/chai2010/webp"
	"github.com/google/uuid"
	xdraw "golang.org/x/image/draw"
	_ "golang.org/x/image/webp" // Register WebP decoder
)

const (
	DefaultImageMaxUploadSizeMB = 10
	MaxPhotosPerItem            = 6
	MasterMaxSize               = 2048
	ThumbnailMaxSize            = 320
	JPEGQuality                 = 82
	WebPQuality                 = 70
)

// UploadImageInput is one uploaded file as received from the client.
type UploadImageInput struct {
	Filename    string
	ContentType string
	Content     []byte
}

// PreparedImage is a validated upload, downscaled and re-encoded as JPEG.
type PreparedImage struct {
	JPEG   []byte
	Width  int
	Height int
	img    image.Image
}

// MimeType is always image/jpeg once an upload has been prepared.
func (p *PreparedImage) MimeType() string { return "image/jpeg" }

// StoredPhoto is the outcome of persisting one PreparedImage.
type StoredPhoto struct {
	URL          string
	ThumbnailURL string
}

// ImageService validates uploads and writes them to the object store.
type ImageService struct {
	store              storage.ObjectStore
	maxUploadSizeBytes int64
}

// NewImageService returns a new ImageService.
func NewImageService(store storage.ObjectStore, cfg *config.Config) *ImageService {
	maxUploadSizeMB := DefaultImageMaxUploadSizeMB
	if cfg != nil && cfg.UploadMaxSizeMB > 0 {
		maxUploadSizeMB = cfg.UploadMaxSizeMB
	}
	if store == nil {
		store = storage.Disabled{}
	}
	return &ImageService{
		store:              store,
		maxUploadSizeBytes: int64(maxUploadSizeMB) * 1024 * 1024,
	}
}

// Prepare checks type and size, decodes the image and downscales it to fit
// MasterMaxSize. It performs no I/O.
func (s *ImageService) Prepare(in UploadImageInput) (*PreparedImage, error) {
	if len(in.Content) == 0 {
		return nil, models.NewValidationError("No file uploaded")
	}
	if int64(len(in.Content)) > s.maxUploadSizeBytes {
		return nil, models.NewValidationError(fmt.Sprintf("File too large (max %dMB)", s.maxUploadSizeBytes/(1024*1024)))
	}

	detected := http.DetectContentType(in.Content)
	if !isAllowedImageMIME(detected) {
		return nil, models.NewValidationError("Only JPEG, PNG and WebP images are accepted")
	}

	decoded, format, err := image.Decode(bytes.NewReader(in.Content))
	if err != nil {
		return nil, models.NewValidationError("Invalid image file")
	}
	if !isSupportedDecodedFormat(format) {
		return nil, models.NewValidationError("Unsupported image format")
	}

	master := resizeToFit(decoded, MasterMaxSize, MasterMaxSize)
	encoded, err := encodeJPEG(master, JPEGQuality)
	if err != nil {
		return nil, models.NewInternalError(err)
	}

	b := master.Bounds()
	return &PreparedImage{JPEG: encoded, Width: b.Dx(), Height: b.Dy(), img: master}, nil
}

// PrepareAll prepares every upload, failing on the first invalid one.
func (s *ImageService) PrepareAll(inputs []UploadImageInput) ([]*PreparedImage, error) {
	out := make([]*PreparedImage, 0, len(inputs))
	for _, in := range inputs {
		p, err := s.Prepare(in)
		if err != nil {
			return nil, err
		}
		out = append(out, p)
	}
	return out, nil
}

// Store uploads the image under prefix/<ownerID>/ and, when withThumbnail is
// set, a small WebP thumbnail next to it.
func (s *ImageService) Store(ctx context.Context, prefix string, ownerID uint, img *PreparedImage, withThumbnail bool) (*StoredPhoto, error) {
	name := fmt.Sprintf("%s/%d/%s", prefix, ownerID, uuid.NewString())

	url, err := s.store.Put(ctx, name+".jpg", img.MimeType(), bytes.NewReader(img.JPEG), int64(len(img.JPEG)))
	if err != nil {
		return nil, models.NewUpstreamError("Photo storage unavailable", err)
	}
	out := &StoredPhoto{URL: url}

	if withThumbnail {
		thumb, err := encodeWebP(resizeToFit(img.img, ThumbnailMaxSize, ThumbnailMaxSize), WebPQuality)
		if err != nil {
			s.DeleteBestEffort(ctx, url)
			return nil, models.NewInternalError(err)
		}
		thumbURL, err := s.store.Put(ctx, name+"_thumb.webp", "image/webp", bytes.NewReader(thumb), int64(len(thumb)))
		if err != nil {
			s.DeleteBestEffort(ctx, url)
			return nil, models.NewUpstreamError("Photo storage unavailable", err)
		}
		out.ThumbnailURL = thumbURL
	}
	return out, nil
}

// DeleteBestEffort removes objects and only logs failures.
func (s *ImageService) DeleteBestEffort(ctx context.Context, urls ...string) {
	for _, u := range urls {
		if strings.TrimSpace(u) == "" {
			continue
		}
		if err := s.store.Delete(ctx, u); err != nil {
			middleware.Logger.WarnContext(ctx, "failed to delete stored object", "url", u, "error", err)
		}
	}
}

// InStore reports whether url addresses an object in the configured store.
func (s *ImageService) InStore(url string) bool {
	_, ok := s.store.ObjectName(url)
	return ok
}

// Owns reports whether url addresses an object stored under
// <prefix>/<ownerID>/ by this service.
func (s *ImageService) Owns(url, prefix string, ownerID uint) bool {
	name, ok := s.store.ObjectName(url)
	if !ok || ownerID == 0 {
		return false
	}
	if strings.Contains(name, "..") || strings.ContainsAny(name, "?#\\") {
		return false
	}
	return strings.HasPrefix(name, fmt.Sprintf("%s/%d/", prefix, ownerID))
}

// DeleteOwnedBestEffort removes the urls stored under <prefix>/<ownerID>/ and
// skips everything else.
func (s *ImageService) DeleteOwnedBestEffort(ctx context.Context, prefix string, ownerID uint, urls ...string) {
	for _, u := range urls {
		if strings.TrimSpace(u) == "" {
			continue
		}
		if !s.Owns(u, prefix, ownerID) {
			middleware.Logger.WarnContext(ctx, "skipping delete of object outside owner prefix",
				"url", u, "owner_id", ownerID)
			continue
		}
		s.DeleteBestEffort(ctx, u)
	}
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

	scale := float64(maxWidth) / float64(w)
	if s := float64(maxHeight) / float64(h); s < scale {
		scale = s
	}
	newW := max(int(float64(w)*scale), 1)
	newH := max(int(float64(h)*scale), 1)

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
	switch strings.ToLower(strings.TrimSpace(contentType)) {
	case "image/jpeg", "image/png", "image/webp":
		return true
	default:
		return false
	}
}

func isSupportedDecodedFormat(format string) bool {
	switch strings.ToLower(strings.TrimSpace(format)) {
	case "jpeg", "png", "webp":
		return true
	default:
		return false
	}
}
