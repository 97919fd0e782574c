package service

import (
	"bytes"
	"context"
	"image"
	"strings"
	"testing"

	"audiovault/internal/config"
	"audiovault/internal/models"
	"audiovault/internal/testutil"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestImageService_Prepare(t *testing.T) {
	svc := NewImageService(testutil.NewMemoryStore(), nil)

	t.Run("downscales large images and re-encodes as jpeg", func(t *testing.T) {
		img, err := svc.Prepare(UploadImageInput{Filename: "big.png", Content: testutil.PNG(t, 3000, 1500)})
		require.NoError(t, err)
		assert.Equal(t, MasterMaxSize, img.Width)
		assert.Equal(t, MasterMaxSize/2, img.Height)

		_, format, err := image.DecodeConfig(bytes.NewReader(img.JPEG))
		require.NoError(t, err)
		assert.Equal(t, "jpeg", format)
	})

	t.Run("keeps small images at size", func(t *testing.T) {
		img, err := svc.Prepare(UploadImageInput{Content: testutil.PNG(t, 40, 30)})
		require.NoError(t, err)
		assert.Equal(t, 40, img.Width)
		assert.Equal(t, 30, img.Height)
	})

	t.Run("rejects empty upload", func(t *testing.T) {
		_, err := svc.Prepare(UploadImageInput{})
		assertAppError(t, err, models.CodeValidation)
	})

	t.Run("rejects non-images", func(t *testing.T) {
		_, err := svc.Prepare(UploadImageInput{Filename: "notes.txt", Content: []byte("just some text")})
		assertAppError(t, err, models.CodeValidation)
	})

	t.Run("rejects oversized upload", func(t *testing.T) {
		small := NewImageService(nil, &config.Config{UploadMaxSizeMB: 1})
		_, err := small.Prepare(UploadImageInput{Content: bytes.Repeat([]byte{0xff}, 1024*1024+1)})
		assertAppError(t, err, models.CodeValidation)
	})
}

func TestImageService_Store(t *testing.T) {
	store := testutil.NewMemoryStore()
	svc := NewImageService(store, nil)
	ctx := context.Background()

	img, err := svc.Prepare(UploadImageInput{Content: testutil.PNG(t, 800, 600)})
	require.NoError(t, err)

	photo, err := svc.Store(ctx, "items", 7, img, true)
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(photo.URL, "https://cdn.test/items/7/"))
	assert.True(t, strings.HasSuffix(photo.URL, ".jpg"))
	assert.True(t, strings.HasSuffix(photo.ThumbnailURL, "_thumb.webp"))
	assert.Equal(t, "image/jpeg", store.Types[photo.URL])
	assert.Equal(t, "image/webp", store.Types[photo.ThumbnailURL])

	t.Run("store failure is upstream", func(t *testing.T) {
		store.FailPut = true
		defer func() { store.FailPut = false }()
		_, err := svc.Store(ctx, "items", 7, img, false)
		assertAppError(t, err, models.CodeUpstream)
	})

	t.Run("disabled store", func(t *testing.T) {
		_, err := NewImageService(nil, nil).Store(ctx, "items", 7, img, false)
		assertAppError(t, err, models.CodeUpstream)
	})
}
