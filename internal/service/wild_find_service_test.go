package service

import (
	"context"
	"encoding/json"
	"testing"

	"audiovault/internal/models"
	"audiovault/internal/repository"
	"audiovault/internal/testutil"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestWildFindService(t *testing.T) {
	db := testutil.NewTestDB(t)
	store := testutil.NewMemoryStore()
	svc := NewWildFindService(repository.NewWildFindRepository(db), NewImageService(store, nil))
	ctx := context.Background()

	owner := testutil.CreateUser(t, db, "owner")
	other := testutil.CreateUser(t, db, "other")

	t.Run("analysis must be an object", func(t *testing.T) {
		for _, raw := range []string{``, `[]`, `"text"`, `{broken`} {
			_, err := svc.Create(ctx, CreateWildFindInput{UserID: owner.ID, FindType: "wild_find", Analysis: json.RawMessage(raw)})
			assertAppError(t, err, models.CodeValidation)
		}
	})

	t.Run("unknown type", func(t *testing.T) {
		_, err := svc.Create(ctx, CreateWildFindInput{UserID: owner.ID, FindType: "garage_sale", Analysis: json.RawMessage(`{}`)})
		assertAppError(t, err, models.CodeValidation)
	})

	find, err := svc.Create(ctx, CreateWildFindInput{
		UserID:   owner.ID,
		FindType: "wild_find",
		Notes:    "  thrift store  ",
		Analysis: json.RawMessage(`{"title":"Tape deck"}`),
		Image:    &UploadImageInput{Content: testutil.PNG(t, 30, 30)},
	})
	require.NoError(t, err)
	assert.Equal(t, "thrift store", find.Notes)
	assert.Contains(t, store.Objects, find.ImageURL)

	t.Run("list", func(t *testing.T) {
		got, err := svc.List(ctx, owner.ID, 20, 0)
		require.NoError(t, err)
		require.Len(t, got, 1)
		assert.Equal(t, find.ID, got[0].ID)

		none, err := svc.List(ctx, other.ID, 20, 0)
		require.NoError(t, err)
		assert.Empty(t, none)
	})

	t.Run("non-owner", func(t *testing.T) {
		_, err := svc.GetOwned(ctx, other.ID, find.ID)
		assertAppError(t, err, models.CodeForbidden)
		assertAppError(t, svc.Delete(ctx, other.ID, find.ID), models.CodeForbidden)
	})

	t.Run("delete", func(t *testing.T) {
		require.NoError(t, svc.Delete(ctx, owner.ID, find.ID))
		assert.NotContains(t, store.Objects, find.ImageURL)
		_, err := svc.GetOwned(ctx, owner.ID, find.ID)
		assertAppError(t, err, models.CodeNotFound)
	})
}

func TestWildFindServiceImageURLOwnership(t *testing.T) {
	db := testutil.NewTestDB(t)
	store := testutil.NewMemoryStore()
	images := NewImageService(store, nil)
	items := NewItemService(repository.NewAudioItemRepository(db), images)
	finds := NewWildFindService(repository.NewWildFindRepository(db), images)
	ctx := context.Background()

	victim := testutil.CreateUser(t, db, "victim")
	attacker := testutil.CreateUser(t, db, "attacker")

	item, err := items.Create(ctx, CreateItemInput{
		UserID: victim.ID,
		Fields: ItemFields{Make: "Marantz", Model: "2270"},
		Photos: []UploadImageInput{{Filename: "front.png", Content: testutil.PNG(t, 40, 40)}},
	})
	require.NoError(t, err)
	victimPhoto := item.Photos[0]

	t.Run("another user's stored photo is rejected", func(t *testing.T) {
		_, err := finds.Create(ctx, CreateWildFindInput{
			UserID:   attacker.ID,
			FindType: "wild_find",
			ImageURL: victimPhoto,
			Analysis: json.RawMessage(`{}`),
		})
		assertAppError(t, err, models.CodeForbidden)
		assert.Contains(t, store.Objects, victimPhoto)
	})

	t.Run("own item photo may be referenced but survives the find", func(t *testing.T) {
		find, err := finds.Create(ctx, CreateWildFindInput{
			UserID:   victim.ID,
			FindType: "wild_find",
			ImageURL: victimPhoto,
			Analysis: json.RawMessage(`{}`),
		})
		require.NoError(t, err)
		require.NoError(t, finds.Delete(ctx, victim.ID, find.ID))
		assert.Contains(t, store.Objects, victimPhoto)
	})

	t.Run("legacy rows pointing at foreign objects are not deleted", func(t *testing.T) {
		row := &models.WildFind{UserID: attacker.ID, FindType: models.FindTypeWild, ImageURL: victimPhoto, Analysis: []byte(`{}`)}
		require.NoError(t, db.Create(row).Error)

		require.NoError(t, finds.Delete(ctx, attacker.ID, row.ID))
		assert.Contains(t, store.Objects, victimPhoto)
		assert.NotContains(t, store.Deleted, victimPhoto)
	})

	t.Run("external URLs are kept as-is", func(t *testing.T) {
		find, err := finds.Create(ctx, CreateWildFindInput{
			UserID:   attacker.ID,
			FindType: "ad_analysis",
			ImageURL: "https://listings.example.com/photo.jpg",
			Analysis: json.RawMessage(`{}`),
		})
		require.NoError(t, err)
		require.NoError(t, finds.Delete(ctx, attacker.ID, find.ID))
		assert.NotContains(t, store.Deleted, "https://listings.example.com/photo.jpg")
	})
}

func TestImageServiceOwns(t *testing.T) {
	images := NewImageService(testutil.NewMemoryStore(), nil)

	assert.True(t, images.Owns("https://cdn.test/finds/7/a.jpg", findPhotoPrefix, 7))
	assert.False(t, images.Owns("https://cdn.test/finds/70/a.jpg", findPhotoPrefix, 7))
	assert.False(t, images.Owns("https://cdn.test/finds/7/../../items/1/a.jpg", findPhotoPrefix, 7))
	assert.False(t, images.Owns("https://cdn.test/items/7/a.jpg", findPhotoPrefix, 7))
	assert.False(t, images.Owns("https://elsewhere.test/finds/7/a.jpg", findPhotoPrefix, 7))
	assert.False(t, images.Owns("https://cdn.test/finds/0/a.jpg", findPhotoPrefix, 0))
}
