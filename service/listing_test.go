package service

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mobpsycho100/yatube/models"
	"github.com/mobpsycho100/yatube/storage"
	"github.com/mobpsycho100/yatube/storage/inmemory"
)

// seedPosts creates one author and n posts with strictly increasing pub dates,
// so post n is the newest and leads every listing.
func seedPosts(t *testing.T, store *inmemory.Store, n int) {
	t.Helper()
	ctx := context.Background()
	author := &models.User{Username: "author"}
	require.NoError(t, store.CreateUser(ctx, author))

	base := time.Date(2024, 3, 1, 9, 0, 0, 0, time.UTC)
	for i := 1; i <= n; i++ {
		post := &models.Post{
			Text:    fmt.Sprintf("post %d", i),
			UserID:  author.ID,
			PubDate: base.Add(time.Duration(i) * time.Minute),
		}
		require.NoError(t, store.CreatePost(ctx, post))
	}
}

func TestListing_GetPage(t *testing.T) {
	store := inmemory.New()
	seedPosts(t, store, 13)
	listing := NewListing(store)
	ctx := context.Background()

	page, err := listing.GetPage(ctx, storage.PostFilter{}, 1, DefaultPageSize)
	require.NoError(t, err)
	assert.Len(t, page.Posts, 10)
	assert.Equal(t, 1, page.Number)
	assert.EqualValues(t, 13, page.TotalItems)
	assert.Equal(t, 2, page.TotalPages)
	assert.True(t, page.HasNext)
	assert.False(t, page.HasPrevious)
	assert.Equal(t, "post 13", page.Posts[0].Text)

	page, err = listing.GetPage(ctx, storage.PostFilter{}, 2, DefaultPageSize)
	require.NoError(t, err)
	assert.Len(t, page.Posts, 3)
	assert.False(t, page.HasNext)
	assert.True(t, page.HasPrevious)
	assert.Equal(t, "post 1", page.Posts[2].Text)
}

func TestListing_PageOutOfRange(t *testing.T) {
	store := inmemory.New()
	seedPosts(t, store, 13)
	listing := NewListing(store)
	ctx := context.Background()

	_, err := listing.GetPage(ctx, storage.PostFilter{}, 3, DefaultPageSize)
	assert.ErrorIs(t, err, ErrInvalidPage)

	_, err = listing.GetPage(ctx, storage.PostFilter{}, 0, DefaultPageSize)
	assert.ErrorIs(t, err, ErrInvalidPage)

	_, err = listing.GetPage(ctx, storage.PostFilter{}, -1, DefaultPageSize)
	assert.ErrorIs(t, err, ErrInvalidPage)
}

func TestListing_EmptyListing(t *testing.T) {
	store := inmemory.New()
	listing := NewListing(store)
	ctx := context.Background()

	// page 1 of an empty listing is valid and empty
	page, err := listing.GetPage(ctx, storage.PostFilter{}, 1, DefaultPageSize)
	require.NoError(t, err)
	assert.Empty(t, page.Posts)
	assert.Equal(t, 1, page.TotalPages)
	assert.EqualValues(t, 0, page.TotalItems)
	assert.False(t, page.HasNext)
	assert.False(t, page.HasPrevious)

	_, err = listing.GetPage(ctx, storage.PostFilter{}, 2, DefaultPageSize)
	assert.ErrorIs(t, err, ErrInvalidPage)
}

func TestListing_ExactMultiple(t *testing.T) {
	store := inmemory.New()
	seedPosts(t, store, 20)
	listing := NewListing(store)
	ctx := context.Background()

	page, err := listing.GetPage(ctx, storage.PostFilter{}, 2, DefaultPageSize)
	require.NoError(t, err)
	assert.Len(t, page.Posts, 10)
	assert.Equal(t, 2, page.TotalPages)

	_, err = listing.GetPage(ctx, storage.PostFilter{}, 3, DefaultPageSize)
	assert.ErrorIs(t, err, ErrInvalidPage)
}

func TestListing_FilterErrorsPropagate(t *testing.T) {
	store := inmemory.New()
	listing := NewListing(store)
	ctx := context.Background()

	_, err := listing.GetPage(ctx, storage.PostFilter{GroupSlug: "missing"}, 1, DefaultPageSize)
	assert.ErrorIs(t, err, storage.ErrNotFound)

	_, err = listing.GetPage(ctx, storage.PostFilter{Username: "missing"}, 1, DefaultPageSize)
	assert.ErrorIs(t, err, storage.ErrNotFound)
}

func TestListing_Deterministic(t *testing.T) {
	store := inmemory.New()
	seedPosts(t, store, 13)
	listing := NewListing(store)
	ctx := context.Background()

	first, err := listing.GetPage(ctx, storage.PostFilter{}, 1, DefaultPageSize)
	require.NoError(t, err)
	second, err := listing.GetPage(ctx, storage.PostFilter{}, 1, DefaultPageSize)
	require.NoError(t, err)

	require.Equal(t, len(first.Posts), len(second.Posts))
	for i := range first.Posts {
		assert.Equal(t, first.Posts[i].ID, second.Posts[i].ID)
	}
}
