package service

import (
	"context"
	"errors"

	"github.com/mobpsycho100/yatube/models"
	"github.com/mobpsycho100/yatube/storage"
)

// DefaultPageSize is the fixed page size for every listing view.
const DefaultPageSize = 10

// ErrInvalidPage is returned when the requested page number falls outside the
// valid range for the listing.
var ErrInvalidPage = errors.New("page number out of range")

// Page is a bounded, ordered subsequence of a listing plus pagination metadata.
type Page struct {
	Posts       []models.Post
	Number      int
	PageSize    int
	TotalItems  int64
	TotalPages  int
	HasNext     bool
	HasPrevious bool
}

// Listing turns (filter, page number, page size) requests into pages of posts.
type Listing struct {
	store storage.Store
}

// NewListing creates a listing service over the given store.
func NewListing(store storage.Store) *Listing {
	return &Listing{store: store}
}

// GetPage counts the filtered posts, validates the page number against
// ceil(total/size) and returns the requested slice. An empty listing still has
// one valid (empty) page so page 1 never fails. Results are deterministic for
// a fixed data set: the store orders by pub_date DESC, id DESC.
func (l *Listing) GetPage(ctx context.Context, filter storage.PostFilter, number, size int) (*Page, error) {
	if size <= 0 {
		size = DefaultPageSize
	}

	total, err := l.store.CountPosts(ctx, filter)
	if err != nil {
		return nil, err
	}

	totalPages := int((total + int64(size) - 1) / int64(size))
	if totalPages == 0 {
		totalPages = 1
	}
	if number < 1 || number > totalPages {
		return nil, ErrInvalidPage
	}

	posts, err := l.store.ListPosts(ctx, filter, (number-1)*size, size)
	if err != nil {
		return nil, err
	}

	return &Page{
		Posts:       posts,
		Number:      number,
		PageSize:    size,
		TotalItems:  total,
		TotalPages:  totalPages,
		HasNext:     number < totalPages,
		HasPrevious: number > 1,
	}, nil
}
