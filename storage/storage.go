package storage

import (
	"context"
	"errors"

	"github.com/mobpsycho100/yatube/models"
)

var (
	// ErrNotFound is returned when a referenced user, group or post does not exist.
	ErrNotFound = errors.New("record not found")
	// ErrSlugTaken is returned when creating a group whose slug already exists.
	ErrSlugTaken = errors.New("group slug already taken")
	// ErrEmptyText is returned when a post is created or updated with no text.
	ErrEmptyText = errors.New("post text cannot be empty")
)

// PostFilter narrows a post listing. The zero value matches all posts.
// At most one of GroupSlug and Username is expected to be set; listing fails
// with ErrNotFound when the referenced group or user does not exist.
type PostFilter struct {
	GroupSlug string
	Username  string
}

// Store is the persistence contract for the blog. Both the MySQL/GORM store
// and the in-memory store implement it; everything above this interface is
// storage-agnostic.
//
// ListPosts returns the filtered posts ordered by pub_date DESC, id DESC.
// offset/limit slice that ordering; limit <= 0 means no limit.
type Store interface {
	CreateUser(ctx context.Context, user *models.User) error
	GetUserByID(ctx context.Context, id uint) (*models.User, error)
	GetUserByUsername(ctx context.Context, username string) (*models.User, error)
	// DeleteUser removes the user together with all of their posts.
	DeleteUser(ctx context.Context, id uint) error

	CreateGroup(ctx context.Context, group *models.Group) error
	GetGroupByID(ctx context.Context, id uint) (*models.Group, error)
	GetGroupBySlug(ctx context.Context, slug string) (*models.Group, error)
	ListGroups(ctx context.Context) ([]models.Group, error)
	// DeleteGroup removes the group and clears the group reference on its
	// posts; the posts themselves survive.
	DeleteGroup(ctx context.Context, id uint) error

	CreatePost(ctx context.Context, post *models.Post) error
	GetPost(ctx context.Context, id uint) (*models.Post, error)
	// UpdatePost persists new Text/GroupID values for an existing post.
	// Author and PubDate are never touched.
	UpdatePost(ctx context.Context, post *models.Post) error
	ListPosts(ctx context.Context, filter PostFilter, offset, limit int) ([]models.Post, error)
	CountPosts(ctx context.Context, filter PostFilter) (int64, error)
}
