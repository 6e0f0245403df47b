package gormstore

import (
	"context"
	"errors"
	"strings"

	"gorm.io/gorm"

	"github.com/mobpsycho100/yatube/models"
	"github.com/mobpsycho100/yatube/storage"
)

// Store implements storage.Store on top of GORM/MySQL.
type Store struct {
	db *gorm.DB
}

// New wraps an initialized gorm connection.
func New(db *gorm.DB) *Store {
	return &Store{db: db}
}

var _ storage.Store = (*Store)(nil)

// === Users ===

func (s *Store) CreateUser(ctx context.Context, user *models.User) error {
	return s.db.WithContext(ctx).Create(user).Error
}

func (s *Store) GetUserByID(ctx context.Context, id uint) (*models.User, error) {
	var user models.User
	if err := s.db.WithContext(ctx).First(&user, id).Error; err != nil {
		return nil, translate(err)
	}
	return &user, nil
}

func (s *Store) GetUserByUsername(ctx context.Context, username string) (*models.User, error) {
	var user models.User
	if err := s.db.WithContext(ctx).Where("username = ?", username).First(&user).Error; err != nil {
		return nil, translate(err)
	}
	return &user, nil
}

// DeleteUser removes the user and cascades to their posts in one transaction.
func (s *Store) DeleteUser(ctx context.Context, id uint) error {
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var user models.User
		if err := tx.First(&user, id).Error; err != nil {
			return translate(err)
		}
		if err := tx.Where("user_id = ?", id).Delete(&models.Post{}).Error; err != nil {
			return err
		}
		return tx.Delete(&user).Error
	})
}

// === Groups ===

func (s *Store) CreateGroup(ctx context.Context, group *models.Group) error {
	if err := s.db.WithContext(ctx).Create(group).Error; err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) || strings.Contains(err.Error(), "Duplicate entry") {
			return storage.ErrSlugTaken
		}
		return err
	}
	return nil
}

func (s *Store) GetGroupByID(ctx context.Context, id uint) (*models.Group, error) {
	var group models.Group
	if err := s.db.WithContext(ctx).First(&group, id).Error; err != nil {
		return nil, translate(err)
	}
	return &group, nil
}

func (s *Store) GetGroupBySlug(ctx context.Context, slug string) (*models.Group, error) {
	var group models.Group
	if err := s.db.WithContext(ctx).Where("slug = ?", slug).First(&group).Error; err != nil {
		return nil, translate(err)
	}
	return &group, nil
}

func (s *Store) ListGroups(ctx context.Context) ([]models.Group, error) {
	var groups []models.Group
	if err := s.db.WithContext(ctx).Order("id ASC").Find(&groups).Error; err != nil {
		return nil, err
	}
	return groups, nil
}

// DeleteGroup clears group_id on affected posts, then removes the group.
// The posts themselves are kept.
func (s *Store) DeleteGroup(ctx context.Context, id uint) error {
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var group models.Group
		if err := tx.First(&group, id).Error; err != nil {
			return translate(err)
		}
		if err := tx.Model(&models.Post{}).Where("group_id = ?", id).Update("group_id", nil).Error; err != nil {
			return err
		}
		return tx.Delete(&group).Error
	})
}

// === Posts ===

func (s *Store) CreatePost(ctx context.Context, post *models.Post) error {
	if strings.TrimSpace(post.Text) == "" {
		return storage.ErrEmptyText
	}
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.First(&models.User{}, post.UserID).Error; err != nil {
			return translate(err)
		}
		if post.GroupID != nil {
			if err := tx.First(&models.Group{}, *post.GroupID).Error; err != nil {
				return translate(err)
			}
		}
		return tx.Omit("User", "Group").Create(post).Error
	})
}

func (s *Store) GetPost(ctx context.Context, id uint) (*models.Post, error) {
	var post models.Post
	if err := s.db.WithContext(ctx).Preload("User").Preload("Group").First(&post, id).Error; err != nil {
		return nil, translate(err)
	}
	return &post, nil
}

func (s *Store) UpdatePost(ctx context.Context, post *models.Post) error {
	if strings.TrimSpace(post.Text) == "" {
		return storage.ErrEmptyText
	}
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var existing models.Post
		if err := tx.First(&existing, post.ID).Error; err != nil {
			return translate(err)
		}
		if post.GroupID != nil {
			if err := tx.First(&models.Group{}, *post.GroupID).Error; err != nil {
				return translate(err)
			}
		}
		// Only text and group are mutable; author and pub_date stay as created.
		return tx.Model(&existing).Select("text", "group_id").
			Updates(map[string]interface{}{"text": post.Text, "group_id": post.GroupID}).Error
	})
}

func (s *Store) ListPosts(ctx context.Context, filter storage.PostFilter, offset, limit int) ([]models.Post, error) {
	query, err := s.filteredQuery(ctx, filter)
	if err != nil {
		return nil, err
	}
	query = query.Preload("User").Preload("Group").Order("pub_date DESC, id DESC")
	if offset > 0 {
		query = query.Offset(offset)
	}
	if limit > 0 {
		query = query.Limit(limit)
	}
	var posts []models.Post
	if err := query.Find(&posts).Error; err != nil {
		return nil, err
	}
	return posts, nil
}

func (s *Store) CountPosts(ctx context.Context, filter storage.PostFilter) (int64, error) {
	query, err := s.filteredQuery(ctx, filter)
	if err != nil {
		return 0, err
	}
	var total int64
	if err := query.Model(&models.Post{}).Count(&total).Error; err != nil {
		return 0, err
	}
	return total, nil
}

// filteredQuery resolves the filter target up front so unknown slugs and
// usernames surface as ErrNotFound rather than empty result sets.
func (s *Store) filteredQuery(ctx context.Context, filter storage.PostFilter) (*gorm.DB, error) {
	query := s.db.WithContext(ctx)
	if filter.GroupSlug != "" {
		group, err := s.GetGroupBySlug(ctx, filter.GroupSlug)
		if err != nil {
			return nil, err
		}
		query = query.Where("group_id = ?", group.ID)
	}
	if filter.Username != "" {
		user, err := s.GetUserByUsername(ctx, filter.Username)
		if err != nil {
			return nil, err
		}
		query = query.Where("user_id = ?", user.ID)
	}
	return query, nil
}

func translate(err error) error {
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return storage.ErrNotFound
	}
	return err
}
