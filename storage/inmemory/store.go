package inmemory

import (
	"context"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/mobpsycho100/yatube/models"
	"github.com/mobpsycho100/yatube/storage"
)

// Store keeps the whole data set in process memory behind a RWMutex. It backs
// the test suite and local development; production uses the GORM store.
type Store struct {
	mu     sync.RWMutex
	users  map[uint]*models.User
	groups map[uint]*models.Group
	posts  map[uint]*models.Post

	nextUserID  uint
	nextGroupID uint
	nextPostID  uint
}

// New creates an empty in-memory store.
func New() *Store {
	return &Store{
		users:  make(map[uint]*models.User),
		groups: make(map[uint]*models.Group),
		posts:  make(map[uint]*models.Post),
	}
}

var _ storage.Store = (*Store)(nil)

// === Users ===

func (s *Store) CreateUser(ctx context.Context, user *models.User) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.nextUserID++
	user.ID = s.nextUserID
	now := time.Now()
	if user.CreatedAt.IsZero() {
		user.CreatedAt = now
	}
	user.UpdatedAt = now
	stored := *user
	s.users[user.ID] = &stored
	return nil
}

func (s *Store) GetUserByID(ctx context.Context, id uint) (*models.User, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	user, ok := s.users[id]
	if !ok {
		return nil, storage.ErrNotFound
	}
	out := *user
	return &out, nil
}

func (s *Store) GetUserByUsername(ctx context.Context, username string) (*models.User, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	user := s.findUserByUsername(username)
	if user == nil {
		return nil, storage.ErrNotFound
	}
	out := *user
	return &out, nil
}

// DeleteUser removes the user and every post they authored.
func (s *Store) DeleteUser(ctx context.Context, id uint) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.users[id]; !ok {
		return storage.ErrNotFound
	}
	for postID, post := range s.posts {
		if post.UserID == id {
			delete(s.posts, postID)
		}
	}
	delete(s.users, id)
	return nil
}

// === Groups ===

func (s *Store) CreateGroup(ctx context.Context, group *models.Group) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	for _, existing := range s.groups {
		if existing.Slug == group.Slug {
			return storage.ErrSlugTaken
		}
	}

	s.nextGroupID++
	group.ID = s.nextGroupID
	stored := *group
	s.groups[group.ID] = &stored
	return nil
}

func (s *Store) GetGroupByID(ctx context.Context, id uint) (*models.Group, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	group, ok := s.groups[id]
	if !ok {
		return nil, storage.ErrNotFound
	}
	out := *group
	return &out, nil
}

func (s *Store) GetGroupBySlug(ctx context.Context, slug string) (*models.Group, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	group := s.findGroupBySlug(slug)
	if group == nil {
		return nil, storage.ErrNotFound
	}
	out := *group
	return &out, nil
}

func (s *Store) ListGroups(ctx context.Context) ([]models.Group, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	groups := make([]models.Group, 0, len(s.groups))
	for _, g := range s.groups {
		groups = append(groups, *g)
	}
	sort.Slice(groups, func(i, j int) bool { return groups[i].ID < groups[j].ID })
	return groups, nil
}

// DeleteGroup clears the group reference on affected posts instead of
// deleting them.
func (s *Store) DeleteGroup(ctx context.Context, id uint) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.groups[id]; !ok {
		return storage.ErrNotFound
	}
	for _, post := range s.posts {
		if post.GroupID != nil && *post.GroupID == id {
			post.GroupID = nil
		}
	}
	delete(s.groups, id)
	return nil
}

// === Posts ===

func (s *Store) CreatePost(ctx context.Context, post *models.Post) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if strings.TrimSpace(post.Text) == "" {
		return storage.ErrEmptyText
	}
	if _, ok := s.users[post.UserID]; !ok {
		return storage.ErrNotFound
	}
	if post.GroupID != nil {
		if _, ok := s.groups[*post.GroupID]; !ok {
			return storage.ErrNotFound
		}
	}

	s.nextPostID++
	post.ID = s.nextPostID
	if post.PubDate.IsZero() {
		post.PubDate = time.Now()
	}
	stored := *post
	stored.User = models.User{}
	stored.Group = nil
	s.posts[post.ID] = &stored
	return nil
}

func (s *Store) GetPost(ctx context.Context, id uint) (*models.Post, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	post, ok := s.posts[id]
	if !ok {
		return nil, storage.ErrNotFound
	}
	out := s.withRelations(post)
	return &out, nil
}

func (s *Store) UpdatePost(ctx context.Context, post *models.Post) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	stored, ok := s.posts[post.ID]
	if !ok {
		return storage.ErrNotFound
	}
	if strings.TrimSpace(post.Text) == "" {
		return storage.ErrEmptyText
	}
	if post.GroupID != nil {
		if _, ok := s.groups[*post.GroupID]; !ok {
			return storage.ErrNotFound
		}
	}
	stored.Text = post.Text
	stored.GroupID = post.GroupID
	return nil
}

func (s *Store) ListPosts(ctx context.Context, filter storage.PostFilter, offset, limit int) ([]models.Post, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	matched, err := s.filterPosts(filter)
	if err != nil {
		return nil, err
	}

	if offset < 0 {
		offset = 0
	}
	if offset >= len(matched) {
		return []models.Post{}, nil
	}
	end := len(matched)
	if limit > 0 && offset+limit < end {
		end = offset + limit
	}

	out := make([]models.Post, 0, end-offset)
	for _, p := range matched[offset:end] {
		out = append(out, s.withRelations(p))
	}
	return out, nil
}

func (s *Store) CountPosts(ctx context.Context, filter storage.PostFilter) (int64, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	matched, err := s.filterPosts(filter)
	if err != nil {
		return 0, err
	}
	return int64(len(matched)), nil
}

// filterPosts resolves the filter target, collects matches and orders them by
// pub_date DESC with id DESC breaking ties. Callers must hold at least a
// read lock.
func (s *Store) filterPosts(filter storage.PostFilter) ([]*models.Post, error) {
	var groupID uint
	if filter.GroupSlug != "" {
		group := s.findGroupBySlug(filter.GroupSlug)
		if group == nil {
			return nil, storage.ErrNotFound
		}
		groupID = group.ID
	}
	var userID uint
	if filter.Username != "" {
		user := s.findUserByUsername(filter.Username)
		if user == nil {
			return nil, storage.ErrNotFound
		}
		userID = user.ID
	}

	matched := make([]*models.Post, 0, len(s.posts))
	for _, post := range s.posts {
		if groupID != 0 && (post.GroupID == nil || *post.GroupID != groupID) {
			continue
		}
		if userID != 0 && post.UserID != userID {
			continue
		}
		matched = append(matched, post)
	}

	sort.Slice(matched, func(i, j int) bool {
		if !matched[i].PubDate.Equal(matched[j].PubDate) {
			return matched[i].PubDate.After(matched[j].PubDate)
		}
		return matched[i].ID > matched[j].ID
	})
	return matched, nil
}

func (s *Store) withRelations(post *models.Post) models.Post {
	out := *post
	if user, ok := s.users[post.UserID]; ok {
		out.User = *user
	}
	if post.GroupID != nil {
		if group, ok := s.groups[*post.GroupID]; ok {
			g := *group
			out.Group = &g
		}
	}
	return out
}

func (s *Store) findUserByUsername(username string) *models.User {
	for _, u := range s.users {
		if u.Username == username {
			return u
		}
	}
	return nil
}

func (s *Store) findGroupBySlug(slug string) *models.Group {
	for _, g := range s.groups {
		if g.Slug == slug {
			return g
		}
	}
	return nil
}
