package controllers_test

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mobpsycho100/yatube/config"
	"github.com/mobpsycho100/yatube/models"
	"github.com/mobpsycho100/yatube/routes"
	"github.com/mobpsycho100/yatube/storage"
	"github.com/mobpsycho100/yatube/storage/inmemory"
	"github.com/mobpsycho100/yatube/utils"
)

type envelope struct {
	Code    int             `json:"code"`
	Message string          `json:"message"`
	Data    json.RawMessage `json:"data"`
}

type pageData struct {
	Items      []models.Post `json:"items"`
	Pagination struct {
		Page        int   `json:"page"`
		PageSize    int   `json:"page_size"`
		Total       int64 `json:"total"`
		TotalPages  int   `json:"total_pages"`
		HasNext     bool  `json:"has_next"`
		HasPrevious bool  `json:"has_previous"`
	} `json:"pagination"`
}

func newTestServer(t *testing.T) (*gin.Engine, *inmemory.Store) {
	t.Helper()
	config.InitTest()
	require.NoError(t, utils.InitLogger(config.Get()))
	store := inmemory.New()
	return routes.SetupRouter(store), store
}

func createUser(t *testing.T, store *inmemory.Store, username string) (*models.User, string) {
	t.Helper()
	user := &models.User{Username: username}
	require.NoError(t, store.CreateUser(context.Background(), user))
	token, err := utils.GenerateToken(user.ID, user.Username, time.Hour)
	require.NoError(t, err)
	return user, token
}

func doJSON(r *gin.Engine, method, path, token string, body interface{}) *httptest.ResponseRecorder {
	var buf bytes.Buffer
	if body != nil {
		_ = json.NewEncoder(&buf).Encode(body)
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func decodePage(t *testing.T, w *httptest.ResponseRecorder) pageData {
	t.Helper()
	var env envelope
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &env))
	var page pageData
	require.NoError(t, json.Unmarshal(env.Data, &page))
	return page
}

func TestListPosts_Pagination(t *testing.T) {
	r, store := newTestServer(t)
	ctx := context.Background()

	author := &models.User{Username: "author"}
	require.NoError(t, store.CreateUser(ctx, author))
	base := time.Date(2024, 3, 1, 9, 0, 0, 0, time.UTC)
	for i := 1; i <= 13; i++ {
		post := &models.Post{
			Text:    fmt.Sprintf("post %d", i),
			UserID:  author.ID,
			PubDate: base.Add(time.Duration(i) * time.Minute),
		}
		require.NoError(t, store.CreatePost(ctx, post))
	}

	w := doJSON(r, http.MethodGet, "/api/v1/posts", "", nil)
	require.Equal(t, http.StatusOK, w.Code)
	page := decodePage(t, w)
	assert.Len(t, page.Items, 10)
	assert.Equal(t, 1, page.Pagination.Page)
	assert.Equal(t, 2, page.Pagination.TotalPages)
	assert.True(t, page.Pagination.HasNext)
	assert.Equal(t, "post 13", page.Items[0].Text)

	w = doJSON(r, http.MethodGet, "/api/v1/posts?page=2", "", nil)
	require.Equal(t, http.StatusOK, w.Code)
	page = decodePage(t, w)
	assert.Len(t, page.Items, 3)
	assert.True(t, page.Pagination.HasPrevious)
	assert.False(t, page.Pagination.HasNext)

	w = doJSON(r, http.MethodGet, "/api/v1/posts?page=3", "", nil)
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestListGroupPosts(t *testing.T) {
	r, store := newTestServer(t)
	ctx := context.Background()

	author := &models.User{Username: "author"}
	require.NoError(t, store.CreateUser(ctx, author))
	group := &models.Group{Title: "Cats", Slug: "cats"}
	require.NoError(t, store.CreateGroup(ctx, group))
	other := &models.Group{Title: "Dogs", Slug: "dogs"}
	require.NoError(t, store.CreateGroup(ctx, other))

	require.NoError(t, store.CreatePost(ctx, &models.Post{Text: "cat post", UserID: author.ID, GroupID: &group.ID}))
	require.NoError(t, store.CreatePost(ctx, &models.Post{Text: "dog post", UserID: author.ID, GroupID: &other.ID}))
	require.NoError(t, store.CreatePost(ctx, &models.Post{Text: "loose post", UserID: author.ID}))

	w := doJSON(r, http.MethodGet, "/api/v1/groups/cats/posts", "", nil)
	require.Equal(t, http.StatusOK, w.Code)
	page := decodePage(t, w)
	require.Len(t, page.Items, 1)
	assert.Equal(t, "cat post", page.Items[0].Text)

	w = doJSON(r, http.MethodGet, "/api/v1/groups/missing/posts", "", nil)
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestListUserPosts(t *testing.T) {
	r, store := newTestServer(t)
	ctx := context.Background()

	leo, _ := createUser(t, store, "leo")
	mia, _ := createUser(t, store, "mia")
	require.NoError(t, store.CreatePost(ctx, &models.Post{Text: "by leo", UserID: leo.ID}))
	require.NoError(t, store.CreatePost(ctx, &models.Post{Text: "by mia", UserID: mia.ID}))

	w := doJSON(r, http.MethodGet, "/api/v1/users/mia/posts", "", nil)
	require.Equal(t, http.StatusOK, w.Code)
	page := decodePage(t, w)
	require.Len(t, page.Items, 1)
	assert.Equal(t, "by mia", page.Items[0].Text)

	w = doJSON(r, http.MethodGet, "/api/v1/users/nobody/posts", "", nil)
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestGetPost(t *testing.T) {
	r, store := newTestServer(t)
	ctx := context.Background()

	author, _ := createUser(t, store, "leo")
	post := &models.Post{Text: "the post", UserID: author.ID}
	require.NoError(t, store.CreatePost(ctx, post))

	w := doJSON(r, http.MethodGet, fmt.Sprintf("/api/v1/posts/%d", post.ID), "", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `"the post"`)
	assert.Contains(t, w.Body.String(), `"username":"leo"`)

	w = doJSON(r, http.MethodGet, "/api/v1/posts/9999", "", nil)
	assert.Equal(t, http.StatusNotFound, w.Code)

	w = doJSON(r, http.MethodGet, "/api/v1/posts/abc", "", nil)
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestCreatePost(t *testing.T) {
	r, store := newTestServer(t)
	ctx := context.Background()

	_, token := createUser(t, store, "leo")
	group := &models.Group{Title: "Cats", Slug: "cats"}
	require.NoError(t, store.CreateGroup(ctx, group))

	w := doJSON(r, http.MethodPost, "/api/v1/posts", token, gin.H{"text": "fresh post", "group_id": group.ID})
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `"fresh post"`)
	assert.Contains(t, w.Body.String(), `"slug":"cats"`)

	// unauthenticated writes are rejected
	w = doJSON(r, http.MethodPost, "/api/v1/posts", "", gin.H{"text": "anon"})
	assert.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestCreatePost_ValidationErrors(t *testing.T) {
	r, store := newTestServer(t)

	_, token := createUser(t, store, "leo")

	w := doJSON(r, http.MethodPost, "/api/v1/posts", token, gin.H{"text": "   "})
	require.Equal(t, http.StatusBadRequest, w.Code)
	assert.Contains(t, w.Body.String(), `"text"`)

	w = doJSON(r, http.MethodPost, "/api/v1/posts", token, gin.H{"text": "ok", "group_id": 9999})
	require.Equal(t, http.StatusBadRequest, w.Code)
	assert.Contains(t, w.Body.String(), `"group"`)

	// nothing was persisted by the failed attempts
	total, err := store.CountPosts(context.Background(), storage.PostFilter{})
	require.NoError(t, err)
	assert.EqualValues(t, 0, total)
}

func TestUpdatePost_AuthorOnly(t *testing.T) {
	r, store := newTestServer(t)
	ctx := context.Background()

	author, authorToken := createUser(t, store, "leo")
	_, otherToken := createUser(t, store, "mia")

	post := &models.Post{Text: "original", UserID: author.ID}
	require.NoError(t, store.CreatePost(ctx, post))

	// a non-author edit is rejected and changes nothing
	w := doJSON(r, http.MethodPut, fmt.Sprintf("/api/v1/posts/%d", post.ID), otherToken, gin.H{"text": "hijacked"})
	assert.Equal(t, http.StatusForbidden, w.Code)

	got, err := store.GetPost(ctx, post.ID)
	require.NoError(t, err)
	assert.Equal(t, "original", got.Text)

	w = doJSON(r, http.MethodPut, fmt.Sprintf("/api/v1/posts/%d", post.ID), authorToken, gin.H{"text": "edited"})
	require.Equal(t, http.StatusOK, w.Code)

	got, err = store.GetPost(ctx, post.ID)
	require.NoError(t, err)
	assert.Equal(t, "edited", got.Text)

	w = doJSON(r, http.MethodPut, "/api/v1/posts/9999", authorToken, gin.H{"text": "ghost"})
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestGroupAdminLifecycle(t *testing.T) {
	r, store := newTestServer(t)
	ctx := context.Background()

	_, adminToken := createUser(t, store, "admin")
	_, userToken := createUser(t, store, "leo")

	// non-admins cannot create groups
	w := doJSON(r, http.MethodPost, "/api/v1/groups", userToken, gin.H{"title": "Cats", "slug": "cats"})
	assert.Equal(t, http.StatusForbidden, w.Code)

	w = doJSON(r, http.MethodPost, "/api/v1/groups", adminToken, gin.H{"title": "Cats", "slug": "cats", "description": "feline"})
	require.Equal(t, http.StatusOK, w.Code)

	// duplicate slug conflicts
	w = doJSON(r, http.MethodPost, "/api/v1/groups", adminToken, gin.H{"title": "More Cats", "slug": "cats"})
	assert.Equal(t, http.StatusConflict, w.Code)

	w = doJSON(r, http.MethodGet, "/api/v1/groups/cats", "", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `"title":"Cats"`)

	// deleting the group keeps its posts, clearing their group reference
	group, err := store.GetGroupBySlug(ctx, "cats")
	require.NoError(t, err)
	leo, err := store.GetUserByUsername(ctx, "leo")
	require.NoError(t, err)
	post := &models.Post{Text: "kept", UserID: leo.ID, GroupID: &group.ID}
	require.NoError(t, store.CreatePost(ctx, post))

	w = doJSON(r, http.MethodDelete, "/api/v1/groups/cats", adminToken, nil)
	require.Equal(t, http.StatusOK, w.Code)

	got, err := store.GetPost(ctx, post.ID)
	require.NoError(t, err)
	assert.Nil(t, got.GroupID)

	w = doJSON(r, http.MethodGet, "/api/v1/groups/cats", "", nil)
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestAuthFlow(t *testing.T) {
	r, _ := newTestServer(t)

	w := doJSON(r, http.MethodPost, "/api/v1/auth/register", "", gin.H{"username": "newbie", "password": "s3cret-pass"})
	require.Equal(t, http.StatusOK, w.Code)

	// duplicate username conflicts
	w = doJSON(r, http.MethodPost, "/api/v1/auth/register", "", gin.H{"username": "newbie", "password": "s3cret-pass"})
	assert.Equal(t, http.StatusConflict, w.Code)

	w = doJSON(r, http.MethodPost, "/api/v1/auth/login", "", gin.H{"username": "newbie", "password": "s3cret-pass"})
	require.Equal(t, http.StatusOK, w.Code)
	var env envelope
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &env))
	var data struct {
		Token string `json:"token"`
	}
	require.NoError(t, json.Unmarshal(env.Data, &data))
	require.NotEmpty(t, data.Token)

	w = doJSON(r, http.MethodGet, "/api/v1/auth/me", data.Token, nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `"username":"newbie"`)

	w = doJSON(r, http.MethodPost, "/api/v1/auth/login", "", gin.H{"username": "newbie", "password": "wrong"})
	assert.Equal(t, http.StatusUnauthorized, w.Code)

	w = doJSON(r, http.MethodPost, "/api/v1/auth/login", "", gin.H{"username": "ghost", "password": "whatever"})
	assert.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestDeleteUser_CascadesPosts(t *testing.T) {
	r, store := newTestServer(t)
	ctx := context.Background()

	_, adminToken := createUser(t, store, "admin")
	doomed, _ := createUser(t, store, "doomed")
	require.NoError(t, store.CreatePost(ctx, &models.Post{Text: "gone soon", UserID: doomed.ID}))

	w := doJSON(r, http.MethodDelete, "/api/v1/users/doomed", adminToken, nil)
	require.Equal(t, http.StatusOK, w.Code)

	total, err := store.CountPosts(ctx, storage.PostFilter{})
	require.NoError(t, err)
	assert.EqualValues(t, 0, total)

	w = doJSON(r, http.MethodGet, "/api/v1/users/doomed", "", nil)
	assert.Equal(t, http.StatusNotFound, w.Code)
}
