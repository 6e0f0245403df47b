package controllers

import (
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/mobpsycho100/yatube/config"
	"github.com/mobpsycho100/yatube/forms"
	"github.com/mobpsycho100/yatube/middleware"
	"github.com/mobpsycho100/yatube/service"
	"github.com/mobpsycho100/yatube/storage"
	"github.com/mobpsycho100/yatube/utils"
)

// PostController serves the listing, detail and authoring endpoints.
type PostController struct {
	store   storage.Store
	listing *service.Listing
}

// NewPostController creates a new PostController instance.
func NewPostController(store storage.Store) *PostController {
	return &PostController{store: store, listing: service.NewListing(store)}
}

// postRequest is the authoring payload shared by create and edit.
type postRequest struct {
	Text    string `json:"text"`
	GroupID *uint  `json:"group_id"`
}

// ListPosts returns the unfiltered paginated index, newest first.
func (p *PostController) ListPosts(ctx *gin.Context) {
	page := parsePage(ctx.Query("page"))
	cacheKey := fmt.Sprintf("cache:posts:list:all:page=%d", page)
	p.servePage(ctx, storage.PostFilter{}, page, cacheKey)
}

// ListGroupPosts returns the paginated posts of one group, newest first.
func (p *PostController) ListGroupPosts(ctx *gin.Context) {
	slug := strings.TrimSpace(ctx.Param("slug"))
	if slug == "" {
		utils.Error(ctx, http.StatusBadRequest, 40040, "missing group slug")
		return
	}
	page := parsePage(ctx.Query("page"))
	cacheKey := fmt.Sprintf("cache:posts:list:group=%s:page=%d", slug, page)
	p.servePage(ctx, storage.PostFilter{GroupSlug: slug}, page, cacheKey)
}

// ListUserPosts returns the paginated posts of one author, newest first.
func (p *PostController) ListUserPosts(ctx *gin.Context) {
	username := strings.TrimSpace(ctx.Param("username"))
	if username == "" {
		utils.Error(ctx, http.StatusBadRequest, 40041, "missing username")
		return
	}
	page := parsePage(ctx.Query("page"))
	cacheKey := fmt.Sprintf("cache:posts:list:user=%s:page=%d", username, page)
	p.servePage(ctx, storage.PostFilter{Username: username}, page, cacheKey)
}

// servePage renders one page of a filtered listing, caching the response body.
func (p *PostController) servePage(ctx *gin.Context, filter storage.PostFilter, page int, cacheKey string) {
	if b, ok := utils.CacheGetBytes(cacheKey); ok {
		ctx.Data(http.StatusOK, "application/json", b)
		return
	}

	result, err := p.listing.GetPage(ctx.Request.Context(), filter, page, service.DefaultPageSize)
	if err != nil {
		switch {
		case errors.Is(err, storage.ErrNotFound):
			utils.Error(ctx, http.StatusNotFound, 40402, "not found")
		case errors.Is(err, service.ErrInvalidPage):
			utils.Error(ctx, http.StatusNotFound, 40404, "page out of range")
		default:
			utils.Error(ctx, http.StatusInternalServerError, 50021, "failed to list posts")
		}
		return
	}

	payload := gin.H{
		"items": result.Posts,
		"pagination": gin.H{
			"page":         result.Number,
			"page_size":    result.PageSize,
			"total":        result.TotalItems,
			"total_pages":  result.TotalPages,
			"has_next":     result.HasNext,
			"has_previous": result.HasPrevious,
		},
	}
	cacheEnvelope(cacheKey, payload)
	utils.Success(ctx, payload)
}

// GetPost returns a single post with its author and group.
func (p *PostController) GetPost(ctx *gin.Context) {
	postID, err := parseID(ctx.Param("id"))
	if err != nil {
		utils.Error(ctx, http.StatusBadRequest, 40042, "invalid post id")
		return
	}

	cacheKey := "cache:post:detail:" + strconv.FormatUint(uint64(postID), 10)
	if b, ok := utils.CacheGetBytes(cacheKey); ok {
		ctx.Data(http.StatusOK, "application/json", b)
		return
	}

	post, err := p.store.GetPost(ctx.Request.Context(), postID)
	if err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			utils.Error(ctx, http.StatusNotFound, 40401, "post not found")
			return
		}
		utils.Error(ctx, http.StatusInternalServerError, 50023, "failed to load post")
		return
	}

	payload := gin.H{"post": post}
	cacheEnvelope(cacheKey, payload)
	utils.Success(ctx, payload)
}

// CreatePost allows authenticated users to publish new posts. The author and
// publication date come from the session and the clock, never from the client.
func (p *PostController) CreatePost(ctx *gin.Context) {
	var req postRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		utils.Error(ctx, http.StatusBadRequest, 40020, "invalid request payload")
		return
	}

	userID, ok := getUserID(ctx)
	if !ok {
		utils.Error(ctx, http.StatusUnauthorized, 40110, "unauthorized")
		return
	}

	input, err := forms.ValidatePost(ctx.Request.Context(), p.store, req.Text, req.GroupID)
	if err != nil {
		if ve, ok := forms.AsValidationError(err); ok {
			utils.FieldErrors(ctx, http.StatusBadRequest, 40021, ve.Fields)
			return
		}
		utils.Error(ctx, http.StatusInternalServerError, 50020, "failed to validate post")
		return
	}

	post := input.NewPost(userID)
	if err := p.store.CreatePost(ctx.Request.Context(), &post); err != nil {
		utils.Error(ctx, http.StatusInternalServerError, 50022, "failed to create post")
		return
	}

	created, err := p.store.GetPost(ctx.Request.Context(), post.ID)
	if err != nil {
		utils.Error(ctx, http.StatusInternalServerError, 50024, "failed to load post")
		return
	}

	utils.InvalidateByPrefix("cache:posts:list:")
	utils.Success(ctx, gin.H{"post": created})
}

// UpdatePost allows the author, and only the author, to edit text and group.
func (p *PostController) UpdatePost(ctx *gin.Context) {
	postID, err := parseID(ctx.Param("id"))
	if err != nil {
		utils.Error(ctx, http.StatusBadRequest, 40042, "invalid post id")
		return
	}

	var req postRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		utils.Error(ctx, http.StatusBadRequest, 40024, "invalid request payload")
		return
	}

	post, err := p.store.GetPost(ctx.Request.Context(), postID)
	if err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			utils.Error(ctx, http.StatusNotFound, 40403, "post not found")
			return
		}
		utils.Error(ctx, http.StatusInternalServerError, 50025, "failed to load post")
		return
	}

	userID, ok := getUserID(ctx)
	if !ok {
		utils.Error(ctx, http.StatusUnauthorized, 40111, "unauthorized")
		return
	}
	if post.UserID != userID {
		utils.Error(ctx, http.StatusForbidden, 40301, "you can only edit your own posts")
		return
	}

	input, err := forms.ValidatePost(ctx.Request.Context(), p.store, req.Text, req.GroupID)
	if err != nil {
		if ve, ok := forms.AsValidationError(err); ok {
			utils.FieldErrors(ctx, http.StatusBadRequest, 40025, ve.Fields)
			return
		}
		utils.Error(ctx, http.StatusInternalServerError, 50026, "failed to validate post")
		return
	}

	post.Text = input.Text
	post.GroupID = input.GroupID
	if err := p.store.UpdatePost(ctx.Request.Context(), post); err != nil {
		utils.Error(ctx, http.StatusInternalServerError, 50027, "failed to update post")
		return
	}

	updated, err := p.store.GetPost(ctx.Request.Context(), postID)
	if err != nil {
		utils.Error(ctx, http.StatusInternalServerError, 50028, "failed to load post")
		return
	}

	utils.InvalidateByPrefix("cache:posts:list:")
	utils.InvalidateByPrefix("cache:post:detail:" + strconv.FormatUint(uint64(postID), 10))
	utils.Success(ctx, gin.H{"post": updated})
}

// cacheEnvelope stores the full response envelope so cache hits can be served
// byte for byte.
func cacheEnvelope(key string, payload interface{}) {
	wrapper := utils.JSONResponse{Code: 0, Message: "success", Data: payload}
	utils.CacheSetJSON(key, wrapper, utils.CacheTTL())
}

func parsePage(pageStr string) int {
	page := 1
	if p, err := strconv.Atoi(strings.TrimSpace(pageStr)); err == nil {
		page = p
	}
	return page
}

func parseID(raw string) (uint, error) {
	id, err := strconv.ParseUint(strings.TrimSpace(raw), 10, 32)
	if err != nil || id == 0 {
		return 0, fmt.Errorf("invalid id %q", raw)
	}
	return uint(id), nil
}

func getUserID(ctx *gin.Context) (uint, bool) {
	value, exists := ctx.Get(middleware.ContextUserIDKey)
	if !exists {
		return 0, false
	}
	id, ok := value.(uint)
	return id, ok
}

func isAdmin(ctx *gin.Context) bool {
	unameVal, exists := ctx.Get(middleware.ContextUsernameKey)
	if !exists {
		return false
	}
	uname, _ := unameVal.(string)
	if uname == "" {
		return false
	}
	for _, u := range config.Get().AdminUsernames {
		if strings.EqualFold(strings.TrimSpace(u), uname) {
			return true
		}
	}
	return false
}
