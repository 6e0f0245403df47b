package controllers

import (
	"errors"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/mobpsycho100/yatube/models"
	"github.com/mobpsycho100/yatube/storage"
	"github.com/mobpsycho100/yatube/utils"
)

// GroupController manages the category catalog. Groups are created and
// removed by administrators; everybody can browse them.
type GroupController struct {
	store storage.Store
}

// NewGroupController creates a new GroupController instance.
func NewGroupController(store storage.Store) *GroupController {
	return &GroupController{store: store}
}

// ListGroups returns every group, oldest first.
func (g *GroupController) ListGroups(ctx *gin.Context) {
	groups, err := g.store.ListGroups(ctx.Request.Context())
	if err != nil {
		utils.Error(ctx, http.StatusInternalServerError, 50030, "failed to list groups")
		return
	}
	utils.Success(ctx, gin.H{"items": groups})
}

// GetGroup returns one group by its slug.
func (g *GroupController) GetGroup(ctx *gin.Context) {
	slug := strings.TrimSpace(ctx.Param("slug"))
	group, err := g.store.GetGroupBySlug(ctx.Request.Context(), slug)
	if err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			utils.Error(ctx, http.StatusNotFound, 40405, "group not found")
			return
		}
		utils.Error(ctx, http.StatusInternalServerError, 50031, "failed to load group")
		return
	}
	utils.Success(ctx, gin.H{"group": group})
}

// CreateGroup adds a new category. Admin only; the slug must be unique and
// is immutable once it appears in URLs.
func (g *GroupController) CreateGroup(ctx *gin.Context) {
	if !isAdmin(ctx) {
		utils.Error(ctx, http.StatusForbidden, 40310, "admin privileges required")
		return
	}

	var req struct {
		Title       string `json:"title" binding:"required"`
		Slug        string `json:"slug" binding:"required"`
		Description string `json:"description"`
	}
	if err := ctx.ShouldBindJSON(&req); err != nil {
		utils.Error(ctx, http.StatusBadRequest, 40030, "invalid request payload")
		return
	}

	group := models.Group{
		Title:       utils.Sanitize(strings.TrimSpace(req.Title)),
		Slug:        strings.TrimSpace(req.Slug),
		Description: utils.Sanitize(req.Description),
	}
	if group.Title == "" || group.Slug == "" {
		utils.Error(ctx, http.StatusBadRequest, 40031, "title and slug are required")
		return
	}

	if err := g.store.CreateGroup(ctx.Request.Context(), &group); err != nil {
		if errors.Is(err, storage.ErrSlugTaken) {
			utils.Error(ctx, http.StatusConflict, 40902, "slug already exists")
			return
		}
		utils.Error(ctx, http.StatusInternalServerError, 50032, "failed to create group")
		return
	}

	utils.Success(ctx, gin.H{"group": group})
}

// DeleteGroup removes a category. Admin only. Posts in the group survive with
// their group reference cleared.
func (g *GroupController) DeleteGroup(ctx *gin.Context) {
	if !isAdmin(ctx) {
		utils.Error(ctx, http.StatusForbidden, 40311, "admin privileges required")
		return
	}

	slug := strings.TrimSpace(ctx.Param("slug"))
	group, err := g.store.GetGroupBySlug(ctx.Request.Context(), slug)
	if err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			utils.Error(ctx, http.StatusNotFound, 40406, "group not found")
			return
		}
		utils.Error(ctx, http.StatusInternalServerError, 50033, "failed to load group")
		return
	}

	if err := g.store.DeleteGroup(ctx.Request.Context(), group.ID); err != nil {
		utils.Error(ctx, http.StatusInternalServerError, 50034, "failed to delete group")
		return
	}

	// Posts that belonged to the group changed shape, drop everything cached.
	utils.InvalidateByPrefix("cache:posts:list:")
	utils.InvalidateByPrefix("cache:post:detail:")
	utils.Success(ctx, gin.H{"message": "group deleted"})
}
