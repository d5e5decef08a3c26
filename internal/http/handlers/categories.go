package handlers

import (
	"context"
	"net/http"

	"github.com/geocoder89/supporthub/internal/domain/donation"
	"github.com/gin-gonic/gin"
)

type CategoryManager interface {
	ListCategories(ctx context.Context) ([]donation.Category, error)
	GetCategory(ctx context.Context, id string) (donation.Category, error)
	CreateCategory(ctx context.Context, req donation.CategoryRequest) (donation.Category, error)
	UpdateCategory(ctx context.Context, id string, req donation.CategoryRequest) (donation.Category, error)
	DeleteCategory(ctx context.Context, id string) error
}

type CategoriesHandler struct {
	categories CategoryManager
}

func NewCategoriesHandler(categories CategoryManager) *CategoriesHandler {
	return &CategoriesHandler{categories: categories}
}

const categoryNotFound = "Donation category not found."

func (h *CategoriesHandler) List(ctx *gin.Context) {
	items, err := h.categories.ListCategories(ctx.Request.Context())
	if err != nil {
		RespondAppError(ctx, err, categoryNotFound)
		return
	}

	RespondJSONWithETag(ctx, http.StatusOK, gin.H{"data": items})
}

func (h *CategoriesHandler) Show(ctx *gin.Context) {
	c, err := h.categories.GetCategory(ctx.Request.Context(), ctx.Param("id"))
	if err != nil {
		RespondAppError(ctx, err, categoryNotFound)
		return
	}

	ctx.JSON(http.StatusOK, gin.H{"data": c})
}

func (h *CategoriesHandler) Create(ctx *gin.Context) {
	var req donation.CategoryRequest

	if !BindJSON(ctx, &req) {
		return
	}

	c, err := h.categories.CreateCategory(ctx.Request.Context(), req)
	if err != nil {
		RespondAppError(ctx, err, categoryNotFound)
		return
	}

	ctx.JSON(http.StatusCreated, gin.H{
		"message": "Category created successfully",
		"data":    c,
	})
}

func (h *CategoriesHandler) Update(ctx *gin.Context) {
	var req donation.CategoryRequest

	if !BindJSON(ctx, &req) {
		return
	}

	c, err := h.categories.UpdateCategory(ctx.Request.Context(), ctx.Param("id"), req)
	if err != nil {
		RespondAppError(ctx, err, categoryNotFound)
		return
	}

	ctx.JSON(http.StatusOK, gin.H{
		"message": "Category updated successfully",
		"data":    c,
	})
}

func (h *CategoriesHandler) Delete(ctx *gin.Context) {
	if err := h.categories.DeleteCategory(ctx.Request.Context(), ctx.Param("id")); err != nil {
		RespondAppError(ctx, err, categoryNotFound)
		return
	}

	ctx.Status(http.StatusNoContent)
}
