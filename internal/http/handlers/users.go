package handlers

import (
	"context"
	"net/http"

	"github.com/geocoder89/supporthub/internal/domain/user"
	"github.com/geocoder89/supporthub/internal/utils"
	"github.com/gin-gonic/gin"
)

type UserManager interface {
	ListUsers(ctx context.Context, page int) (user.Page, error)
	SearchUsers(ctx context.Context, query string) ([]user.Summary, error)
	GetUser(ctx context.Context, id string) (user.Detail, error)
	UpdateRole(ctx context.Context, id, role string) (user.User, error)
	DeleteUser(ctx context.Context, id string) error
}

type UsersHandler struct {
	users UserManager
}

func NewUsersHandler(users UserManager) *UsersHandler {
	return &UsersHandler{users: users}
}

const userNotFound = "User not found."

func (h *UsersHandler) List(ctx *gin.Context) {
	page, err := h.users.ListUsers(ctx.Request.Context(), utils.ParsePage(ctx.Query("page")))
	if err != nil {
		RespondAppError(ctx, err, userNotFound)
		return
	}

	ctx.JSON(http.StatusOK, page)
}

// Search answers 400 for queries shorter than two characters.
func (h *UsersHandler) Search(ctx *gin.Context) {
	items, err := h.users.SearchUsers(ctx.Request.Context(), ctx.Query("query"))
	if err != nil {
		if verr, ok := asValidation(err); ok {
			RespondBadRequest(ctx, verr.Message, verr.Fields)
			return
		}
		RespondAppError(ctx, err, userNotFound)
		return
	}

	ctx.JSON(http.StatusOK, gin.H{"data": items})
}

func (h *UsersHandler) Show(ctx *gin.Context) {
	d, err := h.users.GetUser(ctx.Request.Context(), ctx.Param("id"))
	if err != nil {
		RespondAppError(ctx, err, userNotFound)
		return
	}

	ctx.JSON(http.StatusOK, gin.H{"data": d})
}

func (h *UsersHandler) UpdateRole(ctx *gin.Context) {
	var req user.UpdateRoleRequest

	if !BindJSON(ctx, &req) {
		return
	}

	u, err := h.users.UpdateRole(ctx.Request.Context(), ctx.Param("id"), req.Role)
	if err != nil {
		RespondAppError(ctx, err, userNotFound)
		return
	}

	ctx.JSON(http.StatusOK, gin.H{
		"message": "User role updated successfully",
		"data":    u.Summary(),
	})
}

func (h *UsersHandler) Delete(ctx *gin.Context) {
	if err := h.users.DeleteUser(ctx.Request.Context(), ctx.Param("id")); err != nil {
		RespondAppError(ctx, err, userNotFound)
		return
	}

	ctx.Status(http.StatusNoContent)
}
