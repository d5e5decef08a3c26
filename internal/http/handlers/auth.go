package handlers

import (
	"context"
	"errors"
	"net/http"

	"github.com/geocoder89/supporthub/internal/actorctx"
	"github.com/geocoder89/supporthub/internal/apperr"
	"github.com/geocoder89/supporthub/internal/domain/user"
	"github.com/gin-gonic/gin"
)

type AccountService interface {
	Register(ctx context.Context, req user.RegisterRequest) (user.User, string, error)
	Login(ctx context.Context, req user.LoginRequest) (user.User, string, error)
	AdminLogin(ctx context.Context, req user.LoginRequest) (user.User, string, error)
	Logout(ctx context.Context, sessionID string) error
	GetMe(ctx context.Context, userID string) (user.User, error)
}

type AuthHandler struct {
	accounts AccountService
}

func NewAuthHandler(accounts AccountService) *AuthHandler {
	return &AuthHandler{accounts: accounts}
}

func (h *AuthHandler) Register(ctx *gin.Context) {
	var req user.RegisterRequest

	if !BindJSON(ctx, &req) {
		return
	}

	u, token, err := h.accounts.Register(ctx.Request.Context(), req)
	if err != nil {
		RespondAppError(ctx, err, "User not found.")
		return
	}

	ctx.JSON(http.StatusCreated, gin.H{
		"message": "User registered successfully",
		"user":    u,
		"token":   token,
	})
}

func (h *AuthHandler) Login(ctx *gin.Context) {
	var req user.LoginRequest

	if !BindJSON(ctx, &req) {
		return
	}

	u, token, err := h.accounts.Login(ctx.Request.Context(), req)
	if err != nil {
		RespondAppError(ctx, err, "User not found.")
		return
	}

	ctx.JSON(http.StatusOK, gin.H{
		"message": "Login successful",
		"user":    u,
		"token":   token,
	})
}

func (h *AuthHandler) AdminLogin(ctx *gin.Context) {
	var req user.LoginRequest

	if !BindJSON(ctx, &req) {
		return
	}

	u, token, err := h.accounts.AdminLogin(ctx.Request.Context(), req)
	if err != nil {
		if errors.Is(err, apperr.ErrForbidden) {
			RespondForbidden(ctx, "Access denied. Admin privileges required.")
			return
		}
		RespondAppError(ctx, err, "User not found.")
		return
	}

	ctx.JSON(http.StatusOK, gin.H{
		"message": "Admin login successful",
		"user":    u,
		"token":   token,
	})
}

// Logout revokes the session behind the presented token only.
func (h *AuthHandler) Logout(ctx *gin.Context) {
	actor, ok := actorctx.From(ctx.Request.Context())
	if !ok {
		RespondUnAuthorized(ctx, "unauthenticated", "Unauthenticated.")
		return
	}

	if err := h.accounts.Logout(ctx.Request.Context(), actor.SessionID); err != nil {
		RespondAppError(ctx, err, "Session not found.")
		return
	}

	ctx.JSON(http.StatusOK, gin.H{"message": "Logged out successfully"})
}

func (h *AuthHandler) Me(ctx *gin.Context) {
	u, err := h.accounts.GetMe(ctx.Request.Context(), actorctx.UserIDFrom(ctx.Request.Context()))
	if err != nil {
		RespondAppError(ctx, err, "User not found.")
		return
	}

	ctx.JSON(http.StatusOK, gin.H{"user": u})
}
