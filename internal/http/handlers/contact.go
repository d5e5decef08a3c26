package handlers

import (
	"context"
	"net/http"

	"github.com/geocoder89/supporthub/internal/domain/contact"
	"github.com/gin-gonic/gin"
)

type Inbox interface {
	Send(ctx context.Context, req contact.SendRequest) (contact.Message, error)
	List(ctx context.Context, status string) ([]contact.Message, error)
	Get(ctx context.Context, id string) (contact.Message, error)
	Update(ctx context.Context, id string, req contact.UpdateRequest) (contact.Message, error)
	Approve(ctx context.Context, id string) (contact.Message, error)
	Reject(ctx context.Context, id string) (contact.Message, error)
	Delete(ctx context.Context, id string) error
}

type ContactHandler struct {
	inbox Inbox
}

func NewContactHandler(inbox Inbox) *ContactHandler {
	return &ContactHandler{inbox: inbox}
}

const contactNotFound = "Message not found."

func (h *ContactHandler) Send(ctx *gin.Context) {
	var req contact.SendRequest

	if !BindJSON(ctx, &req) {
		return
	}

	m, err := h.inbox.Send(ctx.Request.Context(), req)
	if err != nil {
		RespondAppError(ctx, err, contactNotFound)
		return
	}

	ctx.JSON(http.StatusCreated, gin.H{
		"message": "Message sent successfully",
		"data":    m,
	})
}

func (h *ContactHandler) List(ctx *gin.Context) {
	items, err := h.inbox.List(ctx.Request.Context(), ctx.Query("status"))
	if err != nil {
		RespondAppError(ctx, err, contactNotFound)
		return
	}

	ctx.JSON(http.StatusOK, gin.H{"data": items})
}

func (h *ContactHandler) Show(ctx *gin.Context) {
	m, err := h.inbox.Get(ctx.Request.Context(), ctx.Param("id"))
	if err != nil {
		RespondAppError(ctx, err, contactNotFound)
		return
	}

	ctx.JSON(http.StatusOK, gin.H{"data": m})
}

func (h *ContactHandler) Update(ctx *gin.Context) {
	var req contact.UpdateRequest

	if !BindJSON(ctx, &req) {
		return
	}

	m, err := h.inbox.Update(ctx.Request.Context(), ctx.Param("id"), req)
	if err != nil {
		RespondAppError(ctx, err, contactNotFound)
		return
	}

	ctx.JSON(http.StatusOK, gin.H{
		"message": "Message updated successfully",
		"data":    m,
	})
}

func (h *ContactHandler) Approve(ctx *gin.Context) {
	h.transition(ctx, h.inbox.Approve, "Message approved successfully")
}

func (h *ContactHandler) Reject(ctx *gin.Context) {
	h.transition(ctx, h.inbox.Reject, "Message rejected successfully")
}

func (h *ContactHandler) transition(ctx *gin.Context, fn func(context.Context, string) (contact.Message, error), done string) {
	m, err := fn(ctx.Request.Context(), ctx.Param("id"))
	if err != nil {
		RespondAppError(ctx, err, contactNotFound)
		return
	}

	ctx.JSON(http.StatusOK, gin.H{
		"message": done,
		"data":    m,
	})
}

func (h *ContactHandler) Delete(ctx *gin.Context) {
	if err := h.inbox.Delete(ctx.Request.Context(), ctx.Param("id")); err != nil {
		RespondAppError(ctx, err, contactNotFound)
		return
	}

	ctx.Status(http.StatusNoContent)
}
