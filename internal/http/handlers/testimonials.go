package handlers

import (
	"context"
	"net/http"

	"github.com/geocoder89/supporthub/internal/domain/testimonial"
	"github.com/geocoder89/supporthub/internal/utils"
	"github.com/gin-gonic/gin"
)

type Moderator interface {
	Submit(ctx context.Context, req testimonial.SubmitRequest) (testimonial.Testimonial, error)
	Approve(ctx context.Context, id string) (testimonial.Testimonial, error)
	Reject(ctx context.Context, id string) (testimonial.Testimonial, error)
	Edit(ctx context.Context, id string, req testimonial.UpdateRequest) (testimonial.Testimonial, error)
	Delete(ctx context.Context, id string) error
	Get(ctx context.Context, id string) (testimonial.Testimonial, error)
	GetPublic(ctx context.Context, id string) (testimonial.Testimonial, error)
	ListPublic(ctx context.Context) ([]testimonial.Testimonial, error)
	ListAdmin(ctx context.Context, f testimonial.AdminFilter) (testimonial.Page, error)
	ListPending(ctx context.Context) ([]testimonial.Testimonial, error)
	Statistics(ctx context.Context) (testimonial.Statistics, error)
}

type TestimonialsHandler struct {
	engine Moderator
}

func NewTestimonialsHandler(engine Moderator) *TestimonialsHandler {
	return &TestimonialsHandler{engine: engine}
}

const testimonialNotFound = "Testimonial not found."

func (h *TestimonialsHandler) List(ctx *gin.Context) {
	items, err := h.engine.ListPublic(ctx.Request.Context())
	if err != nil {
		RespondAppError(ctx, err, testimonialNotFound)
		return
	}

	RespondJSONWithETag(ctx, http.StatusOK, gin.H{"data": items})
}

func (h *TestimonialsHandler) Submit(ctx *gin.Context) {
	var req testimonial.SubmitRequest

	if !BindJSON(ctx, &req) {
		return
	}

	t, err := h.engine.Submit(ctx.Request.Context(), req)
	if err != nil {
		RespondAppError(ctx, err, testimonialNotFound)
		return
	}

	ctx.JSON(http.StatusCreated, gin.H{
		"message": "Thank you! Your testimonial has been submitted and is awaiting approval.",
		"data":    t,
	})
}

// Show is the public read: unapproved testimonials are reported missing.
func (h *TestimonialsHandler) Show(ctx *gin.Context) {
	t, err := h.engine.GetPublic(ctx.Request.Context(), ctx.Param("id"))
	if err != nil {
		RespondAppError(ctx, err, testimonialNotFound)
		return
	}

	ctx.JSON(http.StatusOK, gin.H{"data": t})
}

func (h *TestimonialsHandler) AdminList(ctx *gin.Context) {
	approved, err := queryBool(ctx, "approved")
	if err != nil {
		RespondAppError(ctx, err, testimonialNotFound)
		return
	}

	minRating, err := queryInt(ctx, "min_rating")
	if err != nil {
		RespondAppError(ctx, err, testimonialNotFound)
		return
	}

	page, err := h.engine.ListAdmin(ctx.Request.Context(), testimonial.AdminFilter{
		Approved:  approved,
		MinRating: minRating,
		Page:      utils.ParsePage(ctx.Query("page")),
	})
	if err != nil {
		RespondAppError(ctx, err, testimonialNotFound)
		return
	}

	ctx.JSON(http.StatusOK, page)
}

func (h *TestimonialsHandler) Pending(ctx *gin.Context) {
	items, err := h.engine.ListPending(ctx.Request.Context())
	if err != nil {
		RespondAppError(ctx, err, testimonialNotFound)
		return
	}

	ctx.JSON(http.StatusOK, gin.H{
		"count":        len(items),
		"testimonials": items,
	})
}

func (h *TestimonialsHandler) Stats(ctx *gin.Context) {
	stats, err := h.engine.Statistics(ctx.Request.Context())
	if err != nil {
		RespondAppError(ctx, err, testimonialNotFound)
		return
	}

	ctx.JSON(http.StatusOK, stats)
}

func (h *TestimonialsHandler) AdminShow(ctx *gin.Context) {
	t, err := h.engine.Get(ctx.Request.Context(), ctx.Param("id"))
	if err != nil {
		RespondAppError(ctx, err, testimonialNotFound)
		return
	}

	ctx.JSON(http.StatusOK, gin.H{"data": t})
}

func (h *TestimonialsHandler) Approve(ctx *gin.Context) {
	t, err := h.engine.Approve(ctx.Request.Context(), ctx.Param("id"))
	if err != nil {
		RespondAppError(ctx, err, testimonialNotFound)
		return
	}

	ctx.JSON(http.StatusOK, gin.H{
		"message": "Testimonial approved successfully",
		"data":    t,
	})
}

func (h *TestimonialsHandler) Reject(ctx *gin.Context) {
	t, err := h.engine.Reject(ctx.Request.Context(), ctx.Param("id"))
	if err != nil {
		RespondAppError(ctx, err, testimonialNotFound)
		return
	}

	ctx.JSON(http.StatusOK, gin.H{
		"message": "Testimonial rejected successfully",
		"data":    t,
	})
}

func (h *TestimonialsHandler) Update(ctx *gin.Context) {
	var req testimonial.UpdateRequest

	if !BindJSON(ctx, &req) {
		return
	}

	t, err := h.engine.Edit(ctx.Request.Context(), ctx.Param("id"), req)
	if err != nil {
		RespondAppError(ctx, err, testimonialNotFound)
		return
	}

	ctx.JSON(http.StatusOK, gin.H{
		"message": "Testimonial updated successfully",
		"data":    t,
	})
}

func (h *TestimonialsHandler) Delete(ctx *gin.Context) {
	if err := h.engine.Delete(ctx.Request.Context(), ctx.Param("id")); err != nil {
		RespondAppError(ctx, err, testimonialNotFound)
		return
	}

	ctx.Status(http.StatusNoContent)
}
