package handlers

import (
	"context"
	"net/http"
	"strconv"

	"github.com/geocoder89/supporthub/internal/domain/donation"
	"github.com/geocoder89/supporthub/internal/ledger"
	"github.com/geocoder89/supporthub/internal/utils"
	"github.com/gin-gonic/gin"
)

type DonationLedger interface {
	Create(ctx context.Context, req donation.CreateRequest) (donation.Donation, error)
	Get(ctx context.Context, id string) (donation.Donation, error)
	UpdateStatus(ctx context.Context, id, status string) (donation.Donation, error)
	Delete(ctx context.Context, id string) error
	ListFiltered(ctx context.Context, q ledger.ListQuery) (donation.Page, error)
	ListPublic(ctx context.Context, page int) (donation.PublicPage, error)
	Statistics(ctx context.Context) (donation.Statistics, error)
	ExportCSV(ctx context.Context) (ledger.Export, error)
}

type DonationsHandler struct {
	ledger DonationLedger
}

func NewDonationsHandler(l DonationLedger) *DonationsHandler {
	return &DonationsHandler{ledger: l}
}

const donationNotFound = "Donation not found."

// List is the public feed: completed donations without donor emails.
func (h *DonationsHandler) List(ctx *gin.Context) {
	page, err := h.ledger.ListPublic(ctx.Request.Context(), utils.ParsePage(ctx.Query("page")))
	if err != nil {
		RespondAppError(ctx, err, donationNotFound)
		return
	}

	ctx.JSON(http.StatusOK, page)
}

// Create accepts guest and signed-in donations; the donor link comes from
// the optional bearer token, never from the body.
func (h *DonationsHandler) Create(ctx *gin.Context) {
	var req donation.CreateRequest

	if !BindJSON(ctx, &req) {
		return
	}

	d, err := h.ledger.Create(ctx.Request.Context(), req)
	if err != nil {
		RespondAppError(ctx, err, "Donation category not found.")
		return
	}

	ctx.JSON(http.StatusCreated, gin.H{
		"message": "Donation recorded successfully",
		"data":    d,
	})
}

func (h *DonationsHandler) AdminList(ctx *gin.Context) {
	page, err := h.ledger.ListFiltered(ctx.Request.Context(), ledger.ListQuery{
		Status:     ctx.Query("status"),
		CategoryID: ctx.Query("category_id"),
		StartDate:  ctx.Query("start_date"),
		EndDate:    ctx.Query("end_date"),
		Page:       utils.ParsePage(ctx.Query("page")),
	})
	if err != nil {
		RespondAppError(ctx, err, donationNotFound)
		return
	}

	ctx.JSON(http.StatusOK, page)
}

func (h *DonationsHandler) AdminShow(ctx *gin.Context) {
	d, err := h.ledger.Get(ctx.Request.Context(), ctx.Param("id"))
	if err != nil {
		RespondAppError(ctx, err, donationNotFound)
		return
	}

	ctx.JSON(http.StatusOK, gin.H{"data": d})
}

func (h *DonationsHandler) UpdateStatus(ctx *gin.Context) {
	var req donation.UpdateStatusRequest

	if !BindJSON(ctx, &req) {
		return
	}

	d, err := h.ledger.UpdateStatus(ctx.Request.Context(), ctx.Param("id"), req.Status)
	if err != nil {
		RespondAppError(ctx, err, donationNotFound)
		return
	}

	ctx.JSON(http.StatusOK, gin.H{
		"message": "Donation status updated successfully",
		"data":    d,
	})
}

func (h *DonationsHandler) Delete(ctx *gin.Context) {
	if err := h.ledger.Delete(ctx.Request.Context(), ctx.Param("id")); err != nil {
		RespondAppError(ctx, err, donationNotFound)
		return
	}

	ctx.Status(http.StatusNoContent)
}

func (h *DonationsHandler) Stats(ctx *gin.Context) {
	stats, err := h.ledger.Statistics(ctx.Request.Context())
	if err != nil {
		RespondAppError(ctx, err, donationNotFound)
		return
	}

	ctx.JSON(http.StatusOK, stats)
}

// ExportCSV answers {csv, filename}; with ?download=1 it streams the file
// as an attachment instead.
func (h *DonationsHandler) ExportCSV(ctx *gin.Context) {
	export, err := h.ledger.ExportCSV(ctx.Request.Context())
	if err != nil {
		RespondAppError(ctx, err, donationNotFound)
		return
	}

	if download, _ := strconv.ParseBool(ctx.Query("download")); download {
		ctx.Header("Content-Disposition", `attachment; filename="`+export.Filename+`"`)
		ctx.Data(http.StatusOK, "text/csv; charset=utf-8", []byte(export.CSV))
		return
	}

	ctx.JSON(http.StatusOK, export)
}
