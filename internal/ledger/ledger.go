package ledger

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"math"
	"sort"
	"strings"
	"time"

	"github.com/geocoder89/supporthub/internal/actorctx"
	"github.com/geocoder89/supporthub/internal/apperr"
	"github.com/geocoder89/supporthub/internal/domain/donation"
	"github.com/geocoder89/supporthub/internal/utils"
	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
)

const dateLayout = "2006-01-02"

type DonationStore interface {
	Create(ctx context.Context, d donation.Donation) (donation.Donation, error)
	GetByID(ctx context.Context, id string) (donation.Donation, error)
	UpdateStatus(ctx context.Context, id, status string, at time.Time) (donation.Donation, error)
	Delete(ctx context.Context, id string) error
	List(ctx context.Context, f donation.ListFilter) ([]donation.Donation, int, error)
	All(ctx context.Context) ([]donation.Donation, error)
	ListCompleted(ctx context.Context, limit, offset int) ([]donation.Donation, int, error)
	Tally(ctx context.Context) ([]donation.TallyRow, error)
}

type CategoryStore interface {
	List(ctx context.Context) ([]donation.Category, error)
	GetByID(ctx context.Context, id string) (donation.Category, error)
	Create(ctx context.Context, c donation.Category) error
	Update(ctx context.Context, id string, req donation.CategoryRequest, at time.Time) (donation.Category, error)
	Delete(ctx context.Context, id string) error
}

type Ledger struct {
	donations  DonationStore
	categories CategoryStore
	validate   *validator.Validate
	log        *slog.Logger
	now        func() time.Time
}

func New(donations DonationStore, categories CategoryStore, log *slog.Logger) *Ledger {
	if log == nil {
		log = slog.Default()
	}
	return &Ledger{
		donations:  donations,
		categories: categories,
		validate:   validator.New(),
		log:        log,
		now:        func() time.Time { return time.Now().UTC() },
	}
}

// Create records a pending donation. The donor user comes from the request
// context when the caller is signed in; guests are allowed.
func (l *Ledger) Create(ctx context.Context, req donation.CreateRequest) (donation.Donation, error) {
	verr := apperr.NewValidation("")

	amount := round2(req.Amount)
	if math.IsNaN(req.Amount) || math.IsInf(req.Amount, 0) || amount <= 0 {
		verr.Add("amount", "must be greater than 0")
	}

	name := strings.TrimSpace(req.DonorName)
	if name == "" {
		verr.Add("donor_name", "is required")
	}

	email := strings.ToLower(strings.TrimSpace(req.DonorEmail))
	if l.validate.Var(email, "required,email") != nil {
		verr.Add("donor_email", "must be a valid email address")
	}

	currency := strings.ToUpper(strings.TrimSpace(req.Currency))
	if currency == "" {
		currency = donation.DefaultCurrency
	} else if l.validate.Var(currency, "len=3,alpha") != nil {
		verr.Add("currency", "must be a 3-letter currency code")
	}

	categoryID := strings.TrimSpace(req.CategoryID)
	if categoryID == "" {
		verr.Add("category_id", "is required")
	} else if _, err := l.categories.GetByID(ctx, categoryID); err != nil {
		if !errors.Is(err, apperr.ErrNotFound) {
			return donation.Donation{}, fmt.Errorf("lookup category: %w", err)
		}
		verr.Add("category_id", "the selected category is invalid")
	}

	if err := verr.OrNil(); err != nil {
		return donation.Donation{}, err
	}

	var message *string
	if req.Message != nil {
		if m := strings.TrimSpace(*req.Message); m != "" {
			message = &m
		}
	}

	var userID *string
	if uid := actorctx.UserIDFrom(ctx); uid != "" {
		userID = &uid
	}

	now := l.now()
	d := donation.Donation{
		ID:         uuid.NewString(),
		CategoryID: categoryID,
		Amount:     amount,
		Currency:   currency,
		DonorName:  name,
		DonorEmail: email,
		Message:    message,
		Status:     donation.StatusPending,
		UserID:     userID,
		CreatedAt:  now,
		UpdatedAt:  now,
	}

	created, err := l.donations.Create(ctx, d)
	if err != nil {
		if errors.Is(err, donation.ErrCategoryNotFound) {
			return donation.Donation{}, apperr.Field("category_id", "the selected category is invalid")
		}
		return donation.Donation{}, fmt.Errorf("create donation: %w", err)
	}

	l.log.InfoContext(ctx, "donation_created",
		"donation_id", created.ID,
		"category_id", created.CategoryID,
		"guest", userID == nil,
	)

	return created, nil
}

func (l *Ledger) UpdateStatus(ctx context.Context, id, status string) (donation.Donation, error) {
	status = strings.TrimSpace(status)
	if !donation.ValidStatus(status) {
		return donation.Donation{}, apperr.Field("status", "must be one of pending, completed, failed")
	}

	d, err := l.donations.UpdateStatus(ctx, id, status, l.now())
	if err != nil {
		return donation.Donation{}, err
	}

	l.log.InfoContext(ctx, "donation_status_updated",
		"donation_id", d.ID,
		"status", d.Status,
	)

	return d, nil
}

func (l *Ledger) Get(ctx context.Context, id string) (donation.Donation, error) {
	return l.donations.GetByID(ctx, id)
}

func (l *Ledger) Delete(ctx context.Context, id string) error {
	if err := l.donations.Delete(ctx, id); err != nil {
		return err
	}

	l.log.InfoContext(ctx, "donation_deleted", "donation_id", id)
	return nil
}

// ListQuery is the raw admin listing query. Dates are YYYY-MM-DD and both
// ends of the range are inclusive whole days.
type ListQuery struct {
	Status     string
	CategoryID string
	StartDate  string
	EndDate    string
	Page       int
}

func (l *Ledger) ListFiltered(ctx context.Context, q ListQuery) (donation.Page, error) {
	f, err := l.buildFilter(q)
	if err != nil {
		return donation.Page{}, err
	}

	items, total, err := l.donations.List(ctx, f)
	if err != nil {
		return donation.Page{}, fmt.Errorf("list donations: %w", err)
	}

	page := q.Page
	if page < 1 {
		page = 1
	}

	return donation.Page{
		Items:       items,
		CurrentPage: page,
		PerPage:     donation.PageSize,
		Total:       total,
		LastPage:    utils.LastPage(total, donation.PageSize),
	}, nil
}

func (l *Ledger) buildFilter(q ListQuery) (donation.ListFilter, error) {
	f := donation.ListFilter{
		Limit:  donation.PageSize,
		Offset: utils.Offset(q.Page, donation.PageSize),
	}
	verr := apperr.NewValidation("")

	if s := strings.TrimSpace(q.Status); s != "" {
		if !donation.ValidStatus(s) {
			verr.Add("status", "must be one of pending, completed, failed")
		}
		f.Status = &s
	}
	if c := strings.TrimSpace(q.CategoryID); c != "" {
		f.CategoryID = &c
	}
	if s := strings.TrimSpace(q.StartDate); s != "" {
		from, err := time.Parse(dateLayout, s)
		if err != nil {
			verr.Add("start_date", "must be a date in YYYY-MM-DD format")
		} else {
			f.From = &from
		}
	}
	if s := strings.TrimSpace(q.EndDate); s != "" {
		end, err := time.Parse(dateLayout, s)
		if err != nil {
			verr.Add("end_date", "must be a date in YYYY-MM-DD format")
		} else {
			to := end.AddDate(0, 0, 1)
			f.To = &to
		}
	}

	if f.From != nil && f.To != nil && !f.From.Before(*f.To) {
		verr.Add("end_date", "must not be before start_date")
	}

	return f, verr.OrNil()
}

// ListPublic pages completed donations without donor emails.
func (l *Ledger) ListPublic(ctx context.Context, page int) (donation.PublicPage, error) {
	if page < 1 {
		page = 1
	}

	items, total, err := l.donations.ListCompleted(ctx, donation.PageSize, utils.Offset(page, donation.PageSize))
	if err != nil {
		return donation.PublicPage{}, fmt.Errorf("list public donations: %w", err)
	}

	out := make([]donation.Public, 0, len(items))
	for _, d := range items {
		out = append(out, d.Public())
	}

	return donation.PublicPage{
		Items:       out,
		CurrentPage: page,
		PerPage:     donation.PageSize,
		Total:       total,
		LastPage:    utils.LastPage(total, donation.PageSize),
	}, nil
}

func (l *Ledger) Statistics(ctx context.Context) (donation.Statistics, error) {
	rows, err := l.donations.Tally(ctx)
	if err != nil {
		return donation.Statistics{}, fmt.Errorf("tally donations: %w", err)
	}
	return Summarize(rows), nil
}

// Summarize folds a (category, status) tally into the ledger statistics.
// average_donation is 0 when there are no donations.
func Summarize(rows []donation.TallyRow) donation.Statistics {
	var sum donation.Summary
	byCategory := make(map[string]*donation.CategoryBucket)
	byStatus := make(map[string]*donation.StatusBucket)

	for _, r := range rows {
		sum.TotalAmount += r.Amount
		sum.TotalCount += r.Count
		switch r.Status {
		case donation.StatusCompleted:
			sum.CompletedAmount += r.Amount
			sum.CompletedCount += r.Count
		case donation.StatusPending:
			sum.PendingAmount += r.Amount
		}

		cb, ok := byCategory[r.CategoryID]
		if !ok {
			cb = &donation.CategoryBucket{CategoryID: r.CategoryID}
			if r.CategoryName != nil {
				cb.Category = &donation.CategoryRef{ID: r.CategoryID, Name: *r.CategoryName}
			}
			byCategory[r.CategoryID] = cb
		}
		cb.Count += r.Count
		cb.TotalAmount += r.Amount

		sb, ok := byStatus[r.Status]
		if !ok {
			sb = &donation.StatusBucket{Status: r.Status}
			byStatus[r.Status] = sb
		}
		sb.Count += r.Count
		sb.TotalAmount += r.Amount
	}

	if sum.TotalCount > 0 {
		sum.AverageDonation = round2(sum.TotalAmount / float64(sum.TotalCount))
	}
	sum.TotalAmount = round2(sum.TotalAmount)
	sum.CompletedAmount = round2(sum.CompletedAmount)
	sum.PendingAmount = round2(sum.PendingAmount)

	cats := make([]donation.CategoryBucket, 0, len(byCategory))
	for _, cb := range byCategory {
		cb.TotalAmount = round2(cb.TotalAmount)
		cats = append(cats, *cb)
	}
	sort.Slice(cats, func(i, j int) bool {
		if cats[i].TotalAmount == cats[j].TotalAmount {
			return cats[i].CategoryID < cats[j].CategoryID
		}
		return cats[i].TotalAmount > cats[j].TotalAmount
	})

	statuses := make([]donation.StatusBucket, 0, len(byStatus))
	for _, sb := range byStatus {
		sb.TotalAmount = round2(sb.TotalAmount)
		statuses = append(statuses, *sb)
	}
	sort.Slice(statuses, func(i, j int) bool { return statuses[i].Status < statuses[j].Status })

	return donation.Statistics{
		Summary:    sum,
		ByCategory: cats,
		ByStatus:   statuses,
	}
}

func round2(v float64) float64 {
	return math.Round(v*100) / 100
}
