package moderation

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"math"
	"strings"
	"time"

	"github.com/geocoder89/supporthub/internal/apperr"
	"github.com/geocoder89/supporthub/internal/cache"
	"github.com/geocoder89/supporthub/internal/domain/testimonial"
	"github.com/geocoder89/supporthub/internal/utils"
)

const publicListKey = "testimonials:public"

// Store persists testimonials. SetApproved, Update and Delete are each a
// single atomic row mutation.
type Store interface {
	Create(ctx context.Context, t testimonial.Testimonial) error
	GetByID(ctx context.Context, id string) (testimonial.Testimonial, error)
	SetApproved(ctx context.Context, id string, approved bool, at time.Time) (testimonial.Testimonial, error)
	Update(ctx context.Context, id string, req testimonial.UpdateRequest, at time.Time) (testimonial.Testimonial, error)
	Delete(ctx context.Context, id string) error
	ListApproved(ctx context.Context) ([]testimonial.Testimonial, error)
	ListAdmin(ctx context.Context, f testimonial.AdminFilter, limit, offset int) ([]testimonial.Testimonial, int, error)
	ListPending(ctx context.Context) ([]testimonial.Testimonial, error)
	Tally(ctx context.Context) ([]testimonial.TallyRow, error)
	Latest(ctx context.Context, n int) ([]testimonial.Testimonial, error)
}

// TransitionObserver counts moderation actions (approve, reject, edit, delete, submit).
type TransitionObserver interface {
	ObserveModeration(action string)
}

// cacheObserver is optionally implemented by a TransitionObserver that also
// counts public listing cache hits.
type cacheObserver interface {
	ObserveCacheLookup(hit bool)
}

type Engine struct {
	store    Store
	cache    cache.Store
	observer TransitionObserver
	log      *slog.Logger
	now      func() time.Time
}

type Option func(*Engine)

func WithCache(c cache.Store) Option {
	return func(e *Engine) { e.cache = c }
}

func WithObserver(o TransitionObserver) Option {
	return func(e *Engine) { e.observer = o }
}

func WithClock(now func() time.Time) Option {
	return func(e *Engine) { e.now = now }
}

func NewEngine(store Store, log *slog.Logger, opts ...Option) *Engine {
	if log == nil {
		log = slog.Default()
	}
	e := &Engine{
		store: store,
		log:   log,
		now:   func() time.Time { return time.Now().UTC() },
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

func validateFields(name, country, content, contentField string, rating *int) error {
	verr := apperr.NewValidation("")
	if strings.TrimSpace(name) == "" {
		verr.Add("name", "is required")
	}
	if strings.TrimSpace(country) == "" {
		verr.Add("country", "is required")
	}
	if strings.TrimSpace(content) == "" {
		verr.Add(contentField, "is required")
	}
	if rating != nil && (*rating < testimonial.MinRating || *rating > testimonial.MaxRating) {
		verr.Add("rating", fmt.Sprintf("must be between %d and %d", testimonial.MinRating, testimonial.MaxRating))
	}
	return verr.OrNil()
}

// Submit stores a new testimonial. It is always pending, whatever the input.
func (e *Engine) Submit(ctx context.Context, req testimonial.SubmitRequest) (testimonial.Testimonial, error) {
	if err := validateFields(req.Name, req.Country, req.Message, "message", req.Rating); err != nil {
		return testimonial.Testimonial{}, err
	}

	t := testimonial.NewFromSubmitRequest(req, e.now())

	if err := e.store.Create(ctx, t); err != nil {
		return testimonial.Testimonial{}, fmt.Errorf("create testimonial: %w", err)
	}

	e.observe("submit")
	e.log.InfoContext(ctx, "testimonial_submitted", "testimonial_id", t.ID, "rating", t.Rating)

	return t, nil
}

func (e *Engine) Approve(ctx context.Context, id string) (testimonial.Testimonial, error) {
	return e.setApproved(ctx, id, true, "approve")
}

// Reject hides a testimonial from the public listing without deleting it.
func (e *Engine) Reject(ctx context.Context, id string) (testimonial.Testimonial, error) {
	return e.setApproved(ctx, id, false, "reject")
}

func (e *Engine) setApproved(ctx context.Context, id string, approved bool, action string) (testimonial.Testimonial, error) {
	t, err := e.store.SetApproved(ctx, id, approved, e.now())
	if err != nil {
		return testimonial.Testimonial{}, err
	}

	e.invalidatePublic(ctx)
	e.observe(action)
	e.log.InfoContext(ctx, "testimonial_moderated",
		"testimonial_id", t.ID,
		"action", action,
	)

	return t, nil
}

func (e *Engine) Edit(ctx context.Context, id string, req testimonial.UpdateRequest) (testimonial.Testimonial, error) {
	rating := req.Rating
	if err := validateFields(req.Name, req.Country, req.Content, "content", &rating); err != nil {
		return testimonial.Testimonial{}, err
	}
	if req.Approved == nil {
		return testimonial.Testimonial{}, apperr.Field("approved", "is required")
	}

	req.Name = strings.TrimSpace(req.Name)
	req.Country = strings.TrimSpace(req.Country)
	req.Content = strings.TrimSpace(req.Content)
	if req.ImageURL != nil && strings.TrimSpace(*req.ImageURL) == "" {
		req.ImageURL = nil
	}

	t, err := e.store.Update(ctx, id, req, e.now())
	if err != nil {
		return testimonial.Testimonial{}, err
	}

	e.invalidatePublic(ctx)
	e.observe("edit")
	e.log.InfoContext(ctx, "testimonial_edited", "testimonial_id", t.ID)

	return t, nil
}

func (e *Engine) Delete(ctx context.Context, id string) error {
	if err := e.store.Delete(ctx, id); err != nil {
		return err
	}

	e.invalidatePublic(ctx)
	e.observe("delete")
	e.log.InfoContext(ctx, "testimonial_deleted", "testimonial_id", id)

	return nil
}

// Get is the admin view and returns testimonials in any state.
func (e *Engine) Get(ctx context.Context, id string) (testimonial.Testimonial, error) {
	return e.store.GetByID(ctx, id)
}

// GetPublic hides unapproved testimonials behind a not-found error.
func (e *Engine) GetPublic(ctx context.Context, id string) (testimonial.Testimonial, error) {
	t, err := e.store.GetByID(ctx, id)
	if err != nil {
		return testimonial.Testimonial{}, err
	}
	if !t.Approved {
		return testimonial.Testimonial{}, testimonial.ErrNotFound
	}
	return t, nil
}

// ListPublic returns approved testimonials, newest first. Results may be
// served from the cache; the approved filter is applied either way.
func (e *Engine) ListPublic(ctx context.Context) ([]testimonial.Testimonial, error) {
	var key string
	if e.cache != nil {
		gen, err := e.cache.Generation(ctx, publicListKey)
		if err != nil {
			e.log.WarnContext(ctx, "cache_generation_failed", "err", err)
		} else {
			key = fmt.Sprintf("%s:g%d", publicListKey, gen)
			if b, ok, err := e.cache.Get(ctx, key); err != nil {
				e.log.WarnContext(ctx, "cache_get_failed", "key", key, "err", err)
			} else if ok {
				var cached []testimonial.Testimonial
				if err := json.Unmarshal(b, &cached); err == nil {
					e.observeCache(true)
					return onlyApproved(cached), nil
				}
			}
			e.observeCache(false)
		}
	}

	items, err := e.store.ListApproved(ctx)
	if err != nil {
		return nil, fmt.Errorf("list approved testimonials: %w", err)
	}
	items = onlyApproved(items)

	if key != "" {
		if b, err := json.Marshal(items); err == nil {
			if err := e.cache.Set(ctx, key, b); err != nil {
				e.log.WarnContext(ctx, "cache_set_failed", "key", key, "err", err)
			}
		}
	}

	return items, nil
}

func onlyApproved(items []testimonial.Testimonial) []testimonial.Testimonial {
	out := make([]testimonial.Testimonial, 0, len(items))
	for _, t := range items {
		if t.Approved {
			out = append(out, t)
		}
	}
	return out
}

func (e *Engine) ListAdmin(ctx context.Context, f testimonial.AdminFilter) (testimonial.Page, error) {
	if f.Page < 1 {
		f.Page = 1
	}
	if f.MinRating != nil && (*f.MinRating < testimonial.MinRating || *f.MinRating > testimonial.MaxRating) {
		return testimonial.Page{}, apperr.Field("min_rating", "must be between 1 and 5")
	}

	items, total, err := e.store.ListAdmin(ctx, f, testimonial.PageSize, utils.Offset(f.Page, testimonial.PageSize))
	if err != nil {
		return testimonial.Page{}, fmt.Errorf("list testimonials: %w", err)
	}

	return testimonial.Page{
		Items:       items,
		CurrentPage: f.Page,
		PerPage:     testimonial.PageSize,
		Total:       total,
		LastPage:    utils.LastPage(total, testimonial.PageSize),
	}, nil
}

// ListPending returns unapproved testimonials oldest first.
func (e *Engine) ListPending(ctx context.Context) ([]testimonial.Testimonial, error) {
	items, err := e.store.ListPending(ctx)
	if err != nil {
		return nil, fmt.Errorf("list pending testimonials: %w", err)
	}
	return items, nil
}

func (e *Engine) Statistics(ctx context.Context) (testimonial.Statistics, error) {
	rows, err := e.store.Tally(ctx)
	if err != nil {
		return testimonial.Statistics{}, fmt.Errorf("tally testimonials: %w", err)
	}

	latest, err := e.store.Latest(ctx, testimonial.LatestCount)
	if err != nil {
		return testimonial.Statistics{}, fmt.Errorf("latest testimonials: %w", err)
	}

	return Summarize(rows, latest), nil
}

// Summarize derives the statistics from a (rating, approved) tally.
// Percentages and averages are rounded to two decimals and are 0 for an
// empty collection.
func Summarize(rows []testimonial.TallyRow, latest []testimonial.Testimonial) testimonial.Statistics {
	var sum testimonial.Summary
	byRating := make(map[int]int)
	ratingTotal := 0

	for _, r := range rows {
		sum.TotalCount += r.Count
		if r.Approved {
			sum.ApprovedCount += r.Count
		} else {
			sum.PendingCount += r.Count
		}
		byRating[r.Rating] += r.Count
		ratingTotal += r.Rating * r.Count
	}

	if sum.TotalCount > 0 {
		sum.ApprovalPercentage = round2(float64(sum.ApprovedCount) / float64(sum.TotalCount) * 100)
		sum.AverageRating = round2(float64(ratingTotal) / float64(sum.TotalCount))
	}

	dist := make([]testimonial.RatingBucket, 0, testimonial.MaxRating)
	for r := testimonial.MaxRating; r >= testimonial.MinRating; r-- {
		dist = append(dist, testimonial.RatingBucket{Rating: r, Count: byRating[r]})
	}

	if latest == nil {
		latest = []testimonial.Testimonial{}
	}

	return testimonial.Statistics{
		Summary:            sum,
		RatingDistribution: dist,
		Latest:             latest,
	}
}

func round2(v float64) float64 {
	return math.Round(v*100) / 100
}

// invalidatePublic runs after the store write has committed, so a reader
// that filled the old generation can never shadow the new state.
func (e *Engine) invalidatePublic(ctx context.Context) {
	if e.cache == nil {
		return
	}
	if _, err := e.cache.Bump(ctx, publicListKey); err != nil {
		e.log.WarnContext(ctx, "cache_invalidate_failed", "key", publicListKey, "err", err)
	}
}

func (e *Engine) observe(action string) {
	if e.observer != nil {
		e.observer.ObserveModeration(action)
	}
}

func (e *Engine) observeCache(hit bool) {
	if co, ok := e.observer.(cacheObserver); ok {
		co.ObserveCacheLookup(hit)
	}
}
