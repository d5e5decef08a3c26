package memory

import (
	"context"
	"sort"
	"time"

	"github.com/geocoder89/supporthub/internal/domain/testimonial"
)

type TestimonialsRepo struct {
	db *DB
}

func NewTestimonialsRepo(db *DB) *TestimonialsRepo {
	return &TestimonialsRepo{db: db}
}

func (r *TestimonialsRepo) Create(ctx context.Context, t testimonial.Testimonial) error {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()

	r.db.testimonials[t.ID] = t
	return nil
}

func (r *TestimonialsRepo) GetByID(ctx context.Context, id string) (testimonial.Testimonial, error) {
	r.db.mu.RLock()
	defer r.db.mu.RUnlock()

	t, ok := r.db.testimonials[id]
	if !ok {
		return testimonial.Testimonial{}, testimonial.ErrNotFound
	}
	return t, nil
}

func (r *TestimonialsRepo) SetApproved(ctx context.Context, id string, approved bool, at time.Time) (testimonial.Testimonial, error) {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()

	t, ok := r.db.testimonials[id]
	if !ok {
		return testimonial.Testimonial{}, testimonial.ErrNotFound
	}

	if t.Approved != approved {
		t.Approved = approved
		t.UpdatedAt = at
		r.db.testimonials[id] = t
	}
	return t, nil
}

func (r *TestimonialsRepo) Update(ctx context.Context, id string, req testimonial.UpdateRequest, at time.Time) (testimonial.Testimonial, error) {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()

	t, ok := r.db.testimonials[id]
	if !ok {
		return testimonial.Testimonial{}, testimonial.ErrNotFound
	}

	t.Name = req.Name
	t.Country = req.Country
	t.Content = req.Content
	t.Rating = req.Rating
	t.ImageURL = req.ImageURL
	if req.Approved != nil {
		t.Approved = *req.Approved
	}
	t.UpdatedAt = at

	r.db.testimonials[id] = t
	return t, nil
}

func (r *TestimonialsRepo) Delete(ctx context.Context, id string) error {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()

	if _, ok := r.db.testimonials[id]; !ok {
		return testimonial.ErrNotFound
	}
	delete(r.db.testimonials, id)
	return nil
}

func (r *TestimonialsRepo) collectLocked(keep func(testimonial.Testimonial) bool, newestFirst bool) []testimonial.Testimonial {
	out := make([]testimonial.Testimonial, 0)
	for _, t := range r.db.testimonials {
		if keep == nil || keep(t) {
			out = append(out, t)
		}
	}

	sort.Slice(out, func(i, j int) bool {
		a, b := out[i], out[j]
		if a.CreatedAt.Equal(b.CreatedAt) {
			if newestFirst {
				return a.ID > b.ID
			}
			return a.ID < b.ID
		}
		if newestFirst {
			return a.CreatedAt.After(b.CreatedAt)
		}
		return a.CreatedAt.Before(b.CreatedAt)
	})

	return out
}

func (r *TestimonialsRepo) ListApproved(ctx context.Context) ([]testimonial.Testimonial, error) {
	r.db.mu.RLock()
	defer r.db.mu.RUnlock()

	return r.collectLocked(func(t testimonial.Testimonial) bool { return t.Approved }, true), nil
}

func (r *TestimonialsRepo) ListAdmin(ctx context.Context, f testimonial.AdminFilter, limit, offset int) ([]testimonial.Testimonial, int, error) {
	r.db.mu.RLock()
	defer r.db.mu.RUnlock()

	all := r.collectLocked(func(t testimonial.Testimonial) bool {
		if f.Approved != nil && t.Approved != *f.Approved {
			return false
		}
		if f.MinRating != nil && t.Rating < *f.MinRating {
			return false
		}
		return true
	}, true)

	return page(all, limit, offset), len(all), nil
}

func (r *TestimonialsRepo) ListPending(ctx context.Context) ([]testimonial.Testimonial, error) {
	r.db.mu.RLock()
	defer r.db.mu.RUnlock()

	return r.collectLocked(func(t testimonial.Testimonial) bool { return !t.Approved }, false), nil
}

func (r *TestimonialsRepo) Tally(ctx context.Context) ([]testimonial.TallyRow, error) {
	r.db.mu.RLock()
	defer r.db.mu.RUnlock()

	type key struct {
		rating   int
		approved bool
	}
	counts := make(map[key]int)
	for _, t := range r.db.testimonials {
		counts[key{t.Rating, t.Approved}]++
	}

	out := make([]testimonial.TallyRow, 0, len(counts))
	for k, n := range counts {
		out = append(out, testimonial.TallyRow{Rating: k.rating, Approved: k.approved, Count: n})
	}
	return out, nil
}

func (r *TestimonialsRepo) Latest(ctx context.Context, n int) ([]testimonial.Testimonial, error) {
	r.db.mu.RLock()
	defer r.db.mu.RUnlock()

	return page(r.collectLocked(nil, true), n, 0), nil
}
