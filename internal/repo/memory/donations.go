package memory

import (
	"context"
	"sort"
	"strings"
	"time"

	"github.com/geocoder89/supporthub/internal/domain/donation"
)

type DonationsRepo struct {
	db *DB
}

func NewDonationsRepo(db *DB) *DonationsRepo {
	return &DonationsRepo{db: db}
}

// withRefsLocked fills the embedded category and user summaries the way a
// join would.
func (r *DonationsRepo) withRefsLocked(d donation.Donation) donation.Donation {
	d.Category = nil
	d.User = nil

	if c, ok := r.db.categories[d.CategoryID]; ok {
		d.Category = &donation.CategoryRef{ID: c.ID, Name: c.Name}
	}
	if d.UserID != nil {
		if u, ok := r.db.users[*d.UserID]; ok {
			d.User = &donation.UserRef{ID: u.ID, Name: u.Name, Email: u.Email}
		}
	}
	return d
}

func (r *DonationsRepo) Create(ctx context.Context, d donation.Donation) (donation.Donation, error) {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()

	if _, ok := r.db.categories[d.CategoryID]; !ok {
		return donation.Donation{}, donation.ErrCategoryNotFound
	}

	d.Category = nil
	d.User = nil
	r.db.donations[d.ID] = d
	return r.withRefsLocked(d), nil
}

func (r *DonationsRepo) GetByID(ctx context.Context, id string) (donation.Donation, error) {
	r.db.mu.RLock()
	defer r.db.mu.RUnlock()

	d, ok := r.db.donations[id]
	if !ok {
		return donation.Donation{}, donation.ErrNotFound
	}
	return r.withRefsLocked(d), nil
}

func (r *DonationsRepo) UpdateStatus(ctx context.Context, id, status string, at time.Time) (donation.Donation, error) {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()

	d, ok := r.db.donations[id]
	if !ok {
		return donation.Donation{}, donation.ErrNotFound
	}

	if d.Status != status {
		d.Status = status
		d.UpdatedAt = at
		r.db.donations[id] = d
	}
	return r.withRefsLocked(d), nil
}

func (r *DonationsRepo) Delete(ctx context.Context, id string) error {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()

	if _, ok := r.db.donations[id]; !ok {
		return donation.ErrNotFound
	}
	delete(r.db.donations, id)
	return nil
}

func (r *DonationsRepo) newestLocked(keep func(donation.Donation) bool) []donation.Donation {
	out := make([]donation.Donation, 0)
	for _, d := range r.db.donations {
		if keep == nil || keep(d) {
			out = append(out, r.withRefsLocked(d))
		}
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].CreatedAt.Equal(out[j].CreatedAt) {
			return out[i].ID > out[j].ID
		}
		return out[i].CreatedAt.After(out[j].CreatedAt)
	})
	return out
}

func (r *DonationsRepo) List(ctx context.Context, f donation.ListFilter) ([]donation.Donation, int, error) {
	r.db.mu.RLock()
	defer r.db.mu.RUnlock()

	all := r.newestLocked(func(d donation.Donation) bool {
		if f.Status != nil && d.Status != *f.Status {
			return false
		}
		if f.CategoryID != nil && d.CategoryID != *f.CategoryID {
			return false
		}
		if f.From != nil && d.CreatedAt.Before(*f.From) {
			return false
		}
		if f.To != nil && !d.CreatedAt.Before(*f.To) {
			return false
		}
		return true
	})

	return page(all, f.Limit, f.Offset), len(all), nil
}

func (r *DonationsRepo) All(ctx context.Context) ([]donation.Donation, error) {
	r.db.mu.RLock()
	defer r.db.mu.RUnlock()

	return r.newestLocked(nil), nil
}

func (r *DonationsRepo) ListCompleted(ctx context.Context, limit, offset int) ([]donation.Donation, int, error) {
	r.db.mu.RLock()
	defer r.db.mu.RUnlock()

	all := r.newestLocked(func(d donation.Donation) bool { return d.Status == donation.StatusCompleted })
	return page(all, limit, offset), len(all), nil
}

func (r *DonationsRepo) Latest(ctx context.Context, n int) ([]donation.Donation, error) {
	r.db.mu.RLock()
	defer r.db.mu.RUnlock()

	return page(r.newestLocked(nil), n, 0), nil
}

func (r *DonationsRepo) Tally(ctx context.Context) ([]donation.TallyRow, error) {
	r.db.mu.RLock()
	defer r.db.mu.RUnlock()

	type key struct {
		category string
		status   string
	}
	rows := make(map[key]*donation.TallyRow)
	for _, d := range r.db.donations {
		k := key{d.CategoryID, d.Status}
		row, ok := rows[k]
		if !ok {
			row = &donation.TallyRow{CategoryID: d.CategoryID, Status: d.Status}
			if c, ok := r.db.categories[d.CategoryID]; ok {
				row.CategoryName = strPtr(c.Name)
			}
			rows[k] = row
		}
		row.Count++
		row.Amount += d.Amount
	}

	out := make([]donation.TallyRow, 0, len(rows))
	for _, row := range rows {
		out = append(out, *row)
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].CategoryID == out[j].CategoryID {
			return out[i].Status < out[j].Status
		}
		return out[i].CategoryID < out[j].CategoryID
	})
	return out, nil
}

type CategoriesRepo struct {
	db *DB
}

func NewCategoriesRepo(db *DB) *CategoriesRepo {
	return &CategoriesRepo{db: db}
}

func (r *CategoriesRepo) List(ctx context.Context) ([]donation.Category, error) {
	r.db.mu.RLock()
	defer r.db.mu.RUnlock()

	out := make([]donation.Category, 0, len(r.db.categories))
	for _, c := range r.db.categories {
		out = append(out, c)
	}
	sort.Slice(out, func(i, j int) bool {
		return strings.ToLower(out[i].Name) < strings.ToLower(out[j].Name)
	})
	return out, nil
}

func (r *CategoriesRepo) GetByID(ctx context.Context, id string) (donation.Category, error) {
	r.db.mu.RLock()
	defer r.db.mu.RUnlock()

	c, ok := r.db.categories[id]
	if !ok {
		return donation.Category{}, donation.ErrCategoryNotFound
	}
	return c, nil
}

func (r *CategoriesRepo) Create(ctx context.Context, c donation.Category) error {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()

	r.db.categories[c.ID] = c
	return nil
}

func (r *CategoriesRepo) Update(ctx context.Context, id string, req donation.CategoryRequest, at time.Time) (donation.Category, error) {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()

	c, ok := r.db.categories[id]
	if !ok {
		return donation.Category{}, donation.ErrCategoryNotFound
	}

	c.Name = strings.TrimSpace(req.Name)
	c.Description = req.Description
	c.UpdatedAt = at
	r.db.categories[id] = c
	return c, nil
}

func (r *CategoriesRepo) Delete(ctx context.Context, id string) error {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()

	if _, ok := r.db.categories[id]; !ok {
		return donation.ErrCategoryNotFound
	}
	for _, d := range r.db.donations {
		if d.CategoryID == id {
			return donation.ErrCategoryInUse
		}
	}
	delete(r.db.categories, id)
	return nil
}

func (r *CategoriesRepo) Count(ctx context.Context) (int, error) {
	r.db.mu.RLock()
	defer r.db.mu.RUnlock()

	return len(r.db.categories), nil
}
