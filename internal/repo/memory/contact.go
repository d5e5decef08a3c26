package memory

import (
	"context"
	"sort"
	"time"

	"github.com/geocoder89/supporthub/internal/domain/contact"
)

type ContactRepo struct {
	db *DB
}

func NewContactRepo(db *DB) *ContactRepo {
	return &ContactRepo{db: db}
}

func (r *ContactRepo) Create(ctx context.Context, m contact.Message) error {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()

	r.db.contacts[m.ID] = m
	return nil
}

func (r *ContactRepo) GetByID(ctx context.Context, id string) (contact.Message, error) {
	r.db.mu.RLock()
	defer r.db.mu.RUnlock()

	m, ok := r.db.contacts[id]
	if !ok {
		return contact.Message{}, contact.ErrNotFound
	}
	return m, nil
}

func (r *ContactRepo) Update(ctx context.Context, id string, req contact.UpdateRequest, at time.Time) (contact.Message, error) {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()

	m, ok := r.db.contacts[id]
	if !ok {
		return contact.Message{}, contact.ErrNotFound
	}

	changed := false
	if req.Status != nil && *req.Status != m.Status {
		m.Status = *req.Status
		changed = true
	}
	if req.Pinned != nil && *req.Pinned != m.Pinned {
		m.Pinned = *req.Pinned
		changed = true
	}
	if changed {
		m.UpdatedAt = at
		r.db.contacts[id] = m
	}
	return m, nil
}

func (r *ContactRepo) Delete(ctx context.Context, id string) error {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()

	if _, ok := r.db.contacts[id]; !ok {
		return contact.ErrNotFound
	}
	delete(r.db.contacts, id)
	return nil
}

func (r *ContactRepo) List(ctx context.Context, status *string) ([]contact.Message, error) {
	r.db.mu.RLock()
	defer r.db.mu.RUnlock()

	out := make([]contact.Message, 0)
	for _, m := range r.db.contacts {
		if status == nil || m.Status == *status {
			out = append(out, m)
		}
	}

	sort.Slice(out, func(i, j int) bool {
		a, b := out[i], out[j]
		if a.Pinned != b.Pinned {
			return a.Pinned
		}
		if a.CreatedAt.Equal(b.CreatedAt) {
			return a.ID > b.ID
		}
		return a.CreatedAt.After(b.CreatedAt)
	})
	return out, nil
}
