package memory

import (
	"context"
	"sort"
	"strings"
	"time"

	"github.com/geocoder89/supporthub/internal/domain/donation"
	"github.com/geocoder89/supporthub/internal/domain/session"
	"github.com/geocoder89/supporthub/internal/domain/user"
)

type UsersRepo struct {
	db *DB
}

func NewUsersRepo(db *DB) *UsersRepo {
	return &UsersRepo{db: db}
}

func (r *UsersRepo) Create(ctx context.Context, u user.User) error {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()

	for _, existing := range r.db.users {
		if strings.EqualFold(existing.Email, u.Email) {
			return user.ErrEmailTaken
		}
	}

	r.db.users[u.ID] = u
	return nil
}

func (r *UsersRepo) GetByEmail(ctx context.Context, email string) (user.User, error) {
	r.db.mu.RLock()
	defer r.db.mu.RUnlock()

	for _, u := range r.db.users {
		if strings.EqualFold(u.Email, email) {
			return u, nil
		}
	}
	return user.User{}, user.ErrNotFound
}

func (r *UsersRepo) GetByID(ctx context.Context, id string) (user.User, error) {
	r.db.mu.RLock()
	defer r.db.mu.RUnlock()

	u, ok := r.db.users[id]
	if !ok {
		return user.User{}, user.ErrNotFound
	}
	return u, nil
}

func (r *UsersRepo) sortedLocked() []user.User {
	out := make([]user.User, 0, len(r.db.users))
	for _, u := range r.db.users {
		out = append(out, u)
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].CreatedAt.Equal(out[j].CreatedAt) {
			return out[i].ID < out[j].ID
		}
		return out[i].CreatedAt.Before(out[j].CreatedAt)
	})
	return out
}

func (r *UsersRepo) List(ctx context.Context, limit, offset int) ([]user.User, int, error) {
	r.db.mu.RLock()
	defer r.db.mu.RUnlock()

	all := r.sortedLocked()
	return page(all, limit, offset), len(all), nil
}

func (r *UsersRepo) Search(ctx context.Context, query string, limit int) ([]user.User, error) {
	r.db.mu.RLock()
	defer r.db.mu.RUnlock()

	q := strings.ToLower(query)
	out := make([]user.User, 0)
	for _, u := range r.sortedLocked() {
		if strings.Contains(strings.ToLower(u.Name), q) || strings.Contains(strings.ToLower(u.Email), q) {
			out = append(out, u)
			if len(out) == limit {
				break
			}
		}
	}
	return out, nil
}

func (r *UsersRepo) adminCountLocked() int {
	n := 0
	for _, u := range r.db.users {
		if u.IsAdmin() {
			n++
		}
	}
	return n
}

func (r *UsersRepo) UpdateRole(ctx context.Context, id, role string, at time.Time) (user.User, error) {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()

	u, ok := r.db.users[id]
	if !ok {
		return user.User{}, user.ErrNotFound
	}

	if u.IsAdmin() && role != user.RoleAdmin && r.adminCountLocked() <= 1 {
		return user.User{}, user.ErrLastAdmin
	}

	u.Role = role
	u.UpdatedAt = at
	r.db.users[id] = u
	return u, nil
}

func (r *UsersRepo) Delete(ctx context.Context, id string) error {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()

	u, ok := r.db.users[id]
	if !ok {
		return user.ErrNotFound
	}

	if u.IsAdmin() && r.adminCountLocked() <= 1 {
		return user.ErrLastAdmin
	}

	delete(r.db.users, id)

	for sid, s := range r.db.sessions {
		if s.UserID == id {
			delete(r.db.sessions, sid)
		}
	}

	// donations outlive their donor and become guest donations
	for did, d := range r.db.donations {
		if d.UserID != nil && *d.UserID == id {
			d.UserID = nil
			r.db.donations[did] = d
		}
	}

	return nil
}

func (r *UsersRepo) TotalDonated(ctx context.Context, id string) (float64, error) {
	r.db.mu.RLock()
	defer r.db.mu.RUnlock()

	var total float64
	for _, d := range r.db.donations {
		if d.UserID != nil && *d.UserID == id && d.Status == donation.StatusCompleted {
			total += d.Amount
		}
	}
	return total, nil
}

type SessionsRepo struct {
	db *DB
}

func NewSessionsRepo(db *DB) *SessionsRepo {
	return &SessionsRepo{db: db}
}

func (r *SessionsRepo) Create(ctx context.Context, s session.Session) error {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()

	r.db.sessions[s.ID] = s
	return nil
}

func (r *SessionsRepo) Get(ctx context.Context, id string) (session.Session, error) {
	r.db.mu.RLock()
	defer r.db.mu.RUnlock()

	s, ok := r.db.sessions[id]
	if !ok {
		return session.Session{}, session.ErrNotFound
	}
	return s, nil
}

func (r *SessionsRepo) Revoke(ctx context.Context, id string, at time.Time) error {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()

	s, ok := r.db.sessions[id]
	if !ok {
		return session.ErrNotFound
	}
	if s.RevokedAt == nil {
		s.RevokedAt = &at
		r.db.sessions[id] = s
	}
	return nil
}
