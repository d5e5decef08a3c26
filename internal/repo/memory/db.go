package memory

import (
	"sync"

	"github.com/geocoder89/supporthub/internal/domain/contact"
	"github.com/geocoder89/supporthub/internal/domain/donation"
	"github.com/geocoder89/supporthub/internal/domain/session"
	"github.com/geocoder89/supporthub/internal/domain/testimonial"
	"github.com/geocoder89/supporthub/internal/domain/user"
)

// DB is a process-local store. One mutex guards every table so each
// mutation, including the last-admin check, is atomic.
type DB struct {
	mu           sync.RWMutex
	users        map[string]user.User
	sessions     map[string]session.Session
	testimonials map[string]testimonial.Testimonial
	donations    map[string]donation.Donation
	categories   map[string]donation.Category
	contacts     map[string]contact.Message
}

func NewDB() *DB {
	return &DB{
		users:        make(map[string]user.User),
		sessions:     make(map[string]session.Session),
		testimonials: make(map[string]testimonial.Testimonial),
		donations:    make(map[string]donation.Donation),
		categories:   make(map[string]donation.Category),
		contacts:     make(map[string]contact.Message),
	}
}

func (db *DB) Ping() error {
	return nil
}

func page[T any](items []T, limit, offset int) []T {
	if offset < 0 || offset >= len(items) {
		return []T{}
	}
	end := len(items)
	if limit > 0 && limit < end-offset {
		end = offset + limit
	}
	out := make([]T, end-offset)
	copy(out, items[offset:end])
	return out
}

func strPtr(s string) *string {
	return &s
}
