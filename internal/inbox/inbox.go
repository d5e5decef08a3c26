// Package inbox holds messages sent through the public contact form and
// the admin triage over them.
package inbox

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/geocoder89/supporthub/internal/apperr"
	"github.com/geocoder89/supporthub/internal/domain/contact"
	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
)

// Store persists contact messages. List returns pinned messages first,
// then newest first.
type Store interface {
	Create(ctx context.Context, m contact.Message) error
	GetByID(ctx context.Context, id string) (contact.Message, error)
	Update(ctx context.Context, id string, req contact.UpdateRequest, at time.Time) (contact.Message, error)
	Delete(ctx context.Context, id string) error
	List(ctx context.Context, status *string) ([]contact.Message, error)
}

type Service struct {
	store    Store
	validate *validator.Validate
	log      *slog.Logger
	now      func() time.Time
}

func NewService(store Store, log *slog.Logger) *Service {
	if log == nil {
		log = slog.Default()
	}
	return &Service{
		store:    store,
		validate: validator.New(),
		log:      log,
		now:      func() time.Time { return time.Now().UTC() },
	}
}

func (s *Service) Send(ctx context.Context, req contact.SendRequest) (contact.Message, error) {
	verr := apperr.NewValidation("")

	name := strings.TrimSpace(req.Name)
	if name == "" {
		verr.Add("name", "is required")
	}
	email := strings.ToLower(strings.TrimSpace(req.Email))
	if s.validate.Var(email, "required,email") != nil {
		verr.Add("email", "must be a valid email address")
	}
	body := strings.TrimSpace(req.Message)
	if body == "" {
		verr.Add("message", "is required")
	}
	if err := verr.OrNil(); err != nil {
		return contact.Message{}, err
	}

	var country *string
	if req.Country != nil {
		if c := strings.TrimSpace(*req.Country); c != "" {
			country = &c
		}
	}

	now := s.now()
	m := contact.Message{
		ID:        uuid.NewString(),
		Name:      name,
		Email:     email,
		Country:   country,
		Body:      body,
		Status:    contact.StatusPending,
		CreatedAt: now,
		UpdatedAt: now,
	}

	if err := s.store.Create(ctx, m); err != nil {
		return contact.Message{}, fmt.Errorf("create contact message: %w", err)
	}

	s.log.InfoContext(ctx, "contact_message_received", "message_id", m.ID)
	return m, nil
}

// List filters by status when status is non-empty.
func (s *Service) List(ctx context.Context, status string) ([]contact.Message, error) {
	var filter *string
	if status != "" {
		if !contact.ValidStatus(status) {
			return nil, apperr.Field("status", "must be one of pending, approved, rejected")
		}
		filter = &status
	}

	items, err := s.store.List(ctx, filter)
	if err != nil {
		return nil, fmt.Errorf("list contact messages: %w", err)
	}
	return items, nil
}

func (s *Service) Get(ctx context.Context, id string) (contact.Message, error) {
	return s.store.GetByID(ctx, id)
}

func (s *Service) Update(ctx context.Context, id string, req contact.UpdateRequest) (contact.Message, error) {
	if req.Status != nil && !contact.ValidStatus(*req.Status) {
		return contact.Message{}, apperr.Field("status", "must be one of pending, approved, rejected")
	}
	if req.Status == nil && req.Pinned == nil {
		return s.store.GetByID(ctx, id)
	}

	m, err := s.store.Update(ctx, id, req, s.now())
	if err != nil {
		return contact.Message{}, err
	}

	s.log.InfoContext(ctx, "contact_message_updated", "message_id", id, "status", m.Status, "pinned", m.Pinned)
	return m, nil
}

func (s *Service) Approve(ctx context.Context, id string) (contact.Message, error) {
	status := contact.StatusApproved
	return s.Update(ctx, id, contact.UpdateRequest{Status: &status})
}

func (s *Service) Reject(ctx context.Context, id string) (contact.Message, error) {
	status := contact.StatusRejected
	return s.Update(ctx, id, contact.UpdateRequest{Status: &status})
}

func (s *Service) Delete(ctx context.Context, id string) error {
	if err := s.store.Delete(ctx, id); err != nil {
		return err
	}

	s.log.InfoContext(ctx, "contact_message_deleted", "message_id", id)
	return nil
}
