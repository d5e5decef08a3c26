package ledger

import (
	"context"
	"fmt"
	"strings"

	"github.com/geocoder89/supporthub/internal/apperr"
	"github.com/geocoder89/supporthub/internal/domain/donation"
	"github.com/google/uuid"
)

func (l *Ledger) ListCategories(ctx context.Context) ([]donation.Category, error) {
	cats, err := l.categories.List(ctx)
	if err != nil {
		return nil, fmt.Errorf("list categories: %w", err)
	}
	return cats, nil
}

func (l *Ledger) GetCategory(ctx context.Context, id string) (donation.Category, error) {
	return l.categories.GetByID(ctx, id)
}

func validateCategory(req donation.CategoryRequest) (donation.CategoryRequest, error) {
	req.Name = strings.TrimSpace(req.Name)
	if req.Name == "" {
		return req, apperr.Field("name", "is required")
	}
	if req.Description != nil {
		if d := strings.TrimSpace(*req.Description); d == "" {
			req.Description = nil
		} else {
			req.Description = &d
		}
	}
	return req, nil
}

func (l *Ledger) CreateCategory(ctx context.Context, req donation.CategoryRequest) (donation.Category, error) {
	req, err := validateCategory(req)
	if err != nil {
		return donation.Category{}, err
	}

	now := l.now()
	c := donation.Category{
		ID:          uuid.NewString(),
		Name:        req.Name,
		Description: req.Description,
		CreatedAt:   now,
		UpdatedAt:   now,
	}

	if err := l.categories.Create(ctx, c); err != nil {
		return donation.Category{}, fmt.Errorf("create category: %w", err)
	}

	l.log.InfoContext(ctx, "category_created", "category_id", c.ID)
	return c, nil
}

func (l *Ledger) UpdateCategory(ctx context.Context, id string, req donation.CategoryRequest) (donation.Category, error) {
	req, err := validateCategory(req)
	if err != nil {
		return donation.Category{}, err
	}
	return l.categories.Update(ctx, id, req, l.now())
}

// DeleteCategory refuses to orphan donations.
func (l *Ledger) DeleteCategory(ctx context.Context, id string) error {
	if err := l.categories.Delete(ctx, id); err != nil {
		return err
	}

	l.log.InfoContext(ctx, "category_deleted", "category_id", id)
	return nil
}
