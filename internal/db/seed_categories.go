package db

import (
	"context"
	"fmt"
	"time"

	"github.com/geocoder89/supporthub/internal/domain/donation"
	"github.com/google/uuid"
)

type CategorySeeder interface {
	Count(ctx context.Context) (int, error)
	Create(ctx context.Context, c donation.Category) error
}

var defaultCategories = []struct {
	name        string
	description string
}{
	{"Medical Aid", "Medicine, equipment and support for field hospitals."},
	{"Food & Water", "Food parcels and clean drinking water for families."},
	{"Shelter", "Tents, blankets and repairs for displaced households."},
	{"Education", "School supplies and safe learning spaces for children."},
}

// SeedCategories fills an empty category table with the defaults. It does
// nothing once any category exists.
func SeedCategories(ctx context.Context, store CategorySeeder) (int, error) {
	n, err := store.Count(ctx)
	if err != nil {
		return 0, fmt.Errorf("count categories: %w", err)
	}
	if n > 0 {
		return 0, nil
	}

	now := time.Now().UTC()
	for i, c := range defaultCategories {
		desc := c.description
		err := store.Create(ctx, donation.Category{
			ID:          uuid.NewString(),
			Name:        c.name,
			Description: &desc,
			// keep seed order stable for listings that sort by creation
			CreatedAt: now.Add(time.Duration(i) * time.Millisecond),
			UpdatedAt: now,
		})
		if err != nil {
			return i, fmt.Errorf("seed category %q: %w", c.name, err)
		}
	}
	return len(defaultCategories), nil
}
