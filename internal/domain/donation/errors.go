package donation

import (
	"fmt"

	"github.com/geocoder89/supporthub/internal/apperr"
)

var (
	ErrNotFound         = apperr.NotFound("donation")
	ErrCategoryNotFound = apperr.NotFound("donation category")
	// ErrCategoryInUse is returned when deleting a category that donations still reference.
	ErrCategoryInUse = fmt.Errorf("donation category has donations: %w", apperr.ErrConflict)
)
