package user

import (
	"fmt"

	"github.com/geocoder89/supporthub/internal/apperr"
)

const (
	PageSize    = 15
	SearchLimit = 10
)

var (
	ErrNotFound   = apperr.NotFound("user")
	ErrEmailTaken = fmt.Errorf("email already in use: %w", apperr.ErrConflict)
	// ErrLastAdmin is returned when a delete or demotion would leave no admin.
	ErrLastAdmin = apperr.Forbidden("cannot remove the last admin user")
)
