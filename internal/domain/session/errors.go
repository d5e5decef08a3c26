package session

import "github.com/geocoder89/supporthub/internal/apperr"

var ErrNotFound = apperr.NotFound("session")
