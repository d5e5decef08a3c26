package contact

import "github.com/geocoder89/supporthub/internal/apperr"

var ErrNotFound = apperr.NotFound("contact message")
