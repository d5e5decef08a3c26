package testimonial

import "github.com/geocoder89/supporthub/internal/apperr"

var ErrNotFound = apperr.NotFound("testimonial")
