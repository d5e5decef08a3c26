package testimonial

import (
	"strings"
	"time"

	"github.com/google/uuid"
)

// NewFromSubmitRequest builds a pending testimonial. Submissions never
// arrive approved, whatever their content.
func NewFromSubmitRequest(req SubmitRequest, now time.Time) Testimonial {
	rating := DefaultRating
	if req.Rating != nil {
		rating = *req.Rating
	}

	var image *string
	if req.ImageURL != nil {
		if v := strings.TrimSpace(*req.ImageURL); v != "" {
			image = &v
		}
	}

	return Testimonial{
		ID:        uuid.NewString(),
		Name:      strings.TrimSpace(req.Name),
		Country:   strings.TrimSpace(req.Country),
		Content:   strings.TrimSpace(req.Message),
		Rating:    rating,
		ImageURL:  image,
		Approved:  false,
		CreatedAt: now,
		UpdatedAt: now,
	}
}
