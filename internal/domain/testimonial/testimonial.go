package testimonial

import (
	"time"
)

const (
	MinRating     = 1
	MaxRating     = 5
	DefaultRating = 5

	// PageSize is the fixed admin listing page size.
	PageSize = 15
	// LatestCount is how many recent submissions statistics report.
	LatestCount = 5
)

// Testimonial is a visitor-submitted message of support. Approved is the
// only field that decides public visibility.
type Testimonial struct {
	ID        string    `json:"id"`
	Name      string    `json:"name"`
	Country   string    `json:"country"`
	Content   string    `json:"content"`
	Rating    int       `json:"rating"`
	ImageURL  *string   `json:"image_url"`
	Approved  bool      `json:"approved"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// SubmitRequest is the public submission body. The wire name of the
// content field is "message".
type SubmitRequest struct {
	Name     string  `json:"name" binding:"required,max=255"`
	Country  string  `json:"country" binding:"required,max=255"`
	Message  string  `json:"message" binding:"required,max=5000"`
	Rating   *int    `json:"rating" binding:"omitempty,min=1,max=5"`
	ImageURL *string `json:"image_url" binding:"omitempty,max=2048"`
}

// UpdateRequest is a full-record administrative correction.
type UpdateRequest struct {
	Name     string  `json:"name" binding:"required,max=255"`
	Country  string  `json:"country" binding:"required,max=255"`
	Content  string  `json:"content" binding:"required,max=5000"`
	Rating   int     `json:"rating" binding:"required,min=1,max=5"`
	ImageURL *string `json:"image_url" binding:"omitempty,max=2048"`
	Approved *bool   `json:"approved" binding:"required"`
}

// AdminFilter narrows the admin listing; nil fields are not applied.
type AdminFilter struct {
	Approved  *bool
	MinRating *int
	Page      int
}

type Page struct {
	Items       []Testimonial `json:"data"`
	CurrentPage int           `json:"current_page"`
	PerPage     int           `json:"per_page"`
	Total       int           `json:"total"`
	LastPage    int           `json:"last_page"`
}

// TallyRow is one (rating, approved) group of the stored collection.
type TallyRow struct {
	Rating   int
	Approved bool
	Count    int
}

type Summary struct {
	TotalCount         int     `json:"total_count"`
	ApprovedCount      int     `json:"approved_count"`
	PendingCount       int     `json:"pending_count"`
	ApprovalPercentage float64 `json:"approval_percentage"`
	AverageRating      float64 `json:"average_rating"`
}

type RatingBucket struct {
	Rating int `json:"rating"`
	Count  int `json:"count"`
}

type Statistics struct {
	Summary            Summary        `json:"summary"`
	RatingDistribution []RatingBucket `json:"rating_distribution"`
	Latest             []Testimonial  `json:"latest"`
}
