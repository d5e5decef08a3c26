package contact

import "time"

const (
	StatusPending  = "pending"
	StatusApproved = "approved"
	StatusRejected = "rejected"
)

// Message is a note left through the public contact form. Nothing here is
// ever shown publicly; Status only tracks the admin's triage.
type Message struct {
	ID        string    `json:"id"`
	Name      string    `json:"name"`
	Email     string    `json:"email"`
	Country   *string   `json:"country"`
	Body      string    `json:"message"`
	Status    string    `json:"status"`
	Pinned    bool      `json:"is_pinned"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

type SendRequest struct {
	Name    string  `json:"name" binding:"required,max=255"`
	Email   string  `json:"email" binding:"required,email,max=255"`
	Country *string `json:"country" binding:"omitempty,max=255"`
	Message string  `json:"message" binding:"required,max=5000"`
}

// UpdateRequest is a partial update; nil fields are left alone.
type UpdateRequest struct {
	Status *string `json:"status" binding:"omitempty,oneof=pending approved rejected"`
	Pinned *bool   `json:"is_pinned"`
}

func ValidStatus(s string) bool {
	switch s {
	case StatusPending, StatusApproved, StatusRejected:
		return true
	}
	return false
}
