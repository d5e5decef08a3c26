package donation

import (
	"time"
)

const (
	StatusPending   = "pending"
	StatusCompleted = "completed"
	StatusFailed    = "failed"

	DefaultCurrency = "USD"
	PageSize        = 15
)

func ValidStatus(s string) bool {
	switch s {
	case StatusPending, StatusCompleted, StatusFailed:
		return true
	}
	return false
}

type CategoryRef struct {
	ID   string `json:"id"`
	Name string `json:"name"`
}

type UserRef struct {
	ID    string `json:"id"`
	Name  string `json:"name"`
	Email string `json:"email"`
}

// Donation is never modified by the donor after creation; only an admin
// moves Status.
type Donation struct {
	ID         string       `json:"id"`
	CategoryID string       `json:"category_id"`
	Amount     float64      `json:"amount"`
	Currency   string       `json:"currency"`
	DonorName  string       `json:"donor_name"`
	DonorEmail string       `json:"donor_email"`
	Message    *string      `json:"message"`
	Status     string       `json:"status"`
	UserID     *string      `json:"user_id"`
	Category   *CategoryRef `json:"category,omitempty"`
	User       *UserRef     `json:"user,omitempty"`
	CreatedAt  time.Time    `json:"created_at"`
	UpdatedAt  time.Time    `json:"updated_at"`
}

// Public is the projection shown to anonymous visitors: no email, no user link.
type Public struct {
	ID        string       `json:"id"`
	DonorName string       `json:"donor_name"`
	Amount    float64      `json:"amount"`
	Currency  string       `json:"currency"`
	Message   *string      `json:"message"`
	Category  *CategoryRef `json:"category,omitempty"`
	CreatedAt time.Time    `json:"created_at"`
}

func (d Donation) Public() Public {
	return Public{
		ID:        d.ID,
		DonorName: d.DonorName,
		Amount:    d.Amount,
		Currency:  d.Currency,
		Message:   d.Message,
		Category:  d.Category,
		CreatedAt: d.CreatedAt,
	}
}

type CreateRequest struct {
	CategoryID string  `json:"category_id" binding:"required"`
	Amount     float64 `json:"amount" binding:"required,gt=0"`
	Currency   string  `json:"currency" binding:"omitempty,len=3,alpha"`
	DonorName  string  `json:"donor_name" binding:"required,max=255"`
	DonorEmail string  `json:"donor_email" binding:"required,email,max=255"`
	Message    *string `json:"message" binding:"omitempty,max=2000"`
}

type UpdateStatusRequest struct {
	Status string `json:"status" binding:"required"`
}

// ListFilter fields combine with AND; nil fields are not applied.
// To is exclusive.
type ListFilter struct {
	Status     *string
	CategoryID *string
	From       *time.Time
	To         *time.Time
	Limit      int
	Offset     int
}

type Page struct {
	Items       []Donation `json:"data"`
	CurrentPage int        `json:"current_page"`
	PerPage     int        `json:"per_page"`
	Total       int        `json:"total"`
	LastPage    int        `json:"last_page"`
}

type PublicPage struct {
	Items       []Public `json:"data"`
	CurrentPage int      `json:"current_page"`
	PerPage     int      `json:"per_page"`
	Total       int      `json:"total"`
	LastPage    int      `json:"last_page"`
}

// TallyRow is one (category, status) group of the ledger.
type TallyRow struct {
	CategoryID   string
	CategoryName *string
	Status       string
	Count        int
	Amount       float64
}

type Summary struct {
	TotalAmount     float64 `json:"total_amount"`
	TotalCount      int     `json:"total_count"`
	CompletedAmount float64 `json:"completed_amount"`
	CompletedCount  int     `json:"completed_count"`
	PendingAmount   float64 `json:"pending_amount"`
	AverageDonation float64 `json:"average_donation"`
}

type CategoryBucket struct {
	CategoryID  string       `json:"category_id"`
	Category    *CategoryRef `json:"category"`
	TotalAmount float64      `json:"total_amount"`
	Count       int          `json:"count"`
}

type StatusBucket struct {
	Status      string  `json:"status"`
	Count       int     `json:"count"`
	TotalAmount float64 `json:"total_amount"`
}

type Statistics struct {
	Summary    Summary          `json:"summary"`
	ByCategory []CategoryBucket `json:"by_category"`
	ByStatus   []StatusBucket   `json:"by_status"`
}
