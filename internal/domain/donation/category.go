package donation

import "time"

type Category struct {
	ID          string    `json:"id"`
	Name        string    `json:"name"`
	Description *string   `json:"description"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

type CategoryRequest struct {
	Name        string  `json:"name" binding:"required,min=2,max=120"`
	Description *string `json:"description" binding:"omitempty,max=1000"`
}
