package entities

import "time"

// Feedback is a data-correction report about a lot, or about the map in general.
type Feedback struct {
	ID        string    `json:"id" db:"id"`
	LotID     *int      `json:"lot_id,omitempty" db:"lot_id"`
	Message   string    `json:"message" db:"message"`
	Email     string    `json:"email" db:"email"`
	Page      string    `json:"page" db:"page"`
	UserAgent string    `json:"user_agent" db:"user_agent"`
	CreatedAt time.Time `json:"created_at" db:"created_at"`
}
