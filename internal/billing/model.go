package billing

import (
	"time"

	"github.com/google/uuid"
)

type LineItem struct {
	Description string `json:"description"`
	Price       int64  `json:"price"`
}

type Invoice struct {
	ID        uuid.UUID
	Number    string
	PatientID uuid.UUID
	Items     []LineItem
	Total     int64
	IsPaid    bool
	PaidAt    *time.Time
	CreatedAt time.Time
}
