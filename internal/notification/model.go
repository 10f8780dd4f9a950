package notification

import (
	"time"

	"github.com/google/uuid"
)

type Category string

const (
	CategoryBooking Category = "booking"
	CategoryPayment Category = "payment"
	CategoryStock   Category = "stock"
)

type Notification struct {
	ID        uuid.UUID
	UserID    uuid.UUID
	Category  Category
	Title     string
	Message   string
	IsRead    bool
	CreatedAt time.Time
}
