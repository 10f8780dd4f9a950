package inventory

import (
	"time"

	"github.com/google/uuid"
)

type Medicine struct {
	ID         uuid.UUID
	Name       string
	Category   string
	Stock      int
	MinStock   int
	Unit       string
	ExpiryDate time.Time
	Price      int64
	CreatedAt  time.Time
	UpdatedAt  time.Time
}

// LowStock reports whether the medicine has fallen to its reorder threshold.
func (m *Medicine) LowStock() bool {
	return m.Stock <= m.MinStock
}

// StockMovement is one audited adjustment of a medicine's stock level.
type StockMovement struct {
	ID          uuid.UUID
	MedicineID  uuid.UUID
	Change      int
	Reason      string
	PerformedBy uuid.UUID
	CreatedAt   time.Time
}
