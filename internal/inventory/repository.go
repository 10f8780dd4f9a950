package inventory

import (
	"context"
	"errors"

	"github.com/google/uuid"
)

var (
	ErrMedicineNotFound = errors.New("medicine not found")
	ErrStockDepleted    = errors.New("stock cannot go negative")
)

// Repository contains all DB interactions needed by the service.
type Repository interface {
	CreateMedicine(ctx context.Context, m *Medicine) (*Medicine, error)
	GetMedicineByID(ctx context.Context, id uuid.UUID) (*Medicine, error)
	ListMedicines(ctx context.Context, category string) ([]Medicine, error)

	// AdjustStock applies the change and records the movement in one
	// transaction, failing with ErrStockDepleted if the result would be
	// negative.
	AdjustStock(ctx context.Context, mv StockMovement) (*Medicine, error)

	ListAdminIDs(ctx context.Context) ([]uuid.UUID, error)
}
