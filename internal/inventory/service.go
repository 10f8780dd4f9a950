package inventory

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/dentalcare/clinic-api/internal/auth"
	"github.com/dentalcare/clinic-api/internal/notification"
)

var ErrMissingFields = errors.New("name, unit and expiry date are required")

type Service struct {
	repo     Repository
	notifier notification.Notifier
	log      zerolog.Logger
}

func NewService(repo Repository, notifier notification.Notifier, log zerolog.Logger) *Service {
	return &Service{repo: repo, notifier: notifier, log: log}
}

func (s *Service) Create(ctx context.Context, actor auth.Actor, m Medicine) (*Medicine, error) {
	if err := auth.Authorize(actor, auth.OpManageMedicines, uuid.Nil); err != nil {
		return nil, err
	}
	if m.Name == "" || m.Unit == "" || m.ExpiryDate.IsZero() {
		return nil, ErrMissingFields
	}

	created, err := s.repo.CreateMedicine(ctx, &m)
	if err != nil {
		return nil, fmt.Errorf("create medicine: %w", err)
	}
	return created, nil
}

// List returns medicines, optionally filtered by category or down to the ones
// at or below their reorder threshold.
func (s *Service) List(ctx context.Context, actor auth.Actor, category string, lowStockOnly bool) ([]Medicine, error) {
	if err := auth.Authorize(actor, auth.OpListMedicines, uuid.Nil); err != nil {
		return nil, err
	}

	medicines, err := s.repo.ListMedicines(ctx, category)
	if err != nil {
		return nil, fmt.Errorf("list medicines: %w", err)
	}

	if !lowStockOnly {
		return medicines, nil
	}

	filtered := medicines[:0]
	for _, m := range medicines {
		if m.LowStock() {
			filtered = append(filtered, m)
		}
	}
	return filtered, nil
}

// AdjustStock applies an audited stock change. When the result sits at or
// below the reorder threshold every admin gets a stock alert.
func (s *Service) AdjustStock(ctx context.Context, actor auth.Actor, medicineID uuid.UUID, change int, reason string) (*Medicine, error) {
	if err := auth.Authorize(actor, auth.OpManageMedicines, uuid.Nil); err != nil {
		return nil, err
	}

	updated, err := s.repo.AdjustStock(ctx, StockMovement{
		MedicineID:  medicineID,
		Change:      change,
		Reason:      reason,
		PerformedBy: actor.ID,
	})
	if err != nil {
		return nil, err
	}

	if updated.LowStock() {
		s.alertAdmins(ctx, updated)
	}

	return updated, nil
}

func (s *Service) alertAdmins(ctx context.Context, m *Medicine) {
	admins, err := s.repo.ListAdminIDs(ctx)
	if err != nil {
		s.log.Error().Err(err).Msg("failed to list admins for stock alert")
		return
	}

	for _, adminID := range admins {
		s.notifier.Notify(ctx, adminID, notification.CategoryStock,
			"Stock critical",
			fmt.Sprintf("%s is down to %d %s", m.Name, m.Stock, m.Unit))
	}
}
