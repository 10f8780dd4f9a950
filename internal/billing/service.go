package billing

import (
	"context"
	"errors"
	"fmt"
	"math/rand"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/dentalcare/clinic-api/internal/auth"
	"github.com/dentalcare/clinic-api/internal/notification"
)

var (
	ErrNoItems     = errors.New("invoice requires at least one line item")
	ErrInvoicePaid = errors.New("paid invoices cannot be deleted")
)

// listCap bounds List results to the most recent invoices.
const listCap = 50

type Service struct {
	repo     Repository
	notifier notification.Notifier
	log      zerolog.Logger
	now      func() time.Time
}

func NewService(repo Repository, notifier notification.Notifier, log zerolog.Logger) *Service {
	return &Service{
		repo:     repo,
		notifier: notifier,
		log:      log,
		now:      time.Now,
	}
}

// Create issues an invoice for a patient and notifies them. The total is
// always recomputed from the line items.
func (s *Service) Create(ctx context.Context, actor auth.Actor, patientID uuid.UUID, items []LineItem) (*Invoice, error) {
	if err := auth.Authorize(actor, auth.OpCreateInvoice, uuid.Nil); err != nil {
		return nil, err
	}
	if len(items) == 0 {
		return nil, ErrNoItems
	}

	if err := s.repo.PatientExists(ctx, patientID); err != nil {
		return nil, err
	}

	var total int64
	for _, item := range items {
		total += item.Price
	}

	inv := &Invoice{
		Number:    newInvoiceNumber(s.now()),
		PatientID: patientID,
		Items:     items,
		Total:     total,
	}

	created, err := s.repo.CreateInvoice(ctx, inv)
	if err != nil {
		return nil, fmt.Errorf("create invoice: %w", err)
	}

	s.notifier.Notify(ctx, patientID, notification.CategoryPayment,
		"New invoice",
		fmt.Sprintf("Invoice %s for %d has been issued", created.Number, created.Total))

	return created, nil
}

func (s *Service) Get(ctx context.Context, actor auth.Actor, id uuid.UUID) (*Invoice, error) {
	inv, err := s.repo.GetInvoiceByID(ctx, id)
	if err != nil {
		return nil, err
	}

	if err := auth.Authorize(actor, auth.OpReadInvoice, inv.PatientID); err != nil {
		return nil, err
	}
	return inv, nil
}

func (s *Service) List(ctx context.Context, actor auth.Actor, f ListFilter) ([]Invoice, error) {
	if err := auth.Authorize(actor, auth.OpListInvoices, uuid.Nil); err != nil {
		return nil, err
	}

	list, err := s.repo.ListInvoices(ctx, f, listCap)
	if err != nil {
		return nil, fmt.Errorf("list invoices: %w", err)
	}
	return list, nil
}

// MarkPaid settles an invoice and thanks the patient.
func (s *Service) MarkPaid(ctx context.Context, actor auth.Actor, id uuid.UUID) (*Invoice, error) {
	if err := auth.Authorize(actor, auth.OpSettleInvoice, uuid.Nil); err != nil {
		return nil, err
	}

	inv, err := s.repo.MarkPaid(ctx, id)
	if err != nil {
		return nil, err
	}

	s.notifier.Notify(ctx, inv.PatientID, notification.CategoryPayment,
		"Payment received",
		fmt.Sprintf("Payment for invoice %s has been received, thank you", inv.Number))

	return inv, nil
}

// Delete removes an invoice. Paid invoices are immutable bookkeeping and stay.
func (s *Service) Delete(ctx context.Context, actor auth.Actor, id uuid.UUID) error {
	if err := auth.Authorize(actor, auth.OpDeleteInvoice, uuid.Nil); err != nil {
		return err
	}

	inv, err := s.repo.GetInvoiceByID(ctx, id)
	if err != nil {
		return err
	}
	if inv.IsPaid {
		return ErrInvoicePaid
	}

	return s.repo.DeleteInvoice(ctx, id)
}

// newInvoiceNumber builds INV-YYYYMMDD-nnn with a three digit random suffix.
func newInvoiceNumber(now time.Time) string {
	return fmt.Sprintf("INV-%s-%03d", now.Format("20060102"), rand.Intn(900)+100)
}
