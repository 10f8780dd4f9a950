package billing

import (
	"context"
	"errors"

	"github.com/google/uuid"
)

var (
	ErrInvoiceNotFound = errors.New("invoice not found")
	ErrPatientNotFound = errors.New("patient not found")
)

// ListFilter narrows List. Nil / zero values mean no constraint.
type ListFilter struct {
	PatientID uuid.UUID
	IsPaid    *bool
}

// Repository contains all DB interactions needed by the service.
type Repository interface {
	PatientExists(ctx context.Context, id uuid.UUID) error

	CreateInvoice(ctx context.Context, inv *Invoice) (*Invoice, error)
	GetInvoiceByID(ctx context.Context, id uuid.UUID) (*Invoice, error)
	ListInvoices(ctx context.Context, f ListFilter, limit int) ([]Invoice, error)
	MarkPaid(ctx context.Context, id uuid.UUID) (*Invoice, error)
	DeleteInvoice(ctx context.Context, id uuid.UUID) error
}
