package booking

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
)

var (
	ErrPatientNotFound     = errors.New("patient not found")
	ErrDoctorNotFound      = errors.New("doctor not found")
	ErrReservationNotFound = errors.New("reservation not found")

	// ErrSlotTaken is returned both by the in-lock conflict check and by the
	// repository when the partial unique index rejects a losing writer.
	ErrSlotTaken = errors.New("slot already has an active reservation")
)

// ListFilter narrows ListReservations. Zero values mean no constraint.
type ListFilter struct {
	PatientID uuid.UUID
	DoctorID  uuid.UUID
	Status    Status
	Date      time.Time
}

// Repository contains all DB interactions needed by the service.
type Repository interface {
	PatientExists(ctx context.Context, id uuid.UUID) error
	DoctorExists(ctx context.Context, id uuid.UUID) error

	GetReservationByID(ctx context.Context, id uuid.UUID) (*Reservation, error)

	// For conflict checks
	FindActiveBySlot(ctx context.Context, doctorID uuid.UUID, date time.Time, slot string) (*Reservation, error)
	ListActiveSlots(ctx context.Context, doctorID uuid.UUID, date time.Time) ([]string, error)

	// Creation and updates
	CreateReservation(ctx context.Context, patientID, doctorID uuid.UUID, date time.Time, slot, note string) (*Reservation, error)
	UpdateStatus(ctx context.Context, id uuid.UUID, from, to Status) (*Reservation, error)

	ListReservations(ctx context.Context, f ListFilter) ([]Reservation, error)

	// Reminder worker
	FindConfirmedUnreminded(ctx context.Context, date time.Time) ([]Reservation, error)
	MarkReminded(ctx context.Context, id uuid.UUID, at time.Time) error
}
