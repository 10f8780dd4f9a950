package clinical

import (
	"context"
	"errors"

	"github.com/google/uuid"
)

var (
	ErrPatientNotFound  = errors.New("patient not found")
	ErrSnapshotNotFound = errors.New("snapshot not found")
)

// Repository contains all DB interactions needed by the store.
type Repository interface {
	PatientExists(ctx context.Context, patientID uuid.UUID) error

	// CreateSnapshot persists the snapshot and the patient's denormalized
	// last-visit field in one transaction, and fills in ID, Seq and CreatedAt.
	CreateSnapshot(ctx context.Context, snap *Snapshot) (*Snapshot, error)

	LatestSnapshot(ctx context.Context, patientID uuid.UUID) (*Snapshot, error)

	// ListSnapshots pages through a patient's history ordered by visit
	// timestamp descending, insertion order ascending among ties.
	ListSnapshots(ctx context.Context, patientID uuid.UUID, limit, offset int) ([]Snapshot, error)

	GetSnapshotByID(ctx context.Context, id uuid.UUID) (*Snapshot, error)
	AmendSnapshot(ctx context.Context, id uuid.UUID, fields AmendFields) (*Snapshot, error)
}
