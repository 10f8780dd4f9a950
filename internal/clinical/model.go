package clinical

import (
	"time"

	"github.com/google/uuid"
)

// Snapshot is one immutable clinical visit record. The odontogram holds the
// full chart as of that visit; history is never edited, a correction is a new
// snapshot. Seq is assigned by the store and breaks ties between snapshots
// sharing a visit timestamp.
type Snapshot struct {
	ID         uuid.UUID
	Seq        int64
	PatientID  uuid.UUID
	VisitAt    time.Time
	Diagnosis  string
	Treatment  string
	Notes      string
	Cost       int64
	Odontogram Odontogram
	CreatedAt  time.Time
}

// AmendFields are the clerical text fields that may be corrected in place on
// an existing snapshot. Nil means leave unchanged. The odontogram is not
// amendable.
type AmendFields struct {
	Diagnosis *string
	Treatment *string
	Notes     *string
	Cost      *int64
}

func (f AmendFields) Empty() bool {
	return f.Diagnosis == nil && f.Treatment == nil && f.Notes == nil && f.Cost == nil
}
