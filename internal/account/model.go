package account

import (
	"encoding/json"
	"time"

	"github.com/google/uuid"

	"github.com/dentalcare/clinic-api/internal/auth"
	"github.com/dentalcare/clinic-api/internal/clinical"
)

type User struct {
	ID           uuid.UUID
	Email        string
	PasswordHash string
	Name         string
	Phone        string
	Role         auth.Role
	Avatar       string
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

type PatientProfile struct {
	UserID    uuid.UUID
	BirthDate *time.Time
	Address   string
	Allergies string
	LastVisit *time.Time
	NextVisit *time.Time
}

type DoctorProfile struct {
	UserID    uuid.UUID
	Specialty string
	// Schedule is the doctor's weekly working hours, e.g.
	// {"monday": {"start": "08:00", "end": "14:00"}}.
	Schedule json.RawMessage
}

// Account is a user hydrated with whichever profile its role carries. For
// patients, Records holds the most recent clinical snapshots, newest first.
type Account struct {
	User
	Patient *PatientProfile
	Doctor  *DoctorProfile
	Records []clinical.Snapshot
}
