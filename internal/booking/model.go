package booking

import (
	"time"

	"github.com/google/uuid"
)

type Status string

const (
	StatusPending   Status = "pending"
	StatusConfirmed Status = "confirmed"
	StatusCompleted Status = "completed"
	StatusCancelled Status = "cancelled"
)

// legalTransitions is the reservation state machine. Completed and cancelled
// are terminal. A reservation is never deleted; cancellation is a transition.
var legalTransitions = map[Status][]Status{
	StatusPending:   {StatusConfirmed, StatusCancelled},
	StatusConfirmed: {StatusCompleted, StatusCancelled},
}

// CanTransition reports whether moving from one status to another is legal.
func CanTransition(from, to Status) bool {
	for _, next := range legalTransitions[from] {
		if next == to {
			return true
		}
	}
	return false
}

// Active reports whether the status still occupies its slot.
func (s Status) Active() bool {
	return s == StatusPending || s == StatusConfirmed
}

type Reservation struct {
	ID         uuid.UUID
	PatientID  uuid.UUID
	DoctorID   uuid.UUID
	Date       time.Time // calendar day, midnight UTC
	Slot       string
	Status     Status
	Note       string
	RemindedAt *time.Time
	CreatedAt  time.Time
	UpdatedAt  time.Time
}

// DateString renders the calendar day the way slots keys and the API use it.
func (r *Reservation) DateString() string {
	return r.Date.Format("2006-01-02")
}

// DaySchedule splits the slot enumeration for one doctor-day into the subset
// still open and the subset held by active reservations.
type DaySchedule struct {
	Available []string
	Booked    []string
}
