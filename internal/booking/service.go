package booking

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/dentalcare/clinic-api/internal/auth"
	"github.com/dentalcare/clinic-api/internal/notification"
	redisclient "github.com/dentalcare/clinic-api/internal/redis"
)

var (
	ErrSlotBeingBooked   = errors.New("slot is currently being booked, please retry")
	ErrInvalidSlot       = errors.New("slot is not in the daily enumeration")
	ErrDateInPast        = errors.New("date must not be in the past")
	ErrInvalidTransition = errors.New("invalid status transition")
)

type Service struct {
	repo     Repository
	locker   redisclient.Locker
	notifier notification.Notifier
	log      zerolog.Logger
	now      func() time.Time
}

func NewService(repo Repository, locker redisclient.Locker, notifier notification.Notifier, log zerolog.Logger) *Service {
	return &Service{
		repo:     repo,
		locker:   locker,
		notifier: notifier,
		log:      log,
		now:      time.Now,
	}
}

// Propose tries to reserve a doctor's slot for a patient. The check-then-insert
// runs under a distributed lock keyed on (doctor, date, slot), and the partial
// unique index over active reservations backs it up: a writer that loses the
// race observes ErrSlotTaken, never a transient failure.
func (s *Service) Propose(ctx context.Context, actor auth.Actor, patientID, doctorID uuid.UUID, date time.Time, slot, note string) (*Reservation, error) {
	if err := auth.Authorize(actor, auth.OpProposeReservation, patientID); err != nil {
		return nil, err
	}

	if !ValidSlot(slot) {
		return nil, ErrInvalidSlot
	}

	date = normalizeDate(date)
	if date.Before(normalizeDate(s.now())) {
		return nil, ErrDateInPast
	}

	if err := s.repo.PatientExists(ctx, patientID); err != nil {
		return nil, err
	}
	if err := s.repo.DoctorExists(ctx, doctorID); err != nil {
		return nil, err
	}

	var created *Reservation

	err := s.locker.WithLock(ctx, redisclient.SlotKey(doctorID, date.Format("2006-01-02"), slot), func(lockCtx context.Context) error {
		// Inside the critical section re-check for an active holder of the slot
		existing, err := s.repo.FindActiveBySlot(lockCtx, doctorID, date, slot)
		if err != nil && !errors.Is(err, ErrReservationNotFound) {
			return fmt.Errorf("check active reservation: %w", err)
		}
		if existing != nil {
			return ErrSlotTaken
		}

		res, err := s.createWithRetry(lockCtx, patientID, doctorID, date, slot, note)
		if err != nil {
			return err
		}

		created = res
		return nil
	})

	if err != nil {
		if errors.Is(err, redisclient.ErrLockNotAcquired) {
			return nil, ErrSlotBeingBooked
		}
		return nil, err
	}

	s.notifier.Notify(ctx, doctorID, notification.CategoryBooking,
		"New booking request",
		fmt.Sprintf("A patient requested %s at %s", created.DateString(), created.Slot))

	return created, nil
}

// createWithRetry retries the insert once on a transient persistence failure.
// A unique-index rejection is a domain outcome, not a transient one.
func (s *Service) createWithRetry(ctx context.Context, patientID, doctorID uuid.UUID, date time.Time, slot, note string) (*Reservation, error) {
	res, err := s.repo.CreateReservation(ctx, patientID, doctorID, date, slot, note)
	if err == nil || errors.Is(err, ErrSlotTaken) || ctx.Err() != nil {
		return res, err
	}

	s.log.Warn().Err(err).Str("slot", slot).Msg("reservation insert failed, retrying once")

	res, err = s.repo.CreateReservation(ctx, patientID, doctorID, date, slot, note)
	if err != nil {
		return nil, fmt.Errorf("create reservation: %w", err)
	}
	return res, nil
}

// DaySchedule computes the open and booked slot subsets for a doctor-day.
// The two sets are disjoint and their union is the full enumeration.
func (s *Service) DaySchedule(ctx context.Context, actor auth.Actor, doctorID uuid.UUID, date time.Time) (*DaySchedule, error) {
	if err := auth.Authorize(actor, auth.OpViewSlots, uuid.Nil); err != nil {
		return nil, err
	}

	if err := s.repo.DoctorExists(ctx, doctorID); err != nil {
		return nil, err
	}

	booked, err := s.repo.ListActiveSlots(ctx, doctorID, normalizeDate(date))
	if err != nil {
		return nil, fmt.Errorf("list active slots: %w", err)
	}

	taken := make(map[string]bool, len(booked))
	for _, slot := range booked {
		taken[slot] = true
	}

	schedule := &DaySchedule{
		Available: make([]string, 0, len(daySlots)),
		Booked:    make([]string, 0, len(booked)),
	}
	for _, slot := range daySlots {
		if taken[slot] {
			schedule.Booked = append(schedule.Booked, slot)
		} else {
			schedule.Available = append(schedule.Available, slot)
		}
	}

	return schedule, nil
}

// Transition moves a reservation along the state machine, checking both the
// legality of the step and the actor's authority over it. The repository
// update is a compare-and-swap on the current status, so concurrent
// transitions cannot both apply.
func (s *Service) Transition(ctx context.Context, actor auth.Actor, id uuid.UUID, target Status) (*Reservation, error) {
	res, err := s.repo.GetReservationByID(ctx, id)
	if err != nil {
		return nil, err
	}

	op, err := transitionOp(target)
	if err != nil {
		return nil, err
	}
	if err := auth.Authorize(actor, op, res.PatientID); err != nil {
		return nil, err
	}

	if !CanTransition(res.Status, target) {
		return nil, ErrInvalidTransition
	}

	updated, err := s.repo.UpdateStatus(ctx, res.ID, res.Status, target)
	if err != nil {
		if errors.Is(err, ErrReservationNotFound) {
			// lost a concurrent transition race; the step is no longer legal
			return nil, ErrInvalidTransition
		}
		return nil, fmt.Errorf("update reservation status: %w", err)
	}

	// Notify the affected non-acting party. A patient cancelling their own
	// reservation notifies nobody.
	if actor.ID != updated.PatientID {
		s.notifier.Notify(ctx, updated.PatientID, notification.CategoryBooking,
			"Reservation update",
			fmt.Sprintf("Your reservation on %s at %s is now %s", updated.DateString(), updated.Slot, updated.Status))
	}

	return updated, nil
}

func transitionOp(target Status) (auth.Operation, error) {
	switch target {
	case StatusConfirmed:
		return auth.OpConfirmReservation, nil
	case StatusCompleted:
		return auth.OpCompleteReservation, nil
	case StatusCancelled:
		return auth.OpCancelReservation, nil
	default:
		return "", ErrInvalidTransition
	}
}

// List returns reservations scoped to the caller: patients see their own,
// doctors their own schedule, admins everything.
func (s *Service) List(ctx context.Context, actor auth.Actor, f ListFilter) ([]Reservation, error) {
	switch actor.Role {
	case auth.RolePatient:
		f.PatientID = actor.ID
	case auth.RoleDoctor:
		f.DoctorID = actor.ID
	case auth.RoleAdmin:
		// no scoping
	default:
		return nil, auth.ErrForbidden
	}

	if !f.Date.IsZero() {
		f.Date = normalizeDate(f.Date)
	}

	list, err := s.repo.ListReservations(ctx, f)
	if err != nil {
		return nil, fmt.Errorf("list reservations: %w", err)
	}
	return list, nil
}

// Get returns one reservation if the caller is a party to it or an admin.
func (s *Service) Get(ctx context.Context, actor auth.Actor, id uuid.UUID) (*Reservation, error) {
	res, err := s.repo.GetReservationByID(ctx, id)
	if err != nil {
		return nil, err
	}

	if actor.Role == auth.RoleAdmin || actor.ID == res.PatientID || actor.ID == res.DoctorID {
		return res, nil
	}
	return nil, auth.ErrForbidden
}

// SendReminders notifies patients of their confirmed reservations on the given
// day. Intended to be called periodically by the reminder worker.
func (s *Service) SendReminders(ctx context.Context, date time.Time) error {
	date = normalizeDate(date)

	due, err := s.repo.FindConfirmedUnreminded(ctx, date)
	if err != nil {
		return fmt.Errorf("find reservations due a reminder: %w", err)
	}

	for _, res := range due {
		s.notifier.Notify(ctx, res.PatientID, notification.CategoryBooking,
			"Appointment reminder",
			fmt.Sprintf("You have an appointment on %s at %s", res.DateString(), res.Slot))

		if err := s.repo.MarkReminded(ctx, res.ID, s.now()); err != nil {
			s.log.Error().Err(err).Str("reservation_id", res.ID.String()).Msg("failed to mark reservation reminded")
		}
	}

	return nil
}

func normalizeDate(t time.Time) time.Time {
	y, m, d := t.UTC().Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}
