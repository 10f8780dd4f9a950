package booking

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dentalcare/clinic-api/internal/auth"
	"github.com/dentalcare/clinic-api/internal/notification"
)

func newTestService(repo *mockRepository, locker *mockLocker, notifier *mockNotifier) *Service {
	svc := NewService(repo, locker, notifier, zerolog.Nop())
	// Pin "today" so date validation is deterministic.
	svc.now = func() time.Time {
		return time.Date(2026, 3, 10, 9, 0, 0, 0, time.UTC)
	}
	return svc
}

func testDate() time.Time {
	return time.Date(2026, 3, 11, 0, 0, 0, 0, time.UTC)
}

func TestProposeCreatesPendingReservation(t *testing.T) {
	repo := &mockRepository{}
	notifier := &mockNotifier{}
	svc := newTestService(repo, &mockLocker{}, notifier)

	patientID := uuid.New()
	doctorID := uuid.New()
	actor := auth.Actor{ID: patientID, Role: auth.RolePatient}

	res, err := svc.Propose(context.Background(), actor, patientID, doctorID, testDate(), "09:00", "toothache")
	require.NoError(t, err)

	assert.Equal(t, StatusPending, res.Status)
	assert.Equal(t, patientID, res.PatientID)
	assert.Equal(t, doctorID, res.DoctorID)
	assert.Equal(t, "09:00", res.Slot)
	assert.Equal(t, "2026-03-11", res.DateString())

	sent := notifier.Sent()
	require.Len(t, sent, 1)
	assert.Equal(t, doctorID, sent[0].UserID)
	assert.Equal(t, notification.CategoryBooking, sent[0].Category)
}

func TestProposeRejectsTakenSlot(t *testing.T) {
	repo := &mockRepository{}
	svc := newTestService(repo, &mockLocker{}, &mockNotifier{})

	doctorID := uuid.New()
	first := uuid.New()
	second := uuid.New()

	_, err := svc.Propose(context.Background(), auth.Actor{ID: first, Role: auth.RolePatient}, first, doctorID, testDate(), "10:00", "")
	require.NoError(t, err)

	_, err = svc.Propose(context.Background(), auth.Actor{ID: second, Role: auth.RolePatient}, second, doctorID, testDate(), "10:00", "")
	assert.ErrorIs(t, err, ErrSlotTaken)
}

func TestProposeConcurrentSameSlotHasOneWinner(t *testing.T) {
	repo := &mockRepository{}
	svc := newTestService(repo, &mockLocker{}, &mockNotifier{})

	doctorID := uuid.New()
	const attempts = 32

	var wg sync.WaitGroup
	var mu sync.Mutex
	var wins, conflicts int

	for i := 0; i < attempts; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			patientID := uuid.New()
			actor := auth.Actor{ID: patientID, Role: auth.RolePatient}
			_, err := svc.Propose(context.Background(), actor, patientID, doctorID, testDate(), "11:00", "")

			mu.Lock()
			defer mu.Unlock()
			switch {
			case err == nil:
				wins++
			case errors.Is(err, ErrSlotTaken):
				conflicts++
			default:
				t.Errorf("unexpected error: %v", err)
			}
		}()
	}
	wg.Wait()

	assert.Equal(t, 1, wins, "exactly one proposer may win the slot")
	assert.Equal(t, attempts-1, conflicts)
}

func TestProposeDifferentDoctorsSameSlotBothSucceed(t *testing.T) {
	repo := &mockRepository{}
	svc := newTestService(repo, &mockLocker{}, &mockNotifier{})

	p1, p2 := uuid.New(), uuid.New()

	_, err := svc.Propose(context.Background(), auth.Actor{ID: p1, Role: auth.RolePatient}, p1, uuid.New(), testDate(), "09:30", "")
	require.NoError(t, err)
	_, err = svc.Propose(context.Background(), auth.Actor{ID: p2, Role: auth.RolePatient}, p2, uuid.New(), testDate(), "09:30", "")
	require.NoError(t, err)
}

func TestProposeValidation(t *testing.T) {
	repo := &mockRepository{}
	svc := newTestService(repo, &mockLocker{}, &mockNotifier{})

	patientID := uuid.New()
	actor := auth.Actor{ID: patientID, Role: auth.RolePatient}

	_, err := svc.Propose(context.Background(), actor, patientID, uuid.New(), testDate(), "09:15", "")
	assert.ErrorIs(t, err, ErrInvalidSlot, "slot outside the enumeration")

	yesterday := time.Date(2026, 3, 9, 0, 0, 0, 0, time.UTC)
	_, err = svc.Propose(context.Background(), actor, patientID, uuid.New(), yesterday, "09:00", "")
	assert.ErrorIs(t, err, ErrDateInPast)
}

func TestProposeSameDayIsAllowed(t *testing.T) {
	repo := &mockRepository{}
	svc := newTestService(repo, &mockLocker{}, &mockNotifier{})

	patientID := uuid.New()
	actor := auth.Actor{ID: patientID, Role: auth.RolePatient}

	// now() is pinned at 09:00 on 2026-03-10; booking the 08:00 slot that same
	// day is still allowed because only whole days are compared.
	today := time.Date(2026, 3, 10, 23, 30, 0, 0, time.UTC)
	_, err := svc.Propose(context.Background(), actor, patientID, uuid.New(), today, "08:00", "")
	require.NoError(t, err)
}

func TestProposeAuthz(t *testing.T) {
	repo := &mockRepository{}
	svc := newTestService(repo, &mockLocker{}, &mockNotifier{})

	other := uuid.New()

	// A patient cannot book on behalf of someone else.
	actor := auth.Actor{ID: uuid.New(), Role: auth.RolePatient}
	_, err := svc.Propose(context.Background(), actor, other, uuid.New(), testDate(), "09:00", "")
	assert.ErrorIs(t, err, auth.ErrForbidden)

	// A doctor cannot propose at all.
	doctor := auth.Actor{ID: uuid.New(), Role: auth.RoleDoctor}
	_, err = svc.Propose(context.Background(), doctor, other, uuid.New(), testDate(), "09:00", "")
	assert.ErrorIs(t, err, auth.ErrForbidden)

	// An admin can book for any patient.
	admin := auth.Actor{ID: uuid.New(), Role: auth.RoleAdmin}
	_, err = svc.Propose(context.Background(), admin, other, uuid.New(), testDate(), "09:00", "")
	require.NoError(t, err)
}

func TestProposeLockContention(t *testing.T) {
	repo := &mockRepository{}
	svc := newTestService(repo, &mockLocker{fail: true}, &mockNotifier{})

	patientID := uuid.New()
	actor := auth.Actor{ID: patientID, Role: auth.RolePatient}

	_, err := svc.Propose(context.Background(), actor, patientID, uuid.New(), testDate(), "09:00", "")
	assert.ErrorIs(t, err, ErrSlotBeingBooked)
}

func TestProposeRetriesTransientInsertOnce(t *testing.T) {
	patientID := uuid.New()
	doctorID := uuid.New()

	calls := 0
	repo := &mockRepository{
		CreateReservationFunc: func(ctx context.Context, pID, dID uuid.UUID, date time.Time, slot, note string) (*Reservation, error) {
			calls++
			if calls == 1 {
				return nil, errors.New("connection reset")
			}
			return &Reservation{ID: uuid.New(), PatientID: pID, DoctorID: dID, Date: date, Slot: slot, Status: StatusPending}, nil
		},
		FindActiveBySlotFunc: func(ctx context.Context, dID uuid.UUID, date time.Time, slot string) (*Reservation, error) {
			return nil, ErrReservationNotFound
		},
	}
	svc := newTestService(repo, &mockLocker{}, &mockNotifier{})

	res, err := svc.Propose(context.Background(), auth.Actor{ID: patientID, Role: auth.RolePatient}, patientID, doctorID, testDate(), "09:00", "")
	require.NoError(t, err)
	assert.Equal(t, 2, calls)
	assert.Equal(t, StatusPending, res.Status)
}

func TestProposeDoesNotRetryUniqueViolation(t *testing.T) {
	patientID := uuid.New()

	calls := 0
	repo := &mockRepository{
		CreateReservationFunc: func(ctx context.Context, pID, dID uuid.UUID, date time.Time, slot, note string) (*Reservation, error) {
			calls++
			return nil, ErrSlotTaken
		},
		FindActiveBySlotFunc: func(ctx context.Context, dID uuid.UUID, date time.Time, slot string) (*Reservation, error) {
			return nil, ErrReservationNotFound
		},
	}
	svc := newTestService(repo, &mockLocker{}, &mockNotifier{})

	_, err := svc.Propose(context.Background(), auth.Actor{ID: patientID, Role: auth.RolePatient}, patientID, uuid.New(), testDate(), "09:00", "")
	assert.ErrorIs(t, err, ErrSlotTaken)
	assert.Equal(t, 1, calls)
}

func TestDaySchedulePartitionsSlots(t *testing.T) {
	repo := &mockRepository{
		ListActiveSlotsFunc: func(ctx context.Context, doctorID uuid.UUID, date time.Time) ([]string, error) {
			return []string{"08:30", "13:00"}, nil
		},
	}
	svc := newTestService(repo, &mockLocker{}, &mockNotifier{})

	schedule, err := svc.DaySchedule(context.Background(), auth.Actor{ID: uuid.New(), Role: auth.RolePatient}, uuid.New(), testDate())
	require.NoError(t, err)

	assert.Equal(t, []string{"08:30", "13:00"}, schedule.Booked)
	assert.Len(t, schedule.Available, len(Slots())-2)

	// Disjoint union covering the full enumeration.
	seen := make(map[string]bool)
	for _, s := range schedule.Available {
		seen[s] = true
	}
	for _, s := range schedule.Booked {
		assert.False(t, seen[s], "slot %s in both sets", s)
		seen[s] = true
	}
	assert.Len(t, seen, len(Slots()))
}

func TestCancelledReservationFreesSlot(t *testing.T) {
	repo := &mockRepository{}
	svc := newTestService(repo, &mockLocker{}, &mockNotifier{})

	doctorID := uuid.New()
	p1, p2 := uuid.New(), uuid.New()

	first, err := svc.Propose(context.Background(), auth.Actor{ID: p1, Role: auth.RolePatient}, p1, doctorID, testDate(), "14:00", "")
	require.NoError(t, err)

	// Cancel in place; the mock's conflict scan only counts active statuses.
	first.Status = StatusCancelled

	second, err := svc.Propose(context.Background(), auth.Actor{ID: p2, Role: auth.RolePatient}, p2, doctorID, testDate(), "14:00", "")
	require.NoError(t, err)
	assert.Equal(t, p2, second.PatientID)
}

func TestTransitionLegalSteps(t *testing.T) {
	cases := []struct {
		name   string
		from   Status
		to     Status
		actor  auth.Actor
		wantOK bool
	}{
		{"doctor confirms pending", StatusPending, StatusConfirmed, auth.Actor{ID: uuid.New(), Role: auth.RoleDoctor}, true},
		{"doctor completes confirmed", StatusConfirmed, StatusCompleted, auth.Actor{ID: uuid.New(), Role: auth.RoleDoctor}, true},
		{"admin cancels confirmed", StatusConfirmed, StatusCancelled, auth.Actor{ID: uuid.New(), Role: auth.RoleAdmin}, true},
		{"doctor completes pending", StatusPending, StatusCompleted, auth.Actor{ID: uuid.New(), Role: auth.RoleDoctor}, false},
		{"admin revives cancelled", StatusCancelled, StatusConfirmed, auth.Actor{ID: uuid.New(), Role: auth.RoleAdmin}, false},
		{"admin reopens completed", StatusCompleted, StatusCancelled, auth.Actor{ID: uuid.New(), Role: auth.RoleAdmin}, false},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			id := uuid.New()
			res := &Reservation{ID: id, PatientID: uuid.New(), DoctorID: uuid.New(), Date: testDate(), Slot: "09:00", Status: tc.from}

			repo := &mockRepository{
				GetReservationByIDFunc: func(ctx context.Context, gotID uuid.UUID) (*Reservation, error) {
					require.Equal(t, id, gotID)
					return res, nil
				},
				UpdateStatusFunc: func(ctx context.Context, gotID uuid.UUID, from, to Status) (*Reservation, error) {
					assert.Equal(t, tc.from, from)
					updated := *res
					updated.Status = to
					return &updated, nil
				},
			}
			svc := newTestService(repo, &mockLocker{}, &mockNotifier{})

			updated, err := svc.Transition(context.Background(), tc.actor, id, tc.to)
			if tc.wantOK {
				require.NoError(t, err)
				assert.Equal(t, tc.to, updated.Status)
			} else {
				assert.ErrorIs(t, err, ErrInvalidTransition)
			}
		})
	}
}

func TestTransitionAuthz(t *testing.T) {
	patientID := uuid.New()
	res := &Reservation{ID: uuid.New(), PatientID: patientID, DoctorID: uuid.New(), Status: StatusPending}

	repo := &mockRepository{
		GetReservationByIDFunc: func(ctx context.Context, id uuid.UUID) (*Reservation, error) {
			return res, nil
		},
		UpdateStatusFunc: func(ctx context.Context, id uuid.UUID, from, to Status) (*Reservation, error) {
			updated := *res
			updated.Status = to
			return &updated, nil
		},
	}
	svc := newTestService(repo, &mockLocker{}, &mockNotifier{})

	// Patients cannot confirm.
	_, err := svc.Transition(context.Background(), auth.Actor{ID: patientID, Role: auth.RolePatient}, res.ID, StatusConfirmed)
	assert.ErrorIs(t, err, auth.ErrForbidden)

	// Patients cannot cancel someone else's reservation.
	_, err = svc.Transition(context.Background(), auth.Actor{ID: uuid.New(), Role: auth.RolePatient}, res.ID, StatusCancelled)
	assert.ErrorIs(t, err, auth.ErrForbidden)

	// The reservation's own patient may cancel it.
	_, err = svc.Transition(context.Background(), auth.Actor{ID: patientID, Role: auth.RolePatient}, res.ID, StatusCancelled)
	require.NoError(t, err)
}

func TestTransitionNotifiesPatientOnlyWhenActedOnByOthers(t *testing.T) {
	patientID := uuid.New()
	res := &Reservation{ID: uuid.New(), PatientID: patientID, DoctorID: uuid.New(), Date: testDate(), Slot: "09:00", Status: StatusPending}

	repo := &mockRepository{
		GetReservationByIDFunc: func(ctx context.Context, id uuid.UUID) (*Reservation, error) {
			return res, nil
		},
		UpdateStatusFunc: func(ctx context.Context, id uuid.UUID, from, to Status) (*Reservation, error) {
			updated := *res
			updated.Status = to
			return &updated, nil
		},
	}

	// Self-cancel: nobody is notified.
	notifier := &mockNotifier{}
	svc := newTestService(repo, &mockLocker{}, notifier)
	_, err := svc.Transition(context.Background(), auth.Actor{ID: patientID, Role: auth.RolePatient}, res.ID, StatusCancelled)
	require.NoError(t, err)
	assert.Empty(t, notifier.Sent())

	// Doctor confirm: the patient is notified.
	notifier = &mockNotifier{}
	svc = newTestService(repo, &mockLocker{}, notifier)
	_, err = svc.Transition(context.Background(), auth.Actor{ID: uuid.New(), Role: auth.RoleDoctor}, res.ID, StatusConfirmed)
	require.NoError(t, err)
	sent := notifier.Sent()
	require.Len(t, sent, 1)
	assert.Equal(t, patientID, sent[0].UserID)
}

func TestTransitionLosesCASRace(t *testing.T) {
	res := &Reservation{ID: uuid.New(), PatientID: uuid.New(), DoctorID: uuid.New(), Status: StatusPending}

	repo := &mockRepository{
		GetReservationByIDFunc: func(ctx context.Context, id uuid.UUID) (*Reservation, error) {
			return res, nil
		},
		UpdateStatusFunc: func(ctx context.Context, id uuid.UUID, from, to Status) (*Reservation, error) {
			// Another transition applied first; the guarded update matched no row.
			return nil, ErrReservationNotFound
		},
	}
	svc := newTestService(repo, &mockLocker{}, &mockNotifier{})

	_, err := svc.Transition(context.Background(), auth.Actor{ID: uuid.New(), Role: auth.RoleAdmin}, res.ID, StatusConfirmed)
	assert.ErrorIs(t, err, ErrInvalidTransition)
}

func TestListScopesByRole(t *testing.T) {
	var got ListFilter
	repo := &mockRepository{
		ListReservationsFunc: func(ctx context.Context, f ListFilter) ([]Reservation, error) {
			got = f
			return nil, nil
		},
	}
	svc := newTestService(repo, &mockLocker{}, &mockNotifier{})

	patient := auth.Actor{ID: uuid.New(), Role: auth.RolePatient}
	_, err := svc.List(context.Background(), patient, ListFilter{})
	require.NoError(t, err)
	assert.Equal(t, patient.ID, got.PatientID)

	doctor := auth.Actor{ID: uuid.New(), Role: auth.RoleDoctor}
	_, err = svc.List(context.Background(), doctor, ListFilter{})
	require.NoError(t, err)
	assert.Equal(t, doctor.ID, got.DoctorID)

	admin := auth.Actor{ID: uuid.New(), Role: auth.RoleAdmin}
	_, err = svc.List(context.Background(), admin, ListFilter{})
	require.NoError(t, err)
	assert.Equal(t, uuid.Nil, got.PatientID)
	assert.Equal(t, uuid.Nil, got.DoctorID)
}

func TestGetRequiresPartyOrAdmin(t *testing.T) {
	res := &Reservation{ID: uuid.New(), PatientID: uuid.New(), DoctorID: uuid.New(), Status: StatusPending}
	repo := &mockRepository{
		GetReservationByIDFunc: func(ctx context.Context, id uuid.UUID) (*Reservation, error) {
			return res, nil
		},
	}
	svc := newTestService(repo, &mockLocker{}, &mockNotifier{})

	for _, actor := range []auth.Actor{
		{ID: res.PatientID, Role: auth.RolePatient},
		{ID: res.DoctorID, Role: auth.RoleDoctor},
		{ID: uuid.New(), Role: auth.RoleAdmin},
	} {
		_, err := svc.Get(context.Background(), actor, res.ID)
		require.NoError(t, err)
	}

	_, err := svc.Get(context.Background(), auth.Actor{ID: uuid.New(), Role: auth.RolePatient}, res.ID)
	assert.ErrorIs(t, err, auth.ErrForbidden)
}

func TestSendRemindersMarksAndNotifies(t *testing.T) {
	due := []Reservation{
		{ID: uuid.New(), PatientID: uuid.New(), Date: testDate(), Slot: "09:00", Status: StatusConfirmed},
		{ID: uuid.New(), PatientID: uuid.New(), Date: testDate(), Slot: "10:30", Status: StatusConfirmed},
	}

	var marked []uuid.UUID
	repo := &mockRepository{
		FindConfirmedUnremindedFunc: func(ctx context.Context, date time.Time) ([]Reservation, error) {
			return due, nil
		},
		MarkRemindedFunc: func(ctx context.Context, id uuid.UUID, at time.Time) error {
			marked = append(marked, id)
			return nil
		},
	}
	notifier := &mockNotifier{}
	svc := newTestService(repo, &mockLocker{}, notifier)

	require.NoError(t, svc.SendReminders(context.Background(), testDate()))
	assert.Len(t, notifier.Sent(), 2)
	assert.Equal(t, []uuid.UUID{due[0].ID, due[1].ID}, marked)
}
