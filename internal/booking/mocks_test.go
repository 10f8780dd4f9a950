package booking

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/dentalcare/clinic-api/internal/notification"
	redisclient "github.com/dentalcare/clinic-api/internal/redis"
)

var _ Repository = (*mockRepository)(nil)

// mockRepository implements Repository with overridable functions. The default
// behavior backs Propose happy paths: patients and doctors exist, no active
// reservation holds any slot, and inserts succeed while recording the winner
// so a second insert on the same tuple fails like the unique index would.
type mockRepository struct {
	mu      sync.Mutex
	created []*Reservation

	PatientExistsFunc           func(ctx context.Context, id uuid.UUID) error
	DoctorExistsFunc            func(ctx context.Context, id uuid.UUID) error
	GetReservationByIDFunc      func(ctx context.Context, id uuid.UUID) (*Reservation, error)
	FindActiveBySlotFunc        func(ctx context.Context, doctorID uuid.UUID, date time.Time, slot string) (*Reservation, error)
	ListActiveSlotsFunc         func(ctx context.Context, doctorID uuid.UUID, date time.Time) ([]string, error)
	CreateReservationFunc       func(ctx context.Context, patientID, doctorID uuid.UUID, date time.Time, slot, note string) (*Reservation, error)
	UpdateStatusFunc            func(ctx context.Context, id uuid.UUID, from, to Status) (*Reservation, error)
	ListReservationsFunc        func(ctx context.Context, f ListFilter) ([]Reservation, error)
	FindConfirmedUnremindedFunc func(ctx context.Context, date time.Time) ([]Reservation, error)
	MarkRemindedFunc            func(ctx context.Context, id uuid.UUID, at time.Time) error
}

func (m *mockRepository) PatientExists(ctx context.Context, id uuid.UUID) error {
	if m.PatientExistsFunc != nil {
		return m.PatientExistsFunc(ctx, id)
	}
	return nil
}

func (m *mockRepository) DoctorExists(ctx context.Context, id uuid.UUID) error {
	if m.DoctorExistsFunc != nil {
		return m.DoctorExistsFunc(ctx, id)
	}
	return nil
}

func (m *mockRepository) GetReservationByID(ctx context.Context, id uuid.UUID) (*Reservation, error) {
	if m.GetReservationByIDFunc != nil {
		return m.GetReservationByIDFunc(ctx, id)
	}
	return nil, ErrReservationNotFound
}

func (m *mockRepository) FindActiveBySlot(ctx context.Context, doctorID uuid.UUID, date time.Time, slot string) (*Reservation, error) {
	if m.FindActiveBySlotFunc != nil {
		return m.FindActiveBySlotFunc(ctx, doctorID, date, slot)
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	for _, r := range m.created {
		if r.DoctorID == doctorID && r.Date.Equal(date) && r.Slot == slot && r.Status.Active() {
			return r, nil
		}
	}
	return nil, ErrReservationNotFound
}

func (m *mockRepository) ListActiveSlots(ctx context.Context, doctorID uuid.UUID, date time.Time) ([]string, error) {
	if m.ListActiveSlotsFunc != nil {
		return m.ListActiveSlotsFunc(ctx, doctorID, date)
	}
	return nil, nil
}

func (m *mockRepository) CreateReservation(ctx context.Context, patientID, doctorID uuid.UUID, date time.Time, slot, note string) (*Reservation, error) {
	if m.CreateReservationFunc != nil {
		return m.CreateReservationFunc(ctx, patientID, doctorID, date, slot, note)
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	for _, r := range m.created {
		if r.DoctorID == doctorID && r.Date.Equal(date) && r.Slot == slot && r.Status.Active() {
			return nil, ErrSlotTaken
		}
	}

	res := &Reservation{
		ID:        uuid.New(),
		PatientID: patientID,
		DoctorID:  doctorID,
		Date:      date,
		Slot:      slot,
		Status:    StatusPending,
		Note:      note,
		CreatedAt: time.Now(),
		UpdatedAt: time.Now(),
	}
	m.created = append(m.created, res)
	return res, nil
}

func (m *mockRepository) UpdateStatus(ctx context.Context, id uuid.UUID, from, to Status) (*Reservation, error) {
	if m.UpdateStatusFunc != nil {
		return m.UpdateStatusFunc(ctx, id, from, to)
	}
	return nil, errors.New("UpdateStatusFunc not set in mock")
}

func (m *mockRepository) ListReservations(ctx context.Context, f ListFilter) ([]Reservation, error) {
	if m.ListReservationsFunc != nil {
		return m.ListReservationsFunc(ctx, f)
	}
	return nil, nil
}

func (m *mockRepository) FindConfirmedUnreminded(ctx context.Context, date time.Time) ([]Reservation, error) {
	if m.FindConfirmedUnremindedFunc != nil {
		return m.FindConfirmedUnremindedFunc(ctx, date)
	}
	return nil, nil
}

func (m *mockRepository) MarkReminded(ctx context.Context, id uuid.UUID, at time.Time) error {
	if m.MarkRemindedFunc != nil {
		return m.MarkRemindedFunc(ctx, id, at)
	}
	return nil
}

var _ redisclient.Locker = (*mockLocker)(nil)

// mockLocker serializes critical sections per key in-process, mimicking the
// mutual exclusion the Redis lock provides.
type mockLocker struct {
	mu    sync.Mutex
	locks map[string]*sync.Mutex

	// fail makes every acquisition report contention.
	fail bool
}

func (l *mockLocker) WithLock(ctx context.Context, key string, fn func(ctx context.Context) error) error {
	if l.fail {
		return redisclient.ErrLockNotAcquired
	}

	l.mu.Lock()
	if l.locks == nil {
		l.locks = make(map[string]*sync.Mutex)
	}
	keyMu, ok := l.locks[key]
	if !ok {
		keyMu = &sync.Mutex{}
		l.locks[key] = keyMu
	}
	l.mu.Unlock()

	keyMu.Lock()
	defer keyMu.Unlock()
	return fn(ctx)
}

var _ notification.Notifier = (*mockNotifier)(nil)

type notified struct {
	UserID   uuid.UUID
	Category notification.Category
	Title    string
	Message  string
}

type mockNotifier struct {
	mu   sync.Mutex
	sent []notified
}

func (n *mockNotifier) Notify(ctx context.Context, userID uuid.UUID, category notification.Category, title, message string) {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.sent = append(n.sent, notified{UserID: userID, Category: category, Title: title, Message: message})
}

func (n *mockNotifier) Sent() []notified {
	n.mu.Lock()
	defer n.mu.Unlock()
	out := make([]notified, len(n.sent))
	copy(out, n.sent)
	return out
}
