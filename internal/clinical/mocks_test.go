package clinical

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/dentalcare/clinic-api/internal/notification"
	redisclient "github.com/dentalcare/clinic-api/internal/redis"
)

var _ Repository = (*mockRepository)(nil)

// mockRepository keeps snapshots in memory with the same ordering semantics as
// the SQL store: latest by visit time with insertion order breaking ties.
type mockRepository struct {
	mu        sync.Mutex
	nextSeq   int64
	snapshots []Snapshot
	lastVisit map[uuid.UUID]time.Time

	PatientExistsFunc  func(ctx context.Context, patientID uuid.UUID) error
	CreateSnapshotFunc func(ctx context.Context, snap *Snapshot) (*Snapshot, error)
	AmendSnapshotFunc  func(ctx context.Context, id uuid.UUID, fields AmendFields) (*Snapshot, error)
}

func (m *mockRepository) PatientExists(ctx context.Context, patientID uuid.UUID) error {
	if m.PatientExistsFunc != nil {
		return m.PatientExistsFunc(ctx, patientID)
	}
	return nil
}

func (m *mockRepository) CreateSnapshot(ctx context.Context, snap *Snapshot) (*Snapshot, error) {
	if m.CreateSnapshotFunc != nil {
		return m.CreateSnapshotFunc(ctx, snap)
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	m.nextSeq++
	stored := *snap
	stored.ID = uuid.New()
	stored.Seq = m.nextSeq
	stored.CreatedAt = time.Now()
	m.snapshots = append(m.snapshots, stored)

	if m.lastVisit == nil {
		m.lastVisit = make(map[uuid.UUID]time.Time)
	}
	m.lastVisit[snap.PatientID] = snap.VisitAt

	return &stored, nil
}

func (m *mockRepository) LatestSnapshot(ctx context.Context, patientID uuid.UUID) (*Snapshot, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	var latest *Snapshot
	for i := range m.snapshots {
		s := &m.snapshots[i]
		if s.PatientID != patientID {
			continue
		}
		if latest == nil || s.VisitAt.After(latest.VisitAt) ||
			(s.VisitAt.Equal(latest.VisitAt) && s.Seq > latest.Seq) {
			latest = s
		}
	}
	if latest == nil {
		return nil, ErrSnapshotNotFound
	}
	out := *latest
	return &out, nil
}

func (m *mockRepository) ListSnapshots(ctx context.Context, patientID uuid.UUID, limit, offset int) ([]Snapshot, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	var all []Snapshot
	for _, s := range m.snapshots {
		if s.PatientID == patientID {
			all = append(all, s)
		}
	}

	sort.SliceStable(all, func(i, j int) bool {
		if !all[i].VisitAt.Equal(all[j].VisitAt) {
			return all[i].VisitAt.After(all[j].VisitAt)
		}
		return all[i].Seq < all[j].Seq
	})

	if offset >= len(all) {
		return nil, nil
	}
	end := offset + limit
	if end > len(all) {
		end = len(all)
	}
	return all[offset:end], nil
}

func (m *mockRepository) GetSnapshotByID(ctx context.Context, id uuid.UUID) (*Snapshot, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	for _, s := range m.snapshots {
		if s.ID == id {
			out := s
			return &out, nil
		}
	}
	return nil, ErrSnapshotNotFound
}

func (m *mockRepository) AmendSnapshot(ctx context.Context, id uuid.UUID, fields AmendFields) (*Snapshot, error) {
	if m.AmendSnapshotFunc != nil {
		return m.AmendSnapshotFunc(ctx, id, fields)
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	for i := range m.snapshots {
		if m.snapshots[i].ID != id {
			continue
		}
		s := &m.snapshots[i]
		if fields.Diagnosis != nil {
			s.Diagnosis = *fields.Diagnosis
		}
		if fields.Treatment != nil {
			s.Treatment = *fields.Treatment
		}
		if fields.Notes != nil {
			s.Notes = *fields.Notes
		}
		if fields.Cost != nil {
			s.Cost = *fields.Cost
		}
		out := *s
		return &out, nil
	}
	return nil, ErrSnapshotNotFound
}

var _ redisclient.Locker = (*mockLocker)(nil)

type mockLocker struct {
	mu    sync.Mutex
	locks map[string]*sync.Mutex
	fail  bool
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

type mockNotifier struct {
	mu   sync.Mutex
	sent []uuid.UUID
}

func (n *mockNotifier) Notify(ctx context.Context, userID uuid.UUID, category notification.Category, title, message string) {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.sent = append(n.sent, userID)
}
