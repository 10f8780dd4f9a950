package clinical

import (
	"context"
	"errors"
	"fmt"
	"iter"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/dentalcare/clinic-api/internal/auth"
	"github.com/dentalcare/clinic-api/internal/notification"
	redisclient "github.com/dentalcare/clinic-api/internal/redis"
)

var (
	ErrRecordBeingWritten = errors.New("a clinical record for this patient is being written, please retry")
	ErrNothingToAmend     = errors.New("no amendable fields supplied")
)

// historyPageSize is how many snapshots History pulls from the repository at a
// time.
const historyPageSize = 50

// AppendInput carries one clinical visit. Delta only needs the teeth whose
// condition changed; the store overlays it onto the patient's current chart.
type AppendInput struct {
	Diagnosis string
	Treatment string
	Notes     string
	Cost      int64
	Delta     Odontogram
}

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

// Append records one clinical visit. The read-merge-insert runs under a
// per-patient lock so two concurrent appends cannot both derive from the same
// baseline and silently drop a delta. Appends for different patients do not
// serialize.
func (s *Service) Append(ctx context.Context, actor auth.Actor, patientID uuid.UUID, in AppendInput) (*Snapshot, error) {
	if err := auth.Authorize(actor, auth.OpAppendRecord, uuid.Nil); err != nil {
		return nil, err
	}

	if err := in.Delta.Validate(); err != nil {
		return nil, err
	}

	if err := s.repo.PatientExists(ctx, patientID); err != nil {
		return nil, err
	}

	var created *Snapshot

	err := s.locker.WithLock(ctx, redisclient.PatientKey(patientID), func(lockCtx context.Context) error {
		current, err := s.currentOdontogram(lockCtx, patientID)
		if err != nil {
			return err
		}

		snap := &Snapshot{
			PatientID:  patientID,
			VisitAt:    s.now(),
			Diagnosis:  in.Diagnosis,
			Treatment:  in.Treatment,
			Notes:      in.Notes,
			Cost:       in.Cost,
			Odontogram: Overlay(current, in.Delta),
		}

		created, err = s.createWithRetry(lockCtx, snap)
		return err
	})

	if err != nil {
		if errors.Is(err, redisclient.ErrLockNotAcquired) {
			return nil, ErrRecordBeingWritten
		}
		return nil, err
	}

	s.notifier.Notify(ctx, patientID, notification.CategoryBooking,
		"Medical record updated",
		fmt.Sprintf("A clinical record was added on %s", created.VisitAt.Format("2006-01-02")))

	return created, nil
}

// createWithRetry retries the snapshot insert once on a transient persistence
// failure.
func (s *Service) createWithRetry(ctx context.Context, snap *Snapshot) (*Snapshot, error) {
	created, err := s.repo.CreateSnapshot(ctx, snap)
	if err == nil || ctx.Err() != nil {
		return created, err
	}

	s.log.Warn().Err(err).Str("patient_id", snap.PatientID.String()).Msg("snapshot insert failed, retrying once")

	created, err = s.repo.CreateSnapshot(ctx, snap)
	if err != nil {
		return nil, fmt.Errorf("create snapshot: %w", err)
	}
	return created, nil
}

// CurrentOdontogram returns the chart of the most recent snapshot, or the
// all-normal default when the patient has no history. Pure read.
func (s *Service) CurrentOdontogram(ctx context.Context, actor auth.Actor, patientID uuid.UUID) (Odontogram, error) {
	if err := auth.Authorize(actor, auth.OpReadRecords, patientID); err != nil {
		return nil, err
	}

	if err := s.repo.PatientExists(ctx, patientID); err != nil {
		return nil, err
	}

	return s.currentOdontogram(ctx, patientID)
}

func (s *Service) currentOdontogram(ctx context.Context, patientID uuid.UUID) (Odontogram, error) {
	latest, err := s.repo.LatestSnapshot(ctx, patientID)
	if err != nil {
		if errors.Is(err, ErrSnapshotNotFound) {
			return DefaultOdontogram(), nil
		}
		return nil, fmt.Errorf("load latest snapshot: %w", err)
	}

	// Stored charts are full maps; overlaying onto the default keeps the
	// all-32-teeth contract even for rows written before a tooth existed in
	// the vocabulary.
	return Overlay(DefaultOdontogram(), latest.Odontogram), nil
}

// History returns the patient's snapshots most recent first, ties broken by
// insertion order. The sequence is lazy and restartable: each range re-queries
// from the start and pages through the repository.
func (s *Service) History(ctx context.Context, actor auth.Actor, patientID uuid.UUID) (iter.Seq2[*Snapshot, error], error) {
	if err := auth.Authorize(actor, auth.OpReadRecords, patientID); err != nil {
		return nil, err
	}

	if err := s.repo.PatientExists(ctx, patientID); err != nil {
		return nil, err
	}

	return func(yield func(*Snapshot, error) bool) {
		for offset := 0; ; offset += historyPageSize {
			page, err := s.repo.ListSnapshots(ctx, patientID, historyPageSize, offset)
			if err != nil {
				yield(nil, fmt.Errorf("list snapshots: %w", err))
				return
			}

			for i := range page {
				if !yield(&page[i], nil) {
					return
				}
			}

			if len(page) < historyPageSize {
				return
			}
		}
	}, nil
}

// Amend corrects clerical text fields of one existing snapshot in place. This
// is the sole exception to snapshot immutability; the odontogram is never
// touched, so charts derived from this snapshot stay consistent.
func (s *Service) Amend(ctx context.Context, actor auth.Actor, snapshotID uuid.UUID, fields AmendFields) (*Snapshot, error) {
	if err := auth.Authorize(actor, auth.OpAmendRecord, uuid.Nil); err != nil {
		return nil, err
	}

	if fields.Empty() {
		return nil, ErrNothingToAmend
	}

	snap, err := s.repo.AmendSnapshot(ctx, snapshotID, fields)
	if err != nil {
		if errors.Is(err, ErrSnapshotNotFound) {
			return nil, err
		}
		return nil, fmt.Errorf("amend snapshot: %w", err)
	}

	return snap, nil
}
