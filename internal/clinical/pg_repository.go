package clinical

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

type PgRepository struct {
	pool *pgxpool.Pool
}

func NewPgRepository(pool *pgxpool.Pool) *PgRepository {
	return &PgRepository{pool: pool}
}

func scanSnapshot(row pgx.Row) (*Snapshot, error) {
	var s Snapshot
	var chart []byte

	err := row.Scan(
		&s.ID,
		&s.Seq,
		&s.PatientID,
		&s.VisitAt,
		&s.Diagnosis,
		&s.Treatment,
		&s.Notes,
		&s.Cost,
		&chart,
		&s.CreatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrSnapshotNotFound
		}
		return nil, err
	}

	if err := json.Unmarshal(chart, &s.Odontogram); err != nil {
		return nil, fmt.Errorf("decode odontogram: %w", err)
	}

	return &s, nil
}

func (r *PgRepository) PatientExists(ctx context.Context, patientID uuid.UUID) error {
	var found bool
	err := r.pool.QueryRow(ctx, `
		SELECT EXISTS (SELECT 1 FROM patient_profiles WHERE user_id = $1)
	`, patientID).Scan(&found)
	if err != nil {
		return err
	}
	if !found {
		return ErrPatientNotFound
	}
	return nil
}

// CreateSnapshot inserts the snapshot and refreshes the patient's last-visit
// mirror in one transaction, so no partially-applied state is observable.
func (r *PgRepository) CreateSnapshot(ctx context.Context, snap *Snapshot) (*Snapshot, error) {
	chart, err := json.Marshal(snap.Odontogram)
	if err != nil {
		return nil, fmt.Errorf("encode odontogram: %w", err)
	}

	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return nil, err
	}
	defer tx.Rollback(ctx)

	row := tx.QueryRow(ctx, `
		INSERT INTO clinical_snapshots (id, patient_id, visit_at, diagnosis, treatment, notes, cost, odontogram, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, now())
		RETURNING id, seq, patient_id, visit_at, diagnosis, treatment, notes, cost, odontogram, created_at
	`, uuid.New(), snap.PatientID, snap.VisitAt, snap.Diagnosis, snap.Treatment, snap.Notes, snap.Cost, chart)

	created, err := scanSnapshot(row)
	if err != nil {
		return nil, err
	}

	_, err = tx.Exec(ctx, `
		UPDATE patient_profiles
		SET last_visit = $2
		WHERE user_id = $1
	`, snap.PatientID, snap.VisitAt)
	if err != nil {
		return nil, err
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, err
	}

	return created, nil
}

func (r *PgRepository) LatestSnapshot(ctx context.Context, patientID uuid.UUID) (*Snapshot, error) {
	row := r.pool.QueryRow(ctx, `
		SELECT id, seq, patient_id, visit_at, diagnosis, treatment, notes, cost, odontogram, created_at
		FROM clinical_snapshots
		WHERE patient_id = $1
		ORDER BY visit_at DESC, seq DESC
		LIMIT 1
	`, patientID)
	return scanSnapshot(row)
}

func (r *PgRepository) ListSnapshots(ctx context.Context, patientID uuid.UUID, limit, offset int) ([]Snapshot, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT id, seq, patient_id, visit_at, diagnosis, treatment, notes, cost, odontogram, created_at
		FROM clinical_snapshots
		WHERE patient_id = $1
		ORDER BY visit_at DESC, seq ASC
		LIMIT $2 OFFSET $3
	`, patientID, limit, offset)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var result []Snapshot
	for rows.Next() {
		s, err := scanSnapshot(rows)
		if err != nil {
			return nil, err
		}
		result = append(result, *s)
	}

	if err := rows.Err(); err != nil {
		return nil, err
	}

	return result, nil
}

func (r *PgRepository) GetSnapshotByID(ctx context.Context, id uuid.UUID) (*Snapshot, error) {
	row := r.pool.QueryRow(ctx, `
		SELECT id, seq, patient_id, visit_at, diagnosis, treatment, notes, cost, odontogram, created_at
		FROM clinical_snapshots
		WHERE id = $1
	`, id)
	return scanSnapshot(row)
}

// AmendSnapshot updates the clerical text fields only. The odontogram column
// is deliberately absent from the statement.
func (r *PgRepository) AmendSnapshot(ctx context.Context, id uuid.UUID, fields AmendFields) (*Snapshot, error) {
	row := r.pool.QueryRow(ctx, `
		UPDATE clinical_snapshots
		SET diagnosis = COALESCE($2, diagnosis),
		    treatment = COALESCE($3, treatment),
		    notes     = COALESCE($4, notes),
		    cost      = COALESCE($5, cost)
		WHERE id = $1
		RETURNING id, seq, patient_id, visit_at, diagnosis, treatment, notes, cost, odontogram, created_at
	`, id, fields.Diagnosis, fields.Treatment, fields.Notes, fields.Cost)
	return scanSnapshot(row)
}
