package booking

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
)

// uniqueViolation is the Postgres error code raised by the partial unique
// index over active reservations.
const uniqueViolation = "23505"

type PgRepository struct {
	pool *pgxpool.Pool
}

func NewPgRepository(pool *pgxpool.Pool) *PgRepository {
	return &PgRepository{pool: pool}
}

func scanReservation(row pgx.Row) (*Reservation, error) {
	var r Reservation
	var remindedAt *time.Time

	err := row.Scan(
		&r.ID,
		&r.PatientID,
		&r.DoctorID,
		&r.Date,
		&r.Slot,
		&r.Status,
		&r.Note,
		&remindedAt,
		&r.CreatedAt,
		&r.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrReservationNotFound
		}
		return nil, err
	}

	r.RemindedAt = remindedAt
	return &r, nil
}

func (r *PgRepository) PatientExists(ctx context.Context, id uuid.UUID) error {
	var found bool
	err := r.pool.QueryRow(ctx, `
		SELECT EXISTS (SELECT 1 FROM users WHERE id = $1 AND role = 'patient')
	`, id).Scan(&found)
	if err != nil {
		return err
	}
	if !found {
		return ErrPatientNotFound
	}
	return nil
}

func (r *PgRepository) DoctorExists(ctx context.Context, id uuid.UUID) error {
	var found bool
	err := r.pool.QueryRow(ctx, `
		SELECT EXISTS (SELECT 1 FROM users WHERE id = $1 AND role = 'doctor')
	`, id).Scan(&found)
	if err != nil {
		return err
	}
	if !found {
		return ErrDoctorNotFound
	}
	return nil
}

func (r *PgRepository) GetReservationByID(ctx context.Context, id uuid.UUID) (*Reservation, error) {
	row := r.pool.QueryRow(ctx, `
		SELECT id, patient_id, doctor_id, date, slot, status, note, reminded_at, created_at, updated_at
		FROM reservations
		WHERE id = $1
	`, id)
	return scanReservation(row)
}

func (r *PgRepository) FindActiveBySlot(ctx context.Context, doctorID uuid.UUID, date time.Time, slot string) (*Reservation, error) {
	row := r.pool.QueryRow(ctx, `
		SELECT id, patient_id, doctor_id, date, slot, status, note, reminded_at, created_at, updated_at
		FROM reservations
		WHERE doctor_id = $1
		  AND date = $2
		  AND slot = $3
		  AND status IN ('pending', 'confirmed')
	`, doctorID, date, slot)
	return scanReservation(row)
}

func (r *PgRepository) ListActiveSlots(ctx context.Context, doctorID uuid.UUID, date time.Time) ([]string, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT slot
		FROM reservations
		WHERE doctor_id = $1
		  AND date = $2
		  AND status IN ('pending', 'confirmed')
		ORDER BY slot
	`, doctorID, date)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var slots []string
	for rows.Next() {
		var slot string
		if err := rows.Scan(&slot); err != nil {
			return nil, err
		}
		slots = append(slots, slot)
	}

	if err := rows.Err(); err != nil {
		return nil, err
	}

	return slots, nil
}

func (r *PgRepository) CreateReservation(ctx context.Context, patientID, doctorID uuid.UUID, date time.Time, slot, note string) (*Reservation, error) {
	id := uuid.New()

	row := r.pool.QueryRow(ctx, `
		INSERT INTO reservations (id, patient_id, doctor_id, date, slot, status, note, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, 'pending', $6, now(), now())
		RETURNING id, patient_id, doctor_id, date, slot, status, note, reminded_at, created_at, updated_at
	`, id, patientID, doctorID, date, slot, note)

	res, err := scanReservation(row)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == uniqueViolation {
			return nil, ErrSlotTaken
		}
		return nil, err
	}

	return res, nil
}

func (r *PgRepository) UpdateStatus(ctx context.Context, id uuid.UUID, from, to Status) (*Reservation, error) {
	row := r.pool.QueryRow(ctx, `
		UPDATE reservations
		SET status = $2,
		    updated_at = now()
		WHERE id = $1
		  AND status = $3
		RETURNING id, patient_id, doctor_id, date, slot, status, note, reminded_at, created_at, updated_at
	`, id, to, from)

	return scanReservation(row)
}

func (r *PgRepository) ListReservations(ctx context.Context, f ListFilter) ([]Reservation, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT id, patient_id, doctor_id, date, slot, status, note, reminded_at, created_at, updated_at
		FROM reservations
		WHERE ($1::uuid IS NULL OR patient_id = $1)
		  AND ($2::uuid IS NULL OR doctor_id = $2)
		  AND ($3::text IS NULL OR status = $3)
		  AND ($4::date IS NULL OR date = $4)
		ORDER BY date ASC, slot ASC
	`, nullableUUID(f.PatientID), nullableUUID(f.DoctorID), nullableStatus(f.Status), nullableDate(f.Date))
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var result []Reservation
	for rows.Next() {
		res, err := scanReservation(rows)
		if err != nil {
			return nil, err
		}
		result = append(result, *res)
	}

	if err := rows.Err(); err != nil {
		return nil, err
	}

	return result, nil
}

func (r *PgRepository) FindConfirmedUnreminded(ctx context.Context, date time.Time) ([]Reservation, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT id, patient_id, doctor_id, date, slot, status, note, reminded_at, created_at, updated_at
		FROM reservations
		WHERE status = 'confirmed'
		  AND date = $1
		  AND reminded_at IS NULL
	`, date)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var result []Reservation
	for rows.Next() {
		res, err := scanReservation(rows)
		if err != nil {
			return nil, err
		}
		result = append(result, *res)
	}

	if err := rows.Err(); err != nil {
		return nil, err
	}

	return result, nil
}

func (r *PgRepository) MarkReminded(ctx context.Context, id uuid.UUID, at time.Time) error {
	_, err := r.pool.Exec(ctx, `
		UPDATE reservations
		SET reminded_at = $2
		WHERE id = $1
	`, id, at)
	return err
}

func nullableUUID(id uuid.UUID) *uuid.UUID {
	if id == uuid.Nil {
		return nil
	}
	return &id
}

func nullableStatus(s Status) *string {
	if s == "" {
		return nil
	}
	v := string(s)
	return &v
}

func nullableDate(t time.Time) *time.Time {
	if t.IsZero() {
		return nil
	}
	return &t
}
