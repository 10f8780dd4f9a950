package account

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/dentalcare/clinic-api/internal/auth"
)

const uniqueViolation = "23505"

type PgRepository struct {
	pool *pgxpool.Pool
}

func NewPgRepository(pool *pgxpool.Pool) *PgRepository {
	return &PgRepository{pool: pool}
}

func scanUser(row pgx.Row) (*User, error) {
	var u User

	err := row.Scan(
		&u.ID,
		&u.Email,
		&u.PasswordHash,
		&u.Name,
		&u.Phone,
		&u.Role,
		&u.Avatar,
		&u.CreatedAt,
		&u.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrUserNotFound
		}
		return nil, err
	}

	return &u, nil
}

func (r *PgRepository) GetUserByID(ctx context.Context, id uuid.UUID) (*User, error) {
	row := r.pool.QueryRow(ctx, `
		SELECT id, email, password_hash, name, phone, role, avatar, created_at, updated_at
		FROM users
		WHERE id = $1
	`, id)
	return scanUser(row)
}

func (r *PgRepository) GetUserByEmail(ctx context.Context, email string) (*User, error) {
	row := r.pool.QueryRow(ctx, `
		SELECT id, email, password_hash, name, phone, role, avatar, created_at, updated_at
		FROM users
		WHERE email = $1
	`, email)
	return scanUser(row)
}

func (r *PgRepository) CreateUser(ctx context.Context, u *User, patient *PatientProfile, doctor *DoctorProfile) (*User, error) {
	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return nil, err
	}
	defer tx.Rollback(ctx)

	id := uuid.New()

	row := tx.QueryRow(ctx, `
		INSERT INTO users (id, email, password_hash, name, phone, role, avatar, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, now(), now())
		RETURNING id, email, password_hash, name, phone, role, avatar, created_at, updated_at
	`, id, u.Email, u.PasswordHash, u.Name, u.Phone, u.Role, u.Avatar)

	created, err := scanUser(row)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == uniqueViolation {
			return nil, ErrEmailTaken
		}
		return nil, err
	}

	if patient != nil {
		_, err = tx.Exec(ctx, `
			INSERT INTO patient_profiles (user_id, birth_date, address, allergies)
			VALUES ($1, $2, $3, $4)
		`, created.ID, patient.BirthDate, patient.Address, patient.Allergies)
		if err != nil {
			return nil, err
		}
	}

	if doctor != nil {
		_, err = tx.Exec(ctx, `
			INSERT INTO doctor_profiles (user_id, specialty, schedule)
			VALUES ($1, $2, $3)
		`, created.ID, doctor.Specialty, doctor.Schedule)
		if err != nil {
			return nil, err
		}
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, err
	}

	return created, nil
}

func (r *PgRepository) UpdateUser(ctx context.Context, u *User) (*User, error) {
	row := r.pool.QueryRow(ctx, `
		UPDATE users
		SET email = $2,
		    name = $3,
		    phone = $4,
		    updated_at = now()
		WHERE id = $1
		RETURNING id, email, password_hash, name, phone, role, avatar, created_at, updated_at
	`, u.ID, u.Email, u.Name, u.Phone)

	updated, err := scanUser(row)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == uniqueViolation {
			return nil, ErrEmailTaken
		}
		return nil, err
	}

	return updated, nil
}

func (r *PgRepository) UpdatePatientProfile(ctx context.Context, p *PatientProfile) error {
	_, err := r.pool.Exec(ctx, `
		UPDATE patient_profiles
		SET birth_date = $2,
		    address = $3,
		    allergies = $4
		WHERE user_id = $1
	`, p.UserID, p.BirthDate, p.Address, p.Allergies)
	return err
}

func (r *PgRepository) DeleteUser(ctx context.Context, id uuid.UUID) error {
	tag, err := r.pool.Exec(ctx, `
		DELETE FROM users
		WHERE id = $1
	`, id)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrUserNotFound
	}
	return nil
}

func (r *PgRepository) ListUsers(ctx context.Context, role auth.Role) ([]User, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT id, email, password_hash, name, phone, role, avatar, created_at, updated_at
		FROM users
		WHERE ($1::text IS NULL OR role = $1)
		ORDER BY created_at DESC
	`, nullableRole(role))
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var result []User
	for rows.Next() {
		u, err := scanUser(rows)
		if err != nil {
			return nil, err
		}
		result = append(result, *u)
	}

	if err := rows.Err(); err != nil {
		return nil, err
	}

	return result, nil
}

func (r *PgRepository) GetPatientProfile(ctx context.Context, userID uuid.UUID) (*PatientProfile, error) {
	var p PatientProfile
	p.UserID = userID

	err := r.pool.QueryRow(ctx, `
		SELECT birth_date, address, allergies, last_visit, next_visit
		FROM patient_profiles
		WHERE user_id = $1
	`, userID).Scan(&p.BirthDate, &p.Address, &p.Allergies, &p.LastVisit, &p.NextVisit)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrUserNotFound
		}
		return nil, err
	}

	return &p, nil
}

func (r *PgRepository) GetDoctorProfile(ctx context.Context, userID uuid.UUID) (*DoctorProfile, error) {
	var d DoctorProfile
	d.UserID = userID

	err := r.pool.QueryRow(ctx, `
		SELECT specialty, schedule
		FROM doctor_profiles
		WHERE user_id = $1
	`, userID).Scan(&d.Specialty, &d.Schedule)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrUserNotFound
		}
		return nil, err
	}

	return &d, nil
}

func nullableRole(role auth.Role) *string {
	if role == "" {
		return nil
	}
	v := string(role)
	return &v
}
