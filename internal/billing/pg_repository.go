package billing

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

func scanInvoice(row pgx.Row) (*Invoice, error) {
	var inv Invoice
	var items []byte

	err := row.Scan(
		&inv.ID,
		&inv.Number,
		&inv.PatientID,
		&items,
		&inv.Total,
		&inv.IsPaid,
		&inv.PaidAt,
		&inv.CreatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrInvoiceNotFound
		}
		return nil, err
	}

	if err := json.Unmarshal(items, &inv.Items); err != nil {
		return nil, fmt.Errorf("decode invoice items: %w", err)
	}

	return &inv, nil
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

func (r *PgRepository) CreateInvoice(ctx context.Context, inv *Invoice) (*Invoice, error) {
	items, err := json.Marshal(inv.Items)
	if err != nil {
		return nil, fmt.Errorf("encode invoice items: %w", err)
	}

	row := r.pool.QueryRow(ctx, `
		INSERT INTO invoices (id, number, patient_id, items, total, is_paid, created_at)
		VALUES ($1, $2, $3, $4, $5, false, now())
		RETURNING id, number, patient_id, items, total, is_paid, paid_at, created_at
	`, uuid.New(), inv.Number, inv.PatientID, items, inv.Total)

	return scanInvoice(row)
}

func (r *PgRepository) GetInvoiceByID(ctx context.Context, id uuid.UUID) (*Invoice, error) {
	row := r.pool.QueryRow(ctx, `
		SELECT id, number, patient_id, items, total, is_paid, paid_at, created_at
		FROM invoices
		WHERE id = $1
	`, id)
	return scanInvoice(row)
}

func (r *PgRepository) ListInvoices(ctx context.Context, f ListFilter, limit int) ([]Invoice, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT id, number, patient_id, items, total, is_paid, paid_at, created_at
		FROM invoices
		WHERE ($1::uuid IS NULL OR patient_id = $1)
		  AND ($2::bool IS NULL OR is_paid = $2)
		ORDER BY created_at DESC
		LIMIT $3
	`, nullableUUID(f.PatientID), f.IsPaid, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var result []Invoice
	for rows.Next() {
		inv, err := scanInvoice(rows)
		if err != nil {
			return nil, err
		}
		result = append(result, *inv)
	}

	if err := rows.Err(); err != nil {
		return nil, err
	}

	return result, nil
}

func (r *PgRepository) MarkPaid(ctx context.Context, id uuid.UUID) (*Invoice, error) {
	row := r.pool.QueryRow(ctx, `
		UPDATE invoices
		SET is_paid = true,
		    paid_at = now()
		WHERE id = $1
		RETURNING id, number, patient_id, items, total, is_paid, paid_at, created_at
	`, id)
	return scanInvoice(row)
}

func (r *PgRepository) DeleteInvoice(ctx context.Context, id uuid.UUID) error {
	tag, err := r.pool.Exec(ctx, `
		DELETE FROM invoices
		WHERE id = $1
	`, id)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrInvoiceNotFound
	}
	return nil
}

func nullableUUID(id uuid.UUID) *uuid.UUID {
	if id == uuid.Nil {
		return nil
	}
	return &id
}
