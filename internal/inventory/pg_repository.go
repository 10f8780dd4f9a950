package inventory

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
)

// checkViolation fires when the stock CHECK constraint rejects a negative
// balance.
const checkViolation = "23514"

type PgRepository struct {
	pool *pgxpool.Pool
}

func NewPgRepository(pool *pgxpool.Pool) *PgRepository {
	return &PgRepository{pool: pool}
}

func scanMedicine(row pgx.Row) (*Medicine, error) {
	var m Medicine

	err := row.Scan(
		&m.ID,
		&m.Name,
		&m.Category,
		&m.Stock,
		&m.MinStock,
		&m.Unit,
		&m.ExpiryDate,
		&m.Price,
		&m.CreatedAt,
		&m.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrMedicineNotFound
		}
		return nil, err
	}

	return &m, nil
}

func (r *PgRepository) CreateMedicine(ctx context.Context, m *Medicine) (*Medicine, error) {
	row := r.pool.QueryRow(ctx, `
		INSERT INTO medicines (id, name, category, stock, min_stock, unit, expiry_date, price, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, now(), now())
		RETURNING id, name, category, stock, min_stock, unit, expiry_date, price, created_at, updated_at
	`, uuid.New(), m.Name, m.Category, m.Stock, m.MinStock, m.Unit, m.ExpiryDate, m.Price)
	return scanMedicine(row)
}

func (r *PgRepository) GetMedicineByID(ctx context.Context, id uuid.UUID) (*Medicine, error) {
	row := r.pool.QueryRow(ctx, `
		SELECT id, name, category, stock, min_stock, unit, expiry_date, price, created_at, updated_at
		FROM medicines
		WHERE id = $1
	`, id)
	return scanMedicine(row)
}

func (r *PgRepository) ListMedicines(ctx context.Context, category string) ([]Medicine, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT id, name, category, stock, min_stock, unit, expiry_date, price, created_at, updated_at
		FROM medicines
		WHERE ($1::text IS NULL OR category = $1)
		ORDER BY name
	`, nullableText(category))
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var result []Medicine
	for rows.Next() {
		m, err := scanMedicine(rows)
		if err != nil {
			return nil, err
		}
		result = append(result, *m)
	}

	if err := rows.Err(); err != nil {
		return nil, err
	}

	return result, nil
}

func (r *PgRepository) AdjustStock(ctx context.Context, mv StockMovement) (*Medicine, error) {
	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return nil, err
	}
	defer tx.Rollback(ctx)

	row := tx.QueryRow(ctx, `
		UPDATE medicines
		SET stock = stock + $2,
		    updated_at = now()
		WHERE id = $1
		RETURNING id, name, category, stock, min_stock, unit, expiry_date, price, created_at, updated_at
	`, mv.MedicineID, mv.Change)

	updated, err := scanMedicine(row)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == checkViolation {
			return nil, ErrStockDepleted
		}
		return nil, err
	}

	_, err = tx.Exec(ctx, `
		INSERT INTO stock_movements (id, medicine_id, change, reason, performed_by, created_at)
		VALUES ($1, $2, $3, $4, $5, now())
	`, uuid.New(), mv.MedicineID, mv.Change, mv.Reason, mv.PerformedBy)
	if err != nil {
		return nil, err
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, err
	}

	return updated, nil
}

func (r *PgRepository) ListAdminIDs(ctx context.Context) ([]uuid.UUID, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT id
		FROM users
		WHERE role = 'admin'
	`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var ids []uuid.UUID
	for rows.Next() {
		var id uuid.UUID
		if err := rows.Scan(&id); err != nil {
			return nil, err
		}
		ids = append(ids, id)
	}

	if err := rows.Err(); err != nil {
		return nil, err
	}

	return ids, nil
}

func nullableText(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}
