package notification

import (
	"context"
	"errors"

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

func scanNotification(row pgx.Row) (*Notification, error) {
	var n Notification

	err := row.Scan(
		&n.ID,
		&n.UserID,
		&n.Category,
		&n.Title,
		&n.Message,
		&n.IsRead,
		&n.CreatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotificationNotFound
		}
		return nil, err
	}

	return &n, nil
}

func (r *PgRepository) Insert(ctx context.Context, n Notification) error {
	_, err := r.pool.Exec(ctx, `
		INSERT INTO notifications (id, user_id, category, title, message, is_read, created_at)
		VALUES ($1, $2, $3, $4, $5, false, now())
	`, uuid.New(), n.UserID, n.Category, n.Title, n.Message)
	return err
}

func (r *PgRepository) ListByUser(ctx context.Context, userID uuid.UUID) ([]Notification, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT id, user_id, category, title, message, is_read, created_at
		FROM notifications
		WHERE user_id = $1
		ORDER BY created_at DESC
	`, userID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var result []Notification
	for rows.Next() {
		n, err := scanNotification(rows)
		if err != nil {
			return nil, err
		}
		result = append(result, *n)
	}

	if err := rows.Err(); err != nil {
		return nil, err
	}

	return result, nil
}

func (r *PgRepository) MarkRead(ctx context.Context, id, userID uuid.UUID) (*Notification, error) {
	row := r.pool.QueryRow(ctx, `
		UPDATE notifications
		SET is_read = true
		WHERE id = $1
		  AND user_id = $2
		RETURNING id, user_id, category, title, message, is_read, created_at
	`, id, userID)
	return scanNotification(row)
}

func (r *PgRepository) MarkAllRead(ctx context.Context, userID uuid.UUID) error {
	_, err := r.pool.Exec(ctx, `
		UPDATE notifications
		SET is_read = true
		WHERE user_id = $1
		  AND is_read = false
	`, userID)
	return err
}
