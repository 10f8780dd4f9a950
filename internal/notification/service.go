package notification

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
)

// Notifier is the write side exposed to the other services. Emission is
// fire-and-forget: a failed insert never rolls back the state change that
// triggered it.
type Notifier interface {
	Notify(ctx context.Context, userID uuid.UUID, category Category, title, message string)
}

type Service struct {
	repo Repository
	log  zerolog.Logger
}

func NewService(repo Repository, log zerolog.Logger) *Service {
	return &Service{repo: repo, log: log}
}

func (s *Service) Notify(ctx context.Context, userID uuid.UUID, category Category, title, message string) {
	n := Notification{
		UserID:   userID,
		Category: category,
		Title:    title,
		Message:  message,
	}

	if err := s.repo.Insert(ctx, n); err != nil {
		s.log.Error().
			Err(err).
			Str("user_id", userID.String()).
			Str("category", string(category)).
			Msg("failed to record notification")
	}
}

func (s *Service) ListForUser(ctx context.Context, userID uuid.UUID) ([]Notification, error) {
	list, err := s.repo.ListByUser(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("list notifications: %w", err)
	}
	return list, nil
}

func (s *Service) MarkRead(ctx context.Context, id, userID uuid.UUID) (*Notification, error) {
	n, err := s.repo.MarkRead(ctx, id, userID)
	if err != nil {
		return nil, fmt.Errorf("mark notification read: %w", err)
	}
	return n, nil
}

func (s *Service) MarkAllRead(ctx context.Context, userID uuid.UUID) error {
	if err := s.repo.MarkAllRead(ctx, userID); err != nil {
		return fmt.Errorf("mark all notifications read: %w", err)
	}
	return nil
}
