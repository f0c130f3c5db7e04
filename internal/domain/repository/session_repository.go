package repository

import (
	"context"

	"hotel-booking-client/internal/domain/entity"
)

// SessionRepository persists the client identity across runs
type SessionRepository interface {
	FindByClientKey(ctx context.Context, clientKey string) (*entity.ClientSession, error)
	Save(ctx context.Context, session *entity.ClientSession) error
	Touch(ctx context.Context, clientKey string) error
}
