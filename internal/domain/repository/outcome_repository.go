package repository

import (
	"context"

	"hotel-booking-client/internal/domain/entity"
)

// OutcomeRepository records terminal outcomes of booking flows
type OutcomeRepository interface {
	Record(ctx context.Context, outcome *entity.FlowOutcome) error
	FindByBookingID(ctx context.Context, bookingID string) (*entity.FlowOutcome, error)
	FindRecentByUser(ctx context.Context, userID string, limit int) ([]*entity.FlowOutcome, error)
}
