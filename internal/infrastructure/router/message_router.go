package router

import (
	"hotel-booking-client/internal/domain/entity"
	"hotel-booking-client/internal/usecase"
	"hotel-booking-client/pkg/logger"
	"hotel-booking-client/pkg/metrics"

	"github.com/jonboulle/clockwork"
)

// UpdateApplier accepts booking updates for the active booking
type UpdateApplier interface {
	TryApply(msg entity.BookingUpdateMessage) usecase.ApplyResult
}

// MessageRouter dispatches decoded push messages by type
type MessageRouter struct {
	applier UpdateApplier
	buffer  *usecase.PendingBuffer
	clock   clockwork.Clock
	logger  logger.Logger
	metrics *metrics.Metrics
}

// NewMessageRouter creates a new message router
func NewMessageRouter(applier UpdateApplier, buffer *usecase.PendingBuffer, clock clockwork.Clock, logger logger.Logger, metrics *metrics.Metrics) *MessageRouter {
	return &MessageRouter{
		applier: applier,
		buffer:  buffer,
		clock:   clock,
		logger:  logger,
		metrics: metrics,
	}
}

// Route handles one message. Booking updates that match no active booking
// are kept in the pending buffer.
func (r *MessageRouter) Route(msg entity.PushMessage) {
	defer func() {
		if rec := recover(); rec != nil {
			r.logger.Error("Recovered while routing push message", "panic", rec)
			r.metrics.ErrorsCount.WithLabelValues("route_message").Inc()
		}
	}()

	switch m := msg.(type) {
	case entity.ConnectedMessage:
		r.metrics.PushMessages.WithLabelValues(entity.MessageTypeConnected).Inc()
		r.logger.Info("Push channel handshake complete", "userId", m.UserID)
	case entity.BookingUpdateMessage:
		r.metrics.PushMessages.WithLabelValues(entity.MessageTypeBookingUpdate).Inc()
		if m.Timestamp == 0 {
			m.Timestamp = r.clock.Now().UnixMilli()
		}
		result := r.buffer.Deliver(m, r.applier.TryApply)
		r.logger.Debug("Booking update routed", "bookingId", m.BookingID, "status", m.Status, "result", result.String())
	case entity.UnknownMessage:
		r.metrics.PushMessages.WithLabelValues("unknown").Inc()
		r.logger.Debug("Ignoring push message of unknown type", "type", m.Type)
	case nil:
		r.logger.Debug("Ignoring empty push message")
	default:
		r.logger.Debug("Ignoring unsupported push message", "type", m.MessageType())
	}
}
