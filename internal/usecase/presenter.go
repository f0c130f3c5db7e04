package usecase

import (
	"hotel-booking-client/internal/domain/entity"
)

// Presenter renders booking flow state to the user. Calls are made after
// the coordinator released its lock, from whichever goroutine caused the
// change, so implementations must be safe for concurrent use.
type Presenter interface {
	FlowStateChanged(state entity.FlowState, booking *entity.ActiveBooking)
	EmphasisChanged(bookingID entity.BookingID, emphasis entity.Emphasis)
	PollProgress(bookingID entity.BookingID, attempt, maxAttempts int)
	BookingConfirmed(booking *entity.ActiveBooking)
	BookingRejected(bookingID entity.BookingID, reason string)
	BookingTimedOut(bookingID entity.BookingID)
	PaymentCompleted(booking *entity.ActiveBooking, result *entity.PaymentResult)
	ShowError(message string)
	ResetForm()
}

// ConnectionListener is notified about push channel state
type ConnectionListener interface {
	ConnectionStateChanged(state entity.ConnectionState)
	ConnectionLost(attempts int)
}
