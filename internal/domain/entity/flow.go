package entity

// FlowState is the state of the booking confirmation flow
type FlowState string

const (
	FlowIdle                 FlowState = "idle"
	FlowSubmitting           FlowState = "submitting"
	FlowAwaitingConfirmation FlowState = "awaitingConfirmation"
	FlowPollingFallback      FlowState = "pollingFallback"
	FlowConfirmed            FlowState = "confirmed"
	FlowRejected             FlowState = "rejected"
	FlowTimedOut             FlowState = "timedOut"
	FlowPaying               FlowState = "paying"
	FlowPaid                 FlowState = "paid"
)

// IsAwaiting reports whether the flow still waits for a confirmation
func (s FlowState) IsAwaiting() bool {
	return s == FlowAwaitingConfirmation || s == FlowPollingFallback
}

// AcceptsUpdate reports whether a booking update for the active record can
// still resolve the flow. A timed out flow recovers when the result arrives late.
func (s FlowState) AcceptsUpdate() bool {
	return s.IsAwaiting() || s == FlowTimedOut
}

// AcceptsSubmission reports whether a new booking may replace the current flow
func (s FlowState) AcceptsSubmission() bool {
	switch s {
	case FlowIdle, FlowConfirmed, FlowRejected, FlowTimedOut, FlowPaid:
		return true
	}
	return false
}

// Emphasis is the urgency of the waiting indicator
type Emphasis int

const (
	EmphasisNormal Emphasis = iota
	EmphasisSlow
	EmphasisCritical
)

func (e Emphasis) String() string {
	switch e {
	case EmphasisSlow:
		return "slow"
	case EmphasisCritical:
		return "critical"
	default:
		return "normal"
	}
}

// ConnectionState is the state of the push channel
type ConnectionState string

const (
	ConnectionDisconnected ConnectionState = "disconnected"
	ConnectionConnecting   ConnectionState = "connecting"
	ConnectionConnected    ConnectionState = "connected"
)
