package entity

import (
	"errors"
	"fmt"
	"strings"
)

var (
	// ErrFlowInProgress is returned when a booking is submitted while another one is unresolved
	ErrFlowInProgress = errors.New("a booking confirmation is already in progress")
	// ErrAbandonNeedsConfirmation is returned when closing would lose an unpriced booking
	ErrAbandonNeedsConfirmation = errors.New("booking has no final price yet, confirm to abandon")
	// ErrFlowAbandoned is returned when the flow was closed while a request was in flight
	ErrFlowAbandoned = errors.New("booking flow was abandoned")
	// ErrInvalidState is returned when an action is not allowed in the current flow state
	ErrInvalidState = errors.New("action not allowed in current state")
	// ErrSessionNotFound is returned when no session was persisted yet
	ErrSessionNotFound = errors.New("session not found")
)

// GenericConnectivityMessage is shown when the backend gave no usable message
const GenericConnectivityMessage = "Could not reach the booking service. Check your connection and try again."

// FieldError is a single backend validation error
type FieldError struct {
	Field   string
	Message string
}

// GatewayError is a non-2xx answer from the booking gateway
type GatewayError struct {
	StatusCode  int
	Message     string
	FieldErrors []FieldError
}

func (e *GatewayError) Error() string {
	if e.Message != "" {
		return fmt.Sprintf("gateway returned status %d: %s", e.StatusCode, e.Message)
	}
	return fmt.Sprintf("gateway returned status %d", e.StatusCode)
}

// ValidationError is a draft rejected before it reached the gateway
type ValidationError struct {
	FieldErrors []FieldError
}

func (e *ValidationError) Error() string {
	parts := make([]string, 0, len(e.FieldErrors))
	for _, fe := range e.FieldErrors {
		parts = append(parts, fe.Field+": "+fe.Message)
	}
	return "invalid booking: " + strings.Join(parts, "; ")
}

// UserMessage returns the text shown to the user for err: the backend
// message verbatim when present, field errors one per line, else the
// generic connectivity message.
func UserMessage(err error) string {
	var valErr *ValidationError
	if errors.As(err, &valErr) {
		return formatLines("", valErr.FieldErrors)
	}
	var gwErr *GatewayError
	if !errors.As(err, &gwErr) {
		return GenericConnectivityMessage
	}
	return formatLines(gwErr.Message, gwErr.FieldErrors)
}

func formatLines(message string, fieldErrors []FieldError) string {
	var lines []string
	if message != "" {
		lines = append(lines, message)
	}
	for _, fe := range fieldErrors {
		if fe.Field != "" {
			lines = append(lines, fe.Field+": "+fe.Message)
		} else {
			lines = append(lines, fe.Message)
		}
	}
	if len(lines) == 0 {
		return GenericConnectivityMessage
	}
	return strings.Join(lines, "\n")
}
