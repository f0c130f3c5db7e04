// internal/domain/entity/message.go
package entity

import (
	"encoding/json"
	"fmt"
	"time"
)

// Push message types
const (
	MessageTypeConnected     = "CONNECTED"
	MessageTypeBookingUpdate = "BOOKING_UPDATE"
)

// PushMessage is a decoded push channel frame. The concrete types are
// ConnectedMessage, BookingUpdateMessage and UnknownMessage.
type PushMessage interface {
	MessageType() string
}

// ConnectedMessage is the handshake sent by the notification service
type ConnectedMessage struct {
	UserID    string `json:"userId"`
	Message   string `json:"message"`
	Timestamp int64  `json:"timestamp"`
}

func (ConnectedMessage) MessageType() string { return MessageTypeConnected }

// BookingUpdateMessage carries the pricing outcome of a booking
type BookingUpdateMessage struct {
	BookingID          BookingID `json:"bookingId"`
	Status             string    `json:"status"`
	UserID             string    `json:"userId,omitempty"`
	HotelID            HotelRef  `json:"hotelId,omitempty"`
	FinalPrice         float64   `json:"finalPrice"`
	DiscountPercentage float64   `json:"discountPercentage"`
	Recommendations    []string  `json:"recommendations,omitempty"`
	Message            string    `json:"message,omitempty"`
	RejectionReason    string    `json:"rejectionReason,omitempty"`
	// Timestamp is the origin time in unix milliseconds, zero when absent
	Timestamp int64 `json:"timestamp,omitempty"`
}

func (BookingUpdateMessage) MessageType() string { return MessageTypeBookingUpdate }

// OriginTime returns the origin timestamp as a time
func (m BookingUpdateMessage) OriginTime() time.Time {
	return time.UnixMilli(m.Timestamp)
}

// Age is how old the message is at now
func (m BookingUpdateMessage) Age(now time.Time) time.Duration {
	return now.Sub(m.OriginTime())
}

// Reason returns the user facing explanation of a rejection
func (m BookingUpdateMessage) Reason() string {
	if m.RejectionReason != "" {
		return m.RejectionReason
	}
	return m.Message
}

// UnknownMessage keeps the type of a frame the client does not handle
type UnknownMessage struct {
	Type string
}

func (m UnknownMessage) MessageType() string { return m.Type }

// DecodePushMessage decodes a JSON frame into its PushMessage variant
func DecodePushMessage(data []byte) (PushMessage, error) {
	var envelope struct {
		Type string `json:"type"`
	}
	if err := json.Unmarshal(data, &envelope); err != nil {
		return nil, fmt.Errorf("failed to decode push message: %w", err)
	}

	switch envelope.Type {
	case MessageTypeConnected:
		var msg ConnectedMessage
		if err := json.Unmarshal(data, &msg); err != nil {
			return nil, fmt.Errorf("failed to decode %s message: %w", envelope.Type, err)
		}
		return msg, nil
	case MessageTypeBookingUpdate:
		var msg BookingUpdateMessage
		if err := json.Unmarshal(data, &msg); err != nil {
			return nil, fmt.Errorf("failed to decode %s message: %w", envelope.Type, err)
		}
		return msg, nil
	default:
		return UnknownMessage{Type: envelope.Type}, nil
	}
}
