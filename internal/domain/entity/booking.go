// internal/domain/entity/booking.go
package entity

import (
	"bytes"
	"encoding/json"
	"errors"
	"strings"
	"time"
)

// Booking statuses reported by the backend
const (
	StatusPending   = "PENDING"
	StatusConfirmed = "CONFIRMED"
	StatusRejected  = "REJECTED"
	StatusPaid      = "PAID"
	StatusCancelled = "CANCELLED"
)

// DateLayout is the wire format of stay dates
const DateLayout = "2006-01-02"

// BookingID is the backend assigned booking key. The backend emits it as a
// JSON string or as a number depending on the service, both decode here.
type BookingID string

// UnmarshalJSON accepts "B1", 42 and null
func (id *BookingID) UnmarshalJSON(data []byte) error {
	s, err := decodeLooseID(data)
	if err != nil {
		return err
	}
	*id = BookingID(s)
	return nil
}

// HotelRef is a hotel identifier with the same loose encoding as BookingID
type HotelRef string

// UnmarshalJSON accepts strings, numbers and null
func (h *HotelRef) UnmarshalJSON(data []byte) error {
	s, err := decodeLooseID(data)
	if err != nil {
		return err
	}
	*h = HotelRef(s)
	return nil
}

func decodeLooseID(data []byte) (string, error) {
	data = bytes.TrimSpace(data)
	if bytes.Equal(data, []byte("null")) {
		return "", nil
	}
	if len(data) > 0 && data[0] == '"' {
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			return "", err
		}
		return s, nil
	}
	var n json.Number
	if err := json.Unmarshal(data, &n); err != nil {
		return "", err
	}
	return n.String(), nil
}

func (id BookingID) String() string {
	return string(id)
}

// BookingDraft is the booking being submitted from the form
type BookingDraft struct {
	HotelID       string    `json:"hotelId" validate:"required"`
	CustomerName  string    `json:"customerName" validate:"required,max=200"`
	CustomerEmail string    `json:"customerEmail" validate:"required,email"`
	CustomerPhone string    `json:"customerPhone,omitempty" validate:"omitempty,max=32"`
	CheckIn       string    `json:"checkIn" validate:"required,datetime=2006-01-02"`
	CheckOut      string    `json:"checkOut" validate:"required,datetime=2006-01-02"`
	Guests        int       `json:"guests" validate:"required,min=1,max=20"`
	UserID        string    `json:"userId" validate:"required"`
	SubmittedAt   time.Time `json:"-"`
}

// Validate checks rules the struct tags cannot express
func (d BookingDraft) Validate() error {
	in, err := time.Parse(DateLayout, d.CheckIn)
	if err != nil {
		return nil // reported by the tag validation
	}
	out, err := time.Parse(DateLayout, d.CheckOut)
	if err != nil {
		return nil
	}
	if !out.After(in) {
		return errors.New("checkOut must be after checkIn")
	}
	return nil
}

// CreatedBooking is the gateway response to a booking creation
type CreatedBooking struct {
	BookingID BookingID `json:"bookingId"`
	Status    string    `json:"status"`
}

// ActiveBooking is the single booking awaiting confirmation in a session
type ActiveBooking struct {
	BookingID          BookingID
	Draft              BookingDraft
	FinalPrice         *float64
	DiscountPercentage float64
	Recommendations    []string
	RejectionReason    string
	RegisteredAt       time.Time
}

// HasFinalPrice reports whether a price has been recorded on the booking
func (b *ActiveBooking) HasFinalPrice() bool {
	return b != nil && b.FinalPrice != nil
}

// Clone returns a deep copy safe to hand to readers
func (b *ActiveBooking) Clone() *ActiveBooking {
	if b == nil {
		return nil
	}
	c := *b
	if b.FinalPrice != nil {
		p := *b.FinalPrice
		c.FinalPrice = &p
	}
	c.Recommendations = append([]string(nil), b.Recommendations...)
	return &c
}

// BookingSnapshot is the booking state returned by GET /bookings/{id}
type BookingSnapshot struct {
	BookingID          BookingID
	HotelID            string
	Status             string
	CustomerName       string
	CustomerEmail      string
	CheckIn            string
	CheckOut           string
	Guests             int
	FinalPrice         float64
	DiscountPercentage float64
	Recommendations    []string
	RejectionReason    string
}

// IsResolved reports whether the snapshot carries a usable outcome
func (s BookingSnapshot) IsResolved() bool {
	switch strings.ToUpper(s.Status) {
	case StatusConfirmed:
		return s.FinalPrice > 0
	case StatusRejected:
		return true
	}
	return false
}

// PaymentRequest is the body of POST /bookings/pay
type PaymentRequest struct {
	BookingID     BookingID `json:"bookingId"`
	PaymentMethod string    `json:"paymentMethod"`
}

// PaymentResult is the gateway response to a payment
type PaymentResult struct {
	BookingID          BookingID `json:"bookingId"`
	FinalPrice         float64   `json:"finalPrice"`
	DiscountPercentage float64   `json:"discountPercentage"`
}

// Hotel is a hotel search result
type Hotel struct {
	HotelID       string  `json:"hotelId"`
	Name          string  `json:"name"`
	City          string  `json:"city"`
	Address       string  `json:"address"`
	PricePerNight float64 `json:"pricePerNight"`
}

// HotelSearch holds the hotel search parameters
type HotelSearch struct {
	City     string
	CheckIn  string
	CheckOut string
	Guests   int
}
