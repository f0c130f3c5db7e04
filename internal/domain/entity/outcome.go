// internal/domain/entity/outcome.go
package entity

import (
	"time"
)

// Flow outcomes recorded in the journal
const (
	OutcomeConfirmed = "CONFIRMED"
	OutcomeRejected  = "REJECTED"
	OutcomeTimedOut  = "TIMED_OUT"
	OutcomePaid      = "PAID"
	OutcomeAbandoned = "ABANDONED"
)

// Resolution sources
const (
	ResolvedByPush = "push"
	ResolvedByPoll = "poll"
	ResolvedByUser = "user"
)

// FlowOutcome records how a booking confirmation flow ended
type FlowOutcome struct {
	ID                 string    `bson:"_id,omitempty"`
	BookingID          string    `bson:"bookingId"`
	UserID             string    `bson:"userId"`
	HotelID            string    `bson:"hotelId"`
	Outcome            string    `bson:"outcome"`
	ResolvedBy         string    `bson:"resolvedBy"`
	FinalPrice         *float64  `bson:"finalPrice,omitempty"`
	DiscountPercentage float64   `bson:"discountPercentage"`
	Recommendations    []string  `bson:"recommendations,omitempty"`
	Reason             string    `bson:"reason,omitempty"`
	SubmittedAt        time.Time `bson:"submittedAt"`
	ResolvedAt         time.Time `bson:"resolvedAt"`
	CreatedAt          time.Time `bson:"createdAt"`
	UpdatedAt          time.Time `bson:"updatedAt"`
}
