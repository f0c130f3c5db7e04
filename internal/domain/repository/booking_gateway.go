package repository

import (
	"context"

	"hotel-booking-client/internal/domain/entity"
)

// BookingGateway defines the booking backend HTTP API used by the client
type BookingGateway interface {
	CreateBooking(ctx context.Context, draft entity.BookingDraft) (*entity.CreatedBooking, error)
	GetBooking(ctx context.Context, bookingID entity.BookingID) (*entity.BookingSnapshot, error)
	Pay(ctx context.Context, req entity.PaymentRequest) (*entity.PaymentResult, error)
	CancelBooking(ctx context.Context, bookingID entity.BookingID) error
	SearchHotels(ctx context.Context, search entity.HotelSearch) ([]entity.Hotel, error)
}
