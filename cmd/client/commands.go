package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"os"

	"hotel-booking-client/internal/domain/entity"
)

var errTimedOut = errors.New("booking confirmation timed out")

const maxPaymentAttempts = 3

func (a *app) runBook(ctx context.Context, args []string, sigChan <-chan os.Signal) error {
	fs := flag.NewFlagSet("book", flag.ExitOnError)
	hotelID := fs.String("hotel", "", "hotel id")
	name := fs.String("name", "", "customer name")
	email := fs.String("email", "", "customer email")
	phone := fs.String("phone", "", "customer phone")
	checkIn := fs.String("check-in", "", "check-in date (YYYY-MM-DD)")
	checkOut := fs.String("check-out", "", "check-out date (YYYY-MM-DD)")
	guests := fs.Int("guests", 1, "number of guests")
	payMethod := fs.String("pay-method", "", "pay right after confirmation with this method (e.g. CREDIT_CARD)")
	rechecks := fs.Int("recheck", 0, "status checks to retry after a confirmation timeout")
	_ = fs.Parse(args)

	f := a.newFlow()
	defer f.Close()

	if err := f.transport.Connect(ctx, a.session.UserID()); err != nil {
		return err
	}

	draft := entity.BookingDraft{
		HotelID:       *hotelID,
		CustomerName:  *name,
		CustomerEmail: *email,
		CustomerPhone: *phone,
		CheckIn:       *checkIn,
		CheckOut:      *checkOut,
		Guests:        *guests,
		UserID:        a.session.UserID(),
	}
	if _, err := f.coordinator.Submit(ctx, draft); err != nil {
		return err
	}

	payAttempts := 0
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()

		case sig := <-sigChan:
			a.log.Info("Received signal", "signal", sig)
			err := f.coordinator.Abandon(false)
			if errors.Is(err, entity.ErrAbandonNeedsConfirmation) {
				a.presenter.Printf("Booking is still waiting for confirmation. Press Ctrl-C again to abandon it.\n")
				select {
				case <-sigChan:
					return f.coordinator.Abandon(true)
				case state := <-a.presenter.States():
					if done, err := a.onBookState(ctx, f, state, *payMethod, rechecks, &payAttempts); done {
						return err
					}
				}
				continue
			}
			return err

		case state := <-a.presenter.States():
			if done, err := a.onBookState(ctx, f, state, *payMethod, rechecks, &payAttempts); done {
				return err
			}
		}
	}
}

// onBookState reacts to a flow state change and reports whether the book command is finished
func (a *app) onBookState(ctx context.Context, f *flow, state entity.FlowState, payMethod string, rechecks *int, payAttempts *int) (bool, error) {
	switch state {
	case entity.FlowConfirmed:
		if payMethod == "" {
			return true, nil
		}
		if *payAttempts >= maxPaymentAttempts {
			return true, fmt.Errorf("payment failed after %d attempts", *payAttempts)
		}
		*payAttempts++
		if _, err := f.coordinator.ConfirmPayment(ctx, payMethod); err != nil {
			// the flow returns to confirmed after the retry delay
			a.log.Warn("Payment attempt failed", "attempt", *payAttempts, "error", err)
		}
		return false, nil

	case entity.FlowPaid:
		return true, nil

	case entity.FlowTimedOut:
		if *rechecks <= 0 {
			return true, errTimedOut
		}
		*rechecks--
		if err := f.coordinator.CheckNow(ctx); err != nil {
			return true, err
		}
		return false, nil

	case entity.FlowIdle:
		// closed after a rejection or abandoned
		return true, nil
	}
	return false, nil
}

func (a *app) runStatus(ctx context.Context, args []string) error {
	fs := flag.NewFlagSet("status", flag.ExitOnError)
	id := fs.String("id", "", "booking id")
	_ = fs.Parse(args)

	if *id == "" {
		return errors.New("-id is required")
	}

	snapshot, err := a.gateway.GetBooking(ctx, entity.BookingID(*id))
	if err != nil {
		a.presenter.ShowError(entity.UserMessage(err))
		return err
	}
	a.presenter.PrintSnapshot(snapshot)

	if a.outcomes != nil {
		outcome, err := a.outcomes.FindByBookingID(ctx, *id)
		if err != nil {
			a.log.Warn("Failed to read outcome journal", "bookingId", *id, "error", err)
		} else if outcome != nil {
			a.presenter.Printf("  Recorded:  %s via %s at %s\n", outcome.Outcome, outcome.ResolvedBy, outcome.ResolvedAt.Format("2006-01-02 15:04:05"))
		}
	}
	return nil
}

func (a *app) runCancel(ctx context.Context, args []string) error {
	fs := flag.NewFlagSet("cancel", flag.ExitOnError)
	id := fs.String("id", "", "booking id")
	_ = fs.Parse(args)

	if *id == "" {
		return errors.New("-id is required")
	}

	if err := a.gateway.CancelBooking(ctx, entity.BookingID(*id)); err != nil {
		a.presenter.ShowError(entity.UserMessage(err))
		return err
	}
	a.presenter.Printf("Booking %s cancelled.\n", *id)
	return nil
}

func (a *app) runSearch(ctx context.Context, args []string) error {
	fs := flag.NewFlagSet("search", flag.ExitOnError)
	city := fs.String("city", "", "city")
	checkIn := fs.String("check-in", "", "check-in date (YYYY-MM-DD)")
	checkOut := fs.String("check-out", "", "check-out date (YYYY-MM-DD)")
	guests := fs.Int("guests", 0, "number of guests")
	_ = fs.Parse(args)

	hotels, err := a.gateway.SearchHotels(ctx, entity.HotelSearch{
		City:     *city,
		CheckIn:  *checkIn,
		CheckOut: *checkOut,
		Guests:   *guests,
	})
	if err != nil {
		a.presenter.ShowError(entity.UserMessage(err))
		return err
	}
	a.presenter.PrintHotels(hotels)
	return nil
}

func (a *app) runHistory(ctx context.Context, args []string) error {
	fs := flag.NewFlagSet("history", flag.ExitOnError)
	limit := fs.Int("limit", 10, "number of outcomes to show")
	_ = fs.Parse(args)

	if err := a.requireOutcomes(); err != nil {
		return err
	}
	outcomes, err := a.outcomes.FindRecentByUser(ctx, a.session.UserID(), *limit)
	if err != nil {
		return fmt.Errorf("failed to read outcome journal: %w", err)
	}
	a.presenter.PrintOutcomes(outcomes)
	return nil
}
