package console

import (
	"fmt"
	"io"
	"strings"
	"sync"

	"hotel-booking-client/internal/domain/entity"
)

// Presenter prints the booking flow to a terminal and publishes flow state
// changes on States for the command loop.
type Presenter struct {
	mu     sync.Mutex
	out    io.Writer
	states chan entity.FlowState
}

// NewPresenter creates a presenter writing to out
func NewPresenter(out io.Writer) *Presenter {
	return &Presenter{
		out:    out,
		states: make(chan entity.FlowState, 32),
	}
}

// States delivers every flow state change. Changes are dropped when nobody reads.
func (p *Presenter) States() <-chan entity.FlowState {
	return p.states
}

func (p *Presenter) FlowStateChanged(state entity.FlowState, booking *entity.ActiveBooking) {
	switch state {
	case entity.FlowSubmitting:
		p.printf("Submitting booking...\n")
	case entity.FlowAwaitingConfirmation:
		p.printf("Booking %s received. Waiting for confirmation...\n", bookingRef(booking))
	case entity.FlowPollingFallback:
		p.printf("Checking booking %s status with the server...\n", bookingRef(booking))
	case entity.FlowPaying:
		p.printf("Processing payment for booking %s...\n", bookingRef(booking))
	}

	select {
	case p.states <- state:
	default:
	}
}

func (p *Presenter) EmphasisChanged(bookingID entity.BookingID, emphasis entity.Emphasis) {
	switch emphasis {
	case entity.EmphasisSlow:
		p.printf("Booking %s: processing is slow, please do not close the client.\n", bookingID)
	case entity.EmphasisCritical:
		p.printf("Still no confirmation for booking %s. Do not close the client, checking status directly.\n", bookingID)
	}
}

func (p *Presenter) PollProgress(bookingID entity.BookingID, attempt, maxAttempts int) {
	p.printf("  status check %d/%d for booking %s\n", attempt, maxAttempts, bookingID)
}

func (p *Presenter) BookingConfirmed(booking *entity.ActiveBooking) {
	var b strings.Builder
	fmt.Fprintf(&b, "Booking %s confirmed!\n", booking.BookingID)
	if booking.HasFinalPrice() {
		fmt.Fprintf(&b, "  Final price: $%.2f", *booking.FinalPrice)
		if booking.DiscountPercentage > 0 {
			fmt.Fprintf(&b, " (%s%% discount applied)", formatPercent(booking.DiscountPercentage))
		}
		b.WriteString("\n")
	}
	if len(booking.Recommendations) > 0 {
		b.WriteString("  You might also like:\n")
		for _, r := range booking.Recommendations {
			fmt.Fprintf(&b, "    - %s\n", r)
		}
	}
	p.printf("%s", b.String())
}

func (p *Presenter) BookingRejected(bookingID entity.BookingID, reason string) {
	if reason == "" {
		p.printf("Booking %s was rejected.\n", bookingID)
		return
	}
	p.printf("Booking %s was rejected: %s\n", bookingID, reason)
}

func (p *Presenter) BookingTimedOut(bookingID entity.BookingID) {
	p.printf("Could not confirm booking %s in time. Check again later with: status -id %s\n", bookingID, bookingID)
}

func (p *Presenter) PaymentCompleted(booking *entity.ActiveBooking, result *entity.PaymentResult) {
	p.printf("Payment completed for booking %s. Charged $%.2f\n", result.BookingID, result.FinalPrice)
}

func (p *Presenter) ShowError(message string) {
	p.printf("Error: %s\n", strings.ReplaceAll(message, "\n", "\n  "))
}

func (p *Presenter) ResetForm() {
	p.printf("Ready for a new booking.\n")
}

func (p *Presenter) ConnectionStateChanged(state entity.ConnectionState) {
	p.printf("[push] %s\n", state)
}

func (p *Presenter) ConnectionLost(attempts int) {
	p.printf("[push] real-time updates unavailable after %d attempts. Status checks will be used.\n", attempts)
}

// PrintSnapshot prints a booking fetched with the status command
func (p *Presenter) PrintSnapshot(s *entity.BookingSnapshot) {
	var b strings.Builder
	fmt.Fprintf(&b, "Booking %s\n", s.BookingID)
	fmt.Fprintf(&b, "  Status:    %s\n", s.Status)
	if s.HotelID != "" {
		fmt.Fprintf(&b, "  Hotel:     %s\n", s.HotelID)
	}
	if s.CheckIn != "" {
		fmt.Fprintf(&b, "  Stay:      %s to %s, %d guest(s)\n", s.CheckIn, s.CheckOut, s.Guests)
	}
	if s.FinalPrice > 0 {
		fmt.Fprintf(&b, "  Price:     $%.2f", s.FinalPrice)
		if s.DiscountPercentage > 0 {
			fmt.Fprintf(&b, " (%s%% discount)", formatPercent(s.DiscountPercentage))
		}
		b.WriteString("\n")
	}
	if s.RejectionReason != "" {
		fmt.Fprintf(&b, "  Reason:    %s\n", s.RejectionReason)
	}
	p.printf("%s", b.String())
}

// PrintHotels prints hotel search results
func (p *Presenter) PrintHotels(hotels []entity.Hotel) {
	if len(hotels) == 0 {
		p.printf("No hotels found.\n")
		return
	}
	var b strings.Builder
	for _, h := range hotels {
		fmt.Fprintf(&b, "%-10s %-30s %-15s $%.2f/night\n", h.HotelID, h.Name, h.City, h.PricePerNight)
	}
	p.printf("%s", b.String())
}

// PrintOutcomes prints the journal of past flows
func (p *Presenter) PrintOutcomes(outcomes []*entity.FlowOutcome) {
	if len(outcomes) == 0 {
		p.printf("No recorded bookings.\n")
		return
	}
	var b strings.Builder
	for _, o := range outcomes {
		fmt.Fprintf(&b, "%s  %-10s %-9s via %s", o.ResolvedAt.Format("2006-01-02 15:04"), o.BookingID, o.Outcome, o.ResolvedBy)
		if o.FinalPrice != nil {
			fmt.Fprintf(&b, "  $%.2f", *o.FinalPrice)
		}
		b.WriteString("\n")
	}
	p.printf("%s", b.String())
}

// Printf writes a free-form line
func (p *Presenter) Printf(format string, args ...interface{}) {
	p.printf(format, args...)
}

func (p *Presenter) printf(format string, args ...interface{}) {
	p.mu.Lock()
	defer p.mu.Unlock()
	fmt.Fprintf(p.out, format, args...)
}

func bookingRef(b *entity.ActiveBooking) string {
	if b == nil || b.BookingID == "" {
		return "(pending)"
	}
	return b.BookingID.String()
}

func formatPercent(v float64) string {
	s := fmt.Sprintf("%.2f", v)
	s = strings.TrimRight(s, "0")
	return strings.TrimRight(s, ".")
}
