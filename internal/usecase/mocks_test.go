package usecase

import (
	"context"
	"fmt"
	"sync"
	"testing"
	"time"

	"hotel-booking-client/internal/domain/entity"
	"hotel-booking-client/pkg/logger"
	"hotel-booking-client/pkg/metrics"

	"github.com/jonboulle/clockwork"
	"github.com/prometheus/client_golang/prometheus"
)

var testStart = time.Date(2026, 3, 1, 9, 0, 0, 0, time.UTC)

type fakeClock interface {
	clockwork.Clock
	Advance(d time.Duration)
}

// MockBookingGateway is a scripted BookingGateway
type MockBookingGateway struct {
	mu          sync.Mutex
	createFn    func(draft entity.BookingDraft) (*entity.CreatedBooking, error)
	getFn       func(call int, id entity.BookingID) (*entity.BookingSnapshot, error)
	payFn       func(call int, req entity.PaymentRequest) (*entity.PaymentResult, error)
	drafts      []entity.BookingDraft
	getCalls    int
	payCalls    int
	cancelCalls int
}

func (m *MockBookingGateway) CreateBooking(ctx context.Context, draft entity.BookingDraft) (*entity.CreatedBooking, error) {
	m.mu.Lock()
	m.drafts = append(m.drafts, draft)
	fn := m.createFn
	m.mu.Unlock()
	if fn == nil {
		return &entity.CreatedBooking{BookingID: "B1", Status: entity.StatusPending}, nil
	}
	return fn(draft)
}

func (m *MockBookingGateway) GetBooking(ctx context.Context, id entity.BookingID) (*entity.BookingSnapshot, error) {
	m.mu.Lock()
	m.getCalls++
	call := m.getCalls
	fn := m.getFn
	m.mu.Unlock()
	if fn == nil {
		return &entity.BookingSnapshot{BookingID: id, Status: entity.StatusPending}, nil
	}
	return fn(call, id)
}

func (m *MockBookingGateway) Pay(ctx context.Context, req entity.PaymentRequest) (*entity.PaymentResult, error) {
	m.mu.Lock()
	m.payCalls++
	call := m.payCalls
	fn := m.payFn
	m.mu.Unlock()
	if fn == nil {
		return &entity.PaymentResult{BookingID: req.BookingID}, nil
	}
	return fn(call, req)
}

func (m *MockBookingGateway) CancelBooking(ctx context.Context, id entity.BookingID) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.cancelCalls++
	return nil
}

func (m *MockBookingGateway) SearchHotels(ctx context.Context, search entity.HotelSearch) ([]entity.Hotel, error) {
	return nil, nil
}

func (m *MockBookingGateway) GetCalls() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.getCalls
}

func (m *MockBookingGateway) CreateCalls() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.drafts)
}

// MockOutcomeRepository collects recorded outcomes
type MockOutcomeRepository struct {
	mu       sync.Mutex
	outcomes []entity.FlowOutcome
}

func (m *MockOutcomeRepository) Record(ctx context.Context, outcome *entity.FlowOutcome) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.outcomes = append(m.outcomes, *outcome)
	return nil
}

func (m *MockOutcomeRepository) FindByBookingID(ctx context.Context, bookingID string) (*entity.FlowOutcome, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for i := len(m.outcomes) - 1; i >= 0; i-- {
		if m.outcomes[i].BookingID == bookingID {
			o := m.outcomes[i]
			return &o, nil
		}
	}
	return nil, nil
}

func (m *MockOutcomeRepository) FindRecentByUser(ctx context.Context, userID string, limit int) ([]*entity.FlowOutcome, error) {
	return nil, nil
}

func (m *MockOutcomeRepository) Outcomes() []string {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]string, 0, len(m.outcomes))
	for _, o := range m.outcomes {
		out = append(out, o.Outcome+"/"+o.ResolvedBy)
	}
	return out
}

// RecordingPresenter records every presenter call
type RecordingPresenter struct {
	mu        sync.Mutex
	states    []entity.FlowState
	emphasis  []entity.Emphasis
	progress  []string
	confirmed []*entity.ActiveBooking
	rejected  []string
	timedOut  []entity.BookingID
	paid      []*entity.PaymentResult
	errors    []string
	resets    int
}

func (p *RecordingPresenter) FlowStateChanged(state entity.FlowState, booking *entity.ActiveBooking) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.states = append(p.states, state)
}

func (p *RecordingPresenter) EmphasisChanged(bookingID entity.BookingID, emphasis entity.Emphasis) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.emphasis = append(p.emphasis, emphasis)
}

func (p *RecordingPresenter) PollProgress(bookingID entity.BookingID, attempt, maxAttempts int) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.progress = append(p.progress, fmt.Sprintf("%d/%d", attempt, maxAttempts))
}

func (p *RecordingPresenter) BookingConfirmed(booking *entity.ActiveBooking) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.confirmed = append(p.confirmed, booking)
}

func (p *RecordingPresenter) BookingRejected(bookingID entity.BookingID, reason string) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.rejected = append(p.rejected, reason)
}

func (p *RecordingPresenter) BookingTimedOut(bookingID entity.BookingID) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.timedOut = append(p.timedOut, bookingID)
}

func (p *RecordingPresenter) PaymentCompleted(booking *entity.ActiveBooking, result *entity.PaymentResult) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.paid = append(p.paid, result)
}

func (p *RecordingPresenter) ShowError(message string) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.errors = append(p.errors, message)
}

func (p *RecordingPresenter) ResetForm() {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.resets++
}

func (p *RecordingPresenter) Errors() []string {
	p.mu.Lock()
	defer p.mu.Unlock()
	return append([]string(nil), p.errors...)
}

func (p *RecordingPresenter) Emphasis() []entity.Emphasis {
	p.mu.Lock()
	defer p.mu.Unlock()
	return append([]entity.Emphasis(nil), p.emphasis...)
}

func (p *RecordingPresenter) Progress() []string {
	p.mu.Lock()
	defer p.mu.Unlock()
	return append([]string(nil), p.progress...)
}

func (p *RecordingPresenter) Confirmed() []*entity.ActiveBooking {
	p.mu.Lock()
	defer p.mu.Unlock()
	return append([]*entity.ActiveBooking(nil), p.confirmed...)
}

func (p *RecordingPresenter) Rejected() []string {
	p.mu.Lock()
	defer p.mu.Unlock()
	return append([]string(nil), p.rejected...)
}

func (p *RecordingPresenter) TimedOut() []entity.BookingID {
	p.mu.Lock()
	defer p.mu.Unlock()
	return append([]entity.BookingID(nil), p.timedOut...)
}

func (p *RecordingPresenter) Resets() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.resets
}

func newTestMetrics() *metrics.Metrics {
	return metrics.NewMetricsWithRegistry("test", prometheus.NewRegistry())
}

type coordinatorFixture struct {
	clock     fakeClock
	gateway   *MockBookingGateway
	outcomes  *MockOutcomeRepository
	presenter *RecordingPresenter
	buffer    *PendingBuffer
	metrics   *metrics.Metrics
	coord     *Coordinator
}

func newCoordinatorFixture(t *testing.T) *coordinatorFixture {
	t.Helper()

	f := &coordinatorFixture{
		clock:     clockwork.NewFakeClockAt(testStart),
		gateway:   &MockBookingGateway{},
		outcomes:  &MockOutcomeRepository{},
		presenter: &RecordingPresenter{},
		metrics:   newTestMetrics(),
	}
	log := logger.NewNopLogger()
	f.buffer = NewPendingBuffer(DefaultMessageRetention, f.clock, log, f.metrics)
	f.coord = NewCoordinator(
		f.gateway,
		f.outcomes,
		f.buffer,
		&Session{userID: "user_1700000000000_abc123def"},
		f.presenter,
		f.clock,
		DefaultCoordinatorConfig(),
		log,
		f.metrics,
	)
	t.Cleanup(f.coord.Close)
	return f
}

func (f *coordinatorFixture) state() entity.FlowState {
	return f.coord.Snapshot().State
}

func validDraft() entity.BookingDraft {
	return entity.BookingDraft{
		HotelID:       "H1",
		CustomerName:  "Jane Doe",
		CustomerEmail: "jane@example.com",
		CheckIn:       "2026-03-10",
		CheckOut:      "2026-03-13",
		Guests:        2,
	}
}

func update(id entity.BookingID, status string, at time.Time) entity.BookingUpdateMessage {
	return entity.BookingUpdateMessage{
		BookingID: id,
		Status:    status,
		Timestamp: at.UnixMilli(),
	}
}
