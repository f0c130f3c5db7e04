package usecase

import (
	"context"
	"strings"
	"sync"
	"time"

	"hotel-booking-client/internal/domain/entity"
	"hotel-booking-client/internal/domain/repository"
	"hotel-booking-client/pkg/logger"
	"hotel-booking-client/pkg/metrics"

	"github.com/jonboulle/clockwork"
)

// Poll defaults: one check every 2s, 60 checks in total
const (
	DefaultPollInterval    = 2 * time.Second
	DefaultPollMaxAttempts = 60
)

// PollHandler receives the results of a poll loop
type PollHandler interface {
	PollProgress(bookingID entity.BookingID, attempt, maxAttempts int)
	PollResolved(msg entity.BookingUpdateMessage)
	PollExhausted(bookingID entity.BookingID)
}

// StatusPoller polls the booking status endpoint when the push channel is late
type StatusPoller struct {
	gateway     repository.BookingGateway
	handler     PollHandler
	clock       clockwork.Clock
	interval    time.Duration
	maxAttempts int
	logger      logger.Logger
	metrics     *metrics.Metrics

	mu     sync.Mutex
	runID  uint64
	cancel context.CancelFunc
}

// NewStatusPoller creates a poller; nothing runs until Start
func NewStatusPoller(
	gateway repository.BookingGateway,
	handler PollHandler,
	clock clockwork.Clock,
	interval time.Duration,
	maxAttempts int,
	logger logger.Logger,
	metrics *metrics.Metrics,
) *StatusPoller {
	if interval <= 0 {
		interval = DefaultPollInterval
	}
	if maxAttempts <= 0 {
		maxAttempts = DefaultPollMaxAttempts
	}
	return &StatusPoller{
		gateway:     gateway,
		handler:     handler,
		clock:       clock,
		interval:    interval,
		maxAttempts: maxAttempts,
		logger:      logger,
		metrics:     metrics,
	}
}

// MaxAttempts returns the attempt ceiling
func (p *StatusPoller) MaxAttempts() int {
	return p.maxAttempts
}

// Start begins polling bookingID, replacing any loop already running.
// The ticker is created before Start returns.
func (p *StatusPoller) Start(bookingID entity.BookingID) {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.cancel != nil {
		p.cancel()
	}
	ctx, cancel := context.WithCancel(context.Background())
	p.runID++
	p.cancel = cancel

	ticker := p.clock.NewTicker(p.interval)
	p.logger.Info("Starting status poll", "bookingId", bookingID, "interval", p.interval.String(), "maxAttempts", p.maxAttempts)

	go p.run(ctx, p.runID, ticker, bookingID)
}

// Stop cancels the running loop. It does not wait for an in-flight check.
func (p *StatusPoller) Stop() {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.cancel != nil {
		p.cancel()
		p.cancel = nil
	}
}

// Running reports whether a loop is active
func (p *StatusPoller) Running() bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.cancel != nil
}

// CheckOnce performs a single status check and returns the synthesized update
// when the booking is resolved.
func (p *StatusPoller) CheckOnce(ctx context.Context, bookingID entity.BookingID) (entity.BookingUpdateMessage, bool, error) {
	snapshot, err := p.gateway.GetBooking(ctx, bookingID)
	if err != nil {
		return entity.BookingUpdateMessage{}, false, err
	}
	if !snapshot.IsResolved() {
		return entity.BookingUpdateMessage{}, false, nil
	}
	return UpdateFromSnapshot(snapshot, p.clock.Now()), true, nil
}

func (p *StatusPoller) run(ctx context.Context, runID uint64, ticker clockwork.Ticker, bookingID entity.BookingID) {
	defer ticker.Stop()

	for attempt := 1; attempt <= p.maxAttempts; attempt++ {
		select {
		case <-ctx.Done():
			return
		case <-ticker.Chan():
		}

		p.handler.PollProgress(bookingID, attempt, p.maxAttempts)
		p.metrics.PollAttempts.Inc()

		msg, resolved, err := p.CheckOnce(ctx, bookingID)
		if ctx.Err() != nil {
			return
		}
		if err != nil {
			p.logger.Warn("Status check failed", "bookingId", bookingID, "attempt", attempt, "error", err)
			p.metrics.ErrorsCount.WithLabelValues("status_poll").Inc()
			continue
		}
		if resolved {
			p.logger.Info("Status poll resolved booking", "bookingId", bookingID, "status", msg.Status, "attempt", attempt)
			p.finish(runID)
			p.handler.PollResolved(msg)
			return
		}
	}

	if ctx.Err() != nil {
		return
	}
	p.logger.Warn("Status poll exhausted", "bookingId", bookingID, "attempts", p.maxAttempts)
	p.finish(runID)
	p.handler.PollExhausted(bookingID)
}

func (p *StatusPoller) finish(runID uint64) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.runID == runID && p.cancel != nil {
		p.cancel()
		p.cancel = nil
	}
}

// UpdateFromSnapshot turns a resolved booking snapshot into a booking update
func UpdateFromSnapshot(snapshot *entity.BookingSnapshot, now time.Time) entity.BookingUpdateMessage {
	return entity.BookingUpdateMessage{
		BookingID:          snapshot.BookingID,
		Status:             strings.ToUpper(snapshot.Status),
		HotelID:            entity.HotelRef(snapshot.HotelID),
		FinalPrice:         snapshot.FinalPrice,
		DiscountPercentage: snapshot.DiscountPercentage,
		Recommendations:    snapshot.Recommendations,
		RejectionReason:    snapshot.RejectionReason,
		Timestamp:          now.UnixMilli(),
	}
}
