package usecase

import (
	"context"
	"errors"
	"fmt"
	"reflect"
	"strings"
	"sync"
	"time"

	"hotel-booking-client/internal/domain/entity"
	"hotel-booking-client/internal/domain/repository"
	"hotel-booking-client/pkg/logger"
	"hotel-booking-client/pkg/metrics"
	"hotel-booking-client/pkg/utils"

	"github.com/go-playground/validator/v10"
	"github.com/jonboulle/clockwork"
)

// CoordinatorConfig holds the timing policy of the confirmation flow
type CoordinatorConfig struct {
	SlowNoticeAfter     time.Duration
	CriticalNoticeAfter time.Duration
	MessageRetention    time.Duration
	RejectCloseDelay    time.Duration
	PaymentRetryDelay   time.Duration
	PollInterval        time.Duration
	PollMaxAttempts     int
}

// DefaultCoordinatorConfig returns the production timings
func DefaultCoordinatorConfig() CoordinatorConfig {
	return CoordinatorConfig{
		SlowNoticeAfter:     10 * time.Second,
		CriticalNoticeAfter: 30 * time.Second,
		MessageRetention:    DefaultMessageRetention,
		RejectCloseDelay:    2 * time.Second,
		PaymentRetryDelay:   2 * time.Second,
		PollInterval:        DefaultPollInterval,
		PollMaxAttempts:     DefaultPollMaxAttempts,
	}
}

// FlowSnapshot is a read-only copy of the coordinator state
type FlowSnapshot struct {
	State    entity.FlowState
	Emphasis entity.Emphasis
	Booking  *entity.ActiveBooking
}

// Coordinator drives one booking at a time from submission to a terminal state.
// It owns the active booking, the escalation timers and the status poller.
type Coordinator struct {
	gateway   repository.BookingGateway
	outcomes  repository.OutcomeRepository
	buffer    *PendingBuffer
	poller    *StatusPoller
	session   *Session
	presenter Presenter
	clock     clockwork.Clock
	cfg       CoordinatorConfig
	validate  *validator.Validate
	logger    logger.Logger
	metrics   *metrics.Metrics

	mu       sync.Mutex
	gen      uint64
	state    entity.FlowState
	emphasis entity.Emphasis
	active   *entity.ActiveBooking
	pending  []func()

	slowTimer     clockwork.Timer
	criticalTimer clockwork.Timer
	closeTimer    clockwork.Timer
	revertTimer   clockwork.Timer

	records sync.WaitGroup
}

// NewCoordinator creates a coordinator in the idle state. outcomes may be nil.
func NewCoordinator(
	gateway repository.BookingGateway,
	outcomes repository.OutcomeRepository,
	buffer *PendingBuffer,
	session *Session,
	presenter Presenter,
	clock clockwork.Clock,
	cfg CoordinatorConfig,
	logger logger.Logger,
	metrics *metrics.Metrics,
) *Coordinator {
	c := &Coordinator{
		gateway:   gateway,
		outcomes:  outcomes,
		buffer:    buffer,
		session:   session,
		presenter: presenter,
		clock:     clock,
		cfg:       cfg,
		validate:  newDraftValidator(),
		logger:    logger,
		metrics:   metrics,
		state:     entity.FlowIdle,
	}
	c.poller = NewStatusPoller(gateway, c, clock, cfg.PollInterval, cfg.PollMaxAttempts, logger.With("component", "status_poller"), metrics)
	return c
}

// Submit sends draft to the gateway and starts waiting for its confirmation.
// It fails with entity.ErrFlowInProgress while another booking is unresolved.
func (c *Coordinator) Submit(ctx context.Context, draft entity.BookingDraft) (entity.BookingID, error) {
	if draft.UserID == "" {
		draft.UserID = c.session.UserID()
	}
	if err := c.validateDraft(draft); err != nil {
		c.presenter.ShowError(entity.UserMessage(err))
		return "", err
	}

	c.mu.Lock()
	if !c.state.AcceptsSubmission() {
		state := c.state
		c.unlock()
		c.logger.Warn("Rejected submission while a booking is in progress", "state", state)
		return "", entity.ErrFlowInProgress
	}
	c.cancelFlowLocked()
	c.gen++
	gen := c.gen
	c.active = nil
	c.emphasis = entity.EmphasisNormal
	draft.SubmittedAt = c.clock.Now()
	c.setStateLocked(entity.FlowSubmitting)
	c.unlock()

	c.logger.Info("Submitting booking",
		"hotelId", draft.HotelID,
		"customerEmail", utils.MaskEmail(draft.CustomerEmail),
		"checkIn", draft.CheckIn,
		"checkOut", draft.CheckOut)

	created, err := c.gateway.CreateBooking(ctx, draft)
	if err == nil && created.BookingID == "" {
		err = errors.New("gateway returned no booking id")
	}

	c.mu.Lock()
	if c.gen != gen {
		c.unlock()
		if err == nil {
			c.logger.Warn("Booking created after the flow was abandoned", "bookingId", created.BookingID)
		}
		return "", entity.ErrFlowAbandoned
	}
	if err != nil {
		c.setStateLocked(entity.FlowIdle)
		msg := entity.UserMessage(err)
		c.emit(func() { c.presenter.ShowError(msg) })
		c.metrics.ErrorsCount.WithLabelValues("create_booking").Inc()
		c.unlock()
		c.logger.Error("Failed to create booking", "hotelId", draft.HotelID, "error", err)
		return "", fmt.Errorf("failed to create booking: %w", err)
	}

	bookingID := created.BookingID
	c.active = &entity.ActiveBooking{
		BookingID:    bookingID,
		Draft:        draft,
		RegisteredAt: c.clock.Now(),
	}
	c.setStateLocked(entity.FlowAwaitingConfirmation)
	c.scheduleEscalationLocked(gen, draft.SubmittedAt)
	c.metrics.BookingsSubmitted.Inc()
	c.unlock()

	c.logger.Info("Booking registered, awaiting confirmation", "bookingId", bookingID)

	// Updates may have arrived before the gateway answered. Discarded ones
	// are consumed and the next buffered update is tried.
	for {
		msg, ok := c.buffer.Drain(bookingID)
		if !ok {
			break
		}
		c.mu.Lock()
		if c.gen != gen {
			c.unlock()
			break
		}
		result := c.applyLocked(msg, entity.ResolvedByPush)
		c.unlock()
		c.logger.Info("Offered buffered update", "bookingId", bookingID, "status", msg.Status, "result", result.String())
		if result != ApplyDiscarded {
			break
		}
	}

	return bookingID, nil
}

// TryApply offers a pushed booking update to the active booking
func (c *Coordinator) TryApply(msg entity.BookingUpdateMessage) ApplyResult {
	c.mu.Lock()
	defer c.unlock()
	return c.applyLocked(msg, entity.ResolvedByPush)
}

// Abandon closes the current flow. Without confirmed it refuses to drop a
// booking that has no final price yet.
func (c *Coordinator) Abandon(confirmed bool) error {
	c.mu.Lock()
	defer c.unlock()

	if c.state == entity.FlowIdle && c.active == nil {
		return nil
	}
	unpriced := !c.active.HasFinalPrice() && c.state != entity.FlowRejected
	if unpriced && !confirmed {
		return entity.ErrAbandonNeedsConfirmation
	}

	c.cancelFlowLocked()
	c.gen++
	if unpriced && c.active != nil {
		c.recordLocked(entity.OutcomeAbandoned, entity.ResolvedByUser, "closed by user")
	}
	c.logger.Info("Booking flow closed", "state", c.state, "bookingId", c.activeID())
	c.active = nil
	c.emphasis = entity.EmphasisNormal
	c.setStateLocked(entity.FlowIdle)
	c.emit(c.presenter.ResetForm)
	return nil
}

// ConfirmPayment pays the confirmed booking. On failure the flow returns to
// confirmed after the payment retry delay.
func (c *Coordinator) ConfirmPayment(ctx context.Context, paymentMethod string) (*entity.PaymentResult, error) {
	c.mu.Lock()
	if c.state != entity.FlowConfirmed || c.active == nil {
		c.unlock()
		return nil, entity.ErrInvalidState
	}
	gen := c.gen
	bookingID := c.active.BookingID
	c.setStateLocked(entity.FlowPaying)
	c.unlock()

	result, err := c.gateway.Pay(ctx, entity.PaymentRequest{BookingID: bookingID, PaymentMethod: paymentMethod})

	c.mu.Lock()
	defer c.unlock()

	if c.gen != gen || c.state != entity.FlowPaying {
		return nil, entity.ErrFlowAbandoned
	}
	if err != nil {
		msg := entity.UserMessage(err)
		c.emit(func() { c.presenter.ShowError(msg) })
		c.metrics.ErrorsCount.WithLabelValues("payment").Inc()
		c.revertTimer = c.clock.AfterFunc(c.cfg.PaymentRetryDelay, func() { c.revertPayment(gen) })
		c.logger.Error("Payment failed", "bookingId", bookingID, "error", err)
		return nil, fmt.Errorf("failed to pay booking: %w", err)
	}

	if result.FinalPrice > 0 {
		price := result.FinalPrice
		c.active.FinalPrice = &price
	}
	if result.DiscountPercentage > 0 {
		c.active.DiscountPercentage = result.DiscountPercentage
	}
	c.setStateLocked(entity.FlowPaid)
	paid := c.active.Clone()
	c.emit(func() { c.presenter.PaymentCompleted(paid, result) })
	c.recordLocked(entity.OutcomePaid, entity.ResolvedByUser, "")
	c.logger.Info("Payment completed", "bookingId", bookingID, "finalPrice", result.FinalPrice)
	return result, nil
}

// CheckNow runs one status check after a poll timeout. An unresolved booking
// restarts the poll loop.
func (c *Coordinator) CheckNow(ctx context.Context) error {
	c.mu.Lock()
	if c.state != entity.FlowTimedOut || c.active == nil {
		c.unlock()
		return entity.ErrInvalidState
	}
	gen := c.gen
	bookingID := c.active.BookingID
	c.unlock()

	msg, resolved, err := c.poller.CheckOnce(ctx, bookingID)

	c.mu.Lock()
	defer c.unlock()

	if c.gen != gen || c.state != entity.FlowTimedOut {
		return nil
	}
	if err != nil {
		userMsg := entity.UserMessage(err)
		c.emit(func() { c.presenter.ShowError(userMsg) })
		return fmt.Errorf("failed to check booking status: %w", err)
	}

	c.setStateLocked(entity.FlowPollingFallback)
	if resolved && c.applyLocked(msg, entity.ResolvedByPoll) == ApplyApplied {
		return nil
	}
	c.logger.Info("Booking still unresolved, restarting status poll", "bookingId", bookingID)
	c.poller.Start(bookingID)
	return nil
}

// Snapshot returns a copy of the current flow state
func (c *Coordinator) Snapshot() FlowSnapshot {
	c.mu.Lock()
	defer c.mu.Unlock()
	return FlowSnapshot{
		State:    c.state,
		Emphasis: c.emphasis,
		Booking:  c.active.Clone(),
	}
}

// Close stops timers and the poller and waits for pending outcome writes
func (c *Coordinator) Close() {
	c.mu.Lock()
	c.cancelFlowLocked()
	c.gen++
	c.unlock()
	c.records.Wait()
}

// PollProgress implements PollHandler
func (c *Coordinator) PollProgress(bookingID entity.BookingID, attempt, maxAttempts int) {
	c.mu.Lock()
	defer c.unlock()
	if !c.pollingFor(bookingID) {
		return
	}
	c.emit(func() { c.presenter.PollProgress(bookingID, attempt, maxAttempts) })
}

// PollResolved implements PollHandler
func (c *Coordinator) PollResolved(msg entity.BookingUpdateMessage) {
	c.mu.Lock()
	defer c.unlock()
	if !c.pollingFor(msg.BookingID) {
		return
	}
	c.applyLocked(msg, entity.ResolvedByPoll)
}

// PollExhausted implements PollHandler
func (c *Coordinator) PollExhausted(bookingID entity.BookingID) {
	c.mu.Lock()
	defer c.unlock()
	if !c.pollingFor(bookingID) {
		return
	}
	c.cancelFlowLocked()
	c.setStateLocked(entity.FlowTimedOut)
	c.emit(func() { c.presenter.BookingTimedOut(bookingID) })
	c.recordLocked(entity.OutcomeTimedOut, entity.ResolvedByPoll, "no confirmation within poll window")
	c.logger.Warn("Booking confirmation timed out", "bookingId", bookingID)
}

func (c *Coordinator) applyLocked(msg entity.BookingUpdateMessage, source string) ApplyResult {
	if c.active == nil || c.active.BookingID != msg.BookingID {
		return ApplyUnmatched
	}
	if age := msg.Age(c.clock.Now()); age > c.cfg.MessageRetention {
		c.logger.Warn("Dropping stale booking update", "bookingId", msg.BookingID, "ageMs", age.Milliseconds())
		c.metrics.StaleMessages.Inc()
		return ApplyDiscarded
	}
	if !c.state.AcceptsUpdate() {
		c.logger.Debug("Ignoring update for resolved booking", "bookingId", msg.BookingID, "state", c.state)
		return ApplyDiscarded
	}

	switch strings.ToUpper(msg.Status) {
	case entity.StatusConfirmed:
		c.cancelFlowLocked()
		price := msg.FinalPrice
		c.active.FinalPrice = &price
		c.active.DiscountPercentage = msg.DiscountPercentage
		c.active.Recommendations = append([]string(nil), msg.Recommendations...)
		c.setStateLocked(entity.FlowConfirmed)
		confirmed := c.active.Clone()
		c.emit(func() { c.presenter.BookingConfirmed(confirmed) })
		c.recordLocked(entity.OutcomeConfirmed, source, "")
		c.observeLatencyLocked()
		c.logger.Info("Booking confirmed",
			"bookingId", msg.BookingID,
			"finalPrice", msg.FinalPrice,
			"discountPercentage", msg.DiscountPercentage,
			"source", source)
	case entity.StatusRejected:
		c.cancelFlowLocked()
		reason := msg.Reason()
		c.active.RejectionReason = reason
		c.setStateLocked(entity.FlowRejected)
		bookingID := msg.BookingID
		c.emit(func() { c.presenter.BookingRejected(bookingID, reason) })
		c.recordLocked(entity.OutcomeRejected, source, reason)
		c.observeLatencyLocked()
		gen := c.gen
		c.closeTimer = c.clock.AfterFunc(c.cfg.RejectCloseDelay, func() { c.closeRejected(gen) })
		c.logger.Info("Booking rejected", "bookingId", msg.BookingID, "reason", reason, "source", source)
	default:
		c.logger.Warn("Ignoring update with unknown status", "bookingId", msg.BookingID, "status", msg.Status)
		return ApplyDiscarded
	}
	return ApplyApplied
}

func (c *Coordinator) scheduleEscalationLocked(gen uint64, submittedAt time.Time) {
	elapsed := c.clock.Since(submittedAt)
	c.slowTimer = c.clock.AfterFunc(utils.PositiveOrZero(c.cfg.SlowNoticeAfter-elapsed), func() { c.onSlowNotice(gen) })
	c.criticalTimer = c.clock.AfterFunc(utils.PositiveOrZero(c.cfg.CriticalNoticeAfter-elapsed), func() { c.onCriticalNotice(gen) })
}

func (c *Coordinator) onSlowNotice(gen uint64) {
	c.mu.Lock()
	defer c.unlock()
	if c.gen != gen || !c.state.IsAwaiting() {
		return
	}
	c.raiseEmphasisLocked(entity.EmphasisSlow)
}

func (c *Coordinator) onCriticalNotice(gen uint64) {
	c.mu.Lock()
	defer c.unlock()
	if c.gen != gen || !c.state.IsAwaiting() {
		return
	}
	c.raiseEmphasisLocked(entity.EmphasisCritical)
	c.setStateLocked(entity.FlowPollingFallback)
	c.logger.Warn("No confirmation pushed in time, falling back to polling", "bookingId", c.active.BookingID)
	c.poller.Start(c.active.BookingID)
}

func (c *Coordinator) raiseEmphasisLocked(emphasis entity.Emphasis) {
	if emphasis <= c.emphasis {
		return
	}
	c.emphasis = emphasis
	bookingID := c.active.BookingID
	c.emit(func() { c.presenter.EmphasisChanged(bookingID, emphasis) })
}

func (c *Coordinator) closeRejected(gen uint64) {
	c.mu.Lock()
	defer c.unlock()
	if c.gen != gen || c.state != entity.FlowRejected {
		return
	}
	c.active = nil
	c.emphasis = entity.EmphasisNormal
	c.setStateLocked(entity.FlowIdle)
	c.emit(c.presenter.ResetForm)
}

func (c *Coordinator) revertPayment(gen uint64) {
	c.mu.Lock()
	defer c.unlock()
	if c.gen != gen || c.state != entity.FlowPaying {
		return
	}
	c.setStateLocked(entity.FlowConfirmed)
}

// cancelFlowLocked stops every timer and the poller owned by the current flow
func (c *Coordinator) cancelFlowLocked() {
	for _, t := range []*clockwork.Timer{&c.slowTimer, &c.criticalTimer, &c.closeTimer, &c.revertTimer} {
		if *t != nil {
			(*t).Stop()
			*t = nil
		}
	}
	c.poller.Stop()
}

func (c *Coordinator) pollingFor(bookingID entity.BookingID) bool {
	return c.active != nil && c.active.BookingID == bookingID && c.state == entity.FlowPollingFallback
}

func (c *Coordinator) setStateLocked(state entity.FlowState) {
	if c.state == state {
		return
	}
	c.logger.Debug("Flow state changed", "from", c.state, "to", state, "bookingId", c.activeID())
	c.state = state
	booking := c.active.Clone()
	c.emit(func() { c.presenter.FlowStateChanged(state, booking) })
}

func (c *Coordinator) observeLatencyLocked() {
	c.metrics.ConfirmationLatency.Observe(c.clock.Since(c.active.Draft.SubmittedAt).Seconds())
}

// recordLocked counts the outcome and writes it to the journal in the background
func (c *Coordinator) recordLocked(outcome, source, reason string) {
	c.metrics.FlowOutcomes.WithLabelValues(outcome).Inc()
	if c.outcomes == nil || c.active == nil {
		return
	}
	now := c.clock.Now()
	b := c.active.Clone()
	record := &entity.FlowOutcome{
		BookingID:          b.BookingID.String(),
		UserID:             b.Draft.UserID,
		HotelID:            b.Draft.HotelID,
		Outcome:            outcome,
		ResolvedBy:         source,
		FinalPrice:         b.FinalPrice,
		DiscountPercentage: b.DiscountPercentage,
		Recommendations:    b.Recommendations,
		Reason:             reason,
		SubmittedAt:        b.Draft.SubmittedAt,
		ResolvedAt:         now,
	}

	c.records.Add(1)
	go func() {
		defer c.records.Done()
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := c.outcomes.Record(ctx, record); err != nil {
			c.metrics.ErrorsCount.WithLabelValues("record_outcome").Inc()
			c.logger.Error("Failed to record flow outcome", "bookingId", record.BookingID, "outcome", outcome, "error", err)
		}
	}()
}

func (c *Coordinator) activeID() entity.BookingID {
	if c.active == nil {
		return ""
	}
	return c.active.BookingID
}

// emit queues a presenter call to run once the lock is released
func (c *Coordinator) emit(fn func()) {
	c.pending = append(c.pending, fn)
}

func (c *Coordinator) unlock() {
	pending := c.pending
	c.pending = nil
	c.mu.Unlock()
	for _, fn := range pending {
		fn()
	}
}

func (c *Coordinator) validateDraft(draft entity.BookingDraft) error {
	if err := c.validate.Struct(draft); err != nil {
		var verrs validator.ValidationErrors
		if !errors.As(err, &verrs) {
			return fmt.Errorf("failed to validate booking: %w", err)
		}
		fieldErrors := make([]entity.FieldError, 0, len(verrs))
		for _, fe := range verrs {
			fieldErrors = append(fieldErrors, entity.FieldError{Field: fe.Field(), Message: describeFieldError(fe)})
		}
		return &entity.ValidationError{FieldErrors: fieldErrors}
	}
	if err := draft.Validate(); err != nil {
		return &entity.ValidationError{FieldErrors: []entity.FieldError{{Field: "checkOut", Message: err.Error()}}}
	}
	return nil
}

func newDraftValidator() *validator.Validate {
	v := validator.New(validator.WithRequiredStructEnabled())
	v.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name := strings.SplitN(fld.Tag.Get("json"), ",", 2)[0]
		if name == "-" {
			return ""
		}
		return name
	})
	return v
}

func describeFieldError(fe validator.FieldError) string {
	switch fe.Tag() {
	case "required":
		return "is required"
	case "email":
		return "must be a valid email address"
	case "datetime":
		return "must be a date formatted as " + fe.Param()
	case "min":
		return "must be at least " + fe.Param()
	case "max":
		return "must be at most " + fe.Param()
	default:
		return "is invalid"
	}
}
