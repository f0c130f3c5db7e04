package usecase

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"hotel-booking-client/internal/domain/entity"
	"hotel-booking-client/pkg/logger"

	"github.com/jonboulle/clockwork"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type recordingPollHandler struct {
	mu        sync.Mutex
	progress  []int
	resolved  []entity.BookingUpdateMessage
	exhausted []entity.BookingID
}

func (h *recordingPollHandler) PollProgress(bookingID entity.BookingID, attempt, maxAttempts int) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.progress = append(h.progress, attempt)
}

func (h *recordingPollHandler) PollResolved(msg entity.BookingUpdateMessage) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.resolved = append(h.resolved, msg)
}

func (h *recordingPollHandler) PollExhausted(bookingID entity.BookingID) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.exhausted = append(h.exhausted, bookingID)
}

func (h *recordingPollHandler) counts() (progress, resolved, exhausted int) {
	h.mu.Lock()
	defer h.mu.Unlock()
	return len(h.progress), len(h.resolved), len(h.exhausted)
}

func newTestPoller(gateway *MockBookingGateway, handler PollHandler, maxAttempts int) (*StatusPoller, fakeClock) {
	clock := clockwork.NewFakeClockAt(testStart)
	p := NewStatusPoller(gateway, handler, clock, 2*time.Second, maxAttempts, logger.NewNopLogger(), newTestMetrics())
	return p, clock
}

func TestStatusPollerResolves(t *testing.T) {
	gateway := &MockBookingGateway{
		getFn: func(call int, id entity.BookingID) (*entity.BookingSnapshot, error) {
			switch call {
			case 1:
				return nil, errors.New("connection reset")
			case 2:
				return &entity.BookingSnapshot{BookingID: id, Status: entity.StatusPending}, nil
			}
			return &entity.BookingSnapshot{BookingID: id, Status: entity.StatusConfirmed, FinalPrice: 99.5, Recommendations: []string{"Late checkout"}}, nil
		},
	}
	handler := &recordingPollHandler{}
	p, clock := newTestPoller(gateway, handler, 60)

	p.Start("B1")
	assert.True(t, p.Running())

	for attempt := 1; attempt <= 3; attempt++ {
		clock.Advance(2 * time.Second)
		require.Eventually(t, func() bool { return gateway.GetCalls() == attempt }, waitFor, tick)
	}

	require.Eventually(t, func() bool {
		_, resolved, _ := handler.counts()
		return resolved == 1
	}, waitFor, tick)
	assert.False(t, p.Running())

	handler.mu.Lock()
	defer handler.mu.Unlock()
	assert.Equal(t, []int{1, 2, 3}, handler.progress)
	msg := handler.resolved[0]
	assert.Equal(t, entity.BookingID("B1"), msg.BookingID)
	assert.Equal(t, entity.StatusConfirmed, msg.Status)
	assert.Equal(t, 99.5, msg.FinalPrice)
	assert.Equal(t, []string{"Late checkout"}, msg.Recommendations)
	assert.Equal(t, clock.Now().UnixMilli(), msg.Timestamp)
}

func TestStatusPollerExhausts(t *testing.T) {
	gateway := &MockBookingGateway{}
	handler := &recordingPollHandler{}
	p, clock := newTestPoller(gateway, handler, 3)

	p.Start("B1")
	for attempt := 1; attempt <= 3; attempt++ {
		clock.Advance(2 * time.Second)
		require.Eventually(t, func() bool { return gateway.GetCalls() == attempt }, waitFor, tick)
	}

	require.Eventually(t, func() bool {
		_, _, exhausted := handler.counts()
		return exhausted == 1
	}, waitFor, tick)
	progress, resolved, _ := handler.counts()
	assert.Equal(t, 3, progress)
	assert.Equal(t, 0, resolved)
	assert.False(t, p.Running())
}

func TestStatusPollerStop(t *testing.T) {
	gateway := &MockBookingGateway{}
	handler := &recordingPollHandler{}
	p, clock := newTestPoller(gateway, handler, 60)

	p.Start("B1")
	clock.Advance(2 * time.Second)
	require.Eventually(t, func() bool { return gateway.GetCalls() == 1 }, waitFor, tick)

	p.Stop()
	assert.False(t, p.Running())

	clock.Advance(10 * time.Second)
	time.Sleep(20 * time.Millisecond)
	assert.Equal(t, 1, gateway.GetCalls())
	_, resolved, exhausted := handler.counts()
	assert.Zero(t, resolved)
	assert.Zero(t, exhausted)
}

func TestStatusPollerRejectedSnapshot(t *testing.T) {
	gateway := &MockBookingGateway{
		getFn: func(call int, id entity.BookingID) (*entity.BookingSnapshot, error) {
			return &entity.BookingSnapshot{BookingID: id, Status: "rejected", RejectionReason: "Hotel closed"}, nil
		},
	}
	p, _ := newTestPoller(gateway, &recordingPollHandler{}, 60)

	msg, resolved, err := p.CheckOnce(context.Background(), "B7")
	require.NoError(t, err)
	require.True(t, resolved)
	assert.Equal(t, entity.StatusRejected, msg.Status)
	assert.Equal(t, "Hotel closed", msg.Reason())
}

func TestStatusPollerConfirmedWithoutPriceIsUnresolved(t *testing.T) {
	gateway := &MockBookingGateway{
		getFn: func(call int, id entity.BookingID) (*entity.BookingSnapshot, error) {
			return &entity.BookingSnapshot{BookingID: id, Status: entity.StatusConfirmed}, nil
		},
	}
	p, _ := newTestPoller(gateway, &recordingPollHandler{}, 60)

	_, resolved, err := p.CheckOnce(context.Background(), "B1")
	require.NoError(t, err)
	assert.False(t, resolved)
}
