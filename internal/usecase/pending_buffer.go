package usecase

import (
	"sync"
	"time"

	"hotel-booking-client/internal/domain/entity"
	"hotel-booking-client/pkg/logger"
	"hotel-booking-client/pkg/metrics"

	"github.com/jonboulle/clockwork"
)

// ApplyResult is the outcome of offering a booking update to the coordinator
type ApplyResult int

const (
	// ApplyUnmatched means no active booking matched; the update should be buffered
	ApplyUnmatched ApplyResult = iota
	// ApplyApplied means the update resolved the active booking
	ApplyApplied
	// ApplyDiscarded means the update matched but was dropped (stale, duplicate or unknown status)
	ApplyDiscarded
)

func (r ApplyResult) String() string {
	switch r {
	case ApplyApplied:
		return "applied"
	case ApplyDiscarded:
		return "discarded"
	default:
		return "unmatched"
	}
}

// DefaultMessageRetention is how long an unmatched update stays usable
const DefaultMessageRetention = 5 * time.Minute

type bufferedUpdate struct {
	Message    entity.BookingUpdateMessage
	ReceivedAt time.Time
}

// PendingBuffer holds booking updates that arrived before their booking was registered
type PendingBuffer struct {
	mu        sync.Mutex
	entries   []bufferedUpdate
	retention time.Duration
	clock     clockwork.Clock
	logger    logger.Logger
	metrics   *metrics.Metrics
}

// NewPendingBuffer creates an empty buffer
func NewPendingBuffer(retention time.Duration, clock clockwork.Clock, logger logger.Logger, metrics *metrics.Metrics) *PendingBuffer {
	if retention <= 0 {
		retention = DefaultMessageRetention
	}
	return &PendingBuffer{
		retention: retention,
		clock:     clock,
		logger:    logger,
		metrics:   metrics,
	}
}

// Deliver offers msg to apply and buffers it when apply reports ApplyUnmatched.
// The attempt and the append happen under the buffer lock so a concurrent
// Drain either sees the message or the message is applied directly.
func (b *PendingBuffer) Deliver(msg entity.BookingUpdateMessage, apply func(entity.BookingUpdateMessage) ApplyResult) ApplyResult {
	b.mu.Lock()
	defer b.mu.Unlock()

	result := apply(msg)
	if result != ApplyUnmatched {
		return result
	}

	b.logger.Warn("Booking not ready yet, buffering message", "bookingId", msg.BookingID)
	b.entries = append(b.entries, bufferedUpdate{Message: msg, ReceivedAt: b.clock.Now()})
	b.metrics.BufferedMessages.Inc()
	b.pruneLocked()
	b.logger.Debug("Pending buffer size", "size", len(b.entries))

	return result
}

// Drain removes and returns the first non-expired update for bookingID
func (b *PendingBuffer) Drain(bookingID entity.BookingID) (entity.BookingUpdateMessage, bool) {
	b.mu.Lock()
	defer b.mu.Unlock()

	b.pruneLocked()
	for i, entry := range b.entries {
		if entry.Message.BookingID != bookingID {
			continue
		}
		b.entries = append(b.entries[:i], b.entries[i+1:]...)
		b.logger.Info("Drained buffered message", "bookingId", bookingID, "bufferedFor", b.clock.Since(entry.ReceivedAt).String())
		return entry.Message, true
	}
	return entity.BookingUpdateMessage{}, false
}

// Prune drops expired entries
func (b *PendingBuffer) Prune() {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.pruneLocked()
}

// Len returns the number of buffered updates
func (b *PendingBuffer) Len() int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return len(b.entries)
}

func (b *PendingBuffer) pruneLocked() {
	now := b.clock.Now()
	kept := b.entries[:0]
	for _, entry := range b.entries {
		origin := entry.ReceivedAt
		if entry.Message.Timestamp != 0 {
			origin = entry.Message.OriginTime()
		}
		if age := now.Sub(origin); age > b.retention {
			b.logger.Warn("Removing old buffered message", "bookingId", entry.Message.BookingID, "ageMs", age.Milliseconds())
			continue
		}
		kept = append(kept, entry)
	}
	for i := len(kept); i < len(b.entries); i++ {
		b.entries[i] = bufferedUpdate{}
	}
	b.entries = kept
}
