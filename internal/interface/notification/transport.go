package notification

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"net/url"
	"sync"
	"time"

	"hotel-booking-client/internal/domain/entity"
	"hotel-booking-client/internal/usecase"
	"hotel-booking-client/pkg/logger"
	"hotel-booking-client/pkg/metrics"
	"hotel-booking-client/pkg/utils"

	"github.com/coder/websocket"
	"github.com/jonboulle/clockwork"
)

// ErrAlreadyConnected is returned by Connect when the transport is running
var ErrAlreadyConnected = errors.New("push transport already connected")

const (
	pingFrame    = "PING"
	pongFrame    = "PONG"
	maxFrameSize = 1 << 20
)

// MessageHandler receives decoded push messages
type MessageHandler interface {
	Route(msg entity.PushMessage)
}

// TransportConfig holds the connection and reconnect policy
type TransportConfig struct {
	URL               string
	BaseDelay         time.Duration
	MaxDelay          time.Duration
	MaxAttempts       int
	KeepAliveInterval time.Duration
	DialTimeout       time.Duration
}

// DefaultTransportConfig returns the reconnect policy: 1s doubling to 30s, 10 attempts
func DefaultTransportConfig(wsURL string) TransportConfig {
	return TransportConfig{
		URL:               wsURL,
		BaseDelay:         time.Second,
		MaxDelay:          30 * time.Second,
		MaxAttempts:       10,
		KeepAliveInterval: 25 * time.Second,
		DialTimeout:       10 * time.Second,
	}
}

// Transport keeps one push channel connection open for a user and reconnects
// with exponential backoff when it drops.
type Transport struct {
	cfg      TransportConfig
	handler  MessageHandler
	listener usecase.ConnectionListener
	clock    clockwork.Clock
	logger   logger.Logger
	metrics  *metrics.Metrics

	mu       sync.Mutex
	state    entity.ConnectionState
	attempts int
	cancel   context.CancelFunc
	done     chan struct{}
}

// NewTransport creates a disconnected transport
func NewTransport(
	cfg TransportConfig,
	handler MessageHandler,
	listener usecase.ConnectionListener,
	clock clockwork.Clock,
	logger logger.Logger,
	metrics *metrics.Metrics,
) *Transport {
	return &Transport{
		cfg:      cfg,
		handler:  handler,
		listener: listener,
		clock:    clock,
		logger:   logger,
		metrics:  metrics,
		state:    entity.ConnectionDisconnected,
	}
}

// Connect opens the push channel for userID and keeps it open until
// Disconnect is called or ctx is cancelled.
func (t *Transport) Connect(ctx context.Context, userID string) error {
	wsURL, err := t.endpoint(userID)
	if err != nil {
		return err
	}

	t.mu.Lock()
	if t.cancel != nil {
		t.mu.Unlock()
		return ErrAlreadyConnected
	}
	runCtx, cancel := context.WithCancel(ctx)
	done := make(chan struct{})
	t.cancel = cancel
	t.done = done
	t.attempts = 0
	t.mu.Unlock()

	t.logger.Info("Connecting to push channel", "url", wsURL)
	go t.run(runCtx, wsURL, done)
	return nil
}

// Disconnect closes the connection and cancels any pending reconnect
func (t *Transport) Disconnect() {
	t.mu.Lock()
	cancel := t.cancel
	done := t.done
	t.cancel = nil
	t.done = nil
	t.mu.Unlock()

	if cancel != nil {
		t.logger.Info("Disconnecting push channel")
		cancel()
		<-done
	}
	t.setState(entity.ConnectionDisconnected)
}

// State returns the current connection state
func (t *Transport) State() entity.ConnectionState {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.state
}

func (t *Transport) endpoint(userID string) (string, error) {
	u, err := url.Parse(t.cfg.URL)
	if err != nil {
		return "", fmt.Errorf("failed to parse notification url: %w", err)
	}
	q := u.Query()
	q.Set("userId", userID)
	u.RawQuery = q.Encode()
	return u.String(), nil
}

func (t *Transport) run(ctx context.Context, wsURL string, done chan struct{}) {
	defer close(done)

	for {
		t.setState(entity.ConnectionConnecting)
		err := t.session(ctx, wsURL)
		if ctx.Err() != nil {
			return
		}
		t.setState(entity.ConnectionDisconnected)
		t.logger.Warn("Push channel disconnected", "error", err)

		t.mu.Lock()
		attempt := t.attempts
		if attempt < t.cfg.MaxAttempts {
			t.attempts++
		}
		t.mu.Unlock()

		if attempt >= t.cfg.MaxAttempts {
			t.logger.Error("Max reconnection attempts reached", "attempts", attempt)
			t.listener.ConnectionLost(attempt)
			t.mu.Lock()
			if t.done == done {
				t.cancel()
				t.cancel = nil
				t.done = nil
			}
			t.mu.Unlock()
			return
		}

		delay := utils.ReconnectDelay(attempt, t.cfg.BaseDelay, t.cfg.MaxDelay)
		t.metrics.ReconnectAttempts.Inc()
		t.logger.Info("Reconnecting to push channel",
			"delay", delay.String(),
			"attempt", attempt+1,
			"maxAttempts", t.cfg.MaxAttempts)

		timer := t.clock.NewTimer(delay)
		select {
		case <-ctx.Done():
			timer.Stop()
			return
		case <-timer.Chan():
		}
	}
}

// session dials once and reads frames until the connection fails
func (t *Transport) session(ctx context.Context, wsURL string) error {
	dialCtx, cancelDial := context.WithTimeout(ctx, t.cfg.DialTimeout)
	conn, _, err := websocket.Dial(dialCtx, wsURL, nil)
	cancelDial()
	if err != nil {
		return fmt.Errorf("failed to dial push channel: %w", err)
	}
	defer conn.CloseNow()
	conn.SetReadLimit(maxFrameSize)

	t.mu.Lock()
	t.attempts = 0
	t.mu.Unlock()
	t.setState(entity.ConnectionConnected)
	t.logger.Info("Push channel connected")

	sessionCtx, cancelSession := context.WithCancel(ctx)
	defer cancelSession()
	if t.cfg.KeepAliveInterval > 0 {
		go t.keepAlive(sessionCtx, conn)
	}

	for {
		_, data, err := conn.Read(ctx)
		if err != nil {
			if ctx.Err() != nil {
				conn.Close(websocket.StatusNormalClosure, "client disconnect")
			}
			if status := websocket.CloseStatus(err); status != -1 {
				return fmt.Errorf("push channel closed with status %d: %w", status, err)
			}
			return fmt.Errorf("failed to read push frame: %w", err)
		}
		t.handleFrame(data)
	}
}

func (t *Transport) handleFrame(data []byte) {
	if string(bytes.TrimSpace(data)) == pongFrame {
		return
	}
	msg, err := entity.DecodePushMessage(data)
	if err != nil {
		t.logger.Warn("Dropping malformed push frame", "error", err, "size", len(data))
		t.metrics.ErrorsCount.WithLabelValues("decode_push").Inc()
		return
	}
	t.logger.Debug("Push message received", "type", msg.MessageType())
	t.handler.Route(msg)
}

func (t *Transport) keepAlive(ctx context.Context, conn *websocket.Conn) {
	ticker := t.clock.NewTicker(t.cfg.KeepAliveInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.Chan():
			if err := conn.Write(ctx, websocket.MessageText, []byte(pingFrame)); err != nil {
				t.logger.Debug("Keep-alive ping failed", "error", err)
				return
			}
		}
	}
}

func (t *Transport) setState(state entity.ConnectionState) {
	t.mu.Lock()
	if t.state == state {
		t.mu.Unlock()
		return
	}
	t.state = state
	t.mu.Unlock()
	t.listener.ConnectionStateChanged(state)
}
