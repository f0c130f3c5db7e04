package main

import (
	"context"
	"fmt"
	"io"
	"sync"

	"hotel-booking-client/internal/domain/repository"
	"hotel-booking-client/internal/infrastructure/config"
	"hotel-booking-client/internal/infrastructure/oauth"
	"hotel-booking-client/internal/infrastructure/persistence"
	"hotel-booking-client/internal/infrastructure/router"
	"hotel-booking-client/internal/interface/console"
	"hotel-booking-client/internal/interface/gateway"
	"hotel-booking-client/internal/interface/notification"
	repo "hotel-booking-client/internal/interface/repository"
	"hotel-booking-client/internal/usecase"
	"hotel-booking-client/pkg/logger"
	"hotel-booking-client/pkg/metrics"

	"github.com/jonboulle/clockwork"
)

// app holds the wired dependencies shared by every command
type app struct {
	cfg       *config.Config
	log       logger.Logger
	clock     clockwork.Clock
	metrics   *metrics.Metrics
	presenter *console.Presenter
	gateway   repository.BookingGateway
	outcomes  repository.OutcomeRepository
	session   *usecase.Session

	closeOnce sync.Once
	closers   []func()
}

func newApp(ctx context.Context, cfg *config.Config, log logger.Logger, out io.Writer) (*app, error) {
	a := &app{
		cfg:       cfg,
		log:       log,
		clock:     clockwork.NewRealClock(),
		metrics:   metrics.NewMetrics("hotel_booking_client"),
		presenter: console.NewPresenter(out),
	}

	// Gateway client, with OAuth2 client credentials when configured
	gatewayOAuth := oauth.NewGatewayOAuth(cfg.GatewayClientID, cfg.GatewayClientSecret, cfg.GatewayTokenURL, nil, log)
	httpClient := gatewayOAuth.HTTPClient(ctx, cfg.HTTPTimeout)
	a.gateway = gateway.NewHTTPBookingGateway(cfg.GatewayURL, httpClient, log.With("component", "gateway"))

	// Session store
	var sessions repository.SessionRepository
	if cfg.PostgresURI != "" {
		log.Info("Connecting to PostgreSQL")
		gormDB, err := persistence.NewPostgresDB(cfg.PostgresURI)
		if err != nil {
			return nil, err
		}
		if err := repo.MigrateSessions(gormDB); err != nil {
			return nil, err
		}
		if sqlDB, err := gormDB.DB(); err == nil {
			a.closers = append(a.closers, func() { sqlDB.Close() })
		}
		sessions = repo.NewGormSessionRepository(gormDB)
	} else {
		log.Warn("POSTGRES_URI not set, user id will not survive restarts")
		sessions = repo.NewMemorySessionRepository()
	}

	// Outcome journal
	if cfg.MongoURI != "" {
		log.Info("Connecting to MongoDB")
		mongoClient, err := persistence.NewMongoClient(ctx, cfg.MongoURI, cfg.MongoUser, cfg.MongoPassword)
		if err != nil {
			a.Close()
			return nil, err
		}
		a.closers = append(a.closers, func() {
			if err := mongoClient.Disconnect(context.Background()); err != nil {
				log.Error("MongoDB disconnect error", "error", err)
			}
		})
		a.outcomes = repo.NewMongoOutcomeRepository(persistence.GetDatabase(mongoClient, cfg.MongoDB))
	}

	a.session = usecase.NewSession(sessions, cfg.ClientKey, a.clock, log.With("component", "session"))
	if _, err := a.session.LoadOrCreateUserID(ctx); err != nil {
		a.Close()
		return nil, err
	}
	return a, nil
}

// flow wires the components of one booking confirmation flow
type flow struct {
	coordinator *usecase.Coordinator
	transport   *notification.Transport
}

func (a *app) newFlow() *flow {
	coordCfg := usecase.CoordinatorConfig{
		SlowNoticeAfter:     a.cfg.SlowNoticeAfter,
		CriticalNoticeAfter: a.cfg.CriticalNoticeAfter,
		MessageRetention:    a.cfg.MessageRetention,
		RejectCloseDelay:    a.cfg.RejectCloseDelay,
		PaymentRetryDelay:   a.cfg.PaymentRetryDelay,
		PollInterval:        a.cfg.PollInterval,
		PollMaxAttempts:     a.cfg.PollMaxAttempts,
	}

	buffer := usecase.NewPendingBuffer(a.cfg.MessageRetention, a.clock, a.log.With("component", "pending_buffer"), a.metrics)
	coordinator := usecase.NewCoordinator(
		a.gateway,
		a.outcomes,
		buffer,
		a.session,
		a.presenter,
		a.clock,
		coordCfg,
		a.log.With("component", "coordinator"),
		a.metrics,
	)
	messageRouter := router.NewMessageRouter(coordinator, buffer, a.clock, a.log.With("component", "router"), a.metrics)

	transportCfg := notification.DefaultTransportConfig(a.cfg.NotificationURL)
	transportCfg.MaxAttempts = a.cfg.ReconnectMaxAttempts
	transportCfg.KeepAliveInterval = a.cfg.KeepAliveInterval
	transport := notification.NewTransport(
		transportCfg,
		messageRouter,
		a.presenter,
		a.clock,
		a.log.With("component", "transport"),
		a.metrics,
	)

	return &flow{coordinator: coordinator, transport: transport}
}

func (f *flow) Close() {
	f.transport.Disconnect()
	f.coordinator.Close()
}

// Close releases database connections; safe to call more than once
func (a *app) Close() {
	a.closeOnce.Do(func() {
		for i := len(a.closers) - 1; i >= 0; i-- {
			a.closers[i]()
		}
	})
}

func (a *app) requireOutcomes() error {
	if a.outcomes == nil {
		return fmt.Errorf("outcome journal not configured: set MONGODB_DSN")
	}
	return nil
}
