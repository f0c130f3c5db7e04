package usecase

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"hotel-booking-client/internal/domain/entity"
	"hotel-booking-client/internal/domain/repository"
	"hotel-booking-client/pkg/logger"
	"hotel-booking-client/pkg/utils"

	"github.com/jonboulle/clockwork"
)

// Session is the process scoped client context. It is created on start,
// loads the persisted user identifier once and is passed to the coordinator
// and the transport.
type Session struct {
	repo      repository.SessionRepository
	clientKey string
	clock     clockwork.Clock
	logger    logger.Logger

	mu     sync.RWMutex
	userID string
}

// NewSession creates a session for the client identified by clientKey
func NewSession(repo repository.SessionRepository, clientKey string, clock clockwork.Clock, logger logger.Logger) *Session {
	return &Session{
		repo:      repo,
		clientKey: clientKey,
		clock:     clock,
		logger:    logger,
	}
}

// LoadOrCreateUserID returns the persisted user identifier, generating and
// storing one on first use.
func (s *Session) LoadOrCreateUserID(ctx context.Context) (string, error) {
	existing, err := s.repo.FindByClientKey(ctx, s.clientKey)
	if err == nil {
		if err := s.repo.Touch(ctx, s.clientKey); err != nil {
			s.logger.Warn("Failed to touch session", "clientKey", s.clientKey, "error", err)
		}
		s.setUserID(existing.UserID)
		s.logger.Info("UserId restored", "userId", existing.UserID)
		return existing.UserID, nil
	}
	if !errors.Is(err, entity.ErrSessionNotFound) {
		return "", fmt.Errorf("failed to load session: %w", err)
	}

	now := s.clock.Now()
	session := &entity.ClientSession{
		ClientKey: s.clientKey,
		UserID:    utils.NewUserID(now),
		CreatedAt: now,
		LastSeen:  now,
	}
	if err := s.repo.Save(ctx, session); err != nil {
		return "", fmt.Errorf("failed to save session: %w", err)
	}

	s.setUserID(session.UserID)
	s.logger.Info("UserId initialized", "userId", session.UserID)
	return session.UserID, nil
}

// UserID returns the loaded user identifier, empty before LoadOrCreateUserID
func (s *Session) UserID() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.userID
}

func (s *Session) setUserID(id string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.userID = id
}
