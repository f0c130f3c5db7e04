package repository

import (
	"context"
	"sync"
	"time"

	"hotel-booking-client/internal/domain/entity"
	"hotel-booking-client/internal/domain/repository"
)

// MemorySessionRepository keeps sessions for the lifetime of the process.
// Used when no database is configured.
type MemorySessionRepository struct {
	mu       sync.Mutex
	sessions map[string]entity.ClientSession
}

// NewMemorySessionRepository creates an empty in-process session store
func NewMemorySessionRepository() repository.SessionRepository {
	return &MemorySessionRepository{
		sessions: make(map[string]entity.ClientSession),
	}
}

func (r *MemorySessionRepository) FindByClientKey(_ context.Context, clientKey string) (*entity.ClientSession, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	s, ok := r.sessions[clientKey]
	if !ok {
		return nil, entity.ErrSessionNotFound
	}
	return &s, nil
}

func (r *MemorySessionRepository) Save(_ context.Context, session *entity.ClientSession) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.sessions[session.ClientKey] = *session
	return nil
}

func (r *MemorySessionRepository) Touch(_ context.Context, clientKey string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	s, ok := r.sessions[clientKey]
	if !ok {
		return entity.ErrSessionNotFound
	}
	s.LastSeen = time.Now()
	r.sessions[clientKey] = s
	return nil
}
