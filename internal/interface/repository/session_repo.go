package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	"hotel-booking-client/internal/domain/entity"
	"hotel-booking-client/internal/domain/repository"

	"gorm.io/gorm"
)

// GormSessionRepository implements the SessionRepository interface
type GormSessionRepository struct {
	db *gorm.DB
}

// NewGormSessionRepository creates a new GORM session repository
func NewGormSessionRepository(db *gorm.DB) repository.SessionRepository {
	return &GormSessionRepository{
		db: db,
	}
}

// ClientSessionModel GORM model for database mapping
type ClientSessionModel struct {
	ID        uint      `gorm:"primaryKey"`
	ClientKey string    `gorm:"column:client_key;uniqueIndex;size:128"`
	UserID    string    `gorm:"column:user_id;size:64"`
	CreatedAt time.Time `gorm:"column:created_at"`
	LastSeen  time.Time `gorm:"column:last_seen"`
}

// TableName overrides the default table name
func (ClientSessionModel) TableName() string {
	return "client_sessions"
}

// MigrateSessions creates or updates the sessions table
func MigrateSessions(db *gorm.DB) error {
	if err := db.AutoMigrate(&ClientSessionModel{}); err != nil {
		return fmt.Errorf("failed to migrate client_sessions: %w", err)
	}
	return nil
}

// FindByClientKey finds the session stored for a client key
func (r *GormSessionRepository) FindByClientKey(ctx context.Context, clientKey string) (*entity.ClientSession, error) {
	var model ClientSessionModel
	result := r.db.WithContext(ctx).Where("client_key = ?", clientKey).First(&model)
	if result.Error != nil {
		if errors.Is(result.Error, gorm.ErrRecordNotFound) {
			return nil, entity.ErrSessionNotFound
		}
		return nil, result.Error
	}

	return &entity.ClientSession{
		ClientKey: model.ClientKey,
		UserID:    model.UserID,
		CreatedAt: model.CreatedAt,
		LastSeen:  model.LastSeen,
	}, nil
}

// Save stores a new session
func (r *GormSessionRepository) Save(ctx context.Context, session *entity.ClientSession) error {
	model := ClientSessionModel{
		ClientKey: session.ClientKey,
		UserID:    session.UserID,
		CreatedAt: session.CreatedAt,
		LastSeen:  session.LastSeen,
	}
	return r.db.WithContext(ctx).Create(&model).Error
}

// Touch refreshes the last seen time of a session
func (r *GormSessionRepository) Touch(ctx context.Context, clientKey string) error {
	result := r.db.WithContext(ctx).
		Model(&ClientSessionModel{}).
		Where("client_key = ?", clientKey).
		Update("last_seen", time.Now())
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return entity.ErrSessionNotFound
	}
	return nil
}
