package repository

import (
	"context"
	"errors"
	"regexp"
	"testing"
	"time"

	"hotel-booking-client/internal/domain/entity"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"
)

func NewMockDB(t *testing.T) (*gorm.DB, sqlmock.Sqlmock) {
	t.Helper()

	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })

	gormDB, err := gorm.Open(postgres.New(postgres.Config{Conn: db}), &gorm.Config{
		Logger: gormlogger.Discard,
	})
	require.NoError(t, err)

	return gormDB, mock
}

func TestGormSessionRepositoryFind(t *testing.T) {
	gormDB, mock := NewMockDB(t)
	repo := NewGormSessionRepository(gormDB)

	created := time.Date(2026, 1, 5, 8, 0, 0, 0, time.UTC)
	mock.ExpectQuery(regexp.QuoteMeta(`SELECT * FROM "client_sessions" WHERE client_key = $1`)).
		WillReturnRows(sqlmock.NewRows([]string{"id", "client_key", "user_id", "created_at", "last_seen"}).
			AddRow(1, "laptop", "user_1_abcdefabc", created, created))

	session, err := repo.FindByClientKey(context.Background(), "laptop")
	require.NoError(t, err)
	assert.Equal(t, "user_1_abcdefabc", session.UserID)
	assert.Equal(t, created, session.CreatedAt)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestGormSessionRepositoryNotFound(t *testing.T) {
	gormDB, mock := NewMockDB(t)
	repo := NewGormSessionRepository(gormDB)

	mock.ExpectQuery(regexp.QuoteMeta(`SELECT * FROM "client_sessions" WHERE client_key = $1`)).
		WillReturnRows(sqlmock.NewRows([]string{"id", "client_key", "user_id", "created_at", "last_seen"}))

	_, err := repo.FindByClientKey(context.Background(), "laptop")
	assert.ErrorIs(t, err, entity.ErrSessionNotFound)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestGormSessionRepositoryQueryError(t *testing.T) {
	gormDB, mock := NewMockDB(t)
	repo := NewGormSessionRepository(gormDB)

	mock.ExpectQuery(regexp.QuoteMeta(`SELECT * FROM "client_sessions"`)).WillReturnError(errors.New("connection reset"))

	_, err := repo.FindByClientKey(context.Background(), "laptop")
	require.Error(t, err)
	assert.False(t, errors.Is(err, entity.ErrSessionNotFound))
}

func TestGormSessionRepositorySave(t *testing.T) {
	gormDB, mock := NewMockDB(t)
	repo := NewGormSessionRepository(gormDB)

	now := time.Date(2026, 1, 5, 8, 0, 0, 0, time.UTC)
	mock.ExpectBegin()
	mock.ExpectQuery(regexp.QuoteMeta(`INSERT INTO "client_sessions"`)).
		WithArgs("laptop", "user_1_abcdefabc", sqlmock.AnyArg(), sqlmock.AnyArg()).
		WillReturnRows(sqlmock.NewRows([]string{"id"}).AddRow(1))
	mock.ExpectCommit()

	err := repo.Save(context.Background(), &entity.ClientSession{
		ClientKey: "laptop",
		UserID:    "user_1_abcdefabc",
		CreatedAt: now,
		LastSeen:  now,
	})
	require.NoError(t, err)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestGormSessionRepositoryTouch(t *testing.T) {
	gormDB, mock := NewMockDB(t)
	repo := NewGormSessionRepository(gormDB)

	mock.ExpectBegin()
	mock.ExpectExec(regexp.QuoteMeta(`UPDATE "client_sessions" SET "last_seen"=$1 WHERE client_key = $2`)).
		WithArgs(sqlmock.AnyArg(), "laptop").
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectCommit()
	require.NoError(t, repo.Touch(context.Background(), "laptop"))

	mock.ExpectBegin()
	mock.ExpectExec(regexp.QuoteMeta(`UPDATE "client_sessions"`)).
		WithArgs(sqlmock.AnyArg(), "desktop").
		WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectCommit()
	assert.ErrorIs(t, repo.Touch(context.Background(), "desktop"), entity.ErrSessionNotFound)

	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestMemorySessionRepository(t *testing.T) {
	repo := NewMemorySessionRepository()
	ctx := context.Background()

	_, err := repo.FindByClientKey(ctx, "laptop")
	assert.ErrorIs(t, err, entity.ErrSessionNotFound)
	assert.ErrorIs(t, repo.Touch(ctx, "laptop"), entity.ErrSessionNotFound)

	require.NoError(t, repo.Save(ctx, &entity.ClientSession{ClientKey: "laptop", UserID: "user_1"}))
	session, err := repo.FindByClientKey(ctx, "laptop")
	require.NoError(t, err)
	assert.Equal(t, "user_1", session.UserID)

	require.NoError(t, repo.Touch(ctx, "laptop"))
	session, err = repo.FindByClientKey(ctx, "laptop")
	require.NoError(t, err)
	assert.False(t, session.LastSeen.IsZero())
}
