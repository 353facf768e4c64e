package kv

import (
	"context"
	"fmt"
	"regexp"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/postgres"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"cleaning-session-backend/internal/model"
)

// A helper function to create a mock database connection.
func newMockDB(t *testing.T) (*gorm.DB, sqlmock.Sqlmock) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)

	gormDB, err := gorm.Open(postgres.New(postgres.Config{
		Conn: db,
	}), &gorm.Config{})
	require.NoError(t, err)

	return gormDB, mock
}

func newSQLiteDB(t *testing.T) *gorm.DB {
	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared", t.Name())
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{})
	require.NoError(t, err)
	require.NoError(t, db.AutoMigrate(&model.KVEntry{}))
	t.Cleanup(func() {
		sqlDB, _ := db.DB()
		sqlDB.Close()
	})
	return db
}

type doc struct {
	Name  string `json:"name"`
	Count int    `json:"count"`
}

func TestGormStore_RoundTrip(t *testing.T) {
	ctx := context.Background()
	store := NewGormStore(newSQLiteDB(t))

	var got doc
	found, err := store.GetObject(ctx, "missing", &got)
	require.NoError(t, err)
	assert.False(t, found)

	require.NoError(t, store.SetObject(ctx, "a", doc{Name: "first", Count: 1}))
	require.NoError(t, store.SetObject(ctx, "a", doc{Name: "second", Count: 2}))

	found, err = store.GetObject(ctx, "a", &got)
	require.NoError(t, err)
	assert.True(t, found)
	assert.Equal(t, doc{Name: "second", Count: 2}, got)

	require.NoError(t, store.Remove(ctx, "a"))
	found, err = store.GetObject(ctx, "a", &got)
	require.NoError(t, err)
	assert.False(t, found)
}

func TestGormStore_Clear(t *testing.T) {
	ctx := context.Background()
	store := NewGormStore(newSQLiteDB(t))

	require.NoError(t, store.SetObject(ctx, KeyActiveSessions, []doc{{Name: "x"}}))
	require.NoError(t, store.SetObject(ctx, KeyCompletedSessions, []doc{{Name: "y"}}))
	require.NoError(t, store.Clear(ctx))

	var out []doc
	for _, key := range []string{KeyActiveSessions, KeyCompletedSessions} {
		found, err := store.GetObject(ctx, key, &out)
		require.NoError(t, err)
		assert.False(t, found, key)
	}
}

func TestGormStore_MalformedValue(t *testing.T) {
	gormDB, mock := newMockDB(t)
	store := NewGormStore(gormDB)

	mock.ExpectQuery(regexp.QuoteMeta(`SELECT * FROM "kv_entries" WHERE key = $1`)).
		WithArgs("broken", 1).
		WillReturnRows(sqlmock.NewRows([]string{"key", "value", "updated_at"}).
			AddRow("broken", "{not json", time.Now()))

	var out doc
	found, err := store.GetObject(context.Background(), "broken", &out)
	assert.False(t, found)
	assert.ErrorIs(t, err, ErrDecode)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestGormStore_ReadError(t *testing.T) {
	gormDB, mock := newMockDB(t)
	store := NewGormStore(gormDB)

	mock.ExpectQuery(regexp.QuoteMeta(`SELECT * FROM "kv_entries"`)).
		WillReturnError(fmt.Errorf("connection reset"))

	var out doc
	found, err := store.GetObject(context.Background(), "a", &out)
	assert.False(t, found)
	assert.Error(t, err)
	assert.NotErrorIs(t, err, ErrDecode)
	assert.NoError(t, mock.ExpectationsWereMet())
}
