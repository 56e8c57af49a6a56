package persistence

import (
	"context"
	"errors"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
)

func newMockDB(t *testing.T) (*gorm.DB, sqlmock.Sqlmock) {
	t.Helper()
	mockDB, mock, err := sqlmock.New(sqlmock.MonitorPingsOption(true))
	require.NoError(t, err)
	t.Cleanup(func() { mockDB.Close() })

	gormDB, err := gorm.Open(postgres.New(postgres.Config{
		Conn:       mockDB,
		DriverName: "postgres",
	}), &gorm.Config{SkipDefaultTransaction: true, DisableAutomaticPing: true})
	require.NoError(t, err)
	return gormDB, mock
}

func TestDatabase_Ping(t *testing.T) {
	gormDB, mock := newMockDB(t)
	d := &Database{DB: gormDB}

	mock.ExpectPing()
	assert.NoError(t, d.Ping(context.Background()))

	mock.ExpectPing().WillReturnError(errors.New("connection refused"))
	assert.Error(t, d.Ping(context.Background()))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestDatabase_Transaction(t *testing.T) {
	gormDB, mock := newMockDB(t)
	d := &Database{DB: gormDB}

	t.Run("commits on success", func(t *testing.T) {
		mock.ExpectBegin()
		mock.ExpectCommit()

		err := d.Transaction(context.Background(), func(tx *gorm.DB) error { return nil })
		assert.NoError(t, err)
	})

	t.Run("rolls back on error", func(t *testing.T) {
		mock.ExpectBegin()
		mock.ExpectRollback()

		err := d.Transaction(context.Background(), func(tx *gorm.DB) error { return errors.New("boom") })
		assert.EqualError(t, err, "boom")
	})

	assert.NoError(t, mock.ExpectationsWereMet())
}
