package database

import (
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
)

func TestDSN(t *testing.T) {
	cfg := Config{Host: "db", Port: 5433, User: "u", Password: "p", DBName: "medpres", SSLMode: "disable"}
	assert.Equal(t, "host=db port=5433 user=u password=p dbname=medpres sslmode=disable", cfg.DSN())
}

func TestPingAndCloseWithoutConnection(t *testing.T) {
	DB = nil
	assert.Error(t, Ping())
	assert.NoError(t, Close())
}

func TestPingAndClose(t *testing.T) {
	sqlDB, mock, err := sqlmock.New(sqlmock.MonitorPingsOption(true))
	require.NoError(t, err)

	db, err := gorm.Open(postgres.New(postgres.Config{Conn: sqlDB}), &gorm.Config{DisableAutomaticPing: true})
	require.NoError(t, err)
	DB = db
	t.Cleanup(func() { DB = nil })

	mock.ExpectPing()
	mock.ExpectClose()
	assert.NoError(t, Ping())
	assert.NoError(t, Close())
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestGormLoggerLevels(t *testing.T) {
	for _, level := range []string{"silent", "error", "warn", "info", ""} {
		assert.NotNil(t, gormLogger(level), level)
	}
}
