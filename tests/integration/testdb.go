// Package integration runs the procurement workflows against a real
// PostgreSQL started with testcontainers. The tests are skipped with -short.
package integration

import (
	"context"
	"testing"
	"time"

	"github.com/spf13/viper"
	"github.com/stretchr/testify/require"
	"github.com/testcontainers/testcontainers-go"
	tcpostgres "github.com/testcontainers/testcontainers-go/modules/postgres"
	"github.com/testcontainers/testcontainers-go/wait"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest"

	"github.com/procurement/backend/internal/app"
	"github.com/procurement/backend/internal/infrastructure/config"
	"github.com/procurement/backend/internal/infrastructure/migration"
)

const (
	testDBName     = "procurement_test"
	testDBUser     = "postgres"
	testDBPassword = "postgres"
)

// TestDB is a migrated PostgreSQL container
type TestDB struct {
	Container testcontainers.Container
	Host      string
	Port      int
	DSN       string
}

// NewTestDB starts a fresh container and applies the embedded migrations.
func NewTestDB(t *testing.T) *TestDB {
	t.Helper()
	if testing.Short() {
		t.Skip("integration test skipped in -short mode")
	}

	ctx := context.Background()
	container, err := tcpostgres.Run(ctx,
		"postgres:16-alpine",
		tcpostgres.WithDatabase(testDBName),
		tcpostgres.WithUsername(testDBUser),
		tcpostgres.WithPassword(testDBPassword),
		testcontainers.WithWaitStrategy(
			wait.ForLog("database system is ready to accept connections").
				WithOccurrence(2).
				WithStartupTimeout(60*time.Second)),
	)
	require.NoError(t, err, "Failed to start PostgreSQL container")
	t.Cleanup(func() {
		if err := container.Terminate(context.Background()); err != nil {
			t.Logf("Warning: Failed to terminate container: %v", err)
		}
	})

	host, err := container.Host(ctx)
	require.NoError(t, err)
	port, err := container.MappedPort(ctx, "5432/tcp")
	require.NoError(t, err)
	dsn, err := container.ConnectionString(ctx, "sslmode=disable")
	require.NoError(t, err)

	tdb := &TestDB{Container: container, Host: host, Port: port.Int(), DSN: dsn}
	tdb.migrate(t)
	return tdb
}

func (tdb *TestDB) migrate(t *testing.T) {
	t.Helper()
	a := tdb.NewApp(t)
	sqlDB, err := a.DB.DB.DB()
	require.NoError(t, err)

	m, err := migration.New(sqlDB, zap.NewNop())
	require.NoError(t, err, "Failed to create migrator")
	require.NoError(t, m.Up(), "Failed to run migrations")
}

// Config returns application configuration pointing at the container
func (tdb *TestDB) Config(t *testing.T) *config.Config {
	t.Helper()
	v := viper.New()
	v.Set("app.env", "test")
	v.Set("database.host", tdb.Host)
	v.Set("database.port", tdb.Port)
	v.Set("database.user", testDBUser)
	v.Set("database.password", testDBPassword)
	v.Set("database.dbname", testDBName)
	v.Set("database.max_open_conns", 5)
	v.Set("database.max_idle_conns", 2)
	v.Set("jwt.secret", "integration-jwt-secret-0123456789abcdef")
	v.Set("jwt.refresh_secret", "integration-refresh-secret-0123456789")
	v.Set("approval.action_secret", "integration-action-secret-0123456789")
	v.Set("cron.secret", "integration-cron-secret")
	v.Set("mail.driver", "log")
	v.Set("log.level", "warn")

	cfg, err := config.FromViper(v)
	require.NoError(t, err)
	return cfg
}

// NewApp assembles the application against the container. The event bus is
// left stopped so events are delivered synchronously.
func (tdb *TestDB) NewApp(t *testing.T) *app.App {
	t.Helper()
	a, err := app.New(tdb.Config(t), zaptest.NewLogger(t, zaptest.Level(zap.WarnLevel)), nil)
	require.NoError(t, err)
	t.Cleanup(func() {
		_ = a.Close(context.Background())
	})
	return a
}
