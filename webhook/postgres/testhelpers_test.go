//go:build integration

package postgres

import (
	"context"
	"database/sql"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/modules/postgres"
	"github.com/testcontainers/testcontainers-go/wait"
)

/*
Test helpers for PostgreSQL with testcontainers

- Starts a PostgreSQL container
- Creates the schema through Repository.CreateTables
- Cleans up after the test

References:
- https://golang.testcontainers.org/modules/postgres/
- https://eltonminetto.dev/post/2024-02-15-using-test-helpers/
*/

const (
	defaultDatabase = "testdb"
	defaultUser     = "testuser"
	defaultPassword = "testpass"
)

// PostgresContainer wraps the container and its connection
type PostgresContainer struct {
	Container testcontainers.Container
	DB        *sql.DB
	ConnStr   string
}

// SetupPostgresContainer creates and starts a PostgreSQL container
func SetupPostgresContainer(t *testing.T, ctx context.Context) (*PostgresContainer, func()) {
	t.Helper()

	pgContainer, err := postgres.Run(ctx,
		"postgres:16-alpine",
		postgres.WithDatabase(defaultDatabase),
		postgres.WithUsername(defaultUser),
		postgres.WithPassword(defaultPassword),
		testcontainers.WithWaitStrategy(
			wait.ForLog("database system is ready to accept connections").
				WithOccurrence(2).
				WithStartupTimeout(60*time.Second),
		),
	)
	require.NoError(t, err)

	connStr, err := pgContainer.ConnectionString(ctx, "sslmode=disable")
	require.NoError(t, err)

	db, err := sql.Open("postgres", connStr)
	require.NoError(t, err)
	require.NoError(t, db.PingContext(ctx))

	container := &PostgresContainer{
		Container: pgContainer,
		DB:        db,
		ConnStr:   connStr,
	}

	cleanup := func() {
		if db != nil {
			_ = db.Close()
		}
		if pgContainer != nil {
			_ = pgContainer.Terminate(ctx)
		}
	}

	return container, cleanup
}

// CreateTestRepository creates a repository with a fresh schema
func CreateTestRepository(t *testing.T, ctx context.Context, connStr string) *Repository {
	t.Helper()

	repo, err := NewRepository(connStr)
	require.NoError(t, err)
	require.NoError(t, repo.DropTables(ctx))
	require.NoError(t, repo.CreateTables(ctx))

	return repo
}

// AssertRegistrationCount checks how many registrations are stored
func AssertRegistrationCount(t *testing.T, ctx context.Context, db *sql.DB, expected int) {
	t.Helper()

	var count int
	err := db.QueryRowContext(ctx, "SELECT COUNT(*) FROM registrations").Scan(&count)
	require.NoError(t, err)
	require.Equal(t, expected, count)
}

// SetActive flips is_active directly, there is no API for it
func SetActive(t *testing.T, ctx context.Context, db *sql.DB, id string, active bool) {
	t.Helper()

	_, err := db.ExecContext(ctx, "UPDATE registrations SET is_active = $1 WHERE id = $2", active, id)
	require.NoError(t, err)
}
