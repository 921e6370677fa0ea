// Package dbtest starts a disposable Postgres for store-backed tests.
package dbtest

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"testing"
	"time"

	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/modules/postgres"
	"github.com/testcontainers/testcontainers-go/wait"
	"gorm.io/gorm"

	"github.com/emilythestrangee/devflow/backend/internal/database"
)

// Instance is a migrated database running in a container.
type Instance struct {
	DSN       string
	DB        *gorm.DB
	container *postgres.PostgresContainer
}

// Start runs postgres:16-alpine and applies the schema.
func Start(ctx context.Context) (inst *Instance, err error) {
	// Older docker host discovery panics instead of returning an error.
	defer func() {
		if r := recover(); r != nil {
			inst, err = nil, fmt.Errorf("docker unavailable: %v", r)
		}
	}()

	container, err := postgres.Run(ctx,
		"postgres:16-alpine",
		postgres.WithDatabase("devflow"),
		postgres.WithUsername("devflow"),
		postgres.WithPassword("devflow"),
		testcontainers.WithWaitStrategy(
			wait.ForLog("database system is ready to accept connections").
				WithOccurrence(2).
				WithStartupTimeout(60*time.Second)),
	)
	if err != nil {
		return nil, fmt.Errorf("start postgres container: %w", err)
	}

	dsn, err := container.ConnectionString(ctx, "sslmode=disable")
	if err != nil {
		_ = container.Terminate(ctx)
		return nil, fmt.Errorf("connection string: %w", err)
	}

	svc, err := database.New(dsn, slog.New(slog.NewTextHandler(io.Discard, nil)))
	if err != nil {
		_ = container.Terminate(ctx)
		return nil, err
	}
	if err := database.Migrate(ctx, svc.GetDB()); err != nil {
		_ = container.Terminate(ctx)
		return nil, err
	}

	return &Instance{DSN: dsn, DB: svc.GetDB(), container: container}, nil
}

// Terminate stops the container.
func (i *Instance) Terminate(ctx context.Context) error {
	if i == nil || i.container == nil {
		return nil
	}
	return i.container.Terminate(ctx)
}

// Reset empties every table between tests.
func (i *Instance) Reset(t *testing.T) {
	t.Helper()
	err := i.DB.Exec(`TRUNCATE users, accounts, questions, answers, tags, tag_questions,
		votes, vote_receipts, collections, interactions RESTART IDENTITY`).Error
	if err != nil {
		t.Fatalf("reset database: %v", err)
	}
}

// Main is a TestMain body: it starts the database, runs the tests and
// terminates the container. When Docker is unavailable *inst stays nil and
// store-backed tests skip through Require.
func Main(m *testing.M, inst **Instance) {
	ctx := context.Background()
	started, err := Start(ctx)
	if err != nil {
		fmt.Fprintf(os.Stderr, "postgres unavailable, store-backed tests will skip: %v\n", err)
	}
	*inst = started

	code := m.Run()

	if err := started.Terminate(ctx); err != nil {
		fmt.Fprintf(os.Stderr, "failed to terminate container: %v\n", err)
	}
	os.Exit(code)
}

// Require skips t when no database is running and resets it otherwise.
func Require(t *testing.T, inst *Instance) *gorm.DB {
	t.Helper()
	if inst == nil {
		t.Skip("postgres container not available")
	}
	inst.Reset(t)
	return inst.DB
}
