// Package iotesting provides shared test utilities for integration tests.
// This is an internal package for test infrastructure only.
package iotesting

import (
	"context"
	"fmt"
	"os"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/astroinject/astroinject/pkg/config"
	"github.com/google/uuid"
	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/modules/postgres"
	"github.com/testcontainers/testcontainers-go/wait"
)

const (
	// DSNEnv points integration tests to an existing database instead of a
	// container.
	DSNEnv = "ASTROINJECT_TEST_DSN"

	// PostgresImage is started when DSNEnv is not set.
	PostgresImage = "postgres:17-alpine"

	// TestDatabaseName is the database created inside the container.
	TestDatabaseName = "astroinject_test"
)

var (
	once   sync.Once
	dsn    string
	dsnErr error
)

// GetTestDatabaseConfig returns the database configuration for
// integration tests. It uses DSNEnv when set, otherwise it starts one
// PostgreSQL container shared by all tests of the package. The test is
// skipped when neither is available.
//
// Usage in integration tests:
//
//	func TestSomething(t *testing.T) {
//	    if testing.Short() {
//	        t.Skip("Skipping integration test")
//	    }
//	    dbCfg := iotesting.GetTestDatabaseConfig(t)
//	    // ... connect a loader with dbCfg
//	}
func GetTestDatabaseConfig(t *testing.T) *config.DatabaseConfig {
	t.Helper()

	once.Do(func() {
		if s := os.Getenv(DSNEnv); s != "" {
			dsn = s
			return
		}
		dsn, dsnErr = startPostgres(context.Background())
	})
	if dsnErr != nil {
		t.Skipf("no database for integration tests: %v", dsnErr)
	}

	cfg := config.New().Database
	cfg.DSN = dsn
	return &cfg
}

// startPostgres runs a disposable container. It is removed by the
// testcontainers reaper when the test binary exits.
func startPostgres(ctx context.Context) (string, error) {
	ctr, err := postgres.Run(ctx,
		PostgresImage,
		postgres.WithUsername("postgres"),
		postgres.WithPassword("postgres"),
		postgres.WithDatabase(TestDatabaseName),
		testcontainers.WithWaitStrategy(
			wait.ForLog("database system is ready to accept connections").
				WithOccurrence(2).
				WithStartupTimeout(60*time.Second),
		),
	)
	if err != nil {
		return "", fmt.Errorf("start postgres: %w", err)
	}

	connStr, err := ctr.ConnectionString(ctx, "sslmode=disable")
	if err != nil {
		_ = ctr.Terminate(ctx)
		return "", fmt.Errorf("get connection string: %w", err)
	}
	return connStr, nil
}

// UniqueName returns prefix with a short random suffix, so tests sharing
// one database do not collide.
func UniqueName(prefix string) string {
	id := strings.ReplaceAll(uuid.NewString(), "-", "")
	return prefix + "_" + id[:8]
}
