// Package dbtest starts a throwaway Postgres for integration tests.
package dbtest

import (
	"context"
	"errors"
	"fmt"

	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/modules/postgres"
)

const (
	dbName = "restaurant_checkout"
	dbUser = "user"
	dbPwd  = "password"
)

// ErrUnavailable means no container runtime could be reached.
var ErrUnavailable = errors.New("container runtime unavailable")

type runner func(ctx context.Context) (dsn string, teardown func(context.Context) error, err error)

// StartPostgres runs a postgres container and returns its DSN and a
// teardown func. Callers decide whether a failure skips or fails.
func StartPostgres(ctx context.Context) (string, func(context.Context) error, error) {
	return start(ctx, runPostgres)
}

// start turns a panic from the container provider (testcontainers panics
// when no Docker host is found) into ErrUnavailable.
func start(ctx context.Context, run runner) (dsn string, teardown func(context.Context) error, err error) {
	defer func() {
		if r := recover(); r != nil {
			dsn, teardown = "", nil
			err = fmt.Errorf("%w: %v", ErrUnavailable, r)
		}
	}()
	return run(ctx)
}

func runPostgres(ctx context.Context) (string, func(context.Context) error, error) {
	ctr, err := postgres.Run(
		ctx,
		"postgres:16-alpine",
		postgres.WithDatabase(dbName),
		postgres.WithUsername(dbUser),
		postgres.WithPassword(dbPwd),
		postgres.BasicWaitStrategies(),
	)
	if err != nil {
		return "", nil, fmt.Errorf("start postgres container: %w", err)
	}

	teardown := func(ctx context.Context) error {
		return testcontainers.TerminateContainer(ctr)
	}

	dsn, err := ctr.ConnectionString(ctx, "sslmode=disable")
	if err != nil {
		_ = teardown(ctx)
		return "", nil, fmt.Errorf("connection string: %w", err)
	}
	return dsn, teardown, nil
}
