package dbtest

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestStart_ProviderPanicBecomesError(t *testing.T) {
	dsn, teardown, err := start(context.Background(), func(context.Context) (string, func(context.Context) error, error) {
		panic("rootless Docker not found")
	})
	require.ErrorIs(t, err, ErrUnavailable)
	assert.Contains(t, err.Error(), "rootless Docker not found")
	assert.Empty(t, dsn)
	assert.Nil(t, teardown)
}

func TestStart_PassesThroughResult(t *testing.T) {
	boom := errors.New("pull failed")
	_, _, err := start(context.Background(), func(context.Context) (string, func(context.Context) error, error) {
		return "", nil, boom
	})
	require.ErrorIs(t, err, boom)

	dsn, teardown, err := start(context.Background(), func(context.Context) (string, func(context.Context) error, error) {
		return "postgres://x", func(context.Context) error { return nil }, nil
	})
	require.NoError(t, err)
	assert.Equal(t, "postgres://x", dsn)
	require.NotNil(t, teardown)
	assert.NoError(t, teardown(context.Background()))
}
