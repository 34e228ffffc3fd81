package snsctx

import (
	"context"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestVerbose(t *testing.T) {
	ctx := context.Background()
	assert.False(t, IsVerbose(ctx))
	assert.True(t, IsVerbose(SetVerbose(ctx, true)))
	assert.False(t, IsVerbose(SetVerbose(ctx, false)))
}

func TestLogger(t *testing.T) {
	ctx := context.Background()
	assert.Same(t, slog.Default(), Logger(ctx))
	l := slog.Default().With("device", "sensors#1")
	assert.Same(t, l, Logger(WithLogger(ctx, l)))
	assert.Same(t, slog.Default(), Logger(WithLogger(ctx, nil)))
}
