package db

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"resdir/internal/apierror"
	"resdir/internal/db/dbtest"
)

func openMem(t *testing.T) *gorm.DB {
	t.Helper()
	gdb, err := gorm.Open(sqlite.Open(dbtest.MemoryDSN()), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	require.NoError(t, err)
	return gdb
}

func TestWithRetryRetriesPoolExhaustion(t *testing.T) {
	gdb := openMem(t)
	attempts := 0
	err := WithRetry(context.Background(), gdb, func(*gorm.DB) error {
		attempts++
		if attempts < 3 {
			return errors.New("Error 1040: Too many connections")
		}
		return nil
	})
	require.NoError(t, err)
	assert.Equal(t, 3, attempts)
}

func TestWithRetryGivesUpAfterFixedAttempts(t *testing.T) {
	gdb := openMem(t)
	attempts := 0
	err := WithRetry(context.Background(), gdb, func(*gorm.DB) error {
		attempts++
		return errors.New("database is locked")
	})
	require.Error(t, err)
	assert.Equal(t, acquireRetries+1, attempts)
}

// Authorization and validation outcomes are final; retrying them would just
// repeat the same answer against unchanged state.
func TestWithRetryNeverRetriesTypedErrors(t *testing.T) {
	gdb := openMem(t)
	for _, typed := range []error{
		apierror.Forbidden("no"),
		apierror.NotFound("gone"),
		apierror.BadRequest("bad"),
		apierror.Conflict("dup"),
		apierror.OperatorMismatch("nope"),
	} {
		attempts := 0
		err := WithRetry(context.Background(), gdb, func(*gorm.DB) error {
			attempts++
			return typed
		})
		assert.Same(t, typed, err)
		assert.Equal(t, 1, attempts)
	}
}

func TestWithRetryStopsOnCancelledContext(t *testing.T) {
	gdb := openMem(t)
	ctx, cancel := context.WithCancel(context.Background())
	attempts := 0
	err := WithRetry(ctx, gdb, func(*gorm.DB) error {
		attempts++
		cancel()
		return errors.New("too many connections")
	})
	assert.ErrorIs(t, err, context.Canceled)
	assert.Equal(t, 1, attempts)
}
