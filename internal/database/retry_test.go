package database_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/MrJamesThe3rd/manekat/internal/database"
)

func TestRetryPolicy_Do(t *testing.T) {
	errBoom := errors.New("connection reset")

	type testCase struct {
		name      string
		policy    database.RetryPolicy
		failures  int
		failWith  error
		wantCalls int
		wantErr   bool
	}

	tests := []testCase{
		{
			name:      "SucceedsFirstTry",
			policy:    database.RetryPolicy{MaxRetries: 3, InitialInterval: time.Millisecond},
			wantCalls: 1,
		},
		{
			name:      "RetriesTransient",
			policy:    database.RetryPolicy{MaxRetries: 3, InitialInterval: time.Millisecond},
			failures:  2,
			failWith:  database.Wrap("creating transaction", errBoom),
			wantCalls: 3,
		},
		{
			name:      "GivesUpAfterMaxRetries",
			policy:    database.RetryPolicy{MaxRetries: 2, InitialInterval: time.Millisecond},
			failures:  10,
			failWith:  database.Wrap("creating transaction", errBoom),
			wantCalls: 3,
			wantErr:   true,
		},
		{
			name:      "PermanentErrorStopsImmediately",
			policy:    database.RetryPolicy{MaxRetries: 5, InitialInterval: time.Millisecond},
			failures:  10,
			failWith:  errors.New("validation failed"),
			wantCalls: 1,
			wantErr:   true,
		},
		{
			name:      "ZeroPolicySingleAttempt",
			failures:  10,
			failWith:  database.Wrap("creating transaction", errBoom),
			wantCalls: 1,
			wantErr:   true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			calls := 0
			err := tt.policy.Do(context.Background(), func(ctx context.Context) error {
				calls++
				if calls <= tt.failures {
					return tt.failWith
				}

				return nil
			})

			assert.Equal(t, tt.wantCalls, calls)

			if tt.wantErr {
				require.Error(t, err)
				assert.ErrorIs(t, err, tt.failWith)

				return
			}

			assert.NoError(t, err)
		})
	}
}

func TestRetryPolicy_AttemptTimeout(t *testing.T) {
	policy := database.RetryPolicy{Timeout: 10 * time.Millisecond}

	err := policy.Do(context.Background(), func(ctx context.Context) error {
		<-ctx.Done()
		return ctx.Err()
	})

	assert.ErrorIs(t, err, context.DeadlineExceeded)
}

func TestIsTransient(t *testing.T) {
	assert.True(t, database.IsTransient(database.Wrap("op", errors.New("x"))))
	assert.False(t, database.IsTransient(database.Wrap("op", context.Canceled)))
	assert.False(t, database.IsTransient(errors.New("x")))
	assert.Nil(t, database.Wrap("op", nil))
}
