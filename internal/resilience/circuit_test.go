package resilience

import (
	"context"
	"testing"
	"time"

	"github.com/rotisserie/eris"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testBreaker(threshold int, resetTimeout time.Duration) (*CircuitBreaker, *time.Time) {
	now := time.Now()
	cb := NewCircuitBreaker(CircuitBreakerConfig{
		FailureThreshold: threshold,
		ResetTimeout:     resetTimeout,
	})
	cb.nowFunc = func() time.Time { return now }
	return cb, &now
}

func fail(ctx context.Context) (int, error) { return 0, eris.New("collaborator down") }

func succeed(ctx context.Context) (int, error) { return 7, nil }

func TestExecuteVal_PassesThroughWhenClosed(t *testing.T) {
	cb, _ := testBreaker(3, time.Minute)

	got, err := ExecuteVal(context.Background(), cb, succeed)
	require.NoError(t, err)
	assert.Equal(t, 7, got)
	assert.Equal(t, CircuitClosed, cb.State())
}

func TestExecuteVal_OpensAfterThreshold(t *testing.T) {
	cb, _ := testBreaker(3, time.Minute)
	ctx := context.Background()

	for i := 0; i < 3; i++ {
		_, err := ExecuteVal(ctx, cb, fail)
		require.Error(t, err)
	}
	assert.Equal(t, CircuitOpen, cb.State())

	_, err := ExecuteVal(ctx, cb, succeed)
	assert.ErrorIs(t, err, ErrCircuitOpen)
}

func TestExecuteVal_SuccessResetsFailureCount(t *testing.T) {
	cb, _ := testBreaker(3, time.Minute)
	ctx := context.Background()

	_, _ = ExecuteVal(ctx, cb, fail)
	_, _ = ExecuteVal(ctx, cb, fail)
	_, err := ExecuteVal(ctx, cb, succeed)
	require.NoError(t, err)

	// Two more failures stay under the threshold again.
	_, _ = ExecuteVal(ctx, cb, fail)
	_, _ = ExecuteVal(ctx, cb, fail)
	assert.Equal(t, CircuitClosed, cb.State())
}

func TestExecuteVal_ProbeClosesCircuit(t *testing.T) {
	cb, now := testBreaker(2, time.Minute)
	ctx := context.Background()

	_, _ = ExecuteVal(ctx, cb, fail)
	_, _ = ExecuteVal(ctx, cb, fail)
	assert.Equal(t, CircuitOpen, cb.State())

	*now = now.Add(2 * time.Minute)
	assert.Equal(t, CircuitHalfOpen, cb.State())

	got, err := ExecuteVal(ctx, cb, succeed)
	require.NoError(t, err)
	assert.Equal(t, 7, got)
	assert.Equal(t, CircuitClosed, cb.State())
}

func TestExecuteVal_FailedProbeReopens(t *testing.T) {
	cb, now := testBreaker(2, time.Minute)
	ctx := context.Background()

	_, _ = ExecuteVal(ctx, cb, fail)
	_, _ = ExecuteVal(ctx, cb, fail)
	*now = now.Add(2 * time.Minute)

	_, err := ExecuteVal(ctx, cb, fail)
	require.Error(t, err)
	assert.NotErrorIs(t, err, ErrCircuitOpen)

	_, err = ExecuteVal(ctx, cb, succeed)
	assert.ErrorIs(t, err, ErrCircuitOpen)
}

func TestCircuitBreaker_StateChangeCallback(t *testing.T) {
	var changes []string
	cb := NewCircuitBreaker(CircuitBreakerConfig{
		FailureThreshold: 1,
		ResetTimeout:     time.Minute,
		OnStateChange: func(from, to CircuitState) {
			changes = append(changes, from.String()+"->"+to.String())
		},
	})
	now := time.Now()
	cb.nowFunc = func() time.Time { return now }
	ctx := context.Background()

	_, _ = ExecuteVal(ctx, cb, fail)
	now = now.Add(2 * time.Minute)
	_, _ = ExecuteVal(ctx, cb, succeed)

	assert.Equal(t, []string{"closed->open", "open->half-open", "half-open->closed"}, changes)
}

func TestCircuitStateString(t *testing.T) {
	assert.Equal(t, "closed", CircuitClosed.String())
	assert.Equal(t, "open", CircuitOpen.String())
	assert.Equal(t, "half-open", CircuitHalfOpen.String())
	assert.Equal(t, "unknown", CircuitState(42).String())
}

func TestFromCircuitConfig(t *testing.T) {
	cfg := FromCircuitConfig(7, 10)
	assert.Equal(t, 7, cfg.FailureThreshold)
	assert.Equal(t, 10*time.Second, cfg.ResetTimeout)

	// NewCircuitBreaker fills unset values.
	cb := NewCircuitBreaker(FromCircuitConfig(0, 0))
	assert.Equal(t, 5, cb.cfg.FailureThreshold)
	assert.Equal(t, 30*time.Second, cb.cfg.ResetTimeout)
}
