package engine

import (
	"context"
	"errors"
	"log/slog"
	"sync"
	"testing"
	"time"

	"github.com/leapstack-labs/calckit/internal/state"
	"github.com/leapstack-labs/calckit/internal/testutil"
	"github.com/leapstack-labs/calckit/pkg/arith"
	"github.com/leapstack-labs/calckit/pkg/temperature"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// memStore is an in-memory state.Store for engine tests.
type memStore struct {
	mu        sync.Mutex
	entries   []*state.Entry
	recordErr error
	closed    bool
}

func (m *memStore) Record(_ context.Context, e *state.Entry) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.recordErr != nil {
		return m.recordErr
	}
	if e.ID == "" {
		e.ID = "mem-id"
	}
	m.entries = append(m.entries, e)
	return nil
}

func (m *memStore) List(_ context.Context, limit int) ([]*state.Entry, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []*state.Entry
	for i := len(m.entries) - 1; i >= 0; i-- {
		out = append(out, m.entries[i])
		if limit > 0 && len(out) == limit {
			break
		}
	}
	return out, nil
}

func (m *memStore) Clear(_ context.Context) (int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	n := int64(len(m.entries))
	m.entries = nil
	return n, nil
}

func (m *memStore) Close() error {
	m.closed = true
	return nil
}

func newTestEngine(t *testing.T, store state.Store) *Engine {
	t.Helper()
	return New(Config{
		Store:  store,
		Logger: testutil.NewTestLogger(t),
		Now:    func() time.Time { return time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC) },
	})
}

func TestEngine_Evaluate(t *testing.T) {
	tests := []struct {
		name    string
		req     Request
		want    string
		wantInt bool
	}{
		{name: "add integers", req: Request{Op: "add", Args: []string{"2", "3"}}, want: "5", wantInt: true},
		{name: "add mixed signs", req: Request{Op: "add", Args: []string{"-2", "1"}}, want: "-1", wantInt: true},
		{name: "add decimals", req: Request{Op: "add", Args: []string{"1.5", "2"}}, want: "3.5"},
		{name: "add zero and nonzero", req: Request{Op: "add", Args: []string{"0", "4"}}, want: "4", wantInt: true},
		{name: "subtract", req: Request{Op: "subtract", Args: []string{"5", "3"}}, want: "2", wantInt: true},
		{name: "subtract negative", req: Request{Op: "sub", Args: []string{"-5", "1"}}, want: "-6", wantInt: true},
		{name: "subtract zeros", req: Request{Op: "subtract", Args: []string{"0", "0"}}, want: "0", wantInt: true},
		{name: "large integers stay exact", req: Request{Op: "add", Args: []string{"9007199254740993", "2"}}, want: "9007199254740995", wantInt: true},
		{name: "c2f freezing", req: Request{Op: "c2f", Args: []string{"0"}}, want: "32"},
		{name: "c2f boiling", req: Request{Op: "C2F", Args: []string{"100"}}, want: "212"},
		{name: "f2c freezing", req: Request{Op: "f2c", Args: []string{"32"}}, want: "0"},
		{name: "f2c boiling", req: Request{Op: "fahrenheit-to-celsius", Args: []string{"212"}}, want: "100"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			eng := newTestEngine(t, nil)
			res, err := eng.Evaluate(context.Background(), tt.req)
			require.NoError(t, err)
			assert.Equal(t, tt.want, res.Value.Format(6))
			assert.Equal(t, tt.wantInt, res.Value.IsInt())
			assert.Empty(t, res.ID, "no ID without history")
		})
	}
}

func TestEngine_ConversionTolerance(t *testing.T) {
	eng := newTestEngine(t, nil)
	ctx := context.Background()

	res, err := eng.Apply(ctx, "c2f", FloatOperand(37))
	require.NoError(t, err)
	assert.InDelta(t, 98.6, res.Value.Float(), temperature.Tolerance)

	back, err := eng.Apply(ctx, "f2c", res.Value)
	require.NoError(t, err)
	assert.InDelta(t, 37, back.Value.Float(), temperature.Tolerance)
}

func TestEngine_AddZeroOperands(t *testing.T) {
	store := &memStore{}
	eng := newTestEngine(t, store)

	res, err := eng.Evaluate(context.Background(), Request{Op: "add", Args: []string{"0", "0"}})
	require.Error(t, err)
	assert.Nil(t, res)
	assert.Contains(t, err.Error(), "Cannot divide by zero")

	var verr *arith.ValidationError
	assert.True(t, errors.As(err, &verr))
	assert.ErrorIs(t, err, arith.ErrInvalidArgument)

	require.Len(t, store.entries, 1, "failures are recorded")
	assert.True(t, store.entries[0].Failed())
	assert.Equal(t, []string{"0", "0"}, store.entries[0].Args)
}

func TestEngine_AddZeroDecimals(t *testing.T) {
	eng := newTestEngine(t, nil)
	_, err := eng.Evaluate(context.Background(), Request{Op: "add", Args: []string{"0.0", "-0"}})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "Cannot divide by zero")
}

func TestEngine_Errors(t *testing.T) {
	tests := []struct {
		name    string
		req     Request
		wantErr error
	}{
		{name: "unknown op", req: Request{Op: "multiply", Args: []string{"2", "3"}}, wantErr: ErrUnknownOp},
		{name: "too few operands", req: Request{Op: "add", Args: []string{"2"}}, wantErr: ErrArity},
		{name: "too many operands", req: Request{Op: "c2f", Args: []string{"1", "2"}}, wantErr: ErrArity},
		{name: "not a number", req: Request{Op: "add", Args: []string{"two", "3"}}, wantErr: ErrInvalidOperand},
		{name: "infinity", req: Request{Op: "f2c", Args: []string{"Inf"}}, wantErr: ErrInvalidOperand},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			store := &memStore{}
			eng := newTestEngine(t, store)
			_, err := eng.Evaluate(context.Background(), tt.req)
			require.Error(t, err)
			assert.ErrorIs(t, err, tt.wantErr)
			assert.Empty(t, store.entries, "malformed requests are not recorded")
		})
	}
}

func TestEngine_IntegerOverflowFallsBackToFloat(t *testing.T) {
	tests := []struct {
		name string
		req  Request
		want float64
	}{
		{name: "add past max", req: Request{Op: "add", Args: []string{"9223372036854775807", "1"}}, want: 9223372036854775808},
		{name: "add past min", req: Request{Op: "add", Args: []string{"-9223372036854775808", "-1"}}, want: -9223372036854775809},
		{name: "subtract past max", req: Request{Op: "subtract", Args: []string{"9223372036854775807", "-1"}}, want: 9223372036854775808},
		{name: "subtract past min", req: Request{Op: "sub", Args: []string{"-9223372036854775808", "1"}}, want: -9223372036854775809},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			eng := newTestEngine(t, nil)
			res, err := eng.Evaluate(context.Background(), tt.req)
			require.NoError(t, err)
			assert.False(t, res.Value.IsInt())
			assert.Equal(t, tt.want, res.Value.Float())
		})
	}

	eng := newTestEngine(t, nil)
	res, err := eng.Evaluate(context.Background(), Request{Op: "add", Args: []string{"9223372036854775806", "1"}})
	require.NoError(t, err)
	assert.True(t, res.Value.IsInt())
	assert.Equal(t, "9223372036854775807", res.Value.String())
}

func TestEngine_OutOfRange(t *testing.T) {
	tests := []struct {
		name string
		req  Request
	}{
		{name: "c2f overflow", req: Request{Op: "c2f", Args: []string{"1e308"}}},
		{name: "add overflow", req: Request{Op: "add", Args: []string{"1.7e308", "1.7e308"}}},
		{name: "subtract overflow", req: Request{Op: "subtract", Args: []string{"-1.7e308", "1.7e308"}}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			store := &memStore{}
			eng := newTestEngine(t, store)
			res, err := eng.Evaluate(context.Background(), tt.req)
			require.Error(t, err)
			assert.Nil(t, res)
			assert.ErrorIs(t, err, ErrOutOfRange)
			require.Len(t, store.entries, 1)
			assert.Contains(t, store.entries[0].Error, "result out of range")
		})
	}
}

func TestEngine_CancelledContext(t *testing.T) {
	eng := newTestEngine(t, nil)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := eng.Evaluate(ctx, Request{Op: "add", Args: []string{"1", "2"}})
	assert.ErrorIs(t, err, context.Canceled)
}

func TestEngine_History(t *testing.T) {
	ctx := context.Background()
	store := &memStore{}
	eng := newTestEngine(t, store)
	require.True(t, eng.HistoryEnabled())

	res, err := eng.Evaluate(ctx, Request{Op: "add", Args: []string{"2", "3"}})
	require.NoError(t, err)
	assert.Equal(t, "mem-id", res.ID)

	_, err = eng.Evaluate(ctx, Request{Op: "c2f", Args: []string{"100"}})
	require.NoError(t, err)

	entries, err := eng.History(ctx, 0)
	require.NoError(t, err)
	require.Len(t, entries, 2)
	assert.Equal(t, "c2f", entries[0].Op)
	assert.Equal(t, "212", entries[0].Result)
	assert.Equal(t, "5", entries[1].Result)

	n, err := eng.ClearHistory(ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(2), n)

	require.NoError(t, eng.Close())
	assert.True(t, store.closed)
}

func TestEngine_HistoryWithSQLite(t *testing.T) {
	ctx := context.Background()
	store := state.NewSQLiteStore(testutil.NewTestLogger(t))
	require.NoError(t, store.Open(":memory:"))

	eng := newTestEngine(t, store)
	defer eng.Close()

	res, err := eng.Evaluate(ctx, Request{Op: "subtract", Args: []string{"-3", "4"}})
	require.NoError(t, err)
	assert.NotEmpty(t, res.ID)

	entries, err := eng.History(ctx, 10)
	require.NoError(t, err)
	require.Len(t, entries, 1)
	assert.Equal(t, res.ID, entries[0].ID)
	assert.Equal(t, "-7", entries[0].Result)
}

func TestEngine_HistoryDisabled(t *testing.T) {
	eng := newTestEngine(t, nil)
	assert.False(t, eng.HistoryEnabled())

	_, err := eng.History(context.Background(), 5)
	assert.ErrorIs(t, err, ErrHistoryDisabled)

	_, err = eng.ClearHistory(context.Background())
	assert.ErrorIs(t, err, ErrHistoryDisabled)

	assert.NoError(t, eng.Close())
}

func TestEngine_RecordFailureDoesNotFailEvaluation(t *testing.T) {
	store := &memStore{recordErr: errors.New("disk full")}
	logger, logs := testutil.NewCaptureLogger(slog.LevelWarn)
	eng := New(Config{Store: store, Logger: logger})

	res, err := eng.Evaluate(context.Background(), Request{Op: "add", Args: []string{"2", "2"}})
	require.NoError(t, err)
	assert.Equal(t, "4", res.Value.String())
	assert.Empty(t, res.ID)
	assert.Contains(t, logs.String(), "failed to record evaluation")
	assert.Contains(t, logs.String(), "disk full")
}

func TestEngine_Concurrent(t *testing.T) {
	store := &memStore{}
	eng := newTestEngine(t, store)

	var wg sync.WaitGroup
	for i := 1; i <= 20; i++ {
		wg.Add(1)
		go func(n int64) {
			defer wg.Done()
			res, err := eng.Apply(context.Background(), "add", IntOperand(n), IntOperand(n))
			assert.NoError(t, err)
			assert.Equal(t, 2*n, res.Value.Int())
		}(int64(i))
	}
	wg.Wait()
	assert.Len(t, store.entries, 20)
}
