package observability

import (
	"bytes"
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testLogger() *Logger {
	return NewLogger(ErrorLevel, &bytes.Buffer{})
}

func TestDrain_NoServerNoHooks(t *testing.T) {
	err := Drain(context.Background(), testLogger(), nil)
	assert.NoError(t, err)
}

func TestDrain_RunsHooksInOrder(t *testing.T) {
	var order []int
	hook := func(n int) ShutdownFunc {
		return func(context.Context) error {
			order = append(order, n)
			return nil
		}
	}

	err := Drain(context.Background(), testLogger(), nil, hook(1), hook(2), hook(3))

	require.NoError(t, err)
	assert.Equal(t, []int{1, 2, 3}, order)
}

func TestDrain_HookErrorDoesNotStopOthers(t *testing.T) {
	var ran bool
	failing := func(context.Context) error { return errors.New("sink closed twice") }
	tracking := func(context.Context) error { ran = true; return nil }

	err := Drain(context.Background(), testLogger(), nil, failing, tracking)

	assert.Error(t, err)
	assert.True(t, ran, "later hooks must still run")
}

func TestDrain_FirstErrorWins(t *testing.T) {
	first := errors.New("first")
	second := errors.New("second")

	err := Drain(context.Background(), testLogger(), nil,
		func(context.Context) error { return first },
		func(context.Context) error { return second },
	)

	assert.ErrorIs(t, err, first)
	assert.NotErrorIs(t, err, second)
}

func TestDrain_StopsAfterTimeout(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	var ranAfterCancel bool

	err := Drain(ctx, testLogger(), nil,
		func(context.Context) error {
			cancel()
			return nil
		},
		func(context.Context) error {
			ranAfterCancel = true
			return nil
		},
	)

	assert.Error(t, err)
	assert.False(t, ranAfterCancel, "hooks after the deadline must not run")
}

func TestDrain_ShutsDownServer(t *testing.T) {
	handler := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	})
	ts := httptest.NewUnstartedServer(handler)
	ts.Start()
	defer ts.Close()

	server := ts.Config

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	err := Drain(ctx, testLogger(), server)
	require.NoError(t, err)

	// Further requests must be refused once drained.
	_, err = http.Get(ts.URL)
	assert.Error(t, err)
}

func TestDrain_ServerErrorStillRunsHooks(t *testing.T) {
	server := &http.Server{}
	// Shutdown on a never-started server returns nil, so force a failure
	// through an already-cancelled context with an in-flight listener.
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	var ran bool
	err := Drain(ctx, testLogger(), server, func(context.Context) error {
		ran = true
		return nil
	})

	// The hook ran regardless of how the server drain fared.
	assert.True(t, ran)
	_ = err
}
