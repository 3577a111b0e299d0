package shutdown

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func TestManager_ShutsDownInReverseOrder(t *testing.T) {
	m := NewManager(zap.NewNop(), time.Second)

	var order []string
	for _, name := range []string{"postgres", "http", "refresher"} {
		name := name
		m.RegisterNoErr(name, func() { order = append(order, name) })
	}

	require.NoError(t, m.Shutdown())
	assert.Equal(t, []string{"refresher", "http", "postgres"}, order)

	// Second call does not rerun components
	require.NoError(t, m.Shutdown())
	assert.Len(t, order, 3)
}

func TestManager_CollectsErrorsAndContinues(t *testing.T) {
	m := NewManager(zap.NewNop(), time.Second)
	closed := false

	m.RegisterNoErr("postgres", func() { closed = true })
	m.Register("redis", func(ctx context.Context) error { return errors.New("connection reset") })

	err := m.Shutdown()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "redis: connection reset")
	assert.True(t, closed)
}

func TestManager_PassesDeadline(t *testing.T) {
	m := NewManager(zap.NewNop(), 50*time.Millisecond)
	m.Register("slow", func(ctx context.Context) error {
		_, ok := ctx.Deadline()
		assert.True(t, ok)
		<-ctx.Done()
		return ctx.Err()
	})

	err := m.Shutdown()
	assert.ErrorIs(t, err, context.DeadlineExceeded)
}

func TestManager_WaitForShutdownOnContext(t *testing.T) {
	m := NewManager(zap.NewNop(), time.Second)
	stopped := make(chan struct{})
	m.RegisterNoErr("refresher", func() { close(stopped) })

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	require.NoError(t, m.WaitForShutdown(ctx))
	select {
	case <-stopped:
	default:
		t.Fatal("component was not shut down")
	}
}

type fakeCloser struct{ closed bool }

func (f *fakeCloser) Close() error {
	f.closed = true
	return nil
}

func TestManager_RegisterCloser(t *testing.T) {
	m := NewManager(zap.NewNop(), time.Second)
	c := &fakeCloser{}
	m.RegisterCloser("redis", c)

	require.NoError(t, m.Shutdown())
	assert.True(t, c.closed)
}
