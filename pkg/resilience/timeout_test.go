package resilience

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTimeoutConfig_Hierarchy(t *testing.T) {
	for name, config := range map[string]*TimeoutConfig{
		"default": DefaultTimeoutConfig(),
		"test":    TestTimeoutConfig(),
	} {
		t.Run(name, func(t *testing.T) {
			assert.Greater(t, config.HTTPHandler, config.Service)
			assert.Greater(t, config.Service, config.PageFetch)
			assert.Greater(t, config.Refresh, config.PageFetch)
		})
	}
}

func TestTimeoutConfig_Contexts(t *testing.T) {
	config := DefaultTimeoutConfig()

	tests := []struct {
		name     string
		create   func(context.Context) (context.Context, context.CancelFunc)
		expected time.Duration
	}{
		{"handler", config.HandlerContext, config.HTTPHandler},
		{"refresh", config.RefreshContext, config.Refresh},
		{"service", config.ServiceContext, config.Service},
		{"page fetch", config.PageFetchContext, config.PageFetch},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ctx, cancel := tt.create(context.Background())
			defer cancel()

			deadline, ok := ctx.Deadline()
			require.True(t, ok)
			diff := time.Until(deadline) - tt.expected
			assert.Less(t, diff.Abs(), 100*time.Millisecond)
		})
	}
}

func TestTimeoutConfig_ParentCancellationPropagates(t *testing.T) {
	parent, cancel := context.WithCancel(context.Background())
	ctx, cancelChild := DefaultTimeoutConfig().ServiceContext(parent)
	defer cancelChild()

	cancel()

	select {
	case <-ctx.Done():
		assert.ErrorIs(t, ctx.Err(), context.Canceled)
	case <-time.After(time.Second):
		t.Fatal("child context not cancelled")
	}
}
