package resilience

import (
	"context"
	"time"
)

// TimeoutConfig defines timeout values for the application's timeout hierarchy
//
// Timeout Hierarchy (from outermost to innermost):
//
//	HTTP Handler (30s) / First-sale refresh (5m)
//	  ↓
//	Service Layer (25s)
//	  ↓
//	History page fetch (20s per attempt)
//	  ↓
//	Database Query (2s/5s/30s - based on complexity)
type TimeoutConfig struct {
	HTTPHandler time.Duration // Overall request timeout
	Refresh     time.Duration // Full first-sale rebuild
	Service     time.Duration // Service operation timeout
	PageFetch   time.Duration // One history page, per retry attempt
}

// DefaultTimeoutConfig returns production timeout values
func DefaultTimeoutConfig() *TimeoutConfig {
	return &TimeoutConfig{
		HTTPHandler: 30 * time.Second,
		Refresh:     5 * time.Minute,
		Service:     25 * time.Second,
		PageFetch:   20 * time.Second,
	}
}

// TestTimeoutConfig returns shorter timeouts for testing
func TestTimeoutConfig() *TimeoutConfig {
	return &TimeoutConfig{
		HTTPHandler: 5 * time.Second,
		Refresh:     10 * time.Second,
		Service:     4 * time.Second,
		PageFetch:   2 * time.Second,
	}
}

// HandlerContext creates a context with timeout for HTTP handlers
func (tc *TimeoutConfig) HandlerContext(parent context.Context) (context.Context, context.CancelFunc) {
	return context.WithTimeout(parent, tc.HTTPHandler)
}

// RefreshContext creates a context bounding one first-sale rebuild
func (tc *TimeoutConfig) RefreshContext(parent context.Context) (context.Context, context.CancelFunc) {
	return context.WithTimeout(parent, tc.Refresh)
}

// ServiceContext creates a context with timeout for service layer operations
func (tc *TimeoutConfig) ServiceContext(parent context.Context) (context.Context, context.CancelFunc) {
	return context.WithTimeout(parent, tc.Service)
}

// PageFetchContext creates a context for a single history page attempt
func (tc *TimeoutConfig) PageFetchContext(parent context.Context) (context.Context, context.CancelFunc) {
	return context.WithTimeout(parent, tc.PageFetch)
}
