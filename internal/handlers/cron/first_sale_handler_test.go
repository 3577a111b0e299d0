package cron

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/emilydias-boop/mcf-insight-hub/internal/services/firstsale"
)

type mockRefresher struct {
	mock.Mock
}

func (m *mockRefresher) Refresh(ctx context.Context, trigger firstsale.Trigger) (*firstsale.RefreshResult, error) {
	args := m.Called(ctx, trigger)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*firstsale.RefreshResult), args.Error(1)
}

func (m *mockRefresher) Age() (time.Duration, bool) {
	args := m.Called()
	return args.Get(0).(time.Duration), args.Bool(1)
}

const testSecret = "cron-secret-123"

func TestRefreshFirstSales_Auth(t *testing.T) {
	tests := []struct {
		name       string
		headers    map[string]string
		wantStatus int
	}{
		{name: "x-cron-secret", headers: map[string]string{"X-Cron-Secret": testSecret}, wantStatus: http.StatusOK},
		{name: "bearer token", headers: map[string]string{"Authorization": "Bearer " + testSecret}, wantStatus: http.StatusOK},
		{name: "wrong secret", headers: map[string]string{"X-Cron-Secret": "nope"}, wantStatus: http.StatusUnauthorized},
		{name: "no credentials", wantStatus: http.StatusUnauthorized},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			refresher := new(mockRefresher)
			refresher.On("Refresh", mock.Anything, firstsale.TriggerCron).Return(&firstsale.RefreshResult{
				Trigger: firstsale.TriggerCron,
				Keys:    42,
				Scanned: 120,
				Skipped: 1,
			}, nil)

			mux := http.NewServeMux()
			NewFirstSaleHandler(refresher, zap.NewNop(), testSecret).RegisterRoutes(mux)

			req := httptest.NewRequest(http.MethodPost, "/cron/refresh-first-sales", nil)
			for k, v := range tt.headers {
				req.Header.Set(k, v)
			}
			w := httptest.NewRecorder()
			mux.ServeHTTP(w, req)

			assert.Equal(t, tt.wantStatus, w.Code)
			if tt.wantStatus != http.StatusOK {
				refresher.AssertNotCalled(t, "Refresh", mock.Anything, mock.Anything)
				return
			}

			var body map[string]interface{}
			require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
			assert.Equal(t, true, body["success"])
			assert.Equal(t, float64(42), body["keys"])
			assert.Equal(t, "cron", body["trigger"])
		})
	}
}

func TestRefreshFirstSales_EmptySecretRejectsEverything(t *testing.T) {
	refresher := new(mockRefresher)
	mux := http.NewServeMux()
	NewFirstSaleHandler(refresher, zap.NewNop(), "").RegisterRoutes(mux)

	req := httptest.NewRequest(http.MethodPost, "/cron/refresh-first-sales", nil)
	req.Header.Set("Authorization", "Bearer ")
	w := httptest.NewRecorder()
	mux.ServeHTTP(w, req)

	assert.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestRefreshFirstSales_Failure(t *testing.T) {
	refresher := new(mockRefresher)
	refresher.On("Refresh", mock.Anything, firstsale.TriggerCron).Return(nil, errors.New("database unavailable"))

	mux := http.NewServeMux()
	NewFirstSaleHandler(refresher, zap.NewNop(), testSecret).RegisterRoutes(mux)

	req := httptest.NewRequest(http.MethodPost, "/cron/refresh-first-sales", nil)
	req.Header.Set("X-Cron-Secret", testSecret)
	w := httptest.NewRecorder()
	mux.ServeHTTP(w, req)

	assert.Equal(t, http.StatusServiceUnavailable, w.Code)
	assert.NotContains(t, w.Body.String(), "database unavailable")
}

func TestHealthCheck(t *testing.T) {
	tests := []struct {
		name      string
		age       time.Duration
		built     bool
		wantAgeOK bool
	}{
		{name: "table built", age: 90 * time.Second, built: true, wantAgeOK: true},
		{name: "no table yet", built: false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			refresher := new(mockRefresher)
			refresher.On("Age").Return(tt.age, tt.built)

			mux := http.NewServeMux()
			NewFirstSaleHandler(refresher, zap.NewNop(), testSecret).RegisterRoutes(mux)

			w := httptest.NewRecorder()
			mux.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/cron/health", nil))

			require.Equal(t, http.StatusOK, w.Code)
			var body map[string]interface{}
			require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
			assert.Equal(t, tt.built, body["first_sale_table_built"])
			age, ok := body["first_sale_table_age_seconds"]
			assert.Equal(t, tt.wantAgeOK, ok)
			if ok {
				assert.Equal(t, float64(90), age)
			}
		})
	}
}
