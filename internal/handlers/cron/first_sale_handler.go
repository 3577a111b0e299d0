package cron

import (
	"context"
	"crypto/subtle"
	"net/http"
	"time"

	"go.uber.org/zap"

	"github.com/emilydias-boop/mcf-insight-hub/internal/services/firstsale"
	"github.com/emilydias-boop/mcf-insight-hub/pkg/httpjson"
)

// FirstSaleRefresher is the slice of firstsale.Refresher the handler drives
type FirstSaleRefresher interface {
	Refresh(ctx context.Context, trigger firstsale.Trigger) (*firstsale.RefreshResult, error)
	Age() (time.Duration, bool)
}

// FirstSaleHandler handles cron job endpoints for the first-sale table
type FirstSaleHandler struct {
	refresher  FirstSaleRefresher
	logger     *zap.Logger
	cronSecret string // Secret token for authenticating cron requests
}

// NewFirstSaleHandler creates a new first-sale cron handler
func NewFirstSaleHandler(refresher FirstSaleRefresher, logger *zap.Logger, cronSecret string) *FirstSaleHandler {
	return &FirstSaleHandler{
		refresher:  refresher,
		logger:     logger,
		cronSecret: cronSecret,
	}
}

// RegisterRoutes mounts the cron endpoints on mux
func (h *FirstSaleHandler) RegisterRoutes(mux *http.ServeMux) {
	mux.HandleFunc("POST /cron/refresh-first-sales", h.RefreshFirstSales)
	mux.HandleFunc("GET /cron/health", h.HealthCheck)
}

// RefreshFirstSalesResponse represents the response from a forced rebuild
type RefreshFirstSalesResponse struct {
	*firstsale.RefreshResult
	Success     bool   `json:"success"`
	ProcessedAt string `json:"processed_at"`
}

// RefreshFirstSales handles POST /cron/refresh-first-sales.
// An external scheduler calls it to force a rebuild between ticker runs.
func (h *FirstSaleHandler) RefreshFirstSales(w http.ResponseWriter, r *http.Request) {
	h.logger.Info("First-sale refresh cron triggered",
		zap.String("remote_addr", r.RemoteAddr),
		zap.String("user_agent", r.UserAgent()),
	)

	if !h.authenticateRequest(r) {
		h.logger.Warn("Unauthorized cron request",
			zap.String("remote_addr", r.RemoteAddr),
		)
		h.respondError(w, http.StatusUnauthorized, "unauthorized")
		return
	}

	// Runs to completion if the scheduler disconnects; Refresh applies its own timeout
	result, err := h.refresher.Refresh(context.WithoutCancel(r.Context()), firstsale.TriggerCron)
	if err != nil {
		h.respondError(w, http.StatusServiceUnavailable, "first-sale refresh failed")
		return
	}

	httpjson.WriteJSON(w, h.logger, http.StatusOK, RefreshFirstSalesResponse{
		RefreshResult: result,
		Success:       true,
		ProcessedAt:   time.Now().UTC().Format(time.RFC3339),
	})
}

// HealthCheck handles GET /cron/health for monitoring
func (h *FirstSaleHandler) HealthCheck(w http.ResponseWriter, r *http.Request) {
	resp := map[string]interface{}{
		"status": "healthy",
		"time":   time.Now().UTC().Format(time.RFC3339),
	}

	age, built := h.refresher.Age()
	resp["first_sale_table_built"] = built
	if built {
		resp["first_sale_table_age_seconds"] = int64(age.Seconds())
	}

	httpjson.WriteJSON(w, h.logger, http.StatusOK, resp)
}

// authenticateRequest verifies the cron request is authorized
func (h *FirstSaleHandler) authenticateRequest(r *http.Request) bool {
	if h.cronSecret == "" {
		return false
	}

	if secret := r.Header.Get("X-Cron-Secret"); secret != "" && secureEqual(secret, h.cronSecret) {
		return true
	}

	// Authorization: Bearer <secret>
	return secureEqual(r.Header.Get("Authorization"), "Bearer "+h.cronSecret)
}

func secureEqual(a, b string) bool {
	return subtle.ConstantTimeCompare([]byte(a), []byte(b)) == 1
}

func (h *FirstSaleHandler) respondError(w http.ResponseWriter, statusCode int, message string) {
	httpjson.WriteJSON(w, h.logger, statusCode, map[string]interface{}{
		"success": false,
		"error":   message,
	})
}
