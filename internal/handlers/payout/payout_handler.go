package payout

import (
	"net/http"

	"go.uber.org/zap"

	"github.com/emilydias-boop/mcf-insight-hub/internal/domain"
	"github.com/emilydias-boop/mcf-insight-hub/internal/services/ports"
	"github.com/emilydias-boop/mcf-insight-hub/pkg/httpjson"
	"github.com/emilydias-boop/mcf-insight-hub/pkg/resilience"
)

// Handler implements the payout HTTP endpoints
type Handler struct {
	service  ports.PayoutService
	timeouts *resilience.TimeoutConfig
	logger   *zap.Logger
}

// NewHandler creates a new payout handler
func NewHandler(service ports.PayoutService, timeouts *resilience.TimeoutConfig, logger *zap.Logger) *Handler {
	if timeouts == nil {
		timeouts = resilience.DefaultTimeoutConfig()
	}
	return &Handler{
		service:  service,
		timeouts: timeouts,
		logger:   logger,
	}
}

// RegisterRoutes mounts the payout endpoints on mux
func (h *Handler) RegisterRoutes(mux *http.ServeMux) {
	mux.HandleFunc("POST /api/v1/payouts", h.CreatePayout)
	mux.HandleFunc("GET /api/v1/payouts", h.ListPayouts)
	mux.HandleFunc("GET /api/v1/payouts/{id}", h.GetPayout)
	mux.HandleFunc("POST /api/v1/payouts/{id}/recalculate", h.RecalculatePayout)
	mux.HandleFunc("POST /api/v1/payouts/{id}/adjustments", h.AddAdjustment)
	mux.HandleFunc("POST /api/v1/payouts/{id}/approve", h.ApprovePayout)
	mux.HandleFunc("POST /api/v1/payouts/{id}/lock", h.LockPayout)
}

// CreatePayout handles POST /api/v1/payouts
func (h *Handler) CreatePayout(w http.ResponseWriter, r *http.Request) {
	var req ports.CreatePayoutRequest
	if err := httpjson.DecodeJSON(r, &req); err != nil {
		httpjson.WriteBadRequest(w, h.logger, "body", err.Error())
		return
	}

	ctx, cancel := h.timeouts.HandlerContext(r.Context())
	defer cancel()

	payout, err := h.service.CreateDraft(ctx, &req)
	if err != nil {
		httpjson.WriteError(w, h.logger, err)
		return
	}
	httpjson.WriteJSON(w, h.logger, http.StatusCreated, payout)
}

// GetPayout handles GET /api/v1/payouts/{id}
func (h *Handler) GetPayout(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := h.timeouts.HandlerContext(r.Context())
	defer cancel()

	payout, err := h.service.Get(ctx, r.PathValue("id"))
	if err != nil {
		httpjson.WriteError(w, h.logger, err)
		return
	}
	httpjson.WriteJSON(w, h.logger, http.StatusOK, payout)
}

// ListPayouts handles GET /api/v1/payouts?period=YYYY-MM
func (h *Handler) ListPayouts(w http.ResponseWriter, r *http.Request) {
	period := r.URL.Query().Get("period")
	if period == "" {
		httpjson.WriteBadRequest(w, h.logger, "period", "period query parameter is required (YYYY-MM)")
		return
	}

	ctx, cancel := h.timeouts.HandlerContext(r.Context())
	defer cancel()

	payouts, err := h.service.ListByPeriod(ctx, period)
	if err != nil {
		httpjson.WriteError(w, h.logger, err)
		return
	}
	if payouts == nil {
		payouts = []*domain.Payout{}
	}
	httpjson.WriteJSON(w, h.logger, http.StatusOK, map[string]interface{}{
		"period":  period,
		"payouts": payouts,
	})
}

// RecalculatePayout handles POST /api/v1/payouts/{id}/recalculate
func (h *Handler) RecalculatePayout(w http.ResponseWriter, r *http.Request) {
	var req ports.RecalculatePayoutRequest
	if err := httpjson.DecodeJSON(r, &req); err != nil {
		httpjson.WriteBadRequest(w, h.logger, "body", err.Error())
		return
	}
	req.PayoutID = r.PathValue("id")

	ctx, cancel := h.timeouts.HandlerContext(r.Context())
	defer cancel()

	payout, err := h.service.Recalculate(ctx, &req)
	if err != nil {
		httpjson.WriteError(w, h.logger, err)
		return
	}
	httpjson.WriteJSON(w, h.logger, http.StatusOK, payout)
}

// AddAdjustment handles POST /api/v1/payouts/{id}/adjustments
func (h *Handler) AddAdjustment(w http.ResponseWriter, r *http.Request) {
	actor, ok := h.requireActor(w, r)
	if !ok {
		return
	}

	var req ports.AddAdjustmentRequest
	if err := httpjson.DecodeJSON(r, &req); err != nil {
		httpjson.WriteBadRequest(w, h.logger, "body", err.Error())
		return
	}
	req.PayoutID = r.PathValue("id")
	req.CreatedBy = actor

	ctx, cancel := h.timeouts.HandlerContext(r.Context())
	defer cancel()

	payout, err := h.service.AddAdjustment(ctx, &req)
	if err != nil {
		httpjson.WriteError(w, h.logger, err)
		return
	}
	httpjson.WriteJSON(w, h.logger, http.StatusCreated, payout)
}

// ApprovePayout handles POST /api/v1/payouts/{id}/approve
func (h *Handler) ApprovePayout(w http.ResponseWriter, r *http.Request) {
	actor, ok := h.requireActor(w, r)
	if !ok {
		return
	}

	ctx, cancel := h.timeouts.HandlerContext(r.Context())
	defer cancel()

	payout, err := h.service.Approve(ctx, r.PathValue("id"), actor)
	if err != nil {
		httpjson.WriteError(w, h.logger, err)
		return
	}
	httpjson.WriteJSON(w, h.logger, http.StatusOK, payout)
}

// LockPayout handles POST /api/v1/payouts/{id}/lock
func (h *Handler) LockPayout(w http.ResponseWriter, r *http.Request) {
	actor, ok := h.requireActor(w, r)
	if !ok {
		return
	}

	ctx, cancel := h.timeouts.HandlerContext(r.Context())
	defer cancel()

	payout, err := h.service.Lock(ctx, r.PathValue("id"))
	if err != nil {
		httpjson.WriteError(w, h.logger, err)
		return
	}

	h.logger.Info("Payout locked",
		zap.String("payout_id", payout.ID),
		zap.String("actor", actor),
	)
	httpjson.WriteJSON(w, h.logger, http.StatusOK, payout)
}

func (h *Handler) requireActor(w http.ResponseWriter, r *http.Request) (string, bool) {
	actor := httpjson.Actor(r)
	if actor == "" {
		httpjson.WriteBadRequest(w, h.logger, httpjson.ActorHeader, httpjson.ActorHeader+" header is required")
		return "", false
	}
	return actor, true
}
