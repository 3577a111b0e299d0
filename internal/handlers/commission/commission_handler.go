package commission

import (
	"net/http"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"github.com/emilydias-boop/mcf-insight-hub/internal/domain"
	"github.com/emilydias-boop/mcf-insight-hub/internal/services/ports"
	"github.com/emilydias-boop/mcf-insight-hub/pkg/httpjson"
	"github.com/emilydias-boop/mcf-insight-hub/pkg/resilience"
)

// Handler implements the commission query endpoints
type Handler struct {
	service  ports.CommissionService
	timeouts *resilience.TimeoutConfig
	logger   *zap.Logger
}

// NewHandler creates a new commission handler
func NewHandler(service ports.CommissionService, timeouts *resilience.TimeoutConfig, logger *zap.Logger) *Handler {
	if timeouts == nil {
		timeouts = resilience.DefaultTimeoutConfig()
	}
	return &Handler{service: service, timeouts: timeouts, logger: logger}
}

// RegisterRoutes mounts the commission endpoints on mux
func (h *Handler) RegisterRoutes(mux *http.ServeMux) {
	mux.HandleFunc("POST /api/v1/commissions/summary", h.Summary)
	mux.HandleFunc("GET /api/v1/commissions/breakdown", h.Breakdown)
}

// Summary handles POST /api/v1/commissions/summary
func (h *Handler) Summary(w http.ResponseWriter, r *http.Request) {
	var req ports.CommissionSummaryRequest
	if err := httpjson.DecodeJSON(r, &req); err != nil {
		httpjson.WriteBadRequest(w, h.logger, "body", err.Error())
		return
	}

	ctx, cancel := h.timeouts.HandlerContext(r.Context())
	defer cancel()

	summary, err := h.service.Summarize(ctx, &req)
	if err != nil {
		httpjson.WriteError(w, h.logger, err)
		return
	}
	httpjson.WriteJSON(w, h.logger, http.StatusOK, summary)
}

// Breakdown handles GET /api/v1/commissions/breakdown?product_type=&credit_value=
func (h *Handler) Breakdown(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	productType := q.Get("product_type")
	if productType == "" {
		httpjson.WriteBadRequest(w, h.logger, "product_type", "product_type query parameter is required")
		return
	}
	credit, err := decimal.NewFromString(q.Get("credit_value"))
	if err != nil {
		httpjson.WriteBadRequest(w, h.logger, "credit_value", "credit_value must be a decimal number")
		return
	}

	ctx, cancel := h.timeouts.HandlerContext(r.Context())
	defer cancel()

	lines, err := h.service.Breakdown(ctx, domain.ProductType(productType), credit)
	if err != nil {
		httpjson.WriteError(w, h.logger, err)
		return
	}
	httpjson.WriteJSON(w, h.logger, http.StatusOK, map[string]interface{}{
		"product_type": productType,
		"credit_value": credit,
		"installments": lines,
	})
}
