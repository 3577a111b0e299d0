package report

import (
	"net/http"
	"time"

	"go.uber.org/zap"

	"github.com/emilydias-boop/mcf-insight-hub/internal/services/ports"
	"github.com/emilydias-boop/mcf-insight-hub/pkg/httpjson"
	"github.com/emilydias-boop/mcf-insight-hub/pkg/resilience"
)

const dateLayout = "2006-01-02"

// Handler serves revenue reports
type Handler struct {
	service  ports.RevenueService
	timeouts *resilience.TimeoutConfig
	location *time.Location
	logger   *zap.Logger
}

// NewHandler creates a report handler. Dates in queries are interpreted in
// loc (UTC when nil).
func NewHandler(service ports.RevenueService, timeouts *resilience.TimeoutConfig, loc *time.Location, logger *zap.Logger) *Handler {
	if timeouts == nil {
		timeouts = resilience.DefaultTimeoutConfig()
	}
	if loc == nil {
		loc = time.UTC
	}
	return &Handler{service: service, timeouts: timeouts, location: loc, logger: logger}
}

// RegisterRoutes mounts the report endpoints on mux
func (h *Handler) RegisterRoutes(mux *http.ServeMux) {
	mux.HandleFunc("GET /api/v1/reports/gross-revenue", h.GrossRevenue)
}

// GrossRevenue handles GET /api/v1/reports/gross-revenue?from=YYYY-MM-DD&to=YYYY-MM-DD.
// Both dates are inclusive days; the service receives [from, to+1d).
func (h *Handler) GrossRevenue(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()

	from, err := time.ParseInLocation(dateLayout, q.Get("from"), h.location)
	if err != nil {
		httpjson.WriteBadRequest(w, h.logger, "from", "from must be a date (YYYY-MM-DD)")
		return
	}
	to, err := time.ParseInLocation(dateLayout, q.Get("to"), h.location)
	if err != nil {
		httpjson.WriteBadRequest(w, h.logger, "to", "to must be a date (YYYY-MM-DD)")
		return
	}

	ctx, cancel := h.timeouts.HandlerContext(r.Context())
	defer cancel()

	report, err := h.service.GrossRevenue(ctx, from, to.AddDate(0, 0, 1))
	if err != nil {
		httpjson.WriteError(w, h.logger, err)
		return
	}
	httpjson.WriteJSON(w, h.logger, http.StatusOK, report)
}
