package analytics

import (
	"fmt"
	"log/slog"
	"net/http"
	"net/url"
	"strconv"

	"github.com/JaimeStill/qagate/internal/records"
	"github.com/JaimeStill/qagate/pkg/handlers"
	"github.com/JaimeStill/qagate/pkg/routes"
)

// Handler provides HTTP endpoints for analytics queries. Every endpoint
// accepts the record filters from, to, assignee, process and lot_number.
type Handler struct {
	sys    System
	logger *slog.Logger
}

func NewHandler(sys System, logger *slog.Logger) *Handler {
	return &Handler{
		sys:    sys,
		logger: logger.With("handler", "analytics"),
	}
}

// Routes returns the route group for analytics endpoints.
func (h *Handler) Routes() routes.Group {
	return routes.Group{
		Prefix:  "/analytics",
		Tags:    []string{"Analytics"},
		Schemas: spec.Schemas,
		Routes: []routes.Route{
			{Method: "GET", Pattern: "/trend", Handler: h.Trend, OpenAPI: spec.Trend},
			{Method: "GET", Pattern: "/outliers", Handler: h.Outliers, OpenAPI: spec.Outliers},
			{Method: "GET", Pattern: "/status", Handler: h.Status, OpenAPI: spec.Status},
			{Method: "GET", Pattern: "/summary", Handler: h.Summary, OpenAPI: spec.Summary},
			{Method: "GET", Pattern: "/dashboard", Handler: h.Dashboard, OpenAPI: spec.Dashboard},
		},
	}
}

// Trend accepts window and bucket.
func (h *Handler) Trend(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	filter, ok := h.filter(w, q)
	if !ok {
		return
	}

	var params TrendParams
	var err error
	if params.Window, err = intParam(q, "window"); err != nil {
		handlers.RespondError(w, h.logger, http.StatusBadRequest, fmt.Errorf("%w: %v", ErrInvalidWindow, err))
		return
	}
	if s := q.Get("bucket"); s != "" {
		if params.Bucket, err = ParseBucket(s); err != nil {
			handlers.RespondError(w, h.logger, MapHTTPStatus(err), err)
			return
		}
	}

	result, err := h.sys.Trend(r.Context(), filter, params)
	h.respond(w, result, err)
}

// Outliers accepts group_by, threshold and method.
func (h *Handler) Outliers(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	filter, ok := h.filter(w, q)
	if !ok {
		return
	}

	var params OutlierParams
	var err error
	if s := q.Get("group_by"); s != "" {
		if params.GroupBy, err = ParseGroupBy(s); err != nil {
			handlers.RespondError(w, h.logger, MapHTTPStatus(err), err)
			return
		}
	}
	if s := q.Get("method"); s != "" {
		if params.Method, err = ParseMethod(s); err != nil {
			handlers.RespondError(w, h.logger, MapHTTPStatus(err), err)
			return
		}
	}
	if params.Threshold, err = floatParam(q, "threshold"); err != nil {
		handlers.RespondError(w, h.logger, http.StatusBadRequest, err)
		return
	}

	result, err := h.sys.Outliers(r.Context(), filter, params)
	h.respond(w, result, err)
}

// Status accepts warning, critical and group_by for a breakdown.
func (h *Handler) Status(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	filter, ok := h.filter(w, q)
	if !ok {
		return
	}

	var params StatusParams
	var err error
	if params.Warning, err = floatParam(q, "warning"); err != nil {
		handlers.RespondError(w, h.logger, http.StatusBadRequest, err)
		return
	}
	if params.Critical, err = floatParam(q, "critical"); err != nil {
		handlers.RespondError(w, h.logger, http.StatusBadRequest, err)
		return
	}
	if s := q.Get("group_by"); s != "" {
		if params.GroupBy, err = ParseGroupBy(s); err != nil {
			handlers.RespondError(w, h.logger, MapHTTPStatus(err), err)
			return
		}
	}

	result, err := h.sys.Status(r.Context(), filter, params)
	h.respond(w, result, err)
}

func (h *Handler) Summary(w http.ResponseWriter, r *http.Request) {
	filter, ok := h.filter(w, r.URL.Query())
	if !ok {
		return
	}
	result, err := h.sys.Summary(r.Context(), filter)
	h.respond(w, result, err)
}

func (h *Handler) Dashboard(w http.ResponseWriter, r *http.Request) {
	filter, ok := h.filter(w, r.URL.Query())
	if !ok {
		return
	}
	result, err := h.sys.Dashboard(r.Context(), filter)
	h.respond(w, result, err)
}

func (h *Handler) filter(w http.ResponseWriter, q url.Values) (records.Filter, bool) {
	filter, err := records.FilterFromQuery(q)
	if err != nil {
		handlers.RespondError(w, h.logger, MapHTTPStatus(err), err)
		return filter, false
	}
	return filter, true
}

func (h *Handler) respond(w http.ResponseWriter, result any, err error) {
	if err != nil {
		handlers.RespondError(w, h.logger, MapHTTPStatus(err), err)
		return
	}
	handlers.RespondJSON(w, http.StatusOK, result)
}

func intParam(q url.Values, name string) (int, error) {
	s := q.Get(name)
	if s == "" {
		return 0, nil
	}
	n, err := strconv.Atoi(s)
	if err != nil {
		return 0, fmt.Errorf("%s: %q is not an integer", name, s)
	}
	return n, nil
}

func floatParam(q url.Values, name string) (*float64, error) {
	s := q.Get(name)
	if s == "" {
		return nil, nil
	}
	f, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return nil, fmt.Errorf("%w: %s %q is not a number", ErrInvalidThreshold, name, s)
	}
	return &f, nil
}
