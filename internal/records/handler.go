package records

import (
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"

	"github.com/google/uuid"

	"github.com/JaimeStill/qagate/pkg/handlers"
	"github.com/JaimeStill/qagate/pkg/pagination"
	"github.com/JaimeStill/qagate/pkg/routes"
)

// Handler provides HTTP endpoints for record ingestion and retrieval.
type Handler struct {
	sys          System
	logger       *slog.Logger
	pagination   pagination.Config
	maxBodyBytes int64
}

// IngestFailure is the body returned when a batch stops on a store error.
type IngestFailure struct {
	Error  string       `json:"error"`
	Report *BatchReport `json:"report"`
}

// NewHandler creates a Handler for sys.
func NewHandler(sys System, logger *slog.Logger, pagination pagination.Config) *Handler {
	return &Handler{
		sys:        sys,
		logger:     logger.With("handler", "records"),
		pagination: pagination,
	}
}

// LimitBody caps ingest request bodies at n bytes. Zero disables the cap.
func (h *Handler) LimitBody(n int64) *Handler {
	h.maxBodyBytes = n
	return h
}

// Routes returns the route group for record endpoints.
func (h *Handler) Routes() routes.Group {
	return routes.Group{
		Prefix:  "/records",
		Tags:    []string{"Records"},
		Schemas: spec.Schemas,
		Routes: []routes.Route{
			{Method: "GET", Pattern: "", Handler: h.List, OpenAPI: spec.List},
			{Method: "POST", Pattern: "/ingest", Handler: h.Ingest, OpenAPI: spec.Ingest},
			{Method: "GET", Pattern: "/batches", Handler: h.Batches, OpenAPI: spec.Batches},
			{Method: "GET", Pattern: "/{id}", Handler: h.Find, OpenAPI: spec.Find},
			{Method: "GET", Pattern: "/{id}/revisions", Handler: h.Revisions, OpenAPI: spec.Revisions},
		},
	}
}

// Ingest accepts {source, rows} and returns the batch report.
func (h *Handler) Ingest(w http.ResponseWriter, r *http.Request) {
	if h.maxBodyBytes > 0 {
		r.Body = http.MaxBytesReader(w, r.Body, h.maxBodyBytes)
	}

	var req IngestRequest
	dec := json.NewDecoder(r.Body)
	dec.UseNumber()
	if err := dec.Decode(&req); err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			handlers.RespondError(w, h.logger, http.StatusRequestEntityTooLarge, fmt.Errorf("%w: body exceeds %d bytes", ErrInvalidRequest, tooLarge.Limit))
			return
		}
		handlers.RespondError(w, h.logger, http.StatusBadRequest, fmt.Errorf("%w: %v", ErrInvalidRequest, err))
		return
	}

	report, err := h.sys.Ingest(r.Context(), req)
	if err != nil {
		status := MapHTTPStatus(err)
		h.logger.Error("ingest failed", "status", status, "error", err)
		handlers.RespondJSON(w, status, IngestFailure{Error: err.Error(), Report: report})
		return
	}

	handlers.RespondJSON(w, http.StatusOK, report)
}

// List returns a page of records matching the query filters.
func (h *Handler) List(w http.ResponseWriter, r *http.Request) {
	page := pagination.FromQuery(r.URL.Query(), h.pagination)

	filter, err := FilterFromQuery(r.URL.Query())
	if err != nil {
		handlers.RespondError(w, h.logger, MapHTTPStatus(err), err)
		return
	}

	result, err := h.sys.List(r.Context(), page, filter)
	if err != nil {
		handlers.RespondError(w, h.logger, MapHTTPStatus(err), err)
		return
	}

	handlers.RespondJSON(w, http.StatusOK, result)
}

// Find returns one record by id.
func (h *Handler) Find(w http.ResponseWriter, r *http.Request) {
	id, ok := h.pathID(w, r)
	if !ok {
		return
	}

	rec, err := h.sys.Find(r.Context(), id)
	if err != nil {
		handlers.RespondError(w, h.logger, MapHTTPStatus(err), err)
		return
	}

	handlers.RespondJSON(w, http.StatusOK, rec)
}

// Revisions returns the supersede audit trail of one record.
func (h *Handler) Revisions(w http.ResponseWriter, r *http.Request) {
	id, ok := h.pathID(w, r)
	if !ok {
		return
	}

	revs, err := h.sys.Revisions(r.Context(), id)
	if err != nil {
		handlers.RespondError(w, h.logger, MapHTTPStatus(err), err)
		return
	}

	handlers.RespondJSON(w, http.StatusOK, revs)
}

// Batches returns a page of ingestion history, newest first.
func (h *Handler) Batches(w http.ResponseWriter, r *http.Request) {
	page := pagination.FromQuery(r.URL.Query(), h.pagination)

	result, err := h.sys.Batches(r.Context(), page)
	if err != nil {
		handlers.RespondError(w, h.logger, MapHTTPStatus(err), err)
		return
	}

	handlers.RespondJSON(w, http.StatusOK, result)
}

func (h *Handler) pathID(w http.ResponseWriter, r *http.Request) (uuid.UUID, bool) {
	id, err := uuid.Parse(r.PathValue("id"))
	if err != nil {
		handlers.RespondError(w, h.logger, http.StatusBadRequest, fmt.Errorf("%w: id %q", ErrInvalidRequest, r.PathValue("id")))
		return uuid.Nil, false
	}
	return id, true
}
