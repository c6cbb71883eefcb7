package api

import (
	"io"
	"log/slog"
	"net/http"
	"path"

	"github.com/JaimeStill/qagate/pkg/handlers"
	"github.com/JaimeStill/qagate/pkg/openapi"
	"github.com/JaimeStill/qagate/pkg/routes"
	"github.com/JaimeStill/qagate/pkg/storage"
)

// archiveHandler serves raw ingest payloads stored in blob storage.
type archiveHandler struct {
	store  storage.System
	logger *slog.Logger
}

func newArchiveHandler(store storage.System, logger *slog.Logger) *archiveHandler {
	return &archiveHandler{
		store:  store,
		logger: logger.With("handler", "archive"),
	}
}

func (h *archiveHandler) routes() routes.Group {
	return routes.Group{
		Prefix: "/archive",
		Tags:   []string{"Archive"},
		Routes: []routes.Route{
			{
				Method:  "GET",
				Pattern: "/{key...}",
				Handler: h.download,
				OpenAPI: &openapi.Operation{
					Summary:     "Download an archived ingest payload",
					Description: "Streams the raw batch payload stored under the archive_key of a batch report.",
					Parameters:  []*openapi.Parameter{openapi.PathParam("key", "", "Archive key")},
					Responses: map[int]*openapi.Response{
						200: {Description: "Raw batch payload", Content: map[string]*openapi.MediaType{"application/json": {}}},
						400: openapi.ResponseRef("BadRequest"),
						404: openapi.ResponseRef("NotFound"),
					},
				},
			},
		},
	}
}

func (h *archiveHandler) download(w http.ResponseWriter, r *http.Request) {
	key := r.PathValue("key")

	body, err := h.store.Download(r.Context(), key)
	if err != nil {
		handlers.RespondError(w, h.logger, storage.MapHTTPStatus(err), err)
		return
	}
	defer body.Close()

	w.Header().Set("Content-Type", "application/json")
	w.Header().Set("Content-Disposition", "attachment; filename="+path.Base(key))
	w.WriteHeader(http.StatusOK)

	if _, err := io.Copy(w, body); err != nil {
		h.logger.Warn("archive stream interrupted", "key", key, "error", err)
	}
}
