package api

import (
	"fmt"
	"net/http"

	"github.com/JaimeStill/qagate/pkg/openapi"
	"github.com/JaimeStill/qagate/pkg/routes"
)

func registerRoutes(mux *http.ServeMux, domain *Domain, runtime *Runtime) error {
	groups := []routes.Group{
		domain.Records.Handler().LimitBody(int64(runtime.MaxIngestSize)).Routes(),
		domain.Analytics.Handler().Routes(),
		newArchiveHandler(runtime.Storage, runtime.Logger).routes(),
	}
	routes.Register(mux, groups...)

	spec := openapi.NewSpec(&runtime.OpenAPI, runtime.Version)
	spec.AddServer(runtime.BasePath)
	routes.Document(spec, groups...)

	data, err := openapi.MarshalJSON(spec)
	if err != nil {
		return fmt.Errorf("marshal openapi spec: %w", err)
	}
	mux.HandleFunc("GET "+runtime.OpenAPI.Path, openapi.ServeSpec(data))
	return nil
}
