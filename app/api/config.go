// Global API config

package api

import (
	"context"
	"net/http"
	"time"

	"github.com/danielgtaylor/huma/v2"
	"github.com/danielgtaylor/huma/v2/adapters/humago"
	_ "github.com/danielgtaylor/huma/v2/formats/cbor"

	"github.com/hotosm/odmcatalog/app/catalog"
	"github.com/hotosm/odmcatalog/app/federation"
	"github.com/hotosm/odmcatalog/app/meta"
	"github.com/hotosm/odmcatalog/app/webodm"
)

// PublicationLedger records tasks published through the API.
// This allows for mocking the ledger in tests.
type PublicationLedger interface {
	RecordPublication(ctx context.Context, p meta.Publication) (*meta.Publication, error)
	ListPublications(ctx context.Context, projectID int, limit int) ([]*meta.Publication, error)
	LatestPublication(ctx context.Context, projectID int, taskID string) (*meta.Publication, error)
	HealthCheck(ctx context.Context) error
}

// Ensure meta.Store implements PublicationLedger
var _ PublicationLedger = (*meta.Store)(nil)

// PublicCatalogs builds the aggregate of third party catalogs
type PublicCatalogs interface {
	Build(ctx context.Context) (*federation.Document, error)
}

var _ PublicCatalogs = (*federation.Aggregator)(nil)

// Make the pipeline, WebODM backend and optional ledger available on each endpoint
type API struct {
	api      huma.API
	pipeline *catalog.Pipeline
	backend  webodm.Backend
	ledger   PublicationLedger
	public   PublicCatalogs
}

// NewAPI creates the Huma API and registers routes.
// ledger may be nil, publications are then not recorded.
// public may be nil, /publicCatalogs.json is then not served.
// It returns the API object and the HTTP handler (stdlib mux) that should be served.
func NewAPI(pipeline *catalog.Pipeline, backend webodm.Backend, ledger PublicationLedger, public PublicCatalogs) (*API, http.Handler) {
	config := huma.DefaultConfig("ODM Catalog API", "1.0.0")
	config.DocsPath = "/docs"
	config.OpenAPIPath = "/openapi.json"
	// Catalog documents are read by TerriaJS, keep them free of $schema links
	config.CreateHooks = nil
	config.Servers = []*huma.Server{
		{URL: "http://localhost:8080", Description: "ODM Catalog"},
	}
	config.Info.Description = "TerriaJS catalogs of WebODM point clouds, orthophotos and elevation models."
	config.Info.License = &huma.License{
		Name: "AGPL-3.0-only",
		URL:  "https://opensource.org/licenses/agpl-v3",
	}

	router := http.NewServeMux()
	humaAPI := humago.New(router, config)
	apiObj := &API{
		api:      humaAPI,
		pipeline: pipeline,
		backend:  backend,
		ledger:   ledger,
		public:   public,
	}

	apiObj.registerGlobalRoutes()
	apiObj.registerCatalogRoutes()
	apiObj.registerPublishRoutes()

	return apiObj, router
}

func (a *API) registerGlobalRoutes() {
	huma.Register(a.api, huma.Operation{
		OperationID: "health-check",
		Method:      http.MethodGet,
		Path:        "/health",
		Summary:     "Health check",
		Description: "Returns service health status. Checks the publication ledger when one is configured.",
		Tags:        []string{"System"},
	}, func(ctx context.Context, input *struct{}) (*HealthResponse, error) {
		if a.ledger != nil {
			if err := a.ledger.HealthCheck(ctx); err != nil {
				return nil, huma.NewError(http.StatusServiceUnavailable, "Database unavailable", err)
			}
		}
		resp := &HealthResponse{}
		resp.Body.HealthStatus = "healthy"
		resp.Body.Timestamp = time.Now().UTC().Format(time.RFC3339)
		return resp, nil
	})

	huma.Register(a.api, huma.Operation{
		OperationID: "ping",
		Method:      http.MethodGet,
		Path:        "/ping",
		Summary:     "Liveness check",
		Tags:        []string{"System"},
	}, func(ctx context.Context, input *struct{}) (*PingResponse, error) {
		return &PingResponse{ContentType: "text/plain; charset=utf-8", Body: []byte("OK")}, nil
	})
}
