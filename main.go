// TerriaJS catalog service for WebODM
// Discovers point clouds, orthophotos and elevation models of the caller's
// WebODM projects and serves them as TerriaJS catalog documents.

package main

import (
	"context"
	"errors"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/danielgtaylor/huma/v2/humacli"

	"github.com/hotosm/odmcatalog/app/api"
	"github.com/hotosm/odmcatalog/app/catalog"
	"github.com/hotosm/odmcatalog/app/config"
	"github.com/hotosm/odmcatalog/app/db"
	"github.com/hotosm/odmcatalog/app/federation"
	"github.com/hotosm/odmcatalog/app/meta"
	"github.com/hotosm/odmcatalog/app/terrain"
	"github.com/hotosm/odmcatalog/app/webodm"
)

// Huma CLI Options
type Options struct {
	Port int `help:"Port to listen on" short:"p" default:"8080"`
}

func main() {
	// Log to stdout for Docker
	log.SetOutput(os.Stdout)
	log.SetFlags(log.Ldate | log.Ltime | log.Lmicroseconds | log.Lshortfile)

	log.Println("Starting ODM Catalog...")

	// Graceful shutdown
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)

	// Validate environment variables
	config.ValidateEnv()

	// Publication ledger, only with a database
	var ledger api.PublicationLedger
	if config.ODMCATALOG_DATABASE_URL != "" {
		database, err := db.NewDB(config.ODMCATALOG_DATABASE_URL)
		if err != nil {
			log.Fatalf("Failed to connect to database: %v", err)
		}
		defer database.Close()

		if err := database.InitSchema(ctx); err != nil {
			log.Fatalf("Failed to initialize schema: %v", err)
		}

		store := meta.NewStore(database)
		ledger = store
		log.Println("Publication ledger initialized")

		if retention := config.PublicationRetention(); retention > 0 {
			go meta.NewPruner(store, retention).Start(ctx, time.Hour)
		}
	}

	backend := webodm.NewClient(config.WEBODM_URL, config.WebODMTimeout())
	log.Printf("Using WebODM at %s", backend.BaseURL())

	var sampler terrain.Sampler = terrain.EllipsoidSampler{}
	if config.TERRAIN_URL != "" {
		sampler = terrain.NewHTTPSampler(config.TERRAIN_URL, config.TerrainTimeout())
		log.Printf("Sampling terrain from %s", config.TERRAIN_URL)
	}

	pipeline := catalog.NewPipeline(backend, sampler, catalog.Options{
		Source: catalog.LayerSource{
			BaseURL:      backend.BaseURL(),
			EptServerURL: config.EPT_SERVER_URL,
		},
		FanoutLimit: config.FanoutLimit(),
	})

	publicCatalogs := federation.NewAggregator(federation.DefaultSources(federation.Config{
		NationalMapURL:      config.NATIONALMAP_CATALOG_URL,
		DigitalEarthURL:     config.DEA_CATALOG_URL,
		WaterRegulationsURL: config.WATER_REGULATIONS_CATALOG_URL,
		NSWTwinURL:          config.NSW_DIGITAL_TWIN_URL,
		VICTwinURL:          config.VIC_DIGITAL_TWIN_URL,
	}), config.PublicCatalogTimeout(), config.FanoutLimit())

	// === HUMA CLI ===
	// The server is handed back to main so shutdown can drain it
	servers := make(chan *http.Server, 1)
	cli := humacli.New(func(hooks humacli.Hooks, options *Options) {
		_, handler := api.NewAPI(pipeline, backend, ledger, publicCatalogs)
		server := &http.Server{
			Addr:              fmt.Sprintf(":%d", options.Port),
			Handler:           handler,
			ReadHeaderTimeout: 10 * time.Second,
		}

		hooks.OnStart(func() {
			servers <- server
			log.Printf("API server starting on :%d", options.Port)
			log.Printf("   Docs: http://localhost:%d/docs", options.Port)
			log.Printf("   OpenAPI: http://localhost:%d/openapi.json", options.Port)

			if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
				log.Fatalf("HTTP server failed: %v", err)
			}
		})
	})

	// Start CLI in background
	go cli.Run()

	// Wait for shutdown signal
	<-sigCh
	log.Println("Received shutdown signal...")

	// Stop background loops
	cancel()

	drainServer(servers, 10*time.Second)

	log.Println("Shutdown complete")
}

// drainServer stops the started server, if any, and waits for in-flight
// requests until timeout.
func drainServer(servers <-chan *http.Server, timeout time.Duration) {
	select {
	case server := <-servers:
		log.Println("Shutting down API server...")
		ctx, cancel := context.WithTimeout(context.Background(), timeout)
		defer cancel()
		if err := server.Shutdown(ctx); err != nil {
			log.Printf("HTTP server shutdown: %v", err)
		}
	default:
	}
}
