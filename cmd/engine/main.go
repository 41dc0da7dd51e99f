package main

import (
	"log"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/anhanga/fincrime-engine/internal/api"
	"github.com/anhanga/fincrime-engine/internal/config"
	"github.com/anhanga/fincrime-engine/internal/db"
	"github.com/anhanga/fincrime-engine/internal/fetcher"
	"github.com/anhanga/fincrime-engine/internal/heuristics"
	"github.com/anhanga/fincrime-engine/internal/infra"
	"github.com/anhanga/fincrime-engine/internal/metrics"
	"github.com/anhanga/fincrime-engine/internal/pipeline"
	"github.com/anhanga/fincrime-engine/internal/reporter"
)

func main() {
	log.Println("Starting Anhangá FinCrime Engine (Microservice: fincrime-investigation-pipeline)...")

	cfg, err := config.Load("config.yaml")
	if err != nil {
		log.Fatalf("FATAL: Failed to load configuration: %v", err)
	}

	if err := metrics.Register(prometheus.DefaultRegisterer); err != nil {
		log.Fatalf("FATAL: Failed to register metrics: %v", err)
	}

	// Persistence is optional: the engine degrades to in-memory cases.
	var caseStore *db.CaseStore
	if cfg.Database.URL != "" {
		caseStore, err = db.Connect(cfg.Database.URL)
		if err != nil {
			log.Printf("Warning: Failed to connect to PostgreSQL, continuing without persisting case data. Error: %v", err)
			caseStore = nil
		} else {
			defer caseStore.Close()
			if err := caseStore.InitSchema(); err != nil {
				log.Printf("Warning: DB schema init failed: %v", err)
			}
		}
	} else {
		log.Println("Warning: database.url not set, case persistence disabled")
	}

	classifier := heuristics.NewComplianceClassifier(cfg.Registry.Path)
	log.Printf("Compliance registry loaded: %d authorized operators", classifier.RegistrySize())

	// Setup WebSocket Hub
	wsHub := api.NewHub()
	go wsHub.Run()

	var stealth fetcher.Fetcher
	if cfg.Fetch.BrowserEndpoint != "" {
		stealth = fetcher.NewStealthFetcher(cfg.Fetch.BrowserEndpoint, cfg.FetchTimeout())
	} else {
		log.Println("Warning: fetch.browserEndpoint not set, Cloudflare targets will fail to fetch")
		stealth = fetcher.NewStealthFetcher("", cfg.FetchTimeout())
	}

	pipe := pipeline.NewPipeline(pipeline.Options{
		Prober:       infra.NewHTTPProber(cfg.ProbeTimeout()),
		Standard:     fetcher.NewStandardFetcher(cfg.FetchTimeout()),
		Stealth:      stealth,
		Classifier:   classifier,
		ProbeTimeout: cfg.ProbeTimeout(),
		FetchTimeout: cfg.FetchTimeout(),
		OnStage: func(ev pipeline.StageEvent) {
			metrics.ObserveStage(string(ev.Stage), ev.Failed, ev.Duration)
			wsHub.Publish("stage", ev)
		},
	})

	var dossierWriter *reporter.Writer
	if cfg.Reporter.Endpoint != "" {
		dossierWriter = reporter.NewWriter(cfg.Reporter.Endpoint, cfg.Reporter.Model)
	}

	// Setup the Gin Router
	r := api.SetupRouter(api.Deps{
		Config:     cfg,
		Pipeline:   pipe,
		Cases:      pipeline.NewCaseManager(),
		Classifier: classifier,
		Watchlist:  heuristics.NewWalletWatchlist(),
		Hunter:     infra.NewHunter(cfg.EnrichTimeout()),
		CaseStore:  caseStore,
		Reporter:   dossierWriter,
		Hub:        wsHub,
	})

	// Start the server
	log.Printf("Engine running on :%s (API Node: fincrime-investigation-pipeline)\n", cfg.Server.Port)
	if err := r.Run(":" + cfg.Server.Port); err != nil {
		log.Fatalf("Failed to start server: %v", err)
	}
}
