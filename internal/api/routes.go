package api

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/anhanga/fincrime-engine/internal/config"
	"github.com/anhanga/fincrime-engine/internal/db"
	"github.com/anhanga/fincrime-engine/internal/heuristics"
	"github.com/anhanga/fincrime-engine/internal/infra"
	"github.com/anhanga/fincrime-engine/internal/pipeline"
	"github.com/anhanga/fincrime-engine/internal/reporter"
)

// Deps bundles everything the API serves. Nil fields degrade: a nil
// CaseStore disables persistence, a nil Writer disables dossiers.
type Deps struct {
	Config     *config.Config
	Pipeline   *pipeline.Pipeline
	Cases      *pipeline.CaseManager
	Classifier *heuristics.ComplianceClassifier
	Watchlist  *heuristics.WalletWatchlist
	Hunter     *infra.Hunter
	CaseStore  *db.CaseStore
	Reporter   *reporter.Writer
	Hub        *Hub
}

type APIHandler struct {
	deps Deps
}

func SetupRouter(deps Deps) *gin.Engine {
	r := gin.Default()

	// Enable CORS — configurable via server.allowedOrigins in the config
	// file or the ALLOWED_ORIGINS env var.
	// Production: ALLOWED_ORIGINS=https://anhanga.example,https://www.anhanga.example
	// Development: ALLOWED_ORIGINS=http://localhost:3000 (or leave empty for *)
	allowedOrigins := deps.Config.Server.AllowedOrigins
	r.Use(func(c *gin.Context) {
		origin := c.Request.Header.Get("Origin")
		if allowedOrigins == "" || allowedOrigins == "*" {
			c.Writer.Header().Set("Access-Control-Allow-Origin", "*")
		} else {
			// Check if the request origin is in the allowed list
			for _, allowed := range strings.Split(allowedOrigins, ",") {
				if strings.TrimSpace(allowed) == origin {
					c.Writer.Header().Set("Access-Control-Allow-Origin", origin)
					break
				}
			}
		}
		c.Writer.Header().Set("Access-Control-Allow-Credentials", "true")
		c.Writer.Header().Set("Access-Control-Allow-Headers", "Content-Type, Content-Length, Accept-Encoding, X-CSRF-Token, Authorization, accept, origin, Cache-Control, X-Requested-With")
		c.Writer.Header().Set("Access-Control-Allow-Methods", "POST, OPTIONS, GET, PUT, DELETE")

		if c.Request.Method == "OPTIONS" {
			c.AbortWithStatus(204)
			return
		}
		c.Next()
	})

	handler := &APIHandler{deps: deps}

	limiter := NewRateLimiter(deps.Config.Server.RatePerMinute, 10)

	// Public endpoints: no auth, no rate limit.
	r.GET("/metrics", gin.WrapH(promhttp.Handler()))

	api := r.Group("/api/v1")
	api.GET("/health", handler.handleHealth)
	api.GET("/stream", deps.Hub.Subscribe)

	protected := api.Group("")
	protected.Use(limiter.Middleware(), AuthMiddleware())
	{
		// Full pipeline runs
		protected.POST("/investigate", handler.handleInvestigate)
		protected.POST("/investigation", handler.handleStartInvestigation)
		protected.GET("/investigation/:id", handler.handleGetInvestigation)
		protected.GET("/investigations", handler.handleListInvestigations)
		protected.POST("/investigation/:id/report", handler.handleGenerateReport)

		// Standalone analysis primitives
		protected.POST("/decode/pix", handler.handleDecodePix)
		protected.POST("/wallets/scan", handler.handleScanWallets)
		protected.GET("/compliance", handler.handleCompliance)
		protected.GET("/infra/:domain", handler.handleInfraHunt)

		// Wallet monitoring
		protected.GET("/watchlist", handler.handleListWatchlist)
		protected.POST("/watchlist", handler.handleAddWatch)
		protected.DELETE("/watchlist/:address", handler.handleRemoveWatch)
	}

	// Serve Static Dashboard
	r.Static("/dashboard", "./public")

	return r
}

// handleHealth returns engine status and capabilities for service discovery
func (h *APIHandler) handleHealth(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"status": "operational",
		"engine": "Anhangá FinCrime Engine v1.0",
		"capabilities": gin.H{
			"pix_decoder":      true,
			"wallet_hunter":    true,
			"compliance_check": true,
			"money_trail":      true,
			"stealth_fetch":    h.deps.Config.Fetch.BrowserEndpoint != "",
			"infra_enrichment": h.deps.Config.Fetch.InfraEnrichment,
			"ai_reports":       h.deps.Reporter != nil,
		},
		"registrySize": h.deps.Classifier.RegistrySize(),
		"dbConnected":  h.deps.CaseStore != nil,
	})
}
