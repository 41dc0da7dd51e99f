package api

import (
	"context"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/anhanga/fincrime-engine/internal/heuristics"
	"github.com/anhanga/fincrime-engine/pkg/models"
)

// handleDecodePix decodes PIX copy-paste payloads. Accepts either a single
// payload or free text to sweep for embedded codes.
// POST /api/v1/decode/pix { "payload": "000201..." } or { "text": "<html>..." }
func (h *APIHandler) handleDecodePix(c *gin.Context) {
	var req struct {
		Payload string `json:"payload"`
		Text    string `json:"text"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request body. Expected: {payload} or {text}"})
		return
	}

	var payloads []string
	switch {
	case req.Payload != "":
		payloads = []string{req.Payload}
	case req.Text != "":
		payloads = heuristics.ExtractPixPayloads(req.Text)
	default:
		c.JSON(http.StatusBadRequest, gin.H{"error": "Provide either payload or text"})
		return
	}

	decoded := make([]models.DecodedPayment, 0, len(payloads))
	for _, p := range payloads {
		decoded = append(decoded, heuristics.DecodePix(p))
	}

	c.JSON(http.StatusOK, gin.H{"count": len(decoded), "payments": decoded})
}

// handleScanWallets extracts cryptocurrency addresses from raw text and
// checks them against the watchlist.
// POST /api/v1/wallets/scan { "text": "...", "target": "site.com" }
func (h *APIHandler) handleScanWallets(c *gin.Context) {
	var req struct {
		Text   string `json:"text"`
		Target string `json:"target"`
	}
	if err := c.ShouldBindJSON(&req); err != nil || req.Text == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request body. Expected: {text}"})
		return
	}

	matches := heuristics.ScanWallets(req.Text)
	hits := h.deps.Watchlist.CheckMatches(req.Target, matches)
	if len(hits) > 0 {
		h.deps.Hub.Publish("watchlist_hit", hits)
	}

	c.JSON(http.StatusOK, gin.H{
		"count":         len(matches),
		"wallets":       matches,
		"watchlistHits": hits,
	})
}

// handleCompliance classifies a domain against the regulator whitelist.
// GET /api/v1/compliance?domain=betano.bet.br
func (h *APIHandler) handleCompliance(c *gin.Context) {
	domain := c.Query("domain")
	if domain == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Missing domain query parameter"})
		return
	}

	result := h.deps.Classifier.Classify(domain)
	c.JSON(http.StatusOK, gin.H{
		"domain":     heuristics.NormalizeHost(domain),
		"compliance": result,
	})
}

// handleInfraHunt runs passive infrastructure enrichment for a domain.
// GET /api/v1/infra/:domain
func (h *APIHandler) handleInfraHunt(c *gin.Context) {
	domain := strings.TrimSpace(c.Param("domain"))
	if domain == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Missing domain"})
		return
	}

	ctx, cancel := context.WithTimeout(c.Request.Context(), h.deps.Config.EnrichTimeout())
	defer cancel()

	result := h.deps.Hunter.Hunt(ctx, domain)
	c.JSON(http.StatusOK, result)
}

func (h *APIHandler) handleListWatchlist(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"data": h.deps.Watchlist.List()})
}

// handleAddWatch registers a wallet for monitoring.
// POST /api/v1/watchlist { "address": "...", "coin": "ETH", "label": "...", "caseId": "...", "alertLevel": "high" }
func (h *APIHandler) handleAddWatch(c *gin.Context) {
	var entry heuristics.WatchedWallet
	if err := c.ShouldBindJSON(&entry); err != nil || entry.Address == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request body. Expected: {address, coin, label}"})
		return
	}

	h.deps.Watchlist.Add(entry)
	c.JSON(http.StatusCreated, gin.H{"status": "watching", "address": entry.Address})
}

func (h *APIHandler) handleRemoveWatch(c *gin.Context) {
	address := c.Param("address")
	if !h.deps.Watchlist.Remove(address) {
		c.JSON(http.StatusNotFound, gin.H{"error": "Address not on watchlist"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"status": "removed", "address": address})
}
