package api

import (
	"context"
	"log"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/anhanga/fincrime-engine/internal/infra"
	"github.com/anhanga/fincrime-engine/internal/metrics"
	"github.com/anhanga/fincrime-engine/internal/pipeline"
)

// handleInvestigate runs the full pipeline synchronously and returns the
// final state. Intended for CLI and dashboard use where the caller waits.
// POST /api/v1/investigate { "target": "site-suspeito.com" }
func (h *APIHandler) handleInvestigate(c *gin.Context) {
	var req struct {
		Target string `json:"target"`
	}
	if err := c.ShouldBindJSON(&req); err != nil || strings.TrimSpace(req.Target) == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request body. Expected: {target}"})
		return
	}

	state, err := h.deps.Pipeline.Run(c.Request.Context(), req.Target)
	hunt := h.finalizeRun("", state, err)

	resp := gin.H{"state": state}
	if hunt != nil {
		resp["infra"] = hunt
	}
	if err != nil {
		resp["error"] = err.Error()
		c.JSON(http.StatusInternalServerError, resp)
		return
	}
	c.JSON(http.StatusOK, resp)
}

// handleStartInvestigation opens a tracked case and runs the pipeline in
// the background. Poll GET /investigation/:id for the result.
func (h *APIHandler) handleStartInvestigation(c *gin.Context) {
	var req struct {
		Target string `json:"target"`
	}
	if err := c.ShouldBindJSON(&req); err != nil || strings.TrimSpace(req.Target) == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request body. Expected: {target}"})
		return
	}

	opened := h.deps.Cases.Open(req.Target)
	// Background context: the run must outlive this HTTP request.
	h.deps.Cases.RunAsync(context.Background(), h.deps.Pipeline, opened,
		func(st *pipeline.InvestigationState, runErr error) {
			h.finalizeRun(opened.ID, st, runErr)
		})

	c.JSON(http.StatusAccepted, gin.H{
		"id":     opened.ID,
		"target": opened.Target,
		"status": opened.Status,
	})
}

func (h *APIHandler) handleGetInvestigation(c *gin.Context) {
	found := h.deps.Cases.Get(c.Param("id"))
	if found == nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "Unknown investigation id"})
		return
	}
	c.JSON(http.StatusOK, found)
}

func (h *APIHandler) handleListInvestigations(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"data": h.deps.Cases.List()})
}

// handleGenerateReport renders an AI dossier for a completed case.
// POST /api/v1/investigation/:id/report
func (h *APIHandler) handleGenerateReport(c *gin.Context) {
	if h.deps.Reporter == nil {
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": "Reporter not configured"})
		return
	}

	found := h.deps.Cases.Get(c.Param("id"))
	if found == nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "Unknown investigation id"})
		return
	}
	if found.Status == "running" {
		c.JSON(http.StatusConflict, gin.H{"error": "Investigation still running"})
		return
	}

	// The dossier covers the run plus whatever the case DB accumulated.
	document := gin.H{"case": found}
	if h.deps.CaseStore != nil {
		if full, err := h.deps.CaseStore.GetFullCase(c.Request.Context()); err == nil {
			document["evidence"] = full
		} else {
			log.Printf("[REPORT] Failed to load case document: %v", err)
		}
	}

	dossier, err := h.deps.Reporter.GenerateDossier(c.Request.Context(), document)
	if err != nil {
		c.JSON(http.StatusBadGateway, gin.H{"error": "Dossier generation failed", "details": err.Error()})
		return
	}

	filename, err := h.deps.Reporter.SaveReport(dossier)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to save report", "details": err.Error()})
		return
	}

	c.JSON(http.StatusOK, gin.H{"file": filename, "dossier": dossier})
}

// finalizeRun handles the post-pipeline bookkeeping shared by the sync and
// async paths: metrics, watchlist alerts, infra enrichment and case
// persistence. Returns the enrichment result, if any.
func (h *APIHandler) finalizeRun(caseID string, st *pipeline.InvestigationState, runErr error) *infra.HuntResult {
	if st == nil {
		metrics.ObserveInvestigation(metrics.OutcomeError)
		return nil
	}

	switch {
	case runErr != nil:
		metrics.ObserveInvestigation(metrics.OutcomeError)
	case len(st.Errors) > 0:
		metrics.ObserveInvestigation(metrics.OutcomePartial)
	default:
		metrics.ObserveInvestigation(metrics.OutcomeSuccess)
	}

	// Alert on watched wallets seen during the run.
	if hits := h.deps.Watchlist.CheckMatches(st.Target, st.FinancialIntel.CryptoData); len(hits) > 0 {
		for _, hit := range hits {
			log.Printf("[ALERT] 🚨 Watched wallet %s (%s) seen on %s", hit.Address, hit.Coin, hit.Target)
		}
		h.deps.Hub.Publish("watchlist_hit", hits)
	}

	// Alert on beneficiary mismatches.
	for _, flag := range st.FinancialIntel.Flags {
		if strings.HasPrefix(flag, "Mismatch:") {
			metrics.ObserveMoneyTrailAlert()
			h.deps.Hub.Publish("money_trail_alert", gin.H{
				"target": st.Target,
				"caseId": caseID,
				"flag":   flag,
			})
		}
	}

	var hunt *infra.HuntResult
	if h.deps.Config.Fetch.InfraEnrichment {
		ctx, cancel := context.WithTimeout(context.Background(), h.deps.Config.EnrichTimeout())
		result := h.deps.Hunter.Hunt(ctx, st.Target)
		cancel()
		hunt = &result
	}

	if h.deps.CaseStore != nil {
		if err := h.deps.CaseStore.SaveInvestigation(context.Background(), caseID, st, hunt); err != nil {
			log.Printf("[DB] Failed to persist investigation for %s: %v", st.Target, err)
		}
	}

	return hunt
}
