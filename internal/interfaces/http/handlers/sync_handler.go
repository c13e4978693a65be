package handlers

import (
	"context"

	"github.com/gin-gonic/gin"

	syncapp "github.com/taxdesk/caselaw-intelligence/internal/application/sync"
	"github.com/taxdesk/caselaw-intelligence/internal/domain/caselaw"
)

// SyncRunner triggers one synchronisation pass.  Satisfied by
// *sync.Orchestrator.
type SyncRunner interface {
	Run(ctx context.Context, target syncapp.Target) (*syncapp.Result, error)
}

// SyncHandler serves the manual sync trigger endpoint.
type SyncHandler struct {
	runner SyncRunner
}

func NewSyncHandler(runner SyncRunner) *SyncHandler {
	return &SyncHandler{runner: runner}
}

type syncRequest struct {
	Category   string `json:"category"`
	TaxSection string `json:"taxSection"`
}

// Trigger handles POST /api/sync.  An empty body runs the broad default
// sync; category or taxSection narrow the run.  The call blocks until the
// run finishes and returns its counters.
func (h *SyncHandler) Trigger(c *gin.Context) {
	var req syncRequest
	if c.Request.ContentLength > 0 {
		if err := c.ShouldBindJSON(&req); err != nil {
			respondBadRequest(c, "invalid request body: "+err.Error())
			return
		}
	}

	var target syncapp.Target
	if req.Category != "" {
		category, ok := caselaw.ParseCategory(req.Category)
		if !ok {
			respondBadRequest(c, "unknown category: "+req.Category)
			return
		}
		target.Category = category
	}
	if req.TaxSection != "" {
		section, ok := caselaw.ParseTaxSection(req.TaxSection)
		if !ok {
			respondBadRequest(c, "unknown tax section: "+req.TaxSection)
			return
		}
		target.TaxSection = section
	}

	result, err := h.runner.Run(c.Request.Context(), target)
	if err != nil {
		respondError(c, err)
		return
	}

	respondData(c, gin.H{
		"newSummaries":     result.NewSummaries,
		"updatedSummaries": result.UpdatedSummaries,
		"newDetails":       result.NewDetails,
		"updatedDetails":   result.UpdatedDetails,
		"errors":           result.Errors,
		"totalProcessed":   result.TotalProcessed,
		"durationMs":       result.Duration.Milliseconds(),
	})
}
