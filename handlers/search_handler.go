package handlers

import (
	"net/http"

	"uaijus-backend/models"
	"uaijus-backend/service"

	"github.com/gin-gonic/gin"
)

// SearchHandler exposes the jurisprudence retrieval service over HTTP
type SearchHandler struct {
	retrieval  *service.RetrievalService
	enrichment *service.EnrichmentService
}

// NewSearchHandler creates a new search handler
func NewSearchHandler(retrieval *service.RetrievalService, enrichment *service.EnrichmentService) *SearchHandler {
	return &SearchHandler{
		retrieval:  retrieval,
		enrichment: enrichment,
	}
}

// SearchRequest represents the request body for a jurisprudence search.
// Threshold and limit are optional; absent values fall back to the service
// defaults (0.6 / 5).
type SearchRequest struct {
	Query     string   `json:"query"`
	Context   string   `json:"context"`
	Threshold *float64 `json:"threshold"`
	Limit     *int     `json:"limit"`
}

// Search handles POST /api/rag/search
func (h *SearchHandler) Search(c *gin.Context) {
	var req SearchRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	if req.Query == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Query is required"})
		return
	}

	threshold := service.DefaultThreshold
	if req.Threshold != nil {
		threshold = *req.Threshold
	}
	limit := service.DefaultLimit
	if req.Limit != nil {
		limit = *req.Limit
	}

	results, err := h.retrieval.SearchWithParams(c.Request.Context(), req.Query, req.Context, threshold, limit)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}

	if results == nil {
		results = []models.JurisprudenceItem{}
	}
	c.JSON(http.StatusOK, gin.H{"results": results})
}

// Status handles GET /api/rag/status, surfacing the enrichment-in-progress
// flag to the front end
func (h *SearchHandler) Status(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"enriching": h.enrichment.Enriching()})
}
