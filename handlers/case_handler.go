package handlers

import (
	"errors"
	"net/http"

	"uaijus-backend/models"
	"uaijus-backend/repository"
	"uaijus-backend/service"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

// CaseHandler handles HTTP requests for legal cases and their issues
type CaseHandler struct {
	caseRepo     *repository.CaseRepository
	enrichment   *service.EnrichmentService
	issueService *service.IssueService
	draftService *service.DraftService
}

// NewCaseHandler creates a new case handler
func NewCaseHandler(
	caseRepo *repository.CaseRepository,
	enrichment *service.EnrichmentService,
	issueService *service.IssueService,
	draftService *service.DraftService,
) *CaseHandler {
	return &CaseHandler{
		caseRepo:     caseRepo,
		enrichment:   enrichment,
		issueService: issueService,
		draftService: draftService,
	}
}

func errorResponse(c *gin.Context, status int, code, message string) {
	c.JSON(status, gin.H{
		"success": false,
		"error": gin.H{
			"code":    code,
			"message": message,
		},
	})
}

func parseID(c *gin.Context, param, code string) (uuid.UUID, bool) {
	id, err := uuid.Parse(c.Param(param))
	if err != nil {
		errorResponse(c, http.StatusBadRequest, code, "Invalid "+param+" format")
		return uuid.Nil, false
	}
	return id, true
}

// CreateCaseRequest represents the request body for creating a case
type CreateCaseRequest struct {
	UserID   string `json:"user_id" binding:"required"`
	Number   string `json:"number"`
	Title    string `json:"title"`
	CaseType string `json:"case_type"`
	Summary  string `json:"summary"`
}

// CreateCase handles POST /api/cases
func (h *CaseHandler) CreateCase(c *gin.Context) {
	var req CreateCaseRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		errorResponse(c, http.StatusBadRequest, "INVALID_REQUEST", err.Error())
		return
	}

	userID, err := uuid.Parse(req.UserID)
	if err != nil {
		errorResponse(c, http.StatusBadRequest, "INVALID_USER_ID", "Invalid user_id format")
		return
	}

	legalCase := &models.LegalCase{
		UserID:   userID,
		Number:   req.Number,
		Title:    req.Title,
		CaseType: req.CaseType,
		Status:   models.CaseStatusNew,
		Summary:  req.Summary,
		Issues:   models.LegalIssues{},
	}

	if err := h.caseRepo.Create(c.Request.Context(), legalCase); err != nil {
		errorResponse(c, http.StatusInternalServerError, "CREATE_FAILED", err.Error())
		return
	}

	c.JSON(http.StatusCreated, gin.H{"success": true, "data": legalCase})
}

// GetCase handles GET /api/cases/:id
func (h *CaseHandler) GetCase(c *gin.Context) {
	id, ok := parseID(c, "id", "INVALID_ID")
	if !ok {
		return
	}

	legalCase, err := h.caseRepo.GetByID(c.Request.Context(), id)
	if err != nil {
		errorResponse(c, http.StatusNotFound, "NOT_FOUND", "Case not found")
		return
	}

	c.JSON(http.StatusOK, gin.H{"success": true, "data": legalCase})
}

// ListCases handles GET /api/cases?user_id=...
func (h *CaseHandler) ListCases(c *gin.Context) {
	userID, err := uuid.Parse(c.Query("user_id"))
	if err != nil {
		errorResponse(c, http.StatusBadRequest, "INVALID_USER_ID", "Valid user_id query parameter is required")
		return
	}

	cases, err := h.caseRepo.ListByUser(c.Request.Context(), userID)
	if err != nil {
		errorResponse(c, http.StatusInternalServerError, "LIST_FAILED", err.Error())
		return
	}
	if cases == nil {
		cases = []models.LegalCase{}
	}

	c.JSON(http.StatusOK, gin.H{"success": true, "data": cases})
}

// DeleteCase handles DELETE /api/cases/:id
func (h *CaseHandler) DeleteCase(c *gin.Context) {
	id, ok := parseID(c, "id", "INVALID_ID")
	if !ok {
		return
	}

	if err := h.caseRepo.Delete(c.Request.Context(), id); err != nil {
		errorResponse(c, http.StatusNotFound, "NOT_FOUND", err.Error())
		return
	}

	c.JSON(http.StatusOK, gin.H{"success": true})
}

// IngestAnalysisRequest carries the outcome of document analysis: case
// metadata, the summary and the suggested decision points to materialize
type IngestAnalysisRequest struct {
	Number          string                  `json:"number"`
	Title           string                  `json:"title"`
	CaseType        string                  `json:"case_type"`
	Summary         string                  `json:"summary" binding:"required"`
	SuggestedIssues []models.SuggestedIssue `json:"suggested_issues"`
}

// IngestAnalysis handles POST /api/cases/:id/analysis. It materializes legal
// issues from the suggested decision points and, when any exist, runs the
// automatic jurisprudence enrichment before persisting. The response carries
// the fully enriched case; enrichment failures degrade to empty lists and
// never fail the ingest.
func (h *CaseHandler) IngestAnalysis(c *gin.Context) {
	id, ok := parseID(c, "id", "INVALID_ID")
	if !ok {
		return
	}

	var req IngestAnalysisRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		errorResponse(c, http.StatusBadRequest, "INVALID_REQUEST", err.Error())
		return
	}

	legalCase, err := h.caseRepo.GetByID(c.Request.Context(), id)
	if err != nil {
		errorResponse(c, http.StatusNotFound, "NOT_FOUND", "Case not found")
		return
	}

	if req.Number != "" {
		legalCase.Number = req.Number
	}
	if req.Title != "" {
		legalCase.Title = req.Title
	}
	if req.CaseType != "" {
		legalCase.CaseType = req.CaseType
	}
	legalCase.Summary = req.Summary
	legalCase.Status = models.CaseStatusInReview

	issues := make(models.LegalIssues, 0, len(req.SuggestedIssues))
	for _, suggested := range req.SuggestedIssues {
		category := suggested.Category
		if category == "" {
			category = models.IssueMerito
		}
		issues = append(issues, models.LegalIssue{
			ID:            uuid.NewString(),
			Title:         suggested.Title,
			Category:      category,
			AISuggestion:  suggested.Suggestion,
			Reasoning:     "",
			Decision:      nil,
			Jurisprudence: []models.JurisprudenceItem{},
		})
	}

	if len(issues) > 0 {
		issues = h.enrichment.EnrichAll(c.Request.Context(), issues, req.Summary)
	}
	legalCase.Issues = issues

	if err := h.caseRepo.UpdateAnalysis(c.Request.Context(), legalCase); err != nil {
		errorResponse(c, http.StatusInternalServerError, "UPDATE_FAILED", err.Error())
		return
	}

	c.JSON(http.StatusOK, gin.H{"success": true, "data": legalCase})
}

// ManualSearchRequest represents a keyword-driven jurisprudence search
type ManualSearchRequest struct {
	Keyword string `json:"keyword"`
}

// ManualSearch handles POST /api/cases/:id/issues/:issueId/search
func (h *CaseHandler) ManualSearch(c *gin.Context) {
	id, ok := parseID(c, "id", "INVALID_ID")
	if !ok {
		return
	}

	var req ManualSearchRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		errorResponse(c, http.StatusBadRequest, "INVALID_REQUEST", err.Error())
		return
	}

	issues, err := h.issueService.ManualSearch(c.Request.Context(), id, c.Param("issueId"), req.Keyword)
	if err != nil {
		h.issueError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"success": true, "data": issues})
}

// ToggleSelection handles POST /api/cases/:id/issues/:issueId/jurisprudence/:itemId/toggle
func (h *CaseHandler) ToggleSelection(c *gin.Context) {
	id, ok := parseID(c, "id", "INVALID_ID")
	if !ok {
		return
	}

	issues, err := h.issueService.ToggleSelection(c.Request.Context(), id, c.Param("issueId"), c.Param("itemId"))
	if err != nil {
		h.issueError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"success": true, "data": issues})
}

// UpdateIssueRequest carries the assessor's review edits. A nil field is left
// unchanged; an empty decision string clears the verdict.
type UpdateIssueRequest struct {
	Reasoning *string `json:"reasoning"`
	Decision  *string `json:"decision"`
}

// UpdateIssue handles PUT /api/cases/:id/issues/:issueId
func (h *CaseHandler) UpdateIssue(c *gin.Context) {
	id, ok := parseID(c, "id", "INVALID_ID")
	if !ok {
		return
	}

	var req UpdateIssueRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		errorResponse(c, http.StatusBadRequest, "INVALID_REQUEST", err.Error())
		return
	}

	issueID := c.Param("issueId")
	var issues models.LegalIssues
	var err error

	if req.Reasoning != nil {
		issues, err = h.issueService.UpdateReasoning(c.Request.Context(), id, issueID, *req.Reasoning)
		if err != nil {
			h.issueError(c, err)
			return
		}
	}

	if req.Decision != nil {
		var decision *models.IssueDecision
		if *req.Decision != "" {
			d := models.IssueDecision(*req.Decision)
			switch d {
			case models.DecisionDeferir, models.DecisionIndeferir, models.DecisionFixar:
				decision = &d
			default:
				errorResponse(c, http.StatusBadRequest, "INVALID_DECISION", "Decision must be DEFERIR, INDEFERIR or FIXAR")
				return
			}
		}
		issues, err = h.issueService.UpdateDecision(c.Request.Context(), id, issueID, decision)
		if err != nil {
			h.issueError(c, err)
			return
		}
	}

	if issues == nil {
		errorResponse(c, http.StatusBadRequest, "EMPTY_UPDATE", "Provide reasoning and/or decision")
		return
	}

	c.JSON(http.StatusOK, gin.H{"success": true, "data": issues})
}

// GenerateDraftRequest represents a minuta generation request
type GenerateDraftRequest struct {
	Instructions string `json:"instructions"`
	Strategy     string `json:"strategy"`
}

// GenerateDraft handles POST /api/cases/:id/draft
func (h *CaseHandler) GenerateDraft(c *gin.Context) {
	id, ok := parseID(c, "id", "INVALID_ID")
	if !ok {
		return
	}

	var req GenerateDraftRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		errorResponse(c, http.StatusBadRequest, "INVALID_REQUEST", err.Error())
		return
	}

	strategy := service.StrategyFast
	if req.Strategy == string(service.StrategyDeep) {
		strategy = service.StrategyDeep
	}

	minuta, err := h.draftService.GenerateMinuta(c.Request.Context(), id, req.Instructions, strategy)
	if err != nil {
		switch {
		case errors.Is(err, service.ErrCaseNotFound):
			errorResponse(c, http.StatusNotFound, "NOT_FOUND", "Case not found")
		case errors.Is(err, service.ErrNoIssues):
			errorResponse(c, http.StatusBadRequest, "NO_ISSUES", "Case has no issues to draft from")
		default:
			errorResponse(c, http.StatusInternalServerError, "GENERATION_FAILED", err.Error())
		}
		return
	}

	c.JSON(http.StatusOK, gin.H{"success": true, "data": gin.H{"minuta": minuta}})
}

func (h *CaseHandler) issueError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, service.ErrEmptyKeyword):
		errorResponse(c, http.StatusBadRequest, "EMPTY_KEYWORD", "Search keyword must not be empty")
	case errors.Is(err, service.ErrCaseNotFound):
		errorResponse(c, http.StatusNotFound, "NOT_FOUND", "Case not found")
	case errors.Is(err, service.ErrIssueNotFound):
		errorResponse(c, http.StatusNotFound, "ISSUE_NOT_FOUND", "Legal issue not found")
	case errors.Is(err, service.ErrItemNotFound):
		errorResponse(c, http.StatusNotFound, "ITEM_NOT_FOUND", "Jurisprudence item not found")
	default:
		errorResponse(c, http.StatusInternalServerError, "INTERNAL_ERROR", err.Error())
	}
}
