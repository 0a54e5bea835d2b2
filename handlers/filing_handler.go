package handlers

import (
	"fmt"
	"net/http"
	"strings"

	"uaijus-backend/models"
	"uaijus-backend/repository"
	"uaijus-backend/storage"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

// FilingHandler handles HTTP requests for court filing uploads
type FilingHandler struct {
	filingRepo       *repository.FilingRepository
	caseRepo         *repository.CaseRepository
	storage          storage.Storage
	maxFileSize      int64
	allowedMimeTypes map[string]bool
}

// NewFilingHandler creates a new filing handler
func NewFilingHandler(filingRepo *repository.FilingRepository, caseRepo *repository.CaseRepository, storage storage.Storage) *FilingHandler {
	return &FilingHandler{
		filingRepo:  filingRepo,
		caseRepo:    caseRepo,
		storage:     storage,
		maxFileSize: 20 * 1024 * 1024, // 20MB, court PDFs run large
		allowedMimeTypes: map[string]bool{
			"application/pdf": true,
			"text/plain":      true,
		},
	}
}

// UploadFiling handles POST /api/filings/upload
func (h *FilingHandler) UploadFiling(c *gin.Context) {
	caseIDStr := c.PostForm("case_id")
	var caseID *uuid.UUID
	var userID uuid.UUID

	if caseIDStr != "" {
		cid, err := uuid.Parse(caseIDStr)
		if err != nil {
			errorResponse(c, http.StatusBadRequest, "INVALID_CASE_ID", "Invalid case_id format")
			return
		}
		caseID = &cid

		legalCase, err := h.caseRepo.GetByID(c.Request.Context(), cid)
		if err != nil {
			errorResponse(c, http.StatusBadRequest, "CASE_NOT_FOUND", "Case not found")
			return
		}
		userID = legalCase.UserID
	} else {
		uid, err := uuid.Parse(c.PostForm("user_id"))
		if err != nil {
			errorResponse(c, http.StatusBadRequest, "MISSING_USER_ID", "Either case_id or a valid user_id is required")
			return
		}
		userID = uid
	}

	fileHeader, err := c.FormFile("file")
	if err != nil {
		errorResponse(c, http.StatusBadRequest, "MISSING_FILE", "File is required")
		return
	}

	if fileHeader.Size > h.maxFileSize {
		errorResponse(c, http.StatusBadRequest, "FILE_TOO_LARGE",
			fmt.Sprintf("File size exceeds maximum of %d bytes", h.maxFileSize))
		return
	}

	file, err := fileHeader.Open()
	if err != nil {
		errorResponse(c, http.StatusInternalServerError, "FILE_OPEN_ERROR", err.Error())
		return
	}
	defer file.Close()

	mimeType := fileHeader.Header.Get("Content-Type")
	if mimeType == "" {
		if strings.HasSuffix(strings.ToLower(fileHeader.Filename), ".pdf") {
			mimeType = "application/pdf"
		} else {
			mimeType = "application/octet-stream"
		}
	}

	if !h.allowedMimeTypes[mimeType] && !strings.HasPrefix(mimeType, "text/") {
		errorResponse(c, http.StatusBadRequest, "INVALID_FILE_TYPE", "File type not allowed. Allowed types: PDF, TXT")
		return
	}

	filingID := uuid.New()

	storagePath, err := h.storage.Upload(c.Request.Context(), filingID, fileHeader.Filename, file)
	if err != nil {
		errorResponse(c, http.StatusInternalServerError, "UPLOAD_FAILED",
			fmt.Sprintf("Failed to upload filing: %v", err))
		return
	}

	filing := &models.Filing{
		ID:          filingID,
		UserID:      userID,
		CaseID:      caseID,
		Filename:    fileHeader.Filename,
		MimeType:    mimeType,
		Size:        fileHeader.Size,
		StoragePath: storagePath,
	}

	if err := h.filingRepo.Create(c.Request.Context(), filing); err != nil {
		// Clean up the orphaned blob
		h.storage.Delete(c.Request.Context(), storagePath)
		errorResponse(c, http.StatusInternalServerError, "DATABASE_ERROR",
			fmt.Sprintf("Failed to save filing record: %v", err))
		return
	}

	c.JSON(http.StatusCreated, gin.H{
		"success": true,
		"data": gin.H{
			"id":         filing.ID,
			"filename":   filing.Filename,
			"mime_type":  filing.MimeType,
			"size":       filing.Size,
			"created_at": filing.CreatedAt,
		},
	})
}

// GetFiling handles GET /api/filings/:id
func (h *FilingHandler) GetFiling(c *gin.Context) {
	id, ok := parseID(c, "id", "INVALID_ID")
	if !ok {
		return
	}

	filing, err := h.filingRepo.GetByID(c.Request.Context(), id)
	if err != nil {
		errorResponse(c, http.StatusNotFound, "NOT_FOUND", "Filing not found")
		return
	}

	reader, err := h.storage.Download(c.Request.Context(), filing.StoragePath)
	if err != nil {
		errorResponse(c, http.StatusInternalServerError, "DOWNLOAD_FAILED",
			fmt.Sprintf("Failed to download filing: %v", err))
		return
	}
	defer reader.Close()

	c.Header("Content-Disposition", fmt.Sprintf("attachment; filename=%q", filing.Filename))
	c.DataFromReader(http.StatusOK, filing.Size, filing.MimeType, reader, nil)
}

// ListFilings handles GET /api/cases/:id/filings
func (h *FilingHandler) ListFilings(c *gin.Context) {
	id, ok := parseID(c, "id", "INVALID_ID")
	if !ok {
		return
	}

	filings, err := h.filingRepo.ListByCase(c.Request.Context(), id)
	if err != nil {
		errorResponse(c, http.StatusInternalServerError, "LIST_FAILED", err.Error())
		return
	}
	if filings == nil {
		filings = []models.Filing{}
	}

	c.JSON(http.StatusOK, gin.H{"success": true, "data": filings})
}
