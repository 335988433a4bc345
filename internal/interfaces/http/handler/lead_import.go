package handler

import (
	"errors"
	"io"
	"net/http"
	"sync"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"go.uber.org/zap"

	partnerapp "github.com/crm/backend/internal/application/partner"
	"github.com/crm/backend/internal/domain/partner"
	"github.com/crm/backend/internal/domain/shared"
	csvimport "github.com/crm/backend/internal/infrastructure/import"
	"github.com/crm/backend/internal/interfaces/http/dto"
)

// maxImportFileSize caps uploaded CSV files at 10MB
const maxImportFileSize = 10 * 1024 * 1024

// LeadImportHandler handles lead bulk import via CSV upload
type LeadImportHandler struct {
	BaseHandler
	importService *partnerapp.LeadImportService
	sessionStore  csvimport.SessionStore
	logger        *zap.Logger
	// validRows stores validated rows between the validate and import calls
	validRowsStore     map[uuid.UUID][]*csvimport.Row
	validRowsStoreMu   sync.RWMutex
	validRowsCleanupCh chan struct{}
}

// NewLeadImportHandler creates a new LeadImportHandler
func NewLeadImportHandler(leadRepo partner.LeadRepository, logger *zap.Logger) *LeadImportHandler {
	h := &LeadImportHandler{
		importService:      partnerapp.NewLeadImportService(leadRepo),
		sessionStore:       csvimport.NewInMemorySessionStore(15 * time.Minute),
		logger:             logger,
		validRowsStore:     make(map[uuid.UUID][]*csvimport.Row),
		validRowsCleanupCh: make(chan struct{}),
	}

	go h.cleanupValidRowsStore()

	return h
}

// cleanupValidRowsStore periodically drops rows whose session has expired
func (h *LeadImportHandler) cleanupValidRowsStore() {
	ticker := time.NewTicker(5 * time.Minute)
	defer ticker.Stop()
	for {
		select {
		case <-ticker.C:
			h.validRowsStoreMu.Lock()
			for sessionID := range h.validRowsStore {
				session, _ := h.sessionStore.Get(sessionID)
				if session == nil {
					delete(h.validRowsStore, sessionID)
				}
			}
			h.validRowsStoreMu.Unlock()
		case <-h.validRowsCleanupCh:
			return
		}
	}
}

// Stop stops the background cleanup goroutine
func (h *LeadImportHandler) Stop() {
	close(h.validRowsCleanupCh)
}

// LeadImportRequest represents the request to import previously validated leads
type LeadImportRequest struct {
	ValidationID string `json:"validation_id" binding:"required"`
	ConflictMode string `json:"conflict_mode" binding:"required,oneof=skip update fail"`
}

// LeadImportResponse represents the response from lead import
// @Description Response from lead bulk import operation
type LeadImportResponse struct {
	TotalRows    int                  `json:"total_rows" example:"100"`
	ImportedRows int                  `json:"imported_rows" example:"95"`
	UpdatedRows  int                  `json:"updated_rows" example:"3"`
	SkippedRows  int                  `json:"skipped_rows" example:"2"`
	ErrorRows    int                  `json:"error_rows" example:"0"`
	Errors       []csvimport.RowError `json:"errors,omitempty"`
	IsTruncated  bool                 `json:"is_truncated,omitempty" example:"false"`
	TotalErrors  int                  `json:"total_errors,omitempty" example:"0"`
}

// LeadValidationResponse represents the response from lead import validation
// @Description Response from lead CSV validation
type LeadValidationResponse struct {
	ValidationID string               `json:"validation_id" example:"550e8400-e29b-41d4-a716-446655440000"`
	TotalRows    int                  `json:"total_rows" example:"100"`
	ValidRows    int                  `json:"valid_rows" example:"98"`
	ErrorRows    int                  `json:"error_rows" example:"2"`
	Errors       []csvimport.RowError `json:"errors,omitempty"`
	Preview      []map[string]any     `json:"preview,omitempty"`
	IsTruncated  bool                 `json:"is_truncated,omitempty"`
	TotalErrors  int                  `json:"total_errors,omitempty"`
}

// ValidateLeads validates a lead CSV file without importing the data
func (h *LeadImportHandler) ValidateLeads(c *gin.Context) {
	ctx := c.Request.Context()

	ownerID, err := getOwnerID(c)
	if err != nil {
		h.BadRequest(c, "Invalid owner ID")
		return
	}

	userID, err := getUserID(c)
	if err != nil {
		h.BadRequest(c, "Invalid user ID")
		return
	}

	file, header, err := c.Request.FormFile("file")
	if err != nil {
		h.BadRequest(c, "file is required")
		return
	}
	defer file.Close()

	if header.Size > maxImportFileSize {
		h.Error(c, http.StatusRequestEntityTooLarge, dto.ErrCodeValidation, "file exceeds maximum size of 10MB")
		return
	}

	contentType := header.Header.Get("Content-Type")
	if contentType != "" && contentType != "text/csv" && contentType != "application/octet-stream" &&
		contentType != "text/plain" && contentType != "application/vnd.ms-excel" {
		h.Error(c, http.StatusUnsupportedMediaType, dto.ErrCodeValidation, "file must be a CSV file")
		return
	}

	session := csvimport.NewImportSession(ownerID, userID, csvimport.EntityLeads, header.Filename, header.Size)

	rules := h.importService.GetValidationRules()

	processor := csvimport.NewImportProcessor(
		csvimport.WithUniqueLookup(func(entityType, field, value string) (bool, error) {
			return h.importService.LookupUnique(ctx, ownerID, field, value)
		}),
	)

	result, err := processor.Validate(ctx, session, file, rules)
	if err != nil {
		switch err {
		case csvimport.ErrEmptyFile:
			h.BadRequest(c, "CSV file is empty")
		case csvimport.ErrInvalidEncoding:
			h.BadRequest(c, "CSV file has invalid encoding, must be UTF-8")
		case csvimport.ErrMissingHeader:
			h.BadRequest(c, "CSV file is missing header row")
		default:
			h.InternalError(c, "failed to validate file: "+err.Error())
		}
		return
	}

	// Re-read the file to collect the valid rows; validation consumed the reader
	if _, err := file.Seek(0, io.SeekStart); err != nil {
		h.logger.Error("failed to rewind uploaded file", zap.Error(err))
		h.InternalError(c, "Failed to process file")
		return
	}
	if parser, err := csvimport.NewCSVParser(file); err == nil {
		if err := parser.ParseHeader(); err == nil {
			errorRows := make(map[int]bool)
			for _, e := range result.Errors {
				errorRows[e.Row] = true
			}

			var validRows []*csvimport.Row
			for {
				row, err := parser.ReadRow()
				if err == io.EOF {
					break
				}
				if err != nil || row.IsEmpty() {
					continue
				}
				if !errorRows[row.LineNumber] {
					validRows = append(validRows, row)
				}
			}

			if len(validRows) > 0 {
				h.validRowsStoreMu.Lock()
				h.validRowsStore[session.ID] = validRows
				h.validRowsStoreMu.Unlock()
			}
		}
	}

	if err := h.sessionStore.Save(session); err != nil {
		h.InternalError(c, "failed to save import session")
		return
	}

	h.Success(c, LeadValidationResponse{
		ValidationID: result.ValidationID,
		TotalRows:    result.TotalRows,
		ValidRows:    result.ValidRows,
		ErrorRows:    result.ErrorRows,
		Errors:       result.Errors,
		Preview:      result.Preview,
		IsTruncated:  result.IsTruncated,
		TotalErrors:  result.TotalErrors,
	})
}

// ImportLeads imports leads from a previously validated CSV file
func (h *LeadImportHandler) ImportLeads(c *gin.Context) {
	ctx := c.Request.Context()

	ownerID, err := getOwnerID(c)
	if err != nil {
		h.BadRequest(c, "Invalid owner ID")
		return
	}

	userID, err := getUserID(c)
	if err != nil {
		h.BadRequest(c, "Invalid user ID")
		return
	}

	var req LeadImportRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.BadRequest(c, "Invalid request: "+err.Error())
		return
	}

	validationID, err := uuid.Parse(req.ValidationID)
	if err != nil {
		h.BadRequest(c, "Invalid validation_id")
		return
	}

	conflictMode := partnerapp.ConflictMode(req.ConflictMode)
	if !conflictMode.IsValid() {
		h.BadRequest(c, "Invalid conflict_mode, must be one of: skip, update, fail")
		return
	}

	session, err := h.sessionStore.Get(validationID)
	if err != nil {
		h.InternalError(c, "failed to retrieve session")
		return
	}
	if session == nil || session.OwnerID != ownerID {
		h.NotFound(c, "Import session not found or expired")
		return
	}

	if session.State != csvimport.StateValidated {
		h.BadRequest(c, "Session must be validated before import. Current state: "+string(session.State))
		return
	}

	h.validRowsStoreMu.RLock()
	validRows := h.validRowsStore[validationID]
	h.validRowsStoreMu.RUnlock()

	if len(validRows) == 0 {
		h.BadRequest(c, "No valid rows found for import. Please re-validate the file.")
		return
	}

	result, err := h.importService.Import(ctx, ownerID, userID, session, validRows, conflictMode)
	if err != nil {
		var domainErr *shared.DomainError
		if errors.As(err, &domainErr) {
			h.Error(c, http.StatusUnprocessableEntity, domainErr.Code, domainErr.Message)
			return
		}
		h.InternalError(c, "failed to import leads: "+err.Error())
		return
	}

	h.validRowsStoreMu.Lock()
	delete(h.validRowsStore, validationID)
	h.validRowsStoreMu.Unlock()

	if err := h.sessionStore.Save(session); err != nil {
		h.logger.Error("failed to update import session after import",
			zap.String("session_id", session.ID.String()),
			zap.Error(err),
		)
	}

	h.Success(c, LeadImportResponse{
		TotalRows:    result.TotalRows,
		ImportedRows: result.ImportedRows,
		UpdatedRows:  result.UpdatedRows,
		SkippedRows:  result.SkippedRows,
		ErrorRows:    result.ErrorRows,
		Errors:       result.Errors,
		IsTruncated:  result.IsTruncated,
		TotalErrors:  result.TotalErrors,
	})
}
