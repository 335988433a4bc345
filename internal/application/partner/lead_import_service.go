package partner

import (
	"context"
	"errors"
	"strings"

	"github.com/google/uuid"

	"github.com/crm/backend/internal/domain/partner"
	"github.com/crm/backend/internal/domain/shared"
	csvimport "github.com/crm/backend/internal/infrastructure/import"
)

// ConflictMode defines how to handle conflicts during import
type ConflictMode string

const (
	// ConflictModeSkip skips rows that conflict with existing data
	ConflictModeSkip ConflictMode = "skip"
	// ConflictModeUpdate updates existing records with new data
	ConflictModeUpdate ConflictMode = "update"
	// ConflictModeFail fails the import if any conflicts are found
	ConflictModeFail ConflictMode = "fail"
)

// IsValid checks if the conflict mode is valid
func (c ConflictMode) IsValid() bool {
	switch c {
	case ConflictModeSkip, ConflictModeUpdate, ConflictModeFail:
		return true
	}
	return false
}

// LeadImportRow represents a row from the lead CSV import
type LeadImportRow struct {
	CustomerName   string `csv:"customer_name"`
	CustomerEmail  string `csv:"customer_email"`
	CustomerPhone  string `csv:"customer_phone"`
	ReferralCodeID string `csv:"referral_code_id"`
}

// LeadImportResult represents the result of a lead import operation
type LeadImportResult struct {
	TotalRows    int                  `json:"total_rows"`
	ImportedRows int                  `json:"imported_rows"`
	UpdatedRows  int                  `json:"updated_rows"`
	SkippedRows  int                  `json:"skipped_rows"`
	ErrorRows    int                  `json:"error_rows"`
	Errors       []csvimport.RowError `json:"errors,omitempty"`
	IsTruncated  bool                 `json:"is_truncated,omitempty"`
	TotalErrors  int                  `json:"total_errors,omitempty"`
}

// LeadImportService handles lead bulk import operations
type LeadImportService struct {
	leadRepo partner.LeadRepository
}

// NewLeadImportService creates a new LeadImportService
func NewLeadImportService(leadRepo partner.LeadRepository) *LeadImportService {
	return &LeadImportService{leadRepo: leadRepo}
}

// GetValidationRules returns the validation rules for lead import
func (s *LeadImportService) GetValidationRules() []csvimport.FieldRule {
	return []csvimport.FieldRule{
		csvimport.Field("customer_name").Required().String().MinLength(1).MaxLength(200).Build(),
		csvimport.Field("customer_email").Email().MaxLength(200).Unique().Build(),
		csvimport.Field("customer_phone").String().MaxLength(50).Build(),
		csvimport.Field("referral_code_id").UUID().Build(),
	}
}

// LookupUnique checks if a value already exists for a given field
func (s *LeadImportService) LookupUnique(ctx context.Context, ownerID uuid.UUID, field, value string) (bool, error) {
	if value == "" {
		return false, nil // empty is not a duplicate
	}
	if field != "customer_email" {
		return false, nil
	}
	_, err := s.leadRepo.FindByEmail(ctx, ownerID, value)
	if err != nil {
		if errors.Is(err, shared.ErrNotFound) {
			return false, nil
		}
		return false, err
	}
	return true, nil
}

// Import imports leads from validated rows
func (s *LeadImportService) Import(
	ctx context.Context,
	ownerID, _ uuid.UUID,
	session *csvimport.ImportSession,
	validRows []*csvimport.Row,
	conflictMode ConflictMode,
) (*LeadImportResult, error) {
	if session.State != csvimport.StateValidated {
		return nil, shared.NewDomainError("INVALID_STATE", "Import session must be in validated state")
	}

	if !session.IsValid() {
		return nil, shared.NewDomainError("VALIDATION_ERRORS", "Cannot import session with validation errors")
	}

	session.UpdateState(csvimport.StateImporting)

	result := &LeadImportResult{
		TotalRows: len(validRows),
	}
	errs := csvimport.NewErrorCollection(100)

	for _, row := range validRows {
		select {
		case <-ctx.Done():
			session.UpdateState(csvimport.StateCancelled)
			return nil, ctx.Err()
		default:
		}

		if err := s.importRow(ctx, ownerID, row, conflictMode, result, errs); err != nil {
			// Critical error - stop import
			session.UpdateState(csvimport.StateFailed)
			return nil, err
		}
	}

	result.Errors = errs.Errors()
	result.IsTruncated = errs.IsTruncated()
	result.TotalErrors = errs.TotalCount()

	if result.ErrorRows > 0 {
		session.UpdateState(csvimport.StateFailed)
	} else {
		session.UpdateState(csvimport.StateCompleted)
	}

	return result, nil
}

// importRow imports a single lead row
func (s *LeadImportService) importRow(
	ctx context.Context,
	ownerID uuid.UUID,
	row *csvimport.Row,
	conflictMode ConflictMode,
	result *LeadImportResult,
	errs *csvimport.ErrorCollection,
) error {
	name := strings.TrimSpace(row.Get("customer_name"))
	email := strings.ToLower(strings.TrimSpace(row.Get("customer_email")))
	phone := strings.TrimSpace(row.Get("customer_phone"))
	referralStr := strings.TrimSpace(row.Get("referral_code_id"))

	var referralCodeID *uuid.UUID
	if referralStr != "" {
		id, err := uuid.Parse(referralStr)
		if err != nil {
			errs.AddValidationError(row.LineNumber, "referral_code_id", csvimport.ErrCodeImportInvalidFormat, err.Error())
			result.ErrorRows++
			return nil
		}
		referralCodeID = &id
	}

	// Conflict detection keys off the customer email
	if email != "" {
		existing, err := s.leadRepo.FindByEmail(ctx, ownerID, email)
		if err != nil && !errors.Is(err, shared.ErrNotFound) {
			return err
		}
		if existing != nil {
			switch conflictMode {
			case ConflictModeSkip:
				result.SkippedRows++
				return nil
			case ConflictModeFail:
				errs.AddDuplicateError(row.LineNumber, "customer_email", email, true)
				result.ErrorRows++
				return nil
			case ConflictModeUpdate:
				if err := existing.UpdateContact(name, email, phone); err != nil {
					errs.AddValidationError(row.LineNumber, "customer_name", csvimport.ErrCodeImportValidation, err.Error())
					result.ErrorRows++
					return nil
				}
				if err := s.leadRepo.Save(ctx, existing); err != nil {
					return err
				}
				result.UpdatedRows++
				return nil
			}
		}
	}

	lead, err := partner.NewLead(ownerID, name, email, phone, referralCodeID)
	if err != nil {
		errs.AddValidationError(row.LineNumber, "customer_name", csvimport.ErrCodeImportValidation, err.Error())
		result.ErrorRows++
		return nil
	}

	if err := s.leadRepo.Save(ctx, lead); err != nil {
		return err
	}
	result.ImportedRows++
	return nil
}
