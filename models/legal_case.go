package models

import (
	"database/sql/driver"
	"encoding/json"
	"time"

	"github.com/google/uuid"
)

// CaseStatus represents the review status of a case
type CaseStatus string

const (
	CaseStatusNew      CaseStatus = "novo"
	CaseStatusInReview CaseStatus = "em_exame"
	CaseStatusReviewed CaseStatus = "examinado"
)

// IssueCategory classifies a legal issue within the saneamento
type IssueCategory string

const (
	IssuePreliminar IssueCategory = "preliminar"
	IssueMerito     IssueCategory = "merito"
)

// IssueDecision is the verdict the assessor records for an issue
type IssueDecision string

const (
	DecisionDeferir   IssueDecision = "DEFERIR"
	DecisionIndeferir IssueDecision = "INDEFERIR"
	DecisionFixar     IssueDecision = "FIXAR"
)

// LegalIssue is a decision point extracted from case analysis.
// The jurisprudence list is ordered by retrieval arrival: the automatic
// enrichment populates it wholesale, manual searches only append.
type LegalIssue struct {
	ID            string              `json:"id"`
	Title         string              `json:"title"`
	Category      IssueCategory       `json:"category"`
	AISuggestion  string              `json:"ai_suggestion"`
	Reasoning     string              `json:"reasoning"`
	Decision      *IssueDecision      `json:"decision"`
	Jurisprudence []JurisprudenceItem `json:"jurisprudence"`
}

// LegalIssues is the per-case issue list, persisted as JSONB
type LegalIssues []LegalIssue

// Value implements driver.Valuer for JSONB
func (l LegalIssues) Value() (driver.Value, error) {
	return json.Marshal(l)
}

// Scan implements sql.Scanner for JSONB
func (l *LegalIssues) Scan(value interface{}) error {
	if value == nil {
		*l = LegalIssues{}
		return nil
	}

	var bytes []byte
	switch v := value.(type) {
	case []byte:
		bytes = v
	case string:
		bytes = []byte(v)
	default:
		return nil
	}
	return json.Unmarshal(bytes, l)
}

// LegalCase represents a judicial case under review
type LegalCase struct {
	ID        uuid.UUID   `json:"id"`
	UserID    uuid.UUID   `json:"user_id"`
	Number    string      `json:"number"` // CNJ case number, stored as-is (checksum not validated here)
	Title     string      `json:"title"`
	CaseType  string      `json:"case_type"`
	Status    CaseStatus  `json:"status"`
	Summary   string      `json:"summary"`
	Issues    LegalIssues `json:"issues"`
	Minuta    *string     `json:"minuta,omitempty"`
	CreatedAt time.Time   `json:"created_at"`
	UpdatedAt time.Time   `json:"updated_at"`
}

// SuggestedIssue is the analysis-side input contract: one decision point
// proposed by document analysis, before enrichment.
type SuggestedIssue struct {
	Title      string        `json:"title"`
	Suggestion string        `json:"suggestion"`
	Category   IssueCategory `json:"category"`
}
