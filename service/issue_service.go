package service

import (
	"context"
	"errors"
	"fmt"
	"log"
	"strings"

	"uaijus-backend/models"

	"github.com/google/uuid"
)

// noneSelectedMarker distinguishes "no precedent chosen" from "no precedent
// retrieved" in the draft context handed to generation
const noneSelectedMarker = "Nenhuma selecionada."

var (
	ErrCaseNotFound  = errors.New("case not found")
	ErrIssueNotFound = errors.New("legal issue not found")
	ErrItemNotFound  = errors.New("jurisprudence item not found")
	ErrEmptyKeyword  = errors.New("search keyword must not be empty")
)

// CaseStore is the case persistence contract the issue operations depend on
type CaseStore interface {
	GetByID(ctx context.Context, id uuid.UUID) (*models.LegalCase, error)
	UpdateIssues(ctx context.Context, id uuid.UUID, issues models.LegalIssues) error
}

// IssueService owns all mutations of a case's issue list: manual jurisprudence
// searches, selection toggling and the assessor's reasoning/decision edits.
// Every mutation goes through the case store, which is the single writer.
type IssueService struct {
	retriever    Retriever
	caseStore    CaseStore
	dedupeManual bool
}

// IssueServiceOption is a functional option for IssueService
type IssueServiceOption func(*IssueService)

// IssueWithRetriever sets the retrieval service used by manual searches
func IssueWithRetriever(retriever Retriever) IssueServiceOption {
	return func(s *IssueService) {
		s.retriever = retriever
	}
}

// IssueWithCaseStore sets the case persistence backend
func IssueWithCaseStore(store CaseStore) IssueServiceOption {
	return func(s *IssueService) {
		s.caseStore = store
	}
}

// IssueWithManualDedupe drops manual-search results whose text already appears
// in the issue's list. Off by default: repeated identical searches appending
// duplicate entries is the observed product behavior, not a bug.
func IssueWithManualDedupe(enabled bool) IssueServiceOption {
	return func(s *IssueService) {
		s.dedupeManual = enabled
	}
}

// NewIssueService creates a new issue service
func NewIssueService(opts ...IssueServiceOption) *IssueService {
	s := &IssueService{}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// ManualSearch runs a keyword-driven retrieval for one issue and appends the
// results to that issue's existing jurisprudence list. The keyword dominates
// the search text; the issue title supplies disambiguating context. When the
// retrieval backend is unreachable the user gets one explicit placeholder item
// instead of a silent failure.
func (s *IssueService) ManualSearch(
	ctx context.Context,
	caseID uuid.UUID,
	issueID, keyword string,
) (models.LegalIssues, error) {
	keyword = strings.TrimSpace(keyword)
	if keyword == "" {
		return nil, ErrEmptyKeyword
	}

	legalCase, err := s.caseStore.GetByID(ctx, caseID)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrCaseNotFound, err)
	}

	idx := findIssue(legalCase.Issues, issueID)
	if idx < 0 {
		return nil, ErrIssueNotFound
	}
	issue := &legalCase.Issues[idx]

	items, err := s.retriever.Search(ctx, keyword, issue.Title)
	if err != nil {
		log.Printf("Warning: manual search %q failed: %v", keyword, err)
		items = []models.JurisprudenceItem{newPlaceholderItem()}
	}

	if s.dedupeManual {
		items = dropKnownTexts(issue.Jurisprudence, items)
	}

	issue.Jurisprudence = append(issue.Jurisprudence, items...)

	if err := s.caseStore.UpdateIssues(ctx, caseID, legalCase.Issues); err != nil {
		return nil, err
	}
	return legalCase.Issues, nil
}

// ToggleSelection flips the selected flag on exactly one jurisprudence item,
// leaving all others untouched. Toggling twice restores the prior state.
func (s *IssueService) ToggleSelection(
	ctx context.Context,
	caseID uuid.UUID,
	issueID, itemID string,
) (models.LegalIssues, error) {
	legalCase, err := s.caseStore.GetByID(ctx, caseID)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrCaseNotFound, err)
	}

	idx := findIssue(legalCase.Issues, issueID)
	if idx < 0 {
		return nil, ErrIssueNotFound
	}

	found := false
	for i := range legalCase.Issues[idx].Jurisprudence {
		if legalCase.Issues[idx].Jurisprudence[i].ID == itemID {
			legalCase.Issues[idx].Jurisprudence[i].Selected = !legalCase.Issues[idx].Jurisprudence[i].Selected
			found = true
			break
		}
	}
	if !found {
		return nil, ErrItemNotFound
	}

	if err := s.caseStore.UpdateIssues(ctx, caseID, legalCase.Issues); err != nil {
		return nil, err
	}
	return legalCase.Issues, nil
}

// UpdateReasoning replaces the assessor's free-text reasoning for one issue
func (s *IssueService) UpdateReasoning(
	ctx context.Context,
	caseID uuid.UUID,
	issueID, reasoning string,
) (models.LegalIssues, error) {
	return s.updateIssue(ctx, caseID, issueID, func(issue *models.LegalIssue) {
		issue.Reasoning = reasoning
	})
}

// UpdateDecision sets or clears the decision verdict for one issue
func (s *IssueService) UpdateDecision(
	ctx context.Context,
	caseID uuid.UUID,
	issueID string,
	decision *models.IssueDecision,
) (models.LegalIssues, error) {
	return s.updateIssue(ctx, caseID, issueID, func(issue *models.LegalIssue) {
		issue.Decision = decision
	})
}

func (s *IssueService) updateIssue(
	ctx context.Context,
	caseID uuid.UUID,
	issueID string,
	mutate func(*models.LegalIssue),
) (models.LegalIssues, error) {
	legalCase, err := s.caseStore.GetByID(ctx, caseID)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrCaseNotFound, err)
	}

	idx := findIssue(legalCase.Issues, issueID)
	if idx < 0 {
		return nil, ErrIssueNotFound
	}
	mutate(&legalCase.Issues[idx])

	if err := s.caseStore.UpdateIssues(ctx, caseID, legalCase.Issues); err != nil {
		return nil, err
	}
	return legalCase.Issues, nil
}

// findIssue returns the index of the issue with the given id, or -1
func findIssue(issues models.LegalIssues, issueID string) int {
	for i := range issues {
		if issues[i].ID == issueID {
			return i
		}
	}
	return -1
}

// dropKnownTexts filters out items whose display text already appears in the
// existing list
func dropKnownTexts(existing, incoming []models.JurisprudenceItem) []models.JurisprudenceItem {
	known := make(map[string]bool, len(existing))
	for _, item := range existing {
		known[item.Text] = true
	}

	kept := make([]models.JurisprudenceItem, 0, len(incoming))
	for _, item := range incoming {
		if !known[item.Text] {
			kept = append(kept, item)
		}
	}
	return kept
}

// AssembleDraftContext produces the per-issue decision blocks handed to draft
// generation. Only selected jurisprudence items contribute, in list order;
// an issue with none selected carries an explicit marker so the drafting step
// can tell "no precedent chosen" apart from an empty retrieval.
func AssembleDraftContext(issues []models.LegalIssue) string {
	blocks := make([]string, 0, len(issues))
	for _, issue := range issues {
		var selected []string
		for _, item := range issue.Jurisprudence {
			if item.Selected {
				selected = append(selected, item.Text)
			}
		}

		jurisprudence := noneSelectedMarker
		if len(selected) > 0 {
			jurisprudence = strings.Join(selected, "\n\n")
		}

		decision := "PENDENTE"
		if issue.Decision != nil {
			decision = string(*issue.Decision)
		}

		reasoning := issue.Reasoning
		if reasoning == "" {
			reasoning = issue.AISuggestion
		}

		blocks = append(blocks, fmt.Sprintf(
			"### %s\n - DECISÃO: %s\n - FUNDAMENTAÇÃO: %s\n - JURISPRUDÊNCIA:\n%s",
			strings.ToUpper(issue.Title), decision, reasoning, jurisprudence,
		))
	}
	return strings.Join(blocks, "\n\n")
}
