package service

import (
	"context"
	"log"
	"sync"
	"sync/atomic"

	"uaijus-backend/models"
)

// Retriever is the retrieval contract the orchestrator depends on
type Retriever interface {
	Search(ctx context.Context, query, contextText string) ([]models.JurisprudenceItem, error)
}

// EnrichmentService fans out one retrieval call per legal issue and merges the
// results back by original index, so completion order never affects which
// issue receives which result. A failed retrieval leaves that issue with an
// empty jurisprudence list; EnrichAll itself never fails.
type EnrichmentService struct {
	retriever Retriever
	enriching atomic.Bool
}

// NewEnrichmentService creates a new enrichment service
func NewEnrichmentService(retriever Retriever) *EnrichmentService {
	return &EnrichmentService{retriever: retriever}
}

// Enriching reports whether an enrichment fan-out is currently in flight
func (s *EnrichmentService) Enriching() bool {
	return s.enriching.Load()
}

// EnrichAll populates each issue's jurisprudence list concurrently, using the
// issue title as the query and the case summary as context. All requests are
// started before any completes and the merged list is only produced once the
// slowest settles. The initial population replaces each issue's list
// wholesale; subsequent manual searches only append.
func (s *EnrichmentService) EnrichAll(
	ctx context.Context,
	issues []models.LegalIssue,
	caseSummary string,
) []models.LegalIssue {
	if len(issues) == 0 {
		return issues
	}

	s.enriching.Store(true)
	defer s.enriching.Store(false)

	results := make([][]models.JurisprudenceItem, len(issues))

	var wg sync.WaitGroup
	for i := range issues {
		wg.Add(1)
		go func(i int, title string) {
			defer wg.Done()

			items, err := s.retriever.Search(ctx, title, caseSummary)
			if err != nil {
				// Automatic enrichment degrades silently; the UI treats an
				// empty list as the normal "no jurisprudence found" state
				log.Printf("Warning: enrichment failed for issue %q: %v", title, err)
				items = nil
			}
			if items == nil {
				items = []models.JurisprudenceItem{}
			}
			results[i] = items
		}(i, issues[i].Title)
	}
	wg.Wait()

	enriched := make([]models.LegalIssue, len(issues))
	for i, issue := range issues {
		issue.Jurisprudence = results[i]
		enriched[i] = issue
	}
	return enriched
}
