package service

import (
	"context"
	"errors"
	"fmt"

	"uaijus-backend/models"

	"github.com/google/uuid"
)

const (
	// DefaultThreshold is the minimum cosine similarity for a precedent to be returned
	DefaultThreshold = 0.6

	// DefaultLimit is the maximum number of precedents returned per search
	DefaultLimit = 5

	// contextSeparator joins the primary query with its disambiguating context
	contextSeparator = ". Contexto: "

	// unavailableText is surfaced as a synthetic item when a user-initiated
	// search cannot reach the retrieval backend
	unavailableText = "Sistema de busca de jurisprudência indisponível. Verifique a conexão e tente novamente."
)

var (
	// ErrEmbeddingFailed wraps any failure to produce a query embedding
	ErrEmbeddingFailed = errors.New("failed to generate query embedding")

	// ErrStoreQuery wraps any failure to query the jurisprudence store
	ErrStoreQuery = errors.New("failed to query jurisprudence store")
)

// PrecedentSearcher answers nearest-neighbor queries over the jurisprudence base
type PrecedentSearcher interface {
	SearchNearest(ctx context.Context, embedding []float64, threshold float64, limit int) ([]models.Precedent, error)
}

// RetrievalService turns free-text legal queries into ranked jurisprudence
// items via embedding generation and vector similarity search. It returns
// typed errors; callers decide how to degrade (the automatic enrichment path
// maps errors to an empty list, the manual path to a placeholder item).
type RetrievalService struct {
	embedder  Embedder
	searcher  PrecedentSearcher
	threshold float64
	limit     int
}

// RetrievalServiceOption is a functional option for RetrievalService
type RetrievalServiceOption func(*RetrievalService)

// RetrievalWithEmbedder sets the embedding provider
func RetrievalWithEmbedder(embedder Embedder) RetrievalServiceOption {
	return func(s *RetrievalService) {
		s.embedder = embedder
	}
}

// RetrievalWithSearcher sets the precedent store
func RetrievalWithSearcher(searcher PrecedentSearcher) RetrievalServiceOption {
	return func(s *RetrievalService) {
		s.searcher = searcher
	}
}

// RetrievalWithThreshold overrides the default similarity threshold
func RetrievalWithThreshold(threshold float64) RetrievalServiceOption {
	return func(s *RetrievalService) {
		s.threshold = threshold
	}
}

// RetrievalWithLimit overrides the default result limit
func RetrievalWithLimit(limit int) RetrievalServiceOption {
	return func(s *RetrievalService) {
		s.limit = limit
	}
}

// NewRetrievalService creates a new retrieval service
func NewRetrievalService(opts ...RetrievalServiceOption) *RetrievalService {
	s := &RetrievalService{
		threshold: DefaultThreshold,
		limit:     DefaultLimit,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// buildSearchText combines the query with optional context so a short issue
// title can be disambiguated by the broader case summary
func buildSearchText(query, contextText string) string {
	if contextText == "" {
		return query
	}
	return query + contextSeparator + contextText
}

// Search retrieves jurisprudence items for the given query using the service
// defaults for threshold and limit.
func (s *RetrievalService) Search(ctx context.Context, query, contextText string) ([]models.JurisprudenceItem, error) {
	return s.SearchWithParams(ctx, query, contextText, s.threshold, s.limit)
}

// SearchWithParams retrieves jurisprudence items for the given query. Results
// come back in descending similarity order, all scoring at or above threshold,
// at most limit items, each with selected initialized to false.
func (s *RetrievalService) SearchWithParams(
	ctx context.Context,
	query, contextText string,
	threshold float64,
	limit int,
) ([]models.JurisprudenceItem, error) {
	if s.embedder == nil {
		return nil, errors.New("embedder not set")
	}
	if s.searcher == nil {
		return nil, errors.New("precedent searcher not set")
	}

	searchText := buildSearchText(query, contextText)

	embedding, err := s.embedder.EmbedText(ctx, searchText)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrEmbeddingFailed, err)
	}

	precedents, err := s.searcher.SearchNearest(ctx, embedding, threshold, limit)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrStoreQuery, err)
	}

	items := make([]models.JurisprudenceItem, 0, len(precedents))
	for _, p := range precedents {
		items = append(items, shapeItem(p))
	}
	return items, nil
}

// shapeItem maps a store row to a display-ready jurisprudence item
func shapeItem(p models.Precedent) models.JurisprudenceItem {
	id := p.ID.String()
	if p.ID == uuid.Nil {
		id = uuid.NewString()
	}
	return models.JurisprudenceItem{
		ID:       id,
		Text:     fmt.Sprintf("[%s] %s", p.NumeroAcordao, p.Ementa),
		Selected: false,
	}
}

// newPlaceholderItem builds the synthetic "service unavailable" item returned
// to manual searches when retrieval fails, so the user is never left without
// feedback
func newPlaceholderItem() models.JurisprudenceItem {
	return models.JurisprudenceItem{
		ID:       uuid.NewString(),
		Text:     unavailableText,
		Selected: false,
	}
}
