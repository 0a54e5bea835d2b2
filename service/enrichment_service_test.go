package service

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"
	"time"

	"uaijus-backend/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// retrieverFunc adapts a function to the Retriever interface
type retrieverFunc func(ctx context.Context, query, contextText string) ([]models.JurisprudenceItem, error)

func (f retrieverFunc) Search(ctx context.Context, query, contextText string) ([]models.JurisprudenceItem, error) {
	return f(ctx, query, contextText)
}

func makeIssues(n int) []models.LegalIssue {
	issues := make([]models.LegalIssue, n)
	for i := range issues {
		issues[i] = models.LegalIssue{
			ID:            fmt.Sprintf("issue-%d", i),
			Title:         fmt.Sprintf("Questão %d", i),
			Category:      models.IssueMerito,
			Jurisprudence: []models.JurisprudenceItem{},
		}
	}
	return issues
}

func TestEnrichmentService_EnrichAll(t *testing.T) {
	t.Run("each issue receives its own query's result under concurrent fan-out", func(t *testing.T) {
		// Later issues complete first to force out-of-order joins
		var mu sync.Mutex
		order := 0
		retriever := retrieverFunc(func(ctx context.Context, query, contextText string) ([]models.JurisprudenceItem, error) {
			mu.Lock()
			order++
			delay := time.Duration(10-order) * time.Millisecond
			mu.Unlock()
			time.Sleep(delay)
			return []models.JurisprudenceItem{
				{ID: "r-" + query, Text: "resultado de " + query},
			}, nil
		})

		svc := NewEnrichmentService(retriever)
		issues := makeIssues(5)

		enriched := svc.EnrichAll(context.Background(), issues, "resumo do caso")
		require.Len(t, enriched, 5)

		for i, issue := range enriched {
			require.Len(t, issue.Jurisprudence, 1)
			assert.Equal(t, "resultado de "+issues[i].Title, issue.Jurisprudence[0].Text,
				"issue %d must carry its own result", i)
		}
	})

	t.Run("passes title as query and summary as context", func(t *testing.T) {
		var mu sync.Mutex
		seen := map[string]string{}
		retriever := retrieverFunc(func(ctx context.Context, query, contextText string) ([]models.JurisprudenceItem, error) {
			mu.Lock()
			seen[query] = contextText
			mu.Unlock()
			return nil, nil
		})

		svc := NewEnrichmentService(retriever)
		issues := makeIssues(2)
		svc.EnrichAll(context.Background(), issues, "resumo do caso")

		assert.Equal(t, "resumo do caso", seen["Questão 0"])
		assert.Equal(t, "resumo do caso", seen["Questão 1"])
	})

	t.Run("failed retrievals degrade to empty lists without failing the call", func(t *testing.T) {
		retriever := retrieverFunc(func(ctx context.Context, query, contextText string) ([]models.JurisprudenceItem, error) {
			return nil, errors.New("embedding provider down")
		})

		svc := NewEnrichmentService(retriever)
		enriched := svc.EnrichAll(context.Background(), makeIssues(2), "resumo")

		require.Len(t, enriched, 2)
		for _, issue := range enriched {
			assert.NotNil(t, issue.Jurisprudence)
			assert.Empty(t, issue.Jurisprudence)
		}
		assert.False(t, svc.Enriching(), "flag must return to false after failures")
	})

	t.Run("partial failure leaves the other issues' results intact", func(t *testing.T) {
		retriever := retrieverFunc(func(ctx context.Context, query, contextText string) ([]models.JurisprudenceItem, error) {
			if query == "Questão 0" {
				return nil, errors.New("store unreachable")
			}
			return []models.JurisprudenceItem{{ID: "ok", Text: "ementa"}}, nil
		})

		svc := NewEnrichmentService(retriever)
		enriched := svc.EnrichAll(context.Background(), makeIssues(3), "resumo")

		assert.Empty(t, enriched[0].Jurisprudence)
		assert.Len(t, enriched[1].Jurisprudence, 1)
		assert.Len(t, enriched[2].Jurisprudence, 1)
	})

	t.Run("flag is set for the duration of the fan-out", func(t *testing.T) {
		svc := NewEnrichmentService(nil)
		inFlight := retrieverFunc(func(ctx context.Context, query, contextText string) ([]models.JurisprudenceItem, error) {
			assert.True(t, svc.Enriching(), "flag must be up while requests are in flight")
			return nil, nil
		})
		svc.retriever = inFlight

		assert.False(t, svc.Enriching())
		svc.EnrichAll(context.Background(), makeIssues(3), "resumo")
		assert.False(t, svc.Enriching())
	})

	t.Run("empty issue list is a no-op", func(t *testing.T) {
		calls := 0
		retriever := retrieverFunc(func(ctx context.Context, query, contextText string) ([]models.JurisprudenceItem, error) {
			calls++
			return nil, nil
		})

		svc := NewEnrichmentService(retriever)
		enriched := svc.EnrichAll(context.Background(), nil, "resumo")

		assert.Empty(t, enriched)
		assert.Zero(t, calls)
	})
}
