package service

import (
	"context"
	"errors"
	"strings"
	"testing"

	"uaijus-backend/models"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// memCaseStore is an in-memory CaseStore. GetByID returns a deep copy so the
// stored state only changes through UpdateIssues, like the real repository.
type memCaseStore struct {
	cases map[uuid.UUID]*models.LegalCase
}

func newMemCaseStore() *memCaseStore {
	return &memCaseStore{cases: map[uuid.UUID]*models.LegalCase{}}
}

func (s *memCaseStore) GetByID(ctx context.Context, id uuid.UUID) (*models.LegalCase, error) {
	stored, ok := s.cases[id]
	if !ok {
		return nil, errors.New("no rows in result set")
	}
	clone := *stored
	clone.Issues = cloneIssues(stored.Issues)
	return &clone, nil
}

func (s *memCaseStore) UpdateIssues(ctx context.Context, id uuid.UUID, issues models.LegalIssues) error {
	stored, ok := s.cases[id]
	if !ok {
		return errors.New("case not found")
	}
	stored.Issues = cloneIssues(issues)
	return nil
}

func cloneIssues(issues models.LegalIssues) models.LegalIssues {
	out := make(models.LegalIssues, len(issues))
	for i, issue := range issues {
		out[i] = issue
		out[i].Jurisprudence = append([]models.JurisprudenceItem(nil), issue.Jurisprudence...)
	}
	return out
}

func seedCase(store *memCaseStore, issues ...models.LegalIssue) uuid.UUID {
	id := uuid.New()
	store.cases[id] = &models.LegalCase{
		ID:     id,
		Number: "5030768-12.2023.8.13.0701",
		Issues: issues,
	}
	return id
}

func fixedResultRetriever(items ...models.JurisprudenceItem) retrieverFunc {
	return func(ctx context.Context, query, contextText string) ([]models.JurisprudenceItem, error) {
		out := make([]models.JurisprudenceItem, len(items))
		copy(out, items)
		return out, nil
	}
}

func TestIssueService_ManualSearch(t *testing.T) {
	existing := models.JurisprudenceItem{ID: "j1", Text: "[1.0000.23.123456-7/001] ementa original", Selected: true}

	t.Run("appends results after the existing items", func(t *testing.T) {
		store := newMemCaseStore()
		caseID := seedCase(store, models.LegalIssue{
			ID:            "p1",
			Title:         "Preliminar de Ilegitimidade Passiva",
			Jurisprudence: []models.JurisprudenceItem{existing},
		})
		svc := NewIssueService(
			IssueWithRetriever(fixedResultRetriever(models.JurisprudenceItem{ID: "j2", Text: "[1.0024.14.123123-4/002] nova ementa"})),
			IssueWithCaseStore(store),
		)

		issues, err := svc.ManualSearch(context.Background(), caseID, "p1", "dano moral")
		require.NoError(t, err)
		require.Len(t, issues[0].Jurisprudence, 2)
		assert.Equal(t, existing, issues[0].Jurisprudence[0], "pre-existing item must keep its position and selection")
		assert.Equal(t, "j2", issues[0].Jurisprudence[1].ID)
	})

	t.Run("repeated identical searches keep appending", func(t *testing.T) {
		store := newMemCaseStore()
		caseID := seedCase(store, models.LegalIssue{ID: "p1", Title: "Dano moral", Jurisprudence: []models.JurisprudenceItem{existing}})
		svc := NewIssueService(
			IssueWithRetriever(fixedResultRetriever(models.JurisprudenceItem{ID: "j2", Text: "[1.0024.14.123123-4/002] nova ementa"})),
			IssueWithCaseStore(store),
		)

		_, err := svc.ManualSearch(context.Background(), caseID, "p1", "dano moral")
		require.NoError(t, err)
		issues, err := svc.ManualSearch(context.Background(), caseID, "p1", "dano moral")
		require.NoError(t, err)

		require.Len(t, issues[0].Jurisprudence, 3)
		assert.Equal(t, existing.Text, issues[0].Jurisprudence[0].Text)
	})

	t.Run("dedupe option drops already-present texts", func(t *testing.T) {
		store := newMemCaseStore()
		caseID := seedCase(store, models.LegalIssue{ID: "p1", Title: "Dano moral", Jurisprudence: []models.JurisprudenceItem{existing}})
		svc := NewIssueService(
			IssueWithRetriever(fixedResultRetriever(models.JurisprudenceItem{ID: "j2", Text: "[1.0024.14.123123-4/002] nova ementa"})),
			IssueWithCaseStore(store),
			IssueWithManualDedupe(true),
		)

		_, err := svc.ManualSearch(context.Background(), caseID, "p1", "dano moral")
		require.NoError(t, err)
		issues, err := svc.ManualSearch(context.Background(), caseID, "p1", "dano moral")
		require.NoError(t, err)
		assert.Len(t, issues[0].Jurisprudence, 2)
	})

	t.Run("empty keyword is rejected before any retrieval", func(t *testing.T) {
		store := newMemCaseStore()
		caseID := seedCase(store, models.LegalIssue{ID: "p1", Title: "Dano moral"})
		calls := 0
		svc := NewIssueService(
			IssueWithRetriever(retrieverFunc(func(ctx context.Context, q, c string) ([]models.JurisprudenceItem, error) {
				calls++
				return nil, nil
			})),
			IssueWithCaseStore(store),
		)

		_, err := svc.ManualSearch(context.Background(), caseID, "p1", "   ")
		assert.ErrorIs(t, err, ErrEmptyKeyword)
		assert.Zero(t, calls)
	})

	t.Run("keyword dominates and title is the context", func(t *testing.T) {
		store := newMemCaseStore()
		caseID := seedCase(store, models.LegalIssue{ID: "p1", Title: "Preliminar de Ilegitimidade Passiva"})
		var gotQuery, gotContext string
		svc := NewIssueService(
			IssueWithRetriever(retrieverFunc(func(ctx context.Context, q, c string) ([]models.JurisprudenceItem, error) {
				gotQuery, gotContext = q, c
				return nil, nil
			})),
			IssueWithCaseStore(store),
		)

		_, err := svc.ManualSearch(context.Background(), caseID, "p1", "dano moral")
		require.NoError(t, err)
		assert.Equal(t, "dano moral", gotQuery)
		assert.Equal(t, "Preliminar de Ilegitimidade Passiva", gotContext)
	})

	t.Run("retrieval failure appends one readable placeholder", func(t *testing.T) {
		store := newMemCaseStore()
		caseID := seedCase(store, models.LegalIssue{ID: "p1", Title: "Dano moral", Jurisprudence: []models.JurisprudenceItem{existing}})
		svc := NewIssueService(
			IssueWithRetriever(retrieverFunc(func(ctx context.Context, q, c string) ([]models.JurisprudenceItem, error) {
				return nil, ErrStoreQuery
			})),
			IssueWithCaseStore(store),
		)

		issues, err := svc.ManualSearch(context.Background(), caseID, "p1", "dano moral")
		require.NoError(t, err, "manual search must not surface retrieval failures as errors")
		require.Len(t, issues[0].Jurisprudence, 2)
		assert.Equal(t, existing, issues[0].Jurisprudence[0])
		assert.Contains(t, issues[0].Jurisprudence[1].Text, "indisponível")
		assert.False(t, issues[0].Jurisprudence[1].Selected)
	})

	t.Run("unknown issue yields ErrIssueNotFound", func(t *testing.T) {
		store := newMemCaseStore()
		caseID := seedCase(store, models.LegalIssue{ID: "p1", Title: "Dano moral"})
		svc := NewIssueService(
			IssueWithRetriever(fixedResultRetriever()),
			IssueWithCaseStore(store),
		)

		_, err := svc.ManualSearch(context.Background(), caseID, "missing", "dano moral")
		assert.ErrorIs(t, err, ErrIssueNotFound)
	})
}

func TestIssueService_ToggleSelection(t *testing.T) {
	newService := func(store *memCaseStore) *IssueService {
		return NewIssueService(IssueWithCaseStore(store))
	}

	t.Run("flips exactly one item and is an involution", func(t *testing.T) {
		store := newMemCaseStore()
		caseID := seedCase(store, models.LegalIssue{
			ID: "p1",
			Jurisprudence: []models.JurisprudenceItem{
				{ID: "j1", Text: "a", Selected: false},
				{ID: "j2", Text: "b", Selected: true},
			},
		})
		svc := newService(store)

		issues, err := svc.ToggleSelection(context.Background(), caseID, "p1", "j1")
		require.NoError(t, err)
		assert.True(t, issues[0].Jurisprudence[0].Selected)
		assert.True(t, issues[0].Jurisprudence[1].Selected, "other items must be untouched")

		issues, err = svc.ToggleSelection(context.Background(), caseID, "p1", "j1")
		require.NoError(t, err)
		assert.False(t, issues[0].Jurisprudence[0].Selected, "double toggle must restore prior state")
		assert.True(t, issues[0].Jurisprudence[1].Selected)
	})

	t.Run("unknown item yields ErrItemNotFound", func(t *testing.T) {
		store := newMemCaseStore()
		caseID := seedCase(store, models.LegalIssue{ID: "p1"})
		svc := newService(store)

		_, err := svc.ToggleSelection(context.Background(), caseID, "p1", "missing")
		assert.ErrorIs(t, err, ErrItemNotFound)
	})
}

func TestIssueService_Review(t *testing.T) {
	store := newMemCaseStore()
	caseID := seedCase(store, models.LegalIssue{ID: "p1", AISuggestion: "INDEFERIR."})
	svc := NewIssueService(IssueWithCaseStore(store))

	issues, err := svc.UpdateReasoning(context.Background(), caseID, "p1", "Fundamentação própria do assessor.")
	require.NoError(t, err)
	assert.Equal(t, "Fundamentação própria do assessor.", issues[0].Reasoning)

	decision := models.DecisionIndeferir
	issues, err = svc.UpdateDecision(context.Background(), caseID, "p1", &decision)
	require.NoError(t, err)
	require.NotNil(t, issues[0].Decision)
	assert.Equal(t, models.DecisionIndeferir, *issues[0].Decision)

	issues, err = svc.UpdateDecision(context.Background(), caseID, "p1", nil)
	require.NoError(t, err)
	assert.Nil(t, issues[0].Decision)
}

func TestAssembleDraftContext(t *testing.T) {
	t.Run("only selected items contribute, in list order", func(t *testing.T) {
		decision := models.DecisionDeferir
		issues := []models.LegalIssue{{
			ID:        "p1",
			Title:     "Requerimento de Prova Pericial",
			Reasoning: "Prova técnica essencial.",
			Decision:  &decision,
			Jurisprudence: []models.JurisprudenceItem{
				{ID: "j1", Text: "primeira ementa", Selected: true},
				{ID: "j2", Text: "ementa ignorada", Selected: false},
				{ID: "j3", Text: "terceira ementa", Selected: true},
			},
		}}

		got := AssembleDraftContext(issues)
		assert.Contains(t, got, "REQUERIMENTO DE PROVA PERICIAL")
		assert.Contains(t, got, "DECISÃO: DEFERIR")
		assert.Contains(t, got, "primeira ementa\n\nterceira ementa")
		assert.NotContains(t, got, "ementa ignorada")
	})

	t.Run("zero selected items yields the explicit marker, never an empty block", func(t *testing.T) {
		issues := []models.LegalIssue{{
			ID:    "m1",
			Title: "Dano Moral",
			Jurisprudence: []models.JurisprudenceItem{
				{ID: "j1", Text: "ementa não selecionada", Selected: false},
			},
		}}

		got := AssembleDraftContext(issues)
		assert.Contains(t, got, noneSelectedMarker)
		assert.NotContains(t, got, "ementa não selecionada")
	})

	t.Run("empty retrieval also yields the marker", func(t *testing.T) {
		got := AssembleDraftContext([]models.LegalIssue{{ID: "m1", Title: "Dano Moral"}})
		assert.Contains(t, got, noneSelectedMarker)
	})

	t.Run("falls back to the AI suggestion when reasoning is empty", func(t *testing.T) {
		got := AssembleDraftContext([]models.LegalIssue{{
			ID:           "m1",
			Title:        "Dano Moral",
			AISuggestion: "FIXAR como ponto controvertido.",
		}})
		assert.Contains(t, got, "FIXAR como ponto controvertido.")
		assert.Contains(t, got, "DECISÃO: PENDENTE")
	})

	t.Run("one block per issue", func(t *testing.T) {
		issues := []models.LegalIssue{
			{ID: "p1", Title: "Preliminar"},
			{ID: "m1", Title: "Mérito"},
		}
		got := AssembleDraftContext(issues)
		assert.Equal(t, 2, strings.Count(got, "### "))
	})
}
