package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"uaijus-backend/models"
	"uaijus-backend/repository"

	"github.com/google/generative-ai-go/genai"
	"github.com/google/uuid"
)

// DraftStrategy selects the generation model tier
type DraftStrategy string

const (
	StrategyFast DraftStrategy = "fast"
	StrategyDeep DraftStrategy = "deep"

	fastModelName = "gemini-2.5-flash"
	deepModelName = "gemini-3-pro-preview"

	draftTemperature = 0.2
)

var (
	ErrGenerationFailed = errors.New("failed to generate draft")
	ErrNoIssues         = errors.New("case has no issues to draft from")
)

// DraftService generates the minuta (judicial order draft) for a case from
// the assessor's decisions and the selected jurisprudence. Retrieval failures
// never reach this service: by the time a draft is requested each issue
// carries whatever jurisprudence survived enrichment and manual searches.
type DraftService struct {
	caseRepo     *repository.CaseRepository
	geminiClient *genai.Client
}

// DraftServiceOption is a functional option for DraftService
type DraftServiceOption func(*DraftService)

// DraftWithCaseRepository sets the case repository
func DraftWithCaseRepository(repo *repository.CaseRepository) DraftServiceOption {
	return func(s *DraftService) {
		s.caseRepo = repo
	}
}

// DraftWithGeminiClient sets the Gemini client
func DraftWithGeminiClient(client *genai.Client) DraftServiceOption {
	return func(s *DraftService) {
		s.geminiClient = client
	}
}

// NewDraftService creates a new draft service
func NewDraftService(opts ...DraftServiceOption) *DraftService {
	s := &DraftService{}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// GenerateMinuta builds the drafting prompt from the case's issues and calls
// the generation model, persisting the result on the case. Runs synchronously;
// callers should expect it to take as long as the model does.
func (s *DraftService) GenerateMinuta(
	ctx context.Context,
	caseID uuid.UUID,
	instructions string,
	strategy DraftStrategy,
) (string, error) {
	if s.caseRepo == nil {
		return "", errors.New("case repository not set")
	}
	if s.geminiClient == nil {
		return "", errors.New("gemini client not set")
	}

	legalCase, err := s.caseRepo.GetByID(ctx, caseID)
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrCaseNotFound, err)
	}
	if len(legalCase.Issues) == 0 {
		return "", ErrNoIssues
	}

	prompt := buildDraftPrompt(legalCase, instructions)

	modelName := fastModelName
	if strategy == StrategyDeep {
		modelName = deepModelName
	}

	model := s.geminiClient.GenerativeModel(modelName)
	model.SetTemperature(draftTemperature)

	var text string
	backoff := initialBackoff
	for attempt := 0; attempt < maxRetries; attempt++ {
		if attempt > 0 {
			select {
			case <-time.After(backoff):
			case <-ctx.Done():
				return "", ctx.Err()
			}
			backoff *= 2
		}

		resp, err := model.GenerateContent(ctx, genai.Text(prompt))
		if err != nil {
			if attempt == maxRetries-1 {
				return "", fmt.Errorf("%w: %v", ErrGenerationFailed, err)
			}
			continue
		}

		text = responseText(resp)
		if text == "" {
			if attempt == maxRetries-1 {
				return "", fmt.Errorf("%w: model returned empty response", ErrGenerationFailed)
			}
			continue
		}
		break
	}

	if err := s.caseRepo.UpdateMinuta(ctx, caseID, text); err != nil {
		return "", err
	}
	return text, nil
}

// buildDraftPrompt assembles the generation prompt from case metadata, the
// per-issue decision blocks and the assessor's free-form instructions
func buildDraftPrompt(legalCase *models.LegalCase, instructions string) string {
	return fmt.Sprintf(`DADOS DO PROCESSO: %s - %s

DECISÕES:
%s

INSTRUÇÕES ADICIONAIS: %s

TAREFA: Redigir minuta de decisão judicial completa (Relatório, Fundamentação, Dispositivo), fundamentando cada questão com a jurisprudência selecionada.`,
		legalCase.Number,
		legalCase.CaseType,
		AssembleDraftContext(legalCase.Issues),
		instructions,
	)
}

// responseText concatenates the text parts of the first candidate
func responseText(resp *genai.GenerateContentResponse) string {
	if resp == nil || len(resp.Candidates) == 0 || resp.Candidates[0].Content == nil {
		return ""
	}
	var sb strings.Builder
	for _, part := range resp.Candidates[0].Content.Parts {
		if t, ok := part.(genai.Text); ok {
			sb.WriteString(string(t))
		}
	}
	return sb.String()
}
