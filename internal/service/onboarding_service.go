package service

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/yohanndulong/alter-sub001/internal/domain"
	"github.com/yohanndulong/alter-sub001/internal/llm"
	"github.com/yohanndulong/alter-sub001/internal/repository"
)

const onboardingHistoryLimit = 30

// OnboardingService lleva la conversacion de construccion de perfil con el
// LLM. Cada turno puede extraer atributos nuevos; cuando el modelo da por
// completo el perfil se marca el onboarding y se dispara el embedding.
type OnboardingService struct {
	logger     *zap.Logger
	llmClient  llm.Client
	messages   repository.MessageRepository
	profileSvc *ProfileService
}

func NewOnboardingService(
	logger *zap.Logger,
	llmClient llm.Client,
	messages repository.MessageRepository,
	profileSvc *ProfileService,
) *OnboardingService {
	return &OnboardingService{
		logger:     logger,
		llmClient:  llmClient,
		messages:   messages,
		profileSvc: profileSvc,
	}
}

// OnboardingTurn es el resultado de un turno de conversacion.
type OnboardingTurn struct {
	Reply     domain.Message    `json:"reply"`
	Completed bool              `json:"completed"`
	Extracted map[string]string `json:"extracted,omitempty"`
}

// HandleMessage procesa un mensaje del usuario: lo persiste, genera la
// respuesta del asistente y aplica los atributos extraidos al perfil.
func (s *OnboardingService) HandleMessage(ctx context.Context, userID, text string) (OnboardingTurn, error) {
	profile, err := s.profileSvc.GetProfile(ctx, userID)
	if err != nil {
		return OnboardingTurn{}, err
	}

	now := time.Now().UTC()
	userMsg := domain.Message{
		ID:             uuid.NewString(),
		ConversationID: userID,
		SenderID:       userID,
		Role:           domain.MessageRoleUser,
		Content:        text,
		CreatedAt:      now,
	}
	if err := s.messages.Create(ctx, userMsg); err != nil {
		return OnboardingTurn{}, fmt.Errorf("persist user message: %w", err)
	}

	history, err := s.messages.ListByConversation(ctx, userID, onboardingHistoryLimit)
	if err != nil {
		return OnboardingTurn{}, fmt.Errorf("list history: %w", err)
	}

	prompt := buildOnboardingPrompt(profile, history)
	raw, err := s.llmClient.Complete(ctx, prompt, llm.CompletionOptions{
		JSONMode:    true,
		Temperature: 0.7,
		MaxTokens:   700,
	})
	if err != nil {
		return OnboardingTurn{}, fmt.Errorf("llm complete: %w", err)
	}

	parsed, err := parseOnboardingResponse(raw)
	if err != nil {
		return OnboardingTurn{}, err
	}

	assistantMsg := domain.Message{
		ID:             uuid.NewString(),
		ConversationID: userID,
		SenderID:       "assistant",
		Role:           domain.MessageRoleAssistant,
		Content:        parsed.Reply,
		CreatedAt:      time.Now().UTC(),
	}
	if err := s.messages.Create(ctx, assistantMsg); err != nil {
		return OnboardingTurn{}, fmt.Errorf("persist assistant message: %w", err)
	}

	if len(parsed.Attributes) > 0 {
		merged := mergeAttributes(profile.AIAttributes, parsed.Attributes)
		if err := s.profileSvc.SetAIAttributes(ctx, userID, merged); err != nil {
			return OnboardingTurn{}, err
		}
	}

	if parsed.Complete && !profile.OnboardingDone {
		if err := s.profileSvc.CompleteOnboarding(ctx, userID); err != nil {
			return OnboardingTurn{}, err
		}
	}

	return OnboardingTurn{
		Reply:     assistantMsg,
		Completed: parsed.Complete,
		Extracted: parsed.Attributes,
	}, nil
}

type onboardingResponse struct {
	Reply      string            `json:"reply"`
	Attributes map[string]string `json:"attributes,omitempty"`
	Complete   bool              `json:"complete"`
}

func buildOnboardingPrompt(profile domain.Profile, history []domain.Message) string {
	var sb strings.Builder
	sb.WriteString(`Eres el asistente de onboarding de una app de citas. Conversas con el usuario para conocerlo y construir su perfil de matching. Haz una pregunta por turno, calida y concreta.

Devuelve SOLO un JSON con este formato:
{
  "reply": "tu siguiente mensaje al usuario",
  "attributes": {"humor": "ironico", "plan_ideal": "cena tranquila"},
  "complete": false
}

"attributes" son rasgos nuevos que hayas aprendido en este turno (clave corta en snake_case, valor breve); dejalo vacio si no hay nada nuevo. Marca "complete": true solo cuando ya tengas una imagen solida de la persona (personalidad, que busca, estilo de vida).

`)
	if len(profile.AIAttributes) > 0 {
		sb.WriteString("=== ATRIBUTOS YA CONOCIDOS ===\n")
		for _, k := range sortedKeys(profile.AIAttributes) {
			fmt.Fprintf(&sb, "- %s: %s\n", k, profile.AIAttributes[k])
		}
		sb.WriteString("\n")
	}
	sb.WriteString("=== CONVERSACION ===\n")
	for _, msg := range history {
		role := "usuario"
		if msg.Role == domain.MessageRoleAssistant {
			role = "asistente"
		}
		fmt.Fprintf(&sb, "%s: %s\n", role, msg.Content)
	}
	return sb.String()
}

func parseOnboardingResponse(raw string) (onboardingResponse, error) {
	cleaned := cleanLLMJSONResponse(raw)
	if obj := extractFirstJSONObject(cleaned); obj != "" {
		cleaned = obj
	}
	var parsed onboardingResponse
	if err := json.Unmarshal([]byte(cleaned), &parsed); err != nil {
		return onboardingResponse{}, fmt.Errorf("parse llm response: %w", err)
	}
	if strings.TrimSpace(parsed.Reply) == "" {
		return onboardingResponse{}, fmt.Errorf("llm empty reply")
	}
	return parsed, nil
}

func mergeAttributes(current, extracted map[string]string) map[string]string {
	merged := make(map[string]string, len(current)+len(extracted))
	for k, v := range current {
		merged[k] = v
	}
	for k, v := range extracted {
		k = strings.TrimSpace(strings.ToLower(k))
		v = strings.TrimSpace(v)
		if k == "" || v == "" {
			continue
		}
		merged[k] = v
	}
	return merged
}
