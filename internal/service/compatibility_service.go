package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/yohanndulong/alter-sub001/internal/domain"
	"github.com/yohanndulong/alter-sub001/internal/llm"
)

// FallbackScores son los valores de politica cuando el LLM no responde.
// Van como struct de configuracion, no como literales inline, para que los
// tests puedan sobreescribirlos.
type FallbackScores struct {
	Degraded domain.CompatibilityScores
	Pending  domain.CompatibilityScores
}

// DefaultFallbackScores reproduce la politica de producto: neutral cuando el
// proveedor rechaza por pago/cuota, optimista para cualquier otro fallo.
var DefaultFallbackScores = FallbackScores{
	Degraded: domain.CompatibilityScores{
		Global:     50,
		Love:       50,
		Friendship: 50,
		Carnal:     50,
		Insight:    "El analisis de compatibilidad esta temporalmente degradado. Vuelve a intentarlo mas tarde.",
	},
	Pending: domain.CompatibilityScores{
		Global:     70,
		Love:       65,
		Friendship: 70,
		Carnal:     60,
		Insight:    "Analisis de compatibilidad pendiente.",
	},
}

// CompatibilityScorer calcula los cuatro scores de un par ordenado de perfiles
// via LLM. Nunca propaga un fallo al caller: todo error se convierte en un
// fallback de politica.
type CompatibilityScorer struct {
	llmClient llm.Client
	fallbacks FallbackScores
	logger    *zap.Logger
}

func NewCompatibilityScorer(llmClient llm.Client, fallbacks FallbackScores, logger *zap.Logger) *CompatibilityScorer {
	if fallbacks == (FallbackScores{}) {
		fallbacks = DefaultFallbackScores
	}
	return &CompatibilityScorer{
		llmClient: llmClient,
		fallbacks: fallbacks,
		logger:    logger,
	}
}

// Score evalua la compatibilidad de a hacia b. Los scores son direccionales:
// Score(a,b) y Score(b,a) pueden diferir y se cachean por separado.
func (s *CompatibilityScorer) Score(ctx context.Context, a, b domain.Profile) domain.CompatibilityScores {
	prompt := buildCompatibilityPrompt(a, b)

	raw, err := s.llmClient.Complete(ctx, prompt, llm.CompletionOptions{
		JSONMode:    true,
		Temperature: 0.4,
		MaxTokens:   500,
	})
	if err != nil {
		return s.fallbackFor(err, a.UserID, b.UserID)
	}

	parsed, err := parseCompatibilityResponse(raw)
	if err != nil {
		if s.logger != nil {
			s.logger.Warn("compatibility parse failed", zap.Error(err), zap.String("user_id", a.UserID), zap.String("target_user_id", b.UserID))
		}
		return s.fallbacks.Pending
	}
	return parsed
}

func (s *CompatibilityScorer) fallbackFor(err error, userID, targetUserID string) domain.CompatibilityScores {
	if errors.Is(err, llm.ErrPaymentRequired) {
		if s.logger != nil {
			s.logger.Warn("compatibility scoring degraded", zap.Error(err), zap.String("user_id", userID), zap.String("target_user_id", targetUserID))
		}
		return s.fallbacks.Degraded
	}
	if s.logger != nil {
		s.logger.Warn("compatibility scoring failed", zap.Error(err), zap.String("user_id", userID), zap.String("target_user_id", targetUserID))
	}
	return s.fallbacks.Pending
}

func buildCompatibilityPrompt(a, b domain.Profile) string {
	var sb strings.Builder
	sb.WriteString(`Eres un experto en compatibilidad de parejas para una app de citas. Evalua la compatibilidad de la PERSONA A hacia la PERSONA B y devuelve SOLO un JSON con este formato:
{
  "global": 75,
  "love": 80,
  "friendship": 70,
  "carnal": 65,
  "insight": "una frase breve explicando la quimica del par"
}

Cada score es un entero de 0 a 100. "global" es la sintesis; "love" potencial romantico; "friendship" afinidad de amistad; "carnal" atraccion fisica probable. El insight va dirigido a la PERSONA A.

`)
	sb.WriteString("=== PERSONA A ===\n")
	sb.WriteString(formatProfileForScoring(a))
	sb.WriteString("\n=== PERSONA B ===\n")
	sb.WriteString(formatProfileForScoring(b))
	return sb.String()
}

func formatProfileForScoring(p domain.Profile) string {
	var sb strings.Builder
	fmt.Fprintf(&sb, "Genero: %s\n", NormalizeGender(p.Gender))
	fmt.Fprintf(&sb, "Orientacion: %s\n", p.SexualOrientation)
	if age := p.Age(time.Now().UTC()); age > 0 {
		fmt.Fprintf(&sb, "Edad: %d\n", age)
	}
	if strings.TrimSpace(p.Bio) != "" {
		fmt.Fprintf(&sb, "Bio: %s\n", strings.TrimSpace(p.Bio))
	}
	if len(p.Interests) > 0 {
		fmt.Fprintf(&sb, "Intereses: %s\n", strings.Join(p.Interests, ", "))
	}
	for _, k := range sortedKeys(p.AIAttributes) {
		fmt.Fprintf(&sb, "%s: %s\n", k, p.AIAttributes[k])
	}
	return sb.String()
}

func parseCompatibilityResponse(raw string) (domain.CompatibilityScores, error) {
	cleaned := cleanLLMJSONResponse(raw)
	if obj := extractFirstJSONObject(cleaned); obj != "" {
		cleaned = obj
	}

	var parsed struct {
		Global     int    `json:"global"`
		Love       int    `json:"love"`
		Friendship int    `json:"friendship"`
		Carnal     int    `json:"carnal"`
		Insight    string `json:"insight"`
	}
	if err := json.Unmarshal([]byte(cleaned), &parsed); err != nil {
		return domain.CompatibilityScores{}, fmt.Errorf("parse llm response: %w", err)
	}

	return domain.CompatibilityScores{
		Global:     clampScore(parsed.Global),
		Love:       clampScore(parsed.Love),
		Friendship: clampScore(parsed.Friendship),
		Carnal:     clampScore(parsed.Carnal),
		Insight:    strings.TrimSpace(parsed.Insight),
	}, nil
}

func clampScore(v int) int {
	if v < 0 {
		return 0
	}
	if v > 100 {
		return 100
	}
	return v
}
