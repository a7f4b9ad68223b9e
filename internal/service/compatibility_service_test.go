package service

import (
	"context"
	"errors"
	"testing"

	"go.uber.org/zap"

	"github.com/yohanndulong/alter-sub001/internal/domain"
	"github.com/yohanndulong/alter-sub001/internal/llm"
)

func scorerProfiles() (domain.Profile, domain.Profile) {
	a := fingerprintProfile()
	b := fingerprintProfile()
	b.UserID = "u2"
	b.Bio = "Fan del jazz y los viajes"
	return a, b
}

func TestCompatibilityScorer_ParsesLLMResponse(t *testing.T) {
	mock := &llm.MockClient{Response: `{"global": 82, "love": 75, "friendship": 88, "carnal": 60, "insight": "comparten curiosidad"}`}
	scorer := NewCompatibilityScorer(mock, DefaultFallbackScores, zap.NewNop())
	a, b := scorerProfiles()

	scores := scorer.Score(context.Background(), a, b)
	if scores.Global != 82 || scores.Love != 75 || scores.Friendship != 88 || scores.Carnal != 60 {
		t.Fatalf("unexpected scores: %+v", scores)
	}
	if scores.Insight != "comparten curiosidad" {
		t.Fatalf("unexpected insight: %q", scores.Insight)
	}
	if mock.Calls != 1 {
		t.Fatalf("expected 1 llm call, got %d", mock.Calls)
	}
}

func TestCompatibilityScorer_CleansMarkdownFences(t *testing.T) {
	mock := &llm.MockClient{Response: "```json\n{\"global\": 70, \"love\": 70, \"friendship\": 70, \"carnal\": 70, \"insight\": \"ok\"}\n```"}
	scorer := NewCompatibilityScorer(mock, DefaultFallbackScores, zap.NewNop())
	a, b := scorerProfiles()

	scores := scorer.Score(context.Background(), a, b)
	if scores.Global != 70 {
		t.Fatalf("expected fenced JSON to parse, got %+v", scores)
	}
}

func TestCompatibilityScorer_ClampsOutOfRangeScores(t *testing.T) {
	mock := &llm.MockClient{Response: `{"global": 150, "love": -5, "friendship": 100, "carnal": 0, "insight": "raro"}`}
	scorer := NewCompatibilityScorer(mock, DefaultFallbackScores, zap.NewNop())
	a, b := scorerProfiles()

	scores := scorer.Score(context.Background(), a, b)
	if scores.Global != 100 {
		t.Fatalf("expected global clamped to 100, got %d", scores.Global)
	}
	if scores.Love != 0 {
		t.Fatalf("expected love clamped to 0, got %d", scores.Love)
	}
}

func TestCompatibilityScorer_PaymentErrorUsesDegradedFallback(t *testing.T) {
	mock := &llm.MockClient{Err: llm.ErrPaymentRequired}
	scorer := NewCompatibilityScorer(mock, DefaultFallbackScores, zap.NewNop())
	a, b := scorerProfiles()

	scores := scorer.Score(context.Background(), a, b)
	if scores.Global != 50 || scores.Love != 50 || scores.Friendship != 50 || scores.Carnal != 50 {
		t.Fatalf("expected degraded fallback {50,50,50,50}, got %+v", scores)
	}
}

func TestCompatibilityScorer_WrappedPaymentErrorUsesDegradedFallback(t *testing.T) {
	wrapped := errors.Join(errors.New("llm http error: status=402"), llm.ErrPaymentRequired)
	mock := &llm.MockClient{Err: wrapped}
	scorer := NewCompatibilityScorer(mock, DefaultFallbackScores, zap.NewNop())
	a, b := scorerProfiles()

	scores := scorer.Score(context.Background(), a, b)
	if scores.Global != 50 {
		t.Fatalf("expected degraded fallback for wrapped payment error, got %+v", scores)
	}
}

func TestCompatibilityScorer_GenericErrorUsesPendingFallback(t *testing.T) {
	mock := &llm.MockClient{Err: errors.New("timeout")}
	scorer := NewCompatibilityScorer(mock, DefaultFallbackScores, zap.NewNop())
	a, b := scorerProfiles()

	scores := scorer.Score(context.Background(), a, b)
	if scores.Global != 70 || scores.Love != 65 || scores.Friendship != 70 || scores.Carnal != 60 {
		t.Fatalf("expected pending fallback {70,65,70,60}, got %+v", scores)
	}
}

func TestCompatibilityScorer_MalformedResponseUsesPendingFallback(t *testing.T) {
	mock := &llm.MockClient{Response: "no soy json"}
	scorer := NewCompatibilityScorer(mock, DefaultFallbackScores, zap.NewNop())
	a, b := scorerProfiles()

	scores := scorer.Score(context.Background(), a, b)
	if scores.Global != 70 || scores.Carnal != 60 {
		t.Fatalf("expected pending fallback for unparseable response, got %+v", scores)
	}
}
