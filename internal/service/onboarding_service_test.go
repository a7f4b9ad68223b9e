package service

import (
	"context"
	"testing"

	"go.uber.org/zap"

	"github.com/yohanndulong/alter-sub001/internal/domain"
	"github.com/yohanndulong/alter-sub001/internal/llm"
)

type onboardingEnv struct {
	profiles *profileEnv
	messages *mockMessageRepo
	llmMock  *llm.MockClient
	svc      *OnboardingService
}

func newOnboardingEnv(response string) *onboardingEnv {
	profiles := newProfileEnv()
	messages := &mockMessageRepo{}
	llmMock := &llm.MockClient{Response: response}
	svc := NewOnboardingService(zap.NewNop(), llmMock, messages, profiles.svc)
	return &onboardingEnv{
		profiles: profiles,
		messages: messages,
		llmMock:  llmMock,
		svc:      svc,
	}
}

func TestOnboarding_PersistsBothSidesOfTheTurn(t *testing.T) {
	env := newOnboardingEnv(`{"reply": "¿Que planes disfrutas un domingo?", "complete": false}`)
	p := env.profiles.seedProfile()

	turn, err := env.svc.HandleMessage(context.Background(), p.UserID, "Hola, soy nueva aqui")
	if err != nil {
		t.Fatalf("handle message: %v", err)
	}
	if turn.Completed {
		t.Fatalf("expected onboarding still in progress")
	}
	if turn.Reply.Role != domain.MessageRoleAssistant {
		t.Fatalf("expected assistant reply, got role %q", turn.Reply.Role)
	}

	if len(env.messages.messages) != 2 {
		t.Fatalf("expected user and assistant messages persisted, got %d", len(env.messages.messages))
	}
	userMsg := env.messages.messages[0]
	if userMsg.ConversationID != p.UserID || userMsg.Role != domain.MessageRoleUser {
		t.Fatalf("unexpected user message: %+v", userMsg)
	}
	assistantMsg := env.messages.messages[1]
	if assistantMsg.ConversationID != p.UserID || assistantMsg.Content != "¿Que planes disfrutas un domingo?" {
		t.Fatalf("unexpected assistant message: %+v", assistantMsg)
	}
}

func TestOnboarding_MergesExtractedAttributes(t *testing.T) {
	env := newOnboardingEnv(`{"reply": "anotado", "attributes": {"Deporte": "escalada", "humor": "seco"}, "complete": false}`)
	p := env.profiles.seedProfile()

	turn, err := env.svc.HandleMessage(context.Background(), p.UserID, "Escalo desde hace años")
	if err != nil {
		t.Fatalf("handle message: %v", err)
	}
	if len(turn.Extracted) != 2 {
		t.Fatalf("expected 2 extracted attributes, got %v", turn.Extracted)
	}

	stored := env.profiles.profiles.profiles[p.UserID].AIAttributes
	if stored["deporte"] != "escalada" {
		t.Fatalf("expected lowercased new attribute, got %v", stored)
	}
	if stored["humor"] != "seco" {
		t.Fatalf("expected overwritten attribute, got %q", stored["humor"])
	}
	if stored["plan_ideal"] != "cena tranquila" {
		t.Fatalf("expected preexisting attribute preserved, got %v", stored)
	}
}

func TestOnboarding_CompletionMarksProfileDone(t *testing.T) {
	env := newOnboardingEnv(`{"reply": "¡Tu perfil esta listo!", "complete": true}`)
	p := env.profiles.seedProfile()

	turn, err := env.svc.HandleMessage(context.Background(), p.UserID, "Creo que ya te conte todo")
	if err != nil {
		t.Fatalf("handle message: %v", err)
	}
	if !turn.Completed {
		t.Fatalf("expected turn marked complete")
	}
	if !env.profiles.profiles.profiles[p.UserID].OnboardingDone {
		t.Fatalf("expected onboarding done on profile")
	}
}

func TestOnboarding_MalformedLLMResponseFails(t *testing.T) {
	env := newOnboardingEnv("respuesta sin json")
	p := env.profiles.seedProfile()

	if _, err := env.svc.HandleMessage(context.Background(), p.UserID, "hola"); err == nil {
		t.Fatalf("expected error for unparseable llm response")
	}
	// El mensaje del usuario queda persistido aunque el turno falle.
	if len(env.messages.messages) != 1 {
		t.Fatalf("expected only the user message persisted, got %d", len(env.messages.messages))
	}
}

func TestOnboarding_UnknownUserFails(t *testing.T) {
	env := newOnboardingEnv(`{"reply": "hola", "complete": false}`)
	if _, err := env.svc.HandleMessage(context.Background(), "ghost", "hola"); err != ErrProfileNotFound {
		t.Fatalf("expected ErrProfileNotFound, got %v", err)
	}
}
