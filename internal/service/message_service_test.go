package service

import (
	"context"
	"errors"
	"testing"

	"go.uber.org/zap"

	"github.com/yohanndulong/alter-sub001/internal/domain"
)

func newMessageEnv() (*MessageService, *mockMessageRepo, *mockInteractionRepo) {
	messages := &mockMessageRepo{}
	interactions := newMockInteractionRepo()
	interactions.matches["m1"] = domain.Match{ID: "m1", User1ID: "a", User2ID: "b"}
	svc := NewMessageService(zap.NewNop(), messages, interactions)
	return svc, messages, interactions
}

func TestSendMessage_ParticipantCanWrite(t *testing.T) {
	svc, messages, _ := newMessageEnv()

	msg, err := svc.SendMessage(context.Background(), "m1", "a", "hola, encantada")
	if err != nil {
		t.Fatalf("send message: %v", err)
	}
	if msg.ConversationID != "m1" || msg.SenderID != "a" {
		t.Fatalf("unexpected message: %+v", msg)
	}
	if msg.Role != domain.MessageRoleUser {
		t.Fatalf("expected user role in match chat, got %q", msg.Role)
	}
	if len(messages.messages) != 1 {
		t.Fatalf("expected message persisted")
	}
}

func TestSendMessage_OutsiderRejected(t *testing.T) {
	svc, messages, _ := newMessageEnv()

	if _, err := svc.SendMessage(context.Background(), "m1", "intruso", "hola"); !errors.Is(err, ErrNotInMatch) {
		t.Fatalf("expected ErrNotInMatch, got %v", err)
	}
	if len(messages.messages) != 0 {
		t.Fatalf("expected nothing persisted for outsider")
	}
}

func TestSendMessage_UnknownMatch(t *testing.T) {
	svc, _, _ := newMessageEnv()
	if _, err := svc.SendMessage(context.Background(), "ghost", "a", "hola"); !errors.Is(err, ErrMatchNotFound) {
		t.Fatalf("expected ErrMatchNotFound, got %v", err)
	}
}

func TestSendMessage_EmptyContentRejected(t *testing.T) {
	svc, _, _ := newMessageEnv()
	if _, err := svc.SendMessage(context.Background(), "m1", "a", ""); !errors.Is(err, ErrEmptyMessage) {
		t.Fatalf("expected ErrEmptyMessage, got %v", err)
	}
}

func TestListMessages_OnlyForParticipants(t *testing.T) {
	svc, _, _ := newMessageEnv()

	if _, err := svc.SendMessage(context.Background(), "m1", "a", "hola"); err != nil {
		t.Fatalf("send: %v", err)
	}
	if _, err := svc.SendMessage(context.Background(), "m1", "b", "¡hola!"); err != nil {
		t.Fatalf("send: %v", err)
	}

	msgs, err := svc.ListMessages(context.Background(), "m1", "b")
	if err != nil {
		t.Fatalf("list messages: %v", err)
	}
	if len(msgs) != 2 {
		t.Fatalf("expected 2 messages, got %d", len(msgs))
	}

	if _, err := svc.ListMessages(context.Background(), "m1", "intruso"); !errors.Is(err, ErrNotInMatch) {
		t.Fatalf("expected ErrNotInMatch for outsider, got %v", err)
	}
}
