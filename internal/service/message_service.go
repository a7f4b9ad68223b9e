package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"go.uber.org/zap"

	"github.com/yohanndulong/alter-sub001/internal/domain"
	"github.com/yohanndulong/alter-sub001/internal/repository"
)

var (
	ErrMatchNotFound = errors.New("match not found")
	ErrNotInMatch    = errors.New("user does not belong to this match")
	ErrEmptyMessage  = errors.New("message content is empty")
)

const matchHistoryLimit = 100

// MessageService maneja el chat entre usuarios con match. El ID del match es
// el ID de la conversacion; solo sus dos participantes pueden leer o escribir.
type MessageService struct {
	logger       *zap.Logger
	messages     repository.MessageRepository
	interactions repository.InteractionRepository
}

func NewMessageService(
	logger *zap.Logger,
	messages repository.MessageRepository,
	interactions repository.InteractionRepository,
) *MessageService {
	return &MessageService{
		logger:       logger,
		messages:     messages,
		interactions: interactions,
	}
}

// SendMessage persiste un mensaje del usuario en la conversacion del match.
func (s *MessageService) SendMessage(ctx context.Context, matchID, senderID, content string) (domain.Message, error) {
	if content == "" {
		return domain.Message{}, ErrEmptyMessage
	}
	if err := s.authorize(ctx, matchID, senderID); err != nil {
		return domain.Message{}, err
	}

	msg := domain.Message{
		ID:             uuid.NewString(),
		ConversationID: matchID,
		SenderID:       senderID,
		Role:           domain.MessageRoleUser,
		Content:        content,
		CreatedAt:      time.Now().UTC(),
	}
	if err := s.messages.Create(ctx, msg); err != nil {
		return domain.Message{}, fmt.Errorf("persist message: %w", err)
	}
	return msg, nil
}

// ListMessages devuelve los ultimos mensajes del match en orden cronologico.
func (s *MessageService) ListMessages(ctx context.Context, matchID, userID string) ([]domain.Message, error) {
	if err := s.authorize(ctx, matchID, userID); err != nil {
		return nil, err
	}
	msgs, err := s.messages.ListByConversation(ctx, matchID, matchHistoryLimit)
	if err != nil {
		return nil, fmt.Errorf("list messages: %w", err)
	}
	return msgs, nil
}

func (s *MessageService) authorize(ctx context.Context, matchID, userID string) error {
	match, err := s.interactions.GetMatchByID(ctx, matchID)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return ErrMatchNotFound
		}
		return fmt.Errorf("get match: %w", err)
	}
	if match.User1ID != userID && match.User2ID != userID {
		return ErrNotInMatch
	}
	return nil
}
