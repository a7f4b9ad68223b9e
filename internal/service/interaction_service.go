package service

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/yohanndulong/alter-sub001/internal/domain"
	"github.com/yohanndulong/alter-sub001/internal/email"
	"github.com/yohanndulong/alter-sub001/internal/event"
	"github.com/yohanndulong/alter-sub001/internal/push"
	"github.com/yohanndulong/alter-sub001/internal/repository"
)

// InteractionService maneja likes, passes y la creacion de matches por like
// mutuo. Las notificaciones (push y correo) son best-effort: un fallo de envio
// nunca impide registrar el match.
type InteractionService struct {
	logger       *zap.Logger
	interactions repository.InteractionRepository
	users        repository.UserRepository
	pushSender   push.Sender
	emailSender  email.Sender
	events       event.Publisher
}

func NewInteractionService(
	logger *zap.Logger,
	interactions repository.InteractionRepository,
	users repository.UserRepository,
	pushSender push.Sender,
	emailSender email.Sender,
	events event.Publisher,
) *InteractionService {
	return &InteractionService{
		logger:       logger,
		interactions: interactions,
		users:        users,
		pushSender:   pushSender,
		emailSender:  emailSender,
		events:       events,
	}
}

// LikeResult indica si el like produjo un match.
type LikeResult struct {
	Matched bool          `json:"matched"`
	Match   *domain.Match `json:"match,omitempty"`
}

// Like registra un like y, si el otro usuario ya habia dado like, crea el
// match. Un like repetido es idempotente.
func (s *InteractionService) Like(ctx context.Context, userID, targetUserID string) (LikeResult, error) {
	if userID == targetUserID {
		return LikeResult{}, fmt.Errorf("cannot like yourself")
	}
	now := time.Now().UTC()
	it := domain.Interaction{
		ID:           uuid.NewString(),
		UserID:       userID,
		TargetUserID: targetUserID,
		Kind:         domain.InteractionLike,
		CreatedAt:    now,
	}
	if err := s.interactions.CreateInteraction(ctx, it); err != nil {
		return LikeResult{}, fmt.Errorf("create like: %w", err)
	}

	reciprocal, err := s.interactions.HasLike(ctx, targetUserID, userID)
	if err != nil {
		return LikeResult{}, fmt.Errorf("check reciprocal like: %w", err)
	}
	if !reciprocal {
		return LikeResult{Matched: false}, nil
	}

	u1, u2 := domain.OrderMatchPair(userID, targetUserID)
	match, err := s.interactions.CreateMatch(ctx, domain.Match{
		ID:        uuid.NewString(),
		User1ID:   u1,
		User2ID:   u2,
		CreatedAt: now,
	})
	if err != nil {
		return LikeResult{}, fmt.Errorf("create match: %w", err)
	}

	s.logger.Info("match created",
		zap.String("match_id", match.ID),
		zap.String("user1_id", match.User1ID),
		zap.String("user2_id", match.User2ID),
	)
	s.events.Publish(ctx, event.Event{
		Type:   event.TypeMatchCreated,
		UserID: userID,
		Data:   map[string]string{"match_id": match.ID, "other_user_id": targetUserID},
	})
	s.notifyMatch(ctx, match, userID)

	return LikeResult{Matched: true, Match: &match}, nil
}

// Pass registra que el usuario descarto al candidato.
func (s *InteractionService) Pass(ctx context.Context, userID, targetUserID string) error {
	if userID == targetUserID {
		return fmt.Errorf("cannot pass yourself")
	}
	it := domain.Interaction{
		ID:           uuid.NewString(),
		UserID:       userID,
		TargetUserID: targetUserID,
		Kind:         domain.InteractionPass,
		CreatedAt:    time.Now().UTC(),
	}
	if err := s.interactions.CreateInteraction(ctx, it); err != nil {
		return fmt.Errorf("create pass: %w", err)
	}
	return nil
}

// ListMatches devuelve los matches del usuario, mas recientes primero.
func (s *InteractionService) ListMatches(ctx context.Context, userID string) ([]domain.Match, error) {
	matches, err := s.interactions.ListMatchesForUser(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("list matches: %w", err)
	}
	return matches, nil
}

// notifyMatch avisa al otro usuario del match nuevo. actorID es quien dio el
// ultimo like; el destinatario es el que habia dado like antes.
func (s *InteractionService) notifyMatch(ctx context.Context, match domain.Match, actorID string) {
	recipientID := match.OtherUser(actorID)

	actor, err := s.users.GetByID(ctx, actorID)
	if err != nil {
		s.logger.Warn("match notification: load actor failed",
			zap.String("user_id", actorID), zap.Error(err))
		return
	}
	recipient, err := s.users.GetByID(ctx, recipientID)
	if err != nil {
		s.logger.Warn("match notification: load recipient failed",
			zap.String("user_id", recipientID), zap.Error(err))
		return
	}

	actorName := actor.DisplayName
	if actorName == "" {
		actorName = "Alguien"
	}

	if err := s.pushSender.Send(ctx, recipientID, push.Notification{
		Title: "¡Tienes un match!",
		Body:  fmt.Sprintf("A %s tambien le gustas. Empieza la conversacion.", actorName),
	}); err != nil {
		s.logger.Warn("match push failed",
			zap.String("user_id", recipientID), zap.Error(err))
	}
	if err := s.emailSender.SendMatchNotification(ctx, recipient.Email, actorName); err != nil {
		s.logger.Warn("match email failed",
			zap.String("user_id", recipientID), zap.Error(err))
	}
}
