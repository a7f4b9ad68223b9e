package repository

import (
	"context"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/yohanndulong/alter-sub001/internal/domain"
)

// MessageRepository persiste mensajes de chat de match y de onboarding.
type MessageRepository interface {
	Create(ctx context.Context, message domain.Message) error
	ListByConversation(ctx context.Context, conversationID string, limit int) ([]domain.Message, error)
}

type PgMessageRepository struct {
	pool *pgxpool.Pool
}

func NewPgMessageRepository(pool *pgxpool.Pool) *PgMessageRepository {
	return &PgMessageRepository{pool: pool}
}

func (r *PgMessageRepository) Create(ctx context.Context, message domain.Message) error {
	const query = `
		INSERT INTO messages (id, conversation_id, sender_id, role, content, created_at)
		VALUES ($1, $2, $3, $4, $5, $6)
	`
	_, err := r.pool.Exec(ctx, query,
		message.ID,
		message.ConversationID,
		message.SenderID,
		message.Role,
		message.Content,
		message.CreatedAt,
	)
	return err
}

// ListByConversation devuelve los ultimos mensajes en orden cronologico.
func (r *PgMessageRepository) ListByConversation(ctx context.Context, conversationID string, limit int) ([]domain.Message, error) {
	if limit <= 0 {
		limit = 50
	}
	const query = `
		SELECT id, conversation_id, sender_id, role, content, created_at
		FROM (
			SELECT id, conversation_id, sender_id, role, content, created_at
			FROM messages
			WHERE conversation_id = $1
			ORDER BY created_at DESC
			LIMIT $2
		) recent
		ORDER BY created_at ASC
	`
	rows, err := r.pool.Query(ctx, query, conversationID, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var messages []domain.Message
	for rows.Next() {
		var msg domain.Message
		if err := rows.Scan(
			&msg.ID,
			&msg.ConversationID,
			&msg.SenderID,
			&msg.Role,
			&msg.Content,
			&msg.CreatedAt,
		); err != nil {
			return nil, err
		}
		messages = append(messages, msg)
	}
	return messages, rows.Err()
}
