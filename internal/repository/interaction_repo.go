package repository

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/yohanndulong/alter-sub001/internal/domain"
)

// InteractionRepository persiste likes, passes y matches.
type InteractionRepository interface {
	CreateInteraction(ctx context.Context, it domain.Interaction) error
	ListTargetIDsByKind(ctx context.Context, userID, kind string) ([]string, error)
	HasLike(ctx context.Context, userID, targetUserID string) (bool, error)
	LikedTargetSet(ctx context.Context, userID string, targetUserIDs []string) (map[string]bool, error)
	CreateMatch(ctx context.Context, match domain.Match) (domain.Match, error)
	ListMatchesForUser(ctx context.Context, userID string) ([]domain.Match, error)
	ListMatchedUserIDs(ctx context.Context, userID string) ([]string, error)
	GetMatchByID(ctx context.Context, matchID string) (domain.Match, error)
}

// PgInteractionRepository implementa InteractionRepository usando pgxpool.
type PgInteractionRepository struct {
	pool *pgxpool.Pool
}

func NewPgInteractionRepository(pool *pgxpool.Pool) *PgInteractionRepository {
	return &PgInteractionRepository{pool: pool}
}

// CreateInteraction registra la ultima decision del usuario sobre el target.
// Un like posterior a un pass (o viceversa) reemplaza la fila: siempre vale
// la decision mas reciente.
func (r *PgInteractionRepository) CreateInteraction(ctx context.Context, it domain.Interaction) error {
	const query = `
		INSERT INTO interactions (id, user_id, target_user_id, kind, created_at)
		VALUES ($1, $2, $3, $4, $5)
		ON CONFLICT (user_id, target_user_id)
		DO UPDATE SET kind = EXCLUDED.kind, created_at = EXCLUDED.created_at
	`
	_, err := r.pool.Exec(ctx, query,
		it.ID,
		it.UserID,
		it.TargetUserID,
		it.Kind,
		it.CreatedAt,
	)
	return err
}

func (r *PgInteractionRepository) ListTargetIDsByKind(ctx context.Context, userID, kind string) ([]string, error) {
	const query = `SELECT target_user_id FROM interactions WHERE user_id = $1 AND kind = $2`
	rows, err := r.pool.Query(ctx, query, userID, kind)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var ids []string
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, err
		}
		ids = append(ids, id)
	}
	return ids, rows.Err()
}

func (r *PgInteractionRepository) HasLike(ctx context.Context, userID, targetUserID string) (bool, error) {
	const query = `
		SELECT EXISTS(
			SELECT 1 FROM interactions
			WHERE user_id = $1 AND target_user_id = $2 AND kind = $3
		)
	`
	var exists bool
	err := r.pool.QueryRow(ctx, query, userID, targetUserID, domain.InteractionLike).Scan(&exists)
	return exists, err
}

// LikedTargetSet devuelve en un solo round trip cuales de los targets dados ya
// recibieron like del usuario.
func (r *PgInteractionRepository) LikedTargetSet(ctx context.Context, userID string, targetUserIDs []string) (map[string]bool, error) {
	out := make(map[string]bool, len(targetUserIDs))
	if len(targetUserIDs) == 0 {
		return out, nil
	}
	const query = `
		SELECT target_user_id FROM interactions
		WHERE user_id = $1 AND kind = $2 AND target_user_id = ANY($3)
	`
	rows, err := r.pool.Query(ctx, query, userID, domain.InteractionLike, targetUserIDs)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, err
		}
		out[id] = true
	}
	return out, rows.Err()
}

// CreateMatch inserta el par ordenado; si ya existe devuelve la fila actual.
func (r *PgInteractionRepository) CreateMatch(ctx context.Context, match domain.Match) (domain.Match, error) {
	const query = `
		INSERT INTO matches (id, user1_id, user2_id, created_at)
		VALUES ($1, $2, $3, $4)
	`
	_, err := r.pool.Exec(ctx, query,
		match.ID,
		match.User1ID,
		match.User2ID,
		match.CreatedAt,
	)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == "23505" {
			return r.getMatchByPair(ctx, match.User1ID, match.User2ID)
		}
		return domain.Match{}, err
	}
	return match, nil
}

func (r *PgInteractionRepository) ListMatchesForUser(ctx context.Context, userID string) ([]domain.Match, error) {
	const query = `
		SELECT id, user1_id, user2_id, created_at
		FROM matches
		WHERE user1_id = $1 OR user2_id = $1
		ORDER BY created_at DESC
	`
	rows, err := r.pool.Query(ctx, query, userID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var matches []domain.Match
	for rows.Next() {
		var m domain.Match
		if err := rows.Scan(&m.ID, &m.User1ID, &m.User2ID, &m.CreatedAt); err != nil {
			return nil, err
		}
		matches = append(matches, m)
	}
	return matches, rows.Err()
}

func (r *PgInteractionRepository) ListMatchedUserIDs(ctx context.Context, userID string) ([]string, error) {
	const query = `
		SELECT CASE WHEN user1_id = $1 THEN user2_id ELSE user1_id END
		FROM matches
		WHERE user1_id = $1 OR user2_id = $1
	`
	rows, err := r.pool.Query(ctx, query, userID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var ids []string
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, err
		}
		ids = append(ids, id)
	}
	return ids, rows.Err()
}

func (r *PgInteractionRepository) GetMatchByID(ctx context.Context, matchID string) (domain.Match, error) {
	const query = `SELECT id, user1_id, user2_id, created_at FROM matches WHERE id = $1`
	var m domain.Match
	err := r.pool.QueryRow(ctx, query, matchID).Scan(&m.ID, &m.User1ID, &m.User2ID, &m.CreatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return domain.Match{}, err
	}
	return m, err
}

func (r *PgInteractionRepository) getMatchByPair(ctx context.Context, user1ID, user2ID string) (domain.Match, error) {
	const query = `SELECT id, user1_id, user2_id, created_at FROM matches WHERE user1_id = $1 AND user2_id = $2`
	var m domain.Match
	err := r.pool.QueryRow(ctx, query, user1ID, user2ID).Scan(&m.ID, &m.User1ID, &m.User2ID, &m.CreatedAt)
	return m, err
}
