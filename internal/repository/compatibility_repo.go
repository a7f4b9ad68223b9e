package repository

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/yohanndulong/alter-sub001/internal/domain"
)

// ErrCompatibilityMiss indica que no hay entrada valida para el par pedido.
// Un hash distinto o una fila expirada tambien cuentan como miss.
var ErrCompatibilityMiss = errors.New("compatibility cache miss")

// CompatibilityRepository es la cache persistida de scores de compatibilidad.
// Las filas nunca se mutan: solo insert, delete y el fetch del perdedor en la
// carrera de insercion concurrente.
type CompatibilityRepository interface {
	Lookup(ctx context.Context, userID, targetUserID, sourceHash, targetHash string) (domain.CompatibilityEntry, error)
	Store(ctx context.Context, entry domain.CompatibilityEntry) (domain.CompatibilityEntry, error)
	BatchLookup(ctx context.Context, userID string, targetUserIDs []string, sourceHash string) (map[string]domain.CompatibilityEntry, error)
	InvalidateForUser(ctx context.Context, userID string) (int64, error)
	SweepExpired(ctx context.Context) (int64, error)
}

// pgxQuerier abstrae la superficie de pgxpool.Pool que usa el repositorio,
// para poder ejercitar los caminos de conflicto y error sin una DB real.
type pgxQuerier interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

// PgCompatibilityRepository implementa CompatibilityRepository usando pgxpool.
type PgCompatibilityRepository struct {
	db pgxQuerier
}

func NewPgCompatibilityRepository(pool *pgxpool.Pool) *PgCompatibilityRepository {
	return &PgCompatibilityRepository{db: pool}
}

const compatibilityColumns = `id, user_id, target_user_id, score_global, score_love, score_friendship, score_carnal, insight, user_profile_hash, target_profile_hash, embedding_similarity, calculated_at, expires_at`

// Lookup devuelve hit solo si ambos hashes coinciden y la fila no expiro.
func (r *PgCompatibilityRepository) Lookup(ctx context.Context, userID, targetUserID, sourceHash, targetHash string) (domain.CompatibilityEntry, error) {
	const query = `
		SELECT ` + compatibilityColumns + `
		FROM compatibility_cache
		WHERE user_id = $1 AND target_user_id = $2
		  AND user_profile_hash = $3 AND target_profile_hash = $4
		  AND (expires_at IS NULL OR expires_at > now())
	`
	row := r.db.QueryRow(ctx, query, userID, targetUserID, sourceHash, targetHash)
	entry, err := scanCompatibility(row)
	if errors.Is(err, pgx.ErrNoRows) {
		return domain.CompatibilityEntry{}, ErrCompatibilityMiss
	}
	return entry, err
}

// Store inserta la entrada. Si otro writer gano la carrera por el par
// (user, target), recupera y devuelve la fila existente en vez de fallar.
func (r *PgCompatibilityRepository) Store(ctx context.Context, entry domain.CompatibilityEntry) (domain.CompatibilityEntry, error) {
	const query = `
		INSERT INTO compatibility_cache (id, user_id, target_user_id, score_global, score_love, score_friendship, score_carnal, insight, user_profile_hash, target_profile_hash, embedding_similarity, calculated_at, expires_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13)
	`
	_, err := r.db.Exec(ctx, query,
		entry.ID,
		entry.UserID,
		entry.TargetUserID,
		entry.Global,
		entry.Love,
		entry.Friendship,
		entry.Carnal,
		entry.Insight,
		entry.UserProfileHash,
		entry.TargetProfileHash,
		entry.EmbeddingSimilarity,
		entry.CalculatedAt,
		entry.ExpiresAt,
	)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == "23505" {
			return r.getByPair(ctx, entry.UserID, entry.TargetUserID)
		}
		return domain.CompatibilityEntry{}, err
	}
	return entry, nil
}

// BatchLookup trae en un solo round trip todas las entradas no expiradas de un
// source hacia varios targets. El filtrado por hash del target lo hace el
// caller contra su mapa de fingerprints precomputado.
func (r *PgCompatibilityRepository) BatchLookup(ctx context.Context, userID string, targetUserIDs []string, sourceHash string) (map[string]domain.CompatibilityEntry, error) {
	if len(targetUserIDs) == 0 {
		return map[string]domain.CompatibilityEntry{}, nil
	}
	const query = `
		SELECT ` + compatibilityColumns + `
		FROM compatibility_cache
		WHERE user_id = $1 AND target_user_id = ANY($2)
		  AND user_profile_hash = $3
		  AND (expires_at IS NULL OR expires_at > now())
	`
	rows, err := r.db.Query(ctx, query, userID, targetUserIDs, sourceHash)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := make(map[string]domain.CompatibilityEntry, len(targetUserIDs))
	for rows.Next() {
		entry, err := scanCompatibility(rows)
		if err != nil {
			return nil, err
		}
		out[entry.TargetUserID] = entry
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return out, nil
}

// InvalidateForUser borra toda entrada donde el usuario aparezca como source o
// target, en ambas direcciones.
func (r *PgCompatibilityRepository) InvalidateForUser(ctx context.Context, userID string) (int64, error) {
	const query = `DELETE FROM compatibility_cache WHERE user_id = $1 OR target_user_id = $1`
	tag, err := r.db.Exec(ctx, query, userID)
	if err != nil {
		return 0, err
	}
	return tag.RowsAffected(), nil
}

// SweepExpired borra las filas vencidas. Lo dispara un trigger externo
// (cron o endpoint de admin), nunca un scheduler propio.
func (r *PgCompatibilityRepository) SweepExpired(ctx context.Context) (int64, error) {
	const query = `DELETE FROM compatibility_cache WHERE expires_at IS NOT NULL AND expires_at <= now()`
	tag, err := r.db.Exec(ctx, query)
	if err != nil {
		return 0, err
	}
	return tag.RowsAffected(), nil
}

func (r *PgCompatibilityRepository) getByPair(ctx context.Context, userID, targetUserID string) (domain.CompatibilityEntry, error) {
	const query = `
		SELECT ` + compatibilityColumns + `
		FROM compatibility_cache
		WHERE user_id = $1 AND target_user_id = $2
	`
	return scanCompatibility(r.db.QueryRow(ctx, query, userID, targetUserID))
}

func scanCompatibility(row pgx.Row) (domain.CompatibilityEntry, error) {
	var e domain.CompatibilityEntry
	err := row.Scan(
		&e.ID,
		&e.UserID,
		&e.TargetUserID,
		&e.Global,
		&e.Love,
		&e.Friendship,
		&e.Carnal,
		&e.Insight,
		&e.UserProfileHash,
		&e.TargetProfileHash,
		&e.EmbeddingSimilarity,
		&e.CalculatedAt,
		&e.ExpiresAt,
	)
	if err != nil {
		return domain.CompatibilityEntry{}, err
	}
	return e, nil
}
