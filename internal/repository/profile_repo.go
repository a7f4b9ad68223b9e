package repository

import (
	"context"
	"encoding/json"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	pgvector "github.com/pgvector/pgvector-go"

	"github.com/yohanndulong/alter-sub001/internal/domain"
)

// CandidateFilter son los filtros duros del discovery. Las edades se traducen
// a cotas de fecha de nacimiento antes de llegar aqui.
type CandidateFilter struct {
	ExcludeUserIDs []string
	Genders        []string
	BornAfter      time.Time
	BornBefore     time.Time
	Limit          int
}

// Candidate es un perfil candidato con su similitud de embedding cuando la
// consulta fue vectorial.
type Candidate struct {
	Profile    domain.Profile
	Similarity *float64
}

// ProfileRepository define el contrato de persistencia para perfiles.
type ProfileRepository interface {
	Create(ctx context.Context, profile domain.Profile) error
	GetByUserID(ctx context.Context, userID string) (domain.Profile, error)
	Update(ctx context.Context, profile domain.Profile) error
	UpdateEmbedding(ctx context.Context, userID string, embedding pgvector.Vector) error
	UpdateAIAttributes(ctx context.Context, userID string, attrs map[string]string) error
	SetOnboardingDone(ctx context.Context, userID string) error
	FindCandidatesByEmbedding(ctx context.Context, embedding pgvector.Vector, filter CandidateFilter) ([]Candidate, error)
	FindCandidates(ctx context.Context, filter CandidateFilter) ([]Candidate, error)
}

// PgProfileRepository implementa ProfileRepository usando pgxpool.
type PgProfileRepository struct {
	pool *pgxpool.Pool
}

func NewPgProfileRepository(pool *pgxpool.Pool) *PgProfileRepository {
	return &PgProfileRepository{pool: pool}
}

const profileColumns = `id, user_id, bio, interests, gender, sexual_orientation, birth_date, ai_attributes, photos, latitude, longitude, pref_genders, pref_age_min, pref_age_max, pref_max_distance_km, onboarding_done, embedding, last_active_at, created_at, updated_at`

func (r *PgProfileRepository) Create(ctx context.Context, profile domain.Profile) error {
	const query = `
		INSERT INTO profiles (id, user_id, bio, interests, gender, sexual_orientation, birth_date, ai_attributes, photos, latitude, longitude, pref_genders, pref_age_min, pref_age_max, pref_max_distance_km, onboarding_done, embedding, last_active_at, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16, $17, $18, $19, $20)
	`
	attrs, err := marshalAttributes(profile.AIAttributes)
	if err != nil {
		return err
	}
	_, err = r.pool.Exec(ctx, query,
		profile.ID,
		profile.UserID,
		profile.Bio,
		profile.Interests,
		profile.Gender,
		profile.SexualOrientation,
		profile.BirthDate,
		attrs,
		profile.Photos,
		profile.Latitude,
		profile.Longitude,
		profile.PrefGenders,
		profile.PrefAgeMin,
		profile.PrefAgeMax,
		profile.PrefMaxDistanceKm,
		profile.OnboardingDone,
		profile.Embedding,
		profile.LastActiveAt,
		profile.CreatedAt,
		profile.UpdatedAt,
	)
	return err
}

func (r *PgProfileRepository) GetByUserID(ctx context.Context, userID string) (domain.Profile, error) {
	const query = `SELECT ` + profileColumns + ` FROM profiles WHERE user_id = $1`
	row := r.pool.QueryRow(ctx, query, userID)
	return scanProfile(row)
}

func (r *PgProfileRepository) Update(ctx context.Context, profile domain.Profile) error {
	const query = `
		UPDATE profiles
		SET bio = $2, interests = $3, gender = $4, sexual_orientation = $5, birth_date = $6,
		    photos = $7, latitude = $8, longitude = $9, pref_genders = $10, pref_age_min = $11,
		    pref_age_max = $12, pref_max_distance_km = $13, updated_at = $14
		WHERE user_id = $1
	`
	_, err := r.pool.Exec(ctx, query,
		profile.UserID,
		profile.Bio,
		profile.Interests,
		profile.Gender,
		profile.SexualOrientation,
		profile.BirthDate,
		profile.Photos,
		profile.Latitude,
		profile.Longitude,
		profile.PrefGenders,
		profile.PrefAgeMin,
		profile.PrefAgeMax,
		profile.PrefMaxDistanceKm,
		profile.UpdatedAt,
	)
	return err
}

func (r *PgProfileRepository) UpdateEmbedding(ctx context.Context, userID string, embedding pgvector.Vector) error {
	const query = `UPDATE profiles SET embedding = $2, updated_at = now() WHERE user_id = $1`
	_, err := r.pool.Exec(ctx, query, userID, embedding)
	return err
}

func (r *PgProfileRepository) UpdateAIAttributes(ctx context.Context, userID string, attrs map[string]string) error {
	const query = `UPDATE profiles SET ai_attributes = $2, updated_at = now() WHERE user_id = $1`
	encoded, err := marshalAttributes(attrs)
	if err != nil {
		return err
	}
	_, err = r.pool.Exec(ctx, query, userID, encoded)
	return err
}

func (r *PgProfileRepository) SetOnboardingDone(ctx context.Context, userID string) error {
	const query = `UPDATE profiles SET onboarding_done = TRUE, updated_at = now() WHERE user_id = $1`
	_, err := r.pool.Exec(ctx, query, userID)
	return err
}

// FindCandidatesByEmbedding aplica los filtros duros y ordena por distancia
// coseno ascendente (mas similar primero), con user_id como desempate.
func (r *PgProfileRepository) FindCandidatesByEmbedding(ctx context.Context, embedding pgvector.Vector, filter CandidateFilter) ([]Candidate, error) {
	const query = `
		SELECT ` + profileColumns + `, 1 - (embedding <=> $1) AS similarity
		FROM profiles
		WHERE onboarding_done = TRUE
		  AND embedding IS NOT NULL
		  AND gender = ANY($2)
		  AND birth_date > $3
		  AND birth_date <= $4
		  AND user_id != ALL($5)
		ORDER BY embedding <=> $1 ASC, user_id ASC
		LIMIT $6
	`
	rows, err := r.pool.Query(ctx, query,
		embedding,
		filter.Genders,
		filter.BornAfter,
		filter.BornBefore,
		filter.ExcludeUserIDs,
		filter.Limit,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	return scanCandidates(rows, true)
}

// FindCandidates es la rama sin embedding: mismos filtros duros, orden estable
// por fecha de creacion y user_id.
func (r *PgProfileRepository) FindCandidates(ctx context.Context, filter CandidateFilter) ([]Candidate, error) {
	const query = `
		SELECT ` + profileColumns + `
		FROM profiles
		WHERE onboarding_done = TRUE
		  AND gender = ANY($1)
		  AND birth_date > $2
		  AND birth_date <= $3
		  AND user_id != ALL($4)
		ORDER BY created_at ASC, user_id ASC
		LIMIT $5
	`
	rows, err := r.pool.Query(ctx, query,
		filter.Genders,
		filter.BornAfter,
		filter.BornBefore,
		filter.ExcludeUserIDs,
		filter.Limit,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	return scanCandidates(rows, false)
}

func scanCandidates(rows pgx.Rows, withSimilarity bool) ([]Candidate, error) {
	var out []Candidate
	for rows.Next() {
		var c Candidate
		dest := profileScanDest(&c.Profile)
		if withSimilarity {
			dest = append(dest, &c.Similarity)
		}
		var attrs []byte
		dest[7] = &attrs
		if err := rows.Scan(dest...); err != nil {
			return nil, err
		}
		if err := unmarshalAttributes(attrs, &c.Profile); err != nil {
			return nil, err
		}
		out = append(out, c)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return out, nil
}

func scanProfile(row pgx.Row) (domain.Profile, error) {
	var p domain.Profile
	dest := profileScanDest(&p)
	var attrs []byte
	dest[7] = &attrs
	if err := row.Scan(dest...); err != nil {
		return domain.Profile{}, err
	}
	if err := unmarshalAttributes(attrs, &p); err != nil {
		return domain.Profile{}, err
	}
	return p, nil
}

// profileScanDest devuelve los destinos de Scan en el orden de profileColumns.
// La posicion 7 (ai_attributes jsonb) la reemplaza el caller por un []byte.
func profileScanDest(p *domain.Profile) []interface{} {
	return []interface{}{
		&p.ID,
		&p.UserID,
		&p.Bio,
		&p.Interests,
		&p.Gender,
		&p.SexualOrientation,
		&p.BirthDate,
		nil,
		&p.Photos,
		&p.Latitude,
		&p.Longitude,
		&p.PrefGenders,
		&p.PrefAgeMin,
		&p.PrefAgeMax,
		&p.PrefMaxDistanceKm,
		&p.OnboardingDone,
		&p.Embedding,
		&p.LastActiveAt,
		&p.CreatedAt,
		&p.UpdatedAt,
	}
}

func marshalAttributes(attrs map[string]string) ([]byte, error) {
	if len(attrs) == 0 {
		return []byte("{}"), nil
	}
	return json.Marshal(attrs)
}

func unmarshalAttributes(raw []byte, p *domain.Profile) error {
	if len(raw) == 0 {
		return nil
	}
	return json.Unmarshal(raw, &p.AIAttributes)
}
