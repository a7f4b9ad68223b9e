package domain

import "time"

// CompatibilityScores es la salida del scorer para un par ordenado de perfiles.
// Cada score es un entero en [0,100].
type CompatibilityScores struct {
	Global     int    `json:"global"`
	Love       int    `json:"love"`
	Friendship int    `json:"friendship"`
	Carnal     int    `json:"carnal"`
	Insight    string `json:"insight"`
}

// CompatibilityEntry es una fila de la cache de compatibilidad. Las entradas
// son direccionales: (A,B) y (B,A) son filas distintas y nunca se copian.
type CompatibilityEntry struct {
	ID                  string     `json:"id"`
	UserID              string     `json:"user_id"`
	TargetUserID        string     `json:"target_user_id"`
	Global              int        `json:"global"`
	Love                int        `json:"love"`
	Friendship          int        `json:"friendship"`
	Carnal              int        `json:"carnal"`
	Insight             string     `json:"insight"`
	UserProfileHash     string     `json:"user_profile_hash"`
	TargetProfileHash   string     `json:"target_profile_hash"`
	EmbeddingSimilarity *float64   `json:"embedding_similarity,omitempty"`
	CalculatedAt        time.Time  `json:"calculated_at"`
	ExpiresAt           *time.Time `json:"expires_at,omitempty"`
}

// Matches decide si la fila sigue siendo valida para los fingerprints dados.
// Un hash distinto o una expiracion vencida cuentan como miss logico aunque
// la fila exista fisicamente.
func (e CompatibilityEntry) Matches(sourceHash, targetHash string, now time.Time) bool {
	if e.UserProfileHash != sourceHash || e.TargetProfileHash != targetHash {
		return false
	}
	if e.ExpiresAt != nil && !now.Before(*e.ExpiresAt) {
		return false
	}
	return true
}

// Scores proyecta la fila a la forma que consume el pipeline de discovery.
func (e CompatibilityEntry) Scores() CompatibilityScores {
	return CompatibilityScores{
		Global:     e.Global,
		Love:       e.Love,
		Friendship: e.Friendship,
		Carnal:     e.Carnal,
		Insight:    e.Insight,
	}
}
