package domain

import (
	"time"

	pgvector "github.com/pgvector/pgvector-go"
)

// Valores canonicos de genero tras normalizacion (ver service.NormalizeGender).
const (
	GenderMale      = "male"
	GenderFemale    = "female"
	GenderNonBinary = "non_binary"
)

// Profile es el perfil de citas de un usuario. El embedding se genera a partir
// de la conversacion de onboarding y habilita el ranking vectorial del discovery.
type Profile struct {
	ID                string            `json:"id"`
	UserID            string            `json:"user_id"`
	Bio               string            `json:"bio,omitempty"`
	Interests         []string          `json:"interests,omitempty"`
	Gender            string            `json:"gender,omitempty"`
	SexualOrientation string            `json:"sexual_orientation,omitempty"`
	BirthDate         *time.Time        `json:"birth_date,omitempty"`
	AIAttributes      map[string]string `json:"ai_attributes,omitempty"`
	Photos            []string          `json:"photos,omitempty"`
	Latitude          *float64          `json:"latitude,omitempty"`
	Longitude         *float64          `json:"longitude,omitempty"`
	PrefGenders       []string          `json:"pref_genders,omitempty"`
	PrefAgeMin        int               `json:"pref_age_min"`
	PrefAgeMax        int               `json:"pref_age_max"`
	PrefMaxDistanceKm *float64          `json:"pref_max_distance_km,omitempty"`
	OnboardingDone    bool              `json:"onboarding_done"`
	Embedding         *pgvector.Vector  `json:"-"`
	LastActiveAt      *time.Time        `json:"last_active_at,omitempty"`
	CreatedAt         time.Time         `json:"created_at"`
	UpdatedAt         time.Time         `json:"updated_at"`
}

// Age calcula la edad en años cumplidos a la fecha dada.
func (p Profile) Age(now time.Time) int {
	if p.BirthDate == nil {
		return 0
	}
	b := p.BirthDate.UTC()
	years := now.Year() - b.Year()
	anniversary := time.Date(now.Year(), b.Month(), b.Day(), 0, 0, 0, 0, time.UTC)
	if now.Before(anniversary) {
		years--
	}
	if years < 0 {
		return 0
	}
	return years
}

// HasLocation indica si el perfil tiene coordenadas GPS.
func (p Profile) HasLocation() bool {
	return p.Latitude != nil && p.Longitude != nil
}

// HasEmbedding indica si el perfil ya tiene vector de similitud.
func (p Profile) HasEmbedding() bool {
	return p.Embedding != nil && len(p.Embedding.Slice()) > 0
}
