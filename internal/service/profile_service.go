package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	pgvector "github.com/pgvector/pgvector-go"
	"go.uber.org/zap"

	"github.com/yohanndulong/alter-sub001/internal/domain"
	"github.com/yohanndulong/alter-sub001/internal/event"
	"github.com/yohanndulong/alter-sub001/internal/llm"
	"github.com/yohanndulong/alter-sub001/internal/repository"
)

var ErrProfileNotFound = errors.New("profile not found")

// ProfileService coordina el ciclo de vida del perfil de citas. La regla
// critica: toda actualizacion que cambie el fingerprint invalida la cache de
// compatibilidad ANTES de devolver exito, para que un cliente que vio el
// update nunca observe un score viejo.
type ProfileService struct {
	logger   *zap.Logger
	profiles repository.ProfileRepository
	users    repository.UserRepository
	compat   repository.CompatibilityRepository
	embedder llm.Embedder
	events   event.Publisher
}

func NewProfileService(
	logger *zap.Logger,
	profiles repository.ProfileRepository,
	users repository.UserRepository,
	compat repository.CompatibilityRepository,
	embedder llm.Embedder,
	events event.Publisher,
) *ProfileService {
	if events == nil {
		events = event.NopPublisher{}
	}
	return &ProfileService{
		logger:   logger,
		profiles: profiles,
		users:    users,
		compat:   compat,
		embedder: embedder,
		events:   events,
	}
}

// UpdateProfileInput trae solo los campos a modificar; nil deja el valor actual.
type UpdateProfileInput struct {
	Bio               *string
	Interests         *[]string
	Gender            *string
	SexualOrientation *string
	BirthDate         *time.Time
	Photos            *[]string
	Latitude          *float64
	Longitude         *float64
	PrefGenders       *[]string
	PrefAgeMin        *int
	PrefAgeMax        *int
	PrefMaxDistanceKm *float64
}

// CreateProfile crea el perfil vacio de un usuario recien registrado.
func (s *ProfileService) CreateProfile(ctx context.Context, userID string) (domain.Profile, error) {
	now := time.Now().UTC()
	profile := domain.Profile{
		ID:         uuid.NewString(),
		UserID:     userID,
		PrefAgeMin: defaultPrefAgeMin,
		PrefAgeMax: defaultPrefAgeMax,
		CreatedAt:  now,
		UpdatedAt:  now,
	}
	if err := s.profiles.Create(ctx, profile); err != nil {
		return domain.Profile{}, fmt.Errorf("create profile: %w", err)
	}
	return profile, nil
}

// GetProfile devuelve el perfil de un usuario.
func (s *ProfileService) GetProfile(ctx context.Context, userID string) (domain.Profile, error) {
	profile, err := s.profiles.GetByUserID(ctx, userID)
	if errors.Is(err, pgx.ErrNoRows) {
		return domain.Profile{}, ErrProfileNotFound
	}
	return profile, err
}

// UpdateProfile aplica los cambios y, si el fingerprint cambio, invalida la
// cache de compatibilidad de forma sincrona antes de devolver.
func (s *ProfileService) UpdateProfile(ctx context.Context, userID string, input UpdateProfileInput) (domain.Profile, error) {
	profile, err := s.profiles.GetByUserID(ctx, userID)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return domain.Profile{}, ErrProfileNotFound
		}
		return domain.Profile{}, fmt.Errorf("get profile: %w", err)
	}

	oldFingerprint := ProfileFingerprint(profile)
	applyProfileUpdate(&profile, input)
	profile.UpdatedAt = time.Now().UTC()

	if err := s.profiles.Update(ctx, profile); err != nil {
		return domain.Profile{}, fmt.Errorf("update profile: %w", err)
	}

	newFingerprint := ProfileFingerprint(profile)
	if newFingerprint != oldFingerprint {
		if err := s.invalidateCompatibility(ctx, userID); err != nil {
			return domain.Profile{}, err
		}
		s.events.Publish(ctx, event.Event{Type: event.TypeProfileChanged, UserID: userID})
	}

	return profile, nil
}

// SetAIAttributes persiste los atributos inferidos por el LLM de onboarding y
// propaga la invalidacion como cualquier otro cambio relevante.
func (s *ProfileService) SetAIAttributes(ctx context.Context, userID string, attrs map[string]string) error {
	profile, err := s.profiles.GetByUserID(ctx, userID)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return ErrProfileNotFound
		}
		return fmt.Errorf("get profile: %w", err)
	}

	oldFingerprint := ProfileFingerprint(profile)
	if err := s.profiles.UpdateAIAttributes(ctx, userID, attrs); err != nil {
		return fmt.Errorf("update ai attributes: %w", err)
	}
	profile.AIAttributes = attrs

	if ProfileFingerprint(profile) != oldFingerprint {
		if err := s.invalidateCompatibility(ctx, userID); err != nil {
			return err
		}
		s.events.Publish(ctx, event.Event{Type: event.TypeProfileChanged, UserID: userID})
	}
	return nil
}

// CompleteOnboarding marca el onboarding como terminado y dispara la
// generacion de embedding via evento.
func (s *ProfileService) CompleteOnboarding(ctx context.Context, userID string) error {
	if err := s.profiles.SetOnboardingDone(ctx, userID); err != nil {
		return fmt.Errorf("set onboarding done: %w", err)
	}
	s.events.Publish(ctx, event.Event{Type: event.TypeProfileChanged, UserID: userID})
	return nil
}

// GenerateEmbedding recalcula el vector del perfil a partir de su proyeccion
// de texto. Pensado como suscriptor del evento ProfileChanged.
func (s *ProfileService) GenerateEmbedding(ctx context.Context, userID string) error {
	if s.embedder == nil {
		return errors.New("embedder not configured")
	}
	profile, err := s.profiles.GetByUserID(ctx, userID)
	if err != nil {
		return fmt.Errorf("get profile: %w", err)
	}

	text := profileEmbeddingText(profile)
	if strings.TrimSpace(text) == "" {
		return nil
	}

	vec, err := s.embedder.Embed(ctx, text)
	if err != nil {
		// Fallo transitorio: se loguea y el perfil sigue sin embedding hasta
		// el proximo cambio.
		if s.logger != nil {
			s.logger.Warn("embedding generation failed", zap.Error(err), zap.String("user_id", userID))
		}
		return nil
	}

	if err := s.profiles.UpdateEmbedding(ctx, userID, pgvector.NewVector(vec)); err != nil {
		return fmt.Errorf("update embedding: %w", err)
	}

	s.events.Publish(ctx, event.Event{Type: event.TypeEmbeddingGenerated, UserID: userID})
	return nil
}

// DeleteAccount borra la cuenta completa. La cache de compatibilidad se limpia
// primero para no dejar scores colgando hacia un usuario inexistente.
func (s *ProfileService) DeleteAccount(ctx context.Context, userID string) error {
	if err := s.invalidateCompatibility(ctx, userID); err != nil {
		return err
	}
	if err := s.users.Delete(ctx, userID); err != nil {
		return fmt.Errorf("delete user: %w", err)
	}
	return nil
}

func (s *ProfileService) invalidateCompatibility(ctx context.Context, userID string) error {
	count, err := s.compat.InvalidateForUser(ctx, userID)
	if err != nil {
		return fmt.Errorf("invalidate compatibility: %w", err)
	}
	if s.logger != nil && count > 0 {
		s.logger.Info("compatibility cache invalidated", zap.String("user_id", userID), zap.Int64("entries", count))
	}
	return nil
}

func applyProfileUpdate(p *domain.Profile, input UpdateProfileInput) {
	if input.Bio != nil {
		p.Bio = *input.Bio
	}
	if input.Interests != nil {
		p.Interests = *input.Interests
	}
	if input.Gender != nil {
		p.Gender = NormalizeGender(*input.Gender)
	}
	if input.SexualOrientation != nil {
		p.SexualOrientation = *input.SexualOrientation
	}
	if input.BirthDate != nil {
		p.BirthDate = input.BirthDate
	}
	if input.Photos != nil {
		p.Photos = *input.Photos
	}
	if input.Latitude != nil {
		p.Latitude = input.Latitude
	}
	if input.Longitude != nil {
		p.Longitude = input.Longitude
	}
	if input.PrefGenders != nil {
		p.PrefGenders = NormalizeGenders(*input.PrefGenders)
	}
	if input.PrefAgeMin != nil {
		p.PrefAgeMin = *input.PrefAgeMin
	}
	if input.PrefAgeMax != nil {
		p.PrefAgeMax = *input.PrefAgeMax
	}
	if input.PrefMaxDistanceKm != nil {
		p.PrefMaxDistanceKm = input.PrefMaxDistanceKm
	}
}

// profileEmbeddingText arma la proyeccion de texto que alimenta el embedding.
func profileEmbeddingText(p domain.Profile) string {
	var sb strings.Builder
	if strings.TrimSpace(p.Bio) != "" {
		sb.WriteString(strings.TrimSpace(p.Bio))
		sb.WriteString("\n")
	}
	if len(p.Interests) > 0 {
		sb.WriteString("Intereses: ")
		sb.WriteString(strings.Join(p.Interests, ", "))
		sb.WriteString("\n")
	}
	for _, k := range sortedKeys(p.AIAttributes) {
		sb.WriteString(k)
		sb.WriteString(": ")
		sb.WriteString(p.AIAttributes[k])
		sb.WriteString("\n")
	}
	return sb.String()
}
