package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/yohanndulong/alter-sub001/internal/domain"
	"github.com/yohanndulong/alter-sub001/internal/repository"
)

// Valores por defecto de los filtros duros del discovery.
const (
	defaultDiscoveryLimit = 20
	defaultPrefAgeMin     = 18
	defaultPrefAgeMax     = 99
)

// DiscoveryService es el pipeline de descubrimiento: filtrado SQL de
// candidatos, ranking vectorial, cache de compatibilidad con fan-out paralelo
// hacia el scorer para los misses, post-filtro por distancia y armado de la
// respuesta.
type DiscoveryService struct {
	profiles     repository.ProfileRepository
	interactions repository.InteractionRepository
	compat       repository.CompatibilityRepository
	scorer       *CompatibilityScorer
	photoSigner  *PhotoSigner
	logger       *zap.Logger
	limit        int
	cacheTTL     time.Duration
}

func NewDiscoveryService(
	profiles repository.ProfileRepository,
	interactions repository.InteractionRepository,
	compat repository.CompatibilityRepository,
	scorer *CompatibilityScorer,
	photoSigner *PhotoSigner,
	logger *zap.Logger,
	limit int,
	cacheTTL time.Duration,
) *DiscoveryService {
	if limit <= 0 {
		limit = defaultDiscoveryLimit
	}
	if cacheTTL <= 0 {
		cacheTTL = 30 * 24 * time.Hour
	}
	return &DiscoveryService{
		profiles:     profiles,
		interactions: interactions,
		compat:       compat,
		scorer:       scorer,
		photoSigner:  photoSigner,
		logger:       logger,
		limit:        limit,
		cacheTTL:     cacheTTL,
	}
}

// Discover produce la lista de candidatos para el usuario, con scores de
// compatibilidad cuando su embedding ya existe.
func (s *DiscoveryService) Discover(ctx context.Context, userID string) (domain.DiscoveryResult, error) {
	requester, err := s.profiles.GetByUserID(ctx, userID)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return domain.DiscoveryResult{}, ErrProfileNotFound
		}
		return domain.DiscoveryResult{}, fmt.Errorf("get requester profile: %w", err)
	}

	filter, err := s.buildFilter(ctx, requester)
	if err != nil {
		return domain.DiscoveryResult{}, err
	}

	var (
		candidates []repository.Candidate
		withScores bool
	)
	if requester.HasEmbedding() {
		withScores = true
		candidates, err = s.profiles.FindCandidatesByEmbedding(ctx, *requester.Embedding, filter)
	} else {
		candidates, err = s.profiles.FindCandidates(ctx, filter)
	}
	if err != nil {
		return domain.DiscoveryResult{}, fmt.Errorf("find candidates: %w", err)
	}

	var scores map[string]domain.CompatibilityScores
	if withScores {
		scores = s.resolveScores(ctx, requester, candidates)
	}

	out, err := s.buildCandidates(ctx, requester, candidates, scores)
	if err != nil {
		return domain.DiscoveryResult{}, err
	}
	return domain.DiscoveryResult{
		Candidates:         out,
		CompatibilityReady: withScores,
	}, nil
}

// buildFilter arma los filtros duros a partir de las preferencias guardadas y
// la lista de exclusion (self, passed y matched en ambas direcciones). Los
// ya-likeados NO se excluyen: siguen visibles con flag.
func (s *DiscoveryService) buildFilter(ctx context.Context, requester domain.Profile) (repository.CandidateFilter, error) {
	passed, err := s.interactions.ListTargetIDsByKind(ctx, requester.UserID, domain.InteractionPass)
	if err != nil {
		return repository.CandidateFilter{}, fmt.Errorf("list passed: %w", err)
	}
	matched, err := s.interactions.ListMatchedUserIDs(ctx, requester.UserID)
	if err != nil {
		return repository.CandidateFilter{}, fmt.Errorf("list matched: %w", err)
	}

	exclude := make([]string, 0, 1+len(passed)+len(matched))
	exclude = append(exclude, requester.UserID)
	exclude = append(exclude, passed...)
	exclude = append(exclude, matched...)

	genders := NormalizeGenders(requester.PrefGenders)
	if len(genders) == 0 {
		genders = []string{domain.GenderMale, domain.GenderFemale, domain.GenderNonBinary}
	}

	ageMin := requester.PrefAgeMin
	if ageMin < defaultPrefAgeMin {
		ageMin = defaultPrefAgeMin
	}
	ageMax := requester.PrefAgeMax
	if ageMax <= 0 {
		ageMax = defaultPrefAgeMax
	}

	now := time.Now().UTC()
	return repository.CandidateFilter{
		ExcludeUserIDs: exclude,
		Genders:        genders,
		// edad <= ageMax: nacidos despues de now - (ageMax+1) años.
		BornAfter: now.AddDate(-(ageMax + 1), 0, 0),
		// edad >= ageMin: nacidos hasta now - ageMin años.
		BornBefore: now.AddDate(-ageMin, 0, 0),
		Limit:      s.limit,
	}, nil
}

// resolveScores consulta la cache en batch y despacha el scorer en paralelo
// para los misses. Toda la tanda de misses cuesta un solo round trip de LLM,
// no uno por candidato.
func (s *DiscoveryService) resolveScores(ctx context.Context, requester domain.Profile, candidates []repository.Candidate) map[string]domain.CompatibilityScores {
	if len(candidates) == 0 {
		return nil
	}

	sourceHash := ProfileFingerprint(requester)

	// Los fingerprints de los targets se calculan una sola vez.
	targetHashes := make(map[string]string, len(candidates))
	targetIDs := make([]string, 0, len(candidates))
	for _, c := range candidates {
		targetHashes[c.Profile.UserID] = ProfileFingerprint(c.Profile)
		targetIDs = append(targetIDs, c.Profile.UserID)
	}

	cached, err := s.compat.BatchLookup(ctx, requester.UserID, targetIDs, sourceHash)
	if err != nil {
		if s.logger != nil {
			s.logger.Warn("compatibility batch lookup failed", zap.Error(err), zap.String("user_id", requester.UserID))
		}
		cached = map[string]domain.CompatibilityEntry{}
	}

	now := time.Now().UTC()
	scores := make(map[string]domain.CompatibilityScores, len(candidates))
	var misses []repository.Candidate
	for _, c := range candidates {
		entry, ok := cached[c.Profile.UserID]
		if ok && entry.Matches(sourceHash, targetHashes[c.Profile.UserID], now) {
			scores[c.Profile.UserID] = entry.Scores()
			continue
		}
		misses = append(misses, c)
	}
	if len(misses) == 0 {
		return scores
	}

	// Fan-out paralelo: la latencia total es la de un solo round trip de LLM.
	// El cap de candidatos acota el paralelismo; si ese cap sube habria que
	// poner un limite explicito aqui.
	fresh := make([]domain.CompatibilityScores, len(misses))
	g, gctx := errgroup.WithContext(ctx)
	for i, c := range misses {
		i, c := i, c
		g.Go(func() error {
			fresh[i] = s.scorer.Score(gctx, requester, c.Profile)
			return nil
		})
	}
	// El scorer nunca devuelve error; Wait solo sincroniza.
	_ = g.Wait()

	expiresAt := now.Add(s.cacheTTL)
	for i, c := range misses {
		scores[c.Profile.UserID] = fresh[i]
		entry := domain.CompatibilityEntry{
			ID:                  uuid.NewString(),
			UserID:              requester.UserID,
			TargetUserID:        c.Profile.UserID,
			Global:              fresh[i].Global,
			Love:                fresh[i].Love,
			Friendship:          fresh[i].Friendship,
			Carnal:              fresh[i].Carnal,
			Insight:             fresh[i].Insight,
			UserProfileHash:     sourceHash,
			TargetProfileHash:   targetHashes[c.Profile.UserID],
			EmbeddingSimilarity: c.Similarity,
			CalculatedAt:        now,
			ExpiresAt:           &expiresAt,
		}
		if _, err := s.compat.Store(ctx, entry); err != nil {
			// Un fallo al cachear no invalida los scores ya calculados.
			if s.logger != nil {
				s.logger.Warn("compatibility store failed", zap.Error(err), zap.String("user_id", requester.UserID), zap.String("target_user_id", c.Profile.UserID))
			}
		}
	}
	return scores
}

// buildCandidates aplica el post-filtro de distancia y adjunta fotos firmadas
// y flag de like. Si falta GPS en cualquiera de los dos lados la distancia se
// trata como desconocida y el candidato se conserva.
func (s *DiscoveryService) buildCandidates(ctx context.Context, requester domain.Profile, candidates []repository.Candidate, scores map[string]domain.CompatibilityScores) ([]domain.DiscoveryCandidate, error) {
	if len(candidates) == 0 {
		return nil, nil
	}

	targetIDs := make([]string, 0, len(candidates))
	for _, c := range candidates {
		targetIDs = append(targetIDs, c.Profile.UserID)
	}
	liked, err := s.interactions.LikedTargetSet(ctx, requester.UserID, targetIDs)
	if err != nil {
		return nil, fmt.Errorf("liked target set: %w", err)
	}

	out := make([]domain.DiscoveryCandidate, 0, len(candidates))
	for _, c := range candidates {
		var distance *float64
		if requester.HasLocation() && c.Profile.HasLocation() {
			d := HaversineKm(*requester.Latitude, *requester.Longitude, *c.Profile.Latitude, *c.Profile.Longitude)
			if requester.PrefMaxDistanceKm != nil && d > *requester.PrefMaxDistanceKm {
				continue
			}
			distance = &d
		}

		dc := domain.DiscoveryCandidate{
			Profile:             c.Profile,
			EmbeddingSimilarity: c.Similarity,
			DistanceKm:          distance,
			IsLiked:             liked[c.Profile.UserID],
		}
		if scores != nil {
			if sc, ok := scores[c.Profile.UserID]; ok {
				dc.Scores = &sc
			}
		}
		if s.photoSigner != nil {
			dc.PhotoURLs = s.photoSigner.SignAll(c.Profile.Photos)
		}
		out = append(out, dc)
		if len(out) >= s.limit {
			break
		}
	}
	return out, nil
}
