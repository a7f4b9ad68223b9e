package service

import (
	"context"
	"time"

	"github.com/jackc/pgx/v5"
	pgvector "github.com/pgvector/pgvector-go"

	"github.com/yohanndulong/alter-sub001/internal/domain"
	"github.com/yohanndulong/alter-sub001/internal/event"
	"github.com/yohanndulong/alter-sub001/internal/push"
	"github.com/yohanndulong/alter-sub001/internal/repository"
)

// Mocks en memoria compartidos por los tests de servicios. Reproducen la
// semantica de los repositorios Pg sin base de datos.

type mockProfileRepo struct {
	profiles   map[string]domain.Profile
	candidates []repository.Candidate
	lastFilter repository.CandidateFilter
	findErr    error
}

func newMockProfileRepo() *mockProfileRepo {
	return &mockProfileRepo{profiles: make(map[string]domain.Profile)}
}

func (m *mockProfileRepo) Create(_ context.Context, profile domain.Profile) error {
	m.profiles[profile.UserID] = profile
	return nil
}

func (m *mockProfileRepo) GetByUserID(_ context.Context, userID string) (domain.Profile, error) {
	p, ok := m.profiles[userID]
	if !ok {
		return domain.Profile{}, pgx.ErrNoRows
	}
	return p, nil
}

func (m *mockProfileRepo) Update(_ context.Context, profile domain.Profile) error {
	if _, ok := m.profiles[profile.UserID]; !ok {
		return pgx.ErrNoRows
	}
	m.profiles[profile.UserID] = profile
	return nil
}

func (m *mockProfileRepo) UpdateEmbedding(_ context.Context, userID string, embedding pgvector.Vector) error {
	p, ok := m.profiles[userID]
	if !ok {
		return pgx.ErrNoRows
	}
	p.Embedding = &embedding
	m.profiles[userID] = p
	return nil
}

func (m *mockProfileRepo) UpdateAIAttributes(_ context.Context, userID string, attrs map[string]string) error {
	p, ok := m.profiles[userID]
	if !ok {
		return pgx.ErrNoRows
	}
	p.AIAttributes = attrs
	m.profiles[userID] = p
	return nil
}

func (m *mockProfileRepo) SetOnboardingDone(_ context.Context, userID string) error {
	p, ok := m.profiles[userID]
	if !ok {
		return pgx.ErrNoRows
	}
	p.OnboardingDone = true
	m.profiles[userID] = p
	return nil
}

func (m *mockProfileRepo) FindCandidatesByEmbedding(_ context.Context, _ pgvector.Vector, filter repository.CandidateFilter) ([]repository.Candidate, error) {
	m.lastFilter = filter
	return m.candidates, m.findErr
}

func (m *mockProfileRepo) FindCandidates(_ context.Context, filter repository.CandidateFilter) ([]repository.Candidate, error) {
	m.lastFilter = filter
	return m.candidates, m.findErr
}

type compatKey struct {
	userID       string
	targetUserID string
}

type mockCompatRepo struct {
	entries      map[compatKey]domain.CompatibilityEntry
	storeCalls   int
	invalidated  []string
	sweepDeleted int64
}

func newMockCompatRepo() *mockCompatRepo {
	return &mockCompatRepo{entries: make(map[compatKey]domain.CompatibilityEntry)}
}

func (m *mockCompatRepo) Lookup(_ context.Context, userID, targetUserID, sourceHash, targetHash string) (domain.CompatibilityEntry, error) {
	entry, ok := m.entries[compatKey{userID, targetUserID}]
	if !ok || !entry.Matches(sourceHash, targetHash, time.Now().UTC()) {
		return domain.CompatibilityEntry{}, repository.ErrCompatibilityMiss
	}
	return entry, nil
}

func (m *mockCompatRepo) Store(_ context.Context, entry domain.CompatibilityEntry) (domain.CompatibilityEntry, error) {
	m.storeCalls++
	key := compatKey{entry.UserID, entry.TargetUserID}
	if existing, ok := m.entries[key]; ok {
		return existing, nil
	}
	m.entries[key] = entry
	return entry, nil
}

func (m *mockCompatRepo) BatchLookup(_ context.Context, userID string, targetUserIDs []string, sourceHash string) (map[string]domain.CompatibilityEntry, error) {
	now := time.Now().UTC()
	out := make(map[string]domain.CompatibilityEntry)
	for _, targetID := range targetUserIDs {
		entry, ok := m.entries[compatKey{userID, targetID}]
		if !ok || entry.UserProfileHash != sourceHash {
			continue
		}
		if entry.ExpiresAt != nil && !now.Before(*entry.ExpiresAt) {
			continue
		}
		out[targetID] = entry
	}
	return out, nil
}

func (m *mockCompatRepo) InvalidateForUser(_ context.Context, userID string) (int64, error) {
	m.invalidated = append(m.invalidated, userID)
	var deleted int64
	for key := range m.entries {
		if key.userID == userID || key.targetUserID == userID {
			delete(m.entries, key)
			deleted++
		}
	}
	return deleted, nil
}

func (m *mockCompatRepo) SweepExpired(_ context.Context) (int64, error) {
	now := time.Now().UTC()
	var deleted int64
	for key, entry := range m.entries {
		if entry.ExpiresAt != nil && !now.Before(*entry.ExpiresAt) {
			delete(m.entries, key)
			deleted++
		}
	}
	m.sweepDeleted = deleted
	return deleted, nil
}

type interactionKey struct {
	userID       string
	targetUserID string
}

type mockInteractionRepo struct {
	interactions map[interactionKey]domain.Interaction
	matches      map[string]domain.Match
}

func newMockInteractionRepo() *mockInteractionRepo {
	return &mockInteractionRepo{
		interactions: make(map[interactionKey]domain.Interaction),
		matches:      make(map[string]domain.Match),
	}
}

// CreateInteraction replica el upsert del repo real: la decision mas
// reciente reemplaza a la anterior.
func (m *mockInteractionRepo) CreateInteraction(_ context.Context, it domain.Interaction) error {
	m.interactions[interactionKey{it.UserID, it.TargetUserID}] = it
	return nil
}

func (m *mockInteractionRepo) ListTargetIDsByKind(_ context.Context, userID, kind string) ([]string, error) {
	var ids []string
	for key, it := range m.interactions {
		if key.userID == userID && it.Kind == kind {
			ids = append(ids, key.targetUserID)
		}
	}
	return ids, nil
}

func (m *mockInteractionRepo) HasLike(_ context.Context, userID, targetUserID string) (bool, error) {
	it, ok := m.interactions[interactionKey{userID, targetUserID}]
	return ok && it.Kind == domain.InteractionLike, nil
}

func (m *mockInteractionRepo) LikedTargetSet(_ context.Context, userID string, targetUserIDs []string) (map[string]bool, error) {
	out := make(map[string]bool, len(targetUserIDs))
	for _, targetID := range targetUserIDs {
		it, ok := m.interactions[interactionKey{userID, targetID}]
		if ok && it.Kind == domain.InteractionLike {
			out[targetID] = true
		}
	}
	return out, nil
}

func (m *mockInteractionRepo) CreateMatch(_ context.Context, match domain.Match) (domain.Match, error) {
	for _, existing := range m.matches {
		if existing.User1ID == match.User1ID && existing.User2ID == match.User2ID {
			return existing, nil
		}
	}
	m.matches[match.ID] = match
	return match, nil
}

func (m *mockInteractionRepo) ListMatchesForUser(_ context.Context, userID string) ([]domain.Match, error) {
	var out []domain.Match
	for _, match := range m.matches {
		if match.User1ID == userID || match.User2ID == userID {
			out = append(out, match)
		}
	}
	return out, nil
}

func (m *mockInteractionRepo) ListMatchedUserIDs(_ context.Context, userID string) ([]string, error) {
	var ids []string
	for _, match := range m.matches {
		if match.User1ID == userID {
			ids = append(ids, match.User2ID)
		} else if match.User2ID == userID {
			ids = append(ids, match.User1ID)
		}
	}
	return ids, nil
}

func (m *mockInteractionRepo) GetMatchByID(_ context.Context, matchID string) (domain.Match, error) {
	match, ok := m.matches[matchID]
	if !ok {
		return domain.Match{}, pgx.ErrNoRows
	}
	return match, nil
}

type mockMessageRepo struct {
	messages []domain.Message
}

func (m *mockMessageRepo) Create(_ context.Context, message domain.Message) error {
	m.messages = append(m.messages, message)
	return nil
}

func (m *mockMessageRepo) ListByConversation(_ context.Context, conversationID string, limit int) ([]domain.Message, error) {
	var out []domain.Message
	for _, msg := range m.messages {
		if msg.ConversationID == conversationID {
			out = append(out, msg)
		}
	}
	if limit > 0 && len(out) > limit {
		out = out[len(out)-limit:]
	}
	return out, nil
}

type recordPublisher struct {
	events []event.Event
}

func (p *recordPublisher) Publish(_ context.Context, ev event.Event) {
	p.events = append(p.events, ev)
}

func (p *recordPublisher) count(eventType string) int {
	var n int
	for _, ev := range p.events {
		if ev.Type == eventType {
			n++
		}
	}
	return n
}

type mockPushSender struct {
	sent []string
	err  error
}

func (m *mockPushSender) Send(_ context.Context, userID string, _ push.Notification) error {
	if m.err != nil {
		return m.err
	}
	m.sent = append(m.sent, userID)
	return nil
}
