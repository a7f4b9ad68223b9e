package repository

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"

	"github.com/yohanndulong/alter-sub001/internal/domain"
)

// fakeRow entrega una CompatibilityEntry en el mismo orden de columnas que
// scanCompatibility.
type fakeRow struct {
	entry domain.CompatibilityEntry
	err   error
}

func (r fakeRow) Scan(dest ...any) error {
	if r.err != nil {
		return r.err
	}
	e := r.entry
	*(dest[0].(*string)) = e.ID
	*(dest[1].(*string)) = e.UserID
	*(dest[2].(*string)) = e.TargetUserID
	*(dest[3].(*int)) = e.Global
	*(dest[4].(*int)) = e.Love
	*(dest[5].(*int)) = e.Friendship
	*(dest[6].(*int)) = e.Carnal
	*(dest[7].(*string)) = e.Insight
	*(dest[8].(*string)) = e.UserProfileHash
	*(dest[9].(*string)) = e.TargetProfileHash
	*(dest[10].(**float64)) = e.EmbeddingSimilarity
	*(dest[11].(*time.Time)) = e.CalculatedAt
	*(dest[12].(**time.Time)) = e.ExpiresAt
	return nil
}

type fakeQuerier struct {
	execErr   error
	execCalls int

	row          fakeRow
	queryRowCall int
}

func (q *fakeQuerier) Exec(_ context.Context, _ string, _ ...any) (pgconn.CommandTag, error) {
	q.execCalls++
	return pgconn.CommandTag{}, q.execErr
}

func (q *fakeQuerier) Query(_ context.Context, _ string, _ ...any) (pgx.Rows, error) {
	return nil, errors.New("query not expected in this test")
}

func (q *fakeQuerier) QueryRow(_ context.Context, _ string, _ ...any) pgx.Row {
	q.queryRowCall++
	return q.row
}

func cacheEntry(id, userID, targetID string, global int) domain.CompatibilityEntry {
	exp := time.Now().UTC().Add(24 * time.Hour)
	return domain.CompatibilityEntry{
		ID:                entryID(id),
		UserID:            userID,
		TargetUserID:      targetID,
		Global:            global,
		Love:              global,
		Friendship:        global,
		Carnal:            global,
		Insight:           "insight",
		UserProfileHash:   "hash-" + userID,
		TargetProfileHash: "hash-" + targetID,
		CalculatedAt:      time.Now().UTC(),
		ExpiresAt:         &exp,
	}
}

func entryID(seed string) string {
	return "00000000-0000-0000-0000-0000000000" + seed
}

func TestPgCompatibilityRepositoryStore_ConflictReturnsWinnerRow(t *testing.T) {
	winner := cacheEntry("01", "u1", "u2", 82)
	loser := cacheEntry("02", "u1", "u2", 40)

	q := &fakeQuerier{
		execErr: &pgconn.PgError{Code: "23505"},
		row:     fakeRow{entry: winner},
	}
	repo := &PgCompatibilityRepository{db: q}

	got, err := repo.Store(context.Background(), loser)
	if err != nil {
		t.Fatalf("store on conflict should recover the existing row: %v", err)
	}
	if got.ID != winner.ID || got.Global != winner.Global {
		t.Fatalf("expected the first writer's row, got %+v", got)
	}
	if q.execCalls != 1 || q.queryRowCall != 1 {
		t.Fatalf("expected one insert attempt and one fetch, got %d/%d", q.execCalls, q.queryRowCall)
	}
}

func TestPgCompatibilityRepositoryStore_OtherErrorsSurface(t *testing.T) {
	dbErr := errors.New("connection reset")
	q := &fakeQuerier{execErr: dbErr}
	repo := &PgCompatibilityRepository{db: q}

	_, err := repo.Store(context.Background(), cacheEntry("03", "u1", "u2", 50))
	if !errors.Is(err, dbErr) {
		t.Fatalf("non-conflict errors must surface, got %v", err)
	}
	if q.queryRowCall != 0 {
		t.Fatalf("no fetch expected on a plain error")
	}
}

func TestPgCompatibilityRepositoryStore_InsertReturnsOwnEntry(t *testing.T) {
	entry := cacheEntry("04", "u1", "u2", 77)
	q := &fakeQuerier{}
	repo := &PgCompatibilityRepository{db: q}

	got, err := repo.Store(context.Background(), entry)
	if err != nil {
		t.Fatalf("store: %v", err)
	}
	if got.ID != entry.ID || got.Global != entry.Global {
		t.Fatalf("expected the inserted entry back, got %+v", got)
	}
}

func TestPgCompatibilityRepositoryLookup_NoRowsIsMiss(t *testing.T) {
	q := &fakeQuerier{row: fakeRow{err: pgx.ErrNoRows}}
	repo := &PgCompatibilityRepository{db: q}

	_, err := repo.Lookup(context.Background(), "u1", "u2", "h1", "h2")
	if !errors.Is(err, ErrCompatibilityMiss) {
		t.Fatalf("expected ErrCompatibilityMiss, got %v", err)
	}
}
