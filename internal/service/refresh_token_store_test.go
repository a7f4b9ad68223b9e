package service

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/redis/go-redis/v9"
)

type kvRecorder struct {
	setKey    string
	setVal    interface{}
	setTTL    time.Duration
	existsKey string
	delKey    string

	setErr    error
	existsErr error
	delErr    error
	existsN   int64
}

func (r *kvRecorder) Set(ctx context.Context, key string, value interface{}, expiration time.Duration) *redis.StatusCmd {
	r.setKey = key
	r.setVal = value
	r.setTTL = expiration
	cmd := redis.NewStatusCmd(ctx)
	if r.setErr != nil {
		cmd.SetErr(r.setErr)
		return cmd
	}
	cmd.SetVal("OK")
	return cmd
}

func (r *kvRecorder) Exists(ctx context.Context, keys ...string) *redis.IntCmd {
	if len(keys) > 0 {
		r.existsKey = keys[0]
	}
	cmd := redis.NewIntCmd(ctx)
	if r.existsErr != nil {
		cmd.SetErr(r.existsErr)
		return cmd
	}
	cmd.SetVal(r.existsN)
	return cmd
}

func (r *kvRecorder) Del(ctx context.Context, keys ...string) *redis.IntCmd {
	if len(keys) > 0 {
		r.delKey = keys[0]
	}
	cmd := redis.NewIntCmd(ctx)
	if r.delErr != nil {
		cmd.SetErr(r.delErr)
		return cmd
	}
	cmd.SetVal(1)
	return cmd
}

func TestMemoryRefreshTokenStore_Lifecycle(t *testing.T) {
	store := NewMemoryRefreshTokenStore()

	if ok, err := store.Exists("nope"); err != nil || ok {
		t.Fatalf("unknown jti must be absent, got %v,%v", ok, err)
	}
	if err := store.Store("jti-1", "u1", 50*time.Millisecond); err != nil {
		t.Fatalf("store: %v", err)
	}
	if ok, err := store.Exists("jti-1"); err != nil || !ok {
		t.Fatalf("stored jti must exist, got %v,%v", ok, err)
	}

	time.Sleep(70 * time.Millisecond)
	if ok, err := store.Exists("jti-1"); err != nil || ok {
		t.Fatalf("expired jti must be gone, got %v,%v", ok, err)
	}

	if err := store.Store("jti-2", "u1", time.Minute); err != nil {
		t.Fatalf("store: %v", err)
	}
	if err := store.Revoke("jti-2"); err != nil {
		t.Fatalf("revoke: %v", err)
	}
	if ok, err := store.Exists("jti-2"); err != nil || ok {
		t.Fatalf("revoked jti must be gone, got %v,%v", ok, err)
	}
}

func TestRedisRefreshTokenStore_KeysAndTTL(t *testing.T) {
	rec := &kvRecorder{existsN: 1}
	store := &redisRefreshTokenStore{client: rec, prefix: "auth:refresh:"}

	if err := store.Store(" j1 ", "u1", 0); err != nil {
		t.Fatalf("store: %v", err)
	}
	if rec.setKey != "auth:refresh:j1" {
		t.Fatalf("jti must be trimmed into the key, got %q", rec.setKey)
	}
	if rec.setTTL <= 0 {
		t.Fatalf("a non-positive ttl must fall back to a real expiry, got %v", rec.setTTL)
	}

	if ok, err := store.Exists(" j1 "); err != nil || !ok {
		t.Fatalf("expected exists, got %v,%v", ok, err)
	}
	if rec.existsKey != "auth:refresh:j1" {
		t.Fatalf("unexpected exists key %q", rec.existsKey)
	}

	if err := store.Revoke(" j1 "); err != nil {
		t.Fatalf("revoke: %v", err)
	}
	if rec.delKey != "auth:refresh:j1" {
		t.Fatalf("unexpected del key %q", rec.delKey)
	}
}

func TestRedisRefreshTokenStore_BlankJTIAndErrors(t *testing.T) {
	rec := &kvRecorder{
		setErr:    errors.New("set failed"),
		existsErr: errors.New("exists failed"),
		delErr:    errors.New("del failed"),
	}
	store := &redisRefreshTokenStore{client: rec, prefix: "auth:refresh:"}

	if err := store.Store("  ", "u1", time.Minute); err != nil {
		t.Fatalf("blank jti store must be a no-op, got %v", err)
	}
	if ok, err := store.Exists(""); err != nil || ok {
		t.Fatalf("blank jti exists must be false,nil; got %v,%v", ok, err)
	}
	if err := store.Revoke(""); err != nil {
		t.Fatalf("blank jti revoke must be a no-op, got %v", err)
	}

	if err := store.Store("j2", "u1", time.Minute); err == nil {
		t.Fatalf("expected the redis set error to surface")
	}
	if _, err := store.Exists("j2"); err == nil {
		t.Fatalf("expected the redis exists error to surface")
	}
	if err := store.Revoke("j2"); err == nil {
		t.Fatalf("expected the redis del error to surface")
	}
}
