package session

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"

	"github.com/iliyamo/sportsvenue-portal/internal/model"
)

func newRedis(t *testing.T) (*miniredis.Miniredis, *redis.Client) {
	t.Helper()
	mr := miniredis.RunT(t)
	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = rdb.Close() })
	return mr, rdb
}

func TestRedisPersisterRoundTrip(t *testing.T) {
	mr, rdb := newRedis(t)
	p := NewRedisPersister(rdb, NewSealer("s3cret"), "portal", "sid-1", time.Hour)
	ctx := context.Background()

	rec, err := p.Load(ctx)
	if err != nil || rec.Token != "" || rec.User != nil {
		t.Fatalf("empty Load = %+v, %v", rec, err)
	}

	if err := p.SaveToken(ctx, "abc"); err != nil {
		t.Fatal(err)
	}
	if err := p.SaveIdentity(ctx, model.Identity{ID: 7, Username: "ana"}); err != nil {
		t.Fatal(err)
	}

	raw, err := mr.Get("portal:sid-1:token")
	if err != nil {
		t.Fatal(err)
	}
	if raw == "abc" {
		t.Error("token stored in clear text")
	}
	if ttl := mr.TTL("portal:sid-1:user"); ttl != time.Hour {
		t.Errorf("ttl = %v", ttl)
	}

	rec, err = p.Load(ctx)
	if err != nil {
		t.Fatal(err)
	}
	if rec.Token != "abc" || rec.User == nil || rec.User.ID != 7 {
		t.Fatalf("Load = %+v", rec)
	}

	if err := p.Clear(ctx); err != nil {
		t.Fatal(err)
	}
	if mr.Exists("portal:sid-1:token") || mr.Exists("portal:sid-1:user") {
		t.Error("keys survived Clear")
	}
	if err := p.Clear(ctx); err != nil {
		t.Errorf("second Clear: %v", err)
	}
}

func TestRedisPersisterRejectsForeignSecret(t *testing.T) {
	_, rdb := newRedis(t)
	ctx := context.Background()
	_ = NewRedisPersister(rdb, NewSealer("one"), "portal", "sid", time.Hour).SaveToken(ctx, "abc")

	_, err := NewRedisPersister(rdb, NewSealer("two"), "portal", "sid", time.Hour).Load(ctx)
	if !errors.Is(err, ErrUnsealable) {
		t.Fatalf("err = %v, want ErrUnsealable", err)
	}
}

func TestRedisPersisterSessionsIsolated(t *testing.T) {
	_, rdb := newRedis(t)
	ctx := context.Background()
	seal := NewSealer("s")
	a := NewRedisPersister(rdb, seal, "portal", "a", time.Hour)
	b := NewRedisPersister(rdb, seal, "portal", "b", time.Hour)
	_ = a.SaveToken(ctx, "tok-a")

	rec, err := b.Load(ctx)
	if err != nil || rec.Token != "" {
		t.Fatalf("b sees %+v, %v", rec, err)
	}
}

func TestBootstrapFromRedisWithGarbledToken(t *testing.T) {
	mr, rdb := newRedis(t)
	mr.Set("portal:sid:token", "not-a-sealed-value")
	p := NewRedisPersister(rdb, NewSealer("s"), "portal", "sid", time.Hour)

	s := NewStore(nil, p)
	if err := s.Bootstrap(context.Background()); !errors.Is(err, ErrUnsealable) {
		t.Fatalf("err = %v", err)
	}
	if s.Snapshot().Phase != PhaseAnonymous {
		t.Fatalf("state = %+v", s.Snapshot())
	}
	if mr.Exists("portal:sid:token") {
		t.Error("garbled token was not cleared")
	}
}

func TestSealerRoundTrip(t *testing.T) {
	s := NewSealer("k")
	a, _ := s.Seal("value")
	b, _ := s.Seal("value")
	if a == b {
		t.Error("nonce reuse: identical ciphertexts")
	}
	if got, err := s.Open(a); err != nil || got != "value" {
		t.Fatalf("Open = %q, %v", got, err)
	}
}
