package cache

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/prometheus/client_golang/prometheus/testutil"
)

type tagDTO struct {
	ID   string `json:"id"`
	Slug string `json:"slug"`
}

func newTestCache(t *testing.T, opts Options) (*Cache, *miniredis.Miniredis) {
	t.Helper()
	mr, err := miniredis.Run()
	if err != nil {
		t.Fatalf("failed to start miniredis: %v", err)
	}
	t.Cleanup(mr.Close)
	c, err := Connect(context.Background(), mr.Addr(), opts)
	if err != nil {
		t.Fatalf("connect: %v", err)
	}
	t.Cleanup(func() { _ = c.Close() })
	return c, mr
}

func TestAside_NilCacheCallsLoader(t *testing.T) {
	var c *Cache
	calls := 0
	got, err := Aside(context.Background(), c, "k", func(context.Context) (int, error) {
		calls++
		return 7, nil
	})
	if err != nil || got != 7 || calls != 1 {
		t.Fatalf("got=%d err=%v calls=%d", got, err, calls)
	}
	c.Invalidate(context.Background(), "k")
	if err := c.Close(); err != nil {
		t.Fatalf("nil close: %v", err)
	}
}

func TestAside_SecondReadServedFromRedis(t *testing.T) {
	c, mr := newTestCache(t, Options{TTL: time.Minute})
	ctx := context.Background()

	calls := 0
	load := func(context.Context) ([]tagDTO, error) {
		calls++
		return []tagDTO{{ID: "1", Slug: "lunch"}}, nil
	}

	baseHit := testutil.ToFloat64(lookups.WithLabelValues("hit"))

	first, err := Aside(ctx, c, "tags", load)
	if err != nil || len(first) != 1 {
		t.Fatalf("first: %+v err=%v", first, err)
	}
	if !mr.Exists("foodgram:tags") {
		t.Fatalf("expected key to be stored with prefix")
	}
	if ttl := mr.TTL("foodgram:tags"); ttl != time.Minute {
		t.Fatalf("ttl=%v", ttl)
	}

	second, err := Aside(ctx, c, "tags", load)
	if err != nil || len(second) != 1 || second[0].Slug != "lunch" {
		t.Fatalf("second: %+v err=%v", second, err)
	}
	if calls != 1 {
		t.Fatalf("loader called %d times, want 1", calls)
	}
	if got := testutil.ToFloat64(lookups.WithLabelValues("hit")); got != baseHit+1 {
		t.Fatalf("hit counter=%v want %v", got, baseHit+1)
	}

	c.Invalidate(ctx, "tags")
	if mr.Exists("foodgram:tags") {
		t.Fatalf("expected key to be invalidated")
	}
	if _, err := Aside(ctx, c, "tags", load); err != nil || calls != 2 {
		t.Fatalf("after invalidate: calls=%d err=%v", calls, err)
	}
}

func TestAside_LoaderErrorNotCached(t *testing.T) {
	c, mr := newTestCache(t, Options{})
	boom := errors.New("boom")
	_, err := Aside(context.Background(), c, "x", func(context.Context) (string, error) { return "", boom })
	if !errors.Is(err, boom) {
		t.Fatalf("expected loader error, got %v", err)
	}
	if mr.Exists("foodgram:x") {
		t.Fatalf("failed loads must not be cached")
	}
}

func TestAside_RedisDownFallsBackAndTrips(t *testing.T) {
	c, mr := newTestCache(t, Options{FailureThreshold: 2, OpenTimeout: time.Hour})
	mr.Close()

	calls := 0
	load := func(context.Context) (int, error) { calls++; return calls, nil }
	for i := 0; i < 4; i++ {
		if _, err := Aside(context.Background(), c, "k", load); err != nil {
			t.Fatalf("redis failure leaked to caller: %v", err)
		}
	}
	if calls != 4 {
		t.Fatalf("loader calls=%d want 4", calls)
	}
	if st := c.cb.State().String(); st != "open" {
		t.Fatalf("breaker state=%s want open", st)
	}
}

func TestConnect_BadURL(t *testing.T) {
	if _, err := Connect(context.Background(), "http://localhost:6379", Options{}); err == nil {
		t.Fatalf("expected parse error")
	}
	ctx, cancel := context.WithTimeout(context.Background(), 200*time.Millisecond)
	defer cancel()
	if _, err := Connect(ctx, "127.0.0.1:1", Options{}); err == nil {
		t.Fatalf("expected ping error")
	}
}
