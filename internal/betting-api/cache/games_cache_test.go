package cache

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
)

type listing struct {
	ID   string `json:"id"`
	Home string `json:"home"`
}

func newTestCache(t *testing.T) (*GamesCache, *miniredis.Miniredis) {
	t.Helper()
	mr := miniredis.RunT(t)
	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = rdb.Close() })
	return New(rdb), mr
}

func TestGamesCacheGetSet(t *testing.T) {
	c, mr := newTestCache(t)
	ctx := context.Background()

	var got []listing
	ok, err := c.GetGames(ctx, "upcoming", &got)
	if err != nil || ok {
		t.Fatalf("miss: ok=%v err=%v", ok, err)
	}

	want := []listing{{ID: "g1", Home: "Lakers"}, {ID: "g2", Home: "Celtics"}}
	if err := c.SetGames(ctx, "upcoming", want, 30*time.Second); err != nil {
		t.Fatal(err)
	}
	if ttl := mr.TTL("games:status:upcoming"); ttl != 30*time.Second {
		t.Errorf("ttl = %v", ttl)
	}

	ok, err = c.GetGames(ctx, "upcoming", &got)
	if err != nil || !ok {
		t.Fatalf("hit: ok=%v err=%v", ok, err)
	}
	if len(got) != 2 || got[0] != want[0] || got[1] != want[1] {
		t.Errorf("got %+v", got)
	}

	// chaves separadas por status
	ok, _ = c.GetGames(ctx, "completed", &got)
	if ok {
		t.Error("completed listing should miss")
	}

	mr.FastForward(31 * time.Second)
	if ok, _ := c.GetGames(ctx, "upcoming", &got); ok {
		t.Error("listing should expire after ttl")
	}
}

func TestGamesCacheInvalidate(t *testing.T) {
	c, mr := newTestCache(t)
	ctx := context.Background()

	for _, st := range []string{"upcoming", "in_progress", "completed"} {
		if err := c.SetGames(ctx, st, []listing{{ID: st}}, time.Minute); err != nil {
			t.Fatal(err)
		}
	}

	if err := c.Invalidate(ctx); err != nil {
		t.Fatalf("empty invalidate: %v", err)
	}
	if !mr.Exists("games:status:upcoming") {
		t.Fatal("empty invalidate removed keys")
	}

	if err := c.Invalidate(ctx, "upcoming", "in_progress"); err != nil {
		t.Fatal(err)
	}
	if mr.Exists("games:status:upcoming") || mr.Exists("games:status:in_progress") {
		t.Error("invalidated keys still present")
	}
	if !mr.Exists("games:status:completed") {
		t.Error("completed listing should survive")
	}
}

func TestGamesCacheUnavailable(t *testing.T) {
	c, mr := newTestCache(t)
	mr.Close()

	var got []listing
	if _, err := c.GetGames(context.Background(), "upcoming", &got); err == nil {
		t.Error("expected error with redis down")
	}
}
