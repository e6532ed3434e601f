package leaderboard

import (
	"context"
	"strconv"
	"testing"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/onnwee/dealrank/internal/deal"
	"github.com/onnwee/dealrank/internal/reputation"
)

// newTestRedis connects to a local Redis instance, skipping the test if
// none is available.
func newTestRedis(t *testing.T) *redis.Client {
	t.Helper()

	client := redis.NewClient(&redis.Options{
		Addr: "localhost:6379",
	})

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()

	if err := client.Ping(ctx).Err(); err != nil {
		t.Skip("Redis not available, skipping integration test")
	}
	t.Cleanup(func() { client.Close() })

	return client
}

func TestCacheRoundTrip(t *testing.T) {
	client := newTestRedis(t)
	cache := NewCache(client, time.Minute, nil)
	ctx := context.Background()
	defer cache.Invalidate(ctx)

	now := time.Now().UTC().Truncate(time.Second)
	ranked := []deal.Ranked{
		{
			Deal: deal.Deal{ID: "d1", Title: "cached deal", CreatedAt: now, IsActive: true},
			Score: &deal.Score{
				DealID: "d1", FinalRank: 0.8, LastCalculated: now,
			},
		},
	}

	limit := int(time.Now().UnixNano() % 1000000) // avoid key collisions across runs
	if err := cache.SetTopDeals(ctx, limit, ranked); err != nil {
		t.Fatalf("SetTopDeals failed: %v", err)
	}

	got, ok := cache.GetTopDeals(ctx, limit)
	if !ok {
		t.Fatal("expected a cache hit after SetTopDeals")
	}
	if len(got) != 1 || got[0].Deal.ID != "d1" || got[0].Score == nil || got[0].Score.FinalRank != 0.8 {
		t.Errorf("cached snapshot mismatch: %+v", got)
	}
}

func TestCacheMiss(t *testing.T) {
	client := newTestRedis(t)
	cache := NewCache(client, time.Minute, nil)

	key := int(time.Now().UnixNano() % 1000000)
	if _, ok := cache.GetTopDeals(context.Background(), key); ok {
		t.Error("expected a miss for a never-written key")
	}
	if _, ok := cache.GetTopUsers(context.Background(), key); ok {
		t.Error("expected a miss for a never-written key")
	}
}

func TestCacheUsersRoundTrip(t *testing.T) {
	client := newTestRedis(t)
	cache := NewCache(client, time.Minute, nil)
	ctx := context.Background()
	defer cache.Invalidate(ctx)

	ratings := []reputation.UserRating{
		{UserID: "u1", EloRating: 1900, DealsPosted: 12, VoteAccuracy: 0.7},
		{UserID: "u2", EloRating: 1400, DealsPosted: 3, VoteAccuracy: 0.4},
	}

	limit := int(time.Now().UnixNano() % 1000000)
	if err := cache.SetTopUsers(ctx, limit, ratings); err != nil {
		t.Fatalf("SetTopUsers failed: %v", err)
	}

	got, ok := cache.GetTopUsers(ctx, limit)
	if !ok {
		t.Fatal("expected a cache hit after SetTopUsers")
	}
	if len(got) != 2 || got[0].UserID != "u1" || got[0].EloRating != 1900 {
		t.Errorf("cached ratings mismatch: %+v", got)
	}
}

func TestCacheCorruptEntryIsDiscarded(t *testing.T) {
	client := newTestRedis(t)
	cache := NewCache(client, time.Minute, nil)
	ctx := context.Background()

	limit := int(time.Now().UnixNano() % 1000000)
	key := "leaderboard:deals:" + strconv.Itoa(limit)
	if err := client.Set(ctx, key, "not cbor at all", time.Minute).Err(); err != nil {
		t.Fatal(err)
	}

	if _, ok := cache.GetTopDeals(ctx, limit); ok {
		t.Error("corrupt entry must read as a miss")
	}
	// The corrupt entry is deleted so it cannot poison later reads.
	if err := client.Get(ctx, key).Err(); err != redis.Nil {
		t.Errorf("corrupt entry should have been deleted, Get err = %v", err)
	}
}

func TestServiceFallsThroughCacheMiss(t *testing.T) {
	client := newTestRedis(t)
	cache := NewCache(client, time.Minute, nil)
	ctx := context.Background()
	defer cache.Invalidate(ctx)

	deals := deal.NewInMemoryStore()
	ratings := reputation.NewInMemoryUserRatingStore()
	seedDeals(t, deals)

	svc := NewService(Config{Cache: cache}, deals, ratings)

	// First read misses the cache and hits the store.
	first, err := svc.TopDeals(ctx, 50)
	if err != nil {
		t.Fatalf("TopDeals failed: %v", err)
	}
	if len(first) != 3 || first[0].Deal.ID != "b" {
		t.Fatalf("unexpected first read: %+v", first)
	}

	// The snapshot is now cached; a direct cache read must hit.
	if _, ok := cache.GetTopDeals(ctx, 50); !ok {
		t.Error("expected snapshot to be cached after the first read")
	}

	// Second read is served from the cache and matches.
	second, err := svc.TopDeals(ctx, 50)
	if err != nil {
		t.Fatal(err)
	}
	if len(second) != len(first) || second[0].Deal.ID != first[0].Deal.ID {
		t.Errorf("cached read diverged: first %+v, second %+v", first, second)
	}
}
