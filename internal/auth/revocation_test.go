package auth

import (
	"context"
	"os"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
)

func TestMemoryRevocationsMarkOnce(t *testing.T) {
	now := time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)
	set := NewMemoryRevocations(func() time.Time { return now })
	ctx := context.Background()

	if first, err := set.Revoke(ctx, "jti-1", now.Add(time.Hour)); err != nil || !first {
		t.Fatalf("first Revoke = %v, %v", first, err)
	}
	if first, _ := set.Revoke(ctx, "jti-1", now.Add(time.Hour)); first {
		t.Fatal("second Revoke of jti-1 must report already used")
	}
	if first, _ := set.Revoke(ctx, "jti-2", now.Add(time.Hour)); !first {
		t.Fatal("jti-2 was never used")
	}

	now = now.Add(2 * time.Hour)
	_, _ = set.Revoke(ctx, "jti-3", now.Add(time.Minute))
	if _, ok := set.entries["jti-1"]; ok {
		t.Fatal("expected stale entry swept")
	}
}

func TestMemoryRevocationsConcurrent(t *testing.T) {
	set := NewMemoryRevocations(nil)
	ctx := context.Background()
	until := time.Now().Add(time.Hour)

	var (
		wg   sync.WaitGroup
		mu   sync.Mutex
		wins int
	)
	for i := 0; i < 32; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			first, err := set.Revoke(ctx, "shared", until)
			if err != nil {
				t.Errorf("Revoke: %v", err)
				return
			}
			if first {
				mu.Lock()
				wins++
				mu.Unlock()
			}
		}()
	}
	wg.Wait()
	if wins != 1 {
		t.Fatalf("expected one winner, got %d", wins)
	}
}

func TestRedisRevocationsMarkOnce(t *testing.T) {
	url := os.Getenv("NEWCON_TEST_REDIS_URL")
	if url == "" {
		t.Skip("NEWCON_TEST_REDIS_URL not set")
	}
	opt, err := redis.ParseURL(url)
	if err != nil {
		t.Fatalf("ParseURL: %v", err)
	}
	client := redis.NewClient(opt)
	defer client.Close()

	ctx := context.Background()
	set := NewRedisRevocations(client, "newcon:test:revoked:")
	jti := uuid.NewString()
	t.Cleanup(func() { client.Del(context.Background(), "newcon:test:revoked:"+jti) })

	first, err := set.Revoke(ctx, jti, time.Now().Add(time.Minute))
	if err != nil || !first {
		t.Fatalf("first Revoke = %v, %v", first, err)
	}
	if first, err := set.Revoke(ctx, jti, time.Now().Add(time.Minute)); err != nil || first {
		t.Fatalf("second Revoke = %v, %v", first, err)
	}
}
