package redisstore

import (
	"context"
	"os"
	"testing"
	"time"

	"github.com/connectus/newcon-mock/internal/ids"
	"github.com/connectus/newcon-mock/internal/ledger"
)

func TestDecodeRestoresKey(t *testing.T) {
	raw := `{"id":"x1","recorded_at":"2024-05-01T10:00:00Z","consultation":{"cpf_cnpj":"12345678901","dataConsultaServidor":"2024-05-01","status_code":200,"validacao_docs":{}}}`
	rec, err := decode("12345678901", raw)
	if err != nil {
		t.Fatalf("decode: %v", err)
	}
	if rec.ID != "x1" || rec.Key != "12345678901" || rec.StatusCode != 200 {
		t.Fatalf("unexpected record: %#v", rec)
	}
	if _, err := decode("k", "{"); err == nil {
		t.Fatal("expected decode error")
	}
}

// TestRoundTrip runs against a live server when NEWCON_TEST_REDIS_URL is set.
func TestRoundTrip(t *testing.T) {
	url := os.Getenv("NEWCON_TEST_REDIS_URL")
	if url == "" {
		t.Skip("NEWCON_TEST_REDIS_URL not set")
	}
	s, err := Open(url, "newcon:test:"+ids.NewAt(time.Now())+":")
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	defer s.Close()
	ctx := context.Background()
	if err := s.Ping(ctx); err != nil {
		t.Skipf("redis unreachable: %v", err)
	}

	key := ledger.Key("12345678901")
	base := time.Now().UTC().Truncate(time.Second)
	for i := 0; i < 3; i++ {
		rec := ledger.Record{ID: ids.NewAt(time.Now()), Key: key, RecordedAt: base.Add(time.Duration(i) * time.Hour),
			Consultation: ledger.Consultation{StatusCode: i}}
		if err := s.Append(ctx, rec); err != nil {
			t.Fatalf("Append: %v", err)
		}
	}
	defer s.client.Del(ctx, s.key(key))

	latest, err := s.Latest(ctx, key)
	if err != nil || latest.StatusCode != 2 {
		t.Fatalf("Latest: %#v %v", latest, err)
	}
	if err := s.Prune(ctx, key, base.Add(90*time.Minute)); err != nil {
		t.Fatalf("Prune: %v", err)
	}
	recs, err := s.History(ctx, key)
	if err != nil || len(recs) != 1 {
		t.Fatalf("History after prune: %d %v", len(recs), err)
	}
	if _, err := s.Latest(ctx, "00000000000"); err != ledger.ErrNotFound {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}
