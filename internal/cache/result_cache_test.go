package cache

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/shopspring/decimal"

	"github.com/joseph-ayodele/invoice-autofill/internal/pipeline"
)

type memStore struct {
	data    map[string]string
	ttl     time.Duration
	failGet error
}

func newMemStore() *memStore { return &memStore{data: map[string]string{}} }

func (m *memStore) Get(_ context.Context, key string) *redis.StringCmd {
	if m.failGet != nil {
		return redis.NewStringResult("", m.failGet)
	}
	v, ok := m.data[key]
	if !ok {
		return redis.NewStringResult("", redis.Nil)
	}
	return redis.NewStringResult(v, nil)
}

func (m *memStore) Set(_ context.Context, key string, value interface{}, expiration time.Duration) *redis.StatusCmd {
	m.data[key] = string(value.([]byte))
	m.ttl = expiration
	return redis.NewStatusResult("OK", nil)
}

func (m *memStore) Ping(context.Context) *redis.StatusCmd {
	return redis.NewStatusResult("PONG", nil)
}

func okResult() pipeline.ExtractionResult {
	return pipeline.ExtractionResult{
		OK: true,
		Data: &pipeline.InvoiceRecord{
			Amount:       decimal.RequireFromString("12345.5"),
			Currency:     "HUF",
			DueDate:      "2025-02-10",
			ProviderName: "MVM Next Energiakereskedelmi Zrt.",
		},
		Debug: &pipeline.Diagnostics{RequestID: "req-1"},
	}
}

func TestContentHash(t *testing.T) {
	// sha256("abc")
	want := "ba7816bf8f01cfea414140de5dae2223b00361a396177a9cb410ff61f20015ad"
	if got := ContentHash([]byte("abc")); got != want {
		t.Fatalf("ContentHash = %s, want %s", got, want)
	}
	if got := Key("ab"); got != "invoice:result:ab" {
		t.Fatalf("Key = %s", got)
	}
}

func TestResultCacheRoundTrip(t *testing.T) {
	ctx := context.Background()
	st := newMemStore()
	c := newResultCache(st, time.Hour, nil)

	if _, hit, err := c.Get(ctx, "h1"); hit || err != nil {
		t.Fatalf("empty cache: hit=%v err=%v", hit, err)
	}
	if err := c.Put(ctx, "h1", okResult()); err != nil {
		t.Fatalf("Put: %v", err)
	}
	if st.ttl != time.Hour {
		t.Fatalf("ttl = %v", st.ttl)
	}
	got, hit, err := c.Get(ctx, "h1")
	if err != nil || !hit {
		t.Fatalf("Get: hit=%v err=%v", hit, err)
	}
	if !got.OK || got.Data == nil || !got.Data.Amount.Equal(decimal.RequireFromString("12345.5")) {
		t.Fatalf("unexpected cached result: %+v", got)
	}
	if got.Data.ProviderName != "MVM Next Energiakereskedelmi Zrt." {
		t.Fatalf("name = %q", got.Data.ProviderName)
	}
	if got.Debug != nil {
		t.Fatal("diagnostics must not be cached")
	}
}

func TestResultCacheSkipsFailures(t *testing.T) {
	st := newMemStore()
	c := newResultCache(st, 0, nil)
	if c.ttl != DefaultTTL {
		t.Fatalf("default ttl = %v", c.ttl)
	}
	err := c.Put(context.Background(), "h", pipeline.ExtractionResult{OK: false, Error: "x"})
	if err != nil {
		t.Fatalf("Put: %v", err)
	}
	if len(st.data) != 0 {
		t.Fatalf("failed result was cached: %v", st.data)
	}
}

func TestResultCacheErrors(t *testing.T) {
	st := newMemStore()
	st.failGet = errors.New("connection refused")
	c := newResultCache(st, time.Minute, nil)
	if _, hit, err := c.Get(context.Background(), "h"); err == nil || hit {
		t.Fatalf("want error, got hit=%v err=%v", hit, err)
	}

	st.failGet = nil
	st.data[Key("bad")] = "{not json"
	if _, hit, err := c.Get(context.Background(), "bad"); err != nil || hit {
		t.Fatalf("corrupt entry should be a miss: hit=%v err=%v", hit, err)
	}
}

func TestNilCacheIsDisabled(t *testing.T) {
	var c *ResultCache
	ctx := context.Background()
	if _, hit, err := c.Get(ctx, "h"); hit || err != nil {
		t.Fatalf("nil Get: hit=%v err=%v", hit, err)
	}
	if err := c.Put(ctx, "h", okResult()); err != nil {
		t.Fatalf("nil Put: %v", err)
	}
	if err := c.Ping(ctx); err != nil {
		t.Fatalf("nil Ping: %v", err)
	}
}
