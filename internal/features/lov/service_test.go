package lov

import (
	"context"
	"errors"
	"testing"
	"time"

	"go.uber.org/zap"

	"github.com/peatiscoding/cadence-sub000/internal/features/workflow"
)

type memoryRepo struct {
	data map[string]*CachedData
}

func newMemoryRepo() *memoryRepo {
	return &memoryRepo{data: map[string]*CachedData{}}
}

func (m *memoryRepo) Get(ctx context.Context, cacheKey string) (*CachedData, error) {
	if d, ok := m.data[cacheKey]; ok {
		return d, nil
	}
	return nil, ErrCacheMiss
}

func (m *memoryRepo) Put(ctx context.Context, data *CachedData) error {
	m.data[data.CacheKey] = data
	return nil
}

func (m *memoryRepo) Delete(ctx context.Context, cacheKey string) error {
	delete(m.data, cacheKey)
	return nil
}

type countingProvider struct {
	calls   int
	entries []Entry
	err     error
}

func (p *countingProvider) Fetch(ctx context.Context) ([]Entry, error) {
	p.calls++
	return p.entries, p.err
}

func newTestService(repo Repository, provider Provider) *ServiceImpl {
	return &ServiceImpl{
		Repo:   repo,
		Logger: zap.NewNop(),
		newProvider: func(src *workflow.LovSource) (Provider, error) {
			return provider, nil
		},
	}
}

func apiSource(url string) *workflow.LovSource {
	return &workflow.LovSource{
		Kind: SourceKindAPI,
		API:  &workflow.LovAPISource{URL: url, KeyPath: "id", LabelPath: "name"},
	}
}

func TestCacheKeyFor(t *testing.T) {
	explicit := &workflow.LovSource{Kind: SourceKindAPI, CacheKey: "countries"}
	key, err := CacheKeyFor(explicit)
	if err != nil {
		t.Fatal(err)
	}
	if key != "countries" {
		t.Fatalf("explicit cache key = %q", key)
	}

	a, err := CacheKeyFor(apiSource("https://x/v"))
	if err != nil {
		t.Fatal(err)
	}
	b, err := CacheKeyFor(apiSource("https://x/v"))
	if err != nil {
		t.Fatal(err)
	}
	if a != b {
		t.Fatalf("equal definitions hash differently: %q vs %q", a, b)
	}

	c, err := CacheKeyFor(apiSource("https://x/other"))
	if err != nil {
		t.Fatal(err)
	}
	if a == c {
		t.Fatal("different definitions share a cache key")
	}
}

func TestListServesFromCacheWhileFresh(t *testing.T) {
	repo := newMemoryRepo()
	provider := &countingProvider{entries: []Entry{{Key: "th", Label: "Thailand"}}}
	svc := newTestService(repo, provider)
	src := apiSource("https://x/v")

	for i := 0; i < 3; i++ {
		entries, err := svc.List(context.Background(), src, false)
		if err != nil {
			t.Fatal(err)
		}
		if len(entries) != 1 || entries[0].Key != "th" {
			t.Fatalf("entries = %v", entries)
		}
	}
	if provider.calls != 1 {
		t.Fatalf("provider called %d times, want 1", provider.calls)
	}
}

func TestListRefreshesExpiredCache(t *testing.T) {
	repo := newMemoryRepo()
	provider := &countingProvider{entries: []Entry{{Key: "th", Label: "Thailand"}}}
	svc := newTestService(repo, provider)
	src := apiSource("https://x/v")

	if _, err := svc.List(context.Background(), src, false); err != nil {
		t.Fatal(err)
	}

	key, _ := CacheKeyFor(src)
	repo.data[key].ExpiresAt = time.Now().Add(-time.Minute)

	if _, err := svc.List(context.Background(), src, false); err != nil {
		t.Fatal(err)
	}
	if provider.calls != 2 {
		t.Fatalf("provider called %d times, want 2", provider.calls)
	}
}

func TestListIgnoreCacheAlwaysFetches(t *testing.T) {
	repo := newMemoryRepo()
	provider := &countingProvider{entries: []Entry{{Key: "th", Label: "Thailand"}}}
	svc := newTestService(repo, provider)
	src := apiSource("https://x/v")

	if _, err := svc.List(context.Background(), src, false); err != nil {
		t.Fatal(err)
	}
	if _, err := svc.List(context.Background(), src, true); err != nil {
		t.Fatal(err)
	}
	if provider.calls != 2 {
		t.Fatalf("provider called %d times, want 2", provider.calls)
	}

	key, _ := CacheKeyFor(src)
	if repo.data[key].FetchedAt.IsZero() {
		t.Fatal("refresh did not rewrite the cache row")
	}
}

func TestListPropagatesProviderFailure(t *testing.T) {
	repo := newMemoryRepo()
	provider := &countingProvider{err: errors.New("upstream down")}
	svc := newTestService(repo, provider)

	if _, err := svc.List(context.Background(), apiSource("https://x/v"), false); err == nil {
		t.Fatal("expected provider error")
	}
	if len(repo.data) != 0 {
		t.Fatal("failed fetch must not populate the cache")
	}
}

func TestTTLFor(t *testing.T) {
	if got := TTLFor(SourceKindAPI); got != 30*time.Minute {
		t.Fatalf("api ttl = %v", got)
	}
	if got := TTLFor(SourceKindGoogleSheet); got != 120*time.Minute {
		t.Fatalf("sheet ttl = %v", got)
	}
	if got := TTLFor(SourceKindDatabase); got != 60*time.Minute {
		t.Fatalf("database ttl = %v", got)
	}
}
