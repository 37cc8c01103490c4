package app

import (
	"context"
	"fmt"
	"testing"

	"shelfmark/pkg/domain"
	"shelfmark/pkg/storage"
	"shelfmark/pkg/store"
)

type fakeCatalog struct {
	searchFn func(ctx context.Context, query string, maxResults int) ([]domain.Candidate, int, error)
	fetchFn  func(ctx context.Context, volumeID string) (domain.Candidate, error)
}

func (f *fakeCatalog) Search(ctx context.Context, query string, maxResults int) ([]domain.Candidate, int, error) {
	if f.searchFn == nil {
		return nil, 0, fmt.Errorf("unexpected Search call")
	}
	return f.searchFn(ctx, query, maxResults)
}

func (f *fakeCatalog) FetchByID(ctx context.Context, volumeID string) (domain.Candidate, error) {
	if f.fetchFn == nil {
		return domain.Candidate{}, fmt.Errorf("unexpected FetchByID call")
	}
	return f.fetchFn(ctx, volumeID)
}

func newTestApp(t *testing.T) (*App, *store.MemoryStore, *storage.MemoryObjectStore, *fakeCatalog) {
	t.Helper()
	st := store.NewMemoryStore()
	objects := storage.NewMemoryObjectStore()
	catalog := &fakeCatalog{}
	a, err := New(Config{Store: st, Objects: objects, Catalog: catalog})
	if err != nil {
		t.Fatalf("new app: %v", err)
	}
	return a, st, objects, catalog
}
