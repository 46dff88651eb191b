package usecase

import (
	"context"
	"errors"
	"sync"

	"WallabagEnhancer/internal/domain"
	"WallabagEnhancer/internal/enhancer"
	"WallabagEnhancer/internal/ports"
)

type fakeService struct {
	session *fakeSession
	openErr error
	opened  int
}

func (f *fakeService) Open(context.Context) (ports.ArticleSession, error) {
	f.opened++
	if f.openErr != nil {
		return nil, f.openErr
	}
	return f.session, nil
}

// fakeSession behaves like the remote service: updates overwrite the stored
// tag set so a second run sees the result of the first.
type fakeSession struct {
	mu         sync.Mutex
	articles   []domain.Article
	entriesErr error
	updateErr  map[string]error
	updates    map[string]domain.Payload
	writes     int
	closed     bool
}

func newFakeSession(articles ...domain.Article) *fakeSession {
	return &fakeSession{articles: append([]domain.Article(nil), articles...), updates: map[string]domain.Payload{}, updateErr: map[string]error{}}
}

func (f *fakeSession) Entries(context.Context) ([]domain.Article, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.entriesErr != nil {
		return nil, f.entriesErr
	}
	return append([]domain.Article(nil), f.articles...), nil
}

func (f *fakeSession) Update(_ context.Context, id string, payload domain.Payload) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if err := f.updateErr[id]; err != nil {
		return err
	}
	f.writes++
	f.updates[id] = payload
	for i := range f.articles {
		if f.articles[i].ID != id {
			continue
		}
		tags := make([]domain.Tag, 0, len(payload.Tags))
		for _, slug := range payload.Tags {
			tags = append(tags, domain.Tag{Label: slug, Slug: slug})
		}
		f.articles[i].Tags = tags
	}
	return nil
}

func (f *fakeSession) Close() error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.closed = true
	return nil
}

type fakeEnhancer struct {
	name     string
	applies  func(domain.Article) bool
	enrich   func(context.Context, domain.Article, enhancer.Fetcher) (domain.Enrichment, error)
	mu       sync.Mutex
	enriched []string
}

func (f *fakeEnhancer) Name() string { return f.name }

func (f *fakeEnhancer) Applies(article domain.Article) bool {
	if f.applies == nil {
		return true
	}
	return f.applies(article)
}

func (f *fakeEnhancer) Enrich(ctx context.Context, article domain.Article, fetcher enhancer.Fetcher) (domain.Enrichment, error) {
	f.mu.Lock()
	f.enriched = append(f.enriched, article.ID)
	f.mu.Unlock()
	if f.enrich == nil {
		return domain.Enrichment{}, nil
	}
	return f.enrich(ctx, article, fetcher)
}

type fakeNotifier struct {
	reports []domain.Report
	err     error
}

func (f *fakeNotifier) PublishReport(_ context.Context, report domain.Report) error {
	f.reports = append(f.reports, report)
	return f.err
}

var errNetwork = errors.New("network unreachable")
