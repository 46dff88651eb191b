package enhancers

import (
	"context"
	"fmt"
	"net/url"
	"strings"

	"github.com/go-shiori/go-readability"

	"WallabagEnhancer/internal/domain"
	"WallabagEnhancer/internal/enhancer"
)

const defaultMaxContentLen = 20000

// ReadabilityEnhancer fills in content for articles the service saved without
// a body, using the readable text of the article page.
type ReadabilityEnhancer struct {
	maxContentLen int
}

var _ enhancer.Enhancer = (*ReadabilityEnhancer)(nil)

// NewReadabilityEnhancer caps extracted text at maxContentLen runes; <=0 uses the default.
func NewReadabilityEnhancer(maxContentLen int) *ReadabilityEnhancer {
	if maxContentLen <= 0 {
		maxContentLen = defaultMaxContentLen
	}
	return &ReadabilityEnhancer{maxContentLen: maxContentLen}
}

// Name identifies the enhancer inside the registry.
func (r *ReadabilityEnhancer) Name() string {
	return "readability"
}

// Applies matches http(s) articles whose content is empty.
func (r *ReadabilityEnhancer) Applies(article domain.Article) bool {
	if strings.TrimSpace(article.Content) != "" {
		return false
	}
	_, ok := httpURL(article.URL)
	return ok
}

// Enrich fetches the article page and extracts its readable text.
func (r *ReadabilityEnhancer) Enrich(ctx context.Context, article domain.Article, fetcher enhancer.Fetcher) (domain.Enrichment, error) {
	var out domain.Enrichment

	pageURL, ok := httpURL(article.URL)
	if !ok {
		return out, nil
	}

	html, err := fetcher.Fetch(ctx, article.URL)
	if err != nil {
		return out, fmt.Errorf("fetch %s: %w", article.URL, err)
	}

	parsed, err := readability.FromReader(strings.NewReader(html), pageURL)
	if err != nil {
		return out, fmt.Errorf("parse content: %w", err)
	}

	text := strings.TrimSpace(parsed.TextContent)
	if text == "" {
		return out, nil
	}
	if runes := []rune(text); len(runes) > r.maxContentLen {
		text = string(runes[:r.maxContentLen])
	}
	out.Content = domain.StringPtr(text)

	return out, nil
}

func httpURL(raw string) (*url.URL, bool) {
	if strings.TrimSpace(raw) == "" {
		return nil, false
	}
	parsed, err := url.Parse(raw)
	if err != nil || parsed.Host == "" {
		return nil, false
	}
	if parsed.Scheme != "http" && parsed.Scheme != "https" {
		return nil, false
	}
	return parsed, true
}
