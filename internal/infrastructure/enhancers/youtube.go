package enhancers

import (
	"context"
	"fmt"
	"net/url"
	"regexp"
	"strings"

	"github.com/PuerkitoBio/goquery"

	"WallabagEnhancer/internal/domain"
	"WallabagEnhancer/internal/enhancer"
)

var youtubeExpr = regexp.MustCompile(`^https?://(.*)youtube\.com/(.*)`)

// YouTubeEnhancer handles youtube links that wrap another page in a `url`
// query parameter (redirect and shared-link pages). The wrapped page becomes
// the origin URL and its meta description becomes the content.
type YouTubeEnhancer struct{}

var _ enhancer.Enhancer = (*YouTubeEnhancer)(nil)

// NewYouTubeEnhancer returns the enhancer; it holds no state.
func NewYouTubeEnhancer() *YouTubeEnhancer {
	return &YouTubeEnhancer{}
}

// Name identifies the enhancer inside the registry.
func (y *YouTubeEnhancer) Name() string {
	return "youtube"
}

// Applies matches any http(s) URL on a youtube.com host.
func (y *YouTubeEnhancer) Applies(article domain.Article) bool {
	return youtubeExpr.MatchString(article.URL)
}

// Enrich extracts the wrapped target URL and the target page's description.
func (y *YouTubeEnhancer) Enrich(ctx context.Context, article domain.Article, fetcher enhancer.Fetcher) (domain.Enrichment, error) {
	var out domain.Enrichment

	parsed, err := url.Parse(article.URL)
	if err != nil {
		return out, fmt.Errorf("parse article url: %w", err)
	}

	target := strings.TrimSpace(parsed.Query().Get("url"))
	if target == "" {
		return out, nil
	}
	out.OriginURL = domain.StringPtr(target)

	html, err := fetcher.Fetch(ctx, target)
	if err != nil {
		return out, fmt.Errorf("fetch %s: %w", target, err)
	}

	description, ok, err := metaDescription(html)
	if err != nil {
		return out, err
	}
	if ok {
		out.Content = domain.StringPtr(description)
	}

	return out, nil
}

// metaDescription returns the content of the first <meta name="description">.
func metaDescription(html string) (string, bool, error) {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(html))
	if err != nil {
		return "", false, fmt.Errorf("parse document: %w", err)
	}

	meta := doc.Find(`meta[name="description"]`).First()
	if meta.Length() == 0 {
		return "", false, nil
	}
	content, ok := meta.Attr("content")
	return content, ok, nil
}
