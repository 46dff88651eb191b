package wallabag

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"WallabagEnhancer/internal/domain"
	"WallabagEnhancer/internal/ports"
	"WallabagEnhancer/internal/retry"
)

const defaultPerPage = 3000

// Config carries credentials and transport settings for one wallabag instance.
type Config struct {
	Host         string
	ClientID     string
	ClientSecret string
	Username     string
	Password     string

	// PerPage is the page size of the entries listing.
	PerPage int
	Policy  retry.Policy
}

// Service implements ports.ArticleService against the wallabag REST API.
type Service struct {
	cfg    Config
	host   string
	client *http.Client
	logger *slog.Logger
}

var _ ports.ArticleService = (*Service)(nil)

// NewService wires an HTTP client; a nil client gets a 30s timeout.
func NewService(cfg Config, client *http.Client, logger *slog.Logger) *Service {
	if client == nil {
		client = &http.Client{Timeout: 30 * time.Second}
	}
	if cfg.PerPage <= 0 {
		cfg.PerPage = defaultPerPage
	}
	return &Service{
		cfg:    cfg,
		host:   normalizeHost(cfg.Host),
		client: client,
		logger: logger,
	}
}

// Open exchanges the configured credentials for a bearer token.
func (s *Service) Open(ctx context.Context) (ports.ArticleSession, error) {
	if s.host == "" {
		return nil, fmt.Errorf("wallabag host is not configured")
	}

	form := url.Values{}
	form.Set("grant_type", "password")
	form.Set("client_id", s.cfg.ClientID)
	form.Set("client_secret", s.cfg.ClientSecret)
	form.Set("username", s.cfg.Username)
	form.Set("password", s.cfg.Password)

	var token tokenResponse
	if err := s.do(ctx, "token", http.MethodPost, "/oauth/v2/token", "", nil, form, &token); err != nil {
		return nil, fmt.Errorf("authenticate: %w", err)
	}
	if strings.TrimSpace(token.AccessToken) == "" {
		return nil, fmt.Errorf("authenticate: empty access token")
	}

	s.debug("authenticated", "host", s.host, "expires_in", token.ExpiresIn)
	return &Session{service: s, token: token.AccessToken}, nil
}

// Session is an authenticated wallabag session.
type Session struct {
	service *Service
	token   string
}

var _ ports.ArticleSession = (*Session)(nil)

// Entries lists all non-deleted entries, newest first, following pagination.
func (s *Session) Entries(ctx context.Context) ([]domain.Article, error) {
	var articles []domain.Article
	for page := 1; ; page++ {
		var resp entriesResponse
		if err := s.service.do(ctx, "entries", http.MethodGet, "/api/entries.json", s.token, entriesQuery(page, s.service.cfg.PerPage), nil, &resp); err != nil {
			return nil, fmt.Errorf("list entries page %d: %w", page, err)
		}

		for _, item := range resp.Embedded.Items {
			articles = append(articles, item.toDomain())
		}
		s.service.debug("entries page", "page", page, "pages", resp.Pages, "items", len(resp.Embedded.Items), "total", resp.Total)

		if len(resp.Embedded.Items) == 0 || resp.Pages <= page {
			break
		}
	}
	return articles, nil
}

// Update patches one entry. Tags replace the entry's tag set.
func (s *Session) Update(ctx context.Context, articleID string, payload domain.Payload) error {
	if strings.TrimSpace(articleID) == "" {
		return fmt.Errorf("update entry: empty id")
	}
	path := fmt.Sprintf("/api/entries/%s.json", url.PathEscape(articleID))
	if err := s.service.do(ctx, "update", http.MethodPatch, path, s.token, nil, patchForm(payload), nil); err != nil {
		return fmt.Errorf("update entry %s: %w", articleID, err)
	}
	return nil
}

// Close releases idle connections held by the session's client.
func (s *Session) Close() error {
	s.service.client.CloseIdleConnections()
	return nil
}

func entriesQuery(page, perPage int) url.Values {
	q := url.Values{}
	q.Set("delete", "0")
	q.Set("sort", "created")
	q.Set("order", "desc")
	q.Set("page", strconv.Itoa(page))
	q.Set("perPage", strconv.Itoa(perPage))
	q.Set("tags", "")
	return q
}

func patchForm(payload domain.Payload) url.Values {
	form := url.Values{}
	form.Set("tags", strings.Join(payload.Tags, ","))
	if payload.OriginURL != nil {
		form.Set("origin_url", *payload.OriginURL)
	}
	if payload.Content != nil {
		form.Set("content", *payload.Content)
	}
	return form
}

func (s *Service) do(ctx context.Context, op, method, path, token string, query, form url.Values, v any) error {
	return retry.Do(ctx, s.cfg.Policy, func(ctx context.Context) error {
		endpoint := s.host + path
		if len(query) > 0 {
			endpoint += "?" + query.Encode()
		}

		var body io.Reader
		if form != nil {
			body = strings.NewReader(form.Encode())
		}

		req, err := http.NewRequestWithContext(ctx, method, endpoint, body)
		if err != nil {
			return fmt.Errorf("new request: %w", err)
		}
		req.Header.Set("Accept", "application/json")
		if form != nil {
			req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
		}
		if token != "" {
			req.Header.Set("Authorization", "Bearer "+token)
		}

		resp, err := s.client.Do(req)
		if err != nil {
			return fmt.Errorf("do request: %w", err)
		}
		defer resp.Body.Close()

		if resp.StatusCode/100 != 2 {
			b, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
			herr := newHTTPError(op, resp, b)
			if herr.Retryable() {
				return retry.Transient(herr)
			}
			return herr
		}

		if v == nil {
			_, _ = io.Copy(io.Discard, resp.Body)
			return nil
		}
		if err := json.NewDecoder(resp.Body).Decode(v); err != nil {
			return fmt.Errorf("decode %s response: %w", op, err)
		}
		return nil
	})
}

func normalizeHost(host string) string {
	host = strings.TrimSpace(host)
	if host == "" {
		return ""
	}
	if !strings.Contains(host, "://") {
		host = "https://" + host
	}
	return strings.TrimRight(host, "/")
}

func (s *Service) debug(msg string, args ...any) {
	if s.logger != nil {
		s.logger.Debug(msg, args...)
	}
}
