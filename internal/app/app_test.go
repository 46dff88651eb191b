package app

import (
	"bytes"
	"context"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"sync"
	"testing"
	"time"

	"WallabagEnhancer/internal/config"
	"WallabagEnhancer/internal/domain"
	"WallabagEnhancer/internal/logging"
)

type wallabagStub struct {
	mu      sync.Mutex
	patches map[string]url.Values
}

func newWallabagStub(t *testing.T, videoURL string) (*httptest.Server, *wallabagStub) {
	t.Helper()

	stub := &wallabagStub{patches: map[string]url.Values{}}
	mux := http.NewServeMux()
	mux.HandleFunc("/oauth/v2/token", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"access_token":"tok","expires_in":3600}`))
	})
	mux.HandleFunc("/api/entries.json", func(w http.ResponseWriter, r *http.Request) {
		items := `[
			{"id":1,"url":"https://www.youtube.com/watch?url=` + url.QueryEscape(videoURL) + `","tags":[{"label":"News","slug":"news"}]},
			{"id":2,"url":"https://example.com/done","tags":[{"label":"processed","slug":"processed"}]},
			{"id":3,"url":"https://example.com/plain","tags":[]}
		]`
		_, _ = w.Write([]byte(`{"page":1,"pages":1,"total":3,"_embedded":{"items":` + items + `}}`))
	})
	mux.HandleFunc("/api/entries/", func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPatch {
			w.WriteHeader(http.StatusMethodNotAllowed)
			return
		}
		if err := r.ParseForm(); err != nil {
			t.Errorf("parse form: %v", err)
		}
		id := strings.TrimSuffix(strings.TrimPrefix(r.URL.Path, "/api/entries/"), ".json")
		stub.mu.Lock()
		stub.patches[id] = r.PostForm
		stub.mu.Unlock()
		_, _ = w.Write([]byte(`{}`))
	})

	server := httptest.NewServer(mux)
	t.Cleanup(server.Close)
	return server, stub
}

func testConfig(host string) config.Config {
	return config.Config{
		Credentials: config.Credentials{Host: host, ClientID: "c", ClientSecret: "s", Username: "u", Password: "p"},
		Wallabag: config.WallabagConfig{
			PerPage:        10,
			RequestTimeout: 2 * time.Second,
			MaxRetries:     1,
			BackoffInitial: time.Millisecond,
			BackoffMax:     time.Millisecond,
		},
		Pipeline:  config.PipelineConfig{Workers: 2, ArticleTimeout: 5 * time.Second},
		Fetch:     config.FetchConfig{Timeout: 2 * time.Second, UserAgent: "test", MaxContentLength: 100},
		Enhancers: []string{"youtube"},
		Scheduler: config.SchedulerConfig{CronExpression: "0 * * * *"},
	}
}

func TestRunEnrichesAgainstWallabag(t *testing.T) {
	t.Parallel()

	video := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`<html><head><meta name="description" content="A talk about Go"></head></html>`))
	}))
	defer video.Close()

	server, stub := newWallabagStub(t, video.URL+"/v")

	var logs bytes.Buffer
	application, err := New(testConfig(server.URL), logging.NewWithWriter(&logs, "debug", "text"))
	if err != nil {
		t.Fatalf("New error: %v", err)
	}

	report, err := application.Run(context.Background())
	if err != nil {
		t.Fatalf("Run error: %v", err)
	}
	if report.Total != 3 || report.Count(domain.StatusProcessed) != 2 || report.Count(domain.StatusSkipped) != 1 {
		t.Fatalf("unexpected report %+v", report)
	}

	stub.mu.Lock()
	defer stub.mu.Unlock()

	first := stub.patches["1"]
	if first.Get("tags") != "news,processed" || first.Get("origin_url") != video.URL+"/v" || first.Get("content") != "A talk about Go" {
		t.Fatalf("unexpected patch for 1: %v", first)
	}
	if _, ok := stub.patches["2"]; ok {
		t.Fatalf("processed article must not be patched")
	}
	third := stub.patches["3"]
	if third.Get("tags") != "processed" || third.Has("origin_url") || third.Has("content") {
		t.Fatalf("unexpected patch for 3: %v", third)
	}

	if !strings.Contains(logs.String(), "run finished") {
		t.Fatalf("expected run summary in logs: %s", logs.String())
	}
}

func TestNewRejectsUnknownEnhancer(t *testing.T) {
	t.Parallel()

	cfg := testConfig("https://wallabag.example.org")
	cfg.Enhancers = []string{"youtube", "vimeo"}
	if _, err := New(cfg, logging.NewWithWriter(&bytes.Buffer{}, "error", "text")); err == nil {
		t.Fatalf("expected error for unknown enhancer")
	}
}

func TestRegistryOrder(t *testing.T) {
	t.Parallel()

	all := NewRegistry(testConfig("")).All()
	if len(all) != 2 || all[0].Name() != "youtube" || all[1].Name() != "readability" {
		t.Fatalf("unexpected registry order")
	}
}

func TestScheduleRejectsBadCron(t *testing.T) {
	t.Parallel()

	cfg := testConfig("https://wallabag.example.org")
	cfg.Scheduler.CronExpression = "whenever"
	application, err := New(cfg, logging.NewWithWriter(&bytes.Buffer{}, "error", "text"))
	if err != nil {
		t.Fatalf("New error: %v", err)
	}
	if err := application.Schedule(context.Background(), false); err == nil {
		t.Fatalf("expected cron parse error")
	}
}

func TestScheduleReturnsOnCancel(t *testing.T) {
	t.Parallel()

	application, err := New(testConfig("https://wallabag.example.org"), logging.NewWithWriter(&bytes.Buffer{}, "error", "text"))
	if err != nil {
		t.Fatalf("New error: %v", err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- application.Schedule(ctx, false) }()

	time.Sleep(20 * time.Millisecond)
	cancel()

	select {
	case err := <-done:
		if err != nil {
			t.Fatalf("Schedule error: %v", err)
		}
	case <-time.After(5 * time.Second):
		t.Fatalf("Schedule did not return after cancel")
	}
}
