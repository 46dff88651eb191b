package enhancer

import (
	"context"
	"testing"

	"WallabagEnhancer/internal/domain"
)

type namedEnhancer struct {
	name string
	tag  string
}

func (n namedEnhancer) Name() string                 { return n.name }
func (n namedEnhancer) Applies(domain.Article) bool { return true }
func (n namedEnhancer) Enrich(context.Context, domain.Article, Fetcher) (domain.Enrichment, error) {
	return domain.Enrichment{Content: domain.StringPtr(n.tag)}, nil
}

func TestRegistryKeepsOrderAndReplacesInPlace(t *testing.T) {
	t.Parallel()

	reg := NewRegistry(namedEnhancer{name: "a", tag: "1"}, namedEnhancer{name: "b"}, namedEnhancer{name: "c"})
	reg.Register(namedEnhancer{name: "a", tag: "2"})

	all := reg.All()
	if len(all) != 3 {
		t.Fatalf("expected 3 enhancers, got %d", len(all))
	}
	for i, want := range []string{"a", "b", "c"} {
		if all[i].Name() != want {
			t.Fatalf("position %d: got %s, want %s", i, all[i].Name(), want)
		}
	}
	if all[0].(namedEnhancer).tag != "2" {
		t.Fatalf("expected replacement to keep position")
	}
}

func TestRegistrySelect(t *testing.T) {
	t.Parallel()

	reg := NewRegistry(namedEnhancer{name: "a"}, namedEnhancer{name: "b"})

	selected, err := reg.Select([]string{"b", "a"})
	if err != nil {
		t.Fatalf("Select error: %v", err)
	}
	if len(selected) != 2 || selected[0].Name() != "b" || selected[1].Name() != "a" {
		t.Fatalf("unexpected selection order: %v", selected)
	}

	if _, err := reg.Select([]string{"missing"}); err == nil {
		t.Fatalf("expected error for unknown enhancer")
	}
}

func TestFetchFunc(t *testing.T) {
	t.Parallel()

	var f Fetcher = FetchFunc(func(_ context.Context, url string) (string, error) {
		return "<html>" + url + "</html>", nil
	})
	got, err := f.Fetch(context.Background(), "x")
	if err != nil || got != "<html>x</html>" {
		t.Fatalf("unexpected fetch result %q %v", got, err)
	}
}
