package bootstrap

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"sync/atomic"
	"testing"

	gai "github.com/OFFIS-RIT/factgraph/pkg/ai/openai"
	oai "github.com/OFFIS-RIT/factgraph/pkg/ai/ollama"
	"github.com/OFFIS-RIT/factgraph/pkg/graph/memory"
	"github.com/OFFIS-RIT/factgraph/pkg/scrape"
	"github.com/OFFIS-RIT/factgraph/pkg/store/sqldb"
)

func TestNewClaimStorage_SQLite(t *testing.T) {
	t.Setenv("DB_DRIVER", "sqlite")
	t.Setenv("SQLDB_PATH", filepath.Join(t.TempDir(), "nested", "claims.db"))

	s, err := NewClaimStorage(context.Background())
	if err != nil {
		t.Fatalf("NewClaimStorage failed: %v", err)
	}
	defer s.Close()
	if s.Driver() != sqldb.DriverSQLite {
		t.Fatalf("unexpected driver %s", s.Driver())
	}
}

func TestNewClaimStorage_PostgresNeedsURL(t *testing.T) {
	t.Setenv("DB_DRIVER", "postgres")
	t.Setenv("DATABASE_URL", "")
	if _, err := NewClaimStorage(context.Background()); err == nil {
		t.Fatal("expected error without DATABASE_URL")
	}
}

func TestNewGraphStore(t *testing.T) {
	t.Setenv("GRAPH_ADAPTER", "memory")
	store, err := NewGraphStore(context.Background())
	if err != nil {
		t.Fatal(err)
	}
	if _, ok := store.(*memory.GraphMemoryStorage); !ok {
		t.Fatalf("expected memory store, got %T", store)
	}

	t.Setenv("GRAPH_ADAPTER", "unknown")
	if _, err := NewGraphStore(context.Background()); err == nil {
		t.Fatal("expected error for unknown adapter")
	}
}

func TestNewAIClient(t *testing.T) {
	t.Setenv("AI_CHAT_MODEL", "")
	client, err := NewAIClient()
	if err != nil || client != nil {
		t.Fatalf("expected no client without model, got %v, %v", client, err)
	}
	s, err := NewSummarizer(client)
	if err != nil || s != nil {
		t.Fatalf("expected no summarizer without client, got %v, %v", s, err)
	}
	if e, err := NewEntityExtractor(client); err != nil || e != nil {
		t.Fatalf("expected no extractor without client, got %v, %v", e, err)
	}

	t.Setenv("AI_CHAT_MODEL", "llama3")
	t.Setenv("AI_ADAPTER", "ollama")
	client, err = NewAIClient()
	if err != nil {
		t.Fatal(err)
	}
	if _, ok := client.(*oai.ChatOllamaClient); !ok {
		t.Fatalf("expected ollama client, got %T", client)
	}

	t.Setenv("AI_ADAPTER", "openai")
	client, err = NewAIClient()
	if err != nil {
		t.Fatal(err)
	}
	if _, ok := client.(*gai.ChatOpenAIClient); !ok {
		t.Fatalf("expected openai client, got %T", client)
	}
	if s, err := NewSummarizer(client); err != nil || s == nil {
		t.Fatalf("expected summarizer, got %v, %v", s, err)
	}
	if e, err := NewEntityExtractor(client); err != nil || e == nil {
		t.Fatalf("expected extractor, got %v, %v", e, err)
	}

	t.Setenv("AI_ADAPTER", "other")
	if _, err := NewAIClient(); err == nil {
		t.Fatal("expected error for unknown adapter")
	}
}

func TestNewScraper(t *testing.T) {
	var fetched atomic.Bool
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/robots.txt":
			w.Write([]byte("User-agent: *\nDisallow: /\n"))
		case "/search":
			w.Write([]byte(`<a class="result__a" href="https://example.org/a">A</a>`))
		default:
			fetched.Store(true)
			w.Header().Set("Content-Type", "text/plain")
			w.Write([]byte("page"))
		}
	}))
	defer srv.Close()

	t.Setenv("SEARCH_URL", srv.URL+"/search")
	t.Setenv("SCRAPE_RESPECT_ROBOTS", "true")
	s := NewScraper()
	results, err := s.Search(context.Background(), "q", 5)
	if err != nil || len(results) != 1 || results[0].URL != "https://example.org/a" {
		t.Fatalf("unexpected search results %+v, %v", results, err)
	}
	if _, err := s.Extract(context.Background(), srv.URL+"/page"); !errors.Is(err, scrape.ErrDisallowed) {
		t.Fatalf("expected robots.txt to be respected, got %v", err)
	}
	if fetched.Load() {
		t.Fatal("page behind Disallow was fetched")
	}

	t.Setenv("SCRAPE_RESPECT_ROBOTS", "false")
	if _, err := NewScraper().Extract(context.Background(), srv.URL+"/page"); err != nil {
		t.Fatalf("expected robots check to be off, got %v", err)
	}
}
