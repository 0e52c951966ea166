package cli

import (
	"bytes"
	"context"
	"encoding/csv"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/OFFIS-RIT/factgraph/pkg/common"
)

func setupEnv(t *testing.T) string {
	t.Helper()
	dir := t.TempDir()
	t.Setenv("GRAPH_ADAPTER", "memory")
	t.Setenv("DB_DRIVER", "sqlite")
	t.Setenv("SQLDB_PATH", filepath.Join(dir, "claims.db"))
	t.Setenv("AI_CHAT_MODEL", "")
	return dir
}

func run(t *testing.T, args ...string) (string, error) {
	t.Helper()
	cmd := NewRootCmd()
	var out bytes.Buffer
	cmd.SetOut(&out)
	cmd.SetErr(&out)
	cmd.SetArgs(args)
	err := cmd.ExecuteContext(context.Background())
	return out.String(), err
}

const articlesJSON = `[
  {"title": "A", "url": "http://a", "body": "a", "site": "S1", "entities": ["E1"], "topics": ["T1"]},
  {"title": "B", "url": "http://b", "body": "b", "site": "S2", "entities": ["E1", "E2"], "topics": ["T1"]}
]`

func TestRenderWithArticles(t *testing.T) {
	dir := setupEnv(t)
	articles := filepath.Join(dir, "articles.json")
	if err := os.WriteFile(articles, []byte(articlesJSON), 0o644); err != nil {
		t.Fatal(err)
	}

	folder := filepath.Join(dir, "out")
	out, err := run(t, "render", folder, "--articles", articles)
	if err != nil {
		t.Fatalf("render failed: %v (%s)", err, out)
	}
	for _, rel := range common.Relations {
		if _, err := os.Stat(filepath.Join(folder, rel.FileName)); err != nil {
			t.Fatalf("missing %s: %v", rel.FileName, err)
		}
		if !strings.Contains(out, rel.FileName) {
			t.Fatalf("output does not list %s: %q", rel.FileName, out)
		}
	}
}

func TestLoad(t *testing.T) {
	dir := setupEnv(t)
	articles := filepath.Join(dir, "articles.json")
	if err := os.WriteFile(articles, []byte(articlesJSON), 0o644); err != nil {
		t.Fatal(err)
	}

	out, err := run(t, "load", articles, "--reset")
	if err != nil || !strings.Contains(out, "loaded 2 articles") {
		t.Fatalf("unexpected load result %q, %v", out, err)
	}

	if _, err := run(t, "load", filepath.Join(dir, "missing.json")); err == nil {
		t.Fatal("expected error for missing file")
	}
}

func TestMigrateAndExport(t *testing.T) {
	dir := setupEnv(t)

	if out, err := run(t, "migrate"); err != nil {
		t.Fatalf("migrate failed: %v (%s)", err, out)
	}

	file := filepath.Join(dir, "claims.csv")
	if out, err := run(t, "export", "claims", file); err != nil {
		t.Fatalf("export failed: %v (%s)", err, out)
	}
	f, err := os.Open(file)
	if err != nil {
		t.Fatal(err)
	}
	defer f.Close()
	rows, err := csv.NewReader(f).ReadAll()
	if err != nil {
		t.Fatal(err)
	}
	if len(rows) != 1 || rows[0][0] != "id" || rows[0][1] != "text" {
		t.Fatalf("unexpected rows %v", rows)
	}

	if _, err := run(t, "export", "answers", file); err == nil {
		t.Fatal("expected error for unknown export kind")
	}
}

func TestSummarizeWithoutAI(t *testing.T) {
	dir := setupEnv(t)
	file := filepath.Join(dir, "text.txt")
	if err := os.WriteFile(file, []byte("some text"), 0o644); err != nil {
		t.Fatal(err)
	}

	if _, err := run(t, "summarize", file); !errors.Is(err, errNoAI) {
		t.Fatalf("expected errNoAI, got %v", err)
	}
	if _, err := run(t, "rephrase", "text"); !errors.Is(err, errNoAI) {
		t.Fatalf("expected errNoAI, got %v", err)
	}
}

func TestScrape(t *testing.T) {
	setupEnv(t)
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/plain")
		w.Write([]byte("plain page"))
	}))
	defer srv.Close()

	if _, err := run(t, "migrate"); err != nil {
		t.Fatal(err)
	}
	if _, err := run(t, "scrape", srv.URL, "--claim", "missing"); err == nil {
		t.Fatal("expected error for unknown claim")
	}

	out, err := run(t, "scrape", srv.URL, "--topic", "T")
	if err != nil {
		t.Fatalf("scrape failed: %v", err)
	}
	var sources []common.SourceInput
	if err := json.Unmarshal([]byte(out), &sources); err != nil {
		t.Fatalf("invalid output %q: %v", out, err)
	}
	if len(sources) != 1 || sources[0].Body != "plain page" || sources[0].Topic != "T" {
		t.Fatalf("unexpected sources %+v", sources)
	}
}

func TestScrape_Search(t *testing.T) {
	setupEnv(t)
	var srv *httptest.Server
	srv = httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == "/search" {
			w.Header().Set("Content-Type", "text/html")
			w.Write([]byte(`<a class="result__a" href="` + srv.URL + `/first">First hit</a>` +
				`<a class="result__a" href="` + srv.URL + `/second">Second hit</a>`))
			return
		}
		w.Header().Set("Content-Type", "text/plain")
		w.Write([]byte("page " + r.URL.Path))
	}))
	defer srv.Close()
	t.Setenv("SEARCH_URL", srv.URL+"/search")

	if _, err := run(t, "scrape"); err == nil {
		t.Fatal("expected error without urls or --search")
	}
	if _, err := run(t, "scrape", srv.URL, "--search", "q"); err == nil {
		t.Fatal("expected error for urls combined with --search")
	}

	out, err := run(t, "scrape", "--search", "earth", "--limit", "1", "--topic", "T")
	if err != nil {
		t.Fatalf("scrape --search failed: %v", err)
	}
	var sources []common.SourceInput
	if err := json.Unmarshal([]byte(out), &sources); err != nil {
		t.Fatalf("invalid output %q: %v", out, err)
	}
	if len(sources) != 1 || sources[0].Title != "First hit" || sources[0].Body != "page /first" || sources[0].Topic != "T" {
		t.Fatalf("unexpected sources %+v", sources)
	}
}
