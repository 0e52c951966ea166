package sqldb

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"sort"
	"sync"
	"testing"

	"github.com/OFFIS-RIT/factgraph/pkg/common"
	"github.com/OFFIS-RIT/factgraph/pkg/store"
)

var _ store.ClaimStorage = (*ClaimDBStorage)(nil)

func newTestStorage(t *testing.T) *ClaimDBStorage {
	t.Helper()
	s, err := Open(context.Background(), DriverSQLite, filepath.Join(t.TempDir(), "claims.db"))
	if err != nil {
		t.Fatalf("failed to open sqlite: %v", err)
	}
	t.Cleanup(func() { s.Close() })
	return s
}

func TestParseDriver(t *testing.T) {
	tests := []struct {
		in      string
		want    Driver
		wantErr bool
	}{
		{in: "", want: DriverSQLite},
		{in: "sqlite", want: DriverSQLite},
		{in: "Postgres", want: DriverPostgres},
		{in: "mysql", wantErr: true},
	}
	for _, tt := range tests {
		got, err := ParseDriver(tt.in)
		if tt.wantErr {
			if err == nil {
				t.Fatalf("ParseDriver(%q): expected error", tt.in)
			}
			continue
		}
		if err != nil || got != tt.want {
			t.Fatalf("ParseDriver(%q) = %q, %v; want %q", tt.in, got, err, tt.want)
		}
	}
}

func TestCreateClaim(t *testing.T) {
	ctx := context.Background()
	s := newTestStorage(t)

	claim, err := s.CreateClaim(ctx, "The earth is flat", "IDThe Earth Is Round", "", "")
	if err != nil {
		t.Fatalf("CreateClaim failed: %v", err)
	}
	if claim.ID == "" {
		t.Fatal("expected generated id")
	}
	if claim.Title != "The Earth Is Round" {
		t.Fatalf("expected trimmed title, got %q", claim.Title)
	}

	got, err := s.GetClaim(ctx, claim.ID)
	if err != nil {
		t.Fatalf("GetClaim failed: %v", err)
	}
	if got != claim {
		t.Fatalf("stored claim mismatch: got %+v, want %+v", got, claim)
	}
}

func TestCreateClaim_ExplicitIDAndDuplicate(t *testing.T) {
	ctx := context.Background()
	s := newTestStorage(t)

	claim, err := s.CreateClaim(ctx, "text", "", "", "c1")
	if err != nil {
		t.Fatalf("CreateClaim failed: %v", err)
	}
	if claim.ID != "c1" || claim.Title != "" {
		t.Fatalf("unexpected claim %+v", claim)
	}

	if _, err := s.CreateClaim(ctx, "other", "", "", "c1"); err == nil {
		t.Fatal("expected duplicate id to fail")
	}
}

func TestGetClaim_NotFound(t *testing.T) {
	s := newTestStorage(t)
	_, err := s.GetClaim(context.Background(), "missing")
	if !errors.Is(err, store.ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

func TestSources(t *testing.T) {
	ctx := context.Background()
	s := newTestStorage(t)

	if _, err := s.CreateClaim(ctx, "claim", "", "", "c1"); err != nil {
		t.Fatalf("CreateClaim failed: %v", err)
	}

	inputs := []common.SourceInput{
		{Title: "A", URL: "http://a", Site: "a.com", Body: "body a", Topic: "science", Entities: []string{"NASA", "Earth"}},
		{Title: "B", URL: "http://b", Site: "b.com", Body: "body b", Topic: "science"},
	}
	if err := s.AddSources(ctx, "c1", inputs); err != nil {
		t.Fatalf("AddSources failed: %v", err)
	}

	sources, err := s.GetSources(ctx, "c1")
	if err != nil {
		t.Fatalf("GetSources failed: %v", err)
	}
	if len(sources) != 2 {
		t.Fatalf("expected 2 sources, got %d", len(sources))
	}
	sort.Slice(sources, func(i, j int) bool { return sources[i].Title < sources[j].Title })

	if sources[0].ID == sources[1].ID {
		t.Fatal("expected distinct source ids")
	}
	if sources[0].ClaimID != "c1" || sources[0].URL != "http://a" || sources[0].Body != "body a" {
		t.Fatalf("unexpected source %+v", sources[0])
	}
	if len(sources[0].Entities) != 2 || sources[0].Entities[0] != "NASA" || sources[0].Entities[1] != "Earth" {
		t.Fatalf("entities not preserved: %v", sources[0].Entities)
	}
	if sources[1].Entities == nil || len(sources[1].Entities) != 0 {
		t.Fatalf("expected empty entities, got %v", sources[1].Entities)
	}
}

func TestGetSources_EmptyDatabase(t *testing.T) {
	s := newTestStorage(t)

	sources, err := s.GetSources(context.Background(), "nothing")
	if err != nil {
		t.Fatalf("GetSources failed: %v", err)
	}
	if sources == nil || len(sources) != 0 {
		t.Fatalf("expected empty non-nil slice, got %v", sources)
	}
}

func TestAddSources_SameInputTwice(t *testing.T) {
	ctx := context.Background()
	s := newTestStorage(t)

	in := []common.SourceInput{{Title: "dup", Site: "x"}}
	for i := 0; i < 2; i++ {
		if err := s.AddSources(ctx, "c1", in); err != nil {
			t.Fatalf("AddSources #%d failed: %v", i, err)
		}
	}

	sources, err := s.GetSources(ctx, "c1")
	if err != nil {
		t.Fatalf("GetSources failed: %v", err)
	}
	if len(sources) != 2 || sources[0].ID == sources[1].ID {
		t.Fatalf("expected two rows with distinct ids, got %+v", sources)
	}
}

func TestAddSources_FailingRowAbortsBatch(t *testing.T) {
	ctx := context.Background()
	s := newTestStorage(t)

	if err := s.AddSources(ctx, "other", []common.SourceInput{{Title: "seed"}}); err != nil {
		t.Fatalf("AddSources failed: %v", err)
	}
	_, err := s.DB().ExecContext(ctx, `CREATE TRIGGER reject_bad BEFORE INSERT ON sources
		WHEN NEW.title = 'bad'
		BEGIN SELECT RAISE(ABORT, 'bad row'); END`)
	if err != nil {
		t.Fatalf("failed to create trigger: %v", err)
	}

	err = s.AddSources(ctx, "c1", []common.SourceInput{{Title: "ok1"}, {Title: "bad"}, {Title: "ok2"}})
	if err == nil {
		t.Fatal("expected error for rejected row")
	}

	sources, err := s.GetSources(ctx, "c1")
	if err != nil {
		t.Fatalf("GetSources failed: %v", err)
	}
	if len(sources) != 0 {
		t.Fatalf("expected no rows after aborted batch, got %+v", sources)
	}
}

func TestLoadAllSources(t *testing.T) {
	ctx := context.Background()
	s := newTestStorage(t)

	if err := s.AddSources(ctx, "c1", []common.SourceInput{{Title: "a"}}); err != nil {
		t.Fatal(err)
	}
	if err := s.AddSources(ctx, "c2", []common.SourceInput{{Title: "b"}, {Title: "c"}}); err != nil {
		t.Fatal(err)
	}

	all, err := s.LoadAllSources(ctx)
	if err != nil {
		t.Fatalf("LoadAllSources failed: %v", err)
	}
	if len(all) != 3 {
		t.Fatalf("expected 3 sources, got %d", len(all))
	}
}

func TestAnswers(t *testing.T) {
	ctx := context.Background()
	s := newTestStorage(t)

	has, err := s.HasAnswer(ctx, "c1")
	if err != nil || has {
		t.Fatalf("expected no answer on empty database, got %v, %v", has, err)
	}

	a, err := s.CreateAnswer(ctx, "c1", "Mostly false", "assets/c1", "")
	if err != nil {
		t.Fatalf("CreateAnswer failed: %v", err)
	}
	if a.ID == "" || a.GraphsFolder != "assets/c1" {
		t.Fatalf("unexpected answer %+v", a)
	}

	has, err = s.HasAnswer(ctx, "c1")
	if err != nil || !has {
		t.Fatalf("expected answer, got %v, %v", has, err)
	}
	has, err = s.HasAnswer(ctx, "c2")
	if err != nil || has {
		t.Fatalf("expected no answer for c2, got %v, %v", has, err)
	}

	answers, err := s.GetAnswers(ctx, "c1")
	if err != nil || len(answers) != 1 || answers[0] != a {
		t.Fatalf("unexpected answers %+v, %v", answers, err)
	}
}

func TestClear(t *testing.T) {
	ctx := context.Background()
	s := newTestStorage(t)

	for _, id := range []string{"c1", "c2"} {
		if _, err := s.CreateClaim(ctx, "text "+id, "", "", id); err != nil {
			t.Fatal(err)
		}
		if err := s.AddSources(ctx, id, []common.SourceInput{{Title: id}}); err != nil {
			t.Fatal(err)
		}
		if _, err := s.CreateAnswer(ctx, id, "answer", "", ""); err != nil {
			t.Fatal(err)
		}
	}

	if err := s.Clear(ctx, "c1"); err != nil {
		t.Fatalf("Clear failed: %v", err)
	}
	if err := s.Clear(ctx, "c1"); err != nil {
		t.Fatalf("second Clear failed: %v", err)
	}

	if _, err := s.GetClaim(ctx, "c1"); !errors.Is(err, store.ErrNotFound) {
		t.Fatalf("expected c1 to be gone, got %v", err)
	}
	sources, _ := s.GetSources(ctx, "c1")
	if len(sources) != 0 {
		t.Fatalf("expected no sources for c1, got %d", len(sources))
	}
	if has, _ := s.HasAnswer(ctx, "c1"); has {
		t.Fatal("expected no answer for c1")
	}

	sources, _ = s.GetSources(ctx, "c2")
	if len(sources) != 1 {
		t.Fatalf("expected c2 untouched, got %d sources", len(sources))
	}
}

func TestClear_FreshDatabase(t *testing.T) {
	s := newTestStorage(t)
	if err := s.Clear(context.Background(), "anything"); err != nil {
		t.Fatalf("Clear on fresh database failed: %v", err)
	}
}

func TestClearAll(t *testing.T) {
	ctx := context.Background()
	s := newTestStorage(t)

	if _, err := s.CreateClaim(ctx, "a", "", "", "c1"); err != nil {
		t.Fatal(err)
	}
	if err := s.AddSources(ctx, "c1", []common.SourceInput{{Title: "x"}}); err != nil {
		t.Fatal(err)
	}
	if err := s.ClearAll(ctx); err != nil {
		t.Fatalf("ClearAll failed: %v", err)
	}

	claims, err := s.ListClaims(ctx)
	if err != nil || len(claims) != 0 {
		t.Fatalf("expected no claims, got %v, %v", claims, err)
	}
	all, _ := s.LoadAllSources(ctx)
	if len(all) != 0 {
		t.Fatalf("expected no sources, got %d", len(all))
	}
}

func TestEnsureTables_Concurrent(t *testing.T) {
	ctx := context.Background()
	s := newTestStorage(t)

	var wg sync.WaitGroup
	errs := make(chan error, 8)
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			errs <- s.AddSources(ctx, "c1", []common.SourceInput{{Title: "t"}})
		}()
	}
	wg.Wait()
	close(errs)

	for err := range errs {
		if err != nil {
			t.Fatalf("concurrent AddSources failed: %v", err)
		}
	}

	sources, err := s.GetSources(ctx, "c1")
	if err != nil || len(sources) != 8 {
		t.Fatalf("expected 8 sources, got %d, %v", len(sources), err)
	}
}

func TestDecodeEntities(t *testing.T) {
	tests := []struct {
		raw  string
		want int
	}{
		{raw: "", want: 0},
		{raw: "null", want: 0},
		{raw: `["a","b"]`, want: 2},
		{raw: "legacy", want: 1},
	}
	for _, tt := range tests {
		got := decodeEntities(tt.raw)
		if got == nil || len(got) != tt.want {
			t.Fatalf("decodeEntities(%q) = %v, want %d entries", tt.raw, got, tt.want)
		}
	}
}

func TestMigrate(t *testing.T) {
	ctx := context.Background()
	s := newTestStorage(t)

	if err := s.Migrate(); err != nil {
		t.Fatalf("Migrate failed: %v", err)
	}
	if err := s.Migrate(); err != nil {
		t.Fatalf("second Migrate failed: %v", err)
	}
	if _, err := s.CreateClaim(ctx, "after migrate", "", "", ""); err != nil {
		t.Fatalf("CreateClaim after migrate failed: %v", err)
	}
}

func TestOpen_SQLiteDSNWithParams(t *testing.T) {
	ctx := context.Background()
	path := filepath.Join(t.TempDir(), "nested", "claims.db")

	s, err := Open(ctx, DriverSQLite, path+"?_pragma=foreign_keys(1)")
	if err != nil {
		t.Fatalf("Open failed: %v", err)
	}
	defer s.Close()

	var fk int
	if err := s.DB().QueryRowContext(ctx, "PRAGMA foreign_keys").Scan(&fk); err != nil || fk != 1 {
		t.Fatalf("expected foreign_keys from dsn, got %d, %v", fk, err)
	}
	var mode string
	if err := s.DB().QueryRowContext(ctx, "PRAGMA journal_mode").Scan(&mode); err != nil || mode != "wal" {
		t.Fatalf("expected wal journal mode, got %q, %v", mode, err)
	}

	if _, err := s.CreateClaim(ctx, "claim", "", "", ""); err != nil {
		t.Fatalf("CreateClaim failed: %v", err)
	}
	if _, err := os.Stat(path); err != nil {
		t.Fatalf("expected database file at %s: %v", path, err)
	}
}
