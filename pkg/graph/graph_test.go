package graph

import (
	"context"
	"errors"
	"image/png"
	"math"
	"os"
	"path/filepath"
	"testing"

	"github.com/OFFIS-RIT/factgraph/pkg/common"
	"github.com/OFFIS-RIT/factgraph/pkg/graph/memory"

	"gonum.org/v1/gonum/spatial/r2"
)

type failingStore struct {
	mergeCalls int
}

func (f *failingStore) MergeArticles(ctx context.Context, articles []common.Article) error {
	f.mergeCalls++
	return errors.New("connection refused")
}

func (f *failingStore) Pairs(ctx context.Context, rel common.Relation) ([]common.Pair, error) {
	if rel == common.RelationMentions {
		return nil, errors.New("query failed")
	}
	return []common.Pair{{Source: "A", Target: "x.com"}}, nil
}

func (f *failingStore) Reset(ctx context.Context) error { return nil }
func (f *failingStore) Close(ctx context.Context) error { return nil }

func testArticles() []common.Article {
	return []common.Article{
		{Title: "Earth is round, says NASA", URL: "u1", Site: "nasa.gov", Entities: []string{"NASA", "Earth"}, Topics: []string{"science"}},
		{Title: "Flat earth conference held", URL: "u2", Site: "news.com", Entities: []string{"Earth"}, Topics: []string{"society"}},
		{Title: "Satellite images", URL: "u3", Site: "nasa.gov", Topics: []string{"science"}},
	}
}

func TestNewGraphClient_NilStore(t *testing.T) {
	if _, err := NewGraphClient(NewGraphClientParams{}); err == nil {
		t.Fatal("expected error for nil store")
	}
}

func TestLoad_Memory(t *testing.T) {
	ctx := context.Background()
	mem := memory.NewGraphMemoryStorage()
	client, err := NewGraphClient(NewGraphClientParams{Store: mem})
	if err != nil {
		t.Fatal(err)
	}

	client.Load(ctx, testArticles())

	if got := mem.NodeCount("Article"); got != 3 {
		t.Fatalf("expected 3 articles, got %d", got)
	}
	if got := mem.NodeCount("Site"); got != 2 {
		t.Fatalf("expected 2 sites, got %d", got)
	}
	topics, _ := mem.Pairs(ctx, common.RelationHasTopic)
	if len(topics) != 3 {
		t.Fatalf("expected 3 topic edges, got %v", topics)
	}
}

func TestLoad_StoreFailureIsSwallowed(t *testing.T) {
	store := &failingStore{}
	client, _ := NewGraphClient(NewGraphClientParams{Store: store})

	client.Load(context.Background(), testArticles())
	if store.mergeCalls != 1 {
		t.Fatalf("expected a single bulk call, got %d", store.mergeCalls)
	}
}

func TestRenderAll(t *testing.T) {
	ctx := context.Background()
	mem := memory.NewGraphMemoryStorage()
	client, _ := NewGraphClient(NewGraphClientParams{Store: mem, Width: 400, Height: 300, LayoutUpdates: 20})
	client.Load(ctx, testArticles())

	folder := filepath.Join(t.TempDir(), "claim-1")
	written := client.RenderAll(ctx, folder)
	if len(written) != 3 {
		t.Fatalf("expected 3 images, got %v", written)
	}

	for _, name := range []string{"graph_sites.png", "graph_entities.png", "graph_topics.png"} {
		f, err := os.Open(filepath.Join(folder, name))
		if err != nil {
			t.Fatalf("missing %s: %v", name, err)
		}
		img, err := png.Decode(f)
		f.Close()
		if err != nil {
			t.Fatalf("%s is not a PNG: %v", name, err)
		}
		if b := img.Bounds(); b.Dx() != 400 || b.Dy() != 300 {
			t.Fatalf("%s has unexpected size %v", name, b)
		}
	}
}

func TestRenderAll_EmptyGraph(t *testing.T) {
	client, _ := NewGraphClient(NewGraphClientParams{Store: memory.NewGraphMemoryStorage(), Width: 100, Height: 100})

	written := client.RenderAll(context.Background(), t.TempDir())
	if len(written) != 3 {
		t.Fatalf("expected blank images for every view, got %v", written)
	}
}

func TestRenderAll_FailingViewIsSkipped(t *testing.T) {
	client, _ := NewGraphClient(NewGraphClientParams{Store: &failingStore{}, Width: 100, Height: 100})

	folder := t.TempDir()
	written := client.RenderAll(context.Background(), folder)
	if len(written) != 2 {
		t.Fatalf("expected 2 images, got %v", written)
	}
	if _, err := os.Stat(filepath.Join(folder, "graph_entities.png")); !os.IsNotExist(err) {
		t.Fatalf("expected entities view to be missing, got %v", err)
	}
}

func TestBuildRelationGraph(t *testing.T) {
	rg := buildRelationGraph([]common.Pair{
		{Source: "A", Target: "x"},
		{Source: "B", Target: "x"},
		{Source: "A", Target: "x"},
	})
	if len(rg.names) != 3 {
		t.Fatalf("expected 3 nodes, got %v", rg.names)
	}
	if len(rg.edges) != 2 {
		t.Fatalf("expected duplicate edge to be merged, got %v", rg.edges)
	}

	pos := rg.positions(20)
	if len(pos) != 3 {
		t.Fatalf("expected 3 positions, got %d", len(pos))
	}
	for _, p := range pos {
		if p.X < 0 || p.X > 1 || p.Y < 0 || p.Y > 1 {
			t.Fatalf("position %v outside the unit square", p)
		}
	}

	if got := buildRelationGraph(nil).positions(20); got != nil {
		t.Fatalf("expected no positions for empty graph, got %v", got)
	}
}

func TestAvoidOverlap(t *testing.T) {
	pos := []r2.Vec{{X: 0.5, Y: 0.5}, {X: 0.5, Y: 0.5}, {X: 0.9, Y: 0.1}}
	sweeps := avoidOverlap(pos, 0.1, 0.1, 100)
	if sweeps != 1 {
		t.Fatalf("expected 1 moving sweep, got %d", sweeps)
	}
	if !near(pos[0], r2.Vec{X: 0.6, Y: 0.6}) || !near(pos[1], r2.Vec{X: 0.4, Y: 0.4}) {
		t.Fatalf("unexpected nudge result %v", pos)
	}
	if pos[2] != (r2.Vec{X: 0.9, Y: 0.1}) {
		t.Fatalf("distant node should not move, got %v", pos[2])
	}
}

func near(a, b r2.Vec) bool {
	return math.Abs(a.X-b.X) < 1e-9 && math.Abs(a.Y-b.Y) < 1e-9
}

func TestAvoidOverlap_Bounded(t *testing.T) {
	pos := []r2.Vec{{X: 0, Y: 0}, {X: 0, Y: 0}}
	if sweeps := avoidOverlap(pos, 1000, 0.1, 7); sweeps != 7 {
		t.Fatalf("expected the sweep limit to stop the pass, got %d", sweeps)
	}
}

func TestSplitLabel(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{in: "NASA", want: "NASA"},
		{in: "exactly fifteen", want: "exactly fifteen"},
		{in: "The Earth Is Round", want: "The Earth Is\nRound"},
		{in: "Supercalifragilisticexpialidocious", want: "Supercalifragil\nisticexpialidoc..."},
		{in: "Earth is round, says NASA and many more scientists", want: "Earth is\nround, says NAS..."},
	}
	for _, tt := range tests {
		if got := splitLabel(tt.in, 15); got != tt.want {
			t.Fatalf("splitLabel(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}

func TestTargetColors(t *testing.T) {
	pairs := make([]common.Pair, 0, 12)
	for i := 0; i < 12; i++ {
		pairs = append(pairs, common.Pair{Source: "A", Target: string(rune('a' + i))})
	}
	colors := targetColors(pairs)
	if colors["a"] != palette[0] || colors["j"] != palette[9] {
		t.Fatalf("unexpected palette assignment %v", colors)
	}
	if colors["k"] != palette[0] {
		t.Fatalf("expected palette to cycle, got %s", colors["k"])
	}
	if nodeColor(colors, "A") != articleColor {
		t.Fatal("expected articles to use the article color")
	}
}
