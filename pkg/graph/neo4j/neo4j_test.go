package neo4j

import (
	"strings"
	"testing"

	"github.com/OFFIS-RIT/factgraph/pkg/common"
)

func TestNormalizeURI(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{in: "http://localhost:7687", want: "bolt://localhost:7687"},
		{in: "https://graph.example.com", want: "bolt://graph.example.com"},
		{in: "neo4j+s://abc.databases.neo4j.io", want: "neo4j+s://abc.databases.neo4j.io"},
		{in: "bolt://localhost:7687", want: "bolt://localhost:7687"},
	}
	for _, tt := range tests {
		if got := normalizeURI(tt.in); got != tt.want {
			t.Fatalf("normalizeURI(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}

func TestPairsCypher(t *testing.T) {
	for _, rel := range common.Relations {
		q, err := pairsCypher(rel)
		if err != nil {
			t.Fatalf("pairsCypher(%s) failed: %v", rel.Type, err)
		}
		if !strings.Contains(q, "[:"+rel.Type+"]") || !strings.Contains(q, "(t:"+rel.TargetLabel+")") {
			t.Fatalf("unexpected query %q", q)
		}
	}

	if _, err := pairsCypher(common.Relation{Type: "X]->() DETACH DELETE a //", TargetLabel: "Site"}); err == nil {
		t.Fatal("expected unknown relation to be rejected")
	}
}

func TestArticleParams(t *testing.T) {
	params := articleParams([]common.Article{
		{Title: "A", Site: "x.com", Entities: []string{"NASA", "NASA", ""}},
	})
	if len(params) != 1 {
		t.Fatalf("expected 1 param row, got %d", len(params))
	}
	row := params[0].(map[string]any)
	if row["title"] != "A" || row["site"] != "x.com" {
		t.Fatalf("unexpected row %v", row)
	}
	entities := row["entities"].([]string)
	if len(entities) != 1 || entities[0] != "NASA" {
		t.Fatalf("expected deduped entities, got %v", entities)
	}
	topics := row["topics"].([]string)
	if topics == nil || len(topics) != 0 {
		t.Fatalf("expected empty non-nil topics, got %v", topics)
	}
}
