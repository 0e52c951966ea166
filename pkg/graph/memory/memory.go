package memory

import (
	"context"
	"fmt"
	"sync"

	"github.com/OFFIS-RIT/factgraph/pkg/common"
)

type nodeKey struct {
	label string
	key   string
}

type edgeKey struct {
	relType string
	from    string
	to      nodeKey
}

type articleProps struct {
	url  string
	body string
}

// GraphMemoryStorage is an in-process graph store. Nodes live in maps keyed
// by (label, key), so a repeated merge updates the existing node, and edges
// are a set keyed by (type, from, to).
type GraphMemoryStorage struct {
	mu sync.RWMutex

	nodes    map[nodeKey]struct{}
	articles map[string]*articleProps

	edges     map[edgeKey]struct{}
	edgeOrder []edgeKey
}

func NewGraphMemoryStorage() *GraphMemoryStorage {
	s := &GraphMemoryStorage{}
	s.reset()
	return s
}

func (s *GraphMemoryStorage) reset() {
	s.nodes = make(map[nodeKey]struct{})
	s.articles = make(map[string]*articleProps)
	s.edges = make(map[edgeKey]struct{})
	s.edgeOrder = nil
}

func (s *GraphMemoryStorage) MergeArticles(ctx context.Context, articles []common.Article) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	for _, a := range articles {
		s.nodes[nodeKey{label: "Article", key: a.Title}] = struct{}{}
		props, ok := s.articles[a.Title]
		if !ok {
			props = &articleProps{}
			s.articles[a.Title] = props
		}
		props.url = a.URL
		props.body = a.Body

		if a.Site != "" {
			s.link(a.Title, common.RelationPublishedOn, a.Site)
		}
		for _, e := range common.DedupeStrings(a.Entities) {
			s.link(a.Title, common.RelationMentions, e)
		}
		for _, t := range common.DedupeStrings(a.Topics) {
			s.link(a.Title, common.RelationHasTopic, t)
		}
	}
	return nil
}

func (s *GraphMemoryStorage) link(title string, rel common.Relation, target string) {
	to := nodeKey{label: rel.TargetLabel, key: target}
	s.nodes[to] = struct{}{}

	ek := edgeKey{relType: rel.Type, from: title, to: to}
	if _, ok := s.edges[ek]; ok {
		return
	}
	s.edges[ek] = struct{}{}
	s.edgeOrder = append(s.edgeOrder, ek)
}

func (s *GraphMemoryStorage) Pairs(ctx context.Context, rel common.Relation) ([]common.Pair, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if !knownRelation(rel) {
		return nil, fmt.Errorf("unknown relation %s", rel.Type)
	}

	s.mu.RLock()
	defer s.mu.RUnlock()

	pairs := []common.Pair{}
	for _, ek := range s.edgeOrder {
		if ek.relType != rel.Type || ek.to.label != rel.TargetLabel {
			continue
		}
		pairs = append(pairs, common.Pair{Source: ek.from, Target: ek.to.key})
	}
	return pairs, nil
}

func (s *GraphMemoryStorage) Reset(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.reset()
	return nil
}

func (s *GraphMemoryStorage) Close(ctx context.Context) error {
	return nil
}

// Article returns the stored url and body of an article.
func (s *GraphMemoryStorage) Article(title string) (url string, body string, ok bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	props, ok := s.articles[title]
	if !ok {
		return "", "", false
	}
	return props.url, props.body, true
}

// NodeCount returns the number of nodes carrying label.
func (s *GraphMemoryStorage) NodeCount(label string) int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	n := 0
	for k := range s.nodes {
		if k.label == label {
			n++
		}
	}
	return n
}

func knownRelation(rel common.Relation) bool {
	for _, r := range common.Relations {
		if r == rel {
			return true
		}
	}
	return false
}
