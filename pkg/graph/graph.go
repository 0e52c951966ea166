package graph

import (
	"context"

	"github.com/OFFIS-RIT/factgraph/pkg/common"
)

// GraphStore holds articles and the sites, entities and topics they relate
// to. Nodes are merged on their key (article title, or target name), so
// loading the same article twice updates it in place.
type GraphStore interface {
	// MergeArticles upserts all articles and their relations in one call.
	MergeArticles(ctx context.Context, articles []common.Article) error
	// Pairs returns every (article title, target name) edge of one relation.
	Pairs(ctx context.Context, rel common.Relation) ([]common.Pair, error)
	// Reset removes all article, site, entity and topic nodes.
	Reset(ctx context.Context) error
	Close(ctx context.Context) error
}
