package graph

import (
	"context"

	"github.com/OFFIS-RIT/factgraph/pkg/common"
	"github.com/OFFIS-RIT/factgraph/pkg/logger"
)

// Load merges the articles into the graph store. Failures are logged and the
// load is abandoned; nothing is returned to the caller.
func (g *GraphClient) Load(ctx context.Context, articles []common.Article) {
	if len(articles) == 0 {
		logger.Debug("[Graph][Load] No articles to load")
		return
	}

	logger.Info("[Graph][Load] Loading articles", "articles", len(articles))
	if err := g.store.MergeArticles(ctx, articles); err != nil {
		logger.Error("[Graph][Load] Failed to load articles", "articles", len(articles), "err", err)
		return
	}
	logger.Debug("[Graph][Load] Articles loaded", "articles", len(articles))
}

// Reset clears the graph store before a new pipeline run.
func (g *GraphClient) Reset(ctx context.Context) error {
	if err := g.store.Reset(ctx); err != nil {
		logger.Error("[Graph][Reset] Failed to reset graph", "err", err)
		return err
	}
	return nil
}
