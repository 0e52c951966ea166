package cli

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/OFFIS-RIT/factgraph/internal/bootstrap"
	"github.com/OFFIS-RIT/factgraph/pkg/common"
	"github.com/OFFIS-RIT/factgraph/pkg/graph"

	"github.com/spf13/cobra"
)

func readArticles(path string) ([]common.Article, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read articles: %w", err)
	}
	var articles []common.Article
	if err := json.Unmarshal(data, &articles); err != nil {
		return nil, fmt.Errorf("failed to parse articles: %w", err)
	}
	return articles, nil
}

func newLoadCmd() *cobra.Command {
	var reset bool

	cmd := &cobra.Command{
		Use:   "load <articles.json>",
		Short: "Load articles into the graph store",
		Long: `Merge a JSON array of articles ({title, url, body, site, entities, topics})
into the graph store selected by GRAPH_ADAPTER.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			articles, err := readArticles(args[0])
			if err != nil {
				return err
			}

			ctx := cmd.Context()
			client, err := bootstrap.NewGraphClient(ctx)
			if err != nil {
				return err
			}
			defer client.Store().Close(ctx)

			if reset {
				if err := client.Reset(ctx); err != nil {
					return err
				}
			}
			client.Load(ctx, articles)

			fmt.Fprintf(cmd.OutOrStdout(), "loaded %d articles\n", len(articles))
			return nil
		},
	}

	cmd.Flags().BoolVar(&reset, "reset", false, "clear the graph before loading")
	return cmd
}

func newRenderCmd() *cobra.Command {
	var (
		articlesPath string
		claimID      string
	)

	cmd := &cobra.Command{
		Use:   "render <folder>",
		Short: "Render the graph views into a folder",
		Long: `Render graph_sites.png, graph_entities.png and graph_topics.png into folder.
With --articles or --claim the graph is reset and loaded first, which is
required for the in-memory graph store.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			client, err := bootstrap.NewGraphClient(ctx)
			if err != nil {
				return err
			}
			defer client.Store().Close(ctx)

			var articles []common.Article
			switch {
			case articlesPath != "":
				articles, err = readArticles(articlesPath)
				if err != nil {
					return err
				}
			case claimID != "":
				s, err := bootstrap.NewClaimStorage(ctx)
				if err != nil {
					return err
				}
				defer s.Close()
				sources, err := s.GetSources(ctx, claimID)
				if err != nil {
					return err
				}
				articles = common.ArticlesFromSources(sources)
			}

			if articles != nil {
				if err := client.Reset(ctx); err != nil {
					return err
				}
				client.Load(ctx, articles)
			}

			return renderTo(cmd, client, args[0])
		},
	}

	cmd.Flags().StringVar(&articlesPath, "articles", "", "JSON file with articles to load before rendering")
	cmd.Flags().StringVar(&claimID, "claim", "", "load the sources of this claim before rendering")
	cmd.MarkFlagsMutuallyExclusive("articles", "claim")
	return cmd
}

func renderTo(cmd *cobra.Command, client *graph.GraphClient, folder string) error {
	written := client.RenderAll(cmd.Context(), folder)
	for _, path := range written {
		fmt.Fprintln(cmd.OutOrStdout(), path)
	}
	if len(written) == 0 {
		return fmt.Errorf("no graph views rendered into %s", folder)
	}
	return nil
}
