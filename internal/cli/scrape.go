package cli

import (
	"encoding/json"
	"errors"
	"fmt"

	"github.com/OFFIS-RIT/factgraph/internal/bootstrap"
	"github.com/OFFIS-RIT/factgraph/pkg/common"
	"github.com/OFFIS-RIT/factgraph/pkg/logger"
	"github.com/OFFIS-RIT/factgraph/pkg/ner"
	"github.com/OFFIS-RIT/factgraph/pkg/scrape"

	"github.com/spf13/cobra"
)

func newScrapeCmd() *cobra.Command {
	var (
		claimID    string
		topic      string
		query      string
		limit      int
		noEntities bool
	)

	cmd := &cobra.Command{
		Use:   "scrape [url...]",
		Short: "Extract title, site and body from web pages",
		Long: `Fetch every URL and print the extracted sources as JSON. With --search the
web is searched instead and the first --limit hits are fetched. With --claim
the sources are also stored for that claim. Pages that fail are skipped. When
an AI model is configured the topic and entities of every page are extracted.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			if len(args) == 0 && query == "" {
				return errors.New("pass at least one url or --search")
			}
			if len(args) > 0 && query != "" {
				return errors.New("urls and --search are mutually exclusive")
			}

			ctx := cmd.Context()
			scraper := bootstrap.NewScraper()

			var extractor *ner.Extractor
			if !noEntities {
				client, err := bootstrap.NewAIClient()
				if err != nil {
					return err
				}
				if extractor, err = bootstrap.NewEntityExtractor(client); err != nil {
					return err
				}
			}

			sources := make([]common.SourceInput, 0, len(args))
			if query != "" {
				found, failed, err := scraper.SearchAndExtract(ctx, query, limit)
				if err != nil {
					return err
				}
				for _, u := range failed {
					logger.Warn("[CLI][Scrape] Skipping page", "url", u)
				}
				sources = append(sources, found...)
			}
			for _, u := range args {
				src, err := scraper.Extract(ctx, u)
				if err != nil {
					logger.Warn("[CLI][Scrape] Skipping page", "url", u, "err", err)
					continue
				}
				sources = append(sources, src)
			}
			for i := range sources {
				sources[i].Topic = topic
				if extractor != nil {
					sources[i] = extractor.Enrich(ctx, sources[i])
				}
			}

			if claimID != "" && len(sources) > 0 {
				s, err := bootstrap.NewClaimStorage(ctx)
				if err != nil {
					return err
				}
				defer s.Close()
				if _, err := s.GetClaim(ctx, claimID); err != nil {
					return fmt.Errorf("claim %s: %w", claimID, err)
				}
				if err := s.AddSources(ctx, claimID, sources); err != nil {
					return err
				}
			}

			enc := json.NewEncoder(cmd.OutOrStdout())
			enc.SetIndent("", "  ")
			return enc.Encode(sources)
		},
	}

	cmd.Flags().StringVar(&claimID, "claim", "", "store the pages as sources of this claim")
	cmd.Flags().StringVar(&topic, "topic", "", "topic assigned to every scraped source")
	cmd.Flags().StringVar(&query, "search", "", "search the web for this query instead of taking urls")
	cmd.Flags().IntVar(&limit, "limit", scrape.DefaultSearchResults, "number of search hits to fetch")
	cmd.Flags().BoolVar(&noEntities, "no-entities", false, "skip topic and entity extraction")
	return cmd
}
