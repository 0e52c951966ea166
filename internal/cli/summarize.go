package cli

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"

	"github.com/OFFIS-RIT/factgraph/internal/bootstrap"
	"github.com/OFFIS-RIT/factgraph/pkg/summarize"

	"github.com/spf13/cobra"
)

var errNoAI = errors.New("no AI client configured, set AI_CHAT_MODEL")

func newSummarizer() (*summarize.Summarizer, error) {
	client, err := bootstrap.NewAIClient()
	if err != nil {
		return nil, err
	}
	s, err := bootstrap.NewSummarizer(client)
	if err != nil {
		return nil, err
	}
	if s == nil {
		return nil, errNoAI
	}
	return s, nil
}

func newRephraseCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "rephrase <text>",
		Short: "Rephrase a claim into a search query",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			s, err := newSummarizer()
			if err != nil {
				return err
			}
			query := s.RephraseAsQuery(cmd.Context(), args[0])
			if query == nil {
				return errors.New("model returned no query")
			}
			fmt.Fprintln(cmd.OutOrStdout(), *query)
			return nil
		},
	}
}

type fileSummary struct {
	File    string  `json:"file"`
	Summary *string `json:"summary"`
}

func newSummarizeCmd() *cobra.Command {
	var charCutoff int

	cmd := &cobra.Command{
		Use:   "summarize <file...>",
		Short: "Summarize text files one after another",
		Long: `Summarize every file with the low model and print a JSON array of
{file, summary}. Failed summaries are null.`,
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			texts := make([]string, len(args))
			for i, path := range args {
				data, err := os.ReadFile(path)
				if err != nil {
					return fmt.Errorf("failed to read %s: %w", path, err)
				}
				texts[i] = string(data)
			}

			s, err := newSummarizer()
			if err != nil {
				return err
			}

			summaries := s.SummarizeBatch(cmd.Context(), texts, charCutoff)
			out := make([]fileSummary, len(args))
			for i, path := range args {
				out[i] = fileSummary{File: path, Summary: summaries[i]}
			}

			enc := json.NewEncoder(cmd.OutOrStdout())
			enc.SetIndent("", "  ")
			return enc.Encode(out)
		},
	}

	cmd.Flags().IntVar(&charCutoff, "char-cutoff", summarize.DefaultCharCutoff, "characters of each file sent to the model")
	return cmd
}
