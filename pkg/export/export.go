package export

import (
	"context"
	"encoding/csv"
	"encoding/json"
	"fmt"
	"io"

	"github.com/OFFIS-RIT/factgraph/pkg/common"
)

// ClaimLister is the part of store.ClaimStorage the claim export needs.
type ClaimLister interface {
	ListClaims(ctx context.Context) ([]common.Claim, error)
}

// SourceLoader is the part of store.ClaimStorage the source export needs.
type SourceLoader interface {
	LoadAllSources(ctx context.Context) ([]common.Source, error)
}

var (
	claimHeader  = []string{"id", "text"}
	sourceHeader = []string{"id", "claim_id", "title", "url", "site", "body", "entities", "topic"}
)

// Claims writes all claims as CSV with an id,text header.
func Claims(ctx context.Context, s ClaimLister, w io.Writer) (int, error) {
	claims, err := s.ListClaims(ctx)
	if err != nil {
		return 0, fmt.Errorf("failed to list claims: %w", err)
	}

	cw := csv.NewWriter(w)
	if err := cw.Write(claimHeader); err != nil {
		return 0, err
	}
	for _, c := range claims {
		if err := cw.Write([]string{c.ID, c.Text}); err != nil {
			return 0, err
		}
	}
	cw.Flush()
	return len(claims), cw.Error()
}

// Sources writes every stored source as CSV. Entities are written as a JSON
// array.
func Sources(ctx context.Context, s SourceLoader, w io.Writer) (int, error) {
	sources, err := s.LoadAllSources(ctx)
	if err != nil {
		return 0, fmt.Errorf("failed to load sources: %w", err)
	}

	cw := csv.NewWriter(w)
	if err := cw.Write(sourceHeader); err != nil {
		return 0, err
	}
	for _, src := range sources {
		entities := src.Entities
		if entities == nil {
			entities = []string{}
		}
		encoded, err := json.Marshal(entities)
		if err != nil {
			return 0, err
		}
		row := []string{src.ID, src.ClaimID, src.Title, src.URL, src.Site, src.Body, string(encoded), src.Topic}
		if err := cw.Write(row); err != nil {
			return 0, err
		}
	}
	cw.Flush()
	return len(sources), cw.Error()
}
