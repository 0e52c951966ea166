package store

import (
	"context"
	"errors"

	"github.com/OFFIS-RIT/factgraph/pkg/common"

	"github.com/google/uuid"
)

// ErrNotFound is returned when a looked-up record does not exist.
var ErrNotFound = errors.New("not found")

// ClaimStorage persists claims, their sources and generated answers. Every
// write path creates the table it touches when that table is missing.
type ClaimStorage interface {
	CreateClaim(ctx context.Context, text, title, summary, id string) (common.Claim, error)
	GetClaim(ctx context.Context, id string) (common.Claim, error)
	ListClaims(ctx context.Context) ([]common.Claim, error)

	AddSources(ctx context.Context, claimID string, sources []common.SourceInput) error
	GetSources(ctx context.Context, claimID string) ([]common.Source, error)
	LoadAllSources(ctx context.Context) ([]common.Source, error)

	CreateAnswer(ctx context.Context, claimID, answer, graphsFolder, id string) (common.Answer, error)
	GetAnswers(ctx context.Context, claimID string) ([]common.Answer, error)
	HasAnswer(ctx context.Context, claimID string) (bool, error)

	Clear(ctx context.Context, claimID string) error
	ClearAll(ctx context.Context) error
}

// TrimTitle drops the first two characters of a generated title. The
// rephrasing prompt asks the model to prefix its query with a two-character
// marker, and that marker is what gets removed here. Titles shorter than two
// characters become empty.
func TrimTitle(title string) string {
	runes := []rune(title)
	if len(runes) < 2 {
		return ""
	}
	return string(runes[2:])
}

// EnsureID returns id, or a fresh UUID when id is empty.
func EnsureID(id string) string {
	if id != "" {
		return id
	}
	return uuid.NewString()
}
