package sqldb

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/OFFIS-RIT/factgraph/internal/util"
	"github.com/OFFIS-RIT/factgraph/pkg/common"
	"github.com/OFFIS-RIT/factgraph/pkg/logger"
	"github.com/OFFIS-RIT/factgraph/pkg/store"
)

// CreateClaim stores a claim. An empty id gets a fresh UUID and the title
// loses its first two characters (see store.TrimTitle).
func (s *ClaimDBStorage) CreateClaim(ctx context.Context, text, title, summary, id string) (common.Claim, error) {
	claim := common.Claim{
		ID:      store.EnsureID(id),
		Text:    util.SanitizeText(text),
		Title:   util.SanitizeText(store.TrimTitle(title)),
		Summary: util.SanitizeText(summary),
	}

	if err := s.ensureTables(ctx, tableClaims); err != nil {
		logError("CreateClaim", err)
		return common.Claim{}, err
	}

	_, err := s.db.ExecContext(ctx,
		`INSERT INTO claims (id, text, title, summary) VALUES ($1, $2, $3, $4)`,
		claim.ID, claim.Text, claim.Title, claim.Summary,
	)
	if err != nil {
		logError("CreateClaim", err, "claim_id", claim.ID)
		return common.Claim{}, fmt.Errorf("failed to insert claim: %w", err)
	}

	logger.Debug("[Store][CreateClaim] Claim stored", "claim_id", claim.ID)
	return claim, nil
}

func (s *ClaimDBStorage) GetClaim(ctx context.Context, id string) (common.Claim, error) {
	if err := s.ensureTables(ctx, tableClaims); err != nil {
		return common.Claim{}, err
	}

	var c common.Claim
	err := s.db.QueryRowContext(ctx,
		`SELECT id, COALESCE(text, ''), COALESCE(title, ''), COALESCE(summary, '') FROM claims WHERE id = $1`,
		id,
	).Scan(&c.ID, &c.Text, &c.Title, &c.Summary)
	if errors.Is(err, sql.ErrNoRows) {
		return common.Claim{}, store.ErrNotFound
	}
	if err != nil {
		logError("GetClaim", err, "claim_id", id)
		return common.Claim{}, fmt.Errorf("failed to get claim: %w", err)
	}
	return c, nil
}

// ListClaims returns every stored claim ordered by text.
func (s *ClaimDBStorage) ListClaims(ctx context.Context) ([]common.Claim, error) {
	if err := s.ensureTables(ctx, tableClaims); err != nil {
		return nil, err
	}

	rows, err := s.db.QueryContext(ctx,
		`SELECT id, COALESCE(text, ''), COALESCE(title, ''), COALESCE(summary, '') FROM claims ORDER BY text, id`,
	)
	if err != nil {
		logError("ListClaims", err)
		return nil, fmt.Errorf("failed to list claims: %w", err)
	}
	defer rows.Close()

	claims := []common.Claim{}
	for rows.Next() {
		var c common.Claim
		if err := rows.Scan(&c.ID, &c.Text, &c.Title, &c.Summary); err != nil {
			return nil, fmt.Errorf("failed to scan claim: %w", err)
		}
		claims = append(claims, c)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate claims: %w", err)
	}
	return claims, nil
}

// Clear removes a claim together with its sources and answers. Clearing an
// unknown claim is a no-op.
func (s *ClaimDBStorage) Clear(ctx context.Context, claimID string) error {
	if err := s.ensureTables(ctx, tableClaims, tableSources, tableAnswers); err != nil {
		logError("Clear", err)
		return err
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		logError("Clear", err, "claim_id", claimID)
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	stmts := []string{
		`DELETE FROM sources WHERE claim_id = $1`,
		`DELETE FROM answers WHERE claim_id = $1`,
		`DELETE FROM claims WHERE id = $1`,
	}
	for _, stmt := range stmts {
		if _, err := tx.ExecContext(ctx, stmt, claimID); err != nil {
			logError("Clear", err, "claim_id", claimID)
			return fmt.Errorf("failed to clear claim: %w", err)
		}
	}

	if err := tx.Commit(); err != nil {
		logError("Clear", err, "claim_id", claimID)
		return fmt.Errorf("failed to commit clear: %w", err)
	}

	logger.Debug("[Store][Clear] Claim cleared", "claim_id", claimID)
	return nil
}

// ClearAll empties all three tables.
func (s *ClaimDBStorage) ClearAll(ctx context.Context) error {
	if err := s.ensureTables(ctx, tableClaims, tableSources, tableAnswers); err != nil {
		logError("ClearAll", err)
		return err
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	for _, table := range []string{tableSources, tableAnswers, tableClaims} {
		if _, err := tx.ExecContext(ctx, "DELETE FROM "+table); err != nil {
			logError("ClearAll", err, "table", table)
			return fmt.Errorf("failed to clear %s: %w", table, err)
		}
	}

	if err := tx.Commit(); err != nil {
		logError("ClearAll", err)
		return fmt.Errorf("failed to commit clear: %w", err)
	}

	logger.Info("[Store][ClearAll] All conversations deleted")
	return nil
}
