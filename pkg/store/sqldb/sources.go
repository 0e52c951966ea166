package sqldb

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"

	"github.com/OFFIS-RIT/factgraph/internal/util"
	"github.com/OFFIS-RIT/factgraph/pkg/common"
	"github.com/OFFIS-RIT/factgraph/pkg/logger"

	"github.com/google/uuid"
)

const selectSources = `SELECT id, COALESCE(claim_id, ''), COALESCE(title, ''), COALESCE(url, ''),
	COALESCE(site, ''), COALESCE(body, ''), COALESCE(topic, ''), COALESCE(entities, '')
FROM sources`

// AddSources inserts one row per input, each under a fresh UUID. The batch
// runs in a single transaction; the first failing row aborts it.
func (s *ClaimDBStorage) AddSources(ctx context.Context, claimID string, sources []common.SourceInput) error {
	if err := s.ensureTables(ctx, tableSources); err != nil {
		logError("AddSources", err)
		return err
	}
	if len(sources) == 0 {
		return nil
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		logError("AddSources", err, "claim_id", claimID)
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	for i, src := range sources {
		entities, err := encodeEntities(src.Entities)
		if err != nil {
			return fmt.Errorf("failed to encode entities of source %d: %w", i, err)
		}

		_, err = tx.ExecContext(ctx,
			`INSERT INTO sources (id, claim_id, title, url, site, body, topic, entities)
			VALUES ($1, $2, $3, $4, $5, $6, $7, $8)`,
			uuid.NewString(),
			claimID,
			util.SanitizeText(src.Title),
			util.SanitizeText(src.URL),
			util.SanitizeText(src.Site),
			util.SanitizeText(src.Body),
			util.SanitizeText(src.Topic),
			entities,
		)
		if err != nil {
			logError("AddSources", err, "claim_id", claimID, "index", i)
			return fmt.Errorf("failed to insert source %d: %w", i, err)
		}
	}

	if err := tx.Commit(); err != nil {
		logError("AddSources", err, "claim_id", claimID)
		return fmt.Errorf("failed to commit sources: %w", err)
	}

	logger.Debug("[Store][AddSources] Sources stored", "claim_id", claimID, "count", len(sources))
	return nil
}

// GetSources returns the sources of one claim. The result is never nil.
func (s *ClaimDBStorage) GetSources(ctx context.Context, claimID string) ([]common.Source, error) {
	if err := s.ensureTables(ctx, tableSources); err != nil {
		return nil, err
	}

	rows, err := s.db.QueryContext(ctx, selectSources+` WHERE claim_id = $1`, claimID)
	if err != nil {
		logError("GetSources", err, "claim_id", claimID)
		return nil, fmt.Errorf("failed to query sources: %w", err)
	}
	return scanSources(rows)
}

// LoadAllSources returns every stored source regardless of claim.
func (s *ClaimDBStorage) LoadAllSources(ctx context.Context) ([]common.Source, error) {
	if err := s.ensureTables(ctx, tableSources); err != nil {
		return nil, err
	}

	rows, err := s.db.QueryContext(ctx, selectSources)
	if err != nil {
		logError("LoadAllSources", err)
		return nil, fmt.Errorf("failed to query sources: %w", err)
	}
	return scanSources(rows)
}

func scanSources(rows *sql.Rows) ([]common.Source, error) {
	defer rows.Close()

	sources := []common.Source{}
	for rows.Next() {
		var (
			src      common.Source
			entities string
		)
		if err := rows.Scan(
			&src.ID, &src.ClaimID, &src.Title, &src.URL,
			&src.Site, &src.Body, &src.Topic, &entities,
		); err != nil {
			return nil, fmt.Errorf("failed to scan source: %w", err)
		}
		src.Entities = decodeEntities(entities)
		sources = append(sources, src)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate sources: %w", err)
	}
	return sources, nil
}

func encodeEntities(entities []string) (string, error) {
	if entities == nil {
		entities = []string{}
	}
	b, err := json.Marshal(util.SanitizeTexts(entities))
	if err != nil {
		return "", err
	}
	return string(b), nil
}

// decodeEntities reads the JSON array stored in the entities column. Rows
// written by other tools may hold a bare string; it becomes a single entity.
func decodeEntities(raw string) []string {
	if raw == "" {
		return []string{}
	}
	var entities []string
	if err := json.Unmarshal([]byte(raw), &entities); err != nil {
		logger.Debug("[Store][decodeEntities] Entities are not a JSON array", "value", raw)
		return []string{raw}
	}
	if entities == nil {
		return []string{}
	}
	return entities
}
