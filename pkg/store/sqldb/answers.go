package sqldb

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/OFFIS-RIT/factgraph/internal/util"
	"github.com/OFFIS-RIT/factgraph/pkg/common"
	"github.com/OFFIS-RIT/factgraph/pkg/store"
)

func (s *ClaimDBStorage) CreateAnswer(ctx context.Context, claimID, answer, graphsFolder, id string) (common.Answer, error) {
	a := common.Answer{
		ID:           store.EnsureID(id),
		ClaimID:      claimID,
		Answer:       util.SanitizeText(answer),
		GraphsFolder: graphsFolder,
	}

	if err := s.ensureTables(ctx, tableAnswers); err != nil {
		logError("CreateAnswer", err)
		return common.Answer{}, err
	}

	_, err := s.db.ExecContext(ctx,
		`INSERT INTO answers (id, claim_id, answer, graphs_folder) VALUES ($1, $2, $3, $4)`,
		a.ID, a.ClaimID, a.Answer, a.GraphsFolder,
	)
	if err != nil {
		logError("CreateAnswer", err, "claim_id", claimID)
		return common.Answer{}, fmt.Errorf("failed to insert answer: %w", err)
	}
	return a, nil
}

func (s *ClaimDBStorage) GetAnswers(ctx context.Context, claimID string) ([]common.Answer, error) {
	if err := s.ensureTables(ctx, tableAnswers); err != nil {
		return nil, err
	}

	rows, err := s.db.QueryContext(ctx,
		`SELECT id, COALESCE(claim_id, ''), COALESCE(answer, ''), COALESCE(graphs_folder, '')
		FROM answers WHERE claim_id = $1`,
		claimID,
	)
	if err != nil {
		logError("GetAnswers", err, "claim_id", claimID)
		return nil, fmt.Errorf("failed to query answers: %w", err)
	}
	defer rows.Close()

	answers := []common.Answer{}
	for rows.Next() {
		var a common.Answer
		if err := rows.Scan(&a.ID, &a.ClaimID, &a.Answer, &a.GraphsFolder); err != nil {
			return nil, fmt.Errorf("failed to scan answer: %w", err)
		}
		answers = append(answers, a)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate answers: %w", err)
	}
	return answers, nil
}

func (s *ClaimDBStorage) HasAnswer(ctx context.Context, claimID string) (bool, error) {
	if err := s.ensureTables(ctx, tableAnswers); err != nil {
		return false, err
	}

	var one int
	err := s.db.QueryRowContext(ctx,
		`SELECT 1 FROM answers WHERE claim_id = $1 LIMIT 1`,
		claimID,
	).Scan(&one)
	if errors.Is(err, sql.ErrNoRows) {
		return false, nil
	}
	if err != nil {
		logError("HasAnswer", err, "claim_id", claimID)
		return false, fmt.Errorf("failed to check answer: %w", err)
	}
	return true, nil
}
