package sqldb

import (
	"context"
	"fmt"
	"hash/fnv"
)

const (
	tableClaims  = "claims"
	tableSources = "sources"
	tableAnswers = "answers"
)

var tableDDL = map[string]string{
	tableClaims: `CREATE TABLE IF NOT EXISTS claims (
	id TEXT PRIMARY KEY,
	text TEXT,
	title TEXT,
	summary TEXT
)`,
	tableSources: `CREATE TABLE IF NOT EXISTS sources (
	id TEXT PRIMARY KEY,
	claim_id TEXT REFERENCES claims(id),
	title TEXT,
	url TEXT,
	site TEXT,
	body TEXT,
	topic TEXT,
	entities TEXT
)`,
	tableAnswers: `CREATE TABLE IF NOT EXISTS answers (
	id TEXT PRIMARY KEY,
	claim_id TEXT REFERENCES claims(id),
	answer TEXT,
	graphs_folder TEXT
)`,
}

// sources and answers reference claims, so claims has to exist first.
var tableDeps = map[string][]string{
	tableSources: {tableClaims},
	tableAnswers: {tableClaims},
}

// ensureTables creates each table at most once per process. Concurrent callers
// for the same table share one creation attempt; a failed attempt is retried
// by the next caller.
func (s *ClaimDBStorage) ensureTables(ctx context.Context, tables ...string) error {
	for _, table := range tables {
		if err := s.ensureTables(ctx, tableDeps[table]...); err != nil {
			return err
		}
		if _, ok := s.ensured.Load(table); ok {
			continue
		}

		_, err, _ := s.group.Do(table, func() (any, error) {
			if _, ok := s.ensured.Load(table); ok {
				return nil, nil
			}
			if err := s.createTable(ctx, table); err != nil {
				return nil, err
			}
			s.ensured.Store(table, struct{}{})
			return nil, nil
		})
		if err != nil {
			return fmt.Errorf("failed to ensure table %s: %w", table, err)
		}
	}
	return nil
}

func (s *ClaimDBStorage) createTable(ctx context.Context, table string) error {
	ddl, ok := tableDDL[table]
	if !ok {
		return fmt.Errorf("unknown table %s", table)
	}

	if s.driver != DriverPostgres {
		_, err := s.db.ExecContext(ctx, ddl)
		return err
	}

	// CREATE TABLE IF NOT EXISTS races on pg_type in Postgres; the advisory
	// lock serializes creators across processes.
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx, "SELECT pg_advisory_xact_lock($1)", advisoryKey(table)); err != nil {
		return err
	}
	if _, err := tx.ExecContext(ctx, ddl); err != nil {
		return err
	}
	return tx.Commit()
}

func advisoryKey(table string) int64 {
	h := fnv.New64a()
	h.Write([]byte("factgraph.schema." + table))
	return int64(h.Sum64())
}
