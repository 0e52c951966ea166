package neo4j

import (
	"context"
	"fmt"
	"strings"

	"github.com/OFFIS-RIT/factgraph/pkg/common"
	"github.com/OFFIS-RIT/factgraph/pkg/logger"

	neo4jdriver "github.com/neo4j/neo4j-go-driver/v5/neo4j"
)

// mergeArticlesCypher upserts every article with its site, entities and
// topics in a single statement. FOREACH keeps an article without entities
// from losing its topics, which a chain of UNWINDs would drop.
const mergeArticlesCypher = `
UNWIND $data AS article
MERGE (a:Article {title: article.title})
SET a.url = article.url, a.body = article.body
FOREACH (_ IN CASE WHEN article.site <> '' THEN [1] ELSE [] END |
	MERGE (s:Site {name: article.site})
	MERGE (a)-[:PUBLISHED_ON]->(s))
FOREACH (entity IN article.entities |
	MERGE (e:Entity {name: entity})
	MERGE (a)-[:MENTIONS]->(e))
FOREACH (topic IN article.topics |
	MERGE (t:Topic {name: topic})
	MERGE (a)-[:HAS_TOPIC]->(t))
`

const resetCypher = `MATCH (n) WHERE n:Article OR n:Site OR n:Entity OR n:Topic DETACH DELETE n`

// GraphNeo4jStorage implements graph.GraphStore on a Neo4j database.
type GraphNeo4jStorage struct {
	driver   neo4jdriver.DriverWithContext
	database string
}

type NewGraphNeo4jStorageParams struct {
	URI      string
	Username string
	Password string
	Database string
}

// NewGraphNeo4jStorage connects to Neo4j and verifies connectivity. http(s)
// URIs are rewritten to bolt.
func NewGraphNeo4jStorage(ctx context.Context, params NewGraphNeo4jStorageParams) (*GraphNeo4jStorage, error) {
	driver, err := neo4jdriver.NewDriverWithContext(
		normalizeURI(params.URI),
		neo4jdriver.BasicAuth(params.Username, params.Password, ""),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create neo4j driver: %w", err)
	}
	if err := driver.VerifyConnectivity(ctx); err != nil {
		driver.Close(ctx)
		return nil, fmt.Errorf("failed to connect to neo4j: %w", err)
	}

	return &GraphNeo4jStorage{driver: driver, database: params.Database}, nil
}

func (s *GraphNeo4jStorage) session(ctx context.Context, mode neo4jdriver.AccessMode) neo4jdriver.SessionWithContext {
	return s.driver.NewSession(ctx, neo4jdriver.SessionConfig{
		AccessMode:   mode,
		DatabaseName: s.database,
	})
}

func (s *GraphNeo4jStorage) MergeArticles(ctx context.Context, articles []common.Article) error {
	if len(articles) == 0 {
		return nil
	}

	session := s.session(ctx, neo4jdriver.AccessModeWrite)
	defer session.Close(ctx)

	result, err := session.Run(ctx, mergeArticlesCypher, map[string]any{
		"data": articleParams(articles),
	})
	if err != nil {
		return fmt.Errorf("failed to merge articles: %w", err)
	}
	summary, err := result.Consume(ctx)
	if err != nil {
		return fmt.Errorf("failed to merge articles: %w", err)
	}

	counters := summary.Counters()
	logger.Debug(
		"[Neo4j][MergeArticles] Articles merged",
		"articles", len(articles),
		"nodes_created", counters.NodesCreated(),
		"relationships_created", counters.RelationshipsCreated(),
	)
	return nil
}

func (s *GraphNeo4jStorage) Pairs(ctx context.Context, rel common.Relation) ([]common.Pair, error) {
	query, err := pairsCypher(rel)
	if err != nil {
		return nil, err
	}

	session := s.session(ctx, neo4jdriver.AccessModeRead)
	defer session.Close(ctx)

	result, err := session.Run(ctx, query, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to query %s: %w", rel.Type, err)
	}

	pairs := []common.Pair{}
	for result.Next(ctx) {
		record := result.Record()
		source, _ := record.Get("source")
		target, _ := record.Get("target")
		pairs = append(pairs, common.Pair{
			Source: asString(source),
			Target: asString(target),
		})
	}
	if err := result.Err(); err != nil {
		return nil, fmt.Errorf("failed to read %s: %w", rel.Type, err)
	}
	return pairs, nil
}

func (s *GraphNeo4jStorage) Reset(ctx context.Context) error {
	session := s.session(ctx, neo4jdriver.AccessModeWrite)
	defer session.Close(ctx)

	result, err := session.Run(ctx, resetCypher, nil)
	if err != nil {
		return fmt.Errorf("failed to reset graph: %w", err)
	}
	if _, err := result.Consume(ctx); err != nil {
		return fmt.Errorf("failed to reset graph: %w", err)
	}
	return nil
}

func (s *GraphNeo4jStorage) Close(ctx context.Context) error {
	return s.driver.Close(ctx)
}

// pairsCypher only accepts the fixed relations; labels and types cannot be
// passed as query parameters.
func pairsCypher(rel common.Relation) (string, error) {
	for _, r := range common.Relations {
		if r == rel {
			return fmt.Sprintf(
				"MATCH (a:Article)-[:%s]->(t:%s) RETURN a.title AS source, t.name AS target",
				rel.Type, rel.TargetLabel,
			), nil
		}
	}
	return "", fmt.Errorf("unknown relation %s", rel.Type)
}

func articleParams(articles []common.Article) []any {
	data := make([]any, 0, len(articles))
	for _, a := range articles {
		data = append(data, map[string]any{
			"title":    a.Title,
			"url":      a.URL,
			"body":     a.Body,
			"site":     a.Site,
			"entities": nonNil(common.DedupeStrings(a.Entities)),
			"topics":   nonNil(common.DedupeStrings(a.Topics)),
		})
	}
	return data
}

func nonNil(in []string) []string {
	if in == nil {
		return []string{}
	}
	return in
}

func asString(v any) string {
	s, _ := v.(string)
	return s
}

func normalizeURI(uri string) string {
	for _, scheme := range []string{"https://", "http://"} {
		if strings.HasPrefix(uri, scheme) {
			return "bolt://" + strings.TrimPrefix(uri, scheme)
		}
	}
	return uri
}
