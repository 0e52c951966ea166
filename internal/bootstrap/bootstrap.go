// Package bootstrap builds the shared components of the server, worker and
// CLI from environment variables.
package bootstrap

import (
	"context"
	"fmt"

	"github.com/OFFIS-RIT/factgraph/internal/util"
	"github.com/OFFIS-RIT/factgraph/pkg/ai"
	gai "github.com/OFFIS-RIT/factgraph/pkg/ai/openai"
	oai "github.com/OFFIS-RIT/factgraph/pkg/ai/ollama"
	"github.com/OFFIS-RIT/factgraph/pkg/graph"
	"github.com/OFFIS-RIT/factgraph/pkg/graph/memory"
	gneo4j "github.com/OFFIS-RIT/factgraph/pkg/graph/neo4j"
	"github.com/OFFIS-RIT/factgraph/pkg/logger"
	"github.com/OFFIS-RIT/factgraph/pkg/logger/console"
	"github.com/OFFIS-RIT/factgraph/pkg/ner"
	"github.com/OFFIS-RIT/factgraph/pkg/scrape"
	"github.com/OFFIS-RIT/factgraph/pkg/store/sqldb"
	"github.com/OFFIS-RIT/factgraph/pkg/summarize"
)

func InitLogger(prefix string) {
	consoleLogger := console.NewConsoleLogger(console.ConsoleLoggerParams{
		Debug:  util.GetEnvBool("DEBUG", false),
		Prefix: prefix,
	})
	logger.Init(consoleLogger)
}

// NewClaimStorage opens the relational store selected by DB_DRIVER. Postgres
// reads DATABASE_URL, SQLite reads SQLDB_PATH.
func NewClaimStorage(ctx context.Context) (*sqldb.ClaimDBStorage, error) {
	driver, err := sqldb.ParseDriver(util.GetEnvString("DB_DRIVER", string(sqldb.DriverSQLite)))
	if err != nil {
		return nil, err
	}

	dsn := util.GetEnvString("SQLDB_PATH", "data/claims.db")
	if driver == sqldb.DriverPostgres {
		dsn = util.GetEnv("DATABASE_URL")
		if dsn == "" {
			return nil, fmt.Errorf("DATABASE_URL is required for driver %s", driver)
		}
	}

	return sqldb.Open(ctx, driver, dsn)
}

// NewScraper creates the page scraper. SEARCH_URL selects the HTML search
// endpoint and SCRAPE_RESPECT_ROBOTS=false turns off the robots.txt check.
func NewScraper() *scrape.Scraper {
	return scrape.NewScraper(nil,
		scrape.WithSearchURL(util.GetEnvString("SEARCH_URL", scrape.DefaultSearchURL)),
		scrape.WithUserAgent(util.GetEnv("SCRAPE_USER_AGENT")),
		scrape.WithRobots(util.GetEnvBool("SCRAPE_RESPECT_ROBOTS", true)),
	)
}

// NewGraphStore creates the graph backend selected by GRAPH_ADAPTER.
func NewGraphStore(ctx context.Context) (graph.GraphStore, error) {
	adapter := util.GetEnvString("GRAPH_ADAPTER", "memory")
	switch adapter {
	case "memory":
		return memory.NewGraphMemoryStorage(), nil
	case "neo4j":
		return gneo4j.NewGraphNeo4jStorage(ctx, gneo4j.NewGraphNeo4jStorageParams{
			URI:      util.GetEnvString("NEO4J_URI", "bolt://localhost:7687"),
			Username: util.GetEnvString("NEO4J_USERNAME", "neo4j"),
			Password: util.GetEnv("NEO4J_PASSWORD"),
			Database: util.GetEnv("NEO4J_DATABASE"),
		})
	default:
		return nil, fmt.Errorf("unsupported graph adapter %q", adapter)
	}
}

func NewGraphClient(ctx context.Context) (*graph.GraphClient, error) {
	store, err := NewGraphStore(ctx)
	if err != nil {
		return nil, err
	}
	return graph.NewGraphClient(graph.NewGraphClientParams{
		Store:         store,
		Width:         util.GetEnvInt("GRAPH_WIDTH", 0),
		Height:        util.GetEnvInt("GRAPH_HEIGHT", 0),
		LayoutUpdates: util.GetEnvInt("GRAPH_LAYOUT_UPDATES", 0),
	})
}

// NewAIClient creates the chat client selected by AI_ADAPTER. Without
// AI_CHAT_MODEL no client is configured and nil is returned.
func NewAIClient() (ai.ChatAIClient, error) {
	model := util.GetEnv("AI_CHAT_MODEL")
	if model == "" {
		return nil, nil
	}

	adapter := util.GetEnvString("AI_ADAPTER", "openai")
	switch adapter {
	case "ollama":
		client, err := oai.NewChatOllamaClient(oai.NewChatOllamaClientParams{
			Model:   model,
			BaseURL: util.GetEnv("AI_CHAT_URL"),
			APIKey:  util.GetEnv("AI_CHAT_KEY"),
		})
		if err != nil {
			return nil, fmt.Errorf("could not create Ollama client: %w", err)
		}
		return client, nil
	case "openai":
		return gai.NewChatOpenAIClient(gai.NewChatOpenAIClientParams{
			Model:      model,
			BaseURL:    util.GetEnv("AI_CHAT_URL"),
			APIKey:     util.GetEnv("AI_CHAT_KEY"),
			MaxRetries: util.GetEnvInt("AI_MAX_RETRIES", 0),
		}), nil
	default:
		return nil, fmt.Errorf("unsupported ai adapter %q", adapter)
	}
}

// NewSummarizer wraps client in a Summarizer configured from AI_* variables.
// A nil client yields a nil Summarizer.
func NewSummarizer(client ai.ChatAIClient) (*summarize.Summarizer, error) {
	if client == nil {
		return nil, nil
	}
	return summarize.NewSummarizer(summarize.NewSummarizerParams{
		Client:       client,
		Model:        util.GetEnv("AI_CHAT_MODEL"),
		LowModel:     util.GetEnv("AI_CHAT_LOW_MODEL"),
		Language:     util.GetEnv("AI_SUMMARY_LANGUAGE"),
		MaxTokens:    util.GetEnvInt("AI_MAX_TOKENS", summarize.DefaultMaxTokens),
		Temperature:  util.GetEnvFloat("AI_TEMPERATURE", 0),
		SleepPerChar: util.GetEnvDuration("AI_SLEEP_PER_CHAR", summarize.DefaultSleepPerChar),
	})
}

// NewEntityExtractor returns nil when no AI client is configured. Extraction
// runs on the low model unless AI_NER_MODEL names another one.
func NewEntityExtractor(client ai.ChatAIClient) (*ner.Extractor, error) {
	if client == nil {
		return nil, nil
	}
	model := util.GetEnv("AI_NER_MODEL")
	if model == "" {
		model = util.GetEnv("AI_CHAT_LOW_MODEL")
	}
	return ner.NewExtractor(ner.NewExtractorParams{
		Client:      client,
		Model:       model,
		MaxTokens:   util.GetEnvInt("AI_NER_MAX_TOKENS", ner.DefaultMaxTokens),
		Temperature: util.GetEnvFloat("AI_NER_TEMPERATURE", 0),
		MaxChars:    util.GetEnvInt("AI_NER_MAX_CHARS", ner.DefaultMaxChars),
	})
}
