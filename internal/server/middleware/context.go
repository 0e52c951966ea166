package middleware

import (
	"github.com/OFFIS-RIT/factgraph/internal/storage"
	"github.com/OFFIS-RIT/factgraph/pkg/ner"
	"github.com/OFFIS-RIT/factgraph/pkg/scrape"
	"github.com/OFFIS-RIT/factgraph/pkg/store"
	"github.com/OFFIS-RIT/factgraph/pkg/summarize"

	"github.com/MicahParks/keyfunc/v3"
	"github.com/labstack/echo/v4"
	"github.com/rabbitmq/amqp091-go"
)

type AppUser struct {
	UserID      string
	Role        string
	Permissions []string
}

// App carries the shared dependencies of every request. Queue, Key,
// Summarizer, Objects and Scraper are optional; routes that need a missing one
// answer with 503. Without Entities scraped sources keep only their caller
// supplied topic.
type App struct {
	Store      store.ClaimStorage
	Queue      *amqp091.Channel
	Key        *keyfunc.Keyfunc
	Summarizer *summarize.Summarizer
	Objects    *storage.ObjectStore
	Scraper    *scrape.Scraper
	Entities   *ner.Extractor

	AssetPath    string
	MasterAPIKey string
}

type AppContext struct {
	echo.Context
	App  *App
	User *AppUser
}

func AppContextMiddleware(app *App) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			cc := &AppContext{c, app, nil}
			return next(cc)
		}
	}
}
