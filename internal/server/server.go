package server

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/OFFIS-RIT/factgraph/internal/bootstrap"
	"github.com/OFFIS-RIT/factgraph/internal/queue"
	mid "github.com/OFFIS-RIT/factgraph/internal/server/middleware"
	"github.com/OFFIS-RIT/factgraph/internal/storage"
	"github.com/OFFIS-RIT/factgraph/internal/util"
	"github.com/OFFIS-RIT/factgraph/pkg/logger"

	"github.com/MicahParks/keyfunc/v3"
	"github.com/go-playground/validator"

	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
)

type CustomValidator struct {
	validator *validator.Validate
}

func (cv *CustomValidator) Validate(i any) error {
	if err := cv.validator.Struct(i); err != nil {
		return err
	}
	return nil
}

// NewEcho builds the HTTP server around app without starting it.
func NewEcho(app *mid.App) *echo.Echo {
	e := echo.New()
	e.HideBanner = true
	e.Validator = &CustomValidator{validator: validator.New()}

	e.Use(mid.AppContextMiddleware(app))
	e.Use(middleware.CORS())
	e.Use(middleware.RequestLogger())
	e.Use(middleware.Recover())
	e.Use(middleware.BodyLimit(util.GetEnvString("BODY_LIMIT", "64M")))

	RegisterRoutes(e)
	return e
}

func Init() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	app := &mid.App{
		AssetPath:    util.GetEnvString("ASSET_PATH", "assets"),
		MasterAPIKey: util.GetEnv("MASTER_API_KEY"),
		Scraper:      bootstrap.NewScraper(),
	}

	if authURL := util.GetEnv("AUTH_URL"); authURL != "" {
		k, err := keyfunc.NewDefaultCtx(ctx, []string{authURL + "/jwks"})
		if err != nil {
			logger.Fatal("Failed to load jwks keys", "err", err)
		}
		app.Key = &k
	} else if app.MasterAPIKey == "" {
		logger.Warn("Neither AUTH_URL nor MASTER_API_KEY set, every API request will be rejected")
	}

	claimStore, err := bootstrap.NewClaimStorage(ctx)
	if err != nil {
		logger.Fatal("Failed to open claim store", "err", err)
	}
	defer claimStore.Close()
	app.Store = claimStore

	aiClient, err := bootstrap.NewAIClient()
	if err != nil {
		logger.Fatal("Failed to create AI client", "err", err)
	}
	app.Summarizer, err = bootstrap.NewSummarizer(aiClient)
	if err != nil {
		logger.Fatal("Failed to create summarizer", "err", err)
	}
	app.Entities, err = bootstrap.NewEntityExtractor(aiClient)
	if err != nil {
		logger.Fatal("Failed to create entity extractor", "err", err)
	}

	app.Objects, err = storage.NewObjectStoreFromEnv(ctx)
	if err != nil {
		logger.Fatal("Failed to create S3 client", "err", err)
	}

	if util.GetEnv("RABBITMQ_HOST") != "" {
		que := queue.Init(ctx)
		defer que.Close()
		ch, err := que.Channel()
		if err != nil {
			logger.Fatal("Failed to open channel", "err", err)
		}
		defer ch.Close()
		if err := queue.SetupQueues(ch, queue.Queues); err != nil {
			logger.Fatal("Failed to setup queues", "err", err)
		}
		app.Queue = ch
	} else {
		logger.Warn("RABBITMQ_HOST not set, graph jobs are disabled")
	}

	e := NewEcho(app)

	go func() {
		port := util.GetEnvString("PORT", "8080")
		logger.Info("Starting server", "port", port)
		if err := e.Start(":" + port); err != nil && err != http.ErrServerClosed {
			logger.Fatal("Failed shutting down server", "err", err)
		}
	}()

	<-ctx.Done()
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := e.Shutdown(ctx); err != nil {
		logger.Error("Failed to shutdown server", "err", err)
	}
}
