// Package app wires the configured components into a runnable service.
package app

import (
	"context"
	"errors"
	"fmt"
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"recipe-planner/internal/auth"
	"recipe-planner/internal/cache"
	"recipe-planner/internal/clipper"
	"recipe-planner/internal/config"
	"recipe-planner/internal/database"
	"recipe-planner/internal/grocery"
	"recipe-planner/internal/importer"
	"recipe-planner/internal/ingredient"
	"recipe-planner/internal/llm"
	"recipe-planner/internal/mealplan"
	"recipe-planner/internal/metrics"
	"recipe-planner/internal/recipe"
	"recipe-planner/internal/saved"
	"recipe-planner/internal/server"
	"recipe-planner/internal/spoonacular"
	"recipe-planner/internal/storage"
	"recipe-planner/internal/telegram"
	"recipe-planner/internal/user"
	"recipe-planner/internal/video"
)

// App holds the application's dependencies.
type App struct {
	cfg    *config.Config
	logger *zap.Logger

	db         *database.DB
	cache      cache.Cache
	gemini     *llm.GeminiClient
	collectors *metrics.Collectors
	metrics    *metrics.Store
	users      *user.Repository
	importer   *importer.Service
	queue      *video.Queue
	bot        *telegram.Bot
	router     *gin.Engine

	withTelegram bool
}

type Option func(*App)

// WithTelegram starts the Telegram front end when it is configured. Only
// the long-running server needs it; setting it registers the webhook.
func WithTelegram() Option {
	return func(a *App) { a.withTelegram = true }
}

// New opens the database and cache and builds every service. LLM and
// Spoonacular keys are optional; the features they power answer 503
// without them.
func New(ctx context.Context, cfg *config.Config, logger *zap.Logger, opts ...Option) (*App, error) {
	a := &App{cfg: cfg, logger: logger, collectors: metrics.NewCollectors()}
	for _, opt := range opts {
		opt(a)
	}

	db, err := database.NewDB(ctx, database.Options{
		Driver: cfg.Database.Driver,
		Path:   cfg.Database.Path,
		URL:    cfg.Database.URL,
	}, logger.Named("database"))
	if err != nil {
		return nil, fmt.Errorf("failed to initialize database: %w", err)
	}
	a.db = db

	if err := a.build(ctx); err != nil {
		a.Close()
		return nil, err
	}
	return a, nil
}

func (a *App) build(ctx context.Context) error {
	cfg, logger := a.cfg, a.logger

	c, err := cache.New(ctx, cache.Options{
		RedisAddr:     cfg.Cache.RedisAddr,
		RedisPassword: cfg.Cache.RedisPassword,
		RedisDB:       cfg.Cache.RedisDB,
	}, logger.Named("cache"))
	if err != nil {
		return fmt.Errorf("failed to initialize cache: %w", err)
	}
	a.cache = c

	images, err := storage.NewImageStore(cfg.Storage.ImagePath)
	if err != nil {
		return fmt.Errorf("failed to initialize image store: %w", err)
	}

	text, vision, err := a.llmClients(ctx)
	if err != nil {
		return err
	}

	a.metrics = metrics.NewStore(a.db, a.collectors)
	a.users = user.NewRepository(a.db, logger.Named("users"))

	catalog := ingredient.NewRepository(a.db, logger.Named("ingredients"))
	recipes := recipe.NewService(recipe.NewRepository(a.db), catalog, logger.Named("recipes"))
	extractor := recipe.NewExtractor(text, vision, a.metrics, logger.Named("extractor"))
	clip := clipper.NewClipper(extractor, logger.Named("clipper"))
	a.importer = importer.NewService(clip, extractor, images, recipes, logger.Named("importer"))

	plans := mealplan.NewService(mealplan.NewRepository(a.db), recipes, logger.Named("mealplans"))
	groceries := grocery.NewService(grocery.NewRepository(a.db), plans, recipes, catalog, a.users, logger.Named("grocery"))
	bookmarks := saved.NewService(saved.NewRepository(a.db), recipes, logger.Named("saved"))

	external := spoonacular.NewClient(spoonacular.Options{
		APIKey:            cfg.Spoonacular.APIKey,
		BaseURL:           cfg.Spoonacular.BaseURL,
		RequestsPerSecond: cfg.Spoonacular.RequestsPerSecond,
		CacheTTL:          cfg.Cache.TTLDuration(),
	}, a.cache, a.metrics, logger.Named("spoonacular"))

	a.queue = video.NewQueue(
		video.NewRepository(a.db),
		video.NewImporter(video.NewAnalyzer(extractor, logger.Named("video")), recipes),
		video.Options{
			Workers:     cfg.Video.Workers,
			QueueSize:   cfg.Video.QueueSize,
			JobTimeout:  cfg.Video.JobTimeoutDuration(),
			MaxAttempts: cfg.Video.MaxAttempts,
		},
		a.collectors,
		logger.Named("queue"))

	verifier, err := auth.NewVerifier(auth.Options{
		Secret:        cfg.Auth.JWTSecret,
		PublicKeyFile: cfg.Auth.JWTPublicKeyFile,
		Issuer:        cfg.Auth.Issuer,
		Audience:      cfg.Auth.Audience,
	})
	if err != nil {
		return fmt.Errorf("failed to initialize token verifier: %w", err)
	}
	mw := auth.NewMiddleware(verifier, a.users, cfg.Auth.AdminUserIDs, logger.Named("auth"))

	var webhook gin.HandlerFunc
	if a.withTelegram && cfg.Telegram.Enabled() {
		a.bot, err = telegram.NewBot(cfg.Telegram.BotToken, cfg.Telegram.WebhookURL, cfg.Telegram.WebhookSecret, cfg.Telegram.AllowedUserIDs, telegram.Deps{
			Users:     a.users,
			Importer:  a.importer,
			Plans:     plans,
			Grocery:   groceries,
			Usage:     a.metrics,
			IsAdmin:   cfg.Auth.IsAdmin,
			DataPaths: a.dataPaths(),
		}, logger.Named("telegram"))
		if err != nil {
			return fmt.Errorf("failed to initialize telegram bot: %w", err)
		}
		webhook = a.bot.Webhook
	}

	pag := cfg.Pagination
	httpLogger := logger.Named("http")
	a.router = server.NewRouter(server.Options{
		CORSOrigins: cfg.HTTP.CORSOrigins,
		Auth:        mw,
		DB:          a.db,
		Collectors:  a.collectors,
		Public:      []server.Registrar{storage.NewHandler(images, httpLogger)},
		API: []server.Registrar{
			user.NewHandler(a.users, httpLogger),
			recipe.NewHandler(recipes, httpLogger, pag),
			ingredient.NewHandler(catalog, httpLogger, pag),
			saved.NewHandler(bookmarks, httpLogger, pag),
			mealplan.NewHandler(plans, httpLogger, pag),
			grocery.NewHandler(groceries, httpLogger, pag),
			importer.NewHandler(a.importer, cfg.Storage.MaxUploadBytes(), httpLogger),
			spoonacular.NewHandler(external, recipes, httpLogger),
			video.NewHandler(a.queue, httpLogger, pag),
		},
		Admin:   []server.Registrar{metrics.NewHandler(a.metrics, httpLogger, a.dataPaths()...)},
		Webhook: webhook,
	}, httpLogger)
	return nil
}

// llmClients returns the text and vision generators. Groq serves text when
// configured, Gemini otherwise; Gemini alone reads images. Either may be nil.
func (a *App) llmClients(ctx context.Context) (llm.TextGenerator, llm.ImageReader, error) {
	var text llm.TextGenerator
	var vision llm.ImageReader

	gemini, err := llm.NewGeminiClient(ctx, a.cfg.LLM.GeminiAPIKey, a.cfg.LLM.GeminiModel)
	switch {
	case errors.Is(err, llm.ErrNotConfigured):
		a.logger.Warn("gemini not configured, image import disabled")
	case err != nil:
		return nil, nil, fmt.Errorf("failed to initialize Gemini client: %w", err)
	default:
		a.gemini = gemini
		text, vision = gemini, gemini
	}

	groq, err := llm.NewGroqClient(a.cfg.LLM.GroqAPIKey, a.cfg.LLM.GroqModel)
	switch {
	case errors.Is(err, llm.ErrNotConfigured):
		if text == nil {
			a.logger.Warn("no text model configured, url and video import disabled")
		}
	case err != nil:
		return nil, nil, fmt.Errorf("failed to initialize Groq client: %w", err)
	default:
		text = groq
	}
	return text, vision, nil
}

func (a *App) dataPaths() []string {
	paths := []string{a.cfg.Storage.ImagePath}
	if a.cfg.Database.Driver == config.DriverSQLite {
		paths = append(paths, a.cfg.Database.Path)
	}
	return paths
}

// Handler is the HTTP entry point.
func (a *App) Handler() http.Handler {
	return a.router
}

// Serve runs the HTTP server and the video workers until ctx is cancelled.
// Telegram updates still being handled are awaited before it returns.
func (a *App) Serve(ctx context.Context) error {
	g, ctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		err := server.Run(ctx, a.cfg.HTTP.Addr, a.router, a.cfg.HTTP.ShutdownTimeoutDuration(), a.logger.Named("http"))
		// No webhook handler runs anymore; drain what they started.
		if a.bot != nil {
			a.bot.Wait()
		}
		return err
	})
	g.Go(func() error {
		return a.queue.Run(ctx)
	})
	return g.Wait()
}

// ImportURL imports the recipe at url for userID outside of any request.
func (a *App) ImportURL(ctx context.Context, userID, url string) (*recipe.Recipe, error) {
	if err := a.users.Ensure(ctx, userID, "", ""); err != nil {
		return nil, fmt.Errorf("ensure user %s: %w", userID, err)
	}
	return a.importer.ImportURL(ctx, userID, url)
}

// CleanupMetrics removes usage records older than days.
func (a *App) CleanupMetrics(ctx context.Context, days int) (int64, error) {
	return a.metrics.Cleanup(ctx, days)
}

// Close releases the database, the cache and the LLM clients.
func (a *App) Close() error {
	var errs []error
	if a.gemini != nil {
		errs = append(errs, a.gemini.Close())
	}
	if a.cache != nil {
		errs = append(errs, a.cache.Close())
	}
	if a.db != nil {
		errs = append(errs, a.db.Close())
	}
	return errors.Join(errs...)
}
