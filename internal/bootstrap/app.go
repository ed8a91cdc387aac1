// Package bootstrap wires configuration into running dependencies.
package bootstrap

import (
	"context"
	"database/sql"
	"fmt"
	"strings"

	"github.com/gin-gonic/gin"

	"medocr-backend/internal/documents"
	"medocr-backend/internal/extractions"
	"medocr-backend/internal/llm"
	"medocr-backend/internal/llm/gemini"
	"medocr-backend/internal/notify"
	"medocr-backend/internal/ocr"
	"medocr-backend/internal/ocr/tesseract"
	"medocr-backend/internal/patients"
	"medocr-backend/internal/shared/config"
	"medocr-backend/internal/shared/server"
	"medocr-backend/internal/shared/storage/db"
	"medocr-backend/internal/shared/storage/object"
	localstore "medocr-backend/internal/shared/storage/object/local"
	s3store "medocr-backend/internal/shared/storage/object/s3"
	"medocr-backend/internal/shared/telemetry"
)

// App holds shared dependencies.
type App struct {
	Config            config.Config
	Router            *gin.Engine
	DB                *sql.DB
	Store             object.ObjectStore
	Notifier          notify.Notifier
	DocumentsRepo     documents.Repo
	PatientsRepo      patients.Repo
	OCREngine         ocr.Engine
	LLM               llm.Client
	ExtractionService *extractions.Service
	OCRHandler        *ocr.Handler
	ExtractionHandler *extractions.Handler
}

// Build prepares shared dependencies and the router.
func Build(cfg config.Config) (*App, error) {
	if strings.TrimSpace(cfg.Env) == "" {
		cfg.Env = "dev"
	}
	if strings.TrimSpace(cfg.ObjectStoreType) == "" {
		cfg.ObjectStoreType = "local"
	}
	ctx := context.Background()

	sqlDB, err := buildDB(ctx, cfg)
	if err != nil {
		return nil, err
	}

	store, err := buildStore(ctx, cfg)
	if err != nil {
		return nil, err
	}

	notifier, err := buildNotifier(ctx, cfg)
	if err != nil {
		return nil, err
	}

	app := &App{
		Config:   cfg,
		DB:       sqlDB,
		Store:    store,
		Notifier: notifier,
	}
	buildServices(app)

	app.Router = server.NewRouter(server.RouterDeps{
		Config:            app.Config,
		OCRHandler:        app.OCRHandler,
		ExtractionHandler: app.ExtractionHandler,
	})

	return app, nil
}

func buildDB(ctx context.Context, cfg config.Config) (*sql.DB, error) {
	if strings.TrimSpace(cfg.DatabaseURL) == "" {
		if isDevLike(cfg.Env) {
			telemetry.Warn("bootstrap.memory_repos", map[string]any{"reason": "DATABASE_URL empty"})
			return nil, nil
		}
		return nil, fmt.Errorf("DATABASE_URL is required")
	}

	opts := db.OptionsFromEnv(db.DefaultServerOptions())
	sqlDB, err := db.Connect(ctx, cfg.DatabaseURL, opts)
	if err != nil {
		if isDevLike(cfg.Env) {
			telemetry.Warn("bootstrap.memory_repos", map[string]any{"reason": "connect failed", "error": err.Error()})
			return nil, nil
		}
		return nil, err
	}

	if err := db.RunMigrations(ctx, sqlDB); err != nil {
		if isDevLike(cfg.Env) {
			telemetry.Warn("bootstrap.memory_repos", map[string]any{"reason": "migrations failed", "error": err.Error()})
			_ = sqlDB.Close()
			return nil, nil
		}
		return nil, err
	}

	return sqlDB, nil
}

func buildStore(ctx context.Context, cfg config.Config) (object.ObjectStore, error) {
	switch cfg.ObjectStoreType {
	case "s3":
		if strings.TrimSpace(cfg.S3Bucket) == "" {
			return nil, fmt.Errorf("OBJECT_STORE=s3 requires S3_BUCKET")
		}
		return s3store.New(ctx, cfg.AWSRegion, cfg.S3Bucket, cfg.S3Prefix, cfg.SSEKMSKeyID)
	default:
		return localstore.New(cfg.LocalStoreDir), nil
	}
}

func buildNotifier(ctx context.Context, cfg config.Config) (notify.Notifier, error) {
	if strings.TrimSpace(cfg.NotifyQueueURL) == "" {
		return notify.Noop{}, nil
	}
	return notify.NewSQSNotifier(ctx, cfg.NotifyQueueURL, cfg.AWSRegion)
}

func buildServices(app *App) {
	var docRepo documents.Repo
	var patRepo patients.Repo
	if app.DB != nil {
		docRepo = &documents.PGRepo{DB: app.DB}
		patRepo = &patients.PGRepo{DB: app.DB}
	} else {
		docRepo = documents.NewMemoryRepo()
		patRepo = patients.NewMemoryRepo()
	}

	llmClient := llm.Client(llm.PlaceholderClient{})
	if strings.TrimSpace(app.Config.GeminiAPIKey) != "" {
		client, err := gemini.NewClient(app.Config.GeminiAPIKey, app.Config.GeminiModel)
		if err != nil {
			telemetry.Warn("bootstrap.gemini_unavailable", map[string]any{"error": err.Error()})
		} else {
			llmClient = client
		}
	}

	engine := ocr.Engine(tesseract.New())

	extractionSvc := &extractions.Service{
		Docs:     docRepo,
		Patients: patRepo,
		Store:    app.Store,
		LLM:      llmClient,
		Notifier: app.Notifier,
		Model:    app.Config.GeminiModel,
	}

	app.DocumentsRepo = docRepo
	app.PatientsRepo = patRepo
	app.OCREngine = engine
	app.LLM = llmClient
	app.ExtractionService = extractionSvc
	app.OCRHandler = ocr.NewHandler(engine, app.Config.OCRLanguages)
	app.ExtractionHandler = extractions.NewHandler(extractionSvc)
}

func isDevLike(env string) bool {
	switch strings.ToLower(strings.TrimSpace(env)) {
	case "dev", "local":
		return true
	default:
		return false
	}
}
