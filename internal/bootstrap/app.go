package bootstrap

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/gin-gonic/gin"

	"letterhead-backend/internal/assets"
	"letterhead-backend/internal/crop"
	"letterhead-backend/internal/documents"
	"letterhead-backend/internal/drafts"
	"letterhead-backend/internal/letterheads"
	"letterhead-backend/internal/profiles"
	"letterhead-backend/internal/rasterize"
	"letterhead-backend/internal/services/health"
	"letterhead-backend/internal/shared/config"
	"letterhead-backend/internal/shared/server"
	"letterhead-backend/internal/shared/storage/db"
	"letterhead-backend/internal/shared/storage/object"
	localstore "letterhead-backend/internal/shared/storage/object/local"
	memstore "letterhead-backend/internal/shared/storage/object/memory"
	s3store "letterhead-backend/internal/shared/storage/object/s3"
	"letterhead-backend/internal/shared/telemetry"
	"letterhead-backend/internal/templates"
	"letterhead-backend/internal/wizard"
)

// uploadTTL bounds how long an uncropped upload is kept.
const uploadTTL = time.Hour

// App holds shared dependencies.
type App struct {
	Config config.Config
	Router *gin.Engine
	DB     *sql.DB
	Store  object.ObjectStore

	ProfileRepo profiles.Repo
	DraftRepo   drafts.Repo
	Exporter    documents.Exporter

	ProfileService    *profiles.Service
	LetterheadService *letterheads.Service
	WizardService     *wizard.Service
	DocumentService   *documents.Service
	Autosaver         *drafts.Autosaver
	Health            *health.Service
}

// Options replaces external collaborators. Zero fields use the configured
// implementation.
type Options struct {
	Store    object.ObjectStore
	Renderer rasterize.PageRenderer
	Exporter documents.Exporter
}

// Build prepares dependencies and the router from configuration.
func Build(cfg config.Config) (*App, error) {
	return BuildWithOptions(cfg, Options{})
}

// BuildWithOptions is Build with collaborators overridden.
func BuildWithOptions(cfg config.Config, opts Options) (*App, error) {
	if strings.TrimSpace(cfg.Env) == "" {
		cfg.Env = "dev"
	}
	if strings.TrimSpace(cfg.ProfileStore) == "" {
		cfg.ProfileStore = "memory"
	}
	ctx := context.Background()

	app := &App{Config: cfg, Health: health.NewService()}

	sqlDB, err := buildDB(ctx, cfg)
	if err != nil {
		return nil, err
	}
	app.DB = sqlDB
	if sqlDB != nil {
		app.Health.Register("database", sqlDB.PingContext)
	}

	app.Store = opts.Store
	if app.Store == nil {
		if app.Store, err = buildStore(ctx, cfg); err != nil {
			return nil, err
		}
	}

	if app.ProfileRepo, err = buildProfileRepo(cfg, sqlDB); err != nil {
		return nil, err
	}
	if sqlDB != nil {
		app.DraftRepo = &drafts.PGRepo{DB: sqlDB}
	} else {
		app.DraftRepo = drafts.NewMemoryRepo()
	}

	renderer := opts.Renderer
	if renderer == nil {
		renderer = rasterize.NewPageRenderer(cfg.PageRenderer, cfg.PdftoppmBin)
	}
	app.Exporter = opts.Exporter
	if app.Exporter == nil {
		app.Exporter = buildExporter(cfg)
	}

	buildServices(app, renderer)

	app.Router = server.NewRouter(server.RouterDeps{
		Config:            cfg,
		Health:            app.Health,
		ProfileHandler:    profiles.NewHandler(app.ProfileService),
		LetterheadHandler: letterheads.NewHandler(app.LetterheadService),
		TemplateHandler:   templates.NewHandler(),
		WizardHandler:     wizard.NewHandler(app.WizardService),
		DocumentHandler:   documents.NewHandler(app.DocumentService),
		DraftHandler:      drafts.NewHandler(app.Autosaver),
		AssetHandler:      assets.NewHandler(app.Store),
	})

	telemetry.Info("bootstrap.ready", map[string]any{
		"env":           cfg.Env,
		"profile_store": cfg.ProfileStore,
		"object_store":  cfg.ObjectStoreType,
		"export_engine": cfg.ExportEngine,
		"database":      sqlDB != nil,
	})
	return app, nil
}

func buildServices(app *App, renderer rasterize.PageRenderer) {
	cfg := app.Config
	minCrop := crop.Size{Width: cfg.CropMinWidth, Height: cfg.CropMinHeight}
	if minCrop.Width <= 0 {
		minCrop.Width = crop.DefaultMinWidth
	}
	if minCrop.Height <= 0 {
		minCrop.Height = crop.DefaultMinHeight
	}

	app.ProfileService = profiles.NewService(app.ProfileRepo)
	app.LetterheadService = letterheads.NewService(
		app.ProfileService,
		app.Store,
		&rasterize.Rasterizer{Renderer: renderer, Timeout: cfg.RenderTimeout},
		letterheads.NewUploadStore(uploadTTL),
		minCrop,
	)

	app.Autosaver = drafts.NewAutosaver(app.DraftRepo, cfg.DraftDelay)
	app.WizardService = wizard.NewService(wizard.NewSessionStore(cfg.WizardTTL), app.ProfileService, app.Store)
	app.WizardService.OnDocumentChange = func(userID string, data profiles.DocumentData) {
		app.Autosaver.Touch(userID, drafts.WizardKey, data)
	}

	app.DocumentService = documents.NewService(
		app.ProfileService,
		app.WizardService,
		documents.NewPreviewer(app.ProfileService, app.Store),
		app.Exporter,
	)
}

func buildExporter(cfg config.Config) documents.Exporter {
	if cfg.ExportEngine == "chromedp" {
		return documents.NewChromedpExporter(cfg.BrowserBin, cfg.ExportTimeout)
	}
	return documents.NewRodExporter(cfg.BrowserBin, cfg.ExportTimeout)
}

func buildDB(ctx context.Context, cfg config.Config) (*sql.DB, error) {
	if strings.TrimSpace(cfg.DatabaseURL) == "" {
		if cfg.ProfileStore == "postgres" {
			return nil, errors.New("PROFILE_STORE=postgres requires DATABASE_URL")
		}
		return nil, nil
	}

	var (
		sqlDB *sql.DB
		err   error
	)
	if db.IsLambdaRuntime() {
		sqlDB, err = db.GetSingleton(ctx, cfg.DatabaseURL, db.OptionsFor(db.ProfileLambda))
	} else {
		sqlDB, err = db.Connect(ctx, cfg.DatabaseURL, db.OptionsFor(db.ProfileServer))
	}
	if err == nil {
		err = db.RunMigrations(ctx, sqlDB)
	}
	if err != nil {
		if isDevLike(cfg.Env) && cfg.ProfileStore != "postgres" {
			telemetry.Warn("bootstrap.database_unavailable", map[string]any{"err": err})
			return nil, nil
		}
		return nil, fmt.Errorf("database: %w", err)
	}
	return sqlDB, nil
}

func buildStore(ctx context.Context, cfg config.Config) (object.ObjectStore, error) {
	switch cfg.ObjectStoreType {
	case "s3":
		if strings.TrimSpace(cfg.S3Bucket) == "" {
			return nil, errors.New("OBJECT_STORE=s3 requires S3_BUCKET")
		}
		return s3store.New(ctx, cfg.AWSRegion, cfg.S3Bucket, cfg.S3Prefix, cfg.SSEKMSKeyID)
	case "memory":
		return memstore.New(), nil
	default:
		return localstore.New(cfg.LocalStoreDir), nil
	}
}

func buildProfileRepo(cfg config.Config, sqlDB *sql.DB) (profiles.Repo, error) {
	switch cfg.ProfileStore {
	case "postgres":
		if sqlDB == nil {
			return nil, errors.New("PROFILE_STORE=postgres requires a database")
		}
		return &profiles.PGRepo{DB: sqlDB}, nil
	case "file":
		repo, err := profiles.NewFileRepo(cfg.ProfileDir)
		if err != nil {
			return nil, err
		}
		return repo, nil
	default:
		return profiles.NewMemoryRepo(), nil
	}
}

func isDevLike(env string) bool {
	switch strings.ToLower(strings.TrimSpace(env)) {
	case "dev", "local":
		return true
	default:
		return false
	}
}

// Close flushes pending drafts and releases the browser and database.
func (a *App) Close(ctx context.Context) error {
	var errs []error
	if a.Autosaver != nil {
		if err := a.Autosaver.Close(ctx); err != nil {
			errs = append(errs, fmt.Errorf("flush drafts: %w", err))
		}
	}
	if a.Exporter != nil {
		if err := a.Exporter.Close(); err != nil {
			errs = append(errs, fmt.Errorf("close exporter: %w", err))
		}
	}
	if a.DB != nil && !db.IsLambdaRuntime() {
		if err := a.DB.Close(); err != nil {
			errs = append(errs, fmt.Errorf("close database: %w", err))
		}
	}
	return errors.Join(errs...)
}
