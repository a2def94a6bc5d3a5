// Package bootstrap wires repositories, services and handlers into a
// runnable application.
package bootstrap

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log"
	"os"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"

	"shadow7-backend/internal/admin"
	"shadow7-backend/internal/artifacts"
	"shadow7-backend/internal/engine"
	"shadow7-backend/internal/intake"
	"shadow7-backend/internal/joblog"
	"shadow7-backend/internal/llm"
	openai "shadow7-backend/internal/llm/openai"
	"shadow7-backend/internal/mailer"
	"shadow7-backend/internal/omni"
	"shadow7-backend/internal/packaging"
	"shadow7-backend/internal/requests"
	"shadow7-backend/internal/shared/config"
	"shadow7-backend/internal/shared/server"
	"shadow7-backend/internal/shared/storage/db"
)

// App holds shared dependencies.
type App struct {
	Config config.Config
	Router *gin.Engine
	DB     *sql.DB

	RequestsRepo  requests.Repo
	ArtifactsRepo artifacts.Repo
	DeliveryRepo  packaging.DeliveryRepo
	OmniRepo      omni.Repo
	JobLog        joblog.Appender

	RequestsService  *requests.Service
	ArtifactsService *artifacts.Service
	Assembler        *packaging.Assembler
	OmniService      *omni.Service

	RequestsHandler  *requests.Handler
	ArtifactsHandler *artifacts.Handler
	PackagingHandler *packaging.Handler
	OmniHandler      *omni.Handler
	AdminHandler     *admin.Handler
}

// Build prepares shared dependencies and the router.
func Build(cfg config.Config) (*App, error) {
	if strings.TrimSpace(cfg.Env) == "" {
		cfg.Env = "dev"
	}
	ctx := context.Background()

	sqlDB, err := buildDB(ctx, cfg)
	if err != nil {
		return nil, err
	}

	app := &App{
		Config: cfg,
		DB:     sqlDB,
	}

	if err := buildServices(app); err != nil {
		return nil, err
	}

	app.Router = server.NewRouter(server.RouterDeps{
		Config:           app.Config,
		RequestsHandler:  app.RequestsHandler,
		ArtifactsHandler: app.ArtifactsHandler,
		PackagingHandler: app.PackagingHandler,
		OmniHandler:      app.OmniHandler,
		AdminHandler:     app.AdminHandler,
	})

	return app, nil
}

func buildDB(ctx context.Context, cfg config.Config) (*sql.DB, error) {
	if strings.TrimSpace(cfg.DatabaseURL) == "" {
		if isDevLike(cfg.Env) {
			log.Printf("bootstrap: DATABASE_URL empty; using in-memory repositories")
			return nil, nil
		}
		return nil, fmt.Errorf("DATABASE_URL is required")
	}

	opts := db.OptionsFromEnv(db.DefaultServerOptions())
	sqlDB, err := db.Connect(ctx, cfg.DatabaseURL, opts)
	if err != nil {
		if isDevLike(cfg.Env) {
			log.Printf("bootstrap: database connect failed; using in-memory repositories: %v", err)
			return nil, nil
		}
		return nil, err
	}

	return sqlDB, nil
}

func isDevLike(env string) bool {
	switch strings.ToLower(strings.TrimSpace(env)) {
	case "dev", "local":
		return true
	default:
		return false
	}
}

func buildServices(app *App) error {
	cfg := app.Config

	var requestsRepo requests.Repo
	var artifactsRepo artifacts.Repo
	var deliveryRepo packaging.DeliveryRepo
	var omniRepo omni.Repo
	var jobLog joblog.Appender

	if app.DB != nil {
		requestsRepo = &requests.PGRepo{DB: app.DB}
		artifactsRepo = &artifacts.PGRepo{DB: app.DB}
		deliveryRepo = &packaging.PGRepo{DB: app.DB}
		omniRepo = &omni.PGRepo{DB: app.DB}
		jobLog = &joblog.PGLog{DB: app.DB}
	} else {
		requestsRepo = requests.NewMemoryRepo()
		artifactsRepo = artifacts.NewMemoryRepo()
		deliveryRepo = packaging.NewMemoryRepo()
		omniRepo = omni.NewMemoryRepo()
		jobLog = joblog.NewMemory()
	}

	var trigger engine.Trigger = engine.Noop{}
	if strings.TrimSpace(cfg.EngineWebhookURL) != "" {
		trigger = engine.NewWebhookClient(cfg.EngineWebhookURL, cfg.EngineTimeout)
	}

	var mail mailer.Mailer = mailer.Noop{}
	if strings.TrimSpace(cfg.SMTPHost) != "" {
		mail = &mailer.SMTP{
			Host:     cfg.SMTPHost,
			Port:     strconv.Itoa(cfg.SMTPPort),
			Username: cfg.SMTPUser,
			Password: cfg.SMTPPass,
			From:     cfg.FromEmail,
		}
	}

	llmClient := llm.Client(llm.PlaceholderClient{})
	if cfg.LLMProvider == "openai" {
		openaiClient, err := openai.NewClient(os.Getenv("OPENAI_API_KEY"), cfg.LLMModel)
		if err != nil {
			return err
		}
		llmClient = openaiClient
	}

	limits := intake.Limits{
		MinWords:     cfg.MinWords,
		MaxWords:     cfg.MaxWords,
		MaxFileBytes: cfg.MaxUploadBytes,
		MaxFiles:     cfg.MaxFilesPerUpload,
	}

	requestsSvc := &requests.Service{
		Repo:        requestsRepo,
		Log:         jobLog,
		Engine:      trigger,
		Deliveries:  deliveryAdapter{repo: deliveryRepo, baseURL: cfg.PublicBaseURL},
		CallbackURL: cfg.CallbackBaseURL + "/api/shadow7/callback",
		MinWords:    cfg.MinWords,
		MaxWords:    cfg.MaxWords,
	}

	artifactsSvc := &artifacts.Service{
		Repo:     artifactsRepo,
		Requests: requestsRepo,
		Log:      jobLog,
	}

	assembler := &packaging.Assembler{
		Requests:      requestsRepo,
		Artifacts:     artifactsRepo,
		Deliveries:    deliveryRepo,
		Log:           jobLog,
		Mail:          mail,
		PackagesDir:   cfg.PackagesDir,
		PublicBaseURL: cfg.PublicBaseURL,
		TTL:           cfg.PackageTTL,
	}

	omniSvc := &omni.Service{
		Repo:   omniRepo,
		LLM:    llmClient,
		Limits: limits,
	}

	app.RequestsRepo = requestsRepo
	app.ArtifactsRepo = artifactsRepo
	app.DeliveryRepo = deliveryRepo
	app.OmniRepo = omniRepo
	app.JobLog = jobLog
	app.RequestsService = requestsSvc
	app.ArtifactsService = artifactsSvc
	app.Assembler = assembler
	app.OmniService = omniSvc
	app.RequestsHandler = requests.NewHandler(requestsSvc, limits)
	app.ArtifactsHandler = artifacts.NewHandler(artifactsSvc)
	app.PackagingHandler = packaging.NewHandler(assembler)
	app.OmniHandler = omni.NewHandler(omniSvc)
	app.AdminHandler = admin.NewHandler(requestsRepo)

	if app.RequestsHandler == nil || app.ArtifactsHandler == nil || app.PackagingHandler == nil {
		return errors.New("failed to initialize handlers")
	}

	return nil
}

// deliveryAdapter projects delivery records into the tracking view.
type deliveryAdapter struct {
	repo    packaging.DeliveryRepo
	baseURL string
}

func (a deliveryAdapter) DeliveryForRequest(ctx context.Context, requestID string) (requests.DeliveryInfo, bool, error) {
	d, err := a.repo.GetByRequestID(ctx, requestID)
	if err != nil {
		if errors.Is(err, packaging.ErrFileMissing) {
			return requests.DeliveryInfo{}, false, nil
		}
		return requests.DeliveryInfo{}, false, err
	}
	return requests.DeliveryInfo{
		DownloadURL:    d.ZipFileURL,
		InternalISBN:   d.InternalISBN,
		WordCountFinal: d.WordCountFinal,
		DownloadCount:  d.DownloadCount,
		ExpiresAt:      d.ExpiresAt,
	}, true, nil
}
