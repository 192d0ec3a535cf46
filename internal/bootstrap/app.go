package bootstrap

import (
	"context"
	"database/sql"
	"fmt"
	"log"
	"os"
	"strings"

	"github.com/gin-gonic/gin"

	googleauth "storyboard-backend/internal/auth"
	"storyboard-backend/internal/documents"
	"storyboard-backend/internal/queue"
	"storyboard-backend/internal/render"
	"storyboard-backend/internal/renderjobs"
	"storyboard-backend/internal/shared/config"
	"storyboard-backend/internal/shared/server"
	"storyboard-backend/internal/shared/storage/db"
	"storyboard-backend/internal/shared/storage/object"
	localstore "storyboard-backend/internal/shared/storage/object/local"
	s3store "storyboard-backend/internal/shared/storage/object/s3"
	"storyboard-backend/internal/storyboards"
	"storyboard-backend/internal/storygen"
	storygenopenai "storyboard-backend/internal/storygen/openai"
	"storyboard-backend/internal/users"
	"storyboard-backend/internal/workflows"
)

// App holds shared dependencies for the API server and worker.
type App struct {
	Config config.Config
	Router *gin.Engine
	DB     *sql.DB
	Store  object.ObjectStore
	Queue  queue.Client

	StoryboardsRepo storyboards.Repo
	WorkflowsRepo   workflows.Repo
	JobsRepo        renderjobs.Repo
	DocumentsRepo   documents.Repo
	UsersRepo       users.Repo

	StoryboardsService *storyboards.Service
	WorkflowsService   *workflows.Service
	JobsService        *renderjobs.Service
	DocumentsService   *documents.Service
	UsersService       *users.Service

	StoryboardsHandler *storyboards.Handler
	WorkflowsHandler   *workflows.Handler
	JobsHandler        *renderjobs.Handler
	DocumentsHandler   *documents.Handler
	UsersHandler       *users.Handler
	GoogleAuth         *googleauth.GoogleService
}

// Build prepares shared dependencies and wires the router.
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

	queueClient, err := buildQueue(ctx)
	if err != nil {
		return nil, err
	}

	app := &App{
		Config: cfg,
		DB:     sqlDB,
		Store:  store,
		Queue:  queueClient,
	}

	if err := buildServices(app); err != nil {
		return nil, err
	}

	app.Router = server.NewRouter(server.RouterDeps{
		Config:      app.Config,
		Storyboards: app.StoryboardsHandler,
		Workflows:   app.WorkflowsHandler,
		Jobs:        app.JobsHandler,
		Documents:   app.DocumentsHandler,
		Users:       app.UsersHandler,
		GoogleAuth:  app.GoogleAuth,
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

func buildStore(ctx context.Context, cfg config.Config) (object.ObjectStore, error) {
	switch cfg.ObjectStoreType {
	case "s3":
		return s3store.New(ctx, cfg.AWSRegion, cfg.S3Bucket, cfg.S3Prefix)
	default:
		return localstore.New(cfg.LocalStoreDir), nil
	}
}

func buildQueue(ctx context.Context) (queue.Client, error) {
	if strings.TrimSpace(os.Getenv("SB_SQS_QUEUE_URL")) == "" {
		return nil, nil
	}
	return queue.NewSQSClient(ctx)
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
	var boardRepo storyboards.Repo
	var wfRepo workflows.Repo
	var jobRepo renderjobs.Repo
	var docRepo documents.Repo
	var userRepo users.Repo

	if app.DB != nil {
		boardRepo = &storyboards.PGRepo{DB: app.DB}
		wfRepo = &workflows.PGRepo{DB: app.DB}
		jobRepo = &renderjobs.PGRepo{DB: app.DB}
		docRepo = &documents.PGRepo{DB: app.DB}
		userRepo = &users.PGRepo{DB: app.DB}
	} else {
		boardRepo = storyboards.NewMemoryRepo()
		wfRepo = workflows.NewMemoryRepo()
		jobRepo = renderjobs.NewMemoryRepo()
		docRepo = documents.NewMemoryRepo()
		userRepo = users.NewMemoryRepo()
	}

	genClient := storygen.Client(storygen.PlaceholderClient{})
	if app.Config.GenProvider == "openai" {
		openaiClient, err := storygenopenai.NewClient(os.Getenv("OPENAI_API_KEY"), app.Config.GenModel)
		if err != nil {
			return err
		}
		genClient = openaiClient
	}

	var renderClient render.Client
	if strings.TrimSpace(app.Config.RenderServiceURL) != "" {
		client, err := render.NewHTTPClient(app.Config.RenderServiceURL, app.Config.RenderTimeout)
		if err != nil {
			return err
		}
		renderClient = client
	}

	boardSvc := &storyboards.Service{Repo: boardRepo}
	docSvc := &documents.Service{Store: app.Store, Repo: docRepo}
	userSvc := users.NewService(userRepo)

	jobSvc := &renderjobs.Service{
		Repo:   jobRepo,
		Boards: boardRepo,
		Render: renderClient,
		Queue:  app.Queue,
		Poller: &render.Poller{
			Client:   renderClient,
			Interval: app.Config.PollInterval,
			Timeout:  app.Config.PollTimeout,
		},
	}

	wfSvc := &workflows.Service{
		Repo:       wfRepo,
		Boards:     boardRepo,
		Transition: &workflows.Transitioner{Gen: genClient},
		Dispatcher: jobSvc,
	}

	googleAuthSvc := googleauth.NewGoogleService(
		app.Config.GoogleClientID,
		app.Config.GoogleClientSecret,
		app.Config.GoogleRedirectURL,
		app.Config.UIRedirectURL,
		userSvc,
	)

	app.StoryboardsRepo = boardRepo
	app.WorkflowsRepo = wfRepo
	app.JobsRepo = jobRepo
	app.DocumentsRepo = docRepo
	app.UsersRepo = userRepo
	app.StoryboardsService = boardSvc
	app.WorkflowsService = wfSvc
	app.JobsService = jobSvc
	app.DocumentsService = docSvc
	app.UsersService = userSvc
	app.StoryboardsHandler = storyboards.NewHandler(boardSvc, wfSvc)
	app.WorkflowsHandler = workflows.NewHandler(wfSvc)
	app.JobsHandler = renderjobs.NewHandler(jobSvc)
	app.DocumentsHandler = documents.NewHandler(docSvc)
	app.UsersHandler = users.NewHandler(userSvc)
	app.GoogleAuth = googleAuthSvc

	return nil
}
