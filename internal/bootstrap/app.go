// Package bootstrap wires repositories, services, and handlers into a
// runnable application for both the API server and the worker.
package bootstrap

import (
	"context"
	"database/sql"
	"fmt"
	"log"
	"strings"

	"github.com/gin-gonic/gin"

	"approval-backend/internal/ai"
	"approval-backend/internal/approvals"
	"approval-backend/internal/auth"
	"approval-backend/internal/chat"
	"approval-backend/internal/documents"
	"approval-backend/internal/jobs"
	"approval-backend/internal/notifications"
	"approval-backend/internal/queries"
	"approval-backend/internal/queue"
	"approval-backend/internal/requests"
	"approval-backend/internal/sequence"
	"approval-backend/internal/shared/config"
	"approval-backend/internal/shared/server"
	"approval-backend/internal/shared/storage/db"
	"approval-backend/internal/shared/storage/object"
	localstore "approval-backend/internal/shared/storage/object/local"
	s3store "approval-backend/internal/shared/storage/object/s3"
	"approval-backend/internal/tasks"
	"approval-backend/internal/templates"
	"approval-backend/internal/users"
	"approval-backend/internal/workerproc"
)

// App holds shared dependencies for the server and the worker.
type App struct {
	Config  config.Config
	Router  *gin.Engine
	DB      *sql.DB
	Store   object.ObjectStore
	Gateway ai.Gateway
	Queue   queue.Client

	UsersRepo         users.Repo
	SequenceRepo      sequence.Repo
	RequestsRepo      requests.Repo
	ApprovalsRepo     approvals.Repo
	TasksRepo         tasks.Repo
	DocumentsRepo     documents.Repo
	JobsRepo          jobs.Repo
	NotificationsRepo notifications.Repo
	QueriesRepo       queries.Repo
	TemplatesRepo     templates.Repo

	AuthService         *auth.Service
	RequestService      *requests.Service
	ApprovalService     *approvals.Service
	TaskService         *tasks.Service
	DocumentService     *documents.Service
	ChatService         *chat.Service
	NotificationService *notifications.Service
	Processor           *workerproc.Processor
}

// Build prepares dependencies and the router. With no DATABASE_URL in
// dev, everything runs against in-memory repositories.
func Build(cfg config.Config) (*App, error) {
	if strings.TrimSpace(cfg.Env) == "" {
		cfg.Env = "dev"
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
	gateway, err := buildGateway(cfg)
	if err != nil {
		return nil, err
	}
	queueClient, err := buildQueue(ctx, cfg)
	if err != nil {
		return nil, err
	}

	app := &App{
		Config:  cfg,
		DB:      sqlDB,
		Store:   store,
		Gateway: gateway,
		Queue:   queueClient,
	}
	app.buildRepos()
	app.buildServices()
	app.buildRouter()
	return app, nil
}

func (a *App) buildRepos() {
	if a.DB != nil {
		a.UsersRepo = &users.PGRepo{DB: a.DB}
		a.SequenceRepo = &sequence.PGRepo{DB: a.DB}
		a.RequestsRepo = &requests.PGRepo{DB: a.DB}
		a.ApprovalsRepo = &approvals.PGRepo{DB: a.DB}
		a.TasksRepo = &tasks.PGRepo{DB: a.DB}
		a.DocumentsRepo = &documents.PGRepo{DB: a.DB}
		a.JobsRepo = &jobs.PGRepo{DB: a.DB}
		a.NotificationsRepo = &notifications.PGRepo{DB: a.DB}
		a.QueriesRepo = &queries.PGRepo{DB: a.DB}
		a.TemplatesRepo = &templates.PGRepo{DB: a.DB}
		return
	}
	a.UsersRepo = users.NewMemoryRepo()
	a.SequenceRepo = sequence.NewMemoryRepo()
	a.RequestsRepo = requests.NewMemoryRepo()
	a.ApprovalsRepo = approvals.NewMemoryRepo()
	a.TasksRepo = tasks.NewMemoryRepo()
	a.DocumentsRepo = documents.NewMemoryRepo()
	a.JobsRepo = jobs.NewMemoryRepo()
	a.NotificationsRepo = notifications.NewMemoryRepo()
	a.QueriesRepo = queries.NewMemoryRepo()
	a.TemplatesRepo = templates.NewMemoryRepo()
}

func (a *App) buildServices() {
	a.NotificationService = &notifications.Service{Repo: a.NotificationsRepo}
	a.AuthService = &auth.Service{Users: a.UsersRepo}
	a.RequestService = &requests.Service{Repo: a.RequestsRepo, Seq: a.SequenceRepo}
	a.ApprovalService = &approvals.Service{
		Requests:  a.RequestsRepo,
		Approvals: a.ApprovalsRepo,
		Tasks:     a.TasksRepo,
		Users:     a.UsersRepo,
		Notifier:  a.NotificationService,
	}
	a.TaskService = &tasks.Service{Repo: a.TasksRepo}
	a.DocumentService = &documents.Service{
		Docs:        a.DocumentsRepo,
		Jobs:        a.JobsRepo,
		Store:       a.Store,
		Requests:    a.RequestsRepo,
		MaxAttempts: a.Config.JobMaxAttempts,
	}
	if a.Queue != nil {
		a.DocumentService.Notify = &queue.Notifier{Client: a.Queue}
	}
	a.ChatService = &chat.Service{
		Gateway: a.Gateway,
		Docs:    a.DocumentsRepo,
		History: a.QueriesRepo,
	}
	a.Processor = &workerproc.Processor{
		Jobs:     a.JobsRepo,
		Docs:     a.DocumentsRepo,
		Store:    a.Store,
		Gateway:  a.Gateway,
		Notifier: a.NotificationService,
	}
}

func (a *App) buildRouter() {
	a.Router = server.NewRouter(server.RouterDeps{
		Config:              a.Config,
		AuthHandler:         auth.NewHandler(a.AuthService),
		RequestHandler:      requests.NewHandler(a.RequestService, a.ApprovalService),
		ApprovalHandler:     approvals.NewHandler(a.ApprovalService),
		TaskHandler:         tasks.NewHandler(a.TaskService),
		DocumentHandler:     documents.NewHandler(a.DocumentService),
		ChatHandler:         chat.NewHandler(a.ChatService),
		NotificationHandler: notifications.NewHandler(a.NotificationService),
		TemplateHandler:     templates.NewHandler(a.TemplatesRepo),
	})
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
		if strings.TrimSpace(cfg.S3Bucket) == "" {
			return nil, fmt.Errorf("OBJECT_STORE=s3 requires S3_BUCKET")
		}
		return s3store.New(ctx, cfg.AWSRegion, cfg.S3Bucket, cfg.S3Prefix)
	default:
		return localstore.New(cfg.LocalStoreDir), nil
	}
}

func buildGateway(cfg config.Config) (ai.Gateway, error) {
	if strings.TrimSpace(cfg.AIGatewayURL) == "" {
		if isDevLike(cfg.Env) {
			log.Printf("bootstrap: AI_GATEWAY_URL empty; using placeholder gateway")
			return ai.Placeholder{}, nil
		}
		return nil, fmt.Errorf("AI_GATEWAY_URL is required")
	}
	return ai.NewClient(cfg.AIGatewayURL, cfg.AIGatewayAPIKey, cfg.AIGatewayTimeout)
}

func buildQueue(ctx context.Context, cfg config.Config) (queue.Client, error) {
	client, err := queue.NewSQSClient(ctx, cfg.AWSRegion)
	if err != nil {
		// No queue configured is the normal single-process setup.
		if strings.Contains(err.Error(), "SQS_QUEUE_URL is required") {
			return nil, nil
		}
		return nil, err
	}
	return client, nil
}

func isDevLike(env string) bool {
	switch strings.ToLower(strings.TrimSpace(env)) {
	case "dev", "local":
		return true
	default:
		return false
	}
}
