package entrypoint

import (
	"context"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/mtrump/garage-library/internal/auth"
	"github.com/mtrump/garage-library/internal/backup"
	"github.com/mtrump/garage-library/internal/config"
	"github.com/mtrump/garage-library/internal/database"
	"github.com/mtrump/garage-library/internal/database/books"
	"github.com/mtrump/garage-library/internal/database/stacks"
	"github.com/mtrump/garage-library/internal/database/users"
	http_controllers "github.com/mtrump/garage-library/internal/http"
	"github.com/mtrump/garage-library/internal/scheduler"
	"github.com/mtrump/garage-library/internal/tasks"
)

// ShutdownFunc is called during graceful shutdown to clean up resources.
type ShutdownFunc func(ctx context.Context)

// Serve runs the HTTP server until SIGINT/SIGTERM, then shuts down within
// the configured timeout.
func Serve(router *gin.Engine, cfg *config.Config, onShutdown ShutdownFunc) {
	timeout := time.Duration(cfg.Global.ShutdownTimeoutInSeconds) * time.Second

	srv := &http.Server{
		Addr:    fmt.Sprintf("%s:%d", cfg.HTTP.Host, cfg.HTTP.Port),
		Handler: router,
	}

	go func() {
		fmt.Printf("Starting server at %s:%d\n", cfg.HTTP.Host, cfg.HTTP.Port)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("listen: %s\n", err)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	log.Printf("Shutdown Server, waiting %v before killing\n", timeout)

	ctx, cancel := context.WithTimeout(context.Background(), timeout)
	defer cancel()

	// Stop background work before the listener so in-flight requests can
	// still enqueue while workers drain.
	if onShutdown != nil {
		onShutdown(ctx)
	}

	if err := srv.Shutdown(ctx); err != nil {
		log.Fatal("Server Shutdown:", err)
	}

	log.Println("Server exiting")
}

func Run(cfg *config.Config, version string) {
	log.Printf("Starting Garage Library v%s", version)

	if cfg.Auth.TokenSecret == config.DevTokenSecret {
		log.Printf("WARNING: JWT_SECRET is not set. Using the development secret; tokens are forgeable.")
	}

	db, err := database.NewDatabase(cfg.Database.Path)
	if err != nil {
		log.Fatalf("Failed to initialize database: %v", err)
	}
	defer func() {
		if err := db.Close(); err != nil {
			log.Printf("Error closing database: %v", err)
		}
	}()

	usersRepo := users.NewRepository(db.DB)
	stacksRepo := stacks.NewRepository(db.DB)
	booksRepo := books.NewRepository(db.DB)

	tokenManager := auth.NewTokenManager(cfg.Auth.TokenSecret, cfg.Auth.TokenExpiry)
	authService := auth.NewService(usersRepo, tokenManager, cfg.Auth)
	authMiddleware := auth.NewMiddleware(authService)

	if cfg.Auth.AdminUsername != "" {
		promoted, err := usersRepo.PromoteToAdmin(cfg.Auth.AdminUsername)
		if err != nil {
			log.Printf("WARNING: failed to promote %q to admin: %v", cfg.Auth.AdminUsername, err)
		} else if promoted {
			log.Printf("User %q has admin level", cfg.Auth.AdminUsername)
		}
	}

	// Task queue and backup schedule
	var taskClient *tasks.Client
	var taskCtxCancel context.CancelFunc
	var backupScheduler *scheduler.BackupScheduler
	if cfg.Tasks.Enabled {
		taskCfg := tasks.Config{
			Workers:           cfg.Tasks.Workers,
			MaxRetries:        cfg.Tasks.MaxRetries,
			RetryDelay:        cfg.Tasks.RetryDelay,
			TaskTimeout:       cfg.Tasks.TaskTimeout,
			ReleaseAfter:      cfg.Tasks.ReleaseAfter,
			CleanupInterval:   cfg.Tasks.CleanupInterval,
			RetentionDuration: cfg.Tasks.RetentionDuration,
		}

		taskClient, err = tasks.NewClient(cfg.Database.Path, taskCfg)
		if err != nil {
			log.Fatalf("Failed to initialize task queue: %v", err)
		}
		defer func() {
			if err := taskClient.Close(); err != nil {
				log.Printf("Error closing task client: %v", err)
			}
		}()

		backupService := backup.NewService(cfg.Database.Path, cfg.Backup.Dir)
		taskClient.Register(
			tasks.NewDatabaseBackupQueue(backupService),
		)

		var taskCtx context.Context
		taskCtx, taskCtxCancel = context.WithCancel(context.Background())
		go taskClient.Start(taskCtx)

		if cfg.Backup.Enabled {
			backupScheduler = scheduler.NewBackupScheduler(taskClient, cfg.Backup.Schedule)
			if err := backupScheduler.Start(taskCtx); err != nil {
				log.Fatalf("Failed to start backup scheduler: %v", err)
			}
		}
	} else if cfg.Backup.Enabled {
		log.Printf("WARNING: BACKUP_ENABLED is set but the task queue is disabled; scheduled backups will not run.")
	}

	routerCfg := http_controllers.RouterConfig{
		Database:       db,
		BooksStore:     booksRepo,
		StacksStore:    stacksRepo,
		Reorderer:      booksRepo,
		UsersStore:     usersRepo,
		AuthService:    authService,
		AuthMiddleware: authMiddleware,
		StaticPath:     cfg.UI.StaticPath,
		Version:        version,
	}

	router := http_controllers.NewRouter(routerCfg)

	onShutdown := func(ctx context.Context) {
		if backupScheduler != nil {
			backupScheduler.Stop()
		}
		if taskClient != nil && taskCtxCancel != nil {
			taskClient.Stop(ctx)
			taskCtxCancel()
		}
	}

	Serve(router, cfg, onShutdown)
}
