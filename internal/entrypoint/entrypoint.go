// Package entrypoint wires the application together and runs the HTTP server
// with graceful shutdown.
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

	"github.com/shelftrack/shelftrack/internal/bookshelf"
	"github.com/shelftrack/shelftrack/internal/catalogue"
	"github.com/shelftrack/shelftrack/internal/config"
	"github.com/shelftrack/shelftrack/internal/database"
	"github.com/shelftrack/shelftrack/internal/database/availability"
	"github.com/shelftrack/shelftrack/internal/database/books"
	"github.com/shelftrack/shelftrack/internal/database/syncstatus"
	http_controllers "github.com/shelftrack/shelftrack/internal/http"
	"github.com/shelftrack/shelftrack/internal/reconcile"
	"github.com/shelftrack/shelftrack/internal/scheduler"
	appsync "github.com/shelftrack/shelftrack/internal/sync"
	"github.com/shelftrack/shelftrack/internal/tasks"
)

// ShutdownFunc is called during graceful shutdown to clean up resources.
type ShutdownFunc func(ctx context.Context)

// Run builds the full service from configuration and blocks until shutdown.
func Run(cfg *config.Config, version string) {
	log.Printf("Starting shelftrack v%s", version)

	if cfg.Catalogue.AppCode == "" || cfg.Catalogue.APIKey == "" {
		log.Printf("WARNING: catalogue credentials are not set. Set 'CATALOGUE_APP_CODE' and 'CATALOGUE_API_KEY' to enable upstream calls.")
	}

	db, err := database.NewDatabase(cfg.Database.Path)
	if err != nil {
		log.Fatalf("Failed to initialize database: %v", err)
	}
	defer db.Close()

	booksRepo := books.NewRepository(db.DB)
	availRepo := availability.NewRepository(db.DB)
	statusRepo := syncstatus.NewRepository(db.DB)

	catClient := catalogue.NewClient(catalogue.Config{
		BaseURL: cfg.Catalogue.BaseURL,
		AppCode: cfg.Catalogue.AppCode,
		APIKey:  cfg.Catalogue.APIKey,
		Timeout: cfg.Catalogue.Timeout,
	})

	reconciler := reconcile.NewReconciler(availRepo)
	orchestrator := appsync.NewOrchestrator(catClient, reconciler, booksRepo, statusRepo, appsync.Config{
		PaceInterval:     cfg.Sync.PaceInterval,
		RateLimitBackoff: cfg.Sync.RateLimitBackoff,
		BatchSize:        cfg.Sync.BatchSize,
	})
	orchestrator.SetNotifier(appsync.LogNotifier{})

	shelf := bookshelf.NewService(catClient, booksRepo, orchestrator)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	var taskClient *tasks.Client
	var refreshScheduler *scheduler.RefreshScheduler
	if cfg.Tasks.Enabled {
		taskClient, err = tasks.NewClient(cfg.Database.Path, tasks.Config{
			Workers:         cfg.Tasks.Workers,
			ReleaseAfter:    cfg.Tasks.ReleaseAfter,
			CleanupInterval: cfg.Tasks.CleanupInterval,
		})
		if err != nil {
			log.Fatalf("Failed to initialize task queue: %v", err)
		}
		defer taskClient.Close()

		taskClient.Register(
			tasks.NewRefreshUserQueue(orchestrator),
			tasks.NewContinueRefreshQueue(orchestrator),
		)
		orchestrator.SetContinuer(tasks.NewContinuer(taskClient))
		go taskClient.Start(ctx)

		if cfg.Scheduler.Enabled {
			refreshScheduler = scheduler.NewRefreshScheduler(booksRepo, taskClient, cfg.Scheduler.Schedule)
			if err := refreshScheduler.Start(ctx); err != nil {
				log.Fatalf("Failed to start refresh scheduler: %v", err)
			}
		}
	}

	router := http_controllers.NewRouter(http_controllers.RouterConfig{
		Orchestrator: orchestrator,
		Bookshelf:    shelf,
		Catalogue:    catClient,
		Books:        booksRepo,
		Availability: availRepo,
		SyncStatus:   statusRepo,
		TaskClient:   taskClient,
	})

	Serve(router, cfg, func(shutdownCtx context.Context) {
		if refreshScheduler != nil {
			refreshScheduler.Stop()
		}
		if taskClient != nil {
			taskClient.Stop(shutdownCtx)
		}
		cancel()
	})
}

// Serve runs the HTTP server until an interrupt arrives, then drains it.
func Serve(router *gin.Engine, cfg *config.Config, onShutdown ShutdownFunc) {
	timeout := time.Duration(cfg.Global.ShutdownTimeoutInSeconds) * time.Second

	srv := &http.Server{
		Addr:    fmt.Sprintf("%s:%d", cfg.HTTP.Host, cfg.HTTP.Port),
		Handler: router,
	}

	go func() {
		log.Printf("Starting server at %s:%d", cfg.HTTP.Host, cfg.HTTP.Port)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("listen: %s", err)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	log.Printf("Shutdown Server, waiting %v before killing", timeout)

	ctx, cancel := context.WithTimeout(context.Background(), timeout)
	defer cancel()

	if onShutdown != nil {
		onShutdown(ctx)
	}

	if err := srv.Shutdown(ctx); err != nil {
		log.Fatal("Server Shutdown:", err)
	}

	log.Println("Server exiting")
}
