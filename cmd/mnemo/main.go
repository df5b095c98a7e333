package main

import (
	"context"
	"database/sql"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-contrib/gzip"
	"github.com/gin-gonic/gin"
	"github.com/spf13/cobra"
	"github.com/xxxsen/common/logger"
	"github.com/xxxsen/common/logutil"
	"github.com/xxxsen/common/webapi"
	"go.uber.org/zap"

	"github.com/mnemo-dev/mnemo/internal/ai"
	"github.com/mnemo-dev/mnemo/internal/config"
	"github.com/mnemo-dev/mnemo/internal/embedcache"
	"github.com/mnemo-dev/mnemo/internal/filestore"
	"github.com/mnemo-dev/mnemo/internal/handler"
	"github.com/mnemo-dev/mnemo/internal/job"
	"github.com/mnemo-dev/mnemo/internal/middleware"
	"github.com/mnemo-dev/mnemo/internal/repo"
	"github.com/mnemo-dev/mnemo/internal/schedule"
	"github.com/mnemo-dev/mnemo/internal/service"
	"github.com/mnemo-dev/mnemo/internal/vecstore"
)

func main() {
	var configPath string

	rootCmd := &cobra.Command{
		Use:   "mnemo",
		Short: "mnemo memory assistant server",
	}

	runCmd := &cobra.Command{
		Use:   "run",
		Short: "run mnemo server",
		RunE: func(cmd *cobra.Command, args []string) error {
			if configPath == "" {
				return fmt.Errorf("--config is required")
			}
			cfg, err := config.Load(configPath)
			if err != nil {
				return err
			}
			logger.Init(
				cfg.LogConfig.File,
				cfg.LogConfig.Level,
				int(cfg.LogConfig.FileCount),
				int(cfg.LogConfig.FileSize),
				int(cfg.LogConfig.KeepDays),
				cfg.LogConfig.Console,
			)
			logutil.GetLogger(context.Background()).Info("config loaded", zap.String("config", configPath))

			db, err := repo.Open(cfg.DBPath)
			if err != nil {
				return fmt.Errorf("open db: %w", err)
			}
			if err := repo.ApplyMigrations(db, cfg.MigrationsDir); err != nil {
				return fmt.Errorf("migrations: %w", err)
			}
			return runServer(cfg, db)
		},
	}

	runCmd.Flags().StringVar(&configPath, "config", "", "path to config.json")
	rootCmd.AddCommand(runCmd)

	if err := rootCmd.Execute(); err != nil {
		logutil.GetLogger(context.Background()).Fatal("startup error", zap.Error(err))
	}
}

func runServer(cfg *config.Config, db *sql.DB) error {
	rootLogger := logutil.GetLogger(context.Background())
	rootLogger.Info(
		"starting server",
		zap.Int("port", cfg.Port),
		zap.String("db_path", cfg.DBPath),
		zap.String("vector_dir", cfg.VectorStore.Dir),
		zap.String("file_store", cfg.FileStore.Type),
	)

	userRepo := repo.NewUserRepo(db)
	conversationRepo := repo.NewConversationRepo(db)
	documentRepo := repo.NewDocumentRepo(db)

	embedder, err := buildEmbedder(cfg)
	if err != nil {
		return fmt.Errorf("init embedder: %w", err)
	}

	// A broken vector store is not fatal: the server comes up degraded
	// and reports it through /health until the next restart.
	var index service.Index
	store, err := vecstore.Open(cfg.VectorStore.Dir)
	if err != nil {
		rootLogger.Error("vector store unavailable, running degraded", zap.Error(err))
	} else {
		index = store
		defer store.Close()
	}

	files, err := filestore.New(cfg.FileStore)
	if err != nil {
		return fmt.Errorf("init file store: %w", err)
	}

	authService := service.NewAuthService(userRepo, []byte(cfg.JWTSecret), time.Hour*time.Duration(cfg.JWTTTLHours))
	memoryService := service.NewMemoryService(embedder, index, documentRepo, files, cfg.Chunking)
	chatService := service.NewChatService(memoryService, conversationRepo, cfg.Retrieval)

	deps := handler.RouterDeps{
		Auth:             handler.NewAuthHandler(authService),
		Memory:           handler.NewMemoryHandler(memoryService, cfg.UploadLimitMB*1024*1024),
		Chat:             handler.NewChatHandler(chatService),
		Health:           handler.NewHealthHandler(memoryService),
		JWTSecret:        []byte(cfg.JWTSecret),
		AuthRateWindow:   time.Duration(cfg.RateLimit.AuthWindowSec) * time.Second,
		IngestRateWindow: time.Duration(cfg.RateLimit.IngestWindowSec) * time.Second,
	}

	engine, err := webapi.NewEngine(
		"/api/v1",
		fmt.Sprintf("0.0.0.0:%d", cfg.Port),
		webapi.WithRegister(func(group *gin.RouterGroup) {
			handler.RegisterRoutes(group, deps)
		}),
		webapi.WithExtraMiddlewares(
			middleware.CORS(cfg.CORSAllowlist),
			gzip.Gzip(gzip.DefaultCompression),
		),
	)
	if err != nil {
		return fmt.Errorf("init web engine: %w", err)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	scheduler := schedule.NewCronScheduler()
	if cfg.Retention.ConversationDays > 0 {
		cleanup := job.NewConversationCleanupJob(conversationRepo,
			time.Duration(cfg.Retention.ConversationDays)*24*time.Hour)
		if err := scheduler.AddJob(cleanup, cfg.Retention.Cron); err != nil {
			return fmt.Errorf("schedule retention job: %w", err)
		}
	}
	scheduler.Start(ctx)
	defer scheduler.Stop()

	rootLogger.Info("http server listening", zap.String("addr", fmt.Sprintf("0.0.0.0:%d", cfg.Port)))
	go func() {
		if err := engine.Run(); err != nil && err != http.ErrServerClosed {
			logutil.GetLogger(context.Background()).Error("server error", zap.Error(err))
		}
	}()

	<-ctx.Done()
	rootLogger.Info("server stopping...")
	return nil
}

// buildEmbedder assembles the embedding chain: the configured remote
// provider behind the LRU cache when an API key is present, with the
// local hashing backend always last so ingest never hard-fails on a
// provider outage.
func buildEmbedder(cfg *config.Config) (*ai.Embedder, error) {
	local, err := ai.NewProvider("local", map[string]interface{}{"embed_dim": cfg.AI.EmbedDim})
	if err != nil {
		return nil, err
	}
	if cfg.AI.APIKey == "" {
		logutil.GetLogger(context.Background()).Warn("no ai api key configured, using local embeddings only")
		return ai.NewEmbedder(cfg.AI.EmbedDim, local), nil
	}
	remote, err := ai.NewProvider(cfg.AI.Provider, cfg.AI)
	if err != nil {
		return nil, err
	}
	remote = embedcache.Wrap(remote, cfg.EmbedCache.Size, time.Duration(cfg.EmbedCache.TTLMinutes)*time.Minute)
	return ai.NewEmbedder(cfg.AI.EmbedDim, remote, local), nil
}
