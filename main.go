// neurodvach/main.go
package main

import (
	"context"
	"errors"
	"flag"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"neurodvach/ai"
	"neurodvach/config"
	"neurodvach/database"
	"neurodvach/handlers"
	"neurodvach/models"
	"neurodvach/threads"
	"neurodvach/utils"
)

type Application struct {
	db      *database.DatabaseService
	threads *threads.Service
	markup  *utils.Markup
	logger  *slog.Logger
}

// Methods to satisfy the handlers.App interface
func (a *Application) DB() *database.DatabaseService { return a.db }
func (a *Application) Threads() *threads.Service     { return a.threads }
func (a *Application) Markup() *utils.Markup         { return a.markup }
func (a *Application) Logger() *slog.Logger          { return a.logger }

func main() {
	configPath := flag.String("config", utils.GetEnv("NEURO_CONFIG", ""), "path to a YAML config file")
	backupOnly := flag.Bool("backup", false, "write a database backup and exit")
	flag.Parse()

	settings, err := config.Load(*configPath)
	if err != nil {
		slog.Error("Failed to load configuration", "error", err)
		os.Exit(1)
	}

	logger := utils.NewLogger(os.Stdout, settings.Log.Level, settings.Log.Format)
	slog.SetDefault(logger)

	dbService, err := database.InitDB(settings.DBFile, logger)
	if err != nil {
		logger.Error("Failed to initialize database", "error", err)
		os.Exit(1)
	}
	defer func() {
		if err := dbService.Close(); err != nil {
			logger.Error("Failed to close database", "error", err)
		}
	}()

	if *backupOnly {
		if err := runBackup(context.Background(), dbService, settings.Backup, logger); err != nil {
			logger.Error("Backup failed", "error", err)
			os.Exit(1)
		}
		return
	}

	if err := handlers.LoadTemplates(); err != nil {
		logger.Error("Failed to load templates", "error", err)
		os.Exit(1)
	}

	// --- AI Init ---
	var defaultBackend ai.Backend
	if settings.AI.APIKey != "" {
		defaultBackend, err = ai.NewGeminiBackend(context.Background(), settings.AI.APIKey)
		if err != nil {
			logger.Error("Failed to initialize default AI backend", "error", err)
			os.Exit(1)
		}
		logger.Info("Default AI backend initialized", "model", settings.AI.ModelID, "rpm_limit", settings.AI.DefaultKeyRPM)
	} else {
		logger.Warn("GEMINI_API_KEY is not set; AI replies need a key from the poster")
	}

	generator := ai.NewGenerator(ai.GeneratorOptions{
		Default:       defaultBackend,
		DefaultModel:  settings.AI.ModelID,
		NewBackend:    ai.NewGeminiBackend,
		ContextWindow: settings.AI.ContextWindow,
		Limiter:       models.NewKeyLimiter(settings.AI.DefaultKeyRPM),
		Timeout:       settings.AI.Timeout,
		Logger:        logger,
	})

	app := &Application{
		db:      dbService,
		threads: threads.NewService(dbService, generator, models.NewThreadLocks(), logger),
		markup:  utils.NewMarkup(),
		logger:  logger,
	}

	mux := handlers.SetupRouter(app)
	finalHandler := handlers.CSRFMiddleware(handlers.NewSecurityHeadersMiddleware()(mux))

	// --- Graceful Shutdown ---
	// No WriteTimeout: a reply waits for the AI backend before redirecting.
	server := &http.Server{
		Addr:              ":" + settings.Port,
		Handler:           finalHandler,
		ReadHeaderTimeout: 10 * time.Second,
		IdleTimeout:       120 * time.Second,
	}

	go func() {
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("Server failed unexpectedly", "error", err)
			os.Exit(1)
		}
	}()

	logger.Info("neurodvach server started successfully",
		"version", config.AppVersion,
		"address", "http://localhost:"+settings.Port,
		"database", settings.DBFile,
	)

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, os.Interrupt, syscall.SIGTERM)
	<-quit

	logger.Info("Shutting down server...")

	// Give in-flight replies time to store their AI posts.
	ctx, cancel := context.WithTimeout(context.Background(), 60*time.Second)
	defer cancel()

	if err := server.Shutdown(ctx); err != nil {
		logger.Error("Server forced to shutdown", "error", err)
		return
	}
	logger.Info("Server exiting")
}

// runBackup snapshots the database and hands the file to the configured store.
func runBackup(ctx context.Context, db *database.DatabaseService, cfg config.BackupSettings, logger *slog.Logger) error {
	var store utils.BackupStore = utils.LocalStorage{}
	if cfg.S3.Enabled {
		s3, err := utils.NewS3Storage(ctx, cfg.S3.Endpoint, cfg.S3.AccessKey, cfg.S3.SecretKey, cfg.S3.Bucket, cfg.S3.Region, cfg.S3.UseSSL)
		if err != nil {
			return err
		}
		logger.Info("S3 backup storage initialized", "endpoint", cfg.S3.Endpoint, "bucket", cfg.S3.Bucket)
		store = s3
	}

	localPath, err := db.BackupDatabase(ctx, cfg.Dir)
	if err != nil {
		return err
	}
	location, err := store.Store(ctx, localPath)
	if err != nil {
		return err
	}
	logger.Info("Database backup written", "location", location)
	return nil
}
