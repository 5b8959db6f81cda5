package main

import (
	"context"
	"log"
	"log/slog"
	"net/http"
	"os"
	"strings"
	"time"

	"taskdrive/internal/auth"
	"taskdrive/internal/blob"
	"taskdrive/internal/config"
	"taskdrive/internal/handler"
	"taskdrive/internal/middleware"
	"taskdrive/internal/office"
	"taskdrive/internal/repository/postgres"
	"taskdrive/internal/service"

	"github.com/joho/godotenv"
	"github.com/rs/cors"
)

func main() {
	// Load .env file (silently ignore if it doesn't exist - for production)
	_ = godotenv.Load()

	cfg := config.Load()

	// Setup structured logging
	logLevel := slog.LevelInfo
	if cfg.Environment == "dev" {
		logLevel = slog.LevelDebug
	}

	logger := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{
		Level: logLevel,
	}))
	slog.SetDefault(logger)

	logger.Info("server starting",
		"environment", cfg.Environment,
		"port", cfg.Port,
		"table_prefix", cfg.TablePrefix,
	)

	if cfg.AuthSecret == "" {
		log.Fatal("AUTH_SECRET must be set")
	}
	if cfg.OnlyOfficeSecret == "" {
		log.Fatal("ONLYOFFICE_SECRET must be set")
	}

	verifier := auth.NewVerifier([]byte(cfg.AuthSecret), logger)

	// Create pgx connection pool
	ctx := context.Background()
	pool, err := postgres.CreateConnectionPool(ctx, cfg.DatabaseURL)
	if err != nil {
		log.Fatalf("Failed to create connection pool: %v", err)
	}
	defer pool.Close()

	logger.Info("database connected",
		"max_conns", 25,
		"min_conns", 5,
	)

	// Blob storage: S3 (or compatible) when a bucket is configured,
	// in-memory otherwise. The in-memory store is for local development.
	var blobs blob.Store
	if cfg.S3Bucket != "" {
		s3Store, err := blob.NewS3Store(ctx, blob.S3Config{
			Bucket:    cfg.S3Bucket,
			Region:    cfg.S3Region,
			Endpoint:  cfg.S3Endpoint,
			AccessKey: cfg.S3AccessKey,
			SecretKey: cfg.S3SecretKey,
			KeyPrefix: cfg.S3KeyPrefix,
		})
		if err != nil {
			log.Fatalf("Failed to create S3 store: %v", err)
		}
		blobs = s3Store
		logger.Info("blob storage ready", "backend", "s3", "bucket", cfg.S3Bucket)
	} else {
		blobs = blob.NewMemoryStore()
		logger.Warn("no S3 bucket configured, using in-memory blob store (dev only)")
	}

	// Create repositories
	tables := postgres.NewTableNames(cfg.TablePrefix)
	repoConfig := &postgres.RepositoryConfig{
		Pool:   pool,
		Tables: tables,
		Logger: logger,
	}
	folderRepo := postgres.NewFolderRepository(repoConfig)
	fileRepo := postgres.NewFileRepository(repoConfig)
	shareRepo := postgres.NewShareRepository(repoConfig)

	// Create services
	resolver := service.NewPermissionResolver(folderRepo, fileRepo, shareRepo)

	var converter service.FormatConverter
	if cfg.OnlyOfficeConverter != "" {
		converter = office.NewConverter(cfg.OnlyOfficeConverter, []byte(cfg.OnlyOfficeSecret), logger)
	} else {
		logger.Warn("no conversion service configured, save-as is limited to same-format copies")
	}

	folderService := service.NewFolderService(folderRepo, fileRepo, blobs, resolver, logger)
	fileService := service.NewFileService(fileRepo, folderRepo, blobs, resolver, converter, logger)
	shareService := service.NewShareService(folderRepo, fileRepo, shareRepo, logger)

	sessions := office.NewSessionManager(
		fileRepo,
		blobs,
		resolver,
		[]byte(cfg.OnlyOfficeSecret),
		cfg.PublicBaseURL,
		logger,
	)

	// Create handlers
	folderHandler := handler.NewFolderHandler(folderService, logger)
	fileHandler := handler.NewFileHandler(fileService, cfg.PresignTTL, logger)
	shareHandler := handler.NewShareHandler(shareService, logger)
	officeHandler := handler.NewOfficeHandler(sessions, logger)

	logger.Info("services initialized")

	// Create HTTP router (Go 1.22+ enhanced patterns)
	mux := http.NewServeMux()

	// Health check
	mux.HandleFunc("GET /health", handler.HealthCheck)

	// Folder routes
	mux.HandleFunc("GET /api/folders", folderHandler.ListRoot)
	mux.HandleFunc("POST /api/folders", folderHandler.CreateFolder)
	mux.HandleFunc("GET /api/folders/{id}", folderHandler.GetFolder)
	mux.HandleFunc("PATCH /api/folders/{id}", folderHandler.UpdateFolder)
	mux.HandleFunc("DELETE /api/folders/{id}", folderHandler.DeleteFolder)
	mux.HandleFunc("GET /api/folders/{id}/children", folderHandler.ListChildren)

	// File routes
	mux.HandleFunc("POST /api/files", fileHandler.Upload)
	mux.HandleFunc("GET /api/files/{id}", fileHandler.GetFile)
	mux.HandleFunc("PATCH /api/files/{id}", fileHandler.UpdateFile)
	mux.HandleFunc("DELETE /api/files/{id}", fileHandler.DeleteFile)
	mux.HandleFunc("GET /api/files/{id}/download", fileHandler.Download)
	mux.HandleFunc("GET /api/files/{id}/stream", fileHandler.Stream)
	mux.HandleFunc("GET /api/files/{id}/presign", fileHandler.PresignDownload)
	mux.HandleFunc("POST /api/files/{id}/save-as", fileHandler.SaveAs)

	// Editor capability endpoint (no bearer auth, URL is the capability)
	mux.HandleFunc("GET /api/files/{id}/onlyoffice-download", fileHandler.EditorDownload)

	// Sharing routes
	mux.HandleFunc("POST /api/folders/{id}/shares", shareHandler.ShareFolder)
	mux.HandleFunc("GET /api/folders/{id}/shares", shareHandler.ListFolderShares)
	mux.HandleFunc("DELETE /api/folders/{id}/shares/{userId}", shareHandler.UnshareFolder)
	mux.HandleFunc("POST /api/files/{id}/shares", shareHandler.ShareFile)
	mux.HandleFunc("GET /api/files/{id}/shares", shareHandler.ListFileShares)
	mux.HandleFunc("DELETE /api/files/{id}/shares/{userId}", shareHandler.UnshareFile)

	// Document editor session routes
	mux.HandleFunc("GET /api/onlyoffice/config/{fileId}", officeHandler.GetConfig)
	mux.HandleFunc("POST /api/onlyoffice/callback/{fileId}", officeHandler.Callback)

	// Build middleware chain
	var root http.Handler = mux

	// Apply middleware in reverse order (they wrap each other)
	// Order: CORS -> Recovery -> Auth -> Routes
	root = middleware.AuthMiddleware(verifier)(root)
	root = middleware.Recovery(logger)(root)

	// CORS - Must be before auth to handle OPTIONS pre-flight requests
	corsHandler := cors.New(cors.Options{
		AllowedOrigins:   strings.Split(cfg.CORSOrigins, ","),
		AllowedMethods:   []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Origin", "Content-Type", "Accept", "Authorization", "Range"},
		AllowCredentials: true,
	})
	root = corsHandler.Handler(root)

	server := &http.Server{
		Addr:         ":" + cfg.Port,
		Handler:      root,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 0, // Disabled to allow large downloads
		IdleTimeout:  60 * time.Second,
	}

	logger.Info("server listening", "port", cfg.Port)
	if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		log.Fatalf("Failed to start server: %v", err)
	}
}
