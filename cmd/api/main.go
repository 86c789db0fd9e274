package main

import (
	"context"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"go.uber.org/zap"

	"github.com/johnquangdev/meeting-knowledge/internal/adapter/handler"
	"github.com/johnquangdev/meeting-knowledge/internal/app"
	httpmw "github.com/johnquangdev/meeting-knowledge/internal/infrastructure/http/middleware"
	"github.com/johnquangdev/meeting-knowledge/pkg/config"
	pkgvalidator "github.com/johnquangdev/meeting-knowledge/pkg/validator"
)

// @title           Meeting Knowledge API
// @version         1.0
// @description     Stores meeting transcripts and documents as a knowledge graph with vector search, and answers questions from the assembled context

// @BasePath  /v1

// @securityDefinitions.apikey BearerAuth
// @in header
// @name Authorization
// @description Type "Bearer" followed by a space and an API token minted with `kbctl token`.

func main() {
	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	logger, err := app.NewLogger(cfg)
	if err != nil {
		log.Fatalf("Failed to initialize logger: %v", err)
	}
	defer logger.Sync()

	// Initialize dependencies
	log.Println("🔧 Initializing dependencies...")
	ctx, stop := context.WithCancel(context.Background())
	defer stop()

	application, err := app.New(ctx, cfg, logger)
	if err != nil {
		log.Fatalf("Failed to initialize application: %v", err)
	}
	defer application.Close()

	// Initialize Echo instance
	e := echo.New()
	e.HideBanner = true
	e.Validator = pkgvalidator.New()
	e.HTTPErrorHandler = handler.ErrorHandler(logger)

	e.Use(middleware.RequestID())
	e.Use(httpmw.RequestLogger(logger))
	e.Use(middleware.Recover())
	e.Use(middleware.CORSWithConfig(middleware.CORSConfig{
		AllowOrigins: cfg.Server.AllowedOrigins,
		AllowMethods: []string{http.MethodGet, http.MethodPost, http.MethodPut, http.MethodDelete, http.MethodPatch},
		AllowHeaders: []string{echo.HeaderOrigin, echo.HeaderContentType, echo.HeaderAccept, echo.HeaderAuthorization, echo.HeaderXRequestID},
	}))
	e.Use(middleware.BodyLimit("10M"))

	// Handlers
	log.Println("🚀 Initializing handlers...")
	meetingHandler := handler.NewMeetingHandler(application.Meetings, application.Ingest, application.Knowledge, application.Assistant, logger)
	knowledgeHandler := handler.NewKnowledgeHandler(application.Knowledge, application.Ingest, logger)
	queryHandler := handler.NewQueryHandler(application.Assistant, logger)

	var auth []echo.MiddlewareFunc
	if cfg.Server.AuthEnabled {
		authMW := httpmw.NewAuthMiddleware(application.Tokens, logger)
		auth = append(auth, authMW.Authenticate, authMW.RequireWriteOnMutations)
	} else {
		log.Println("⚠️  Authentication disabled (AUTH_ENABLED=false)")
	}

	// Setup router with handlers
	log.Println("🛣️  Setting up routes...")
	router := handler.NewRouter(cfg, meetingHandler, knowledgeHandler, queryHandler, auth...)
	router.Setup(e)

	// Background housekeeping
	application.Sweeper.Start(ctx)

	// Start server
	go func() {
		addr := fmt.Sprintf("%s:%s", cfg.Server.Host, cfg.Server.Port)
		log.Printf("🚀 Starting server on %s", addr)
		log.Printf("📝 Environment: %s", cfg.Server.Environment)
		log.Printf("🔗 Health check: http://%s/health", addr)

		if err := e.Start(addr); err != nil && err != http.ErrServerClosed {
			logger.Fatal("Failed to start server", zap.Error(err))
		}
	}()

	// Graceful shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, os.Interrupt, syscall.SIGTERM)
	<-quit

	log.Println("🛑 Shutting down server...")
	stop()
	application.Sweeper.Stop()

	shutdownCtx, cancel := context.WithTimeout(context.Background(), time.Duration(cfg.Server.ShutdownTimeout)*time.Second)
	defer cancel()

	if err := e.Shutdown(shutdownCtx); err != nil {
		logger.Error("Server forced to shutdown", zap.Error(err))
	}

	log.Println("✅ Server stopped gracefully")
}
