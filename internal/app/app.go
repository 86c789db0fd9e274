// Package app wires the store, collaborators and use cases shared by the
// API server and the kbctl command line.
package app

import (
	"context"
	"fmt"
	"log"

	"go.uber.org/zap"
	"gorm.io/gorm"

	"github.com/johnquangdev/meeting-knowledge/internal/adapter/repository"
	"github.com/johnquangdev/meeting-knowledge/internal/infrastructure/cache"
	"github.com/johnquangdev/meeting-knowledge/internal/infrastructure/database"
	"github.com/johnquangdev/meeting-knowledge/internal/infrastructure/external/notion"
	"github.com/johnquangdev/meeting-knowledge/internal/infrastructure/external/web"
	"github.com/johnquangdev/meeting-knowledge/internal/infrastructure/storage"
	"github.com/johnquangdev/meeting-knowledge/internal/usecase/assistant"
	"github.com/johnquangdev/meeting-knowledge/internal/usecase/graphrag"
	"github.com/johnquangdev/meeting-knowledge/internal/usecase/ingest"
	knowledgeUsecase "github.com/johnquangdev/meeting-knowledge/internal/usecase/knowledge"
	"github.com/johnquangdev/meeting-knowledge/internal/usecase/maintenance"
	meetingUsecase "github.com/johnquangdev/meeting-knowledge/internal/usecase/meeting"
	"github.com/johnquangdev/meeting-knowledge/pkg/ai"
	"github.com/johnquangdev/meeting-knowledge/pkg/config"
	"github.com/johnquangdev/meeting-knowledge/pkg/jwt"
)

// App holds the wired use cases
type App struct {
	Config *config.Config
	Logger *zap.Logger
	DB     *gorm.DB

	Meetings  *meetingUsecase.MeetingService
	Knowledge *knowledgeUsecase.KnowledgeService
	Ingest    *ingest.Coordinator
	Engine    *graphrag.Engine
	Assistant *assistant.Assistant
	Sweeper   *maintenance.Sweeper
	Tokens    *jwt.Manager

	closers []func() error
}

// Collaborators are the external services the use cases call. Nil
// members are disabled.
type Collaborators struct {
	Embedder  ai.Embedder
	Extractor ai.Extractor
	Completer ai.Completer
	Diarizer  ai.Diarizer
}

// NewLogger builds the zap logger for the configured environment
func NewLogger(cfg *config.Config) (*zap.Logger, error) {
	if cfg.IsProduction() {
		return zap.NewProduction()
	}
	return zap.NewDevelopment()
}

// New connects to the store and every configured collaborator
func New(ctx context.Context, cfg *config.Config, logger *zap.Logger) (*App, error) {
	a := &App{Config: cfg, Logger: logger}

	log.Println("📦 Connecting to database...")
	db, err := database.Open(cfg)
	if err != nil {
		return nil, err
	}
	a.DB = db
	a.closers = append(a.closers, func() error { return database.CloseDB(db) })

	if cfg.Database.AutoMigrate {
		if err := database.AutoMigrate(db); err != nil {
			a.Close()
			return nil, err
		}
	} else {
		log.Println("🔄 Skipping AutoMigrate; run `kbctl migrate` to manage the schema")
	}

	log.Println("🤖 Initializing AI collaborators...")
	collab, err := a.collaborators(ctx)
	if err != nil {
		a.Close()
		return nil, err
	}

	embedder := collab.Embedder
	if cfg.Redis.Enabled {
		log.Println("📦 Connecting to Redis...")
		store, err := cache.NewRedisStore(ctx, cfg)
		if err != nil {
			a.Close()
			return nil, err
		}
		a.closers = append(a.closers, store.Close)
		embedder = cache.NewCachedEmbedder(embedder, store, cfg.AI.EmbeddingModel, cfg.Redis.EmbeddingTTL, logger)
	} else {
		store := cache.NewMemoryStore()
		a.closers = append(a.closers, store.Close)
		embedder = cache.NewCachedEmbedder(embedder, store, cfg.AI.EmbeddingModel, cfg.Redis.EmbeddingTTL, logger)
	}

	var archive *storage.MinIOArchive
	if cfg.Storage.Enabled {
		log.Println("🗄️  Connecting to MinIO...")
		archive, err = storage.NewMinIOArchive(ctx, &cfg.Storage)
		if err != nil {
			a.Close()
			return nil, err
		}
	}

	a.wire(db, collab, embedder, archive)

	if cfg.Notion.APIKey != "" {
		a.Ingest.WithPageLoader(notion.NewLoader(cfg.Notion.APIKey, logger))
	}
	if cfg.Crawler.Enabled {
		a.Ingest.WithFetcher(web.NewCrawler(web.Options{
			UserAgent:       cfg.Crawler.UserAgent,
			Timeout:         cfg.Crawler.Timeout,
			RetryMaxElapsed: cfg.Crawler.RetryMaxElapsed,
		}, logger))
	}

	a.Tokens = jwt.NewManager(cfg.JWT.Secret, cfg.JWT.Issuer, cfg.JWT.Expiry)
	return a, nil
}

func (a *App) wire(db *gorm.DB, collab *Collaborators, embedder ai.Embedder, archive *storage.MinIOArchive) {
	cfg, logger := a.Config, a.Logger

	meetings := repository.NewMeetingRepository(db)
	graph := repository.NewGraphRepository(db)
	knowledge := repository.NewKnowledgeRepository(db)
	vectors := repository.NewVectorRepository(db, knowledge, logger)

	var kbArchive knowledgeUsecase.Archive
	if archive != nil {
		kbArchive = archive
	}
	a.Meetings = meetingUsecase.NewMeetingService(meetings, graph, knowledge, collab.Diarizer, logger)
	a.Knowledge = knowledgeUsecase.NewKnowledgeService(knowledge, vectors, graph, meetings, embedder, kbArchive, logger)
	a.Ingest = ingest.NewCoordinator(meetings, graph, knowledge, embedder, collab.Extractor, ingest.OptionsFromConfig(&cfg.Ingestion), logger)
	if archive != nil {
		a.Ingest.WithArchive(archive)
	}
	a.Engine = graphrag.NewEngine(collab.Extractor, meetings, graph, a.Knowledge, graphrag.OptionsFromConfig(&cfg.Query), logger)
	a.Assistant = assistant.NewAssistant(a.Engine, collab.Completer, meetings, logger)
	a.Sweeper = maintenance.NewSweeper(a.Meetings, a.Knowledge, &cfg.Ingestion, logger)
}

func (a *App) collaborators(ctx context.Context) (*Collaborators, error) {
	cfg := a.Config
	collab := &Collaborators{}

	var chat *ai.OpenAIClient
	if cfg.AI.LLMAPIKey != "" || cfg.AI.LLMBaseURL != "" {
		client, err := ai.NewOpenAIClient(ai.OpenAIOptions{
			APIKey:          cfg.AI.LLMAPIKey,
			BaseURL:         cfg.AI.LLMBaseURL,
			ChatModel:       cfg.AI.LLMModel,
			Temperature:     cfg.AI.LLMTemperature,
			MaxTokens:       cfg.AI.LLMMaxTokens,
			Timeout:         cfg.AI.HTTPTimeout,
			RetryMaxElapsed: cfg.AI.RetryMaxElapsed,
		})
		if err != nil {
			return nil, fmt.Errorf("failed to create llm client: %w", err)
		}
		chat = client
		collab.Completer = ai.NewBreakerCompleter("llm", client, ai.BreakerSettings{
			MaxRequests: cfg.AI.Breaker.MaxRequests,
			Interval:    cfg.AI.Breaker.Interval,
			Timeout:     cfg.AI.Breaker.Timeout,
			TripRatio:   cfg.AI.Breaker.TripRatio,
		}, a.Logger)
	} else {
		log.Println("⚠️  No LLM configured; questions with context will be rejected")
	}

	switch cfg.AI.EmbeddingProvider {
	case "openai":
		client, err := ai.NewOpenAIClient(ai.OpenAIOptions{
			APIKey:          cfg.AI.OpenAIAPIKey,
			BaseURL:         cfg.AI.OpenAIBaseURL,
			EmbeddingModel:  cfg.AI.EmbeddingModel,
			Dimension:       cfg.AI.EmbeddingDim,
			Timeout:         cfg.AI.HTTPTimeout,
			RetryMaxElapsed: cfg.AI.RetryMaxElapsed,
		})
		if err != nil {
			return nil, fmt.Errorf("failed to create embedding client: %w", err)
		}
		collab.Embedder = client
	case "gemini":
		gemini, err := ai.NewGeminiEmbedder(ctx, cfg.AI.GeminiAPIKey)
		if err != nil {
			return nil, err
		}
		a.closers = append(a.closers, gemini.Close)
		collab.Embedder = gemini
	default:
		log.Println("⚠️  Embeddings disabled; segments are stored without enrichment")
		collab.Embedder = ai.NewDisabledEmbedder(cfg.AI.EmbeddingDim)
	}

	switch cfg.AI.Extractor {
	case "gliner":
		collab.Extractor = ai.NewGLiNERClient(ai.GLiNEROptions{
			BaseURL:         cfg.AI.GLiNERURL,
			APIKey:          cfg.AI.GLiNERAPIKey,
			Threshold:       cfg.AI.GLiNERThreshold,
			Timeout:         cfg.AI.HTTPTimeout,
			RetryMaxElapsed: cfg.AI.RetryMaxElapsed,
		}, a.Logger)
	case "llm":
		if chat == nil {
			return nil, fmt.Errorf("AI_EXTRACTOR=llm requires AI_LLM_API_KEY or AI_LLM_BASE_URL")
		}
		collab.Extractor = ai.NewLLMExtractor(collab.Completer)
	default:
		collab.Extractor = ai.NewDisabledExtractor()
	}

	if cfg.Assembly.APIKey != "" {
		diarizer, err := ai.NewAssemblyAIDiarizer(&cfg.Assembly, a.Logger, "")
		if err != nil {
			return nil, err
		}
		collab.Diarizer = diarizer
	}
	return collab, nil
}

// Close releases connections in reverse order of acquisition
func (a *App) Close() {
	for i := len(a.closers) - 1; i >= 0; i-- {
		if err := a.closers[i](); err != nil && a.Logger != nil {
			a.Logger.Warn("Failed to close resource", zap.Error(err))
		}
	}
	a.closers = nil
}
