package bootstrap

import (
	"context"
	"log"

	"material-search-be/internal/config"
	"material-search-be/internal/controller"
	"material-search-be/internal/pkg/logger"
	"material-search-be/internal/repository/implementation"
	"material-search-be/internal/service"
	"material-search-be/pkg/embedding"
	"material-search-be/pkg/llm/factory"
	"material-search-be/pkg/search"
	"material-search-be/pkg/search/access"
	"material-search-be/pkg/search/cache"
	"material-search-be/pkg/search/compose"
	"material-search-be/pkg/search/fusion"
	"material-search-be/pkg/search/orchestrator"
	"material-search-be/pkg/search/retriever"
	"material-search-be/pkg/store"

	pkgNats "material-search-be/pkg/nats"

	"github.com/ThreeDotsLabs/watermill"
	"github.com/ThreeDotsLabs/watermill/pubsub/gochannel"
	"github.com/redis/go-redis/v9"
	"gorm.io/gorm"
)

type Container struct {
	// Controllers
	SearchController controller.ISearchController
	IngestController controller.IIngestController

	// Background Services (Exposed for main.go to run)
	ConsumerService     service.IConsumerService
	InvalidationService service.IInvalidationService
}

func NewContainer(db *gorm.DB, cfg *config.Config) *Container {
	// 1. Core Facades
	sysLogger := logger.NewZapLogger(cfg.App.LogFilePath, cfg.App.Environment == "production")

	chunkRepo := implementation.NewChunkRepository(db)
	materialRepo := implementation.NewMaterialRepository(db)
	keywordRepo := implementation.NewKeywordRepository(db)

	// 2. Event Bus
	watermillLogger := watermill.NewStdLogger(false, false)
	pubSub := gochannel.NewGoChannel(
		gochannel.Config{},
		watermillLogger,
	)

	// 3. AI Providers
	var embeddingProvider embedding.EmbeddingProvider
	if cfg.Ai.EmbeddingProvider == "gemini" {
		embeddingProvider = embedding.NewGeminiProvider(cfg.Ai.GoogleGeminiKey)
		log.Printf("[INFO] Using Embedding Provider: GEMINI")
	} else {
		embeddingProvider = embedding.NewOllamaProvider(
			cfg.Ai.OllamaBaseURL,
			cfg.Ai.OllamaModel,
		)
		log.Printf("[INFO] Using Embedding Provider: OLLAMA (%s)", cfg.Ai.OllamaModel)
	}

	llmProvider, err := factory.NewLLMProvider(
		cfg.Ai.LLMProvider,
		cfg.Ai.LLMModel,
		cfg.Ai.OllamaBaseURL,
	)
	if err != nil {
		log.Fatalf("[FATAL] Failed to initialize LLM Provider: %v", err)
	}
	log.Printf("[INFO] Using LLM Provider: %s (%s)", cfg.Ai.LLMProvider, cfg.Ai.LLMModel)

	// 4. Infrastructure
	natsPub, err := pkgNats.NewPublisher(cfg.App.NatsURL)
	if err != nil {
		log.Printf("[WARN] Failed to connect to NATS Publisher: %v", err)
	}
	natsSub, err := pkgNats.NewSubscriber(cfg.App.NatsURL)
	if err != nil {
		log.Printf("[WARN] Failed to connect to NATS Subscriber: %v", err)
	}

	// 5. Response Cache
	var cacheStore cache.Store
	if cfg.Search.CacheBackend == "redis" {
		opt, err := redis.ParseURL(cfg.App.RedisURL)
		if err != nil {
			log.Printf("[WARN] Failed to parse Redis URL: %v. Using direct Addr", err)
			opt = &redis.Options{
				Addr: cfg.App.RedisURL,
			}
		}
		rdb := redis.NewClient(opt)
		if _, err := rdb.Ping(context.Background()).Result(); err != nil {
			log.Printf("[WARN] Failed to connect to Redis: %v", err)
		}
		cacheStore = cache.NewRedisStore(rdb)
		log.Printf("[INFO] Using Cache Backend: REDIS")
	} else {
		cacheStore = cache.NewMemoryStore(cfg.Search.CacheTTL)
		log.Printf("[INFO] Using Cache Backend: MEMORY")
	}
	responseCache := cache.NewResponseCache(cacheStore, cfg.Search.CacheTTL, sysLogger)

	// 6. Search Pipeline
	retrievers := map[store.Backend]retriever.Retriever{
		store.BackendChunk:    retriever.NewChunkRetriever(chunkRepo, cfg.Search.SimilarityThreshold),
		store.BackendMaterial: retriever.NewMaterialRetriever(materialRepo, cfg.Search.SimilarityThreshold),
		store.BackendKeyword:  retriever.NewKeywordRetriever(keywordRepo),
	}
	if cfg.Search.RealtimeEnabled && cfg.Search.RealtimeEndpoint != "" {
		retrievers[store.BackendRealtime] = retriever.NewRealtimeRetriever(cfg.Search.RealtimeEndpoint)
		log.Printf("[INFO] Realtime backend enabled (%s)", cfg.Search.RealtimeEndpoint)
	}

	orchCfg := orchestrator.DefaultConfig()
	orchCfg.AdapterTimeout = cfg.Search.AdapterTimeout
	orch := orchestrator.NewOrchestrator(retrievers, embeddingProvider, orchCfg, sysLogger)

	guard := access.NewGuard(sysLogger)
	composer := compose.NewComposer(llmProvider, compose.DefaultConfig(), sysLogger)

	engineCfg := search.DefaultConfig()
	engineCfg.Fusion = fusion.Config{
		Lambda:  cfg.Search.MMRLambda,
		PoolCap: fusion.DefaultConfig().PoolCap,
	}
	engineCfg.DefaultMaxResults = cfg.Search.DefaultMaxResults
	engineCfg.MaxResultsCap = cfg.Search.MaxResultsCap
	engineCfg.RequestTimeout = cfg.Search.RequestTimeout
	engine := search.NewEngine(guard, orch, composer, responseCache, engineCfg, sysLogger)

	// 7. Services
	publisherService := service.NewPublisherService(pubSub, cfg.Ai.EmbedJobTopic)
	consumerService := service.NewConsumerService(
		pubSub,
		cfg.Ai.EmbedJobTopic,
		chunkRepo,
		materialRepo,
		embeddingProvider,
		responseCache,
	)

	searchService := service.NewSearchService(engine)
	ingestService := service.NewIngestService(
		chunkRepo,
		materialRepo,
		publisherService,
		natsPub,
		sysLogger,
	)

	var invalidationService service.IInvalidationService
	if natsSub != nil {
		invalidationService = service.NewInvalidationService(natsSub, responseCache, sysLogger)
	}

	// 8. Controllers
	return &Container{
		SearchController: controller.NewSearchController(searchService),
		IngestController: controller.NewIngestController(ingestService),

		ConsumerService:     consumerService,
		InvalidationService: invalidationService,
	}
}
