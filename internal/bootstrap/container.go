package bootstrap

import (
	"context"
	"log"
	"time"

	"github.com/ThreeDotsLabs/watermill"
	"github.com/ThreeDotsLabs/watermill/pubsub/gochannel"
	"github.com/gofiber/fiber/v2"
	"github.com/redis/go-redis/v9"

	"ai-editor-be/internal/config"
	"ai-editor-be/internal/controller"
	"ai-editor-be/internal/handler"
	"ai-editor-be/internal/pkg/logger"
	"ai-editor-be/internal/pkg/serverutils"
	"ai-editor-be/internal/repository/memory"
	"ai-editor-be/internal/service"
	"ai-editor-be/internal/websocket"
	"ai-editor-be/pkg/llm"
	llmCache "ai-editor-be/pkg/llm/cache"
	"ai-editor-be/pkg/llm/factory"
	pktNats "ai-editor-be/pkg/nats"
)

// ExchangeTopic is the in-process topic resolved AI exchanges go to.
const ExchangeTopic = "AI_EXCHANGE_RESOLVED"

type Container struct {
	// Controllers
	GateController    controller.IGateController
	AssistController  controller.IAssistController
	SessionController controller.ISessionController
	OpsController     controller.IOpsController

	EditorHandler *handler.EditorHandler
	JwtMiddleware fiber.Handler

	// Background Services (Exposed for main.go to run)
	ConsumerService service.IConsumerService
	ActivityService service.IActivityService

	WebSocketHub *websocket.Hub
	Logger       logger.ILogger

	sessions *memory.SessionRepository
	closers  []func()
}

func NewContainer(cfg *config.Config) *Container {
	// 1. Core Facades
	sysLogger := logger.NewZapLogger(cfg.App.LogFilePath, cfg.IsProduction())
	sessionLogger := logger.NewIsolatedLogger(cfg.App.SessionLogFilePath)
	c := &Container{Logger: sysLogger}

	// 2. Event Bus
	pubSub := gochannel.NewGoChannel(
		gochannel.Config{OutputChannelBuffer: 64},
		watermill.NewStdLogger(false, false),
	)
	c.closers = append(c.closers, func() { pubSub.Close() })

	// 3. Infrastructure
	rdb := connectRedis(cfg.App.RedisURL)
	if rdb != nil {
		c.closers = append(c.closers, func() { rdb.Close() })
	}

	var exporter service.EventExporter
	var source service.EventSource
	if cfg.App.NatsURL != "" {
		natsPub, err := pktNats.NewPublisher(cfg.App.NatsURL)
		if err != nil {
			log.Printf("[WARN] Failed to connect to NATS Publisher: %v", err)
		} else {
			exporter = natsPub
			c.closers = append(c.closers, natsPub.Close)
		}
		natsSub, err := pktNats.NewSubscriber(cfg.App.NatsURL)
		if err != nil {
			log.Printf("[WARN] Failed to connect to NATS Subscriber: %v", err)
		} else {
			source = natsSub
			c.closers = append(c.closers, natsSub.Close)
		}
	} else {
		log.Printf("[INFO] NATS_URL not set, exchange events stay in process")
	}

	// 4. LLM
	provider, err := factory.NewLLMProvider(cfg.AI.Provider, cfg.AI.Model, cfg.AI.BaseURL, cfg.AI.APIKey)
	if err != nil {
		log.Fatalf("[FATAL] Failed to initialize LLM Provider: %v", err)
	}
	log.Printf("[INFO] Using LLM Provider: %s (%s)", cfg.AI.Provider, cfg.AI.Model)

	var store llmCache.Store = llmCache.NewMemoryStore(cfg.AI.CacheTTL)
	if rdb != nil {
		store = llmCache.NewRedisStore(rdb)
		log.Printf("[INFO] LLM answers cached in Redis for %s", cfg.AI.CacheTTL)
	}
	var cached llm.LLMProvider = llmCache.New(provider, store, cfg.AI.CacheTTL)

	// 5. Services
	wsHub := websocket.NewHub(rdb, sessionLogger)
	go wsHub.Run()
	c.WebSocketHub = wsHub

	gateService, err := service.NewGateService(cfg.Gate, sysLogger)
	if err != nil {
		log.Fatalf("[FATAL] Failed to initialize password gate: %v", err)
	}
	assistService := service.NewAssistService(provider, cached, cfg.AI, sysLogger)
	activityService := service.NewActivityService(source, sysLogger)

	c.sessions = memory.NewSessionRepository(cfg.Editor.SessionTTL)
	sessionService := service.NewSessionService(
		c.sessions,
		assistService,
		service.NewExchangePublisher(pubSub, ExchangeTopic, sessionLogger),
		wsHub,
		sessionLogger,
		cfg.Editor.GatewayTimeout,
	)
	consumerService := service.NewConsumerService(pubSub, ExchangeTopic, exporter, wsHub, activityService, sysLogger)

	// 6. Controllers
	c.GateController = controller.NewGateController(gateService)
	c.AssistController = controller.NewAssistController(assistService)
	c.SessionController = controller.NewSessionController(sessionService)
	c.OpsController = controller.NewOpsController(activityService, sessionService, sysLogger)
	c.JwtMiddleware = serverutils.JwtMiddleware(cfg.Gate.JWTSecret)
	c.EditorHandler = handler.NewEditorHandler(sessionService, wsHub, cfg.Gate.JWTSecret, sessionLogger)
	c.ConsumerService = consumerService
	c.ActivityService = activityService
	return c
}

// connectRedis returns nil when Redis cannot be reached; callers fall back
// to in-process alternatives.
func connectRedis(url string) *redis.Client {
	if url == "" {
		return nil
	}
	opt, err := redis.ParseURL(url)
	if err != nil {
		log.Printf("[WARN] Failed to parse Redis URL: %v. Using direct Addr", err)
		opt = &redis.Options{Addr: url}
	}
	rdb := redis.NewClient(opt)

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	if _, err := rdb.Ping(ctx).Result(); err != nil {
		log.Printf("[WARN] Failed to connect to Redis: %v", err)
		rdb.Close()
		return nil
	}
	return rdb
}

// Close ends every session and releases connections.
func (c *Container) Close() {
	if c.sessions != nil {
		c.sessions.CloseAll()
	}
	for i := len(c.closers) - 1; i >= 0; i-- {
		c.closers[i]()
	}
	_ = c.Logger.Sync()
}
