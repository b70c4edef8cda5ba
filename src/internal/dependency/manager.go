package dependency

import (
	"context"
	"stridehub-webhook-svc/src/clients"
	"stridehub-webhook-svc/src/internal/admin"
	"stridehub-webhook-svc/src/internal/cache"
	"stridehub-webhook-svc/src/internal/config"
	"stridehub-webhook-svc/src/internal/queue"
	"stridehub-webhook-svc/src/internal/registry"
	"stridehub-webhook-svc/src/internal/user"
	"stridehub-webhook-svc/src/internal/webhook"

	"github.com/gin-gonic/gin"
)

type Manager struct {
	Router         *gin.Engine
	Config         *config.Configuration
	Mongodb        *clients.MongoDB
	Redis          *clients.RedisClient
	RabbitMQ       *clients.RabbitMQ
	CacheService   cache.Service
	UserService    user.Service
	Registry       *registry.Registry
	QueueRepo      queue.Repository
	Drainer        *queue.Drainer
	Dispatcher     *webhook.Dispatcher
	WebhookHandler webhook.Handler
	AdminHandler   admin.Handler
	Publisher      *clients.PlatformPublisher
	Processor      *clients.ProcessorClient
}

func NewDependencyManager(router *gin.Engine,
	mongodb *clients.MongoDB,
	redisClient *clients.RedisClient,
	rabbitMQ *clients.RabbitMQ,
	cfg *config.Configuration) *Manager {
	cacheService := cache.NewCacheService(redisClient.Client, cfg)
	publisher := clients.NewPlatformPublisher(cfg, rabbitMQ.Channel)
	processor := clients.NewProcessorClient(cfg)

	userRepo := user.NewUserRepository(mongodb, cfg.Database.Collections.Users)
	userService := user.NewUserService(userRepo, cacheService)

	recordStore := registry.NewRecordStore(mongodb, cfg.Database.Collections.System)
	ignoredRegistry := registry.New(recordStore)

	queueRepo := queue.NewQueueRepository(mongodb, cfg.Database.Collections.Queue)
	drainer := queue.NewDrainer(queueRepo, userService, processor, publisher)

	validator := webhook.NewValidator(&cfg.Webhook)
	relay := webhook.NewRelay(cfg)
	dispatcher := webhook.NewDispatcher(userService, queueRepo, processor, publisher, drainer, cacheService)
	webhookHandler := webhook.NewHandler(cfg, validator, ignoredRegistry, userService, dispatcher, drainer, relay, publisher)
	adminHandler := admin.NewHandler(cfg, queueRepo, ignoredRegistry, drainer, cacheService)

	return &Manager{
		Router:         router,
		Config:         cfg,
		Mongodb:        mongodb,
		Redis:          redisClient,
		RabbitMQ:       rabbitMQ,
		CacheService:   cacheService,
		UserService:    userService,
		Registry:       ignoredRegistry,
		QueueRepo:      queueRepo,
		Drainer:        drainer,
		Dispatcher:     dispatcher,
		WebhookHandler: webhookHandler,
		AdminHandler:   adminHandler,
		Publisher:      publisher,
		Processor:      processor,
	}
}

// Init prepares durable state: the unique queue index and the ignored-users
// registry hydration. Called once before the server starts serving.
func (m *Manager) Init(ctx context.Context) error {
	if err := queue.EnsureIndexes(ctx, m.Mongodb, m.Config.Database.Collections.Queue); err != nil {
		return err
	}
	return m.Registry.Hydrate(ctx)
}
