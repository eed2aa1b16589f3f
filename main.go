package main

import (
	"context"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/redis/go-redis/v9"
	"go.opentelemetry.io/contrib/instrumentation/github.com/gin-gonic/gin/otelgin"
	"go.uber.org/zap"

	"workspace-chat-service/internal/auth"
	"workspace-chat-service/internal/cache"
	"workspace-chat-service/internal/config"
	"workspace-chat-service/internal/db"
	"workspace-chat-service/internal/handlers"
	"workspace-chat-service/internal/middleware"
	"workspace-chat-service/internal/observability"
	"workspace-chat-service/internal/rabbitmq"
	"workspace-chat-service/internal/repositories"
	"workspace-chat-service/internal/services"
	"workspace-chat-service/internal/storage"
	"workspace-chat-service/internal/telemetry"
	"workspace-chat-service/internal/ws"
)

const serviceName = "workspace-chat-service"

func main() {
	log, err := zap.NewProduction()
	if err != nil {
		panic(err)
	}
	defer log.Sync()

	cfg, err := config.Load()
	if err != nil {
		log.Fatal("failed to load config", zap.Error(err))
	}

	ctx := context.Background()
	shutdownTracing := observability.InitTracing(ctx, serviceName, cfg.Environment, log)
	defer func() {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = shutdownTracing(shutdownCtx)
	}()

	database, err := db.Connect(cfg.DatabaseDSN)
	if err != nil {
		log.Fatal("failed to connect to db", zap.Error(err))
	}
	defer database.Close()

	publisher := rabbitmq.NewPublisher(cfg.AMQPURL, cfg.AMQPExchange, log)
	defer publisher.Close()
	observability.SetPublisher(publisher)
	log.Info("event publisher ready", zap.String("mode", rabbitmq.PublisherMode(publisher)))

	var redisClient *redis.Client
	if cfg.RedisAddr != "" {
		redisClient = redis.NewClient(&redis.Options{Addr: cfg.RedisAddr})
		defer redisClient.Close()
	}
	unreadCache := cache.NewUnreadCache(redisClient, time.Minute)

	var objectStore storage.ObjectStore
	if cfg.Minio.Endpoint != "" {
		minioStore, err := storage.NewMinioStore(ctx, cfg.Minio.Endpoint, cfg.Minio.AccessKey,
			cfg.Minio.SecretKey, cfg.Minio.Bucket, cfg.Minio.PublicURL, cfg.Minio.UseSSL)
		if err != nil {
			log.Fatal("failed to init object store", zap.Error(err))
		}
		objectStore = minioStore
	} else {
		log.Info("object store not configured, uploads disabled")
	}

	membershipRepo := repositories.NewMembershipRepo(database)
	roomRepo := repositories.NewRoomRepo(database)
	messageRepo := repositories.NewMessageRepo(database)
	notificationRepo := repositories.NewNotificationRepo(database)
	preferenceRepo := repositories.NewPreferenceRepo(database)

	hub := ws.NewHub(log)
	notificationService := services.NewNotificationService(
		notificationRepo, preferenceRepo, hub, unreadCache, cfg.NotifyActor, log)
	chatService := services.NewChatService(
		membershipRepo, roomRepo, messageRepo, hub, notificationService, log)

	verifier := auth.NewJWTVerifier(cfg.JWTSecret)
	socketHandler := ws.NewSocketHandler(hub, chatService, verifier, log)

	audit := telemetry.NewAuditEmitter(publisher, "audit.notifications", serviceName, cfg.Environment, log)
	chatHandler := handlers.NewChatHandler(chatService, objectStore, log)
	notificationHandler := handlers.NewNotificationHandler(notificationService, audit, log)

	router := gin.New()
	router.Use(gin.Recovery())
	router.Use(otelgin.Middleware(serviceName))
	router.Use(observability.HTTPMetricsMiddleware())

	router.GET("/healthz", func(c *gin.Context) { c.JSON(200, gin.H{"status": "ok"}) })
	router.GET("/metrics", gin.WrapH(promhttp.Handler()))

	router.GET("/ws", socketHandler.Handle)

	authMiddleware := middleware.AuthMiddleware(verifier)

	router.GET("/workspaces/:workspace_id/chat/messages", authMiddleware, chatHandler.GetMessages)
	router.POST("/workspaces/:workspace_id/chat/messages", authMiddleware, chatHandler.PostMessage)
	router.POST("/workspaces/:workspace_id/chat/uploads", authMiddleware, chatHandler.Upload)

	router.GET("/notifications", authMiddleware, notificationHandler.List)
	router.GET("/notifications/unread-count", authMiddleware, notificationHandler.UnreadCount)
	router.PUT("/notifications/read-all", authMiddleware, notificationHandler.MarkAllRead)
	router.PUT("/notifications/:id/read", authMiddleware, notificationHandler.MarkRead)
	router.DELETE("/notifications/:id", authMiddleware, notificationHandler.Delete)
	router.GET("/notifications/preferences", authMiddleware, notificationHandler.ListPreferences)
	router.GET("/notifications/preferences/:category", authMiddleware, notificationHandler.GetPreference)
	router.PUT("/notifications/preferences/:category", authMiddleware, notificationHandler.UpdatePreference)

	log.Info("server starting", zap.String("addr", cfg.Addr))
	if err := router.Run(cfg.Addr); err != nil {
		log.Fatal("server error", zap.Error(err))
	}
}
