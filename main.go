package main

import (
	"context"
	"errors"
	"net"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/redis/go-redis/v9"
	"go.opentelemetry.io/contrib/instrumentation/github.com/gin-gonic/gin/otelgin"
	"go.uber.org/zap"

	"entity-chat-service/internal/auth"
	"entity-chat-service/internal/config"
	"entity-chat-service/internal/db"
	"entity-chat-service/internal/grpcserver"
	"entity-chat-service/internal/handlers"
	"entity-chat-service/internal/kafka"
	"entity-chat-service/internal/logging"
	"entity-chat-service/internal/middleware"
	"entity-chat-service/internal/observability"
	"entity-chat-service/internal/rabbitmq"
	"entity-chat-service/internal/realtime"
	"entity-chat-service/internal/repositories"
	"entity-chat-service/internal/service"
	"entity-chat-service/internal/telemetry"
	"entity-chat-service/internal/ws"
)

const serviceName = "entity-chat-service"

func main() {
	cfg, err := config.Load()
	if err != nil {
		panic(err)
	}

	logger, err := logging.New(cfg.Development())
	if err != nil {
		panic(err)
	}
	defer logger.Sync()

	if err := run(cfg, logger); err != nil {
		logger.Fatalw("service stopped", "error", err)
	}
}

func run(cfg *config.Config, logger *zap.SugaredLogger) error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	shutdownTracing, err := telemetry.InitTracing(ctx, cfg.OTLPEndpoint, serviceName, cfg.Env)
	if err != nil {
		return err
	}

	mongoClient, mongoDB, err := db.ConnectMongo(ctx, cfg.Mongo.URI, cfg.Mongo.Database)
	if err != nil {
		return err
	}
	logger.Infow("mongo connected", "database", cfg.Mongo.Database)

	directory, err := db.ConnectDirectory(cfg.PostgresDSN, logger)
	if err != nil {
		return err
	}

	publisher := newEventPublisher(cfg, logger)

	hub := ws.NewHub(logger)
	origin := uuid.NewString()
	sinks := []realtime.Sink{realtime.NewHubSink(hub)}

	var rdb *redis.Client
	if cfg.Redis.Addr != "" {
		rdb = redis.NewClient(&redis.Options{Addr: cfg.Redis.Addr, Password: cfg.Redis.Password, DB: cfg.Redis.DB})
		if err := rdb.Ping(ctx).Err(); err != nil {
			logger.Warnw("redis unavailable, realtime stays local", "addr", cfg.Redis.Addr, "error", err)
			_ = rdb.Close()
			rdb = nil
		}
	}
	if rdb != nil {
		sinks = append(sinks, realtime.NewRedisSink(rdb, cfg.Redis.Prefix, origin))
		relay := realtime.NewRedisRelay(rdb, cfg.Redis.Prefix, origin, hub, logger)
		go func() {
			if err := relay.Run(ctx); err != nil {
				logger.Errorw("redis relay stopped", "error", err)
			}
		}()
	}
	if publisher != nil {
		sinks = append(sinks, realtime.NewBrokerSink(cfg.Events.Broker, publisher))
	}

	dispatcher := realtime.NewDispatcher(logger, cfg.NotifierBuffer, sinks...)
	go dispatcher.Run(context.WithoutCancel(ctx))

	users := repositories.NewUserRepo(directory)
	chatService := service.NewChatService(
		repositories.NewChatRepo(mongoDB.Collection(db.ChatsCollection)),
		users,
		users,
		dispatcher,
		logger,
		service.WithSaveRetries(cfg.SaveRetries),
	)

	var audit *telemetry.AuditEmitter
	if publisher != nil {
		audit = telemetry.NewAuditEmitter(publisher, telemetry.AuditRoutingKey, serviceName, cfg.Env, logger)
	}

	verifier := auth.NewVerifier(cfg.JWTSecret)
	chatHandler := handlers.NewChatHandler(chatService, audit, logger)
	chatWS := ws.NewChatWebSocketHandler(hub, chatService, verifier, logger)

	if !cfg.Development() {
		gin.SetMode(gin.ReleaseMode)
	}
	router := gin.New()

	// middlewares
	router.Use(gin.Recovery())
	router.Use(handlers.RequestID())
	router.Use(otelgin.Middleware(serviceName))
	router.Use(observability.HTTPMetricsMiddleware())
	router.Use(corsMiddleware(cfg.CORSOrigins))
	router.Use(middleware.Locale())

	router.GET("/healthz", func(c *gin.Context) { c.JSON(http.StatusOK, gin.H{"status": "ok"}) })
	router.GET("/metrics", gin.WrapH(promhttp.Handler()))

	limiter := middleware.NewRateLimiter(cfg.MessagesPerMin)
	api := router.Group("/", middleware.AuthMiddleware(verifier))

	api.POST("/chats", chatHandler.CreateChat)
	api.GET("/chats", chatHandler.ListChats)
	api.GET("/chats/:chat_id", chatHandler.GetChat)
	api.PATCH("/chats/:chat_id/deactivate", chatHandler.DeactivateChat)
	api.POST("/chats/:chat_id/participants", chatHandler.AddParticipants)
	api.DELETE("/chats/:chat_id/participants", chatHandler.RemoveParticipants)
	api.PATCH("/chats/:chat_id/participants/:user_id/permissions", chatHandler.UpdatePermissions)
	api.GET("/chats/:chat_id/messages", chatHandler.GetMessages)
	api.POST("/chats/:chat_id/messages", limiter.Middleware(), chatHandler.PostMessage)
	api.POST("/chats/:chat_id/read", chatHandler.MarkAsRead)
	api.GET("/chats/:chat_id/messages/search", chatHandler.SearchMessages)
	api.GET("/participants/available", chatHandler.AvailableParticipants)
	handlers.RegisterDebugRoutes(api, audit, cfg.DebugRoutes)

	router.GET("/ws/chats/:chat_id", chatWS.Handle)

	httpServer := &http.Server{Addr: ":" + cfg.Port, Handler: router}
	health := grpcserver.New(logger)
	grpcLis, err := net.Listen("tcp", ":"+cfg.GRPCPort)
	if err != nil {
		return err
	}

	errCh := make(chan error, 2)
	go func() { errCh <- health.Serve(grpcLis) }()
	go func() {
		logger.Infow("http listening", "addr", httpServer.Addr)
		if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
	}()
	health.SetServing(true)

	var runErr error
	select {
	case <-ctx.Done():
		logger.Infow("shutdown requested")
	case runErr = <-errCh:
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
	defer cancel()

	health.SetServing(false)
	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		logger.Warnw("http shutdown", "error", err)
	}
	health.Stop(shutdownCtx)
	dispatcher.Close(shutdownCtx)
	if publisher != nil {
		_ = publisher.Close()
	}
	if rdb != nil {
		_ = rdb.Close()
	}
	_ = directory.Close()
	_ = mongoClient.Disconnect(shutdownCtx)
	_ = shutdownTracing(shutdownCtx)
	return runErr
}

// newEventPublisher returns the configured broker client, or nil when the
// outbound event stream is disabled.
func newEventPublisher(cfg *config.Config, logger *zap.SugaredLogger) rabbitmq.Publisher {
	switch cfg.Events.Broker {
	case config.BrokerAMQP:
		p := rabbitmq.NewPublisher(cfg.Events.AMQPURL, cfg.Events.AMQPExchange, logger)
		logger.Infow("event publisher", "mode", rabbitmq.PublisherMode(p), "noop_reason", rabbitmq.PublisherNoopReason(p))
		return p
	case config.BrokerKafka:
		return kafka.NewProducer(cfg.Events.KafkaBrokers, cfg.Events.KafkaTopic, logger)
	default:
		logger.Infow("event publisher disabled")
		return nil
	}
}

func corsMiddleware(origins []string) gin.HandlerFunc {
	c := cors.DefaultConfig()
	if len(origins) == 0 || (len(origins) == 1 && origins[0] == "*") {
		c.AllowAllOrigins = true
	} else {
		c.AllowOrigins = origins
	}
	c.AllowHeaders = append(c.AllowHeaders, "Authorization", "Accept-Language", "X-Request-ID")
	return cors.New(c)
}
