package main

import (
	"context"
	"log"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.opentelemetry.io/contrib/instrumentation/github.com/gin-gonic/gin/otelgin"

	"mafia-service/internal/archive"
	"mafia-service/internal/config"
	"mafia-service/internal/handlers"
	"mafia-service/internal/middleware"
	"mafia-service/internal/observability"
	"mafia-service/internal/rabbitmq"
	"mafia-service/internal/session"
	"mafia-service/internal/telemetry"
	"mafia-service/internal/tracing"
	"mafia-service/internal/ws"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("failed to load config: %v", err)
	}

	ctx := context.Background()
	shutdownTracing, err := tracing.Setup(ctx, "mafia-service", cfg.OTELEndpoint)
	if err != nil {
		log.Fatalf("failed to set up tracing: %v", err)
	}
	defer shutdownTracing(ctx)

	publisher := rabbitmq.NewPublisher(cfg.AMQPURL, cfg.AMQPExchange)
	defer publisher.Close()
	log.Printf("audit publisher mode=%s", rabbitmq.PublisherMode(publisher))
	emitter := telemetry.NewAuditEmitter(publisher, "audit_log.mafia", "mafia-service", cfg.Environment)

	store, err := archive.Open(cfg.ArchiveDSN)
	if err != nil {
		log.Fatalf("failed to open match archive: %v", err)
	}
	defer store.Close()

	hub := ws.NewHub()
	registry := session.NewRegistry(hub, emitter, store)
	registry.SetRetention(cfg.SessionRetention)
	registry.StartSweeper(ctx, cfg.SweepInterval)

	sessionHandler := handlers.NewSessionHandler(registry, cfg.PublicBaseURL)
	gameWS := ws.NewGameSocketHandler(hub, registry)

	router := gin.Default()

	// middlewares
	router.Use(gin.Recovery())
	router.Use(otelgin.Middleware("mafia-service"))
	router.Use(middleware.RequestID())
	router.Use(observability.HTTPMetricsMiddleware())

	router.GET("/healthz", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})
	router.GET("/metrics", gin.WrapH(promhttp.Handler()))

	router.POST("/sessions", sessionHandler.Create)
	router.POST("/sessions/:code/join", sessionHandler.Join)
	router.POST("/sessions/:code/leave", sessionHandler.Leave)
	router.GET("/sessions/:code/state", sessionHandler.State)
	router.GET("/sessions/:code/qr", sessionHandler.QRCode)

	router.GET("/ws/sessions/:code", gameWS.Handle)

	handlers.RegisterDebugRoutes(router, emitter, cfg.Debug)

	if err := router.Run(":" + cfg.Port); err != nil {
		log.Fatalf("server error: %v", err)
	}
}
