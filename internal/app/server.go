package app

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/VoidGod00/simple-chat/api/rest"
	"github.com/VoidGod00/simple-chat/api/ws"
	"github.com/VoidGod00/simple-chat/config"
	"github.com/VoidGod00/simple-chat/internal/redis"
	"github.com/VoidGod00/simple-chat/internal/websocket"
	"github.com/VoidGod00/simple-chat/pkg/logger"
	"github.com/VoidGod00/simple-chat/service"
)

// App represents the main application structure holding all dependencies
type App struct {
	cfg         config.Config
	logger      logger.Logger
	redisClient *redis.RedisClient
	chatService service.ChatService
	hub         *websocket.Hub
	httpServer  *http.Server
	rootCtx     context.Context
	cancel      context.CancelFunc
}

// NewApp initializes and connects all application dependencies
func NewApp(cfg config.Config) (*App, error) {
	// Create application root context
	baseLogger := logger.NewLogger(cfg.LogLevel, cfg.LogFile)
	rootCtx := logger.NewContext(context.Background(), baseLogger)
	rootCtx, rootCancel := context.WithCancel(rootCtx)

	// Get scoped logger for app
	log := logger.FromContext(rootCtx).WithModule("app")
	log.Infof("Initializing application components...")

	redisClient, err := redis.NewRedisClient(rootCtx, cfg.RedisURL)
	if err != nil {
		rootCancel()
		return nil, fmt.Errorf("failed to connect to Redis: %w", err)
	}
	// Startup connectivity diagnostic: the constructor already pinged, so a
	// success line here confirms the store before the server starts serving.
	log.Infof("Connected to Redis at %s", cfg.RedisURL)

	chatService := service.NewChatService(redisClient, logger.FromContext(rootCtx).WithModule("chat"))

	hub := websocket.NewHub()
	go hub.Run()

	httpServer := createHTTPServer(rootCtx, cfg, hub, chatService)

	app := &App{
		cfg:         cfg,
		logger:      log,
		redisClient: redisClient,
		chatService: chatService,
		hub:         hub,
		httpServer:  httpServer,
		rootCtx:     rootCtx,
		cancel:      rootCancel,
	}

	log.Infof("Application initialized successfully")
	return app, nil
}

func createHTTPServer(ctx context.Context, cfg config.Config, hub *websocket.Hub, chatService service.ChatService) *http.Server {
	mux := http.NewServeMux()
	mux.Handle("/api/", rest.SetupRESTRoutes(rest.RESTConfig{
		ChatService:  chatService,
		RootCtx:      ctx,
		HistoryLimit: cfg.HistoryLimit,
	}))
	mux.Handle("/ws", ws.SetupWebSocketRoutes(ws.WSConfig{
		Hub:         hub,
		ChatService: chatService,
		RootCtx:     ctx,
	}))

	return &http.Server{
		Addr:    fmt.Sprintf(":%d", cfg.Port),
		Handler: mux,
	}
}

// Start runs the application and handles graceful shutdown on signal
func (a *App) Start() error {
	log := a.logger.WithFields(map[string]interface{}{
		"port": a.cfg.Port,
	})

	log.Infof("Starting application server")

	go func() {
		if err := a.httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.WithFields(map[string]interface{}{
				"error": err.Error(),
			}).Fatalf("HTTP server failed")
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)

	sig := <-quit
	log.WithFields(map[string]interface{}{
		"signal": sig.String(),
	}).Warnf("Received shutdown signal")

	return a.Stop()
}

// Stop gracefully shuts down the server and closes all connections
func (a *App) Stop() error {
	log := a.logger.WithFields(map[string]interface{}{
		"shutdown_timeout": "5s",
	})

	log.Infof("Initiating graceful shutdown")

	// Cancel root context first
	a.cancel()

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := a.httpServer.Shutdown(ctx); err != nil {
		log.WithFields(map[string]interface{}{
			"error": err.Error(),
		}).Errorf("HTTP server shutdown error")
	}

	// Redis goes first: Close drains every room subscription and waits for
	// their delivery goroutines, so no broadcast can land in a send channel
	// the hub is about to close.
	log.Infof("Closing Redis connection")
	if err := a.redisClient.Close(); err != nil {
		log.Errorf("Redis close error: %v", err)
	}

	log.Infof("Closing websocket connections")
	a.hub.Close()

	log.Infof("Shutdown completed successfully")
	return nil
}
