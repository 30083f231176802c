package main

import (
	"context"
	"log/slog"
	"net/http"
	"os"
	"time"

	"github.com/Nick-Maro/DockerChat/app/config"
	"github.com/Nick-Maro/DockerChat/internal/adapters"
	"github.com/Nick-Maro/DockerChat/internal/handlers"
	"github.com/Nick-Maro/DockerChat/internal/repositories"
	"github.com/Nick-Maro/DockerChat/internal/services"
	websocket "github.com/Nick-Maro/DockerChat/internal/websocet"

	"github.com/gin-gonic/gin"
	"github.com/go-redis/redis"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	otelgin "go.opentelemetry.io/contrib/instrumentation/github.com/gin-gonic/gin/otelgin"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/exporters/jaeger"
	"go.opentelemetry.io/otel/propagation"
	"go.opentelemetry.io/otel/sdk/resource"
	tracesdk "go.opentelemetry.io/otel/sdk/trace"
	semconv "go.opentelemetry.io/otel/semconv/v1.12.0"
	"go.opentelemetry.io/otel/trace"
)

type Container struct {
	isShuttingDown bool

	GinEngine *gin.Engine
	Config    *config.Config
	Redis     *redis.Client
	Firewall  *Firewall

	Metrics        *Metrics
	Logger         *slog.Logger
	TracerProvider *tracesdk.TracerProvider
	Tracer         trace.Tracer

	Server *http.Server

	Store *repositories.EntityStore

	Sweeper    *services.SweeperService
	Sessions   *services.SessionService
	Rooms      *services.RoomService
	Mailbox    *services.MailboxService
	Dispatcher *services.Dispatcher

	CommandHandler   *handlers.CommandHandler
	StatusHandler    *handlers.StatusHandler
	WebSocketHandler *handlers.WebsocetHandler

	WsHub *websocket.Hub

	sweepStop chan struct{}
}

func NewContainer() (*Container, error) {
	container := &Container{}

	if err := container.initCore(); err != nil {
		return nil, err
	}

	container.initProductionFeatures()

	return container, nil
}

func (c *Container) initCore() error {
	var cfg, err = config.LoadConfig()
	if err != nil {
		return err
	}
	c.Config = &cfg

	c.Logger = c.initLogger()
	c.initMetrics()
	c.Redis = c.initRedis()

	if err = c.initTracing(); err != nil {
		return err
	}

	// the store probes the tier itself: an unreachable redis at startup means
	// local-only mode for the process lifetime
	c.Store = repositories.NewEntityStore(adapters.NewRedisTier(c.Redis), c.Logger, c.Metrics.SharedTierErrors)

	c.Sweeper = services.NewSweeperService(c.Store, cfg.TTL, c.Logger, c.Metrics.SweepEvictions)
	c.Sessions = services.NewSessionService(c.Store, cfg.TTL, c.Logger)
	c.Rooms = services.NewRoomService(c.Store, c.Logger)
	c.Mailbox = services.NewMailboxService(c.Store, c.Logger)
	c.Dispatcher = services.NewDispatcher(c.Store, c.Sweeper, c.Sessions, c.Rooms, c.Mailbox, cfg.TTL, c.Logger)

	c.WsHub = websocket.NewHub(c.Logger, c.Metrics.ActiveWebSockets)
	go c.WsHub.Run()

	c.Rooms.SetEventSink(c.WsHub)
	c.Mailbox.SetEventSink(c.WsHub)

	c.Firewall = NewFirewall(cfg.Firewall, cfg.RateLimit)

	c.CommandHandler = handlers.NewCommandHandler(c.Dispatcher, c.Logger, c.Metrics.CommandsTotal)
	c.StatusHandler = handlers.NewStatusHandler(c.Dispatcher, c.Logger)
	c.WebSocketHandler = handlers.NewWebSocketHandler(c.WsHub, c.Sessions, c.Logger)

	c.Server = c.initServer()
	c.GinEngine = c.initGinEngine()
	c.Server.Handler = c.GinEngine

	return nil
}

func (c *Container) initProductionFeatures() {
	c.initHealthRoutes(c.GinEngine)

	c.GinEngine.GET("/metrics", gin.WrapH(promhttp.Handler()))

	if c.Config.Sweep.Interval > 0 {
		c.sweepStop = make(chan struct{})
		go c.runBackgroundSweep()
	}
}

// runBackgroundSweep reclaims memory during idle periods. Without it nothing
// is ever swept unless a request arrives.
func (c *Container) runBackgroundSweep() {
	ticker := time.NewTicker(c.Config.Sweep.Interval)
	defer ticker.Stop()

	c.Logger.Info("background sweep enabled", "interval", c.Config.Sweep.Interval)

	for {
		select {
		case <-ticker.C:
			report := c.Dispatcher.RunSweep()
			if !report.Empty() {
				c.Logger.Info("background sweep evicted entities",
					"clients", report.Clients,
					"rooms", report.Rooms,
					"roomMessages", report.RoomMessages,
					"privateMessages", report.PrivateMessages)
			}
		case <-c.sweepStop:
			return
		}
	}
}

func (c *Container) initMetrics() {
	c.Metrics = &Metrics{
		RequestsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "http_requests_total",
				Help: "Total HTTP requests",
			},
			[]string{"method", "endpoint", "status"},
		),
		RequestDuration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Name: "http_request_duration_seconds",
				Help: "HTTP request duration",
			},
			[]string{"method", "endpoint"},
		),
		CommandsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "chat_commands_total",
				Help: "Dispatched commands by verb and outcome",
			},
			[]string{"verb", "outcome"},
		),
		SweepEvictions: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "chat_sweep_evictions_total",
				Help: "Entities removed by the TTL sweeper",
			},
			[]string{"entity"},
		),
		SharedTierErrors: prometheus.NewCounter(
			prometheus.CounterOpts{
				Name: "chat_shared_tier_errors_total",
				Help: "Swallowed shared storage tier errors",
			},
		),
		ActiveWebSockets: prometheus.NewGauge(
			prometheus.GaugeOpts{
				Name: "chat_active_websockets",
				Help: "Clients attached to the live event feed",
			},
		),
	}

	prometheus.MustRegister(
		c.Metrics.RequestsTotal,
		c.Metrics.RequestDuration,
		c.Metrics.CommandsTotal,
		c.Metrics.SweepEvictions,
		c.Metrics.SharedTierErrors,
		c.Metrics.ActiveWebSockets,
	)
}

func (c *Container) initTracing() error {
	if !c.Config.Tracing.Enabled {
		c.Logger.Info("tracing disabled")
		return nil
	}

	exp, err := jaeger.New(jaeger.WithCollectorEndpoint(jaeger.WithEndpoint(c.Config.Tracing.Endpoint)))
	if err != nil {
		return err
	}

	c.TracerProvider = tracesdk.NewTracerProvider(
		tracesdk.WithBatcher(exp),
		tracesdk.WithResource(resource.NewWithAttributes(
			semconv.SchemaURL,
			semconv.ServiceNameKey.String(c.Config.Tracing.ServiceName),
			attribute.String("environment", c.Config.Environment.Current),
		)),
	)

	otel.SetTracerProvider(c.TracerProvider)

	otel.SetTextMapPropagator(propagation.NewCompositeTextMapPropagator(
		propagation.TraceContext{},
		propagation.Baggage{},
	))

	c.Tracer = c.TracerProvider.Tracer("dockerchat-app")

	c.Logger.Info("tracing initialized", "endpoint", c.Config.Tracing.Endpoint)
	return nil
}

func (c *Container) initHealthRoutes(eng *gin.Engine) {
	eng.GET("/health", func(ctx *gin.Context) {
		health := map[string]string{
			"status":    "ok",
			"timestamp": time.Now().UTC().Format(time.RFC3339),
		}

		if c.Store.SharedTierAvailable() {
			health["shared_tier"] = "healthy"
		} else {
			// local-only mode still serves traffic, report it as degraded
			health["shared_tier"] = "unavailable"
			health["status"] = "degraded"
		}

		ctx.JSON(200, health)
	})

	eng.GET("/ready", func(ctx *gin.Context) {
		if c.isShuttingDown {
			ctx.JSON(503, gin.H{"status": "shutting down"})
			return
		}
		ctx.JSON(200, gin.H{"status": "ready"})
	})

	eng.GET("/live", func(ctx *gin.Context) {
		ctx.JSON(200, gin.H{"status": "live"})
	})
}

func (c *Container) initGinEngine() *gin.Engine {
	var eng = gin.Default()

	if c.Config.Tracing.Enabled {
		eng.Use(otelgin.Middleware(c.Config.Tracing.ServiceName))
	}
	eng.Use(MetricsMiddleware(c.Metrics))

	api := eng.Group("/")
	api.Use(FirewallMiddleware(c.Firewall))
	{
		api.POST("/command", c.CommandHandler.HandleCommand)
		api.GET("/status", c.StatusHandler.HandleStatus)
		api.GET("/ws", c.WebSocketHandler.HandleWebSocket)
	}

	return eng
}

func (c *Container) initLogger() *slog.Logger {
	var logger *slog.Logger
	if c.Config.Environment.Current == "development" {
		logger = slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{
			Level: slog.LevelDebug,
		}))
	} else {
		logger = slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{
			Level: slog.LevelInfo,
		}))
	}

	slog.SetDefault(logger)
	return logger
}

func (c *Container) initRedis() *redis.Client {
	return redis.NewClient(&redis.Options{
		Addr:     c.Config.Redis.Addr,
		Password: c.Config.Redis.Password,
		DB:       c.Config.Redis.DB,
	})
}

func (c *Container) initServer() *http.Server {
	return &http.Server{
		Addr:         ":" + c.Config.Server.Port,
		ReadTimeout:  time.Duration(c.Config.Server.ReadTimeout) * time.Second,
		WriteTimeout: time.Duration(c.Config.Server.WriteTimeout) * time.Second,
		IdleTimeout:  time.Duration(c.Config.Server.IdleTimeout) * time.Second,
	}
}

func (c *Container) Close() error {
	c.isShuttingDown = true

	if c.sweepStop != nil {
		close(c.sweepStop)
	}

	if c.TracerProvider != nil {
		if err := c.TracerProvider.Shutdown(context.Background()); err != nil {
			c.Logger.Error("failed to shutdown tracer provider", "error", err)
		}
	}

	if c.Redis != nil {
		return c.Redis.Close()
	}

	return nil
}
