// main.go
package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/adaptor"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/gofiber/fiber/v2/middleware/logger"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/hashicorp/go-multierror"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"teamup/config"
	"teamup/events"
	"teamup/handlers"
	applog "teamup/logger"
	"teamup/metrics"
	"teamup/middleware"
	"teamup/realtime"
	"teamup/services"
	"teamup/storage"
	"teamup/utils"
)

const version = "1.0.0"

func main() {
	cfg, envFound := config.Load()
	log := applog.New(cfg.Env, cfg.LogLevel)
	defer func() { _ = log.Sync() }()

	if !envFound {
		log.Info(".env file not found, using system environment variables")
	}
	warnings, err := cfg.Validate()
	for _, w := range warnings {
		log.Warn(w)
	}
	if err != nil {
		log.Fatal("invalid configuration", zap.Error(err))
	}

	if err := run(cfg, log); err != nil {
		log.Fatal("server stopped with error", zap.Error(err))
	}
}

func run(cfg *config.Config, log *zap.Logger) error {
	st, closeStore, err := storage.Open(cfg, log)
	if err != nil {
		return err
	}

	var broker events.Broker = events.NewLocal()
	if cfg.NATSURL != "" {
		nb, err := events.NewNATS(cfg.NATSURL, log)
		if err != nil {
			_ = closeStore()
			return err
		}
		broker = nb
		log.Info("change events fanned out over NATS", zap.String("url", cfg.NATSURL))
	}

	reg := prometheus.NewRegistry()
	reg.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	m := metrics.New(reg)
	hub := realtime.NewHub(broker, log, realtime.WithGauge(m.SubscriptionDelta))

	svc := services.New(services.Deps{
		Store:   st,
		Broker:  broker,
		Hub:     hub,
		Log:     log,
		Metrics: m,
	}, services.AuthConfig{Secret: cfg.JWTSecret, TTL: cfg.JWTTTL})

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	generalLimiter := middleware.NewRateLimiter(cfg.RateLimit)
	authLimiter := middleware.NewRateLimiter(cfg.AuthRateLimit)
	go generalLimiter.Run(ctx, 10*time.Minute)
	go authLimiter.Run(ctx, 10*time.Minute)

	app := fiber.New(fiber.Config{
		ErrorHandler: utils.ErrorHandler,
		BodyLimit:    4 * 1024 * 1024, // 4MB
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 10 * time.Second,
	})

	// Global middleware
	app.Use(recover.New())
	app.Use(logger.New(logger.Config{
		Format: "[${time}] ${status} - ${method} ${path} (${latency})\n",
	}))
	app.Use(cors.New(cors.Config{
		AllowOrigins:     cfg.CORSOrigins,
		AllowMethods:     "GET,POST,PUT,DELETE,OPTIONS",
		AllowHeaders:     "Origin, Content-Type, Accept, Authorization",
		AllowCredentials: true,
	}))
	app.Use(generalLimiter.Handler("Rate limit exceeded. Please try again later."))

	app.Get("/health", func(c *fiber.Ctx) error {
		return c.JSON(fiber.Map{
			"status":        "healthy",
			"timestamp":     time.Now().Unix(),
			"version":       version,
			"store":         cfg.StoreDriver,
			"degraded":      st == nil,
			"subscriptions": hub.Active(),
		})
	})
	app.Get("/metrics", adaptor.HTTPHandler(promhttp.HandlerFor(reg, promhttp.HandlerOpts{Registry: reg})))

	handlers.New(svc, log).Routes(app, handlers.RouteOptions{
		AuthLimiter: authLimiter.Handler("Too many authentication attempts. Please try again later."),
	})

	serveErr := make(chan error, 1)
	go func() {
		log.Info("http server starting",
			zap.String("port", cfg.Port),
			zap.String("env", cfg.Env),
			zap.String("store", cfg.StoreDriver))
		serveErr <- app.Listen(":" + cfg.Port)
	}()

	var result *multierror.Error
	select {
	case err := <-serveErr:
		result = multierror.Append(result, err)
	case <-ctx.Done():
		log.Info("shutting down")
		if err := app.ShutdownWithTimeout(10 * time.Second); err != nil {
			result = multierror.Append(result, err)
		}
	}

	if err := broker.Close(); err != nil {
		result = multierror.Append(result, err)
	}
	if err := closeStore(); err != nil {
		result = multierror.Append(result, err)
	}
	return result.ErrorOrNil()
}
