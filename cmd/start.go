package cmd

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	corelabels "github.com/sohosai/hyperdashi-server/core/labels"
	"github.com/sohosai/hyperdashi-server/core/loader"
	"github.com/sohosai/hyperdashi-server/core/logger"
	"github.com/sohosai/hyperdashi-server/core/metrics"
	"github.com/sohosai/hyperdashi-server/core/middleware/errhandler"
	"github.com/sohosai/hyperdashi-server/core/middleware/rayid"
	"github.com/sohosai/hyperdashi-server/core/storage"
	"github.com/sohosai/hyperdashi-server/feature/cablecolors"
	"github.com/sohosai/hyperdashi-server/feature/containers"
	"github.com/sohosai/hyperdashi-server/feature/images"
	"github.com/sohosai/hyperdashi-server/feature/integrity"
	"github.com/sohosai/hyperdashi-server/feature/items"
	"github.com/sohosai/hyperdashi-server/feature/labels"
	"github.com/sohosai/hyperdashi-server/feature/loans"
)

// @title HyperDashi API
// @version 1.0
// @description Inventory, container and loan management.
// @host localhost:8080
// @BasePath /api/v1

const shutdownTimeout = 10 * time.Second

// startCmd represents the start command
var startCmd = &cobra.Command{
	Use:   "start",
	Short: "Start the HyperDashi server",
	Long:  `Connects to the database, applies pending migrations and serves the HTTP API.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
		defer stop()
		return runServer(ctx)
	},
}

func init() {
	RootCmd.AddCommand(startCmd)
}

func runServer(ctx context.Context) error {
	rt, err := bootstrap(ctx, true)
	if err != nil {
		return err
	}
	defer rt.close()
	cfg, logg, db := rt.cfg, rt.logger, rt.db
	zap.ReplaceGlobals(logg)

	registry := prometheus.NewRegistry()
	m, err := metrics.New(registry)
	if err != nil {
		return err
	}
	registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
		collectors.NewDBStatsCollector(db.SQL(), "hyperdashi"),
	)

	// Images are optional: a misconfigured store disables uploads only.
	store, err := storage.NewStore(ctx, cfg.Storage, cfg.Server.BaseURL())
	if err != nil {
		logg.Warn("Image storage unavailable", zap.Error(err))
		store = nil
	}

	alloc := corelabels.NewAllocator(db, logg, m)
	itemRepo := items.NewRepository(db, alloc, logg, m)

	mgr := loader.NewManager(logg)
	mgr.Register(items.NewFeature(itemRepo))
	mgr.Register(containers.NewFeature(containers.NewRepository(db, alloc, logg, m)))
	mgr.Register(loans.NewFeature(loans.NewRepository(db, logg, m)))
	mgr.Register(cablecolors.NewFeature(cablecolors.NewRepository(db, logg, m)))
	mgr.Register(labels.NewFeature(alloc, itemRepo, logg))
	mgr.Register(images.NewFeature(store, logg))
	mgr.Register(integrity.NewFeature(db, alloc, logg))

	app := fiber.New(fiber.Config{
		DisableStartupMessage: true,
		ErrorHandler:          errhandler.New(logg),
		// Multipart overhead on top of the largest image.
		BodyLimit: int(cfg.Storage.MaxFileSizeBytes()) + 1<<20,
	})

	// RayID first so every later log line carries it.
	app.Use(rayid.New())
	app.Use(recover.New(recover.Config{EnableStackTrace: true}))
	app.Use(cors.New(cors.Config{AllowOrigins: cfg.Server.CORSOrigins}))
	app.Use(func(c *fiber.Ctx) error {
		l := logger.WithRayID(logg, c)
		start := time.Now()
		err := c.Next()
		l.Info("Request",
			zap.String("method", c.Method()),
			zap.String("path", c.Path()),
			zap.String("ip", c.IP()),
			zap.Duration("elapsed", time.Since(start)),
			zap.Error(err),
		)
		return err
	})
	app.Use(m.Middleware())

	app.Get("/health", func(c *fiber.Ctx) error {
		if err := db.SQL().PingContext(c.Context()); err != nil {
			return c.Status(fiber.StatusServiceUnavailable).JSON(fiber.Map{"status": "unavailable"})
		}
		return c.JSON(fiber.Map{"status": "ok", "dialect": db.Dialect().String()})
	})
	app.Get("/metrics", m.Handler())
	if cfg.Storage.Type == storage.TypeLocal && store != nil {
		app.Static("/uploads", cfg.Storage.Local.Path)
	}

	if err := mgr.LoadAll(app.Group("/api/v1")); err != nil {
		return err
	}

	errCh := make(chan error, 1)
	go func() {
		logg.Info("Starting server", zap.String("addr", cfg.Server.Addr()), zap.String("public_url", cfg.Server.BaseURL()))
		errCh <- app.Listen(cfg.Server.Addr())
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	logg.Info("Shutting down server...")
	return app.ShutdownWithTimeout(shutdownTimeout)
}
