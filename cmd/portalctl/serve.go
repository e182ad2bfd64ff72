package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/gofiber/fiber/v2"
	router "github.com/goliatone/go-router"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/goliatone/go-portal/components/portal"
	"github.com/goliatone/go-portal/components/portal/gorouter"
	"github.com/goliatone/go-portal/components/portal/httpapi"
	"github.com/goliatone/go-portal/pkg/activity"
	"github.com/goliatone/go-portal/pkg/metrics"
	"github.com/goliatone/go-portal/pkg/widgetdata"
)

const (
	routerChi   = "chi"
	routerFiber = "fiber"

	auditLogWidget  = "audit-log"
	auditLogEntries = 10
	shutdownTimeout = 5 * time.Second
)

type serveCmd struct {
	Addr        string `help:"Listen address (default :8080)."`
	MetricsAddr string `name:"metrics-addr" help:"Separate metrics listener used with the fiber router (default :9090)."`
	Router      string `help:"HTTP stack: chi or fiber (default chi)."`
	BasePath    string `name:"base-path" help:"Mount path for the portal API (default /portal)."`
}

func (c *serveCmd) Run(ctx context.Context, g *Globals) error {
	ctx, stop := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer stop()

	telemetry := metrics.New(metrics.Config{})
	broadcast := portal.NewBroadcastHook()
	auditLog := activity.NewLog(0)
	layoutHook := &activity.LayoutHook{
		Emitter: activity.NewEmitter(activity.Hooks{auditLog}, activity.Config{Enabled: true}),
	}

	rt, err := g.open(ctx, func(cfg Config, opts *portal.Options) error {
		opts.Telemetry = telemetry
		opts.RefreshHook = portal.RefreshHooks{broadcast, layoutHook}
		if err := opts.Providers.Register(auditLogWidget, auditLog.Provider(auditLogEntries)); err != nil {
			return err
		}
		return registerWidgetData(cfg.WidgetData, opts.Providers)
	})
	if err != nil {
		return err
	}
	defer rt.Close()

	server := c.server(rt.cfg.Server)
	handlers := httpapi.NewHandlers(rt.service, telemetry)
	rt.logger.Info("portal server starting",
		zap.String("addr", server.Addr),
		zap.String("router", server.Router),
		zap.String("base_path", server.BasePath),
		zap.String("backend", rt.cfg.Backend),
	)

	switch server.Router {
	case routerChi:
		mux := chi.NewRouter()
		mux.Mount(server.BasePath, httpapi.Routes(handlers, broadcast))
		mux.Handle("/metrics", telemetry.Handler())
		return serveHTTP(ctx, rt.logger, &http.Server{Addr: server.Addr, Handler: mux, ReadHeaderTimeout: 10 * time.Second})
	case routerFiber:
		return serveFiber(ctx, rt.logger, server, handlers, broadcast, telemetry)
	}
	return fmt.Errorf("portalctl: unknown router %q", server.Router)
}

func (c *serveCmd) server(cfg ServerConfig) ServerConfig {
	override(&cfg.Addr, c.Addr)
	override(&cfg.MetricsAddr, c.MetricsAddr)
	override(&cfg.Router, c.Router)
	override(&cfg.BasePath, c.BasePath)
	if cfg.Addr == "" {
		cfg.Addr = ":8080"
	}
	if cfg.MetricsAddr == "" {
		cfg.MetricsAddr = ":9090"
	}
	cfg.Router = strings.ToLower(cfg.Router)
	if cfg.Router == "" {
		cfg.Router = routerChi
	}
	if cfg.BasePath == "" {
		cfg.BasePath = "/portal"
	}
	return cfg
}

func registerWidgetData(cfg WidgetDataConfig, providers *portal.Providers) error {
	if cfg.BaseURL == "" || len(cfg.Widgets) == 0 {
		return nil
	}
	client, err := widgetdata.NewHTTPClient(widgetdata.HTTPConfig{BaseURL: cfg.BaseURL, APIKey: cfg.APIKey})
	if err != nil {
		return err
	}
	return widgetdata.Register(providers, client, cfg.Widgets...)
}

func serveHTTP(ctx context.Context, logger *zap.Logger, servers ...*http.Server) error {
	group, gctx := errgroup.WithContext(ctx)
	for _, srv := range servers {
		group.Go(func() error {
			if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
				return fmt.Errorf("portalctl: serve %s: %w", srv.Addr, err)
			}
			return nil
		})
		group.Go(func() error {
			<-gctx.Done()
			shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
			defer cancel()
			logger.Info("portal server stopping", zap.String("addr", srv.Addr))
			return srv.Shutdown(shutdownCtx)
		})
	}
	return group.Wait()
}

func serveFiber(ctx context.Context, logger *zap.Logger, cfg ServerConfig, handlers *httpapi.Handlers, broadcast *portal.BroadcastHook, telemetry *metrics.Telemetry) error {
	app := router.NewFiberAdapter()
	if err := gorouter.Register(gorouter.Config[*fiber.App]{
		Router:         app.Router(),
		Handlers:       handlers,
		Broadcast:      broadcast,
		ViewerResolver: headerViewer,
		BasePath:       cfg.BasePath,
	}); err != nil {
		return err
	}

	group, gctx := errgroup.WithContext(ctx)
	group.Go(func() error {
		return serveHTTP(gctx, logger, &http.Server{Addr: cfg.MetricsAddr, Handler: telemetry.Handler(), ReadHeaderTimeout: 10 * time.Second})
	})
	group.Go(func() error {
		if err := app.Serve(cfg.Addr); err != nil {
			return fmt.Errorf("portalctl: serve %s: %w", cfg.Addr, err)
		}
		return nil
	})
	group.Go(func() error {
		<-gctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		return app.Shutdown(shutdownCtx)
	})
	return group.Wait()
}

// headerViewer mirrors httpapi.HeaderViewer for go-router contexts.
func headerViewer(ctx router.Context) portal.ViewerContext {
	viewer := portal.ViewerContext{
		UserID:   ctx.Header("X-Portal-User"),
		TenantID: ctx.Header("X-Portal-Tenant"),
		Locale:   ctx.Query("locale"),
	}
	if role, err := portal.ParseRole(ctx.Header("X-Portal-Role")); err == nil {
		viewer.Role = role
	}
	return viewer
}
