package main

import (
	"context"
	"flag"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	mcpserver "github.com/mark3labs/mcp-go/server"
	"tailscale.com/tsnet"

	"github.com/claude/healthbridge/internal/bridge"
	"github.com/claude/healthbridge/internal/config"
	"github.com/claude/healthbridge/internal/healthstore"
	"github.com/claude/healthbridge/internal/healthstore/memstore"
	"github.com/claude/healthbridge/internal/healthstore/pgstore"
	"github.com/claude/healthbridge/internal/mcp"
	"github.com/claude/healthbridge/internal/permissions"
	"github.com/claude/healthbridge/internal/reader"
	"github.com/claude/healthbridge/internal/seed"
	"github.com/claude/healthbridge/internal/server"
)

// Version is set at build time via -ldflags.
var Version = "dev"

func main() {
	configPath := flag.String("config", "config.yaml", "path to config file")
	migrateOnly := flag.Bool("migrate-only", false, "run migrations and exit")
	seedPath := flag.String("seed", "", "fixture file or directory to load into the memory store")
	flag.Parse()

	log := slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelInfo}))
	log.Info("healthbridge starting", "version", Version)

	// Load config
	cfg, err := config.Load(*configPath)
	if err != nil {
		log.Error("failed to load config", "error", err)
		os.Exit(1)
	}

	ctx := context.Background()

	// Open the health store
	var store healthstore.Client
	switch cfg.Store.Backend {
	case config.BackendMemory:
		mem := memstore.New(cfg.Bridge.PageSize)
		if *seedPath != "" {
			stats, err := seed.New(mem, log, false).Seed(ctx, *seedPath)
			if err != nil {
				log.Error("seeding memory store failed", "error", err)
				os.Exit(1)
			}
			log.Info("memory store seeded", "records", stats.RecordsInserted, "files", stats.FilesProcessed)
		}
		store = mem
		log.Info("using memory store")

	default:
		dsn := cfg.Database.DSN()
		if err := pgstore.RunMigrations(dsn, "migrations"); err != nil {
			log.Error("migration failed", "error", err)
			os.Exit(1)
		}
		log.Info("migrations applied")

		if *migrateOnly {
			log.Info("migrate-only: exiting")
			return
		}

		pg, err := pgstore.New(ctx, dsn, cfg.Bridge.PageSize, log)
		if err != nil {
			log.Error("failed to connect database", "error", err)
			os.Exit(1)
		}
		defer pg.Close()
		store = pg
		log.Info("database connected")
	}

	// Permission ledger
	ledger, err := permissions.Open(cfg.Permissions.LedgerDir, config.Scopes(cfg.Permissions.Grantable), log)
	if err != nil {
		log.Error("failed to open permission ledger", "error", err)
		os.Exit(1)
	}
	defer ledger.Close()

	// Bridge
	b, err := bridge.New(store, ledger, ledger, bridge.Options{
		PreferHealthConnect: cfg.Bridge.PreferHealthConnect,
		RequiredScopes:      config.Scopes(cfg.Bridge.RequiredScopes),
		StrictFetchErrors:   cfg.Bridge.StrictFetchErrors,
		EnrichConcurrency:   cfg.Bridge.EnrichConcurrency,
		Reader: reader.Options{
			PageSize:    cfg.Bridge.PageSize,
			PageRetries: cfg.Bridge.PageRetries,
		},
	}, log)
	if err != nil {
		log.Error("failed to create bridge", "error", err)
		os.Exit(1)
	}
	defer b.Close()

	// Create server
	srv := server.New(b, cfg.Auth.APIKey, log)
	srv.SetMCP(mcpserver.NewStreamableHTTPServer(mcp.New(b, Version, log)))

	// Start server on tsnet or plain HTTP
	var listener net.Listener
	var tsServer *tsnet.Server

	if cfg.Tailscale.Enabled {
		tsServer = &tsnet.Server{
			Hostname: cfg.Tailscale.Hostname,
			Dir:      cfg.Tailscale.StateDir,
		}
		if err := tsServer.Start(); err != nil {
			log.Error("tsnet start failed", "error", err)
			os.Exit(1)
		}
		defer tsServer.Close()

		lc, err := tsServer.LocalClient()
		if err != nil {
			log.Error("tsnet local client failed", "error", err)
			os.Exit(1)
		}
		srv.SetTailscale(lc)

		listener, err = tsServer.Listen("tcp", ":80")
		if err != nil {
			log.Error("tsnet listen failed", "error", err)
			os.Exit(1)
		}
		log.Info("tsnet server starting", "hostname", cfg.Tailscale.Hostname)
	} else {
		addr := fmt.Sprintf("%s:%d", cfg.Server.Host, cfg.Server.Port)
		listener, err = net.Listen("tcp", addr)
		if err != nil {
			log.Error("listen failed", "addr", addr, "error", err)
			os.Exit(1)
		}
		log.Info("server starting", "addr", addr, "mode", "dev (no tailscale)")
	}

	httpSrv := &http.Server{Handler: srv}

	go func() {
		if err := httpSrv.Serve(listener); err != nil && err != http.ErrServerClosed {
			log.Error("server error", "error", err)
			os.Exit(1)
		}
	}()

	// Graceful shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	sig := <-quit
	log.Info("shutting down", "signal", sig)

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := httpSrv.Shutdown(shutdownCtx); err != nil {
		log.Error("shutdown error", "error", err)
	}
	log.Info("server stopped")
}
