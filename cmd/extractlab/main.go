// Command extractlab serves the PDF and image extraction UI, its JSON API
// and, optionally, the MCP tools over streamable HTTP.
//
// Usage:
//
//	extractlab [config.yaml]
package main

import (
	"context"
	"database/sql"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/hazyhaar/extractlab/dbopen"
	"github.com/hazyhaar/extractlab/docpipe"
	"github.com/hazyhaar/extractlab/idgen"
	"github.com/hazyhaar/extractlab/observability"
	"github.com/hazyhaar/extractlab/web"
	_ "modernc.org/sqlite"
)

const version = "0.1.0"

func main() {
	cfgPath := os.Getenv("EXTRACTLAB_CONFIG")
	if len(os.Args) > 1 {
		cfgPath = os.Args[1]
	}
	cfg, err := LoadConfig(cfgPath)
	if err != nil {
		slog.Error("config", "error", err)
		os.Exit(1)
	}

	// Logging.
	lvl, _ := cfg.level()
	logger := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: lvl}))
	slog.SetDefault(logger)

	// Signal context.
	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	// Optional event DB.
	var events *observability.EventLogger
	var metrics *observability.MetricsManager
	if cfg.EventsDB != "" {
		db, err := dbopen.Open(cfg.EventsDB, dbopen.WithMkdirAll())
		if err != nil {
			slog.Error("events db", "error", err)
			os.Exit(1)
		}
		defer db.Close()
		if err := observability.Init(db); err != nil {
			slog.Error("events schema", "error", err)
			os.Exit(1)
		}
		events = observability.NewEventLogger(db,
			observability.WithEventIDGenerator(idgen.Prefixed("evt_", idgen.Default)),
		)
		metrics = observability.NewMetricsManager(db, 100, 5*time.Second)
		defer metrics.Close()
		go retentionLoop(ctx, db, cfg.RetentionDays)
	}

	pipe := docpipe.New(docpipe.Config{
		MaxFileSize:        cfg.MaxUploadBytes(),
		OCRLanguages:       cfg.OCRLanguages,
		TextLinesLanguages: cfg.TextLinesLanguages,
		DPI:                cfg.DPI,
		PdftoppmPath:       cfg.PdftoppmPath,
		WorkDir:            cfg.WorkDir,
		Events:             events,
		Metrics:            metrics,
		Logger:             logger,
	})
	defer pipe.Close()

	// Optional MCP over streamable HTTP.
	var mcpHandler http.Handler
	if cfg.MCP {
		mcpSrv := mcp.NewServer(&mcp.Implementation{Name: "extractlab", Version: version}, nil)
		pipe.RegisterMCP(mcpSrv)
		mcpHandler = mcp.NewStreamableHTTPHandler(func(*http.Request) *mcp.Server { return mcpSrv }, nil)
	}

	srv := &http.Server{
		Addr: cfg.Listen,
		Handler: web.New(pipe, web.Config{
			MaxUpload:  cfg.MaxUploadBytes(),
			ResultTTL:  cfg.ResultTTL,
			MaxResults: cfg.MaxResults,
			Events:     events,
			Metrics:    metrics,
			MCP:        mcpHandler,
		}).Handler(),
		ReadHeaderTimeout: 10 * time.Second,
		// OCR of a long PDF at 300 dpi takes minutes.
		WriteTimeout: 10 * time.Minute,
		IdleTimeout:  60 * time.Second,
	}

	go func() {
		slog.Info("server starting", "addr", cfg.Listen, "mcp", cfg.MCP, "events", cfg.EventsDB != "")
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			slog.Error("server error", "error", err)
			os.Exit(1)
		}
	}()

	<-ctx.Done()
	slog.Info("shutting down")

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		slog.Error("shutdown", "error", err)
	}
	slog.Info("server stopped")
}

// retentionLoop prunes old events once at startup and then daily.
func retentionLoop(ctx context.Context, db *sql.DB, days int) {
	if days <= 0 {
		return
	}
	rc := observability.RetentionConfig{EventsDays: days, MetricsDays: days}
	ticker := time.NewTicker(24 * time.Hour)
	defer ticker.Stop()
	for {
		if err := observability.Cleanup(ctx, db, rc); err != nil && ctx.Err() == nil {
			slog.Error("retention cleanup", "error", err)
		}
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
		}
	}
}
