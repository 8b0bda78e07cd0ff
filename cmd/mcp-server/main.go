package main

import (
	"bytes"
	"context"
	"fmt"
	"os"
	"time"
	_ "time/tzdata"

	"github.com/modelcontextprotocol/go-sdk/mcp"
	"go.uber.org/zap"

	"github.com/patrickwarner/troyconsole/internal/backend"
	"github.com/patrickwarner/troyconsole/internal/config"
	"github.com/patrickwarner/troyconsole/internal/db"
	"github.com/patrickwarner/troyconsole/internal/observability"
	"github.com/patrickwarner/troyconsole/internal/session"
)

func main() {
	// Initialize logger for MCP server - use stderr to avoid stdio conflicts
	zcfg := zap.NewProductionConfig()
	zcfg.Level = zap.NewAtomicLevelAt(zap.InfoLevel)
	zcfg.OutputPaths = []string{"stderr"}
	zcfg.ErrorOutputPaths = []string{"stderr"}

	// Use same encoder config as observability package for consistency
	zcfg.EncoderConfig.TimeKey = "ts"
	zcfg.EncoderConfig.LevelKey = "level"
	zcfg.EncoderConfig.NameKey = "logger"
	zcfg.EncoderConfig.CallerKey = "caller"
	zcfg.EncoderConfig.MessageKey = "msg"
	zcfg.EncoderConfig.StacktraceKey = "stacktrace"

	logger, err := zcfg.Build()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to initialize logger: %v\n", err)
		os.Exit(1)
	}
	logger = logger.Named("troyconsole-mcp").With(zap.String("service", "troyconsole-mcp"))

	cfg := config.Load()
	token := os.Getenv("CONSOLE_TOKEN")
	if token == "" && cfg.DemoMode {
		token = cfg.DemoToken
	}
	if token == "" {
		logger.Fatal("CONSOLE_TOKEN environment variable is required")
	}

	client := backend.NewClient(cfg.BackendURL, cfg.BackendTimeout, logger, observability.NewNoOpRegistry())
	defer client.Close()

	tools := &ConsoleTools{
		client:    client,
		session:   session.Context{Role: session.Admin, Token: token},
		unitPrice: cfg.SettlementUnitPrice,
		loc:       cfg.Location(),
		logger:    logger,
	}

	// The journal is optional; recent_actions reports it missing.
	if cfg.PostgresDSN != "" {
		pg, err := db.InitPostgres(cfg.PostgresDSN, 5, 2, 30*time.Minute, time.Minute)
		if err != nil {
			logger.Warn("Failed to connect to PostgreSQL, recent_actions disabled", zap.Error(err))
		} else {
			defer pg.Close()
			tools.journal = pg
		}
	}

	server := mcp.NewServer(&mcp.Implementation{
		Name:    "troyconsole",
		Version: "1.0.0",
	}, nil)
	tools.register(server)

	var logBuffer bytes.Buffer
	loggingTransport := &mcp.LoggingTransport{
		Transport: &mcp.StdioTransport{},
		Writer:    &logBuffer,
	}

	logger.Info("MCP Server running via stdio", zap.String("backend", cfg.BackendURL))
	if err := server.Run(context.Background(), loggingTransport); err != nil {
		logger.Fatal("Server error", zap.Error(err), zap.String("mcp_logs", logBuffer.String()))
	}
}
