package main

import (
	"context"
	"os"
	"os/signal"

	"github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/joseph-ayodele/invoice-autofill/internal/app"
	"github.com/joseph-ayodele/invoice-autofill/internal/common"
	"github.com/joseph-ayodele/invoice-autofill/internal/mcptool"
)

func main() {
	cfg := common.LoadConfig()
	// stdout is the MCP transport
	logger := common.NewLoggerTo(os.Stderr, cfg.LogLevel)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	a, err := app.New(ctx, cfg, logger, app.Options{Cache: true})
	if err != nil {
		logger.Error("failed to initialize", "error", err)
		os.Exit(1)
	}
	defer a.Close()

	srv := mcp.NewServer(&mcp.Implementation{
		Name:    "invoice-autofill",
		Version: "1.0.0",
	}, nil)
	mcptool.Register(srv, a.Processor, logger)

	logger.Info("MCP stdio server starting", "tool", mcptool.ToolName)
	if err := srv.Run(ctx, &mcp.StdioTransport{}); err != nil && ctx.Err() == nil {
		logger.Error("mcp server stopped", "error", err)
		a.Close()
		os.Exit(1)
	}
}
