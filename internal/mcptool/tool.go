// Package mcptool exposes invoice extraction as an MCP tool.
package mcptool

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"

	"github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/joseph-ayodele/invoice-autofill/internal/extract"
	"github.com/joseph-ayodele/invoice-autofill/internal/ingest"
	"github.com/joseph-ayodele/invoice-autofill/internal/pipeline"
)

const ToolName = "extract_invoice"

// Extractor is implemented by *core.Processor.
type Extractor interface {
	Extract(ctx context.Context, doc extract.RawDocument) pipeline.ExtractionResult
}

type extractArgs struct {
	Path string `json:"path"`
}

// Register adds extract_invoice to srv. An unreadable file is a tool error;
// an extraction failure is a normal result with ok=false.
func Register(srv *mcp.Server, ex Extractor, logger *slog.Logger) {
	if logger == nil {
		logger = slog.Default()
	}
	tool := &mcp.Tool{
		Name:        ToolName,
		Description: "Extract amount, currency, due date, provider name and charge type from a PDF utility invoice.",
		InputSchema: map[string]any{
			"type": "object",
			"properties": map[string]any{
				"path": map[string]any{"type": "string", "description": "Path of the PDF invoice"},
			},
			"required": []string{"path"},
		},
	}

	srv.AddTool(tool, func(ctx context.Context, req *mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		var args extractArgs
		if err := json.Unmarshal(req.Params.Arguments, &args); err != nil || args.Path == "" {
			return toolError(fmt.Errorf("invalid arguments: path is required")), nil
		}
		f, err := ingest.ReadFile(args.Path, 0)
		if err != nil {
			logger.Warn("mcp.extract.read_failed", "path", args.Path, "err", err)
			return toolError(err), nil
		}
		res := ex.Extract(ctx, f.Doc)
		data, err := json.Marshal(res)
		if err != nil {
			return toolError(fmt.Errorf("marshal: %w", err)), nil
		}
		logger.Info("mcp.extract.done", "path", args.Path, "ok", res.OK)
		return &mcp.CallToolResult{
			Content: []mcp.Content{&mcp.TextContent{Text: string(data)}},
		}, nil
	})
}

func toolError(err error) *mcp.CallToolResult {
	var res mcp.CallToolResult
	res.SetError(err)
	return &res
}
