package docpipe

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"errors"
	"time"

	"github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/hazyhaar/extractlab/kit"
)

// RegisterMCP registers the extraction tools on an MCP server.
func (p *Pipeline) RegisterMCP(srv *mcp.Server) {
	p.registerLibrariesTool(srv)
	p.registerProcessTool(srv)
}

func inputSchema(properties map[string]any, required []string) map[string]any {
	s := map[string]any{
		"type":       "object",
		"properties": properties,
	}
	if len(required) > 0 {
		s["required"] = required
	}
	return s
}

// logged logs every tool call with its duration and outcome.
func (p *Pipeline) logged(tool string) kit.Middleware {
	return func(next kit.Endpoint) kit.Endpoint {
		return func(ctx context.Context, req any) (any, error) {
			start := time.Now()
			resp, err := next(ctx, req)
			p.logger.Debug("docpipe: mcp call", "tool", tool, "duration", time.Since(start), "error", err)
			return resp, err
		}
	}
}

// --- extract_libraries ---

func (p *Pipeline) registerLibrariesTool(srv *mcp.Server) {
	tool := &mcp.Tool{
		Name:        "extract_libraries",
		Description: "List the extraction libraries with their descriptions and accepted file types.",
		InputSchema: inputSchema(map[string]any{}, nil),
	}

	endpoint := func(_ context.Context, _ any) (any, error) {
		return map[string]any{"libraries": p.Libraries()}, nil
	}

	decode := func(_ *mcp.CallToolRequest) (*kit.MCPDecodeResult, error) {
		return &kit.MCPDecodeResult{Request: nil}, nil
	}

	kit.RegisterMCPTool(srv, tool, kit.Chain(p.logged(tool.Name))(endpoint), decode)
}

// --- extract_process ---

type processReq struct {
	Library       LibraryID `json:"library"`
	Filename      string    `json:"filename"`
	ContentBase64 string    `json:"content_base64"`

	data []byte
}

type processResp struct {
	Library     LibraryID          `json:"library"`
	Filename    string             `json:"filename,omitempty"`
	Text        string             `json:"text"`
	Failed      bool               `json:"failed"`
	Attachments int                `json:"attachments"`
	Quality     *ExtractionQuality `json:"quality,omitempty"`
	DurationMs  int64              `json:"duration_ms"`
}

func (p *Pipeline) registerProcessTool(srv *mcp.Server) {
	tool := &mcp.Tool{
		Name:        "extract_process",
		Description: "Extract text from a PDF or image with the chosen library. Failures are reported in the text, prefixed with \"Erro ao processar com\".",
		InputSchema: inputSchema(map[string]any{
			"library":        map[string]any{"type": "string", "description": "Library id, see extract_libraries"},
			"filename":       map[string]any{"type": "string", "description": "Original file name; its extension must be accepted by the library"},
			"content_base64": map[string]any{"type": "string", "description": "File content, base64 encoded"},
		}, []string{"library", "content_base64"}),
	}

	endpoint := func(ctx context.Context, req any) (any, error) {
		r := req.(*processReq)
		res := p.Run(ctx, r.Library, Upload{Name: r.Filename, MIMEType: MIMEType(r.Filename), Data: r.data})
		return processResp{
			Library:     res.Library,
			Filename:    r.Filename,
			Text:        res.Text,
			Failed:      res.Failed,
			Attachments: len(res.Attachments),
			Quality:     res.Quality,
			DurationMs:  res.Duration.Milliseconds(),
		}, nil
	}

	decode := func(req *mcp.CallToolRequest) (*kit.MCPDecodeResult, error) {
		var r processReq
		if err := json.Unmarshal(req.Params.Arguments, &r); err != nil {
			return nil, err
		}
		if r.Library == "" {
			return nil, errors.New("library is required")
		}
		data, err := base64.StdEncoding.DecodeString(r.ContentBase64)
		if err != nil {
			return nil, err
		}
		r.data = data
		return &kit.MCPDecodeResult{Request: &r}, nil
	}

	kit.RegisterMCPTool(srv, tool, kit.Chain(p.logged(tool.Name))(endpoint), decode)
}
