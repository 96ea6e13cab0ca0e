package core

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"os"
	"time"

	"github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/tesh254/wp2md/internal/api"
	"github.com/tesh254/wp2md/internal/logging"
	"github.com/tesh254/wp2md/internal/translator"
)

// Core serves the converter as MCP tools.
type Core struct {
	api *api.API
}

// New creates a Core backed by a.
func New(a *api.API) *Core {
	return &Core{api: a}
}

type RenderMarkdownArgs struct {
	HTML               string `json:"html" jsonschema:"required"`
	ImagesSavedLocally bool   `json:"images_saved_locally,omitempty"`
	Key                string `json:"key,omitempty"`
}

type ListDocumentsArgs struct {
	Limit  int `json:"limit,omitempty"`
	Offset int `json:"offset,omitempty"`
}

type GetDocumentArgs struct {
	Key string `json:"key" jsonschema:"required"`
}

type DeleteDocumentArgs struct {
	Key string `json:"key" jsonschema:"required"`
}

type DocumentOutput struct {
	Key         string `json:"key"`
	Checksum    string `json:"checksum"`
	Markdown    string `json:"markdown,omitempty"`
	ConvertedAt string `json:"converted_at"`
}

const defaultListLimit = 50

// NewServer builds the MCP server with every tool registered.
func (c *Core) NewServer(version string) *mcp.Server {
	server := mcp.NewServer(&mcp.Implementation{Name: "wp2md", Version: version}, nil)
	c.registerTools(server)
	return server
}

// ServeHTTP serves the streamable HTTP transport on httpAddress.
func (c *Core) ServeHTTP(ctx context.Context, server *mcp.Server, httpAddress string) error {
	handler := mcp.NewStreamableHTTPHandler(func(*http.Request) *mcp.Server {
		return server
	}, nil)

	srv := &http.Server{Addr: httpAddress, Handler: loggingHandler(logging.FromContext(ctx), handler)}
	go func() {
		<-ctx.Done()
		_ = srv.Close()
	}()

	logging.FromContext(ctx).Info("MCP handler listening", "address", httpAddress)
	if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

// ServeStdio serves the stdio transport until the client disconnects.
func (c *Core) ServeStdio(ctx context.Context, server *mcp.Server) error {
	transport := &mcp.StdioTransport{}
	t := &mcp.LoggingTransport{Transport: transport, Writer: os.Stderr}
	logging.FromContext(ctx).Info("starting MCP server with stdio transport")
	return server.Run(ctx, t)
}

func (c *Core) registerTools(server *mcp.Server) {
	mcp.AddTool(server, &mcp.Tool{
		Name:        "render_markdown",
		Description: "Convert a WordPress post body (HTML) to Markdown. Embeds, iframes and galleries are preserved as HTML.",
	}, c.renderMarkdown)

	mcp.AddTool(server, &mcp.Tool{
		Name:        "list_documents",
		Description: "List stored conversions with pagination.",
	}, c.listDocuments)

	mcp.AddTool(server, &mcp.Tool{
		Name:        "get_document",
		Description: "Get a stored conversion by key.",
	}, c.getDocument)

	mcp.AddTool(server, &mcp.Tool{
		Name:        "delete_document",
		Description: "Delete a stored conversion by key.",
	}, c.deleteDocument)
}

func (c *Core) renderMarkdown(ctx context.Context, req *mcp.CallToolRequest, args RenderMarkdownArgs) (*mcp.CallToolResult, any, error) {
	res, err := c.api.Render(ctx, args.Key, args.HTML, translator.Options{ImagesSavedLocally: args.ImagesSavedLocally})
	if err != nil {
		return nil, nil, err
	}
	return textResult(res.Markdown), nil, nil
}

func (c *Core) listDocuments(ctx context.Context, req *mcp.CallToolRequest, args ListDocumentsArgs) (*mcp.CallToolResult, any, error) {
	docs, err := c.api.ListDocuments()
	if err != nil {
		return nil, nil, err
	}

	limit := args.Limit
	if limit <= 0 {
		limit = defaultListLimit
	}
	start := min(max(args.Offset, 0), len(docs))
	end := min(start+limit, len(docs))

	page := make([]DocumentOutput, 0, end-start)
	for _, doc := range docs[start:end] {
		page = append(page, DocumentOutput{
			Key:         doc.Key,
			Checksum:    doc.Checksum,
			ConvertedAt: doc.ConvertedAt.Format(time.RFC3339),
		})
	}

	result, err := json.Marshal(map[string]interface{}{"documents": page, "total": len(docs)})
	if err != nil {
		return nil, nil, err
	}
	return textResult(string(result)), nil, nil
}

func (c *Core) getDocument(ctx context.Context, req *mcp.CallToolRequest, args GetDocumentArgs) (*mcp.CallToolResult, any, error) {
	doc, err := c.api.GetDocument(args.Key)
	if err != nil {
		return nil, nil, err
	}
	result, err := json.Marshal(DocumentOutput{
		Key:         doc.Key,
		Checksum:    doc.Checksum,
		Markdown:    doc.Markdown,
		ConvertedAt: doc.ConvertedAt.Format(time.RFC3339),
	})
	if err != nil {
		return nil, nil, err
	}
	return textResult(string(result)), nil, nil
}

func (c *Core) deleteDocument(ctx context.Context, req *mcp.CallToolRequest, args DeleteDocumentArgs) (*mcp.CallToolResult, any, error) {
	if err := c.api.DeleteDocument(args.Key); err != nil {
		return nil, nil, err
	}
	return textResult("Document deleted successfully"), nil, nil
}

func textResult(text string) *mcp.CallToolResult {
	return &mcp.CallToolResult{Content: []mcp.Content{&mcp.TextContent{Text: text}}}
}
