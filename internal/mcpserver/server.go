// Package mcpserver provides an MCP (Model Context Protocol) server
// that exposes Ordna tools for LLM integration via stdio transport.
package mcpserver

import (
	"context"
	"encoding/json"
	"fmt"
	"path"
	"strings"
	"time"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"

	"github.com/fenwick/ordna/internal/models"
	"github.com/fenwick/ordna/internal/storage"
	"github.com/fenwick/ordna/internal/vaultservice"
)

// Server wraps the MCP server with Ordna tools.
type Server struct {
	mcp   *server.MCPServer
	store storage.Provider
	svc   *vaultservice.Service
}

// New creates a new MCP server with all Ordna tools registered.
func New(store storage.Provider, svc *vaultservice.Service) *Server {
	s := &Server{store: store, svc: svc}

	s.mcp = server.NewMCPServer(
		"Ordna",
		"1.0.0",
		server.WithToolCapabilities(false),
		server.WithResourceCapabilities(false, false),
	)

	s.mcp.AddTool(mcp.NewTool("vault_report",
		mcp.WithDescription("Scan the vault and report manifest drift, stale projects, "+
			"stale inbox items and misplaced root files. Read-only."),
		mcp.WithString("format", mcp.Description("Output format: json (default) or markdown")),
	), s.vaultReport)

	s.mcp.AddTool(mcp.NewTool("sync_manifests",
		mcp.WithDescription("Regenerate every drifted MANIFEST.md from the current "+
			"Knowledge folder contents. Human-written descriptions are preserved. "+
			"Read the contract first via the get_manifest_contract tool or the "+
			"ordna://manifest-format resource."),
	), s.syncManifests)

	s.mcp.AddTool(mcp.NewTool("list_pillars",
		mcp.WithDescription("List discovered pillar folders with note and item counts."),
	), s.listPillars)

	s.mcp.AddTool(mcp.NewTool("read_manifest",
		mcp.WithDescription("Read the MANIFEST.md of a pillar."),
		mcp.WithString("pillar", mcp.Required(), mcp.Description("Relative pillar path (\".\" for the vault root)")),
	), s.readManifest)

	s.mcp.AddTool(mcp.NewTool("get_manifest_contract",
		mcp.WithDescription("Returns the canonical Ordna manifest format contract. "+
			"Call this before editing any MANIFEST.md."),
	), s.getManifestContract)

	// Resource: manifest format contract.
	s.mcp.AddResource(
		mcp.NewResource("ordna://manifest-format", "Manifest Format Contract",
			mcp.WithResourceDescription("Canonical MANIFEST.md format that all pillar manifests follow."),
			mcp.WithMIMEType("text/markdown"),
		),
		s.readManifestFormatResource,
	)

	return s
}

// ServeStdio starts the MCP server on stdin/stdout.
func (s *Server) ServeStdio() error {
	return server.ServeStdio(s.mcp)
}

// MCPServer returns the underlying server for testing.
func (s *Server) MCPServer() *server.MCPServer {
	return s.mcp
}

func (s *Server) vaultReport(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	rep, err := s.svc.Check(ctx, time.Now())
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	if f, ferr := req.RequireString("format"); ferr == nil && f == "markdown" {
		return mcp.NewToolResultText(rep.RenderMarkdown()), nil
	}
	out, _ := json.MarshalIndent(rep, "", "  ")
	return mcp.NewToolResultText(string(out)), nil
}

func (s *Server) syncManifests(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	rep, applied, err := s.svc.Fix(ctx, time.Now())
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	var b strings.Builder
	fmt.Fprintf(&b, "manifests updated: %d\n", applied)
	for _, w := range rep.Warnings {
		fmt.Fprintf(&b, "warning: %s: %s\n", w.Path, w.Reason)
	}
	return mcp.NewToolResultText(b.String()), nil
}

func (s *Server) listPillars(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	snap, err := s.svc.Snapshot(ctx)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	type row struct {
		Path     string `json:"path"`
		Notes    int    `json:"notes"`
		Captures int    `json:"captures"`
		Actives  int    `json:"actives"`
		Manifest bool   `json:"manifest"`
	}
	rows := make([]row, len(snap.Pillars))
	for i, p := range snap.Pillars {
		rows[i] = row{
			Path:     p.Path,
			Notes:    len(p.Notes),
			Captures: len(p.Captures),
			Actives:  len(p.Actives),
			Manifest: p.Manifest.Exists,
		}
	}
	out, _ := json.MarshalIndent(rows, "", "  ")
	return mcp.NewToolResultText(string(out)), nil
}

func (s *Server) readManifest(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	pillar, err := req.RequireString("pillar")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	p := path.Join(pillar, models.ReferenceFolder, models.ManifestName)
	data, err := s.store.Read(p)
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("not found: %s", p)), nil
	}
	return mcp.NewToolResultText(string(data)), nil
}

func (s *Server) getManifestContract(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	return mcp.NewToolResultText(ManifestFormatContract), nil
}

func (s *Server) readManifestFormatResource(ctx context.Context, req mcp.ReadResourceRequest) ([]mcp.ResourceContents, error) {
	return []mcp.ResourceContents{
		mcp.TextResourceContents{
			URI:      "ordna://manifest-format",
			MIMEType: "text/markdown",
			Text:     ManifestFormatContract,
		},
	}, nil
}
