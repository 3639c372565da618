// Package mcpserver provides an MCP (Model Context Protocol) server
// that exposes notelens tools for LLM integration via stdio transport.
package mcpserver

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"

	"github.com/starford/notelens/internal/analysis"
	"github.com/starford/notelens/internal/apperr"
	"github.com/starford/notelens/internal/noteservice"
)

// AnalysisFormatURI is the URI of the analysis format resource.
const AnalysisFormatURI = "notelens://analysis-format"

// Server wraps the MCP server with notelens tools.
type Server struct {
	mcp    *server.MCPServer
	notes  *noteservice.Service
	runner *analysis.Runner
}

// New creates a new MCP server with all notelens tools registered.
func New(notes *noteservice.Service, runner *analysis.Runner, version string) *Server {
	s := &Server{notes: notes, runner: runner}

	s.mcp = server.NewMCPServer(
		"notelens",
		version,
		server.WithToolCapabilities(false),
		server.WithResourceCapabilities(false, false),
	)

	s.mcp.AddTool(mcp.NewTool("search_notes",
		mcp.WithDescription("Full-text search through notes content and titles."),
		mcp.WithString("query", mcp.Required(), mcp.Description("Search query string")),
	), s.searchNotes)

	s.mcp.AddTool(mcp.NewTool("read_note",
		mcp.WithDescription("Read the full content of a Markdown note."),
		mcp.WithString("path", mcp.Required(), mcp.Description("Relative path to the note (e.g. folder/note.md)")),
	), s.readNote)

	s.mcp.AddTool(mcp.NewTool("create_note",
		mcp.WithDescription("Create a new Markdown note at the specified path. Fails if the note exists."),
		mcp.WithString("path", mcp.Required(), mcp.Description("Relative path for the new note (must end with .md)")),
		mcp.WithString("content", mcp.Required(), mcp.Description("Markdown content")),
	), s.createNote)

	s.mcp.AddTool(mcp.NewTool("list_notes",
		mcp.WithDescription("List all notes or notes in a specific folder."),
		mcp.WithString("folder", mcp.Description("Optional folder to list (empty for all)")),
	), s.listNotes)

	s.mcp.AddTool(mcp.NewTool("get_backlinks",
		mcp.WithDescription("Find all notes that link to the specified note."),
		mcp.WithString("path", mcp.Required(), mcp.Description("Path of the note to find backlinks for")),
	), s.getBacklinks)

	s.mcp.AddTool(mcp.NewTool("get_links",
		mcp.WithDescription("List the notes the specified note links to (first degree, resolved)."),
		mcp.WithString("path", mcp.Required(), mcp.Description("Path of the note")),
	), s.getLinks)

	s.mcp.AddTool(mcp.NewTool("analyze_note",
		mcp.WithDescription("Send a note and up to five linked notes to DeepSeek and write the answer "+
			"into a new analysis note. Returns the path of the created note. See the "+
			AnalysisFormatURI+" resource for the layout of the result."),
		mcp.WithString("path", mcp.Required(), mcp.Description("Path of the note to analyse")),
	), s.analyzeNote)

	s.mcp.AddTool(mcp.NewTool("get_analysis_format",
		mcp.WithDescription("Returns the layout of analysis notes written by analyze_note."),
	), s.getAnalysisFormat)

	s.mcp.AddResource(
		mcp.NewResource(AnalysisFormatURI, "Analysis Note Format",
			mcp.WithResourceDescription("Layout of the analysis notes created by analyze_note."),
			mcp.WithMIMEType("text/markdown"),
		),
		s.readAnalysisFormatResource,
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

func (s *Server) searchNotes(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	query, err := req.RequireString("query")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	results, err := s.notes.Search(ctx, query, 20)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	out, _ := json.MarshalIndent(results, "", "  ")
	return mcp.NewToolResultText(string(out)), nil
}

func (s *Server) readNote(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	path, err := req.RequireString("path")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	data, err := s.notes.Read(ctx, path)
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("not found: %s", path)), nil
	}
	return mcp.NewToolResultText(string(data)), nil
}

func (s *Server) createNote(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	path, err := req.RequireString("path")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	content, err := req.RequireString("content")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	if err := s.notes.Create(ctx, path, []byte(content)); err != nil {
		if errors.Is(err, apperr.ErrAlreadyExists) {
			return mcp.NewToolResultError(fmt.Sprintf("note already exists: %s", path)), nil
		}
		return mcp.NewToolResultError(err.Error()), nil
	}
	return mcp.NewToolResultText(fmt.Sprintf("created: %s", path)), nil
}

func (s *Server) listNotes(_ context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	folder := ""
	if f, err := req.RequireString("folder"); err == nil {
		folder = f
	}

	metas, err := s.notes.Store().List(folder)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	paths := make([]string, 0, len(metas))
	for _, m := range metas {
		paths = append(paths, m.Path)
	}
	return mcp.NewToolResultText(strings.Join(paths, "\n")), nil
}

func (s *Server) getBacklinks(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	path, err := req.RequireString("path")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	bl, err := s.notes.Backlinks(ctx, path)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	if len(bl) == 0 {
		return mcp.NewToolResultText("no backlinks found"), nil
	}
	return mcp.NewToolResultText(strings.Join(bl, "\n")), nil
}

func (s *Server) getLinks(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	path, err := req.RequireString("path")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	links, err := s.notes.LinkedPaths(ctx, path)
	if err != nil {
		if errors.Is(err, apperr.ErrNotFound) {
			return mcp.NewToolResultError(fmt.Sprintf("not found: %s", path)), nil
		}
		return mcp.NewToolResultError(err.Error()), nil
	}
	if len(links) == 0 {
		return mcp.NewToolResultText("no links found"), nil
	}
	return mcp.NewToolResultText(strings.Join(links, "\n")), nil
}

func (s *Server) analyzeNote(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	path, err := req.RequireString("path")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	out, err := s.runner.Execute(ctx, path)
	switch {
	case errors.Is(err, analysis.ErrNoActiveDocument):
		return mcp.NewToolResultError(analysis.NoticeNoActiveFile), nil
	case errors.Is(err, analysis.ErrMissingCredential):
		return mcp.NewToolResultError(analysis.NoticeMissingKey), nil
	case err != nil:
		return mcp.NewToolResultError(analysis.FailureNotice(err)), nil
	}
	if out.Path == "" {
		// Analysis files are disabled; hand back the rendered note instead.
		return mcp.NewToolResultText(out.Note), nil
	}
	return mcp.NewToolResultText(fmt.Sprintf("created: %s", out.Path)), nil
}

func (s *Server) getAnalysisFormat(_ context.Context, _ mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	return mcp.NewToolResultText(AnalysisFormat), nil
}

func (s *Server) readAnalysisFormatResource(_ context.Context, _ mcp.ReadResourceRequest) ([]mcp.ResourceContents, error) {
	return []mcp.ResourceContents{
		mcp.TextResourceContents{
			URI:      AnalysisFormatURI,
			MIMEType: "text/markdown",
			Text:     AnalysisFormat,
		},
	}, nil
}
