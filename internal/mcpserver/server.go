// Package mcpserver provides an MCP (Model Context Protocol) server
// that exposes Soundscape tools for LLM integration via stdio transport.
package mcpserver

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"

	"github.com/soundscapelab/soundscape/internal/models"
	"github.com/soundscapelab/soundscape/internal/noteservice"
	"github.com/soundscapelab/soundscape/internal/notesdb"
)

// Server wraps the MCP server with Soundscape tools.
type Server struct {
	mcp *server.MCPServer
	svc *noteservice.Service
}

// New creates a new MCP server with all Soundscape tools registered.
func New(svc *noteservice.Service) *Server {
	s := &Server{svc: svc}

	s.mcp = server.NewMCPServer(
		"Soundscape",
		"1.0.0",
		server.WithToolCapabilities(false),
		server.WithResourceCapabilities(false, false),
	)

	s.mcp.AddTool(mcp.NewTool("list_notes",
		mcp.WithDescription("List voice notes, optionally filtered by title substring, "+
			"image presence or minimum duration."),
		mcp.WithString("query", mcp.Description("Title substring filter (empty for all)")),
		mcp.WithBoolean("with_image", mcp.Description("Only notes that carry an image")),
		mcp.WithNumber("longer_than", mcp.Description("Only notes longer than N seconds")),
		mcp.WithString("sort", mcp.Description("Sort order: newest, oldest or longest")),
	), s.listNotes)

	s.mcp.AddTool(mcp.NewTool("get_note",
		mcp.WithDescription("Read a single voice note's metadata by id."),
		mcp.WithNumber("id", mcp.Required(), mcp.Description("Note id")),
	), s.getNote)

	s.mcp.AddTool(mcp.NewTool("rename_note",
		mcp.WithDescription("Change a voice note's title. The audio and image are untouched."),
		mcp.WithNumber("id", mcp.Required(), mcp.Description("Note id")),
		mcp.WithString("title", mcp.Required(), mcp.Description("New title (must be non-blank)")),
	), s.renameNote)

	s.mcp.AddTool(mcp.NewTool("delete_note",
		mcp.WithDescription("Delete a voice note together with its audio and image files."),
		mcp.WithNumber("id", mcp.Required(), mcp.Description("Note id")),
	), s.deleteNote)

	s.mcp.AddTool(mcp.NewTool("import_image",
		mcp.WithDescription("Import an image from a base64 data URI or an http(s) URL into "+
			"media storage. Returns the stored reference for use with attach_image."),
		mcp.WithString("url", mcp.Required(), mcp.Description("data: URI or http(s) URL of the image")),
	), s.importImage)

	s.mcp.AddTool(mcp.NewTool("attach_image",
		mcp.WithDescription("Attach a previously imported image to a note, replacing any "+
			"image the note already has."),
		mcp.WithNumber("id", mcp.Required(), mcp.Description("Note id")),
		mcp.WithString("image", mcp.Required(), mcp.Description("Image file name returned by import_image")),
	), s.attachImage)

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

type noteSummary struct {
	ID              int64  `json:"id"`
	Title           string `json:"title"`
	Audio           string `json:"audio"`
	Image           string `json:"image,omitempty"`
	CreatedAt       int64  `json:"createdAt"`
	DurationSeconds int    `json:"durationSeconds"`
}

func summarize(n *models.Note) noteSummary {
	out := noteSummary{
		ID:              n.ID,
		Title:           n.Title,
		Audio:           n.Audio.String(),
		CreatedAt:       n.CreatedAt.UnixMilli(),
		DurationSeconds: n.DurationSeconds,
	}
	if n.Image != nil {
		out.Image = n.Image.String()
	}
	return out
}

func (s *Server) listNotes(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	filter := notesdb.Filter{}
	if q, err := req.RequireString("query"); err == nil {
		filter.TitleQuery = q
	}
	if v, err := req.RequireBool("with_image"); err == nil {
		filter.OnlyWithImage = v
	}
	if v, err := req.RequireFloat("longer_than"); err == nil {
		filter.LongerThanSeconds = int(v)
	}
	if v, err := req.RequireString("sort"); err == nil {
		switch v {
		case "oldest":
			filter.Sort = notesdb.SortOldest
		case "longest":
			filter.Sort = notesdb.SortLongest
		}
	}

	notes, err := s.svc.ListNotes(ctx, filter)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	summaries := make([]noteSummary, 0, len(notes))
	for i := range notes {
		summaries = append(summaries, summarize(&notes[i]))
	}
	out, _ := json.MarshalIndent(summaries, "", "  ")
	return mcp.NewToolResultText(string(out)), nil
}

func (s *Server) getNote(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	id, err := req.RequireFloat("id")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	note, playable, err := s.svc.GetNote(ctx, int64(id))
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("not found: note %d", int64(id))), nil
	}
	detail := struct {
		noteSummary
		Playable bool `json:"playable"`
	}{summarize(note), playable}
	out, _ := json.MarshalIndent(detail, "", "  ")
	return mcp.NewToolResultText(string(out)), nil
}

func (s *Server) renameNote(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	id, err := req.RequireFloat("id")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	title, err := req.RequireString("title")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	note, err := s.svc.UpdateNote(ctx, int64(id), noteservice.UpdateParams{Title: title})
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	return mcp.NewToolResultText(fmt.Sprintf("renamed note %d to %q", note.ID, note.Title)), nil
}

func (s *Server) deleteNote(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	id, err := req.RequireFloat("id")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	if err := s.svc.DeleteNote(ctx, int64(id)); err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	return mcp.NewToolResultText(fmt.Sprintf("deleted note %d", int64(id))), nil
}

func (s *Server) attachImage(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	id, err := req.RequireFloat("id")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	name, err := req.RequireString("image")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	note, _, err := s.svc.GetNote(ctx, int64(id))
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("not found: note %d", int64(id))), nil
	}

	img := models.MediaReference{Category: models.CategoryImage, Name: name, Owned: true}
	updated, err := s.svc.UpdateNote(ctx, note.ID, noteservice.UpdateParams{
		Title: note.Title,
		Image: &img,
	})
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	return mcp.NewToolResultText(fmt.Sprintf("attached %s to note %d", updated.Image.String(), updated.ID)), nil
}
