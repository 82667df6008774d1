// Package mcp exposes the training log over the Model Context Protocol so an
// assistant can read history and drive the session lifecycle.
package mcp

import (
	"context"
	"encoding/json"
	"log/slog"
	"time"

	"github.com/claude/trainlog/internal/catalog"
	"github.com/claude/trainlog/internal/models"
	"github.com/claude/trainlog/internal/records"
	"github.com/claude/trainlog/internal/session"
	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"
)

// New creates an MCP server with all tools and resources registered.
func New(store *records.Store, ctrl *session.Controller, cat *catalog.Catalog, version string, log *slog.Logger) *server.MCPServer {
	s := server.NewMCPServer("TrainLog", version,
		server.WithToolCapabilities(false),
		server.WithResourceCapabilities(false, false),
		server.WithInstructions("Training log server. Query training history and menu catalogs, and start or finish training sessions. All data is scoped to the configured user."),
	)

	h := &handlers{store: store, ctrl: ctrl, cat: cat, log: log}

	// Tools
	s.AddTools(
		server.ServerTool{Tool: toolGetTrainingHistory, Handler: h.getTrainingHistory},
		server.ServerTool{Tool: toolGetTrainingSession, Handler: h.getTrainingSession},
		server.ServerTool{Tool: toolListMenus, Handler: h.listMenus},
		server.ServerTool{Tool: toolStartTraining, Handler: h.startTraining},
		server.ServerTool{Tool: toolFinishTraining, Handler: h.finishTraining},
		server.ServerTool{Tool: toolDeleteTraining, Handler: h.deleteTraining},
	)

	// Resources
	s.AddResources(
		server.ServerResource{Resource: resActiveSession, Handler: h.activeSession},
		server.ServerResource{Resource: resRecentSessions, Handler: h.recentSessions},
		server.ServerResource{Resource: resMenuCatalog, Handler: h.menuCatalog},
	)

	return s
}

// handlers holds dependencies for MCP tool/resource handlers.
type handlers struct {
	store *records.Store
	ctrl  *session.Controller
	cat   *catalog.Catalog
	log   *slog.Logger
}

// --- Resource definitions ---

var resActiveSession = mcp.NewResource(
	"trainlog://active_session",
	"Active Session",
	mcp.WithResourceDescription("The currently active (unfinished) training session, or null when none exists"),
	mcp.WithMIMEType("application/json"),
)

var resRecentSessions = mcp.NewResource(
	"trainlog://recent_sessions",
	"Recent Sessions",
	mcp.WithResourceDescription("The ten most recent training sessions with entries and partners"),
	mcp.WithMIMEType("application/json"),
)

var resMenuCatalog = mcp.NewResource(
	"trainlog://menu_catalog",
	"Menu Catalog",
	mcp.WithResourceDescription("All strength and cardio menu definitions with body-part groupings"),
	mcp.WithMIMEType("application/json"),
)

func (h *handlers) activeSession(ctx context.Context, req mcp.ReadResourceRequest) ([]mcp.ResourceContents, error) {
	if err := h.store.Refresh(ctx); err != nil {
		return nil, err
	}

	var payload any
	if active, ok := h.store.Active(); ok {
		payload = active
	}

	return jsonContents(req.Params.URI, payload)
}

func (h *handlers) recentSessions(ctx context.Context, req mcp.ReadResourceRequest) ([]mcp.ResourceContents, error) {
	if err := h.store.Refresh(ctx); err != nil {
		return nil, err
	}

	sessions := h.store.ListSummaries()
	if len(sessions) > 10 {
		sessions = sessions[:10]
	}
	return jsonContents(req.Params.URI, sessions)
}

func (h *handlers) menuCatalog(ctx context.Context, req mcp.ReadResourceRequest) ([]mcp.ResourceContents, error) {
	if err := h.cat.Refresh(ctx); err != nil {
		return nil, err
	}

	return jsonContents(req.Params.URI, map[string]any{
		"strength": h.cat.Menus(),
		"cardio":   h.cat.CardioMenus(),
	})
}

func jsonContents(uri string, payload any) ([]mcp.ResourceContents, error) {
	data, err := json.Marshal(payload)
	if err != nil {
		return nil, err
	}
	return []mcp.ResourceContents{
		mcp.TextResourceContents{
			URI:      uri,
			MIMEType: "application/json",
			Text:     string(data),
		},
	}, nil
}

// --- Tool definitions ---

var toolGetTrainingHistory = mcp.NewTool("get_training_history",
	mcp.WithDescription("List training sessions, most recent first. Each session includes gym, partners, and strength/cardio entries."),
	mcp.WithNumber("limit", mcp.Description("Maximum number of sessions to return. Defaults to 20.")),
)

var toolGetTrainingSession = mcp.NewTool("get_training_session",
	mcp.WithDescription("Fetch one training session by id with full entry, cardio, and partner detail."),
	mcp.WithString("session_id", mcp.Required(), mcp.Description("Session pub_id")),
)

var toolListMenus = mcp.NewTool("list_menus",
	mcp.WithDescription("List exercise menu definitions. Category 'all' merges strength and cardio, 'cardio' selects cardio only, and a body-part name (e.g. 'Chest') filters strength menus."),
	mcp.WithString("category", mcp.Description("Filter category. Defaults to 'all'.")),
)

var toolStartTraining = mcp.NewTool("start_training",
	mcp.WithDescription("Start a new training session. Fails when an unfinished session already exists."),
	mcp.WithString("gym_pub_id", mcp.Description("Gym to attach to the session")),
	mcp.WithString("started_at", mcp.Description("Retroactive start time (ISO 8601 or YYYY-MM-DD). Must not be in the future. Defaults to now.")),
)

var toolFinishTraining = mcp.NewTool("finish_training",
	mcp.WithDescription("Finish the currently active training session."),
	mcp.WithString("session_id", mcp.Required(), mcp.Description("Pub_id of the active session")),
)

var toolDeleteTraining = mcp.NewTool("delete_training",
	mcp.WithDescription("Delete a training session by id."),
	mcp.WithString("session_id", mcp.Required(), mcp.Description("Session pub_id")),
)

func parseFlexTime(s string) (time.Time, error) {
	t, err := time.Parse(time.RFC3339, s)
	if err == nil {
		return t, nil
	}
	t, err = time.Parse("2006-01-02", s)
	if err == nil {
		return t, nil
	}
	return time.Time{}, err
}

// --- Tool handlers ---

func (h *handlers) getTrainingHistory(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	limit := req.GetInt("limit", 20)

	if err := h.store.Refresh(ctx); err != nil {
		h.log.Error("mcp get_training_history", "error", err)
		return mcp.NewToolResultError("refresh failed: " + err.Error()), nil
	}

	sessions := h.store.ListSummaries()
	if limit > 0 && len(sessions) > limit {
		sessions = sessions[:limit]
	}

	result, err := mcp.NewToolResultJSON(sessions)
	if err != nil {
		return mcp.NewToolResultError("serialization failed"), nil
	}
	return result, nil
}

func (h *handlers) getTrainingSession(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	sessionID, err := req.RequireString("session_id")
	if err != nil {
		return mcp.NewToolResultError("session_id parameter is required"), nil
	}

	detail, err := h.store.Hydrate(ctx, sessionID)
	if err != nil {
		h.log.Error("mcp get_training_session", "session", sessionID, "error", err)
		return mcp.NewToolResultError("fetch failed: " + err.Error()), nil
	}

	result, err := mcp.NewToolResultJSON(detail)
	if err != nil {
		return mcp.NewToolResultError("serialization failed"), nil
	}
	return result, nil
}

func (h *handlers) listMenus(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	category := req.GetString("category", catalog.CategoryAll)

	if err := h.cat.Refresh(ctx); err != nil {
		h.log.Error("mcp list_menus", "error", err)
		return mcp.NewToolResultError("refresh failed: " + err.Error()), nil
	}

	result, err := mcp.NewToolResultJSON(h.cat.Filter(category))
	if err != nil {
		return mcp.NewToolResultError("serialization failed"), nil
	}
	return result, nil
}

func (h *handlers) startTraining(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	var gym *models.Gym
	if gymID := req.GetString("gym_pub_id", ""); gymID != "" {
		gym = &models.Gym{PubID: gymID}
	}

	var (
		id  string
		err error
	)
	if startedStr := req.GetString("started_at", ""); startedStr != "" {
		startedAt, parseErr := parseFlexTime(startedStr)
		if parseErr != nil {
			return mcp.NewToolResultError("invalid started_at: " + parseErr.Error()), nil
		}
		id, err = h.ctrl.StartAt(ctx, startedAt, gym, false)
	} else {
		id, err = h.ctrl.Start(ctx, gym, false)
	}
	if err != nil {
		h.log.Error("mcp start_training", "error", err)
		return mcp.NewToolResultError("start failed: " + err.Error()), nil
	}

	result, err := mcp.NewToolResultJSON(map[string]string{"pub_id": id})
	if err != nil {
		return mcp.NewToolResultError("serialization failed"), nil
	}
	return result, nil
}

func (h *handlers) finishTraining(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	sessionID, err := req.RequireString("session_id")
	if err != nil {
		return mcp.NewToolResultError("session_id parameter is required"), nil
	}

	if err := h.ctrl.Finish(ctx, sessionID, nil, nil, nil); err != nil {
		h.log.Error("mcp finish_training", "session", sessionID, "error", err)
		return mcp.NewToolResultError("finish failed: " + err.Error()), nil
	}

	return mcp.NewToolResultText("session finished"), nil
}

func (h *handlers) deleteTraining(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	sessionID, err := req.RequireString("session_id")
	if err != nil {
		return mcp.NewToolResultError("session_id parameter is required"), nil
	}

	if err := h.ctrl.Delete(ctx, sessionID); err != nil {
		h.log.Error("mcp delete_training", "session", sessionID, "error", err)
		return mcp.NewToolResultError("delete failed: " + err.Error()), nil
	}

	return mcp.NewToolResultText("session deleted"), nil
}
