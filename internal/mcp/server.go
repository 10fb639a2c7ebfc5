package mcp

import (
	"log/slog"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"
)

// New creates an MCP server with all tools and resources registered.
func New(ds DataSource, version string, log *slog.Logger) *server.MCPServer {
	s := server.NewMCPServer("HealthBridge", version,
		server.WithToolCapabilities(false),
		server.WithResourceCapabilities(false, false),
		server.WithInstructions("HealthBridge reads steps, calories and workouts from the device health store. Call use_health_connect once per session before querying. A null result means the store is unavailable, permission is missing or the read failed."),
	)

	h := &handlers{ds: ds, log: log}

	// Tools
	s.AddTools(
		server.ServerTool{Tool: toolUseHealthConnect, Handler: h.useHealthConnect},
		server.ServerTool{Tool: toolHasPermissions, Handler: h.hasPermissions},
		server.ServerTool{Tool: toolRequestAuthorization, Handler: h.requestAuthorization},
		server.ServerTool{Tool: toolGetData, Handler: h.getData},
		server.ServerTool{Tool: toolGetTotalSteps, Handler: h.getTotalSteps},
		server.ServerTool{Tool: toolGetStepsAndCalories, Handler: h.getStepsAndCalories},
	)

	// Resources
	s.AddResources(
		server.ServerResource{Resource: resDailySummary, Handler: h.dailySummary},
		server.ServerResource{Resource: resMetricCatalog, Handler: h.metricCatalog},
	)

	return s
}

// handlers holds dependencies for MCP tool/resource handlers.
type handlers struct {
	ds  DataSource
	log *slog.Logger
}

// --- Resource definitions ---

var resDailySummary = mcp.NewResource(
	"healthbridge://daily_summary",
	"Daily Summary",
	mcp.WithResourceDescription("Today's step total and steps/calories bucket"),
	mcp.WithMIMEType("application/json"),
)

var resMetricCatalog = mcp.NewResource(
	"healthbridge://metric_catalog",
	"Metric Catalog",
	mcp.WithResourceDescription("Supported metric keys, their native record kinds and units, and the canonical workout activity names"),
	mcp.WithMIMEType("application/json"),
)
