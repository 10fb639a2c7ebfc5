package mcp

import (
	"context"
	"time"

	"github.com/mark3labs/mcp-go/mcp"

	"github.com/claude/healthbridge/internal/bridge"
	"github.com/claude/healthbridge/internal/taxonomy"
)

// defaultTimeRange returns start/end defaulting to the last 7 days.
func defaultTimeRange(startStr, endStr string) (time.Time, time.Time, error) {
	var start, end time.Time
	var err error

	if endStr != "" {
		end, err = parseFlexTime(endStr)
		if err != nil {
			return time.Time{}, time.Time{}, err
		}
	} else {
		end = time.Now()
	}

	if startStr != "" {
		start, err = parseFlexTime(startStr)
		if err != nil {
			return time.Time{}, time.Time{}, err
		}
	} else {
		start = end.AddDate(0, 0, -7)
	}

	return start, end, nil
}

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

func windowArgs(start, end time.Time) map[string]any {
	return map[string]any{
		"startTime": start.UnixMilli(),
		"endTime":   end.UnixMilli(),
	}
}

func metricKeys() []string {
	metrics := taxonomy.SupportedMetrics()
	keys := make([]string, 0, len(metrics))
	for _, m := range metrics {
		keys = append(keys, string(m.Key))
	}
	return keys
}

// --- Tool definitions ---

var toolUseHealthConnect = mcp.NewTool("use_health_connect",
	mcp.WithDescription("Select Health Connect as the backing health store. Until this is called every other tool answers false or null."),
)

var toolHasPermissions = mcp.NewTool("has_permissions",
	mcp.WithDescription("Report whether the read permissions for steps and total calories are granted."),
)

var toolRequestAuthorization = mcp.NewTool("request_authorization",
	mcp.WithDescription("Ask the user to grant the required read permissions. Returns true when at least one was granted."),
)

var toolGetData = mcp.NewTool("get_data",
	mcp.WithDescription("List records of one metric in a time range. Workouts include activity type, total distance (meters) and total energy (kilocalories)."),
	mcp.WithString("metric", mcp.Required(), mcp.Description("Metric key"), mcp.Enum(metricKeys()...)),
	mcp.WithString("start", mcp.Description("Start date (ISO 8601 or YYYY-MM-DD). Defaults to 7 days ago.")),
	mcp.WithString("end", mcp.Description("End date (ISO 8601 or YYYY-MM-DD). Defaults to now.")),
)

var toolGetTotalSteps = mcp.NewTool("get_total_steps",
	mcp.WithDescription("Total step count in a time range. 0 when there is no step data."),
	mcp.WithString("start", mcp.Description("Start date. Defaults to 7 days ago.")),
	mcp.WithString("end", mcp.Description("End date. Defaults to now.")),
)

var toolGetStepsAndCalories = mcp.NewTool("get_steps_and_calories",
	mcp.WithDescription("Steps and total calories burned per day in a time range. Days without data report zero."),
	mcp.WithString("start", mcp.Description("Start date. Defaults to 7 days ago.")),
	mcp.WithString("end", mcp.Description("End date. Defaults to now.")),
)

// --- Tool handlers ---

func (h *handlers) useHealthConnect(ctx context.Context, _ mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	return h.callTool(ctx, "use_health_connect", bridge.MethodUseHealthConnectIfAvailable, nil)
}

func (h *handlers) hasPermissions(ctx context.Context, _ mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	return h.callTool(ctx, "has_permissions", bridge.MethodHasPermissions, nil)
}

func (h *handlers) requestAuthorization(ctx context.Context, _ mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	return h.callTool(ctx, "request_authorization", bridge.MethodRequestAuthorization, nil)
}

func (h *handlers) getData(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	metric, err := req.RequireString("metric")
	if err != nil {
		return mcp.NewToolResultError("metric parameter is required"), nil
	}

	start, end, err := defaultTimeRange(req.GetString("start", ""), req.GetString("end", ""))
	if err != nil {
		return mcp.NewToolResultError("invalid date format: " + err.Error()), nil
	}

	args := windowArgs(start, end)
	args["dataTypeKey"] = metric
	return h.callTool(ctx, "get_data", bridge.MethodGetData, args)
}

func (h *handlers) getTotalSteps(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	start, end, err := defaultTimeRange(req.GetString("start", ""), req.GetString("end", ""))
	if err != nil {
		return mcp.NewToolResultError("invalid date format: " + err.Error()), nil
	}
	return h.callTool(ctx, "get_total_steps", bridge.MethodGetTotalStepsInInterval, windowArgs(start, end))
}

func (h *handlers) getStepsAndCalories(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	start, end, err := defaultTimeRange(req.GetString("start", ""), req.GetString("end", ""))
	if err != nil {
		return mcp.NewToolResultError("invalid date format: " + err.Error()), nil
	}
	return h.callTool(ctx, "get_steps_and_calories", bridge.MethodGetTotalStepAndCaloriesInInterval, windowArgs(start, end))
}

// callTool runs one bridge method and wraps its result, null included, as JSON.
func (h *handlers) callTool(ctx context.Context, tool, method string, args map[string]any) (*mcp.CallToolResult, error) {
	out, err := h.ds.Call(ctx, method, args)
	if err != nil {
		h.log.Error("mcp "+tool, "error", err)
		return mcp.NewToolResultError("call failed: " + err.Error()), nil
	}

	result, err := mcp.NewToolResultJSON(map[string]any{"result": out})
	if err != nil {
		return mcp.NewToolResultError("serialization failed"), nil
	}
	return result, nil
}
