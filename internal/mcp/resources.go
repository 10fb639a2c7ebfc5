package mcp

import (
	"context"
	"encoding/json"
	"time"

	"github.com/mark3labs/mcp-go/mcp"

	"github.com/claude/healthbridge/internal/bridge"
	"github.com/claude/healthbridge/internal/taxonomy"
)

func (h *handlers) dailySummary(ctx context.Context, req mcp.ReadResourceRequest) ([]mcp.ResourceContents, error) {
	now := time.Now().UTC()
	today := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, time.UTC)
	args := windowArgs(today, today.AddDate(0, 0, 1))

	steps, err := h.ds.Call(ctx, bridge.MethodGetTotalStepsInInterval, args)
	if err != nil {
		return nil, err
	}

	buckets, err := h.ds.Call(ctx, bridge.MethodGetTotalStepAndCaloriesInInterval, args)
	if err != nil {
		h.log.Warn("daily_summary: steps and calories failed", "error", err)
	}

	summary := map[string]any{
		"date":               today.Format("2006-01-02"),
		"total_steps":        steps,
		"steps_and_calories": buckets,
	}
	return jsonContents(req.Params.URI, summary)
}

func (h *handlers) metricCatalog(_ context.Context, req mcp.ReadResourceRequest) ([]mcp.ResourceContents, error) {
	return jsonContents(req.Params.URI, taxonomy.BuildCatalog())
}

func jsonContents(uri string, v any) ([]mcp.ResourceContents, error) {
	data, err := json.Marshal(v)
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
