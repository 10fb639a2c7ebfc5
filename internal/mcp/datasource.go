package mcp

import (
	"context"

	"github.com/claude/healthbridge/internal/bridge"
	"github.com/claude/healthbridge/internal/client"
)

// DataSource is the method surface MCP tools call. Both *bridge.Bridge (local)
// and *client.Client (remote via the REST API) satisfy this interface.
type DataSource interface {
	Call(ctx context.Context, method string, args map[string]any) (any, error)
}

// Compile-time checks.
var (
	_ DataSource = (*bridge.Bridge)(nil)
	_ DataSource = (*client.Client)(nil)
)
