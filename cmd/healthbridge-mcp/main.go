package main

import (
	"flag"
	"fmt"
	"log/slog"
	"os"

	mcpserver "github.com/mark3labs/mcp-go/server"

	"github.com/claude/healthbridge/internal/client"
	"github.com/claude/healthbridge/internal/mcp"
)

// Version is set at build time via -ldflags.
var Version = "dev"

func main() {
	serverURL := flag.String("server", os.Getenv("HEALTHBRIDGE_URL"), "healthbridge server URL (e.g. http://healthbridge)")
	apiKey := flag.String("api-key", os.Getenv("HEALTHBRIDGE_API_KEY"), "API key (default $HEALTHBRIDGE_API_KEY)")
	flag.Parse()

	// stdout carries the MCP protocol; logs go to stderr.
	log := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelInfo}))

	if *serverURL == "" {
		fmt.Fprintf(os.Stderr, "Usage: healthbridge-mcp -server http://healthbridge [-api-key KEY]\n")
		flag.PrintDefaults()
		os.Exit(1)
	}

	c := client.New(*serverURL, *apiKey, client.Options{})
	log.Info("healthbridge-mcp starting", "version", Version, "server", *serverURL)

	if err := mcpserver.ServeStdio(mcp.New(c, Version, log)); err != nil {
		log.Error("mcp server error", "error", err)
		os.Exit(1)
	}
}
