package main

import (
	"flag"
	"fmt"
	"log/slog"
	"os"

	mcpserver "github.com/mark3labs/mcp-go/server"

	vsmcp "github.com/claude/vitalsync/internal/mcp"
)

// Version is set at build time via -ldflags.
var Version = "dev"

func main() {
	serverURL := flag.String("server", os.Getenv("VITALSYNC_URL"), "VitalSync server URL (default $VITALSYNC_URL)")
	version := flag.Bool("version", false, "print version and exit")
	flag.Parse()

	if *version {
		fmt.Println("vitalsync-mcp", Version)
		return
	}

	// stdout carries the MCP protocol, so logs go to stderr.
	log := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelInfo}))

	if *serverURL == "" {
		fmt.Fprintf(os.Stderr, "Usage: vitalsync-mcp -server <URL>\n\n")
		flag.PrintDefaults()
		os.Exit(1)
	}

	s := vsmcp.New(vsmcp.NewHTTPClient(*serverURL), Version, log)
	log.Info("serving MCP over stdio", "server", *serverURL)
	if err := mcpserver.ServeStdio(s); err != nil {
		log.Error("mcp stdio failed", "error", err)
		os.Exit(1)
	}
}
