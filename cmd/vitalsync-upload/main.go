package main

import (
	"context"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"

	"github.com/claude/vitalsync/internal/upload"
)

// Version is set at build time via -ldflags.
var Version = "dev"

func main() {
	serverURL := flag.String("server", "", "VitalSync server URL (e.g. https://vitalsync.tail1234.ts.net)")
	apiKey := flag.String("api-key", os.Getenv("VITALSYNC_AUTH_API_KEY"), "ingest API key (default $VITALSYNC_AUTH_API_KEY)")
	exportPath := flag.String("path", "", "export directory laid out as <source>/<kind>/<YYYY-MM-DD>.json")
	stateDir := flag.String("state-dir", "", "upload state directory (default ~/.vitalsync-upload)")
	dryRun := flag.Bool("dry-run", false, "validate files but don't send to server")
	version := flag.Bool("version", false, "print version and exit")
	flag.Parse()

	if *version {
		fmt.Println("vitalsync-upload", Version)
		return
	}

	log := slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelInfo}))

	if *exportPath == "" {
		fmt.Fprintf(os.Stderr, "Usage: vitalsync-upload -server <URL> -api-key <key> -path <export dir> [-dry-run]\n\n")
		flag.PrintDefaults()
		os.Exit(1)
	}

	if (*serverURL == "" || *apiKey == "") && !*dryRun {
		fmt.Fprintf(os.Stderr, "Error: -server and -api-key are required (or use -dry-run)\n")
		os.Exit(1)
	}

	info, err := os.Stat(*exportPath)
	if err != nil || !info.IsDir() {
		log.Error("export directory not found", "path", *exportPath)
		os.Exit(1)
	}

	// Open state database
	dir := *stateDir
	if dir == "" {
		homeDir, err := os.UserHomeDir()
		if err != nil {
			log.Error("failed to get home directory", "error", err)
			os.Exit(1)
		}
		dir = filepath.Join(homeDir, ".vitalsync-upload")
	}

	state, err := upload.OpenStateDB(dir)
	if err != nil {
		log.Error("failed to open state database", "error", err)
		os.Exit(1)
	}
	defer state.Close()

	if last, err := state.GetSyncState("last_run"); err == nil && last != "" {
		log.Info("previous run", "finished", last)
	}

	// Create client (nil-safe in dry-run mode)
	var client *upload.Client
	if !*dryRun {
		client = upload.NewClient(*serverURL, *apiKey)
	} else {
		log.Info("DRY RUN mode: files will be validated but not sent")
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	uploader := upload.New(client, state, *exportPath, *dryRun, log)
	stats, err := uploader.Run(ctx)
	if err != nil {
		log.Error("upload failed", "error", err)
		printStats(stats)
		os.Exit(1)
	}

	printStats(stats)
	log.Info("upload complete")
}

func printStats(stats *upload.Stats) {
	fmt.Println()
	fmt.Println("=== Upload Summary ===")
	fmt.Printf("  Files total:      %d\n", stats.FilesTotal)
	fmt.Printf("  Files uploaded:   %d\n", stats.FilesUploaded)
	fmt.Printf("  Files skipped:    %d (already uploaded)\n", stats.FilesSkipped)
	fmt.Printf("  Files errored:    %d\n", stats.FilesErrored)
	fmt.Println()
	fmt.Printf("  Records received: %d\n", stats.RecordsReceived)
	fmt.Printf("  Records accepted: %d\n", stats.RecordsAccepted)
	fmt.Printf("  Records skipped:  %d\n", stats.RecordsSkipped)

	if len(stats.RejectedSources) > 0 {
		fmt.Printf("\n  Rejected sources (disabled on server):\n")
		for _, s := range stats.RejectedSources {
			fmt.Printf("    - %s\n", s)
		}
	}
	if len(stats.UnknownDirs) > 0 {
		fmt.Printf("\n  Ignored directories (unknown source):\n")
		for _, d := range stats.UnknownDirs {
			fmt.Printf("    - %s\n", d)
		}
	}
	fmt.Println()
}
