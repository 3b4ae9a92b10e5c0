package upload

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/claude/vitalsync/internal/ingest"
	"github.com/claude/vitalsync/internal/models"
)

// Stats tracks upload progress.
type Stats struct {
	FilesTotal    int
	FilesUploaded int
	FilesSkipped  int
	FilesErrored  int

	RecordsReceived int
	RecordsAccepted int
	RecordsSkipped  int

	RejectedSources []string
	UnknownDirs     []string
}

// lastRunKey is the sync_state key holding the end of the last completed run.
const lastRunKey = "last_run"

// Uploader walks an export directory laid out as <root>/<source>/<kind>/<date>.json
// and POSTs each day file to the VitalSync ingest endpoint.
type Uploader struct {
	client *Client
	state  *StateDB
	root   string
	dryRun bool
	log    *slog.Logger
	stats  Stats
	now    func() time.Time
}

// New creates a new Uploader. client may be nil in dry-run mode.
func New(client *Client, state *StateDB, root string, dryRun bool, log *slog.Logger) *Uploader {
	return &Uploader{
		client: client,
		state:  state,
		root:   root,
		dryRun: dryRun,
		log:    log,
		now:    time.Now,
	}
}

// dayFile is one <date>.json file found under the export root.
type dayFile struct {
	path    string
	relPath string
	source  models.Source
	kind    models.Kind
	date    time.Time
}

// Run executes the upload pipeline. Per-file failures are counted and logged;
// only allowlist and state failures abort the run.
func (u *Uploader) Run(ctx context.Context) (*Stats, error) {
	// Fetch allowlist from server (skip in dry-run: accept all sources)
	var allowlist map[models.Source]bool
	if !u.dryRun {
		var err error
		allowlist, err = u.client.FetchAllowlist(ctx)
		if err != nil {
			return &u.stats, fmt.Errorf("fetching allowlist: %w", err)
		}
		u.log.Info("fetched allowlist", "sources", len(allowlist))
	}

	files, err := u.scan(allowlist)
	if err != nil {
		return &u.stats, err
	}

	for _, f := range files {
		if err := ctx.Err(); err != nil {
			return &u.stats, err
		}
		u.stats.FilesTotal++
		if err := u.processFile(ctx, f); err != nil {
			if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
				return &u.stats, err
			}
			u.log.Warn("upload failed", "file", f.relPath, "error", err)
			u.stats.FilesErrored++
		}
	}

	if !u.dryRun {
		if err := u.state.SetSyncState(lastRunKey, u.now().UTC().Format(time.RFC3339)); err != nil {
			u.log.Warn("failed to save sync state", "error", err)
		}
	}
	return &u.stats, nil
}

// scan lists the day files of every allowed source, oldest date first.
func (u *Uploader) scan(allowlist map[models.Source]bool) ([]dayFile, error) {
	entries, err := os.ReadDir(u.root)
	if err != nil {
		return nil, fmt.Errorf("reading %s: %w", u.root, err)
	}

	var files []dayFile
	for _, entry := range entries {
		if !entry.IsDir() {
			continue
		}
		src, err := models.ParseSource(entry.Name())
		if err != nil {
			u.stats.UnknownDirs = append(u.stats.UnknownDirs, entry.Name())
			continue
		}
		if allowlist != nil && !allowlist[src] {
			u.stats.RejectedSources = append(u.stats.RejectedSources, string(src))
			continue
		}
		for _, kind := range []models.Kind{models.KindActivity, models.KindSleep} {
			found, err := u.scanKind(filepath.Join(u.root, entry.Name(), string(kind)), src, kind)
			if err != nil {
				return nil, err
			}
			files = append(files, found...)
		}
	}

	sort.SliceStable(files, func(i, j int) bool { return files[i].date.Before(files[j].date) })
	return files, nil
}

func (u *Uploader) scanKind(dir string, src models.Source, kind models.Kind) ([]dayFile, error) {
	paths, err := filepath.Glob(filepath.Join(dir, "*.json"))
	if err != nil {
		return nil, err
	}
	var files []dayFile
	for _, p := range paths {
		name := strings.TrimSuffix(filepath.Base(p), ".json")
		date, err := time.Parse(models.DateLayout, name)
		if err != nil {
			u.log.Warn("skipping file without a date name", "file", p)
			continue
		}
		rel, _ := filepath.Rel(u.root, p)
		files = append(files, dayFile{path: p, relPath: rel, source: src, kind: kind, date: date})
	}
	return files, nil
}

func (u *Uploader) processFile(ctx context.Context, f dayFile) error {
	info, err := os.Stat(f.path)
	if err != nil {
		return fmt.Errorf("stat: %w", err)
	}
	hash, err := HashFile(f.path)
	if err != nil {
		return fmt.Errorf("hash: %w", err)
	}

	uploaded, err := u.state.IsUploaded(f.relPath, info.Size(), hash)
	if err != nil {
		return err
	}
	if uploaded {
		u.stats.FilesSkipped++
		return nil
	}

	data, err := os.ReadFile(f.path)
	if err != nil {
		return fmt.Errorf("read: %w", err)
	}
	if !json.Valid(data) || !bytes.HasPrefix(bytes.TrimSpace(data), []byte("[")) {
		return fmt.Errorf("not a JSON array")
	}
	received := ingest.Count(data)

	if u.dryRun {
		u.log.Info("dry-run: would send",
			"source", f.source,
			"kind", f.kind,
			"date", f.date.Format(models.DateLayout),
			"records", received,
		)
		u.stats.RecordsReceived += received
		u.stats.FilesUploaded++
		return nil
	}

	res, err := u.client.SendDay(ctx, f.source, f.kind, f.date, data)
	if err != nil {
		return err
	}
	u.stats.RecordsReceived += res.Received
	u.stats.RecordsAccepted += res.Accepted
	u.stats.RecordsSkipped += res.Skipped

	if err := u.state.MarkUploaded(f.relPath, info.Size(), hash, res.PayloadID); err != nil {
		u.log.Warn("failed to mark uploaded", "file", f.relPath, "error", err)
	}
	u.stats.FilesUploaded++

	u.log.Info("uploaded day",
		"source", f.source,
		"kind", f.kind,
		"date", res.Date,
		"accepted", res.Accepted,
		"skipped", res.Skipped,
	)
	return nil
}
