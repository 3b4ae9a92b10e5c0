package storage

import "github.com/claude/vitalsync/internal/fetch"

var _ fetch.Fetcher = (*DB)(nil)
