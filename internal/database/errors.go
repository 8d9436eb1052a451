package database

import "errors"

// ErrSourceNotFound is returned when the persistent source does not exist yet
// (for example, no SQLite file has been written by the indexer).
var ErrSourceNotFound = errors.New("embedding source not found")
