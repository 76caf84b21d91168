package pxfile

import (
	"encoding/gob"
	"fmt"
	"log/slog"
	"os"
)

// Options controls Load.
type Options struct {
	Encodings []string
	Columns   Columns
	// Cache writes a gob copy next to the source and reads it back on later
	// loads while it is newer than the source.
	Cache bool
}

// CachePath returns the gob cache location for a table file.
func CachePath(path string) string { return path + ".gob" }

// Load reads and parses the table at path.
func Load(path string, opts Options) (*Table, error) {
	if opts.Columns == (Columns{}) {
		opts.Columns = DefaultColumns()
	}
	src, err := os.Stat(path)
	if err != nil {
		return nil, fmt.Errorf("stat table: %w", err)
	}

	gobPath := CachePath(path)
	if opts.Cache {
		if fi, err := os.Stat(gobPath); err == nil && fi.ModTime().After(src.ModTime()) {
			t, err := loadGob(gobPath)
			if err == nil {
				slog.Debug("pxfile: loaded from cache", "path", gobPath, "cells", len(t.Cells))
				return t, nil
			}
			slog.Warn("pxfile: ignoring unreadable cache", "path", gobPath, "error", err)
		}
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read table: %w", err)
	}
	t, err := Parse(data, opts)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	slog.Info("pxfile: parsed", "path", path, "encoding", t.Encoding, "variables", len(t.Variables), "cells", len(t.Cells))

	if opts.Cache {
		if err := SaveGob(t, gobPath); err != nil {
			slog.Warn("pxfile: cache not written", "path", gobPath, "error", err)
		}
	}
	return t, nil
}

// Parse decodes and parses an in-memory table.
func Parse(data []byte, opts Options) (*Table, error) {
	if opts.Columns == (Columns{}) {
		opts.Columns = DefaultColumns()
	}
	text, enc, err := Decode(data, opts.Encodings, opts.Columns.Title)
	if err != nil {
		return nil, err
	}
	t, err := parse(text, false)
	if err != nil {
		return nil, err
	}
	t.Encoding = enc
	return t, nil
}

func loadGob(path string) (*Table, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open gob file: %w", err)
	}
	defer f.Close()

	var t Table
	if err := gob.NewDecoder(f).Decode(&t); err != nil {
		return nil, fmt.Errorf("decode gob: %w", err)
	}
	return &t, nil
}

// SaveGob serializes the table to a gob-encoded file at path.
func SaveGob(t *Table, path string) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create gob file: %w", err)
	}
	defer f.Close()

	if err := gob.NewEncoder(f).Encode(t); err != nil {
		return fmt.Errorf("encode gob: %w", err)
	}
	return nil
}
