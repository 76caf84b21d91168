package tally

import (
	"context"
	"log/slog"
)

// Event kinds emitted by Builder.
const (
	EventResolve  = "resolve"
	EventUnmapped = "unmapped"
	EventCollapse = "collapse"
	EventRecover  = "recover"
	EventGap      = "gap"
	EventPivot    = "pivot"
)

// Event is one structured diagnostics record. Key is the region key or join
// label the event is about; Detail holds the stage-specific payload.
type Event struct {
	Kind   string
	Title  string
	Key    string
	Detail any
}

// Diagnostics receives debug events from the pipeline. Implementations must
// not retain Detail beyond the call.
type Diagnostics interface {
	OnDebug(Event)
}

// DiagnosticsFunc adapts a function to Diagnostics.
type DiagnosticsFunc func(Event)

func (f DiagnosticsFunc) OnDebug(e Event) { f(e) }

// SlogDiagnostics writes events to a slog logger at debug level.
type SlogDiagnostics struct {
	Logger *slog.Logger
}

func (d SlogDiagnostics) OnDebug(e Event) {
	l := d.Logger
	if l == nil {
		l = slog.Default()
	}
	if !l.Enabled(context.Background(), slog.LevelDebug) {
		return
	}
	l.Debug("tally: "+e.Kind, "title", e.Title, "key", e.Key, "detail", e.Detail)
}

type nopDiagnostics struct{}

func (nopDiagnostics) OnDebug(Event) {}
