package memento

import (
	"context"
	"fmt"
	"sync"

	"github.com/tailored-agentic-units/statekit/observability"
)

// History is the caretaker of an Originator: an ordered stack of
// snapshots, most recent last. All methods are safe for concurrent use.
// Undo calls are serialised with each other, and Restore runs without the
// entry lock held, so the originator (or anything it notifies) may call
// Backup, Entries, Len or Clear but not Undo.
type History[S any] struct {
	originator Originator[S]
	entries    []*Snapshot[S]
	limit      int
	observer   observability.Observer
	mu         sync.Mutex // guards entries
	undoMu     sync.Mutex // serialises Undo
}

type historyOptions struct {
	limit    int
	observer observability.Observer
}

// HistoryOption configures a History.
type HistoryOption func(*historyOptions)

// WithLimit caps the number of retained snapshots. Zero or less means no
// limit.
func WithLimit(n int) HistoryOption {
	return func(o *historyOptions) {
		if n > 0 {
			o.limit = n
		}
	}
}

// WithObserver sets the telemetry observer.
func WithObserver(obs observability.Observer) HistoryOption {
	return func(o *historyOptions) {
		o.observer = observability.OrNoOp(obs)
	}
}

// NewHistory creates an empty History for originator.
func NewHistory[S any](originator Originator[S], opts ...HistoryOption) *History[S] {
	o := historyOptions{observer: observability.NoOpObserver{}}
	for _, opt := range opts {
		opt(&o)
	}

	return &History[S]{
		originator: originator,
		limit:      o.limit,
		observer:   o.observer,
	}
}

// NewHistoryFromConfig creates a History whose limit and observer come
// from cfg.
func NewHistoryFromConfig[S any](originator Originator[S], cfg Config) (*History[S], error) {
	obs, err := observability.GetObserver(cfg.Observer)
	if err != nil {
		return nil, fmt.Errorf("failed to resolve observer: %w", err)
	}
	return NewHistory(originator, WithLimit(cfg.Limit), WithObserver(obs)), nil
}

// Backup saves the originator's state and pushes the snapshot.
func (h *History[S]) Backup(ctx context.Context) Info {
	h.mu.Lock()
	defer h.mu.Unlock()

	snap := h.originator.Save()
	h.entries = append(h.entries, snap)

	if h.limit > 0 && len(h.entries) > h.limit {
		evicted := len(h.entries) - h.limit
		clear(h.entries[:evicted])
		h.entries = h.entries[evicted:]

		observability.Emit(ctx, h.observer, EventEvict, observability.LevelVerbose, "memento.History.Backup", map[string]any{
			"evicted": evicted,
			"limit":   h.limit,
		})
	}

	info := snap.Info()
	data := map[string]any{
		"snapshot": info.ID,
		"label":    info.Label,
		"entries":  len(h.entries),
	}
	level := observability.LevelInfo
	if err := snap.Err(); err != nil {
		data["error"] = err.Error()
		level = observability.LevelWarning
	}
	observability.Emit(ctx, h.observer, EventBackup, level, "memento.History.Backup", data)
	return info
}

// Undo pops the most recent snapshot and restores the originator from it.
// When a restore fails the snapshot is discarded and the next older one is
// tried. Undo returns the metadata of the restored snapshot and true, or
// false when the history was empty or no snapshot could be restored. In
// either case every attempted snapshot has been removed.
func (h *History[S]) Undo(ctx context.Context) (Info, bool) {
	h.undoMu.Lock()
	defer h.undoMu.Unlock()

	failed := 0
	for {
		snap, remaining := h.pop()
		if snap == nil {
			break
		}

		err := h.originator.Restore(snap)
		if err == nil {
			info := snap.Info()
			observability.Emit(ctx, h.observer, EventUndo, observability.LevelInfo, "memento.History.Undo", map[string]any{
				"snapshot": info.ID,
				"label":    info.Label,
				"failed":   failed,
				"entries":  remaining,
				"restored": true,
			})
			return info, true
		}

		failed++
		observability.Emit(ctx, h.observer, EventRestoreFailed, observability.LevelWarning, "memento.History.Undo", map[string]any{
			"snapshot": snap.ID(),
			"error":    err.Error(),
			"entries":  remaining,
		})
	}

	observability.Emit(ctx, h.observer, EventUndo, observability.LevelVerbose, "memento.History.Undo", map[string]any{
		"failed":   failed,
		"entries":  0,
		"restored": false,
	})
	return Info{}, false
}

// pop removes the newest snapshot. It returns nil when the history is empty.
func (h *History[S]) pop() (*Snapshot[S], int) {
	h.mu.Lock()
	defer h.mu.Unlock()

	if len(h.entries) == 0 {
		return nil, 0
	}
	last := len(h.entries) - 1
	snap := h.entries[last]
	h.entries[last] = nil
	h.entries = h.entries[:last]
	return snap, last
}

// Entries lists the retained snapshots in chronological order, oldest
// first.
func (h *History[S]) Entries() []Info {
	h.mu.Lock()
	defer h.mu.Unlock()

	infos := make([]Info, len(h.entries))
	for i, snap := range h.entries {
		infos[i] = snap.Info()
	}
	return infos
}

// Len reports the number of retained snapshots.
func (h *History[S]) Len() int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return len(h.entries)
}

// Clear discards all snapshots.
func (h *History[S]) Clear() {
	h.mu.Lock()
	defer h.mu.Unlock()

	clear(h.entries)
	h.entries = nil
}
