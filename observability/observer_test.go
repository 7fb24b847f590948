package observability_test

import (
	"bytes"
	"context"
	"log/slog"
	"strings"
	"testing"
	"time"

	"github.com/tailored-agentic-units/statekit/observability"
)

func TestLevel_String(t *testing.T) {
	tests := []struct {
		name  string
		level observability.Level
		want  string
	}{
		{name: "trace range", level: 1, want: "TRACE"},
		{name: "verbose maps to DEBUG", level: observability.LevelVerbose, want: "DEBUG"},
		{name: "info maps to INFO", level: observability.LevelInfo, want: "INFO"},
		{name: "warning maps to WARN", level: observability.LevelWarning, want: "WARN"},
		{name: "error maps to ERROR", level: observability.LevelError, want: "ERROR"},
		{name: "fatal range", level: 21, want: "FATAL"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.level.String(); got != tt.want {
				t.Errorf("Level(%d).String() = %q, want %q", tt.level, got, tt.want)
			}
		})
	}
}

func TestLevel_SlogLevel(t *testing.T) {
	tests := []struct {
		name  string
		level observability.Level
		want  slog.Level
	}{
		{name: "verbose maps to Debug", level: observability.LevelVerbose, want: slog.LevelDebug},
		{name: "info maps to Info", level: observability.LevelInfo, want: slog.LevelInfo},
		{name: "warning maps to Warn", level: observability.LevelWarning, want: slog.LevelWarn},
		{name: "error maps to Error", level: observability.LevelError, want: slog.LevelError},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.level.SlogLevel(); got != tt.want {
				t.Errorf("Level(%d).SlogLevel() = %v, want %v", tt.level, got, tt.want)
			}
		})
	}
}

func TestEmit_StampsAndForwards(t *testing.T) {
	rec := observability.NewRecorder()
	before := time.Now()

	observability.Emit(context.Background(), rec, "machine.transition", observability.LevelInfo, "machine", map[string]any{"to": "B"})

	events := rec.Events()
	if len(events) != 1 {
		t.Fatalf("recorded %d events, want 1", len(events))
	}
	if events[0].Type != "machine.transition" {
		t.Errorf("Type = %q, want machine.transition", events[0].Type)
	}
	if events[0].Timestamp.Before(before) {
		t.Error("Timestamp was not stamped at emit time")
	}
	if events[0].Data["to"] != "B" {
		t.Errorf("Data[to] = %v, want B", events[0].Data["to"])
	}
}

func TestEmit_NilObserver(t *testing.T) {
	observability.Emit(context.Background(), nil, "ignored", observability.LevelInfo, "test", nil)
}

func TestOrNoOp(t *testing.T) {
	if _, ok := observability.OrNoOp(nil).(observability.NoOpObserver); !ok {
		t.Error("OrNoOp(nil) should return NoOpObserver")
	}

	rec := observability.NewRecorder()
	if observability.OrNoOp(rec) != observability.Observer(rec) {
		t.Error("OrNoOp should return a non-nil observer unchanged")
	}
}

func TestMultiObserver(t *testing.T) {
	rec1 := observability.NewRecorder()
	rec2 := observability.NewRecorder()

	multi := observability.NewMultiObserver(rec1, rec2)

	multi.OnEvent(context.Background(), observability.Event{
		Type:      "subject.notify",
		Level:     observability.LevelInfo,
		Timestamp: time.Now(),
		Source:    "test",
		Data:      map[string]any{"observers": 2},
	})

	if len(rec1.Events()) != 1 {
		t.Errorf("observer 1 received %d events, want 1", len(rec1.Events()))
	}
	if len(rec2.Events()) != 1 {
		t.Errorf("observer 2 received %d events, want 1", len(rec2.Events()))
	}
	if rec1.Events()[0].Type != "subject.notify" {
		t.Errorf("observer 1 event type = %q, want %q", rec1.Events()[0].Type, "subject.notify")
	}
}

func TestMultiObserver_NilFiltering(t *testing.T) {
	rec := observability.NewRecorder()

	multi := observability.NewMultiObserver(nil, rec, nil)

	multi.OnEvent(context.Background(), observability.Event{
		Type:  "test.event",
		Level: observability.LevelInfo,
	})

	if multi.Len() != 1 {
		t.Errorf("Len() = %d, want 1", multi.Len())
	}
	if len(rec.Events()) != 1 {
		t.Errorf("received %d events, want 1 (nil observers should be filtered)", len(rec.Events()))
	}
}

func TestSlogObserver_LevelMapping(t *testing.T) {
	tests := []struct {
		name      string
		level     observability.Level
		minLevel  slog.Level
		expectLog bool
	}{
		{name: "verbose at debug handler", level: observability.LevelVerbose, minLevel: slog.LevelDebug, expectLog: true},
		{name: "verbose at info handler", level: observability.LevelVerbose, minLevel: slog.LevelInfo, expectLog: false},
		{name: "info at info handler", level: observability.LevelInfo, minLevel: slog.LevelInfo, expectLog: true},
		{name: "info at warn handler", level: observability.LevelInfo, minLevel: slog.LevelWarn, expectLog: false},
		{name: "warning at warn handler", level: observability.LevelWarning, minLevel: slog.LevelWarn, expectLog: true},
		{name: "error at error handler", level: observability.LevelError, minLevel: slog.LevelError, expectLog: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var buf bytes.Buffer
			logger := slog.New(slog.NewTextHandler(&buf, &slog.HandlerOptions{
				Level: tt.minLevel,
			}))

			obs := observability.NewSlogObserver(logger)
			obs.OnEvent(context.Background(), observability.Event{
				Type:      "test.event",
				Level:     tt.level,
				Timestamp: time.Now(),
				Source:    "test",
			})

			hasOutput := buf.Len() > 0
			if hasOutput != tt.expectLog {
				t.Errorf("log output = %v, want %v (buf: %q)", hasOutput, tt.expectLog, buf.String())
			}
		})
	}
}

func TestSlogObserver_EventTypeAsMessage(t *testing.T) {
	var buf bytes.Buffer
	logger := slog.New(slog.NewTextHandler(&buf, &slog.HandlerOptions{
		Level: slog.LevelDebug,
	}))

	obs := observability.NewSlogObserver(logger)
	obs.OnEvent(context.Background(), observability.Event{
		Type:      "memento.backup",
		Level:     observability.LevelInfo,
		Timestamp: time.Now(),
		Source:    "memento.History",
		Data: map[string]any{
			"entries": 3,
		},
	})

	output := buf.String()
	if !strings.Contains(output, "memento.backup") {
		t.Errorf("expected event type as log message, got: %s", output)
	}
	if !strings.Contains(output, "source=memento.History") {
		t.Errorf("expected source attribute, got: %s", output)
	}
	if !strings.Contains(output, "entries=3") {
		t.Errorf("expected data attributes, got: %s", output)
	}
}

func TestSlogObserver_SortedAttributes(t *testing.T) {
	var buf bytes.Buffer
	logger := slog.New(slog.NewTextHandler(&buf, nil))

	observability.NewSlogObserver(logger).OnEvent(context.Background(), observability.Event{
		Type:  "machine.transition",
		Level: observability.LevelInfo,
		Data:  map[string]any{"to": "B", "from": "A"},
	})

	output := buf.String()
	if strings.Index(output, "from=A") > strings.Index(output, "to=B") {
		t.Errorf("expected data attributes sorted by key, got: %s", output)
	}
}

func TestRegistry_GetObserver(t *testing.T) {
	tests := []struct {
		name    string
		key     string
		wantErr bool
	}{
		{name: "noop exists", key: "noop", wantErr: false},
		{name: "slog exists", key: "slog", wantErr: false},
		{name: "empty resolves to noop", key: "", wantErr: false},
		{name: "unknown fails", key: "nonexistent", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			obs, err := observability.GetObserver(tt.key)
			if (err != nil) != tt.wantErr {
				t.Errorf("GetObserver(%q) error = %v, wantErr %v", tt.key, err, tt.wantErr)
			}
			if !tt.wantErr && obs == nil {
				t.Errorf("GetObserver(%q) returned nil observer", tt.key)
			}
		})
	}
}

func TestRegistry_RegisterAndGet(t *testing.T) {
	rec := observability.NewRecorder()

	observability.RegisterObserver("test-custom", rec)

	obs, err := observability.GetObserver("test-custom")
	if err != nil {
		t.Fatalf("GetObserver failed: %v", err)
	}

	obs.OnEvent(context.Background(), observability.Event{
		Type:  "test.event",
		Level: observability.LevelInfo,
	})

	if len(rec.Events()) != 1 {
		t.Errorf("received %d events, want 1", len(rec.Events()))
	}

	found := false
	for _, name := range observability.Observers() {
		if name == "test-custom" {
			found = true
		}
	}
	if !found {
		t.Error("Observers() does not list test-custom")
	}
}

func TestRecorder_FilterAndReset(t *testing.T) {
	rec := observability.NewRecorder()
	ctx := context.Background()

	rec.OnEvent(ctx, observability.Event{Type: "a"})
	rec.OnEvent(ctx, observability.Event{Type: "b"})
	rec.OnEvent(ctx, observability.Event{Type: "a"})

	if got := len(rec.Filter("a")); got != 2 {
		t.Errorf("Filter(a) = %d events, want 2", got)
	}
	types := rec.Types()
	if len(types) != 3 || types[1] != "b" {
		t.Errorf("Types() = %v, want [a b a]", types)
	}

	rec.Reset()
	if len(rec.Events()) != 0 {
		t.Errorf("Events() after Reset = %d, want 0", len(rec.Events()))
	}
}
