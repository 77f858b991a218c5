// Package trace writes the processor's append-only JSONL run log.
package trace

import (
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
)

// EventType enumerates the trace event types.
type EventType string

const (
	EventRunStart        EventType = "run_start"
	EventRunComplete     EventType = "run_complete"
	EventCommandStart    EventType = "command_start"
	EventCommandComplete EventType = "command_complete"
	EventForIteration    EventType = "for_iteration"
	EventIfEvaluated     EventType = "if_evaluated"
	EventNestedRun       EventType = "nested_run"
)

// Event is a single trace event written to the JSONL stream.
type Event struct {
	Type      EventType      `json:"type"`
	Timestamp time.Time      `json:"timestamp"`
	RunID     string         `json:"run_id"`
	Data      map[string]any `json:"data,omitempty"`
	// PrevHash is the SHA-256 of the previous JSONL line; 64 zeros for the first.
	PrevHash string `json:"prev_hash"`
}

// NewRunID returns a fresh run identifier.
func NewRunID() string { return uuid.NewString() }

// Writer writes trace events to a JSONL stream. A nil *Writer discards events.
type Writer struct {
	mu       sync.Mutex
	w        io.Writer
	runID    string
	prevHash string
	closer   io.Closer
}

// NewWriter creates a trace writer that writes to w.
func NewWriter(w io.Writer, runID string) *Writer {
	return &Writer{w: w, runID: runID, prevHash: strings.Repeat("0", 64)}
}

// NewFileWriter creates a trace writer that appends to a JSONL file.
func NewFileWriter(path, runID string) (*Writer, error) {
	f, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
	if err != nil {
		return nil, fmt.Errorf("open trace file: %w", err)
	}
	tw := NewWriter(f, runID)
	tw.closer = f
	return tw, nil
}

// RunID returns the run identifier stamped on every event.
func (tw *Writer) RunID() string {
	if tw == nil {
		return ""
	}
	return tw.runID
}

// Close closes the file opened by NewFileWriter.
func (tw *Writer) Close() error {
	if tw == nil || tw.closer == nil {
		return nil
	}
	return tw.closer.Close()
}

// Emit writes a single trace event.
func (tw *Writer) Emit(eventType EventType, data map[string]any) error {
	if tw == nil {
		return nil
	}
	tw.mu.Lock()
	defer tw.mu.Unlock()

	if eventType == EventRunComplete {
		if data == nil {
			data = map[string]any{}
		}
		data["chain_hash"] = tw.prevHash
	}
	line, err := json.Marshal(Event{
		Type:      eventType,
		Timestamp: time.Now().UTC(),
		RunID:     tw.runID,
		Data:      data,
		PrevHash:  tw.prevHash,
	})
	if err != nil {
		return fmt.Errorf("marshal trace event: %w", err)
	}
	sum := sha256.Sum256(line)
	tw.prevHash = hex.EncodeToString(sum[:])
	_, err = tw.w.Write(append(line, '\n'))
	return err
}

// EmitRunStart emits a run_start event.
func (tw *Writer) EmitRunStart(file string, commands int, properties map[string]any) error {
	data := map[string]any{
		"command_file": file,
		"commands":     commands,
	}
	if len(properties) > 0 {
		data["properties"] = properties
	}
	return tw.Emit(EventRunStart, data)
}

// EmitRunComplete emits a run_complete event.
func (tw *Writer) EmitRunComplete(worst string, duration time.Duration, fatal error) error {
	data := map[string]any{
		"worst_severity": worst,
		"duration":       duration.String(),
	}
	if fatal != nil {
		data["error"] = fatal.Error()
	}
	return tw.Emit(EventRunComplete, data)
}

// EmitCommandStart emits a command_start event.
func (tw *Writer) EmitCommandStart(index int, name string) error {
	return tw.Emit(EventCommandStart, map[string]any{
		"index": index,
		"name":  name,
	})
}

// EmitCommandComplete emits a command_complete event with the command's
// Run-phase severity.
func (tw *Writer) EmitCommandComplete(index int, name, severity string, duration time.Duration, err error) error {
	data := map[string]any{
		"index":    index,
		"name":     name,
		"severity": severity,
		"duration": duration.String(),
	}
	if err != nil {
		data["error"] = err.Error()
	}
	return tw.Emit(EventCommandComplete, data)
}

// EmitForIteration emits a for_iteration event.
func (tw *Writer) EmitForIteration(index int, loop, property string, value any) error {
	return tw.Emit(EventForIteration, map[string]any{
		"index":    index,
		"loop":     loop,
		"property": property,
		"value":    value,
	})
}

// EmitIfEvaluated emits an if_evaluated event.
func (tw *Writer) EmitIfEvaluated(index int, block, condition string, result bool) error {
	return tw.Emit(EventIfEvaluated, map[string]any{
		"index":     index,
		"block":     block,
		"condition": condition,
		"result":    result,
	})
}

// EmitNestedRun emits a nested_run event.
func (tw *Writer) EmitNestedRun(path, worst, expected string, duration time.Duration) error {
	data := map[string]any{
		"path":           path,
		"worst_severity": worst,
		"duration":       duration.String(),
	}
	if expected != "" {
		data["expected_status"] = expected
	}
	return tw.Emit(EventNestedRun, data)
}
