package trace

import (
	"bytes"
	"encoding/json"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"
)

func TestWriter_Emit(t *testing.T) {
	var buf bytes.Buffer
	tw := NewWriter(&buf, "test-run-1")

	err := tw.EmitCommandStart(3, "SetProperty")
	if err != nil {
		t.Fatalf("Emit error: %v", err)
	}

	var evt Event
	if err := json.Unmarshal(buf.Bytes(), &evt); err != nil {
		t.Fatalf("JSON unmarshal: %v (raw: %s)", err, buf.String())
	}
	if evt.Type != EventCommandStart {
		t.Errorf("type = %q, want command_start", evt.Type)
	}
	if evt.RunID != "test-run-1" {
		t.Errorf("run_id = %q", evt.RunID)
	}
	if evt.Data["name"] != "SetProperty" {
		t.Errorf("name = %v", evt.Data["name"])
	}
	if evt.Data["index"] != float64(3) {
		t.Errorf("index = %v", evt.Data["index"])
	}
}

func TestWriter_EmitCommandComplete_WithError(t *testing.T) {
	var buf bytes.Buffer
	tw := NewWriter(&buf, "run-1")

	if err := tw.EmitCommandComplete(0, "Bad", "Failure", 5*time.Millisecond, errors.New("boom")); err != nil {
		t.Fatal(err)
	}

	var evt Event
	json.Unmarshal(buf.Bytes(), &evt)
	if evt.Data["severity"] != "Failure" {
		t.Errorf("severity = %v", evt.Data["severity"])
	}
	if evt.Data["error"] != "boom" {
		t.Errorf("error = %v", evt.Data["error"])
	}
}

func TestWriter_HashChaining(t *testing.T) {
	var buf bytes.Buffer
	tw := NewWriter(&buf, "run-1")

	tw.EmitRunStart("a.gp", 2, nil)
	tw.EmitForIteration(0, "i", "i", 1)
	tw.EmitIfEvaluated(1, "c", "1 > 0", true)

	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	if len(lines) != 3 {
		t.Fatalf("expected 3 lines, got %d", len(lines))
	}

	var events []Event
	for i, line := range lines {
		var evt Event
		if err := json.Unmarshal([]byte(line), &evt); err != nil {
			t.Fatalf("line %d: JSON unmarshal: %v", i, err)
		}
		if evt.PrevHash == "" {
			t.Errorf("line %d: prev_hash is empty", i)
		}
		events = append(events, evt)
	}
	if events[0].PrevHash != strings.Repeat("0", 64) {
		t.Errorf("first event prev_hash = %q, want 64 zeros", events[0].PrevHash)
	}
	if events[1].PrevHash == events[0].PrevHash {
		t.Error("second event should have different prev_hash from first")
	}
}

func TestWriter_RunComplete_ChainHash(t *testing.T) {
	var buf bytes.Buffer
	tw := NewWriter(&buf, "run-1")

	tw.EmitCommandStart(0, "Message")
	tw.EmitRunComplete("Success", time.Second, nil)

	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	var evt Event
	json.Unmarshal([]byte(lines[len(lines)-1]), &evt)

	chainHash, ok := evt.Data["chain_hash"].(string)
	if !ok || len(chainHash) != 64 {
		t.Errorf("chain_hash = %v, want 64 hex chars", evt.Data["chain_hash"])
	}
	if chainHash != evt.PrevHash {
		t.Error("chain_hash should equal the hash of the previous line")
	}
}

func TestWriter_Nil(t *testing.T) {
	var tw *Writer
	if err := tw.EmitNestedRun("x.gp", "Success", "", 0); err != nil {
		t.Errorf("nil writer Emit = %v", err)
	}
	if err := tw.Close(); err != nil {
		t.Errorf("nil writer Close = %v", err)
	}
}

func TestNewFileWriter(t *testing.T) {
	path := filepath.Join(t.TempDir(), "trace.jsonl")
	tw, err := NewFileWriter(path, NewRunID())
	if err != nil {
		t.Fatal(err)
	}
	tw.EmitNestedRun("child.gp", "Failure", "Failure", time.Millisecond)
	if err := tw.Close(); err != nil {
		t.Fatal(err)
	}
	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatal(err)
	}
	var evt Event
	if err := json.Unmarshal(bytes.TrimSpace(data), &evt); err != nil {
		t.Fatal(err)
	}
	if evt.Type != EventNestedRun || evt.Data["expected_status"] != "Failure" {
		t.Errorf("event = %+v", evt)
	}
	if len(evt.RunID) != 36 {
		t.Errorf("run id %q is not a UUID", evt.RunID)
	}
}
