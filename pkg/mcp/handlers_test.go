package mcp

import (
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/mark3labs/mcp-go/mcp"
)

func writeGP(t *testing.T, lines ...string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "main.gp")
	if err := os.WriteFile(path, []byte(strings.Join(lines, "\n")+"\n"), 0o644); err != nil {
		t.Fatal(err)
	}
	return path
}

func call(t *testing.T, h func(context.Context, mcp.CallToolRequest) (*mcp.CallToolResult, error), args map[string]any) (*mcp.CallToolResult, string) {
	t.Helper()
	req := mcp.CallToolRequest{}
	req.Params.Arguments = args
	result, err := h(context.Background(), req)
	if err != nil {
		t.Fatal(err)
	}
	if len(result.Content) == 0 {
		t.Fatal("expected content")
	}
	tc, ok := result.Content[0].(mcp.TextContent)
	if !ok {
		t.Fatalf("content = %T, want text", result.Content[0])
	}
	return result, tc.Text
}

func TestHandlers_MissingPath(t *testing.T) {
	for name, h := range map[string]func(context.Context, mcp.CallToolRequest) (*mcp.CallToolResult, error){
		"run":      HandleRun,
		"validate": HandleValidate,
		"format":   HandleFormat,
	} {
		result, _ := call(t, h, map[string]any{})
		if !result.IsError {
			t.Errorf("%s: expected error for missing path", name)
		}
	}
}

func TestHandleRun(t *testing.T) {
	path := writeGP(t,
		`SetProperty(PropertyName="Region",PropertyValue="${Region}-x")`,
		`Message(Message="region ${Region}")`,
		`Message(Message="careful",CommandStatus="Warning")`,
	)
	result, text := call(t, HandleRun, map[string]any{
		"path":       path,
		"properties": map[string]any{"Region": "north"},
	})
	if result.IsError {
		t.Fatalf("unexpected error: %s", text)
	}
	var got struct {
		Worst    string           `json:"worst"`
		Commands int              `json:"commands"`
		Output   string           `json:"output"`
		Problems []map[string]any `json:"problems"`
	}
	if err := json.Unmarshal([]byte(text), &got); err != nil {
		t.Fatal(err)
	}
	if got.Worst != "Warning" || got.Commands != 3 || len(got.Problems) != 1 {
		t.Errorf("result = %+v", got)
	}
	if got.Output != "region north-x\ncareful\n" {
		t.Errorf("output = %q", got.Output)
	}
}

func TestHandleRun_Failure(t *testing.T) {
	path := writeGP(t, `Message(Message="bad",CommandStatus="Failure")`)
	result, text := call(t, HandleRun, map[string]any{"path": path})
	if !result.IsError || !strings.Contains(text, `"Failure"`) {
		t.Errorf("result = %v %s", result.IsError, text)
	}
}

func TestHandleValidate(t *testing.T) {
	tests := []struct {
		name    string
		lines   []string
		isError bool
		want    string
	}{
		{"valid", []string{`Message(Message="hi")`}, false, "is valid (1 commands)"},
		{"missing parameter", []string{`Message()`}, true, "line 1: Failure"},
		{"unmatched block", []string{`For(Name="i",ListValues="a")`}, true, "i"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result, text := call(t, HandleValidate, map[string]any{"path": writeGP(t, tt.lines...)})
			if result.IsError != tt.isError {
				t.Errorf("IsError = %v: %s", result.IsError, text)
			}
			if !strings.Contains(text, tt.want) {
				t.Errorf("text = %q, want it to contain %q", text, tt.want)
			}
		})
	}
}

func TestHandleFormat(t *testing.T) {
	path := writeGP(t, `Message( Message = "hi" )`, `# note`)
	result, text := call(t, HandleFormat, map[string]any{"path": path})
	if result.IsError {
		t.Fatal(text)
	}
	if text != "Message(Message=\"hi\")\n# note\n" {
		t.Errorf("format = %q", text)
	}
}

func TestHandleCommands(t *testing.T) {
	result, text := call(t, HandleCommands, map[string]any{"name": "setproperty"})
	if result.IsError || !strings.Contains(text, `"PropertyName"`) {
		t.Errorf("commands = %s", text)
	}
	result, _ = call(t, HandleCommands, map[string]any{"name": "Nope"})
	if !result.IsError {
		t.Error("expected error for unknown command")
	}
}

func TestNewServer(t *testing.T) {
	if NewServer("test") == nil {
		t.Fatal("nil server")
	}
}
