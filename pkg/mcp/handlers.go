package mcp

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"strings"
	"time"

	"github.com/mark3labs/mcp-go/mcp"

	"github.com/ormasoftchile/geoprocessor/pkg/catalog"
	"github.com/ormasoftchile/geoprocessor/pkg/command"
	"github.com/ormasoftchile/geoprocessor/pkg/controlflow"
	"github.com/ormasoftchile/geoprocessor/pkg/processor"
	"github.com/ormasoftchile/geoprocessor/pkg/report"
	"github.com/ormasoftchile/geoprocessor/pkg/status"

	_ "github.com/ormasoftchile/geoprocessor/pkg/commands"
)

// Logger receives processor logs of tool calls. Stdout carries the MCP
// stream, so the default discards.
var Logger = slog.New(slog.NewTextHandler(io.Discard, nil))

func load(path string, cfg processor.Config) (*processor.Processor, error) {
	if cfg.Logger == nil {
		cfg.Logger = Logger
	}
	if cfg.Output == nil {
		cfg.Output = io.Discard
	}
	p := processor.New(cfg)
	if err := p.LoadFile(path); err != nil {
		return nil, err
	}
	return p, nil
}

// HandleRun implements the gp/run MCP tool.
func HandleRun(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	args := req.GetArguments()
	path, _ := args["path"].(string)
	if path == "" {
		return errorResult("path argument is required"), nil
	}
	props, _ := args["properties"].(map[string]any)

	var out bytes.Buffer
	p, err := load(path, processor.Config{Output: &out, Properties: props})
	if err != nil {
		return errorResult(err.Error()), nil
	}
	start := time.Now()
	runErr := p.Run(ctx, nil)

	worst := p.WorstSeverity()
	response := map[string]any{
		"worst":    worst.String(),
		"duration": time.Since(start).String(),
		"commands": len(p.Commands()),
	}
	if runErr != nil {
		worst = status.Failure
		response["worst"] = worst.String()
		response["error"] = runErr.Error()
	}
	var notOK []report.CommandRow
	for _, r := range p.Rows() {
		if r.Worst() >= status.Warning {
			notOK = append(notOK, r)
		}
	}
	if len(notOK) > 0 {
		response["problems"] = notOK
	}
	if out.Len() > 0 {
		response["output"] = out.String()
	}

	data, _ := json.MarshalIndent(response, "", "  ")
	return &mcp.CallToolResult{
		Content: []mcp.Content{mcp.NewTextContent(string(data))},
		IsError: worst >= status.Failure,
	}, nil
}

// HandleValidate implements the gp/validate MCP tool.
func HandleValidate(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	args := req.GetArguments()
	path, _ := args["path"].(string)
	if path == "" {
		return errorResult("path argument is required"), nil
	}
	p, err := load(path, processor.Config{})
	if err != nil {
		return errorResult(err.Error()), nil
	}
	problems, structErr := p.Check(status.Warning)

	var msgs []string
	failed := false
	for _, pr := range problems {
		failed = failed || pr.Record.Severity >= status.Failure
		msgs = append(msgs, fmt.Sprintf("line %d: %s", pr.Line, pr.Record))
	}
	var se *controlflow.StructureError
	if errors.As(structErr, &se) {
		failed = true
		msgs = append(msgs, se.Error())
	}
	if failed {
		return errorResult(strings.Join(msgs, "\n")), nil
	}
	text := fmt.Sprintf("✓ %s is valid (%d commands)", path, len(p.Commands()))
	if len(msgs) > 0 {
		text += "\n" + strings.Join(msgs, "\n")
	}
	return textResult(text), nil
}

// HandleFormat implements the gp/format MCP tool.
func HandleFormat(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	args := req.GetArguments()
	path, _ := args["path"].(string)
	if path == "" {
		return errorResult("path argument is required"), nil
	}
	all, _ := args["all"].(bool)
	p, err := load(path, processor.Config{})
	if err != nil {
		return errorResult(err.Error()), nil
	}
	return textResult(strings.Join(p.Format(all), "\n") + "\n"), nil
}

// HandleCommands implements the gp/commands MCP tool.
func HandleCommands(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	args := req.GetArguments()
	entries := catalog.Build(command.Default)
	if name, _ := args["name"].(string); name != "" {
		e, ok := catalog.Find(entries, name)
		if !ok {
			return errorResult(fmt.Sprintf("unknown command %q", name)), nil
		}
		entries = []catalog.Entry{e}
	}
	data, err := catalog.JSON(entries)
	if err != nil {
		return errorResult(err.Error()), nil
	}
	return textResult(string(data)), nil
}

func textResult(text string) *mcp.CallToolResult {
	return &mcp.CallToolResult{
		Content: []mcp.Content{
			mcp.NewTextContent(text),
		},
	}
}

func errorResult(msg string) *mcp.CallToolResult {
	return &mcp.CallToolResult{
		Content: []mcp.Content{
			mcp.NewTextContent(msg),
		},
		IsError: true,
	}
}
