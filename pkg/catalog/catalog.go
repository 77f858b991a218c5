// Package catalog describes the registered commands from their parameter
// metadata, as markdown for people and JSON for tools.
package catalog

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/charmbracelet/glamour"
	"github.com/invopop/jsonschema"

	"github.com/ormasoftchile/geoprocessor/pkg/command"
)

// Entry describes one command type.
type Entry struct {
	Name       string                      `json:"name" jsonschema:"required"`
	Kind       string                      `json:"kind" jsonschema:"required"`
	Parameters []command.ParameterMetadata `json:"parameters"`
}

// Build returns an entry per command registered with f, sorted by name.
func Build(f *command.Factory) []Entry {
	names := f.Names()
	out := make([]Entry, 0, len(names))
	for _, name := range names {
		ctor, ok := f.Lookup(name)
		if !ok {
			continue
		}
		c := ctor()
		meta := c.Metadata()
		if meta == nil {
			meta = []command.ParameterMetadata{}
		}
		out = append(out, Entry{Name: c.Name(), Kind: c.Kind().String(), Parameters: meta})
	}
	return out
}

// Find returns the entry named name, case-insensitively.
func Find(entries []Entry, name string) (Entry, bool) {
	for _, e := range entries {
		if strings.EqualFold(e.Name, name) {
			return e, true
		}
	}
	return Entry{}, false
}

// Markdown renders entries as a markdown document with one parameter table
// per command.
func Markdown(entries []Entry) string {
	var b strings.Builder
	b.WriteString("# Commands\n\n")
	for _, e := range entries {
		fmt.Fprintf(&b, "## %s\n\n", e.Name)
		if e.Kind != command.KindCommand.String() {
			fmt.Fprintf(&b, "Control flow: `%s`.\n\n", e.Kind)
		}
		if len(e.Parameters) == 0 {
			b.WriteString("No parameters.\n\n")
			continue
		}
		b.WriteString("| Parameter | Type | Required | Default | Description |\n")
		b.WriteString("|---|---|---|---|---|\n")
		for _, p := range e.Parameters {
			req := ""
			if p.Required {
				req = "yes"
			}
			desc := p.Description
			if len(p.Choices) > 0 {
				desc = strings.TrimSpace(desc + " One of: " + strings.Join(p.Choices, ", ") + ".")
			}
			fmt.Fprintf(&b, "| `%s` | %s | %s | %s | %s |\n", p.Name, p.Type, req, cell(p.Default), cell(desc))
		}
		b.WriteString("\n")
	}
	return b.String()
}

func cell(s string) string {
	return strings.ReplaceAll(s, "|", `\|`)
}

// Render styles markdown for a terminal of the given width; zero disables
// wrapping.
func Render(md string, width int) (string, error) {
	r, err := glamour.NewTermRenderer(
		glamour.WithAutoStyle(),
		glamour.WithWordWrap(width),
	)
	if err != nil {
		return "", fmt.Errorf("create renderer: %w", err)
	}
	out, err := r.Render(md)
	if err != nil {
		return "", fmt.Errorf("render markdown: %w", err)
	}
	return out, nil
}

// JSON returns entries as indented JSON.
func JSON(entries []Entry) ([]byte, error) {
	out, err := json.MarshalIndent(entries, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("marshal catalog: %w", err)
	}
	return out, nil
}

// Schema returns the JSON Schema of the catalog document.
func Schema() ([]byte, error) {
	r := new(jsonschema.Reflector)
	s := r.Reflect(&[]Entry{})
	s.ID = "https://github.com/ormasoftchile/geoprocessor/schemas/commands.json"
	s.Title = "gp command catalog"
	out, err := json.MarshalIndent(s, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("marshal catalog schema: %w", err)
	}
	return out, nil
}
