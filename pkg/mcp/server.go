// Package mcp exposes command files to MCP clients: run, validate, format
// and the command catalog.
package mcp

import (
	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"
)

// NewServer creates an MCP server with the gp tools registered.
func NewServer(version string) *server.MCPServer {
	s := server.NewMCPServer(
		"gp",
		version,
		server.WithToolCapabilities(true),
	)

	s.AddTool(
		mcp.NewTool("gp/run",
			mcp.WithDescription("Run a command file and report the worst status and the commands that did not succeed"),
			mcp.WithString("path", mcp.Required(), mcp.Description("Path to the command file")),
			mcp.WithObject("properties", mcp.Description("Initial processor properties")),
		),
		HandleRun,
	)

	s.AddTool(
		mcp.NewTool("gp/validate",
			mcp.WithDescription("Parse and validate a command file without running it"),
			mcp.WithString("path", mcp.Required(), mcp.Description("Path to the command file")),
		),
		HandleValidate,
	)

	s.AddTool(
		mcp.NewTool("gp/format",
			mcp.WithDescription("Return a command file in canonical form"),
			mcp.WithString("path", mcp.Required(), mcp.Description("Path to the command file")),
			mcp.WithBoolean("all", mcp.Description("Include optional parameters that are not set")),
		),
		HandleFormat,
	)

	s.AddTool(
		mcp.NewTool("gp/commands",
			mcp.WithDescription("List the available commands and their parameters"),
			mcp.WithString("name", mcp.Description("Only describe this command")),
		),
		HandleCommands,
	)

	return s
}
