// Package commands holds the built-in workflow commands: properties,
// messages, nested command files and regression reports, delimited tables,
// and in-memory geolayers. Each registers itself with command.Default.
package commands

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/ormasoftchile/geoprocessor/pkg/command"
	"github.com/ormasoftchile/geoprocessor/pkg/registry"
)

func init() {
	command.Register("SetProperty", NewSetProperty)
	command.Register("Message", NewMessage)
	command.Register("RunCommands", NewRunCommands)
	command.Register("StartRegressionTestResultsReport", NewStartRegressionTestResultsReport)
	command.Register("WritePropertiesToFile", NewWritePropertiesToFile)
	command.Register("WriteCommandSummaryToFile", NewWriteCommandSummaryToFile)
	command.Register("ReadTableFromDelimitedFile", NewReadTableFromDelimitedFile)
	command.Register("WriteTableToDelimitedFile", NewWriteTableToDelimitedFile)
	command.Register("CreateGeoLayerFromGeometry", NewCreateGeoLayerFromGeometry)
	command.Register("CopyGeoLayer", NewCopyGeoLayer)
	command.Register("FreeGeoLayers", NewFreeGeoLayers)
}

// ifExists declares an If...Exists collision policy parameter.
func ifExists(name string) command.ParameterMetadata {
	return command.ParameterMetadata{
		Name:        name,
		Type:        command.String,
		Choices:     registry.Policies,
		Description: "Action when the ID already exists; defaults to the processor collision policy.",
	}
}

// policy returns the collision policy named by parameter name of b, falling
// back to the processor default.
func policy(b *command.Base, name string) (registry.Policy, error) {
	def := registry.Replace
	if proc := b.Processor(); proc != nil {
		def = proc.CollisionPolicy()
	}
	return registry.ParsePolicy(b.Expanded(name), def)
}

func procOf(b *command.Base) (command.Processor, error) {
	proc := b.Processor()
	if proc == nil {
		return nil, fmt.Errorf("%s requires a processor", b.Name())
	}
	return proc, nil
}

// createFile creates path and its parent directories.
func createFile(path string, appendMode bool) (*os.File, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, fmt.Errorf("create directory for %s: %w", path, err)
	}
	flags := os.O_CREATE | os.O_WRONLY | os.O_TRUNC
	if appendMode {
		flags = os.O_CREATE | os.O_WRONLY | os.O_APPEND
	}
	f, err := os.OpenFile(path, flags, 0o644)
	if err != nil {
		return nil, fmt.Errorf("open %s: %w", path, err)
	}
	return f, nil
}
