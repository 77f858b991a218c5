//go:build ignore

package main

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/ormasoftchile/geoprocessor/pkg/catalog"
	"github.com/ormasoftchile/geoprocessor/pkg/command"
	"github.com/ormasoftchile/geoprocessor/pkg/config"
	"github.com/ormasoftchile/geoprocessor/pkg/report"

	_ "github.com/ormasoftchile/geoprocessor/pkg/commands"
	_ "github.com/ormasoftchile/geoprocessor/pkg/controlflow"
)

func main() {
	if err := os.MkdirAll("schemas", 0o755); err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
	for name, gen := range map[string]func() ([]byte, error){
		"config.json":   config.Schema,
		"commands.json": catalog.Schema,
		"report.json":   report.Schema,
		"catalog.json": func() ([]byte, error) {
			return catalog.JSON(catalog.Build(command.Default))
		},
	} {
		data, err := gen()
		if err != nil {
			fmt.Fprintf(os.Stderr, "error generating %s: %v\n", name, err)
			os.Exit(1)
		}
		path := filepath.Join("schemas", name)
		if err := os.WriteFile(path, append(data, '\n'), 0o644); err != nil {
			fmt.Fprintf(os.Stderr, "write: %v\n", err)
			os.Exit(1)
		}
		fmt.Println("wrote", path)
	}
}
