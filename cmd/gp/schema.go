package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/ormasoftchile/geoprocessor/pkg/catalog"
	"github.com/ormasoftchile/geoprocessor/pkg/config"
	"github.com/ormasoftchile/geoprocessor/pkg/report"
)

// --- schema ---

var schemaCmd = &cobra.Command{
	Use:       "schema <config|commands|report>",
	Short:     "Print a JSON Schema",
	Long:      "Print the JSON Schema of the project file (config), the command catalog (commands) or the regression report (report).",
	Args:      cobra.ExactArgs(1),
	ValidArgs: []string{"config", "commands", "report"},
	RunE:      runSchema,
}

func runSchema(cmd *cobra.Command, args []string) error {
	var (
		data []byte
		err  error
	)
	switch args[0] {
	case "config":
		data, err = config.Schema()
	case "commands":
		data, err = catalog.Schema()
	case "report":
		data, err = report.Schema()
	default:
		return fmt.Errorf("unknown schema %q (expected config, commands or report)", args[0])
	}
	if err != nil {
		return err
	}
	_, err = fmt.Fprintln(cmd.OutOrStdout(), string(data))
	return err
}
