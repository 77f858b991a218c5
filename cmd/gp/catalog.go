package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/ormasoftchile/geoprocessor/pkg/catalog"
	"github.com/ormasoftchile/geoprocessor/pkg/command"
)

// --- commands ---

var (
	commandsJSON  bool
	commandsRaw   bool
	commandsWidth int
)

var commandsCmd = &cobra.Command{
	Use:   "commands [name]",
	Short: "Describe the available commands and their parameters",
	Args:  cobra.MaximumNArgs(1),
	RunE:  runCommands,
}

func init() {
	commandsCmd.Flags().BoolVar(&commandsJSON, "json", false, "Output the catalog as JSON")
	commandsCmd.Flags().BoolVar(&commandsRaw, "markdown", false, "Output plain markdown instead of rendering it")
	commandsCmd.Flags().IntVar(&commandsWidth, "width", 100, "Wrap rendered output at this width")
}

func runCommands(cmd *cobra.Command, args []string) error {
	entries := catalog.Build(command.Default)
	if len(args) == 1 {
		e, ok := catalog.Find(entries, args[0])
		if !ok {
			return fmt.Errorf("unknown command %q", args[0])
		}
		entries = []catalog.Entry{e}
	}
	out := cmd.OutOrStdout()
	if commandsJSON {
		data, err := catalog.JSON(entries)
		if err != nil {
			return err
		}
		_, err = fmt.Fprintln(out, string(data))
		return err
	}
	md := catalog.Markdown(entries)
	if commandsRaw {
		_, err := fmt.Fprint(out, md)
		return err
	}
	rendered, err := catalog.Render(md, commandsWidth)
	if err != nil {
		return err
	}
	_, err = fmt.Fprint(out, rendered)
	return err
}
