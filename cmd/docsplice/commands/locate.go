package commands

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/jedib0t/go-pretty/v6/text"
	"github.com/spf13/cobra"

	"github.com/Sumatoshi-tech/docsplice/pkg/docstring"
)

// previewWidth bounds the docstring preview column.
const previewWidth = 60

// LocateCommand holds the flags for the locate command.
type LocateCommand struct {
	filter  string
	asJSON  bool
	noColor bool
}

// NewLocateCommand creates and configures the locate command.
func NewLocateCommand() *cobra.Command {
	cmd := &LocateCommand{}

	cobraCmd := &cobra.Command{
		Use:   "locate <file>",
		Short: "List the docstrings of a Python file",
		Args:  cobra.ExactArgs(1),
		RunE:  cmd.Run,
	}

	flags := cobraCmd.Flags()
	flags.StringVarP(&cmd.filter, flagFilter, "f", docstring.FilterAll.String(), "Docstrings to list: all, function, module or class")
	flags.BoolVar(&cmd.asJSON, "json", false, "Print units as JSON")
	flags.BoolVar(&cmd.noColor, flagNoColor, false, "Disable colored output")

	return cobraCmd
}

// Run executes the locate command.
func (c *LocateCommand) Run(cmd *cobra.Command, args []string) error {
	applyColor(c.noColor)

	filter, err := docstring.ParseFilter(c.filter)
	if err != nil {
		return err
	}

	units, err := docstring.LocateFile(args[0], filter)
	if err != nil {
		return err
	}

	if c.asJSON {
		return writeUnitsJSON(cmd.OutOrStdout(), units)
	}

	writeUnitsTable(cmd.OutOrStdout(), units)

	return nil
}

func writeUnitsJSON(w io.Writer, units []docstring.Unit) error {
	if units == nil {
		units = []docstring.Unit{}
	}

	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")

	err := enc.Encode(units)
	if err != nil {
		return fmt.Errorf("encode units: %w", err)
	}

	return nil
}

func writeUnitsTable(w io.Writer, units []docstring.Unit) {
	tbl := table.NewWriter()
	tbl.SetOutputMirror(w)
	tbl.SetStyle(table.StyleLight)
	tbl.AppendHeader(table.Row{"#", "Kind", "Lines", "Docstring"})

	for i, unit := range units {
		summary, _, _ := strings.Cut(unit.Text, "\n")

		tbl.AppendRow(table.Row{
			i + 1, unit.Kind,
			fmt.Sprintf("%d-%d", unit.StartLine, unit.EndLine-1),
			text.Trim(summary, previewWidth),
		})
	}

	tbl.AppendFooter(table.Row{"", "", "", fmt.Sprintf("Total: %d docstrings", len(units))})
	tbl.Render()
}
