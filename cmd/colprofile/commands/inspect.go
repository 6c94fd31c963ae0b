package commands

import (
	"errors"

	"github.com/spf13/cobra"
)

type inspectCommand struct {
	input inputFlags
	deps  deps
}

// NewInspectCommand creates the inspect command.
func NewInspectCommand() *cobra.Command {
	return newInspectCommandWithDeps(defaultDeps())
}

func newInspectCommandWithDeps(d deps) *cobra.Command {
	ic := &inspectCommand{deps: d}

	cmd := &cobra.Command{
		Use:   "inspect [location]",
		Short: "Show the header and sample rows of a CSV file",
		Long: `Fetch and decode a CSV, then list its header with spreadsheet column
letters and the first few data rows. Use it to find the column indices
to pass to "colprofile profile".`,
		Args: cobra.MaximumNArgs(1),
		RunE: ic.run,
	}

	ic.input.register(cmd)

	return cmd
}

func (ic *inspectCommand) run(cmd *cobra.Command, args []string) error {
	s, err := ic.deps.open(cmd, &ic.input, args, nil)
	if err != nil {
		return err
	}

	return errors.Join(s.runAndReport(cmd, nil, false), s.close(cmd.Context()))
}
