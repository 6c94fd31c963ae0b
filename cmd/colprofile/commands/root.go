package commands

import (
	"fmt"
	"slices"

	"github.com/spf13/cobra"

	"github.com/Sumatoshi-tech/colprofile/pkg/version"
)

// NewRootCommand assembles the colprofile command tree.
func NewRootCommand() *cobra.Command {
	root := &cobra.Command{
		Use:   "colprofile",
		Short: "Profile the columns of a CSV file",
		Long: `colprofile fetches a CSV by URL or path, works out its text encoding and
reports the distinct values of selected columns.

Commands:
  profile   Column value listings (default when no command is given)
  inspect   Header and sample rows
  validate  Check a saved JSON report`,
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	root.AddCommand(NewProfileCommand())
	root.AddCommand(NewInspectCommand())
	root.AddCommand(NewValidateCommand())
	root.AddCommand(NewVersionCommand())

	return root
}

// NewVersionCommand prints build metadata.
func NewVersionCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Show version information",
		Args:  cobra.NoArgs,
		Run: func(cmd *cobra.Command, _ []string) {
			fmt.Fprintf(cmd.OutOrStdout(), "colprofile %s (commit: %s, built: %s)\n",
				version.Version, version.Commit, version.Date)
		},
	}
}

// helpArgs are root-level arguments that must not be routed to profile.
var helpArgs = []string{"-h", "--help", "help", "completion", "__complete", "__completeNoDesc"}

// DefaultToProfile prefixes args with "profile" unless they already name a
// subcommand, so that "colprofile data.csv --top 3" works.
func DefaultToProfile(root *cobra.Command, args []string) []string {
	if len(args) == 0 || slices.Contains(helpArgs, args[0]) {
		return args
	}

	if cmd, _, err := root.Find(args); err == nil && cmd != root {
		return args
	}

	return append([]string{"profile"}, args...)
}
