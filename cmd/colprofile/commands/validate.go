package commands

import (
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"github.com/Sumatoshi-tech/colprofile/pkg/report"
)

// NewValidateCommand creates the validate command.
func NewValidateCommand() *cobra.Command {
	var noColor bool

	cmd := &cobra.Command{
		Use:   "validate <report.json>",
		Short: "Validate a saved JSON report against the report schema",
		Long: `Check that a report written with "--format json" matches the embedded
JSON schema. Use "-" to read the report from standard input.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runValidate(cmd, args[0], noColor)
		},
	}

	cmd.Flags().BoolVar(&noColor, "no-color", false, "Disable colored output")

	return cmd
}

func runValidate(cmd *cobra.Command, path string, noColor bool) error {
	data, err := readReport(cmd, path)
	if err != nil {
		return err
	}

	ok := color.New(color.FgGreen)
	bad := color.New(color.FgRed)

	if noColor {
		ok.DisableColor()
		bad.DisableColor()
	}

	out := cmd.OutOrStdout()

	err = report.ValidateJSON(data)
	if err == nil {
		ok.Fprintf(out, "%s: valid report\n", path)

		return nil
	}

	var verr *report.ValidationError
	if !errors.As(err, &verr) {
		return err
	}

	bad.Fprintf(out, "%s: %d problem(s)\n", path, len(verr.Problems))

	for _, p := range verr.Problems {
		fmt.Fprintf(out, "  %s: %s\n", p.Field, p.Description)
	}

	return report.ErrInvalidReport
}

func readReport(cmd *cobra.Command, path string) ([]byte, error) {
	if path == "-" {
		data, err := io.ReadAll(cmd.InOrStdin())
		if err != nil {
			return nil, fmt.Errorf("read stdin: %w", err)
		}

		return data, nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read report: %w", err)
	}

	return data, nil
}
