package commands

import (
	"errors"
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/Sumatoshi-tech/colprofile/pkg/config"
	"github.com/Sumatoshi-tech/colprofile/pkg/profile"
)

// ErrInvalidColumnRef is returned for an empty --values or --top reference.
var ErrInvalidColumnRef = errors.New("invalid column reference")

// ProfileCommand holds flags and dependencies for the profile command.
type ProfileCommand struct {
	input inputFlags

	columns     []profile.ColumnSpec
	topN        int
	exclude     []string
	skipEmpty   bool
	requireData bool

	deps deps
}

// NewProfileCommand creates the profile command.
func NewProfileCommand() *cobra.Command {
	return newProfileCommandWithDeps(defaultDeps())
}

func newProfileCommandWithDeps(d deps) *cobra.Command {
	pc := &ProfileCommand{deps: d}

	cmd := &cobra.Command{
		Use:   "profile [location]",
		Short: "Profile the columns of a CSV file",
		Long: `Fetch a CSV by URL or path, decode it with the first candidate encoding
that succeeds, and report the distinct values of the selected columns.

Columns are chosen with --values (listed in value order) and --top
(listed by descending count). REF is a 0-based column index or a header
name, optionally followed by =LABEL. Without columns every column is
profiled.

Examples:
  colprofile profile https://example.org/sites.csv --values 9=월 --top 업태
  colprofile profile sites.csv --encodings euc-kr --top 12 --format json
  cat sites.csv | colprofile profile --stdin --top region --top-n 5`,
		Args: cobra.MaximumNArgs(1),
		RunE: pc.run,
	}

	pc.input.register(cmd)

	fl := cmd.Flags()
	fl.Var(&columnFlag{specs: &pc.columns, sort: profile.SortValue}, "values",
		"Column to list distinct values of, in value order (REF[=LABEL], repeatable)")
	fl.Var(&columnFlag{specs: &pc.columns, sort: profile.SortCount}, "top",
		"Column to list most frequent values of (REF[=LABEL], repeatable)")
	fl.IntVar(&pc.topN, "top-n", config.DefaultTopN, "Number of values listed for --top columns")
	fl.StringSliceVar(&pc.exclude, "exclude", nil, "Values to leave out of every column")
	fl.BoolVar(&pc.skipEmpty, "skip-empty", false, "Leave empty values out of every column")
	fl.BoolVar(&pc.requireData, "require-data", false, "Fail when the CSV has no header row")

	return cmd
}

func (pc *ProfileCommand) run(cmd *cobra.Command, args []string) error {
	s, err := pc.deps.open(cmd, &pc.input, args, func(cfg *config.Config) {
		pc.apply(cmd, cfg)
	})
	if err != nil {
		return err
	}

	specs := pc.columns
	if len(specs) == 0 {
		specs = s.cfg.Profile.Specs()
	}

	return errors.Join(s.runAndReport(cmd, specs, true), s.close(cmd.Context()))
}

func (pc *ProfileCommand) apply(cmd *cobra.Command, cfg *config.Config) {
	fl := cmd.Flags()

	if fl.Changed("top-n") {
		cfg.Profile.TopN = pc.topN
	}

	if fl.Changed("exclude") {
		cfg.Profile.Exclude = pc.exclude
	}

	if fl.Changed("skip-empty") {
		cfg.Profile.SkipEmpty = pc.skipEmpty
	}

	if fl.Changed("require-data") {
		cfg.Profile.RequireData = pc.requireData
	}
}

// ParseColumnRef parses REF[=LABEL] where REF is a 0-based index or a
// header name.
func ParseColumnRef(value string, order profile.Sort) (profile.ColumnSpec, error) {
	ref, label, _ := strings.Cut(value, "=")

	ref = strings.TrimSpace(ref)
	if ref == "" {
		return profile.ColumnSpec{}, fmt.Errorf("%w: %q", ErrInvalidColumnRef, value)
	}

	spec := profile.ParseRef(ref)
	spec.Label = strings.TrimSpace(label)
	spec.Sort = order

	return spec, nil
}

// columnFlag appends to a shared list so that --values and --top keep the
// order they were given in.
type columnFlag struct {
	specs *[]profile.ColumnSpec
	sort  profile.Sort
}

func (f *columnFlag) String() string {
	return ""
}

func (f *columnFlag) Set(value string) error {
	spec, err := ParseColumnRef(value, f.sort)
	if err != nil {
		return err
	}

	*f.specs = append(*f.specs, spec)

	return nil
}

func (f *columnFlag) Type() string {
	return "REF[=LABEL]"
}
