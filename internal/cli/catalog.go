package cli

import (
	"errors"
	"fmt"
	"strings"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/spf13/cobra"

	"github.com/roach88/buildcheck/internal/catalog"
	"github.com/roach88/buildcheck/internal/ir"
)

// CatalogListing is the JSON payload of `catalog list`.
type CatalogListing struct {
	Version string          `json:"version"`
	Rules   []ir.ZoningRule `json:"rules"`
}

// CatalogIssue is one problem found by `catalog check`.
type CatalogIssue struct {
	Code    string `json:"code"`
	Message string `json:"message"`
	File    string `json:"file,omitempty"`
	Line    int    `json:"line,omitempty"`
}

// CatalogCheck is the JSON payload of `catalog check`.
type CatalogCheck struct {
	Valid   bool           `json:"valid"`
	Rules   int            `json:"rules"`
	Version string         `json:"version,omitempty"`
	Errors  []CatalogIssue `json:"errors,omitempty"`
}

// NewCatalogCommand creates the catalog command group.
func NewCatalogCommand(rootOpts *RootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "catalog",
		Short: "Inspect and check zoning rule catalogs",
	}
	cmd.AddCommand(newCatalogListCommand(rootOpts))
	cmd.AddCommand(newCatalogCheckCommand(rootOpts))
	return cmd
}

func newCatalogListCommand(rootOpts *RootOptions) *cobra.Command {
	var jurisdiction, district string

	cmd := &cobra.Command{
		Use:   "list",
		Short: "List the rules of the configured catalog",
		Long: `List the rules of the configured catalog.

--jurisdiction narrows the list to one jurisdiction. --district narrows it
further to the rules that apply in one zoning district.`,
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			formatter := newFormatter(rootOpts, cmd.OutOrStdout(), cmd.ErrOrStderr())
			if district != "" && jurisdiction == "" {
				return outputCommandError(formatter, "E_USAGE", "--district requires --jurisdiction")
			}
			a, err := newApp(rootOpts, cmd)
			if err != nil {
				return err
			}
			return runCatalogList(formatter, a.catalog, jurisdiction, district)
		},
	}

	cmd.Flags().StringVar(&jurisdiction, "jurisdiction", "", "only rules of this jurisdiction")
	cmd.Flags().StringVar(&district, "district", "", "only rules applying in this district")
	cmd.Flags().String("catalog", "", "rule catalog directory (default built-in)")
	return cmd
}

func runCatalogList(f *OutputFormatter, cat *catalog.Catalog, jurisdiction, district string) error {
	var rules []ir.ZoningRule
	switch {
	case district != "":
		rules = cat.Rules(jurisdiction, district)
	default:
		for _, r := range cat.All() {
			if jurisdiction == "" || r.JurisdictionID == jurisdiction {
				rules = append(rules, r)
			}
		}
	}
	if rules == nil {
		rules = []ir.ZoningRule{}
	}

	if f.JSON() {
		return f.Success(CatalogListing{Version: cat.Version(), Rules: rules})
	}

	rows := make([]table.Row, len(rules))
	for i, r := range rules {
		rows[i] = table.Row{r.ID, r.RuleType, ruleValue(r), strings.Join(r.AppliesTo, ", "), districtList(r), r.OrdinanceSection}
	}
	f.Table(table.Row{"Rule", "Type", "Value", "Applies To", "Districts", "Section"}, rows)
	fmt.Fprintf(f.Writer, "%d rule(s), catalog %s\n", len(rules), cat.Version())
	return nil
}

func ruleValue(r ir.ZoningRule) string {
	switch {
	case r.ValueNumeric != nil:
		return ir.FormatDecimal(*r.ValueNumeric) + " " + r.Unit
	case r.ValueText != "":
		return r.ValueText
	}
	return "-"
}

func districtList(r ir.ZoningRule) string {
	if len(r.Districts) == 0 {
		return "all"
	}
	return strings.Join(r.Districts, ", ")
}

func newCatalogCheckCommand(rootOpts *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "check <catalog-dir>",
		Short: "Check a catalog directory without loading it",
		Long: `Compile every rule in a catalog directory and report all malformed
rules, not just the first.

Exit codes:
  0 - Every rule compiled
  1 - One or more rules are malformed
  2 - The directory could not be read as a catalog`,
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			formatter := newFormatter(rootOpts, cmd.OutOrStdout(), cmd.ErrOrStderr())
			return runCatalogCheck(formatter, args[0])
		},
	}
}

func runCatalogCheck(f *OutputFormatter, dir string) error {
	cat, errs := catalog.LoadDir(dir, catalog.CollectAll)
	if cat == nil {
		issue := toIssue(errs[0])
		return outputCommandError(f, issue.Code, issue.Message)
	}
	f.VerboseLog("compiled %d rule(s) from %s", cat.Len(), dir)

	if len(errs) == 0 {
		if f.JSON() {
			return f.Success(CatalogCheck{Valid: true, Rules: cat.Len(), Version: cat.Version()})
		}
		fmt.Fprintf(f.Writer, "✓ %d rule(s) valid, catalog %s\n", cat.Len(), cat.Version())
		return nil
	}

	issues := make([]CatalogIssue, len(errs))
	for i, err := range errs {
		issues[i] = toIssue(err)
	}
	failure := NewExitError(ExitFailure, fmt.Sprintf("catalog check failed with %d error(s)", len(issues)))

	if f.JSON() {
		if err := f.encode(CLIResponse{
			Status: "error",
			Data:   CatalogCheck{Rules: cat.Len(), Errors: issues},
			Error:  &CLIError{Code: issues[0].Code, Message: issues[0].Message},
		}); err != nil {
			return err
		}
		return failure
	}

	fmt.Fprintln(f.Writer, "✗ Catalog check failed")
	fmt.Fprintln(f.Writer)
	for _, issue := range issues {
		if issue.Line > 0 {
			fmt.Fprintf(f.Writer, "%s:%d\n", issue.File, issue.Line)
		}
		fmt.Fprintf(f.Writer, "  %s: %s\n\n", issue.Code, issue.Message)
	}
	return failure
}

func toIssue(err error) CatalogIssue {
	var le *catalog.LoadError
	if !errors.As(err, &le) {
		return CatalogIssue{Code: catalog.ErrCodeGeneric, Message: err.Error()}
	}
	issue := CatalogIssue{Code: le.Code, Message: le.Message}
	if le.Pos.IsValid() {
		issue.File = le.Pos.Filename()
		issue.Line = le.Pos.Line()
	}
	return issue
}
