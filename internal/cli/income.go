package cli

import (
	"context"
	"flag"
	"fmt"
	"io"
	"os"

	"github.com/folioworks/folio/internal/modules/dividends"
	"github.com/google/subcommands"
	"github.com/rs/zerolog"
)

type incomeCmd struct {
	input snapshotInput
	yield float64
	out   io.Writer
	log   zerolog.Logger
}

func (*incomeCmd) Name() string     { return "income" }
func (*incomeCmd) Synopsis() string { return "project dividend and interest income" }
func (*incomeCmd) Usage() string {
	return `folio income [-f snapshot.json] [-yield pct] [-json]

  Projects annual, quarterly and monthly income per holding.
`
}

func (c *incomeCmd) SetFlags(f *flag.FlagSet) {
	c.input.setFlags(f)
	f.Float64Var(&c.yield, "yield", dividends.DefaultDividendYield, "assumed stock dividend yield as a fraction")
}

func (c *incomeCmd) Execute(ctx context.Context, f *flag.FlagSet, _ ...interface{}) subcommands.ExitStatus {
	if err := c.input.validate(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		return subcommands.ExitUsageError
	}
	if c.yield < 0 {
		fmt.Fprintln(os.Stderr, "Error: yield must not be negative")
		return subcommands.ExitUsageError
	}
	snapshot, _, err := c.input.load(os.Stdin)
	if err != nil {
		return fail(err)
	}

	report := dividends.NewProjector(c.log).CalculateIncomeProjections(snapshot, c.yield)
	if c.input.asJSON {
		if err := printJSON(c.out, report); err != nil {
			return fail(err)
		}
		return subcommands.ExitSuccess
	}

	cur := c.input.currency
	w := newTable(c.out)
	fmt.Fprintln(w, "SYMBOL\tTYPE\tYIELD\tANNUAL\tMONTHLY")
	for _, p := range report.Projections {
		fmt.Fprintf(w, "%s\t%s\t%.2f%%\t%s\t%s\n", p.Symbol, p.Type, p.YieldRate, formatMoney(p.AnnualIncome, cur), formatMoney(p.MonthlyIncome, cur))
	}
	w.Flush()
	fmt.Fprintf(c.out, "\nAnnual %s, quarterly %s, monthly %s, average yield %.2f%%\n",
		formatMoney(report.TotalAnnualIncome, cur),
		formatMoney(report.TotalQuarterlyIncome, cur),
		formatMoney(report.TotalMonthlyIncome, cur),
		report.AverageYield)
	return subcommands.ExitSuccess
}
