package cli

import (
	"context"
	"flag"
	"fmt"
	"io"
	"os"

	"github.com/folioworks/folio/internal/modules/performance"
	"github.com/google/subcommands"
	"github.com/rs/zerolog"
)

type performanceCmd struct {
	input snapshotInput
	full  bool
	out   io.Writer
	log   zerolog.Logger
}

func (*performanceCmd) Name() string     { return "performance" }
func (*performanceCmd) Synopsis() string { return "report returns and per-holding performance" }
func (*performanceCmd) Usage() string {
	return `folio performance [-f snapshot.json] [-history values.json] [-full] [-json]

  Prints the return summary and the gain of every holding. With -full the
  JSON output is the complete report including attribution and risk metrics.
`
}

func (c *performanceCmd) SetFlags(f *flag.FlagSet) {
	c.input.setFlags(f)
	f.BoolVar(&c.full, "full", false, "produce the full report (JSON only)")
}

func (c *performanceCmd) Execute(ctx context.Context, f *flag.FlagSet, _ ...interface{}) subcommands.ExitStatus {
	if err := c.input.validate(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		return subcommands.ExitUsageError
	}
	snapshot, history, err := c.input.load(os.Stdin)
	if err != nil {
		return fail(err)
	}

	analyzer := performance.NewAnalyzer(c.log)
	if c.full {
		if err := printJSON(c.out, analyzer.GenerateReport(snapshot, history, nil)); err != nil {
			return fail(err)
		}
		return subcommands.ExitSuccess
	}

	report := analyzer.AnalyzePerformance(snapshot, history)
	if c.input.asJSON {
		if err := printJSON(c.out, report); err != nil {
			return fail(err)
		}
		return subcommands.ExitSuccess
	}

	cur := c.input.currency
	s := report.Summary
	fmt.Fprintf(c.out, "Value %s, cost %s, return %s (%.2f%%)\n\n",
		formatMoney(s.CurrentValue, cur), formatMoney(s.TotalCost, cur), formatMoney(s.AbsoluteReturn, cur), s.PercentReturn)

	w := newTable(c.out)
	fmt.Fprintln(w, "SYMBOL\tTYPE\tVALUE\tGAIN\tGAIN %")
	for _, a := range report.AssetPerformance {
		fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%.2f%%\n", a.Symbol, a.AssetType, formatMoney(a.Value, cur), formatMoney(a.Gain, cur), a.GainPercentage)
	}
	w.Flush()
	return subcommands.ExitSuccess
}
