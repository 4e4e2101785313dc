package cli

import (
	"context"
	"flag"
	"fmt"
	"io"
	"os"

	"github.com/folioworks/folio/internal/modules/risk"
	"github.com/folioworks/folio/pkg/formulas"
	"github.com/google/subcommands"
	"github.com/rs/zerolog"
)

type riskCmd struct {
	input        snapshotInput
	riskFreeRate float64
	out          io.Writer
	log          zerolog.Logger
}

func (*riskCmd) Name() string     { return "risk" }
func (*riskCmd) Synopsis() string { return "analyze the risk of a portfolio snapshot" }
func (*riskCmd) Usage() string {
	return `folio risk [-f snapshot.json] [-history values.json] [-rf rate] [-json]

  Prints the risk score, the key risk metrics and the recommendations.
`
}

func (c *riskCmd) SetFlags(f *flag.FlagSet) {
	c.input.setFlags(f)
	f.Float64Var(&c.riskFreeRate, "rf", formulas.DefaultRiskFreeRate, "annual risk-free rate")
}

func (c *riskCmd) Execute(ctx context.Context, f *flag.FlagSet, _ ...interface{}) subcommands.ExitStatus {
	if err := c.input.validate(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		return subcommands.ExitUsageError
	}
	snapshot, history, err := c.input.load(os.Stdin)
	if err != nil {
		return fail(err)
	}

	report := risk.NewEngine(c.log).AnalyzeRisk(snapshot, risk.Options{
		Returns:      formulas.CalculateReturns(history),
		RiskFreeRate: c.riskFreeRate,
	})
	if c.input.asJSON {
		if err := printJSON(c.out, report); err != nil {
			return fail(err)
		}
		return subcommands.ExitSuccess
	}

	m := report.Metrics
	w := newTable(c.out)
	fmt.Fprintf(w, "Risk score\t%d (%s)\n", report.RiskScore, report.RiskLevel)
	fmt.Fprintf(w, "Total value\t%s\n", formatMoney(m.TotalValue, c.input.currency))
	fmt.Fprintf(w, "Diversification\t%.1f\n", m.DiversificationScore)
	fmt.Fprintf(w, "Concentration\t%.1f%%\n", m.ConcentrationRisk)
	fmt.Fprintf(w, "Volatility\t%.2f%%\n", m.Volatility)
	fmt.Fprintf(w, "Sharpe\t%.2f\n", m.SharpeRatio)
	fmt.Fprintf(w, "Max drawdown\t%.2f%%\n", m.MaxDrawdown)
	w.Flush()

	for _, rec := range report.Recommendations {
		fmt.Fprintf(c.out, "[%s] %s\n", rec.Severity, rec.Message)
	}
	return subcommands.ExitSuccess
}
