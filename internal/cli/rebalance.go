package cli

import (
	"context"
	"flag"
	"fmt"
	"io"
	"os"

	"github.com/folioworks/folio/internal/domain"
	"github.com/folioworks/folio/internal/modules/rebalancing"
	"github.com/google/subcommands"
	"github.com/rs/zerolog"
)

type rebalanceCmd struct {
	input    snapshotInput
	strategy string
	tax      bool
	out      io.Writer
	log      zerolog.Logger
}

func (*rebalanceCmd) Name() string     { return "rebalance" }
func (*rebalanceCmd) Synopsis() string { return "suggest trades that bring a portfolio back to target" }
func (*rebalanceCmd) Usage() string {
	return `folio rebalance [-f snapshot.json] [-strategy name] [-tax] [-json]

  Uses the snapshot's targetAllocation, or the named strategy preset when the
  snapshot has none or -strategy is given.
`
}

func (c *rebalanceCmd) SetFlags(f *flag.FlagSet) {
	c.input.setFlags(f)
	f.StringVar(&c.strategy, "strategy", "", "CONSERVATIVE, MODERATE, AGGRESSIVE or BALANCED")
	f.BoolVar(&c.tax, "tax", false, "order sells for tax-loss harvesting")
}

func (c *rebalanceCmd) Execute(ctx context.Context, f *flag.FlagSet, _ ...interface{}) subcommands.ExitStatus {
	if err := c.input.validate(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		return subcommands.ExitUsageError
	}
	if c.strategy != "" {
		if _, err := rebalancing.ParseStrategy(c.strategy); err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			return subcommands.ExitUsageError
		}
	}
	snapshot, _, err := c.input.load(os.Stdin)
	if err != nil {
		return fail(err)
	}

	target := c.target(snapshot)
	r := rebalancing.NewRebalancer(c.log)
	var plan rebalancing.Plan
	if c.tax {
		plan = r.CalculateTaxEfficientRebalancing(snapshot, target)
	} else {
		plan = r.CalculateRebalancing(snapshot, target)
	}

	if c.input.asJSON {
		if err := printJSON(c.out, plan); err != nil {
			return fail(err)
		}
		return subcommands.ExitSuccess
	}

	if len(plan.Suggestions) == 0 {
		fmt.Fprintf(c.out, "No rebalancing needed (total drift %.2f%%)\n", plan.TotalDrift)
		return subcommands.ExitSuccess
	}
	if !plan.NeedsRebalancing {
		fmt.Fprintf(c.out, "No rebalancing needed (total drift %.2f%% within %.0f%%), optional adjustments:\n\n",
			plan.TotalDrift, rebalancing.RebalanceTrigger)
	}

	cur := c.input.currency
	w := newTable(c.out)
	fmt.Fprintln(w, "ACTION\tTYPE\tAMOUNT\tDRIFT\tPRIORITY\tTAX")
	for _, s := range plan.Suggestions {
		fmt.Fprintf(w, "%s\t%s\t%s\t%+.2f%%\t%s\t%s\n", s.Action, s.AssetType, formatMoney(s.Amount, cur), s.Drift, s.Priority, s.TaxImpact)
	}
	w.Flush()
	fmt.Fprintf(c.out, "\nTotal drift %.2f%%, estimated cost %s\n", plan.TotalDrift, formatMoney(plan.EstimatedCost, cur))
	return subcommands.ExitSuccess
}

func (c *rebalanceCmd) target(snapshot domain.Snapshot) map[domain.AssetType]float64 {
	if c.strategy == "" && len(snapshot.TargetAllocation) > 0 {
		return snapshot.TargetAllocation
	}
	return rebalancing.GenerateTargetAllocation(c.strategy)
}
