// Package cli implements the folio command line subcommands.
package cli

import (
	"encoding/json"
	"flag"
	"fmt"
	"io"
	"os"
	"strings"
	"text/tabwriter"

	"github.com/Rhymond/go-money"
	"github.com/folioworks/folio/internal/domain"
	"github.com/google/subcommands"
	"github.com/rs/zerolog"
)

// Commands returns every subcommand writing to out
func Commands(out io.Writer, log zerolog.Logger) []subcommands.Command {
	return []subcommands.Command{
		&riskCmd{out: out, log: log},
		&performanceCmd{out: out, log: log},
		&rebalanceCmd{out: out, log: log},
		&incomeCmd{out: out, log: log},
		&tokenCmd{out: out},
	}
}

// snapshotInput is the flag set shared by the analysis commands
type snapshotInput struct {
	file     string
	history  string
	currency string
	asJSON   bool
}

func (in *snapshotInput) setFlags(f *flag.FlagSet) {
	f.StringVar(&in.file, "f", "-", "snapshot JSON file, - for stdin")
	f.StringVar(&in.history, "history", "", "JSON array of historical portfolio values")
	f.StringVar(&in.currency, "currency", "USD", "currency used to display amounts")
	f.BoolVar(&in.asJSON, "json", false, "print the raw JSON result")
}

func (in *snapshotInput) validate() error {
	if in.file == "-" && in.history == "-" {
		return fmt.Errorf("snapshot and history cannot both be read from stdin")
	}
	if money.GetCurrency(strings.ToUpper(in.currency)) == nil {
		return fmt.Errorf("unknown currency %q", in.currency)
	}
	in.currency = strings.ToUpper(in.currency)
	return nil
}

// load reads the snapshot and the optional value history
func (in *snapshotInput) load(stdin io.Reader) (domain.Snapshot, []float64, error) {
	var snapshot domain.Snapshot
	if err := decodeFile(in.file, stdin, &snapshot); err != nil {
		return snapshot, nil, fmt.Errorf("reading snapshot: %w", err)
	}
	if err := snapshot.Validate(); err != nil {
		return snapshot, nil, err
	}

	var history []float64
	if in.history != "" {
		if err := decodeFile(in.history, stdin, &history); err != nil {
			return snapshot, nil, fmt.Errorf("reading history: %w", err)
		}
	}
	return snapshot, history, nil
}

func decodeFile(path string, stdin io.Reader, v interface{}) error {
	var r io.Reader = stdin
	if path != "-" {
		f, err := os.Open(path)
		if err != nil {
			return err
		}
		defer f.Close()
		r = f
	}
	return json.NewDecoder(r).Decode(v)
}

func printJSON(out io.Writer, v interface{}) error {
	enc := json.NewEncoder(out)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

// formatMoney renders amount with the currency's symbol and grouping
func formatMoney(amount float64, currency string) string {
	return money.NewFromFloat(amount, currency).Display()
}

func newTable(out io.Writer) *tabwriter.Writer {
	return tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
}

func fail(err error) subcommands.ExitStatus {
	fmt.Fprintf(os.Stderr, "Error: %v\n", err)
	return subcommands.ExitFailure
}
