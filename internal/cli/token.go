package cli

import (
	"context"
	"flag"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/folioworks/folio/internal/auth"
	"github.com/google/subcommands"
)

type tokenCmd struct {
	user string
	ttl  time.Duration
	out  io.Writer
}

func (*tokenCmd) Name() string     { return "token" }
func (*tokenCmd) Synopsis() string { return "issue an API bearer token" }
func (*tokenCmd) Usage() string {
	return `folio token -user <id> [-ttl 720h]

  Signs a token with FOLIO_JWT_SECRET for the /api/portfolios endpoints.
`
}

func (c *tokenCmd) SetFlags(f *flag.FlagSet) {
	f.StringVar(&c.user, "user", "", "user id the token is issued for")
	f.DurationVar(&c.ttl, "ttl", 30*24*time.Hour, "token lifetime")
}

func (c *tokenCmd) Execute(ctx context.Context, f *flag.FlagSet, _ ...interface{}) subcommands.ExitStatus {
	if c.user == "" {
		fmt.Fprintln(os.Stderr, "Error: -user is required")
		return subcommands.ExitUsageError
	}
	secret := os.Getenv("FOLIO_JWT_SECRET")
	if secret == "" {
		fmt.Fprintln(os.Stderr, "Error: FOLIO_JWT_SECRET is not set")
		return subcommands.ExitUsageError
	}

	token, err := auth.SignToken([]byte(secret), c.user, c.ttl, time.Now())
	if err != nil {
		return fail(err)
	}
	fmt.Fprintln(c.out, token)
	return subcommands.ExitSuccess
}
