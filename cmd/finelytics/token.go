package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"time"

	"finelytics/pkg/auth"
	"finelytics/pkg/config"

	"github.com/google/subcommands"
)

type tokenCmd struct {
	subject string
	email   string
	name    string
	role    string
	ttl     time.Duration
}

func (*tokenCmd) Name() string     { return "token" }
func (*tokenCmd) Synopsis() string { return "sign a development token with the configured secret" }
func (*tokenCmd) Usage() string {
	return `finelytics token -sub <subject> -email <email> [-name <name>] [-role admin] [-ttl 24h]

  Prints a bearer token the API accepts. Production tokens come from the
  identity provider; this command exists for local development.
`
}

func (c *tokenCmd) SetFlags(f *flag.FlagSet) {
	f.StringVar(&c.subject, "sub", "", "subject of the user at the identity provider")
	f.StringVar(&c.email, "email", "", "email of the user")
	f.StringVar(&c.name, "name", "", "display name of the user")
	f.StringVar(&c.role, "role", "", "role claim, \""+auth.RoleAdmin+"\" grants access to the jobs API")
	f.DurationVar(&c.ttl, "ttl", 24*time.Hour, "token lifetime")
}

func (c *tokenCmd) Execute(_ context.Context, _ *flag.FlagSet, _ ...interface{}) subcommands.ExitStatus {
	if c.subject == "" || c.email == "" {
		fmt.Fprint(os.Stderr, c.Usage())
		return subcommands.ExitUsageError
	}

	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		return subcommands.ExitFailure
	}
	if cfg.JWT.SecretKey == "" {
		fmt.Fprintln(os.Stderr, "JWT_SECRET_KEY is not set")
		return subcommands.ExitFailure
	}

	token, err := auth.NewJWTManager(cfg.JWT.SecretKey, cfg.JWT.Issuer).GenerateToken(c.subject, c.email, c.name, c.role, c.ttl)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		return subcommands.ExitFailure
	}
	fmt.Println(token)
	return subcommands.ExitSuccess
}
