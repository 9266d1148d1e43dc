package main

import (
	"context"
	"fmt"
	"os"
	"slices"
	"strings"
	"time"

	"github.com/aussiebroadwan/custodian/internal/custody/app"
	"github.com/aussiebroadwan/custodian/pkg/jwtx"
	"github.com/urfave/cli"
)

func fatal(err error) {
	fmt.Fprintf(os.Stderr, "[custodian] %v\n", err)
	os.Exit(1)
}

func main() {
	cliApp := cli.NewApp()
	cliApp.Name = "custodian"
	cliApp.Version = app.BuildVersion
	cliApp.Usage = "custodial key enrollment service for chat users"
	cliApp.Commands = []cli.Command{
		serveCommand,
		tokenCommand,
		auditCommand,
	}
	// Running the bare binary serves, like the container entrypoint expects.
	cliApp.Action = serve

	if err := cliApp.Run(os.Args); err != nil {
		fatal(err)
	}
}

var serveCommand = cli.Command{
	Name:   "serve",
	Usage:  "Run the HTTP API",
	Action: serve,
}

func serve(_ *cli.Context) error {
	cfg, err := app.LoadConfig(context.Background())
	if err != nil {
		return err
	}

	application, err := app.New(cfg)
	if err != nil {
		return fmt.Errorf("failed to initialize application: %w", err)
	}

	return application.Run()
}

var tokenCommand = cli.Command{
	Name:      "token",
	Usage:     "Mint a gateway token for the chat bot",
	ArgsUsage: "[--subject=] [--ttl=] scopes...",
	Description: `
	Sign a bearer token with CUSTODY_GATEWAY_SECRET. With no scopes the
	token carries every custody scope, for example:

	custodian token --subject=discord-bot custody:enroll custody:read
	`,
	Flags: []cli.Flag{
		cli.StringFlag{
			Name:  "subject",
			Value: "chat-gateway",
			Usage: "the sub claim identifying the gateway",
		},
		cli.DurationFlag{
			Name:  "ttl",
			Value: jwtx.DefaultGatewayTokenTTL,
			Usage: "how long the token stays valid",
		},
	},
	Action: mintToken,
}

func mintToken(ctx *cli.Context) error {
	cfg, err := app.LoadConfig(context.Background())
	if err != nil {
		return err
	}
	if cfg.GatewaySecret == "" {
		return fmt.Errorf("CUSTODY_GATEWAY_SECRET is not set")
	}

	signer, err := jwtx.NewSigner([]byte(cfg.GatewaySecret))
	if err != nil {
		return err
	}

	scopes := []string(ctx.Args())
	if len(scopes) == 0 {
		scopes = jwtx.AllScopes
	}
	for _, s := range scopes {
		if !slices.Contains(jwtx.AllScopes, s) {
			return fmt.Errorf("unknown scope %q, want one of %s", s, strings.Join(jwtx.AllScopes, ", "))
		}
	}

	claims := jwtx.NewGatewayClaims(ctx.String("subject"), cfg.GatewayIssuer, scopes, ctx.Duration("ttl"), time.Now())
	token, err := signer.Sign(claims)
	if err != nil {
		return err
	}

	fmt.Println(token)
	return nil
}

var auditCommand = cli.Command{
	Name:  "audit",
	Usage: "Run one audit pass over the configured store and exit",
	Action: func(_ *cli.Context) error {
		cfg, err := app.LoadConfig(context.Background())
		if err != nil {
			return err
		}

		application, err := app.New(cfg)
		if err != nil {
			return err
		}
		defer application.Close()

		report, err := application.Audit(context.Background())
		if err != nil {
			return err
		}

		fmt.Printf("run %s: %d records, %d legacy, %d weak, %d malformed\n",
			report.RunID, report.Total, report.Legacy, report.Weak, report.Malformed)
		return nil
	},
}
