package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/MikhailRaia/secure-shortener/internal/auth"
	"github.com/MikhailRaia/secure-shortener/internal/client"
	"github.com/rs/zerolog/log"
	"github.com/urfave/cli/v3"
)

var errMissingArgument = errors.New("missing argument")

func newCommand(out io.Writer) *cli.Command {
	return &cli.Command{
		Name:   "shortctl",
		Usage:  "Create, list and resolve short links",
		Writer: out,
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:    "server",
				Aliases: []string{"s"},
				Usage:   "Base URL of the shortener",
				Value:   "http://localhost:8080",
				Sources: cli.EnvVars("SHORTCTL_SERVER"),
			},
			&cli.StringFlag{
				Name:    "token",
				Aliases: []string{"t"},
				Usage:   "Identity token sent as a Bearer credential",
				Sources: cli.EnvVars("SHORTCTL_TOKEN"),
			},
		},
		Commands: []*cli.Command{
			{
				Name:  "create",
				Usage: "Shorten a URL",
				Flags: []cli.Flag{
					&cli.StringFlag{Name: "url", Aliases: []string{"u"}, Usage: "URL to shorten"},
					&cli.StringFlag{Name: "user", Usage: "Owner of the link; optional with --token"},
				},
				Action: createAction,
			},
			{
				Name:  "list",
				Usage: "List a user's links",
				Flags: []cli.Flag{
					&cli.StringFlag{Name: "user", Usage: "Owner whose links to list; optional with --token"},
				},
				Action: listAction,
			},
			{
				Name:      "resolve",
				Usage:     "Print the URL a short code redirects to",
				ArgsUsage: "CODE",
				Action:    resolveAction,
			},
			{
				Name:  "token",
				Usage: "Sign a development token for a server running with AUTH_SECRET",
				Flags: []cli.Flag{
					&cli.StringFlag{Name: "secret", Usage: "Shared HMAC secret", Sources: cli.EnvVars("AUTH_SECRET")},
					&cli.StringFlag{Name: "subject", Usage: "User ID carried in the token"},
					&cli.StringFlag{Name: "email", Usage: "Optional email claim"},
					&cli.StringFlag{Name: "issuer", Usage: "Optional issuer claim"},
					&cli.DurationFlag{Name: "ttl", Usage: "Token lifetime", Value: 24 * time.Hour},
				},
				Action: tokenAction,
			},
		},
	}
}

func newClient(cmd *cli.Command) *client.Client {
	return client.New(cmd.String("server"), client.WithToken(cmd.String("token")))
}

func createAction(ctx context.Context, cmd *cli.Command) error {
	rawURL := cmd.String("url")
	if rawURL == "" {
		return fmt.Errorf("%w: --url is required", errMissingArgument)
	}

	created, err := newClient(cmd).Create(ctx, rawURL, cmd.String("user"))
	if err != nil {
		return err
	}

	return writeJSON(cmd.Root().Writer, created)
}

func listAction(ctx context.Context, cmd *cli.Command) error {
	links, err := newClient(cmd).List(ctx, cmd.String("user"))
	if err != nil {
		return err
	}

	return writeJSON(cmd.Root().Writer, links)
}

func resolveAction(ctx context.Context, cmd *cli.Command) error {
	code := cmd.Args().First()
	if code == "" {
		return fmt.Errorf("%w: CODE is required", errMissingArgument)
	}

	location, err := newClient(cmd).Resolve(ctx, code)
	if err != nil {
		return err
	}

	_, err = fmt.Fprintln(cmd.Root().Writer, location)
	return err
}

func tokenAction(_ context.Context, cmd *cli.Command) error {
	secret := cmd.String("secret")
	if secret == "" {
		return fmt.Errorf("%w: --secret is required", errMissingArgument)
	}

	token, err := auth.SignHS256(secret, cmd.String("subject"), cmd.String("email"), cmd.String("issuer"), cmd.Duration("ttl"))
	if err != nil {
		return err
	}

	_, err = fmt.Fprintln(cmd.Root().Writer, token)
	return err
}

func writeJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

func main() {
	if err := newCommand(os.Stdout).Run(context.Background(), os.Args); err != nil {
		log.Fatal().Err(err).Msg("shortctl failed")
	}
}
