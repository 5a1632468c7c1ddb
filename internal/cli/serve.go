package cli

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	urfave "github.com/urfave/cli/v3"

	"github.com/utakatalp/league-tally/internal/server"
)

const (
	addressFlag = "address"
	noStoreFlag = "no-store"
)

func (a *app) serveCmd() *urfave.Command {
	return &urfave.Command{
		Name:    "serve",
		Aliases: []string{"server"},
		Usage:   "Start the HTTP API",
		Flags: []urfave.Flag{
			&urfave.StringFlag{
				Name:  addressFlag,
				Usage: "Address on which the server will listen (optional, defaults to config)",
			},
			&urfave.BoolFlag{
				Name:  noStoreFlag,
				Usage: "Serve only the stateless tally route",
			},
		},
		Action: func(ctx context.Context, cmd *urfave.Command) error {
			ctx, stop := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
			defer stop()

			opts := server.Options{
				Address:         a.cfg.Server.Address,
				ReadTimeout:     a.cfg.Server.ReadTimeout,
				WriteTimeout:    a.cfg.Server.WriteTimeout,
				ShutdownTimeout: a.cfg.Server.ShutdownTimeout,
				MaxBodyBytes:    a.cfg.Server.MaxBodyBytes,
			}
			if v := cmd.String(addressFlag); v != "" {
				opts.Address = v
			}

			var rs server.ResultStore
			if !cmd.Bool(noStoreFlag) {
				s, err := a.openStore(ctx)
				if err != nil {
					return err
				}
				rs = s
			}

			return server.New(rs, opts, nil).Run(ctx)
		},
	}
}
