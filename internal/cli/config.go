package cli

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"

	urfave "github.com/urfave/cli/v3"

	"github.com/utakatalp/league-tally/internal/config"
)

const (
	configFileName = "config.yaml"

	pathFlag  = "path"
	forceFlag = "force"
)

func (a *app) configCmd() *urfave.Command {
	return &urfave.Command{
		Name:  "config",
		Usage: "Manage the config file",
		Commands: []*urfave.Command{
			{
				Name:  "init",
				Usage: "Write the effective config (defaults plus global flags) to a YAML file",
				Flags: []urfave.Flag{
					&urfave.StringFlag{
						Name:  pathFlag,
						Usage: fmt.Sprintf("Config file to write (optional, defaults to $HOME/%s/%s)", dataDirName, configFileName),
					},
					&urfave.BoolFlag{
						Name:  forceFlag,
						Usage: "Overwrite an existing file",
					},
				},
				Action: func(_ context.Context, cmd *urfave.Command) error {
					path := cmd.String(pathFlag)
					if path == "" {
						path = filepath.Join(getDataDir(), configFileName)
					}
					if _, err := os.Stat(path); err == nil && !cmd.Bool(forceFlag) {
						return fmt.Errorf("config file already exists: %s (use --%s)", path, forceFlag)
					} else if err != nil && !errors.Is(err, os.ErrNotExist) {
						return fmt.Errorf("checking config file %s: %w", path, err)
					}
					if err := config.Save(path, a.cfg); err != nil {
						return err
					}
					slog.Info("config written", "path", path)
					_, err := fmt.Fprintln(a.out, path)
					return err
				},
			},
		},
	}
}
