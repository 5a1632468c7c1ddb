package cli

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	urfave "github.com/urfave/cli/v3"
	"gopkg.in/yaml.v3"

	"github.com/utakatalp/league-tally/internal/config"
	"github.com/utakatalp/league-tally/internal/logging"
	"github.com/utakatalp/league-tally/internal/store"
)

const (
	dirMode        = 0700
	dataDirName    = ".tally"
	sqliteFileName = "results.db"

	formatText = "text"
	formatJSON = "json"
	formatYAML = "yaml"
)

var (
	version = "v0.0.1-default"
	commit  = ""
	date    = ""
)

const (
	configFlag   = "config"
	debugFlag    = "debug"
	logLevelFlag = "log-level"
	driverFlag   = "driver"
	dsnFlag      = "dsn"
	formatFlag   = "format"
	fileFlag     = "file"
)

// Flags are built per command tree since urfave flags keep parsed state.
func newFormatFlag() urfave.Flag {
	return &urfave.StringFlag{
		Name:  formatFlag,
		Usage: "Output format [text, json, yaml]",
		Value: formatText,
	}
}

func newFileFlag() urfave.Flag {
	return &urfave.StringSliceFlag{
		Name:    fileFlag,
		Aliases: []string{"f"},
		Usage:   "Match results file, repeatable, - for stdin",
	}
}

// Execute creates and runs the CLI application.
func Execute() {
	if err := newApp(os.Stdin, os.Stdout).Run(context.Background(), os.Args); err != nil {
		slog.Error("fatal error", "error", err)
		os.Exit(1)
	}
}

type app struct {
	in    io.Reader
	out   io.Writer
	cfg   *config.Config
	store *store.Store
}

func newApp(in io.Reader, out io.Writer) *urfave.Command {
	a := &app{in: in, out: out}
	return &urfave.Command{
		Name:    "tally",
		Version: fmt.Sprintf("%s (%s - %s)", version, commit, date),
		Usage:   "League standings from match results",
		Writer:  out,
		Flags: []urfave.Flag{
			&urfave.StringFlag{
				Name:    configFlag,
				Aliases: []string{"c"},
				Usage:   "Path to the YAML config file (optional)",
				Sources: urfave.EnvVars("TALLY_CONFIG"),
			},
			&urfave.BoolFlag{
				Name:  debugFlag,
				Usage: "Prints verbose logs (optional, default: false)",
			},
			&urfave.StringFlag{
				Name:  logLevelFlag,
				Usage: "Log level [debug, info, warn, error]",
			},
			&urfave.StringFlag{
				Name:  driverFlag,
				Usage: "Results store driver [sqlite, postgres]",
			},
			&urfave.StringFlag{
				Name:    dsnFlag,
				Usage:   "Postgres connection string or sqlite file path",
				Sources: urfave.EnvVars("TALLY_DSN"),
			},
		},
		Commands: []*urfave.Command{
			a.tableCmd(),
			a.importCmd(),
			a.standingsCmd(),
			a.resetCmd(),
			a.serveCmd(),
			a.configCmd(),
		},
		Before: a.before,
		After:  a.after,
	}
}

func (a *app) before(ctx context.Context, cmd *urfave.Command) (context.Context, error) {
	cfg, err := config.Load(cmd.String(configFlag))
	if err != nil {
		return ctx, err
	}

	if v := cmd.String(logLevelFlag); v != "" {
		cfg.LogLevel = v
	}
	if cmd.Bool(debugFlag) {
		cfg.LogLevel = "debug"
	}
	if v := cmd.String(driverFlag); v != "" {
		cfg.Store.Driver = v
	}
	if v := cmd.String(dsnFlag); v != "" {
		cfg.Store.DSN = v
	}
	if err := cfg.Validate(); err != nil {
		return ctx, err
	}

	logging.SetDefault(cfg.LogLevel)
	slog.Debug("config loaded", "driver", cfg.Store.Driver, "address", cfg.Server.Address)

	a.cfg = cfg
	return ctx, nil
}

func (a *app) after(_ context.Context, _ *urfave.Command) error {
	if a.store != nil {
		err := a.store.Close()
		a.store = nil
		return err
	}
	return nil
}

// openStore connects to the configured store and makes sure the schema exists.
func (a *app) openStore(ctx context.Context) (*store.Store, error) {
	if a.store != nil {
		return a.store, nil
	}

	dsn := a.cfg.Store.DSN
	if dsn == "" {
		if a.cfg.Store.Driver != store.DriverSQLite {
			return nil, errors.New("dsn required for postgres store")
		}
		dsn = filepath.Join(getDataDir(), sqliteFileName)
	}

	s, err := store.NewStore(ctx, a.cfg.Store.Driver, dsn)
	if err != nil {
		return nil, fmt.Errorf("opening store: %w", err)
	}
	if err := s.Migrate(ctx); err != nil {
		s.Close()
		return nil, fmt.Errorf("migrating store: %w", err)
	}
	slog.Debug("store opened", "driver", s.Driver())

	a.store = s
	return s, nil
}

func getDataDir() string {
	home, err := os.UserHomeDir()
	if err != nil {
		slog.Debug("error getting home dir, using current dir instead", "error", err)
		return "."
	}

	dirPath := filepath.Join(home, dataDirName)
	if _, err := os.Stat(dirPath); errors.Is(err, os.ErrNotExist) {
		slog.Debug("creating dir", "path", dirPath)
		if err := os.Mkdir(dirPath, dirMode); err != nil {
			slog.Debug("error creating dir", "path", dirPath, "home", home, "error", err)
			return home
		}
	}
	return dirPath
}

func parseFormat(v string) (string, error) {
	switch strings.ToLower(v) {
	case "", formatText:
		return formatText, nil
	case formatJSON:
		return formatJSON, nil
	case formatYAML, "yml":
		return formatYAML, nil
	}
	return "", fmt.Errorf("unsupported output format: %q", v)
}

func encode(w io.Writer, format string, v any) error {
	if format == formatYAML {
		e := yaml.NewEncoder(w)
		defer e.Close()
		return e.Encode(v)
	}
	e := json.NewEncoder(w)
	e.SetIndent("", "  ")
	return e.Encode(v)
}
