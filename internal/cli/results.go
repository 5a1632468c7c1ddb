package cli

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"

	urfave "github.com/urfave/cli/v3"
	"golang.org/x/sync/errgroup"

	"github.com/utakatalp/league-tally/internal/league"
)

const stdinFile = "-"

var errStdinRepeated = errors.New("stdin (-) can only be given once")

func (a *app) tableCmd() *urfave.Command {
	return &urfave.Command{
		Name:    "table",
		Aliases: []string{"t"},
		Usage:   "Print the standings for match results read from files or stdin",
		Flags: []urfave.Flag{
			newFileFlag(),
			newFormatFlag(),
		},
		Action: func(ctx context.Context, cmd *urfave.Command) error {
			format, err := parseFormat(cmd.String(formatFlag))
			if err != nil {
				return err
			}
			results, err := a.readResults(ctx, cmd.StringSlice(fileFlag))
			if err != nil {
				return err
			}
			return a.render(format, league.Accumulate(results))
		},
	}
}

func (a *app) importCmd() *urfave.Command {
	return &urfave.Command{
		Name:    "import",
		Aliases: []string{"i"},
		Usage:   "Append match results to the results store",
		Flags: []urfave.Flag{
			newFileFlag(),
		},
		Action: func(ctx context.Context, cmd *urfave.Command) error {
			results, err := a.readResults(ctx, cmd.StringSlice(fileFlag))
			if err != nil {
				return err
			}
			s, err := a.openStore(ctx)
			if err != nil {
				return err
			}
			if err := s.SaveResults(ctx, results); err != nil {
				return err
			}
			slog.Info("results imported", "count", len(results))
			return nil
		},
	}
}

func (a *app) standingsCmd() *urfave.Command {
	return &urfave.Command{
		Name:    "standings",
		Aliases: []string{"s"},
		Usage:   "Print the standings for all stored match results",
		Flags: []urfave.Flag{
			newFormatFlag(),
		},
		Action: func(ctx context.Context, cmd *urfave.Command) error {
			format, err := parseFormat(cmd.String(formatFlag))
			if err != nil {
				return err
			}
			s, err := a.openStore(ctx)
			if err != nil {
				return err
			}
			teams, err := s.GetTable(ctx)
			if err != nil {
				return err
			}
			return a.render(format, teams)
		},
	}
}

func (a *app) resetCmd() *urfave.Command {
	return &urfave.Command{
		Name:  "reset",
		Usage: "Delete all stored match results",
		Action: func(ctx context.Context, _ *urfave.Command) error {
			s, err := a.openStore(ctx)
			if err != nil {
				return err
			}
			if err := s.DeleteAllResults(ctx); err != nil {
				return err
			}
			slog.Info("results deleted")
			return nil
		},
	}
}

func (a *app) render(format string, teams map[string]*league.Record) error {
	if format == formatText {
		_, err := fmt.Fprintln(a.out, league.TallyTable(teams))
		return err
	}
	return encode(a.out, format, league.Standings(teams))
}

// readResults parses every file concurrently. Results keep the order of
// the files and any malformed line fails the whole read. Stdin may be
// named at most once and is read before any file goroutine starts.
func (a *app) readResults(ctx context.Context, files []string) ([]league.Result, error) {
	if len(files) == 0 {
		files = []string{stdinFile}
	}

	var stdin string
	stdinSeen := false
	for _, name := range files {
		if name != stdinFile {
			continue
		}
		if stdinSeen {
			return nil, errStdinRepeated
		}
		stdinSeen = true
		b, err := io.ReadAll(a.in)
		if err != nil {
			return nil, fmt.Errorf("reading stdin: %w", err)
		}
		stdin = string(b)
	}

	parsed := make([][]league.Result, len(files))
	g, ctx := errgroup.WithContext(ctx)
	for i, name := range files {
		g.Go(func() error {
			if err := ctx.Err(); err != nil {
				return err
			}
			input := stdin
			if name != stdinFile {
				b, err := os.ReadFile(name)
				if err != nil {
					return fmt.Errorf("reading %s: %w", name, err)
				}
				input = string(b)
			}
			results, err := league.ParseResults(input)
			if err != nil {
				return fmt.Errorf("parsing %s: %w", name, err)
			}
			slog.Debug("results parsed", "file", name, "count", len(results))
			parsed[i] = results
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	var results []league.Result
	for _, r := range parsed {
		results = append(results, r...)
	}
	return results, nil
}
