// internal/league/logic.go
package league

import (
	"fmt"
	"sort"
	"strings"
)

const (
	recordSeparator = "\n"
	fieldSeparator  = ";"
)

var tableHeader = fmt.Sprintf("%-31s", "Team") + "| MP |  W |  D |  L |  P"

// ParseResults splits the input into match results. Empty lines are skipped,
// anything else must be home;visiting;outcome. Nothing is trimmed.
func ParseResults(input string) ([]Result, error) {
	var results []Result
	for i, line := range strings.Split(input, recordSeparator) {
		if line == "" {
			continue
		}
		fields := strings.Split(line, fieldSeparator)
		if len(fields) != 3 {
			return nil, &ParseError{Line: i + 1, Text: line, Err: ErrMalformedRecord}
		}
		outcome, err := ParseOutcome(fields[2])
		if err != nil {
			return nil, &ParseError{Line: i + 1, Text: line, Err: err}
		}
		results = append(results, Result{
			Home:     fields[0],
			Visiting: fields[1],
			Outcome:  outcome,
		})
	}
	return results, nil
}

// Accumulate builds a record per team from the given results.
func Accumulate(results []Result) map[string]*Record {
	teams := make(map[string]*Record)
	get := func(name string) *Record {
		r, ok := teams[name]
		if !ok {
			r = &Record{}
			teams[name] = r
		}
		return r
	}

	for _, res := range results {
		home, visiting := get(res.Home), get(res.Visiting)
		switch res.Outcome {
		case Win:
			home.Wins++
			visiting.Losses++
		case Loss:
			home.Losses++
			visiting.Wins++
		case Draw:
			home.Draws++
			visiting.Draws++
		}
	}
	return teams
}

// RecordGames parses the input and accumulates a record per team.
// On any malformed line no records are returned.
func RecordGames(input string) (map[string]*Record, error) {
	results, err := ParseResults(input)
	if err != nil {
		return nil, err
	}
	return Accumulate(results), nil
}

// Standings returns the teams ordered by points (desc) and then name (asc).
func Standings(teams map[string]*Record) []Entry {
	entries := make([]Entry, 0, len(teams))
	for name, r := range teams {
		entries = append(entries, Entry{
			Team:   name,
			Played: r.Played(),
			Wins:   r.Wins,
			Draws:  r.Draws,
			Losses: r.Losses,
			Points: r.Points(),
		})
	}

	sort.Slice(entries, func(i, j int) bool {
		a, b := entries[i], entries[j]
		if a.Points != b.Points {
			return a.Points > b.Points
		}
		return a.Team < b.Team
	})

	return entries
}

// TallyTable renders the standings as a fixed-width table.
func TallyTable(teams map[string]*Record) string {
	return FormatTable(Standings(teams))
}

// FormatTable renders already sorted entries below the table header.
func FormatTable(entries []Entry) string {
	var b strings.Builder
	b.WriteString(tableHeader)
	for _, e := range entries {
		fmt.Fprintf(&b, "\n%-30s | %2d | %2d | %2d | %2d | %2d",
			e.Team,
			e.Played,
			e.Wins,
			e.Draws,
			e.Losses,
			e.Points,
		)
	}
	return b.String()
}

// Tally turns match results into the rendered standings table.
func Tally(matchResults string) (string, error) {
	teams, err := RecordGames(matchResults)
	if err != nil {
		return "", err
	}
	return TallyTable(teams), nil
}
