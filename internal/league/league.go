package league

import (
	"errors"
	"fmt"
)

var (
	// ErrMalformedRecord is returned when a line does not hold exactly three fields.
	ErrMalformedRecord = errors.New("malformed match record")
	// ErrUnknownOutcome is returned when the outcome token is not win, loss or draw.
	ErrUnknownOutcome = errors.New("unknown match outcome")
)

// Outcome is the result of a match from the home team's point of view.
type Outcome int

const (
	Win Outcome = iota + 1
	Loss
	Draw
)

func (o Outcome) String() string {
	switch o {
	case Win:
		return "win"
	case Loss:
		return "loss"
	case Draw:
		return "draw"
	default:
		return "unknown"
	}
}

// ParseOutcome maps an outcome token to its Outcome. Tokens are matched exactly.
func ParseOutcome(token string) (Outcome, error) {
	switch token {
	case "win":
		return Win, nil
	case "loss":
		return Loss, nil
	case "draw":
		return Draw, nil
	}
	return 0, fmt.Errorf("%w: %q", ErrUnknownOutcome, token)
}

// Result is a single game between a home and a visiting team.
type Result struct {
	Home     string
	Visiting string
	Outcome  Outcome
}

// Line renders the result back into its home;visiting;outcome form.
func (r Result) Line() string {
	return r.Home + fieldSeparator + r.Visiting + fieldSeparator + r.Outcome.String()
}

// Record holds the accumulated results of one team.
type Record struct {
	Wins   int `json:"wins" yaml:"wins"`
	Losses int `json:"losses" yaml:"losses"`
	Draws  int `json:"draws" yaml:"draws"`
}

// Points is 3 per win and 1 per draw.
func (r *Record) Points() int {
	return r.Wins*3 + r.Draws
}

// Played is the number of matches the team took part in.
func (r *Record) Played() int {
	return r.Wins + r.Draws + r.Losses
}

// Entry holds the standings info for one team.
type Entry struct {
	Team   string `json:"team" yaml:"team"`
	Played int    `json:"played" yaml:"played"`
	Wins   int    `json:"wins" yaml:"wins"`
	Draws  int    `json:"draws" yaml:"draws"`
	Losses int    `json:"losses" yaml:"losses"`
	Points int    `json:"points" yaml:"points"`
}

// ParseError reports the line that failed to parse.
type ParseError struct {
	Line int
	Text string
	Err  error
}

func (e *ParseError) Error() string {
	return fmt.Sprintf("line %d %q: %v", e.Line, e.Text, e.Err)
}

func (e *ParseError) Unwrap() error {
	return e.Err
}
