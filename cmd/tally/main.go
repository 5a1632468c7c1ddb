package main

import (
	"github.com/utakatalp/league-tally/internal/cli"
)

func main() {
	cli.Execute()
}
