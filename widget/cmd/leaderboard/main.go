package main

import (
	"os"

	flags "github.com/jessevdk/go-flags"
)

func main() {
	app := &App{}
	parser := flags.NewParser(&app.Options, flags.Default)
	parser.Name = "leaderboard"
	commands := []struct {
		name, short, long string
		cmd               any
	}{
		{"submit", "Submit a score", "Validate a name/score pair, merge it locally and push the scores.", &SubmitCommand{app: app}},
		{"list", "Show the leaderboard", "Fetch the scores (falling back to the local cache) and print the board.", &ListCommand{app: app}},
		{"sync", "Push cached scores", "Push the locally cached scores to the endpoint.", &SyncCommand{app: app}},
		{"watch", "Refresh periodically", "Refresh and print the board every interval until interrupted.", &WatchCommand{app: app}},
		{"check", "Validate the endpoint", "Check the endpoint URL and that it answers.", &CheckCommand{app: app}},
	}
	for _, c := range commands {
		if _, err := parser.AddCommand(c.name, c.short, c.long, c.cmd); err != nil {
			panic(err)
		}
	}
	if _, err := parser.Parse(); err != nil {
		if flagsErr, ok := err.(*flags.Error); ok && flagsErr.Type == flags.ErrHelp {
			os.Exit(0)
		}
		os.Exit(1)
	}
}
