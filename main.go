// logshack ingests amateur-radio ADIF logs into per-owner deduplicated
// storage and scores them against configured contests.
package main

import (
	"fmt"
	"log"
	"os"

	"logshack/config"
)

const (
	programID      = "logshack"
	programVersion = "1.0.0"
)

func main() {
	if len(os.Args) < 2 {
		usage()
		os.Exit(2)
	}
	command := os.Args[1]
	if command == "help" || command == "-h" || command == "--help" {
		usage()
		return
	}

	cfg, args := loadConfig(os.Args[2:])
	closeLogging, err := setupLogging(cfg.Logging)
	if err != nil {
		fmt.Fprintf(os.Stderr, "logshack: %v\n", err)
		os.Exit(1)
	}
	defer closeLogging()

	run, ok := commands[command]
	if !ok {
		fmt.Fprintf(os.Stderr, "logshack: unknown command %q\n\n", command)
		usage()
		os.Exit(2)
	}
	if err := run(cfg, args); err != nil {
		log.Printf("%s: %v", command, err)
		os.Exit(1)
	}
}

// loadConfig consumes a leading -config flag, if present, before the
// command's own flags.
func loadConfig(args []string) (*config.Config, []string) {
	if len(args) >= 2 && (args[0] == "-config" || args[0] == "--config") {
		cfg, err := config.Load(args[1])
		if err != nil {
			fmt.Fprintf(os.Stderr, "logshack: %v\n", err)
			os.Exit(1)
		}
		return cfg, args[2:]
	}
	cfg := config.Default()
	return &cfg, args
}

func usage() {
	fmt.Fprint(os.Stderr, `Usage: logshack <command> [-config file] [flags]

Commands:
  import            Ingest an ADIF log file for an owner
  export            Export an owner's records as ADIF
  stats             Show an owner's log statistics
  contest-create    Create a contest
  contest-list      List contests
  populate          Link eligible records to a contest and score them
  leaderboard       Show a contest's ranked standings

Run 'logshack <command> -h' for command flags.
`)
}
