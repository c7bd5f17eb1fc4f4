package main

import (
	"os"

	"grimm.is/swarmctl/cmd"
	"grimm.is/swarmctl/internal/brand"
)

var printer = cmd.Printer

func main() {
	if len(os.Args) < 2 {
		printUsage()
		os.Exit(1)
	}

	args := os.Args[2:]
	var err error

	switch os.Args[1] {
	case "view", "console":
		err = cmd.RunView(args)

	case "send":
		err = cmd.RunSend(args)

	case "param":
		err = cmd.RunParam(args)

	case "pattern":
		err = cmd.RunPattern(args)

	case "behavior":
		err = cmd.RunBehavior(args)

	case "recordings", "rec":
		err = cmd.RunRecordings(args)

	case "dev-server":
		err = cmd.RunDevServer(args)

	case "config":
		err = cmd.RunConfig(args)

	case "version", "-v", "--version":
		cmd.RunVersion()

	case "help", "-h", "--help":
		if len(args) > 0 {
			switch args[0] {
			case "recordings", "rec":
				cmd.RunRecordings([]string{"help"})
			case "config":
				cmd.RunConfig([]string{"help"})
			default:
				printer.Printf("No detailed help available for '%s'\n", args[0])
				printUsage()
			}
		} else {
			printUsage()
		}

	default:
		printer.Printf("Unknown command: %s\n\n", os.Args[1])
		printUsage()
		os.Exit(1)
	}

	if err != nil {
		printer.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func printUsage() {
	printer.Printf(`%s - %s

Usage:
  %s <command> [options]

Viewer:
  view        Full-screen swarm viewer (alias: console)
              Options: --config (-c) <file>, --host <host:port>, --secure, --export-dir <dir>

Control Commands:
  send        Send a simulation command
              Actions: start, stop, reset, start_recording, stop_recording, stop_playback
  param       Set a parameter: param <name> <value>
  pattern     Switch the swarm pattern: pattern <flocking|circle|scatter>
  behavior    Test or save a behavior script
              Options: --action <test|save>, --file (-f) <script>

Library Commands:
  recordings  Manage recordings (alias: rec)
              Subcommands: list, show, export, import, delete, fetch, play

Utility Commands:
  dev-server  Serve a scripted swarm for local testing
              Options: --listen <addr>, --interval <dur>, --agents <n>, --autostart
  config      Manage the configuration file
              Subcommands: init, validate, show
  version     Print build information

Examples:
  %s dev-server --autostart
  %s view --host localhost:8000
  %s param agentSpeed 7.5
  %s recordings fetch -o swarm-recording.json
  %s recordings play 3f2a

For command-specific help: %s help <command>
`,
		brand.Name, brand.Description,
		brand.Name,
		brand.Name, brand.Name, brand.Name, brand.Name, brand.Name,
		brand.Name)
}
