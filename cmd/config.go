package cmd

import (
	"errors"
	"flag"
	"fmt"
	"os"

	"grimm.is/swarmctl/internal/brand"
	"grimm.is/swarmctl/internal/config"
)

const configUsage = `Usage: swarmctl config <subcommand> [file]

Subcommands:
  init [file]       Write the default configuration (HCL, JSON or YAML by extension)
  validate [file]   Check a configuration file
  show [file]       Print the effective configuration as HCL

The file defaults to ` + "%s" + `.`

// RunConfig writes, checks and prints configuration files.
func RunConfig(args []string) error {
	if len(args) < 1 {
		fmt.Printf(configUsage+"\n", brand.DefaultConfigPath())
		return fmt.Errorf("missing subcommand")
	}

	switch args[0] {
	case "init":
		return configInit(args[1:])
	case "validate", "check":
		return configValidate(args[1:])
	case "show":
		return configShow(args[1:])
	case "help", "-h", "--help":
		fmt.Printf(configUsage+"\n", brand.DefaultConfigPath())
		return nil
	default:
		fmt.Printf(configUsage+"\n", brand.DefaultConfigPath())
		return fmt.Errorf("unknown subcommand %q", args[0])
	}
}

func configPath(fs *flag.FlagSet) string {
	if fs.NArg() > 0 {
		return fs.Arg(0)
	}
	return brand.DefaultConfigPath()
}

func configInit(args []string) error {
	fs := flag.NewFlagSet("config init", flag.ExitOnError)
	force := fs.Bool("force", false, "Overwrite an existing file")
	fs.Parse(args)
	path := configPath(fs)

	if _, err := os.Stat(path); err == nil && !*force {
		return fmt.Errorf("%s already exists (use -force to overwrite)", path)
	} else if err != nil && !errors.Is(err, os.ErrNotExist) {
		return err
	}

	if err := config.SaveFile(config.Default(), path); err != nil {
		return err
	}
	Printer.Printf("Wrote default config to %s\n", path)
	return nil
}

func configValidate(args []string) error {
	fs := flag.NewFlagSet("config validate", flag.ExitOnError)
	fs.Parse(args)
	path := configPath(fs)

	if _, err := config.LoadFile(path); err != nil {
		return err
	}
	fmt.Printf("%s: OK\n", path)
	return nil
}

func configShow(args []string) error {
	fs := flag.NewFlagSet("config show", flag.ExitOnError)
	fs.Parse(args)

	var path string
	if fs.NArg() > 0 {
		path = fs.Arg(0)
	}
	cfg, err := LoadConfig(path)
	if err != nil {
		return err
	}
	data, err := config.GenerateHCL(cfg)
	if err != nil {
		return err
	}
	_, err = os.Stdout.Write(data)
	return err
}
