// Package cmd implements the swarmctl subcommands.
package cmd

import (
	"errors"
	"flag"
	"fmt"
	"os"

	"grimm.is/swarmctl/internal/brand"
	"grimm.is/swarmctl/internal/config"
	"grimm.is/swarmctl/internal/i18n"
)

// Printer is the localized printer for user-facing output.
var Printer = i18n.NewCLIPrinter()

// clientFlags are shared by every subcommand that talks to a server.
type clientFlags struct {
	config string
	host   string
	secure bool
}

func (c *clientFlags) register(fs *flag.FlagSet) {
	fs.StringVar(&c.config, "config", "", "Configuration file (default: "+brand.DefaultConfigPath()+")")
	fs.StringVar(&c.config, "c", "", "Configuration file (short)")
	fs.StringVar(&c.host, "host", "", "Server host:port, overrides the config")
	fs.BoolVar(&c.secure, "secure", false, "Use wss:// (overrides the config when set)")
}

// load reads the config and applies flag overrides.
func (c *clientFlags) load() (*config.Config, error) {
	cfg, err := LoadConfig(c.config)
	if err != nil {
		return nil, err
	}
	if c.host != "" {
		cfg.Server.Host = c.host
	}
	if c.secure {
		cfg.Server.Secure = true
	}
	return cfg, nil
}

// LoadConfig loads path, or the default config file when path is empty.
// A missing default file yields the built-in defaults.
func LoadConfig(path string) (*config.Config, error) {
	if path == "" {
		path = brand.DefaultConfigPath()
		if _, err := os.Stat(path); errors.Is(err, os.ErrNotExist) {
			return config.Default(), nil
		}
	}
	cfg, err := config.LoadFile(path)
	if err != nil {
		return nil, fmt.Errorf("load config %s: %w", path, err)
	}
	return cfg, nil
}
