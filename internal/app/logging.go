package app

import (
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"grimm.is/swarmctl/internal/brand"
	"grimm.is/swarmctl/internal/config"
	"grimm.is/swarmctl/internal/logging"
)

// LogFileName is where the viewer logs when no file is configured.
const LogFileName = "swarmctl.log"

// SetupLogging builds the process logger from cfg and installs it as the
// default. When the viewer owns the terminal, output goes to a file
// instead of stderr. The returned closer releases the file and syslog
// connection.
func SetupLogging(cfg *config.LoggingConfig, viewer bool) (*logging.Logger, io.Closer, error) {
	if cfg == nil {
		cfg = &config.LoggingConfig{}
	}

	var closers multiCloser
	var out io.Writer = os.Stderr

	if viewer || cfg.File != "" {
		path := cfg.File
		if path == "" {
			path = filepath.Join(brand.GetDataDir(), LogFileName)
		}
		if err := os.MkdirAll(filepath.Dir(path), 0750); err != nil {
			return nil, nil, fmt.Errorf("create log dir: %w", err)
		}
		f, err := os.OpenFile(path, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0644)
		if err != nil {
			return nil, nil, fmt.Errorf("open log file: %w", err)
		}
		closers = append(closers, f)
		out = f
	}

	if s := cfg.Syslog; s != nil && s.Host != "" {
		w, err := logging.NewSyslogWriter(logging.SyslogConfig{
			Enabled:  true,
			Host:     s.Host,
			Port:     s.Port,
			Protocol: s.Protocol,
			Tag:      s.Tag,
			Facility: s.Facility,
		})
		if err != nil {
			// Local logging still works; report and carry on.
			fmt.Fprintf(os.Stderr, "syslog disabled: %v\n", err)
		} else {
			closers = append(closers, w)
			out = logging.MultiWriter(out, w)
		}
	}

	lc := logging.DefaultConfig()
	lc.Level = logging.ParseLevel(cfg.Level)
	lc.JSON = cfg.JSON
	lc.Output = out

	logger := logging.New(lc)
	logging.SetDefault(logger)
	return logger, closers, nil
}

type multiCloser []io.Closer

func (m multiCloser) Close() error {
	var errs []error
	for _, c := range m {
		if err := c.Close(); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}
