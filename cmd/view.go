package cmd

import (
	"context"
	"flag"
	"os/signal"
	"syscall"

	"grimm.is/swarmctl/internal/app"
	"grimm.is/swarmctl/internal/tui"
)

// RunView opens the full-screen swarm viewer.
func RunView(args []string) error {
	var cf clientFlags
	fs := flag.NewFlagSet("view", flag.ExitOnError)
	cf.register(fs)
	exportDir := fs.String("export-dir", "", "Also write received recordings to this directory")
	fs.Parse(args)

	cfg, err := cf.load()
	if err != nil {
		return err
	}

	logger, closer, err := app.SetupLogging(cfg.Logging, true)
	if err != nil {
		return err
	}
	defer closer.Close()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGTERM)
	defer stop()

	a, err := app.New(app.Options{Config: cfg, Logger: logger.WithComponent("view"), ExportDir: *exportDir})
	if err != nil {
		return err
	}
	defer a.Close()

	if err := a.Start(ctx); err != nil {
		return err
	}
	// A failed first dial keeps retrying in the background; the viewer
	// shows the state.
	if err := a.Connect(); err != nil {
		logger.Warn("initial connect failed", "error", err)
	}

	if err := tui.Run(app.NewViewerBackend(a)); err != nil {
		return err
	}
	if a.Session.GaveUp() {
		Printer.Printf("Gave up after %d reconnect attempts\n", a.Session.Retries())
	}
	return nil
}
