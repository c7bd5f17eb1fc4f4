package cmd

import (
	"context"
	"flag"
	"fmt"
	"net"
	"os"
	"os/signal"
	"syscall"

	"grimm.is/swarmctl/internal/devserver"
	"grimm.is/swarmctl/internal/logging"
)

// RunDevServer serves the scripted swarm on /ws until interrupted.
func RunDevServer(args []string) error {
	fs := flag.NewFlagSet("dev-server", flag.ExitOnError)
	listen := fs.String("listen", "localhost:8000", "Address to listen on")
	interval := fs.Duration("interval", devserver.DefaultFrameInterval, "Time between state frames")
	agents := fs.Int("agents", devserver.DefaultAgents, "Number of agents")
	autostart := fs.Bool("autostart", false, "Stream frames without waiting for a start command")
	verbose := fs.Bool("v", false, "Debug logging")
	fs.Parse(args)

	level := logging.LevelInfo
	if *verbose {
		level = logging.LevelDebug
	}
	logger := logging.New(logging.Config{Output: os.Stderr, Level: level}).WithComponent("devserver")

	ln, err := net.Listen("tcp", *listen)
	if err != nil {
		return fmt.Errorf("listen %s: %w", *listen, err)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	srv := devserver.New(devserver.Options{
		FrameInterval: *interval,
		Agents:        *agents,
		Autostart:     *autostart,
		Logger:        logger,
	})
	Printer.Printf("Dev server listening on %s\n", ln.Addr().String())
	return srv.Serve(ctx, ln)
}
