package cmd

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
	"strconv"
	"time"

	"grimm.is/swarmctl/internal/app"
	"grimm.is/swarmctl/internal/protocol"
)

// DefaultReplyTimeout bounds how long one-shot commands wait for a reply.
const DefaultReplyTimeout = 5 * time.Second

var errReplyTimeout = errors.New("timed out waiting for the server reply")

// oneShot is a single connect, act, disconnect exchange.
type oneShot struct {
	flags   clientFlags
	store   bool
	reply   string
	timeout time.Duration
}

// run connects, calls fn, flushes any debounced parameter and, when a
// reply type is set, waits for that frame and hands it to onReply.
func (o oneShot) run(fn func(a *app.App) error, onReply func(a *app.App, msg protocol.Message) error) error {
	cfg, err := o.flags.load()
	if err != nil {
		return err
	}
	// One-shot commands do not retry.
	cfg.Reconnect.MaxRetries = 1

	logger, closer, err := app.SetupLogging(cfg.Logging, false)
	if err != nil {
		return err
	}
	defer closer.Close()

	a, err := app.New(app.Options{Config: cfg, Logger: logger.WithComponent("cli"), NoStore: !o.store})
	if err != nil {
		return err
	}
	defer a.Close()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	if err := a.Start(ctx); err != nil {
		return err
	}

	replies := make(chan protocol.Message, 1)
	if o.reply != "" {
		a.Router.SubscribeMessage("cli", func(msg protocol.Message) error {
			if msg.Type == o.reply {
				select {
				case replies <- msg:
				default:
				}
			}
			return nil
		})
	}

	Printer.Printf("Connecting to %s\n", a.Session.URL())
	if err := a.Connect(); err != nil {
		Printer.Fprintf(os.Stderr, "Not connected: %v\n", err)
		return err
	}
	Printer.Printf("Connected to %s\n", a.Session.URL())

	if err := fn(a); err != nil {
		return err
	}
	if err := a.Gate.Flush(); err != nil {
		return err
	}

	if o.reply == "" {
		return nil
	}
	timeout := o.timeout
	if timeout <= 0 {
		timeout = DefaultReplyTimeout
	}
	select {
	case msg := <-replies:
		return onReply(a, msg)
	case <-time.After(timeout):
		Printer.Fprintf(os.Stderr, "Timed out waiting for the server reply\n")
		return errReplyTimeout
	}
}

// RunSend sends one simulation command.
func RunSend(args []string) error {
	var o oneShot
	fs := flag.NewFlagSet("send", flag.ExitOnError)
	o.flags.register(fs)
	fs.Parse(args)

	if fs.NArg() != 1 {
		return fmt.Errorf("usage: swarmctl send <start|stop|reset|start_recording|stop_recording|stop_playback>")
	}
	action := fs.Arg(0)
	if !protocol.IsCommandAction(action) || action == protocol.ActionStartPlayback {
		return fmt.Errorf("unknown command action %q", action)
	}

	return o.run(func(a *app.App) error {
		if err := a.Gate.Command(action, nil); err != nil {
			return err
		}
		Printer.Printf("Sent %s\n", action)
		return nil
	}, nil)
}

// RunParam sets one parameter. Debounced parameters are flushed before
// disconnecting.
func RunParam(args []string) error {
	var o oneShot
	fs := flag.NewFlagSet("param", flag.ExitOnError)
	o.flags.register(fs)
	fs.Parse(args)

	if fs.NArg() != 2 {
		return fmt.Errorf("usage: swarmctl param <name> <value>")
	}
	name := fs.Arg(0)
	value, err := strconv.ParseFloat(fs.Arg(1), 64)
	if err != nil {
		return fmt.Errorf("invalid value %q: %w", fs.Arg(1), err)
	}

	return o.run(func(a *app.App) error {
		if err := a.Gate.SetParameter(name, value); err != nil {
			Printer.Fprintf(os.Stderr, "Rejected %s=%v: %v\n", name, value, err)
			return err
		}
		Printer.Printf("Parameter %s set to %v\n", name, value)
		return nil
	}, nil)
}

// RunPattern switches the swarm pattern.
func RunPattern(args []string) error {
	var o oneShot
	fs := flag.NewFlagSet("pattern", flag.ExitOnError)
	o.flags.register(fs)
	fs.Parse(args)

	if fs.NArg() != 1 {
		return fmt.Errorf("usage: swarmctl pattern <flocking|circle|scatter>")
	}
	name := fs.Arg(0)

	return o.run(func(a *app.App) error {
		if err := a.Gate.Pattern(name); err != nil {
			return err
		}
		Printer.Printf("Pattern %s requested\n", name)
		return nil
	}, nil)
}

// RunBehavior submits a custom behavior script and prints the verdict.
func RunBehavior(args []string) error {
	o := oneShot{reply: protocol.TypeBehaviorResponse}
	fs := flag.NewFlagSet("behavior", flag.ExitOnError)
	o.flags.register(fs)
	action := fs.String("action", protocol.BehaviorTest, "test or save")
	file := fs.String("file", "", "Script file (default: stdin)")
	fs.StringVar(file, "f", "", "Script file (short)")
	fs.DurationVar(&o.timeout, "timeout", DefaultReplyTimeout, "How long to wait for the verdict")
	fs.Parse(args)

	var code []byte
	var err error
	if *file == "" || *file == "-" {
		code, err = io.ReadAll(os.Stdin)
	} else {
		code, err = os.ReadFile(*file)
	}
	if err != nil {
		return fmt.Errorf("read script: %w", err)
	}

	return o.run(func(a *app.App) error {
		return a.Gate.CustomBehavior(*action, string(code))
	}, func(_ *app.App, msg protocol.Message) error {
		var resp protocol.BehaviorResponse
		if err := msg.Decode(&resp); err != nil {
			return err
		}
		Printer.Printf("Server reply: %s\n", resp.Message)
		if !resp.Success {
			return fmt.Errorf("behavior rejected")
		}
		return nil
	})
}
