package cmd

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"os"
	"path/filepath"
	"text/tabwriter"
	"time"

	"grimm.is/swarmctl/internal/app"
	"grimm.is/swarmctl/internal/config"
	"grimm.is/swarmctl/internal/protocol"
	"grimm.is/swarmctl/internal/recording"
)

const recordingsUsage = `Usage: swarmctl recordings <subcommand> [options]

Subcommands:
  list                 List stored recordings
  show <id>            Print a recording's frames as JSON
  export <id> [file]   Write a recording to a file (default: swarm-recording.json)
  import <file>        Add a recording file to the library
  delete <id>          Remove a recording
  fetch                Ask the server for its recording and store it
  play <id|file>       Replay a stored recording or file on the server

Ids may be abbreviated to any unique prefix.`

// RunRecordings manages the local recording library.
func RunRecordings(args []string) error {
	if len(args) < 1 {
		fmt.Println(recordingsUsage)
		return fmt.Errorf("missing subcommand")
	}

	sub, rest := args[0], args[1:]
	switch sub {
	case "list", "ls":
		return recordingsList(rest)
	case "show":
		return recordingsShow(rest)
	case "export":
		return recordingsExport(rest)
	case "import":
		return recordingsImport(rest)
	case "delete", "rm":
		return recordingsDelete(rest)
	case "fetch":
		return recordingsFetch(rest)
	case "play":
		return recordingsPlay(rest)
	case "help", "-h", "--help":
		fmt.Println(recordingsUsage)
		return nil
	default:
		fmt.Println(recordingsUsage)
		return fmt.Errorf("unknown subcommand %q", sub)
	}
}

// libraryFlags locate the store without touching the network.
type libraryFlags struct {
	config string
	db     string
}

func (l *libraryFlags) register(fs *flag.FlagSet) {
	fs.StringVar(&l.config, "config", "", "Configuration file")
	fs.StringVar(&l.config, "c", "", "Configuration file (short)")
	fs.StringVar(&l.db, "db", "", "Recording library, overrides the config")
}

func (l *libraryFlags) open() (*recording.Store, error) {
	cfg, err := LoadConfig(l.config)
	if err != nil {
		return nil, err
	}
	return openLibrary(cfg, l.db)
}

func openLibrary(cfg *config.Config, override string) (*recording.Store, error) {
	cfg.ApplyDefaults()
	path := cfg.Recordings.Path
	if override != "" {
		path = override
	}
	return recording.Open(recording.Options{Path: path})
}

func libraryContext() (context.Context, context.CancelFunc) {
	return context.WithTimeout(context.Background(), 10*time.Second)
}

func recordingsList(args []string) error {
	var lf libraryFlags
	fs := flag.NewFlagSet("recordings list", flag.ExitOnError)
	lf.register(fs)
	fs.Parse(args)

	store, err := lf.open()
	if err != nil {
		return err
	}
	defer store.Close()

	ctx, cancel := libraryContext()
	defer cancel()
	recs, err := store.List(ctx)
	if err != nil {
		return err
	}
	if len(recs) == 0 {
		Printer.Printf("No recordings.\n")
		return nil
	}

	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "ID\tNAME\tCREATED\tFRAMES\tSIZE")
	for _, r := range recs {
		fmt.Fprintf(w, "%s\t%s\t%s\t%d\t%d\n",
			r.ID[:8], r.Name, r.CreatedAt.Local().Format("2006-01-02 15:04:05"), r.Frames, r.Size)
	}
	return w.Flush()
}

func recordingsShow(args []string) error {
	var lf libraryFlags
	fs := flag.NewFlagSet("recordings show", flag.ExitOnError)
	lf.register(fs)
	fs.Parse(args)
	if fs.NArg() != 1 {
		return fmt.Errorf("usage: swarmctl recordings show <id>")
	}

	store, err := lf.open()
	if err != nil {
		return err
	}
	defer store.Close()

	ctx, cancel := libraryContext()
	defer cancel()
	rec, err := store.Get(ctx, fs.Arg(0))
	if err != nil {
		return err
	}

	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	return enc.Encode(rec)
}

func recordingsExport(args []string) error {
	var lf libraryFlags
	fs := flag.NewFlagSet("recordings export", flag.ExitOnError)
	lf.register(fs)
	fs.Parse(args)
	if fs.NArg() < 1 || fs.NArg() > 2 {
		return fmt.Errorf("usage: swarmctl recordings export <id> [file]")
	}
	path := recording.DefaultExportName
	if fs.NArg() == 2 {
		path = fs.Arg(1)
	}

	store, err := lf.open()
	if err != nil {
		return err
	}
	defer store.Close()

	ctx, cancel := libraryContext()
	defer cancel()
	rec, err := store.Get(ctx, fs.Arg(0))
	if err != nil {
		return err
	}
	if err := recording.ExportFile(path, rec.Payload); err != nil {
		return err
	}
	Printer.Printf("Exported recording %s to %s\n", rec.ID[:8], path)
	return nil
}

func recordingsImport(args []string) error {
	var lf libraryFlags
	fs := flag.NewFlagSet("recordings import", flag.ExitOnError)
	lf.register(fs)
	name := fs.String("name", "", "Name for the recording (default: file name)")
	fs.Parse(args)
	if fs.NArg() != 1 {
		return fmt.Errorf("usage: swarmctl recordings import [-name NAME] <file>")
	}
	path := fs.Arg(0)

	payload, _, err := recording.LoadFile(path)
	if err != nil {
		return err
	}
	if *name == "" {
		base := filepath.Base(path)
		*name = base[:len(base)-len(filepath.Ext(base))]
	}

	store, err := lf.open()
	if err != nil {
		return err
	}
	defer store.Close()

	ctx, cancel := libraryContext()
	defer cancel()
	rec, err := store.Save(ctx, *name, payload)
	if err != nil {
		return err
	}
	Printer.Printf("Imported %s as %s\n", path, rec.ID[:8])
	return nil
}

func recordingsDelete(args []string) error {
	var lf libraryFlags
	fs := flag.NewFlagSet("recordings delete", flag.ExitOnError)
	lf.register(fs)
	fs.Parse(args)
	if fs.NArg() != 1 {
		return fmt.Errorf("usage: swarmctl recordings delete <id>")
	}

	store, err := lf.open()
	if err != nil {
		return err
	}
	defer store.Close()

	ctx, cancel := libraryContext()
	defer cancel()
	if err := store.Delete(ctx, fs.Arg(0)); err != nil {
		return err
	}
	Printer.Printf("Deleted recording %s\n", fs.Arg(0))
	return nil
}

// recordingsFetch requests the server's recording. The app's recording
// sink stores it before the reply is handed back here.
func recordingsFetch(args []string) error {
	o := oneShot{store: true, reply: protocol.TypeRecordingData}
	fs := flag.NewFlagSet("recordings fetch", flag.ExitOnError)
	o.flags.register(fs)
	out := fs.String("o", "", "Also export the recording to this file")
	fs.DurationVar(&o.timeout, "timeout", DefaultReplyTimeout, "How long to wait for the recording")
	fs.Parse(args)

	return o.run(func(a *app.App) error {
		return a.Gate.RequestRecording()
	}, func(a *app.App, msg protocol.Message) error {
		rec, _ := a.Sink.Last()
		if rec.ID == "" {
			return fmt.Errorf("recording was not stored")
		}
		Printer.Printf("Saved recording %s (%d frames)\n", rec.ID[:8], rec.Frames)

		if *out == "" {
			return nil
		}
		var data protocol.RecordingData
		if err := msg.Decode(&data); err != nil {
			return err
		}
		if err := recording.ExportFile(*out, data.Recording); err != nil {
			return err
		}
		Printer.Printf("Exported recording %s to %s\n", rec.ID[:8], *out)
		return nil
	})
}

// recordingsPlay replays a library entry, or a file when the argument
// names one, through start_playback.
func recordingsPlay(args []string) error {
	o := oneShot{store: true}
	fs := flag.NewFlagSet("recordings play", flag.ExitOnError)
	o.flags.register(fs)
	fs.Parse(args)
	if fs.NArg() != 1 {
		return fmt.Errorf("usage: swarmctl recordings play <id|file>")
	}
	ref := fs.Arg(0)

	return o.run(func(a *app.App) error {
		payload, err := resolvePlayback(a, ref)
		if err != nil {
			return err
		}
		if err := a.Gate.Command(protocol.ActionStartPlayback, payload); err != nil {
			return err
		}
		Printer.Printf("Sent %s\n", protocol.ActionStartPlayback)
		return nil
	}, nil)
}

func resolvePlayback(a *app.App, ref string) (json.RawMessage, error) {
	if _, err := os.Stat(ref); err == nil {
		payload, _, err := recording.LoadFile(ref)
		return payload, err
	}
	if a.Store == nil {
		return nil, app.ErrNoStore
	}
	ctx, cancel := libraryContext()
	defer cancel()
	rec, err := a.Store.Get(ctx, ref)
	if err != nil {
		return nil, err
	}
	return rec.Payload, nil
}
