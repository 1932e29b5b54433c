package main

import (
	"context"
	"flag"
	"fmt"
	"io"
	"log/slog"
	"os"

	"github.com/peterbourgon/ff/v3"
	"github.com/peterbourgon/ff/v3/ffcli"

	"github.com/wifictl/wifictl/internal/journal"
	wifilog "github.com/wifictl/wifictl/internal/log"
	"github.com/wifictl/wifictl/internal/session"
	"github.com/wifictl/wifictl/internal/tui"
)

var (
	// Version is the version of the application. It is set at build time.
	Version string = "dev"
)

// main is the entry point of the application
func main() {
	var (
		rootFlagSet = flag.NewFlagSet("wifictl", flag.ExitOnError)
		theme       = rootFlagSet.String("theme", "", "path to theme toml file (env: WIFICTL_THEME)")
		journalPath = rootFlagSet.String("journal", "", "path to a sqlite sighting journal (env: WIFICTL_JOURNAL)")
		debugPath   = rootFlagSet.String("debug", "", "write debug logs to this file (env: WIFICTL_DEBUG)")
		version     = rootFlagSet.Bool("version", false, "display version")
	)

	var (
		controller *session.Controller
		sightings  *journal.Journal
	)

	listFlagSet := flag.NewFlagSet("list", flag.ExitOnError)
	listJSON := listFlagSet.Bool("json", false, "output in JSON format")
	listCmd := &ffcli.Command{
		Name:      "list",
		ShortHelp: "List wifi networks, optionally filtered by a substring",
		FlagSet:   listFlagSet,
		Exec: func(ctx context.Context, args []string) error {
			pattern := ""
			if len(args) > 0 {
				pattern = args[0]
			}
			return runList(os.Stdout, *listJSON, pattern, controller)
		},
	}

	showFlagSet := flag.NewFlagSet("show", flag.ExitOnError)
	showJSON := showFlagSet.Bool("json", false, "output in JSON format")
	showCmd := &ffcli.Command{
		Name:      "show",
		ShortHelp: "Show a wifi network",
		FlagSet:   showFlagSet,
		Exec: func(ctx context.Context, args []string) error {
			if len(args) == 0 {
				return fmt.Errorf("show requires an ssid")
			}
			return runShow(os.Stdout, *showJSON, args[0], controller, sightings)
		},
	}

	connectFlagSet := flag.NewFlagSet("connect", flag.ExitOnError)
	connectPassphrase := connectFlagSet.String("passphrase", "", "passphrase for the network")
	connectSecurity := connectFlagSet.String("security", "wpa2", "security type (open, wep, wpa2, wpa3)")
	connectHidden := connectFlagSet.Bool("hidden", false, "network is hidden")
	connectCmd := &ffcli.Command{
		Name:      "connect",
		ShortHelp: "Connect to a wifi network",
		FlagSet:   connectFlagSet,
		Exec: func(ctx context.Context, args []string) error {
			if len(args) == 0 {
				return fmt.Errorf("connect requires an ssid")
			}
			return runConnect(os.Stdout, args[0], *connectPassphrase, *connectSecurity, *connectHidden, controller)
		},
	}

	forgetCmd := &ffcli.Command{
		Name:      "forget",
		ShortHelp: "Forget a saved wifi network",
		Exec: func(ctx context.Context, args []string) error {
			if len(args) == 0 {
				return fmt.Errorf("forget requires an ssid")
			}
			return runForget(os.Stdout, args[0], controller)
		},
	}

	root := &ffcli.Command{
		ShortUsage:  "wifictl [flags] <subcommand> [args...]",
		FlagSet:     rootFlagSet,
		Subcommands: []*ffcli.Command{listCmd, showCmd, connectCmd, forgetCmd},
		Exec: func(ctx context.Context, args []string) error {
			return runTUI(controller)
		},
	}

	// Parse the root flags before root.Run so the theme and logger are in
	// place for every subcommand. root.Run parses them again, which is fine.
	err := ff.Parse(rootFlagSet, os.Args[1:],
		ff.WithEnvVarPrefix("WIFICTL"),
		ff.WithIgnoreUndefined(true), // Ignore subcommand flags for now
	)
	if err != nil {
		if err == flag.ErrHelp {
			// ff.Parse doesn't print usage on ErrHelp, so we do it manually.
			root.FlagSet.Usage()
			os.Exit(0)
		}
		fmt.Fprintf(os.Stderr, "error parsing flags: %v\n", err)
		os.Exit(1)
	}

	if *version {
		fmt.Println(Version)
		os.Exit(0)
	}

	var sink io.Writer = io.Discard
	level := slog.LevelInfo
	if *debugPath != "" {
		f, err := os.OpenFile(*debugPath, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
		if err != nil {
			fmt.Fprintf(os.Stderr, "error opening debug log: %v\n", err)
			os.Exit(1)
		}
		defer f.Close()
		sink = f
		level = slog.LevelDebug
	}
	wifilog.Init(sink, level)

	if err := tui.LoadThemeFile(*theme); err != nil {
		fmt.Fprintf(os.Stderr, "error loading theme: %v\n", err)
		os.Exit(1)
	}

	adapter, err := GetAdapter()
	if err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}

	opts := []session.Option{}
	if *journalPath != "" {
		sightings, err = journal.Open(*journalPath)
		if err != nil {
			fmt.Fprintf(os.Stderr, "error opening journal: %v\n", err)
			os.Exit(1)
		}
		defer sightings.Close()
		opts = append(opts, session.WithRecorder(sightings))
	}
	controller = session.New(adapter, session.DefaultConfig(), opts...)

	if err := root.Run(context.Background()); err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
}
