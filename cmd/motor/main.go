package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/mattn/go-isatty"
	"github.com/voxelbrain/goptions"

	"github.com/wayneeseguin/motor/internal/config"
	"github.com/wayneeseguin/motor/internal/motorlog"
	"github.com/wayneeseguin/motor/pkg/motor"

	// Each of these registers its driver class into motor.DefaultRegistry
	// from an init(), the same RegisterOp-on-import idiom the teacher's
	// operator packages use.
	_ "github.com/wayneeseguin/motor/examples/drivers/awsdriver"
	_ "github.com/wayneeseguin/motor/examples/drivers/httpdriver"
	_ "github.com/wayneeseguin/motor/examples/drivers/subprocdriver"
	_ "github.com/wayneeseguin/motor/examples/drivers/vaultdriver"
)

// Version is set at build time via -ldflags.
var Version = "(development)"

var (
	printfStdOut = func(format string, args ...interface{}) { fmt.Fprintf(os.Stdout, format, args...) }
	exit         = os.Exit
	usage        = func() { goptions.PrintHelp(); exit(1) }
)

type runOpts struct {
	Config   string `goptions:"-c, --config, description='Path to the run's YAML config', obligatory"`
	MaxAA    int    `goptions:"--max-affected-argsets, description='Cap argsets shown per error in the report (0 = unlimited)'"`
	StatsOut string `goptions:"--stats-csv, description='Append a row of final stats to this CSV file'"`
	ArgsOut  string `goptions:"--args-csv-dir, description='Write one CSV per distinct error into this directory'"`
	DumpOut  string `goptions:"--dump, description='Write the finished tracker to this JSON file for a later report'"`
	Help     bool   `goptions:"-h, --help"`
}

type reportOpts struct {
	Dump  string `goptions:"-d, --dump, description='Path to a tracker JSON file written by run --dump', obligatory"`
	MaxAA int    `goptions:"--max-affected-argsets, description='Cap argsets shown per error in the report (0 = unlimited)'"`
	Help  bool   `goptions:"-h, --help"`
}

type versionOpts struct {
	Help bool `goptions:"-h, --help"`
}

func main() {
	var options struct {
		ShowVersion bool   `goptions:"-v, --version, description='Display version information'"`
		Color       string `goptions:"--color, description='Control color output (on/off/auto, default: auto)'"`
		Action      goptions.Verbs
		Run         runOpts     `goptions:"run"`
		Report      reportOpts  `goptions:"report"`
		Version     versionOpts `goptions:"version"`
	}

	if err := goptions.Parse(&options); err != nil {
		usage()
		return
	}

	if options.ShowVersion {
		printfStdOut("motor - Version %s\n", Version)
		exit(0)
		return
	}

	mode := motor.ColorAuto
	switch options.Color {
	case "on":
		mode = motor.ColorOn
	case "off":
		mode = motor.ColorOff
	case "auto", "":
		if !isatty.IsTerminal(os.Stdout.Fd()) {
			mode = motor.ColorOff
		}
	default:
		fmt.Fprintf(os.Stderr, "invalid --color option: %s. Must be 'on', 'off', or 'auto'.\n", options.Color)
		exit(1)
		return
	}

	switch options.Action {
	case "run":
		if options.Run.Help {
			usage()
			return
		}
		if err := cmdRun(options.Run, mode); err != nil {
			fmt.Fprintf(os.Stderr, "%s\n", err)
			exit(2)
			return
		}
	case "report":
		if options.Report.Help {
			usage()
			return
		}
		if err := cmdReport(options.Report, mode); err != nil {
			fmt.Fprintf(os.Stderr, "%s\n", err)
			exit(2)
			return
		}
	case "version":
		if options.Version.Help {
			usage()
			return
		}
		printfStdOut("motor - Version %s\n", Version)
	default:
		usage()
	}
}

func cmdRun(opts runOpts, mode motor.ColorMode) error {
	mgr := config.NewManager()
	if err := mgr.Load(opts.Config); err != nil {
		return fmt.Errorf("loading config: %w", err)
	}
	cfg := mgr.Get()

	logger, err := motorlog.New(cfg.Logging)
	if err != nil {
		return fmt.Errorf("building logger: %w", err)
	}
	logger.Info("starting run", "config", opts.Config)

	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	var notifier *motor.Notifier
	if cfg.Notify.Enabled {
		notifier, err = motor.Dial(cfg.Notify.URL, cfg.Notify.Subject)
		if err != nil {
			return fmt.Errorf("connecting to notify backend: %w", err)
		}
		defer notifier.Close()
	}

	tracker := motor.NewTracker()
	if cfg.Metrics.Enabled {
		go func() {
			if err := motor.ServeMetrics(ctx, cfg.Metrics.Listen, tracker); err != nil {
				logger.Error(err, "metrics server exited", "listen", cfg.Metrics.Listen)
			}
		}()
	}

	tracker, err = runFromConfig(ctx, cfg, tracker)
	if err != nil {
		return err
	}

	if notifier != nil {
		_ = notifier.PublishSummary(tracker.GetStats())
	}

	if opts.StatsOut != "" {
		if err := tracker.WriteStatsCSV(opts.StatsOut); err != nil {
			return fmt.Errorf("writing stats csv: %w", err)
		}
	}
	if opts.ArgsOut != "" {
		if err := os.MkdirAll(opts.ArgsOut, 0755); err != nil {
			return fmt.Errorf("creating args csv dir: %w", err)
		}
		if err := tracker.WriteArgsCSV(opts.ArgsOut); err != nil {
			return fmt.Errorf("writing args csv: %w", err)
		}
	}
	if opts.DumpOut != "" {
		if err := tracker.DumpJSON(opts.DumpOut); err != nil {
			return fmt.Errorf("dumping tracker: %w", err)
		}
	}

	tracker.PrintReport(opts.MaxAA, mode)
	if tracker.ErrorsFound() {
		exit(1)
	}
	return nil
}

func cmdReport(opts reportOpts, mode motor.ColorMode) error {
	tracker, err := motor.LoadTrackerJSON(opts.Dump)
	if err != nil {
		return fmt.Errorf("loading tracker dump: %w", err)
	}
	tracker.PrintReport(opts.MaxAA, mode)
	return nil
}

// runFromConfig builds a Generator from cfg.Suite's scheme/source, wires
// every triple's oracle/result driver classes from motor.DefaultRegistry
// (populated by whichever examples/drivers packages the binary blank-
// imports), and runs them with an equality comparator — the declarative
// path a YAML-only invocation takes; a caller wanting a custom Comparator
// or driver factory builds its own main the way examples/basic-usage does.
// tracker, if non-nil, is updated in place so a caller (e.g. a concurrently
// running metrics server) can observe live stats while the run proceeds.
func runFromConfig(ctx context.Context, cfg *config.Config, tracker *motor.Tracker) (*motor.Tracker, error) {
	if len(cfg.Suite.Triples) == 0 {
		return nil, fmt.Errorf("suite.triples is empty: nothing to compare")
	}

	scheme, err := buildScheme(cfg.Suite.Scheme)
	if err != nil {
		return nil, fmt.Errorf("suite.scheme: %w", err)
	}
	source := motor.Source(cfg.Suite.Source)
	gen := motor.NewGenerator(scheme, source, cfg.Run.RecursionLimit)

	triples := make([]motor.Triple, 0, len(cfg.Suite.Triples))
	for _, tc := range cfg.Suite.Triples {
		if _, ok := motor.DefaultRegistry.Drivers()[tc.Oracle]; !ok {
			return nil, fmt.Errorf("no driver registered for oracle class %q (forgot a blank import?)", tc.Oracle)
		}
		if _, ok := motor.DefaultRegistry.Drivers()[tc.Result]; !ok {
			return nil, fmt.Errorf("no driver registered for result class %q (forgot a blank import?)", tc.Result)
		}
		triples = append(triples, motor.Triple{
			Comparator:  motor.EqualComparator(),
			OracleClass: tc.Oracle,
			ResultClass: tc.Result,
		})
	}

	m := motor.NewMotor(motor.DefaultRegistry.Drivers())
	return m.Run(gen.All(), motor.RunConfig{
		Triples:  triples,
		Settings: cfg.DriverSettings(),
		Tracker:  tracker,
	})
}

// buildScheme converts the YAML-friendly scheme (leaves spelled "scalar" /
// "iterable", since a motor.Mark can't itself come out of a YAML decode)
// into the motor.Scheme the Generator expects. Nested maps recurse as
// sub-schemes, matching the Generator's own Scheme/sub-Scheme handling.
func buildScheme(raw map[string]interface{}) (motor.Scheme, error) {
	out := motor.Scheme{}
	for key, v := range raw {
		switch leaf := v.(type) {
		case string:
			switch leaf {
			case "scalar":
				out[key] = motor.Scalar
			case "iterable":
				out[key] = motor.Iterable
			default:
				return nil, fmt.Errorf("key %q: unknown mark %q (want \"scalar\" or \"iterable\")", key, leaf)
			}
		case map[string]interface{}:
			sub, err := buildScheme(leaf)
			if err != nil {
				return nil, fmt.Errorf("key %q: %w", key, err)
			}
			out[key] = sub
		default:
			return nil, fmt.Errorf("key %q: scheme leaf must be a mark string or a nested mapping", key)
		}
	}
	return out, nil
}
