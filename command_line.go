package hotbench

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"
	"strconv"
	"strings"
	"syscall"

	g "github.com/hhkbp2/hotbench/generator"
	"github.com/urfave/cli/v3"
)

const (
	ProgramName = "hotbench"
)

var (
	ErrUsage = errors.New("usage error")
)

func propertyFlags() []cli.Flag {
	return []cli.Flag{
		&cli.StringSliceFlag{
			Name:  "P",
			Usage: "load a workload file (.properties, .yaml or .json), may be repeated",
		},
		&cli.StringSliceFlag{
			Name:  "p",
			Usage: "set a property `name=value`, may be repeated",
		},
		&cli.StringFlag{
			Name:  "table",
			Usage: "use the table name instead of the default " + PropertyTableNameDefault,
		},
	}
}

// buildProperties merges the workload files, then the single properties, then
// the dedicated flags of the command.
func buildProperties(cmd *cli.Command) (Properties, error) {
	props := NewProperties()
	for _, path := range cmd.StringSlice("P") {
		fromFile, err := LoadProperties(path)
		if err != nil {
			return nil, err
		}
		props.Merge(fromFile)
	}
	for _, kv := range cmd.StringSlice("p") {
		k, v, ok := strings.Cut(kv, "=")
		if !ok || len(strings.TrimSpace(k)) == 0 {
			return nil, fmt.Errorf("%w: invalid property %q", ErrUsage, kv)
		}
		props.Add(strings.TrimSpace(k), strings.TrimSpace(v))
	}
	if database := cmd.Args().First(); len(database) > 0 {
		props.Add(PropertyDB, database)
	}
	for flag, property := range map[string]string{
		"table":   PropertyTableName,
		"threads": PropertyThreadCount,
		"target":  PropertyTarget,
	} {
		if cmd.IsSet(flag) {
			props.Add(property, cmd.String(flag))
		}
	}
	return props, nil
}

func setupLogging(cmd *cli.Command, props Properties) error {
	level := cmd.Root().String("log-level")
	if len(level) == 0 {
		level = props.GetDefault(PropertyLogLevel, PropertyLogLevelDefault)
	}
	console, err := props.GetBool(PropertyLogConsole, PropertyLogConsoleDefault)
	if err != nil {
		return err
	}
	return SetupLogger(level, console, cmd.Root().ErrWriter)
}

func newPhaseCommand(name, usage string, transactions bool) *cli.Command {
	flags := append(propertyFlags(),
		&cli.BoolFlag{
			Name:    "s",
			Aliases: []string{"status"},
			Usage:   "print status lines to stderr",
		},
		&cli.StringFlag{
			Name:  "threads",
			Usage: "number of client goroutines",
		},
		&cli.StringFlag{
			Name:  "target",
			Usage: "target operations per second, 0 for unthrottled",
		},
	)
	return &cli.Command{
		Name:      name,
		Usage:     usage,
		ArgsUsage: "<db>",
		Flags:     flags,
		Action: func(ctx context.Context, cmd *cli.Command) error {
			props, err := buildProperties(cmd)
			if err != nil {
				return err
			}
			if err = setupLogging(cmd, props); err != nil {
				return err
			}
			props.Add(PropertyTransactions, strconv.FormatBool(transactions))
			opts := []ClientOption{WithOutput(cmd.Root().Writer)}
			if cmd.Bool("s") {
				opts = append(opts, WithStatus(cmd.Root().ErrWriter))
			}
			client, err := NewClient(props, opts...)
			if err != nil {
				return err
			}
			if transactions {
				_, err = client.Run(ctx)
			} else {
				_, err = client.Load(ctx)
			}
			return err
		},
	}
}

func newShellCommand() *cli.Command {
	return &cli.Command{
		Name:      "shell",
		Usage:     "Interactive mode",
		ArgsUsage: "<db>",
		Flags:     propertyFlags(),
		Action: func(ctx context.Context, cmd *cli.Command) error {
			props, err := buildProperties(cmd)
			if err != nil {
				return err
			}
			if err = setupLogging(cmd, props); err != nil {
				return err
			}
			db, err := NewDB(props.GetDefault(PropertyDB, PropertyDBDefault), props)
			if err != nil {
				return err
			}
			if err = db.Init(); err != nil {
				return err
			}
			table := props.GetDefault(PropertyTableName, PropertyTableNameDefault)
			err = NewShell(db, table, os.Stdin, cmd.Root().Writer).Run()
			return errors.Join(err, db.Cleanup())
		},
	}
}

func newKeysCommand() *cli.Command {
	return &cli.Command{
		Name:  "keys",
		Usage: "Sample the hotspot key generator without a database",
		Flags: []cli.Flag{
			&cli.StringFlag{Name: "lower", Value: "0", Usage: "lower bound of the key range (inclusive)"},
			&cli.StringFlag{Name: "upper", Value: "9999", Usage: "upper bound of the key range (inclusive)"},
			&cli.StringFlag{Name: "hotset", Value: HotspotDataFractionDefault, Usage: "fraction of keys in the hot set"},
			&cli.StringFlag{Name: "hotopn", Value: HotspotOpnFractionDefault, Usage: "fraction of draws hitting the hot set"},
			&cli.StringFlag{Name: "n", Value: "100000", Usage: "number of keys to draw"},
			&cli.StringFlag{Name: "threads", Value: "1", Usage: "number of goroutines sharing the generator"},
			&cli.StringFlag{Name: "seed", Usage: "seed of a reproducible random source"},
		},
		Action: func(ctx context.Context, cmd *cli.Command) error {
			props := NewProperties()
			for _, name := range []string{"lower", "upper", "hotset", "hotopn", "n", "threads", "seed"} {
				props.Add(name, cmd.String(name))
			}
			return sampleKeys(ctx, props, cmd.Root().Writer)
		},
	}
}

func sampleKeys(ctx context.Context, props Properties, w io.Writer) error {
	lower, err := props.GetInt64("lower", "0")
	if err != nil {
		return err
	}
	upper, err := props.GetInt64("upper", "0")
	if err != nil {
		return err
	}
	hotset, err := props.GetFloat64("hotset", HotspotDataFractionDefault)
	if err != nil {
		return err
	}
	hotopn, err := props.GetFloat64("hotopn", HotspotOpnFractionDefault)
	if err != nil {
		return err
	}
	n, err := props.GetInt64("n", "0")
	if err != nil {
		return err
	}
	threads, err := props.GetInt64("threads", "1")
	if err != nil {
		return err
	}
	var opts []g.Option
	if seed := props.Get("seed"); len(seed) > 0 {
		v, err := strconv.ParseUint(seed, 0, 64)
		if err != nil {
			return fmt.Errorf("%w seed: %w", ErrInvalidProperty, err)
		}
		opts = append(opts, g.WithSource(g.NewSeededSource(v)))
	}
	gen := g.NewHotspotGenerator(lower, upper, hotset, hotopn, opts...)
	sample, err := SampleKeys(ctx, gen, n, int(threads))
	if err != nil {
		return err
	}
	Fprintf(w, "range: [%d, %d]", gen.LowerBound(), gen.UpperBound())
	Fprintf(w, "hot set: %d keys, cold set: %d keys", gen.HotInterval(), gen.ColdInterval())
	Fprintf(w, "draws: %d, hot: %d, hot fraction: %.4f (expected %.4f)",
		sample.Draws, sample.Hot, sample.HotFraction(), gen.HotOpnFraction())
	if sample.Draws > 0 {
		Fprintf(w, "min key: %d, max key: %d", sample.Min, sample.Max)
	}
	Fprintf(w, "mean: %.2f", gen.Mean())
	return nil
}

func NewApp() *cli.Command {
	return &cli.Command{
		Name:  ProgramName,
		Usage: "a key/value benchmark with hotspot key distribution",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:  "log-level",
				Usage: "verbose, debug, info, warn, error or quiet (default: the log.level property)",
			},
		},
		Description: "Databases: " + strings.Join(DatabaseNames(), ", "),
		Commands: []*cli.Command{
			newPhaseCommand("load", "Execute the load phase", false),
			newPhaseCommand("run", "Execute the transaction phase", true),
			newShellCommand(),
			newKeysCommand(),
		},
		Writer:    os.Stdout,
		ErrWriter: os.Stderr,
	}
}

// Main runs the command line and returns the process exit code.
func Main() int {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	if err := NewApp().Run(ctx, os.Args); err != nil {
		Errorf("%s", err)
		if errors.Is(err, ErrUsage) || errors.Is(err, ErrInvalidProperty) {
			return 2
		}
		return 1
	}
	return 0
}
