package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/paveg/phasor/internal/config"
	"github.com/paveg/phasor/internal/dataset"
	phasorio "github.com/paveg/phasor/internal/io"
	"github.com/paveg/phasor/internal/lockin"
	"github.com/paveg/phasor/internal/logging"
	"github.com/paveg/phasor/internal/monitoring"
	"github.com/paveg/phasor/internal/regrid"
	"github.com/paveg/phasor/internal/version"
)

func customUsage(fs *flag.FlagSet) func() {
	return func() {
		w := fs.Output()
		fmt.Fprintf(w, "phasor: lock-in recording processor (version %s)\n\n", version.Version)
		fmt.Fprintf(w, "Usage: phasor -files a.dat,b.dat -columns t,X,Y [options]\n\n")
		fmt.Fprintf(w, "Options:\n")
		fs.PrintDefaults()
	}
}

type options struct {
	files       []string
	columns     []string
	channels    string
	index       string
	id          string
	regridStep  float64
	method      string
	fft         bool
	out         string
	configPath  string
	verbose     bool
	showVersion bool
}

func parseFlags(args []string, stderr io.Writer) (options, error) {
	var (
		o        options
		files    string
		columns  string
		fs       = flag.NewFlagSet("phasor", flag.ContinueOnError)
		versionF = fs.Bool("v", false, "Print version and exit")
	)
	fs.SetOutput(stderr)
	fs.BoolVar(versionF, "version", false, "Print version and exit") // alias
	fs.StringVar(&files, "files", "", "Comma separated data files")
	fs.StringVar(&columns, "columns", "", "Comma separated column names of the data files")
	fs.StringVar(&o.channels, "channels", "",
		"Output channels as name=X:Y (zero-quadrature pair) or name=X, comma separated (default: every column)")
	fs.StringVar(&o.index, "index", "", "Index column (default: first column)")
	fs.StringVar(&o.id, "id", "file", "Identifier column holding each file's base name")
	fs.Float64Var(&o.regridStep, "regrid-step", 0, "Regrid the index onto an even grid with this step")
	fs.StringVar(&o.method, "method", "", "Interpolation method (default from config)")
	fs.BoolVar(&o.fft, "fft", false, "Fourier transform every channel")
	fs.StringVar(&o.out, "out", "", "Output file, .csv or .parquet (default: print)")
	fs.StringVar(&o.configPath, "config", "", "Configuration file (.json, .yaml)")
	fs.BoolVar(&o.verbose, "verbose", false, "Log at debug level")
	fs.Usage = customUsage(fs)

	if err := fs.Parse(args); err != nil {
		return o, err
	}
	o.showVersion = *versionF
	o.files = splitList(files)
	o.columns = splitList(columns)
	return o, nil
}

func splitList(s string) []string {
	var out []string
	for _, part := range strings.Split(s, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}

// parseChannels reads name=X:Y and name=X entries
func parseChannels(s string, columns []string, index string) ([]lockin.Channel, error) {
	if s == "" {
		var channels []lockin.Channel
		for _, c := range columns {
			if c != index {
				channels = append(channels, lockin.Channel{Name: c, X: c})
			}
		}
		return channels, nil
	}
	var channels []lockin.Channel
	for _, entry := range splitList(s) {
		name, source, ok := strings.Cut(entry, "=")
		if !ok || name == "" || source == "" {
			return nil, fmt.Errorf("channel %q: expected name=X or name=X:Y", entry)
		}
		x, y, _ := strings.Cut(source, ":")
		channels = append(channels, lockin.Channel{Name: name, X: x, Y: y})
	}
	return channels, nil
}

func loadConfig(o options) (config.Config, []string, error) {
	cfg := config.LoadFromEnv()
	if o.configPath != "" {
		loaded, err := config.LoadFromFile(o.configPath)
		if err != nil {
			return cfg, nil, fmt.Errorf("loading config: %w", err)
		}
		cfg = loaded
	}
	if o.verbose {
		cfg.VerboseLogging = true
	}
	if o.method != "" {
		cfg.Interpolation = o.method
	}
	validated, warnings, err := config.NewConfigValidator().Validate(cfg.WithDefaults())
	if err != nil {
		return cfg, nil, fmt.Errorf("invalid config: %w", err)
	}
	return validated, warnings, nil
}

func run(ctx context.Context, args []string, stdout, stderr io.Writer) error {
	o, err := parseFlags(args, stderr)
	if err != nil {
		return err
	}
	if o.showVersion {
		fmt.Fprint(stdout, version.Info().String())
		return nil
	}
	if len(o.files) == 0 || len(o.columns) == 0 {
		return errors.New("-files and -columns are required")
	}

	cfg, warnings, err := loadConfig(o)
	if err != nil {
		return err
	}
	config.SetGlobalConfig(cfg)
	logging.SetDefault(logging.NewWriterLogger(stderr, logging.LevelFor(cfg.VerboseLogging), false))
	for _, w := range warnings {
		logging.Default().WarnContext(ctx, w)
	}
	if cfg.MetricsCollection {
		monitoring.EnableGlobalMonitoring()
		defer func() {
			summary := monitoring.GetGlobalSummary()
			logging.Default().InfoContext(ctx, "metrics",
				"operations", summary.TotalOperations,
				"rows", summary.TotalRows,
				"duration", summary.TotalDuration,
			)
		}()
	}

	index := o.index
	if index == "" {
		index = o.columns[0]
	}
	channels, err := parseChannels(o.channels, o.columns, index)
	if err != nil {
		return err
	}

	sources := make([]lockin.Source, len(o.files))
	for i, path := range o.files {
		base := filepath.Base(path)
		sources[i] = lockin.Source{
			Path: path,
			IDs:  map[string]any{o.id: strings.TrimSuffix(base, filepath.Ext(base))},
		}
	}
	spec := lockin.Spec{
		Columns:  o.columns,
		Index:    index,
		Channels: channels,
		IDVars:   []string{o.id},
	}

	ds, err := lockin.Assemble(ctx, sources, spec)
	if err != nil {
		return err
	}
	defer ds.Release()

	result, err := transform(ctx, ds, o)
	if err != nil {
		return err
	}
	defer result.Release()

	if o.out == "" {
		fmt.Fprintln(stdout, result.String())
		return nil
	}
	f, err := phasorio.DatafileFromPath(o.out, result.Index(), result.IDVars()...)
	if err != nil {
		return err
	}
	return f.WriteDataset(ctx, result)
}

// transform applies the requested regrid and Fourier steps. The result is
// always a new dataset owned by the caller.
func transform(ctx context.Context, ds *dataset.Dataset, o options) (*dataset.Dataset, error) {
	current, err := ds.Select(ds.Columns()...)
	if err != nil {
		return nil, err
	}
	if o.regridStep > 0 {
		lo, hi, err := current.Extrema(current.Index())
		if err != nil {
			current.Release()
			return nil, err
		}
		axis, err := regrid.Range(current.Index(), lo, hi, o.regridStep)
		if err != nil {
			current.Release()
			return nil, err
		}
		next, err := current.Regrid(axis, dataset.WithContext(ctx))
		current.Release()
		if err != nil {
			return nil, err
		}
		current = next
	}
	if o.fft {
		next, err := current.FourierTransform(dataset.WithContext(ctx))
		current.Release()
		if err != nil {
			return nil, err
		}
		current = next
	}
	return current, nil
}

func main() {
	if err := run(context.Background(), os.Args[1:], os.Stdout, os.Stderr); err != nil {
		if errors.Is(err, flag.ErrHelp) {
			return
		}
		fmt.Fprintf(os.Stderr, "phasor: %v\n", err)
		os.Exit(1)
	}
}
