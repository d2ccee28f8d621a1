package main

import (
	"flag"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/funvibe/qirlower/internal/backend"
	"github.com/funvibe/qirlower/internal/config"
	"github.com/funvibe/qirlower/internal/diagnostics"
	"github.com/funvibe/qirlower/internal/metrics"
	"github.com/funvibe/qirlower/internal/modules"
	"github.com/funvibe/qirlower/internal/partialeval"
	"github.com/funvibe/qirlower/internal/pipeline"
	"github.com/funvibe/qirlower/internal/rircache"
	"github.com/funvibe/qirlower/internal/token"
	"github.com/mattn/go-isatty"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

type options struct {
	configPath string
	profile    string
	entry      string
	format     string
	cache      string
	output     string
	verbose    bool
	metrics    bool
}

func parseFlags(args []string) (*options, []string, error) {
	fs := flag.NewFlagSet("qirlower", flag.ContinueOnError)
	o := &options{}
	fs.StringVar(&o.configPath, "config", "", "configuration file (default: nearest "+config.ConfigFileNames[0]+")")
	fs.StringVar(&o.profile, "profile", "", "target profile: base, adaptive or adaptive_rif")
	fs.StringVar(&o.entry, "entry", "", "entry callable name")
	fs.StringVar(&o.format, "format", "", "output format: text, yaml or resources")
	fs.StringVar(&o.cache, "cache", "", "artifact database path (enables caching)")
	fs.StringVar(&o.output, "o", "", "write output to file instead of stdout")
	fs.BoolVar(&o.verbose, "v", false, "verbose logging")
	fs.BoolVar(&o.metrics, "metrics", false, "dump metrics to stderr on exit")
	fs.Usage = func() {
		fmt.Fprintf(fs.Output(), "Usage: qirlower [flags] <program%s|dir>\n", config.ProgramFileExt)
		fs.PrintDefaults()
	}
	if err := fs.Parse(args); err != nil {
		return nil, nil, err
	}
	return o, fs.Args(), nil
}

// loadConfig applies command line overrides on top of the file settings.
func loadConfig(o *options, input string) (*config.LoweringConfig, error) {
	path := o.configPath
	if path == "" {
		dir := input
		if info, err := os.Stat(input); err == nil && !info.IsDir() {
			dir = filepath.Dir(input)
		}
		found, err := config.FindConfig(dir)
		if err != nil {
			return nil, err
		}
		path = found
	}
	cfg := config.DefaultConfig()
	if path != "" {
		loaded, err := config.LoadConfig(path)
		if err != nil {
			return nil, err
		}
		cfg = loaded
	}
	if o.profile != "" {
		if _, ok := config.ParseProfile(o.profile); !ok {
			return nil, fmt.Errorf("unknown profile %q", o.profile)
		}
		cfg.Profile = o.profile
	}
	if o.entry != "" {
		cfg.Entry = o.entry
	}
	if o.format != "" {
		cfg.Format = o.format
	}
	if o.cache != "" {
		cfg.Cache.Enabled = true
		cfg.Cache.Path = o.cache
	}
	if o.verbose {
		cfg.Log.Level = "debug"
	}
	return cfg, nil
}

func newLogger(cfg *config.LoweringConfig, verbose bool) (*zap.Logger, error) {
	var zc zap.Config
	if verbose {
		zc = zap.NewDevelopmentConfig()
	} else {
		zc = zap.NewProductionConfig()
		zc.Encoding = "console"
		zc.EncoderConfig.EncodeTime = zapcore.ISO8601TimeEncoder
	}
	zc.Level = zap.NewAtomicLevelAt(cfg.LogLevel())
	return zc.Build()
}

func openCache(cfg *config.LoweringConfig, logger *zap.Logger) (*rircache.Cache, error) {
	if !cfg.Cache.Enabled {
		return nil, nil
	}
	var store rircache.Store
	if cfg.Cache.Path != "" {
		s, err := rircache.OpenSQLite(cfg.Cache.Path, logger)
		if err != nil {
			return nil, err
		}
		store = s
	}
	return rircache.New(cfg.Cache.Size, store, logger)
}

func readInput(path string) ([]byte, error) {
	if path == "-" {
		return io.ReadAll(os.Stdin)
	}
	info, err := os.Stat(path)
	if err != nil {
		return nil, err
	}
	if info.IsDir() {
		// directories are merged by the loader
		return nil, nil
	}
	return os.ReadFile(path)
}

func printDiagnostics(errs []*diagnostics.DiagnosticError) {
	color := isatty.IsTerminal(os.Stderr.Fd()) || isatty.IsCygwinTerminal(os.Stderr.Fd())
	fmt.Fprintln(os.Stderr, "Processing failed with errors:")
	for _, err := range errs {
		if color {
			fmt.Fprintf(os.Stderr, "- \x1b[31m%s\x1b[0m\n", err.Error())
		} else {
			fmt.Fprintf(os.Stderr, "- %s\n", err.Error())
		}
	}
}

func run(args []string) int {
	o, rest, err := parseFlags(args)
	if err != nil {
		if err == flag.ErrHelp {
			return 0
		}
		return 2
	}
	if len(rest) != 1 {
		fmt.Fprintln(os.Stderr, "Usage: qirlower [flags] <program|dir|->")
		return 2
	}
	input := rest[0]

	cfg, err := loadConfig(o, input)
	if err != nil {
		printDiagnostics([]*diagnostics.DiagnosticError{
			diagnostics.NewError(diagnostics.ErrC001, token.Token{}, err.Error()),
		})
		return 1
	}
	logger, err := newLogger(cfg, o.verbose)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %s\n", err)
		return 1
	}
	defer logger.Sync()

	source, err := readInput(input)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error reading input: %s\n", err)
		return 1
	}
	out, err := backend.New(cfg.Format)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %s\n", err)
		return 1
	}
	cache, err := openCache(cfg, logger)
	if err != nil {
		logger.Warn("artifact cache disabled", zap.Error(err))
	}
	if cache != nil {
		defer cache.Close()
	}

	filePath := input
	if input != "-" {
		filePath, _ = filepath.Abs(input)
	}
	ctx := pipeline.NewPipelineContext(filePath, source, cfg)
	ctx.Logger = logger.With(zap.String("session", ctx.SessionID.String()))

	processingPipeline := pipeline.New(
		&rircache.LookupProcessor{Cache: cache},
		&modules.LoadProcessor{Loader: modules.NewLoader()},
		&partialeval.LoweringProcessor{},
		backend.NewEmitProcessor(out),
		&rircache.StoreProcessor{Cache: cache},
	)
	final := processingPipeline.Run(ctx)

	if o.metrics {
		defer metrics.WriteText(os.Stderr)
	}
	if final.Failed() {
		printDiagnostics(final.Errors)
		return 1
	}
	if o.output != "" {
		if err := os.WriteFile(o.output, final.Output, 0o644); err != nil {
			fmt.Fprintf(os.Stderr, "Error writing output: %s\n", err)
			return 1
		}
		return 0
	}
	os.Stdout.Write(final.Output)
	return 0
}

func main() {
	// Catch panics and show user-friendly error
	defer func() {
		if r := recover(); r != nil {
			if os.Getenv("DEBUG") == "1" {
				panic(r)
			}
			fmt.Fprintf(os.Stderr, "Internal error: %v\n", r)
			fmt.Fprintln(os.Stderr, "This is a bug. Please report it.")
			os.Exit(1)
		}
	}()
	os.Exit(run(os.Args[1:]))
}
