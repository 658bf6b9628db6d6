// Package main provides the entry point for the dma-readiness collector.
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/txn2/dma-readiness/internal/console"
	"github.com/txn2/dma-readiness/pkg/config"
	"github.com/txn2/dma-readiness/pkg/readiness"
)

// Version is set at build time.
var Version = "dev"

// stagingFile is the DuckDB file created inside the working path.
const stagingFile = "dma-readiness.duckdb"

func main() {
	if err := run(os.Args[1:], os.Stdout, os.Stderr); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

type cliOptions struct {
	configPath     string
	dbType         string
	host           string
	port           int
	username       string
	password       string
	database       string
	connectTimeout time.Duration
	workingPath    string
	key            string
	sourceID       string
	manualID       string
	logFormat      string
	debug          bool
	showVersion    bool
}

func parseFlags(args []string, output io.Writer) (cliOptions, error) {
	opts := cliOptions{}
	fs := flag.NewFlagSet("dma-readiness", flag.ContinueOnError)
	fs.SetOutput(output)
	fs.StringVar(&opts.configPath, "config", "", "Path to configuration file")
	fs.StringVar(&opts.dbType, "type", "", "Source database type: postgres, mysql, oracle, sqlserver")
	fs.StringVar(&opts.host, "host", "", "Source database host")
	fs.IntVar(&opts.port, "port", 0, "Source database port (engine default when unset)")
	fs.StringVar(&opts.username, "user", "", "Source database user")
	fs.StringVar(&opts.password, "password", "", "Source database password")
	fs.StringVar(&opts.database, "database", "", "Source database name")
	fs.DurationVar(&opts.connectTimeout, "connect-timeout", 0, "Timeout for the initial source connection")
	fs.StringVar(&opts.workingPath, "working-path", "", "Directory for the staging database (in-memory when unset)")
	fs.StringVar(&opts.key, "key", "", "Run key bound as PKEY (generated when unset)")
	fs.StringVar(&opts.sourceID, "source-id", "", "Source identifier bound as DMA_SOURCE_ID")
	fs.StringVar(&opts.manualID, "manual-id", "", "Manual identifier bound as DMA_MANUAL_ID")
	fs.StringVar(&opts.logFormat, "log-format", "", "Log format: text, json")
	fs.BoolVar(&opts.debug, "debug", false, "Enable debug logging")
	fs.BoolVar(&opts.showVersion, "version", false, "Show version and exit")
	if err := fs.Parse(args); err != nil {
		return opts, err
	}
	return opts, nil
}

// buildConfig loads the configuration file, if any, and applies flag
// overrides on top of it.
func buildConfig(opts cliOptions) (*config.Config, error) {
	cfg := &config.Config{}
	if opts.configPath != "" {
		loaded, err := config.LoadConfig(opts.configPath)
		if err != nil {
			return nil, fmt.Errorf("loading config: %w", err)
		}
		cfg = loaded
	}

	applyOverrides(cfg, opts)
	cfg.ApplyDefaults()

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func applyOverrides(cfg *config.Config, opts cliOptions) {
	setString(&cfg.Source.Type, opts.dbType)
	setString(&cfg.Source.Host, opts.host)
	setString(&cfg.Source.Username, opts.username)
	setString(&cfg.Source.Password, opts.password)
	setString(&cfg.Source.Database, opts.database)
	setString(&cfg.Run.Key, opts.key)
	setString(&cfg.Run.SourceID, opts.sourceID)
	setString(&cfg.Run.ManualID, opts.manualID)
	setString(&cfg.Log.Format, opts.logFormat)
	if opts.port != 0 {
		cfg.Source.Port = opts.port
	}
	if opts.connectTimeout != 0 {
		cfg.Source.ConnectTimeout = opts.connectTimeout
	}
	if opts.workingPath != "" {
		cfg.Staging.Path = filepath.Join(opts.workingPath, stagingFile)
	}
	if opts.debug {
		cfg.Log.Level = "debug"
	}
}

func setString(dst *string, v string) {
	if v != "" {
		*dst = v
	}
}

func newLogger(cfg *config.Config, w io.Writer) *slog.Logger {
	handlerOpts := &slog.HandlerOptions{Level: cfg.LogLevel()}
	if cfg.Log.Format == "json" {
		return slog.New(slog.NewJSONHandler(w, handlerOpts))
	}
	return slog.New(slog.NewTextHandler(w, handlerOpts))
}

func run(args []string, stdout, stderr io.Writer) error {
	opts, err := parseFlags(args, stderr)
	if err != nil {
		if errors.Is(err, flag.ErrHelp) {
			return nil
		}
		return err
	}

	if opts.showVersion {
		_, _ = fmt.Fprintf(stdout, "dma-readiness version %s\n", Version)
		return nil
	}

	cfg, err := buildConfig(opts)
	if err != nil {
		return err
	}
	slog.SetDefault(newLogger(cfg, stderr))

	src, err := cfg.SourceConfig()
	if err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	printer := console.New(stdout)
	_, err = readiness.Run(ctx, readiness.Options{
		Source:        src,
		StagingPath:   cfg.Staging.Path,
		Sink:          stdout,
		Hooks:         printer.Hooks(),
		BeforeSummary: printer.SummaryHeading,
	}, cfg.RunParams())
	return err
}
