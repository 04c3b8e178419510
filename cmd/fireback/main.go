package main

import (
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	promreporter "github.com/uber-go/tally/v4/prometheus"
	"github.com/urfave/cli/v2"

	"github.com/fireback-io/fireback/backup"
	"github.com/fireback-io/fireback/cmd/fireback/config"
	"github.com/fireback-io/fireback/internal/cli/output"
	"github.com/fireback-io/fireback/pkg/logutil"
	"github.com/fireback-io/fireback/pkg/tracker"
	"github.com/fireback-io/fireback/pkg/umetrics"
)

var formatFlag = &cli.StringFlag{
	Name:    "format",
	Aliases: []string{"f"},
	Value:   "table",
	Usage:   "Output format: table, json",
}

func getFormatter(c *cli.Context) (output.Formatter, error) {
	format := c.String("format")
	if format != "table" && format != "json" {
		return nil, fmt.Errorf("invalid format %q: must be 'table' or 'json'", format)
	}
	return output.NewFormatter(output.Format(format)), nil
}

type cliApp struct {
	cfg     config.Config
	tracker *tracker.Memory
	parser  *backup.Parser
}

func main() {
	a := &cliApp{}

	app := &cli.App{
		Name:    "fireback",
		Usage:   "Firestore export inspection CLI",
		Version: "0.1.0",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:    "config",
				Aliases: []string{"c"},
				Value:   "./fireback.toml",
				Usage:   "config file",
			},
			&cli.StringFlag{
				Name:  "log-level",
				Usage: "override configured log level: debug, info, warn, error",
			},
			&cli.BoolFlag{
				Name:  "json-logs",
				Usage: "emit logs as JSON",
			},
			&cli.BoolFlag{
				Name:  "no-lock",
				Usage: "skip the shared advisory lock on backup files",
			},
			&cli.StringFlag{
				Name:  "metrics-listen",
				Usage: "serve Prometheus metrics on this address",
			},
		},
		Before: a.setup,
		Commands: []*cli.Command{
			parseCommand(a),
			validateCommand(a),
			resolveCommand(a),
		},
	}

	if err := app.Run(os.Args); err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
}

func (a *cliApp) setup(c *cli.Context) error {
	cfg, err := config.Load(c.String("config"))
	if err != nil {
		return err
	}
	a.cfg = cfg

	level := cfg.Log.LogLevel
	if c.String("log-level") != "" {
		level = c.String("log-level")
	}
	minLevel, err := config.ParseLogLevel(level)
	if err != nil {
		return err
	}
	percents, err := config.ParseLevelPercents(cfg.Log)
	if err != nil {
		return err
	}
	logutil.Setup(minLevel, percents, c.Bool("json-logs") || cfg.Log.JSON)

	metricsListen := cfg.MetricsListen
	if c.String("metrics-listen") != "" {
		metricsListen = c.String("metrics-listen")
	}
	if metricsListen != "" {
		if err := serveMetrics(metricsListen); err != nil {
			return err
		}
	}

	trackerCfg := tracker.DefaultConfig()
	if cfg.Tracker.MaxCompletedOperations > 0 {
		trackerCfg.MaxCompletedOperations = cfg.Tracker.MaxCompletedOperations
	}
	if cfg.Tracker.MaxAuditEntries > 0 {
		trackerCfg.MaxAuditEntries = cfg.Tracker.MaxAuditEntries
	}
	a.tracker = tracker.NewMemory(trackerCfg, tracker.WithScope(umetrics.Scope("tracker")))

	interval, err := config.ProgressInterval(cfg.Progress)
	if err != nil {
		return err
	}

	opts := []backup.ParserOption{
		backup.WithTracker(a.tracker),
		backup.WithProgressInterval(interval),
	}
	if c.Bool("no-lock") {
		opts = append(opts, backup.WithoutFileLock())
	}
	a.parser = backup.NewParser(opts...)
	return nil
}

func serveMetrics(addr string) error {
	reporter := promreporter.NewReporter(promreporter.Options{})
	umetrics.Bootstrap(umetrics.Options{
		Reporter:       reporter,
		ReportInterval: time.Second,
	})

	mux := http.NewServeMux()
	mux.Handle("GET /metrics", promhttp.Handler())
	server := &http.Server{
		Addr:         addr,
		WriteTimeout: time.Second * 15,
		ReadTimeout:  time.Second * 15,
		IdleTimeout:  time.Second * 60,
		Handler:      mux,
	}

	go func() {
		if err := server.ListenAndServe(); !errors.Is(err, http.ErrServerClosed) {
			slog.Error("[fireback.main] metrics server failed", "error", err)
		}
	}()
	slog.Info("[fireback.main] metrics server started", "addr", addr)
	return nil
}

func parseCommand(a *cliApp) *cli.Command {
	return &cli.Command{
		Name:      "parse",
		Usage:     "Parse backup files into documents and report what was found",
		ArgsUsage: "<path> [path...]",
		Flags: []cli.Flag{
			formatFlag,
			&cli.IntFlag{
				Name:  "concurrency",
				Value: 4,
				Usage: "parallel file parses when multiple paths are given",
			},
		},
		Action: a.parseAction,
	}
}

func (a *cliApp) parseAction(c *cli.Context) error {
	if c.NArg() == 0 {
		return errors.New("path to a backup file or export directory required")
	}
	formatter, err := getFormatter(c)
	if err != nil {
		return err
	}
	if c.String("format") == "table" {
		printBanner()
	}

	paths := make([]string, 0, c.NArg())
	for _, arg := range c.Args().Slice() {
		resolved, rErr := backup.ResolveBackupFile(arg)
		if rErr != nil {
			return rErr
		}
		paths = append(paths, resolved)
	}

	if len(paths) == 1 {
		start := time.Now()
		res, pErr := a.parser.Parse(c.Context, paths[0])
		if wErr := formatter.WriteParseSummary(os.Stdout, buildParseSummary(paths[0], res, time.Since(start))); wErr != nil {
			return wErr
		}
		return pErr
	}

	start := time.Now()
	results, pErr := a.parser.ParseMany(c.Context, paths, c.Int("concurrency"))
	took := time.Since(start)
	for _, path := range paths {
		res, ok := results[path]
		if !ok {
			continue
		}
		if wErr := formatter.WriteParseSummary(os.Stdout, buildParseSummary(path, res, took)); wErr != nil {
			return wErr
		}
	}
	return pErr
}

func buildParseSummary(path string, res *backup.ParseResult, took time.Duration) output.ParseSummary {
	perCollection := make(map[string]int64, len(res.Collections))
	for _, doc := range res.Documents {
		perCollection[doc.Collection]++
	}
	collections := make([]output.CollectionCount, 0, len(res.Collections))
	for _, name := range res.Collections {
		collections = append(collections, output.CollectionCount{
			Name:      name,
			Documents: perCollection[name],
		})
	}

	issues := make([]output.ParseIssue, 0, len(res.Errors))
	for _, pe := range res.Errors {
		issues = append(issues, output.ParseIssue{
			Block:   pe.Block,
			Offset:  pe.Offset,
			Record:  pe.Record,
			Message: pe.Err.Error(),
		})
	}

	return output.ParseSummary{
		Path:             path,
		Format:           backup.DetectFormat(path).String(),
		FileSize:         res.Metadata.FileSize,
		FileSizeHuman:    humanize.Bytes(res.Metadata.FileSize),
		Documents:        int64(res.Metadata.DocumentCount),
		Collections:      collections,
		BlocksProcessed:  int64(res.Metadata.BlocksProcessed),
		RecordsProcessed: int64(res.Metadata.RecordsProcessed),
		Issues:           issues,
		TookMillis:       took.Milliseconds(),
	}
}

func validateCommand(a *cliApp) *cli.Command {
	return &cli.Command{
		Name:      "validate",
		Usage:     "Check a backup file's structure without decoding documents",
		ArgsUsage: "<path>",
		Flags:     []cli.Flag{formatFlag},
		Action:    a.validateAction,
	}
}

func (a *cliApp) validateAction(c *cli.Context) error {
	if c.NArg() != 1 {
		return errors.New("exactly one backup path required")
	}
	formatter, err := getFormatter(c)
	if err != nil {
		return err
	}

	path, err := backup.ResolveBackupFile(c.Args().First())
	if err != nil {
		return err
	}

	report, err := backup.NewValidator().Validate(path)
	if err != nil {
		return err
	}

	return formatter.WriteValidation(os.Stdout, output.ValidationSummary{
		Path:           report.Path,
		Format:         report.Format.String(),
		FileSizeHuman:  humanize.Bytes(report.FileSize),
		BlocksScanned:  report.BlocksScanned,
		RecordsScanned: report.RecordsScanned,
		CorruptRecords: report.CorruptRecords,
		IntegrityScore: report.IntegrityScore,
		Warnings:       report.Warnings,
	})
}

func resolveCommand(a *cliApp) *cli.Command {
	return &cli.Command{
		Name:      "resolve",
		Usage:     "Show which file inside an export directory would be parsed",
		ArgsUsage: "<path>",
		Flags:     []cli.Flag{formatFlag},
		Action:    a.resolveAction,
	}
}

func (a *cliApp) resolveAction(c *cli.Context) error {
	if c.NArg() != 1 {
		return errors.New("exactly one path required")
	}
	formatter, err := getFormatter(c)
	if err != nil {
		return err
	}

	resolved, err := backup.ResolveBackupFile(c.Args().First())
	if err != nil {
		return err
	}

	return formatter.WriteResolve(os.Stdout, output.ResolveSummary{
		Input:    c.Args().First(),
		Resolved: resolved,
		Format:   backup.DetectFormat(resolved).String(),
	})
}
