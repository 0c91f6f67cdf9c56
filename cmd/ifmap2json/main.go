package main

import (
	"context"
	"crypto/rand"
	"flag"
	"fmt"
	"io"
	"log"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"
	"time"

	"github.com/oklog/ulid/v2"

	"ifmap2json/config"
	"ifmap2json/internal/logger"
	"ifmap2json/internal/metrics"
	"ifmap2json/internal/output/eventjson"
	"ifmap2json/internal/output/graphdot"
	"ifmap2json/internal/pipeline"
	"ifmap2json/internal/rules"
)

const configName = "ifmap2json.yml"

func findConfigFile(configArg string) string {
	if configArg != "" {
		path := configArg
		if _, err := os.Stat(path); err == nil {
			return path
		}
		log.Printf("Warning: config file not found at %s, trying default locations", path)
	}

	if _, err := os.Stat(configName); err == nil {
		return configName
	}

	exePath, err := os.Executable()
	if err == nil {
		exeDir := filepath.Dir(exePath)
		path := filepath.Join(exeDir, configName)
		if _, err := os.Stat(path); err == nil {
			return path
		}
	}

	return configName
}

func applyDefaults(cfg *config.Config) {
	if cfg.IFMap2JSON.Conversion.Indent == "" {
		cfg.IFMap2JSON.Conversion.Indent = eventjson.DefaultIndent
	}
	if cfg.IFMap2JSON.Logging.Level == "" {
		cfg.IFMap2JSON.Logging.Level = "info"
	}
	if cfg.IFMap2JSON.Logging.Format == "" {
		cfg.IFMap2JSON.Logging.Format = "console"
	}
}

func newRunID() string {
	return ulid.MustNew(ulid.Timestamp(time.Now()), ulid.Monotonic(rand.Reader, 0)).String()
}

func run(ctx context.Context, args []string, stdin io.Reader, stdout, stderr io.Writer) int {
	fs := flag.NewFlagSet("ifmap2json", flag.ContinueOnError)
	fs.SetOutput(stderr)
	configArg := fs.String("config", "", "Path to "+configName)
	chain := fs.Bool("chain", false, "Chain documents: keep notifications after the first document")
	outDir := fs.String("out", "", "Output directory (default: next to each input)")
	dot := fs.Bool("dot", false, "Also write a Graphviz DOT file per document")
	compact := fs.Bool("compact", false, "Write compact JSON")
	rulesPath := fs.String("rules", "", "Sigma exclusion rule file or directory")
	metricsFile := fs.String("metrics", "", "Write run statistics in Prometheus text format")
	if err := fs.Parse(args); err != nil {
		return 2
	}

	cfg, err := config.Load(findConfigFile(*configArg), ".env")
	if err != nil {
		fmt.Fprintf(stderr, "failed to load config: %v\n", err)
		return 1
	}
	applyDefaults(cfg)
	tc := &cfg.IFMap2JSON

	if *chain {
		tc.Conversion.Chain = true
	}
	if *outDir != "" {
		tc.Output.Dir = *outDir
	}
	if *dot {
		tc.Output.Dot = true
	}
	if *compact || strings.EqualFold(tc.Conversion.Indent, "none") {
		tc.Conversion.Indent = ""
	}
	if *rulesPath != "" {
		tc.Rules.Enabled = true
		tc.Rules.Path = *rulesPath
	}
	if *metricsFile != "" {
		tc.Metrics.File = *metricsFile
	}

	if err := logger.InitWithFormat(tc.Logging.Enabled, tc.Logging.Level, tc.Logging.File, tc.Logging.Console, tc.Logging.Format); err != nil {
		fmt.Fprintf(stderr, "failed to initialize logger: %v\n", err)
		return 1
	}
	defer logger.Sync()
	logger.With("run_id", newRunID())

	filter, err := loadFilter(tc.Rules)
	if err != nil {
		fmt.Fprintf(stderr, "failed to load rules: %v\n", err)
		return 1
	}

	recorder := metrics.NewRecorder()
	opts := pipeline.Options{
		Chain:      tc.Conversion.Chain,
		ListFields: tc.Conversion.ListFields,
		Filter:     filter,
		Metrics:    recorder,
	}

	inputs := fs.Args()
	var sinks pipeline.Sinks
	if len(inputs) == 0 || (len(inputs) == 1 && inputs[0] == "-") {
		docs := []pipeline.Document{{
			Name: "stdin",
			Open: func() (io.ReadCloser, error) { return io.NopCloser(stdin), nil },
		}}
		sinks = streamSinks(stdout, tc)
		err = pipeline.NewFilePipeline(docs, opts, sinks).Run(ctx)
	} else {
		docs := make([]pipeline.Document, 0, len(inputs))
		for _, input := range inputs {
			path := input
			docs = append(docs, pipeline.Document{
				Name: path,
				Open: func() (io.ReadCloser, error) { return os.Open(path) },
			})
		}
		sinks = fileSinks(tc)
		err = pipeline.NewFilePipeline(docs, opts, sinks).Run(ctx)
	}
	if err != nil {
		logger.Errorf("Conversion failed: %v", err)
		fmt.Fprintf(stderr, "conversion failed: %v\n", err)
		return 1
	}

	if summary, err := recorder.Summary(); err == nil {
		logger.Infof("Run summary: %s", summary)
	}
	if err := recorder.WriteTextfile(tc.Metrics.File); err != nil {
		fmt.Fprintf(stderr, "failed to write metrics: %v\n", err)
		return 1
	}
	return 0
}

func loadFilter(cfg config.RulesConfig) (rules.Filter, error) {
	if !cfg.Enabled {
		return &rules.NoopFilter{}, nil
	}
	if strings.TrimSpace(cfg.Path) == "" {
		logger.Warnf("Rules enabled but rules.path is empty; no records will be excluded")
		return &rules.NoopFilter{}, nil
	}
	filter, stats, err := rules.NewSigmaFilter(cfg.Path)
	if err != nil {
		return nil, err
	}
	logger.Infof("Sigma rules loaded: loaded=%d skipped_complex=%d skipped_datasource=%d skipped_invalid=%d files=%d",
		stats.Loaded,
		stats.SkippedComplex,
		stats.SkippedDatasource,
		stats.SkippedInvalid,
		stats.TotalFiles,
	)
	if stats.Loaded == 0 {
		logger.Warnf("No compatible Sigma rules loaded; no records will be excluded")
	}
	return filter, nil
}

// outputPath places <base><ext> in dir, or next to input when dir is empty.
func outputPath(input, dir, ext string) string {
	base := filepath.Base(input)
	base = strings.TrimSuffix(base, filepath.Ext(base)) + ext
	if dir == "" {
		dir = filepath.Dir(input)
	}
	return filepath.Join(dir, base)
}

func fileSinks(tc *config.ToolConfig) pipeline.Sinks {
	return func(doc pipeline.Document) (pipeline.EventWriter, pipeline.GraphWriter, error) {
		path := outputPath(doc.Name, tc.Output.Dir, ".json")
		events, err := eventjson.NewWriter(path, tc.Conversion.Indent)
		if err != nil {
			return nil, nil, err
		}
		logger.Infof("Writing %s", path)
		if !tc.Output.Dot {
			return events, nil, nil
		}
		graph, err := graphdot.NewWriter(outputPath(doc.Name, tc.Output.Dir, ".dot"))
		if err != nil {
			events.Close()
			return nil, nil, err
		}
		return events, graph, nil
	}
}

func streamSinks(stdout io.Writer, tc *config.ToolConfig) pipeline.Sinks {
	return func(doc pipeline.Document) (pipeline.EventWriter, pipeline.GraphWriter, error) {
		events := eventjson.NewStreamWriter(stdout, tc.Conversion.Indent)
		if !tc.Output.Dot {
			return events, nil, nil
		}
		if tc.Output.Dir == "" {
			logger.Warnf("DOT output needs an output directory when reading standard input; skipped")
			return events, nil, nil
		}
		graph, err := graphdot.NewWriter(filepath.Join(tc.Output.Dir, doc.Name+".dot"))
		if err != nil {
			return nil, nil, err
		}
		return events, graph, nil
	}
}

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	code := run(ctx, os.Args[1:], os.Stdin, os.Stdout, os.Stderr)
	stop()
	os.Exit(code)
}
