package main

import (
	"bytes"
	"context"
	"flag"
	"fmt"
	"io"
	"log"
	"os"

	"github.com/anhldbk/graphqly/internal/eventbus"
	"github.com/anhldbk/graphqly/internal/logging"
	"github.com/anhldbk/graphqly/internal/manifest"
	"github.com/anhldbk/graphqly/internal/metrics"
	"github.com/anhldbk/graphqly/internal/otel"
	"github.com/anhldbk/graphqly/internal/schema"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/common/expfmt"
)

const rootUsage = `graphqly - assemble GraphQL schemas from fragments

USAGE:
  graphqly <command> [flags]

COMMANDS:
  compile          Assemble a manifest into schema text
  check            Assemble a manifest and validate the resulting SDL
  help             Show help for any command
`

const compileUsage = `compile FLAGS:
  -manifest <file>         YAML manifest (required)
  -out <file>              Write schema text to file (default: stdout)
  -validate                Validate the assembled SDL
  -log.level <level>       trace, debug, info, warn or error (default: info)
  -log.format <format>     text or json (default: text)
  -otel.endpoint <addr>    OTLP collector endpoint
  -otel.service <name>     OpenTelemetry service name (default: graphqly)
  -metrics                 Print build metrics to stderr
`

const checkUsage = `check FLAGS:
  -manifest <file>         YAML manifest (required)
  -log.level <level>       trace, debug, info, warn or error (default: info)
  -log.format <format>     text or json (default: text)
  (Exits non-zero when the schema does not assemble or validate)
`

func main() {
	if err := run(os.Args[1:], os.Stdout, os.Stderr); err != nil {
		log.Fatal(err)
	}
}

func run(args []string, stdout, stderr io.Writer) error {
	global := flag.NewFlagSet("graphqly", flag.ContinueOnError)
	global.SetOutput(new(bytes.Buffer)) // silence automatic output
	if err := global.Parse(args); err != nil {
		fmt.Fprint(stderr, rootUsage)
		return err
	}
	remaining := global.Args()
	if len(remaining) == 0 {
		fmt.Fprint(stderr, rootUsage)
		return fmt.Errorf("missing command")
	}

	cmd := remaining[0]
	cmdArgs := remaining[1:]
	switch cmd {
	case "compile":
		return cmdCompile(cmdArgs, stdout, stderr)
	case "check":
		return cmdCheck(cmdArgs, stdout, stderr)
	case "help":
		return cmdHelp(cmdArgs, stdout)
	default:
		fmt.Fprint(stderr, rootUsage)
		return fmt.Errorf("unknown command %q", cmd)
	}
}

func cmdHelp(args []string, stdout io.Writer) error {
	if len(args) == 0 {
		fmt.Fprint(stdout, rootUsage)
		return nil
	}
	switch args[0] {
	case "compile":
		fmt.Fprint(stdout, compileUsage)
	case "check":
		fmt.Fprint(stdout, checkUsage)
	default:
		return fmt.Errorf("unknown help topic %q", args[0])
	}
	return nil
}

// placeholder resolves every field to nothing so a manifest, which carries
// no handlers, can be assembled.
func placeholder(o *schema.Operation) {
	o.Resolve(func(context.Context, any, map[string]any) (any, error) { return nil, nil })
}

func newBuilder(path, level, format string, opts ...schema.Option) (*schema.Builder, error) {
	m, err := manifest.Load(path)
	if err != nil {
		return nil, err
	}
	l, err := logging.New(level, format)
	if err != nil {
		return nil, err
	}
	opts = append(opts, schema.WithLogger(logging.NewLogrus(l).With("manifest", path)))
	b := schema.New(opts...)
	b.Use(m.Provider(placeholder))
	return b, nil
}

func cmdCompile(args []string, stdout, stderr io.Writer) error {
	manifestFile := ""
	outFile := ""
	validate := false
	logLevel := "info"
	logFormat := "text"
	otelEndpoint := ""
	otelService := "graphqly"
	dumpMetrics := false

	fs := flag.NewFlagSet("compile", flag.ContinueOnError)
	fs.SetOutput(new(bytes.Buffer))
	fs.StringVar(&manifestFile, "manifest", manifestFile, "YAML manifest")
	fs.StringVar(&outFile, "out", outFile, "Write schema text to file")
	fs.BoolVar(&validate, "validate", validate, "Validate the assembled SDL")
	fs.StringVar(&logLevel, "log.level", logLevel, "Log level")
	fs.StringVar(&logFormat, "log.format", logFormat, "Log format")
	fs.StringVar(&otelEndpoint, "otel.endpoint", otelEndpoint, "OTLP collector endpoint")
	fs.StringVar(&otelService, "otel.service", otelService, "OpenTelemetry service name")
	fs.BoolVar(&dumpMetrics, "metrics", dumpMetrics, "Print build metrics to stderr")
	if err := fs.Parse(args); err != nil {
		fmt.Fprint(stderr, compileUsage)
		return err
	}
	if manifestFile == "" {
		fmt.Fprint(stderr, compileUsage)
		return fmt.Errorf("-manifest is required")
	}

	bus := eventbus.New()
	eventbus.Use(bus)
	defer eventbus.Use(nil)
	shutdown, err := otel.Setup(otelEndpoint, otelService)
	if err != nil {
		return fmt.Errorf("otel setup: %w", err)
	}
	defer func() { _ = shutdown(context.Background()) }()

	reg := prometheus.NewRegistry()
	if dumpMetrics {
		col, err := metrics.New(reg)
		if err != nil {
			return fmt.Errorf("metrics setup: %w", err)
		}
		defer col.Attach(bus)()
		defer func() {
			if err := writeMetrics(stderr, reg); err != nil {
				fmt.Fprintf(stderr, "metrics: %v\n", err)
			}
		}()
	}

	var opts []schema.Option
	if validate {
		opts = append(opts, schema.WithSDLValidation())
	}
	b, err := newBuilder(manifestFile, logLevel, logFormat, opts...)
	if err != nil {
		return err
	}
	out, err := b.Build(context.Background())
	if err != nil {
		return fmt.Errorf("build schema: %w", err)
	}
	if outFile == "" {
		fmt.Fprint(stdout, out.Schema)
		return nil
	}
	if err := os.WriteFile(outFile, []byte(out.Schema), 0644); err != nil {
		return err
	}
	return nil
}

func cmdCheck(args []string, stdout, stderr io.Writer) error {
	manifestFile := ""
	logLevel := "info"
	logFormat := "text"

	fs := flag.NewFlagSet("check", flag.ContinueOnError)
	fs.SetOutput(new(bytes.Buffer))
	fs.StringVar(&manifestFile, "manifest", manifestFile, "YAML manifest")
	fs.StringVar(&logLevel, "log.level", logLevel, "Log level")
	fs.StringVar(&logFormat, "log.format", logFormat, "Log format")
	if err := fs.Parse(args); err != nil {
		fmt.Fprint(stderr, checkUsage)
		return err
	}
	if manifestFile == "" {
		fmt.Fprint(stderr, checkUsage)
		return fmt.Errorf("-manifest is required")
	}

	b, err := newBuilder(manifestFile, logLevel, logFormat, schema.WithSDLValidation())
	if err != nil {
		return err
	}
	out, err := b.Build(context.Background())
	if err != nil {
		return fmt.Errorf("check schema: %w", err)
	}
	fmt.Fprintf(stdout, "ok: %d definitions, %d root fields\n", len(out.Definitions), len(out.Resolvers.Paths()))
	return nil
}

func writeMetrics(w io.Writer, g prometheus.Gatherer) error {
	mfs, err := g.Gather()
	if err != nil {
		return err
	}
	enc := expfmt.NewEncoder(w, expfmt.NewFormat(expfmt.TypeTextPlain))
	for _, mf := range mfs {
		if err := enc.Encode(mf); err != nil {
			return err
		}
	}
	return nil
}
