// Command resetfmt removes direct formatting from Word documents while
// keeping paragraph styles, character styles and numbering.
package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"

	"github.com/alecthomas/kong"

	"github.com/benjaminschreck/go-resetfmt/pkg/resetfmt"
	"github.com/benjaminschreck/go-resetfmt/pkg/resetfmt/server"
)

const version = "0.2.0"

const (
	exitError     = 1
	exitUsage     = 2
	exitUnchanged = 3
)

// errUnchanged reports a fragment whose selection was rejected.
var errUnchanged = errors.New("nothing was changed: the selection cannot be replaced safely")

// Globals are the flags shared by every command.
type Globals struct {
	Config   string `name:"config" help:"YAML configuration file" type:"path"`
	LogLevel string `name:"log-level" help:"Log level (debug, info, warn, error, off)"`
}

// CLI defines the command-line interface for resetfmt.
type CLI struct {
	Globals

	Reset    ResetCmd    `cmd:"" help:"Remove direct formatting from DOCX files"`
	Package  PackageCmd  `cmd:"" help:"Print the Flat OPC package of a selection"`
	Fragment FragmentCmd `cmd:"" help:"Reset a Flat OPC fragment read from a file or stdin"`
	Serve    ServeCmd    `cmd:"" help:"Start the HTTP API"`
	Version  VersionCmd  `cmd:"" help:"Print version information"`
}

type app struct {
	ctx    context.Context
	config *resetfmt.Config
	logger *resetfmt.Logger
	engine *resetfmt.Engine
	stdin  io.Reader
	stdout io.Writer
	stderr io.Writer
}

func newApp(ctx context.Context, g Globals, stdin io.Reader, stdout, stderr io.Writer) (*app, error) {
	var (
		config *resetfmt.Config
		err    error
	)
	if g.Config != "" {
		if config, err = resetfmt.LoadConfigFile(g.Config); err != nil {
			return nil, err
		}
	} else {
		config = resetfmt.ConfigFromEnvironment()
	}
	if g.LogLevel != "" {
		config.LogLevel = g.LogLevel
	}
	if err := config.Validate(); err != nil {
		return nil, err
	}

	resetfmt.SetGlobalConfig(config)
	logger := resetfmt.NewLoggerWithFormat(stderr, resetfmt.ParseLogLevel(config.LogLevel), config.LogFormat)
	resetfmt.SetLogger(logger)

	return &app{
		ctx:    ctx,
		config: config,
		logger: logger,
		engine: resetfmt.NewWithOptions(resetfmt.WithConfig(config), resetfmt.WithLogger(logger)),
		stdin:  stdin,
		stdout: stdout,
		stderr: stderr,
	}, nil
}

// ResetCmd resets the selection of one or more documents.
type ResetCmd struct {
	Files  []string `arg:"" help:"DOCX files to reset"`
	From   string   `help:"Start of the selection (BLOCK[:OFFSET])"`
	To     string   `help:"End of the selection (BLOCK[:OFFSET|end])"`
	Output string   `short:"o" help:"Output file (single input only)" type:"path"`
	Suffix string   `help:"Write NAME<suffix>.docx next to each input instead of overwriting it"`
}

func (c *ResetCmd) Run(a *app) error {
	if c.Output != "" && len(c.Files) > 1 {
		return errors.New("--output needs a single input file; use --suffix for several")
	}
	span, err := parseSpan(c.From, c.To)
	if err != nil {
		return err
	}

	jobs := make([]resetfmt.FileJob, len(c.Files))
	for i, in := range c.Files {
		jobs[i] = resetfmt.FileJob{In: in, Out: c.outputPath(in), Span: span}
	}

	outcomes, err := a.engine.ResetFiles(a.ctx, jobs)
	for i, out := range outcomes {
		switch {
		case out == nil:
		case out.Changed:
			fmt.Fprintf(a.stdout, "%s -> %s\n", jobs[i].In, jobs[i].Out)
		default:
			fmt.Fprintf(a.stdout, "%s: nothing was changed\n", jobs[i].In)
		}
	}
	return err
}

func (c *ResetCmd) outputPath(in string) string {
	if c.Output != "" {
		return c.Output
	}
	if c.Suffix == "" {
		return in
	}
	ext := filepath.Ext(in)
	return strings.TrimSuffix(in, ext) + c.Suffix + ext
}

// PackageCmd prints the package a reset of the selection would operate on.
type PackageCmd struct {
	File string `arg:"" help:"DOCX file" type:"existingfile"`
	From string `help:"Start of the selection (BLOCK[:OFFSET])"`
	To   string `help:"End of the selection (BLOCK[:OFFSET|end])"`
}

func (c *PackageCmd) Run(a *app) error {
	span, err := parseSpan(c.From, c.To)
	if err != nil {
		return err
	}
	data, err := os.ReadFile(c.File)
	if err != nil {
		return resetfmt.NewDocumentError("read", c.File, err)
	}
	text, err := a.engine.Package(a.ctx, data, span)
	if err != nil {
		return err
	}
	_, err = fmt.Fprintln(a.stdout, text)
	return err
}

// FragmentCmd resets a package fetched by an editor.
type FragmentCmd struct {
	File string `arg:"" optional:"" default:"-" help:"Flat OPC file, - for stdin"`
}

func (c *FragmentCmd) Run(a *app) error {
	var (
		data []byte
		err  error
	)
	if c.File == "-" {
		data, err = io.ReadAll(a.stdin)
	} else {
		data, err = os.ReadFile(c.File)
	}
	if err != nil {
		return resetfmt.NewDocumentError("read", c.File, err)
	}

	out, err := a.engine.ResetFragment(a.ctx, string(data))
	if err != nil {
		return err
	}
	if !out.Changed {
		_, _ = a.stdout.Write(data)
		return errUnchanged
	}
	_, err = a.stdout.Write(out.Output)
	return err
}

// ServeCmd starts the HTTP API.
type ServeCmd struct {
	Addr string `help:"Listen address (overrides server.addr)"`
}

func (c *ServeCmd) Run(a *app) error {
	config := *a.config
	if c.Addr != "" {
		config.Server.Addr = c.Addr
	}
	engine := resetfmt.NewWithOptions(resetfmt.WithConfig(&config), resetfmt.WithLogger(a.logger))
	return server.New(engine).ListenAndServe(a.ctx)
}

type VersionCmd struct{}

func (c *VersionCmd) Run(a *app) error {
	fmt.Fprintf(a.stdout, "resetfmt version %s\n", version)
	return nil
}

func parseSpan(from, to string) (resetfmt.Span, error) {
	var span resetfmt.Span
	if from != "" {
		pos, err := resetfmt.ParsePosition(from)
		if err != nil {
			return span, fmt.Errorf("--from: %w", err)
		}
		span.From = &pos
	}
	if to != "" {
		pos, err := resetfmt.ParsePosition(to)
		if err != nil {
			return span, fmt.Errorf("--to: %w", err)
		}
		span.To = &pos
	}
	return span, nil
}

func run(ctx context.Context, args []string, stdin io.Reader, stdout, stderr io.Writer) int {
	var cli CLI
	parser, err := kong.New(&cli,
		kong.Name("resetfmt"),
		kong.Description("Remove direct formatting from Word documents"),
		kong.UsageOnError(),
		kong.ConfigureHelp(kong.HelpOptions{
			Compact: true,
		}),
		kong.Writers(stdout, stderr),
	)
	if err != nil {
		fmt.Fprintf(stderr, "resetfmt: %v\n", err)
		return exitError
	}

	kctx, err := parser.Parse(args)
	if err != nil {
		fmt.Fprintf(stderr, "resetfmt: %v\n", err)
		return exitUsage
	}

	a, err := newApp(ctx, cli.Globals, stdin, stdout, stderr)
	if err != nil {
		fmt.Fprintf(stderr, "resetfmt: %v\n", err)
		return exitError
	}
	defer func() { _ = a.logger.Sync() }()

	if err := kctx.Run(a); err != nil {
		fmt.Fprintf(stderr, "resetfmt: %v\n", err)
		if errors.Is(err, errUnchanged) {
			return exitUnchanged
		}
		return exitError
	}
	return 0
}

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	code := run(ctx, os.Args[1:], os.Stdin, os.Stdout, os.Stderr)
	stop()
	os.Exit(code)
}
