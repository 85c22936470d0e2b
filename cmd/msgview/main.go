package main

import (
	"flag"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"go.uber.org/zap"
	"golang.org/x/term"

	"github.com/wippyai/msg-runtime/errors"
	"github.com/wippyai/msg-runtime/handlers"
	"github.com/wippyai/msg-runtime/internal/textsink"
	"github.com/wippyai/msg-runtime/internal/tomldata"
	"github.com/wippyai/msg-runtime/msg"
	"github.com/wippyai/msg-runtime/schema"
)

type config struct {
	schemaFile string
	typeName   string
	dataFile   string
	fields     string
	format     string
	depth      int
	maxDepth   int
	copyFirst  bool
	stats      bool
	list       bool
}

func main() {
	var cfg config
	var (
		verbose     = flag.Bool("v", false, "Debug logging of storage and traversal decisions")
		interactive = flag.Bool("i", false, "Interactive mode with TUI")
	)
	flag.StringVar(&cfg.schemaFile, "schema", "", "Path to TOML schema file")
	flag.StringVar(&cfg.typeName, "type", "", "Message type to load (default: first in schema)")
	flag.StringVar(&cfg.dataFile, "data", "", "Path to TOML data file")
	flag.StringVar(&cfg.fields, "fields", "", "Top-level field numbers to show (comma-separated)")
	flag.StringVar(&cfg.format, "format", "text", "Output format: text or toml")
	flag.IntVar(&cfg.depth, "depth", 0, "Collapse sub-messages nested deeper than this (0 = never)")
	flag.IntVar(&cfg.maxDepth, "max-depth", handlers.DefaultMaxDepth, "Traversal nesting limit")
	flag.BoolVar(&cfg.copyFirst, "copy", false, "Render a copy made by traversing into a fresh message")
	flag.BoolVar(&cfg.stats, "stats", false, "Report storage allocation events on stderr")
	flag.BoolVar(&cfg.list, "list", false, "List message types and exit")
	flag.Parse()

	if cfg.schemaFile == "" {
		fmt.Fprintln(os.Stderr, "Usage: msgview -schema <schema.toml> [-type name] [-data data.toml] [-fields 1,2] [-depth n]")
		fmt.Fprintln(os.Stderr, "       msgview -schema <schema.toml> -list")
		fmt.Fprintln(os.Stderr, "       msgview -schema <schema.toml> -data <data.toml> -i  (interactive mode)")
		os.Exit(1)
	}

	if *verbose {
		l, err := zap.NewDevelopment()
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			os.Exit(1)
		}
		defer l.Sync()
		msg.SetLogger(l.Named("msg"))
		handlers.SetLogger(l.Named("handlers"))
	}

	if *interactive {
		if err := runInteractive(cfg); err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			os.Exit(1)
		}
		return
	}

	if err := run(cfg, os.Stdout); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func run(cfg config, out io.Writer) error {
	var counts eventCounter
	if cfg.stats {
		msg.Subscribe(&counts)
		defer func() {
			msg.Unsubscribe(&counts)
			fmt.Fprintf(os.Stderr, "alloc=%d free=%d recycle=%d\n", counts.alloc, counts.free, counts.recycle)
		}()
	}

	reg, err := schema.LoadFile(cfg.schemaFile)
	if err != nil {
		return err
	}

	if cfg.list {
		for _, d := range reg.Messages() {
			fmt.Fprintf(out, "%s (%d fields, %d bytes, %d handles)\n", d.Name(), d.NumFields(), d.Size(), d.Handles())
			for _, f := range d.Fields() {
				fmt.Fprintf(out, "  %s\n", f)
			}
		}
		return nil
	}

	m, err := load(cfg, reg)
	if err != nil {
		return err
	}
	defer m.Unref()

	switch cfg.format {
	case "text":
		show, err := parseFields(cfg.fields)
		if err != nil {
			return err
		}
		opts := textOptions(show, cfg)
		if f, ok := out.(*os.File); ok && term.IsTerminal(int(f.Fd())) {
			opts.Style = terminalStyle()
		}
		if err := textsink.Render(out, m, opts); err != nil {
			return err
		}
	case "toml":
		if err := tomldata.Encode(out, m); err != nil {
			return err
		}
	default:
		return errors.InvalidInput(errors.PhaseLoad, fmt.Sprintf("unknown format %q", cfg.format))
	}

	return nil
}

// load builds the message named by cfg and fills it from the data file.
func load(cfg config, reg *schema.Registry) (*msg.Message, error) {
	def, err := pickType(reg, cfg.typeName)
	if err != nil {
		return nil, err
	}

	m := msg.New(def)
	if cfg.dataFile != "" {
		if err := tomldata.LoadFile(cfg.dataFile, m); err != nil {
			m.Unref()
			return nil, err
		}
	}

	if !cfg.copyFirst {
		return m, nil
	}
	dst := msg.New(def)
	err = msg.Copy(dst, m)
	m.Unref()
	if err != nil {
		dst.Unref()
		return nil, err
	}
	return dst, nil
}

func pickType(reg *schema.Registry, name string) (*schema.MessageDef, error) {
	if name == "" {
		msgs := reg.Messages()
		if len(msgs) == 0 {
			return nil, errors.InvalidInput(errors.PhaseLoad, "schema declares no messages")
		}
		return msgs[0], nil
	}
	def, ok := reg.Lookup(name)
	if !ok {
		return nil, errors.NotFound(errors.PhaseLoad, "message", name)
	}
	return def, nil
}

// parseFields parses a comma-separated list of field numbers. An empty list
// means every field.
func parseFields(s string) (map[schema.Number]bool, error) {
	if strings.TrimSpace(s) == "" {
		return nil, nil
	}
	show := make(map[schema.Number]bool)
	for _, part := range strings.Split(s, ",") {
		n, err := strconv.ParseInt(strings.TrimSpace(part), 10, 32)
		if err != nil {
			return nil, errors.Wrap(errors.PhaseLoad, errors.KindInvalidInput, err, "bad field number "+part)
		}
		show[schema.Number(n)] = true
	}
	return show, nil
}

func textOptions(show map[schema.Number]bool, cfg config) textsink.Options {
	opts := textsink.DefaultOptions()
	opts.CollapseDepth = cfg.depth
	opts.Traversal.MaxDepth = cfg.maxDepth
	if show != nil {
		opts.OmitRoot = func(f *schema.Field) bool {
			return !show[f.Number]
		}
	}
	return opts
}

var (
	nameStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("#87CEEB"))
	scalarStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("#98FB98"))
	stringStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("#F0C674"))
)

func terminalStyle() textsink.Style {
	return textsink.Style{
		Name:   func(s string) string { return nameStyle.Render(s) },
		Scalar: func(s string) string { return scalarStyle.Render(s) },
		String: func(s string) string { return stringStyle.Render(s) },
	}
}

// eventCounter tallies storage lifecycle events.
type eventCounter struct {
	alloc, free, recycle int
}

func (c *eventCounter) OnStoreEvent(e msg.Event) {
	switch e.Type {
	case msg.EventAlloc:
		c.alloc++
	case msg.EventFree:
		c.free++
	case msg.EventRecycle:
		c.recycle++
	}
}
