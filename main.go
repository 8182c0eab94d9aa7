// Command nic executes Intcode programs.
package main

import (
	"context"
	"flag"
	"fmt"
	"io"
	"log"
	"os"
	"os/signal"
	"runtime/pprof"
	"strconv"
	"strings"

	"go.brendoncarroll.net/stdctx/logctx"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"github.com/nf/nic/intcode"
	"github.com/nf/nic/runner"
)

func main() {
	log.SetPrefix("nic: ")
	log.SetFlags(0)

	var (
		cfg config

		cpuProfileFlag = flag.String("cpu_profile", "", "write CPU profile to `file`")
	)
	flag.StringVar(&cfg.input, "input", "", "comma-separated `values` to queue as input")
	flag.Var(&cfg.sets, "set", "write `addr=value` to memory before running (repeatable)")
	flag.StringVar(&cfg.sep, "sep", "\n", "output `separator`")
	flag.BoolVar(&cfg.printMemory, "print_memory", false, "print memory after the program stops")
	flag.BoolVar(&cfg.noPrompt, "no_prompt", false, "fail instead of prompting when queued input runs out")
	flag.Uint64Var(&cfg.maxSteps, "max_steps", 0, "stop after `n` instructions (0 for no limit)")
	flag.BoolVar(&cfg.dev, "dev", false, "enable developer mode (re-run the program when it changes)")
	flag.BoolVar(&cfg.debug, "debug", false, "enable debugger (implies -dev)")
	flag.BoolVar(&cfg.gui, "gui", false, "show memory in a window (stays open after the program stops)")
	flag.BoolVar(&cfg.verbose, "v", false, "log each executed instruction")

	flag.Usage = func() {
		fmt.Fprintf(os.Stderr, "usage: %s [flags] <program.ic | ->\n", os.Args[0])
		fmt.Fprintf(os.Stderr, "       %s [flags] <-dev | -debug> <program.ic>\n", os.Args[0])
		flag.PrintDefaults()
		os.Exit(2)
	}
	flag.Parse()
	if flag.NArg() != 1 {
		flag.Usage()
	}
	cfg.file = flag.Arg(0)

	if cfg.dev || cfg.debug {
		if cfg.file == "-" {
			log.Fatal("dev mode needs a program file")
		}
		if err := devMode(cfg); err != nil {
			log.Fatal(err)
		}
		return
	}

	var cpuProfile io.Closer
	if prof := *cpuProfileFlag; prof != "" {
		f, err := os.Create(prof)
		if err != nil {
			log.Fatalf("creating CPU profile file: %v", err)
		}
		pprof.StartCPUProfile(f)
		cpuProfile = f
	}

	err := run(cfg, os.Stdout)

	if f := cpuProfile; f != nil {
		pprof.StopCPUProfile()
		f.Close()
	}

	if err != nil {
		log.Fatal(err)
	}
}

type config struct {
	file        string
	input       string
	sets        setFlag
	sep         string
	printMemory bool
	noPrompt    bool
	maxSteps    uint64
	dev         bool
	debug       bool
	gui         bool
	verbose     bool
}

// run executes the program once, writing its output to w.
func run(cfg config, w io.Writer) error {
	logger := newLogger(os.Stderr, cfg.verbose)
	defer logger.Sync()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()
	ctx = logctx.NewContext(ctx, logger)

	m, err := load(cfg)
	if err != nil {
		return err
	}
	m.Log = logger
	if !cfg.noPrompt {
		m.IO.Prompt = intcode.NewLinePrompter(os.Stdin, os.Stderr)
	}

	rcfg := runner.Config{MaxSteps: cfg.maxSteps, Log: logger}
	if !cfg.gui {
		err = runner.NewRunner(rcfg).Run(ctx, m)
		writeResult(w, cfg, m)
		return err
	}

	// The window outlives the run so that the final memory can be
	// inspected; results are written as soon as the run ends.
	g := runner.NewGUI(logger)
	rcfg.State = g.StateFunc()
	r := runner.NewRunner(rcfg)
	g.Update(m.Snapshot())

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()
	errc := make(chan error, 1)
	go func() {
		err := r.Run(ctx, m)
		g.Update(m.Snapshot())
		writeResult(w, cfg, m)
		logctx.Infof(ctx, "%s; close the window to exit", m.State())
		errc <- err
	}()
	if gerr := g.Run(ctx.Done()); gerr != nil {
		logctx.Error(ctx, "gui", zap.Error(gerr))
	}
	cancel()
	return <-errc
}

// writeResult writes the output trace and, if requested, the memory.
func writeResult(w io.Writer, cfg config, m *intcode.Machine) {
	if out := m.Output(); len(out) > 0 {
		fmt.Fprintln(w, formatWords(out, cfg.sep))
	}
	if cfg.printMemory {
		fmt.Fprintln(w, m.Mem.String())
	}
}

// load reads and parses the program named by cfg and applies its
// memory patches.
func load(cfg config) (*intcode.Machine, error) {
	var (
		text []byte
		err  error
	)
	if cfg.file == "-" {
		text, err = io.ReadAll(os.Stdin)
	} else {
		text, err = os.ReadFile(cfg.file)
	}
	if err != nil {
		return nil, err
	}
	m, err := intcode.Load(string(text), cfg.input)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", cfg.file, err)
	}
	for _, s := range cfg.sets {
		if err := m.Mem.Write(s.addr, s.value); err != nil {
			return nil, fmt.Errorf("-set %d=%d: %w", s.addr, s.value, err)
		}
	}
	return m, nil
}

func formatWords(ws []intcode.Word, sep string) string {
	ss := make([]string, len(ws))
	for i, w := range ws {
		ss[i] = strconv.FormatInt(w, 10)
	}
	return strings.Join(ss, sep)
}

// newLogger returns a console logger writing to w.
func newLogger(w io.Writer, verbose bool) *zap.Logger {
	level := zapcore.InfoLevel
	if verbose {
		level = zapcore.DebugLevel
	}
	ec := zap.NewDevelopmentEncoderConfig()
	ec.TimeKey = ""
	core := zapcore.NewCore(zapcore.NewConsoleEncoder(ec), zapcore.AddSync(w), level)
	return zap.New(core)
}

// setFlag collects -set flags.
type setFlag []set

type set struct {
	addr, value intcode.Word
}

func (f *setFlag) String() string {
	var ss []string
	for _, s := range *f {
		ss = append(ss, fmt.Sprintf("%d=%d", s.addr, s.value))
	}
	return strings.Join(ss, ",")
}

func (f *setFlag) Set(v string) error {
	a, b, ok := strings.Cut(v, "=")
	if !ok {
		return fmt.Errorf("want addr=value, got %q", v)
	}
	addr, err := strconv.ParseInt(strings.TrimSpace(a), 10, 64)
	if err != nil || addr < 0 {
		return fmt.Errorf("invalid address %q", a)
	}
	value, err := strconv.ParseInt(strings.TrimSpace(b), 10, 64)
	if err != nil {
		return fmt.Errorf("invalid value %q", b)
	}
	*f = append(*f, set{addr, value})
	return nil
}
