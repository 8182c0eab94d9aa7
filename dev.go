package main

import (
	"bufio"
	"context"
	"io"
	"log"
	"os"
	"path/filepath"
	"time"

	"github.com/howeyc/fsnotify"
	"go.brendoncarroll.net/stdctx/logctx"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/nf/nic/intcode"
	"github.com/nf/nic/runner"
)

func devMode(cfg config) error {
	cfg.file = filepath.Clean(cfg.file)

	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return err
	}
	defer watcher.Close()
	if err := watcher.Watch(filepath.Dir(cfg.file)); err != nil {
		return err
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	console := runner.NewConsole(ctx)

	var (
		logger *zap.Logger
		states []runner.StateFunc
		debug  *debugger
	)
	if cfg.debug {
		debug = newDebugger(console)
		logger = newLogger(debug.trace, cfg.verbose)
		debug.log = logger
		states = append(states, debug.StateFunc)
		log.SetPrefix("")
		log.SetOutput(debug.trace)
	} else {
		logger = newLogger(os.Stderr, cfg.verbose)
		go feedConsole(os.Stdin, console)
	}
	defer logger.Sync()
	ctx = logctx.NewContext(ctx, logger)

	var gui *runner.GUI
	if cfg.gui {
		gui = runner.NewGUI(logger)
		states = append(states, gui.StateFunc())
	}

	r := runner.NewRunner(runner.Config{
		Dev:       true,
		MaxSteps:  cfg.maxSteps,
		State:     allStates(states),
		Log:       logger,
		Interrupt: console.Interrupt,
	})
	if debug != nil {
		debug.run = r
		go func() {
			if err := debug.Run(); err != nil {
				log.Printf("debug: %v", err)
			}
			log.SetOutput(os.Stderr)
			log.SetPrefix("nic: ")
			cancel()
		}()
	}

	g, ctx := errgroup.WithContext(ctx)
	machines := make(chan *intcode.Machine)
	g.Go(func() error {
		started := false
		reload := time.After(1 * time.Millisecond)
		for {
			select {
			case <-reload:
				m, err := devLoad(cfg, logger, console, debug)
				if err != nil {
					logctx.Error(ctx, "dev: load", zap.Error(err))
					break
				}
				if !started {
					logctx.Infof(ctx, "dev: start %s", filepath.Base(cfg.file))
					select {
					case machines <- m:
					case <-ctx.Done():
						return nil
					}
					started = true
				} else {
					logctx.Infof(ctx, "dev: reload %s", filepath.Base(cfg.file))
					r.Swap(m)
				}
			case ev := <-watcher.Event:
				if ev.Name == cfg.file && !ev.IsAttrib() {
					reload = time.After(100 * time.Millisecond)
				}
			case err := <-watcher.Error:
				logctx.Error(ctx, "dev: watcher", zap.Error(err))
			case <-ctx.Done():
				return nil
			}
		}
	})
	g.Go(func() error {
		defer cancel()
		select {
		case m := <-machines:
			return r.Run(ctx, m)
		case <-ctx.Done():
			return nil
		}
	})

	if gui != nil {
		if err := gui.Run(ctx.Done()); err != nil {
			logctx.Error(ctx, "gui", zap.Error(err))
		}
		cancel()
	}
	return g.Wait()
}

// devLoad loads the program and, under the debugger, its labels from
// the file of the same name with a .sym extension.
func devLoad(cfg config, logger *zap.Logger, console *runner.Console, debug *debugger) (*intcode.Machine, error) {
	m, err := load(cfg)
	if err != nil {
		return nil, err
	}
	m.Log = logger
	m.IO.Prompt = console
	if debug != nil {
		ls, err := readLabels(labelFile(cfg.file))
		if err != nil {
			return nil, err
		}
		debug.setLabels(ls)
		debug.setOps(m.Ops())
	}
	return m, nil
}

func labelFile(program string) string {
	return program[:len(program)-len(filepath.Ext(program))] + ".sym"
}

func allStates(fns []runner.StateFunc) runner.StateFunc {
	if len(fns) == 0 {
		return nil
	}
	return func(s intcode.Snapshot, k runner.StateKind) {
		for _, fn := range fns {
			fn(s, k)
		}
	}
}

// feedConsole sends lines read from r to c until r is exhausted.
func feedConsole(r io.Reader, c *runner.Console) {
	s := bufio.NewScanner(r)
	for s.Scan() {
		c.Send(s.Text())
	}
	if err := s.Err(); err != nil {
		log.Printf("reading stdin: %v", err)
	}
	c.Close()
}
