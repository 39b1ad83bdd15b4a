package main

import (
	"bufio"
	"context"
	"errors"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"

	"golang.org/x/sync/errgroup"
	"golang.org/x/time/rate"

	"github.com/asheshgoplani/muxd/internal/cmdq"
	"github.com/asheshgoplani/muxd/internal/command"
	"github.com/asheshgoplani/muxd/internal/config"
	"github.com/asheshgoplani/muxd/internal/history"
	"github.com/asheshgoplani/muxd/internal/hooks"
	"github.com/asheshgoplani/muxd/internal/logging"
	"github.com/asheshgoplani/muxd/internal/server"
	"github.com/asheshgoplani/muxd/internal/state"
)

const Version = "0.1.0"

func main() {
	var (
		controlMode = flag.Bool("C", false, "control mode: machine-readable output with %begin/%end guard lines")
		configPath  = flag.String("f", "", "config file (default ~/.muxd/config.toml)")
		hooksPath   = flag.String("hooks", "", "hook definition file, overrides the config")
		logStderr   = flag.Bool("log-stderr", false, "mirror log records to standard error")
		showVersion = flag.Bool("version", false, "print version and exit")
	)
	flag.Parse()

	if *showVersion {
		fmt.Printf("muxd %s\n", Version)
		return
	}

	if err := run(*controlMode, *configPath, *hooksPath, *logStderr, flag.Args()); err != nil {
		fmt.Fprintf(os.Stderr, "muxd: %v\n", err)
		os.Exit(1)
	}
}

func run(controlMode bool, configPath, hooksPath string, logStderr bool, startupFiles []string) error {
	dir, err := config.Dir()
	if err != nil {
		return err
	}
	if configPath == "" {
		configPath = filepath.Join(dir, config.ConfigFileName)
	}
	cfg, err := config.Load(configPath)
	if err != nil {
		return err
	}

	logging.Init(cfg.Logging(dir, logStderr))
	defer logging.Shutdown()
	log := logging.ForComponent(logging.CompServer)
	log.Info("muxd_starting", "version", Version, "control", controlMode)

	// Model: one session, its global hook scope, the notification channel
	// and the loop that owns all of it.
	global := hooks.NewRegistry(nil)
	notify := state.NewNotify()
	sess := state.NewSession(cfg.Session, global)
	sess.AddWindow("shell")
	loop := server.NewLoop()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	tbl := &command.Table{
		Session:  sess,
		Global:   global,
		Notify:   notify,
		Post:     loop.Post,
		Shutdown: cancel,
	}

	causes := &config.Causes{}
	env := &cmdq.Env{Hooks: global, Notify: notify, Causes: causes}

	if cfg.HistoryDB != "" {
		store, err := history.Open(cfg.HistoryDB)
		if err != nil {
			return err
		}
		defer store.Close()
		if err := store.Migrate(); err != nil {
			return err
		}
		env.Recorder = store
	}

	// Hook file: loaded now and reloaded on change, both on the loop.
	if hooksPath == "" {
		hooksPath = cfg.HooksFile
	}
	var watcher *hooks.Watcher
	if hooksPath != "" {
		loadHooks := func() {
			for _, err := range hooks.LoadFile(global, hooksPath, tbl.Parse) {
				log.Warn("hook_file_entry_rejected", "file", hooksPath, "error", err)
			}
		}
		loadHooks()
		watcher, err = hooks.NewWatcher(hooksPath, func() { loop.Post(loadHooks) })
		if err != nil {
			return err
		}
		go watcher.Start()
		defer watcher.Stop()
	}

	// Startup files run clientless; their failures are collected and
	// reported in one batch.
	for _, path := range append(startupFiles, nonEmpty(cfg.StartupFile)...) {
		if err := sourceFile(tbl, env, causes, path); err != nil {
			return err
		}
	}
	causes.Report()

	client := state.NewClient("stdin", controlMode)
	if controlMode {
		client.Attach(sess)
	}
	queue := cmdq.New(client, env)

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error { return loop.Run(gctx) })
	g.Go(func() error { return readInput(gctx, loop, tbl, client, queue) })
	g.Go(func() error { return writeOutput(gctx, cancel, client) })

	err = g.Wait()
	queue.Release()
	if errors.Is(err, context.Canceled) {
		err = nil
	}
	log.Info("muxd_stopped")
	return err
}

func nonEmpty(s string) []string {
	if s == "" {
		return nil
	}
	return []string{s}
}

// sourceFile parses path line by line and runs it on a clientless queue. A
// command that suspends (run-shell) leaves the queue alive; the drain
// callback releases it and reports any causes collected after the initial
// batch.
func sourceFile(tbl *command.Table, env *cmdq.Env, causes *config.Causes, path string) error {
	f, err := os.Open(path)
	if err != nil {
		return fmt.Errorf("source %s: %w", path, err)
	}
	defer f.Close()

	q := cmdq.New(nil, env)

	scanner := bufio.NewScanner(f)
	lineno := 0
	for scanner.Scan() {
		lineno++
		list, err := tbl.Parse(scanner.Text(), path, lineno)
		if err != nil {
			causes.Add(path, lineno, err.Error())
			continue
		}
		if list != nil {
			q.Append(list)
			list.Release()
		}
	}
	if err := scanner.Err(); err != nil {
		q.Release()
		return fmt.Errorf("source %s: %w", path, err)
	}

	q.SetDrainFunc(func(dq *cmdq.Queue) {
		dq.Release()
		causes.Report()
	})
	q.Continue()
	return nil
}

// readInput feeds stdin lines to the client's queue via the loop.
func readInput(ctx context.Context, loop *server.Loop, tbl *command.Table, client *state.Client, queue *cmdq.Queue) error {
	scanner := bufio.NewScanner(os.Stdin)
	lineno := 0
	for scanner.Scan() {
		if ctx.Err() != nil {
			return ctx.Err()
		}
		lineno++
		line := scanner.Text()
		n := lineno
		loop.Post(func() {
			list, err := tbl.Parse(line, "stdin", n)
			if err != nil {
				client.AppendStderr(err.Error() + "\n")
				client.SetExitStatus(1)
				return
			}
			if list != nil {
				queue.Run(list)
				list.Release()
			}
		})
	}
	if err := scanner.Err(); err != nil {
		return err
	}
	return ctx.Err()
}

// writeOutput drains the client's buffers to stdout and stderr. A small rate
// limiter coalesces bursts into fewer, larger writes.
func writeOutput(ctx context.Context, cancel context.CancelFunc, client *state.Client) error {
	limiter := rate.NewLimiter(rate.Limit(200), 1)
	for {
		select {
		case <-ctx.Done():
			flushClient(client)
			return ctx.Err()
		case <-client.FlushC():
		}
		if err := limiter.Wait(ctx); err != nil {
			flushClient(client)
			return err
		}
		flushClient(client)
		if client.Exiting() {
			cancel()
			return nil
		}
	}
}

func flushClient(client *state.Client) {
	if out := client.TakeStdout(); len(out) > 0 {
		os.Stdout.Write(out)
	}
	if errOut := client.TakeStderr(); len(errOut) > 0 {
		os.Stderr.Write(errOut)
	}
}
