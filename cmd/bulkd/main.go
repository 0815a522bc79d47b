package main

import (
	"bufio"
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"runtime/debug"
	"strings"
	"syscall"
	"time"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/mattjoyce/bulkd/internal/api"
	"github.com/mattjoyce/bulkd/internal/config"
	"github.com/mattjoyce/bulkd/internal/dispatch"
	"github.com/mattjoyce/bulkd/internal/events"
	"github.com/mattjoyce/bulkd/internal/journal"
	"github.com/mattjoyce/bulkd/internal/lock"
	"github.com/mattjoyce/bulkd/internal/log"
	"github.com/mattjoyce/bulkd/internal/session"
	"github.com/mattjoyce/bulkd/internal/sink"
	"github.com/mattjoyce/bulkd/internal/storage"
	"github.com/mattjoyce/bulkd/internal/tui"
)

var (
	version   = "0.1.0-dev"
	gitCommit = "unknown"
	buildDate = "unknown"
)

func main() {
	os.Exit(runCLI(os.Args[1:]))
}

func runCLI(cliArgs []string) int {
	if len(cliArgs) < 1 {
		printUsage()
		return 1
	}

	cmd := cliArgs[0]
	args := cliArgs[1:]

	switch cmd {
	case "start":
		return runStart(args)
	case "watch":
		return runWatch(args)
	case "version", "--version":
		return runVersion(args)
	case "help", "--help", "-h":
		printUsage()
		return 0
	default:
		fmt.Fprintf(os.Stderr, "Unknown command: %s\n\n", cmd)
		printUsage()
		return 1
	}
}

func runStart(args []string) int {
	fs := flag.NewFlagSet("start", flag.ContinueOnError)
	configPath := fs.String("config", "", "Path to configuration file")
	fromStdin := fs.Bool("stdin", false, "Feed standard input into a local session")
	capacity := fs.Int("capacity", 0, "Capacity for the --stdin session (default from config)")
	if err := fs.Parse(args); err != nil {
		fmt.Fprintf(os.Stderr, "Failed to parse flags: %v\n", err)
		return 1
	}

	cfg := config.Defaults()
	if *configPath != "" {
		loaded, err := config.Load(*configPath)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Failed to load config: %v\n", err)
			return 1
		}
		cfg = loaded
	}

	log.Setup(cfg.Service.LogLevel)
	logger := log.WithComponent("main")
	logger.Info("bulkd starting", "version", version, "config", *configPath)

	pidLock, err := lock.Acquire(cfg.Service.PIDFile)
	if err != nil {
		logger.Error("failed to acquire PID lock (another instance may be running)",
			"path", cfg.Service.PIDFile, "error", err)
		return 1
	}
	defer pidLock.Release()

	hub := events.NewHub(256)

	var (
		jnl      *journal.Journal
		recorder *journal.Recorder
	)
	if cfg.Journal.Enabled {
		db, err := storage.OpenSQLite(context.Background(), cfg.Journal.Path)
		if err != nil {
			logger.Error("failed to open journal database", "path", cfg.Journal.Path, "error", err)
			return 1
		}
		defer db.Close()
		jnl = journal.New(db)
		recorder = journal.NewRecorder(jnl)
		logger.Info("batch journal enabled", "path", cfg.Journal.Path)
	}

	fileSink, err := sink.NewDir(cfg.Batch.OutputDir)
	if err != nil {
		logger.Error("failed to prepare batch output directory", "dir", cfg.Batch.OutputDir, "error", err)
		return 1
	}

	disp := dispatch.New(
		sink.NewConsole(os.Stdout),
		fileSink,
		dispatch.WithFileWorkers(cfg.Batch.FileWorkers),
		dispatch.WithLogger(log.WithComponent("dispatch")),
	)
	disp.Start()

	regOpts := []session.Option{
		session.WithHub(hub),
		session.WithLogger(log.WithComponent("session")),
	}
	if recorder != nil {
		regOpts = append(regOpts, session.WithRecorder(recorder))
	}
	registry := session.NewRegistry(disp, regOpts...)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)

	errCh := make(chan error, 2)
	doneCh := make(chan struct{}, 1)
	apiDone := make(chan struct{})
	close(apiDone)

	if cfg.API.Enabled {
		apiServer := api.New(api.Config{
			Listen:          cfg.API.Listen,
			APIKey:          cfg.API.APIKey,
			DefaultCapacity: cfg.Batch.DefaultCapacity,
		}, registry, disp, journalOrNil(jnl), hub, log.WithComponent("api"))
		apiDone = make(chan struct{})
		go func() {
			defer close(apiDone)
			if err := apiServer.Start(ctx); err != nil && err != context.Canceled {
				errCh <- fmt.Errorf("api: %w", err)
			}
		}()
		logger.Info("API server enabled", "listen", cfg.API.Listen)
	}

	if *fromStdin {
		sessCap := *capacity
		if sessCap == 0 {
			sessCap = cfg.Batch.DefaultCapacity
		}
		go func() {
			if err := feedStdin(registry, sessCap); err != nil {
				errCh <- fmt.Errorf("stdin: %w", err)
				return
			}
			doneCh <- struct{}{}
		}()
		logger.Info("feeding standard input", "capacity", sessCap)
	} else if !cfg.API.Enabled {
		logger.Error("nothing to do: enable the API or pass --stdin")
		return 1
	}

	logger.Info("bulkd running (press Ctrl+C to stop)")

	exitCode := 0
	select {
	case sig := <-sigCh:
		logger.Info("received shutdown signal", "signal", sig.String())
	case <-doneCh:
		logger.Info("standard input exhausted")
	case err := <-errCh:
		logger.Error("component failed", "error", err)
		exitCode = 1
	}
	cancel()

	// Teardown order matters: wait for the API server (and its in-flight
	// handlers) to finish, flush sessions, drain the queues, then let the
	// journal catch up before the DB closes.
	<-apiDone
	registry.Close()
	disp.Stop()
	if recorder != nil {
		recorder.Close()
	}

	logger.Info("bulkd stopped")
	return exitCode
}

// journalOrNil keeps the typed-nil interface trap out of the API wiring.
func journalOrNil(j *journal.Journal) api.BatchJournal {
	if j == nil {
		return nil
	}
	return j
}

// feedStdin runs one session over os.Stdin, line per command, and
// disconnects when the stream ends.
func feedStdin(registry *session.Registry, capacity int) error {
	handle, err := registry.Connect(capacity)
	if err != nil {
		return err
	}
	defer registry.Disconnect(handle)

	scanner := bufio.NewScanner(os.Stdin)
	for scanner.Scan() {
		registry.Receive(handle, append(scanner.Bytes(), '\n'))
	}
	return scanner.Err()
}

func runWatch(args []string) int {
	fs := flag.NewFlagSet("watch", flag.ContinueOnError)
	apiURL := fs.String("api-url", "http://localhost:8080", "bulkd API URL")
	apiKey := fs.String("api-key", os.Getenv("BULKD_API_KEY"), "API bearer token")
	if err := fs.Parse(args); err != nil {
		fmt.Fprintf(os.Stderr, "Flag error: %v\n", err)
		return 1
	}

	m := tui.NewWatch(*apiURL, *apiKey)
	p := tea.NewProgram(m)
	if _, err := p.Run(); err != nil {
		fmt.Fprintf(os.Stderr, "TUI error: %v\n", err)
		return 1
	}
	return 0
}

type versionInfo struct {
	Version   string `json:"version"`
	Commit    string `json:"commit"`
	BuildTime string `json:"build_time"`
}

func runVersion(args []string) int {
	fs := flag.NewFlagSet("version", flag.ContinueOnError)
	jsonOut := fs.Bool("json", false, "Output version metadata as JSON")
	if err := fs.Parse(args); err != nil {
		fmt.Fprintf(os.Stderr, "Flag error: %v\n", err)
		return 1
	}

	info := currentVersionInfo()

	if *jsonOut {
		data, err := json.MarshalIndent(info, "", "  ")
		if err != nil {
			fmt.Fprintf(os.Stderr, "Failed to render version JSON: %v\n", err)
			return 1
		}
		fmt.Println(string(data))
		return 0
	}

	fmt.Printf("bulkd %s\n", info.Version)
	fmt.Printf("commit: %s\n", info.Commit)
	fmt.Printf("built_at: %s\n", info.BuildTime)
	return 0
}

func currentVersionInfo() versionInfo {
	info := versionInfo{
		Version:   strings.TrimSpace(version),
		Commit:    "unknown",
		BuildTime: "unknown",
	}
	if info.Version == "" {
		info.Version = "0.0.0-dev"
	}

	commit := strings.TrimSpace(gitCommit)
	if commit == "" || commit == "unknown" {
		commit = strings.TrimSpace(readBuildSetting("vcs.revision"))
	}
	if commit != "" {
		if len(commit) > 12 {
			commit = commit[:12]
		}
		info.Commit = commit
	}

	builtAt := strings.TrimSpace(buildDate)
	if builtAt == "" || builtAt == "unknown" {
		builtAt = strings.TrimSpace(readBuildSetting("vcs.time"))
	}
	if t, err := time.Parse(time.RFC3339Nano, builtAt); err == nil {
		info.BuildTime = t.UTC().Format(time.RFC3339)
	}

	return info
}

func readBuildSetting(key string) string {
	info, ok := debug.ReadBuildInfo()
	if !ok {
		return ""
	}
	for _, setting := range info.Settings {
		if setting.Key == key {
			return setting.Value
		}
	}
	return ""
}

func printUsage() {
	fmt.Print(`bulkd - command batching daemon

Usage:
  bulkd <command> [flags]

Commands:
  start     Run the daemon in the foreground
  watch     Real-time monitoring TUI
  version   Print version metadata
  help      Show this help

Start flags:
  --config PATH     Configuration file (defaults apply when omitted)
  --stdin           Feed standard input into a local session
  --capacity N      Capacity for the --stdin session

Watch flags:
  --api-url URL     bulkd API URL (default http://localhost:8080)
  --api-key KEY     Bearer token (or BULKD_API_KEY)
`)
}
