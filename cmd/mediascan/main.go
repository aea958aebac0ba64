package main

import (
	"context"
	"database/sql"
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
	"os/signal"
	"sort"
	"strings"
	"syscall"
	"time"

	"golang.org/x/term"

	"media-indexer/internal/app"
	"media-indexer/internal/jobs"
	"media-indexer/internal/memory"
	"media-indexer/internal/startup"
)

const (
	// Default timeout for the status queries
	defaultTimeout = 30 * time.Second

	refreshInterval = 500 * time.Millisecond
	logInterval     = 10 * time.Second
)

type options struct {
	command string
	dirs    []string
	workers int
}

func main() {
	opts, err := parseArgs(os.Args[1:])
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n\n", err)
		printUsage(os.Stderr)
		os.Exit(2)
	}

	memory.ConfigureFromEnv()

	config, err := startup.LoadConfig()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: configuration: %v\n", err)
		os.Exit(1)
	}
	if opts.workers > 0 {
		config.ScanWorkers = opts.workers
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	components, err := app.Build(ctx, config)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		fmt.Fprintf(os.Stderr, "Make sure DATABASE_DIR is set correctly (current: %s)\n", config.DatabaseDir)
		os.Exit(1)
	}

	code := run(ctx, cancel, opts, components)
	if err := components.Close(); err != nil {
		fmt.Fprintf(os.Stderr, "Warning: failed to close database: %v\n", err)
	}
	os.Exit(code)
}

func parseArgs(args []string) (options, error) {
	if len(args) < 1 {
		return options{}, errors.New("missing command")
	}

	opts := options{command: args[0]}
	switch opts.command {
	case "scan", "phash", "status":
	default:
		return options{}, fmt.Errorf("unknown command %q", sanitizeCommand(opts.command))
	}

	fs := flag.NewFlagSet(opts.command, flag.ContinueOnError)
	fs.SetOutput(io.Discard)
	dirs := fs.String("dirs", "", "comma-separated directories (phash only)")
	fs.IntVar(&opts.workers, "workers", 0, "worker pool size")
	if err := fs.Parse(args[1:]); err != nil {
		return options{}, err
	}
	if fs.NArg() > 0 {
		return options{}, fmt.Errorf("unexpected arguments: %s", strings.Join(fs.Args(), " "))
	}
	if opts.workers < 0 {
		return options{}, errors.New("-workers must be positive")
	}
	if *dirs != "" {
		if opts.command != "phash" {
			return options{}, errors.New("-dirs only applies to phash")
		}
		for _, d := range strings.Split(*dirs, ",") {
			if d = strings.TrimSpace(d); d != "" {
				opts.dirs = append(opts.dirs, d)
			}
		}
	}
	return opts, nil
}

// sanitizeCommand replaces anything outside [a-zA-Z0-9_-] so user input
// cannot inject control sequences into the terminal.
func sanitizeCommand(cmd string) string {
	return strings.Map(func(r rune) rune {
		if (r >= 'a' && r <= 'z') || (r >= 'A' && r <= 'Z') || (r >= '0' && r <= '9') || r == '-' || r == '_' {
			return r
		}
		return '_'
	}, cmd)
}

func printUsage(w io.Writer) {
	fmt.Fprintln(w, "Media library scanner")
	fmt.Fprintln(w, "")
	fmt.Fprintln(w, "Usage: mediascan <command> [flags]")
	fmt.Fprintln(w, "")
	fmt.Fprintln(w, "Commands:")
	fmt.Fprintln(w, "  scan    - Scan all configured roots")
	fmt.Fprintln(w, "  phash   - Backfill perceptual hashes (-dirs a,b to restrict)")
	fmt.Fprintln(w, "  status  - Show the latest scan run and library stats")
	fmt.Fprintln(w, "")
	fmt.Fprintln(w, "Flags:")
	fmt.Fprintln(w, "  -workers N  Worker pool size (default: SCAN_WORKERS)")
}

// job is the part of a coordinator the progress loop needs.
type job interface {
	Stop() error
	Status() jobs.Status
}

func run(ctx context.Context, cancel context.CancelFunc, opts options, components *app.App) int {
	switch opts.command {
	case "status":
		return showStatus(ctx, components)
	case "scan":
		return foreground(ctx, cancel, components.Scanner, func() (string, error) {
			result, err := components.Scanner.Run(ctx)
			return fmt.Sprintf("Scan %s: %d files, %d written, %d errors%s",
				result.RunID, result.Total, result.Written, result.Errors, cancelledSuffix(result.Cancelled)), err
		})
	default:
		return foreground(ctx, cancel, components.Backfill, func() (string, error) {
			result, err := components.Backfill.Run(ctx, opts.dirs)
			return fmt.Sprintf("Phash backfill: %d videos, %d hashed, %d without hash, %d errors%s",
				result.Total, result.Written, result.NoHash, result.Errors, cancelledSuffix(result.Cancelled)), err
		})
	}
}

func cancelledSuffix(cancelled bool) string {
	if cancelled {
		return " (cancelled)"
	}
	return ""
}

// foreground runs fn while rendering progress and translating interrupts:
// the first stops the job cooperatively, the second cancels ctx.
func foreground(ctx context.Context, cancel context.CancelFunc, j job, fn func() (string, error)) int {
	sigChan := make(chan os.Signal, 2)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)
	defer signal.Stop(sigChan)

	done := make(chan struct{})
	go func() {
		interrupts := 0
		for {
			select {
			case <-sigChan:
				interrupts++
				if interrupts == 1 {
					fmt.Fprintln(os.Stderr, "\nInterrupted, finishing in-flight files (interrupt again to abort)...")
					_ = j.Stop()
					continue
				}
				fmt.Fprintln(os.Stderr, "\nAborting...")
				cancel()
				return
			case <-done:
				return
			}
		}
	}()

	progressDone := make(chan struct{})
	go func() {
		defer close(progressDone)
		renderProgress(j, done)
	}()

	summary, err := fn()
	close(done)
	<-progressDone

	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		return 1
	}
	fmt.Println(summary)
	return 0
}

func renderProgress(j job, done <-chan struct{}) {
	fd := int(os.Stdout.Fd())
	interactive := term.IsTerminal(fd)

	interval := logInterval
	if interactive {
		interval = refreshInterval
	}
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			line := formatProgress(j.Status())
			if !interactive {
				fmt.Println(line)
				continue
			}
			width, _, err := term.GetSize(fd)
			if err != nil || width < 20 {
				width = 80
			}
			fmt.Printf("\r%-*s", width-1, truncate(line, width-1))
		case <-done:
			if interactive {
				fmt.Print("\r\033[K")
			}
			return
		}
	}
}

func formatProgress(s jobs.Status) string {
	if s.Total == 0 {
		return "Discovering files..."
	}
	line := fmt.Sprintf("%d/%d (%.1f%%)", s.Processed, s.Total, s.Percent)
	if s.CurrentItem != "" {
		line += " " + s.CurrentItem
	}
	return line
}

// truncate shortens s to at most n runes.
func truncate(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	if n <= 3 {
		return string(r[:n])
	}
	return string(r[:n-3]) + "..."
}

func showStatus(ctx context.Context, components *app.App) int {
	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	last, err := components.DB.LatestRun(ctx)
	switch {
	case errors.Is(err, sql.ErrNoRows):
		fmt.Println("Last scan: never")
	case err != nil:
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		return 1
	default:
		fmt.Printf("Last scan: %s (%s) started %s\n", last.ID, last.Status, last.StartedAt.Format(time.RFC1123))
		fmt.Printf("  total=%d written=%d errors=%d\n", last.Total, last.Written, last.Errors)
	}

	stats, err := components.DB.LibraryStats(ctx)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		return 1
	}
	categories := make([]string, 0, len(stats.ByCategory))
	for c := range stats.ByCategory {
		categories = append(categories, c)
	}
	sort.Strings(categories)

	fmt.Println("Library:")
	for _, c := range categories {
		fmt.Printf("  %-6s %d\n", c, stats.ByCategory[c])
	}
	fmt.Printf("  quick hashed: %d\n", stats.QuickHashed)
	fmt.Printf("  phashed:      %d\n", stats.Phashed)
	return 0
}
