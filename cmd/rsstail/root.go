// ABOUTME: Root Cobra command with the full rsstail flag surface
// ABOUTME: Validates configuration up front, then runs the polling loop

package main

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"

	"github.com/charmbracelet/log"
	"github.com/fatih/color"
	"github.com/mattn/go-isatty"
	"github.com/spf13/cobra"

	"github.com/harper/rsstail/internal/format"
	"github.com/harper/rsstail/internal/models"
	"github.com/harper/rsstail/internal/opml"
	"github.com/harper/rsstail/internal/state"
	"github.com/harper/rsstail/internal/tail"
	"github.com/harper/rsstail/internal/timeutil"
)

var (
	intervalFlag   string
	iterationsFlag int
	initialFlag    int
	newerFlag      string
	showFlags      []string
	timeFormatFlag string
	formatFlag     string
	syntaxFlag     string
	cacheFlag      string
	opmlFlag       string
	reverseFlag    bool
	failFlag       bool
	uniqueFlag     bool
	headingFlag    bool
	verboseFlag    bool
)

var rootCmd = &cobra.Command{
	Use:   "rsstail [flags] <url> [<url> ...]",
	Short: "Tail one or more RSS/Atom feeds like tail -f",
	Long: `Tails one or more RSS/Atom feeds, printing entries that are new since the
last poll. With --cache, what has been shown survives process restarts.

Format specifiers have one of the following forms:
  %(field)[flags]s
  {field:flags}

Examples:
  rsstail <url>
  echo '<url>' | rsstail --reverse
  rsstail -s pubdate -s title -s author <url1> <url2> <url3>
  rsstail --interval 60s --newer "2011/12/20 23:50:12" <url>
  rsstail --format '%(timestamp)-30s %(title)s\n' <url>
  rsstail --format '{timestamp:<20} {pubdate:^30} {author:>30}\n' <url>
  rsstail --time-format 'Day of the year: %j Month: %b' <url>

Useful format flags:
  %(field)-10s - left align and pad
  %(field)10s  - right align and pad
  {field:<10}  - left align and pad
  {field:>10}  - right align and pad
  {field:^10}  - center align and pad

Available fields: ` + strings.Join(models.FieldNames(), ", "),
	Args:          cobra.ArbitraryArgs,
	SilenceUsage:  true,
	SilenceErrors: true,
	RunE:          runTail,
}

func Execute() error {
	return rootCmd.Execute()
}

func init() {
	flags := rootCmd.Flags()
	flags.StringVarP(&intervalFlag, "interval", "i", "300s", "seconds between polling (60, 60s, 5m, 1h)")
	flags.IntVarP(&iterationsFlag, "iterations", "N", 0, "number of times to poll before quitting (0 = forever)")
	flags.IntVarP(&initialFlag, "initial", "I", 0, "number of entries to show on the first poll (0 = all)")
	flags.StringVarP(&newerFlag, "newer", "n", "", "only show entries newer than this date")
	flags.StringArrayVarP(&showFlags, "show", "s", nil, "entry field to display, repeatable (default: title)")
	flags.StringVarP(&timeFormatFlag, "time-format", "t", format.DefaultTimeFormat, "strftime-style date/time format")
	flags.StringVarP(&formatFlag, "format", "F", "", "output format (overrides --show and --heading)")
	flags.StringVar(&syntaxFlag, "syntax", "auto", "format template syntax: auto, percent, or brace")
	flags.StringVarP(&cacheFlag, "cache", "c", "", "file path to persist feed state across runs")
	flags.StringVar(&opmlFlag, "opml", "", "read feed URLs from an OPML subscription list")
	flags.BoolVarP(&reverseFlag, "reverse", "r", false, "show entries in reverse order")
	flags.BoolVarP(&failFlag, "fail", "f", false, "exit on the first error")
	flags.BoolVarP(&uniqueFlag, "unique", "u", false, "skip entries whose identity was already shown")
	flags.BoolVarP(&headingFlag, "heading", "H", false, "show field headings")
	flags.BoolVarP(&verboseFlag, "verbose", "V", false, "increase output verbosity")
}

func runTail(cmd *cobra.Command, args []string) error {
	logger := log.NewWithOptions(os.Stderr, log.Options{ReportTimestamp: false})
	if verboseFlag {
		logger.SetLevel(log.DebugLevel)
	}

	opts, formatter, err := buildConfig()
	if err != nil {
		return err
	}

	urls, err := collectURLs(args)
	if err != nil {
		return err
	}
	if len(urls) == 0 {
		return cmd.Help()
	}

	var store state.Store = state.NewMemoryStore()
	if cacheFlag != "" {
		store = state.NewFileStore(expandPath(cacheFlag), logger)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	tailer := tail.New(urls, tail.NewHTTPSource(), store, formatter, os.Stdout, logger, opts)
	if err := tailer.Run(ctx); err != nil {
		if errors.Is(err, context.Canceled) {
			fmt.Fprintln(os.Stderr, color.New(color.Faint).Sprint("... quitting"))
			return nil
		}
		return err
	}
	return nil
}

// buildConfig turns flags into pipeline options and a compiled formatter.
// Every user-input mistake surfaces here, before the first poll.
func buildConfig() (tail.Options, *format.Formatter, error) {
	opts := tail.Options{
		Iterations: iterationsFlag,
		Initial:    initialFlag,
		Reverse:    reverseFlag,
		Unique:     uniqueFlag,
		FailFast:   failFlag,
	}

	interval, err := timeutil.ParseTimespec(intervalFlag)
	if err != nil {
		return opts, nil, err
	}
	opts.Interval = interval

	if newerFlag != "" {
		newer, err := timeutil.ParseDate(newerFlag)
		if err != nil {
			return opts, nil, err
		}
		opts.NewerThan = &newer
	}

	var formatter *format.Formatter
	if formatFlag != "" {
		syntax, err := parseSyntax(syntaxFlag)
		if err != nil {
			return opts, nil, err
		}
		template := strings.NewReplacer(`\n`, "\n", `\t`, "\t").Replace(formatFlag)
		formatter, err = format.Compile(template, timeFormatFlag, syntax)
		if err != nil {
			return opts, nil, err
		}
	} else {
		fields := showFlags
		if len(fields) == 0 {
			fields = []string{"title"}
		}
		formatter, err = format.FromFields(fields, timeFormatFlag, headingFlag)
		if err != nil {
			return opts, nil, err
		}
	}

	return opts, formatter, nil
}

func parseSyntax(name string) (format.Syntax, error) {
	switch name {
	case "auto":
		return format.SyntaxAuto, nil
	case "percent":
		return format.SyntaxPercent, nil
	case "brace":
		return format.SyntaxBrace, nil
	default:
		return format.SyntaxAuto, fmt.Errorf("unknown template syntax %q (expected auto, percent, or brace)", name)
	}
}

// collectURLs gathers feed URLs from arguments, an OPML file, and - when
// nothing else is given and stdin is piped - standard input, one per line.
func collectURLs(args []string) ([]string, error) {
	urls := append([]string{}, args...)

	if opmlFlag != "" {
		fromOPML, err := opml.FeedURLs(expandPath(opmlFlag))
		if err != nil {
			return nil, err
		}
		urls = append(urls, fromOPML...)
	}

	if len(urls) == 0 && !isatty.IsTerminal(os.Stdin.Fd()) {
		scanner := bufio.NewScanner(os.Stdin)
		for scanner.Scan() {
			line := strings.TrimSpace(scanner.Text())
			if line != "" {
				urls = append(urls, line)
			}
		}
		if err := scanner.Err(); err != nil {
			return nil, fmt.Errorf("failed to read URLs from stdin: %w", err)
		}
	}

	return urls, nil
}

// expandPath expands a leading ~ to the user's home directory.
func expandPath(path string) string {
	if path == "~" {
		if home, err := os.UserHomeDir(); err == nil {
			return home
		}
	}
	if strings.HasPrefix(path, "~/") {
		if home, err := os.UserHomeDir(); err == nil {
			return filepath.Join(home, path[2:])
		}
	}
	return path
}
