// Package main is the entry point for the simpledb command.
//
// simpledb inspects and edits one collection of a simpledb store file from the
// shell. Configuration is read from CLI flags, falling back to SIMPLEDB_*
// environment variables.
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"runtime/debug"
	"strings"
	"syscall"

	"github.com/lmittmann/tint"
	"github.com/mattn/go-colorable"
	"github.com/mattn/go-isatty"
)

func main() {
	if err := mainImpl(); err != nil && !errors.Is(err, context.Canceled) {
		fmt.Fprintf(os.Stderr, "simpledb: %v\n", err)
		os.Exit(1)
	}
}

func mainImpl() error {
	version := flag.Bool("version", false, "Print version and exit")
	dbFile := flag.String("db", "simpledb.json", "Store file")
	name := flag.String("name", "", "Collection name")
	format := flag.String("format", "json", "Payload and output format (json, yaml)")
	logLevel := flag.String("log-level", "warn", "Log level (debug, info, warn, error)")
	useGit := flag.Bool("git", false, "Commit the store file to a git repository in its directory after each change")
	flag.Usage = usage
	flag.Parse()

	if *version {
		printVersion()
		return nil
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM, os.Interrupt)
	defer stop()
	ll := &slog.LevelVar{}
	logger := slog.New(tint.NewHandler(colorable.NewColorable(os.Stderr), &tint.Options{
		Level:      ll,
		TimeFormat: "15:04:05.000", // Like time.TimeOnly plus milliseconds.
		NoColor:    !isatty.IsTerminal(os.Stderr.Fd()),
	}))
	slog.SetDefault(logger)

	// Override with environment values if not explicitly set via flags.
	set := make(map[string]bool)
	flag.Visit(func(f *flag.Flag) {
		set[f.Name] = true
	})
	for flagName, dst := range map[string]*string{
		"db":        dbFile,
		"name":      name,
		"format":    format,
		"log-level": logLevel,
	} {
		if set[flagName] {
			continue
		}
		key := "SIMPLEDB_" + strings.ToUpper(strings.ReplaceAll(flagName, "-", "_"))
		if flagName == "db" {
			key = "SIMPLEDB_FILE"
		}
		if v := os.Getenv(key); v != "" {
			*dst = v
		}
	}

	level, err := parseLevel(*logLevel)
	if err != nil {
		return err
	}
	ll.Set(level)

	c, err := newCodec(*format)
	if err != nil {
		return err
	}
	a := &app{
		file:  *dbFile,
		name:  *name,
		codec: c,
		git:   *useGit,
		in:    os.Stdin,
		out:   os.Stdout,
	}
	return a.run(ctx, flag.Args())
}

func parseLevel(s string) (slog.Level, error) {
	switch strings.ToLower(s) {
	case "debug":
		return slog.LevelDebug, nil
	case "info":
		return slog.LevelInfo, nil
	case "warn":
		return slog.LevelWarn, nil
	case "error":
		return slog.LevelError, nil
	default:
		return 0, fmt.Errorf("invalid log level: %q", s)
	}
}

func usage() {
	out := flag.CommandLine.Output()
	fmt.Fprintf(out, "usage: simpledb [flags] <command> [args]\n\n")
	fmt.Fprintf(out, "Commands:\n")
	fmt.Fprintf(out, "  get                             print every record\n")
	fmt.Fprintf(out, "  count                           print the number of records\n")
	fmt.Fprintf(out, "  search <template>               print the records matching template\n")
	fmt.Fprintf(out, "  insert [-id] <record>           append a record\n")
	fmt.Fprintf(out, "  remove <template>               remove the first matching record\n")
	fmt.Fprintf(out, "  remove-all <template>           remove every matching record\n")
	fmt.Fprintf(out, "  include [-where <tmpl>] <fields> backfill missing fields with defaults\n")
	fmt.Fprintf(out, "  history [-n N]                  list the commits of the store file\n")
	fmt.Fprintf(out, "  show <rev>                      print the store file at a revision\n")
	fmt.Fprintf(out, "  watch                           print the collection on every change\n")
	fmt.Fprintf(out, "\nPayloads may be \"-\" to read from stdin.\n\nFlags:\n")
	flag.PrintDefaults()
}

func printVersion() {
	version, goVersion, revision, dirty := getBuildInfo()
	fmt.Printf("simpledb %s\n", version)
	fmt.Printf("  Go version: %s\n", goVersion)
	fmt.Printf("  Revision:   %s\n", revision)
	if dirty {
		fmt.Printf("  Modified:   true\n")
	}
}

func getBuildInfo() (version, goVersion, revision string, dirty bool) {
	version = "unknown"
	goVersion = "unknown"
	revision = "unknown"
	info, ok := debug.ReadBuildInfo()
	if !ok {
		return
	}
	version = info.Main.Version
	if version == "" || version == "(devel)" {
		version = "dev"
	}
	goVersion = info.GoVersion
	for _, setting := range info.Settings {
		switch setting.Key {
		case "vcs.revision":
			revision = setting.Value
		case "vcs.modified":
			dirty = setting.Value == "true"
		}
	}
	return
}
