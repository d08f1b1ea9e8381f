package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"log/slog"
	"path/filepath"

	"github.com/maruel/ksid"
	"github.com/maruel/simpledb"
	"github.com/maruel/simpledb/internal/history"
)

// Identity recorded on commits made with -git.
const (
	gitName  = "simpledb"
	gitEmail = "simpledb@localhost"
)

// app runs one command against a store file.
type app struct {
	file  string
	name  string
	codec codec
	git   bool
	in    io.Reader
	out   io.Writer
}

func (a *app) run(ctx context.Context, args []string) error {
	if len(args) == 0 {
		return errors.New("missing command; see -help")
	}
	cmd, args := args[0], args[1:]
	switch cmd {
	case "get":
		return a.get(args)
	case "count":
		return a.count(args)
	case "search":
		return a.search(args)
	case "insert":
		return a.insert(ctx, args)
	case "remove":
		return a.remove(ctx, args)
	case "remove-all":
		return a.removeAll(ctx, args)
	case "include":
		return a.include(ctx, args)
	case "history":
		return a.history(ctx, args)
	case "show":
		return a.show(ctx, args)
	case "watch":
		return a.watch(ctx, args)
	default:
		return fmt.Errorf("unknown command %q", cmd)
	}
}

func (a *app) open() (*simpledb.Store, error) {
	return simpledb.Open(simpledb.Options{Filename: a.file, Name: a.name})
}

func (a *app) get(args []string) error {
	if len(args) != 0 {
		return fmt.Errorf("get: unexpected arguments: %v", args)
	}
	s, err := a.open()
	if err != nil {
		return err
	}
	rows, err := s.Get()
	if err != nil {
		return err
	}
	return a.codec.encode(a.out, rows)
}

func (a *app) count(args []string) error {
	if len(args) != 0 {
		return fmt.Errorf("count: unexpected arguments: %v", args)
	}
	s, err := a.open()
	if err != nil {
		return err
	}
	n, err := s.Len()
	if err != nil {
		return err
	}
	_, err = fmt.Fprintln(a.out, n)
	return err
}

func (a *app) search(args []string) error {
	tmpl, err := a.payload("search", "template", args)
	if err != nil {
		return err
	}
	s, err := a.open()
	if err != nil {
		return err
	}
	rows, err := s.Search(tmpl)
	if err != nil {
		return err
	}
	return a.codec.encode(a.out, rows)
}

func (a *app) insert(ctx context.Context, args []string) error {
	fs := flag.NewFlagSet("insert", flag.ContinueOnError)
	withID := fs.Bool("id", false, "Add a sortable \"id\" field when the record has none")
	if err := fs.Parse(args); err != nil {
		return err
	}
	r, err := a.payload("insert", "record", fs.Args())
	if err != nil {
		return err
	}
	if *withID && !r.Has("id") {
		r.Set("id", simpledb.String(ksid.NewID().String()))
	}
	s, err := a.open()
	if err != nil {
		return err
	}
	if _, err := s.New(r); err != nil {
		return err
	}
	if err := a.commit(ctx, "insert into "+a.name); err != nil {
		return err
	}
	return a.codec.encode(a.out, r)
}

func (a *app) remove(ctx context.Context, args []string) error {
	tmpl, err := a.payload("remove", "template", args)
	if err != nil {
		return err
	}
	s, err := a.open()
	if err != nil {
		return err
	}
	if err := s.Remove(tmpl); err != nil {
		return err
	}
	if err := a.commit(ctx, "remove from "+a.name); err != nil {
		return err
	}
	_, err = fmt.Fprintln(a.out, 1)
	return err
}

func (a *app) removeAll(ctx context.Context, args []string) error {
	tmpl, err := a.payload("remove-all", "template", args)
	if err != nil {
		return err
	}
	s, err := a.open()
	if err != nil {
		return err
	}
	n, err := s.RemoveAll(tmpl)
	if err != nil {
		return err
	}
	if n != 0 {
		if err := a.commit(ctx, fmt.Sprintf("remove %d from %s", n, a.name)); err != nil {
			return err
		}
	}
	_, err = fmt.Fprintln(a.out, n)
	return err
}

func (a *app) include(ctx context.Context, args []string) error {
	fs := flag.NewFlagSet("include", flag.ContinueOnError)
	where := fs.String("where", "", "Only backfill records matching this template")
	if err := fs.Parse(args); err != nil {
		return err
	}
	fields, err := a.payload("include", "fields", fs.Args())
	if err != nil {
		return err
	}
	s, err := a.open()
	if err != nil {
		return err
	}
	var counts map[string]int
	if *where != "" {
		tmpl, err := a.codec.decodeRecord([]byte(*where))
		if err != nil {
			return fmt.Errorf("include: invalid -where: %w", err)
		}
		counts, err = s.IncludeWhere(tmpl, fields)
		if err != nil {
			return err
		}
	} else if counts, err = s.Include(fields); err != nil {
		return err
	}
	total := 0
	for _, n := range counts {
		total += n
	}
	if total != 0 {
		if err := a.commit(ctx, "include fields in "+a.name); err != nil {
			return err
		}
	}
	return a.codec.encode(a.out, counts)
}

func (a *app) history(ctx context.Context, args []string) error {
	fs := flag.NewFlagSet("history", flag.ContinueOnError)
	n := fs.Int("n", 20, "Maximum number of commits")
	if err := fs.Parse(args); err != nil {
		return err
	}
	if fs.NArg() != 0 {
		return fmt.Errorf("history: unexpected arguments: %v", fs.Args())
	}
	repo, base, err := a.repo(ctx)
	if err != nil {
		return err
	}
	commits, err := repo.History(ctx, base, *n)
	if err != nil {
		return err
	}
	if commits == nil {
		commits = []*history.Commit{}
	}
	return a.codec.encode(a.out, commits)
}

func (a *app) show(ctx context.Context, args []string) error {
	if len(args) != 1 {
		return errors.New("show: expected exactly one revision")
	}
	repo, base, err := a.repo(ctx)
	if err != nil {
		return err
	}
	b, err := repo.FileAt(ctx, args[0], base)
	if err != nil {
		return err
	}
	_, err = a.out.Write(b)
	return err
}

// payload decodes the single record argument of cmd. "-" reads it from stdin.
func (a *app) payload(cmd, what string, args []string) (*simpledb.Record, error) {
	if len(args) != 1 {
		return nil, fmt.Errorf("%s: expected exactly one %s", cmd, what)
	}
	data := []byte(args[0])
	if args[0] == "-" {
		var err error
		if data, err = io.ReadAll(a.in); err != nil {
			return nil, fmt.Errorf("%s: failed to read stdin: %w", cmd, err)
		}
	}
	r, err := a.codec.decodeRecord(data)
	if err != nil {
		return nil, fmt.Errorf("%s: invalid %s: %w", cmd, what, err)
	}
	return r, nil
}

// repo opens the git repository next to the store file and returns the file
// path relative to it.
func (a *app) repo(ctx context.Context) (*history.Repo, string, error) {
	abs, err := filepath.Abs(a.file)
	if err != nil {
		return nil, "", err
	}
	repo, err := history.Open(ctx, filepath.Dir(abs), gitName, gitEmail)
	if err != nil {
		return nil, "", err
	}
	rel, err := filepath.Rel(repo.Dir(), abs)
	if err != nil {
		return nil, "", err
	}
	slog.DebugContext(ctx, "Opened history", "dir", repo.Dir(), "path", rel)
	return repo, rel, nil
}

// commit records the store file in git when -git is set.
func (a *app) commit(ctx context.Context, msg string) error {
	if !a.git {
		return nil
	}
	repo, base, err := a.repo(ctx)
	if err != nil {
		return err
	}
	if err := repo.Commit(ctx, msg, base); err != nil {
		return err
	}
	slog.DebugContext(ctx, "Committed store", "path", a.file, "msg", msg)
	return nil
}
