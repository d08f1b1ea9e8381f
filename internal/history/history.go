// Package history versions store files in a git repository using go-git
// (pure Go, no git binary dependency).
package history

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	gogit "github.com/go-git/go-git/v5"
	"github.com/go-git/go-git/v5/plumbing"
	"github.com/go-git/go-git/v5/plumbing/object"
)

// maxHistory caps the number of commits History returns.
const maxHistory = 1000

// Commit is one entry of a file's history.
type Commit struct {
	Hash    string    `json:"hash" yaml:"hash"`
	Message string    `json:"message" yaml:"message"` // Subject line.
	Body    string    `json:"body,omitempty" yaml:"body,omitempty"`
	Author  string    `json:"author" yaml:"author"`
	Email   string    `json:"email" yaml:"email"`
	Date    time.Time `json:"date" yaml:"date"`
}

// Repo is a git repository holding one or more store files.
type Repo struct {
	dir   string
	name  string
	email string
	repo  *gogit.Repository
	mu    sync.Mutex
}

// Open opens the repository at dir, initializing it when missing. name and
// email are recorded in the repository config on initialization and used
// for every commit.
func Open(_ context.Context, dir, name, email string) (*Repo, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil { //nolint:gosec // G301: data directory.
		return nil, fmt.Errorf("failed to create repo directory: %w", err)
	}
	repo, err := gogit.PlainOpen(dir)
	if errors.Is(err, gogit.ErrRepositoryNotExists) {
		repo, err = gogit.PlainInit(dir, false)
		if err != nil {
			return nil, fmt.Errorf("failed to initialize git repo: %w", err)
		}
		cfg, err := repo.Config()
		if err != nil {
			return nil, fmt.Errorf("failed to read git config: %w", err)
		}
		cfg.User.Name = name
		cfg.User.Email = email
		if err := repo.SetConfig(cfg); err != nil {
			return nil, fmt.Errorf("failed to write git config: %w", err)
		}
	} else if err != nil {
		return nil, fmt.Errorf("failed to open git repo: %w", err)
	}
	return &Repo{dir: dir, name: name, email: email, repo: repo}, nil
}

// Dir returns the repository's working directory.
func (r *Repo) Dir() string {
	return r.dir
}

// Commit stages files, given relative to Dir, and commits them with msg.
// Nothing is committed when the files are unchanged.
func (r *Repo) Commit(_ context.Context, msg string, files ...string) error {
	if len(files) == 0 {
		return nil
	}
	r.mu.Lock()
	defer r.mu.Unlock()

	w, err := r.repo.Worktree()
	if err != nil {
		return fmt.Errorf("failed to get worktree: %w", err)
	}
	for _, f := range files {
		if _, err := w.Add(filepath.ToSlash(f)); err != nil {
			return fmt.Errorf("failed to stage %s: %w", f, err)
		}
	}
	status, err := w.Status()
	if err != nil {
		return fmt.Errorf("failed to get worktree status: %w", err)
	}
	staged := false
	for _, f := range files {
		if s := status.File(filepath.ToSlash(f)); s.Staging != gogit.Unmodified && s.Staging != gogit.Untracked {
			staged = true
			break
		}
	}
	if !staged {
		return nil
	}

	sig := &object.Signature{Name: r.name, Email: r.email, When: time.Now()}
	if _, err := w.Commit(msg, &gogit.CommitOptions{Author: sig, Committer: sig}); err != nil {
		return fmt.Errorf("failed to commit: %w", err)
	}
	return nil
}

// History returns the commits touching path, newest first, limited to n.
// n is capped at 1000; n <= 0 means the cap. An empty repository has no
// history.
func (r *Repo) History(_ context.Context, path string, n int) ([]*Commit, error) {
	if n <= 0 || n > maxHistory {
		n = maxHistory
	}
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, err := r.repo.Head(); errors.Is(err, plumbing.ErrReferenceNotFound) {
		return nil, nil
	} else if err != nil {
		return nil, fmt.Errorf("failed to resolve HEAD: %w", err)
	}
	opts := &gogit.LogOptions{}
	if path != "" && path != "." {
		p := filepath.ToSlash(path)
		opts.FileName = &p
	}
	iter, err := r.repo.Log(opts)
	if err != nil {
		return nil, fmt.Errorf("failed to read log: %w", err)
	}
	defer iter.Close()

	var commits []*Commit
	for range n {
		c, err := iter.Next()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("failed to read log: %w", err)
		}
		subject, body, _ := strings.Cut(c.Message, "\n")
		commits = append(commits, &Commit{
			Hash:    c.Hash.String(),
			Message: subject,
			Body:    strings.TrimSpace(body),
			Author:  c.Author.Name,
			Email:   c.Author.Email,
			Date:    c.Author.When,
		})
	}
	return commits, nil
}

// FileAt returns the content of path at the given revision. "HEAD" resolves
// to the current head.
func (r *Repo) FileAt(_ context.Context, rev, path string) ([]byte, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	h, err := r.repo.ResolveRevision(plumbing.Revision(rev))
	if err != nil {
		return nil, fmt.Errorf("failed to resolve %s: %w", rev, err)
	}
	c, err := r.repo.CommitObject(*h)
	if err != nil {
		return nil, fmt.Errorf("failed to get commit: %w", err)
	}
	f, err := c.File(filepath.ToSlash(path))
	if err != nil {
		return nil, fmt.Errorf("failed to get %s at %s: %w", path, rev, err)
	}
	reader, err := f.Reader()
	if err != nil {
		return nil, fmt.Errorf("failed to open file: %w", err)
	}
	defer func() { _ = reader.Close() }()
	return io.ReadAll(reader)
}
