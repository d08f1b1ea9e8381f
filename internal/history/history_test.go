package history

import (
	"os"
	"path/filepath"
	"testing"
)

func TestRepo(t *testing.T) {
	t.Parallel()

	t.Run("Open", func(t *testing.T) {
		t.Parallel()
		dir := filepath.Join(t.TempDir(), "data")
		ctx := t.Context()

		repo, err := Open(ctx, dir, "Test User", "test@example.com")
		if err != nil {
			t.Fatalf("Open() failed: %v", err)
		}
		if repo.Dir() != dir {
			t.Errorf("Dir() = %q, want %q", repo.Dir(), dir)
		}
		if _, err := os.Stat(filepath.Join(dir, ".git")); err != nil {
			t.Errorf(".git directory not created: %v", err)
		}
		cfg, err := repo.repo.Config()
		if err != nil {
			t.Fatalf("Config() failed: %v", err)
		}
		if cfg.User.Name != "Test User" || cfg.User.Email != "test@example.com" {
			t.Errorf("user = %q <%q>", cfg.User.Name, cfg.User.Email)
		}

		history, err := repo.History(ctx, "db.json", 10)
		if err != nil {
			t.Fatalf("History() on empty repo failed: %v", err)
		}
		if len(history) != 0 {
			t.Errorf("History() on empty repo = %d commits", len(history))
		}

		if _, err := Open(ctx, dir, "Other", "other@example.com"); err != nil {
			t.Fatalf("reopening failed: %v", err)
		}
	})

	t.Run("Commit", func(t *testing.T) {
		t.Parallel()
		dir := t.TempDir()
		ctx := t.Context()

		repo, err := Open(ctx, dir, "Test User", "test@example.com")
		if err != nil {
			t.Fatalf("Open() failed: %v", err)
		}
		path := filepath.Join(dir, "db.json")
		write := func(content string) {
			t.Helper()
			if err := os.WriteFile(path, []byte(content), 0o600); err != nil {
				t.Fatalf("failed to write file: %v", err)
			}
		}

		write(`{"users": []}`)
		if err := repo.Commit(ctx, "create users\n\ndetails", "db.json"); err != nil {
			t.Fatalf("Commit() failed: %v", err)
		}
		if err := repo.Commit(ctx, "no change", "db.json"); err != nil {
			t.Fatalf("Commit() without changes failed: %v", err)
		}
		write(`{"users": [{"a": 1}]}`)
		if err := repo.Commit(ctx, "insert into users", "db.json"); err != nil {
			t.Fatalf("Commit() failed: %v", err)
		}
		if err := repo.Commit(ctx, "nothing"); err != nil {
			t.Fatalf("Commit() without files failed: %v", err)
		}

		history, err := repo.History(ctx, "db.json", 0)
		if err != nil {
			t.Fatalf("History() failed: %v", err)
		}
		if len(history) != 2 {
			t.Fatalf("History() = %d commits, want 2", len(history))
		}
		if history[0].Message != "insert into users" || history[1].Message != "create users" {
			t.Errorf("messages = %q, %q", history[0].Message, history[1].Message)
		}
		if history[1].Body != "details" {
			t.Errorf("Body = %q, want %q", history[1].Body, "details")
		}
		if history[0].Author != "Test User" || history[0].Email != "test@example.com" {
			t.Errorf("author = %q <%q>", history[0].Author, history[0].Email)
		}

		limited, err := repo.History(ctx, "db.json", 1)
		if err != nil {
			t.Fatalf("History(n=1) failed: %v", err)
		}
		if len(limited) != 1 {
			t.Errorf("History(n=1) = %d commits", len(limited))
		}

		head, err := repo.FileAt(ctx, "HEAD", "db.json")
		if err != nil {
			t.Fatalf("FileAt(HEAD) failed: %v", err)
		}
		if string(head) != `{"users": [{"a": 1}]}` {
			t.Errorf("FileAt(HEAD) = %s", head)
		}
		first, err := repo.FileAt(ctx, history[1].Hash, "db.json")
		if err != nil {
			t.Fatalf("FileAt(first) failed: %v", err)
		}
		if string(first) != `{"users": []}` {
			t.Errorf("FileAt(first) = %s", first)
		}
		if _, err := repo.FileAt(ctx, "HEAD", "missing.json"); err == nil {
			t.Error("FileAt(missing) succeeded")
		}
	})
}
