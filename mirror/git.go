package mirror

import (
	"bytes"
	"context"
	"fmt"
	"errors"
	"log/slog"
	"os"
	"os/exec"
	"path/filepath"
	"strings"
)

// GitSyncer commits record files under the data directory and pushes them
// to a remote. The directory must already be a git work tree with a
// committer identity.
type GitSyncer struct {
	dir    string
	remote string
	branch string
	paths  []string
	logger *slog.Logger
}

var _ Syncer = (*GitSyncer)(nil)

// NewGitSyncer creates a syncer for the work tree at dir.
// Only paths, relative to dir, are staged; anything else in the tree such as
// key material or access logs is never committed. A .gitignore at the root
// is staged alongside them. An empty remote commits locally without pushing.
func NewGitSyncer(dir, remote, branch string, paths []string, logger *slog.Logger) *GitSyncer {
	if logger == nil {
		logger = slog.Default()
	}
	if branch == "" {
		branch = "main"
	}
	return &GitSyncer{
		dir:    dir,
		remote: remote,
		branch: branch,
		paths:  append([]string{gitignoreName}, paths...),
		logger: logger,
	}
}

const gitignoreName = ".gitignore"

// Sync stages changes under the record paths, commits with the event's
// message and pushes. Nothing is committed when no staged change exists. A
// rejected push rebases onto the remote branch and reports the error so the
// caller can retry.
func (g *GitSyncer) Sync(ctx context.Context, event Event) error {
	paths, err := g.existingPaths()
	if err != nil {
		return err
	}
	if len(paths) > 0 {
		if _, err := g.git(ctx, append([]string{"add", "-A", "--"}, paths...)...); err != nil {
			return err
		}
	}

	staged, err := g.git(ctx, "diff", "--cached", "--name-only")
	if err != nil {
		return err
	}
	if strings.TrimSpace(staged) != "" {
		if _, err := g.git(ctx, "commit", "-m", event.CommitMessage()); err != nil {
			return err
		}
	}

	if g.remote == "" {
		return nil
	}
	if _, err := g.git(ctx, "push", g.remote, g.branch); err != nil {
		if _, pullErr := g.git(ctx, "pull", "--rebase", g.remote, g.branch); pullErr != nil {
			g.logger.Warn("rebase onto remote failed", "remote", g.remote, "branch", g.branch, "err", pullErr)
		}
		return err
	}
	return nil
}

// existingPaths filters the configured paths down to those present in the
// tree, since git add rejects a pathspec that matches nothing.
func (g *GitSyncer) existingPaths() ([]string, error) {
	var paths []string
	for _, p := range g.paths {
		if _, err := os.Stat(filepath.Join(g.dir, p)); err != nil {
			if errors.Is(err, os.ErrNotExist) {
				continue
			}
			return nil, err
		}
		paths = append(paths, p)
	}
	return paths, nil
}

func (g *GitSyncer) git(ctx context.Context, args ...string) (string, error) {
	cmd := exec.CommandContext(ctx, "git", args...)
	cmd.Dir = g.dir
	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr
	if err := cmd.Run(); err != nil {
		return "", fmt.Errorf("git %s: %w: %s", args[0], err, strings.TrimSpace(stderr.String()))
	}
	return stdout.String(), nil
}
