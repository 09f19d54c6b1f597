// Package remote builds raw-content URLs for the project's GitHub
// repository, used for update checks and map database refreshes.
//
// The repository coordinates resolve lazily on first use: values injected at
// build time win, and a development build falls back to the local git
// remote so the daemon keeps working from a source checkout.
package remote

import (
	"context"
	"log/slog"
	"os/exec"
	"regexp"
	"sync"
	"time"
)

// Injected via:
//
//	-X github.com/fortwatch/fortpresence/internal/remote.ldOwner=...
//	-X github.com/fortwatch/fortpresence/internal/remote.ldRepo=...
var (
	ldOwner string
	ldRepo  string
)

type coords struct {
	owner string
	repo  string
}

var (
	resolveOnce sync.Once
	resolved    coords
)

// githubRemoteRe pulls owner and repo out of both HTTPS and SSH GitHub
// remote URLs.
var githubRemoteRe = regexp.MustCompile(`github\.com[:/]([^/]+)/([^/.]+)`)

func resolve() coords {
	resolveOnce.Do(func() {
		if ldOwner != "" && ldRepo != "" {
			resolved = coords{owner: ldOwner, repo: ldRepo}
			return
		}
		ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
		defer cancel()
		out, err := exec.CommandContext(ctx, "git", "remote", "get-url", "origin").Output()
		if err != nil {
			slog.Debug("remote: no build-time coordinates and no git remote", "error", err)
			return
		}
		if m := githubRemoteRe.FindStringSubmatch(string(out)); len(m) == 3 {
			resolved = coords{owner: m[1], repo: m[2]}
		}
	})
	return resolved
}

// Owner returns the GitHub repository owner, or "" when unknown.
func Owner() string { return resolve().owner }

// Repo returns the GitHub repository name, or "" when unknown.
func Repo() string { return resolve().repo }

// RawURL returns the raw-content URL for path on the main branch, or ""
// when the repository coordinates could not be determined.
func RawURL(path string) string {
	c := resolve()
	if c.owner == "" || c.repo == "" {
		return ""
	}
	return "https://raw.githubusercontent.com/" + c.owner + "/" + c.repo + "/main/" + path
}
