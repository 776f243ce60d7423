// Copyright (c) 2025, The Collector Watcher Authors.
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package version

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/exec"
	"strings"
	"time"

	"github.com/jaydeluca/collector-watcher/pkg/defaults"
	watcherrors "github.com/jaydeluca/collector-watcher/pkg/errors"
)

// Detector derives version identifiers from a repository checkout by
// reading its tag metadata. It is read-only with respect to repository
// content; only the explicit Checkout helpers move the working tree.
type Detector struct {
	// RepoPath is the path to the repository checkout.
	RepoPath string
}

// NewDetector creates a Detector for the repository at path.
// Returns an error if the path does not exist.
func NewDetector(path string) (*Detector, error) {
	info, err := os.Stat(path)
	if err != nil {
		return nil, fmt.Errorf("repository path does not exist: %s", path)
	}
	if !info.IsDir() {
		return nil, fmt.Errorf("repository path is not a directory: %s", path)
	}
	return &Detector{RepoPath: path}, nil
}

// git runs a git subcommand against the repository and returns its stdout.
// A default timeout is applied when ctx carries no deadline.
func (d *Detector) git(ctx context.Context, args ...string) (string, error) {
	return d.gitWithTimeout(ctx, defaults.GitCommandTimeout, args...)
}

func (d *Detector) gitWithTimeout(ctx context.Context, timeout time.Duration, args ...string) (string, error) {
	gitPath, err := exec.LookPath("git")
	if err != nil {
		return "", fmt.Errorf("git not found in PATH: %w", err)
	}

	if _, ok := ctx.Deadline(); !ok {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, timeout)
		defer cancel()
	}

	fullArgs := append([]string{"-C", d.RepoPath}, args...)
	cmd := exec.CommandContext(ctx, gitPath, fullArgs...)
	output, err := cmd.Output()
	if err != nil {
		return "", fmt.Errorf("git %s failed: %w", strings.Join(args, " "), err)
	}
	return string(output), nil
}

// Releases returns all release versions tagged in the repository, sorted
// newest first. Malformed tags, pre-release tags, and snapshot-suffixed
// tags are discarded. Returns a VERSION_DETECTION error when no parsable
// release tags exist; the caller may still continue with other repositories.
func (d *Detector) Releases(ctx context.Context) ([]Version, error) {
	output, err := d.git(ctx, "tag", "--list")
	if err != nil {
		return nil, watcherrors.Wrap(watcherrors.ErrCodeVersionDetection, "failed to list tags", err)
	}

	var releases []Version
	for _, line := range strings.Split(output, "\n") {
		tag := strings.TrimSpace(line)
		if tag == "" {
			continue
		}
		v, err := Parse(tag)
		if err != nil || v.Snapshot {
			continue
		}
		releases = append(releases, v)
	}

	if len(releases) == 0 {
		return nil, watcherrors.NewWithContext(
			watcherrors.ErrCodeVersionDetection,
			"no parsable release tags found",
			map[string]any{"repo": d.RepoPath},
		)
	}

	Sort(releases)
	return releases, nil
}

// LatestRelease returns the newest release version tagged in the repository.
func (d *Detector) LatestRelease(ctx context.Context) (Version, error) {
	releases, err := d.Releases(ctx)
	if err != nil {
		return Version{}, err
	}
	return releases[0], nil
}

// Versions returns the ordered sequence of version identifiers for the
// repository: every release, newest first, preceded by at most one
// synthesized snapshot identifier when the checkout head has commits past
// the latest release tag.
func (d *Detector) Versions(ctx context.Context) ([]Version, error) {
	releases, err := d.Releases(ctx)
	if err != nil {
		return nil, err
	}

	ahead, err := d.headAhead(ctx, releases[0])
	if err != nil {
		slog.Warn("unable to determine head position, skipping snapshot synthesis",
			"repo", d.RepoPath, "error", err)
		return releases, nil
	}
	if !ahead {
		return releases, nil
	}

	snapshot := releases[0].NextMinor()
	snapshot.Snapshot = true
	return append([]Version{snapshot}, releases...), nil
}

// NextSnapshot determines the snapshot version identifier for the current
// main branch: the next minor version past the latest release, or
// v0.0.1-SNAPSHOT when the repository has no releases at all.
func (d *Detector) NextSnapshot(ctx context.Context) (Version, error) {
	latest, err := d.LatestRelease(ctx)
	if err != nil {
		if watcherrors.IsCode(err, watcherrors.ErrCodeVersionDetection) {
			v := New(0, 0, 1)
			v.Snapshot = true
			return v, nil
		}
		return Version{}, err
	}

	next := latest.NextMinor()
	next.Snapshot = true
	return next, nil
}

// headAhead reports whether HEAD has commits not reachable from the tag.
func (d *Detector) headAhead(ctx context.Context, tag Version) (bool, error) {
	output, err := d.git(ctx, "rev-list", "--count", tag.String()+"..HEAD")
	if err != nil {
		return false, err
	}
	return strings.TrimSpace(output) != "0", nil
}

// CheckoutVersion moves the working tree to the given release tag.
// This is collaborator glue for the scan workflow; the engine itself never
// mutates the checkout.
func (d *Detector) CheckoutVersion(ctx context.Context, v Version) error {
	if _, err := d.gitWithTimeout(ctx, defaults.GitCheckoutTimeout, "checkout", v.String()); err != nil {
		return fmt.Errorf("failed to checkout %s: %w", v, err)
	}
	return nil
}

// CheckoutMain moves the working tree to the main branch, falling back to
// master for older repositories.
func (d *Detector) CheckoutMain(ctx context.Context) error {
	if _, err := d.gitWithTimeout(ctx, defaults.GitCheckoutTimeout, "checkout", "main"); err == nil {
		return nil
	}
	if _, err := d.gitWithTimeout(ctx, defaults.GitCheckoutTimeout, "checkout", "master"); err != nil {
		return fmt.Errorf("failed to checkout main/master branch: %w", err)
	}
	return nil
}
