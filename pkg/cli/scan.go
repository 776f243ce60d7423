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

package cli

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/urfave/cli/v3"

	"github.com/jaydeluca/collector-watcher/pkg/inventory"
	"github.com/jaydeluca/collector-watcher/pkg/merger"
	"github.com/jaydeluca/collector-watcher/pkg/serializer"
	"github.com/jaydeluca/collector-watcher/pkg/version"
	"github.com/jaydeluca/collector-watcher/pkg/watcher"
)

// Scan modes.
const (
	modeNightly  = "nightly"
	modeRelease  = "release"
	modeSnapshot = "snapshot"
)

// scanCmdOptions holds parsed options for the scan command.
type scanCmdOptions struct {
	repos        map[string]string
	inventoryDir string
	mode         string
	version      *version.Version
	force        bool
	merged       bool
	precedence   []string
	noCheckout   bool
	output       string
	format       serializer.Format
}

// parseScanCmdOptions parses and validates command options.
func parseScanCmdOptions(cmd *cli.Command) (*scanCmdOptions, error) {
	opts := &scanCmdOptions{
		repos:        map[string]string{},
		inventoryDir: cmd.String("inventory-dir"),
		mode:         cmd.String("mode"),
		force:        cmd.Bool("force"),
		merged:       cmd.Bool("merged"),
		precedence:   cmd.StringSlice("precedence"),
		noCheckout:   cmd.Bool("no-checkout"),
		output:       cmd.String("output"),
		format:       serializer.Format(cmd.String("format")),
	}

	if opts.format.IsUnknown() {
		return nil, fmt.Errorf("unknown output format: %q", opts.format)
	}

	if path := cmd.String("core-repo"); path != "" {
		opts.repos["core"] = path
	}
	if path := cmd.String("contrib-repo"); path != "" {
		opts.repos["contrib"] = path
	}
	for _, spec := range cmd.StringSlice("repo") {
		dist, path, ok := strings.Cut(spec, "=")
		if !ok || dist == "" || path == "" {
			return nil, fmt.Errorf("invalid --repo value: %q (must be name=path)", spec)
		}
		opts.repos[dist] = path
	}
	if len(opts.repos) == 0 {
		return nil, fmt.Errorf("at least one repository is required (--core-repo, --contrib-repo, or --repo)")
	}

	switch opts.mode {
	case modeNightly, modeRelease, modeSnapshot:
	default:
		return nil, fmt.Errorf("invalid --mode value: %q (must be %s, %s, or %s)",
			opts.mode, modeNightly, modeRelease, modeSnapshot)
	}

	if raw := cmd.String("version"); raw != "" {
		v, err := version.Parse(raw)
		if err != nil {
			return nil, fmt.Errorf("invalid --version value %q: %w", raw, err)
		}
		opts.version = &v
	}

	if opts.merged && opts.version == nil {
		return nil, fmt.Errorf("--merged requires --version")
	}
	if opts.force && opts.version == nil {
		return nil, fmt.Errorf("--force requires --version")
	}

	return opts, nil
}

func scanCmd() *cli.Command {
	return &cli.Command{
		Name:                  "scan",
		EnableShellCompletion: true,
		Usage:                 "Scan collector repositories and publish versioned inventories",
		Description: `Scan one or more collector distribution checkouts and publish their
component inventories into the versioned store.

Modes:
  nightly  - publish the latest release when not yet tracked, then
             refresh the snapshot from the main branch (default)
  release  - publish the latest release only
  snapshot - refresh the snapshot only

With --version, the given version is scanned instead of running a mode.
With --merged, the version is scanned across all repositories and the
merged cross-distribution inventory is written to the report output
instead of the store.

# Examples

Nightly run over both upstream repositories:
  watcher scan --core-repo ../opentelemetry-collector --contrib-repo ../opentelemetry-collector-contrib

Backfill one historical release:
  watcher scan --core-repo ../opentelemetry-collector --version v0.98.0

Merged view of a release across distributions:
  watcher scan --core-repo ../core --contrib-repo ../contrib --version v0.112.0 --merged -o merged.yaml`,
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:    "core-repo",
				Usage:   "Path to the opentelemetry-collector checkout",
				Sources: cli.EnvVars("WATCHER_CORE_REPO"),
			},
			&cli.StringFlag{
				Name:    "contrib-repo",
				Usage:   "Path to the opentelemetry-collector-contrib checkout",
				Sources: cli.EnvVars("WATCHER_CONTRIB_REPO"),
			},
			&cli.StringSliceFlag{
				Name:  "repo",
				Usage: "Additional distribution checkout (format: name=path, can be repeated)",
			},
			&cli.StringFlag{
				Name:  "mode",
				Usage: "Scan mode (nightly, release, snapshot)",
				Value: modeNightly,
			},
			&cli.StringFlag{
				Name:  "version",
				Usage: "Scan this specific version instead of running a mode (e.g. v0.112.0)",
			},
			&cli.BoolFlag{
				Name:  "force",
				Usage: "Rescan a version that is already tracked (identical content only)",
			},
			&cli.BoolFlag{
				Name:  "merged",
				Usage: "Produce a merged cross-distribution inventory instead of publishing",
			},
			&cli.StringSliceFlag{
				Name:  "precedence",
				Usage: "Distribution precedence for merge conflicts (default: core, contrib)",
			},
			&cli.BoolFlag{
				Name:  "no-checkout",
				Usage: "Scan working trees as-is without moving them to the requested version",
			},
			inventoryDirFlag,
			outputFlag,
			formatFlag,
		},
		Action: func(ctx context.Context, cmd *cli.Command) error {
			opts, err := parseScanCmdOptions(cmd)
			if err != nil {
				return err
			}

			w := &watcher.Watcher{
				Repos:    opts.repos,
				Store:    inventory.NewStore(opts.inventoryDir),
				Merger:   merger.NewMerger(opts.precedence...),
				Checkout: !opts.noCheckout,
			}

			out := serializer.NewFileWriterOrStdout(opts.format, opts.output)
			defer out.Close()

			if opts.merged {
				merged, warnings, err := w.ScanMerged(ctx, *opts.version)
				if err != nil {
					return err
				}
				for _, warning := range warnings {
					slog.Warn("merge conflict", "detail", warning.String())
				}
				return out.Serialize(merged)
			}

			summary, err := runScan(ctx, w, opts)
			if err != nil {
				return err
			}
			return out.Serialize(summary)
		},
	}
}

func runScan(ctx context.Context, w *watcher.Watcher, opts *scanCmdOptions) (*watcher.Summary, error) {
	if opts.version != nil {
		return w.ScanSpecific(ctx, *opts.version, opts.force)
	}
	switch opts.mode {
	case modeRelease:
		return w.ProcessLatestReleases(ctx)
	case modeSnapshot:
		return w.UpdateSnapshots(ctx)
	default:
		return w.RunNightly(ctx)
	}
}
