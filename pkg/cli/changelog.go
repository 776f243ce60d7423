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

	"github.com/urfave/cli/v3"

	"github.com/jaydeluca/collector-watcher/pkg/inventory"
	"github.com/jaydeluca/collector-watcher/pkg/serializer"
	"github.com/jaydeluca/collector-watcher/pkg/version"
	"github.com/jaydeluca/collector-watcher/pkg/watcher"
)

// changelogCmdOptions holds parsed options for the changelog command.
type changelogCmdOptions struct {
	distribution string
	oldVersion   version.Version
	newVersion   version.Version
	exact        bool
	inventoryDir string
	output       string
	format       serializer.Format
}

// parseChangelogCmdOptions parses and validates command options.
func parseChangelogCmdOptions(cmd *cli.Command) (*changelogCmdOptions, error) {
	opts := &changelogCmdOptions{
		distribution: cmd.String("distribution"),
		exact:        cmd.Bool("exact"),
		inventoryDir: cmd.String("inventory-dir"),
		output:       cmd.String("output"),
		format:       serializer.Format(cmd.String("format")),
	}

	if opts.format.IsUnknown() {
		return nil, fmt.Errorf("unknown output format: %q", opts.format)
	}

	var err error
	if opts.oldVersion, err = version.Parse(cmd.String("old")); err != nil {
		return nil, fmt.Errorf("invalid --old value %q: %w", cmd.String("old"), err)
	}
	if opts.newVersion, err = version.Parse(cmd.String("new")); err != nil {
		return nil, fmt.Errorf("invalid --new value %q: %w", cmd.String("new"), err)
	}

	return opts, nil
}

func changelogCmd() *cli.Command {
	return &cli.Command{
		Name:                  "changelog",
		EnableShellCompletion: true,
		Usage:                 "Compare two stored inventory versions",
		Description: `Compare two stored inventory versions of one distribution and report
added components, removed components, stability level transitions, and
distribution membership changes.

When a requested version is not stored, the nearest stored version is
compared instead and the substitution is reported as a notice. Use
--exact to fail on missing versions instead.

# Examples

Changes between two releases:
  watcher changelog --distribution contrib --old v0.111.0 --new v0.112.0

Changes accumulated on main since the last release:
  watcher changelog --distribution core --old v0.112.0 --new v0.113.0-SNAPSHOT`,
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:    "distribution",
				Aliases: []string{"d"},
				Usage:   "Distribution to compare (e.g. core, contrib)",
				Value:   "contrib",
			},
			&cli.StringFlag{
				Name:     "old",
				Required: true,
				Usage:    "Older version to compare from (e.g. v0.111.0)",
			},
			&cli.StringFlag{
				Name:     "new",
				Required: true,
				Usage:    "Newer version to compare to (e.g. v0.112.0)",
			},
			&cli.BoolFlag{
				Name:  "exact",
				Usage: "Fail when a requested version is not stored instead of comparing the nearest one",
			},
			inventoryDirFlag,
			outputFlag,
			formatFlag,
		},
		Action: func(ctx context.Context, cmd *cli.Command) error {
			opts, err := parseChangelogCmdOptions(cmd)
			if err != nil {
				return err
			}

			w := &watcher.Watcher{
				Store: inventory.NewStore(opts.inventoryDir),
			}

			report, err := w.Changelog(opts.distribution, opts.oldVersion, opts.newVersion, !opts.exact)
			if err != nil {
				return err
			}

			out := serializer.NewFileWriterOrStdout(opts.format, opts.output)
			defer out.Close()
			return out.Serialize(report)
		},
	}
}
