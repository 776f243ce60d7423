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
	"os"
	"os/signal"
	"syscall"

	"github.com/urfave/cli/v3"

	"github.com/jaydeluca/collector-watcher/pkg/inventory"
	"github.com/jaydeluca/collector-watcher/pkg/logging"
	"github.com/jaydeluca/collector-watcher/pkg/serializer"
)

const (
	name           = "watcher"
	versionDefault = "dev"
)

var (
	// overridden during build with ldflags
	buildVersion = versionDefault
	commit       = "unknown"
)

// Shared flags across subcommands.
var (
	inventoryDirFlag = &cli.StringFlag{
		Name:    "inventory-dir",
		Usage:   "Root directory of the stored inventories",
		Sources: cli.EnvVars("WATCHER_INVENTORY_DIR"),
		Value:   inventory.DefaultRoot,
	}

	outputFlag = &cli.StringFlag{
		Name:    "output",
		Aliases: []string{"o"},
		Usage:   "Write the report to this file instead of stdout",
	}

	formatFlag = &cli.StringFlag{
		Name:  "format",
		Usage: fmt.Sprintf("Report format (supported values: %s)", serializer.SupportedFormats()),
		Value: string(serializer.FormatYAML),
	}
)

// rootCmd assembles the base command with all subcommands.
func rootCmd() *cli.Command {
	return &cli.Command{
		Name:  name,
		Usage: "Track OpenTelemetry Collector components across versions",
		Description: fmt.Sprintf(`Versioned component inventory and changelog tooling.

Version: %s
Commit:  %s

scan      - detect versions, scan distribution checkouts, and publish
            versioned component inventories.
changelog - compare two stored inventory versions and report component
            additions, removals, and stability changes.`, buildVersion, commit),
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:    "log-level",
				Usage:   "Log level (debug, info, warn, error)",
				Sources: cli.EnvVars("LOG_LEVEL"),
				Value:   "info",
			},
		},
		Before: func(ctx context.Context, cmd *cli.Command) (context.Context, error) {
			logging.SetDefaultStructuredLoggerWithLevel(name, buildVersion, cmd.String("log-level"))
			return ctx, nil
		},
		Commands: []*cli.Command{
			scanCmd(),
			changelogCmd(),
		},
	}
}

// Execute runs the CLI. It is called by main.main() and handles
// SIGINT/SIGTERM for graceful shutdown.
func Execute() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := rootCmd().Run(ctx, os.Args); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
