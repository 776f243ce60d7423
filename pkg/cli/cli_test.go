package cli

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/urfave/cli/v3"
	"gopkg.in/yaml.v3"

	"github.com/jaydeluca/collector-watcher/pkg/component"
	"github.com/jaydeluca/collector-watcher/pkg/inventory"
	"github.com/jaydeluca/collector-watcher/pkg/version"
	"github.com/jaydeluca/collector-watcher/pkg/watcher"
)

func hasName(flag cli.Flag, name string) bool {
	for _, n := range flag.Names() {
		if n == name {
			return true
		}
	}
	return false
}

func requireFlags(t *testing.T, cmd *cli.Command, names ...string) {
	t.Helper()
	for _, name := range names {
		found := false
		for _, flag := range cmd.Flags {
			if hasName(flag, name) {
				found = true
				break
			}
		}
		if !found {
			t.Errorf("required flag %q not found on %s", name, cmd.Name)
		}
	}
}

func TestScanCmdStructure(t *testing.T) {
	cmd := scanCmd()

	if cmd.Name != "scan" {
		t.Errorf("Name = %q, want scan", cmd.Name)
	}
	if cmd.Usage == "" {
		t.Error("Usage should not be empty")
	}
	if cmd.Action == nil {
		t.Error("Action should not be nil")
	}
	requireFlags(t, cmd,
		"core-repo", "contrib-repo", "repo", "mode", "version", "force",
		"merged", "precedence", "no-checkout", "inventory-dir", "output", "format")
}

func TestChangelogCmdStructure(t *testing.T) {
	cmd := changelogCmd()

	if cmd.Name != "changelog" {
		t.Errorf("Name = %q, want changelog", cmd.Name)
	}
	if cmd.Action == nil {
		t.Error("Action should not be nil")
	}
	requireFlags(t, cmd,
		"distribution", "old", "new", "exact", "inventory-dir", "output", "format")
}

func TestRootCmdStructure(t *testing.T) {
	cmd := rootCmd()

	if cmd.Name != name {
		t.Errorf("Name = %q, want %q", cmd.Name, name)
	}
	if len(cmd.Commands) != 2 {
		t.Errorf("expected 2 subcommands, got %d", len(cmd.Commands))
	}
	if !strings.Contains(cmd.Description, buildVersion) {
		t.Errorf("Description should embed the build version, got %q", cmd.Description)
	}
}

// runParseScan runs the scan command with the given arguments and returns
// what parseScanCmdOptions produced inside the action.
func runParseScan(t *testing.T, args ...string) (*scanCmdOptions, error) {
	t.Helper()
	var opts *scanCmdOptions
	var parseErr error

	cmd := scanCmd()
	cmd.Action = func(_ context.Context, c *cli.Command) error {
		opts, parseErr = parseScanCmdOptions(c)
		return nil
	}
	if err := cmd.Run(context.Background(), append([]string{"scan"}, args...)); err != nil {
		t.Fatalf("failed to run command: %v", err)
	}
	return opts, parseErr
}

func TestParseScanCmdOptions(t *testing.T) {
	tests := []struct {
		name    string
		args    []string
		wantErr bool
		check   func(t *testing.T, opts *scanCmdOptions)
	}{
		{
			name: "core and contrib repos",
			args: []string{"--core-repo", "/tmp/core", "--contrib-repo", "/tmp/contrib"},
			check: func(t *testing.T, opts *scanCmdOptions) {
				if opts.repos["core"] != "/tmp/core" || opts.repos["contrib"] != "/tmp/contrib" {
					t.Errorf("repos = %v", opts.repos)
				}
				if opts.mode != modeNightly {
					t.Errorf("mode = %q, want nightly default", opts.mode)
				}
			},
		},
		{
			name: "extra distribution repo",
			args: []string{"--core-repo", "/tmp/core", "--repo", "k8s=/tmp/k8s"},
			check: func(t *testing.T, opts *scanCmdOptions) {
				if opts.repos["k8s"] != "/tmp/k8s" {
					t.Errorf("repos = %v", opts.repos)
				}
			},
		},
		{
			name: "explicit version",
			args: []string{"--core-repo", "/tmp/core", "--version", "v0.112.0"},
			check: func(t *testing.T, opts *scanCmdOptions) {
				if opts.version == nil || !opts.version.Equals(version.MustParse("0.112.0")) {
					t.Errorf("version = %v", opts.version)
				}
			},
		},
		{
			name:    "no repos",
			args:    []string{},
			wantErr: true,
		},
		{
			name:    "malformed repo spec",
			args:    []string{"--repo", "k8s:/tmp/k8s"},
			wantErr: true,
		},
		{
			name:    "invalid mode",
			args:    []string{"--core-repo", "/tmp/core", "--mode", "hourly"},
			wantErr: true,
		},
		{
			name:    "invalid version",
			args:    []string{"--core-repo", "/tmp/core", "--version", "1.2"},
			wantErr: true,
		},
		{
			name:    "merged without version",
			args:    []string{"--core-repo", "/tmp/core", "--merged"},
			wantErr: true,
		},
		{
			name:    "force without version",
			args:    []string{"--core-repo", "/tmp/core", "--force"},
			wantErr: true,
		},
		{
			name:    "invalid format",
			args:    []string{"--core-repo", "/tmp/core", "--format", "xml"},
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			opts, err := runParseScan(t, tt.args...)
			if (err != nil) != tt.wantErr {
				t.Fatalf("parseScanCmdOptions() error = %v, wantErr %v", err, tt.wantErr)
			}
			if tt.check != nil {
				tt.check(t, opts)
			}
		})
	}
}

func TestScanCmdEndToEnd(t *testing.T) {
	repo := t.TempDir()
	dir := filepath.Join(repo, "receiver", "otlpreceiver")
	if err := os.MkdirAll(dir, 0o755); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(filepath.Join(dir, "go.mod"), []byte("module example\n"), 0o644); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(filepath.Join(dir, "metadata.yaml"), []byte(`
type: otlp
status:
  class: receiver
  stability:
    beta: [traces]
`), 0o644); err != nil {
		t.Fatal(err)
	}

	inventoryDir := filepath.Join(t.TempDir(), "collector-metadata")
	outPath := filepath.Join(t.TempDir(), "summary.yaml")

	err := scanCmd().Run(context.Background(), []string{
		"scan",
		"--core-repo", repo,
		"--version", "v0.112.0",
		"--no-checkout",
		"--inventory-dir", inventoryDir,
		"--output", outPath,
	})
	if err != nil {
		t.Fatalf("scan command failed: %v", err)
	}

	store := inventory.NewStore(inventoryDir)
	inv, err := store.Load("core", version.MustParse("0.112.0"))
	if err != nil {
		t.Fatalf("published inventory not loadable: %v", err)
	}
	if inv.Total() != 1 {
		t.Errorf("Total() = %d, want 1", inv.Total())
	}

	data, err := os.ReadFile(outPath)
	if err != nil {
		t.Fatal(err)
	}
	var summary watcher.Summary
	if err := yaml.Unmarshal(data, &summary); err != nil {
		t.Fatalf("summary output is not valid YAML: %v", err)
	}
	if len(summary.NewReleases) != 1 {
		t.Errorf("NewReleases = %v, want one entry", summary.NewReleases)
	}
}

func TestChangelogCmdEndToEnd(t *testing.T) {
	inventoryDir := filepath.Join(t.TempDir(), "collector-metadata")
	store := inventory.NewStore(inventoryDir)

	record := component.Record{
		Name:          "otlpreceiver",
		Type:          "otlp",
		Class:         component.TypeReceiver,
		Distributions: []string{"core"},
		Stability:     map[string]component.StabilityLevel{"traces": component.StabilityAlpha},
	}

	oldInv := inventory.New("core", version.MustParse("0.111.0"), "opentelemetry-collector")
	oldInv.Components[component.TypeReceiver] = []component.Record{record}
	if _, err := store.Write(oldInv); err != nil {
		t.Fatal(err)
	}

	promoted := record.Clone()
	promoted.Stability["traces"] = component.StabilityBeta
	newInv := inventory.New("core", version.MustParse("0.112.0"), "opentelemetry-collector")
	newInv.Components[component.TypeReceiver] = []component.Record{promoted}
	if _, err := store.Write(newInv); err != nil {
		t.Fatal(err)
	}

	outPath := filepath.Join(t.TempDir(), "changes.yaml")
	err := changelogCmd().Run(context.Background(), []string{
		"changelog",
		"--distribution", "core",
		"--old", "v0.111.0",
		"--new", "v0.112.0",
		"--inventory-dir", inventoryDir,
		"--output", outPath,
	})
	if err != nil {
		t.Fatalf("changelog command failed: %v", err)
	}

	data, err := os.ReadFile(outPath)
	if err != nil {
		t.Fatal(err)
	}
	var report watcher.ChangelogReport
	if err := yaml.Unmarshal(data, &report); err != nil {
		t.Fatalf("report output is not valid YAML: %v", err)
	}
	if len(report.Notices) != 0 {
		t.Errorf("unexpected notices: %v", report.Notices)
	}
	changes, ok := report.Changes[component.TypeReceiver]
	if !ok {
		t.Fatalf("no receiver changes in report: %+v", report)
	}
	if _, ok := changes.StabilityChanges["otlpreceiver"]; !ok {
		t.Errorf("expected stability change for otlpreceiver, got %+v", changes)
	}
}
