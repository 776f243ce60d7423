package version

import (
	"context"
	"os/exec"
	"path/filepath"
	"testing"
)

// gitRun executes a git command inside dir, failing the test on error.
func gitRun(t *testing.T, dir string, args ...string) {
	t.Helper()
	cmd := exec.Command("git", append([]string{"-C", dir}, args...)...)
	if out, err := cmd.CombinedOutput(); err != nil {
		t.Fatalf("git %v failed: %v\n%s", args, err, out)
	}
}

// initTestRepo creates a git repository with the given tags, each on its
// own commit, with HEAD left at the last tagged commit. Tests are skipped
// when git is not installed.
func initTestRepo(t *testing.T, tags ...string) string {
	t.Helper()

	if _, err := exec.LookPath("git"); err != nil {
		t.Skip("git not found in PATH")
	}

	dir := t.TempDir()
	gitRun(t, dir, "init", "-b", "main")
	gitRun(t, dir, "config", "user.email", "test@example.com")
	gitRun(t, dir, "config", "user.name", "test")
	gitRun(t, dir, "commit", "--allow-empty", "-m", "initial")

	for _, tag := range tags {
		gitRun(t, dir, "commit", "--allow-empty", "-m", "release "+tag)
		gitRun(t, dir, "tag", tag)
	}

	return dir
}

func TestNewDetector(t *testing.T) {
	if _, err := NewDetector(filepath.Join(t.TempDir(), "missing")); err == nil {
		t.Error("expected error for missing path")
	}

	if _, err := NewDetector(t.TempDir()); err != nil {
		t.Errorf("unexpected error for existing dir: %v", err)
	}
}

func TestDetectorReleases(t *testing.T) {
	dir := initTestRepo(t, "v0.110.0", "v0.112.0", "v0.111.0", "not-a-version", "v0.112.0-rc1")

	d, err := NewDetector(dir)
	if err != nil {
		t.Fatal(err)
	}

	releases, err := d.Releases(context.Background())
	if err != nil {
		t.Fatalf("Releases() error: %v", err)
	}

	expected := []string{"v0.112.0", "v0.111.0", "v0.110.0"}
	if len(releases) != len(expected) {
		t.Fatalf("Releases() returned %d versions, want %d", len(releases), len(expected))
	}
	for i, want := range expected {
		if releases[i].String() != want {
			t.Errorf("Releases()[%d] = %s, want %s", i, releases[i], want)
		}
	}
}

func TestDetectorNoTags(t *testing.T) {
	dir := initTestRepo(t)

	d, err := NewDetector(dir)
	if err != nil {
		t.Fatal(err)
	}

	if _, err := d.Releases(context.Background()); err == nil {
		t.Error("expected VERSION_DETECTION error for repo without tags")
	}
}

func TestDetectorVersionsSynthesizesSnapshot(t *testing.T) {
	dir := initTestRepo(t, "v0.112.0")
	// Move HEAD past the latest release tag.
	gitRun(t, dir, "commit", "--allow-empty", "-m", "work in progress")

	d, err := NewDetector(dir)
	if err != nil {
		t.Fatal(err)
	}

	versions, err := d.Versions(context.Background())
	if err != nil {
		t.Fatalf("Versions() error: %v", err)
	}

	if versions[0].String() != "v0.113.0-SNAPSHOT" {
		t.Errorf("Versions()[0] = %s, want v0.113.0-SNAPSHOT", versions[0])
	}

	snapshots := 0
	for _, v := range versions {
		if v.Snapshot {
			snapshots++
		}
	}
	if snapshots != 1 {
		t.Errorf("expected exactly one snapshot identifier, got %d", snapshots)
	}
}

func TestDetectorVersionsNoSnapshotAtTag(t *testing.T) {
	// HEAD sits exactly on the latest release tag.
	dir := initTestRepo(t, "v0.112.0")

	d, err := NewDetector(dir)
	if err != nil {
		t.Fatal(err)
	}

	versions, err := d.Versions(context.Background())
	if err != nil {
		t.Fatalf("Versions() error: %v", err)
	}
	for _, v := range versions {
		if v.Snapshot {
			t.Errorf("unexpected snapshot identifier %s", v)
		}
	}
}

func TestDetectorNextSnapshot(t *testing.T) {
	dir := initTestRepo(t, "v0.112.1")

	d, err := NewDetector(dir)
	if err != nil {
		t.Fatal(err)
	}

	next, err := d.NextSnapshot(context.Background())
	if err != nil {
		t.Fatalf("NextSnapshot() error: %v", err)
	}
	if next.String() != "v0.113.0-SNAPSHOT" {
		t.Errorf("NextSnapshot() = %s, want v0.113.0-SNAPSHOT", next)
	}
}

func TestDetectorNextSnapshotNoReleases(t *testing.T) {
	dir := initTestRepo(t)

	d, err := NewDetector(dir)
	if err != nil {
		t.Fatal(err)
	}

	next, err := d.NextSnapshot(context.Background())
	if err != nil {
		t.Fatalf("NextSnapshot() error: %v", err)
	}
	if next.String() != "v0.0.1-SNAPSHOT" {
		t.Errorf("NextSnapshot() = %s, want v0.0.1-SNAPSHOT", next)
	}
}
