package version

import (
	"strings"
	"testing"
)

func saveAndRestore() func() {
	origVersion, origCommit, origBuildTime := Version, GitCommit, BuildTime
	return func() {
		Version = origVersion
		GitCommit = origCommit
		BuildTime = origBuildTime
	}
}

func TestGetDefaults(t *testing.T) {
	defer saveAndRestore()()
	Version, GitCommit, BuildTime = "dev", "", ""

	info := Get()
	if info.Version != "dev" {
		t.Errorf("expected version 'dev', got %q", info.Version)
	}
	if info.IsRelease {
		t.Error("dev should not be a release")
	}
	if info.BuildTime == "" {
		t.Error("BuildTime should be filled in")
	}
}

func TestGetRelease(t *testing.T) {
	defer saveAndRestore()()
	Version, GitCommit, BuildTime = "1.2.0", "abcdef1", "2026-01-01T00:00:00Z"

	info := Get()
	if !info.IsRelease {
		t.Error("tagged version should be a release")
	}
	if info.GitCommit != "abcdef1" {
		t.Errorf("expected ldflags commit to win, got %q", info.GitCommit)
	}
}

func TestShort(t *testing.T) {
	defer saveAndRestore()()
	Version, GitCommit, BuildTime = "1.2.0", "abcdef1", ""

	short := Short()
	if !strings.HasPrefix(short, "1.2.0-abcdef1") {
		t.Errorf("unexpected short version %q", short)
	}
}
