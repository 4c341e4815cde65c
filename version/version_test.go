package version

import (
	"runtime/debug"
	"strings"
	"testing"
)

func setVars(t *testing.T, version, commit, branch, buildTime string) {
	t.Helper()
	origVersion, origCommit, origBranch, origBuildTime := Version, GitCommit, GitBranch, BuildTime
	t.Cleanup(func() {
		Version, GitCommit, GitBranch, BuildTime = origVersion, origCommit, origBranch, origBuildTime
	})
	Version, GitCommit, GitBranch, BuildTime = version, commit, branch, buildTime
}

func TestGetVersionInfo(t *testing.T) {
	tests := []struct {
		name        string
		version     string
		buildTime   string
		wantRelease bool
		wantYear    int
	}{
		{"dev", "dev", "", false, 0},
		{"release", "1.0.0", "2024-01-15T10:30:00Z", true, 2024},
		{"dirty", "1.0.0-dirty", "", false, 0},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			setVars(t, tc.version, "abc1234", "main", tc.buildTime)
			info := GetVersionInfo()
			if info.Version != tc.version {
				t.Errorf("version = %q", info.Version)
			}
			if info.IsRelease != tc.wantRelease {
				t.Errorf("release = %v, want %v", info.IsRelease, tc.wantRelease)
			}
			if info.GitCommit != "abc1234" {
				t.Errorf("commit = %q", info.GitCommit)
			}
			if tc.wantYear != 0 && info.BuildDate.Year() != tc.wantYear {
				t.Errorf("build year = %d", info.BuildDate.Year())
			}
			if !strings.HasPrefix(info.GoVersion, "go") {
				t.Errorf("go version = %q", info.GoVersion)
			}
		})
	}
}

func TestApplyBuildSettings(t *testing.T) {
	info := &Info{Version: "dev"}
	info.applyBuildSettings([]debug.BuildSetting{
		{Key: "vcs.revision", Value: "0123456789abcdef"},
		{Key: "vcs.modified", Value: "true"},
		{Key: "vcs.time", Value: "2025-06-01T00:00:00Z"},
	})
	if info.GitCommit != "0123456" || !info.IsDirty || info.BuildTime != "2025-06-01T00:00:00Z" {
		t.Errorf("info = %+v", info)
	}

	pinned := &Info{GitCommit: "fixed"}
	pinned.applyBuildSettings([]debug.BuildSetting{{Key: "vcs.revision", Value: "other"}})
	if pinned.GitCommit != "fixed" {
		t.Errorf("link-time commit overridden: %q", pinned.GitCommit)
	}
}

func TestShortAndString(t *testing.T) {
	tests := []struct {
		name      string
		info      Info
		wantShort string
		contains  []string
		excludes  []string
	}{
		{
			name:      "dev",
			info:      Info{Version: "dev", GoVersion: "go1.26"},
			wantShort: "dev",
			contains:  []string{"dev go1.26"},
		},
		{
			name:      "commit on main",
			info:      Info{Version: "1.0.0", GitCommit: "abc1234", GitBranch: "main", GoVersion: "go1.26"},
			wantShort: "1.0.0-abc1234",
			excludes:  []string{"main"},
		},
		{
			name:      "dirty feature branch",
			info:      Info{Version: "1.0.0", GitCommit: "abc1234", GitBranch: "feature/x", IsDirty: true, GoVersion: "go1.26"},
			wantShort: "1.0.0-abc1234-dirty",
			contains:  []string{"(feature/x)"},
		},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			if got := tc.info.Short(); got != tc.wantShort {
				t.Errorf("Short() = %q, want %q", got, tc.wantShort)
			}
			s := tc.info.String()
			for _, c := range tc.contains {
				if !strings.Contains(s, c) {
					t.Errorf("String() = %q, missing %q", s, c)
				}
			}
			for _, e := range tc.excludes {
				if strings.Contains(s, e) {
					t.Errorf("String() = %q, should not contain %q", s, e)
				}
			}
		})
	}
}
