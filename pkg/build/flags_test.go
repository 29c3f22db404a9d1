// SPDX-License-Identifier: MIT
package build

import (
	"strings"
	"testing"
)

func setFlags(t *testing.T, name, time, commit, version string) {
	t.Helper()
	origName, origTime, origCommit, origVersion := buildName, buildTime, buildCommit, buildVersion
	origInfo := buildInfo
	t.Cleanup(func() {
		buildName, buildTime, buildCommit, buildVersion = origName, origTime, origCommit, origVersion
		buildInfo = origInfo
	})
	buildName, buildTime, buildCommit, buildVersion = name, time, commit, version
	buildInfo = defaultInfo()
}

func TestInitialize(t *testing.T) {
	tests := []struct {
		name        string
		buildName   string
		buildTime   string
		buildCommit string
		buildVer    string
		wantErr     string
		wantName    string
		wantVersion string
	}{
		{"Missing BuildName", "", "2025-04-13", "abcdef123", "v1.0.0", "BuildName not set", "noiseless", "v1.0.0"},
		{"Missing BuildTime", "testapp", "", "abcdef123", "v1.0.0", "BuildTime not set", "testapp", "v1.0.0"},
		{"Missing BuildCommit", "testapp", "2025-04-13", "", "v1.0.0", "BuildCommit not set", "testapp", "v1.0.0"},
		{"Missing BuildVersion", "testapp", "2025-04-13", "abcdef123", "", "BuildVersion not set", "testapp", "dev"},
		{"Missing all", "", "", "", "", "BuildName, BuildTime, BuildCommit, BuildVersion", "noiseless", "dev"},
		{"Success Case", "testapp", "2025-04-13", "abcdef123", "v1.0.0", "", "testapp", "v1.0.0"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			setFlags(t, tt.buildName, tt.buildTime, tt.buildCommit, tt.buildVer)

			err := Initialize()
			if tt.wantErr == "" && err != nil {
				t.Errorf("Initialize() unexpected error: %v", err)
			}
			if tt.wantErr != "" && (err == nil || !strings.Contains(err.Error(), tt.wantErr)) {
				t.Errorf("Initialize() error = %v, want %q", err, tt.wantErr)
			}

			info := GetBuildInfo()
			if info.Name != tt.wantName || info.Version != tt.wantVersion {
				t.Errorf("info = %+v, want name %q version %q", info, tt.wantName, tt.wantVersion)
			}
		})
	}
}

func TestInfoString(t *testing.T) {
	info := Info{Name: "noiseless", Version: "v1.0.0", Commit: "abc", Time: "today"}
	if got, want := info.String(), "noiseless v1.0.0 (commit abc, built today)"; got != want {
		t.Errorf("String() = %q, want %q", got, want)
	}
}
