// SPDX-License-Identifier: MIT
//
// Package build exposes metadata embedded with linker flags:
//
//	go build -ldflags "-X noiseless/pkg/build.buildVersion=0.3.0 -X noiseless/pkg/build.buildCommit=$(git rev-parse --short HEAD) ..."
//
// Development builds run with the defaults below.
package build

import (
	"fmt"
	"strings"
)

// Info describes the running binary.
type Info struct {
	Name        string
	Description string
	Time        string
	Commit      string
	Version     string
}

// String renders the version line printed by --version.
func (i Info) String() string {
	return fmt.Sprintf("%s %s (commit %s, built %s)", i.Name, i.Version, i.Commit, i.Time)
}

// Populated by -ldflags.
var (
	buildName    string
	buildTime    string
	buildCommit  string
	buildVersion string
)

var buildInfo = defaultInfo()

func defaultInfo() *Info {
	return &Info{
		Name:        "noiseless",
		Description: "Offline speech denoiser: spectral gating plus a gate, compressor, low shelf and makeup gain",
		Time:        "unknown",
		Commit:      "unknown",
		Version:     "dev",
	}
}

// Initialize copies the linker flags into the build info. Flags that were
// not set keep their development defaults and are reported in the error,
// which callers may treat as a warning.
func Initialize() error {
	var missing []string
	set := func(dst *string, val, name string) {
		if val == "" {
			missing = append(missing, name)
			return
		}
		*dst = val
	}
	set(&buildInfo.Name, buildName, "BuildName")
	set(&buildInfo.Time, buildTime, "BuildTime")
	set(&buildInfo.Commit, buildCommit, "BuildCommit")
	set(&buildInfo.Version, buildVersion, "BuildVersion")

	if len(missing) > 0 {
		return fmt.Errorf("%s not set, using development defaults", strings.Join(missing, ", "))
	}
	return nil
}

// GetBuildInfo returns the current build information.
func GetBuildInfo() *Info {
	return buildInfo
}
