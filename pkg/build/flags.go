// SPDX-License-Identifier: MIT
//
// Package build exposes metadata stamped into the binary at compile time
// via -ldflags. Without ldflags the values fall back to development
// defaults, so a plain `go build` still produces a usable binary.
package build

import "fmt"

// Populated by -ldflags, e.g.
//
//	go build -ldflags "-X spectra/pkg/build.version=v1.2.0 \
//	    -X spectra/pkg/build.commit=$(git rev-parse --short HEAD) \
//	    -X spectra/pkg/build.time=$(date -u +%Y-%m-%dT%H:%M:%SZ)"
var (
	name    = "spectra"
	version = "dev"
	commit  = "unknown"
	time    = "unknown"
)

// Info describes the running binary.
type Info struct {
	Name    string
	Version string
	Commit  string
	Time    string
}

// GetInfo returns the binary's build metadata.
func GetInfo() Info {
	return Info{
		Name:    name,
		Version: version,
		Commit:  commit,
		Time:    time,
	}
}

// String formats the info for --version output.
func (i Info) String() string {
	return fmt.Sprintf("%s %s (commit %s, built %s)", i.Name, i.Version, i.Commit, i.Time)
}
