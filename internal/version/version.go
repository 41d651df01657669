// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

// Package version carries build metadata set through -ldflags, e.g.
//
//	go build -ldflags "-X github.com/olegiv/menu-cleaner/internal/version.Version=v0.3.0"
package version

import "fmt"

// Set at build time.
var (
	Version   = "dev"
	GitCommit = ""
	BuildTime = ""
)

// Info is a snapshot of the build metadata.
type Info struct {
	Version   string `json:"version"`
	GitCommit string `json:"git_commit,omitempty"`
	BuildTime string `json:"build_time,omitempty"`
}

// Current returns the metadata of the running binary.
func Current() Info {
	return Info{Version: Version, GitCommit: GitCommit, BuildTime: BuildTime}
}

// String formats the info for -version output.
func (i Info) String() string {
	v := i.Version
	if v == "" {
		v = "dev"
	}
	if i.GitCommit != "" {
		v = fmt.Sprintf("%s (%s)", v, i.GitCommit)
	}
	if i.BuildTime != "" {
		v += " built " + i.BuildTime
	}
	return v
}
