// Copyright (C) 2019-2024, Ava Labs, Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package version

import (
	"fmt"

	"github.com/Juneo-io/epochminter/utils/constants"
)

const Client = constants.AppName

// These are globals that describe the client and on-disk state versions
var (
	Current = &Semantic{
		Major: 1,
		Minor: 0,
		Patch: 0,
	}

	// CurrentDatabase is bumped whenever the persisted distributor state
	// layout changes.
	CurrentDatabase = DatabaseVersion1_0_0

	DatabaseVersion1_0_0 = &Semantic{
		Major: 1,
		Minor: 0,
		Patch: 0,
	}

	// GitCommit is set at build time via -ldflags.
	GitCommit string
)

// Semantic is a semantic version.
type Semantic struct {
	Major int `json:"major" yaml:"major"`
	Minor int `json:"minor" yaml:"minor"`
	Patch int `json:"patch" yaml:"patch"`
}

func (s *Semantic) String() string {
	return fmt.Sprintf("v%d.%d.%d", s.Major, s.Minor, s.Patch)
}

// Compare returns a negative number, zero or a positive number when [s] is
// respectively lower, equal or greater than [o].
func (s *Semantic) Compare(o *Semantic) int {
	switch {
	case s.Major != o.Major:
		return s.Major - o.Major
	case s.Minor != o.Minor:
		return s.Minor - o.Minor
	default:
		return s.Patch - o.Patch
	}
}

// Application returns the client name combined with the current version.
func Application() string {
	if GitCommit == "" {
		return fmt.Sprintf("%s/%s", Client, Current)
	}
	return fmt.Sprintf("%s/%s (%s)", Client, Current, GitCommit)
}
