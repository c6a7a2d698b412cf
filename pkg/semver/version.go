// Package semver selects catalog versions by range: empty (latest stable), major-only ("1"), exact
// ("1.2.0") or a SemVer constraint ("^1.2", ">=1.0.0 <2.0.0").
package semver

import (
	"errors"
	"fmt"
	"log/slog"
	"regexp"
	"sort"
	"strconv"

	masterminds "github.com/Masterminds/semver/v3"
)

const logPrefix = "semver:version"

// ErrNoMatch is returned when no candidate satisfies a range.
var ErrNoMatch = errors.New("no version satisfies range")

var (
	majorOnlyRegex    = regexp.MustCompile(`^\d+$`)
	exactVersionRegex = regexp.MustCompile(`^\d+\.\d+\.\d+(-[\w.]+)?(\+[\w.]+)?$`)
)

// Candidate is one available version and where it came from.
type Candidate struct {
	Version string
	Source  string
}

// IsMajorOnly checks if a range is a major-only specifier (e.g., "3").
func IsMajorOnly(rangeStr string) bool {
	return majorOnlyRegex.MatchString(rangeStr)
}

// IsExactVersion checks if a range is an exact version (e.g., "3.2.1").
func IsExactVersion(rangeStr string) bool {
	return exactVersionRegex.MatchString(rangeStr)
}

// ValidateRange reports whether rangeStr can be used with SatisfiesRange or Select.
func ValidateRange(rangeStr string) error {
	if rangeStr == "" || IsMajorOnly(rangeStr) || IsExactVersion(rangeStr) {
		return nil
	}
	if _, err := masterminds.NewConstraint(rangeStr); err != nil {
		return fmt.Errorf("%s - invalid version range %q: %w", logPrefix, rangeStr, err)
	}
	return nil
}

// SatisfiesRange checks if a version satisfies a range. An empty range accepts any valid version.
func SatisfiesRange(version, rangeStr string) bool {
	sv, err := masterminds.NewVersion(version)
	if err != nil {
		return false
	}
	return matches(sv, rangeStr)
}

func matches(sv *masterminds.Version, rangeStr string) bool {
	switch {
	case rangeStr == "":
		return true
	case IsMajorOnly(rangeStr):
		major, err := strconv.ParseUint(rangeStr, 10, 64)
		return err == nil && sv.Major() == major
	case IsExactVersion(rangeStr):
		want, err := masterminds.NewVersion(rangeStr)
		return err == nil && sv.Equal(want)
	}
	constraint, err := masterminds.NewConstraint(rangeStr)
	if err != nil {
		return false
	}
	return constraint.Check(sv)
}

// Select picks the highest candidate satisfying rangeStr, preferring stable releases over
// prereleases unless only prereleases match. Candidates with unparseable versions are skipped.
func Select(candidates []Candidate, rangeStr string) (*Candidate, error) {
	if err := ValidateRange(rangeStr); err != nil {
		return nil, err
	}

	type parsed struct {
		c Candidate
		v *masterminds.Version
	}
	var stable, pre []parsed
	for _, c := range candidates {
		sv, err := masterminds.NewVersion(c.Version)
		if err != nil {
			slog.Warn(fmt.Sprintf("%s - skipping %s: invalid version %q", logPrefix, c.Source, c.Version))
			continue
		}
		if !matches(sv, rangeStr) {
			continue
		}
		if sv.Prerelease() == "" {
			stable = append(stable, parsed{c, sv})
		} else {
			pre = append(pre, parsed{c, sv})
		}
	}

	pool := stable
	if len(pool) == 0 {
		pool = pre
	}
	if len(pool) == 0 {
		return nil, fmt.Errorf("%s - %w %q", logPrefix, ErrNoMatch, rangeStr)
	}
	sort.SliceStable(pool, func(i, j int) bool { return pool[i].v.GreaterThan(pool[j].v) })

	best := pool[0].c
	return &best, nil
}
