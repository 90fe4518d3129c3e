// Package firmware exposes the version-bucketed capability profiles that
// constrain which filter strategies are valid to recommend for a target.
//
// The table is data-driven: an ordered list of (versionFloor, profile) pairs
// selected by first-match-below, so policy changes live in profiles.yaml
// rather than in scattered conditionals.
package firmware

import (
	_ "embed"
	"fmt"
	"sort"
	"strconv"
	"strings"
	"sync"

	"gopkg.in/yaml.v3"
)

//go:embed profiles.yaml
var profilesYAML []byte

// Profile describes the filter capabilities of one firmware version bucket.
type Profile struct {
	VersionFloor string `yaml:"versionFloor"`

	MaxNotchQ          float64 `yaml:"maxNotchQ"`
	DefaultDTermCutoff float64 `yaml:"defaultDTermCutoff"`
	DefaultGyroCutoff  float64 `yaml:"defaultGyroCutoff"`

	SupportsDynamicLowpass bool `yaml:"supportsDynamicLowpass"`
	SupportsImprovedNotch  bool `yaml:"supportsImprovedNotch"`
	SupportsBiquadDTerm    bool `yaml:"supportsBiquadDTerm"`
}

// Table is an immutable, ascending list of version-bucketed profiles.
type Table struct {
	entries []Profile
}

type tableFile struct {
	Profiles []Profile `yaml:"profiles"`
}

// ParseTable decodes a YAML profile table and sorts it by ascending version
// floor. At least one entry is required and every floor must parse.
func ParseTable(data []byte) (*Table, error) {
	var f tableFile
	if err := yaml.Unmarshal(data, &f); err != nil {
		return nil, fmt.Errorf("firmware: decoding profile table: %w", err)
	}

	if len(f.Profiles) == 0 {
		return nil, fmt.Errorf("firmware: profile table is empty")
	}

	for _, p := range f.Profiles {
		if _, ok := parseVersion(p.VersionFloor); !ok {
			return nil, fmt.Errorf("firmware: invalid version floor %q", p.VersionFloor)
		}
	}

	entries := append([]Profile(nil), f.Profiles...)
	sort.SliceStable(entries, func(i, j int) bool {
		vi, _ := parseVersion(entries[i].VersionFloor)
		vj, _ := parseVersion(entries[j].VersionFloor)

		return vi < vj
	})

	return &Table{entries: entries}, nil
}

var (
	defaultTable     *Table
	defaultTableOnce sync.Once
)

// DefaultTable returns the embedded profile table.
func DefaultTable() *Table {
	defaultTableOnce.Do(func() {
		t, err := ParseTable(profilesYAML)
		if err != nil {
			// The embedded table is validated by tests; a decode failure
			// here is a build defect.
			panic(err)
		}

		defaultTable = t
	})

	return defaultTable
}

// Select resolves a free-form firmware version string to the profile of the
// highest bucket whose floor does not exceed it. Versions below the lowest
// floor, and unparseable versions, fall back to the lowest bucket; versions
// above the highest floor use the highest bucket.
func (t *Table) Select(version string) Profile {
	selected := t.entries[0]

	v, ok := parseVersion(version)
	if !ok {
		return selected
	}

	for _, p := range t.entries {
		floor, _ := parseVersion(p.VersionFloor)
		if v >= floor {
			selected = p
		}
	}

	return selected
}

// Profiles returns the ordered bucket list.
func (t *Table) Profiles() []Profile {
	return append([]Profile(nil), t.entries...)
}

// parseVersion extracts major.minor from a free-form version string such as
// "4.4", "4.4.2" or "BTFL 4.3.1" and encodes it as a single comparable value.
func parseVersion(s string) (int, bool) {
	s = strings.TrimSpace(s)

	start := strings.IndexFunc(s, func(r rune) bool { return r >= '0' && r <= '9' })
	if start < 0 {
		return 0, false
	}

	parts := strings.Split(s[start:], ".")

	major, err := strconv.Atoi(parts[0])
	if err != nil || major < 0 {
		return 0, false
	}

	minor := 0
	if len(parts) > 1 {
		// Trailing non-digits (e.g. "4.3-rc1") are cut off.
		digits := parts[1]
		if i := strings.IndexFunc(digits, func(r rune) bool { return r < '0' || r > '9' }); i >= 0 {
			digits = digits[:i]
		}

		if digits != "" {
			if minor, err = strconv.Atoi(digits); err != nil {
				return 0, false
			}
		}
	}

	return major*1000 + minor, true
}
