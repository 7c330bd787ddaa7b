package analysis

import (
	"strconv"
	"strings"
)

// VersionMatchKind describes how a threat version matched an asset version.
type VersionMatchKind int

const (
	// VersionMatchExact means both versions parsed and compared equal.
	VersionMatchExact VersionMatchKind = iota
	// VersionMatchRange means the asset version satisfied a wildcard or
	// comparator expression on the threat side.
	VersionMatchRange
	// VersionMatchMajor means only the leading (major) component matched.
	VersionMatchMajor
	// VersionMatchNone means no version comparison was possible; the
	// threat carries no version and is read as "affects all versions".
	VersionMatchNone
)

func (k VersionMatchKind) String() string {
	switch k {
	case VersionMatchExact:
		return "exact"
	case VersionMatchRange:
		return "range"
	case VersionMatchMajor:
		return "major"
	case VersionMatchNone:
		return "no_version"
	}
	return "invalid"
}

// VersionMatch is the outcome of comparing a threat version expression
// against an asset's inventoried version.
type VersionMatch struct {
	Matched bool
	Kind    VersionMatchKind
}

// Version is a parsed dotted version as an integer tuple.
type Version []int

// VersionMatcher parses and compares version strings under exact, range,
// major-version and comparator semantics. Stateless and concurrency-safe.
type VersionMatcher struct{}

// NewVersionMatcher creates a version matcher instance.
func NewVersionMatcher() *VersionMatcher {
	return &VersionMatcher{}
}

// Parse converts a version string into an integer tuple. Leading "v" or
// "version" tokens and trailing pre-release suffixes ("-beta", "-rc1") are
// stripped. A bare four-digit year parses as a single-component tuple.
// Returns nil for anything non-numeric after stripping.
func (vm *VersionMatcher) Parse(version string) Version {
	s := strings.ToLower(strings.TrimSpace(version))
	if s == "" {
		return nil
	}

	s = strings.TrimPrefix(s, "version")
	s = strings.TrimSpace(s)
	if strings.HasPrefix(s, "v") && len(s) > 1 && s[1] >= '0' && s[1] <= '9' {
		s = s[1:]
	}

	// Drop pre-release suffixes: "7.0.1-rc1" -> "7.0.1".
	if idx := strings.IndexAny(s, "-+"); idx >= 0 {
		s = s[:idx]
	}

	parts := strings.Split(s, ".")
	parsed := make(Version, 0, len(parts))
	for _, p := range parts {
		n, err := strconv.Atoi(strings.TrimSpace(p))
		if err != nil || n < 0 {
			return nil
		}
		parsed = append(parsed, n)
	}
	return parsed
}

// ExactMatch compares a threat version against an asset version.
// An absent threat version is read as "affects all versions"; an absent
// asset version with a concrete threat version is a no-match, since the
// asset gives no evidence it runs the affected release.
func (vm *VersionMatcher) ExactMatch(threatVersion, assetVersion string) VersionMatch {
	if strings.TrimSpace(threatVersion) == "" {
		return VersionMatch{Matched: true, Kind: VersionMatchNone}
	}

	// A non-empty threat version that does not parse as a plain tuple may
	// still be a range/comparator expression; it is not exact-comparable.
	tv := vm.Parse(threatVersion)
	av := vm.Parse(assetVersion)
	if tv == nil || av == nil {
		return VersionMatch{}
	}

	return VersionMatch{Matched: compareVersions(tv, av) == 0, Kind: VersionMatchExact}
}

// RangeMatch evaluates wildcard ("7.0.x"), bare-major ("7") and comparator
// (">= 7.0") forms of the threat version against the asset version.
func (vm *VersionMatcher) RangeMatch(threatVersion, assetVersion string) VersionMatch {
	expr := strings.TrimSpace(threatVersion)
	av := vm.Parse(assetVersion)
	if expr == "" || av == nil {
		return VersionMatch{}
	}

	// Comparator forms: ">= 6.5", "<= 7", "> 1.2.3", "< 2".
	for _, op := range []string{">=", "<=", ">", "<"} {
		if strings.HasPrefix(expr, op) {
			baseline := vm.Parse(strings.TrimSpace(strings.TrimPrefix(expr, op)))
			if baseline == nil {
				return VersionMatch{}
			}
			cmp := compareVersions(av, baseline)
			ok := false
			switch op {
			case ">=":
				ok = cmp >= 0
			case "<=":
				ok = cmp <= 0
			case ">":
				ok = cmp > 0
			case "<":
				ok = cmp < 0
			}
			return VersionMatch{Matched: ok, Kind: VersionMatchRange}
		}
	}

	// Wildcard form: "7.0.x" or "7.0.*" matches any asset 7.0.*.
	lower := strings.ToLower(expr)
	if strings.HasSuffix(lower, ".x") || strings.HasSuffix(lower, ".*") {
		prefix := vm.Parse(lower[:len(lower)-2])
		if prefix == nil {
			return VersionMatch{}
		}
		if len(av) < len(prefix) {
			return VersionMatch{Kind: VersionMatchRange}
		}
		for i, c := range prefix {
			if av[i] != c {
				return VersionMatch{Kind: VersionMatchRange}
			}
		}
		return VersionMatch{Matched: true, Kind: VersionMatchRange}
	}

	// Bare major form: "7" matches any asset whose leading component is 7.
	if tv := vm.Parse(expr); tv != nil && len(tv) == 1 {
		return VersionMatch{Matched: len(av) > 0 && av[0] == tv[0], Kind: VersionMatchMajor}
	}

	return VersionMatch{}
}

// Match tries exact semantics first, then range semantics when allowed.
func (vm *VersionMatcher) Match(threatVersion, assetVersion string, allowRange bool) VersionMatch {
	if res := vm.ExactMatch(threatVersion, assetVersion); res.Matched {
		return res
	}
	if !allowRange {
		return VersionMatch{}
	}
	return vm.RangeMatch(threatVersion, assetVersion)
}

// compareVersions orders two tuples lexicographically. A missing trailing
// component compares smaller, so (7,0) < (7,0,1).
func compareVersions(a, b Version) int {
	n := len(a)
	if len(b) > n {
		n = len(b)
	}
	for i := 0; i < n; i++ {
		var ca, cb int
		if i < len(a) {
			ca = a[i]
		} else {
			ca = -1
		}
		if i < len(b) {
			cb = b[i]
		} else {
			cb = -1
		}
		if ca != cb {
			if ca < cb {
				return -1
			}
			return 1
		}
	}
	return 0
}
