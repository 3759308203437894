package deps

import (
	"strconv"
	"strings"
)

// Version is a parsed dotted numeric version.
//
// Only numeric components survive parsing; "2.0.0rc1" parses as [2 0].
// The zero value is an empty version, which compares equal to "0".
type Version []int

// ParseVersion splits s on dots and keeps the components that parse as
// non-negative integers.
func ParseVersion(s string) Version {
	parts := strings.Split(strings.TrimSpace(s), ".")
	v := make(Version, 0, len(parts))
	for _, p := range parts {
		n, err := strconv.Atoi(p)
		if err != nil || n < 0 {
			continue
		}
		v = append(v, n)
	}
	return v
}

// at returns component i, treating missing components as 0.
func (v Version) at(i int) int {
	if i < len(v) {
		return v[i]
	}
	return 0
}

// Compare returns -1, 0 or +1 depending on whether v sorts before, equal
// to, or after o.
func (v Version) Compare(o Version) int {
	for i, n := 0, max(len(v), len(o)); i < n; i++ {
		a, b := v.at(i), o.at(i)
		switch {
		case a < b:
			return -1
		case a > b:
			return 1
		}
	}
	return 0
}

// Major returns the first component (0 if absent).
func (v Version) Major() int { return v.at(0) }

// Minor returns the second component (0 if absent).
func (v Version) Minor() int { return v.at(1) }

// String renders the parsed components joined by dots.
func (v Version) String() string {
	if len(v) == 0 {
		return "0"
	}
	parts := make([]string, len(v))
	for i, n := range v {
		parts[i] = strconv.Itoa(n)
	}
	return strings.Join(parts, ".")
}

// CompareVersions parses and compares two version strings.
func CompareVersions(a, b string) int {
	return ParseVersion(a).Compare(ParseVersion(b))
}

// Op is a version comparison operator.
type Op int

// Supported operators.
const (
	OpEq         Op = iota // ==
	OpNotEq                // !=
	OpLt                   // <
	OpLtEq                 // <=
	OpGt                   // >
	OpGtEq                 // >=
	OpCompatible           // ~=
)

var opStrings = [...]string{
	OpEq:         "==",
	OpNotEq:      "!=",
	OpLt:         "<",
	OpLtEq:       "<=",
	OpGt:         ">",
	OpGtEq:       ">=",
	OpCompatible: "~=",
}

// String returns the operator's textual form.
func (o Op) String() string {
	if int(o) < len(opStrings) {
		return opStrings[o]
	}
	return "?"
}

// operatorPrefixes lists operators in match order: two-character forms
// must be tried before their one-character prefixes.
var operatorPrefixes = []struct {
	text string
	op   Op
}{
	{"==", OpEq},
	{"!=", OpNotEq},
	{"<=", OpLtEq},
	{">=", OpGtEq},
	{"~=", OpCompatible},
	{"<", OpLt},
	{">", OpGt},
}

// VersionSpec is one operator+version constraint clause, such as ">=2.0".
type VersionSpec struct {
	Op      Op     `json:"op"`
	Version string `json:"version"`
}

// String renders the clause, e.g. ">=2.0".
func (s VersionSpec) String() string {
	return s.Op.String() + s.Version
}

// Check reports whether version satisfies the clause.
func (s VersionSpec) Check(version string) bool {
	return s.Matches(ParseVersion(version))
}

// Matches reports whether an already-parsed version satisfies the clause.
func (s VersionSpec) Matches(v Version) bool {
	return s.MatchesParsed(v, ParseVersion(s.Version))
}

// MatchesParsed is [VersionSpec.Matches] with the clause's own version
// already parsed. The resolver uses it with memoized parses.
func (s VersionSpec) MatchesParsed(v, target Version) bool {
	cmp := v.Compare(target)
	switch s.Op {
	case OpEq:
		return cmp == 0
	case OpNotEq:
		return cmp != 0
	case OpLt:
		return cmp < 0
	case OpLtEq:
		return cmp <= 0
	case OpGt:
		return cmp > 0
	case OpGtEq:
		return cmp >= 0
	case OpCompatible:
		return v.Major() == target.Major() && v.Minor() == target.Minor() && cmp >= 0
	default:
		return false
	}
}

// Satisfies reports whether version satisfies every spec (logical AND).
// An empty spec list is satisfied by any version.
func Satisfies(version string, specs []VersionSpec) bool {
	v := ParseVersion(version)
	for _, s := range specs {
		if !s.Matches(v) {
			return false
		}
	}
	return true
}
