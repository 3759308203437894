package deps

import (
	"fmt"
	"regexp"
	"strings"
	"unicode"

	perrors "github.com/matzehuels/pipcore/pkg/errors"
)

// SelectorLatest asks a metadata source for the newest available release.
const SelectorLatest = "latest"

// Requirement is a dependency declaration: a normalized name, version
// clauses, requested extras and an optional environment marker.
type Requirement struct {
	Name   string        `json:"name"`             // Normalized name (lowercase, "_" -> "-")
	Specs  []VersionSpec `json:"specs,omitempty"`  // Clauses, all of which must hold
	Extras []string      `json:"extras,omitempty"` // Requested extras, in declaration order
	Marker string        `json:"marker,omitempty"` // Raw marker text after ";" (empty if none)
}

// InvalidRequirementError describes why a requirement string was rejected.
type InvalidRequirementError struct {
	Spec   string // The offending input
	Reason string // What was wrong with it
}

func (e *InvalidRequirementError) Error() string {
	return fmt.Sprintf("invalid requirement %q: %s", e.Spec, e.Reason)
}

func invalid(spec, format string, args ...any) error {
	cause := &InvalidRequirementError{Spec: spec, Reason: fmt.Sprintf(format, args...)}
	return perrors.Wrap(perrors.ErrCodeInvalidRequirement, cause, "cannot parse requirement")
}

// versionTokenRE bounds what may follow an operator. Anything else (quotes,
// spaces, a second operator) is a malformed clause.
var versionTokenRE = regexp.MustCompile(`^[A-Za-z0-9.*+!_-]+$`)

// NormalizeName lowercases name and replaces underscores with hyphens.
func NormalizeName(name string) string {
	return strings.ReplaceAll(strings.ToLower(strings.TrimSpace(name)), "_", "-")
}

// Parse parses a requirement string of the form
//
//	name[extra1,extra2]op1 v1,op2 v2; marker
//
// The marker is everything after the first ";". The name is the longest
// leading run of letters, digits, "_", "-" and ".". Version clauses must start
// with one of ==, !=, <=, >=, <, > or ~=.
//
// Parse fails with an INVALID_REQUIREMENT error wrapping an
// [InvalidRequirementError] on an empty name, an unterminated extras list,
// an unrecognized operator, or an empty or malformed version token.
func Parse(s string) (Requirement, error) {
	raw := s
	s = strings.TrimSpace(s)
	if s == "" {
		return Requirement{}, invalid(raw, "empty requirement")
	}

	var marker string
	if idx := strings.IndexByte(s, ';'); idx >= 0 {
		marker = strings.TrimSpace(s[idx+1:])
		s = strings.TrimSpace(s[:idx])
	}

	end := strings.IndexFunc(s, func(r rune) bool {
		return !(unicode.IsLetter(r) || unicode.IsDigit(r) || r == '_' || r == '-' || r == '.')
	})
	if end < 0 {
		end = len(s)
	}
	name := s[:end]
	if name == "" {
		return Requirement{}, invalid(raw, "missing package name")
	}

	rest := strings.TrimSpace(s[end:])
	var extras []string
	if strings.HasPrefix(rest, "[") {
		closing := strings.IndexByte(rest, ']')
		if closing < 0 {
			return Requirement{}, invalid(raw, "unterminated extras list")
		}
		for _, e := range strings.Split(rest[1:closing], ",") {
			if e = strings.TrimSpace(e); e != "" {
				extras = append(extras, e)
			}
		}
		rest = strings.TrimSpace(rest[closing+1:])
	}

	specs, err := parseSpecs(raw, rest)
	if err != nil {
		return Requirement{}, err
	}

	return Requirement{
		Name:   NormalizeName(name),
		Specs:  specs,
		Extras: extras,
		Marker: marker,
	}, nil
}

// MustParse is like [Parse] but panics on error. Intended for tests and
// static tables.
func MustParse(s string) Requirement {
	r, err := Parse(s)
	if err != nil {
		panic(err)
	}
	return r
}

func parseSpecs(raw, s string) ([]VersionSpec, error) {
	// Legacy metadata wraps clauses in parentheses: "six (>=1.5)".
	if strings.HasPrefix(s, "(") && strings.HasSuffix(s, ")") {
		s = strings.TrimSpace(s[1 : len(s)-1])
	}
	if s == "" {
		return nil, nil
	}

	var specs []VersionSpec
	for _, clause := range strings.Split(s, ",") {
		clause = strings.TrimSpace(clause)
		if clause == "" {
			continue
		}
		spec, err := parseClause(raw, clause)
		if err != nil {
			return nil, err
		}
		specs = append(specs, spec)
	}
	return specs, nil
}

func parseClause(raw, clause string) (VersionSpec, error) {
	for _, p := range operatorPrefixes {
		if !strings.HasPrefix(clause, p.text) {
			continue
		}
		version := strings.TrimSpace(clause[len(p.text):])
		if version == "" {
			return VersionSpec{}, invalid(raw, "empty version after %q", p.text)
		}
		if !versionTokenRE.MatchString(version) {
			return VersionSpec{}, invalid(raw, "malformed version %q", version)
		}
		return VersionSpec{Op: p.op, Version: version}, nil
	}
	return VersionSpec{}, invalid(raw, "unrecognized operator in %q", clause)
}

// String renders the requirement back into its textual form. Parsing the
// result yields an equal Requirement.
func (r Requirement) String() string {
	var b strings.Builder
	b.WriteString(r.Name)
	if len(r.Extras) > 0 {
		b.WriteByte('[')
		b.WriteString(strings.Join(r.Extras, ","))
		b.WriteByte(']')
	}
	for i, s := range r.Specs {
		if i > 0 {
			b.WriteByte(',')
		}
		b.WriteString(s.String())
	}
	if r.Marker != "" {
		b.WriteString("; ")
		b.WriteString(r.Marker)
	}
	return b.String()
}

// HasMarker reports whether the requirement is environment-conditional.
func (r Requirement) HasMarker() bool { return r.Marker != "" }

// SatisfiedBy reports whether version meets every clause of r.
func (r Requirement) SatisfiedBy(version string) bool {
	return Satisfies(version, r.Specs)
}

// Selector returns the version selector to request from a metadata source:
// the pinned version when r is exactly one "==" clause without wildcards,
// otherwise [SelectorLatest].
func (r Requirement) Selector() string {
	if len(r.Specs) == 1 && r.Specs[0].Op == OpEq && !strings.Contains(r.Specs[0].Version, "*") {
		return r.Specs[0].Version
	}
	return SelectorLatest
}

// ParseAll parses every string, stopping at the first invalid one.
func ParseAll(specs []string) ([]Requirement, error) {
	reqs := make([]Requirement, 0, len(specs))
	for _, s := range specs {
		r, err := Parse(s)
		if err != nil {
			return nil, err
		}
		reqs = append(reqs, r)
	}
	return reqs, nil
}
