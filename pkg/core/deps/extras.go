package deps

import (
	"regexp"
	"slices"
)

var extraMarkerRE = regexp.MustCompile(`extra\s*==\s*['"]([^'"]+)['"]`)

// AvailableExtras returns the sorted set of extra names that gate at least
// one of pkg's dependencies.
func AvailableExtras(pkg *Package) []string {
	seen := make(map[string]bool)
	var extras []string
	for _, raw := range pkg.RequiresDist {
		req, err := Parse(raw)
		if err != nil || req.Marker == "" {
			continue
		}
		for _, m := range extraMarkerRE.FindAllStringSubmatch(req.Marker, -1) {
			if !seen[m[1]] {
				seen[m[1]] = true
				extras = append(extras, m[1])
			}
		}
	}
	slices.Sort(extras)
	return extras
}

// ExtraRequirements returns the dependencies of pkg that are gated on one
// of the requested extras. Unparseable entries are skipped.
func ExtraRequirements(pkg *Package, extras []string) []Requirement {
	if len(extras) == 0 {
		return nil
	}
	var out []Requirement
	for _, raw := range pkg.RequiresDist {
		req, err := Parse(raw)
		if err != nil || req.Marker == "" {
			continue
		}
		for _, m := range extraMarkerRE.FindAllStringSubmatch(req.Marker, -1) {
			if slices.Contains(extras, m[1]) {
				out = append(out, req)
				break
			}
		}
	}
	return out
}
