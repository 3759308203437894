// Package deps defines the requirement and version model used by the resolver.
//
// # Overview
//
// A [Requirement] is a package name plus version constraints, extras and an
// optional environment marker, as written in a requirements file or in a
// package's own requires_dist metadata:
//
//	req, err := deps.Parse("requests[security]>=2.28,<3; python_version >= '3.8'")
//
// A [Package] is the metadata record returned by a metadata source for one
// concrete release.
//
// # Version Comparison
//
// Versions are compared as dotted numeric components, left to right. A
// missing component on either side counts as 0, so "1.0" equals "1.0.0".
// Non-numeric components are dropped when parsing. This is a deliberate
// simplification of PEP 440: pre-release and local version tags do not
// influence ordering.
//
// The compatible-release operator (~=) requires equal major and minor
// components and an overall version greater than or equal to the target.
//
// # Name Normalization
//
// Requirement names are normalized by lowercasing and replacing underscores
// with hyphens, so "Typing_Extensions" and "typing-extensions" are the same
// package. See [NormalizeName].
package deps
