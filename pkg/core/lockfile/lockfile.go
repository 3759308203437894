// Package lockfile freezes a resolution into a JSON document for
// reproducible reinstallation.
//
// # Format
//
//	{
//	  "version": "1.0",
//	  "generated_at": "2025-01-02T15:04:05Z",
//	  "python_version": "3.11",
//	  "packages": {
//	    "requests-2.31.0": {
//	      "name": "requests",
//	      "version": "2.31.0",
//	      "summary": "Python HTTP for Humans.",
//	      "dependencies": ["idna<4,>=2.5", "urllib3<3,>=1.21.1"]
//	    }
//	  }
//	}
//
// Packages are keyed "{name}-{version}". [FromPackages] lets a later
// duplicate key overwrite an earlier one. [Load] does not validate; call
// [LockFile.Validate] before trusting a loaded file.
package lockfile

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"slices"
	"strings"
	"time"

	"github.com/matzehuels/pipcore/pkg/core/deps"
	perrors "github.com/matzehuels/pipcore/pkg/errors"
)

// FormatVersion is the only lock file version this package accepts.
const FormatVersion = "1.0"

// DefaultFilename is the conventional lock file name.
const DefaultFilename = "pip-lock.json"

// LockFile is a pinned snapshot of a resolved package set.
type LockFile struct {
	Version       string                   `json:"version"`
	GeneratedAt   string                   `json:"generated_at"` // RFC 3339
	PythonVersion string                   `json:"python_version"`
	Packages      map[string]LockedPackage `json:"packages"`
}

// LockedPackage is one pinned release.
type LockedPackage struct {
	Name           string   `json:"name"`
	Version        string   `json:"version"`
	Summary        string   `json:"summary,omitempty"`
	RequiresPython string   `json:"requires_python,omitempty"`
	Dependencies   []string `json:"dependencies"`
	Hash           string   `json:"hash,omitempty"`
	URL            string   `json:"url,omitempty"`
}

// Key returns the map key for a release: "{name}-{version}".
func Key(name, version string) string {
	return name + "-" + version
}

// now is replaced in tests.
var now = time.Now

// FromPackages builds a lock file from resolved packages.
func FromPackages(pkgs []*deps.Package, pythonVersion string) *LockFile {
	lf := &LockFile{
		Version:       FormatVersion,
		GeneratedAt:   now().UTC().Format(time.RFC3339),
		PythonVersion: pythonVersion,
		Packages:      make(map[string]LockedPackage, len(pkgs)),
	}
	for _, p := range pkgs {
		lf.Packages[Key(p.Name, p.Version)] = LockedPackage{
			Name:           p.Name,
			Version:        p.Version,
			Summary:        p.Summary,
			RequiresPython: p.RequiresPython,
			Dependencies:   slices.Clone(p.RequiresDist),
		}
	}
	return lf
}

// Validate fails with INVALID_LOCKFILE if the format version is not
// [FormatVersion] or no packages are locked.
func (lf *LockFile) Validate() error {
	if lf.Version != FormatVersion {
		return perrors.New(perrors.ErrCodeInvalidLockFile, "unsupported lock file version %q", lf.Version)
	}
	if len(lf.Packages) == 0 {
		return perrors.New(perrors.ErrCodeInvalidLockFile, "lock file contains no packages")
	}
	return nil
}

// Get returns the locked entry for name and version. Names compare
// normalized, as in [LockFile.Has].
func (lf *LockFile) Get(name, version string) (LockedPackage, bool) {
	if p, ok := lf.Packages[Key(name, version)]; ok {
		return p, true
	}
	name = deps.NormalizeName(name)
	for _, p := range lf.Packages {
		if p.Version == version && deps.NormalizeName(p.Name) == name {
			return p, true
		}
	}
	return LockedPackage{}, false
}

// Has reports whether any version of name is locked. Names compare
// normalized.
func (lf *LockFile) Has(name string) bool {
	name = deps.NormalizeName(name)
	for _, p := range lf.Packages {
		if deps.NormalizeName(p.Name) == name {
			return true
		}
	}
	return false
}

// Names returns the locked package names, sorted.
func (lf *LockFile) Names() []string {
	names := make([]string, 0, len(lf.Packages))
	for _, p := range lf.Packages {
		names = append(names, p.Name)
	}
	slices.Sort(names)
	return names
}

// ToPackages converts the locked entries back to packages, sorted by key.
func (lf *LockFile) ToPackages() []*deps.Package {
	out := make([]*deps.Package, 0, len(lf.Packages))
	keys := make([]string, 0, len(lf.Packages))
	for k := range lf.Packages {
		keys = append(keys, k)
	}
	slices.Sort(keys)
	for _, k := range keys {
		p := lf.Packages[k]
		out = append(out, &deps.Package{
			Name:           p.Name,
			Version:        p.Version,
			Summary:        p.Summary,
			RequiresPython: p.RequiresPython,
			RequiresDist:   slices.Clone(p.Dependencies),
		})
	}
	return out
}

// Write encodes lf as two-space indented JSON.
func (lf *LockFile) Write(w io.Writer) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	if err := enc.Encode(lf); err != nil {
		return fmt.Errorf("encode: %w", err)
	}
	return nil
}

// Read decodes a lock file without validating it.
func Read(r io.Reader) (*LockFile, error) {
	var lf LockFile
	if err := json.NewDecoder(r).Decode(&lf); err != nil {
		return nil, perrors.Wrap(perrors.ErrCodeInvalidLockFile, err, "decode lock file")
	}
	return &lf, nil
}

// Save writes lf to path through a temporary file in the same directory,
// so readers never observe a partial file.
func (lf *LockFile) Save(path string) error {
	dir := filepath.Dir(path)
	tmp, err := os.CreateTemp(dir, "."+filepath.Base(path)+".*")
	if err != nil {
		return fmt.Errorf("create %s: %w", path, err)
	}
	defer os.Remove(tmp.Name())

	if err := lf.Write(tmp); err != nil {
		tmp.Close()
		return err
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("write %s: %w", path, err)
	}
	if err := os.Rename(tmp.Name(), path); err != nil {
		return fmt.Errorf("rename %s: %w", path, err)
	}
	return nil
}

// Load reads the lock file at path. It does not validate.
func Load(path string) (*LockFile, error) {
	f, err := os.Open(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, perrors.Wrap(perrors.ErrCodeFileNotFound, err, "lock file %s", path)
		}
		return nil, fmt.Errorf("open %s: %w", path, err)
	}
	defer f.Close()
	return Read(f)
}

// Summary renders a one-line description, e.g. "12 packages for Python 3.11".
func (lf *LockFile) Summary() string {
	var b strings.Builder
	fmt.Fprintf(&b, "%d packages", len(lf.Packages))
	if lf.PythonVersion != "" {
		fmt.Fprintf(&b, " for Python %s", lf.PythonVersion)
	}
	return b.String()
}
