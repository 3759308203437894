package python

import (
	"os"
	"path/filepath"
	"strings"

	"github.com/matzehuels/pipcore/pkg/core/deps"
	perrors "github.com/matzehuels/pipcore/pkg/errors"
)

// LoadRequirements reads direct requirements from path. A file named
// pyproject.toml contributes [project].dependencies and the requested
// optional-dependency groups; anything else is parsed as a pip
// requirements file, and extras must then be empty.
func LoadRequirements(path string, extras ...string) (*deps.RequirementsFile, error) {
	if filepath.Base(path) == PyprojectFilename {
		p, err := ReadPyproject(path)
		if err != nil {
			return nil, err
		}
		return p.RequirementsFile(path, extras...)
	}
	if len(extras) > 0 {
		return nil, perrors.New(perrors.ErrCodeInvalidInput, "extras groups only apply to %s, not %s", PyprojectFilename, path)
	}
	return deps.ParseRequirementsFile(path)
}

// LoadInstalled reads the releases already present in an environment.
// A poetry.lock file is decoded directly; anything else is treated as
// `pip freeze` output, where only exact "name==version" pins count and
// all other lines are skipped.
func LoadInstalled(path string) ([]*deps.Package, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, perrors.Wrap(perrors.ErrCodeFileNotFound, err, "installed list %s", path)
		}
		return nil, err
	}
	if strings.EqualFold(filepath.Base(path), PoetryLockFilename) {
		return ParsePoetryLock(data)
	}
	return parseFreeze(string(data)), nil
}

func parseFreeze(content string) []*deps.Package {
	var out []*deps.Package
	for _, line := range deps.ParseRequirementsContent(content).Lines {
		if line.Editable {
			continue
		}
		r, err := deps.Parse(line.Text)
		if err != nil {
			continue
		}
		if v := r.Selector(); v != deps.SelectorLatest {
			out = append(out, deps.NewPackage(r.Name, v))
		}
	}
	return out
}
