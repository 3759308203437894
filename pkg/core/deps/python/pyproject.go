package python

import (
	"os"
	"slices"

	"github.com/BurntSushi/toml"

	"github.com/matzehuels/pipcore/pkg/core/deps"
	perrors "github.com/matzehuels/pipcore/pkg/errors"
)

// PyprojectFilename is the standard project metadata file name.
const PyprojectFilename = "pyproject.toml"

// Pyproject is the subset of pyproject.toml the resolver consumes.
type Pyproject struct {
	Name                 string
	Version              string
	RequiresPython       string
	Dependencies         []string
	OptionalDependencies map[string][]string
}

type pyprojectFile struct {
	Project struct {
		Name                 string              `toml:"name"`
		Version              string              `toml:"version"`
		RequiresPython       string              `toml:"requires-python"`
		Dependencies         []string            `toml:"dependencies"`
		OptionalDependencies map[string][]string `toml:"optional-dependencies"`
	} `toml:"project"`
	Tool struct {
		Poetry struct {
			Name    string `toml:"name"`
			Version string `toml:"version"`
		} `toml:"poetry"`
	} `toml:"tool"`
}

// ParsePyproject decodes pyproject.toml content.
func ParsePyproject(data []byte) (*Pyproject, error) {
	var f pyprojectFile
	if err := toml.Unmarshal(data, &f); err != nil {
		return nil, perrors.Wrap(perrors.ErrCodeInvalidInput, err, "cannot parse pyproject.toml")
	}
	p := &Pyproject{
		Name:                 f.Project.Name,
		Version:              f.Project.Version,
		RequiresPython:       f.Project.RequiresPython,
		Dependencies:         f.Project.Dependencies,
		OptionalDependencies: f.Project.OptionalDependencies,
	}
	if p.Name == "" {
		p.Name = f.Tool.Poetry.Name
	}
	if p.Version == "" {
		p.Version = f.Tool.Poetry.Version
	}
	return p, nil
}

// ReadPyproject reads and decodes the pyproject.toml at path.
func ReadPyproject(path string) (*Pyproject, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, perrors.Wrap(perrors.ErrCodeFileNotFound, err, "pyproject %s", path)
		}
		return nil, err
	}
	return ParsePyproject(data)
}

// Extras returns the optional-dependency group names, sorted.
func (p *Pyproject) Extras() []string {
	out := make([]string, 0, len(p.OptionalDependencies))
	for name := range p.OptionalDependencies {
		out = append(out, name)
	}
	slices.Sort(out)
	return out
}

// RequirementsFile renders the project's dependencies, plus the groups
// named in extras, as requirement lines. Line numbers count entries
// starting at 1. Unknown extras are an INVALID_INPUT error.
func (p *Pyproject) RequirementsFile(source string, extras ...string) (*deps.RequirementsFile, error) {
	f := &deps.RequirementsFile{}
	n := 0
	add := func(text string) {
		n++
		f.Lines = append(f.Lines, deps.RequirementLine{Text: text, Line: n, Source: source})
	}
	for _, d := range p.Dependencies {
		add(d)
	}
	for _, x := range extras {
		group, ok := p.OptionalDependencies[x]
		if !ok {
			return nil, perrors.New(perrors.ErrCodeInvalidInput, "%s has no optional dependency group %q", source, x)
		}
		for _, d := range group {
			add(d)
		}
	}
	return f, nil
}
