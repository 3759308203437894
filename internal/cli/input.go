package cli

import (
	"path/filepath"

	"github.com/charmbracelet/log"
	"github.com/spf13/cobra"

	"github.com/matzehuels/pipcore/pkg/core/deps"
	"github.com/matzehuels/pipcore/pkg/core/deps/python"
	perrors "github.com/matzehuels/pipcore/pkg/errors"
)

// inputOpts holds the flags that name requirement sources.
type inputOpts struct {
	files       []string // -r requirements.txt / pyproject.toml
	constraints []string // -c constraint files
	extras      []string // optional-dependency groups of a pyproject.toml
}

func (o *inputOpts) register(cmd *cobra.Command) {
	cmd.Flags().StringArrayVarP(&o.files, "requirement", "r", nil, "requirements file or pyproject.toml (repeatable)")
	cmd.Flags().StringArrayVarP(&o.constraints, "constraint", "c", nil, "constraints file (repeatable)")
	cmd.Flags().StringSliceVar(&o.extras, "extra", nil, "pyproject.toml optional-dependency groups to include")
}

// load parses every requirement source. Any invalid requirement is a hard
// error, reported before anything is fetched.
func (o *inputOpts) load(args []string, logger *log.Logger) (reqs, constraints []deps.Requirement, err error) {
	reqs, err = deps.ParseAll(args)
	if err != nil {
		return nil, nil, err
	}

	constraintFiles := append([]string(nil), o.constraints...)
	for _, path := range o.files {
		var extras []string
		if filepath.Base(path) == python.PyprojectFilename {
			extras = o.extras
		}
		f, err := python.LoadRequirements(path, extras...)
		if err != nil {
			return nil, nil, err
		}
		fileReqs, err := f.Requirements()
		if err != nil {
			return nil, nil, err
		}
		for _, e := range f.Editable() {
			logger.Warn("editable requirement skipped", "line", e.Line, "source", e.Source, "requirement", e.Text)
		}
		reqs = append(reqs, fileReqs...)
		constraintFiles = append(constraintFiles, f.Constraints...)
	}

	for _, path := range constraintFiles {
		f, err := deps.ParseRequirementsFile(path)
		if err != nil {
			return nil, nil, err
		}
		cs, err := f.Requirements()
		if err != nil {
			return nil, nil, err
		}
		constraints = append(constraints, cs...)
	}

	if len(reqs) == 0 {
		return nil, nil, perrors.New(perrors.ErrCodeInvalidInput, "no requirements given (pass REQ arguments or -r FILE)")
	}
	return reqs, constraints, nil
}
