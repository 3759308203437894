package deps

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	perrors "github.com/matzehuels/pipcore/pkg/errors"
)

// RequirementLine is one logical line of a requirements file, after
// continuation joining and comment stripping.
type RequirementLine struct {
	Text     string // Requirement text (without the -e prefix)
	Line     int    // 1-based line number where the logical line starts
	Editable bool   // Declared with -e / --editable
	Source   string // File the line came from (empty for in-memory content)
}

// RequirementsFile is the parsed content of a requirements file.
type RequirementsFile struct {
	Lines       []RequirementLine // Requirement lines in file order
	Constraints []string          // Paths referenced with -c / --constraint
	Includes    []string          // Paths referenced with -r / --requirement
}

// ParseRequirementsContent parses requirements-file text.
//
// It joins backslash continuations, drops blank lines, full-line comments
// and trailing " #" comments, records -e editable entries, -c constraint
// and -r include references, and skips other option lines as well as
// URL and VCS requirements.
func ParseRequirementsContent(content string) *RequirementsFile {
	f := &RequirementsFile{}

	var current strings.Builder
	start := 0
	lineNo := 0

	flush := func() {
		text := current.String()
		current.Reset()
		if start == 0 {
			start = lineNo
		}
		f.addLine(text, start)
		start = 0
	}

	// No line-length limit.
	for _, raw := range strings.Split(content, "\n") {
		lineNo++
		line := strings.TrimRight(raw, " \t\r")
		if current.Len() > 0 {
			line = strings.TrimLeft(line, " \t")
		}
		if strings.HasSuffix(line, "\\") {
			if start == 0 {
				start = lineNo
			}
			current.WriteString(strings.TrimRight(line[:len(line)-1], " \t"))
			current.WriteByte(' ')
			continue
		}
		current.WriteString(line)
		flush()
	}
	if current.Len() > 0 {
		flush()
	}
	return f
}

func (f *RequirementsFile) addLine(text string, line int) {
	if idx := strings.Index(text, " #"); idx >= 0 {
		text = text[:idx]
	}
	text = strings.TrimSpace(text)
	if text == "" || strings.HasPrefix(text, "#") {
		return
	}

	if opt, arg, ok := option(text); ok {
		switch opt {
		case "-e", "--editable":
			f.Lines = append(f.Lines, RequirementLine{Text: arg, Line: line, Editable: true})
		case "-c", "--constraint":
			f.Constraints = append(f.Constraints, arg)
		case "-r", "--requirement":
			f.Includes = append(f.Includes, arg)
		}
		return
	}

	if strings.Contains(text, "://") || strings.HasPrefix(text, "git+") {
		return
	}
	f.Lines = append(f.Lines, RequirementLine{Text: text, Line: line})
}

// option splits "-e foo", "--editable=foo" and "-efoo" into option and
// argument. ok is false when text is not an option line.
func option(text string) (opt, arg string, ok bool) {
	if !strings.HasPrefix(text, "-") {
		return "", "", false
	}
	if strings.HasPrefix(text, "--") {
		if name, value, found := strings.Cut(text, "="); found {
			return name, strings.TrimSpace(value), true
		}
		name, value, _ := strings.Cut(text, " ")
		return name, strings.TrimSpace(value), true
	}
	if len(text) < 2 {
		return text, "", true
	}
	return text[:2], strings.TrimSpace(text[2:]), true
}

// ParseRequirementsFile reads path and follows -r includes relative to the
// including file. Constraint references are resolved to paths relative to
// the file that declared them but are not read.
func ParseRequirementsFile(path string) (*RequirementsFile, error) {
	out := &RequirementsFile{}
	if err := parseFileInto(out, path, make(map[string]bool)); err != nil {
		return nil, err
	}
	return out, nil
}

func parseFileInto(out *RequirementsFile, path string, seen map[string]bool) error {
	abs, err := filepath.Abs(path)
	if err != nil {
		return err
	}
	if seen[abs] {
		return nil
	}
	seen[abs] = true

	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return perrors.Wrap(perrors.ErrCodeFileNotFound, err, "requirements file %s", path)
		}
		return err
	}

	f := ParseRequirementsContent(string(data))
	dir := filepath.Dir(path)
	for _, l := range f.Lines {
		l.Source = path
		out.Lines = append(out.Lines, l)
	}
	for _, c := range f.Constraints {
		out.Constraints = append(out.Constraints, relTo(dir, c))
	}
	for _, inc := range f.Includes {
		if err := parseFileInto(out, relTo(dir, inc), seen); err != nil {
			return err
		}
	}
	return nil
}

func relTo(dir, p string) string {
	if filepath.IsAbs(p) {
		return p
	}
	return filepath.Join(dir, p)
}

// Requirements parses every non-editable line. The first invalid line
// aborts with an INVALID_REQUIREMENT error naming its location.
func (f *RequirementsFile) Requirements() ([]Requirement, error) {
	reqs := make([]Requirement, 0, len(f.Lines))
	for _, l := range f.Lines {
		if l.Editable {
			continue
		}
		r, err := Parse(l.Text)
		if err != nil {
			return nil, fmt.Errorf("%s: %w", l.location(), err)
		}
		reqs = append(reqs, r)
	}
	return reqs, nil
}

// Editable returns the editable entries.
func (f *RequirementsFile) Editable() []RequirementLine {
	var out []RequirementLine
	for _, l := range f.Lines {
		if l.Editable {
			out = append(out, l)
		}
	}
	return out
}

func (l RequirementLine) location() string {
	if l.Source == "" {
		return fmt.Sprintf("line %d", l.Line)
	}
	return fmt.Sprintf("%s:%d", l.Source, l.Line)
}
