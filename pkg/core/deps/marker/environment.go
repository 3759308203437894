package marker

import "runtime"

// DefaultPythonVersion is the interpreter version assumed when none is
// configured.
const DefaultPythonVersion = "3.11"

// Environment is an immutable snapshot of the target interpreter and
// platform that markers are evaluated against.
type Environment struct {
	PythonVersion     string `json:"python_version"`      // python_version, e.g. "3.11"
	PythonFullVersion string `json:"python_full_version"` // python_full_version, e.g. "3.11.0"
	Platform          string `json:"sys_platform"`        // sys_platform: linux, darwin, win32
	Implementation    string `json:"implementation_name"` // implementation_name: cpython, pypy
	Architecture      string `json:"platform_machine"`    // platform_machine: x86_64, arm64
	OSName            string `json:"os_name"`             // os_name: posix, nt
	PlatformSystem    string `json:"platform_system"`     // platform_system: Linux, Darwin, Windows
	Extra             string `json:"extra,omitempty"`     // extra, bound only while expanding extras
}

// Current describes the host platform with a CPython 3.11 interpreter.
func Current() Environment {
	return Environment{
		PythonVersion:     DefaultPythonVersion,
		PythonFullVersion: DefaultPythonVersion + ".0",
		Platform:          platformFor(runtime.GOOS),
		Implementation:    "cpython",
		Architecture:      machineFor(runtime.GOARCH),
		OSName:            osNameFor(runtime.GOOS),
		PlatformSystem:    systemFor(runtime.GOOS),
	}
}

// WithExtra returns a copy of e with the extra variable bound.
func (e Environment) WithExtra(extra string) Environment {
	e.Extra = extra
	return e
}

// WithPlatform returns a copy of e targeting the given sys_platform value,
// keeping os_name and platform_system consistent with it.
func (e Environment) WithPlatform(platform string) Environment {
	e.Platform = platform
	switch platform {
	case "win32", "cygwin":
		e.OSName = "nt"
		e.PlatformSystem = "Windows"
	case "darwin":
		e.OSName = "posix"
		e.PlatformSystem = "Darwin"
	case "linux":
		e.OSName = "posix"
		e.PlatformSystem = "Linux"
	}
	return e
}

// WithPythonVersion returns a copy of e targeting the given interpreter
// version. A "major.minor.patch" value also sets python_full_version.
func (e Environment) WithPythonVersion(version string) Environment {
	short, full := version, version+".0"
	if n := countDots(version); n >= 2 {
		idx := indexNthDot(version, 2)
		short, full = version[:idx], version
	}
	e.PythonVersion = short
	e.PythonFullVersion = full
	return e
}

// Variables lists the marker variable names the evaluator understands, in
// display order.
var Variables = []string{
	"python_version",
	"python_full_version",
	"sys_platform",
	"platform_machine",
	"os_name",
	"platform_system",
	"implementation_name",
	"platform_python_implementation",
	"extra",
}

// Lookup returns the value of a marker variable. Unknown names resolve to
// the empty string. "platform" is accepted as an alias of sys_platform.
func (e Environment) Lookup(name string) string {
	switch name {
	case "python_version":
		return e.PythonVersion
	case "python_full_version", "implementation_version":
		return e.PythonFullVersion
	case "sys_platform", "platform":
		return e.Platform
	case "platform_machine":
		return e.Architecture
	case "os_name":
		return e.OSName
	case "platform_system":
		return e.PlatformSystem
	case "implementation_name":
		return e.Implementation
	case "platform_python_implementation":
		return pythonImplementation(e.Implementation)
	case "extra":
		return e.Extra
	default:
		return ""
	}
}

func pythonImplementation(name string) string {
	switch name {
	case "cpython":
		return "CPython"
	case "pypy":
		return "PyPy"
	case "ironpython":
		return "IronPython"
	case "jython":
		return "Jython"
	default:
		return name
	}
}

func platformFor(goos string) string {
	switch goos {
	case "linux", "darwin":
		return goos
	case "windows":
		return "win32"
	case "freebsd", "openbsd", "netbsd":
		return goos
	default:
		return "unknown"
	}
}

func machineFor(goarch string) string {
	switch goarch {
	case "amd64":
		return "x86_64"
	case "arm64":
		return "arm64"
	case "386":
		return "i686"
	default:
		return "unknown"
	}
}

func osNameFor(goos string) string {
	if goos == "windows" {
		return "nt"
	}
	return "posix"
}

func systemFor(goos string) string {
	switch goos {
	case "linux":
		return "Linux"
	case "darwin":
		return "Darwin"
	case "windows":
		return "Windows"
	default:
		return ""
	}
}

func countDots(s string) int {
	n := 0
	for i := 0; i < len(s); i++ {
		if s[i] == '.' {
			n++
		}
	}
	return n
}

func indexNthDot(s string, n int) int {
	for i := 0; i < len(s); i++ {
		if s[i] == '.' {
			n--
			if n == 0 {
				return i
			}
		}
	}
	return len(s)
}
