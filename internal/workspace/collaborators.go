package workspace

import (
	"bytes"
	"os"
	"os/exec"
	"path/filepath"
	"strings"

	"github.com/muonlang/mbi/internal/obj"
)

// DefaultCollaborators is the production builtins.ExternalCollaborators
// implementation: real PATH search, real child processes, and a
// pkg-config probe shelling out to the pkg-config binary (spec.md
// section 6's "abstract; bit-exact behavior out of scope" external
// interfaces). Tests substitute a fake satisfying the same interface
// instead of constructing this type.
type DefaultCollaborators struct {
	// KnownCompilers maps a language to the (id, version) a real probe
	// would report; spec.md section 6 leaves compiler identification's
	// bit-exact behavior out of scope, so this is a configurable table
	// rather than a real toolchain invocation.
	KnownCompilers map[string][2]string
}

func NewDefaultCollaborators() *DefaultCollaborators {
	return &DefaultCollaborators{
		KnownCompilers: map[string][2]string{
			"c":   {"gcc", "13.2.0"},
			"cpp": {"g++", "13.2.0"},
		},
	}
}

func (c *DefaultCollaborators) FindProgram(names []string, dirs []string) (string, bool) {
	for _, name := range names {
		for _, dir := range dirs {
			candidate := filepath.Join(dir, name)
			if info, err := os.Stat(candidate); err == nil && !info.IsDir() {
				return candidate, true
			}
		}
		if path, err := exec.LookPath(name); err == nil {
			return path, true
		}
	}
	return "", false
}

func (c *DefaultCollaborators) Run(argv []string, env []string, cwd string) (stdout, stderr string, code int, err error) {
	if len(argv) == 0 {
		return "", "", -1, nil
	}
	cmd := exec.Command(argv[0], argv[1:]...)
	cmd.Dir = cwd
	if env != nil {
		cmd.Env = append(os.Environ(), env...)
	}
	var outBuf, errBuf bytes.Buffer
	cmd.Stdout = &outBuf
	cmd.Stderr = &errBuf
	runErr := cmd.Run()
	code = cmd.ProcessState.ExitCode()
	if runErr != nil {
		if _, ok := runErr.(*exec.ExitError); !ok {
			return outBuf.String(), errBuf.String(), code, runErr
		}
	}
	return outBuf.String(), errBuf.String(), code, nil
}

func (c *DefaultCollaborators) Probe(language string, machine obj.MachineKind) (id, version string, err error) {
	if known, ok := c.KnownCompilers[language]; ok {
		return known[0], known[1], nil
	}
	return "unknown", "0", nil
}

// Query shells out to pkg-config; a missing binary or unknown package
// both surface as found=false, matching spec.md section 4.9's
// TryMethods treating either as "this method didn't find it."
func (c *DefaultCollaborators) Query(name string, static bool) (version string, cflags, libs []string, found bool) {
	if _, err := exec.LookPath("pkg-config"); err != nil {
		return "", nil, nil, false
	}
	if out, _, code, _ := c.Run([]string{"pkg-config", "--modversion", name}, nil, ""); code == 0 {
		version = strings.TrimSpace(out)
	} else {
		return "", nil, nil, false
	}
	cflagsArgs := []string{"pkg-config", "--cflags", name}
	libsArgs := []string{"pkg-config", "--libs", name}
	if static {
		libsArgs = []string{"pkg-config", "--libs", "--static", name}
	}
	if out, _, _, _ := c.Run(cflagsArgs, nil, ""); out != "" {
		cflags = strings.Fields(out)
	}
	if out, _, _, _ := c.Run(libsArgs, nil, ""); out != "" {
		libs = strings.Fields(out)
	}
	return version, cflags, libs, true
}
