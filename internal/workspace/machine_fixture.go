package workspace

import (
	"gopkg.in/yaml.v3"

	"github.com/muonlang/mbi/internal/obj"
)

// MachineFixture is the on-disk shape of a cross-file's machine
// description, used by tests (and, for a real cross-build, a CLI
// --cross-file flag out of this module's scope) to seed a build
// machine distinct from the host running the evaluation.
type MachineFixture struct {
	System    string `yaml:"system"`
	CPU       string `yaml:"cpu"`
	CPUFamily string `yaml:"cpu_family"`
	Endian    string `yaml:"endian"`
}

// ParseMachineFixture decodes a YAML cross-file fragment into the
// obj.Machine shape machine() builtins render.
func ParseMachineFixture(data []byte) (*obj.Machine, error) {
	var f MachineFixture
	if err := yaml.Unmarshal(data, &f); err != nil {
		return nil, err
	}
	endian := f.Endian
	if endian == "" {
		endian = "little"
	}
	return &obj.Machine{Kind: obj.MachineBuild, System: f.System, CPU: f.CPU, CPUFamily: f.CPUFamily, Endian: endian}, nil
}

// SetBuildMachine replaces the build-machine handle, e.g. once a cross
// file has been parsed into a fixture (spec.md section 4.8's machine()
// accessor distinguishes host from build).
func (w *Workspace) SetBuildMachine(m *obj.Machine) {
	w.buildMachine = w.Store.NewMachine(m)
}
