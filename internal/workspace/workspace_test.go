package workspace

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/google/go-cmp/cmp/cmpopts"

	"github.com/muonlang/mbi/internal/obj"
)

type fakeCollaborators struct{}

func (fakeCollaborators) FindProgram(names []string, dirs []string) (string, bool) { return "", false }
func (fakeCollaborators) Run(argv []string, env []string, cwd string) (string, string, int, error) {
	return "", "", 0, nil
}
func (fakeCollaborators) Probe(language string, machine obj.MachineKind) (string, string, error) {
	return "gcc", "13.2.0", nil
}
func (fakeCollaborators) Query(name string, static bool) (string, []string, []string, bool) {
	return "", nil, nil, false
}

func writeFile(t *testing.T, dir, name, contents string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	if err := os.WriteFile(path, []byte(contents), 0o644); err != nil {
		t.Fatal(err)
	}
	return path
}

func TestConfigureRootMinimumProject(t *testing.T) {
	dir := t.TempDir()
	path := writeFile(t, dir, "meson.build", `project('demo', 'c', version: '1.0')
executable('app')
`)

	w := New(fakeCollaborators{}, dir, nil)
	src, err := os.ReadFile(path)
	if err != nil {
		t.Fatal(err)
	}
	manifest, err := w.ConfigureRoot(src, path)
	if err != nil {
		t.Fatalf("ConfigureRoot: %v", err)
	}

	want := []ProjectSummary{{
		Name:    "demo",
		Version: "1.0",
		Targets: []TargetSummary{{Name: "app", Kind: "executable"}},
	}}
	if diff := cmp.Diff(want, manifest.Projects, cmpopts.EquateEmpty()); diff != "" {
		t.Fatalf("manifest mismatch (-want +got):\n%s", diff)
	}
}

func TestConfigureRootAppliesOptionOverride(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, "meson.options", `option('enable_x', type: 'boolean', value: false)
`)
	path := writeFile(t, dir, "meson.build", `project('demo', 'c')
`)

	w := New(fakeCollaborators{}, dir, map[string]string{"enable_x": "true"})
	src, err := os.ReadFile(path)
	if err != nil {
		t.Fatal(err)
	}
	if _, err := w.ConfigureRoot(src, path); err != nil {
		t.Fatalf("ConfigureRoot: %v", err)
	}

	proj := w.Projects()[0]
	got := w.Store.GetString(proj.Options["enable_x"].Value)
	if got != "true" {
		t.Fatalf("expected enable_x override applied, got %q", got)
	}
}

func TestConfigureRootRejectsUnknownOverride(t *testing.T) {
	dir := t.TempDir()
	path := writeFile(t, dir, "meson.build", `project('demo', 'c')
`)

	w := New(fakeCollaborators{}, dir, map[string]string{"nonexistent": "1"})
	src, err := os.ReadFile(path)
	if err != nil {
		t.Fatal(err)
	}
	if _, err := w.ConfigureRoot(src, path); err == nil {
		t.Fatal("expected an error for an override with no matching option")
	}
}
