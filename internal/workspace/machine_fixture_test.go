package workspace

import "testing"

func TestParseMachineFixture(t *testing.T) {
	data := []byte(`
system: linux
cpu: armv7
cpu_family: arm
endian: little
`)
	m, err := ParseMachineFixture(data)
	if err != nil {
		t.Fatal(err)
	}
	if m.System != "linux" || m.CPU != "armv7" || m.CPUFamily != "arm" {
		t.Fatalf("unexpected machine %+v", m)
	}
}

func TestParseMachineFixtureDefaultsEndian(t *testing.T) {
	data := []byte(`
system: windows
cpu: x86_64
cpu_family: x86_64
`)
	m, err := ParseMachineFixture(data)
	if err != nil {
		t.Fatal(err)
	}
	if m.Endian != "little" {
		t.Fatalf("expected default endian, got %q", m.Endian)
	}
}
