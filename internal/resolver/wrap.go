package resolver

import (
	"strings"

	"gopkg.in/ini.v1"
)

// WrapFile is the parsed form of a .wrap file (spec.md section 4.10 /
// Glossary's "Wrap"): how to materialize a subproject's sources before
// its meson.build is evaluated.
type WrapFile struct {
	Directory string

	SourceURL      string
	SourceFilename string
	SourceHash     string

	PatchURL       string
	PatchFilename  string
	PatchHash      string
	PatchDirectory string

	// Provide lists dependency names this wrap's subproject satisfies,
	// queried through Provides. Dependency fallback does not consult it;
	// of a parsed wrap, the workspace uses only Directory.
	Provide []string
}

// ParseWrap reads a .wrap file's [wrap-file]/[provide] sections. The INI
// format (rather than a bespoke key=value parser) is the format every
// real .wrap file in the wild actually uses.
func ParseWrap(data []byte) (*WrapFile, error) {
	cfg, err := ini.Load(data)
	if err != nil {
		return nil, err
	}

	w := &WrapFile{}
	if sec, err := cfg.GetSection("wrap-file"); err == nil {
		w.Directory = sec.Key("directory").String()
		w.SourceURL = sec.Key("source_url").String()
		w.SourceFilename = sec.Key("source_filename").String()
		w.SourceHash = sec.Key("source_hash").String()
		w.PatchURL = sec.Key("patch_url").String()
		w.PatchFilename = sec.Key("patch_filename").String()
		w.PatchHash = sec.Key("patch_hash").String()
		w.PatchDirectory = sec.Key("patch_directory").String()
	}
	if sec, err := cfg.GetSection("provide"); err == nil {
		if key, err := sec.GetKey("dependency_names"); err == nil {
			w.Provide = splitCSV(key.String())
		}
	}
	return w, nil
}

func splitCSV(s string) []string {
	parts := strings.Split(s, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		p = strings.TrimSpace(p)
		if p != "" {
			out = append(out, p)
		}
	}
	return out
}

// Provides reports whether w's subproject declares name via its
// [provide] section.
func (w *WrapFile) Provides(name string) bool {
	for _, p := range w.Provide {
		if p == name {
			return true
		}
	}
	return false
}
