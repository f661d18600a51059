// Command mbi is a minimal demonstration front end for the evaluation
// engine: it loads one build file, drives a Workspace through
// ConfigureRoot, and prints the resulting manifest. It is not the CLI
// dispatcher spec.md's Non-goals exclude — no option-file discovery
// beyond the root directory, no backend selection, a single -D flag
// form only.
//
// Grounded on the teacher's cmd/ailang/main.go for the flag-parsed
// subcommand shape and fatih/color's SprintFunc pattern for severity-
// colored diagnostic output.
package main

import (
	"flag"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/fatih/color"

	"github.com/muonlang/mbi/internal/diag"
	"github.com/muonlang/mbi/internal/workspace"
)

var (
	green  = color.New(color.FgGreen).SprintFunc()
	red    = color.New(color.FgRed).SprintFunc()
	yellow = color.New(color.FgYellow).SprintFunc()
	bold   = color.New(color.Bold).SprintFunc()
)

// Exit codes: 0 a clean configure, 1 the build description reported
// diagnostics (a TypeError, UnknownFunction, DepNotFound, ...), 2 the
// front end itself couldn't proceed (bad usage, file not readable).
const (
	exitOK = iota
	exitDiagnostics
	exitUsage
)

func main() {
	var defineFlags stringList
	flag.Var(&defineFlags, "D", "override an option, key=value (repeatable)")
	flag.Parse()

	if flag.NArg() != 1 {
		fmt.Fprintln(os.Stderr, "usage: mbi [-D key=value ...] <meson.build>")
		os.Exit(exitUsage)
	}
	path := flag.Arg(0)

	overrides, err := defineFlags.toMap()
	if err != nil {
		fmt.Fprintf(os.Stderr, "%s: %s\n", red("error"), err)
		os.Exit(exitUsage)
	}

	src, err := os.ReadFile(path)
	if err != nil {
		fmt.Fprintf(os.Stderr, "%s: %s\n", red("error"), err)
		os.Exit(exitUsage)
	}

	w := workspace.New(workspace.NewDefaultCollaborators(), filepath.Dir(path), overrides)
	manifest, err := w.ConfigureRoot(src, path)
	if err != nil {
		printReport(w, err)
		os.Exit(exitDiagnostics)
	}
	printManifest(manifest)
	os.Exit(exitOK)
}

func printReport(w *workspace.Workspace, err error) {
	if rep, ok := diag.AsReport(err); ok {
		pos := w.Reporter.Resolve(rep)
		fmt.Fprintf(os.Stderr, "%s: %s:%d:%d: %s (%s)\n", red("error"), pos.Pos.File, pos.Line, pos.Column, pos.Message, pos.Code)
		return
	}
	fmt.Fprintf(os.Stderr, "%s: %s\n", red("error"), err)
}

func printManifest(m *workspace.Manifest) {
	for _, p := range m.Projects {
		label := p.Name
		if p.IsSubproject {
			label = "  " + label + " (subproject)"
		}
		fmt.Printf("%s %s %s\n", bold(label), yellow(p.Version), green("configured"))
		for _, t := range p.Targets {
			fmt.Printf("  target  %-24s %s\n", t.Name, t.Kind)
		}
		if p.TestCount > 0 {
			fmt.Printf("  tests     %d\n", p.TestCount)
		}
		if p.InstallCount > 0 {
			fmt.Printf("  installs  %d\n", p.InstallCount)
		}
		for _, name := range p.Options {
			fmt.Printf("  option    %s\n", name)
		}
	}
}

// stringList accumulates repeated -D flags (flag.Value).
type stringList []string

func (s *stringList) String() string { return strings.Join(*s, ",") }

func (s *stringList) Set(v string) error {
	*s = append(*s, v)
	return nil
}

func (s stringList) toMap() (map[string]string, error) {
	out := make(map[string]string, len(s))
	for _, kv := range s {
		idx := strings.IndexByte(kv, '=')
		if idx < 0 {
			return nil, fmt.Errorf("invalid -D %q: expected key=value", kv)
		}
		out[kv[:idx]] = kv[idx+1:]
	}
	return out, nil
}
