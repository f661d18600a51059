// Package diag implements the structured, source-location-anchored
// diagnostic reporter specified in spec.md section 4.11 / section 7. It is
// callable from any component; line/column are recovered on demand from
// the currently-executing source buffer rather than carried by every
// token.
package diag

import (
	"encoding/json"
	"errors"
	"fmt"

	"github.com/muonlang/mbi/internal/ast"
)

// Report is the canonical structured diagnostic. Every error kind in
// spec.md section 7 is produced as a Report with a phase-coded Code.
type Report struct {
	Schema  string         `json:"schema"`
	Code    string         `json:"code"`
	Phase   string         `json:"phase"`
	Message string         `json:"message"`
	Pos     ast.Pos        `json:"pos"`
	Line    int            `json:"line,omitempty"`
	Column  int            `json:"column,omitempty"`
	Data    map[string]any `json:"data,omitempty"`
}

// ReportError wraps a Report so it survives errors.As() unwrapping through
// ordinary Go error-handling code.
type ReportError struct {
	Rep *Report
}

func (e *ReportError) Error() string {
	if e.Rep == nil {
		return "unknown diagnostic"
	}
	return fmt.Sprintf("%s: %s (%s)", e.Rep.Code, e.Rep.Message, e.Rep.Pos)
}

// AsReport extracts a *Report from an error chain.
func AsReport(err error) (*Report, bool) {
	var re *ReportError
	if errors.As(err, &re) {
		return re.Rep, true
	}
	return nil, false
}

// Wrap turns a Report into an error.
func Wrap(r *Report) error {
	if r == nil {
		return nil
	}
	return &ReportError{Rep: r}
}

// ToJSON renders r for machine consumption (e.g. an --error-format=json
// CLI mode, out of scope here but a natural consumer of this shape).
func (r *Report) ToJSON() (string, error) {
	b, err := json.Marshal(r)
	return string(b), err
}

// New builds a bare Report; callers normally use the typed constructors in
// codes.go instead.
func New(code, phase, message string, pos ast.Pos) *Report {
	return &Report{Schema: "mbi.diag/v1", Code: code, Phase: phase, Message: message, Pos: pos}
}

func (r *Report) WithData(key string, value any) *Report {
	if r.Data == nil {
		r.Data = make(map[string]any)
	}
	r.Data[key] = value
	return r
}
