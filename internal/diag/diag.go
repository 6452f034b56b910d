package diag

import (
	"encoding/json"
	"fmt"
	"sort"

	"github.com/telagod/kooix/internal/source"
)

// Severity classifies a diagnostic.
type Severity int

const (
	SevWarning Severity = iota
	SevError
)

func (s Severity) String() string {
	if s == SevError {
		return "error"
	}
	return "warning"
}

func (s Severity) MarshalJSON() ([]byte, error) {
	return json.Marshal(s.String())
}

// Schema is the stable envelope version for JSON-encoded diagnostics.
const Schema = "kooix.diag/v1"

// Report is the canonical structured diagnostic. Every stage of the
// pipeline produces these instead of bare errors (spec.md §7).
type Report struct {
	Schema   string         `json:"schema"`
	Code     string         `json:"code"`
	Phase    string         `json:"phase"`
	Severity Severity       `json:"severity"`
	Message  string         `json:"message"`
	Span     *source.Span   `json:"span,omitempty"`
	Data     map[string]any `json:"data,omitempty"`
}

func (r *Report) Error() string {
	return r.String()
}

// String renders the textual form: "<path>:<line>:<col>: <severity>: <message>".
func (r *Report) String() string {
	if r.Span != nil {
		return fmt.Sprintf("%s: %s: %s", r.Span.Start, r.Severity, r.Message)
	}
	return fmt.Sprintf("%s: %s (%s)", r.Severity, r.Message, r.Code)
}

// New builds a Report with Schema pre-filled.
func New(code, phase string, sev Severity, span *source.Span, msg string, data map[string]any) *Report {
	return &Report{
		Schema:   Schema,
		Code:     code,
		Phase:    phase,
		Severity: sev,
		Message:  msg,
		Span:     span,
		Data:     data,
	}
}

func Errorf(code, phase string, span *source.Span, format string, args ...any) *Report {
	return New(code, phase, SevError, span, fmt.Sprintf(format, args...), nil)
}

func Warnf(code, phase string, span *source.Span, format string, args ...any) *Report {
	return New(code, phase, SevWarning, span, fmt.Sprintf(format, args...), nil)
}

// Bag accumulates diagnostics across a pipeline run. It is passed explicitly
// through the stages; there is no global mutable diagnostic state
// (spec.md §9 "Global mutable state: there is none").
type Bag struct {
	reports []*Report
}

func NewBag() *Bag { return &Bag{} }

func (b *Bag) Add(r *Report) {
	if r == nil {
		return
	}
	b.reports = append(b.reports, r)
}

func (b *Bag) AddAll(rs []*Report) {
	for _, r := range rs {
		b.Add(r)
	}
}

// Merge appends another bag's reports in order.
func (b *Bag) Merge(other *Bag) {
	if other == nil {
		return
	}
	b.reports = append(b.reports, other.reports...)
}

func (b *Bag) Reports() []*Report {
	out := make([]*Report, len(b.reports))
	copy(out, b.reports)
	return out
}

func (b *Bag) HasErrors() bool {
	for _, r := range b.reports {
		if r.Severity == SevError {
			return true
		}
	}
	return false
}

func (b *Bag) ErrorCount() int {
	n := 0
	for _, r := range b.reports {
		if r.Severity == SevError {
			n++
		}
	}
	return n
}

// Truncate discards every report added after index n, for the parser's
// speculative backtracking: a failed speculative parse rewinds both the
// lexer and any diagnostics it raised along the way.
func (b *Bag) Truncate(n int) {
	if n < len(b.reports) {
		b.reports = b.reports[:n]
	}
}

func (b *Bag) WarningCount() int {
	return len(b.reports) - b.ErrorCount()
}

// StrictOK reports whether the pipeline should be considered successful,
// given --strict-warnings: when strict is true, any warning fails the run.
func (b *Bag) StrictOK(strict bool) bool {
	if b.HasErrors() {
		return false
	}
	if strict && b.WarningCount() > 0 {
		return false
	}
	return true
}

// SortStable orders reports by file, then line, then column, keeping
// insertion order for ties — used before textual/JSON rendering so output
// is deterministic regardless of which stage raised which diagnostic first.
func (b *Bag) SortStable() {
	sort.SliceStable(b.reports, func(i, j int) bool {
		si, sj := b.reports[i].Span, b.reports[j].Span
		if si == nil || sj == nil {
			return sj != nil && si == nil
		}
		if si.Start.File != sj.Start.File {
			return si.Start.File < sj.Start.File
		}
		if si.Start.Line != sj.Start.Line {
			return si.Start.Line < sj.Start.Line
		}
		return si.Start.Column < sj.Start.Column
	})
}
