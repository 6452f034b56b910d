package diag

import (
	"encoding/json"
	"strings"

	"github.com/mattn/go-runewidth"

	"github.com/telagod/kooix/internal/source"
)

// RenderText formats one report the way a developer reading a terminal
// expects: the "<path>:<line>:<col>: <severity>: <message>" line, optionally
// followed by the offending source line and a caret underline. Caret
// placement accounts for wide runes via go-runewidth so multi-byte source
// text still lines up (spec.md ambient-stack: diagnostics are read by
// humans first).
func RenderText(r *Report, sm *source.Map) string {
	var b strings.Builder
	b.WriteString(r.String())
	if r.Span != nil && sm != nil {
		line := sm.Line(r.Span.Start.File, r.Span.Start.Line)
		if line != "" {
			b.WriteString("\n  ")
			b.WriteString(line)
			b.WriteString("\n  ")
			col := r.Span.Start.Column
			if col > len(line)+1 {
				col = len(line) + 1
			}
			width := 0
			for i, c := range line {
				if i >= col-1 {
					break
				}
				width += runewidth.RuneWidth(c)
			}
			b.WriteString(strings.Repeat(" ", width))
			b.WriteString("^")
		}
	}
	return b.String()
}

// RenderBagText renders every report in the bag, one per line-group,
// joined with blank lines, in the bag's (stable-sorted) order.
func RenderBagText(b *Bag, sm *source.Map) string {
	var out strings.Builder
	for i, r := range b.Reports() {
		if i > 0 {
			out.WriteString("\n")
		}
		out.WriteString(RenderText(r, sm))
		out.WriteString("\n")
	}
	return out.String()
}

// jsonReport is the wire shape for a single diagnostic inside the
// check-modules JSON object (spec.md §6 "Module-check JSON").
type jsonReport struct {
	Severity string `json:"severity"`
	Message  string `json:"message"`
	File     string `json:"file"`
	Line     int    `json:"line"`
	Col      int    `json:"col"`
}

func toJSONReport(r *Report) jsonReport {
	jr := jsonReport{Severity: r.Severity.String(), Message: r.Message}
	if r.Span != nil {
		jr.File = r.Span.Start.File
		jr.Line = r.Span.Start.Line
		jr.Col = r.Span.Start.Column
	}
	return jr
}

// ModuleResult is one entry of the "modules" array in check-modules JSON
// output.
type ModuleResult struct {
	Path        string
	Diagnostics []*Report
}

type jsonModule struct {
	Path        string       `json:"path"`
	Diagnostics []jsonReport `json:"diagnostics"`
}

// CheckModulesJSON is the stable shape documented in spec.md §6: a top-level
// ok flag, one entry per module with its diagnostics, and a flattened
// top-level errors array for CI summaries that only want the first
// diagnostic per module.
type CheckModulesJSON struct {
	OK      bool         `json:"ok"`
	Modules []jsonModule `json:"modules"`
	Errors  []jsonReport `json:"errors"`
}

// EncodeCheckModules builds the stable check-modules JSON object.
// "First diagnostic per module is used by CI summaries" (spec.md §6):
// Errors here is exactly that — one entry per module that has at least one
// diagnostic, taking its first.
func EncodeCheckModules(results []ModuleResult, strict bool) *CheckModulesJSON {
	out := &CheckModulesJSON{OK: true}
	for _, m := range results {
		jm := jsonModule{Path: m.Path}
		hasError := false
		for _, r := range m.Diagnostics {
			jm.Diagnostics = append(jm.Diagnostics, toJSONReport(r))
			if r.Severity == SevError {
				hasError = true
			}
		}
		out.Modules = append(out.Modules, jm)
		if len(m.Diagnostics) > 0 {
			out.Errors = append(out.Errors, toJSONReport(m.Diagnostics[0]))
		}
		if hasError || (strict && len(m.Diagnostics) > 0) {
			out.OK = false
		}
	}
	return out
}

func (c *CheckModulesJSON) ToJSON(pretty bool) (string, error) {
	var data []byte
	var err error
	if pretty {
		data, err = json.MarshalIndent(c, "", "  ")
	} else {
		data, err = json.Marshal(c)
	}
	if err != nil {
		return "", err
	}
	return string(data), nil
}
