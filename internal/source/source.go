// Package source implements the SourceMap and position/span types shared by
// every later compiler stage (spec.md §3 "Source & location").
package source

import "fmt"

// Pos is a single point in a source file.
type Pos struct {
	File   string
	Offset int // byte offset within File
	Line   int // 1-based
	Column int // 1-based, byte column
}

func (p Pos) String() string {
	return fmt.Sprintf("%s:%d:%d", p.File, p.Line, p.Column)
}

// IsZero reports whether p was never set.
func (p Pos) IsZero() bool {
	return p.File == "" && p.Offset == 0 && p.Line == 0 && p.Column == 0
}

// Span is a half-open byte range within exactly one file.
type Span struct {
	Start Pos
	End   Pos
}

func (s Span) String() string {
	if s.Start.File == s.End.File && s.Start.Line == s.End.Line {
		return fmt.Sprintf("%s:%d:%d-%d", s.Start.File, s.Start.Line, s.Start.Column, s.End.Column)
	}
	return fmt.Sprintf("%s-%s", s.Start, s.End)
}

// Join produces the smallest span covering both a and b.
func Join(a, b Span) Span {
	start, end := a.Start, b.End
	if b.Start.Offset < a.Start.Offset {
		start = b.Start
	}
	if a.End.Offset > b.End.Offset {
		end = a.End
	}
	return Span{Start: start, End: end}
}

// File holds one loaded source file's text under its logical id. Import
// aliases are recorded on the Map (its aliases field), not on File.
type File struct {
	ID   string // normalized logical file identifier (path)
	Text string
}

// Map is the ordered, immutable-once-built mapping from logical file id to
// text, built once per compilation request (spec.md §3 "Lifecycle").
type Map struct {
	order []string
	files map[string]*File
	// aliases maps an import alias to the file id it names, per the file
	// that declared the alias: aliases[importerFileID][alias] = targetFileID.
	aliases map[string]map[string]string
}

// NewMap creates an empty SourceMap.
func NewMap() *Map {
	return &Map{
		files:   make(map[string]*File),
		aliases: make(map[string]map[string]string),
	}
}

// Add registers file text under id. Re-adding an id that is already
// registered is a no-op: the existing File is returned and text is ignored
// (supports idempotent multi-import loads).
func (m *Map) Add(id, text string) *File {
	if f, ok := m.files[id]; ok {
		return f
	}
	f := &File{ID: id, Text: text}
	m.files[id] = f
	m.order = append(m.order, id)
	return f
}

// Get returns the file registered under id, if any.
func (m *Map) Get(id string) (*File, bool) {
	f, ok := m.files[id]
	return f, ok
}

// Order returns file ids in load order.
func (m *Map) Order() []string {
	out := make([]string, len(m.order))
	copy(out, m.order)
	return out
}

// BindAlias records that, within importerFileID, the name alias refers to
// targetFileID. Returns false if alias is already bound to a different
// target within the same importer (an alias-collision error upstream).
func (m *Map) BindAlias(importerFileID, alias, targetFileID string) bool {
	byAlias, ok := m.aliases[importerFileID]
	if !ok {
		byAlias = make(map[string]string)
		m.aliases[importerFileID] = byAlias
	}
	if existing, ok := byAlias[alias]; ok {
		return existing == targetFileID
	}
	byAlias[alias] = targetFileID
	return true
}

// ResolveAlias looks up the file id bound to alias within importerFileID.
func (m *Map) ResolveAlias(importerFileID, alias string) (string, bool) {
	byAlias, ok := m.aliases[importerFileID]
	if !ok {
		return "", false
	}
	id, ok := byAlias[alias]
	return id, ok
}

// Line extracts the 1-based source line n from file id, for diagnostic
// rendering. Returns "" if out of range.
func (m *Map) Line(id string, n int) string {
	f, ok := m.files[id]
	if !ok || n < 1 {
		return ""
	}
	line := 1
	start := 0
	for i, c := range f.Text {
		if line == n && c == '\n' {
			return f.Text[start:i]
		}
		if c == '\n' {
			line++
			start = i + 1
		}
	}
	if line == n {
		return f.Text[start:]
	}
	return ""
}
