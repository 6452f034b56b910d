// Package loader implements include-mode source expansion (spec.md §4.1):
// transitively read every imported file, depth-first, deduplicating by
// normalized path, and concatenate the result — each file prefixed by a
// marker comment identifying its origin — into a single source blob the
// lexer/parser treat as one file.
package loader

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/telagod/kooix/internal/diag"
	"github.com/telagod/kooix/internal/parser"
)

// searchUpLimit bounds how many parent directories are tried when a raw
// import path isn't found relative to the importer (spec.md §4.1: "the
// bootstrap runtime uses 8").
const searchUpLimit = 8

// sourceSuffix is the canonical Kooix source extension (spec.md §6).
const sourceSuffix = ".kooix"

// Result is the outcome of an include-mode load: the concatenated source
// text ready for the lexer, the load order of normalized file paths, and
// the alias table recorded from `import "path" as Alias;` directives
// (downstream semantic analysis accepts `Alias::name` without any source
// rewriting).
type Result struct {
	Text    string
	Order   []string
	Aliases map[string]string // alias -> normalized target file path
}

// Loader expands an entry file's import graph in include mode.
type Loader struct {
	bag     *diag.Bag
	visited map[string]bool
	texts   map[string]string
	order   []string
	aliases map[string]string
}

// New creates a Loader. Diagnostics (file-not-found, IO failure, import
// cycle, alias collision — LDR001-004) accumulate into bag.
func New(bag *diag.Bag) *Loader {
	return &Loader{
		bag:     bag,
		visited: make(map[string]bool),
		texts:   make(map[string]string),
		aliases: make(map[string]string),
	}
}

// Load expands entryPath transitively and returns the concatenated result.
func (l *Loader) Load(entryPath string) Result {
	abs, err := filepath.Abs(entryPath)
	if err != nil {
		abs = entryPath
	}
	l.visit(abs, filepath.Dir(abs), nil)

	var b strings.Builder
	for _, id := range l.order {
		fmt.Fprintf(&b, "// --- kooix module: %s ---\n", id)
		b.WriteString(l.texts[id])
		if !strings.HasSuffix(l.texts[id], "\n") {
			b.WriteByte('\n')
		}
	}
	return Result{Text: b.String(), Order: append([]string{}, l.order...), Aliases: l.aliases}
}

// visit loads one file (already resolved to an absolute path) and recurses
// into its imports. stack tracks the current depth-first chain for cycle
// detection (LDR002); visited short-circuits files already fully loaded.
func (l *Loader) visit(resolved, importerDir string, stack []string) {
	for _, s := range stack {
		if s == resolved {
			l.bag.Add(diag.Errorf(diag.LDR002, "loader", nil, "import cycle: %s", strings.Join(append(stack, resolved), " -> ")))
			return
		}
	}
	if l.visited[resolved] {
		return
	}
	l.visited[resolved] = true

	content, err := os.ReadFile(resolved)
	if err != nil {
		l.bag.Add(diag.Errorf(diag.LDR004, "loader", nil, "failed to read %q: %s", resolved, err))
		return
	}
	text := string(content)
	l.texts[resolved] = text
	l.order = append(l.order, resolved)

	// Parse with a throwaway bag: at this stage we only need the import
	// list, not full diagnostics (the real parse happens once over the
	// final concatenated text).
	mod := parser.ParseFile(text, resolved, resolved, diag.NewBag())
	dir := filepath.Dir(resolved)
	for _, imp := range mod.Imports {
		target := l.resolvePath(imp.Path, dir)
		if target == "" {
			l.bag.Add(diag.Errorf(diag.LDR001, "loader", nil, "import not found: %q (from %s)", imp.Path, resolved))
			continue
		}
		if imp.Alias != "" {
			if existing, ok := l.aliases[imp.Alias]; ok && existing != target {
				l.bag.Add(diag.Errorf(diag.LDR003, "loader", nil, "alias %q bound to both %q and %q", imp.Alias, existing, target))
			} else {
				l.aliases[imp.Alias] = target
			}
		}
		l.visit(target, filepath.Dir(target), append(stack, resolved))
	}
}

// resolvePath implements spec.md §4.1's resolution contract: the raw path
// is appended to the importer's directory; if the result lacks an
// extension, the canonical suffix is appended; if still not found, search
// up the directory tree a bounded number of levels.
func (l *Loader) resolvePath(raw, importerDir string) string {
	candidate := raw
	if filepath.Ext(candidate) == "" {
		candidate += sourceSuffix
	}

	try := filepath.Clean(filepath.Join(importerDir, candidate))
	if fileExists(try) {
		return try
	}

	dir := importerDir
	for i := 0; i < searchUpLimit; i++ {
		parent := filepath.Dir(dir)
		if parent == dir {
			break
		}
		dir = parent
		try := filepath.Clean(filepath.Join(dir, candidate))
		if fileExists(try) {
			return try
		}
	}
	return ""
}

func fileExists(path string) bool {
	info, err := os.Stat(path)
	return err == nil && !info.IsDir()
}
