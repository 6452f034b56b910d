// Package module implements module-aware mode (spec.md §4.1): each imported
// file is parsed into its own Program, the import relationships form a
// module graph, and cross-file qualified references are rewritten to a
// collision-free flattened internal name instead of being textually
// concatenated the way include mode does.
package module

import (
	"os"
	"path/filepath"
	"strings"

	"github.com/telagod/kooix/internal/ast"
	"github.com/telagod/kooix/internal/diag"
	"github.com/telagod/kooix/internal/graph"
	"github.com/telagod/kooix/internal/parser"
)

// searchUpLimit mirrors the loader's bounded search-up (spec.md §4.1).
const searchUpLimit = 8

const sourceSuffix = ".kooix"

// Unit is one loaded file: its own parsed Program plus the aliases it binds
// for its own imports (alias -> imported module's ID).
type Unit struct {
	ID      string // normalized absolute path, also the module graph node id
	Program *ast.Module
	Aliases map[string]string
}

// Graph is the result of module-aware loading: every reachable Unit plus a
// dependency digraph over their IDs.
type Graph struct {
	bag   *diag.Bag
	units map[string]*Unit
	deps  *graph.Digraph
}

// Load parses entryPath and every file it (transitively) imports, each into
// its own Unit, and builds the dependency graph between them. Cycle
// detection reuses internal/graph's Tarjan SCCs: any non-trivial SCC (or a
// trivial one with a self-loop) is reported as LDR002.
func Load(entryPath string, bag *diag.Bag) *Graph {
	g := &Graph{bag: bag, units: make(map[string]*Unit), deps: graph.New()}
	abs, err := filepath.Abs(entryPath)
	if err != nil {
		abs = entryPath
	}
	g.load(abs)
	g.checkCycles()
	return g
}

func (g *Graph) load(id string) {
	if _, ok := g.units[id]; ok {
		return
	}
	g.deps.AddNode(id)

	content, err := os.ReadFile(id)
	if err != nil {
		g.bag.Add(diag.Errorf(diag.LDR004, "module", nil, "failed to read %q: %s", id, err))
		return
	}

	prog := parser.ParseFile(string(content), id, id, g.bag)
	unit := &Unit{ID: id, Program: prog, Aliases: make(map[string]string)}
	g.units[id] = unit

	dir := filepath.Dir(id)
	for _, imp := range prog.Imports {
		target := resolvePath(imp.Path, dir)
		if target == "" {
			g.bag.Add(diag.Errorf(diag.LDR001, "module", nil, "import not found: %q (from %s)", imp.Path, id))
			continue
		}
		if imp.Alias != "" {
			if existing, ok := unit.Aliases[imp.Alias]; ok && existing != target {
				g.bag.Add(diag.Errorf(diag.LDR003, "module", nil, "alias %q bound to both %q and %q", imp.Alias, existing, target))
			} else {
				unit.Aliases[imp.Alias] = target
			}
		}
		g.deps.AddEdge(id, target)
		g.load(target)
	}
}

// checkCycles reports every non-trivial dependency cycle (an SCC with more
// than one member, or a single module that imports itself) as LDR002.
func (g *Graph) checkCycles() {
	for _, scc := range g.deps.SCCs() {
		if len(scc) > 1 || (len(scc) == 1 && g.deps.HasInternalEdge(scc)) {
			g.bag.Add(diag.Errorf(diag.LDR002, "module", nil, "import cycle among: %s", strings.Join(scc, ", ")))
		}
	}
}

// Units returns every loaded module, keyed by its normalized ID.
func (g *Graph) Units() map[string]*Unit { return g.units }

// Unit looks up a single loaded module by ID.
func (g *Graph) Unit(id string) (*Unit, bool) {
	u, ok := g.units[id]
	return u, ok
}

// TopoOrder returns module IDs in dependency order (imports before
// importers) via Kahn's algorithm over the reversed dependency edges —
// the same algorithm the teacher's module loader uses for its
// TopologicalSort, adapted to the shared graph.Digraph representation.
func (g *Graph) TopoOrder() []string {
	indegree := make(map[string]int)
	importers := make(map[string][]string)
	for _, n := range g.deps.Nodes() {
		indegree[n] = len(g.deps.Successors(n))
		for _, dep := range g.deps.Successors(n) {
			importers[dep] = append(importers[dep], n)
		}
	}

	var ready []string
	for _, n := range g.deps.Nodes() {
		if indegree[n] == 0 {
			ready = append(ready, n)
		}
	}

	var order []string
	for len(ready) > 0 {
		n := ready[0]
		ready = ready[1:]
		order = append(order, n)
		for _, imp := range importers[n] {
			indegree[imp]--
			if indegree[imp] == 0 {
				ready = append(ready, imp)
			}
		}
	}
	// Any node left with nonzero indegree sits in a cycle already reported
	// by checkCycles; append it so callers still see every module.
	for _, n := range g.deps.Nodes() {
		if indegree[n] > 0 {
			order = append(order, n)
		}
	}
	return order
}

// resolvePath duplicates the loader package's include-mode resolution
// contract: both modes share spec.md §4.1's path algorithm, they just differ
// in what they do with the result (concatenate vs. keep as separate Units).
func resolvePath(raw, importerDir string) string {
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
