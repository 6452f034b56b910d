package graph

import (
	"sort"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func sccSets(sccs [][]string) []map[string]bool {
	out := make([]map[string]bool, len(sccs))
	for i, scc := range sccs {
		m := make(map[string]bool, len(scc))
		for _, v := range scc {
			m[v] = true
		}
		out[i] = m
	}
	return out
}

func containsSet(sets []map[string]bool, members ...string) bool {
	for _, s := range sets {
		if len(s) != len(members) {
			continue
		}
		all := true
		for _, m := range members {
			if !s[m] {
				all = false
				break
			}
		}
		if all {
			return true
		}
	}
	return false
}

func TestDigraphAddNodeDedup(t *testing.T) {
	g := New()
	g.AddNode("a")
	g.AddNode("a")
	g.AddNode("b")
	assert.Equal(t, []string{"a", "b"}, g.Nodes())
}

func TestDigraphSCCsSimpleCycle(t *testing.T) {
	g := New()
	g.AddEdge("a", "b")
	g.AddEdge("b", "c")
	g.AddEdge("c", "a")

	sccs := g.SCCs()
	require.Len(t, sccs, 1)
	sets := sccSets(sccs)
	assert.True(t, containsSet(sets, "a", "b", "c"))
}

func TestDigraphSCCsAcyclic(t *testing.T) {
	g := New()
	g.AddEdge("a", "b")
	g.AddEdge("b", "c")

	sccs := g.SCCs()
	require.Len(t, sccs, 3)
	for _, scc := range sccs {
		assert.Len(t, scc, 1)
	}
}

func TestDigraphHasInternalExternalEdge(t *testing.T) {
	g := New()
	g.AddEdge("a", "b")
	g.AddEdge("b", "a")
	g.AddEdge("b", "c")

	var cycle []string
	for _, scc := range g.SCCs() {
		if len(scc) == 2 {
			cycle = scc
		}
	}
	require.NotNil(t, cycle)
	assert.True(t, g.HasInternalEdge(cycle))
	assert.True(t, g.HasExternalEdge(cycle))
}

func TestDigraphSelfLoopIsTrivialCycle(t *testing.T) {
	g := New()
	g.AddEdge("a", "a")

	sccs := g.SCCs()
	require.Len(t, sccs, 1)
	assert.True(t, g.HasInternalEdge(sccs[0]))
	assert.False(t, g.HasExternalEdge(sccs[0]))
}

func TestDigraphReachable(t *testing.T) {
	g := New()
	g.AddEdge("a", "b")
	g.AddEdge("b", "c")
	g.AddNode("d")

	reached := g.Reachable("a")
	var names []string
	for n := range reached {
		names = append(names, n)
	}
	sort.Strings(names)
	assert.Equal(t, []string{"a", "b", "c"}, names)
	assert.False(t, reached["d"])
}

func TestDigraphReachableUnknownStart(t *testing.T) {
	g := New()
	g.AddNode("a")
	assert.Empty(t, g.Reachable("ghost"))
}

func TestDigraphHas(t *testing.T) {
	g := New()
	g.AddNode("a")
	assert.True(t, g.Has("a"))
	assert.False(t, g.Has("b"))
}
