package sema

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/telagod/kooix/internal/diag"
)

func TestAgentCleanDeclarationHasNoWarnings(t *testing.T) {
	r := analyzeSrc(t, `
agent worker(task: Text) -> Text
state {
	Start -> Working;
	Working -> Done;
}
policy {
	allow_tools ["search"];
	max_iterations 5;
}
loop {
	plan, act
	stop when state == "Done"
};
`)
	assert.False(t, hasCode(r, diag.AGT001))
	assert.False(t, hasCode(r, diag.AGT003))
	assert.False(t, hasCode(r, diag.AGT004))
}

func TestAgentAllowDenySameToolReportsAGT001(t *testing.T) {
	r := analyzeSrc(t, `
agent worker(task: Text) -> Text
state {
	Start -> Done;
}
policy {
	allow_tools ["search"];
	deny_tools ["search"];
	max_iterations 1;
}
loop {
	plan
	stop when state == "Done"
};
`)
	assert.True(t, hasCode(r, diag.AGT001))
	assert.True(t, hasCode(r, diag.AGT002))
}

func TestAgentUnreachableStateReportsAGT003(t *testing.T) {
	r := analyzeSrc(t, `
agent worker(task: Text) -> Text
state {
	Start -> Done;
	Orphan -> Done;
}
policy {
	allow_tools ["search"];
	max_iterations 1;
}
loop {
	plan
	stop when state == "Done"
};
`)
	assert.True(t, hasCode(r, diag.AGT003))
}

func TestAgentUnknownStopTargetReportsAGT004(t *testing.T) {
	r := analyzeSrc(t, `
agent worker(task: Text) -> Text
state {
	Start -> Working;
	Working -> Start;
}
policy {
	allow_tools ["search"];
}
loop {
	plan
	stop when state == "Finished"
};
`)
	assert.True(t, hasCode(r, diag.AGT004))
}

func TestAgentNoTerminationWitnessReportsAGT005(t *testing.T) {
	r := analyzeSrc(t, `
agent worker(task: Text) -> Text
state {
	Start -> Working;
	Working -> Start;
}
policy {
	allow_tools ["search"];
}
loop {
	plan
	stop when state == "Start"
};
`)
	assert.True(t, hasCode(r, diag.AGT005))
}

func TestAgentClosedLivenessCycleReportsAGT006(t *testing.T) {
	r := analyzeSrc(t, `
agent worker(task: Text) -> Text
state {
	A -> B;
	B -> A;
}
policy {
	allow_tools ["search"];
}
loop {
	plan
	stop when state == "C"
};
`)
	assert.True(t, hasCode(r, diag.AGT006))
	assert.True(t, hasCode(r, diag.AGT004))
}

func TestAgentUnknownPredicateRootReportsAGT007(t *testing.T) {
	r := analyzeSrc(t, `
agent worker(task: Text) -> Text
state {
	Start -> Done;
}
policy {
	allow_tools ["search"];
	max_iterations 1;
	human_in_loop when ghost == "Done";
}
loop {
	plan
	stop when state == "Done"
};
`)
	assert.True(t, hasCode(r, diag.AGT007))
}
