package reasoner

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/opencite/litgraph/model"
)

func TestRejectCyclesDropsRevisitedNodes(t *testing.T) {
	acyclic := model.Path{Nodes: []model.GraphEntity{{ID: "a"}, {ID: "b"}, {ID: "c"}}}
	cyclic := model.Path{Nodes: []model.GraphEntity{{ID: "a"}, {ID: "b"}, {ID: "a"}}}

	out := rejectCycles([]model.Path{acyclic, cyclic})
	assert.Len(t, out, 1)
	assert.Equal(t, "c", out[0].Nodes[2].ID)
}

func TestRejectCyclesKeepsEmptyInputEmpty(t *testing.T) {
	out := rejectCycles(nil)
	assert.Empty(t, out)
}
