package flow

import (
	"testing"

	"github.com/aferraz/driveline/pkg/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestResolve_EmitsKindsInEdgeOrder(t *testing.T) {
	automation := &models.Automation{
		Nodes: []models.GraphNode{
			{ID: "trigger", Type: "Trigger"},
			{ID: "n1", Type: "Slack"},
			{ID: "n2", Type: "Wait"},
			{ID: "n3", Type: "Notion"},
		},
		Edges: []models.GraphEdge{
			{Source: "trigger", Target: "n1"},
			{Source: "n1", Target: "n2"},
			{Source: "n2", Target: "n3"},
		},
	}

	steps := Resolve(automation)

	assert.Equal(t, []models.StepKind{
		models.StepKindSlack,
		models.StepKindWait,
		models.StepKindNotion,
	}, steps)
}

func TestResolve_PreservesRawEdgeOrderNotTopology(t *testing.T) {
	// Edge order deliberately disagrees with graph order.
	automation := &models.Automation{
		Nodes: []models.GraphNode{
			{ID: "trigger", Type: "Trigger"},
			{ID: "n1", Type: "Discord"},
			{ID: "n2", Type: "Slack"},
		},
		Edges: []models.GraphEdge{
			{Source: "n1", Target: "n2"},
			{Source: "trigger", Target: "n1"},
		},
	}

	steps := Resolve(automation)

	assert.Equal(t, []models.StepKind{models.StepKindSlack, models.StepKindDiscord}, steps)
}

func TestResolve_FlattensDisconnectedSubgraphsWithoutDedup(t *testing.T) {
	automation := &models.Automation{
		Nodes: []models.GraphNode{
			{ID: "a", Type: "Slack"},
			{ID: "b", Type: "Slack"},
		},
		Edges: []models.GraphEdge{
			{Source: "x", Target: "a"},
			{Source: "y", Target: "b"},
			{Source: "z", Target: "a"},
		},
	}

	steps := Resolve(automation)

	assert.Len(t, steps, 3)
}

func TestResolve_NoEdges(t *testing.T) {
	steps := Resolve(&models.Automation{
		Nodes: []models.GraphNode{{ID: "trigger", Type: "Trigger"}},
	})

	assert.Empty(t, steps)
}

func TestResolve_EdgeTargetWithoutNodeIsSkipped(t *testing.T) {
	automation := &models.Automation{
		Nodes: []models.GraphNode{{ID: "n1", Type: "Notion"}},
		Edges: []models.GraphEdge{
			{Source: "trigger", Target: "n1"},
			{Source: "n1", Target: "ghost"},
		},
	}

	steps := Resolve(automation)

	assert.Equal(t, []models.StepKind{models.StepKindNotion}, steps)
}

func TestResolve_UnknownKindsFlowThrough(t *testing.T) {
	automation := &models.Automation{
		Nodes: []models.GraphNode{{ID: "n1", Type: "Fax"}},
		Edges: []models.GraphEdge{{Source: "trigger", Target: "n1"}},
	}

	steps := Resolve(automation)

	require.Len(t, steps, 1)
	assert.False(t, steps[0].Known())
}

func TestValidateGraph(t *testing.T) {
	valid := map[string]any{
		"nodes": []any{
			map[string]any{"id": "n1", "type": "Slack"},
		},
		"edges": []any{
			map[string]any{"source": "trigger", "target": "n1"},
		},
	}
	assert.NoError(t, ValidateGraph(valid))

	missingTarget := map[string]any{
		"nodes": []any{map[string]any{"id": "n1", "type": "Slack"}},
		"edges": []any{map[string]any{"source": "trigger"}},
	}
	assert.Error(t, ValidateGraph(missingTarget))

	missingEdges := map[string]any{
		"nodes": []any{},
	}
	assert.Error(t, ValidateGraph(missingEdges))
}
