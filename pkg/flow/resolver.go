// Package flow derives the ordered step list an automation executes from its
// stored editor graph.
package flow

import "github.com/aferraz/driveline/pkg/models"

// Resolve walks the stored edge list in raw array order and emits the type of
// each edge's target node. This intentionally preserves edge order rather
// than topological order, and does not deduplicate: edges into disconnected
// subgraphs are flattened into one sequence. An automation with no edges
// resolves to an empty list, which the engine treats as a completed no-op
// run.
func Resolve(automation *models.Automation) []models.StepKind {
	steps := make([]models.StepKind, 0, len(automation.Edges))

	for _, edge := range automation.Edges {
		for _, node := range automation.Nodes {
			if node.ID == edge.Target {
				steps = append(steps, models.StepKind(node.Type))
			}
		}
	}

	return steps
}
