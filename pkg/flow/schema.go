package flow

import (
	"fmt"
	"strings"

	"github.com/xeipuuv/gojsonschema"
)

// graphSchema constrains the persisted editor graph: nodes need an id and a
// type, edges need a source and a target. Node types are deliberately not
// restricted to the known step kinds, unknown kinds are an execution-time
// concern.
const graphSchema = `{
	"type": "object",
	"required": ["nodes", "edges"],
	"properties": {
		"nodes": {
			"type": "array",
			"items": {
				"type": "object",
				"required": ["id", "type"],
				"properties": {
					"id":   {"type": "string", "minLength": 1},
					"type": {"type": "string", "minLength": 1}
				}
			}
		},
		"edges": {
			"type": "array",
			"items": {
				"type": "object",
				"required": ["source", "target"],
				"properties": {
					"id":     {"type": "string"},
					"source": {"type": "string", "minLength": 1},
					"target": {"type": "string", "minLength": 1}
				}
			}
		}
	}
}`

// ValidateGraph checks a nodes+edges document against the graph schema before
// it is persisted. The document is the decoded JSON body of a graph save
// request.
func ValidateGraph(document map[string]any) error {
	schemaLoader := gojsonschema.NewStringLoader(graphSchema)
	documentLoader := gojsonschema.NewGoLoader(document)

	result, err := gojsonschema.Validate(schemaLoader, documentLoader)
	if err != nil {
		return fmt.Errorf("failed to validate graph: %w", err)
	}

	if !result.Valid() {
		descriptions := make([]string, 0, len(result.Errors()))
		for _, desc := range result.Errors() {
			descriptions = append(descriptions, desc.String())
		}

		return fmt.Errorf("invalid graph: %s", strings.Join(descriptions, "; "))
	}

	return nil
}
