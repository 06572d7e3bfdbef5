package web

import (
	"fmt"
	"strings"

	"github.com/xeipuuv/gojsonschema"
)

// processDocumentSchema validates imported process documents before they
// enter the save pipeline, so structural mistakes in exported files are
// reported field by field instead of failing deep inside decoding.
const processDocumentSchema = `{
	"$schema": "http://json-schema.org/draft-07/schema#",
	"type": "object",
	"required": ["title", "steps"],
	"properties": {
		"title": {
			"type": "string",
			"minLength": 1,
			"maxLength": 120
		},
		"steps": {
			"type": "array",
			"minItems": 2,
			"items": {
				"type": "object",
				"required": ["id", "type"],
				"properties": {
					"id": {"type": "string", "minLength": 1},
					"label": {"type": "string"},
					"type": {"enum": ["start", "action", "decision", "finish"]},
					"department_id": {"type": "string"},
					"draft_department_name": {"type": "string"},
					"role_id": {"type": "string"},
					"draft_role_name": {"type": "string"},
					"yes_target_id": {"type": "string"},
					"no_target_id": {"type": "string"}
				},
				"additionalProperties": false
			}
		}
	},
	"additionalProperties": false
}`

// validateProcessDocument checks a raw import payload against the document
// schema and flattens the reported violations into one message.
func validateProcessDocument(document []byte) error {
	schemaLoader := gojsonschema.NewStringLoader(processDocumentSchema)
	documentLoader := gojsonschema.NewBytesLoader(document)

	result, err := gojsonschema.Validate(schemaLoader, documentLoader)
	if err != nil {
		return fmt.Errorf("failed to validate document: %w", err)
	}

	if !result.Valid() {
		details := make([]string, 0, len(result.Errors()))
		for _, desc := range result.Errors() {
			details = append(details, desc.String())
		}

		return fmt.Errorf("invalid process document: %s", strings.Join(details, "; "))
	}

	return nil
}
