// SPDX-License-Identifier: Apache-2.0

// Package schema validates fetched service-configuration documents before
// they are written back to the workspace.
package schema

import (
	"encoding/json"
	"fmt"

	"github.com/xeipuuv/gojsonschema"
)

// serviceConfigSchema is the contract a fetched service configuration must
// satisfy before write-back. Endpoints are mandatory; everything else is
// service-specific and passed through.
var serviceConfigSchema = map[string]interface{}{
	"type":     "object",
	"required": []interface{}{"endpoint"},
	"properties": map[string]interface{}{
		"endpoint": map[string]interface{}{"type": "string", "minLength": 1},
		"timeout":  map[string]interface{}{"type": "integer", "minimum": 0},
		"labels": map[string]interface{}{
			"type":  "object",
			"additionalProperties": map[string]interface{}{"type": "string"},
		},
	},
}

// ValidateServiceConfig checks a service configuration document against the
// write-back contract.
func ValidateServiceConfig(config map[string]interface{}) error {
	return validate(serviceConfigSchema, config)
}

func validate(schema, document map[string]interface{}) error {
	schemaBytes, err := json.Marshal(schema)
	if err != nil {
		return fmt.Errorf("schema validation error: failed to serialize schema: %w", err)
	}
	documentBytes, err := json.Marshal(document)
	if err != nil {
		return fmt.Errorf("schema validation error: failed to serialize document: %w", err)
	}

	result, err := gojsonschema.Validate(
		gojsonschema.NewBytesLoader(schemaBytes),
		gojsonschema.NewBytesLoader(documentBytes),
	)
	if err != nil {
		return fmt.Errorf("schema validation error: %w", err)
	}

	if !result.Valid() {
		msg := "service configuration rejected:\n"
		for _, verr := range result.Errors() {
			msg += fmt.Sprintf("- %s\n", verr)
		}
		return fmt.Errorf("%s", msg)
	}
	return nil
}
