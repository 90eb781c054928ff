package api

import (
	"encoding/json"
	"fmt"

	"github.com/okian/winequality/internal/domain/features"
	"github.com/santhosh-tekuri/jsonschema/v6"
)

const analyzeSchemaURL = "schema://analyze_request.json"

// analyzeSchema describes POST /api/v1/analyze bodies. Only types are checked
// here. Feature names and bounds are left to the collector so unknown names
// get their own error code and the out-of-range policy applies.
func analyzeSchema() map[string]any {
	props := make(map[string]any, features.Count)
	for _, s := range features.Specs() {
		props[s.Name] = map[string]any{
			"type":        "number",
			"description": s.DisplayLabel(),
		}
	}
	return map[string]any{
		"$schema":              "https://json-schema.org/draft/2020-12/schema",
		"type":                 "object",
		"required":             []string{"features"},
		"additionalProperties": false,
		"properties": map[string]any{
			"features": map[string]any{
				"type":                 "object",
				"additionalProperties": map[string]any{"type": "number"},
				"properties":           props,
			},
			"lang": map[string]any{
				"type":      "string",
				"maxLength": 35,
			},
		},
	}
}

func compileAnalyzeSchema() (*jsonschema.Schema, error) {
	// The compiler wants a decoded JSON value, not Go maps of typed slices.
	raw, err := json.Marshal(analyzeSchema())
	if err != nil {
		return nil, fmt.Errorf("marshal schema definition: %w", err)
	}
	var def any
	if err := json.Unmarshal(raw, &def); err != nil {
		return nil, fmt.Errorf("parse schema definition: %w", err)
	}
	c := jsonschema.NewCompiler()
	if err := c.AddResource(analyzeSchemaURL, def); err != nil {
		return nil, fmt.Errorf("add resource: %w", err)
	}
	compiled, err := c.Compile(analyzeSchemaURL)
	if err != nil {
		return nil, fmt.Errorf("compile: %w", err)
	}
	return compiled, nil
}
