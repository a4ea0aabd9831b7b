// Package schema describes the JSON document produced for one prescription
// and validates documents against it before they are stored.
package schema

import (
	"bytes"
	"encoding/json"
	"fmt"
	"sync"

	"github.com/santhosh-tekuri/jsonschema/v5"

	"github.com/joseph-ayodele/rx-extractor/internal/entity"
)

// BuildResultJSONSchema returns a JSON-Schema (draft 2020-12 subset) for a
// validated extraction result as a generic map.
func BuildResultJSONSchema() map[string]any {
	medicine := map[string]any{
		"type":                 "object",
		"additionalProperties": false,
		"properties": map[string]any{
			"name":         map[string]any{"type": "string", "minLength": 1},
			"dosage":       map[string]any{"type": "string", "minLength": 1},
			"frequency":    stringProp(),
			"duration":     stringProp(),
			"composition":  stringProp(),
			"manufacturer": stringProp(),
			"side_effects": stringProp(),
		},
		"required": []string{"name", "dosage", "frequency", "duration", "composition", "manufacturer", "side_effects"},
	}

	return map[string]any{
		"type":                 "object",
		"additionalProperties": false,
		"properties": map[string]any{
			"patient_name":    nullableString(),
			"doctor_name":     nullableString(),
			"date":            nullableString(),
			"patient_address": nullableString(),
			"medicines":       map[string]any{"type": "array", "items": medicine},
			"invalid_meds":    map[string]any{"type": "array", "items": stringProp()},
		},
		"required": []string{"patient_name", "doctor_name", "date", "patient_address", "medicines", "invalid_meds"},
	}
}

func stringProp() map[string]any {
	return map[string]any{"type": "string"}
}

func nullableString() map[string]any {
	return map[string]any{"type": []string{"string", "null"}}
}

// ValidateJSONAgainstSchema validates "data" against "schemaMap".
func ValidateJSONAgainstSchema(schemaMap map[string]any, data []byte) error {
	schema, err := compile(schemaMap)
	if err != nil {
		return err
	}
	return validate(schema, data)
}

var (
	resultOnce   sync.Once
	resultSchema *jsonschema.Schema
	resultErr    error
)

// MarshalResult serializes v and checks it against BuildResultJSONSchema.
func MarshalResult(v entity.ValidatedResult) ([]byte, error) {
	resultOnce.Do(func() {
		resultSchema, resultErr = compile(BuildResultJSONSchema())
	})
	if resultErr != nil {
		return nil, resultErr
	}
	if v.Medicines == nil {
		v.Medicines = []entity.ResolvedMedicine{}
	}
	if v.InvalidMeds == nil {
		v.InvalidMeds = []string{}
	}
	b, err := json.Marshal(v)
	if err != nil {
		return nil, fmt.Errorf("marshal result: %w", err)
	}
	if err := validate(resultSchema, b); err != nil {
		return nil, err
	}
	return b, nil
}

func compile(schemaMap map[string]any) (*jsonschema.Schema, error) {
	b, err := json.Marshal(schemaMap)
	if err != nil {
		return nil, fmt.Errorf("marshal schema: %w", err)
	}
	compiler := jsonschema.NewCompiler()
	if err := compiler.AddResource("schema.json", bytes.NewReader(b)); err != nil {
		return nil, fmt.Errorf("add schema: %w", err)
	}
	schema, err := compiler.Compile("schema.json")
	if err != nil {
		return nil, fmt.Errorf("compile schema: %w", err)
	}
	return schema, nil
}

func validate(schema *jsonschema.Schema, data []byte) error {
	var v any
	if err := json.Unmarshal(data, &v); err != nil {
		return fmt.Errorf("unmarshal data: %w", err)
	}
	if err := schema.Validate(v); err != nil {
		return fmt.Errorf("json does not match schema: %w", err)
	}
	return nil
}
