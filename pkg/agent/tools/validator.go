package tools

import (
	"encoding/json"
	"fmt"

	"github.com/pkg/errors"
	"github.com/xeipuuv/gojsonschema"
)

// ValidationError describes the first constraint violated by a proposed
// tool call's arguments.
type ValidationError struct {
	Tool       string
	Constraint string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("invalid arguments for %s: %s", e.Tool, e.Constraint)
}

// ValidatedArguments is the raw JSON of an argument payload that passed
// schema validation. It is never mutated after validation.
type ValidatedArguments json.RawMessage

type compiledSchema struct {
	schema *gojsonschema.Schema
}

func compileSchema(params any) (compiledSchema, error) {
	if params == nil {
		return compiledSchema{}, nil
	}
	raw, err := json.Marshal(params)
	if err != nil {
		return compiledSchema{}, errors.Wrap(err, "marshal schema")
	}
	// The reflector stamps a 2020-12 $schema marker; gojsonschema only speaks
	// the older drafts, and the generated schemas use none of the newer keywords.
	var doc map[string]any
	if err := json.Unmarshal(raw, &doc); err == nil {
		delete(doc, "$schema")
		if cleaned, err := json.Marshal(doc); err == nil {
			raw = cleaned
		}
	}
	schema, err := gojsonschema.NewSchema(gojsonschema.NewBytesLoader(raw))
	if err != nil {
		return compiledSchema{}, errors.Wrap(err, "compile schema")
	}
	return compiledSchema{schema: schema}, nil
}

// Validate checks raw argument JSON against the tool's parameter schema:
// required-property presence, type conformance, and enum membership. No
// coercion is attempted. The first violated constraint is reported.
func Validate(def *ToolDefinition, raw json.RawMessage) (ValidatedArguments, error) {
	if def == nil {
		return nil, errors.New("nil tool definition")
	}
	if len(raw) == 0 {
		raw = json.RawMessage("{}")
	}
	if !json.Valid(raw) {
		return nil, &ValidationError{Tool: def.Name, Constraint: "arguments are not valid JSON"}
	}
	if def.compiled.schema == nil {
		// Definitions registered through a CatalogBuilder always carry a
		// compiled schema; a bare definition accepts any object.
		return ValidatedArguments(raw), nil
	}
	result, err := def.compiled.schema.Validate(gojsonschema.NewBytesLoader(raw))
	if err != nil {
		return nil, &ValidationError{Tool: def.Name, Constraint: err.Error()}
	}
	if !result.Valid() {
		desc := "schema violation"
		if errs := result.Errors(); len(errs) > 0 {
			desc = errs[0].String()
		}
		return nil, &ValidationError{Tool: def.Name, Constraint: desc}
	}
	return ValidatedArguments(raw), nil
}
