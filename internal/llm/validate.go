package llm

import (
	"bytes"
	"encoding/json"
	"fmt"

	"github.com/santhosh-tekuri/jsonschema/v5"
)

const schemaResource = SchemaName + ".json"

// CompileSchema turns the map form sent to the model into a validator. The
// extractor compiles its schema once and reuses it for every reply.
func CompileSchema(schemaMap map[string]any) (*jsonschema.Schema, error) {
	b, err := json.Marshal(schemaMap)
	if err != nil {
		return nil, fmt.Errorf("marshal schema: %w", err)
	}
	compiler := jsonschema.NewCompiler()
	if err := compiler.AddResource(schemaResource, bytes.NewReader(b)); err != nil {
		return nil, fmt.Errorf("add schema: %w", err)
	}
	schema, err := compiler.Compile(schemaResource)
	if err != nil {
		return nil, fmt.Errorf("compile schema: %w", err)
	}
	return schema, nil
}

// ValidateReply checks a model reply against the compiled invoice schema.
func ValidateReply(schema *jsonschema.Schema, reply []byte) error {
	var v any
	if err := json.Unmarshal(reply, &v); err != nil {
		return fmt.Errorf("reply is not JSON: %w", err)
	}
	if err := schema.Validate(v); err != nil {
		return fmt.Errorf("reply does not match %s: %w", SchemaName, err)
	}
	return nil
}
