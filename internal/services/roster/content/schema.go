package content

import (
	_ "embed"
	"encoding/json"
	"fmt"

	"github.com/santhosh-tekuri/jsonschema/v5"
	"gopkg.in/yaml.v3"
)

//go:embed catalog.schema.json
var schemaJSON string

var documentSchema = jsonschema.MustCompileString("catalog.schema.json", schemaJSON)

// validateDocument checks raw YAML against the embedded catalog schema.
// The decoded value is normalized through JSON so the validator sees plain
// JSON types regardless of how the YAML library decoded scalars.
func validateDocument(raw []byte) error {
	var decoded any
	if err := yaml.Unmarshal(raw, &decoded); err != nil {
		return fmt.Errorf("decode catalog document: %w", err)
	}

	normalized, err := json.Marshal(decoded)
	if err != nil {
		return fmt.Errorf("normalize catalog document: %w", err)
	}
	var value any
	if err := json.Unmarshal(normalized, &value); err != nil {
		return fmt.Errorf("normalize catalog document: %w", err)
	}

	if err := documentSchema.Validate(value); err != nil {
		return fmt.Errorf("catalog schema: %w", err)
	}
	return nil
}
