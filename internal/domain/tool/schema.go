package tool

import (
	"encoding/json"

	"github.com/invopop/jsonschema"
)

// generateSchema reflects a JSON schema for T from its struct tags. Fields
// without ",omitempty" become required; descriptions come from
// jsonschema_description tags. Runs at registry construction, so a bad
// argument struct fails loudly at startup rather than mid-turn.
func generateSchema[T any]() json.RawMessage {
	reflector := jsonschema.Reflector{
		AllowAdditionalProperties: false,
		DoNotReference:            true,
	}
	var v T
	schema := reflector.Reflect(v)
	schema.Version = "" // the tool menu wants a bare object schema, not a document

	raw, err := json.Marshal(schema)
	if err != nil {
		panic("tool: reflect schema: " + err.Error())
	}
	return raw
}
