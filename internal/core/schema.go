package core

import (
	"encoding/json"

	"github.com/invopop/jsonschema"
	"stamind.app/journal-service/internal/store"
)

// AnalysisSchema is the response schema sent with analysis requests. Every
// field of AnalysisRecord and Suggestion is required and nothing else is
// allowed, which is what strict structured output expects.
var AnalysisSchema = analysisSchema()

func analysisSchema() map[string]any {
	// Without omitempty tags every field is required; additional properties
	// are disallowed by default.
	reflector := jsonschema.Reflector{
		Anonymous:      true,
		DoNotReference: true,
	}
	b, err := json.Marshal(reflector.Reflect(store.AnalysisRecord{}))
	if err != nil {
		panic(err)
	}
	var schema map[string]any
	if err := json.Unmarshal(b, &schema); err != nil {
		panic(err)
	}
	return schema
}
