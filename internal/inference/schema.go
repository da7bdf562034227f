package inference

import (
	"bytes"
	"encoding/json"
	"fmt"
	"sync"

	"github.com/santhosh-tekuri/jsonschema/v5"
)

var profileSchema = map[string]any{
	"$schema": "https://json-schema.org/draft/2020-12/schema",
	"type":    "object",
	"required": []any{
		"skills", "job_role", "experience_years", "ats_score",
		"summary", "recommendations", "missing_skills", "strength_areas",
	},
	"properties": map[string]any{
		"skills":           stringArray(),
		"job_role":         map[string]any{"type": "string"},
		"experience_years": map[string]any{"type": "number", "minimum": 0},
		"ats_score":        map[string]any{"type": "number", "minimum": 1, "maximum": 100},
		"summary":          stringArray(),
		"recommendations":  stringArray(),
		"missing_skills":   stringArray(),
		"strength_areas":   stringArray(),
	},
}

func stringArray() map[string]any {
	return map[string]any{"type": "array", "items": map[string]any{"type": "string"}}
}

var (
	compileOnce sync.Once
	compiled    *jsonschema.Schema
	compileErr  error
)

func schema() (*jsonschema.Schema, error) {
	compileOnce.Do(func() {
		b, err := json.Marshal(profileSchema)
		if err != nil {
			compileErr = fmt.Errorf("marshal schema: %w", err)
			return
		}
		compiler := jsonschema.NewCompiler()
		if err := compiler.AddResource("profile.json", bytes.NewReader(b)); err != nil {
			compileErr = fmt.Errorf("add schema: %w", err)
			return
		}
		compiled, compileErr = compiler.Compile("profile.json")
	})
	return compiled, compileErr
}

// validateShape checks a decoded response against the profile schema. The
// result is advisory: sanitization repairs whatever it can.
func validateShape(obj map[string]any) error {
	s, err := schema()
	if err != nil {
		return err
	}
	if err := s.Validate(obj); err != nil {
		return fmt.Errorf("response does not match schema: %w", err)
	}
	return nil
}
