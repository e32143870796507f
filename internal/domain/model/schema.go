package model

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/xeipuuv/gojsonschema"
)

// weightsSchema builds the JSON schema of a weight vector bounded by maxWeight.
func weightsSchema(maxWeight float64) map[string]interface{} {
	props := make(map[string]interface{}, len(Dimensions))
	for _, d := range Dimensions {
		props[string(d)] = map[string]interface{}{
			"type":    "number",
			"minimum": 0,
			"maximum": maxWeight,
		}
	}
	return map[string]interface{}{
		"type":                 "object",
		"properties":           props,
		"additionalProperties": false,
	}
}

// DecodeWeights validates raw JSON against the weight schema and decodes it.
// Absent keys decode as 0.
func DecodeWeights(raw []byte, maxWeight float64) (Weights, error) {
	var doc interface{}
	if err := json.Unmarshal(raw, &doc); err != nil {
		return Weights{}, fmt.Errorf("%w: weights body is not valid JSON: %w", ErrValidation, err)
	}

	result, err := gojsonschema.Validate(
		gojsonschema.NewGoLoader(weightsSchema(maxWeight)),
		gojsonschema.NewGoLoader(doc),
	)
	if err != nil {
		return Weights{}, fmt.Errorf("%w: weights schema: %w", ErrValidation, err)
	}
	if !result.Valid() {
		msgs := make([]string, 0, len(result.Errors()))
		for _, e := range result.Errors() {
			msgs = append(msgs, e.String())
		}
		return Weights{}, fmt.Errorf("%w: %s", ErrValidation, strings.Join(msgs, "; "))
	}

	var w Weights
	if err := json.Unmarshal(raw, &w); err != nil {
		return Weights{}, fmt.Errorf("%w: %w", ErrValidation, err)
	}
	return w, nil
}
