package recipe

import (
	"encoding/json"
	"regexp"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/xeipuuv/gojsonschema"

	"recipegate/internal/domain"
)

// recipeSchema is the JSON Schema a model response must satisfy before
// it is accepted as a GeneratedRecipe.
var recipeSchema = map[string]interface{}{
	"type":     "object",
	"required": []interface{}{"title", "ingredients", "instructions"},
	"properties": map[string]interface{}{
		"title":       map[string]interface{}{"type": "string", "minLength": 1},
		"description": map[string]interface{}{"type": "string"},
		"prep_time":   map[string]interface{}{"type": "string"},
		"cook_time":   map[string]interface{}{"type": "string"},
		"total_time":  map[string]interface{}{"type": "string"},
		"servings":    map[string]interface{}{"type": "integer", "minimum": 1},
		"difficulty":  map[string]interface{}{"type": "string"},
		"cuisine":     map[string]interface{}{"type": "string"},
		"ingredients": map[string]interface{}{
			"type":     "array",
			"minItems": 1,
			"items": map[string]interface{}{
				"type":     "object",
				"required": []interface{}{"item"},
				"properties": map[string]interface{}{
					"item":   map[string]interface{}{"type": "string", "minLength": 1},
					"amount": map[string]interface{}{"type": "string"},
					"notes":  map[string]interface{}{"type": "string"},
				},
			},
		},
		"instructions": map[string]interface{}{
			"type":     "array",
			"minItems": 1,
			"items":    map[string]interface{}{"type": "string"},
		},
		"nutrition": map[string]interface{}{"type": "object"},
		"tags": map[string]interface{}{
			"type":  "array",
			"items": map[string]interface{}{"type": "string"},
		},
		"tips": map[string]interface{}{
			"type":  "array",
			"items": map[string]interface{}{"type": "string"},
		},
	},
}

var codeBlockRe = regexp.MustCompile("```(?:json)?\\s*\\n([\\s\\S]*?)\\n```")

// ParseGeneratedRecipe extracts a well-formed GeneratedRecipe from raw
// model output. Models frequently wrap the JSON in prose or code fences,
// so the parser locates the JSON first and then validates it against the
// recipe schema. Any failure is classified as InvalidModelOutput; a
// partially populated recipe is never returned.
func ParseGeneratedRecipe(raw string) (*domain.GeneratedRecipe, error) {
	content, ok := extractJSON(raw)
	if !ok {
		return nil, domain.NewProviderError(domain.ProviderInvalidModelOutput,
			"no JSON object found in model response", nil)
	}

	result, err := gojsonschema.Validate(
		gojsonschema.NewGoLoader(recipeSchema),
		gojsonschema.NewStringLoader(content),
	)
	if err != nil {
		return nil, domain.NewProviderError(domain.ProviderInvalidModelOutput,
			"schema validation failed", err)
	}
	if !result.Valid() {
		var errs []string
		for _, e := range result.Errors() {
			errs = append(errs, e.String())
		}
		return nil, domain.NewProviderError(domain.ProviderInvalidModelOutput,
			"response does not match recipe schema: "+strings.Join(errs, "; "), nil)
	}

	var out domain.GeneratedRecipe
	if err := json.Unmarshal([]byte(content), &out); err != nil {
		return nil, domain.NewProviderError(domain.ProviderInvalidModelOutput,
			"failed to decode recipe JSON", err)
	}

	out.ID = uuid.NewString()
	out.CreatedAt = time.Now().UTC()
	out.Source = "ai_generated"
	return &out, nil
}

// extractJSON pulls a JSON object out of mixed text: a fenced code block
// if present, otherwise the widest first-'{' to last-'}' slice.
func extractJSON(content string) (string, bool) {
	if m := codeBlockRe.FindStringSubmatch(content); len(m) > 1 {
		candidate := strings.TrimSpace(m[1])
		if json.Valid([]byte(candidate)) {
			return candidate, true
		}
	}

	start := strings.Index(content, "{")
	end := strings.LastIndex(content, "}")
	if start == -1 || end <= start {
		return "", false
	}
	candidate := content[start : end+1]
	if !json.Valid([]byte(candidate)) {
		return "", false
	}
	return candidate, true
}
