// Package recipe implements request validation, cache key derivation,
// prompt construction and model output parsing for recipe generation.
package recipe

import (
	"fmt"
	"strings"

	"github.com/agnivade/levenshtein"

	"recipegate/internal/domain"
)

// maxSuggestionDistance bounds how far a typo may be from an allowed
// enum value before we stop offering a "did you mean" suggestion.
const maxSuggestionDistance = 2

// RawRequest is the unvalidated wire form of a generation request.
type RawRequest struct {
	Ingredients         []string `json:"ingredients"`
	Cuisine             string   `json:"cuisine,omitempty"`
	DietaryRestrictions []string `json:"dietary_restrictions,omitempty"`
	ServingSize         *int     `json:"serving_size,omitempty"`
	MealType            string   `json:"meal_type,omitempty"`
	Difficulty          string   `json:"difficulty,omitempty"`
}

// Validate checks a raw request against the field constraints and closed
// enum sets and returns the validated domain request. It has no side
// effects and must run before any cache or provider interaction.
func Validate(raw *RawRequest) (*domain.RecipeRequest, error) {
	var fields []domain.FieldError

	switch {
	case raw.Ingredients == nil:
		fields = append(fields, domain.FieldError{
			Field:   "ingredients",
			Code:    domain.CodeRequired,
			Message: "ingredients list is required",
		})
	case len(raw.Ingredients) == 0:
		fields = append(fields, domain.FieldError{
			Field:   "ingredients",
			Code:    domain.CodeEmpty,
			Message: "ingredients list must not be empty",
		})
	case len(raw.Ingredients) > domain.MaxIngredients:
		fields = append(fields, domain.FieldError{
			Field:   "ingredients",
			Code:    domain.CodeTooMany,
			Message: fmt.Sprintf("at most %d ingredients are allowed, got %d", domain.MaxIngredients, len(raw.Ingredients)),
		})
	default:
		for i, ing := range raw.Ingredients {
			if strings.TrimSpace(ing) == "" {
				fields = append(fields, domain.FieldError{
					Field:   fmt.Sprintf("ingredients[%d]", i),
					Code:    domain.CodeEmpty,
					Message: "ingredient must not be blank",
				})
			}
		}
	}

	cuisine := strings.ToLower(strings.TrimSpace(raw.Cuisine))
	if cuisine != "" && !contains(domain.Cuisines, cuisine) {
		fields = append(fields, enumError("cuisine", cuisine, domain.Cuisines))
	}

	restrictions := make([]string, 0, len(raw.DietaryRestrictions))
	for i, r := range raw.DietaryRestrictions {
		r = strings.ToLower(strings.TrimSpace(r))
		if !contains(domain.DietaryRestrictions, r) {
			fe := enumError(fmt.Sprintf("dietary_restrictions[%d]", i), r, domain.DietaryRestrictions)
			fields = append(fields, fe)
			continue
		}
		restrictions = append(restrictions, r)
	}

	servingSize := 0
	if raw.ServingSize != nil {
		servingSize = *raw.ServingSize
		if servingSize < domain.MinServingSize || servingSize > domain.MaxServingSize {
			fields = append(fields, domain.FieldError{
				Field:   "serving_size",
				Code:    domain.CodeOutOfRange,
				Message: fmt.Sprintf("serving_size must be between %d and %d, got %d", domain.MinServingSize, domain.MaxServingSize, servingSize),
			})
		}
	}

	mealType := strings.ToLower(strings.TrimSpace(raw.MealType))
	if mealType != "" && !contains(domain.MealTypes, mealType) {
		fields = append(fields, enumError("meal_type", mealType, domain.MealTypes))
	}

	difficulty := strings.ToLower(strings.TrimSpace(raw.Difficulty))
	if difficulty != "" && !contains(domain.Difficulties, difficulty) {
		fields = append(fields, enumError("difficulty", difficulty, domain.Difficulties))
	}

	if len(fields) > 0 {
		return nil, &domain.ValidationError{Fields: fields}
	}

	return &domain.RecipeRequest{
		Ingredients:         raw.Ingredients,
		Cuisine:             cuisine,
		DietaryRestrictions: restrictions,
		ServingSize:         servingSize,
		MealType:            mealType,
		Difficulty:          difficulty,
	}, nil
}

func enumError(field, value string, allowed []string) domain.FieldError {
	fe := domain.FieldError{
		Field:   field,
		Code:    domain.CodeUnknownValue,
		Message: fmt.Sprintf("unknown value %q", value),
	}
	if s := closestMatch(value, allowed); s != "" {
		fe.Suggestion = s
		fe.Message = fmt.Sprintf("unknown value %q (did you mean %q?)", value, s)
	}
	return fe
}

// closestMatch returns the allowed value with the smallest Levenshtein
// distance to the input, or "" when nothing is close enough.
func closestMatch(value string, allowed []string) string {
	best := ""
	bestDist := maxSuggestionDistance + 1
	for _, a := range allowed {
		if d := levenshtein.ComputeDistance(value, a); d < bestDist {
			best, bestDist = a, d
		}
	}
	return best
}

func contains(set []string, value string) bool {
	for _, v := range set {
		if v == value {
			return true
		}
	}
	return false
}
