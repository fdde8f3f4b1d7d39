package recipe

import (
	"strings"
	"testing"

	"recipegate/internal/domain"
)

func TestBuildPrompt(t *testing.T) {
	t.Run("includes all constraints", func(t *testing.T) {
		prompt := BuildPrompt(&domain.RecipeRequest{
			Ingredients:         []string{"chicken", "rice"},
			Cuisine:             "indian",
			DietaryRestrictions: []string{"gluten-free"},
			ServingSize:         4,
			MealType:            "dinner",
			Difficulty:          "easy",
		})

		for _, want := range []string{
			"chicken, rice",
			"Cuisine type: indian",
			"Dietary restrictions: gluten-free",
			"Servings: 4",
			"Meal type: dinner",
			"Difficulty level: easy",
			`"instructions"`,
		} {
			if !strings.Contains(prompt, want) {
				t.Errorf("prompt missing %q", want)
			}
		}
	})

	t.Run("defaults difficulty to medium", func(t *testing.T) {
		prompt := BuildPrompt(&domain.RecipeRequest{Ingredients: []string{"eggs"}})
		if !strings.Contains(prompt, "Difficulty level: medium") {
			t.Error("expected default difficulty medium")
		}
		if strings.Contains(prompt, "Cuisine type:") {
			t.Error("absent cuisine should not appear in prompt")
		}
		if strings.Contains(prompt, "Servings:") {
			t.Error("absent serving size should not appear in prompt")
		}
	})

	t.Run("deterministic for identical requests", func(t *testing.T) {
		req := &domain.RecipeRequest{Ingredients: []string{"tofu"}, Cuisine: "thai"}
		if BuildPrompt(req) != BuildPrompt(req) {
			t.Error("prompt must be deterministic")
		}
	})
}
