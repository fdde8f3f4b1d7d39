package recipe

import (
	"fmt"
	"strings"

	"recipegate/internal/domain"
)

// BuildPrompt renders the generation prompt for a validated request. The
// prompt pins the exact JSON shape the parser expects back.
func BuildPrompt(req *domain.RecipeRequest) string {
	var b strings.Builder

	difficulty := req.Difficulty
	if difficulty == "" {
		difficulty = "medium"
	}

	fmt.Fprintf(&b, "Generate a detailed recipe using the following ingredients: %s\n\n",
		strings.Join(req.Ingredients, ", "))
	b.WriteString("Requirements:\n")
	fmt.Fprintf(&b, "- Difficulty level: %s\n", difficulty)

	if len(req.DietaryRestrictions) > 0 {
		fmt.Fprintf(&b, "- Dietary restrictions: %s\n", strings.Join(req.DietaryRestrictions, ", "))
	}
	if req.Cuisine != "" {
		fmt.Fprintf(&b, "- Cuisine type: %s\n", req.Cuisine)
	}
	if req.MealType != "" {
		fmt.Fprintf(&b, "- Meal type: %s\n", req.MealType)
	}
	if req.ServingSize > 0 {
		fmt.Fprintf(&b, "- Servings: %d\n", req.ServingSize)
	}

	b.WriteString(`
Please provide the recipe in the following JSON format:
{
    "title": "Recipe Name",
    "description": "Brief description of the dish",
    "prep_time": "15 minutes",
    "cook_time": "30 minutes",
    "total_time": "45 minutes",
    "servings": 4,
    "difficulty": "medium",
    "cuisine": "cuisine type",
    "ingredients": [
        {
            "item": "ingredient name",
            "amount": "1 cup",
            "notes": "optional preparation notes"
        }
    ],
    "instructions": [
        "Step 1: Detailed instruction",
        "Step 2: Another detailed instruction"
    ],
    "nutrition": {
        "calories": 350,
        "protein": "25g",
        "carbs": "30g",
        "fat": "15g"
    },
    "tags": ["tag1", "tag2", "tag3"],
    "tips": ["Cooking tip 1", "Cooking tip 2"]
}

Please ensure all ingredients from the input list are used in the recipe where possible.
Respond with the JSON object only.
`)

	return b.String()
}
