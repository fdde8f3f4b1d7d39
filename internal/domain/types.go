// Package domain contains the core types shared across RecipeGate.
package domain

import "time"

// Request field limits.
const (
	MaxIngredients = 10
	MinServingSize = 1
	MaxServingSize = 12
)

// RecipeRequest is a validated request for recipe generation.
type RecipeRequest struct {
	Ingredients         []string `json:"ingredients"`
	Cuisine             string   `json:"cuisine,omitempty"`
	DietaryRestrictions []string `json:"dietary_restrictions,omitempty"`
	ServingSize         int      `json:"serving_size,omitempty"` // 0 = unspecified
	MealType            string   `json:"meal_type,omitempty"`
	Difficulty          string   `json:"difficulty,omitempty"`
}

// Cuisines is the closed set of accepted cuisine values.
var Cuisines = []string{
	"american",
	"chinese",
	"french",
	"greek",
	"indian",
	"italian",
	"japanese",
	"korean",
	"mediterranean",
	"mexican",
	"middle-eastern",
	"spanish",
	"thai",
	"vietnamese",
}

// DietaryRestrictions is the closed set of accepted dietary restriction values.
var DietaryRestrictions = []string{
	"dairy-free",
	"gluten-free",
	"halal",
	"keto",
	"kosher",
	"low-carb",
	"low-sodium",
	"nut-free",
	"paleo",
	"vegan",
	"vegetarian",
}

// MealTypes is the closed set of accepted meal type values.
var MealTypes = []string{
	"breakfast",
	"lunch",
	"dinner",
	"snack",
	"dessert",
}

// Difficulties is the closed set of accepted difficulty values.
var Difficulties = []string{
	"easy",
	"medium",
	"hard",
}

// RecipeIngredient is a single ingredient line in a generated recipe.
type RecipeIngredient struct {
	Item   string `json:"item"`
	Amount string `json:"amount,omitempty"`
	Notes  string `json:"notes,omitempty"`
}

// Nutrition holds per-serving nutritional estimates.
type Nutrition struct {
	Calories int    `json:"calories,omitempty"`
	Protein  string `json:"protein,omitempty"`
	Carbs    string `json:"carbs,omitempty"`
	Fat      string `json:"fat,omitempty"`
}

// GeneratedRecipe is a recipe produced by the generation provider.
// Immutable once produced.
type GeneratedRecipe struct {
	ID           string             `json:"id"`
	Title        string             `json:"title"`
	Description  string             `json:"description,omitempty"`
	PrepTime     string             `json:"prep_time,omitempty"`
	CookTime     string             `json:"cook_time,omitempty"`
	TotalTime    string             `json:"total_time,omitempty"`
	Servings     int                `json:"servings,omitempty"`
	Difficulty   string             `json:"difficulty,omitempty"`
	Cuisine      string             `json:"cuisine,omitempty"`
	Ingredients  []RecipeIngredient `json:"ingredients"`
	Instructions []string           `json:"instructions"`
	Nutrition    *Nutrition         `json:"nutrition,omitempty"`
	Tags         []string           `json:"tags,omitempty"`
	Tips         []string           `json:"tips,omitempty"`
	CreatedAt    time.Time          `json:"created_at"`
	Source       string             `json:"source"`
}

// CacheEntry is a stored generation result. Entries are never mutated in
// place: a re-generation for the same key writes a full replacement.
type CacheEntry struct {
	CacheKey  string           `json:"cache_key"`
	Recipe    *GeneratedRecipe `json:"recipe"`
	CreatedAt time.Time        `json:"created_at"`
	ExpiresAt time.Time        `json:"expires_at"`
}

// Expired reports whether the entry is logically past its TTL. Backends
// purge expired items asynchronously and best-effort, so readers must
// still apply this check to anything they happen to read.
func (e *CacheEntry) Expired(now time.Time) bool {
	return !e.ExpiresAt.After(now)
}

// ModelInfo describes a foundation model available for generation.
type ModelInfo struct {
	ID       string `json:"id"`
	Name     string `json:"name"`
	Provider string `json:"provider"`
	Active   bool   `json:"active"`
}
