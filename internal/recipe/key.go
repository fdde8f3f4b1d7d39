package recipe

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"sort"
	"strings"

	"golang.org/x/text/unicode/norm"

	"recipegate/internal/domain"
)

// keyVersion is bumped whenever the canonical form changes, invalidating
// previously written entries without touching the store.
const keyVersion = "v1"

// sentinel stands in for absent optional fields in the canonical form so
// "unspecified" never collides with a legal value.
const sentinel = "-"

// DeriveKey builds a deterministic cache key from a validated request.
// Two requests that are semantically identical after normalization (case,
// whitespace, ordering and duplication of list fields) always produce the
// same key; any difference in a normalized field produces a different key.
// The key depends on nothing but the request itself.
func DeriveKey(req *domain.RecipeRequest) string {
	ingredients := normalizeSet(req.Ingredients)
	restrictions := normalizeSet(req.DietaryRestrictions)

	serving := sentinel
	if req.ServingSize > 0 {
		serving = fmt.Sprintf("%d", req.ServingSize)
	}

	canonical := strings.Join([]string{
		keyVersion,
		"ing:" + strings.Join(ingredients, ","),
		"cui:" + orSentinel(req.Cuisine),
		"diet:" + strings.Join(restrictions, ","),
		"srv:" + serving,
		"meal:" + orSentinel(req.MealType),
		"dif:" + orSentinel(req.Difficulty),
	}, "|")

	sum := sha256.Sum256([]byte(canonical))
	return hex.EncodeToString(sum[:])
}

// normalizeSet lower-cases, NFKC-normalizes, trims and collapses internal
// whitespace, then deduplicates and sorts. Dedup is not required for
// correctness but improves hit rate for sloppy inputs.
func normalizeSet(values []string) []string {
	seen := make(map[string]struct{}, len(values))
	out := make([]string, 0, len(values))
	for _, v := range values {
		n := NormalizeTerm(v)
		if n == "" {
			continue
		}
		if _, ok := seen[n]; ok {
			continue
		}
		seen[n] = struct{}{}
		out = append(out, n)
	}
	sort.Strings(out)
	return out
}

// NormalizeTerm produces the canonical form of a single free-text term.
func NormalizeTerm(s string) string {
	s = norm.NFKC.String(s)
	s = strings.ToLower(strings.TrimSpace(s))
	return strings.Join(strings.Fields(s), " ")
}

func orSentinel(s string) string {
	if s == "" {
		return sentinel
	}
	return s
}
