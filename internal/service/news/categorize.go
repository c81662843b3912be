package news

import (
	"strings"
	"unicode"
	"unicode/utf8"

	"MarketWhisperer/internal/domain/models"
)

var (
	mergerKeywords   = []string{"merger", "acquisition", "acquire", "takeover"}
	movementKeywords = []string{"surge", "plunge", "soar", "crash", "rally", "tumble", "upper circuit", "lower circuit"}
)

// Categorize maps a headline title to a whisper category.
// MERGER wins over MOVEMENT; anything else (earnings, launches, dividends...) is NEWS.
// Keywords match at the start of a word, so "acquired" counts and "generally" does not.
func Categorize(title string) models.Category {
	t := strings.ToLower(title)
	switch {
	case containsAny(t, mergerKeywords):
		return models.CategoryMerger
	case containsAny(t, movementKeywords):
		return models.CategoryMovement
	default:
		return models.CategoryNews
	}
}

func containsAny(s string, words []string) bool {
	for _, w := range words {
		if hasWordPrefix(s, w) {
			return true
		}
	}
	return false
}

func hasWordPrefix(s, w string) bool {
	for from := 0; from < len(s); {
		i := strings.Index(s[from:], w)
		if i < 0 {
			return false
		}
		i += from
		if i == 0 {
			return true
		}
		if r, _ := utf8.DecodeLastRuneInString(s[:i]); !unicode.IsLetter(r) && !unicode.IsDigit(r) {
			return true
		}
		from = i + 1
	}
	return false
}
