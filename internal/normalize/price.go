package normalize

import (
	"regexp"
	"strconv"
	"strings"

	"github.com/lombahub/lomba-events/internal/record"
)

// priceTokenPattern matches numeric tokens like "50.000", "25,000" or
// "10k": digits with optional group separators and an optional thousands
// suffix.
var priceTokenPattern = regexp.MustCompile(`(\d[\d.,]*)(k)?`)

// ParsePrice extracts a price range from free text like "Gratis", "50k",
// or "Rp 25.000 - 50.000".
//
// A "gratis"/"free" mention anywhere short-circuits to an explicit {0,0}.
// Token order in the text is not trusted: the smallest token becomes Min
// and the largest Max. No tokens at all means the price is unknown.
func ParsePrice(text string) record.PriceRange {
	if strings.TrimSpace(text) == "" {
		return record.PriceRange{}
	}

	lower := strings.ToLower(text)
	if strings.Contains(lower, "gratis") || strings.Contains(lower, "free") {
		min, max := 0, 0
		return record.PriceRange{Min: &min, Max: &max}
	}

	var tokens []int
	for _, m := range priceTokenPattern.FindAllStringSubmatch(lower, -1) {
		digits := strings.NewReplacer(".", "", ",", "").Replace(m[1])
		n, err := strconv.Atoi(digits)
		if err != nil {
			continue
		}
		if m[2] != "" {
			n *= 1000
		}
		tokens = append(tokens, n)
	}

	if len(tokens) == 0 {
		return record.PriceRange{}
	}

	min, max := tokens[0], tokens[0]
	for _, n := range tokens[1:] {
		if n < min {
			min = n
		}
		if n > max {
			max = n
		}
	}
	return record.PriceRange{Min: &min, Max: &max}
}
