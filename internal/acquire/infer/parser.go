package infer

import (
	"encoding/json"
	"fmt"
	"regexp"
	"strconv"
	"strings"

	"github.com/daehan-cho/shopscribe/pkg/models"
)

// estimate is the wire shape requested by buildPrompt.
type estimate struct {
	Name            string            `json:"name"`
	Price           float64           `json:"price"`
	Currency        string            `json:"currency"`
	FastShipping    bool              `json:"fast_shipping"`
	FreeShipping    bool              `json:"free_shipping"`
	InStock         bool              `json:"in_stock"`
	Category        string            `json:"category"`
	Rating          float64           `json:"rating"`
	ReviewCount     int               `json:"review_count"`
	Description     string            `json:"description"`
	Specifications  map[string]string `json:"specifications"`
	Features        []string          `json:"features"`
	Benefits        []string          `json:"benefits"`
	TargetAudience  string            `json:"target_audience"`
	Comparison      string            `json:"comparison"`
	Recommendations []string          `json:"recommendations"`
}

var (
	fenceRe = regexp.MustCompile("(?s)```(?:json)?\\s*(.*?)```")

	// Salvage patterns for responses whose JSON is malformed but whose keys
	// are still recognizable.
	salvageStringRe = map[string]*regexp.Regexp{
		"name":        regexp.MustCompile(`"name"\s*:\s*"((?:[^"\\]|\\.)*)"`),
		"category":    regexp.MustCompile(`"category"\s*:\s*"((?:[^"\\]|\\.)*)"`),
		"description": regexp.MustCompile(`"description"\s*:\s*"((?:[^"\\]|\\.)*)"`),
	}
	salvageNumberRe = map[string]*regexp.Regexp{
		"price":        regexp.MustCompile(`"price"\s*:\s*([0-9]+(?:\.[0-9]+)?)`),
		"rating":       regexp.MustCompile(`"rating"\s*:\s*([0-9]+(?:\.[0-9]+)?)`),
		"review_count": regexp.MustCompile(`"review_count"\s*:\s*([0-9]+)`),
	}
)

// parseEstimate turns a raw model response into an enriched record. It strips
// markdown code fences first, then falls back to a field-by-field regex
// salvage when the JSON does not decode. A response with no usable name is
// ErrInvalidResponse.
func parseEstimate(raw, productID string) (*models.EnrichedProductRecord, error) {
	text := stripFences(raw)

	var est estimate
	if err := json.Unmarshal([]byte(text), &est); err != nil {
		salvaged, ok := salvageEstimate(text)
		if !ok {
			return nil, fmt.Errorf("%w: %v", ErrInvalidResponse, err)
		}
		est = salvaged
	}

	est.Name = strings.TrimSpace(est.Name)
	if est.Name == "" {
		return nil, fmt.Errorf("%w: missing product name", ErrInvalidResponse)
	}

	return &models.EnrichedProductRecord{
		ProductRecord: models.ProductRecord{
			ProductID:    productID,
			Name:         est.Name,
			Price:        est.Price,
			Currency:     est.Currency,
			FastShipping: est.FastShipping,
			FreeShipping: est.FreeShipping,
			InStock:      est.InStock,
			Category:     est.Category,
			Rating:       est.Rating,
			ReviewCount:  est.ReviewCount,
			Description:  est.Description,
			Attributes:   est.Specifications,
		},
		Features:        est.Features,
		Benefits:        est.Benefits,
		TargetAudience:  est.TargetAudience,
		Comparison:      est.Comparison,
		Recommendations: est.Recommendations,
	}, nil
}

// stripFences unwraps a ```json ... ``` block if present, otherwise trims and
// returns the text between the first '{' and the last '}'.
func stripFences(raw string) string {
	if m := fenceRe.FindStringSubmatch(raw); m != nil {
		return strings.TrimSpace(m[1])
	}
	start := strings.Index(raw, "{")
	end := strings.LastIndex(raw, "}")
	if start >= 0 && end > start {
		return raw[start : end+1]
	}
	return strings.TrimSpace(raw)
}

func salvageEstimate(text string) (estimate, bool) {
	var est estimate
	found := false
	for field, re := range salvageStringRe {
		m := re.FindStringSubmatch(text)
		if m == nil {
			continue
		}
		val := unescape(m[1])
		switch field {
		case "name":
			est.Name = val
		case "category":
			est.Category = val
		case "description":
			est.Description = val
		}
		found = true
	}
	for field, re := range salvageNumberRe {
		m := re.FindStringSubmatch(text)
		if m == nil {
			continue
		}
		switch field {
		case "price":
			est.Price, _ = strconv.ParseFloat(m[1], 64)
		case "rating":
			est.Rating, _ = strconv.ParseFloat(m[1], 64)
		case "review_count":
			est.ReviewCount, _ = strconv.Atoi(m[1])
		}
		found = true
	}
	return est, found
}

func unescape(s string) string {
	var out string
	if err := json.Unmarshal([]byte(`"`+s+`"`), &out); err != nil {
		return s
	}
	return out
}
