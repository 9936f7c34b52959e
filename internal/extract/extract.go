// Package extract turns raw input URLs and free text into canonical product
// identifiers.
package extract

import "regexp"

// Matchers are applied in order; the first capturing match wins. Strings
// matching no pattern are dropped silently; absence of output for an input
// is the signal, not an error.
var matchers = []*regexp.Regexp{
	regexp.MustCompile(`/vp/products/(\d+)`),
	regexp.MustCompile(`/products/(\d+)`),
	regexp.MustCompile(`[?&](?:itemId|productId|vendorItemId)=(\d+)`),
	regexp.MustCompile(`[?&]id=(\d+)`),
	regexp.MustCompile(`\b(\d{6,})\b`),
}

// Identifiers extracts canonical product identifiers from raw inputs,
// deduplicated in first-seen order. Pure and synchronous.
func Identifiers(inputs []string) []string {
	var ids []string
	seen := make(map[string]struct{})

	for _, in := range inputs {
		id, ok := match(in)
		if !ok {
			continue
		}
		if _, dup := seen[id]; dup {
			continue
		}
		seen[id] = struct{}{}
		ids = append(ids, id)
	}
	return ids
}

func match(s string) (string, bool) {
	for _, re := range matchers {
		if m := re.FindStringSubmatch(s); m != nil {
			return m[1], true
		}
	}
	return "", false
}
