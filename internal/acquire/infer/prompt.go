package infer

import (
	"fmt"
	"strings"
)

// buildPrompt asks the model for a best-effort product estimate as a single
// JSON object. Keys mirror the wire format parseEstimate expects.
func buildPrompt(productID, keyword string) string {
	var sb strings.Builder
	sb.WriteString("Estimate the attributes of an e-commerce product from the little that is known about it.\n\n")
	fmt.Fprintf(&sb, "Product identifier: %s\n", productID)
	if keyword != "" {
		fmt.Fprintf(&sb, "Search keyword it was found under: %s\n", keyword)
	}
	sb.WriteString(`
Respond with exactly one JSON object and no surrounding prose:
{
  "name": "product name",
  "price": 19900,
  "currency": "KRW",
  "fast_shipping": false,
  "free_shipping": false,
  "in_stock": true,
  "category": "category name",
  "rating": 4.2,
  "review_count": 120,
  "description": "one paragraph",
  "specifications": {"key": "value"},
  "features": ["..."],
  "benefits": ["..."],
  "target_audience": "one sentence",
  "comparison": "one sentence",
  "recommendations": ["..."]
}
Use null for values you cannot estimate. "name" is required.`)
	return sb.String()
}
