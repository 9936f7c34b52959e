package models

// ProductRecord is one item's acquired data. Absent or zero fields mean the
// winning tier did not cover them, never that an error occurred.
type ProductRecord struct {
	ProductID    string            `json:"product_id"`
	Name         string            `json:"name"`
	Price        float64           `json:"price"`
	Currency     string            `json:"currency,omitempty"`
	ImageURL     string            `json:"image_url,omitempty"`
	ProductURL   string            `json:"product_url,omitempty"`
	FastShipping bool              `json:"fast_shipping"`
	FreeShipping bool              `json:"free_shipping"`
	InStock      bool              `json:"in_stock"`
	Category     string            `json:"category,omitempty"`
	Rating       float64           `json:"rating,omitempty"`
	ReviewCount  int               `json:"review_count,omitempty"`
	Description  string            `json:"description,omitempty"`
	Attributes   map[string]string `json:"attributes,omitempty"`
}

// EnrichedProductRecord is a ProductRecord superset produced only by the
// inference tier. An item carries exactly one tier's output per run, so a
// record is either plain (tier 1/2) or enriched (tier 3), never both.
type EnrichedProductRecord struct {
	ProductRecord

	Features        []string `json:"features,omitempty"`
	Benefits        []string `json:"benefits,omitempty"`
	TargetAudience  string   `json:"target_audience,omitempty"`
	Comparison      string   `json:"comparison,omitempty"`
	Recommendations []string `json:"recommendations,omitempty"`
}
