package config

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// FieldSelectors lists CSS selector candidates per product field for the
// browser scraper. Candidates are tried in order; the first one yielding
// non-empty text wins.
type FieldSelectors struct {
	Name        []string `yaml:"name"`
	Price       []string `yaml:"price"`
	Image       []string `yaml:"image"`
	Category    []string `yaml:"category"`
	Rating      []string `yaml:"rating"`
	ReviewCount []string `yaml:"review_count"`
	Description []string `yaml:"description"`
	Stock       []string `yaml:"stock"`
}

// DefaultSelectors is the compiled-in candidate set used when no selector
// file is configured.
func DefaultSelectors() FieldSelectors {
	return FieldSelectors{
		Name:        []string{"h1.prod-buy-header__title", "h1[itemprop=name]", "h1.product-title", "h1"},
		Price:       []string{"span.total-price > strong", "span.price-value", "[itemprop=price]", ".price"},
		Image:       []string{"img.prod-image__detail", "img[itemprop=image]", ".product-image img"},
		Category:    []string{"ul.breadcrumb li:last-child a", "nav.breadcrumb a:last-child", "[itemprop=category]"},
		Rating:      []string{"span.rds-rating-score", "[itemprop=ratingValue]", ".rating-star-num"},
		ReviewCount: []string{"span.count", "[itemprop=reviewCount]", ".review-count"},
		Description: []string{"div.prod-description", "[itemprop=description]", "#productDescription", ".product-description"},
		Stock:       []string{"div.oos-label", ".out-of-stock", ".sold-out"},
	}
}

// LoadSelectors reads a YAML selector file and overlays it on the defaults.
// Fields absent from the file keep their default candidate lists.
func LoadSelectors(path string) (FieldSelectors, error) {
	sel := DefaultSelectors()
	if path == "" {
		return sel, nil
	}

	raw, err := os.ReadFile(path)
	if err != nil {
		return sel, fmt.Errorf("read selectors file: %w", err)
	}

	var file FieldSelectors
	if err := yaml.Unmarshal(raw, &file); err != nil {
		return sel, fmt.Errorf("parse selectors file: %w", err)
	}

	if len(file.Name) > 0 {
		sel.Name = file.Name
	}
	if len(file.Price) > 0 {
		sel.Price = file.Price
	}
	if len(file.Image) > 0 {
		sel.Image = file.Image
	}
	if len(file.Category) > 0 {
		sel.Category = file.Category
	}
	if len(file.Rating) > 0 {
		sel.Rating = file.Rating
	}
	if len(file.ReviewCount) > 0 {
		sel.ReviewCount = file.ReviewCount
	}
	if len(file.Description) > 0 {
		sel.Description = file.Description
	}
	if len(file.Stock) > 0 {
		sel.Stock = file.Stock
	}

	return sel, nil
}
