package synthesize

import "github.com/daehan-cho/shopscribe/pkg/models"

// facts are the aggregate observations the analysis actions work from.
type facts struct {
	keyword  string
	records  []models.ProductRecord
	enriched []*models.EnrichedProductRecord

	categories []string
	priceMin   float64
	priceMax   float64
	priceAvg   float64

	fastShipping int
	freeShipping int
	inStock      int
}

// observe collects the resolved records and computes the aggregates. Items
// that did not resolve are ignored here; the caller already accounted for
// them in the job summary.
func observe(outcomes []models.AcquisitionOutcome, keyword string) facts {
	f := facts{keyword: keyword}

	seen := make(map[string]bool)
	var priceSum float64
	var priced int

	for _, o := range outcomes {
		if !o.Resolved() {
			continue
		}
		rec := o.BestRecord()
		if rec == nil {
			continue
		}
		f.records = append(f.records, *rec)
		if o.Enriched != nil {
			f.enriched = append(f.enriched, o.Enriched)
		}

		if rec.Category != "" && !seen[rec.Category] {
			seen[rec.Category] = true
			f.categories = append(f.categories, rec.Category)
		}
		if rec.Price > 0 {
			if priced == 0 || rec.Price < f.priceMin {
				f.priceMin = rec.Price
			}
			if rec.Price > f.priceMax {
				f.priceMax = rec.Price
			}
			priceSum += rec.Price
			priced++
		}
		if rec.FastShipping {
			f.fastShipping++
		}
		if rec.FreeShipping {
			f.freeShipping++
		}
		if rec.InStock {
			f.inStock++
		}
	}

	if priced > 0 {
		f.priceAvg = priceSum / float64(priced)
	}
	return f
}
