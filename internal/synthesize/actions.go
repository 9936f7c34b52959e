package synthesize

import (
	"errors"
	"fmt"
	"sort"
	"strings"
)

// finding is one action's named contribution to the article.
type finding struct {
	name     string
	heading  string
	body     string
	keywords []string
}

// action is one step of the closed analysis plan.
type action struct {
	name string
	run  func(facts) (finding, error)
}

// plan returns the fixed action list. Order determines section order in the
// composed body.
func plan() []action {
	return []action{
		{name: "comparison", run: compareProducts},
		{name: "target_audience", run: describeAudience},
		{name: "competitiveness", run: assessCompetitiveness},
		{name: "buying_guide", run: buildBuyingGuide},
		{name: "recommendation", run: recommend},
		{name: "keyword_optimization", run: optimizeKeywords},
	}
}

func compareProducts(f facts) (finding, error) {
	if len(f.records) < 2 {
		return finding{}, errors.New("comparison needs at least two products")
	}

	cheapest := f.records[0]
	topRated := f.records[0]
	for _, r := range f.records[1:] {
		if r.Price > 0 && (cheapest.Price == 0 || r.Price < cheapest.Price) {
			cheapest = r
		}
		if r.Rating > topRated.Rating {
			topRated = r
		}
	}

	var sb strings.Builder
	fmt.Fprintf(&sb, "Across the %d products compared, prices range from %s to %s (average %s).\n\n",
		len(f.records), formatPrice(f.priceMin), formatPrice(f.priceMax), formatPrice(f.priceAvg))
	fmt.Fprintf(&sb, "- Best price: **%s** at %s\n", cheapest.Name, formatPrice(cheapest.Price))
	if topRated.Rating > 0 {
		fmt.Fprintf(&sb, "- Highest rated: **%s** at %.1f stars (%d reviews)\n",
			topRated.Name, topRated.Rating, topRated.ReviewCount)
	}
	return finding{name: "comparison", heading: "Side-by-Side Comparison", body: sb.String()}, nil
}

func describeAudience(f facts) (finding, error) {
	var audiences []string
	seen := make(map[string]bool)
	for _, e := range f.enriched {
		a := strings.TrimSpace(e.TargetAudience)
		if a != "" && !seen[a] {
			seen[a] = true
			audiences = append(audiences, a)
		}
	}

	var body string
	switch {
	case len(audiences) > 0:
		body = "Who these products are for: " + strings.Join(audiences, " ")
	case len(f.categories) > 0:
		body = fmt.Sprintf("These picks suit shoppers browsing the %s category who want a vetted shortlist instead of sifting through listings.",
			strings.Join(f.categories, ", "))
	default:
		return finding{}, errors.New("no audience signal in records")
	}
	return finding{name: "target_audience", heading: "Who Should Buy", body: body}, nil
}

func assessCompetitiveness(f facts) (finding, error) {
	if f.priceAvg == 0 {
		return finding{}, errors.New("no price data to assess")
	}

	var sb strings.Builder
	spread := f.priceMax - f.priceMin
	fmt.Fprintf(&sb, "The average price point is %s. ", formatPrice(f.priceAvg))
	if spread > 0 && f.priceMin > 0 && spread/f.priceMin > 0.5 {
		sb.WriteString("The wide price spread means there is a genuine budget-versus-premium choice here rather than interchangeable options. ")
	} else {
		sb.WriteString("Prices cluster tightly, so the decision comes down to features and reviews rather than cost. ")
	}
	if f.fastShipping > 0 {
		fmt.Fprintf(&sb, "%d of %d ship with expedited delivery.", f.fastShipping, len(f.records))
	}
	return finding{name: "competitiveness", heading: "Market Position", body: strings.TrimSpace(sb.String())}, nil
}

func buildBuyingGuide(f facts) (finding, error) {
	if len(f.records) == 0 {
		return finding{}, errors.New("no records for buying guide")
	}

	var sb strings.Builder
	sb.WriteString("Before choosing, check:\n\n")
	sb.WriteString("1. **Price fit** - decide your budget first; the options here span ")
	sb.WriteString(formatPrice(f.priceMin) + " to " + formatPrice(f.priceMax) + ".\n")
	if f.freeShipping > 0 || f.fastShipping > 0 {
		sb.WriteString("2. **Shipping terms** - free or expedited shipping can outweigh a small price difference.\n")
	} else {
		sb.WriteString("2. **Shipping terms** - confirm delivery cost and timing before ordering.\n")
	}
	if f.inStock < len(f.records) {
		fmt.Fprintf(&sb, "3. **Availability** - %d of %d items were in stock at the time of writing.\n",
			f.inStock, len(f.records))
	} else {
		sb.WriteString("3. **Reviews** - favor items with a substantial review count, not just a high average.\n")
	}
	return finding{name: "buying_guide", heading: "Buying Guide", body: sb.String()}, nil
}

func recommend(f facts) (finding, error) {
	if len(f.records) == 0 {
		return finding{}, errors.New("no records to recommend")
	}

	best := f.records[0]
	for _, r := range f.records[1:] {
		if r.Rating > best.Rating {
			best = r
		}
	}

	var sb strings.Builder
	fmt.Fprintf(&sb, "Our pick: **%s**", best.Name)
	if best.Rating > 0 {
		fmt.Fprintf(&sb, " (%.1f stars)", best.Rating)
	}
	sb.WriteString(".")
	for _, e := range f.enriched {
		if e.Name == best.Name && len(e.Recommendations) > 0 {
			sb.WriteString(" " + strings.Join(e.Recommendations, " "))
			break
		}
	}
	return finding{name: "recommendation", heading: "Our Recommendation", body: sb.String()}, nil
}

func optimizeKeywords(f facts) (finding, error) {
	var kws []string
	if f.keyword != "" {
		kws = append(kws, f.keyword)
		kws = append(kws, f.keyword+" review", f.keyword+" comparison")
	}
	kws = append(kws, f.categories...)
	names := make([]string, 0, len(f.records))
	for _, r := range f.records {
		names = append(names, r.Name)
	}
	sort.Strings(names)
	kws = append(kws, names...)

	if len(kws) == 0 {
		return finding{}, errors.New("no keyword candidates")
	}
	return finding{name: "keyword_optimization", keywords: kws}, nil
}

func formatPrice(p float64) string {
	if p == 0 {
		return "N/A"
	}
	if p == float64(int64(p)) {
		return fmt.Sprintf("%.0f", p)
	}
	return fmt.Sprintf("%.2f", p)
}
