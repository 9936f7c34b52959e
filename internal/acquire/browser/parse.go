package browser

import (
	"regexp"
	"strconv"
	"strings"
)

var (
	digitRun   = regexp.MustCompile(`\d[\d,]*`)
	decimalRun = regexp.MustCompile(`\d+(?:\.\d+)?`)
	priceRun   = regexp.MustCompile(`\d[\d,]*(?:\.\d+)?`)
)

// ParsePrice pulls a numeric price out of rendered text like "89,000원" or
// "$1,299.99". Unparseable text yields zero.
func ParsePrice(text string) float64 {
	m := decimalWithThousands(text)
	if m == "" {
		return 0
	}
	f, err := strconv.ParseFloat(m, 64)
	if err != nil {
		return 0
	}
	return f
}

// ParseRating pulls a decimal rating out of text like "4.6" or "4.6 / 5".
func ParseRating(text string) float64 {
	m := decimalRun.FindString(text)
	if m == "" {
		return 0
	}
	f, err := strconv.ParseFloat(m, 64)
	if err != nil {
		return 0
	}
	return f
}

// ParseCount pulls an integer count out of text like "(1,250)" or
// "1,250 reviews".
func ParseCount(text string) int {
	m := digitRun.FindString(text)
	if m == "" {
		return 0
	}
	n, err := strconv.Atoi(strings.ReplaceAll(m, ",", ""))
	if err != nil {
		return 0
	}
	return n
}

// decimalWithThousands matches the first digit run, keeping a decimal part
// but dropping thousands separators.
func decimalWithThousands(text string) string {
	m := priceRun.FindString(text)
	if m == "" {
		return ""
	}
	return strings.ReplaceAll(m, ",", "")
}
