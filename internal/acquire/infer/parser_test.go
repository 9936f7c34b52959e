package infer

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseEstimate_CleanJSON(t *testing.T) {
	raw := `{
		"name": "Wireless Mouse",
		"price": 25900,
		"currency": "KRW",
		"in_stock": true,
		"category": "Electronics",
		"rating": 4.5,
		"review_count": 321,
		"description": "A compact wireless mouse.",
		"specifications": {"dpi": "1600"},
		"features": ["2.4GHz receiver"],
		"benefits": ["No cable clutter"],
		"target_audience": "Office workers.",
		"comparison": "Cheaper than flagship mice.",
		"recommendations": ["Pair with a mouse pad."]
	}`

	rec, err := parseEstimate(raw, "7558015091")
	require.NoError(t, err)
	assert.Equal(t, "7558015091", rec.ProductID)
	assert.Equal(t, "Wireless Mouse", rec.Name)
	assert.Equal(t, 25900.0, rec.Price)
	assert.Equal(t, "1600", rec.Attributes["dpi"])
	assert.Equal(t, []string{"2.4GHz receiver"}, rec.Features)
	assert.Equal(t, "Office workers.", rec.TargetAudience)
}

func TestParseEstimate_MarkdownFences(t *testing.T) {
	raw := "Here is the estimate:\n```json\n{\"name\": \"Desk Lamp\", \"price\": 12000}\n```\nLet me know if you need more."

	rec, err := parseEstimate(raw, "123456")
	require.NoError(t, err)
	assert.Equal(t, "Desk Lamp", rec.Name)
	assert.Equal(t, 12000.0, rec.Price)
}

func TestParseEstimate_BareFences(t *testing.T) {
	raw := "```\n{\"name\": \"Desk Lamp\"}\n```"

	rec, err := parseEstimate(raw, "123456")
	require.NoError(t, err)
	assert.Equal(t, "Desk Lamp", rec.Name)
}

func TestParseEstimate_SurroundingProse(t *testing.T) {
	raw := `Sure! {"name": "Ceramic Mug", "price": 8900} Hope that helps.`

	rec, err := parseEstimate(raw, "999888")
	require.NoError(t, err)
	assert.Equal(t, "Ceramic Mug", rec.Name)
}

func TestParseEstimate_SalvagesMalformedJSON(t *testing.T) {
	// Trailing comma makes this invalid JSON; the regex salvage should still
	// recover the recognizable fields.
	raw := `{"name": "Broken Blender", "price": 45000, "rating": 3.9, "review_count": 17, "category": "Kitchen", "description": "Blends things.",}`

	rec, err := parseEstimate(raw, "555111")
	require.NoError(t, err)
	assert.Equal(t, "Broken Blender", rec.Name)
	assert.Equal(t, 45000.0, rec.Price)
	assert.Equal(t, 3.9, rec.Rating)
	assert.Equal(t, 17, rec.ReviewCount)
	assert.Equal(t, "Kitchen", rec.Category)
}

func TestParseEstimate_EscapedQuotesInSalvage(t *testing.T) {
	raw := `{"name": "The \"Best\" Pan", "price": 30000,}`

	rec, err := parseEstimate(raw, "42")
	require.NoError(t, err)
	assert.Equal(t, `The "Best" Pan`, rec.Name)
}

func TestParseEstimate_MissingName(t *testing.T) {
	_, err := parseEstimate(`{"price": 100, "category": "Misc"}`, "1")
	require.ErrorIs(t, err, ErrInvalidResponse)
}

func TestParseEstimate_Garbage(t *testing.T) {
	_, err := parseEstimate("I cannot help with that request.", "1")
	require.ErrorIs(t, err, ErrInvalidResponse)
}

func TestBuildPrompt(t *testing.T) {
	p := buildPrompt("7558015091", "wireless mouse")
	assert.Contains(t, p, "7558015091")
	assert.Contains(t, p, "wireless mouse")
	assert.Contains(t, p, `"name"`)

	noKeyword := buildPrompt("7558015091", "")
	assert.NotContains(t, noKeyword, "keyword")
}
