package render

import (
	"encoding/json"
	"strings"
	"unicode/utf8"

	"github.com/irfndi/timeseries-dashboard/internal/models"
	"github.com/irfndi/timeseries-dashboard/internal/utils"
)

const notAvailable = "N/A"

// fixed formats a number with digits decimals; anything non-numeric is N/A.
func fixed(v any, digits int) string {
	switch t := v.(type) {
	case *float64:
		return utils.ToFixedPtr(t, digits)
	case float64:
		return utils.ToFixed(t, digits)
	default:
		return utils.ToFixedPtr(models.FloatPtr(v), digits)
	}
}

// textOr renders v as text, or fallback when v is absent, null or "".
// Zero and false are shown as they are.
func textOr(v any, fallback string) string {
	s := models.TextOf(v)
	if s == "" {
		return fallback
	}
	return s
}

// truthyTextOr is textOr that also treats zero and false as missing.
func truthyTextOr(v any, fallback string) string {
	if !models.Truthy(v) {
		return fallback
	}
	return textOr(v, fallback)
}

// jsonText renders strings as they are and anything else as compact JSON.
func jsonText(v any) string {
	if s, ok := v.(string); ok {
		return s
	}
	b, err := json.Marshal(v)
	if err != nil {
		return ""
	}
	return string(b)
}

// truncate cuts s to limit runes, marking the cut with "...".
func truncate(s string, limit int) string {
	if utf8.RuneCountInString(s) <= limit {
		return s
	}
	runes := []rune(s)
	return strings.TrimRight(string(runes[:limit]), " ") + "..."
}

// labeled is a "Label: value" line.
type labeled struct {
	Label string
	Value string
}

// datasetSlug turns original_data into original-data.
func datasetSlug(key string) string {
	return strings.ReplaceAll(key, "_", "-")
}

// datasetShort turns pre_garch_data into pre-garch.
func datasetShort(key string) string {
	return datasetSlug(strings.TrimSuffix(key, "_data"))
}
