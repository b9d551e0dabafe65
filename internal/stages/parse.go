package stages

import (
	"encoding/json"
	"regexp"
	"strconv"
	"strings"
)

var (
	amountRe   = regexp.MustCompile(`\$?(\d{1,3}(?:,\d{3})*(?:\.\d{1,2})?|\d+(?:\.\d{1,2})?)`)
	jsonBlock  = regexp.MustCompile(`\{[\s\S]*\}`)
	numericRe  = regexp.MustCompile(`[^\d.]`)
)

// firstAmount pulls the first monetary value out of free text, 0 if none.
func firstAmount(text string) float64 {
	m := amountRe.FindStringSubmatch(text)
	if m == nil {
		return 0
	}
	v, err := strconv.ParseFloat(strings.ReplaceAll(m[1], ",", ""), 64)
	if err != nil {
		return 0
	}
	return v
}

// parseJSONObject extracts a JSON object from model output. Vision models
// often wrap the object in prose or code fences; the first brace-to-brace
// block is tried when direct parsing fails.
func parseJSONObject(text string) (map[string]any, bool) {
	var out map[string]any
	if err := json.Unmarshal([]byte(text), &out); err == nil {
		return out, true
	}
	if block := jsonBlock.FindString(text); block != "" {
		if err := json.Unmarshal([]byte(block), &out); err == nil {
			return out, true
		}
	}
	return nil, false
}

// asAmount coerces a JSON field that may arrive as number or string
// ("HK$125.50") into a float.
func asAmount(v any) float64 {
	switch val := v.(type) {
	case float64:
		return val
	case int:
		return float64(val)
	case string:
		cleaned := numericRe.ReplaceAllString(val, "")
		f, err := strconv.ParseFloat(cleaned, 64)
		if err != nil {
			return 0
		}
		return f
	}
	return 0
}

// containsAny reports whether text contains any of the words
// (case-insensitive).
func containsAny(text string, words ...string) bool {
	lower := strings.ToLower(text)
	for _, w := range words {
		if strings.Contains(lower, w) {
			return true
		}
	}
	return false
}

// classifyExpenseType buckets a receipt description into a policy category.
func classifyExpenseType(text string) string {
	switch {
	case containsAny(text, "taxi", "uber", "lyft", "flight", "airline", "fare", "transport", "travel"):
		return "travel"
	case containsAny(text, "hotel", "inn", "resort", "airbnb", "accommodation"):
		return "accommodation"
	case containsAny(text, "restaurant", "cafe", "food", "coffee", "meal", "lunch", "dinner"):
		return "meals"
	case containsAny(text, "entertainment", "client event", "show"):
		return "entertainment"
	default:
		return "office_supplies"
	}
}

// detectCurrency picks the currency code out of receipt text, HKD default
// for the local receipts this demo targets.
func detectCurrency(text string) string {
	switch {
	case strings.Contains(text, "HK$") || strings.Contains(text, "HKD"):
		return "HKD"
	case strings.Contains(text, "EUR") || strings.Contains(text, "€"):
		return "EUR"
	case strings.Contains(text, "GBP") || strings.Contains(text, "£"):
		return "GBP"
	case strings.Contains(text, "USD"):
		return "USD"
	}
	return "HKD"
}

// titleWord uppercases the first letter of a single lowercase word.
func titleWord(w string) string {
	if w == "" {
		return w
	}
	return strings.ToUpper(w[:1]) + w[1:]
}
