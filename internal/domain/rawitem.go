package domain

// RawItem is one listing exactly as the Wallapop API returned it.
// The upstream schema is unstable and fields go missing between API
// versions, so all access goes through the defensive accessors below:
// absence returns the zero value, never an error.
type RawItem map[string]interface{}

// String returns the string at key, or "" when absent or not a string.
func (r RawItem) String(key string) string {
	if v, ok := r[key].(string); ok {
		return v
	}
	return ""
}

// Float returns the numeric value at key. JSON numbers decode as float64,
// so this also covers integer fields. The bool result reports presence.
func (r RawItem) Float(key string) (float64, bool) {
	switch v := r[key].(type) {
	case float64:
		return v, true
	case int:
		return float64(v), true
	case int64:
		return float64(v), true
	}
	return 0, false
}

// Int64 returns the integer value at key, truncating JSON floats.
func (r RawItem) Int64(key string) (int64, bool) {
	f, ok := r.Float(key)
	return int64(f), ok
}

// Bool returns the boolean at key, or false when absent.
func (r RawItem) Bool(key string) bool {
	v, _ := r[key].(bool)
	return v
}

// Map returns the nested object at key, or an empty RawItem when absent,
// so lookups can be chained without nil checks.
func (r RawItem) Map(key string) RawItem {
	if v, ok := r[key].(map[string]interface{}); ok {
		return RawItem(v)
	}
	return RawItem{}
}

// Slice returns the array at key, or nil when absent or not an array.
func (r RawItem) Slice(key string) []interface{} {
	v, _ := r[key].([]interface{})
	return v
}

// ID resolves the item identifier. Wallapop sends string ids but older
// payloads carried numeric ones; both resolve to a non-empty string.
func (r RawItem) ID() string {
	if s := r.String("id"); s != "" {
		return s
	}
	if f, ok := r.Float("id"); ok {
		return formatNumericID(f)
	}
	return ""
}

func formatNumericID(f float64) string {
	// Numeric ids are whole numbers; avoid scientific notation.
	n := int64(f)
	if n == 0 {
		return ""
	}
	digits := make([]byte, 0, 20)
	for n > 0 {
		digits = append([]byte{byte('0' + n%10)}, digits...)
		n /= 10
	}
	return string(digits)
}
