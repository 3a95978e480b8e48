package analysis

import (
	"encoding/json"
	"math"
	"strconv"
	"strings"
)

// Outcome tells whether model output was decoded as structured data.
type Outcome int

const (
	// OutcomeParsed means a JSON object was found and read.
	OutcomeParsed Outcome = iota
	// OutcomeDegraded means defaults were substituted for unreadable output.
	OutcomeDegraded
)

func (o Outcome) String() string {
	if o == OutcomeDegraded {
		return "degraded"
	}
	return "parsed"
}

// Decoded carries a decoded value together with how it was obtained.
type Decoded[T any] struct {
	Value   T
	Outcome Outcome
	Reason  string
}

// Degraded reports whether defaults were used.
func (d Decoded[T]) Degraded() bool {
	return d.Outcome == OutcomeDegraded
}

// ExtractJSONObject returns the first embedded JSON object in free-form text.
// Each '{' is tried in turn with a string-aware balanced scan; when no
// balanced candidate is valid JSON, the span up to the last '}' is tried.
func ExtractJSONObject(text string) (string, bool) {
	for start := strings.IndexByte(text, '{'); start >= 0; {
		if end, ok := matchBrace(text, start); ok {
			candidate := text[start : end+1]
			if json.Valid([]byte(candidate)) {
				return candidate, true
			}
		}

		next := strings.IndexByte(text[start+1:], '{')
		if next < 0 {
			break
		}
		start += next + 1
	}

	start := strings.IndexByte(text, '{')
	end := strings.LastIndexByte(text, '}')
	if start >= 0 && end > start {
		candidate := text[start : end+1]
		if json.Valid([]byte(candidate)) {
			return candidate, true
		}
	}

	return "", false
}

func matchBrace(text string, start int) (int, bool) {
	depth := 0
	inString := false
	escaped := false

	for i := start; i < len(text); i++ {
		c := text[i]
		if inString {
			switch {
			case escaped:
				escaped = false
			case c == '\\':
				escaped = true
			case c == '"':
				inString = false
			}
			continue
		}

		switch c {
		case '"':
			inString = true
		case '{':
			depth++
		case '}':
			depth--
			if depth == 0 {
				return i, true
			}
		}
	}

	return 0, false
}

type fieldSet map[string]json.RawMessage

func decodeFields(raw string) (fieldSet, string) {
	object, ok := ExtractJSONObject(raw)
	if !ok {
		return nil, "no JSON object found in model output"
	}

	var fields fieldSet
	if err := json.Unmarshal([]byte(object), &fields); err != nil {
		return nil, "model output JSON is not an object: " + err.Error()
	}

	return fields, ""
}

func (f fieldSet) lookup(keys ...string) (json.RawMessage, bool) {
	for _, key := range keys {
		if value, ok := f[key]; ok && string(value) != "null" {
			return value, true
		}
	}
	return nil, false
}

func (f fieldSet) number(keys ...string) (float64, bool) {
	value, ok := f.lookup(keys...)
	if !ok {
		return 0, false
	}
	return parseNumber(value)
}

func (f fieldSet) text(keys ...string) (string, bool) {
	value, ok := f.lookup(keys...)
	if !ok {
		return "", false
	}

	var s string
	if err := json.Unmarshal(value, &s); err != nil {
		return "", false
	}

	s = strings.TrimSpace(s)
	return s, s != ""
}

func (f fieldSet) strings(keys ...string) []string {
	value, ok := f.lookup(keys...)
	if !ok {
		return []string{}
	}
	return parseStringList(value)
}

func parseNumber(value json.RawMessage) (float64, bool) {
	var decoded interface{}
	if err := json.Unmarshal(value, &decoded); err != nil {
		return 0, false
	}

	switch v := decoded.(type) {
	case float64:
		return v, true
	case string:
		parsed, err := strconv.ParseFloat(strings.TrimSpace(strings.TrimSuffix(strings.TrimSpace(v), "%")), 64)
		if err != nil || math.IsNaN(parsed) || math.IsInf(parsed, 0) {
			return 0, false
		}
		return parsed, true
	default:
		return 0, false
	}
}

func parseStringList(value json.RawMessage) []string {
	var items []interface{}
	if err := json.Unmarshal(value, &items); err != nil {
		return []string{}
	}

	result := make([]string, 0, len(items))
	for _, item := range items {
		if s, ok := item.(string); ok {
			if trimmed := strings.TrimSpace(s); trimmed != "" {
				result = append(result, trimmed)
			}
		}
	}
	return result
}

// clamp bounds value to [lower, upper]; NaN maps to lower.
func clamp(value, lower, upper float64) float64 {
	if math.IsNaN(value) || value < lower {
		return lower
	}
	if value > upper {
		return upper
	}
	return value
}
