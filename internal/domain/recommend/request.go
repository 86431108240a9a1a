package recommend

import (
	"bytes"
	"encoding/json"
	"strconv"
	"strings"

	apperrors "github.com/yanqian/outfit-recommender/pkg/errors"
)

// ImageCountUnset marks a request that did not carry a usable image_count.
const ImageCountUnset = 0

// ParseRequest decodes a preference payload. Every field is optional and may
// be a string or a list; values of the wrong type degrade to empty. Only a
// body that is not a JSON object is rejected.
func ParseRequest(body []byte) (Request, error) {
	fields, err := decodeObject(body)
	if err != nil {
		return Request{}, err
	}
	req := Request{
		Styles:       collectStrings(fields, "styles", "style"),
		Colours:      collectStrings(fields, "colours", "colour", "colors", "color"),
		Occasions:    collectStrings(fields, "occasions", "occasion"),
		BodyShapes:   collectStrings(fields, "bodyShapes", "bodyShape"),
		SkinTones:    collectStrings(fields, "skinTones", "skinTone", "skin"),
		Temperature:  coerceFloat(fields["temperature"]),
		City:         firstString(fields, "city", "location"),
		UseWeather:   firstBool(fields, "use_weather", "useWeather"),
		Collection:   strings.ToLower(firstString(fields, "collection", "collectionName")),
		ImageCount:   coerceInt(fields["image_count"]),
		ExcludeNames: collectStrings(fields, "exclude_names", "excludeNames"),
	}
	return req, nil
}

func decodeObject(body []byte) (map[string]json.RawMessage, error) {
	trimmed := bytes.TrimSpace(body)
	if len(trimmed) == 0 {
		return map[string]json.RawMessage{}, nil
	}
	var fields map[string]json.RawMessage
	if err := json.Unmarshal(trimmed, &fields); err != nil {
		return nil, apperrors.Wrap(apperrors.CodeInvalidInput, "invalid JSON", err)
	}
	if fields == nil {
		fields = map[string]json.RawMessage{}
	}
	return fields, nil
}

func collectStrings(fields map[string]json.RawMessage, keys ...string) []string {
	var out []string
	for _, key := range keys {
		raw, ok := fields[key]
		if !ok {
			continue
		}
		out = append(out, coerceStrings(raw)...)
	}
	return out
}

// coerceStrings accepts a scalar or an array of scalars.
func coerceStrings(raw json.RawMessage) []string {
	raw = bytes.TrimSpace(raw)
	if len(raw) == 0 {
		return nil
	}
	if raw[0] == '[' {
		var items []json.RawMessage
		if err := json.Unmarshal(raw, &items); err != nil {
			return nil
		}
		out := make([]string, 0, len(items))
		for _, item := range items {
			if text, ok := scalarText(item); ok {
				out = append(out, text)
			}
		}
		return out
	}
	if text, ok := scalarText(raw); ok {
		return []string{text}
	}
	return nil
}

func scalarText(raw json.RawMessage) (string, bool) {
	raw = bytes.TrimSpace(raw)
	if len(raw) == 0 {
		return "", false
	}
	switch raw[0] {
	case '"':
		var s string
		if err := json.Unmarshal(raw, &s); err != nil {
			return "", false
		}
		s = strings.TrimSpace(s)
		return s, s != ""
	case '{', '[', 'n':
		return "", false
	default:
		// numbers and booleans keep their literal text
		return string(raw), true
	}
}

func firstString(fields map[string]json.RawMessage, keys ...string) string {
	for _, key := range keys {
		raw, ok := fields[key]
		if !ok {
			continue
		}
		var s string
		if err := json.Unmarshal(raw, &s); err != nil {
			continue
		}
		if s = strings.TrimSpace(s); s != "" {
			return s
		}
	}
	return ""
}

func firstBool(fields map[string]json.RawMessage, keys ...string) bool {
	for _, key := range keys {
		raw, ok := fields[key]
		if !ok || string(bytes.TrimSpace(raw)) == "null" {
			continue
		}
		return coerceBool(raw)
	}
	return false
}

func coerceBool(raw json.RawMessage) bool {
	var b bool
	if err := json.Unmarshal(raw, &b); err == nil {
		return b
	}
	var s string
	if err := json.Unmarshal(raw, &s); err == nil {
		switch strings.ToLower(strings.TrimSpace(s)) {
		case "true", "1", "yes", "on":
			return true
		}
		return false
	}
	var n float64
	if err := json.Unmarshal(raw, &n); err == nil {
		return n != 0
	}
	return false
}

func coerceFloat(raw json.RawMessage) *float64 {
	if len(raw) == 0 {
		return nil
	}
	var n float64
	if err := json.Unmarshal(raw, &n); err == nil {
		return &n
	}
	var s string
	if err := json.Unmarshal(raw, &s); err == nil {
		if parsed, err := strconv.ParseFloat(strings.TrimSpace(s), 64); err == nil {
			return &parsed
		}
	}
	return nil
}

func coerceInt(raw json.RawMessage) int {
	if len(raw) == 0 {
		return ImageCountUnset
	}
	var n float64
	if err := json.Unmarshal(raw, &n); err == nil {
		return clampToInt(n)
	}
	var s string
	if err := json.Unmarshal(raw, &s); err == nil {
		if parsed, err := strconv.Atoi(strings.TrimSpace(s)); err == nil {
			return clampToInt(float64(parsed))
		}
	}
	return ImageCountUnset
}

// clampToInt keeps explicit non-positive counts distinguishable from "unset"
// so they clamp to the minimum instead of the default.
func clampToInt(n float64) int {
	switch {
	case n >= 1<<20:
		return 1 << 20
	case n < 1:
		return -1
	default:
		return int(n)
	}
}

// clampCount applies the default and bounds to a requested image count.
func clampCount(requested, def, max int) int {
	if requested == ImageCountUnset {
		requested = def
	}
	if requested < 1 {
		return 1
	}
	if requested > max {
		return max
	}
	return requested
}
