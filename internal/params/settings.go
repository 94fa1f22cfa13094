package params

import (
	"bytes"
	"encoding/json"
	"fmt"
	"math"
	"strconv"
	"strings"
)

var (
	intKeys = map[string]bool{
		"Steps":     true,
		"Seed":      true,
		"Clip skip": true,
	}
	floatKeys = map[string]bool{
		"CFG scale":          true,
		"Denoising strength": true,
	}
)

// splitSettings splits a settings line on ", " outside brackets and double
// quotes.
func splitSettings(s string) []string {
	var out []string
	depth := 0
	inQuote := false
	start := 0
	for i := 0; i < len(s); i++ {
		c := s[i]
		switch {
		case inQuote && c == '\\':
			i++
		case c == '"':
			inQuote = !inQuote
		case inQuote:
		case c == '(' || c == '[' || c == '{':
			depth++
		case c == ')' || c == ']' || c == '}':
			if depth > 0 {
				depth--
			}
		case c == ',' && depth == 0 && i+1 < len(s) && s[i+1] == ' ':
			out = append(out, s[start:i])
			start = i + 2
			i++
		}
	}
	out = append(out, s[start:])

	tokens := out[:0]
	for _, t := range out {
		if t = strings.TrimSpace(t); t != "" {
			tokens = append(tokens, t)
		}
	}
	return tokens
}

// parseSettings parses "Key: value, Key: value". Keys are case-sensitive and
// the first occurrence of a key wins. clean is false when some token had no
// "Key: value" shape.
func parseSettings(line string) (settings map[string]any, clean bool) {
	settings = map[string]any{}
	clean = true
	for _, tok := range splitSettings(line) {
		k, v, ok := strings.Cut(tok, ": ")
		k, v = strings.TrimSpace(k), strings.TrimSpace(v)
		if !ok || k == "" {
			clean = false
			continue
		}
		if len(v) >= 2 && v[0] == '"' && v[len(v)-1] == '"' {
			if u, err := strconv.Unquote(v); err == nil {
				v = u
			}
		}
		if _, dup := settings[k]; dup {
			continue
		}
		settings[k] = coerce(k, v)
	}
	return settings, clean
}

func coerce(key, raw string) any {
	switch {
	case intKeys[key]:
		if n, err := strconv.ParseInt(raw, 10, 64); err == nil {
			return n
		}
	case floatKeys[key]:
		if f, err := strconv.ParseFloat(raw, 64); err == nil {
			return f
		}
	}
	return raw
}

// EncodeSettings serializes a settings map for storage.
func EncodeSettings(settings map[string]any) (string, error) {
	if len(settings) == 0 {
		return "", nil
	}
	b, err := json.Marshal(settings)
	if err != nil {
		return "", fmt.Errorf("encode settings: %w", err)
	}
	return string(b), nil
}

// DecodeSettings is the inverse of EncodeSettings. Numbers come back with the
// same kinds ParseParameters gives them.
func DecodeSettings(s string) (map[string]any, error) {
	if s == "" {
		return nil, nil
	}
	dec := json.NewDecoder(bytes.NewReader([]byte(s)))
	dec.UseNumber()
	var m map[string]any
	if err := dec.Decode(&m); err != nil {
		return nil, fmt.Errorf("decode settings: %w", err)
	}
	for k, v := range m {
		if n, ok := v.(json.Number); ok {
			m[k] = numberValue(k, n)
		}
	}
	return m, nil
}

func numberValue(key string, n json.Number) any {
	if !floatKeys[key] {
		if i, err := n.Int64(); err == nil {
			return i
		}
	}
	if f, err := n.Float64(); err == nil {
		if intKeys[key] && f == math.Trunc(f) && math.Abs(f) < 1<<53 {
			return int64(f)
		}
		return f
	}
	return n.String()
}
