package activity

import (
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"strings"
)

// Distribution maps category labels to percentages.
type Distribution map[string]float64

// Sum returns the total of all values.
func (d Distribution) Sum() float64 {
	var total float64
	for _, v := range d {
		total += v
	}
	return total
}

// IsZero reports whether every value is zero (or the map is empty).
func (d Distribution) IsZero() bool {
	for _, v := range d {
		if v != 0 {
			return false
		}
	}
	return true
}

// emptyDistribution returns a distribution with every category at zero.
func emptyDistribution() Distribution {
	d := make(Distribution, len(Categories))
	for _, c := range Categories {
		d[c] = 0
	}
	return d
}

// Classify scores sourceText against the keyword table and returns a
// distribution normalised to sum to 100. Text with no keyword hits is
// attributed entirely to CategoryOther.
func Classify(sourceText string) Distribution {
	scores := emptyDistribution()
	lower := strings.ToLower(sourceText)

	for _, k := range keywords {
		for _, term := range k.terms {
			if strings.Contains(lower, term) {
				scores[k.category] += keywordWeight
			}
		}
	}

	if scores.IsZero() {
		scores[CategoryOther] = 100
	}

	total := scores.Sum()
	if total <= 0 {
		return scores
	}
	for c, v := range scores {
		scores[c] = v / total * 100
	}
	return scores
}

// ErrNoJSONObject is returned when model output contains no JSON object.
var ErrNoJSONObject = errors.New("activity: no JSON object in model output")

// ParseModelDistribution extracts the first balanced JSON object from raw
// model output and decodes it into a distribution over the fixed labels.
// Unknown labels are dropped; missing labels are zero. Numeric strings are
// accepted as values.
func ParseModelDistribution(raw string) (Distribution, error) {
	obj, ok := firstJSONObject(raw)
	if !ok {
		return nil, ErrNoJSONObject
	}

	var fields map[string]any
	if err := json.Unmarshal([]byte(obj), &fields); err != nil {
		return nil, fmt.Errorf("activity: decode model JSON: %w", err)
	}

	d := emptyDistribution()
	for label, v := range fields {
		label = strings.TrimSpace(label)
		if !ValidCategory(label) {
			continue
		}
		switch n := v.(type) {
		case float64:
			if n > 0 {
				d[label] = n
			}
		case string:
			f, err := strconv.ParseFloat(strings.TrimSuffix(strings.TrimSpace(n), "%"), 64)
			if err == nil && f > 0 {
				d[label] = f
			}
		}
	}
	return d, nil
}

// firstJSONObject returns the first brace-balanced {...} substring of s,
// ignoring braces that appear inside JSON string literals.
func firstJSONObject(s string) (string, bool) {
	start := strings.IndexByte(s, '{')
	if start < 0 {
		return "", false
	}

	depth := 0
	inString := false
	escaped := false
	for i := start; i < len(s); i++ {
		c := s[i]
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
				return s[start : i+1], true
			}
		}
	}
	return "", false
}
