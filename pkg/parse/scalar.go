package parse

import "strings"

// Bool parses case-insensitive true/yes and false/no. Absent input yields
// nil; anything else is a parse error.
func Bool(raw string) (*bool, error) {
	if absent(raw) {
		return nil, nil
	}
	var v bool
	switch strings.ToLower(strings.TrimSpace(raw)) {
	case "true", "yes":
		v = true
	case "false", "no":
		v = false
	default:
		return nil, newError(raw, "not a recognized boolean")
	}
	return &v, nil
}

// List splits raw on the given delimiter, trimming whitespace and dropping
// empty tokens. A non-delimited value becomes a one-element list.
func List(raw string, delimiter rune) []string {
	if absent(raw) {
		return nil
	}
	var out []string
	for _, token := range strings.Split(raw, string(delimiter)) {
		token = strings.TrimSpace(token)
		if token != "" {
			out = append(out, token)
		}
	}
	return out
}

// ListAuto splits on an auto-detected delimiter: comma or colon, but not
// both. Raw values containing both delimiters are ambiguous and rejected.
func ListAuto(raw string) ([]string, error) {
	if absent(raw) {
		return nil, nil
	}
	hasComma := strings.ContainsRune(raw, ',')
	hasColon := strings.ContainsRune(raw, ':')
	switch {
	case hasComma && hasColon:
		return nil, newError(raw, "ambiguous list delimiter: both comma and colon present")
	case hasColon:
		return List(raw, ':'), nil
	default:
		return List(raw, ','), nil
	}
}

// UniqueList is ListAuto with duplicates dropped, keeping first occurrences.
func UniqueList(raw string) ([]string, error) {
	tokens, err := ListAuto(raw)
	if err != nil {
		return nil, err
	}
	seen := make(map[string]struct{}, len(tokens))
	var out []string
	for _, token := range tokens {
		if _, dup := seen[token]; dup {
			continue
		}
		seen[token] = struct{}{}
		out = append(out, token)
	}
	return out, nil
}
