package parse

import "strings"

// ElementParser converts one bound of a range.
type ElementParser func(raw string) (float64, error)

// Range parses a scalar-or-range string using elem for the bounds. Supported
// shapes: "a-b", "-b" (open start), "a-" (open end), "a+" (open end) and a
// bare scalar (start == end). Absent bounds come back nil.
func Range(raw string, elem ElementParser) (start, end *float64, err error) {
	if absent(raw) {
		return nil, nil, nil
	}
	s := strings.TrimSpace(raw)

	if strings.HasSuffix(s, "+") {
		v, err := elem(strings.TrimSpace(strings.TrimSuffix(s, "+")))
		if err != nil {
			return nil, nil, err
		}
		return &v, nil, nil
	}

	if strings.Count(s, "-") == 1 {
		parts := strings.SplitN(s, "-", 2)
		left, right := strings.TrimSpace(parts[0]), strings.TrimSpace(parts[1])
		if left == "" && right == "" {
			return nil, nil, newError(raw, "range has no bounds")
		}
		if left != "" {
			v, err := elem(left)
			if err != nil {
				return nil, nil, err
			}
			start = &v
		}
		if right != "" {
			v, err := elem(right)
			if err != nil {
				return nil, nil, err
			}
			end = &v
		}
		return start, end, nil
	}
	if strings.Count(s, "-") > 1 {
		return nil, nil, newError(raw, "range has more than one separator")
	}

	v, err := elem(s)
	if err != nil {
		return nil, nil, err
	}
	return &v, &v, nil
}
