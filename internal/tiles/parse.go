package tiles

import (
	"errors"
	"fmt"
	"math"
	"strconv"
	"strings"

	"geotab/internal/backplane"
)

// ErrMalformedRule marks a tile declaration that cannot be parsed. It is a
// configuration defect.
var ErrMalformedRule = errors.New("malformed tile rule")

// ParseSet converts a declared tiling, a list of rule declarations, into a
// Set. See Parse for the rule forms.
func ParseSet(decl any) (Set, error) {
	items, ok := decl.([]any)
	if !ok || len(items) == 0 {
		return nil, fmt.Errorf("%w: tiling must be a non-empty list", ErrMalformedRule)
	}
	out := make(Set, 0, len(items))
	for i, item := range items {
		r, err := Parse(item)
		if err != nil {
			return nil, fmt.Errorf("tile %d: %w", i, err)
		}
		out = append(out, r)
	}
	return out, nil
}

// Parse converts one declaration. Declarations are lists whose head names
// the rule:
//
//	[where_all, rule...]
//	[where_any, rule...]
//	[where_below, key, x]
//	[where_between, key, lo, hi]
//	[where_above, key, x]
//	[where_<predicate>, target, params...]
//
// A key is [quantity, target, params...]. Bounds are numbers, optionally
// suffixed "deg" (degrees) or "pi" (multiples of pi); plain numbers are
// used as given.
func Parse(decl any) (Rule, error) {
	items, ok := decl.([]any)
	if !ok || len(items) == 0 {
		return Rule{}, fmt.Errorf("%w: %v is not a list", ErrMalformedRule, decl)
	}
	head, ok := items[0].(string)
	if !ok || !strings.HasPrefix(head, "where_") {
		return Rule{}, fmt.Errorf("%w: head %v", ErrMalformedRule, items[0])
	}
	args := items[1:]

	switch head {
	case "where_all", "where_any":
		var kids []Rule
		for _, a := range args {
			if s, ok := a.(string); ok && s == "" {
				continue
			}
			k, err := Parse(a)
			if err != nil {
				return Rule{}, err
			}
			kids = append(kids, k)
		}
		if head == "where_all" {
			return All(kids...), nil
		}
		if len(kids) == 0 {
			return Rule{}, fmt.Errorf("%w: where_any needs at least one rule", ErrMalformedRule)
		}
		return Any(kids...), nil

	case "where_below", "where_above":
		if len(args) != 2 {
			return Rule{}, fmt.Errorf("%w: %s takes a key and a bound", ErrMalformedRule, head)
		}
		key, err := parseKey(args[0])
		if err != nil {
			return Rule{}, err
		}
		x, err := parseBound(args[1])
		if err != nil {
			return Rule{}, err
		}
		if head == "where_below" {
			return Below(key, x), nil
		}
		return Above(key, x), nil

	case "where_between":
		if len(args) != 3 {
			return Rule{}, fmt.Errorf("%w: where_between takes a key and two bounds", ErrMalformedRule)
		}
		key, err := parseKey(args[0])
		if err != nil {
			return Rule{}, err
		}
		lo, err := parseBound(args[1])
		if err != nil {
			return Rule{}, err
		}
		hi, err := parseBound(args[2])
		if err != nil {
			return Rule{}, err
		}
		if hi < lo {
			return Rule{}, fmt.Errorf("%w: where_between bounds %g > %g", ErrMalformedRule, lo, hi)
		}
		return Between(key, lo, hi), nil
	}

	key, err := parseKey(items)
	if err != nil {
		return Rule{}, err
	}
	return Predicate(key), nil
}

func parseKey(decl any) (backplane.Key, error) {
	items, ok := decl.([]any)
	if !ok || len(items) == 0 {
		return backplane.Key{}, fmt.Errorf("%w: key %v is not a list", ErrMalformedRule, decl)
	}
	q, ok := items[0].(string)
	if !ok || q == "" {
		return backplane.Key{}, fmt.Errorf("%w: key quantity %v", ErrMalformedRule, items[0])
	}
	var target string
	if len(items) > 1 {
		if target, ok = items[1].(string); !ok {
			return backplane.Key{}, fmt.Errorf("%w: key target %v", ErrMalformedRule, items[1])
		}
	}
	var params []any
	if len(items) > 2 {
		params = items[2:]
	}
	return backplane.NewKey(q, target, params...), nil
}

func parseBound(v any) (float64, error) {
	switch x := v.(type) {
	case int:
		return float64(x), nil
	case int64:
		return float64(x), nil
	case float64:
		return x, nil
	case string:
		s := strings.TrimSpace(x)
		scale := 1.0
		switch {
		case strings.HasSuffix(s, "deg"):
			s, scale = strings.TrimSuffix(s, "deg"), math.Pi/180
		case strings.HasSuffix(s, "pi"):
			s, scale = strings.TrimSuffix(s, "pi"), math.Pi
		}
		f, err := strconv.ParseFloat(strings.TrimSpace(s), 64)
		if err != nil {
			return 0, fmt.Errorf("%w: bound %q", ErrMalformedRule, x)
		}
		return f * scale, nil
	}
	return 0, fmt.Errorf("%w: bound %v", ErrMalformedRule, v)
}
