// Package backplane is the narrow interface to per-observation geometry:
// sampled quantities, occlusion and shadow predicates, and the bodies in the
// field of view.
package backplane

import (
	"fmt"
	"strings"
)

// Key names a quantity evaluated over an observation's samples.
type Key struct {
	Quantity string
	Target   string
	Params   string // extra arguments, comma-joined
}

// NewKey builds a key, rendering params with their default formats.
func NewKey(quantity, target string, params ...any) Key {
	ps := make([]string, len(params))
	for i, p := range params {
		ps[i] = fmt.Sprint(p)
	}
	return Key{Quantity: quantity, Target: target, Params: strings.Join(ps, ",")}
}

// String renders the key as quantity(target[,params]); archives store
// backplanes under this form.
func (k Key) String() string {
	if k.Params == "" {
		return k.Quantity + "(" + k.Target + ")"
	}
	return k.Quantity + "(" + k.Target + "," + k.Params + ")"
}

// ParseKey is the inverse of String.
func ParseKey(s string) (Key, error) {
	open := strings.IndexByte(s, '(')
	if open <= 0 || !strings.HasSuffix(s, ")") {
		return Key{}, fmt.Errorf("backplane: malformed key %q", s)
	}
	k := Key{Quantity: s[:open]}
	k.Target, k.Params, _ = strings.Cut(s[open+1:len(s)-1], ",")
	return k, nil
}

// Expand replaces every occurrence of placeholder with body.
func (k Key) Expand(placeholder, body string) Key {
	k.Target = strings.ReplaceAll(k.Target, placeholder, body)
	k.Params = strings.ReplaceAll(k.Params, placeholder, body)
	return k
}

// Predicate quantity names.
const (
	WhereInBack       = "where_in_back"
	WhereInsideShadow = "where_inside_shadow"
	WhereAntisunward  = "where_antisunward"
	WhereSunward      = "where_sunward"
)
