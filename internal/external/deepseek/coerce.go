package deepseek

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/shopspring/decimal"

	"github.com/robroyhobbs/burgerprice/internal/contracts"
)

// Object is a decoded JSON object from a completion.
type Object map[string]interface{}

// DecodeObject parses content as a JSON object, keeping numbers exact.
func DecodeObject(content string) (Object, error) {
	dec := json.NewDecoder(bytes.NewReader([]byte(content)))
	dec.UseNumber()

	var obj Object
	if err := dec.Decode(&obj); err != nil {
		return nil, fmt.Errorf("%w: completion is not a JSON object: %v", contracts.ErrUpstream, err)
	}
	if obj == nil {
		return nil, fmt.Errorf("%w: completion is null", contracts.ErrUpstream)
	}
	return obj, nil
}

// String returns the value under key as a string, or def when it is missing,
// empty or not a scalar.
func (o Object) String(key, def string) string {
	return CoerceString(o[key], def)
}

// Number returns the value under key as a decimal, or zero when it is not numeric.
func (o Object) Number(key string) decimal.Decimal {
	return CoerceNumber(o[key])
}

// Object returns the nested object under key, or an empty one.
func (o Object) Object(key string) Object {
	if m, ok := o[key].(map[string]interface{}); ok {
		return Object(m)
	}
	return Object{}
}

// Objects returns the array under key as objects. Non-object entries are
// returned as empty objects so callers apply their defaults. ok is false when
// key is missing or not an array.
func (o Object) Objects(key string) (items []Object, ok bool) {
	raw, ok := o[key].([]interface{})
	if !ok {
		return nil, false
	}
	items = make([]Object, 0, len(raw))
	for _, v := range raw {
		if m, isMap := v.(map[string]interface{}); isMap {
			items = append(items, Object(m))
		} else {
			items = append(items, Object{})
		}
	}
	return items, true
}

// CoerceString converts a loosely typed JSON value to a string.
func CoerceString(v interface{}, def string) string {
	switch x := v.(type) {
	case string:
		if x == "" {
			return def
		}
		return x
	case json.Number:
		if d, err := decimal.NewFromString(x.String()); err == nil && d.IsZero() {
			return def
		}
		return x.String()
	case bool:
		if !x {
			return def
		}
		return "true"
	default:
		return def
	}
}

// CoerceNumber converts a loosely typed JSON value to a decimal; anything
// non-numeric becomes zero.
func CoerceNumber(v interface{}) decimal.Decimal {
	var s string
	switch x := v.(type) {
	case json.Number:
		s = x.String()
	case string:
		s = strings.TrimSpace(x)
	case float64:
		return decimal.NewFromFloat(x)
	default:
		return decimal.Zero
	}
	if s == "" {
		return decimal.Zero
	}
	d, err := decimal.NewFromString(s)
	if err != nil {
		return decimal.Zero
	}
	return d
}

// OneOf returns v when it is one of allowed, else def.
func OneOf(v interface{}, def string, allowed ...string) string {
	s, ok := v.(string)
	if !ok {
		return def
	}
	for _, a := range allowed {
		if s == a {
			return s
		}
	}
	return def
}
