package cms

import (
	"encoding/json"
	"math"
	"strconv"
	"strings"

	"github.com/shopspring/decimal"
)

// Record is one untyped JSON object as the CMS returned it. Numbers are
// json.Number.
type Record = map[string]any

// Object returns v as a Record when it is a JSON object.
func Object(v any) (Record, bool) {
	r, ok := v.(map[string]any)
	return r, ok && r != nil
}

// First unwraps single-element arrays: an array yields its first element,
// anything else is returned unchanged.
func First(v any) any {
	if arr, ok := v.([]any); ok {
		if len(arr) == 0 {
			return nil
		}
		return arr[0]
	}
	return v
}

// List keeps the object entries of a JSON array.
func List(v any) []Record {
	arr, ok := v.([]any)
	if !ok {
		return nil
	}
	out := make([]Record, 0, len(arr))
	for _, item := range arr {
		if r, ok := Object(item); ok {
			out = append(out, r)
		}
	}
	return out
}

// Attributes returns r.attributes when it is an object and r otherwise.
func Attributes(r Record) Record {
	if attrs, ok := Object(r["attributes"]); ok {
		return attrs
	}
	return r
}

// Path walks nested objects, unwrapping arrays to their first element.
func Path(v any, keys ...string) any {
	cur := v
	for _, k := range keys {
		obj, ok := Object(First(cur))
		if !ok {
			return nil
		}
		cur = obj[k]
	}
	return cur
}

func String(v any) (string, bool) {
	s, ok := v.(string)
	return s, ok && s != ""
}

func Bool(v any) bool {
	switch b := v.(type) {
	case bool:
		return b
	case string:
		parsed, err := strconv.ParseBool(b)
		return err == nil && parsed
	}
	return false
}

// maxExponent bounds parsed numbers. Arithmetic rescales to the exponent, so
// a value like 1e999999999 would stall whoever touches it.
const maxExponent = 64

var (
	minInt64 = decimal.NewFromInt(math.MinInt64)
	maxInt64 = decimal.NewFromInt(math.MaxInt64)
)

// Decimal accepts json.Number, float, integer and numeric strings.
func Decimal(v any) (decimal.Decimal, bool) {
	switch n := v.(type) {
	case json.Number:
		return bounded(decimal.NewFromString(n.String()))
	case float64:
		if math.IsNaN(n) || math.IsInf(n, 0) {
			return decimal.Zero, false
		}
		return bounded(decimal.NewFromFloat(n), nil)
	case float32:
		return Decimal(float64(n))
	case int:
		return decimal.NewFromInt(int64(n)), true
	case int64:
		return decimal.NewFromInt(n), true
	case string:
		return bounded(decimal.NewFromString(strings.TrimSpace(n)))
	}
	return decimal.Zero, false
}

func bounded(d decimal.Decimal, err error) (decimal.Decimal, bool) {
	if err != nil {
		return decimal.Zero, false
	}
	if e := d.Exponent(); e > maxExponent || e < -maxExponent {
		return decimal.Zero, false
	}
	return d, true
}

// Int accepts the same shapes as Decimal but only whole values in int64 range.
func Int(v any) (int64, bool) {
	d, ok := Decimal(v)
	if !ok || !d.IsInteger() || d.LessThan(minInt64) || d.GreaterThan(maxInt64) {
		return 0, false
	}
	return d.IntPart(), true
}
