package formula

import (
	"math"
	"reflect"
	"regexp"
	"strconv"
	"strings"
)

// Runtime values are plain Go values:
//
//	float64      number
//	string       string
//	bool         boolean
//	nil          null
//	Undefined    undefined
//	Object       read-only property bag (byId, byLabel, Math, Date)
//	Func         builtin function
type undefinedType struct{}

// Undefined is the value of a missing property.
var Undefined = undefinedType{}

func (undefinedType) String() string { return "undefined" }

// Object is a read-only property bag. Missing properties read as Undefined.
type Object map[string]any

// Func is a builtin callable. Builtins receive already-evaluated arguments.
type Func func(args []any) (any, error)

// isNullish reports whether v is null or undefined.
func isNullish(v any) bool {
	return v == nil || v == Undefined
}

// Truthy follows the host-language rules formulas are written against:
// false, 0, NaN, "", null and undefined are falsy; everything else is truthy.
func Truthy(v any) bool {
	switch x := v.(type) {
	case nil, undefinedType:
		return false
	case bool:
		return x
	case float64:
		return x != 0 && !math.IsNaN(x)
	case string:
		return x != ""
	default:
		return true
	}
}

var decimalLiteral = regexp.MustCompile(`^[+-]?(\d+\.?\d*|\.\d+)([eE][+-]?\d+)?$`)

// ToNumber converts a value to a number. Unconvertible values yield NaN.
func ToNumber(v any) float64 {
	switch x := v.(type) {
	case float64:
		return x
	case bool:
		if x {
			return 1
		}
		return 0
	case nil:
		return 0
	case string:
		return stringToNumber(x)
	default:
		return math.NaN()
	}
}

func stringToNumber(s string) float64 {
	s = strings.TrimSpace(s)
	switch s {
	case "":
		return 0
	case "Infinity", "+Infinity":
		return math.Inf(1)
	case "-Infinity":
		return math.Inf(-1)
	}
	if strings.HasPrefix(s, "0x") || strings.HasPrefix(s, "0X") {
		n, err := strconv.ParseUint(s[2:], 16, 64)
		if err != nil {
			return math.NaN()
		}
		return float64(n)
	}
	if !decimalLiteral.MatchString(s) {
		return math.NaN()
	}
	// Out of range input still yields ±Inf alongside the range error
	n, _ := strconv.ParseFloat(s, 64)
	return n
}

// ToString converts a value to its display string.
func ToString(v any) string {
	switch x := v.(type) {
	case nil:
		return "null"
	case undefinedType:
		return "undefined"
	case string:
		return x
	case bool:
		if x {
			return "true"
		}
		return "false"
	case float64:
		return FormatNumber(x)
	case Func:
		return "function"
	default:
		return "[object Object]"
	}
}

// FormatNumber renders a number the way browsers print it:
// integers without a fraction, shortest round-trip digits, and exponent
// notation outside [1e-6, 1e21).
func FormatNumber(n float64) string {
	switch {
	case math.IsNaN(n):
		return "NaN"
	case math.IsInf(n, 1):
		return "Infinity"
	case math.IsInf(n, -1):
		return "-Infinity"
	case n == 0:
		return "0"
	}
	abs := math.Abs(n)
	if abs >= 1e21 || abs < 1e-6 {
		s := strconv.FormatFloat(n, 'e', -1, 64)
		// Go writes e+07 / e-07; the runtime writes e+7 / e-7
		mantissa, exp, _ := strings.Cut(s, "e")
		sign := exp[0]
		exp = strings.TrimLeft(exp[1:], "0")
		return mantissa + "e" + string(sign) + exp
	}
	return strconv.FormatFloat(n, 'f', -1, 64)
}

// Display converts an evaluation result to the string stored in the value map.
// Null and undefined become the empty string.
func Display(v any) string {
	if isNullish(v) {
		return ""
	}
	return ToString(v)
}

// typeOf names the runtime type for error messages.
func typeOf(v any) string {
	switch v.(type) {
	case nil:
		return "null"
	case undefinedType:
		return "undefined"
	case float64:
		return "number"
	case string:
		return "string"
	case bool:
		return "boolean"
	case Func:
		return "function"
	default:
		return "object"
	}
}

// looseEqual implements ==: null and undefined equal each other, mixed
// number/string/boolean operands are compared numerically.
func looseEqual(a, b any) bool {
	if isNullish(a) || isNullish(b) {
		return isNullish(a) && isNullish(b)
	}
	switch x := a.(type) {
	case string:
		if y, ok := b.(string); ok {
			return x == y
		}
	case float64:
		if y, ok := b.(float64); ok {
			return x == y
		}
	case bool:
		if y, ok := b.(bool); ok {
			return x == y
		}
	}
	if isPrimitive(a) && isPrimitive(b) {
		return ToNumber(a) == ToNumber(b)
	}
	return sameReference(a, b)
}

// strictEqual implements ===: no coercion.
func strictEqual(a, b any) bool {
	if typeOf(a) != typeOf(b) {
		return false
	}
	switch x := a.(type) {
	case nil, undefinedType:
		return true
	case float64:
		return x == b.(float64)
	case string:
		return x == b.(string)
	case bool:
		return x == b.(bool)
	}
	return sameReference(a, b)
}

func isPrimitive(v any) bool {
	switch v.(type) {
	case float64, string, bool:
		return true
	}
	return false
}

// sameReference compares objects and functions by identity.
func sameReference(a, b any) bool {
	ra, rb := reflect.ValueOf(a), reflect.ValueOf(b)
	if ra.Kind() != rb.Kind() {
		return false
	}
	switch ra.Kind() {
	case reflect.Map, reflect.Func:
		return ra.Pointer() == rb.Pointer()
	}
	return false
}
