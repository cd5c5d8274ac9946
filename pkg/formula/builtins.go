package formula

import (
	"errors"
	"math"
	"math/big"
	"regexp"
	"strings"
	"time"
)

// Names of the field lookup objects a formula can read.
const (
	ScopeByID    = "byId"
	ScopeByLabel = "byLabel"
)

const msPerDay = 24 * 60 * 60 * 1000

// Builtins returns the allow-listed utility bindings: numeric parsing, math,
// date access and string construction. Nothing here can reach the process
// environment, the network, storage, or mutate state.
// clock supplies "now" for Date; nil means time.Now.
func Builtins(clock func() time.Time) Env {
	if clock == nil {
		clock = time.Now
	}
	return Env{
		"Math":       mathObject(),
		"Date":       dateObject(clock),
		"Number":     Func(numberFunc),
		"String":     Func(stringFunc),
		"parseInt":   Func(parseIntFunc),
		"parseFloat": Func(parseFloatFunc),
		"isNaN":      Func(isNaNFunc),
	}
}

func arg(args []any, i int) any {
	if i < len(args) {
		return args[i]
	}
	return Undefined
}

// === Conversion ===

func numberFunc(args []any) (any, error) {
	if len(args) == 0 {
		return 0.0, nil
	}
	return ToNumber(args[0]), nil
}

func stringFunc(args []any) (any, error) {
	if len(args) == 0 {
		return "", nil
	}
	return ToString(args[0]), nil
}

func isNaNFunc(args []any) (any, error) {
	return math.IsNaN(ToNumber(arg(args, 0))), nil
}

// parseIntFunc reads the longest integer prefix in the given radix.
func parseIntFunc(args []any) (any, error) {
	s := strings.TrimSpace(ToString(arg(args, 0)))
	radix := 0
	if r := arg(args, 1); !isNullish(r) {
		radix = toInt32(ToNumber(r))
	}

	sign := 1.0
	if s != "" && (s[0] == '-' || s[0] == '+') {
		if s[0] == '-' {
			sign = -1
		}
		s = s[1:]
	}
	if radix == 0 || radix == 16 {
		if strings.HasPrefix(s, "0x") || strings.HasPrefix(s, "0X") {
			s = s[2:]
			radix = 16
		}
	}
	if radix == 0 {
		radix = 10
	}
	if radix < 2 || radix > 36 {
		return math.NaN(), nil
	}

	var n float64
	digits := 0
	for _, ch := range s {
		d, ok := digitValue(ch)
		if !ok || d >= radix {
			break
		}
		n = n*float64(radix) + float64(d)
		digits++
	}
	if digits == 0 {
		return math.NaN(), nil
	}
	return sign * n, nil
}

// toInt32 truncates f and wraps it into the int32 range; NaN and
// infinities become 0.
func toInt32(f float64) int {
	if math.IsNaN(f) || math.IsInf(f, 0) {
		return 0
	}
	f = math.Mod(math.Trunc(f), 1<<32)
	return int(int32(uint32(int64(f))))
}

func digitValue(ch rune) (int, bool) {
	switch {
	case ch >= '0' && ch <= '9':
		return int(ch - '0'), true
	case ch >= 'a' && ch <= 'z':
		return int(ch-'a') + 10, true
	case ch >= 'A' && ch <= 'Z':
		return int(ch-'A') + 10, true
	}
	return 0, false
}

var floatPrefix = regexp.MustCompile(`^[+-]?(Infinity|(\d+\.?\d*|\.\d+)([eE][+-]?\d+)?)`)

// parseFloatFunc reads the longest decimal prefix.
func parseFloatFunc(args []any) (any, error) {
	s := strings.TrimSpace(ToString(arg(args, 0)))
	m := floatPrefix.FindString(s)
	if m == "" {
		return math.NaN(), nil
	}
	return stringToNumber(m), nil
}

// === Math ===

func mathObject() Object {
	unary := func(fn func(float64) float64) Func {
		return func(args []any) (any, error) {
			return fn(ToNumber(arg(args, 0))), nil
		}
	}
	return Object{
		"PI":    math.Pi,
		"E":     math.E,
		"abs":   unary(math.Abs),
		"ceil":  unary(math.Ceil),
		"floor": unary(math.Floor),
		"trunc": unary(math.Trunc),
		"sqrt":  unary(math.Sqrt),
		"round": unary(roundHalfUp),
		"sign": unary(func(x float64) float64 {
			switch {
			case math.IsNaN(x):
				return x
			case x > 0:
				return 1
			case x < 0:
				return -1
			}
			return x
		}),
		"pow": Func(func(args []any) (any, error) {
			return math.Pow(ToNumber(arg(args, 0)), ToNumber(arg(args, 1))), nil
		}),
		"min": Func(func(args []any) (any, error) {
			return fold(args, math.Inf(1), math.Min), nil
		}),
		"max": Func(func(args []any) (any, error) {
			return fold(args, math.Inf(-1), math.Max), nil
		}),
	}
}

// roundHalfUp rounds to the nearest integer, ties toward +Inf. It avoids
// Floor(x+0.5), which rounds 0.49999999999999994 up.
func roundHalfUp(x float64) float64 {
	if math.IsNaN(x) || math.IsInf(x, 0) {
		return x
	}
	r := math.Floor(x)
	if x-r >= 0.5 {
		r++
	}
	if r == 0 {
		return math.Copysign(0, x)
	}
	return r
}

func fold(args []any, start float64, fn func(a, b float64) float64) float64 {
	acc := start
	for _, a := range args {
		n := ToNumber(a)
		if math.IsNaN(n) {
			return n
		}
		acc = fn(acc, n)
	}
	return acc
}

// === Date ===

// localDateFormats are date-time forms without a zone; they read as local time.
var localDateFormats = []string{
	"2006-01-02T15:04:05",
	"2006-01-02T15:04",
}

// parseDate parses an ISO 8601 date string. Date-only values are UTC
// midnight, date-times without an offset are local time.
func parseDate(s string) (time.Time, bool) {
	s = strings.TrimSpace(s)
	if t, err := time.Parse(time.RFC3339Nano, s); err == nil {
		return t, true
	}
	for _, format := range localDateFormats {
		if t, err := time.ParseInLocation(format, s, time.Local); err == nil {
			return t, true
		}
	}
	if t, err := time.Parse(time.DateOnly, s); err == nil {
		return t, true
	}
	return time.Time{}, false
}

// toMillis converts a date string or epoch-millisecond number to milliseconds.
func toMillis(v any) float64 {
	if n, ok := v.(float64); ok {
		return n
	}
	if s, ok := v.(string); ok {
		if t, ok := parseDate(s); ok {
			return float64(t.UnixMilli())
		}
	}
	return math.NaN()
}

func dateObject(clock func() time.Time) Object {
	return Object{
		"now": Func(func([]any) (any, error) {
			return float64(clock().UnixMilli()), nil
		}),
		"today": Func(func([]any) (any, error) {
			return clock().Format("2006-01-02"), nil
		}),
		"parse": Func(func(args []any) (any, error) {
			return toMillis(ToString(arg(args, 0))), nil
		}),
		"diffDays": Func(func(args []any) (any, error) {
			from, to := toMillis(arg(args, 0)), toMillis(arg(args, 1))
			return math.Floor((to - from) / msPerDay), nil
		}),
	}
}

// === String and number members ===

var errRange = errors.New("argument out of range")

func stringProperty(s, key string) any {
	switch key {
	case "length":
		return float64(len([]rune(s)))
	case "toUpperCase":
		return Func(func([]any) (any, error) { return strings.ToUpper(s), nil })
	case "toLowerCase":
		return Func(func([]any) (any, error) { return strings.ToLower(s), nil })
	case "trim":
		return Func(func([]any) (any, error) { return strings.TrimSpace(s), nil })
	case "includes":
		return Func(func(args []any) (any, error) {
			return strings.Contains(s, ToString(arg(args, 0))), nil
		})
	case "startsWith":
		return Func(func(args []any) (any, error) {
			return strings.HasPrefix(s, ToString(arg(args, 0))), nil
		})
	case "endsWith":
		return Func(func(args []any) (any, error) {
			return strings.HasSuffix(s, ToString(arg(args, 0))), nil
		})
	case "slice":
		return Func(func(args []any) (any, error) {
			runes := []rune(s)
			start := sliceIndex(arg(args, 0), len(runes), 0)
			end := sliceIndex(arg(args, 1), len(runes), len(runes))
			if start >= end {
				return "", nil
			}
			return string(runes[start:end]), nil
		})
	}
	return Undefined
}

// sliceIndex resolves a possibly negative slice bound against length n.
func sliceIndex(v any, n, def int) int {
	if v == Undefined {
		return def
	}
	f := ToNumber(v)
	if math.IsNaN(f) {
		return 0
	}
	i := int(math.Trunc(math.Max(math.Min(f, float64(n)), -float64(n))))
	if i < 0 {
		i += n
	}
	return i
}

func numberProperty(n float64, key string) any {
	if key != "toFixed" {
		return Undefined
	}
	return Func(func(args []any) (any, error) {
		digits := 0
		if d := arg(args, 0); d != Undefined {
			digits = int(ToNumber(d))
		}
		if digits < 0 || digits > 100 {
			return nil, errRange
		}
		return toFixed(n, digits), nil
	})
}

// toFixed formats n with exactly digits fraction digits. Rounding works on the
// exact binary value of n with ties away from zero, so 0.125 gives "0.13"
// while 1.005, stored just below, gives "1.00". Magnitudes of 1e21 and up use
// the ordinary number format.
func toFixed(n float64, digits int) string {
	if math.IsNaN(n) || math.IsInf(n, 0) || math.Abs(n) >= 1e21 {
		return FormatNumber(n)
	}
	sign := ""
	if n < 0 {
		sign = "-"
		n = -n
	}
	// scaled = n * 10^digits, rounded half up
	r := new(big.Rat).SetFloat64(n)
	r.Mul(r, new(big.Rat).SetInt(new(big.Int).Exp(big.NewInt(10), big.NewInt(int64(digits)), nil)))
	num := new(big.Int).Mul(r.Num(), big.NewInt(2))
	num.Add(num, r.Denom())
	scaled := num.Quo(num, new(big.Int).Mul(r.Denom(), big.NewInt(2)))

	s := scaled.String()
	if digits == 0 {
		return sign + s
	}
	if len(s) <= digits {
		s = strings.Repeat("0", digits-len(s)+1) + s
	}
	return sign + s[:len(s)-digits] + "." + s[len(s)-digits:]
}
