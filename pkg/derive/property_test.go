package derive

import (
	"reflect"
	"strconv"
	"testing"

	"github.com/leanovate/gopter"
	"github.com/leanovate/gopter/gen"
	"github.com/leanovate/gopter/prop"

	"github.com/dlovans/formwright/pkg/form"
)

// fieldsFromFlags builds a schema where flags[i] decides whether field i is derived.
func fieldsFromFlags(flags []bool) []form.Field {
	fields := make([]form.Field, len(flags))
	for i, isDerived := range flags {
		id := "f" + strconv.Itoa(i)
		fields[i] = form.Field{ID: id, Label: "Field " + strconv.Itoa(i), Type: form.TypeNumber}
		if isDerived && i > 0 {
			prev := "f" + strconv.Itoa(i-1)
			fields[i].Derived = &form.DerivedConfig{
				IsDerived: true,
				Parents:   []string{prev},
				Formula:   "Number(byId." + prev + ") * 2",
			}
		}
	}
	return fields
}

func valuesFor(fields []form.Field, seed int) form.Values {
	values := make(form.Values, len(fields))
	for i, f := range fields {
		values[f.ID] = strconv.Itoa(seed + i)
	}
	return values
}

func TestProperty_NonDerivedNeverInOutput(t *testing.T) {
	parameters := gopter.DefaultTestParameters()
	parameters.MinSuccessfulTests = 200
	properties := gopter.NewProperties(parameters)

	properties.Property("only derived field ids appear in the output", prop.ForAll(
		func(flags []bool, seed int) bool {
			fields := fieldsFromFlags(flags)
			out := Compute(fields, valuesFor(fields, seed))
			for _, f := range fields {
				_, present := out[f.ID]
				if present != f.IsDerived() {
					return false
				}
			}
			return len(out) <= len(fields)
		},
		gen.SliceOf(gen.Bool()),
		gen.IntRange(-1000, 1000),
	))

	properties.TestingRun(t)
}

func TestProperty_ComputeIsIdempotent(t *testing.T) {
	parameters := gopter.DefaultTestParameters()
	parameters.MinSuccessfulTests = 200
	properties := gopter.NewProperties(parameters)

	properties.Property("same inputs give the same output", prop.ForAll(
		func(flags []bool, seed int) bool {
			fields := fieldsFromFlags(flags)
			values := valuesFor(fields, seed)
			return reflect.DeepEqual(Compute(fields, values), Compute(fields, values))
		},
		gen.SliceOf(gen.Bool()),
		gen.IntRange(-1000, 1000),
	))

	properties.TestingRun(t)
}

func TestProperty_ProductMatchesArithmetic(t *testing.T) {
	parameters := gopter.DefaultTestParameters()
	parameters.MinSuccessfulTests = 200
	properties := gopter.NewProperties(parameters)

	properties.Property("Width*Height formula equals the integer product", prop.ForAll(
		func(w, h int) bool {
			out := Compute(areaFields(), form.Values{"a": strconv.Itoa(w), "b": strconv.Itoa(h)})
			return out["c"] == strconv.Itoa(w*h)
		},
		gen.IntRange(-10000, 10000),
		gen.IntRange(-10000, 10000),
	))

	properties.TestingRun(t)
}

func TestProperty_FailingFormulaYieldsEmpty(t *testing.T) {
	parameters := gopter.DefaultTestParameters()
	parameters.MinSuccessfulTests = 100
	properties := gopter.NewProperties(parameters)

	properties.Property("any reference through a missing id fails open", prop.ForAll(
		func(name string) bool {
			fields := areaFields()
			fields[2].Derived.Formula = "byId.missing_" + name + ".value"
			out := Compute(fields, form.Values{"a": "1", "b": "2"})
			return len(out) == 1 && out["c"] == ""
		},
		gen.Identifier(),
	))

	properties.TestingRun(t)
}
