package derive

import (
	"strconv"
	"testing"

	"github.com/dlovans/formwright/pkg/form"
)

// BenchmarkCompute measures one pass over a realistic invoice form.
func BenchmarkCompute(b *testing.B) {
	fields := []form.Field{
		{ID: "qty", Label: "Quantity", Type: form.TypeNumber},
		{ID: "price", Label: "Unit Price", Type: form.TypeNumber},
		{ID: "discount", Label: "Discount", Type: form.TypeNumber},
		derived("subtotal", "Subtotal", "(Number(byId.qty) * Number(byId.price)).toFixed(2)", "qty", "price"),
		derived("total", "Total", "Math.max(0, Number(byId.subtotal) - Number(byId.discount)).toFixed(2)", "subtotal", "discount"),
		derived("tier", "Tier", "Number(byId.total) > 1000 ? 'gold' : Number(byId.total) > 100 ? 'silver' : 'bronze'", "total"),
	}
	values := form.Values{"qty": "12", "price": "19.99", "discount": "5", "subtotal": "", "total": "", "tier": ""}

	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		Compute(fields, values)
	}
}

// BenchmarkLargeSchema tests one pass with many derived fields.
func BenchmarkLargeSchema(b *testing.B) {
	var flags []bool
	for i := 0; i < 200; i++ {
		flags = append(flags, i%2 == 1)
	}
	fields := fieldsFromFlags(flags)
	values := valuesFor(fields, 1)

	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		Compute(fields, values)
	}
}

// BenchmarkSettle measures convergence of a ten-hop chain.
func BenchmarkSettle(b *testing.B) {
	fields := []form.Field{{ID: "f0", Label: "Seed", Type: form.TypeNumber}}
	for i := 1; i <= 10; i++ {
		prev := "f" + strconv.Itoa(i-1)
		fields = append(fields, derived("f"+strconv.Itoa(i), "Hop "+strconv.Itoa(i), "Number(byId."+prev+") + 1", prev))
	}
	engine := New()

	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		engine.Settle(fields, form.Values{"f0": "1"}, 32)
	}
}
