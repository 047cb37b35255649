package pos

import (
	"math"
	"testing"
)

func TestDecomposeTotal(t *testing.T) {
	tests := []struct {
		name     string
		total    float64
		taxRate  float64
		subtotal float64
		tax      float64
	}{
		{"19 percent", 119.0, 0.19, 100.0, 19.0},
		{"zero total", 0, 0.19, 0, 0},
		{"zero rate", 50.0, 0, 50.0, 0},
		{"odd total", 10.0, 0.19, 8.403361344537815, 1.5966386554621845},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			subtotal, tax := decomposeTotal(tt.total, tt.taxRate)
			if math.Abs(subtotal-tt.subtotal) > 1e-9 {
				t.Fatalf("subtotal = %v, want %v", subtotal, tt.subtotal)
			}
			if math.Abs(tax-tt.tax) > 1e-9 {
				t.Fatalf("tax = %v, want %v", tax, tt.tax)
			}
			if math.Abs((subtotal+tax)-tt.total) > 1e-9 {
				t.Fatalf("subtotal+tax = %v, want %v", subtotal+tax, tt.total)
			}
		})
	}
}

func TestSplitEven(t *testing.T) {
	tests := []struct {
		name  string
		total float64
		n     int
		want  []float64
	}{
		{"exact division", 30.0, 3, []float64{10, 10, 10}},
		{"penny remainder", 10.0, 3, []float64{3.34, 3.33, 3.33}},
		{"two pennies", 0.05, 3, []float64{0.02, 0.02, 0.01}},
		{"single part", 7.77, 1, []float64{7.77}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			parts := splitEven(tt.total, tt.n)
			if len(parts) != len(tt.want) {
				t.Fatalf("got %d parts, want %d", len(parts), len(tt.want))
			}
			for i := range parts {
				if math.Abs(parts[i]-tt.want[i]) > 1e-9 {
					t.Fatalf("part %d = %v, want %v", i, parts[i], tt.want[i])
				}
			}
		})
	}
}

// Any total split any number of ways must come back penny-exact, with parts
// never further than one cent apart.
func TestSplitEvenSumsExact(t *testing.T) {
	totals := []float64{0.01, 0.99, 1.00, 9.99, 37.61, 100.00, 123.45, 999.97}
	for _, total := range totals {
		for n := 1; n <= 12; n++ {
			parts := splitEven(total, n)
			var sum float64
			min, max := math.Inf(1), math.Inf(-1)
			for _, p := range parts {
				sum = round2(sum + p)
				min = math.Min(min, p)
				max = math.Max(max, p)
			}
			if !amountsEqual(sum, total) {
				t.Fatalf("split %v by %d sums to %v", total, n, sum)
			}
			if round2(max-min) > 0.01 {
				t.Fatalf("split %v by %d spreads %v", total, n, max-min)
			}
		}
	}
}

func TestSplitEvenDegenerate(t *testing.T) {
	if parts := splitEven(10, 0); parts != nil {
		t.Fatalf("zero parts should return nil, got %v", parts)
	}
	if parts := splitEven(0, 4); parts != nil {
		t.Fatalf("zero total should return nil, got %v", parts)
	}
}

func TestAmountsEqualTolerance(t *testing.T) {
	if !amountsEqual(10.00, 10.009) {
		t.Fatal("difference within a cent should compare equal")
	}
	if amountsEqual(10.00, 10.02) {
		t.Fatal("two cents apart should not compare equal")
	}
}
