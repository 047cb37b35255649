package pos

import "math"

// Epsilon is the absolute tolerance for all monetary comparisons. Values
// within it are treated as equal so floating-point drift never rejects an
// otherwise settled payment.
const Epsilon = 0.01

func round2(v float64) float64 {
	return math.Round(v*100) / 100
}

func amountsEqual(a, b float64) bool {
	return math.Abs(a-b) <= Epsilon+1e-9
}

// decomposeTotal splits a tax-inclusive total into its net and tax portions.
// Displayed prices already contain tax; tax is back-calculated, never added
// on top.
func decomposeTotal(total, taxRate float64) (subtotal, tax float64) {
	subtotal = total / (1 + taxRate)
	tax = total - subtotal
	return subtotal, tax
}

// splitEven divides total into n cash-payable parts: floor-to-cents base with
// the leftover pennies distributed one per part until exhausted. The parts
// always sum to total penny-exact.
func splitEven(total float64, n int) []float64 {
	if n <= 0 || total <= 0 {
		return nil
	}
	base := math.Floor(total/float64(n)*100) / 100
	remainderCents := int(math.Round((total - base*float64(n)) * 100))

	parts := make([]float64, n)
	for i := range parts {
		parts[i] = base
		if remainderCents > 0 {
			parts[i] = round2(parts[i] + 0.01)
			remainderCents--
		}
	}
	return parts
}
