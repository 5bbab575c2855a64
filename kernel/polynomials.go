package kernel

const polynomialTerms = 100

// Polynomials builds a 100-term sequence mu = (mu+2)/2 from mu = 10 and
// evaluates it with Horner's rule at x = 0.2, iterations times, returning the
// sum of the evaluations.
func Polynomials(iterations uint32) float32 {
	const x float32 = 0.2

	var (
		pu   float32
		poly [polynomialTerms]float32
	)

	for i := uint32(0); i < iterations; i++ {
		mu := float32(10)

		for j := range poly {
			mu = (mu + 2) / 2
			poly[j] = mu
		}

		var s float32

		for j := range poly {
			s = float32(x*s) + poly[j]
		}

		pu += s
	}

	return pu
}
