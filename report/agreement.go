package report

import (
	"slices"

	"gonum.org/v1/gonum/floats/scalar"

	"github.com/weiihann/kernelbench/harness"
	"github.com/weiihann/kernelbench/kernel"
)

// float32 carries 29 fewer mantissa bits than float64.
const float32ULPShift = 52 - 23

// StrategyResult is one strategy's answer for a kernel.
type StrategyResult struct {
	Strategy string       `json:"strategy"`
	Value    kernel.Value `json:"value"`
}

// Agreement says whether all strategies produced the same result for a
// kernel.
type Agreement struct {
	Kernel  string           `json:"kernel"`
	Match   bool             `json:"match"`
	Results []StrategyResult `json:"results"`
}

// CheckAgreement groups records by kernel, in order of first appearance, and
// compares every result against the first. Integers must match exactly;
// floats may differ by at most maxULP units in the last place of their own
// width. With maxULP zero the comparison is bitwise.
func CheckAgreement(records []harness.Record, maxULP uint) []Agreement {
	var agreements []Agreement

	for _, r := range records {
		i := slices.IndexFunc(agreements, func(a Agreement) bool {
			return a.Kernel == r.Kernel
		})

		if i < 0 {
			agreements = append(agreements, Agreement{Kernel: r.Kernel, Match: true})
			i = len(agreements) - 1
		}

		a := &agreements[i]
		a.Results = append(a.Results, StrategyResult{Strategy: r.Strategy, Value: r.Result})

		if !resultsAgree(a.Results[0].Value, r.Result, maxULP) {
			a.Match = false
		}
	}

	return agreements
}

func resultsAgree(a, b kernel.Value, maxULP uint) bool {
	if a.Kind != b.Kind {
		return false
	}

	if a.Bits == b.Bits {
		return true
	}

	if !a.Kind.IsFloat() || maxULP == 0 {
		return false
	}

	ulp := maxULP
	if a.Kind == kernel.KindFloat32 {
		ulp <<= float32ULPShift
	}

	return scalar.EqualWithinULP(a.Float64(), b.Float64(), ulp)
}
