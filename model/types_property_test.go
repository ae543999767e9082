package model

import (
	"testing"

	"github.com/leanovate/gopter"
	"github.com/leanovate/gopter/gen"
	"github.com/leanovate/gopter/prop"
)

// TestUsageAddMonotonicProperty verifies spec invariant 6 (usage
// monotonicity): accumulating any non-negative Usage delta never decreases
// any field of the running total.
func TestUsageAddMonotonicProperty(t *testing.T) {
	parameters := gopter.DefaultTestParameters()
	parameters.MinSuccessfulTests = 100
	properties := gopter.NewProperties(parameters)

	genUsage := gopter.CombineGens(
		gen.IntRange(0, 1_000_000),
		gen.IntRange(0, 1_000_000),
		gen.IntRange(0, 1_000_000),
	).Map(func(vs []any) Usage {
		return Usage{
			InputTokens:  vs[0].(int),
			OutputTokens: vs[1].(int),
			TotalTokens:  vs[2].(int),
		}
	})

	properties.Property("Add never decreases any field", prop.ForAll(
		func(a, b Usage) bool {
			sum := a.Add(b)
			return sum.InputTokens >= a.InputTokens &&
				sum.OutputTokens >= a.OutputTokens &&
				sum.TotalTokens >= a.TotalTokens
		},
		genUsage,
		genUsage,
	))

	properties.Property("Add is commutative", prop.ForAll(
		func(a, b Usage) bool {
			return a.Add(b) == b.Add(a)
		},
		genUsage,
		genUsage,
	))

	properties.TestingRun(t)
}
