package retry

import (
	"testing"
	"time"

	"github.com/leanovate/gopter"
	"github.com/leanovate/gopter/gen"
	"github.com/leanovate/gopter/prop"

	"github.com/agentcore/agentcore/model"
)

// TestDelayNeverExceedsMaxDelayProperty verifies the backoff delay computed
// for any attempt never exceeds MaxDelay plus its jitter headroom, for any
// combination of configured InitialDelay/MaxDelay/Jitter and attempt index.
func TestDelayNeverExceedsMaxDelayProperty(t *testing.T) {
	parameters := gopter.DefaultTestParameters()
	parameters.MinSuccessfulTests = 100
	properties := gopter.NewProperties(parameters)

	properties.Property("Delay(attempt) never exceeds MaxDelay*(1+Jitter)", prop.ForAll(
		func(initialMS, maxMS, attempt int, jitter float64) bool {
			s := Strategy{
				InitialDelay: time.Duration(initialMS) * time.Millisecond,
				MaxDelay:     time.Duration(maxMS) * time.Millisecond,
				Jitter:       jitter,
			}
			d := s.Delay(attempt)
			limit := float64(s.maxDelay()) * (1 + jitter)
			return float64(d) <= limit+1
		},
		gen.IntRange(1, 10_000),
		gen.IntRange(1, 10_000),
		gen.IntRange(0, 20),
		gen.Float64Range(0, 1),
	))

	properties.TestingRun(t)
}

// TestShouldRetryRespectsMaxAttemptsProperty verifies the retry bound (spec
// invariant "retry bound"): ShouldRetry never returns true once attempt+1
// reaches MaxAttempts, regardless of the error.
func TestShouldRetryRespectsMaxAttemptsProperty(t *testing.T) {
	parameters := gopter.DefaultTestParameters()
	parameters.MinSuccessfulTests = 100
	properties := gopter.NewProperties(parameters)

	properties.Property("ShouldRetry never exceeds MaxAttempts", prop.ForAll(
		func(maxAttempts, attempt int) bool {
			s := Strategy{MaxAttempts: maxAttempts}
			got := s.ShouldRetry(model.ErrModelThrottled, attempt)
			if attempt+1 >= s.maxAttempts() {
				return got == false
			}
			return got == true
		},
		gen.IntRange(1, 20),
		gen.IntRange(0, 20),
	))

	properties.TestingRun(t)
}
