package scoremath

import (
	"testing"
	"time"
)

// BenchmarkHotScore benchmarks the hot score calculation.
func BenchmarkHotScore(b *testing.B) {
	submittedAt := time.Now().Add(-6 * time.Hour)
	now := time.Now()

	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		HotScore(120, 14, submittedAt, now)
	}
}

// BenchmarkWilsonScore benchmarks the Wilson lower bound calculation.
func BenchmarkWilsonScore(b *testing.B) {
	for i := 0; i < b.N; i++ {
		WilsonScore(120, 14, 0.95)
	}
}

// BenchmarkBayesianAverage benchmarks the Bayesian average calculation
// over a realistic rating sample.
func BenchmarkBayesianAverage(b *testing.B) {
	ratings := make([]float64, 100)
	for i := range ratings {
		if i%5 == 0 {
			ratings[i] = 2
		} else {
			ratings[i] = 4
		}
	}

	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		BayesianAverage(ratings, 100, DefaultPriorMean, DefaultPriorWeight)
	}
}

// BenchmarkUpdateElo benchmarks the ELO rating update.
func BenchmarkUpdateElo(b *testing.B) {
	for i := 0; i < b.N; i++ {
		UpdateElo(1450, 1200, 0.85, DefaultKFactor, EloMin, EloMax)
	}
}
