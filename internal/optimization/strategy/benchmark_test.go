package strategy

import (
	"context"
	"testing"

	"github.com/copyleftdev/discopt/internal/optimization"
	"github.com/copyleftdev/discopt/internal/optimization/optimizationtest"
)

// benchmarkStrategy measures one full run on a 12-variable problem shaped like
// the group-travel schedule (six travellers, two legs each).
func benchmarkStrategy(b *testing.B, name string, params Params) {
	problem := optimization.Problem{
		Domain: optimization.UniformDomain(12, 0, 9),
		Cost:   optimizationtest.Quadratic(1, 8, 3, 6, 0, 9, 2, 7, 4, 5, 3, 3),
	}

	b.ReportAllocs()
	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		opt, err := New(name, params, optimization.Options{RandomSeed: int64(i + 1)})
		if err != nil {
			b.Fatal(err)
		}
		if _, err := opt.Optimize(context.Background(), problem); err != nil {
			b.Fatal(err)
		}
	}
}

func BenchmarkRandom(b *testing.B)    { benchmarkStrategy(b, "random", Params{}) }
func BenchmarkHillClimb(b *testing.B) { benchmarkStrategy(b, "hillclimb", Params{}) }
func BenchmarkAnnealing(b *testing.B) { benchmarkStrategy(b, "annealing", Params{}) }
func BenchmarkGenetic(b *testing.B)   { benchmarkStrategy(b, "genetic", Params{}) }

func BenchmarkGeneticParallel(b *testing.B) {
	benchmarkStrategy(b, "genetic", Params{Workers: 4})
}
