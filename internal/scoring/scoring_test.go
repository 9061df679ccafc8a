package scoring

import (
	"context"
	"fmt"
	"math/rand/v2"
	"testing"
)

func randomLogProbs(n int) []float64 {
	seq := make([]float64, n)
	for i := range seq {
		seq[i] = -rand.Float64() * 12
	}
	return seq
}

// Benchmark the MinKPercent function
func BenchmarkMinKPercent(b *testing.B) {
	seq := randomLogProbs(2048)

	b.ResetTimer()

	for b.Loop() {
		_, _ = MinKPercent(seq, 20)
	}
}

// Benchmark adaptive scoring with different sequence lengths
func BenchmarkAdaptive(b *testing.B) {
	sizes := []int{128, 1024, 8192}
	methods := []Method{DefaultZScore(), DefaultIQR()}

	for _, size := range sizes {
		for _, method := range methods {
			b.Run(fmt.Sprintf("%s_Tokens%d", method.Name(), size), func(b *testing.B) {
				seq := randomLogProbs(size)

				b.ResetTimer()
				for b.Loop() {
					_, _, _ = Adaptive(seq, method)
				}
			})
		}
	}
}

func BenchmarkChunkedScore(b *testing.B) {
	ids := make([]int, 4096)
	for i := range ids {
		ids[i] = i
	}

	for _, workers := range []int{1, 4} {
		b.Run(fmt.Sprintf("Workers%d", workers), func(b *testing.B) {
			b.ResetTimer()
			for b.Loop() {
				_, _ = ChunkedScore(context.Background(), ids, 256, chunkProbs, WithConcurrency(workers))
			}
		})
	}
}
