package probe

import (
	"crypto/rand"
	"math/big"
	"strconv"

	"github.com/okian/winequality/internal/domain/features"
)

// getRandomFloat returns a random float64 between 0.0 and 1.0 using crypto/rand.
func getRandomFloat() float64 {
	n, _ := rand.Int(rand.Reader, big.NewInt(randomFloatDivisor))
	return float64(n.Int64()) / float64(randomFloatDivisor)
}

// generateSamples returns the three boundary vectors followed by n random
// vectors drawn uniformly inside every field's bounds.
func generateSamples(n int, lang string) []Sample {
	specs := features.Specs()
	samples := make([]Sample, 0, n+3)
	for _, b := range []struct {
		name string
		pick func(features.Spec) float64
	}{
		{SampleDefaults, func(s features.Spec) float64 { return s.Default }},
		{SampleMinimum, func(s features.Spec) float64 { return s.Min }},
		{SampleMaximum, func(s features.Spec) float64 { return s.Max }},
	} {
		fs := make(map[string]float64, len(specs))
		for _, s := range specs {
			fs[s.Name] = b.pick(s)
		}
		samples = append(samples, Sample{Name: b.name, Features: fs, Lang: lang})
	}
	for i := 0; i < n; i++ {
		fs := make(map[string]float64, len(specs))
		for _, s := range specs {
			fs[s.Name] = s.Min + getRandomFloat()*(s.Max-s.Min)
		}
		samples = append(samples, Sample{Name: "random_" + strconv.Itoa(i), Features: fs, Lang: lang})
	}
	return samples
}
