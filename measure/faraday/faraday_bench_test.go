package faraday

import "testing"

func BenchmarkFindPeak(b *testing.B) {
	sizes := []struct {
		name string
		n    int
	}{
		{"201", 201},
		{"801", 801},
		{"4K", 4001},
	}

	for _, tc := range sizes {
		b.Run(tc.name, func(b *testing.B) {
			step := 400.0 / float64(tc.n-1)
			phi := grid(-200, step, tc.n)
			fdf := gaussianFDF(phi, 20, 2, 1, 0)

			b.ReportAllocs()
			b.ResetTimer()

			for range b.N {
				if _, err := FindPeak(phi, fdf); err != nil {
					b.Fatal(err)
				}
			}
		})
	}
}

func BenchmarkAmplitude(b *testing.B) {
	phi := grid(-200, 0.5, 801)
	fdf := gaussianFDF(phi, 20, 2, 1, 0)

	b.SetBytes(int64(len(fdf) * 16))
	b.ResetTimer()

	for range b.N {
		_ = Amplitude(fdf)
	}
}
