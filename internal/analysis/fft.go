package analysis

import (
	"math/cmplx"

	"github.com/mjibson/go-dsp/fft"
	"gonum.org/v1/gonum/floats"
)

// PowerSpectrum returns the magnitudes of the first half of the real FFT.
// Any length is accepted.
func PowerSpectrum(data []float64) []float64 {
	if len(data) == 0 {
		return nil
	}

	spec := fft.FFTReal(data)
	ps := make([]float64, len(spec)/2)
	for i := range ps {
		ps[i] = cmplx.Abs(spec[i])
	}

	return ps
}

// DominantFrequency is the frequency, in cycles per unit time, of the
// strongest non-constant component of a series sampled every dt.
func DominantFrequency(data []float64, dt float64) float64 {
	n := len(data)
	if n < 4 || dt <= 0 {
		return 0
	}

	centred := make([]float64, n)
	copy(centred, data)
	floats.AddConst(-floats.Sum(centred)/float64(n), centred)

	ps := PowerSpectrum(centred)
	k := 1 + floats.MaxIdx(ps[1:])
	return float64(k) / (float64(n) * dt)
}
