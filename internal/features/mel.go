package features

import (
	"math"

	"gonum.org/v1/gonum/mat"
)

// Slaney mel scale: linear below 1 kHz, logarithmic above.
const (
	melFSp       = 200.0 / 3
	melMinLogHz  = 1000.0
	melMinLogMel = melMinLogHz / melFSp
)

var melLogStep = math.Log(6.4) / 27.0

func hzToMel(hz float64) float64 {
	if hz >= melMinLogHz {
		return melMinLogMel + math.Log(hz/melMinLogHz)/melLogStep
	}
	return hz / melFSp
}

func melToHz(mel float64) float64 {
	if mel >= melMinLogMel {
		return melMinLogHz * math.Exp(melLogStep*(mel-melMinLogMel))
	}
	return melFSp * mel
}

// melFilterBank returns an nMels x (nFFT/2+1) matrix of triangular,
// area-normalized filters spanning 0 Hz to the Nyquist frequency.
func melFilterBank(sampleRate, nFFT, nMels int) *mat.Dense {
	nBins := nFFT/2 + 1
	fmax := float64(sampleRate) / 2

	fftFreqs := make([]float64, nBins)
	for j := range fftFreqs {
		fftFreqs[j] = fmax * float64(j) / float64(nBins-1)
	}

	// nMels+2 points evenly spaced on the mel scale
	minMel, maxMel := hzToMel(0), hzToMel(fmax)
	melF := make([]float64, nMels+2)
	for i := range melF {
		melF[i] = melToHz(minMel + (maxMel-minMel)*float64(i)/float64(nMels+1))
	}

	weights := mat.NewDense(nMels, nBins, nil)
	for i := range nMels {
		lowDiff := melF[i+1] - melF[i]
		highDiff := melF[i+2] - melF[i+1]
		enorm := 2.0 / (melF[i+2] - melF[i])
		for j, f := range fftFreqs {
			lower := (f - melF[i]) / lowDiff
			upper := (melF[i+2] - f) / highDiff
			w := math.Max(0, math.Min(lower, upper))
			weights.Set(i, j, w*enorm)
		}
	}
	return weights
}

// dctMatrix returns the first nOut rows of the orthonormal DCT-II matrix of size n.
func dctMatrix(nOut, n int) *mat.Dense {
	d := mat.NewDense(nOut, n, nil)
	scale0 := math.Sqrt(1 / float64(n))
	scale := math.Sqrt(2 / float64(n))
	for k := range nOut {
		s := scale
		if k == 0 {
			s = scale0
		}
		for j := range n {
			d.Set(k, j, s*math.Cos(math.Pi*float64(k)*(2*float64(j)+1)/(2*float64(n))))
		}
	}
	return d
}
