// Package features computes MFCC matrices from mono sample buffers.
package features

import (
	"math"

	"gonum.org/v1/gonum/dsp/fourier"
	"gonum.org/v1/gonum/mat"
)

// Analysis parameters used for every segment.
const (
	NMFCC     = 13
	NFFT      = 2048
	HopLength = 512
	NMels     = 128

	amin  = 1e-10
	topDB = 80.0
)

// MFCC computes mel-frequency cepstral coefficients for one sample rate.
// It reuses FFT work buffers and is not safe for concurrent use.
type MFCC struct {
	sampleRate int
	window     []float64
	fft        *fourier.FFT
	melBasis   *mat.Dense // NMels x NFFT/2+1
	dct        *mat.Dense // NMFCC x NMels
	frame      []float64
	coeffs     []complex128
}

// NewMFCC prepares the filter bank and transforms for sampleRate.
func NewMFCC(sampleRate int) *MFCC {
	return &MFCC{
		sampleRate: sampleRate,
		window:     hann(NFFT),
		fft:        fourier.NewFFT(NFFT),
		melBasis:   melFilterBank(sampleRate, NFFT, NMels),
		dct:        dctMatrix(NMFCC, NMels),
		frame:      make([]float64, NFFT),
	}
}

// SampleRate returns the rate the filter bank was built for.
func (m *MFCC) SampleRate() int {
	return m.sampleRate
}

// Frames returns the number of MFCC vectors produced for n samples.
func Frames(n int) int {
	return 1 + n/HopLength
}

// Compute returns the MFCC matrix of signal with time as the leading axis:
// Frames(len(signal)) rows of NMFCC coefficients.
func (m *MFCC) Compute(signal []float32) [][]float32 {
	power := m.powerSpectrogram(signal)

	_, nFrames := power.Dims()
	var mel mat.Dense
	mel.Mul(m.melBasis, power)
	powerToDB(&mel)

	var cep mat.Dense
	cep.Mul(m.dct, &mel)

	out := make([][]float32, nFrames)
	for t := range out {
		row := make([]float32, NMFCC)
		for k := range row {
			row[k] = float32(cep.At(k, t))
		}
		out[t] = row
	}
	return out
}

// powerSpectrogram returns |STFT|^2 as an (NFFT/2+1) x frames matrix. The
// signal is zero-padded by NFFT/2 on both sides so frames are centered.
func (m *MFCC) powerSpectrogram(signal []float32) *mat.Dense {
	nBins := NFFT/2 + 1
	nFrames := Frames(len(signal))
	pad := NFFT / 2

	power := mat.NewDense(nBins, nFrames, nil)
	for t := range nFrames {
		start := t*HopLength - pad
		for i := range m.frame {
			idx := start + i
			if idx < 0 || idx >= len(signal) {
				m.frame[i] = 0
				continue
			}
			m.frame[i] = float64(signal[idx]) * m.window[i]
		}
		m.coeffs = m.fft.Coefficients(m.coeffs, m.frame)
		for b, c := range m.coeffs {
			power.Set(b, t, real(c)*real(c)+imag(c)*imag(c))
		}
	}
	return power
}

// powerToDB converts power values to decibels in place, clipping everything
// more than topDB below the peak.
func powerToDB(s *mat.Dense) {
	peak := math.Inf(-1)
	s.Apply(func(_, _ int, v float64) float64 {
		db := 10 * math.Log10(math.Max(amin, v))
		peak = math.Max(peak, db)
		return db
	}, s)

	floor := peak - topDB
	s.Apply(func(_, _ int, v float64) float64 {
		return math.Max(v, floor)
	}, s)
}

// hann returns a periodic Hann window of length n.
func hann(n int) []float64 {
	w := make([]float64, n)
	for i := range w {
		w[i] = 0.5 - 0.5*math.Cos(2*math.Pi*float64(i)/float64(n))
	}
	return w
}
