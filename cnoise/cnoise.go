// Copyright (c) 2024, The Emergent Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

/*
Package cnoise generates Gaussian colored noise with a (1/f)^beta power
spectrum by the Timmer-Koenig method: spectrally shaped Gaussian
coefficients inverted through a real FFT, normalized to unit variance.
Exponent 0 is white noise, 1 pink, 2 brown.

Rollout realizations pre-generate the full noise for a reinforcement
learning run, one independent series per neuron, and serve it per step
through Sample, satisfying the snn.NoiseSource interface.
*/
package cnoise

import (
	"math"

	"github.com/emer/emergent/erand"
	"github.com/emer/spikenet/snn"
	"gonum.org/v1/gonum/dsp/fourier"
)

// Params configure the noise spectrum.
type Params struct {
	Exponent float32         `desc:"spectral exponent beta in (1/f)^beta; 0 white, 1 pink, 2 brown"`
	FMin     float32         `def:"0" desc:"low-frequency cutoff relative to unit sampling rate, 0 follows the pure power law; at most 0.5"`
	Rnd      erand.RndParams `view:"inline" desc:"distribution of the spectral coefficients, standard Gaussian"`
}

func (cp *Params) Defaults() {
	cp.Exponent = 0
	cp.FMin = 0
	cp.Rnd = erand.RndParams{Dist: erand.Gaussian, Mean: 0, Var: 1}
}

func (cp *Params) Validate() error {
	if cp.FMin < 0 || cp.FMin > 0.5 {
		return snn.ConfigErrorf("cnoise FMin (%g) must be in [0, 0.5]", cp.FMin)
	}
	return nil
}

// Series generates one noise series of length n, normalized so the
// expected variance is 1.
func (cp *Params) Series(n int) []float32 {
	nf := n/2 + 1
	scale := make([]float64, nf)
	for i := 0; i < nf; i++ {
		scale[i] = float64(i) / float64(n)
	}
	fmin := math.Max(float64(cp.FMin), 1/float64(n))
	// flatten the spectrum below the cutoff; index 0 is always below
	ix := 0
	for ix < nf && scale[ix] < fmin {
		ix++
	}
	if ix < nf {
		for i := 0; i < ix; i++ {
			scale[i] = scale[ix]
		}
	}
	for i := range scale {
		scale[i] = math.Pow(scale[i], -float64(cp.Exponent)/2)
	}

	// expected output standard deviation for unit-variance coefficients
	var ssum float64
	for i := 1; i < nf; i++ {
		w := scale[i]
		if i == nf-1 && n%2 == 0 {
			w *= 0.5
		}
		ssum += w * w
	}
	sigma := 2 * math.Sqrt(ssum) / float64(n)

	coeff := make([]complex128, nf)
	for i := range coeff {
		re := cp.Rnd.Gen(-1) * scale[i]
		im := cp.Rnd.Gen(-1) * scale[i]
		switch {
		case i == 0:
			// zero frequency is real; double the real part to keep power
			coeff[i] = complex(re*math.Sqrt2, 0)
		case i == nf-1 && n%2 == 0:
			// Nyquist is real for even n
			coeff[i] = complex(re*math.Sqrt2, 0)
		default:
			coeff[i] = complex(re, im)
		}
	}

	fft := fourier.NewFFT(n)
	seq := fft.Sequence(nil, coeff)
	// gonum's inverse is unnormalized
	out := make([]float32, n)
	inv := 1 / (float64(n) * sigma)
	for i, v := range seq {
		out[i] = float32(v * inv)
	}
	return out
}

// Realization is the pre-generated noise for one rollout: an
// independent colored series per neuron, sliced per reinforcement
// learning step into horizon-T segments.
type Realization struct {
	NumNode int         `desc:"number of neurons, one independent series each"`
	T       int         `desc:"neuron horizon per reinforcement learning step"`
	Steps   int         `desc:"number of reinforcement learning steps covered"`
	Data    [][]float32 `desc:"per-neuron series of length Steps * T"`
}

// Realize pre-generates rollout noise for numNode neurons over steps
// environment steps of horizon t each.
func (cp *Params) Realize(numNode, steps, t int) *Realization {
	rz := &Realization{NumNode: numNode, T: t, Steps: steps}
	rz.Data = make([][]float32, numNode)
	for i := range rz.Data {
		rz.Data[i] = cp.Series(steps * t)
	}
	return rz
}

// Sample returns the per-neuron noise vector for rollout step and
// horizon step t.
func (rz *Realization) Sample(step, t int) []float32 {
	out := make([]float32, rz.NumNode)
	idx := step*rz.T + t
	for i, d := range rz.Data {
		out[i] = d[idx]
	}
	return out
}

// StepSlice returns the full horizon of noise vectors for one rollout
// step, in the form the snn noise loading hooks consume.
func (rz *Realization) StepSlice(step int) [][]float32 {
	out := make([][]float32, rz.T)
	for t := 0; t < rz.T; t++ {
		out[t] = rz.Sample(step, t)
	}
	return out
}
