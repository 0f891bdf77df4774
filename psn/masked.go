// Copyright (c) 2024, The Emergent Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package psn

import (
	"github.com/chewxy/math32"
	"github.com/emer/emergent/erand"
	"github.com/emer/etable/etensor"
	"github.com/emer/spikenet/snn"
	"github.com/emer/spikenet/surrogate"
)

// MaskedPSN is the band-masked parallel spiking neuron: the T x T mix
// is restricted to a causal band of width K, so step t only sees the
// last K inputs.  Lambda blends progressively from the full matrix
// (Lambda = 0) to the pure band (Lambda = 1) during training:
//
//	M(lambda) = lambda * band + (1 - lambda) * ones
//	h = (M(lambda) .* W) x + bias
//
// Multi-step runs the whole fixed horizon at once.  Single-step
// requires Lambda >= 1 (only then is the mix causal) and maintains a
// queue of the last K inputs; running past T steps is an error.
type MaskedPSN struct {
	K      int              `desc:"causal band width, steps of history each output sees"`
	T      int              `desc:"fixed sequence horizon"`
	Lambda float32          `desc:"progressive masking blend, 1 is the pure causal band"`
	Wts    []float32        `desc:"mixing weights, T x T row-major"`
	Bias   []float32        `desc:"per-step bias, length T, init -1"`
	Surr   surrogate.Params `view:"inline" desc:"surrogate gradient function, arc-tangent by default"`
	Rnd    erand.RndParams  `view:"inline" desc:"weight init distribution, uniform with 1/sqrt(T) bound"`

	queue    [][]float32
	timeStep int
}

// NewMaskedPSN returns a masked parallel spiking neuron with band
// width k over horizon t.
func NewMaskedPSN(k, t int) *MaskedPSN {
	mp := &MaskedPSN{K: k, T: t}
	mp.Defaults()
	mp.InitWts()
	return mp
}

func (mp *MaskedPSN) Defaults() {
	mp.Surr.Defaults()
	mp.Surr.Func = surrogate.ATan
	if mp.T > 0 {
		bound := 1 / math32.Sqrt(float32(mp.T))
		mp.Rnd = erand.RndParams{Dist: erand.Uniform, Mean: 0, Var: float64(bound)}
	}
}

// InitWts draws fresh mixing weights and resets the bias to -1.
func (mp *MaskedPSN) InitWts() {
	mp.Wts = make([]float32, mp.T*mp.T)
	mp.Bias = make([]float32, mp.T)
	for i := range mp.Wts {
		mp.Wts[i] = float32(mp.Rnd.Gen(-1))
	}
	for i := range mp.Bias {
		mp.Bias[i] = -1
	}
}

func (mp *MaskedPSN) Validate() error {
	if mp.T <= 0 {
		return snn.ConfigErrorf("MaskedPSN horizon T (%d) must be positive", mp.T)
	}
	if mp.K <= 0 || mp.K > mp.T {
		return snn.ConfigErrorf("MaskedPSN band width K (%d) must be in [1, T = %d]", mp.K, mp.T)
	}
	if len(mp.Wts) != mp.T*mp.T || len(mp.Bias) != mp.T {
		return snn.ConfigErrorf("MaskedPSN weights not initialized for T = %d", mp.T)
	}
	return mp.Surr.Validate()
}

// ResetState rewinds the single-step cursor and clears the input queue.
func (mp *MaskedPSN) ResetState() {
	mp.queue = nil
	mp.timeStep = 0
}

// bandMask reports whether weight row r, column c is inside the causal
// band: c <= r <= c + K - 1.
func (mp *MaskedPSN) bandMask(r, c int) bool {
	return c <= r && r <= c+mp.K-1
}

// MaskedWeight returns the blended T x T weight matrix.
func (mp *MaskedPSN) MaskedWeight() []float32 {
	out := make([]float32, len(mp.Wts))
	if mp.Lambda >= 1 {
		for r := 0; r < mp.T; r++ {
			for c := 0; c < mp.T; c++ {
				if mp.bandMask(r, c) {
					out[r*mp.T+c] = mp.Wts[r*mp.T+c]
				}
			}
		}
		return out
	}
	for r := 0; r < mp.T; r++ {
		for c := 0; c < mp.T; c++ {
			m := 1 - mp.Lambda
			if mp.bandMask(r, c) {
				m += mp.Lambda
			}
			out[r*mp.T+c] = m * mp.Wts[r*mp.T+c]
		}
	}
	return out
}

// Forward computes the whole spike sequence at once.  The input length
// must equal T exactly.
func (mp *MaskedPSN) Forward(xseq []*etensor.Float32) ([]*etensor.Float32, error) {
	if len(xseq) != mp.T {
		return nil, snn.ShapeLenErrorf("MaskedPSN input length %d does not equal fixed horizon T %d", len(xseq), mp.T)
	}
	if err := checkSameShape(xseq); err != nil {
		return nil, err
	}
	return mixFire(mp.MaskedWeight(), mp.Bias, &mp.Surr, xseq), nil
}

// Step advances one time slice using the queued last K inputs.  Only
// valid once the mask is fully causal (Lambda >= 1), and for at most T
// steps between resets.
func (mp *MaskedPSN) Step(x *etensor.Float32) (*etensor.Float32, error) {
	if mp.Lambda < 1 {
		return nil, snn.ConfigErrorf("MaskedPSN single-step requires Lambda >= 1, have %g", mp.Lambda)
	}
	if mp.timeStep >= mp.T {
		return nil, snn.ShapeLenErrorf("MaskedPSN(T=%d) has run %d time steps", mp.T, mp.timeStep+1)
	}
	xc := make([]float32, len(x.Values))
	copy(xc, x.Values)
	mp.queue = append(mp.queue, xc)
	if len(mp.queue) > mp.K {
		mp.queue = mp.queue[1:]
	}

	w := mp.MaskedWeight()
	r := mp.timeStep
	first := r + 1 - len(mp.queue)
	spk := etensor.NewFloat32(x.Shape.Shp, nil, nil)
	sv := spk.Values
	for i := range sv {
		h := mp.Bias[r]
		for q, xq := range mp.queue {
			h += w[r*mp.T+first+q] * xq[i]
		}
		sv[i] = mp.Surr.Forward(h)
	}
	mp.timeStep++
	return spk, nil
}
