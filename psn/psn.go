// Copyright (c) 2024, The Emergent Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

/*
Package psn implements the parallel spiking neuron family: neurons that
compute all time steps of their output at once as a learnable linear
mix of the input sequence followed by a thresholded fire, instead of a
sequential charge / fire / reset recurrence.  The full-matrix PSN, the
band-masked MaskedPSN with progressive masking, and the fixed-window
SlidingPSN are provided.
*/
package psn

import (
	"github.com/chewxy/math32"
	"github.com/emer/emergent/erand"
	"github.com/emer/etable/etensor"
	"github.com/emer/spikenet/snn"
	"github.com/emer/spikenet/surrogate"
)

// PSN is the full parallel spiking neuron: a learnable T x T weight
// matrix mixes the whole input sequence into the hidden state, and a
// learnable per-step bias acts as a negative threshold.
//
//	h[t] = bias[t] + sum_u W[t][u] x[u]
//	s[t] = H(h[t])
//
// Multi-step only, over a fixed horizon T.
type PSN struct {
	T    int              `desc:"fixed sequence horizon, input length must match"`
	Wts  []float32        `desc:"mixing weights, T x T row-major"`
	Bias []float32        `desc:"per-step bias, length T, init -1"`
	Surr surrogate.Params `view:"inline" desc:"surrogate gradient function, arc-tangent by default"`
	Rnd  erand.RndParams  `view:"inline" desc:"weight init distribution, uniform with 1/sqrt(T) bound"`
}

// NewPSN returns a parallel spiking neuron over the given horizon,
// with freshly drawn weights.
func NewPSN(t int) *PSN {
	ps := &PSN{T: t}
	ps.Defaults()
	ps.InitWts()
	return ps
}

func (ps *PSN) Defaults() {
	ps.Surr.Defaults()
	ps.Surr.Func = surrogate.ATan
	if ps.T > 0 {
		bound := 1 / math32.Sqrt(float32(ps.T))
		ps.Rnd = erand.RndParams{Dist: erand.Uniform, Mean: 0, Var: float64(bound)}
	}
}

// InitWts draws fresh mixing weights and resets the bias to -1.
func (ps *PSN) InitWts() {
	ps.Wts = make([]float32, ps.T*ps.T)
	ps.Bias = make([]float32, ps.T)
	for i := range ps.Wts {
		ps.Wts[i] = float32(ps.Rnd.Gen(-1))
	}
	for i := range ps.Bias {
		ps.Bias[i] = -1
	}
}

func (ps *PSN) Validate() error {
	if ps.T <= 0 {
		return snn.ConfigErrorf("PSN horizon T (%d) must be positive", ps.T)
	}
	if len(ps.Wts) != ps.T*ps.T || len(ps.Bias) != ps.T {
		return snn.ConfigErrorf("PSN weights not initialized for T = %d", ps.T)
	}
	return ps.Surr.Validate()
}

// Forward computes the whole spike sequence at once.  The input length
// must equal T exactly.
func (ps *PSN) Forward(xseq []*etensor.Float32) ([]*etensor.Float32, error) {
	if len(xseq) != ps.T {
		return nil, snn.ShapeLenErrorf("PSN input length %d does not equal fixed horizon T %d", len(xseq), ps.T)
	}
	if err := checkSameShape(xseq); err != nil {
		return nil, err
	}
	return mixFire(ps.Wts, ps.Bias, &ps.Surr, xseq), nil
}

// mixFire applies spikes[t] = H(bias[t] + sum_u w[t][u] x[u]) for a
// T x T row-major weight matrix.
func mixFire(wts, bias []float32, sf *surrogate.Params, xseq []*etensor.Float32) []*etensor.Float32 {
	t := len(xseq)
	n := xseq[0].Len()
	spikes := make([]*etensor.Float32, t)
	for r := 0; r < t; r++ {
		spk := etensor.NewFloat32(xseq[0].Shape.Shp, nil, nil)
		sv := spk.Values
		for i := 0; i < n; i++ {
			h := bias[r]
			for u := 0; u < t; u++ {
				h += wts[r*t+u] * xseq[u].Values[i]
			}
			sv[i] = sf.Forward(h)
		}
		spikes[r] = spk
	}
	return spikes
}

func checkSameShape(xseq []*etensor.Float32) error {
	for t := 1; t < len(xseq); t++ {
		if !xseq[t].Shape.IsEqual(&xseq[0].Shape) {
			return snn.ShapeLenErrorf("input sequence shape changes at step %d", t)
		}
	}
	return nil
}
