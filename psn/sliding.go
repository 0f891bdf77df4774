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

// SlidingPSN is the sliding-window parallel spiking neuron: one
// learnable K-tap kernel slides over the input sequence, so every step
// shares the same weights and any sequence length works.
//
//	h[t] = bias + sum_i w[i] x[t - K + 1 + i]
//	s[t] = H(h[t])
//
// ExpInit initializes the taps to 1/2, 1/4, ... backward in time with
// the newest tap at 1, a LIF-like exponential window.  Multi-step
// expands the kernel to an equivalent banded matrix mix; single-step
// queues the last K inputs.  Both produce identical spikes.
type SlidingPSN struct {
	K       int              `desc:"kernel width, steps of history each output sees"`
	ExpInit bool             `def:"true" desc:"initialize taps exponentially, newest 1 halving backward"`
	Wts     []float32        `desc:"kernel taps, length K, oldest first"`
	Bias    float32          `def:"-1" desc:"shared bias, acts as negative threshold"`
	Surr    surrogate.Params `view:"inline" desc:"surrogate gradient function, arc-tangent by default"`
	Rnd     erand.RndParams  `view:"inline" desc:"weight init distribution when ExpInit is off"`

	queue [][]float32
}

// NewSlidingPSN returns a sliding parallel spiking neuron with a
// K-tap kernel.
func NewSlidingPSN(k int) *SlidingPSN {
	sp := &SlidingPSN{K: k}
	sp.Defaults()
	sp.InitWts()
	return sp
}

func (sp *SlidingPSN) Defaults() {
	sp.ExpInit = true
	sp.Bias = -1
	sp.Surr.Defaults()
	sp.Surr.Func = surrogate.ATan
	if sp.K > 0 {
		bound := 1 / math32.Sqrt(float32(sp.K))
		sp.Rnd = erand.RndParams{Dist: erand.Uniform, Mean: 0, Var: float64(bound)}
	}
}

// InitWts initializes the kernel taps.
func (sp *SlidingPSN) InitWts() {
	sp.Wts = make([]float32, sp.K)
	if sp.ExpInit {
		sp.Wts[sp.K-1] = 1
		for i := sp.K - 2; i >= 0; i-- {
			sp.Wts[i] = sp.Wts[i+1] / 2
		}
	} else {
		for i := range sp.Wts {
			sp.Wts[i] = float32(sp.Rnd.Gen(-1))
		}
	}
}

func (sp *SlidingPSN) Validate() error {
	if sp.K <= 0 {
		return snn.ConfigErrorf("SlidingPSN kernel width K (%d) must be positive", sp.K)
	}
	if len(sp.Wts) != sp.K {
		return snn.ConfigErrorf("SlidingPSN weights not initialized for K = %d", sp.K)
	}
	return sp.Surr.Validate()
}

// ResetState clears the single-step input queue.
func (sp *SlidingPSN) ResetState() {
	sp.queue = nil
}

// GemmWeight expands the kernel to the equivalent t x t banded matrix:
// row i carries the newest taps over columns max(0, i+1-K) .. i.
func (sp *SlidingPSN) GemmWeight(t int) []float32 {
	w := make([]float32, t*t)
	for i := 0; i < t; i++ {
		end := i + 1
		start := end - sp.K
		if start < 0 {
			start = 0
		}
		length := end - start
		for j := 0; j < length; j++ {
			w[i*t+start+j] = sp.Wts[sp.K-length+j]
		}
	}
	return w
}

// Forward computes the whole spike sequence through the banded matrix
// mix.  Any sequence length is accepted.
func (sp *SlidingPSN) Forward(xseq []*etensor.Float32) ([]*etensor.Float32, error) {
	if len(xseq) == 0 {
		return nil, snn.ShapeLenErrorf("empty input sequence")
	}
	if err := checkSameShape(xseq); err != nil {
		return nil, err
	}
	t := len(xseq)
	bias := make([]float32, t)
	for i := range bias {
		bias[i] = sp.Bias
	}
	return mixFire(sp.GemmWeight(t), bias, &sp.Surr, xseq), nil
}

// Step advances one time slice using the queued last K inputs.
func (sp *SlidingPSN) Step(x *etensor.Float32) (*etensor.Float32, error) {
	xc := make([]float32, len(x.Values))
	copy(xc, x.Values)
	sp.queue = append(sp.queue, xc)
	if len(sp.queue) > sp.K {
		sp.queue = sp.queue[1:]
	}
	wts := sp.Wts[sp.K-len(sp.queue):]
	spk := etensor.NewFloat32(x.Shape.Shp, nil, nil)
	sv := spk.Values
	for i := range sv {
		h := sp.Bias
		for q, xq := range sp.queue {
			h += wts[q] * xq[i]
		}
		sv[i] = sp.Surr.Forward(h)
	}
	return spk, nil
}
