// Copyright (c) 2024, The Emergent Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package snn

import (
	"github.com/chewxy/math32"
	"github.com/emer/emergent/erand"
	"github.com/emer/etable/etensor"
	"github.com/emer/spikenet/surrogate"
)

// PopConn mixes a spike vector within each action's population,
// producing the recurrent feedback added to the next step's input.
type PopConn interface {
	Apply(spk, out []float32)
}

// GroupedConn is the standard population connection: one learnable
// PopDim x PopDim linear map plus bias per action group, applied
// independently to each group.  Equivalent to a grouped width-PopDim
// convolution over the population axis.
type GroupedConn struct {
	ActDim int             `desc:"number of action groups"`
	PopDim int             `desc:"population size per action"`
	Wts    []float32       `desc:"weights, ActDim x PopDim x PopDim row-major"`
	Bias   []float32       `desc:"biases, ActDim x PopDim"`
	Rnd    erand.RndParams `view:"inline" desc:"weight init distribution, uniform with 1/sqrt(PopDim) bound"`
}

// NewGroupedConn returns an initialized population connection.
func NewGroupedConn(actDim, popDim int) *GroupedConn {
	gc := &GroupedConn{ActDim: actDim, PopDim: popDim}
	gc.Defaults()
	gc.InitWts()
	return gc
}

func (gc *GroupedConn) Defaults() {
	bound := 1 / math32.Sqrt(float32(gc.PopDim))
	gc.Rnd = erand.RndParams{Dist: erand.Uniform, Mean: 0, Var: float64(bound)}
}

// InitWts draws fresh weights and biases.
func (gc *GroupedConn) InitWts() {
	gc.Wts = make([]float32, gc.ActDim*gc.PopDim*gc.PopDim)
	gc.Bias = make([]float32, gc.ActDim*gc.PopDim)
	for i := range gc.Wts {
		gc.Wts[i] = float32(gc.Rnd.Gen(-1))
	}
	for i := range gc.Bias {
		gc.Bias[i] = float32(gc.Rnd.Gen(-1))
	}
}

// Apply computes the per-group mix of one batch row of spikes into out.
// Both slices have length ActDim * PopDim.
func (gc *GroupedConn) Apply(spk, out []float32) {
	pd := gc.PopDim
	for a := 0; a < gc.ActDim; a++ {
		for j := 0; j < pd; j++ {
			sum := gc.Bias[a*pd+j]
			wrow := gc.Wts[(a*pd+j)*pd : (a*pd+j+1)*pd]
			for k, w := range wrow {
				sum += w * spk[a*pd+k]
			}
			out[a*pd+j] = sum
		}
	}
}

// DecayLIFParams is the multiplicative-decay LIF used by the
// population variants: the membrane retains VDecay of its value per
// step with no input scaling.
//
//	v <- v * vDecay + x
type DecayLIFParams struct {
	VDecay float32 `def:"0.75" desc:"per-step retention of the membrane, in [0, 1)"`
}

func (dp *DecayLIFParams) Defaults() {
	dp.VDecay = 0.75
}

func (dp *DecayLIFParams) Update() {
}

func (dp *DecayLIFParams) Validate() error {
	if dp.VDecay < 0 || dp.VDecay >= 1 {
		return ConfigErrorf("DecayLIF VDecay (%g) must be in [0, 1)", dp.VDecay)
	}
	return nil
}

func (dp *DecayLIFParams) InitState(ac *ActParams, st *State, like *etensor.Float32) {
	st.MaterializeV(like)
}

func (dp *DecayLIFParams) Charge(ac *ActParams, st *State, x *etensor.Float32) {
	vv := st.V.Values
	for i, xi := range x.Values {
		vv[i] = vv[i]*dp.VDecay + xi
	}
}

// ILC is a population-coded output neuron with inter-layer
// connections: each step's spikes are mixed within their action
// population and fed back into the next step's input, so later steps
// refine the population code.  Any Charger drives the membrane; the
// standard choices are IF, the multiplicative-decay LIF, and CLIF.
//
// With Noise set it becomes the noisy exploration variant, adding
// colored noise to the input and output in training mode over a fixed
// horizon T; the (noisy) output spikes drive the feedback.
type ILC struct {
	ActDim   int          `desc:"number of action groups"`
	PopDim   int          `desc:"population size per action, features = ActDim * PopDim"`
	Conn     PopConn      `desc:"population feedback connection"`
	Chg      Charger      `desc:"membrane charge equation"`
	Act      ActParams    `view:"inline" desc:"threshold, reset and surrogate parameters"`
	T        int          `desc:"fixed horizon for the noisy variant; 0 accepts any length"`
	Training bool         `desc:"apply exploration noise when Noise is set"`
	Noise    *NoisyParams `desc:"optional exploration noise; nil for the deterministic variant"`
	St       State        `desc:"membrane state"`
}

// NewILC returns a population-coded neuron over actDim groups of
// popDim neurons, with the given charge equation.
func NewILC(actDim, popDim int, chg Charger) *ILC {
	il := &ILC{ActDim: actDim, PopDim: popDim, Chg: chg}
	il.Conn = NewGroupedConn(actDim, popDim)
	il.Act.Defaults()
	il.Chg.Defaults()
	il.Act.Surr.Func = surrogate.Rect
	return il
}

func (il *ILC) Validate() error {
	if il.ActDim <= 0 || il.PopDim <= 0 {
		return ConfigErrorf("ILC ActDim (%d) and PopDim (%d) must be positive", il.ActDim, il.PopDim)
	}
	if err := il.Act.Validate(); err != nil {
		return err
	}
	if il.Noise != nil {
		if il.T <= 0 {
			return ConfigErrorf("noisy ILC requires a positive fixed horizon T")
		}
		if err := il.Noise.Validate(); err != nil {
			return err
		}
	}
	return il.Chg.Validate()
}

// ResetState clears the carried membrane between sequences.
func (il *ILC) ResetState() {
	il.St.ResetState()
}

// StepSeq runs the sequence with population feedback, returning the
// spike output at every step.  The input is never mutated; feedback
// accumulates into internal copies.
func (il *ILC) StepSeq(xseq []*etensor.Float32) ([]*etensor.Float32, error) {
	if len(xseq) == 0 {
		return nil, ShapeLenErrorf("empty input sequence")
	}
	if il.Noise != nil && len(xseq) != il.T {
		return nil, ShapeLenErrorf("noisy ILC input length %d does not equal fixed horizon T %d", len(xseq), il.T)
	}
	feat := il.ActDim * il.PopDim
	if xseq[0].Len()%feat != 0 {
		return nil, ShapeLenErrorf("ILC input length %d is not a multiple of ActDim*PopDim = %d", xseq[0].Len(), feat)
	}
	if err := il.St.CheckShape(xseq[0]); err != nil {
		return nil, err
	}
	il.St.VInit = il.Act.VReset
	il.Chg.InitState(&il.Act, &il.St, xseq[0])

	noisy := il.Noise != nil && il.Training
	if noisy {
		il.Noise.Advance()
	}
	out := make([]*etensor.Float32, len(xseq))
	fb := make([]float32, xseq[0].Len())
	xt := etensor.NewFloat32(xseq[0].Shape.Shp, nil, nil)
	for t, x := range xseq {
		var vn, sn []float32
		if noisy {
			vn = il.Noise.VNoise(t)
			sn = il.Noise.SNoise(t)
		}
		for i, xi := range x.Values {
			xi += fb[i]
			if vn != nil {
				xi += il.Noise.SigmaV * vn[i%feat]
			}
			xt.Values[i] = xi
		}
		il.Chg.Charge(&il.Act, &il.St, xt)
		spk := etensor.NewFloat32(x.Shape.Shp, nil, nil)
		il.Act.Fire(&il.St, spk)
		il.Act.ResetV(&il.St, spk)
		if sn != nil {
			for i := range spk.Values {
				spk.Values[i] += il.Noise.SigmaS * sn[i%feat]
			}
		}
		out[t] = spk
		if t < len(xseq)-1 {
			for r := 0; r*feat < len(spk.Values); r++ {
				il.Conn.Apply(spk.Values[r*feat:(r+1)*feat], fb[r*feat:(r+1)*feat])
			}
		}
	}
	return out, nil
}
