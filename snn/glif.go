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

// GLIF is the gated LIF neuron: every membrane constant (decay,
// threshold, linear decay, sub-reset, per-step conductance) is a
// learnable parameter stored in unconstrained form and mapped through a
// sigmoid, and three learnable gates blend the exponential / linear
// decay and hard / soft reset regimes.
//
// GLIF runs over a fixed horizon T and drives its own sequence loop:
// the per-step order is charge, reset by the previous step's spike,
// fire, then commit u to v.  It does not fit the shared single-step
// recurrence, so it is its own executor rather than a Charger.
type GLIF struct {
	T int `desc:"fixed sequence horizon, input length must match"`

	InitTau       float32 `def:"0.25" desc:"initial exponential decay constant, must be below 1"`
	InitVTh       float32 `def:"0.5" desc:"initial threshold voltage, in (0, 1)"`
	InitConduct   float32 `def:"0.5" desc:"initial input conductance, in (0, 1)"`
	InitLinDecay  float32 `desc:"initial linear decay constant; 0 derives InitVTh / (2 T)"`
	InitVSubreset float32 `desc:"initial sub-reset voltage; 0 derives InitVTh"`

	Alpha float32 `inactive:"+" desc:"unconstrained decay-blend gate, sigmoid at use"`
	Beta  float32 `inactive:"+" desc:"unconstrained conductance gate, sigmoid at use"`
	Gamma float32 `inactive:"+" desc:"unconstrained reset-blend gate, sigmoid at use"`

	Tau       float32   `inactive:"+" desc:"unconstrained exponential decay parameter"`
	VTh       float32   `inactive:"+" desc:"unconstrained threshold parameter"`
	LinDecay  float32   `inactive:"+" desc:"unconstrained linear decay parameter"`
	VSubreset float32   `inactive:"+" desc:"unconstrained sub-reset parameter"`
	Conduct   []float32 `inactive:"+" desc:"unconstrained per-step conductance parameters, length T"`

	Surr surrogate.Params `view:"inline" desc:"surrogate gradient function for the fire step"`
	Rnd  erand.RndParams  `view:"inline" desc:"distribution for the small random gate init"`
	St   State            `desc:"membrane state: V carries across steps, U is the working potential"`
}

// NewGLIF returns a gated LIF over the given fixed horizon, with
// parameters initialized to their defaults.
func NewGLIF(t int) *GLIF {
	gl := &GLIF{T: t}
	gl.Defaults()
	return gl
}

func (gl *GLIF) Defaults() {
	gl.InitTau = 0.25
	gl.InitVTh = 0.5
	gl.InitConduct = 0.5
	gl.InitLinDecay = 0
	gl.InitVSubreset = 0
	gl.Surr.Defaults()
	gl.Rnd = erand.RndParams{Dist: erand.Uniform, Mean: 0, Var: 0.1}
	gl.Update()
}

// Update re-derives the unconstrained parameters from the init values,
// and redraws the gate init.  An engine training the parameters should
// not call Update afterward.
func (gl *GLIF) Update() {
	if gl.T <= 0 {
		return
	}
	lin := gl.InitLinDecay
	if lin == 0 {
		lin = gl.InitVTh / (2 * float32(gl.T))
	}
	sub := gl.InitVSubreset
	if sub == 0 {
		sub = gl.InitVTh
	}
	gl.Tau = logit32(gl.InitTau)
	gl.VTh = logit32(gl.InitVTh)
	gl.LinDecay = logit32(lin)
	gl.VSubreset = logit32(sub)
	gl.Conduct = make([]float32, gl.T)
	for t := range gl.Conduct {
		gl.Conduct[t] = logit32(gl.InitConduct)
	}
	gl.Alpha = float32(gl.Rnd.Gen(-1))
	gl.Beta = float32(gl.Rnd.Gen(-1))
	gl.Gamma = float32(gl.Rnd.Gen(-1))
}

func (gl *GLIF) Validate() error {
	if gl.T <= 0 {
		return ConfigErrorf("GLIF horizon T (%d) must be positive", gl.T)
	}
	if gl.InitTau <= 0 || gl.InitTau >= 1 {
		return ConfigErrorf("GLIF InitTau (%g) must be in (0, 1)", gl.InitTau)
	}
	if gl.InitVTh <= 0 || gl.InitVTh >= 1 {
		return ConfigErrorf("GLIF InitVTh (%g) must be in (0, 1)", gl.InitVTh)
	}
	if gl.InitConduct <= 0 || gl.InitConduct >= 1 {
		return ConfigErrorf("GLIF InitConduct (%g) must be in (0, 1)", gl.InitConduct)
	}
	if len(gl.Conduct) != gl.T {
		return ConfigErrorf("GLIF Conduct length (%d) must equal horizon T (%d)", len(gl.Conduct), gl.T)
	}
	return gl.Surr.Validate()
}

// ResetState clears the carried membrane state between sequences.
func (gl *GLIF) ResetState() {
	gl.St.ResetState()
}

// StepSeq runs the full fixed-horizon sequence, returning the spike
// output at every step.  The input length must equal T exactly.
func (gl *GLIF) StepSeq(xseq []*etensor.Float32) ([]*etensor.Float32, error) {
	if len(xseq) != gl.T {
		return nil, ShapeLenErrorf("GLIF input length %d does not equal fixed horizon T %d", len(xseq), gl.T)
	}
	if err := gl.St.CheckShape(xseq[0]); err != nil {
		return nil, err
	}
	gl.St.MaterializeV(xseq[0])
	if gl.St.U == nil {
		gl.St.U = FullLike(xseq[0], 0)
	}

	alpha := sigmoid32(gl.Alpha)
	beta := sigmoid32(gl.Beta)
	gamma := sigmoid32(gl.Gamma)
	tau := sigmoid32(gl.Tau)
	vth := sigmoid32(gl.VTh)
	lin := sigmoid32(gl.LinDecay)
	sub := sigmoid32(gl.VSubreset)
	decay := 1 - alpha*(1-tau)

	vv := gl.St.V.Values
	uv := gl.St.U.Values
	spk := make([]float32, len(vv))
	spikes := make([]*etensor.Float32, gl.T)
	for t, x := range xseq {
		cond := sigmoid32(gl.Conduct[t])
		out := etensor.NewFloat32(x.Shape.Shp, nil, nil)
		ov := out.Values
		for i, xi := range x.Values {
			in := xi * (1 - beta*(1-cond))
			u := decay*vv[i] - (1-alpha)*lin + in
			// reset by the previous step's spike, blending soft
			// subtraction of the decayed membrane with the sub-reset drop
			u -= decay*vv[i]*gamma*spk[i] + (1-gamma)*sub*spk[i]
			s := gl.Surr.Forward(u - vth)
			ov[i] = s
			spk[i] = s
			uv[i] = u
			vv[i] = u
		}
		spikes[t] = out
	}
	return spikes, nil
}

// logit32 is the inverse sigmoid: sigmoid(logit32(p)) = p for p in (0, 1).
func logit32(p float32) float32 {
	return -math32.Log(1/p - 1)
}
