// Copyright (c) 2024, The Emergent Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package snn

import (
	"github.com/chewxy/math32"
	"github.com/emer/etable/etensor"
)

// PLIFParams is the parametric LIF charge equation: the membrane decay
// rate is a learnable scalar, stored in unconstrained form W and mapped
// through a sigmoid so the effective decay 1/tau stays in (0, 1).
//
//	decay = sigmoid(W)
//	DecayInput:  v <- v + (x - (v - rest)) * decay
//	otherwise:   v <- v - (v - rest) * decay + x
//
// W is initialized from InitTau so that sigmoid(W) = 1/InitTau.
type PLIFParams struct {
	InitTau    float32 `def:"2" desc:"initial membrane time constant, must exceed 1"`
	DecayInput bool    `def:"true" desc:"scale the input current by the membrane decay factor"`
	W          float32 `inactive:"+" desc:"unconstrained learnable decay parameter, sigmoid(W) = 1/tau"`
}

func (pp *PLIFParams) Defaults() {
	pp.InitTau = 2
	pp.DecayInput = true
	pp.Update()
}

// Update recomputes W from InitTau.  An engine training W directly
// should not call Update afterward, as that would overwrite the
// learned value.
func (pp *PLIFParams) Update() {
	if pp.InitTau > 1 {
		pp.W = -math32.Log(pp.InitTau - 1)
	}
}

func (pp *PLIFParams) Validate() error {
	if pp.InitTau <= 1 {
		return ConfigErrorf("PLIF InitTau (%g) must exceed 1", pp.InitTau)
	}
	return nil
}

// Decay is the effective per-step decay factor 1/tau.
func (pp *PLIFParams) Decay() float32 {
	return sigmoid32(pp.W)
}

// Tau is the effective membrane time constant implied by W.
func (pp *PLIFParams) Tau() float32 {
	return 1 / pp.Decay()
}

// DecayGrad is the derivative of the decay factor with respect to W,
// for an engine training W directly.
func (pp *PLIFParams) DecayGrad() float32 {
	d := pp.Decay()
	return d * (1 - d)
}

func (pp *PLIFParams) InitState(ac *ActParams, st *State, like *etensor.Float32) {
	st.MaterializeV(like)
}

func (pp *PLIFParams) Charge(ac *ActParams, st *State, x *etensor.Float32) {
	var rest float32
	if ac.Reset == HardReset {
		rest = ac.VReset
	}
	decay := pp.Decay()
	vv := st.V.Values
	if pp.DecayInput {
		for i, xi := range x.Values {
			vv[i] += (xi - (vv[i] - rest)) * decay
		}
	} else {
		for i, xi := range x.Values {
			vv[i] = vv[i] - (vv[i]-rest)*decay + xi
		}
	}
}

func sigmoid32(x float32) float32 {
	return 1 / (1 + math32.Exp(-x))
}
