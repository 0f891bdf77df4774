// Copyright (c) 2024, The Emergent Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package snn

import (
	"github.com/emer/etable/etensor"
)

// CLIFParams is the current-based LIF charge equation: the input first
// drives a leaky synaptic current c, which in turn drives the leaky
// membrane, giving a second-order low-pass response to the input.
//
//	c <- c * cDecay + x
//	v <- v * vDecay + c
type CLIFParams struct {
	CDecay float32 `def:"0.5" desc:"per-step retention of the synaptic current, in [0, 1)"`
	VDecay float32 `def:"0.75" desc:"per-step retention of the membrane potential, in [0, 1)"`
}

func (cp *CLIFParams) Defaults() {
	cp.CDecay = 0.5
	cp.VDecay = 0.75
}

func (cp *CLIFParams) Update() {
}

func (cp *CLIFParams) Validate() error {
	if cp.CDecay < 0 || cp.CDecay >= 1 {
		return ConfigErrorf("CLIF CDecay (%g) must be in [0, 1)", cp.CDecay)
	}
	if cp.VDecay < 0 || cp.VDecay >= 1 {
		return ConfigErrorf("CLIF VDecay (%g) must be in [0, 1)", cp.VDecay)
	}
	return nil
}

func (cp *CLIFParams) InitState(ac *ActParams, st *State, like *etensor.Float32) {
	st.MaterializeV(like)
	st.MaterializeC(like)
}

func (cp *CLIFParams) Charge(ac *ActParams, st *State, x *etensor.Float32) {
	cv := st.C.Values
	vv := st.V.Values
	for i, xi := range x.Values {
		cv[i] = cv[i]*cp.CDecay + xi
		vv[i] = vv[i]*cp.VDecay + cv[i]
	}
}
