// Copyright (c) 2024, The Emergent Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package snn

import (
	"github.com/emer/etable/etensor"
)

// IzhikevichParams is the adaptive quadratic (Izhikevich) charge
// equation: the QIF membrane dynamics coupled to a slow adaptation
// current w that opposes the drive.  The charge step first integrates
// the membrane using the previous w, then relaxes w toward its
// subthreshold coupling target using the updated membrane:
//
//	v <- v + (x + a0 * (v - rest) * (v - vc) - w) / tau
//	w <- w + (a * (v - rest) - w) / tauW
//
// On reset, fired channels additionally jump the adaptation current by
// the amplitude B, accumulating spike-frequency adaptation.
type IzhikevichParams struct {
	Tau   float32 `def:"2" desc:"membrane time constant, must exceed 1"`
	VC    float32 `def:"0.8" desc:"critical voltage of the quadratic nonlinearity"`
	A0    float32 `def:"1" desc:"strength of the quadratic term, must be positive"`
	VRest float32 `def:"-0.1" desc:"resting potential"`
	WRest float32 `def:"0" desc:"resting adaptation current, the placeholder init value of w"`
	TauW  float32 `def:"2" desc:"adaptation time constant, must be positive"`
	A     float32 `def:"0" desc:"subthreshold coupling of w to the membrane"`
	B     float32 `def:"0" desc:"spike-triggered jump amplitude of w"`
}

func (zp *IzhikevichParams) Defaults() {
	zp.Tau = 2
	zp.VC = 0.8
	zp.A0 = 1
	zp.VRest = -0.1
	zp.WRest = 0
	zp.TauW = 2
	zp.A = 0
	zp.B = 0
}

func (zp *IzhikevichParams) Update() {
}

func (zp *IzhikevichParams) Validate() error {
	if zp.Tau <= 1 {
		return ConfigErrorf("Izhikevich Tau (%g) must exceed 1", zp.Tau)
	}
	if zp.A0 <= 0 {
		return ConfigErrorf("Izhikevich A0 (%g) must be positive", zp.A0)
	}
	if zp.TauW <= 0 {
		return ConfigErrorf("Izhikevich TauW (%g) must be positive", zp.TauW)
	}
	return nil
}

// ValidateWith checks the voltage ordering against the shared threshold.
func (zp *IzhikevichParams) ValidateWith(ac *ActParams) error {
	if zp.VRest > zp.VC {
		return ConfigErrorf("Izhikevich VRest (%g) must not exceed VC (%g)", zp.VRest, zp.VC)
	}
	if zp.VC >= ac.VTh {
		return ConfigErrorf("Izhikevich VC (%g) must lie below threshold VTh (%g)", zp.VC, ac.VTh)
	}
	return nil
}

func (zp *IzhikevichParams) InitState(ac *ActParams, st *State, like *etensor.Float32) {
	st.MaterializeV(like)
	st.WInit = zp.WRest
	st.MaterializeW(like)
}

func (zp *IzhikevichParams) Charge(ac *ActParams, st *State, x *etensor.Float32) {
	vv := st.V.Values
	wv := st.W.Values
	for i, xi := range x.Values {
		v := vv[i]
		v += (xi + zp.A0*(v-zp.VRest)*(v-zp.VC) - wv[i]) / zp.Tau
		vv[i] = v
		wv[i] += (zp.A*(v-zp.VRest) - wv[i]) / zp.TauW
	}
}

// Reset applies the membrane reset and the spike-triggered adaptation
// jump in one pass.
func (zp *IzhikevichParams) Reset(ac *ActParams, st *State, spk *etensor.Float32) {
	ac.ResetV(st, spk)
	wv := st.W.Values
	for i, s := range spk.Values {
		wv[i] += zp.B * s
	}
}
