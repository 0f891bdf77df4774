// Copyright (c) 2024, The Emergent Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package snn

import (
	"github.com/emer/etable/etensor"
)

// QIFParams is the quadratic integrate-and-fire charge equation, a
// nonlinear approximation of the exponential model: below the critical
// voltage VC the membrane relaxes toward VRest, above it the quadratic
// term drives regenerative growth toward threshold.
//
//	v <- v + (x + a0 * (v - rest) * (v - vc)) / tau
type QIFParams struct {
	Tau   float32 `def:"2" desc:"membrane time constant, must exceed 1"`
	VC    float32 `def:"0.8" desc:"critical voltage where the quadratic nonlinearity turns regenerative"`
	A0    float32 `def:"1" desc:"strength of the quadratic term, must be positive"`
	VRest float32 `def:"0" desc:"resting potential the membrane relaxes toward below VC"`
}

func (qp *QIFParams) Defaults() {
	qp.Tau = 2
	qp.VC = 0.8
	qp.A0 = 1
	qp.VRest = 0
}

func (qp *QIFParams) Update() {
}

func (qp *QIFParams) Validate() error {
	if qp.Tau <= 1 {
		return ConfigErrorf("QIF Tau (%g) must exceed 1", qp.Tau)
	}
	if qp.A0 <= 0 {
		return ConfigErrorf("QIF A0 (%g) must be positive", qp.A0)
	}
	return nil
}

// ValidateWith checks the voltage ordering against the shared
// threshold: VRest <= VC < VTh, so the quadratic drift points the
// right way on both sides of the critical voltage.
func (qp *QIFParams) ValidateWith(ac *ActParams) error {
	if ac.Reset == HardReset && qp.VRest < ac.VReset {
		return ConfigErrorf("QIF VRest (%g) must not lie below VReset (%g)", qp.VRest, ac.VReset)
	}
	if qp.VRest > qp.VC {
		return ConfigErrorf("QIF VRest (%g) must not exceed VC (%g)", qp.VRest, qp.VC)
	}
	if qp.VC >= ac.VTh {
		return ConfigErrorf("QIF VC (%g) must lie below threshold VTh (%g)", qp.VC, ac.VTh)
	}
	return nil
}

func (qp *QIFParams) InitState(ac *ActParams, st *State, like *etensor.Float32) {
	st.MaterializeV(like)
}

func (qp *QIFParams) Charge(ac *ActParams, st *State, x *etensor.Float32) {
	vv := st.V.Values
	for i, xi := range x.Values {
		v := vv[i]
		vv[i] = v + (xi+qp.A0*(v-qp.VRest)*(v-qp.VC))/qp.Tau
	}
}
