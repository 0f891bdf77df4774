// Copyright (c) 2024, The Emergent Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package snn

import (
	"github.com/chewxy/math32"
	"github.com/emer/etable/etensor"
)

// EIFParams is the exponential integrate-and-fire charge equation: the
// membrane leaks toward VRest, with an exponential spike-initiation
// current that turns on sharply past the rheobase ThetaRh.  DeltaT
// controls the sharpness; as DeltaT goes to 0 the model approaches a
// plain LIF with threshold ThetaRh.
//
//	v <- v + (x + rest - v + deltaT * exp((v - thetaRh) / deltaT)) / tau
type EIFParams struct {
	Tau     float32 `def:"2" desc:"membrane time constant, must exceed 1"`
	DeltaT  float32 `def:"1" desc:"spike-initiation sharpness, must be positive"`
	ThetaRh float32 `def:"0.8" desc:"rheobase voltage where the exponential current takes off"`
	VRest   float32 `def:"0" desc:"resting potential the leak pulls toward"`
}

func (ep *EIFParams) Defaults() {
	ep.Tau = 2
	ep.DeltaT = 1
	ep.ThetaRh = 0.8
	ep.VRest = 0
}

func (ep *EIFParams) Update() {
}

func (ep *EIFParams) Validate() error {
	if ep.Tau <= 1 {
		return ConfigErrorf("EIF Tau (%g) must exceed 1", ep.Tau)
	}
	if ep.DeltaT <= 0 {
		return ConfigErrorf("EIF DeltaT (%g) must be positive", ep.DeltaT)
	}
	return nil
}

// ValidateWith checks that the rheobase sits between rest and the
// firing threshold.
func (ep *EIFParams) ValidateWith(ac *ActParams) error {
	if ep.ThetaRh <= ep.VRest {
		return ConfigErrorf("EIF ThetaRh (%g) must exceed VRest (%g)", ep.ThetaRh, ep.VRest)
	}
	if ep.ThetaRh >= ac.VTh {
		return ConfigErrorf("EIF ThetaRh (%g) must lie below threshold VTh (%g)", ep.ThetaRh, ac.VTh)
	}
	return nil
}

func (ep *EIFParams) InitState(ac *ActParams, st *State, like *etensor.Float32) {
	st.MaterializeV(like)
}

func (ep *EIFParams) Charge(ac *ActParams, st *State, x *etensor.Float32) {
	vv := st.V.Values
	for i, xi := range x.Values {
		v := vv[i]
		vv[i] = v + (xi+ep.VRest-v+ep.DeltaT*math32.Exp((v-ep.ThetaRh)/ep.DeltaT))/ep.Tau
	}
}
