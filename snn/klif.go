// Copyright (c) 2024, The Emergent Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package snn

import (
	"github.com/emer/etable/etensor"
)

// KLIFParams is the K-based LIF charge equation: a standard LIF update
// followed by a rectified scaling of the membrane by the learnable
// gain K, which tunes the effective surrogate slope.
//
//	DecayInput:  h <- v + (x - (v - vreset)) / tau
//	otherwise:   h <- v - (v - vreset) / tau + x
//	v <- relu(K * h)
//
// With ScaleReset on, the reset step divides the membrane back by K so
// the carried state stays in the unscaled regime.
type KLIFParams struct {
	Tau        float32 `def:"2" desc:"membrane time constant, must exceed 1"`
	DecayInput bool    `def:"true" desc:"scale the input current by the membrane decay factor"`
	K          float32 `def:"1" desc:"learnable membrane gain, must be positive"`
	ScaleReset bool    `desc:"divide the membrane by K during reset, keeping carried state unscaled"`
}

func (kp *KLIFParams) Defaults() {
	kp.Tau = 2
	kp.DecayInput = true
	kp.K = 1
}

func (kp *KLIFParams) Update() {
}

func (kp *KLIFParams) Validate() error {
	if kp.Tau <= 1 {
		return ConfigErrorf("KLIF Tau (%g) must exceed 1", kp.Tau)
	}
	if kp.K <= 0 {
		return ConfigErrorf("KLIF K (%g) must be positive", kp.K)
	}
	return nil
}

func (kp *KLIFParams) InitState(ac *ActParams, st *State, like *etensor.Float32) {
	st.MaterializeV(like)
}

func (kp *KLIFParams) Charge(ac *ActParams, st *State, x *etensor.Float32) {
	// the decay target is always the reset potential, soft reset included
	rest := ac.VReset
	vv := st.V.Values
	if kp.DecayInput {
		for i, xi := range x.Values {
			h := vv[i] + (xi-(vv[i]-rest))/kp.Tau
			h *= kp.K
			if h < 0 {
				h = 0
			}
			vv[i] = h
		}
	} else {
		for i, xi := range x.Values {
			h := vv[i] - (vv[i]-rest)/kp.Tau + xi
			h *= kp.K
			if h < 0 {
				h = 0
			}
			vv[i] = h
		}
	}
}

// Reset applies the reset policy, rescaling by 1/K first when
// ScaleReset is on.
func (kp *KLIFParams) Reset(ac *ActParams, st *State, spk *etensor.Float32) {
	if !kp.ScaleReset {
		ac.ResetV(st, spk)
		return
	}
	vv := st.V.Values
	sv := spk.Values
	switch ac.Reset {
	case HardReset:
		for i, s := range sv {
			vv[i] = (1-s)*(vv[i]/kp.K) + s*ac.VReset
		}
	case SoftReset:
		for i, s := range sv {
			vv[i] = (vv[i] - s*ac.VTh) / kp.K
		}
	}
}
