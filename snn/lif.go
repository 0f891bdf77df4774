// Copyright (c) 2024, The Emergent Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package snn

import (
	"github.com/emer/etable/etensor"
)

// LIFParams is the leaky integrate-and-fire charge equation.  The
// membrane decays toward its rest value (VReset under hard reset, 0
// under soft reset) with time constant Tau; DecayInput selects whether
// the input current is scaled by the same decay factor.
//
//	DecayInput:  v <- v + (x - (v - rest)) / tau
//	otherwise:   v <- v - (v - rest) / tau + x
//
// The rest == 0 specializations use the same floating-point operation
// order as the general forms, so both produce bit-identical membranes
// when rest is zero.
type LIFParams struct {
	Tau        float32 `def:"2" desc:"membrane time constant, must exceed 1"`
	DecayInput bool    `def:"true" desc:"scale the input current by the membrane decay factor"`
}

func (lp *LIFParams) Defaults() {
	lp.Tau = 2
	lp.DecayInput = true
}

func (lp *LIFParams) Update() {
}

func (lp *LIFParams) Validate() error {
	if lp.Tau <= 1 {
		return ConfigErrorf("LIF Tau (%g) must exceed 1", lp.Tau)
	}
	return nil
}

func (lp *LIFParams) InitState(ac *ActParams, st *State, like *etensor.Float32) {
	st.MaterializeV(like)
}

// rest is the decay target: the hard-reset potential, or 0 under soft
// reset where no reset potential exists.
func (lp *LIFParams) rest(ac *ActParams) float32 {
	if ac.Reset == HardReset {
		return ac.VReset
	}
	return 0
}

func (lp *LIFParams) Charge(ac *ActParams, st *State, x *etensor.Float32) {
	rest := lp.rest(ac)
	vv := st.V.Values
	if lp.DecayInput {
		if rest == 0 {
			for i, xi := range x.Values {
				vv[i] += (xi - vv[i]) / lp.Tau
			}
		} else {
			for i, xi := range x.Values {
				vv[i] += (xi - (vv[i] - rest)) / lp.Tau
			}
		}
	} else {
		if rest == 0 {
			for i, xi := range x.Values {
				vv[i] = vv[i] - vv[i]/lp.Tau + xi
			}
		} else {
			for i, xi := range x.Values {
				vv[i] = vv[i] - (vv[i]-rest)/lp.Tau + xi
			}
		}
	}
}

func (lp *LIFParams) SupportedBackends(step StepModes) []Backends {
	if step == MultiStep {
		return []Backends{GoBackend, FusedBackend}
	}
	return []Backends{GoBackend}
}

func (lp *LIFParams) FusedSig(ac *ActParams) KernelSig {
	return KernelSig{Reset: ac.Reset, Dtype: etensor.FLOAT32, DecayInput: lp.DecayInput, DetachReset: ac.DetachReset, Surrogate: ac.Surr.Func}
}

func (lp *LIFParams) FusedBuilder(ac *ActParams) KernelBuilder {
	return func(sig KernelSig) *Kernel {
		krn := &Kernel{Sig: sig}
		krn.Forward = func(xseq []*etensor.Float32, v *etensor.Float32) (spikes, vseq []*etensor.Float32) {
			spikes = make([]*etensor.Float32, len(xseq))
			vseq = make([]*etensor.Float32, len(xseq))
			rest := lp.rest(ac)
			vv := v.Values
			for t, x := range xseq {
				spk := etensor.NewFloat32(x.Shape.Shp, nil, nil)
				sv := spk.Values
				for i, xi := range x.Values {
					vi := vv[i]
					if sig.DecayInput {
						vi += (xi - (vi - rest)) / lp.Tau
					} else {
						vi = vi - (vi-rest)/lp.Tau + xi
					}
					var s float32
					if vi-ac.VTh >= 0 {
						s = 1
					}
					if sig.Reset == HardReset {
						vi = s*ac.VReset + (1-s)*vi
					} else {
						vi -= s * ac.VTh
					}
					vv[i] = vi
					sv[i] = s
				}
				spikes[t] = spk
				vseq[t] = CloneVals(v)
			}
			return
		}
		return krn
	}
}

func (lp *LIFParams) EvalStep(ac *ActParams, st *State, x *etensor.Float32) *etensor.Float32 {
	spk := etensor.NewFloat32(x.Shape.Shp, nil, nil)
	rest := lp.rest(ac)
	vv := st.V.Values
	sv := spk.Values
	for i, xi := range x.Values {
		vi := vv[i]
		if lp.DecayInput {
			vi += (xi - (vi - rest)) / lp.Tau
		} else {
			vi = vi - (vi-rest)/lp.Tau + xi
		}
		if vi >= ac.VTh {
			sv[i] = 1
			if ac.Reset == HardReset {
				vi = ac.VReset
			} else {
				vi -= ac.VTh
			}
		}
		vv[i] = vi
	}
	return spk
}

func (lp *LIFParams) EvalSeq(ac *ActParams, st *State, xseq []*etensor.Float32) []*etensor.Float32 {
	spikes := make([]*etensor.Float32, len(xseq))
	for t, x := range xseq {
		spikes[t] = lp.EvalStep(ac, st, x)
		if ac.StoreVSeq {
			st.VSeq = append(st.VSeq, CloneVals(st.V))
		}
	}
	return spikes
}
