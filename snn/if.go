// Copyright (c) 2024, The Emergent Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package snn

import (
	"github.com/emer/etable/etensor"
)

// IFParams is the integrate-and-fire charge equation: a perfect
// integrator with no leak.
//
//	v <- v + x
type IFParams struct {
}

func (ip *IFParams) Defaults() {
}

func (ip *IFParams) Update() {
}

func (ip *IFParams) Validate() error {
	return nil
}

func (ip *IFParams) InitState(ac *ActParams, st *State, like *etensor.Float32) {
	st.MaterializeV(like)
}

func (ip *IFParams) Charge(ac *ActParams, st *State, x *etensor.Float32) {
	vv := st.V.Values
	for i, xi := range x.Values {
		vv[i] += xi
	}
}

// SupportedBackends reports the fused kernel path for multi-step
// execution; single-step is generic only.
func (ip *IFParams) SupportedBackends(step StepModes) []Backends {
	if step == MultiStep {
		return []Backends{GoBackend, FusedBackend}
	}
	return []Backends{GoBackend}
}

func (ip *IFParams) FusedSig(ac *ActParams) KernelSig {
	return KernelSig{Reset: ac.Reset, Dtype: etensor.FLOAT32, DetachReset: ac.DetachReset, Surrogate: ac.Surr.Func}
}

// FusedBuilder compiles the whole-sequence integrate / fire / reset
// loop for one structural signature.  Numeric parameters (threshold,
// reset value) are read at call time from ac, so they never force a
// rebuild.
func (ip *IFParams) FusedBuilder(ac *ActParams) KernelBuilder {
	return func(sig KernelSig) *Kernel {
		krn := &Kernel{Sig: sig}
		krn.Forward = func(xseq []*etensor.Float32, v *etensor.Float32) (spikes, vseq []*etensor.Float32) {
			spikes = make([]*etensor.Float32, len(xseq))
			vseq = make([]*etensor.Float32, len(xseq))
			vv := v.Values
			for t, x := range xseq {
				spk := etensor.NewFloat32(x.Shape.Shp, nil, nil)
				sv := spk.Values
				for i, xi := range x.Values {
					vi := vv[i] + xi
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

// EvalStep is the non-differentiable fast path: branchy integrate /
// compare / reset producing bit-identical spikes and membrane to the
// generic path.
func (ip *IFParams) EvalStep(ac *ActParams, st *State, x *etensor.Float32) *etensor.Float32 {
	spk := etensor.NewFloat32(x.Shape.Shp, nil, nil)
	vv := st.V.Values
	sv := spk.Values
	for i, xi := range x.Values {
		vi := vv[i] + xi
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

func (ip *IFParams) EvalSeq(ac *ActParams, st *State, xseq []*etensor.Float32) []*etensor.Float32 {
	spikes := make([]*etensor.Float32, len(xseq))
	for t, x := range xseq {
		spikes[t] = ip.EvalStep(ac, st, x)
		if ac.StoreVSeq {
			st.VSeq = append(st.VSeq, CloneVals(st.V))
		}
	}
	return spikes
}
