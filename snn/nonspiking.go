// Copyright (c) 2024, The Emergent Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package snn

import (
	"github.com/chewxy/math32"
	"github.com/emer/etable/etensor"
)

// NonSpiking is a readout neuron: it integrates a whole input sequence
// without ever firing or resetting, then decodes the membrane
// trajectory to a single analog output per channel.  Used as the final
// layer of a network whose loss wants a continuous value.
//
// Any Charger can drive it; NewNonSpikingIF and NewNonSpikingLIF cover
// the two standard readouts.  The membrane always starts at zero and
// is rebuilt on every call, so one instance can decode back-to-back
// sequences without an explicit reset.
type NonSpiking struct {
	Decode DecodeModes `desc:"reduction of the membrane trajectory to the output"`
	Chg    Charger     `desc:"charge equation integrating the input"`
	Act    ActParams   `view:"inline" desc:"activation parameters seen by the charge equation; threshold and reset are never applied"`
	St     State       `desc:"membrane state, rebuilt per call"`
}

// NewNonSpiking returns a readout around the given charge equation.
func NewNonSpiking(chg Charger, decode DecodeModes) *NonSpiking {
	ns := &NonSpiking{Decode: decode, Chg: chg}
	ns.Act.Defaults()
	ns.Chg.Defaults()
	// readouts decay toward zero regardless of reset config
	ns.Act.Reset = SoftReset
	return ns
}

// NewNonSpikingIF returns a perfect-integrator readout.
func NewNonSpikingIF(decode DecodeModes) *NonSpiking {
	return NewNonSpiking(&IFParams{}, decode)
}

// NewNonSpikingLIF returns a leaky-integrator readout with the given
// time constant.
func NewNonSpikingLIF(tau float32, decode DecodeModes) *NonSpiking {
	ns := NewNonSpiking(&LIFParams{}, decode)
	ns.Chg.(*LIFParams).Tau = tau
	return ns
}

func (ns *NonSpiking) Validate() error {
	if ns.Decode < 0 || ns.Decode >= DecodeModesN {
		return ConfigErrorf("NonSpiking Decode mode %d out of range", ns.Decode)
	}
	return ns.Chg.Validate()
}

// Run integrates the whole sequence and returns the decoded output.
func (ns *NonSpiking) Run(xseq []*etensor.Float32) (*etensor.Float32, error) {
	if len(xseq) == 0 {
		return nil, ShapeLenErrorf("empty input sequence")
	}
	ns.St.ResetState()
	ns.Chg.InitState(&ns.Act, &ns.St, xseq[0])
	vseq := make([]*etensor.Float32, len(xseq))
	for t, x := range xseq {
		if !x.Shape.IsEqual(&xseq[0].Shape) {
			return nil, ShapeLenErrorf("input sequence shape changes at step %d", t)
		}
		ns.Chg.Charge(&ns.Act, &ns.St, x)
		vseq[t] = CloneVals(ns.St.V)
	}
	return ns.decode(vseq), nil
}

func (ns *NonSpiking) decode(vseq []*etensor.Float32) *etensor.Float32 {
	out := CloneVals(vseq[len(vseq)-1])
	ov := out.Values
	switch ns.Decode {
	case MaxMem:
		for _, v := range vseq[:len(vseq)-1] {
			for i, vi := range v.Values {
				if vi > ov[i] {
					ov[i] = vi
				}
			}
		}
	case MaxAbsMem:
		for _, v := range vseq[:len(vseq)-1] {
			for i, vi := range v.Values {
				if math32.Abs(vi) > math32.Abs(ov[i]) {
					ov[i] = vi
				}
			}
		}
	case MeanMem:
		for i := range ov {
			ov[i] = 0
		}
		for _, v := range vseq {
			for i, vi := range v.Values {
				ov[i] += vi
			}
		}
		n := float32(len(vseq))
		for i := range ov {
			ov[i] /= n
		}
	}
	return out
}
