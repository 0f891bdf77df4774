// Copyright (c) 2024, The Emergent Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package snn

import (
	"github.com/emer/etable/etensor"
)

// State is the mutable per-instance state of one neuron population.
// It is exclusively owned by its neuron: never shared across instances
// or goroutines.
//
// All tensor fields start as nil placeholders with scalar init values,
// and are materialized to tensors shaped like the first input by the
// charge path (InitState) -- this is the only operation allowed to do
// so, and it is idempotent.  ResetState returns everything to the
// placeholder form, so the next charge re-materializes lazily.
type State struct {
	V  *etensor.Float32 `desc:"membrane potential, nil until materialized from the first input"`
	W  *etensor.Float32 `desc:"adaptation current, used by the adaptive (Izhikevich) family"`
	C  *etensor.Float32 `desc:"synaptic current, used by the current-based (CLIF) family"`
	U  *etensor.Float32 `desc:"gate state, used by the gated LIF family"`
	Tr *etensor.Float32 `desc:"no-gradient exponential spike trace, used by the OTTT online variant"`

	VSeq []*etensor.Float32 `desc:"trajectory of post-reset membrane potentials, recorded during multi-step execution when capture is enabled"`

	VInit float32 `desc:"scalar placeholder value that V is filled with at materialization"`
	WInit float32 `desc:"scalar placeholder value for W"`
	CInit float32 `desc:"scalar placeholder value for C"`
}

// Materialized returns true once V has been materialized to a tensor.
func (st *State) Materialized() bool {
	return st.V != nil
}

// MaterializeV creates V shaped like the given input, filled with VInit.
// No-op if already materialized.
func (st *State) MaterializeV(like *etensor.Float32) {
	if st.V != nil {
		return
	}
	st.V = FullLike(like, st.VInit)
}

// MaterializeW creates W shaped like the given input, filled with WInit.
func (st *State) MaterializeW(like *etensor.Float32) {
	if st.W != nil {
		return
	}
	st.W = FullLike(like, st.WInit)
}

// MaterializeC creates C shaped like the given input, filled with CInit.
func (st *State) MaterializeC(like *etensor.Float32) {
	if st.C != nil {
		return
	}
	st.C = FullLike(like, st.CInit)
}

// MaterializeTr creates the spike trace shaped like the given input,
// filled with zeros.
func (st *State) MaterializeTr(like *etensor.Float32) {
	if st.Tr != nil {
		return
	}
	st.Tr = FullLike(like, 0)
}

// CheckShape verifies that input x matches the materialized state shape.
// A mismatch mid-sequence means a placeholder and a materialized tensor
// are being mixed, which is never allowed.
func (st *State) CheckShape(x *etensor.Float32) error {
	if st.V == nil {
		return nil
	}
	if !st.V.Shape.IsEqual(&x.Shape) {
		return ShapeLenErrorf("input shape %v does not match materialized state shape %v", x.Shape.Shp, st.V.Shape.Shp)
	}
	return nil
}

// ResetState destroys the materialized state, returning all fields to
// their scalar placeholders and clearing any captured trajectory.
// Call between sequences; the next charge re-materializes lazily.
func (st *State) ResetState() {
	st.V = nil
	st.W = nil
	st.C = nil
	st.U = nil
	st.Tr = nil
	st.VSeq = nil
}

// FullLike returns a new tensor with the same shape as like, filled
// with the given value.
func FullLike(like *etensor.Float32, val float32) *etensor.Float32 {
	tsr := etensor.NewFloat32(like.Shape.Shp, nil, nil)
	for i := range tsr.Values {
		tsr.Values[i] = val
	}
	return tsr
}

// CloneVals returns a copy of the given tensor.
func CloneVals(src *etensor.Float32) *etensor.Float32 {
	tsr := etensor.NewFloat32(src.Shape.Shp, nil, nil)
	copy(tsr.Values, src.Values)
	return tsr
}
