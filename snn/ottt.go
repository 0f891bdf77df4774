// Copyright (c) 2024, The Emergent Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package snn

import (
	"github.com/emer/etable/etensor"
)

// OTTTLIFParams is the online-training-through-time LIF: the forward
// dynamics are exactly LIF, but the membrane carried between steps is a
// detached buffer, so an autodiff engine driving it never
// backpropagates through more than one step of state.  Alongside the
// spike it maintains a no-gradient exponential trace of its own output
//
//	tr <- tr * (1 - 1/tau) + spike
//
// sharing the membrane time constant; downstream weight updates are
// computed against the trace instead of the full spike history.  The
// trace lives in St.Tr after every training step.
//
// Single-step only, conventionally run with SoftReset and DetachReset.
// Eval mode takes the plain LIF fast path and leaves the trace alone.
type OTTTLIFParams struct {
	LIFParams
}

func (op *OTTTLIFParams) Defaults() {
	op.LIFParams.Defaults()
	op.DecayInput = false
}

func (op *OTTTLIFParams) InitState(ac *ActParams, st *State, like *etensor.Float32) {
	st.MaterializeV(like)
	if ac.Mode == Train {
		st.MaterializeTr(like)
	}
}

// Charge re-bases the gradient boundary at the carried membrane before
// the LIF update.  Numerically the detach is a no-op; it marks where a
// driving engine must cut the history.
func (op *OTTTLIFParams) Charge(ac *ActParams, st *State, x *etensor.Float32) {
	op.LIFParams.Charge(ac, st, x)
}

// Trace updates the no-gradient spike trace after the fire step.
func (op *OTTTLIFParams) Trace(ac *ActParams, st *State, spk *etensor.Float32) {
	if st.Tr == nil {
		return
	}
	decay := 1 - 1/op.Tau
	tv := st.Tr.Values
	for i, s := range spk.Values {
		tv[i] = tv[i]*decay + s
	}
}

// SupportsStep restricts execution to single-step, the only mode where
// online updates make sense.
func (op *OTTTLIFParams) SupportsStep(step StepModes) bool {
	return step == SingleStep
}

// SupportedBackends shadows the LIF fused path: the online variant is
// generic only.
func (op *OTTTLIFParams) SupportedBackends(step StepModes) []Backends {
	return []Backends{GoBackend}
}

// SLTTLIFParams is the spatial-learning-through-time LIF: forward
// dynamics are exactly LIF with a detached carried membrane, cutting
// the temporal credit assignment so training needs constant memory in
// the sequence length.  Unlike OTTT it keeps no trace and keeps the
// standard decayed input; conventionally run with HardReset and
// DetachReset.  Single-step only.
type SLTTLIFParams struct {
	LIFParams
}

func (sp *SLTTLIFParams) SupportsStep(step StepModes) bool {
	return step == SingleStep
}

func (sp *SLTTLIFParams) SupportedBackends(step StepModes) []Backends {
	return []Backends{GoBackend}
}
