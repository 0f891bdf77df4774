// Copyright (c) 2024, The Emergent Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package snn

import (
	"github.com/emer/etable/etensor"
	"github.com/emer/spikenet/surrogate"
)

// ActParams are the shared activation parameters for all spiking neuron
// families: the threshold, the reset policy, and the execution mode.
// One Charger plus one ActParams fully determines the per-step dynamics.
type ActParams struct {
	VTh         float32          `def:"1" desc:"firing threshold on the membrane potential"`
	Reset       ResetModes       `desc:"hard or soft reset policy applied to fired channels"`
	VReset      float32          `def:"0" desc:"potential that hard reset snaps fired channels to, and the placeholder init value of the membrane"`
	DetachReset bool             `desc:"treat the spike used inside the reset as a constant for gradient purposes -- structural flag, forward values are unchanged"`
	Backend     Backends         `desc:"generic per-step path or fused kernel dispatch"`
	Mode        Modes            `desc:"train or eval; eval takes the specialized fast path where one exists"`
	StoreVSeq   bool             `desc:"capture the post-reset membrane trajectory during multi-step execution"`
	Surr        surrogate.Params `view:"inline" desc:"surrogate gradient function used by the fire step"`
}

func (ac *ActParams) Defaults() {
	ac.VTh = 1
	ac.Reset = HardReset
	ac.VReset = 0
	ac.Backend = GoBackend
	ac.Mode = Train
	ac.Surr.Defaults()
	ac.Update()
}

func (ac *ActParams) Update() {
	ac.Surr.Update()
}

// Validate checks threshold / reset ordering and the surrogate params.
func (ac *ActParams) Validate() error {
	if ac.VTh <= ac.VReset && ac.Reset == HardReset {
		return ConfigErrorf("threshold VTh (%g) must exceed VReset (%g) for hard reset", ac.VTh, ac.VReset)
	}
	if err := ac.Surr.Validate(); err != nil {
		return ConfigErrorf("surrogate: %v", err)
	}
	return nil
}

// Fire computes the spike output from the charged membrane potential:
// spike[i] = H(v[i] - VTh), writing into spk which must be pre-shaped.
func (ac *ActParams) Fire(st *State, spk *etensor.Float32) {
	vv := st.V.Values
	sv := spk.Values
	for i, v := range vv {
		sv[i] = ac.Surr.Forward(v - ac.VTh)
	}
}

// ResetV applies the reset policy to fired channels, in place.
// Hard reset snaps fired channels to VReset; soft reset subtracts the
// threshold, so a strongly stimulated channel keeps its supra-threshold
// residue into the next step.
func (ac *ActParams) ResetV(st *State, spk *etensor.Float32) {
	vv := st.V.Values
	sv := spk.Values
	switch ac.Reset {
	case HardReset:
		for i, s := range sv {
			vv[i] = s*ac.VReset + (1-s)*vv[i]
		}
	case SoftReset:
		for i, s := range sv {
			vv[i] = vv[i] - s*ac.VTh
		}
	}
}

// Charger is the one method each neuron family implements: the
// discrete-time charge equation updating the membrane state in place
// from the input current.  InitState materializes whatever state
// tensors the family needs, shaped like the first input; it must be
// idempotent.
type Charger interface {
	// Defaults sets default parameter values.
	Defaults()

	// Validate checks family parameters, returning a ConfigError
	// describing the first violation found.
	Validate() error

	// InitState materializes the state tensors this family uses.
	InitState(ac *ActParams, st *State, like *etensor.Float32)

	// Charge integrates input current x into the membrane state.
	Charge(ac *ActParams, st *State, x *etensor.Float32)
}

// Resetter is implemented by families that need extra reset-time
// dynamics beyond the membrane reset (adaptation current jump in the
// adaptive family, membrane rescaling in KLIF).  The executor calls
// Reset instead of ActParams.ResetV when present.
type Resetter interface {
	Reset(ac *ActParams, st *State, spk *etensor.Float32)
}

// CrossValidator is implemented by families whose parameter constraints
// involve the shared activation parameters (threshold ordering in the
// quadratic, exponential and adaptive families).
type CrossValidator interface {
	ValidateWith(ac *ActParams) error
}

// Backender is implemented by families that support backends beyond
// the generic Go path.  Families that do not implement it are
// GoBackend-only.
type Backender interface {
	SupportedBackends(step StepModes) []Backends
}

// Tracer is implemented by families that maintain auxiliary no-gradient
// traces updated after the fire step (the OTTT spike trace).
type Tracer interface {
	Trace(ac *ActParams, st *State, spk *etensor.Float32)
}
