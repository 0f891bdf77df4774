// Copyright (c) 2024, The Emergent Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package snn

import (
	"fmt"

	"github.com/emer/etable/etensor"
)

// Neuron drives one Charger through the shared charge / fire / reset
// cycle, in single-step or multi-step mode, on the generic Go path or
// through a fused kernel.  It owns its State exclusively.
type Neuron struct {
	Act   ActParams   `view:"inline" desc:"shared activation parameters: threshold, reset, execution mode"`
	Chg   Charger     `desc:"the family charge equation"`
	St    State       `desc:"mutable membrane state, lazily materialized from the first input"`
	Cache KernelCache `view:"-" desc:"fused kernels memoized by structural signature"`
}

// NewNeuron returns a neuron around the given charge equation, with all
// parameters at their defaults.
func NewNeuron(chg Charger) *Neuron {
	nr := &Neuron{Chg: chg}
	nr.Defaults()
	return nr
}

func (nr *Neuron) Defaults() {
	nr.Act.Defaults()
	nr.Chg.Defaults()
	nr.Cache = make(KernelCache)
	nr.St.VInit = nr.Act.VReset
}

// Update syncs derived parameter values after any change, and re-bases
// the membrane placeholder on VReset.
func (nr *Neuron) Update() {
	nr.Act.Update()
	nr.St.VInit = nr.Act.VReset
}

// Validate checks the activation parameters, the family parameters, and
// any cross-parameter constraints the family declares.
func (nr *Neuron) Validate() error {
	if err := nr.Act.Validate(); err != nil {
		return err
	}
	if err := nr.Chg.Validate(); err != nil {
		return err
	}
	if cv, ok := nr.Chg.(CrossValidator); ok {
		if err := cv.ValidateWith(&nr.Act); err != nil {
			return err
		}
	}
	return nil
}

// ResetState returns the neuron to its placeholder state, clearing any
// captured trajectory.  Call between input sequences.
func (nr *Neuron) ResetState() {
	nr.St.ResetState()
}

// VariantName identifies the neuron family for error reporting.
func (nr *Neuron) VariantName() string {
	return fmt.Sprintf("%T", nr.Chg)
}

// checkBackend verifies the configured backend and step mode are in
// the family's declared capability set.  GoBackend is always available
// unless the family restricts the step mode itself.
func (nr *Neuron) checkBackend(step StepModes) error {
	if sr, ok := nr.Chg.(StepRestrictor); ok && !sr.SupportsStep(step) {
		return &UnsupportedError{Variant: nr.VariantName(), Step: step, Backend: nr.Act.Backend}
	}
	if nr.Act.Backend == GoBackend {
		return nil
	}
	if bk, ok := nr.Chg.(Backender); ok {
		for _, b := range bk.SupportedBackends(step) {
			if b == nr.Act.Backend {
				return nil
			}
		}
	}
	return &UnsupportedError{Variant: nr.VariantName(), Step: step, Backend: nr.Act.Backend}
}

// Step advances the neuron by one time slice: charge, fire, reset, and
// any family trace update, returning the spike output.  The membrane
// state is materialized from the first input seen.
func (nr *Neuron) Step(x *etensor.Float32) (*etensor.Float32, error) {
	if err := nr.checkBackend(SingleStep); err != nil {
		return nil, err
	}
	if err := nr.St.CheckShape(x); err != nil {
		return nil, err
	}
	nr.Chg.InitState(&nr.Act, &nr.St, x)
	if nr.Act.Mode == Eval {
		if es, ok := nr.Chg.(EvalStepper); ok {
			return es.EvalStep(&nr.Act, &nr.St, x), nil
		}
	}
	return nr.stepOnce(x), nil
}

// stepOnce is the generic per-step path, shared by Step and StepSeq.
// State must already be materialized and shape-checked.
func (nr *Neuron) stepOnce(x *etensor.Float32) *etensor.Float32 {
	nr.Chg.Charge(&nr.Act, &nr.St, x)
	spk := etensor.NewFloat32(x.Shape.Shp, nil, nil)
	nr.Act.Fire(&nr.St, spk)
	if rs, ok := nr.Chg.(Resetter); ok {
		rs.Reset(&nr.Act, &nr.St, spk)
	} else {
		nr.Act.ResetV(&nr.St, spk)
	}
	if tr, ok := nr.Chg.(Tracer); ok {
		tr.Trace(&nr.Act, &nr.St, spk)
	}
	return spk
}

// StepSeq unrolls a whole input sequence, returning the spike output at
// every step.  When StoreVSeq is on, the post-reset membrane trajectory
// is captured into St.VSeq, one tensor per step.  Eval mode takes the
// family's closed-form fast path where one exists; FusedBackend
// dispatches through the kernel cache.
func (nr *Neuron) StepSeq(xseq []*etensor.Float32) ([]*etensor.Float32, error) {
	if len(xseq) == 0 {
		return nil, ShapeLenErrorf("empty input sequence")
	}
	for t := 1; t < len(xseq); t++ {
		if !xseq[t].Shape.IsEqual(&xseq[0].Shape) {
			return nil, ShapeLenErrorf("input sequence shape changes at step %d: %v vs %v", t, xseq[t].Shape.Shp, xseq[0].Shape.Shp)
		}
	}
	if err := nr.checkBackend(MultiStep); err != nil {
		return nil, err
	}
	if err := nr.St.CheckShape(xseq[0]); err != nil {
		return nil, err
	}
	nr.Chg.InitState(&nr.Act, &nr.St, xseq[0])
	if nr.Act.Mode == Eval {
		if es, ok := nr.Chg.(EvalSeqer); ok {
			return es.EvalSeq(&nr.Act, &nr.St, xseq), nil
		}
	}
	if nr.Act.Backend == FusedBackend {
		return nr.fusedSeq(xseq)
	}
	spikes := make([]*etensor.Float32, len(xseq))
	for t, x := range xseq {
		spikes[t] = nr.stepOnce(x)
		if nr.Act.StoreVSeq {
			nr.St.VSeq = append(nr.St.VSeq, CloneVals(nr.St.V))
		}
	}
	return spikes, nil
}

// fusedSeq runs the sequence through the family's fused kernel,
// building and caching it on first use.
func (nr *Neuron) fusedSeq(xseq []*etensor.Float32) ([]*etensor.Float32, error) {
	fu, ok := nr.Chg.(Fuser)
	if !ok {
		return nil, &UnsupportedError{Variant: nr.VariantName(), Step: MultiStep, Backend: FusedBackend}
	}
	if nr.Cache == nil {
		nr.Cache = make(KernelCache)
	}
	sig := fu.FusedSig(&nr.Act)
	krn, err := GetOrBuildKernel(nr.Cache, fu.FusedBuilder(&nr.Act), sig)
	if err != nil {
		return nil, err
	}
	spikes, vseq := krn.Forward(xseq, nr.St.V)
	if nr.Act.StoreVSeq {
		nr.St.VSeq = append(nr.St.VSeq, vseq...)
	}
	return spikes, nil
}

// EvalStepper is the optional specialized eval-mode fast path for one
// step.  Must produce bit-identical spikes and membrane to the generic
// path for the same reset mode.
type EvalStepper interface {
	EvalStep(ac *ActParams, st *State, x *etensor.Float32) *etensor.Float32
}

// EvalSeqer is the optional specialized eval-mode fast path for a full
// sequence.  Implementations must honor StoreVSeq, capturing the
// post-reset membrane into st.VSeq each step like the generic loop.
type EvalSeqer interface {
	EvalSeq(ac *ActParams, st *State, xseq []*etensor.Float32) []*etensor.Float32
}

// StepRestrictor is implemented by families that only run in one step
// mode (the online truncated-gradient variants are single-step only).
type StepRestrictor interface {
	SupportsStep(step StepModes) bool
}

// Fuser is implemented by families that can compile a fused multi-step
// kernel.  FusedSig reports the structural signature for the current
// parameters; FusedBuilder returns the deterministic builder used on a
// cache miss.
type Fuser interface {
	FusedSig(ac *ActParams) KernelSig
	FusedBuilder(ac *ActParams) KernelBuilder
}
