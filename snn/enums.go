// Copyright (c) 2024, The Emergent Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package snn

import "github.com/goki/ki/kit"

// StepModes are the temporal execution modes for a neuron.
type StepModes int32

//go:generate stringer -type=StepModes

var KiT_StepModes = kit.Enums.AddEnum(StepModesN, kit.NotBitFlag, nil)

func (ev StepModes) MarshalJSON() ([]byte, error)  { return kit.EnumMarshalJSON(ev) }
func (ev *StepModes) UnmarshalJSON(b []byte) error { return kit.EnumUnmarshalJSON(ev, b) }

const (
	// SingleStep processes one time slice of input per call.
	SingleStep StepModes = iota

	// MultiStep unrolls a whole input sequence in one call.
	MultiStep

	StepModesN
)

// ResetModes are the ways the membrane potential is reset after a spike.
type ResetModes int32

//go:generate stringer -type=ResetModes

var KiT_ResetModes = kit.Enums.AddEnum(ResetModesN, kit.NotBitFlag, nil)

func (ev ResetModes) MarshalJSON() ([]byte, error)  { return kit.EnumMarshalJSON(ev) }
func (ev *ResetModes) UnmarshalJSON(b []byte) error { return kit.EnumUnmarshalJSON(ev, b) }

const (
	// HardReset snaps the potential of fired channels to VReset.
	HardReset ResetModes = iota

	// SoftReset subtracts the threshold from fired channels, preserving
	// any supra-threshold residue as memory of strong stimuli.
	SoftReset

	ResetModesN
)

// Backends select the execution backend for a neuron.
type Backends int32

//go:generate stringer -type=Backends

var KiT_Backends = kit.Enums.AddEnum(BackendsN, kit.NotBitFlag, nil)

func (ev Backends) MarshalJSON() ([]byte, error)  { return kit.EnumMarshalJSON(ev) }
func (ev *Backends) UnmarshalJSON(b []byte) error { return kit.EnumUnmarshalJSON(ev, b) }

const (
	// GoBackend is the generic per-step path: always available in
	// training mode for every variant, fully differentiable by the
	// surrounding engine.
	GoBackend Backends = iota

	// FusedBackend dispatches to a compiled forward/backward kernel pair
	// cached under the structural signature of the request.  Optional,
	// and must be numerically equivalent to GoBackend within floating
	// tolerance.
	FusedBackend

	BackendsN
)

// Modes are the train / evaluation execution modes.
type Modes int32

//go:generate stringer -type=Modes

var KiT_Modes = kit.Enums.AddEnum(ModesN, kit.NotBitFlag, nil)

func (ev Modes) MarshalJSON() ([]byte, error)  { return kit.EnumMarshalJSON(ev) }
func (ev *Modes) UnmarshalJSON(b []byte) error { return kit.EnumUnmarshalJSON(ev, b) }

const (
	// Train runs the differentiable path (generic or fused).
	Train Modes = iota

	// Eval runs the specialized non-differentiable fast path where one
	// exists (IF, LIF); it produces bit-identical spikes and final
	// potential to the generic path for the same reset mode.
	Eval

	ModesN
)

// DecodeModes select how a non-spiking readout neuron reduces its
// membrane trajectory to one output.
type DecodeModes int32

//go:generate stringer -type=DecodeModes

var KiT_DecodeModes = kit.Enums.AddEnum(DecodeModesN, kit.NotBitFlag, nil)

func (ev DecodeModes) MarshalJSON() ([]byte, error)  { return kit.EnumMarshalJSON(ev) }
func (ev *DecodeModes) UnmarshalJSON(b []byte) error { return kit.EnumUnmarshalJSON(ev, b) }

const (
	// LastMem outputs the membrane at the final step.
	LastMem DecodeModes = iota

	// MaxMem outputs the elementwise maximum over the trajectory.
	MaxMem

	// MaxAbsMem outputs the value of largest magnitude over the
	// trajectory, keeping its sign.
	MaxAbsMem

	// MeanMem outputs the elementwise mean over the trajectory.
	MeanMem

	DecodeModesN
)
