// Copyright (c) 2024, The Emergent Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package snn

import (
	"github.com/emer/etable/etensor"
	"github.com/emer/spikenet/surrogate"
)

// KernelSig is the structural signature of a fused kernel request.
// Only structural facts enter the signature: changing any field yields
// a different kernel, while numeric parameter values (threshold, time
// constants) are passed at call time and never trigger a rebuild.
type KernelSig struct {
	Reset       ResetModes      `desc:"hard or soft reset policy baked into the kernel"`
	Dtype       etensor.Type    `desc:"element precision, FLOAT32 or FLOAT64"`
	DecayInput  bool            `desc:"whether the charge equation scales the input by the decay factor"`
	DetachReset bool            `desc:"whether the reset spike is treated as a constant in the backward pass"`
	Surrogate   surrogate.Funcs `desc:"surrogate gradient function compiled into the backward kernel"`
}

// Kernel is a compiled fused forward / backward pair for one structural
// signature.  Forward consumes a sequence of input currents plus the
// initial membrane, producing the spike sequence, the post-reset
// membrane trajectory, and the final membrane.
type Kernel struct {
	Sig KernelSig `desc:"signature this kernel was built for"`

	Forward func(xseq []*etensor.Float32, v *etensor.Float32) (spikes, vseq []*etensor.Float32)
}

// KernelBuilder constructs the kernel for a signature.  Builders are
// deterministic: the same signature always yields an equivalent kernel.
type KernelBuilder func(sig KernelSig) *Kernel

// KernelCache memoizes built kernels by signature, so repeated
// executions with the same structure skip the build entirely.
type KernelCache map[KernelSig]*Kernel

// GetOrBuildKernel returns the cached kernel for sig, building and
// caching it on first use.  Any element type other than FLOAT32 or
// FLOAT64 is rejected with a ConfigError before building.
func GetOrBuildKernel(cache KernelCache, build KernelBuilder, sig KernelSig) (*Kernel, error) {
	if sig.Dtype != etensor.FLOAT32 && sig.Dtype != etensor.FLOAT64 {
		return nil, ConfigErrorf("fused kernels require float32 or float64 elements, got %v", sig.Dtype)
	}
	if k, ok := cache[sig]; ok {
		return k, nil
	}
	k := build(sig)
	cache[sig] = k
	return k, nil
}
