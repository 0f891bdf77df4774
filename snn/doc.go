// Copyright (c) 2024, The Emergent Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

/*
Package snn implements the core state machine for differentiable spiking
neurons: the charge / fire / reset contract shared by all neuron families,
the single-step and multi-step executors with optional trajectory capture,
and the backend kernel cache and dispatch.

Every recurrent family (IF, LIF, parametric LIF, quadratic, exponential,
adaptive / Izhikevich, KLIF, current-based, batch-normalized) supplies one
Charger: the discrete-time differential equation updating the membrane
state from the input current.  The executor composes that with the shared
fire policy (surrogate of v - threshold) and reset policy (hard or soft),
so per-step logic is implemented exactly once and reused by both the
single-step and multi-step drivers.

Variants whose execution does not fit the per-step recurrence -- the gated
LIF, the noisy exploration variants, the population-connected (ILC)
variants and the non-spiking decoders -- drive their own sequence loop but
reuse the same charge / fire / reset building blocks.

The online truncated-gradient variants (OTTT, SLTT) carry the membrane
potential as a detached buffer between steps, so an autodiff engine
driving them never backpropagates through more than one step of state;
OTTT additionally maintains a no-gradient exponential spike trace.
*/
package snn
