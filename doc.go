// Copyright (c) 2024, The Emergent Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

/*
Package spikenet is the overall repository for differentiable spiking neuron
models implemented in the Go language (golang).

This top-level of the repository has no functional code -- everything is
organized into the following sub-repositories:

* snn: the core neuron state machine -- per-family charge equations
(IF, LIF, parametric LIF, quadratic, exponential, adaptive / Izhikevich,
KLIF, current-based, gated, batch-normalized), the shared fire / reset
contract, the single-step and multi-step executors with optional trajectory
capture, the backend kernel cache and dispatch, and the online
truncated-gradient variants (OTTT, SLTT).

* surrogate: surrogate gradient functions substituting a smooth derivative
for the non-differentiable spike step function during the backward pass.

* psn: parallel spiking neurons, where charging is a dense or banded linear
map over the whole time axis instead of a per-step recurrence.

* dsr: rate-coded surrogate gradient training (differentiation on spike
representation), with learnable thresholds and distributed gradient
reduction.

* cnoise: colored (power-law) noise realizations consumed by the noisy
exploration variants.
*/
package spikenet
