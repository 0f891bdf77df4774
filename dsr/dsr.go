// Copyright (c) 2024, The Emergent Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

/*
Package dsr implements differentiation-on-spike-representation neurons:
the forward pass runs a quantized integrate-and-fire dynamic whose
spikes carry the threshold value, and the backward pass differentiates
the rate coding of the whole sequence instead of the per-step spike
function, with explicit forward / backward pairs usable from any
training engine.

The learnable threshold's gradient is summed across distributed
workers through a Reducer; a failed reduction surfaces as a
ReduceWarning carrying the locally computed gradient, never silently
dropped.
*/
package dsr

import (
	"fmt"

	"github.com/emer/empi/mpi"
)

// Reducer sums a gradient slice in place across all workers.  A
// single-process run can leave the Reducer nil.
type Reducer interface {
	AllReduceSum(g []float32) error
}

// ReduceWarning reports a failed cross-worker reduction of the
// threshold gradient.  The local gradient is still returned alongside
// it; the caller decides whether to retry, skip the update, or abort.
type ReduceWarning struct {
	Err error
}

func (e *ReduceWarning) Error() string {
	return fmt.Sprintf("dsr: all-reduce of threshold gradient failed, local gradient only: %v", e.Err)
}

func (e *ReduceWarning) Unwrap() error {
	return e.Err
}

// MPIReducer sums gradients across MPI ranks.  With a nil Comm or a
// single-rank world it is a no-op.
type MPIReducer struct {
	Comm *mpi.Comm `desc:"MPI communicator, typically the world comm"`
}

func (mr *MPIReducer) AllReduceSum(g []float32) error {
	if mr.Comm == nil || mpi.WorldSize() <= 1 {
		return nil
	}
	dest := make([]float32, len(g))
	if err := mr.Comm.AllReduceF32(mpi.OpSum, dest, g); err != nil {
		return err
	}
	copy(g, dest)
	return nil
}

// reduceVTh runs the threshold gradient through the reducer, wrapping
// any failure as a ReduceWarning around the local value.
func reduceVTh(red Reducer, grad float32) (float32, error) {
	if red == nil {
		return grad, nil
	}
	g := []float32{grad}
	if err := red.AllReduceSum(g); err != nil {
		mpi.Printf("dsr: threshold gradient all-reduce failed: %v\n", err)
		return grad, &ReduceWarning{Err: err}
	}
	return g[0], nil
}
