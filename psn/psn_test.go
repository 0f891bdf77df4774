// Copyright (c) 2024, The Emergent Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package psn

import (
	"errors"
	"testing"

	"github.com/chewxy/math32"
	"github.com/emer/etable/etensor"
	"github.com/emer/spikenet/snn"
)

// difTol is the numerical difference tolerance for comparing vs. known values
const difTol = float32(1.0e-7)

func inputTsr(vals ...float32) *etensor.Float32 {
	tsr := etensor.NewFloat32([]int{len(vals)}, nil, nil)
	copy(tsr.Values, vals)
	return tsr
}

func seqOf(vals ...float32) []*etensor.Float32 {
	seq := make([]*etensor.Float32, len(vals))
	for i, v := range vals {
		seq[i] = inputTsr(v)
	}
	return seq
}

func TestPSNIdentityMix(t *testing.T) {
	ps := NewPSN(3)
	if err := ps.Validate(); err != nil {
		t.Fatal(err)
	}
	// identity weights with bias -0.5 threshold each step on its own input
	for i := range ps.Wts {
		ps.Wts[i] = 0
	}
	for r := 0; r < 3; r++ {
		ps.Wts[r*3+r] = 1
		ps.Bias[r] = -0.5
	}
	spikes, err := ps.Forward(seqOf(1, 0.4, 0.6))
	if err != nil {
		t.Fatal(err)
	}
	ex := []float32{1, 0, 1}
	for i, spk := range spikes {
		if spk.Values[0] != ex[i] {
			t.Errorf("step %v: spike %v != %v", i, spk.Values[0], ex[i])
		}
	}
}

func TestPSNAcausalMix(t *testing.T) {
	// the full matrix sees the future: step 0 can fire off step 2's input
	ps := NewPSN(3)
	for i := range ps.Wts {
		ps.Wts[i] = 0
	}
	ps.Wts[0*3+2] = 1
	ps.Bias[0] = -0.5
	ps.Bias[1] = -0.5
	ps.Bias[2] = -0.5
	spikes, _ := ps.Forward(seqOf(0, 0, 1))
	if spikes[0].Values[0] != 1 {
		t.Error("step 0 must fire from the future input")
	}
	if spikes[1].Values[0] != 0 || spikes[2].Values[0] != 0 {
		t.Error("zero-weight steps must stay silent")
	}
}

func TestPSNShapeErrors(t *testing.T) {
	ps := NewPSN(3)
	var se *snn.ShapeLenError
	if _, err := ps.Forward(seqOf(1, 2)); !errors.As(err, &se) {
		t.Errorf("expected ShapeLenError for short input, got %v", err)
	}
	bad := []*etensor.Float32{inputTsr(1), inputTsr(1, 2), inputTsr(1)}
	if _, err := ps.Forward(bad); !errors.As(err, &se) {
		t.Errorf("expected ShapeLenError for shape change, got %v", err)
	}
}

func TestMaskedWeightBlend(t *testing.T) {
	mp := NewMaskedPSN(2, 3)
	for i := range mp.Wts {
		mp.Wts[i] = 1
	}
	mp.Lambda = 0.5
	w := mp.MaskedWeight()
	// row 1: columns 0 and 1 are in the band, column 2 is not
	if math32.Abs(w[1*3+0]-1) > difTol || math32.Abs(w[1*3+1]-1) > difTol {
		t.Errorf("in-band weights %v %v != 1", w[1*3+0], w[1*3+1])
	}
	if math32.Abs(w[1*3+2]-0.5) > difTol {
		t.Errorf("out-of-band weight %v != 0.5 at lambda 0.5", w[1*3+2])
	}
	mp.Lambda = 1
	w = mp.MaskedWeight()
	if w[1*3+2] != 0 {
		t.Errorf("out-of-band weight %v != 0 at lambda 1", w[1*3+2])
	}
	if w[0*3+0] != 1 || w[2*3+1] != 1 || w[2*3+2] != 1 {
		t.Error("band entries must pass through unchanged at lambda 1")
	}
}

func TestMaskedForwardVsStep(t *testing.T) {
	mp := NewMaskedPSN(2, 3)
	mp.Lambda = 1
	xseq := seqOf(0.9, 0.2, 1.4)
	full, err := mp.Forward(xseq)
	if err != nil {
		t.Fatal(err)
	}
	mp.ResetState()
	for i, x := range xseq {
		spk, err := mp.Step(x)
		if err != nil {
			t.Fatal(err)
		}
		if spk.Values[0] != full[i].Values[0] {
			t.Errorf("step %v: single-step %v != multi-step %v", i, spk.Values[0], full[i].Values[0])
		}
	}
	// running past the horizon is an error
	var se *snn.ShapeLenError
	if _, err := mp.Step(inputTsr(0.5)); !errors.As(err, &se) {
		t.Errorf("expected ShapeLenError past horizon, got %v", err)
	}
	mp.ResetState()
	if _, err := mp.Step(inputTsr(0.5)); err != nil {
		t.Errorf("reset must rewind the cursor: %v", err)
	}
}

func TestMaskedStepNeedsCausalMask(t *testing.T) {
	mp := NewMaskedPSN(2, 3)
	mp.Lambda = 0.5
	var ce *snn.ConfigError
	if _, err := mp.Step(inputTsr(1)); !errors.As(err, &ce) {
		t.Errorf("expected ConfigError for lambda < 1, got %v", err)
	}
}

func TestSlidingExpInit(t *testing.T) {
	sp := NewSlidingPSN(3)
	if err := sp.Validate(); err != nil {
		t.Fatal(err)
	}
	ex := []float32{0.25, 0.5, 1}
	for i := range ex {
		if math32.Abs(sp.Wts[i]-ex[i]) > difTol {
			t.Errorf("tap %v: %v != %v", i, sp.Wts[i], ex[i])
		}
	}
}

func TestSlidingGemmWeight(t *testing.T) {
	sp := NewSlidingPSN(2)
	w := sp.GemmWeight(3)
	ex := []float32{
		1, 0, 0,
		0.5, 1, 0,
		0, 0.5, 1,
	}
	for i := range ex {
		if math32.Abs(w[i]-ex[i]) > difTol {
			t.Errorf("gemm[%v]: %v != %v", i, w[i], ex[i])
		}
	}
}

func TestSlidingForwardVsStep(t *testing.T) {
	sp := NewSlidingPSN(2)
	// any length works, including longer than the kernel
	xseq := seqOf(0.8, 0.1, 1.2, 0.6)
	full, err := sp.Forward(xseq)
	if err != nil {
		t.Fatal(err)
	}
	sp.ResetState()
	for i, x := range xseq {
		spk, err := sp.Step(x)
		if err != nil {
			t.Fatal(err)
		}
		if spk.Values[0] != full[i].Values[0] {
			t.Errorf("step %v: single-step %v != multi-step %v", i, spk.Values[0], full[i].Values[0])
		}
	}
}

func TestSlidingThreshold(t *testing.T) {
	sp := NewSlidingPSN(2)
	// taps [0.5, 1], bias -1: h = x[t] + 0.5 x[t-1] - 1
	spikes, _ := sp.Forward(seqOf(1, 0.6, 0.2))
	ex := []float32{1, 1, 0}
	for i, spk := range spikes {
		if spk.Values[0] != ex[i] {
			t.Errorf("step %v: spike %v != %v", i, spk.Values[0], ex[i])
		}
	}
}
