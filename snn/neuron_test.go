// Copyright (c) 2024, The Emergent Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package snn

import (
	"errors"
	"testing"

	"github.com/chewxy/math32"
	"github.com/emer/etable/etensor"
)

// difTol is the numerical difference tolerance for comparing vs. known values
const difTol = float32(1.0e-7)

func inputTsr(vals ...float32) *etensor.Float32 {
	tsr := etensor.NewFloat32([]int{len(vals)}, nil, nil)
	copy(tsr.Values, vals)
	return tsr
}

func constSeq(t int, val float32) []*etensor.Float32 {
	seq := make([]*etensor.Float32, t)
	for i := range seq {
		seq[i] = inputTsr(val)
	}
	return seq
}

func TestIFScenario(t *testing.T) {
	nr := NewNeuron(&IFParams{})
	if err := nr.Validate(); err != nil {
		t.Fatal(err)
	}
	exSpk := []float32{0, 1, 0, 1}
	exV := []float32{0.6, 0, 0.6, 0}
	for i := 0; i < 4; i++ {
		spk, err := nr.Step(inputTsr(0.6))
		if err != nil {
			t.Fatal(err)
		}
		if spk.Values[0] != exSpk[i] {
			t.Errorf("IF step %v: spike %v != %v", i, spk.Values[0], exSpk[i])
		}
		if math32.Abs(nr.St.V.Values[0]-exV[i]) > difTol {
			t.Errorf("IF step %v: v %v != %v", i, nr.St.V.Values[0], exV[i])
		}
	}
}

func TestLIFDecaySoftReset(t *testing.T) {
	nr := NewNeuron(&LIFParams{})
	nr.Act.Reset = SoftReset
	exV := []float32{0.5, 0.25, 0.125}
	xs := []float32{1, 0, 0}
	for i, x := range xs {
		spk, err := nr.Step(inputTsr(x))
		if err != nil {
			t.Fatal(err)
		}
		if spk.Values[0] != 0 {
			t.Errorf("LIF step %v: unexpected spike", i)
		}
		if math32.Abs(nr.St.V.Values[0]-exV[i]) > difTol {
			t.Errorf("LIF step %v: v %v != %v", i, nr.St.V.Values[0], exV[i])
		}
	}
}

func TestHardResetExact(t *testing.T) {
	nr := NewNeuron(&IFParams{})
	nr.Step(inputTsr(0.7))
	nr.Step(inputTsr(0.7))
	if nr.St.V.Values[0] != 0 {
		t.Errorf("hard reset must snap exactly to VReset, got %v", nr.St.V.Values[0])
	}
}

func TestSoftResetOvershoot(t *testing.T) {
	nr := NewNeuron(&IFParams{})
	nr.Act.Reset = SoftReset
	spk, _ := nr.Step(inputTsr(2.5))
	if spk.Values[0] != 1 {
		t.Fatal("expected spike")
	}
	if math32.Abs(nr.St.V.Values[0]-1.5) > difTol {
		t.Errorf("soft reset must keep the overshoot: v %v != 1.5", nr.St.V.Values[0])
	}
	spk, _ = nr.Step(inputTsr(0))
	if spk.Values[0] != 1 {
		t.Error("carried overshoot should fire again with zero input")
	}
	if math32.Abs(nr.St.V.Values[0]-0.5) > difTol {
		t.Errorf("v %v != 0.5", nr.St.V.Values[0])
	}
}

func TestMaterialization(t *testing.T) {
	nr := NewNeuron(&IFParams{})
	if nr.St.Materialized() {
		t.Error("state must start as a placeholder")
	}
	x := inputTsr(0.1, 0.2)
	nr.Step(x)
	if !nr.St.Materialized() {
		t.Fatal("state must materialize on first input")
	}
	v := nr.St.V
	nr.Chg.InitState(&nr.Act, &nr.St, x)
	if nr.St.V != v {
		t.Error("materialization must be idempotent")
	}
	if _, err := nr.Step(inputTsr(0.1)); err == nil {
		t.Error("shape mismatch after materialization must error")
	} else {
		var se *ShapeLenError
		if !errors.As(err, &se) {
			t.Errorf("expected ShapeLenError, got %T", err)
		}
	}
	nr.ResetState()
	if nr.St.Materialized() {
		t.Error("reset must return to placeholder")
	}
	if _, err := nr.Step(inputTsr(0.1)); err != nil {
		t.Errorf("new shape after reset must be accepted: %v", err)
	}
}

func TestMultiVsSingle(t *testing.T) {
	xs := []float32{0.3, 0.9, 0.1, 1.2, 0.5, 0.8}
	var xseq []*etensor.Float32
	for _, x := range xs {
		xseq = append(xseq, inputTsr(x))
	}

	multi := NewNeuron(&LIFParams{})
	multi.Act.StoreVSeq = true
	mspk, err := multi.StepSeq(xseq)
	if err != nil {
		t.Fatal(err)
	}
	if len(multi.St.VSeq) != len(xs) {
		t.Fatalf("VSeq length %v != %v", len(multi.St.VSeq), len(xs))
	}

	single := NewNeuron(&LIFParams{})
	for i, x := range xseq {
		sspk, err := single.Step(x)
		if err != nil {
			t.Fatal(err)
		}
		if sspk.Values[0] != mspk[i].Values[0] {
			t.Errorf("step %v: multi spike %v != single %v", i, mspk[i].Values[0], sspk.Values[0])
		}
		if multi.St.VSeq[i].Values[0] != single.St.V.Values[0] {
			t.Errorf("step %v: VSeq %v != single v %v", i, multi.St.VSeq[i].Values[0], single.St.V.Values[0])
		}
	}
	if multi.St.V.Values[0] != single.St.V.Values[0] {
		t.Error("final membranes differ")
	}
}

func TestEvalBitIdentical(t *testing.T) {
	xs := []float32{0.4, 1.1, 0.2, 0.9, 1.5, 0.05}
	for _, rst := range []ResetModes{HardReset, SoftReset} {
		train := NewNeuron(&LIFParams{})
		train.Act.Reset = rst
		eval := NewNeuron(&LIFParams{})
		eval.Act.Reset = rst
		eval.Act.Mode = Eval
		for i, x := range xs {
			tspk, _ := train.Step(inputTsr(x))
			espk, _ := eval.Step(inputTsr(x))
			if tspk.Values[0] != espk.Values[0] {
				t.Errorf("%v step %v: eval spike differs", rst, i)
			}
			if train.St.V.Values[0] != eval.St.V.Values[0] {
				t.Errorf("%v step %v: eval v %v != train v %v", rst, i, eval.St.V.Values[0], train.St.V.Values[0])
			}
		}
	}
}

func TestEvalStoreVSeq(t *testing.T) {
	// trajectory capture is unconditional in multi-step mode: the eval
	// fast path must record the same post-reset membranes as the
	// generic path
	xseq := constSeq(4, 0.7)
	for _, rst := range []ResetModes{HardReset, SoftReset} {
		gen := NewNeuron(&LIFParams{})
		gen.Act.Reset = rst
		gen.Act.StoreVSeq = true
		if _, err := gen.StepSeq(xseq); err != nil {
			t.Fatal(err)
		}
		ev := NewNeuron(&LIFParams{})
		ev.Act.Reset = rst
		ev.Act.Mode = Eval
		ev.Act.StoreVSeq = true
		if _, err := ev.StepSeq(xseq); err != nil {
			t.Fatal(err)
		}
		if len(ev.St.VSeq) != len(xseq) {
			t.Fatalf("%v: eval VSeq length %v != %v", rst, len(ev.St.VSeq), len(xseq))
		}
		for i := range xseq {
			if ev.St.VSeq[i].Values[0] != gen.St.VSeq[i].Values[0] {
				t.Errorf("%v step %v: eval VSeq %v != generic %v", rst, i, ev.St.VSeq[i].Values[0], gen.St.VSeq[i].Values[0])
			}
		}
	}
}

func TestLIFReset0BitCompat(t *testing.T) {
	// the rest == 0 specializations must match the general forms exactly,
	// computed here with the explicit rest term in place
	for _, decay := range []bool{true, false} {
		lp := &LIFParams{}
		lp.Defaults()
		lp.DecayInput = decay
		nr := NewNeuron(lp)
		nr.Act.Reset = SoftReset // rest forced to 0
		var rest, mv float32
		xs := []float32{0.3, 0.7, 0.2}
		for i, x := range xs {
			nr.Chg.InitState(&nr.Act, &nr.St, inputTsr(x))
			nr.Chg.Charge(&nr.Act, &nr.St, inputTsr(x))
			if decay {
				mv += (x - (mv - rest)) / lp.Tau
			} else {
				mv = mv - (mv-rest)/lp.Tau + x
			}
			if nr.St.V.Values[0] != mv {
				t.Errorf("decay %v step %v: specialized %v != general %v", decay, i, nr.St.V.Values[0], mv)
			}
		}
	}
}

func TestFusedMatchesGeneric(t *testing.T) {
	xs := []float32{0.6, 0.6, 0.6, 0.6, 1.3, 0.1}
	var xseq []*etensor.Float32
	for _, x := range xs {
		xseq = append(xseq, inputTsr(x))
	}
	for _, rst := range []ResetModes{HardReset, SoftReset} {
		gen := NewNeuron(&IFParams{})
		gen.Act.Reset = rst
		gspk, err := gen.StepSeq(xseq)
		if err != nil {
			t.Fatal(err)
		}
		fus := NewNeuron(&IFParams{})
		fus.Act.Reset = rst
		fus.Act.Backend = FusedBackend
		fspk, err := fus.StepSeq(xseq)
		if err != nil {
			t.Fatal(err)
		}
		for i := range gspk {
			if gspk[i].Values[0] != fspk[i].Values[0] {
				t.Errorf("%v step %v: fused spike differs", rst, i)
			}
		}
		if gen.St.V.Values[0] != fus.St.V.Values[0] {
			t.Errorf("%v: fused final v %v != generic %v", rst, fus.St.V.Values[0], gen.St.V.Values[0])
		}
	}
}

func TestKernelCache(t *testing.T) {
	nr := NewNeuron(&LIFParams{})
	nr.Act.Backend = FusedBackend
	xseq := constSeq(3, 0.5)
	if _, err := nr.StepSeq(xseq); err != nil {
		t.Fatal(err)
	}
	if len(nr.Cache) != 1 {
		t.Fatalf("cache size %v != 1", len(nr.Cache))
	}
	var first *Kernel
	for _, k := range nr.Cache {
		first = k
	}
	nr.ResetState()
	nr.StepSeq(xseq)
	if len(nr.Cache) != 1 {
		t.Error("same structure must reuse the cached kernel")
	}
	// numeric param change: no rebuild
	nr.Act.VTh = 0.8
	nr.ResetState()
	nr.StepSeq(xseq)
	if len(nr.Cache) != 1 {
		t.Error("numeric parameter change must not rebuild")
	}
	// structural change: new kernel
	nr.Act.Reset = SoftReset
	nr.ResetState()
	nr.StepSeq(xseq)
	if len(nr.Cache) != 2 {
		t.Error("structural change must build a new kernel")
	}
	sig := first.Sig
	if k, ok := nr.Cache[sig]; !ok || k != first {
		t.Error("original kernel must remain cached under its signature")
	}
}

func TestKernelDtypeError(t *testing.T) {
	cache := make(KernelCache)
	lp := &LIFParams{}
	lp.Defaults()
	ac := &ActParams{}
	ac.Defaults()
	sig := lp.FusedSig(ac)
	sig.Dtype = etensor.INT64
	_, err := GetOrBuildKernel(cache, lp.FusedBuilder(ac), sig)
	var ce *ConfigError
	if !errors.As(err, &ce) {
		t.Errorf("expected ConfigError for int64 kernel, got %v", err)
	}
	if len(cache) != 0 {
		t.Error("rejected signature must not be cached")
	}
}

func TestUnsupportedBackend(t *testing.T) {
	// IF fused is multi-step only
	nr := NewNeuron(&IFParams{})
	nr.Act.Backend = FusedBackend
	_, err := nr.Step(inputTsr(0.5))
	var ue *UnsupportedError
	if !errors.As(err, &ue) {
		t.Fatalf("expected UnsupportedError, got %v", err)
	}
	// QIF has no fused path at all
	qn := NewNeuron(&QIFParams{})
	qn.Act.Backend = FusedBackend
	if _, err := qn.StepSeq(constSeq(2, 0.5)); err == nil {
		t.Error("expected UnsupportedError for QIF fused")
	}
	// online variants are single-step only
	on := NewNeuron(&OTTTLIFParams{})
	if _, err := on.StepSeq(constSeq(2, 0.5)); err == nil {
		t.Error("expected UnsupportedError for OTTT multi-step")
	}
}

func TestValidateErrors(t *testing.T) {
	nr := NewNeuron(&LIFParams{})
	nr.Chg.(*LIFParams).Tau = 1
	var ce *ConfigError
	if err := nr.Validate(); !errors.As(err, &ce) {
		t.Errorf("expected ConfigError for Tau <= 1, got %v", err)
	}
	nr2 := NewNeuron(&IFParams{})
	nr2.Act.VTh = 0
	if err := nr2.Validate(); !errors.As(err, &ce) {
		t.Errorf("expected ConfigError for VTh <= VReset, got %v", err)
	}
	qn := NewNeuron(&QIFParams{})
	qn.Act.VTh = 0.5 // below VC = 0.8
	if err := qn.Validate(); !errors.As(err, &ce) {
		t.Errorf("expected ConfigError for VC >= VTh, got %v", err)
	}
}

func TestEmptySeq(t *testing.T) {
	nr := NewNeuron(&IFParams{})
	_, err := nr.StepSeq(nil)
	var se *ShapeLenError
	if !errors.As(err, &se) {
		t.Errorf("expected ShapeLenError for empty sequence, got %v", err)
	}
}
