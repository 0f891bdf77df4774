// Copyright (c) 2024, The Emergent Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package snn

import (
	"github.com/chewxy/math32"
	"github.com/emer/etable/etensor"
	"github.com/emer/spikenet/surrogate"
)

// MPBNLIF is the membrane-potential batch-normalized LIF neuron: after
// each LIF charge step the membrane is batch-normalized per feature,
// which stabilizes the firing statistics during training.  The batch
// norm can later be folded into a per-feature threshold
//
//	vth[i] = (vth - beta[i]) * sqrt(sigma2[i] + eps) / gamma[i] + mu[i]
//
// leaving an identity charge path for test-time adaptation, where the
// running statistics keep updating under a decaying momentum.
//
// Input is 2D, rows of a batch by feature columns.  Thresholds are
// per-feature, so this family drives its own step rather than using
// the shared scalar-threshold executor.
type MPBNLIF struct {
	Tau        float32    `def:"2" desc:"membrane time constant, must exceed 1"`
	DecayInput bool       `def:"false" desc:"scale the input current by the membrane decay factor"`
	VTh        float32    `def:"1" desc:"base firing threshold before folding"`
	Reset      ResetModes `desc:"hard or soft reset policy"`
	VReset     float32    `def:"0" desc:"hard reset potential and membrane placeholder"`
	Features   int        `desc:"number of feature columns, fixes the per-feature parameter sizes"`
	Mode       Modes      `desc:"train uses batch statistics, eval uses the running statistics"`

	Eps          float32 `def:"1e-5" desc:"batch norm variance epsilon"`
	BNMomentum   float32 `def:"0.1" desc:"running statistics momentum"`
	BNDecayMom   float32 `def:"0.94" desc:"per-update decay of the momentum after folding"`
	BNMinMom     float32 `def:"0.005" desc:"momentum floor after folding"`
	LearnableVTh bool    `desc:"threshold is exp(A) per feature, trained instead of folded"`

	Gamma  []float32 `inactive:"+" desc:"batch norm scale per feature"`
	Beta   []float32 `inactive:"+" desc:"batch norm shift per feature"`
	Mu     []float32 `inactive:"+" desc:"running mean of the post-charge membrane per feature"`
	Sigma2 []float32 `inactive:"+" desc:"running variance of the post-charge membrane per feature"`
	A      []float32 `inactive:"+" desc:"unconstrained learnable threshold, vth = exp(A)"`

	Folded       bool `inactive:"+" desc:"batch norm has been folded into the per-feature threshold"`
	RunningStats bool `desc:"after folding, keep updating the running statistics under the decaying momentum"`

	Surr surrogate.Params `view:"inline" desc:"surrogate gradient function for the fire step"`
	St   State            `desc:"membrane state"`
}

// NewMPBNLIF returns a batch-normalized LIF over the given feature
// count, with parameters at their defaults.
func NewMPBNLIF(features int) *MPBNLIF {
	mb := &MPBNLIF{Features: features}
	mb.Defaults()
	return mb
}

func (mb *MPBNLIF) Defaults() {
	mb.Tau = 2
	mb.DecayInput = false
	mb.VTh = 1
	mb.Reset = HardReset
	mb.VReset = 0
	mb.Eps = 1e-5
	mb.BNMomentum = 0.1
	mb.BNDecayMom = 0.94
	mb.BNMinMom = 0.005
	mb.Surr.Defaults()
	mb.Update()
}

// Update sizes the per-feature parameters, preserving learned values
// when the feature count is unchanged.
func (mb *MPBNLIF) Update() {
	if mb.Features <= 0 {
		return
	}
	if len(mb.Gamma) != mb.Features {
		mb.Gamma = make([]float32, mb.Features)
		mb.Beta = make([]float32, mb.Features)
		mb.Mu = make([]float32, mb.Features)
		mb.Sigma2 = make([]float32, mb.Features)
		mb.A = make([]float32, mb.Features)
		for i := range mb.Gamma {
			mb.Gamma[i] = 1
			mb.Sigma2[i] = 1
		}
	}
}

func (mb *MPBNLIF) Validate() error {
	if mb.Features <= 0 {
		return ConfigErrorf("MPBN Features (%d) must be positive", mb.Features)
	}
	if mb.Tau <= 1 {
		return ConfigErrorf("MPBN Tau (%g) must exceed 1", mb.Tau)
	}
	if mb.BNMomentum <= 0 || mb.BNMomentum > 1 {
		return ConfigErrorf("MPBN BNMomentum (%g) must be in (0, 1]", mb.BNMomentum)
	}
	return mb.Surr.Validate()
}

// ResetState clears the carried membrane between sequences; the batch
// norm statistics persist.
func (mb *MPBNLIF) ResetState() {
	mb.St.ResetState()
}

// Fold folds the batch norm into the per-feature threshold, switching
// the charge path to identity.  Irreversible; no-op if already folded.
func (mb *MPBNLIF) Fold(runningStats bool) {
	if mb.Folded {
		return
	}
	if mb.LearnableVTh {
		mb.LearnableVTh = false
	}
	mb.Folded = true
	mb.RunningStats = runningStats
}

// VThVec computes the effective per-feature threshold into out.
func (mb *MPBNLIF) VThVec(out []float32) {
	switch {
	case mb.LearnableVTh:
		for i := range out {
			out[i] = math32.Exp(mb.A[i])
		}
	case mb.Folded:
		for i := range out {
			out[i] = (mb.VTh-mb.Beta[i])*math32.Sqrt(mb.Sigma2[i]+mb.Eps)/mb.Gamma[i] + mb.Mu[i]
		}
	default:
		for i := range out {
			out[i] = mb.VTh
		}
	}
}

func (mb *MPBNLIF) checkInput(x *etensor.Float32) error {
	if x.NumDims() != 2 {
		return ShapeLenErrorf("MPBN input must be 2D batch x features, got %dD", x.NumDims())
	}
	if x.Dim(1) != mb.Features {
		return ShapeLenErrorf("MPBN input has %d features, configured for %d", x.Dim(1), mb.Features)
	}
	return nil
}

// Step advances one time slice: LIF charge, batch norm (or folded
// identity), per-feature fire, reset.  Returns the spike output.
func (mb *MPBNLIF) Step(x *etensor.Float32) (*etensor.Float32, error) {
	if err := mb.checkInput(x); err != nil {
		return nil, err
	}
	if err := mb.St.CheckShape(x); err != nil {
		return nil, err
	}
	mb.St.VInit = mb.VReset
	mb.St.MaterializeV(x)

	mb.charge(x)
	if !mb.Folded && !mb.LearnableVTh {
		mb.batchNorm(x.Dim(0))
	} else if mb.Folded && mb.RunningStats && mb.Mode == Train {
		mb.updateStats(x.Dim(0))
	}

	vth := make([]float32, mb.Features)
	mb.VThVec(vth)
	spk := etensor.NewFloat32(x.Shape.Shp, nil, nil)
	vv := mb.St.V.Values
	sv := spk.Values
	nf := mb.Features
	for j, v := range vv {
		sv[j] = mb.Surr.Forward(v - vth[j%nf])
	}
	switch mb.Reset {
	case HardReset:
		for j, s := range sv {
			vv[j] = s*mb.VReset + (1-s)*vv[j]
		}
	case SoftReset:
		for j, s := range sv {
			vv[j] -= s * vth[j%nf]
		}
	}
	return spk, nil
}

// StepSeq unrolls a sequence through Step.
func (mb *MPBNLIF) StepSeq(xseq []*etensor.Float32) ([]*etensor.Float32, error) {
	spikes := make([]*etensor.Float32, len(xseq))
	for t, x := range xseq {
		spk, err := mb.Step(x)
		if err != nil {
			return nil, err
		}
		spikes[t] = spk
	}
	return spikes, nil
}

func (mb *MPBNLIF) charge(x *etensor.Float32) {
	var rest float32
	if mb.Reset == HardReset {
		rest = mb.VReset
	}
	vv := mb.St.V.Values
	if mb.DecayInput {
		for i, xi := range x.Values {
			vv[i] += (xi - (vv[i] - rest)) / mb.Tau
		}
	} else {
		for i, xi := range x.Values {
			vv[i] = vv[i] - (vv[i]-rest)/mb.Tau + xi
		}
	}
}

// batchNorm normalizes the membrane per feature.  Training uses the
// current batch statistics and folds them into the running stats;
// eval uses the running stats directly.
func (mb *MPBNLIF) batchNorm(batch int) {
	vv := mb.St.V.Values
	nf := mb.Features
	if mb.Mode == Train && batch > 1 {
		mu, sigma2 := colStats(vv, batch, nf)
		for r := 0; r < batch; r++ {
			for c := 0; c < nf; c++ {
				j := r*nf + c
				vv[j] = (vv[j]-mu[c])/math32.Sqrt(sigma2[c]+mb.Eps)*mb.Gamma[c] + mb.Beta[c]
			}
		}
		for c := 0; c < nf; c++ {
			mb.Mu[c] = mb.Mu[c]*(1-mb.BNMomentum) + mu[c]*mb.BNMomentum
			mb.Sigma2[c] = mb.Sigma2[c]*(1-mb.BNMomentum) + sigma2[c]*mb.BNMomentum
		}
		return
	}
	for r := 0; r < batch; r++ {
		for c := 0; c < nf; c++ {
			j := r*nf + c
			vv[j] = (vv[j]-mb.Mu[c])/math32.Sqrt(mb.Sigma2[c]+mb.Eps)*mb.Gamma[c] + mb.Beta[c]
		}
	}
}

// updateStats refreshes the running statistics from the post-charge
// membrane after folding, decaying the momentum toward its floor.
func (mb *MPBNLIF) updateStats(batch int) {
	if batch <= 1 {
		return
	}
	mu, sigma2 := colStats(mb.St.V.Values, batch, mb.Features)
	for c := 0; c < mb.Features; c++ {
		mb.Mu[c] = mb.Mu[c]*(1-mb.BNMomentum) + mu[c]*mb.BNMomentum
		mb.Sigma2[c] = mb.Sigma2[c]*(1-mb.BNMomentum) + sigma2[c]*mb.BNMomentum
	}
	mb.BNMomentum = math32.Max(mb.BNMomentum*mb.BNDecayMom, mb.BNMinMom)
}

// colStats computes per-column mean and unbiased variance of a
// row-major batch x features block.
func colStats(vals []float32, batch, nf int) (mu, sigma2 []float32) {
	mu = make([]float32, nf)
	sigma2 = make([]float32, nf)
	for r := 0; r < batch; r++ {
		for c := 0; c < nf; c++ {
			mu[c] += vals[r*nf+c]
		}
	}
	for c := range mu {
		mu[c] /= float32(batch)
	}
	for r := 0; r < batch; r++ {
		for c := 0; c < nf; c++ {
			d := vals[r*nf+c] - mu[c]
			sigma2[c] += d * d
		}
	}
	for c := range sigma2 {
		sigma2[c] /= float32(batch - 1)
	}
	return
}
