// Copyright (c) 2024, The Emergent Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package snn

import (
	"github.com/chewxy/math32"
	"github.com/emer/etable/etensor"
	"github.com/emer/spikenet/surrogate"
)

// NoiseSource yields pre-generated exploration noise for one rollout:
// Sample returns the per-neuron noise vector for rollout step and
// horizon step t.  The colored-noise generator in the cnoise package
// satisfies this.
type NoiseSource interface {
	Sample(step, t int) []float32
}

// NoisyParams is the shared exploration-noise machinery for the noisy
// neuron variants: independent noise streams perturb the membrane
// input and the spike output, scaled by sigma = SigmaInit / sqrt(N).
// For distributed or replayed rollouts, externally captured noise can
// be loaded to override the sources until canceled.
type NoisyParams struct {
	NumNode   int     `desc:"number of neurons, fixes the noise vector length"`
	SigmaInit float32 `def:"0.5" desc:"base noise scale before the 1/sqrt(N) normalization"`
	SigmaV    float32 `inactive:"+" desc:"derived membrane noise scale"`
	SigmaS    float32 `inactive:"+" desc:"derived spike noise scale"`

	VSrc NoiseSource `view:"-" desc:"membrane noise stream for the current rollout"`
	SSrc NoiseSource `view:"-" desc:"spike noise stream for the current rollout"`

	LoadedV [][]float32 `view:"-" desc:"externally loaded membrane noise, one vector per horizon step; overrides VSrc"`
	LoadedS [][]float32 `view:"-" desc:"externally loaded spike noise; overrides SSrc"`

	StepIdx int `inactive:"+" desc:"rollout step cursor into the noise streams"`
}

func (np *NoisyParams) Defaults() {
	np.SigmaInit = 0.5
	np.StepIdx = -1
	np.Update()
}

func (np *NoisyParams) Update() {
	if np.NumNode > 0 {
		np.SigmaV = np.SigmaInit / math32.Sqrt(float32(np.NumNode))
		np.SigmaS = np.SigmaInit / math32.Sqrt(float32(np.NumNode))
	}
}

func (np *NoisyParams) Validate() error {
	if np.NumNode <= 0 {
		return ConfigErrorf("noisy NumNode (%d) must be positive", np.NumNode)
	}
	return nil
}

// ResetNoise installs fresh noise streams for a new rollout and rewinds
// the step cursor.
func (np *NoisyParams) ResetNoise(vsrc, ssrc NoiseSource) {
	np.VSrc = vsrc
	np.SSrc = ssrc
	np.StepIdx = -1
}

// Load overrides the noise streams with externally captured vectors,
// one per horizon step.  Used to replay another worker's exploration.
func (np *NoisyParams) Load(cnV, cnS [][]float32) {
	np.LoadedV = cnV
	np.LoadedS = cnS
}

// CancelLoad returns to the installed noise streams.
func (np *NoisyParams) CancelLoad() {
	np.LoadedV = nil
	np.LoadedS = nil
}

// Advance moves the rollout cursor forward, unless loaded noise is
// driving the rollout.
func (np *NoisyParams) Advance() {
	if np.LoadedV == nil || np.LoadedS == nil {
		np.StepIdx++
	}
}

// VNoise returns the membrane noise vector for horizon step t.
func (np *NoisyParams) VNoise(t int) []float32 {
	if np.LoadedV != nil {
		return np.LoadedV[t]
	}
	return np.VSrc.Sample(np.StepIdx, t)
}

// SNoise returns the spike noise vector for horizon step t.
func (np *NoisyParams) SNoise(t int) []float32 {
	if np.LoadedS != nil {
		return np.LoadedS[t]
	}
	return np.SSrc.Sample(np.StepIdx, t)
}

// NoisyCLIF is the current-based LIF with colored exploration noise on
// both the membrane input and the spike output, used in place of a
// stochastic policy head for reinforcement learning.  It runs over a
// fixed horizon T; in eval mode (Training false) the noise is skipped
// entirely and the output is the clean spike train.
type NoisyCLIF struct {
	T        int              `def:"5" desc:"fixed rollout horizon, input length must match"`
	Training bool             `desc:"apply exploration noise; off for deterministic evaluation"`
	CLIF     CLIFParams       `view:"inline" desc:"current-based membrane dynamics"`
	Noise    NoisyParams      `view:"inline" desc:"exploration noise streams and scales"`
	VTh      float32          `def:"0.5" desc:"firing threshold"`
	Reset    ResetModes       `desc:"hard or soft reset policy"`
	VReset   float32          `def:"0" desc:"hard reset potential and membrane placeholder"`
	Surr     surrogate.Params `view:"inline" desc:"surrogate gradient function, rectangular by default"`
	St       State            `desc:"membrane and synaptic current state"`
}

// NewNoisyCLIF returns a noisy CLIF over numNode neurons and horizon t.
func NewNoisyCLIF(numNode, t int) *NoisyCLIF {
	nc := &NoisyCLIF{T: t}
	nc.Noise.NumNode = numNode
	nc.Defaults()
	return nc
}

func (nc *NoisyCLIF) Defaults() {
	if nc.T == 0 {
		nc.T = 5
	}
	nc.Training = true
	nc.CLIF.Defaults()
	nc.Noise.Defaults()
	nc.VTh = 0.5
	nc.Reset = HardReset
	nc.VReset = 0
	nc.Surr.Defaults()
	nc.Surr.Func = surrogate.Rect
}

func (nc *NoisyCLIF) Validate() error {
	if nc.T <= 0 {
		return ConfigErrorf("NoisyCLIF horizon T (%d) must be positive", nc.T)
	}
	if err := nc.CLIF.Validate(); err != nil {
		return err
	}
	if err := nc.Noise.Validate(); err != nil {
		return err
	}
	return nc.Surr.Validate()
}

// ResetState clears the carried membrane and current between rollouts.
func (nc *NoisyCLIF) ResetState() {
	nc.St.ResetState()
}

// StepSeq runs one fixed-horizon rollout.  Training mode perturbs the
// input before charging and the spikes after reset, so the returned
// values are not binary.
func (nc *NoisyCLIF) StepSeq(xseq []*etensor.Float32) ([]*etensor.Float32, error) {
	if len(xseq) != nc.T {
		return nil, ShapeLenErrorf("NoisyCLIF input length %d does not equal fixed horizon T %d", len(xseq), nc.T)
	}
	if err := nc.St.CheckShape(xseq[0]); err != nil {
		return nil, err
	}
	nc.St.VInit = nc.VReset
	nc.St.MaterializeV(xseq[0])
	nc.St.MaterializeC(xseq[0])

	if nc.Training {
		nc.Noise.Advance()
	}
	nn := nc.Noise.NumNode
	cv := nc.St.C.Values
	vv := nc.St.V.Values
	out := make([]*etensor.Float32, nc.T)
	for t, x := range xseq {
		spk := etensor.NewFloat32(x.Shape.Shp, nil, nil)
		sv := spk.Values
		var vn, sn []float32
		if nc.Training {
			vn = nc.Noise.VNoise(t)
			sn = nc.Noise.SNoise(t)
		}
		for i, xi := range x.Values {
			if vn != nil {
				xi += nc.Noise.SigmaV * vn[i%nn]
			}
			cv[i] = cv[i]*nc.CLIF.CDecay + xi
			vi := vv[i]*nc.CLIF.VDecay + cv[i]
			s := nc.Surr.Forward(vi - nc.VTh)
			if nc.Reset == HardReset {
				vi = (1-s)*vi + s*nc.VReset
			} else {
				vi -= s * nc.VTh
			}
			vv[i] = vi
			if sn != nil {
				s += nc.Noise.SigmaS * sn[i%nn]
			}
			sv[i] = s
		}
		out[t] = spk
	}
	return out, nil
}
