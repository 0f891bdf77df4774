// Copyright (c) 2024, The Emergent Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package dsr

import (
	"github.com/chewxy/math32"
	"github.com/emer/etable/etensor"
	"github.com/emer/spikenet/snn"
)

// LIF is the DSR leaky integrate-and-fire neuron, the continuous-time
// LIF discretized at step DeltaT.  Forward emits quantized spikes
// scaled to rates:
//
//	beta = exp(-deltaT / tau)
//	v <- beta * v + (1 - beta) * x
//	s = H(v - alpha * vth) * vth
//	v <- v - s
//	out = s / deltaT
//
// Backward differentiates the exponentially weighted rate coding: the
// weighted output gradient, scaled by 1/tau and averaged over the
// horizon, flows identically to every step's input, but only where the
// weighted input rate sits strictly inside (0, vth*tau/deltaT); the
// threshold receives the summed code gradient where the rate exceeds
// that bound.  Multi-step only.
type LIF struct {
	T            int     `def:"20" desc:"fixed sequence horizon"`
	VTh          float32 `def:"1" desc:"learnable firing threshold and spike amplitude"`
	Tau          float32 `def:"2" desc:"membrane time constant"`
	DeltaT       float32 `def:"0.05" desc:"discretization step"`
	Alpha        float32 `def:"0.3" desc:"firing point as a fraction of the threshold, in (0, 1]"`
	VThTraining  bool    `def:"true" desc:"whether the threshold is being trained; floors it each forward"`
	VThGradScale float32 `def:"1" desc:"scaling applied to the threshold gradient"`
	VThLowBound  float32 `def:"0.1" desc:"smallest value the threshold can be floored to"`
	Red          Reducer `view:"-" desc:"cross-worker summation of the threshold gradient; nil for single process"`

	Saved *Saved `view:"-" desc:"input saved by Forward for the backward pass"`
}

// NewLIF returns a DSR LIF neuron over the given horizon.
func NewLIF(t int) *LIF {
	df := &LIF{T: t}
	df.Defaults()
	return df
}

func (df *LIF) Defaults() {
	if df.T == 0 {
		df.T = 20
	}
	df.VTh = 1
	df.Tau = 2
	df.DeltaT = 0.05
	df.Alpha = 0.3
	df.VThTraining = true
	df.VThGradScale = 1
	df.VThLowBound = 0.1
}

func (df *LIF) Validate() error {
	if df.T <= 0 {
		return snn.ConfigErrorf("DSR LIF horizon T (%d) must be positive", df.T)
	}
	if df.Tau <= 0 || df.DeltaT <= 0 {
		return snn.ConfigErrorf("DSR LIF Tau (%g) and DeltaT (%g) must be positive", df.Tau, df.DeltaT)
	}
	if df.Alpha <= 0 || df.Alpha > 1 {
		return snn.ConfigErrorf("DSR LIF Alpha (%g) must be in (0, 1]", df.Alpha)
	}
	if df.VThLowBound <= 0 {
		return snn.ConfigErrorf("DSR LIF VThLowBound (%g) must be positive", df.VThLowBound)
	}
	if df.VTh < df.VThLowBound {
		return snn.ConfigErrorf("DSR LIF VTh (%g) must not be below VThLowBound (%g)", df.VTh, df.VThLowBound)
	}
	return nil
}

// FloorVTh clamps the trained threshold to its lower bound.
func (df *LIF) FloorVTh() {
	v := df.VTh - df.VThLowBound
	if v < 0 {
		v = 0
	}
	df.VTh = v + df.VThLowBound
}

// Forward runs the quantized spike dynamic over the sequence, saving
// the input for Backward.  The input length must equal T.
func (df *LIF) Forward(xseq []*etensor.Float32) ([]*etensor.Float32, error) {
	if len(xseq) != df.T {
		return nil, snn.ShapeLenErrorf("DSR LIF input length %d does not equal fixed horizon T %d", len(xseq), df.T)
	}
	if df.VThTraining {
		df.FloorVTh()
	}
	beta := math32.Exp(-df.DeltaT / df.Tau)
	v := make([]float32, xseq[0].Len())
	spikes := make([]*etensor.Float32, df.T)
	fire := df.Alpha * df.VTh
	for t, x := range xseq {
		spk := etensor.NewFloat32(x.Shape.Shp, nil, nil)
		sv := spk.Values
		for i, xi := range x.Values {
			v[i] = beta*v[i] + (1-beta)*xi
			if v[i] >= fire {
				v[i] -= df.VTh
				sv[i] = df.VTh / df.DeltaT
			}
		}
		spikes[t] = spk
	}
	df.Saved = &Saved{XSeq: xseq}
	return spikes, nil
}

// WeightRate computes the exponentially weighted temporal mean of a
// sequence: weights exp(-(T-i) deltaT / tau) favor recent steps, and
// are normalized to sum to 1.
func (df *LIF) WeightRate(seq []*etensor.Float32) []float32 {
	t := len(seq)
	wts := make([]float32, t)
	var wsum float32
	for i := 1; i <= t; i++ {
		w := math32.Exp(-(df.DeltaT*float32(t) - float32(i)*df.DeltaT) / df.Tau)
		wts[i-1] = w
		wsum += w
	}
	out := make([]float32, seq[0].Len())
	for ti, x := range seq {
		for i, xi := range x.Values {
			out[i] += wts[ti] * xi
		}
	}
	for i := range out {
		out[i] /= wsum
	}
	return out
}

// Backward computes the input gradient and the threshold gradient from
// the output gradient sequence.  The returned tensor is the per-step
// input gradient, identical at every step; broadcast it over the
// horizon as is.  A failed cross-worker reduction returns the local
// threshold gradient along with a ReduceWarning.
func (df *LIF) Backward(gradOut []*etensor.Float32) (*etensor.Float32, float32, error) {
	if df.Saved == nil {
		return nil, 0, snn.ConfigErrorf("DSR LIF Backward called before Forward")
	}
	if len(gradOut) != df.T {
		return nil, 0, snn.ShapeLenErrorf("DSR LIF gradient length %d does not equal fixed horizon T %d", len(gradOut), df.T)
	}
	xseq := df.Saved.XSeq
	n := xseq[0].Len()
	rate := df.WeightRate(xseq)
	gcode := df.WeightRate(gradOut)
	for i := range gcode {
		gcode[i] *= float32(df.T)
	}
	bound := df.VTh / df.DeltaT * df.Tau

	inGrad := etensor.NewFloat32(xseq[0].Shape.Shp, nil, nil)
	var vthGrad float32
	for i := 0; i < n; i++ {
		if rate[i] > 0 && rate[i] < bound {
			inGrad.Values[i] = gcode[i] / df.Tau / float32(df.T)
		}
		if rate[i] > bound {
			vthGrad += gcode[i]
		}
	}
	vthGrad *= df.DeltaT * df.VThGradScale
	vthGrad, err := reduceVTh(df.Red, vthGrad)
	return inGrad, vthGrad, err
}
