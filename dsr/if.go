// Copyright (c) 2024, The Emergent Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package dsr

import (
	"github.com/emer/etable/etensor"
	"github.com/emer/spikenet/snn"
)

// IF is the DSR integrate-and-fire neuron.  Forward integrates the
// input and emits quantized spikes carrying the threshold value:
//
//	v <- v + x
//	s = H(v - alpha * vth) * vth
//	v <- v - s
//
// Backward treats the whole sequence as a rate code: the time-averaged
// output gradient flows identically to every step's input, but only
// where the input rate sits strictly inside (0, vth); the summed code
// gradient flows to the learnable threshold where the rate exceeds it.
// Multi-step only.
type IF struct {
	T            int     `def:"20" desc:"fixed sequence horizon"`
	VTh          float32 `def:"6" desc:"learnable firing threshold, also the spike amplitude"`
	Alpha        float32 `def:"0.5" desc:"firing point as a fraction of the threshold, in (0, 1]"`
	VThTraining  bool    `def:"true" desc:"whether the threshold is being trained; floors it each forward"`
	VThGradScale float32 `def:"1" desc:"scaling applied to the threshold gradient"`
	VThLowBound  float32 `def:"0.01" desc:"smallest value the threshold can be floored to"`
	Red          Reducer `view:"-" desc:"cross-worker summation of the threshold gradient; nil for single process"`

	Saved *Saved `view:"-" desc:"input saved by Forward for the backward pass"`
}

// Saved is the forward-pass context the backward pass needs.
type Saved struct {
	XSeq []*etensor.Float32 `desc:"the input sequence"`
}

// NewIF returns a DSR IF neuron over the given horizon.
func NewIF(t int) *IF {
	df := &IF{T: t}
	df.Defaults()
	return df
}

func (df *IF) Defaults() {
	if df.T == 0 {
		df.T = 20
	}
	df.VTh = 6
	df.Alpha = 0.5
	df.VThTraining = true
	df.VThGradScale = 1
	df.VThLowBound = 0.01
}

func (df *IF) Validate() error {
	if df.T <= 0 {
		return snn.ConfigErrorf("DSR IF horizon T (%d) must be positive", df.T)
	}
	if df.Alpha <= 0 || df.Alpha > 1 {
		return snn.ConfigErrorf("DSR IF Alpha (%g) must be in (0, 1]", df.Alpha)
	}
	if df.VThLowBound <= 0 {
		return snn.ConfigErrorf("DSR IF VThLowBound (%g) must be positive", df.VThLowBound)
	}
	if df.VTh < df.VThLowBound {
		return snn.ConfigErrorf("DSR IF VTh (%g) must not be below VThLowBound (%g)", df.VTh, df.VThLowBound)
	}
	return nil
}

// FloorVTh clamps the trained threshold to its lower bound, matching
// relu(vth - low) + low.
func (df *IF) FloorVTh() {
	v := df.VTh - df.VThLowBound
	if v < 0 {
		v = 0
	}
	df.VTh = v + df.VThLowBound
}

// Forward runs the quantized spike dynamic over the sequence, saving
// the input for Backward.  The input length must equal T.
func (df *IF) Forward(xseq []*etensor.Float32) ([]*etensor.Float32, error) {
	if len(xseq) != df.T {
		return nil, snn.ShapeLenErrorf("DSR IF input length %d does not equal fixed horizon T %d", len(xseq), df.T)
	}
	if df.VThTraining {
		df.FloorVTh()
	}
	v := make([]float32, xseq[0].Len())
	spikes := make([]*etensor.Float32, df.T)
	fire := df.Alpha * df.VTh
	for t, x := range xseq {
		spk := etensor.NewFloat32(x.Shape.Shp, nil, nil)
		sv := spk.Values
		for i, xi := range x.Values {
			v[i] += xi
			if v[i] >= fire {
				sv[i] = df.VTh
				v[i] -= df.VTh
			}
		}
		spikes[t] = spk
	}
	df.Saved = &Saved{XSeq: xseq}
	return spikes, nil
}

// Backward computes the input gradient and the threshold gradient from
// the output gradient sequence.  The returned tensor is the per-step
// input gradient, identical at every step; broadcast it over the
// horizon as is.  A failed cross-worker reduction returns the local
// threshold gradient along with a ReduceWarning.
func (df *IF) Backward(gradOut []*etensor.Float32) (*etensor.Float32, float32, error) {
	if df.Saved == nil {
		return nil, 0, snn.ConfigErrorf("DSR IF Backward called before Forward")
	}
	if len(gradOut) != df.T {
		return nil, 0, snn.ShapeLenErrorf("DSR IF gradient length %d does not equal fixed horizon T %d", len(gradOut), df.T)
	}
	xseq := df.Saved.XSeq
	n := xseq[0].Len()
	rate := meanOver(xseq, 1)
	gcode := meanOver(gradOut, float32(df.T))

	inGrad := etensor.NewFloat32(xseq[0].Shape.Shp, nil, nil)
	var vthGrad float32
	for i := 0; i < n; i++ {
		if rate[i] > 0 && rate[i] < df.VTh {
			inGrad.Values[i] = gcode[i] / float32(df.T)
		}
		if rate[i] > df.VTh {
			vthGrad += gcode[i]
		}
	}
	vthGrad *= df.VThGradScale
	vthGrad, err := reduceVTh(df.Red, vthGrad)
	return inGrad, vthGrad, err
}

// meanOver averages a sequence elementwise over time, multiplied by
// scale (1 gives the plain mean, T gives the rate coding of gradients).
func meanOver(seq []*etensor.Float32, scale float32) []float32 {
	n := seq[0].Len()
	out := make([]float32, n)
	for _, x := range seq {
		for i, xi := range x.Values {
			out[i] += xi
		}
	}
	f := scale / float32(len(seq))
	for i := range out {
		out[i] *= f
	}
	return out
}
