// Copyright (c) 2024, The Emergent Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

/*
Package surrogate provides surrogate gradient functions for the
non-differentiable spike step function used in spiking neuron models.

The forward pass of every function is the Heaviside step on the distance
to threshold: spike = 1 if v - threshold >= 0, else 0.  The backward pass
substitutes a smooth derivative (the surrogate gradient) for the true
derivative of the step, which is zero almost everywhere and therefore
useless for gradient-based training.

Each function carries a stable Funcs code so that compiled kernel
signatures can identify which backward rule a kernel was generated for.
*/
package surrogate

import (
	"fmt"

	"github.com/chewxy/math32"
	"github.com/goki/ki/kit"
)

// Funcs are the different surrogate gradient functions.
// The enum value is the stable code used in kernel signatures.
type Funcs int32

//go:generate stringer -type=Funcs

var KiT_Funcs = kit.Enums.AddEnum(FuncsN, kit.NotBitFlag, nil)

func (ev Funcs) MarshalJSON() ([]byte, error)  { return kit.EnumMarshalJSON(ev) }
func (ev *Funcs) UnmarshalJSON(b []byte) error { return kit.EnumUnmarshalJSON(ev, b) }

const (
	// Sigmoid uses the derivative of a sigmoid with slope Alpha:
	// g(x) = Alpha * s(Alpha x) * (1 - s(Alpha x))
	Sigmoid Funcs = iota

	// ATan uses the derivative of a scaled arctangent:
	// g(x) = Alpha / (2 * (1 + (pi/2 * Alpha * x)^2))
	ATan

	// Rect is a rectangular (boxcar) window: g(x) = 1 for |x| < Width, else 0.
	Rect

	// PiecewiseQuad is the derivative of a piecewise quadratic relaxation:
	// g(x) = Alpha - Alpha^2 |x| for |x| <= 1/Alpha, else 0.
	PiecewiseQuad

	FuncsN
)

// Params specifies a surrogate gradient function: which function to use
// and its slope / width hyperparameter.  The zero value is not usable --
// call Defaults.
type Params struct {
	Func  Funcs   `desc:"which surrogate gradient function to use for the backward pass"`
	Alpha float32 `def:"4" desc:"slope parameter controlling how sharply the surrogate derivative is peaked around the threshold -- higher is closer to the true step function but harder to train through"`
	Width float32 `def:"0.5" viewif:"Func=Rect" desc:"half-width of the rectangular window for the Rect function"`
}

func (sp *Params) Defaults() {
	sp.Func = Sigmoid
	sp.Alpha = 4
	sp.Width = 0.5
}

func (sp *Params) Update() {
}

func (sp *Params) Validate() error {
	if sp.Alpha <= 0 {
		return fmt.Errorf("surrogate.Params: Alpha must be > 0, got %g", sp.Alpha)
	}
	if sp.Func == Rect && sp.Width <= 0 {
		return fmt.Errorf("surrogate.Params: Width must be > 0 for Rect, got %g", sp.Width)
	}
	return nil
}

// Forward computes the spike output for distance-to-threshold x.
// This is the hard Heaviside step for every function: the smoothing
// lives entirely in the backward pass.
func (sp *Params) Forward(x float32) float32 {
	if x >= 0 {
		return 1
	}
	return 0
}

// Grad computes the surrogate derivative at distance-to-threshold x.
func (sp *Params) Grad(x float32) float32 {
	switch sp.Func {
	case Sigmoid:
		sg := sigmoid32(sp.Alpha * x)
		return sp.Alpha * sg * (1 - sg)
	case ATan:
		ax := math32.Pi / 2 * sp.Alpha * x
		return sp.Alpha / (2 * (1 + ax*ax))
	case Rect:
		if math32.Abs(x) < sp.Width {
			return 1
		}
		return 0
	case PiecewiseQuad:
		if math32.Abs(x) <= 1/sp.Alpha {
			return sp.Alpha - sp.Alpha*sp.Alpha*math32.Abs(x)
		}
		return 0
	}
	return 0
}

// Backward computes the input gradient grad_x from the output gradient
// grad_y, at distance-to-threshold x: grad_x = grad_y * Grad(x).
func (sp *Params) Backward(x, gradY float32) float32 {
	return gradY * sp.Grad(x)
}

func sigmoid32(x float32) float32 {
	return 1 / (1 + math32.Exp(-x))
}
