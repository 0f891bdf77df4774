// Copyright (c) 2024, The Emergent Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package snn

import "fmt"

// ConfigError reports invalid construction-time parameters: bad
// threshold / reset ordering, non-positive time constants, unusable
// precision.  Never retried.
type ConfigError struct {
	Msg string
}

func (e *ConfigError) Error() string {
	return "snn config error: " + e.Msg
}

// ConfigErrorf formats a ConfigError.
func ConfigErrorf(format string, args ...any) error {
	return &ConfigError{Msg: fmt.Sprintf(format, args...)}
}

// UnsupportedError reports a requested backend or step mode that is not
// in the variant's declared capability set.
type UnsupportedError struct {
	Variant string
	Step    StepModes
	Backend Backends
}

func (e *UnsupportedError) Error() string {
	return fmt.Sprintf("snn: %s does not support backend %s in step mode %s", e.Variant, e.Backend, e.Step)
}

// ShapeLenError reports a sequence length or shape mismatch: wrong
// horizon for a fixed-horizon variant, input shape differing from the
// materialized state, or mixing placeholder and materialized state
// mid-sequence.
type ShapeLenError struct {
	Msg string
}

func (e *ShapeLenError) Error() string {
	return "snn shape/length error: " + e.Msg
}

// ShapeLenErrorf formats a ShapeLenError.
func ShapeLenErrorf(format string, args ...any) error {
	return &ShapeLenError{Msg: fmt.Sprintf(format, args...)}
}
