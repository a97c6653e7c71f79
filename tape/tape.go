// Copyright 2025 Weft ML Framework. All rights reserved.
// Use of this source code is governed by an Apache 2.0
// license that can be found in the LICENSE file.

package tape

import (
	"github.com/weft-ml/weft/internal/num"
	"github.com/weft-ml/weft/internal/tape"
)

// Tape is one AD graph instance.
type Tape = tape.Tape

// Handle identifies a tape node; zero means "no node".
type Handle = tape.Handle

// Callback is the propagation logic carried by a custom edge.
type Callback = tape.Callback

// New creates an empty tape whose gradients have the given element type.
func New(dtype num.DType) *Tape {
	return tape.New(dtype)
}
