// Copyright 2025 Weft ML Framework. All rights reserved.
// Use of this source code is governed by an Apache 2.0
// license that can be found in the LICENSE file.

package num

import "github.com/weft-ml/weft/internal/num"

// DType identifies the element type of a Buffer.
type DType = num.DType

// Supported element types.
const (
	Float64 = num.Float64
	Int64   = num.Int64
)

// Buffer is a flat, dtype-tagged payload.
type Buffer = num.Buffer

// FromFloat64s wraps a float64 slice in a Buffer. The slice is not copied.
func FromFloat64s(data []float64) *Buffer {
	return num.FromFloat64s(data)
}

// FromInt64s wraps an int64 slice in a Buffer. The slice is not copied.
func FromInt64s(data []int64) *Buffer {
	return num.FromInt64s(data)
}

// Scalar creates a single-element float64 buffer.
func Scalar(v float64) *Buffer {
	return num.Scalar(v)
}

// Zeros creates a zero-filled buffer of n elements.
func Zeros(dtype DType, n int) (*Buffer, error) {
	return num.Zeros(dtype, n)
}

// Add returns a + b elementwise.
func Add(a, b *Buffer) *Buffer {
	return num.Add(a, b)
}

// Mul returns a * b elementwise.
func Mul(a, b *Buffer) *Buffer {
	return num.Mul(a, b)
}

// Scale returns c * a elementwise.
func Scale(c float64, a *Buffer) *Buffer {
	return num.Scale(c, a)
}

// AddScaled returns a + c*b elementwise, float only.
func AddScaled(a *Buffer, c float64, b *Buffer) *Buffer {
	return num.AddScaled(a, c, b)
}

// AccumInto adds src into dst in place.
func AccumInto(dst, src *Buffer) {
	num.AccumInto(dst, src)
}
