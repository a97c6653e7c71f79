// Package num implements the primal value kit the AD core computes with:
// flat, dtype-tagged buffers with elementwise arithmetic.
//
// Buffers are deliberately simple (no shapes, no views): the graph engine
// only ever needs "a payload it can clone, accumulate into, and compare".
// Anything richer lives in the array library sitting on top of this core.
package num

import "fmt"

// DType identifies the element type of a Buffer.
type DType int

// Supported element types.
const (
	Float64 DType = iota
	Int64
)

// Size returns the element size in bytes.
func (dt DType) Size() int {
	switch dt {
	case Float64, Int64:
		return 8
	default:
		return 0
	}
}

// String returns a human-readable type name.
func (dt DType) String() string {
	switch dt {
	case Float64:
		return "float64"
	case Int64:
		return "int64"
	default:
		return "unknown"
	}
}

// Differentiable reports whether values of this type can carry gradients.
// Only floating-point payloads participate in the AD graph.
func (dt DType) Differentiable() bool {
	return dt == Float64
}

// Buffer is a flat, dtype-tagged payload. Exactly one of the typed slices is
// non-nil, selected by dtype.
type Buffer struct {
	dtype DType
	f     []float64
	i     []int64
}

// FromFloat64s wraps a float64 slice in a Buffer. The slice is not copied.
func FromFloat64s(data []float64) *Buffer {
	return &Buffer{dtype: Float64, f: data}
}

// FromInt64s wraps an int64 slice in a Buffer. The slice is not copied.
func FromInt64s(data []int64) *Buffer {
	return &Buffer{dtype: Int64, i: data}
}

// Scalar creates a single-element float64 buffer.
func Scalar(v float64) *Buffer {
	return FromFloat64s([]float64{v})
}

// Zeros creates a zero-filled buffer of n elements.
func Zeros(dtype DType, n int) (*Buffer, error) {
	if n < 0 {
		return nil, fmt.Errorf("num: negative length %d", n)
	}
	switch dtype {
	case Float64:
		return FromFloat64s(make([]float64, n)), nil
	case Int64:
		return FromInt64s(make([]int64, n)), nil
	default:
		return nil, fmt.Errorf("num: unsupported dtype %v", dtype)
	}
}

// DType returns the buffer's element type.
func (b *Buffer) DType() DType {
	return b.dtype
}

// Len returns the number of elements.
func (b *Buffer) Len() int {
	if b.dtype == Float64 {
		return len(b.f)
	}
	return len(b.i)
}

// Float64s returns the float64 payload. Panics on dtype mismatch.
func (b *Buffer) Float64s() []float64 {
	if b.dtype != Float64 {
		panic("num: Float64s called on " + b.dtype.String() + " buffer")
	}
	return b.f
}

// Int64s returns the int64 payload. Panics on dtype mismatch.
func (b *Buffer) Int64s() []int64 {
	if b.dtype != Int64 {
		panic("num: Int64s called on " + b.dtype.String() + " buffer")
	}
	return b.i
}

// Clone returns a deep copy of the buffer.
func (b *Buffer) Clone() *Buffer {
	switch b.dtype {
	case Float64:
		data := make([]float64, len(b.f))
		copy(data, b.f)
		return FromFloat64s(data)
	default:
		data := make([]int64, len(b.i))
		copy(data, b.i)
		return FromInt64s(data)
	}
}

// Equal reports whether two buffers have the same dtype, length, and payload.
func (b *Buffer) Equal(o *Buffer) bool {
	if b.dtype != o.dtype || b.Len() != o.Len() {
		return false
	}
	switch b.dtype {
	case Float64:
		for i, v := range b.f {
			if o.f[i] != v {
				return false
			}
		}
	default:
		for i, v := range b.i {
			if o.i[i] != v {
				return false
			}
		}
	}
	return true
}

// String formats the buffer for diagnostics.
func (b *Buffer) String() string {
	if b.dtype == Float64 {
		return fmt.Sprintf("Buffer(%v)", b.f)
	}
	return fmt.Sprintf("Buffer(%v)", b.i)
}

func check(a, b *Buffer, op string) {
	if a.dtype != b.dtype {
		panic(fmt.Sprintf("num: %s dtype mismatch: %v vs %v", op, a.dtype, b.dtype))
	}
	if a.Len() != b.Len() {
		panic(fmt.Sprintf("num: %s length mismatch: %d vs %d", op, a.Len(), b.Len()))
	}
}
