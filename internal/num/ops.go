package num

import "gonum.org/v1/gonum/floats"

// Add returns a + b elementwise.
func Add(a, b *Buffer) *Buffer {
	check(a, b, "Add")
	out := a.Clone()
	switch a.dtype {
	case Float64:
		floats.Add(out.f, b.f)
	default:
		for i, v := range b.i {
			out.i[i] += v
		}
	}
	return out
}

// Mul returns a * b elementwise.
func Mul(a, b *Buffer) *Buffer {
	check(a, b, "Mul")
	out := a.Clone()
	switch a.dtype {
	case Float64:
		floats.Mul(out.f, b.f)
	default:
		for i, v := range b.i {
			out.i[i] *= v
		}
	}
	return out
}

// Scale returns c * a elementwise. Integer buffers truncate toward zero.
func Scale(c float64, a *Buffer) *Buffer {
	out := a.Clone()
	switch a.dtype {
	case Float64:
		floats.Scale(c, out.f)
	default:
		for i := range out.i {
			out.i[i] = int64(c * float64(out.i[i]))
		}
	}
	return out
}

// AddScaled returns a + c*b elementwise, float only.
func AddScaled(a *Buffer, c float64, b *Buffer) *Buffer {
	check(a, b, "AddScaled")
	if a.dtype != Float64 {
		panic("num: AddScaled requires float64 buffers")
	}
	out := a.Clone()
	floats.AddScaled(out.f, c, b.f)
	return out
}

// AccumInto adds src into dst in place. Gradient accumulation uses this so
// repeated contributions to the same slot never allocate.
func AccumInto(dst, src *Buffer) {
	check(dst, src, "AccumInto")
	switch dst.dtype {
	case Float64:
		floats.Add(dst.f, src.f)
	default:
		for i, v := range src.i {
			dst.i[i] += v
		}
	}
}
