package graphics

// Mat4 is a 4x4 matrix in column-major order, as uploaded to GL.
type Mat4 [16]float32

// At returns the element at row r, column c.
func (m *Mat4) At(r, c int) float32 { return m[c*4+r] }

func (m *Mat4) set(r, c int, v float32) { m[c*4+r] = v }

// Apply transforms the point (x, y, z, 1) and returns x and y.
func (m *Mat4) Apply(x, y, z float32) (float32, float32) {
	return m.At(0, 0)*x + m.At(0, 1)*y + m.At(0, 2)*z + m.At(0, 3),
		m.At(1, 0)*x + m.At(1, 1)*y + m.At(1, 2)*z + m.At(1, 3)
}

// Transform scales x and y, then translates.
func Transform(sx, sy, tx, ty, tz float32) Mat4 {
	var m Mat4
	m.set(0, 0, sx)
	m.set(1, 1, sy)
	m.set(2, 2, 1)
	m.set(3, 3, 1)
	m.set(0, 3, tx)
	m.set(1, 3, ty)
	m.set(2, 3, tz)
	return m
}

// Layer depths of the orthographic volume.
const (
	OrthoNear = -25.0
	OrthoFar  = 25.0
)

// Ortho maps left..right and bottom..top onto clip space.
func Ortho(left, right, bottom, top float32) Mat4 {
	invZ := 1 / float32(OrthoFar-OrthoNear)
	invY := 1 / (top - bottom)
	invX := 1 / (right - left)

	var m Mat4
	m.set(0, 0, 2*invX)
	m.set(0, 3, -(right+left)*invX)
	m.set(1, 1, 2*invY)
	m.set(1, 3, -(top+bottom)*invY)
	m.set(2, 2, -2*invZ)
	m.set(2, 3, -(OrthoFar+OrthoNear)*invZ)
	m.set(3, 3, 1)
	return m
}

// ScreenView is the view transform shared by screen-space passes: a one
// pixel nudge on both axes at layer 1.
func ScreenView() Mat4 {
	return Transform(1, 1, 1, 1, 1)
}
