package session

import "golang.org/x/exp/constraints"

const (
	PanStep  = 8
	ZoomStep = 0.05
	MinZoom  = 0.05
	MaxZoom  = 64
)

// View is the pan and zoom applied when presenting the final image. Pan is
// in screen pixels and is not scaled by zoom.
type View struct {
	PanX, PanY float32
	Zoom       float32
}

func NewView() View {
	return View{Zoom: 1}
}

func (v *View) Pan(dx, dy float32) {
	v.PanX += dx
	v.PanY += dy
}

// ZoomBy changes zoom by d, keeping it within [MinZoom, MaxZoom].
func (v *View) ZoomBy(d float32) {
	v.Zoom = clamp(v.Zoom+d, MinZoom, MaxZoom)
}

func (v *View) Reset() {
	*v = NewView()
}

func clamp[T constraints.Ordered](x, lo, hi T) T {
	if x < lo {
		return lo
	}
	if x > hi {
		return hi
	}
	return x
}
