package geom

import "math"

// Translation is a 2D position in meters.
type Translation struct {
	X float64
	Y float64
}

func (t Translation) Plus(o Translation) Translation  { return Translation{t.X + o.X, t.Y + o.Y} }
func (t Translation) Minus(o Translation) Translation { return Translation{t.X - o.X, t.Y - o.Y} }

func (t Translation) Norm() float64 {
	return math.Hypot(t.X, t.Y)
}

// RotateBy rotates the vector by the given rotation (counterclockwise).
func (t Translation) RotateBy(r Rotation) Translation {
	c, s := math.Cos(r.Radians()), math.Sin(r.Radians())
	return Translation{
		X: t.X*c - t.Y*s,
		Y: t.X*s + t.Y*c,
	}
}

// Rotation is a heading. The zero value points along +X.
type Rotation struct {
	rad float64
}

func NewRotation(radians float64) Rotation { return Rotation{rad: radians} }

func NewRotationDegrees(degrees float64) Rotation {
	return Rotation{rad: degrees * math.Pi / 180.0}
}

func (r Rotation) Radians() float64 { return r.rad }
func (r Rotation) Degrees() float64 { return r.rad * 180.0 / math.Pi }

func (r Rotation) Plus(o Rotation) Rotation  { return Rotation{rad: r.rad + o.rad} }
func (r Rotation) Minus(o Rotation) Rotation { return Rotation{rad: WrapAngle(r.rad - o.rad)} }

// WrapAngle normalizes an angle to (-pi, pi].
func WrapAngle(rad float64) float64 {
	wrapped := math.Mod(rad, 2*math.Pi)
	if wrapped > math.Pi {
		wrapped -= 2 * math.Pi
	} else if wrapped <= -math.Pi {
		wrapped += 2 * math.Pi
	}
	return wrapped
}

// Pose is a 2D position plus heading.
type Pose struct {
	Translation Translation
	Rotation    Rotation
}

func NewPose(x, y, headingRad float64) Pose {
	return Pose{
		Translation: Translation{X: x, Y: y},
		Rotation:    NewRotation(headingRad),
	}
}

func (p Pose) X() float64       { return p.Translation.X }
func (p Pose) Y() float64       { return p.Translation.Y }
func (p Pose) Heading() float64 { return p.Rotation.Radians() }

// Transform is a componentwise pose delta with a wrapped rotation.
type Transform struct {
	Translation Translation
	Rotation    Rotation
}

// Minus returns the componentwise delta p - o. The rotation component is
// wrapped so a delta across the +/-pi seam stays small.
func (p Pose) Minus(o Pose) Transform {
	return Transform{
		Translation: p.Translation.Minus(o.Translation),
		Rotation:    p.Rotation.Minus(o.Rotation),
	}
}
