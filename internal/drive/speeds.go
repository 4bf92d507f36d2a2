package drive

import "github.com/omnidrive/holotrack/internal/geom"

// ChassisSpeeds is a body-frame velocity command: forward, leftward and
// counterclockwise. Computed and consumed within a single control tick.
type ChassisSpeeds struct {
	VX    float64 // m/s
	VY    float64 // m/s
	Omega float64 // rad/s
}

// FromFieldRelative rotates a field-frame velocity command into the body
// frame of a robot at the given heading.
func FromFieldRelative(vx, vy, omega float64, heading geom.Rotation) ChassisSpeeds {
	v := geom.Translation{X: vx, Y: vy}.RotateBy(geom.NewRotation(-heading.Radians()))
	return ChassisSpeeds{VX: v.X, VY: v.Y, Omega: omega}
}
