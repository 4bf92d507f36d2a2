package geom

import (
	"math"
	"testing"
)

func TestWrapAngle(t *testing.T) {
	tests := []struct {
		name string
		in   float64
		want float64
	}{
		{"zero", 0, 0},
		{"pi stays pi", math.Pi, math.Pi},
		{"negative pi wraps to pi", -math.Pi, math.Pi},
		{"three pi", 3 * math.Pi, math.Pi},
		{"slightly over pi", math.Pi + 0.1, -math.Pi + 0.1},
		{"slightly under minus pi", -math.Pi - 0.1, math.Pi - 0.1},
		{"full turn", 2 * math.Pi, 0},
		{"small negative", -0.5, -0.5},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := WrapAngle(tt.in)
			if math.Abs(got-tt.want) > 1e-9 {
				t.Errorf("WrapAngle(%f) = %f, want %f", tt.in, got, tt.want)
			}
		})
	}
}

func TestRotationMinusWraps(t *testing.T) {
	a := NewRotationDegrees(179)
	b := NewRotationDegrees(-179)

	diff := a.Minus(b).Degrees()
	if math.Abs(diff-(-2)) > 1e-9 {
		t.Errorf("expected -2 degrees across the seam, got %f", diff)
	}
}

func TestTranslationRotateBy(t *testing.T) {
	v := Translation{X: 1, Y: 0}
	rotated := v.RotateBy(NewRotationDegrees(90))

	if math.Abs(rotated.X) > 1e-9 || math.Abs(rotated.Y-1) > 1e-9 {
		t.Errorf("expected (0,1), got (%f,%f)", rotated.X, rotated.Y)
	}
}

func TestPoseMinus(t *testing.T) {
	final := NewPose(3, 1, math.Pi/2)
	current := NewPose(1, 1, 0)

	d := final.Minus(current)
	if d.Translation.X != 2 || d.Translation.Y != 0 {
		t.Errorf("unexpected translation delta (%f,%f)", d.Translation.X, d.Translation.Y)
	}
	if math.Abs(d.Rotation.Radians()-math.Pi/2) > 1e-9 {
		t.Errorf("unexpected rotation delta %f", d.Rotation.Radians())
	}
}

func TestNaNPosePropagates(t *testing.T) {
	p := NewPose(math.NaN(), 0, 0)
	d := p.Minus(NewPose(1, 1, 0))
	if !math.IsNaN(d.Translation.X) {
		t.Error("NaN should propagate through pose arithmetic")
	}
}
