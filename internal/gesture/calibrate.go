package gesture

import (
	"fmt"

	"github.com/ayusman/mudra/internal/detector"
	"github.com/ayusman/mudra/internal/frame"
)

// Calibrate averages recorded hands into a template for label. Left hands
// are mirrored first so one template serves both.
func Calibrate(label frame.Label, samples []detector.HandLandmarks, tolerance float64) (*Template, error) {
	if !label.Valid() || label == frame.LabelNone {
		return nil, fmt.Errorf("calibrate: invalid label %q", label)
	}
	if len(samples) == 0 {
		return nil, fmt.Errorf("calibrate %s: no samples provided", label)
	}
	if !(tolerance > 0) {
		return nil, fmt.Errorf("calibrate %s: tolerance must be > 0", label)
	}

	var sum [detector.NumLandmarks]detector.Point3D
	for _, s := range samples {
		if s.Handedness == "Left" {
			s = detector.Mirror(s)
		}
		n := s.Normalize()
		for i, p := range n.Points {
			sum[i].X += p.X
			sum[i].Y += p.Y
			sum[i].Z += p.Z
		}
	}

	count := float64(len(samples))
	averaged := make([]detector.Point3D, detector.NumLandmarks)
	for i, p := range sum {
		averaged[i] = detector.Point3D{X: p.X / count, Y: p.Y / count, Z: p.Z / count}
	}

	return &Template{Label: label, Landmarks: averaged, Tolerance: tolerance}, nil
}
