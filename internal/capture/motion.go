package capture

import (
	"image"
	"sync"

	"gocv.io/x/gocv"
)

// Frame differencing parameters.
const (
	blurSize      = 21
	diffThreshold = 25
)

// MotionGate decides whether a frame is worth sending to the hand
// detector. While no hand is tracked, detection only runs when the scene
// changed recently; once a hand is tracked every frame passes.
type MotionGate struct {
	mu sync.Mutex

	// threshold is the percentage of pixels that must change.
	threshold float64
	// holdMs keeps the gate open after the last motion.
	holdMs int64

	prev       gocv.Mat
	hasPrev    bool
	lastMotion int64
	seenMotion bool
}

// NewMotionGate creates a gate. threshold is a percentage of changed
// pixels, holdMs how long the gate stays open after motion stops.
func NewMotionGate(threshold float64, holdMs int64) *MotionGate {
	return &MotionGate{
		threshold: threshold,
		holdMs:    holdMs,
		prev:      gocv.NewMat(),
	}
}

// Open reports whether f should go to the detector.
func (g *MotionGate) Open(f *Frame, tracking bool) bool {
	g.mu.Lock()
	defer g.mu.Unlock()

	if g.change(&f.Mat) > g.threshold {
		g.lastMotion = f.Timestamp
		g.seenMotion = true
	}
	if tracking {
		return true
	}
	return g.seenMotion && f.Timestamp-g.lastMotion <= g.holdMs
}

// change returns the percentage of pixels that differ from the previous
// frame after grayscale conversion and blurring.
func (g *MotionGate) change(img *gocv.Mat) float64 {
	if img == nil || img.Empty() {
		return 0
	}

	gray := gocv.NewMat()
	defer gray.Close()
	if img.Channels() > 1 {
		gocv.CvtColor(*img, &gray, gocv.ColorBGRToGray)
	} else {
		img.CopyTo(&gray)
	}
	gocv.GaussianBlur(gray, &gray, image.Point{X: blurSize, Y: blurSize}, 0, 0, gocv.BorderDefault)

	if !g.hasPrev {
		gray.CopyTo(&g.prev)
		g.hasPrev = true
		return 0
	}

	diff := gocv.NewMat()
	defer diff.Close()
	gocv.AbsDiff(gray, g.prev, &diff)
	gocv.Threshold(diff, &diff, diffThreshold, 255, gocv.ThresholdBinary)
	gray.CopyTo(&g.prev)

	total := diff.Rows() * diff.Cols()
	if total == 0 {
		return 0
	}
	return float64(gocv.CountNonZero(diff)) / float64(total) * 100
}

// Close releases the reference frame.
func (g *MotionGate) Close() error {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.hasPrev = false
	return g.prev.Close()
}
