package app

import (
	"errors"
	"time"

	"github.com/ayusman/mudra/internal/capture"
	"github.com/ayusman/mudra/internal/frame"
	"github.com/ayusman/mudra/internal/fsm"
)

// runPipeline reads frames at the camera rate while active and at IdleFPS
// while the motion gate stays closed.
func (a *App) runPipeline(stopCh <-chan struct{}, done chan<- struct{}) {
	defer close(done)

	activeInterval := time.Second / time.Duration(max(a.camera.FPS(), 1))
	idleInterval := time.Second / IdleFPS
	active := true

	ticker := time.NewTicker(activeInterval)
	defer ticker.Stop()

	for {
		select {
		case <-stopCh:
			return
		case <-ticker.C:
			if !a.Enabled() {
				continue
			}

			f, err := a.camera.Read()
			if err != nil {
				if !errors.Is(err, capture.ErrNoFrame) {
					a.logger.Warn("reading frame", "error", err)
				}
				continue
			}
			_, detected, err := a.Step(f)
			f.Close()
			if err != nil {
				a.logger.Warn("processing frame", "error", err)
				continue
			}

			if detected != active {
				active = detected
				if active {
					ticker.Reset(activeInterval)
				} else {
					ticker.Reset(idleInterval)
				}
				a.logger.Debug("capture rate changed", "active", active)
			}
		}
	}
}

// Step runs one camera frame through detection, classification and the
// per-hand pipelines. It reports the actions taken and whether detection
// ran at all; while the motion gate is closed nothing is detected.
func (a *App) Step(f *capture.Frame) ([]fsm.Action, bool, error) {
	a.mu.RLock()
	tracking := a.tracking
	det := a.detector
	mirror := a.config.Mirror
	a.mu.RUnlock()

	if a.motion != nil && !a.motion.Open(f, tracking) {
		return nil, false, nil
	}
	if det == nil {
		return nil, false, nil
	}

	hands, err := det.Detect(&f.Mat)
	if err != nil {
		return nil, true, err
	}

	seen := make(map[string]bool, len(hands))
	actions := make([]fsm.Action, 0, len(hands))
	for i := range hands {
		hand := &hands[i]
		id := hand.HandID()
		if seen[id] {
			continue
		}
		seen[id] = true

		label, conf := a.classifier.Classify(hand)
		pos := hand.Pointer()
		if mirror {
			pos.X = 1 - pos.X
		}
		angle := hand.PalmAngle()

		action, err := a.router.Process(frame.SensorFrame{
			Timestamp:  f.Timestamp,
			HandID:     id,
			TrackingOK: true,
			PalmFacing: angle < 90,
			PalmAngle:  frame.Angle(angle),
			Label:      label,
			Confidence: conf,
			Position:   &pos,
		})
		if err != nil {
			return actions, true, err
		}
		actions = append(actions, action)
	}
	a.router.Lost(f.Timestamp, seen)

	a.mu.Lock()
	a.tracking = len(seen) > 0
	a.mu.Unlock()

	return actions, true, nil
}
