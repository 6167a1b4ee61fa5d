// Package gesture labels hand poses with the recognizer vocabulary by
// matching normalized landmarks against templates.
package gesture

import (
	"math"
	"sort"
	"sync"

	"github.com/ayusman/mudra/internal/detector"
	"github.com/ayusman/mudra/internal/frame"
)

// DefaultTolerance is the largest summed landmark distance that still
// counts as a match.
const DefaultTolerance = 2.0

// Template is a reference pose for one label.
type Template struct {
	Label     frame.Label        // Label reported on a match
	Landmarks []detector.Point3D // Normalized right-hand landmarks
	Tolerance float64            // Maximum distance for a match
}

// Match represents a matching result between input and a template.
type Match struct {
	Template *Template // The matched template
	Score    float64   // Match score (0-1, higher is better)
	Distance float64   // Summed point distance between input and template
}

// Classifier assigns labels to hands. A label reported by the detector
// itself takes precedence over template matching.
type Classifier struct {
	mu        sync.RWMutex
	templates []*Template
}

// NewClassifier creates a classifier with no templates.
func NewClassifier() *Classifier {
	return &Classifier{}
}

// DefaultClassifier returns a classifier with templates for the built-in
// poses.
func DefaultClassifier() *Classifier {
	c := NewClassifier()
	presets := []struct {
		label frame.Label
		hand  detector.HandLandmarks
	}{
		{frame.LabelOpenPalm, detector.OpenPalmLandmarks()},
		{frame.LabelClosedFist, detector.ClosedFistLandmarks()},
		{frame.LabelPointingUp, detector.PointingUpLandmarks()},
		{frame.LabelVictory, detector.VictoryLandmarks()},
		{frame.LabelThumbUp, detector.ThumbsUpLandmarks()},
		{frame.LabelThumbDown, detector.ThumbsDownLandmarks()},
	}
	for _, p := range presets {
		t, err := Calibrate(p.label, []detector.HandLandmarks{p.hand}, DefaultTolerance)
		if err != nil {
			continue
		}
		c.AddTemplate(t)
	}
	return c
}

// AddTemplate adds a template, replacing any existing one for its label.
func (c *Classifier) AddTemplate(t *Template) {
	if t == nil {
		return
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	for i, existing := range c.templates {
		if existing.Label == t.Label {
			c.templates[i] = t
			return
		}
	}
	c.templates = append(c.templates, t)
}

// RemoveTemplate removes the template for label.
func (c *Classifier) RemoveTemplate(label frame.Label) {
	c.mu.Lock()
	defer c.mu.Unlock()
	for i, t := range c.templates {
		if t.Label == label {
			c.templates = append(c.templates[:i], c.templates[i+1:]...)
			return
		}
	}
}

// Labels returns the labels with a template.
func (c *Classifier) Labels() []frame.Label {
	c.mu.RLock()
	defer c.mu.RUnlock()
	out := make([]frame.Label, len(c.templates))
	for i, t := range c.templates {
		out[i] = t.Label
	}
	return out
}

// Match finds matching templates for the given hand landmarks.
// Returns matches sorted by score in descending order (best matches first).
func (c *Classifier) Match(hand *detector.HandLandmarks) []Match {
	if hand == nil {
		return nil
	}

	input := *hand
	if input.Handedness == "Left" {
		input = detector.Mirror(input)
	}
	normalized := input.Normalize()

	c.mu.RLock()
	defer c.mu.RUnlock()

	var matches []Match
	for _, t := range c.templates {
		d := euclideanDistance(normalized.Points[:], t.Landmarks)
		if d <= t.Tolerance {
			matches = append(matches, Match{
				Template: t,
				Score:    1.0 / (1.0 + d),
				Distance: d,
			})
		}
	}

	sort.Slice(matches, func(i, j int) bool {
		return matches[i].Score > matches[j].Score
	})
	return matches
}

// Classify returns the label and confidence for hand. Without a match it
// returns LabelNone with zero confidence.
func (c *Classifier) Classify(hand *detector.HandLandmarks) (frame.Label, float64) {
	if hand == nil {
		return frame.LabelNone, 0
	}
	if hand.Gesture.Valid() {
		return hand.Gesture, hand.GestureScore
	}

	matches := c.Match(hand)
	if len(matches) == 0 {
		return frame.LabelNone, 0
	}
	return matches[0].Template.Label, matches[0].Score
}

// euclideanDistance sums the distances between corresponding points.
func euclideanDistance(a, b []detector.Point3D) float64 {
	if len(a) == 0 || len(b) == 0 {
		return math.Inf(1)
	}

	n := min(len(a), len(b))
	var total float64
	for i := 0; i < n; i++ {
		dx := a[i].X - b[i].X
		dy := a[i].Y - b[i].Y
		dz := a[i].Z - b[i].Z
		total += math.Sqrt(dx*dx + dy*dy + dz*dz)
	}
	return total
}
