// Package attention derives a coarse gaze direction from face mesh landmarks.
package attention

import (
	"ExpressionAPI/internal/entity"
	"math"
)

type Direction string

const (
	LookingAtScreen Direction = "looking_at_screen"
	LookingLeft     Direction = "looking_left"
	LookingRight    Direction = "looking_right"
	Unknown         Direction = "unknown"
)

// Mesh indices used by the heuristic.
const (
	NoseTipIndex    = 1
	RightCheekIndex = 234
	LeftCheekIndex  = 454
)

// SymmetryThreshold is the largest difference, in normalized x units, between
// the nose-to-cheek distances that still counts as facing the screen.
const SymmetryThreshold = 0.05

// DetermineFaceAngle compares the horizontal distance from the nose tip to
// each cheek. Roughly equal distances mean the head faces the camera; the
// nose sitting closer to the right cheek means the head is turned right.
func DetermineFaceAngle(set entity.LandmarkSet) Direction {
	nose, ok := set.Lookup(NoseTipIndex)
	if !ok {
		return Unknown
	}
	right, ok := set.Lookup(RightCheekIndex)
	if !ok {
		return Unknown
	}
	left, ok := set.Lookup(LeftCheekIndex)
	if !ok {
		return Unknown
	}

	dRight := math.Abs(nose.X - right.X)
	dLeft := math.Abs(nose.X - left.X)

	switch {
	case math.Abs(dRight-dLeft) < SymmetryThreshold:
		return LookingAtScreen
	case dRight < dLeft:
		return LookingRight
	default:
		return LookingLeft
	}
}

func IsAttentive(d Direction) bool {
	return d == LookingAtScreen
}

func NosePosition(set entity.LandmarkSet) (entity.Landmark, bool) {
	return set.Lookup(NoseTipIndex)
}
