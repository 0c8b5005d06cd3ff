package entity

// Landmark is one point of the face mesh. X and Y are normalized to the
// image size, Z is depth relative to the head center.
type Landmark struct {
	Index int     `json:"index"`
	X     float64 `json:"x"`
	Y     float64 `json:"y"`
	Z     float64 `json:"z"`
}

// LandmarkSet holds the landmarks of one face in mesh topology order.
type LandmarkSet []Landmark

// Lookup finds the landmark carrying the given mesh index.
func (s LandmarkSet) Lookup(index int) (Landmark, bool) {
	if index >= 0 && index < len(s) && s[index].Index == index {
		return s[index], true
	}
	for _, lm := range s {
		if lm.Index == index {
			return lm, true
		}
	}
	return Landmark{}, false
}

type FrameLandmarks struct {
	FrameNumber int           `json:"frame_number"`
	Landmarks   []LandmarkSet `json:"landmarks"`
}
