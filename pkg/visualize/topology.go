package visualize

// Closed and open index paths tracing the canonical face mesh contours.
// Consecutive indices in a path are connected; closed paths also join the
// last index back to the first.
var (
	faceOval = []int{
		10, 338, 297, 332, 284, 251, 389, 356, 454, 323, 361, 288, 397, 365, 379, 378, 400, 377,
		152, 148, 176, 149, 150, 136, 172, 58, 132, 93, 234, 127, 162, 21, 54, 103, 67, 109,
	}

	lipsOuterLower = []int{61, 146, 91, 181, 84, 17, 314, 405, 321, 375, 291}
	lipsOuterUpper = []int{61, 185, 40, 39, 37, 0, 267, 269, 270, 409, 291}
	lipsInnerLower = []int{78, 95, 88, 178, 87, 14, 317, 402, 318, 324, 308}
	lipsInnerUpper = []int{78, 191, 80, 81, 82, 13, 312, 311, 310, 415, 308}

	leftEyeLower  = []int{263, 249, 390, 373, 374, 380, 381, 382, 362}
	leftEyeUpper  = []int{263, 466, 388, 387, 386, 385, 384, 398, 362}
	rightEyeLower = []int{33, 7, 163, 144, 145, 153, 154, 155, 133}
	rightEyeUpper = []int{33, 246, 161, 160, 159, 158, 157, 173, 133}

	leftEyebrowLower  = []int{276, 283, 282, 295, 285}
	leftEyebrowUpper  = []int{300, 293, 334, 296, 336}
	rightEyebrowLower = []int{46, 53, 52, 65, 55}
	rightEyebrowUpper = []int{70, 63, 105, 66, 107}

	// Only present when the model runs with refined landmarks (478 points).
	leftIris  = []int{474, 475, 476, 477}
	rightIris = []int{469, 470, 471, 472}
)

type contour struct {
	path   []int
	closed bool
}

var contours = []contour{
	{faceOval, true},
	{lipsOuterLower, false},
	{lipsOuterUpper, false},
	{lipsInnerLower, false},
	{lipsInnerUpper, false},
	{leftEyeLower, false},
	{leftEyeUpper, false},
	{rightEyeLower, false},
	{rightEyeUpper, false},
	{leftEyebrowLower, false},
	{leftEyebrowUpper, false},
	{rightEyebrowLower, false},
	{rightEyebrowUpper, false},
	{leftIris, true},
	{rightIris, true},
}

// ContourEdges lists every index pair joined by the contour style.
func ContourEdges() [][2]int {
	var edges [][2]int
	for _, c := range contours {
		for i := 0; i+1 < len(c.path); i++ {
			edges = append(edges, [2]int{c.path[i], c.path[i+1]})
		}
		if c.closed && len(c.path) > 2 {
			edges = append(edges, [2]int{c.path[len(c.path)-1], c.path[0]})
		}
	}
	return edges
}
