// Package detector provides the hand landmark source consumed by the gesture pipeline.
package detector

import (
	"image"
	"math"
)

// Hand landmark indices following MediaPipe convention.
// See: https://developers.google.com/mediapipe/solutions/vision/hand_landmarker
const (
	Wrist        = 0
	ThumbCMC     = 1
	ThumbMCP     = 2
	ThumbIP      = 3
	ThumbTip     = 4
	IndexMCP     = 5
	IndexPIP     = 6
	IndexDIP     = 7
	IndexTip     = 8
	MiddleMCP    = 9
	MiddlePIP    = 10
	MiddleDIP    = 11
	MiddleTip    = 12
	RingMCP      = 13
	RingPIP      = 14
	RingDIP      = 15
	RingTip      = 16
	PinkyMCP     = 17
	PinkyPIP     = 18
	PinkyDIP     = 19
	PinkyTip     = 20
	NumLandmarks = 21
)

// Handedness identifies which hand the detector believes it saw.
type Handedness string

const (
	Left  Handedness = "Left"
	Right Handedness = "Right"
)

// Point3D is a landmark position. X and Y are camera pixels, Z is the
// detector's relative depth and is not used for classification.
type Point3D struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
	Z float64 `json:"z"`
}

// HandLandmarks is one detected hand in camera pixel space.
// Points are indexed by landmark id; a partial detection may hold fewer than
// NumLandmarks entries.
type HandLandmarks struct {
	Points     []Point3D       `json:"points"`
	Handedness Handedness      `json:"handedness"`
	Score      float64         `json:"score"`
	BBox       image.Rectangle `json:"bbox"`
}

// Point returns the landmark with the given id, or false when the detection
// did not include it.
func (h *HandLandmarks) Point(id int) (Point3D, bool) {
	if h == nil || id < 0 || id >= len(h.Points) {
		return Point3D{}, false
	}
	return h.Points[id], true
}

// Distance returns the 2-D pixel distance between two landmarks.
func (h *HandLandmarks) Distance(a, b int) (float64, bool) {
	pa, ok := h.Point(a)
	if !ok {
		return 0, false
	}
	pb, ok := h.Point(b)
	if !ok {
		return 0, false
	}
	return math.Hypot(pa.X-pb.X, pa.Y-pb.Y), true
}

// FromNormalized scales MediaPipe's normalized [0,1] coordinates to a frame of
// the given size and computes the bounding box.
func FromNormalized(points []Point3D, handedness Handedness, score float64, width, height int) HandLandmarks {
	n := len(points)
	if n > NumLandmarks {
		n = NumLandmarks
	}

	hand := HandLandmarks{
		Points:     make([]Point3D, n),
		Handedness: handedness,
		Score:      score,
	}
	for i := 0; i < n; i++ {
		hand.Points[i] = Point3D{
			X: points[i].X * float64(width),
			Y: points[i].Y * float64(height),
			Z: points[i].Z,
		}
	}
	hand.BBox = Bounds(hand.Points)

	return hand
}

// Bounds returns the smallest integer rectangle enclosing all points.
func Bounds(points []Point3D) image.Rectangle {
	if len(points) == 0 {
		return image.Rectangle{}
	}

	minX, minY := math.Inf(1), math.Inf(1)
	maxX, maxY := math.Inf(-1), math.Inf(-1)
	for _, p := range points {
		minX = math.Min(minX, p.X)
		minY = math.Min(minY, p.Y)
		maxX = math.Max(maxX, p.X)
		maxY = math.Max(maxY, p.Y)
	}

	return image.Rect(int(math.Floor(minX)), int(math.Floor(minY)), int(math.Ceil(maxX)), int(math.Ceil(maxY)))
}
