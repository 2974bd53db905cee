package detector

import (
	"sync"

	"gocv.io/x/gocv"
)

// MockDetector is a test implementation of the Detector interface.
// It allows tests to control the detection results frame by frame.
type MockDetector struct {
	mu       sync.Mutex
	hands    []HandLandmarks
	sequence [][]HandLandmarks
	err      error
	calls    int
	closed   bool
}

// NewMockDetector creates a new MockDetector that sees no hands.
func NewMockDetector() *MockDetector {
	return &MockDetector{}
}

// SetHands sets the hands returned by every Detect call once any queued
// sequence is exhausted.
func (m *MockDetector) SetHands(hands []HandLandmarks) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.hands = hands
}

// SetSequence queues per-frame results; each Detect call consumes one entry.
func (m *MockDetector) SetSequence(frames [][]HandLandmarks) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.sequence = frames
}

// SetError sets the error that will be returned by Detect.
func (m *MockDetector) SetError(err error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.err = err
}

// Detect returns the next queued result, the fixed hands, or the configured error.
func (m *MockDetector) Detect(frame *gocv.Mat) ([]HandLandmarks, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.calls++
	if m.err != nil {
		return nil, m.err
	}
	if len(m.sequence) > 0 {
		next := m.sequence[0]
		m.sequence = m.sequence[1:]
		return next, nil
	}
	return m.hands, nil
}

// Calls returns how many times Detect has been called.
func (m *MockDetector) Calls() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.calls
}

// Closed reports whether Close has been called.
func (m *MockDetector) Closed() bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.closed
}

// Close marks the detector closed.
func (m *MockDetector) Close() error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.closed = true
	return nil
}

// Pose describes a synthetic hand in pixel space.
type Pose struct {
	// Fingers lists thumb, index, middle, ring, pinky; true means extended.
	Fingers    [5]bool
	Handedness Handedness
	// IndexX and IndexY place the index fingertip.
	IndexX, IndexY float64
	// Pinch is the distance between the index and middle fingertips (default 40).
	Pinch float64
	// ThumbDown drops the thumb tip 50 px below its base joint.
	ThumbDown bool
}

// PoseLandmarks builds a full 21-point hand whose fingertips sit 40 px above
// their middle joints when extended and 10 px below them when curled.
func PoseLandmarks(p Pose) HandLandmarks {
	if p.Handedness == "" {
		p.Handedness = Right
	}
	if p.Pinch <= 0 {
		p.Pinch = 40
	}

	hand := HandLandmarks{
		Points:     make([]Point3D, NumLandmarks),
		Handedness: p.Handedness,
		Score:      0.95,
	}
	pt := func(id int, x, y float64) { hand.Points[id] = Point3D{X: x, Y: y} }

	ix, iy := p.IndexX, p.IndexY
	tips := [4][2]float64{
		{ix, iy},
		{ix + p.Pinch, iy},
		{ix + p.Pinch + 25, iy + 5},
		{ix + p.Pinch + 50, iy + 15},
	}
	for f, tip := range tips {
		mcp := IndexMCP + f*4
		x, y := tip[0], tip[1]
		if p.Fingers[f+1] {
			pt(mcp, x, y+70)
			pt(mcp+1, x, y+40)
			pt(mcp+2, x, y+20)
		} else {
			pt(mcp, x, y+30)
			pt(mcp+1, x, y-10)
			pt(mcp+2, x, y-15)
		}
		pt(mcp+3, x, y)
	}

	side := 1.0
	if p.Handedness == Left {
		side = -1.0
	}
	ipX, ipY := ix-45, iy+90
	pt(ThumbCMC, ipX-side*10, ipY+50)
	pt(ThumbMCP, ipX-side*5, ipY+25)
	pt(ThumbIP, ipX, ipY)

	tipX := ipX - side*15
	if p.Fingers[0] {
		tipX = ipX + side*25
	}
	tipY := ipY - 10
	if p.ThumbDown {
		tipY = ipY + 50
	}
	pt(ThumbTip, tipX, tipY)

	pt(Wrist, ix+p.Pinch/2, iy+160)
	hand.BBox = Bounds(hand.Points)

	return hand
}

// Fingers converts a 0/1 pattern such as "01100" into the Pose finger layout.
// Characters other than '1' count as curled.
func Fingers(pattern string) [5]bool {
	var f [5]bool
	for i := 0; i < len(f) && i < len(pattern); i++ {
		f[i] = pattern[i] == '1'
	}
	return f
}
