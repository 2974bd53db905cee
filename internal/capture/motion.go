package capture

import (
	"image"
	"sync"
	"time"

	"gocv.io/x/gocv"
)

const (
	blurKernel    = 21
	diffThreshold = 25
)

// Idle throttle defaults.
const (
	DefaultMotionThreshold = 1.0
	DefaultIdleAfter       = 2 * time.Second
	DefaultIdleFPS         = 5
)

// MotionDetector reports whether consecutive frames differ, by blurring
// grayscale frames and counting pixels whose difference crosses a threshold.
type MotionDetector struct {
	threshold   float64
	prevGray    gocv.Mat
	initialized bool
	mu          sync.Mutex
}

// NewMotionDetector creates a detector that fires when more than threshold
// percent of the pixels change.
func NewMotionDetector(threshold float64) *MotionDetector {
	if threshold <= 0 {
		threshold = DefaultMotionThreshold
	}
	return &MotionDetector{
		threshold: threshold,
		prevGray:  gocv.NewMat(),
	}
}

// Detect compares frame with the previous one. It returns whether motion was
// seen and the changed-pixel percentage. The first frame only sets the baseline.
func (m *MotionDetector) Detect(frame *gocv.Mat) (bool, float64) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if frame == nil || frame.Empty() {
		return false, 0
	}

	gray := gocv.NewMat()
	defer gray.Close()
	if frame.Channels() > 1 {
		gocv.CvtColor(*frame, &gray, gocv.ColorBGRToGray)
	} else {
		frame.CopyTo(&gray)
	}

	blurred := gocv.NewMat()
	defer blurred.Close()
	gocv.GaussianBlur(gray, &blurred, image.Point{X: blurKernel, Y: blurKernel}, 0, 0, gocv.BorderDefault)

	if !m.initialized || m.prevGray.Rows() != blurred.Rows() || m.prevGray.Cols() != blurred.Cols() {
		blurred.CopyTo(&m.prevGray)
		m.initialized = true
		return false, 0
	}

	diff := gocv.NewMat()
	defer diff.Close()
	gocv.AbsDiff(blurred, m.prevGray, &diff)

	thresh := gocv.NewMat()
	defer thresh.Close()
	gocv.Threshold(diff, &thresh, diffThreshold, 255, gocv.ThresholdBinary)

	changed := float64(gocv.CountNonZero(thresh)) / float64(thresh.Rows()*thresh.Cols()) * 100.0
	blurred.CopyTo(&m.prevGray)

	return changed > m.threshold, changed
}

// Reset drops the baseline frame.
func (m *MotionDetector) Reset() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.clear()
}

// Close releases the baseline frame.
func (m *MotionDetector) Close() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.clear()
}

func (m *MotionDetector) clear() {
	if !m.prevGray.Empty() {
		m.prevGray.Close()
		m.prevGray = gocv.NewMat()
	}
	m.initialized = false
}

// MotionGate throttles a camera while nothing moves in front of it. After
// IdleAfter without motion it drops the camera to IdleFPS and tells the
// caller to skip landmark detection; the first moving frame restores the
// active rate.
type MotionGate struct {
	detector  *MotionDetector
	cam       Camera
	idleAfter time.Duration
	idleFPS   int
	activeFPS int

	lastMotion time.Time
	idle       bool
}

// NewMotionGate wraps cam. threshold is the changed-pixel percentage that
// counts as motion.
func NewMotionGate(cam Camera, threshold float64, idleAfter time.Duration, idleFPS int) *MotionGate {
	if idleAfter <= 0 {
		idleAfter = DefaultIdleAfter
	}
	if idleFPS <= 0 {
		idleFPS = DefaultIdleFPS
	}
	return &MotionGate{
		detector:  NewMotionDetector(threshold),
		cam:       cam,
		idleAfter: idleAfter,
		idleFPS:   idleFPS,
		activeFPS: cam.FPS(),
	}
}

// Active reports whether frame, captured at now, should go to the detector.
func (g *MotionGate) Active(frame *gocv.Mat, now time.Time) bool {
	moving, _ := g.detector.Detect(frame)

	if g.lastMotion.IsZero() || moving {
		g.lastMotion = now
		if g.idle {
			g.idle = false
			g.cam.SetFPS(g.activeFPS)
		}
		return true
	}

	if !g.idle && now.Sub(g.lastMotion) >= g.idleAfter {
		g.idle = true
		g.cam.SetFPS(g.idleFPS)
	}
	return !g.idle
}

// Idle reports whether the gate is currently throttling.
func (g *MotionGate) Idle() bool {
	return g.idle
}

// Close releases the detector.
func (g *MotionGate) Close() {
	g.detector.Close()
}
