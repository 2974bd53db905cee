package capture

import (
	"errors"
	"sync"

	"gocv.io/x/gocv"
)

// ErrNoMoreFrames is returned by a non-looping MockCamera once it is drained.
var ErrNoMoreFrames = errors.New("no more frames")

// MockCamera plays back frames for tests and can simulate device failures.
type MockCamera struct {
	frames []*gocv.Mat
	index  int
	loop   bool
	fps    int

	mu         sync.Mutex
	running    bool
	opens      int
	closes     int
	openErrs   []error
	readErrs   []error
	fpsHistory []int
}

// NewMockCamera creates a camera that returns clones of frames in order.
func NewMockCamera(frames []*gocv.Mat, loop bool) *MockCamera {
	return &MockCamera{
		frames: frames,
		loop:   loop,
		fps:    DefaultFPS,
	}
}

// FailOpen queues errors returned by the next calls to Open.
func (c *MockCamera) FailOpen(errs ...error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.openErrs = append(c.openErrs, errs...)
}

// FailReads queues errors returned by the next calls to ReadFrame.
func (c *MockCamera) FailReads(errs ...error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.readErrs = append(c.readErrs, errs...)
}

func (c *MockCamera) Open() error {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.opens++
	if len(c.openErrs) > 0 {
		err := c.openErrs[0]
		c.openErrs = c.openErrs[1:]
		if err != nil {
			return err
		}
	}
	c.running = true
	return nil
}

func (c *MockCamera) Close() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.running {
		c.closes++
	}
	c.running = false
	return nil
}

func (c *MockCamera) ReadFrame() (*gocv.Mat, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if !c.running {
		return nil, ErrCameraNotOpen
	}

	if len(c.readErrs) > 0 {
		err := c.readErrs[0]
		c.readErrs = c.readErrs[1:]
		if err != nil {
			return nil, err
		}
	}

	if len(c.frames) == 0 {
		return nil, ErrEmptyFrame
	}

	if c.index >= len(c.frames) {
		if !c.loop {
			return nil, ErrNoMoreFrames
		}
		c.index = 0
	}

	frame := c.frames[c.index].Clone()
	c.index++

	return &frame, nil
}

func (c *MockCamera) SetFPS(fps int) {
	if fps <= 0 {
		return
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	c.fps = fps
	c.fpsHistory = append(c.fpsHistory, fps)
}

func (c *MockCamera) FPS() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.fps
}

func (c *MockCamera) IsOpen() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.running
}

// Opens returns how many times Open was called, failed calls included.
func (c *MockCamera) Opens() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.opens
}

// Closes returns how many times an open camera was closed.
func (c *MockCamera) Closes() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.closes
}

// FPSHistory returns every rate passed to SetFPS.
func (c *MockCamera) FPSHistory() []int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return append([]int(nil), c.fpsHistory...)
}

// Reset restarts playback from the first frame.
func (c *MockCamera) Reset() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.index = 0
}
