// Package capture reads webcam frames through GoCV (OpenCV).
package capture

import (
	"errors"
	"fmt"
	"sync"

	"gocv.io/x/gocv"
)

// Default camera settings.
const (
	DefaultFPS    = 30
	DefaultWidth  = 640
	DefaultHeight = 480
)

// DefaultDeviceIDs tries an external webcam before the built-in one.
var DefaultDeviceIDs = []int{1, 0}

var (
	// ErrCameraNotOpen is returned when reading from a camera that is not open.
	ErrCameraNotOpen = errors.New("camera is not open")
	// ErrCameraUnavailable is returned when none of the configured devices opens.
	ErrCameraUnavailable = errors.New("no camera device available")
	// ErrEmptyFrame is returned when the device yields no pixels.
	ErrEmptyFrame = errors.New("captured frame is empty")
)

// Camera is a frame source.
type Camera interface {
	Open() error
	Close() error
	// ReadFrame returns the next frame. The caller closes the Mat.
	ReadFrame() (*gocv.Mat, error)
	SetFPS(fps int)
	FPS() int
	IsOpen() bool
}

// Config selects the capture device and format.
type Config struct {
	// DeviceIDs are tried in order until one opens.
	DeviceIDs []int
	Width     int
	Height    int
	FPS       int
}

// DefaultConfig returns a 640x480 config trying devices 1 then 0.
func DefaultConfig() Config {
	return Config{
		DeviceIDs: append([]int(nil), DefaultDeviceIDs...),
		Width:     DefaultWidth,
		Height:    DefaultHeight,
		FPS:       DefaultFPS,
	}
}

type cameraImpl struct {
	config  Config
	capture *gocv.VideoCapture
	device  int
	mu      sync.Mutex
	running bool
	fps     int
}

// NewCamera creates a Camera for config. Nothing is opened until Open.
func NewCamera(config Config) Camera {
	if len(config.DeviceIDs) == 0 {
		config.DeviceIDs = append([]int(nil), DefaultDeviceIDs...)
	}
	if config.Width <= 0 {
		config.Width = DefaultWidth
	}
	if config.Height <= 0 {
		config.Height = DefaultHeight
	}
	if config.FPS <= 0 {
		config.FPS = DefaultFPS
	}
	return &cameraImpl{
		config: config,
		fps:    config.FPS,
		device: -1,
	}
}

// Open opens the first configured device that works.
func (c *cameraImpl) Open() error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.running {
		return nil
	}

	var lastErr error
	for _, id := range c.config.DeviceIDs {
		capture, err := gocv.OpenVideoCapture(id)
		if err != nil {
			lastErr = err
			continue
		}
		if !capture.IsOpened() {
			capture.Close()
			lastErr = fmt.Errorf("device %d did not open", id)
			continue
		}

		capture.Set(gocv.VideoCaptureFrameWidth, float64(c.config.Width))
		capture.Set(gocv.VideoCaptureFrameHeight, float64(c.config.Height))
		capture.Set(gocv.VideoCaptureFPS, float64(c.fps))

		c.capture = capture
		c.device = id
		c.running = true
		return nil
	}

	if lastErr != nil {
		return fmt.Errorf("%w: tried %v: %v", ErrCameraUnavailable, c.config.DeviceIDs, lastErr)
	}
	return ErrCameraUnavailable
}

// Close releases the device.
func (c *cameraImpl) Close() error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if !c.running || c.capture == nil {
		c.running = false
		return nil
	}

	err := c.capture.Close()
	c.capture = nil
	c.running = false

	return err
}

func (c *cameraImpl) ReadFrame() (*gocv.Mat, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if !c.running || c.capture == nil {
		return nil, ErrCameraNotOpen
	}

	mat := gocv.NewMat()
	if ok := c.capture.Read(&mat); !ok {
		mat.Close()
		return nil, fmt.Errorf("read frame from device %d failed", c.device)
	}

	if mat.Empty() {
		mat.Close()
		return nil, ErrEmptyFrame
	}

	return &mat, nil
}

// SetFPS changes the requested frame rate. Values <= 0 are ignored.
func (c *cameraImpl) SetFPS(fps int) {
	if fps <= 0 {
		return
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	c.fps = fps

	if c.capture != nil {
		c.capture.Set(gocv.VideoCaptureFPS, float64(fps))
	}
}

func (c *cameraImpl) FPS() int {
	c.mu.Lock()
	defer c.mu.Unlock()

	return c.fps
}

func (c *cameraImpl) IsOpen() bool {
	c.mu.Lock()
	defer c.mu.Unlock()

	return c.running
}
