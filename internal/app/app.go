// Package app runs gesture modes: it owns the camera, the landmark detector
// and the frame loop of whichever mode is active.
package app

import (
	"context"
	"errors"
	"fmt"
	"log"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/ayusman/gesturemouse/internal/capture"
	"github.com/ayusman/gesturemouse/internal/detector"
	"github.com/ayusman/gesturemouse/internal/inject"
	"github.com/ayusman/gesturemouse/internal/pointer"
	"github.com/ayusman/gesturemouse/internal/profile"
	"github.com/ayusman/gesturemouse/internal/store"
)

// DefaultStopTimeout bounds how long Stop waits for a run to wind down.
const DefaultStopTimeout = 2 * time.Second

var (
	// ErrAlreadyRunning is returned by Start while another mode runs.
	ErrAlreadyRunning = errors.New("a mode is already running")
	// ErrNotRunning is returned by Stop for a nil handle.
	ErrNotRunning = errors.New("no mode is running")
	// ErrStopTimeout is returned when a run does not end within the stop timeout.
	ErrStopTimeout = errors.New("mode did not stop in time")
)

// Config holds the collaborators and policy of a Runner.
type Config struct {
	// Store records run history; nil disables it.
	Store *store.Store

	NewCamera   func() capture.Camera
	NewDetector func() (detector.Detector, error)
	Injector    inject.Injector

	// Screen is the target size of the pointer map.
	Screen pointer.Size

	// Profile resolves a mode id; defaults to profile.Lookup.
	Profile func(id string) (profile.Profile, error)

	ExitGrace   time.Duration
	StopTimeout time.Duration
	Reacquire   capture.ReacquireConfig

	// IdleThrottle enables motion gating of the detector.
	IdleThrottle    bool
	MotionThreshold float64
	IdleFPS         int
	IdleAfter       time.Duration

	// OnEnd is called from the run goroutine once a run has ended, before
	// its Done channel closes.
	OnEnd func(h *Handle)
}

// Handle identifies one run of a mode.
type Handle struct {
	ID        uuid.UUID
	Mode      string
	StartedAt time.Time

	cancel context.CancelFunc
	done   chan struct{}

	mu     sync.Mutex
	reason string
	err    error
}

// Done is closed once the run has ended and released its resources.
func (h *Handle) Done() <-chan struct{} {
	return h.done
}

// Err returns why the run failed, or nil for a clean end.
func (h *Handle) Err() error {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.err
}

// Reason returns how the run ended; empty while it is still going.
func (h *Handle) Reason() string {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.reason
}

func (h *Handle) finish(reason string, err error) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.reason = reason
	h.err = err
}

// Runner starts and stops modes, one at a time.
type Runner struct {
	config Config

	mu      sync.Mutex
	current *Handle
}

// NewRunner creates a Runner.
func NewRunner(config Config) *Runner {
	if config.Profile == nil {
		config.Profile = profile.Lookup
	}
	if config.StopTimeout <= 0 {
		config.StopTimeout = DefaultStopTimeout
	}
	if config.Reacquire == (capture.ReacquireConfig{}) {
		config.Reacquire = capture.DefaultReacquireConfig()
	}
	if config.NewCamera == nil {
		config.NewCamera = func() capture.Camera { return capture.NewCamera(capture.DefaultConfig()) }
	}
	if config.NewDetector == nil {
		config.NewDetector = func() (detector.Detector, error) {
			return detector.NewMediaPipeDetector(detector.DefaultConfig())
		}
	}
	return &Runner{config: config}
}

// Start opens the camera and detector and runs modeID until Stop, an exit
// gesture, or camera loss. Errors opening the camera wrap
// capture.ErrCameraUnavailable and leave nothing running.
func (r *Runner) Start(modeID string) (*Handle, error) {
	p, err := r.config.Profile(modeID)
	if err != nil {
		return nil, err
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	if r.current != nil {
		return nil, fmt.Errorf("%w: %s", ErrAlreadyRunning, r.current.Mode)
	}

	cam := r.config.NewCamera()
	if err := cam.Open(); err != nil {
		return nil, fmt.Errorf("start %s: %w", modeID, err)
	}

	det, err := r.config.NewDetector()
	if err != nil {
		cam.Close()
		return nil, fmt.Errorf("start %s: %w", modeID, err)
	}

	pipe := NewPipeline(p, r.config.Injector, r.config.Screen)

	var gate *capture.MotionGate
	if r.config.IdleThrottle {
		gate = capture.NewMotionGate(cam, r.config.MotionThreshold, r.config.IdleAfter, r.config.IdleFPS)
	}

	ctx, cancel := context.WithCancel(context.Background())
	h := &Handle{
		ID:        uuid.New(),
		Mode:      modeID,
		StartedAt: time.Now(),
		cancel:    cancel,
		done:      make(chan struct{}),
	}

	if r.config.Store != nil {
		sess, err := r.config.Store.Sessions().Start(modeID)
		if err != nil {
			log.Printf("Failed to record session: %v", err)
		} else if id, err := uuid.Parse(sess.ID); err == nil {
			h.ID, h.StartedAt = id, sess.StartedAt
		}
	}

	l := &loop{
		camera:    cam,
		detector:  det,
		pipeline:  pipe,
		gate:      gate,
		reacquire: r.config.Reacquire,
		exitGrace: r.config.ExitGrace,
		now:       time.Now,
	}

	r.current = h
	go r.run(ctx, h, l)

	log.Printf("Mode %s started (%s)", modeID, h.ID)
	return h, nil
}

func (r *Runner) run(ctx context.Context, h *Handle, l *loop) {
	reason, err := l.run(ctx)

	if rerr := l.pipeline.Release(); rerr != nil {
		log.Printf("Error releasing drag: %v", rerr)
	}
	if l.gate != nil {
		l.gate.Close()
	}
	if cerr := l.camera.Close(); cerr != nil {
		log.Printf("Error closing camera: %v", cerr)
	}
	if derr := l.detector.Close(); derr != nil {
		log.Printf("Error closing detector: %v", derr)
	}

	if r.config.Store != nil {
		if ferr := r.config.Store.Sessions().Finish(h.ID.String(), reason, l.pipeline.Counts()); ferr != nil {
			log.Printf("Failed to finish session: %v", ferr)
		}
	}

	h.finish(reason, err)

	r.mu.Lock()
	if r.current == h {
		r.current = nil
	}
	r.mu.Unlock()

	if err != nil {
		log.Printf("Mode %s ended (%s): %v", h.Mode, reason, err)
	} else {
		log.Printf("Mode %s ended (%s)", h.Mode, reason)
	}
	if n := l.pipeline.Failures(); n > 0 {
		log.Printf("Mode %s: %d actions could not be injected", h.Mode, n)
	}

	if r.config.OnEnd != nil {
		r.config.OnEnd(h)
	}

	h.cancel()
	close(h.done)
}

// Stop cancels the run of h and waits for it to end. It returns
// ErrStopTimeout if the run is still going after the stop timeout.
func (r *Runner) Stop(h *Handle) error {
	if h == nil {
		return ErrNotRunning
	}

	h.cancel()

	t := time.NewTimer(r.config.StopTimeout)
	defer t.Stop()

	select {
	case <-h.done:
		return nil
	case <-t.C:
		return fmt.Errorf("%w: %s after %v", ErrStopTimeout, h.Mode, r.config.StopTimeout)
	}
}

// Current returns the running handle, or nil.
func (r *Runner) Current() *Handle {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.current
}

// StopCurrent stops whatever is running. It is a no-op when idle.
func (r *Runner) StopCurrent() error {
	h := r.Current()
	if h == nil {
		return nil
	}
	return r.Stop(h)
}

// Switch stops the running mode, if any, and starts modeID.
func (r *Runner) Switch(modeID string) (*Handle, error) {
	if err := r.StopCurrent(); err != nil {
		return nil, err
	}
	return r.Start(modeID)
}
