package app

import (
	"errors"
	"path/filepath"
	"testing"
	"time"

	"gocv.io/x/gocv"

	"github.com/ayusman/gesturemouse/internal/capture"
	"github.com/ayusman/gesturemouse/internal/detector"
	"github.com/ayusman/gesturemouse/internal/inject"
	"github.com/ayusman/gesturemouse/internal/profile"
	"github.com/ayusman/gesturemouse/internal/store"
)

type runnerFixture struct {
	runner   *Runner
	camera   *capture.MockCamera
	detector *detector.MockDetector
	injector *inject.Recorder
	store    *store.Store
}

func newRunnerFixture(t *testing.T, frames int) *runnerFixture {
	t.Helper()

	mats := make([]*gocv.Mat, frames)
	for i := range mats {
		m := gocv.NewMatWithSize(480, 640, gocv.MatTypeCV8UC3)
		mats[i] = &m
	}
	t.Cleanup(func() {
		for _, m := range mats {
			m.Close()
		}
	})

	s, err := store.New(filepath.Join(t.TempDir(), "history.db"))
	if err != nil {
		t.Fatalf("store.New() error = %v", err)
	}
	t.Cleanup(func() { s.Close() })

	f := &runnerFixture{
		camera:   capture.NewMockCamera(mats, true),
		detector: detector.NewMockDetector(),
		injector: inject.NewRecorder(false),
		store:    s,
	}
	f.runner = NewRunner(Config{
		Store:       s,
		NewCamera:   func() capture.Camera { return f.camera },
		NewDetector: func() (detector.Detector, error) { return f.detector, nil },
		Injector:    f.injector,
		Screen:      screenHD,
		ExitGrace:   10 * time.Millisecond,
		Reacquire: capture.ReacquireConfig{
			MaxRetries:    2,
			RetryDelay:    time.Millisecond,
			MaxRetryDelay: 2 * time.Millisecond,
		},
	})
	return f
}

func waitDone(t *testing.T, h *Handle) {
	t.Helper()
	select {
	case <-h.Done():
	case <-time.After(2 * time.Second):
		t.Fatal("run did not end")
	}
}

func waitFor(t *testing.T, what string, cond func() bool) {
	t.Helper()
	deadline := time.Now().Add(2 * time.Second)
	for !cond() {
		if time.Now().After(deadline) {
			t.Fatalf("timed out waiting for %s", what)
		}
		time.Sleep(5 * time.Millisecond)
	}
}

func TestRunner_UnknownMode(t *testing.T) {
	r := NewRunner(Config{Injector: inject.NewRecorder(false)})

	if _, err := r.Start("karaoke"); !errors.Is(err, profile.ErrUnknownMode) {
		t.Errorf("Start(karaoke) error = %v, want ErrUnknownMode", err)
	}
	if r.Current() != nil {
		t.Error("nothing should be running")
	}
}

func TestRunner_StopNil(t *testing.T) {
	r := NewRunner(Config{})
	if err := r.Stop(nil); !errors.Is(err, ErrNotRunning) {
		t.Errorf("Stop(nil) = %v, want ErrNotRunning", err)
	}
	if err := r.StopCurrent(); err != nil {
		t.Errorf("StopCurrent() while idle = %v", err)
	}
}

func TestRunner_CameraUnavailable(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping test that requires GoCV Mat creation")
	}

	f := newRunnerFixture(t, 1)
	f.camera.FailOpen(capture.ErrCameraUnavailable)

	if _, err := f.runner.Start("gesture"); !errors.Is(err, capture.ErrCameraUnavailable) {
		t.Fatalf("Start() error = %v, want ErrCameraUnavailable", err)
	}
	if f.runner.Current() != nil {
		t.Error("failed Start should leave nothing running")
	}
	if f.detector.Calls() != 0 {
		t.Error("detector should not run")
	}
}

func TestRunner_DetectorUnavailable(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping test that requires GoCV Mat creation")
	}

	f := newRunnerFixture(t, 1)
	f.runner.config.NewDetector = func() (detector.Detector, error) {
		return nil, detector.ErrScriptNotFound
	}

	if _, err := f.runner.Start("gesture"); !errors.Is(err, detector.ErrScriptNotFound) {
		t.Fatalf("Start() error = %v, want ErrScriptNotFound", err)
	}
	if f.camera.IsOpen() {
		t.Error("camera should be closed again")
	}
}

func TestRunner_StartStop(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping test that requires GoCV Mat creation")
	}

	f := newRunnerFixture(t, 2)
	f.detector.SetHands(hand("01000", 320, 240, 40))

	h, err := f.runner.Start("gesture")
	if err != nil {
		t.Fatalf("Start() error = %v", err)
	}
	if f.runner.Current() != h {
		t.Error("Current() should return the running handle")
	}

	if _, err := f.runner.Start("normal"); !errors.Is(err, ErrAlreadyRunning) {
		t.Errorf("second Start() error = %v, want ErrAlreadyRunning", err)
	}

	waitFor(t, "cursor moves", func() bool { return f.injector.Count(inject.OpMove) > 3 })

	if err := f.runner.Stop(h); err != nil {
		t.Fatalf("Stop() error = %v", err)
	}
	waitDone(t, h)

	if h.Reason() != store.ReasonStopped || h.Err() != nil {
		t.Errorf("Reason, Err = %q, %v, want stopped, nil", h.Reason(), h.Err())
	}
	if f.camera.IsOpen() || !f.detector.Closed() {
		t.Error("camera and detector should be released")
	}
	if f.runner.Current() != nil {
		t.Error("Current() should be nil after Stop")
	}

	sess, err := f.store.Sessions().GetByID(h.ID.String())
	if err != nil {
		t.Fatalf("session not recorded: %v", err)
	}
	if sess.Mode != "gesture" || sess.EndReason != store.ReasonStopped {
		t.Errorf("session = %+v", sess)
	}
	counts, _ := f.store.Sessions().Counts(h.ID.String())
	if len(counts) != 1 || counts[0].Kind != "move" || counts[0].Count < 4 {
		t.Errorf("Counts() = %+v, want moves", counts)
	}
}

func TestRunner_ExitGesture(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping test that requires GoCV Mat creation")
	}

	f := newRunnerFixture(t, 1)
	f.detector.SetHands([]detector.HandLandmarks{detector.PoseLandmarks(detector.Pose{
		Fingers:   detector.Fingers("01000"),
		IndexX:    320,
		IndexY:    240,
		ThumbDown: true,
	})})

	ended := make(chan *Handle, 1)
	f.runner.config.OnEnd = func(h *Handle) { ended <- h }

	h, err := f.runner.Start("presentation")
	if err != nil {
		t.Fatalf("Start() error = %v", err)
	}
	waitDone(t, h)

	if h.Reason() != store.ReasonExitGesture {
		t.Errorf("Reason() = %q, want exit-gesture", h.Reason())
	}
	select {
	case got := <-ended:
		if got != h {
			t.Error("OnEnd got a different handle")
		}
	case <-time.After(time.Second):
		t.Error("OnEnd was not called")
	}

	sess, _ := f.store.Sessions().GetByID(h.ID.String())
	if sess == nil || sess.EndReason != store.ReasonExitGesture {
		t.Errorf("session = %+v, want exit-gesture", sess)
	}
}

func TestRunner_ReleasesDragOnStop(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping test that requires GoCV Mat creation")
	}

	f := newRunnerFixture(t, 1)
	f.detector.SetHands(hand("00000", 320, 240, 40))

	h, err := f.runner.Start("gesture")
	if err != nil {
		t.Fatalf("Start() error = %v", err)
	}
	waitFor(t, "drag start", func() bool { return f.injector.Count(inject.OpMouseDown) == 1 })

	if err := f.runner.Stop(h); err != nil {
		t.Fatalf("Stop() error = %v", err)
	}

	if f.injector.Count(inject.OpMouseDown) != 1 {
		t.Errorf("mouse downs = %d, want 1", f.injector.Count(inject.OpMouseDown))
	}
	if f.injector.Count(inject.OpMouseUp) != 1 {
		t.Errorf("mouse ups = %d, want 1", f.injector.Count(inject.OpMouseUp))
	}
}

func TestRunner_CameraLost(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping test that requires GoCV Mat creation")
	}

	f := newRunnerFixture(t, 1)
	gone := errors.New("device unplugged")

	h, err := f.runner.Start("normal")
	if err != nil {
		t.Fatalf("Start() error = %v", err)
	}
	f.camera.FailReads(gone, gone, gone, gone, gone)
	f.camera.FailOpen(gone, gone, gone, gone, gone, gone)

	waitDone(t, h)

	if h.Reason() != store.ReasonCameraLost {
		t.Errorf("Reason() = %q, want camera-lost", h.Reason())
	}
	if !errors.Is(h.Err(), capture.ErrCameraLost) {
		t.Errorf("Err() = %v, want ErrCameraLost", h.Err())
	}
}

func TestRunner_RecoversFromReadErrors(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping test that requires GoCV Mat creation")
	}

	f := newRunnerFixture(t, 1)
	f.detector.SetHands(hand("01000", 320, 240, 40))
	f.camera.FailReads(errors.New("glitch"))

	h, err := f.runner.Start("normal")
	if err != nil {
		t.Fatalf("Start() error = %v", err)
	}
	waitFor(t, "cursor moves", func() bool { return f.injector.Count(inject.OpMove) > 0 })

	if err := f.runner.Stop(h); err != nil {
		t.Fatalf("Stop() error = %v", err)
	}
	if h.Reason() != store.ReasonStopped {
		t.Errorf("Reason() = %q, want stopped", h.Reason())
	}
	if f.camera.Opens() < 2 {
		t.Errorf("Opens() = %d, want a reopen", f.camera.Opens())
	}
}

func TestRunner_Switch(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping test that requires GoCV Mat creation")
	}

	f := newRunnerFixture(t, 1)

	first, err := f.runner.Switch("gesture")
	if err != nil {
		t.Fatalf("Switch(gesture) error = %v", err)
	}
	second, err := f.runner.Switch("gaming")
	if err != nil {
		t.Fatalf("Switch(gaming) error = %v", err)
	}

	select {
	case <-first.Done():
	default:
		t.Error("first run should have ended")
	}
	if f.runner.Current() != second || second.Mode != "gaming" {
		t.Errorf("Current() = %+v, want gaming run", f.runner.Current())
	}
	f.runner.Stop(second)

	sessions, _ := f.store.Sessions().List(0)
	if len(sessions) != 2 {
		t.Errorf("sessions = %d, want 2", len(sessions))
	}
}
