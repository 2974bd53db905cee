package app

import (
	"context"
	"errors"
	"log"
	"time"

	"github.com/ayusman/gesturemouse/internal/capture"
	"github.com/ayusman/gesturemouse/internal/detector"
	"github.com/ayusman/gesturemouse/internal/dispatch"
	"github.com/ayusman/gesturemouse/internal/gesture"
	"github.com/ayusman/gesturemouse/internal/inject"
	"github.com/ayusman/gesturemouse/internal/pointer"
	"github.com/ayusman/gesturemouse/internal/profile"
	"github.com/ayusman/gesturemouse/internal/store"
)

// Outcome is what one frame produced.
type Outcome struct {
	HandFound bool
	Digest    gesture.Digest
	Rule      gesture.RuleName
	Action    gesture.Action
	Result    dispatch.Result
}

// Pipeline turns the landmarks of one frame into at most one injected action.
// It owns the smoother and the dispatcher state of a run.
type Pipeline struct {
	profile    profile.Profile
	classifier *gesture.Classifier
	smoother   *pointer.Smoother
	dispatcher *dispatch.Dispatcher
	screen     pointer.Size
}

// NewPipeline builds the pipeline for p driving injector on a screen of the
// given size.
func NewPipeline(p profile.Profile, injector inject.Injector, screen pointer.Size) *Pipeline {
	return &Pipeline{
		profile:    p,
		classifier: gesture.NewClassifier(p.ClassifierConfig()),
		smoother:   pointer.NewSmoother(p.Smoothing),
		dispatcher: dispatch.New(injector, dispatch.Config{ClickCooldown: p.ClickCooldown}),
		screen:     screen,
	}
}

// Step classifies the first hand in hands and dispatches the result. frame is
// the camera frame size the landmarks are expressed in.
func (p *Pipeline) Step(now time.Time, hands []detector.HandLandmarks, frame pointer.Size) Outcome {
	if len(hands) == 0 {
		return Outcome{Action: gesture.None()}
	}

	hand := &hands[0]
	in := gesture.Input{
		Digest:      gesture.ComputeDigest(hand, p.profile.FingerMargin),
		Aux:         gesture.ComputeAux(hand),
		FrameHeight: frame.H,
		State:       p.dispatcher.State(),
		Now:         now,
	}
	if tip, ok := hand.Point(detector.IndexTip); ok {
		in.IndexX, in.IndexY, in.HasIndex = tip.X, tip.Y, true
	}

	action, rule := p.classifier.Classify(in)

	if action.Kind == gesture.KindMove {
		target := pointer.Map(pointer.Point{X: in.IndexX, Y: in.IndexY}, frame, p.profile.Inset, p.screen)
		next := p.smoother.Smooth(target)
		action = gesture.MoveCursor(next.X, next.Y)
	}

	return Outcome{
		HandFound: true,
		Digest:    in.Digest,
		Rule:      rule,
		Action:    action,
		Result:    p.dispatcher.Dispatch(now, action),
	}
}

// Release lets go of a held drag.
func (p *Pipeline) Release() error {
	return p.dispatcher.Release()
}

// Counts returns the per-kind action totals keyed by kind name.
func (p *Pipeline) Counts() map[string]int {
	out := make(map[string]int)
	for k, n := range p.dispatcher.Counts() {
		out[k.String()] = n
	}
	return out
}

// Failures returns how many injector calls failed during the run.
func (p *Pipeline) Failures() int {
	return p.dispatcher.Failures()
}

// Smoother exposes the pointer smoother.
func (p *Pipeline) Smoother() *pointer.Smoother {
	return p.smoother
}

// DragHeld reports whether the run is holding the left button.
func (p *Pipeline) DragHeld() bool {
	return p.dispatcher.State().DragHeld()
}

// loop drives one mode run: read a frame, detect, step, until ctx is done,
// an exit gesture fires, or the camera is lost.
type loop struct {
	camera    capture.Camera
	detector  detector.Detector
	pipeline  *Pipeline
	gate      *capture.MotionGate
	reacquire capture.ReacquireConfig
	exitGrace time.Duration
	now       func() time.Time
}

// run returns the end reason and, for camera loss, the error.
func (l *loop) run(ctx context.Context) (string, error) {
	lost := 0

	for {
		select {
		case <-ctx.Done():
			return store.ReasonStopped, nil
		default:
		}

		frame, err := l.camera.ReadFrame()
		if err != nil {
			log.Printf("Error reading frame: %v", err)

			lost++
			if lost > l.reacquire.MaxRetries {
				return store.ReasonCameraLost, capture.ErrCameraLost
			}
			if err := capture.Reacquire(ctx, l.camera, l.reacquire); err != nil {
				if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
					return store.ReasonStopped, nil
				}
				return store.ReasonCameraLost, err
			}
			continue
		}
		lost = 0

		now := l.now()
		size := pointer.Size{W: float64(frame.Cols()), H: float64(frame.Rows())}

		var hands []detector.HandLandmarks
		if l.gate == nil || l.gate.Active(frame, now) {
			hands, err = l.detector.Detect(frame)
			if err != nil {
				log.Printf("Error detecting hands: %v", err)
				hands = nil
			}
		}
		frame.Close()

		out := l.pipeline.Step(now, hands, size)
		if out.Result.Exit {
			log.Printf("Exit gesture seen, stopping in %v", l.exitGrace)
			if l.exitGrace > 0 {
				t := time.NewTimer(l.exitGrace)
				select {
				case <-ctx.Done():
					t.Stop()
				case <-t.C:
				}
			}
			return store.ReasonExitGesture, nil
		}
	}
}
