// Package dispatch executes classified actions against an input injector.
package dispatch

import (
	"log"
	"math"
	"time"

	"github.com/ayusman/gesturemouse/internal/gesture"
	"github.com/ayusman/gesturemouse/internal/inject"
)

// DefaultClickCooldown is the minimum gap between two clicks.
const DefaultClickCooldown = 250 * time.Millisecond

// State is the dispatcher's carried state: which cooldown slots fired when,
// and whether the left button is held for a drag.
type State struct {
	held  bool
	fired map[string]firing
}

type firing struct {
	at     time.Time
	window time.Duration
}

// NewState returns an empty state with no drag held.
func NewState() *State {
	return &State{fired: make(map[string]firing)}
}

// DragHeld reports whether a drag is in progress.
func (s *State) DragHeld() bool {
	return s.held
}

// CoolingDown reports whether key fired less than its window before now.
func (s *State) CoolingDown(key string, now time.Time) bool {
	f, ok := s.fired[key]
	if !ok {
		return false
	}
	return now.Sub(f.at) < f.window
}

func (s *State) fire(key string, at time.Time, window time.Duration) {
	s.fired[key] = firing{at: at, window: window}
}

// Config holds dispatcher policy.
type Config struct {
	ClickCooldown time.Duration
}

// Result describes what Dispatch did with an action.
type Result struct {
	// Injected is true when the injector was called and succeeded.
	Injected bool
	// Suppressed is true when a cooldown or the drag state swallowed the action.
	Suppressed bool
	// Exit is true when the action asks the loop to stop.
	Exit bool
	// Err is the injector failure, already logged.
	Err error
}

// Dispatcher drives an Injector. It is owned by a single pipeline loop.
type Dispatcher struct {
	injector inject.Injector
	config   Config
	state    *State
	counts   map[gesture.Kind]int
	failures int
}

// New creates a Dispatcher with fresh state.
func New(injector inject.Injector, config Config) *Dispatcher {
	if config.ClickCooldown <= 0 {
		config.ClickCooldown = DefaultClickCooldown
	}
	return &Dispatcher{
		injector: injector,
		config:   config,
		state:    NewState(),
		counts:   make(map[gesture.Kind]int),
	}
}

// State exposes the carried state for the classifier.
func (d *Dispatcher) State() *State {
	return d.state
}

// Dispatch executes a at time now. Injector failures are logged and reported
// in the Result; they never stop the caller.
func (d *Dispatcher) Dispatch(now time.Time, a gesture.Action) Result {
	var (
		res Result
		err error
	)

	switch a.Kind {
	case gesture.KindNone:
		return res

	case gesture.KindMove:
		err = d.injector.MoveTo(int(math.Round(a.X)), int(math.Round(a.Y)))

	case gesture.KindClick:
		if d.state.CoolingDown(gesture.ClickCooldownKey, now) {
			res.Suppressed = true
			return res
		}
		if err = d.injector.Click(inject.LeftButton); err == nil {
			d.state.fire(gesture.ClickCooldownKey, now, d.config.ClickCooldown)
		}

	case gesture.KindDragStart:
		if d.state.held {
			res.Suppressed = true
			return res
		}
		if err = d.injector.MouseDown(inject.LeftButton); err == nil {
			d.state.held = true
		}

	case gesture.KindDragEnd:
		if !d.state.held {
			res.Suppressed = true
			return res
		}
		if err = d.injector.MouseUp(inject.LeftButton); err == nil {
			d.state.held = false
		}

	case gesture.KindScroll:
		err = d.injector.Scroll(-a.Delta)

	case gesture.KindKeyCombo:
		key := a.CooldownKey()
		if d.state.CoolingDown(key, now) {
			res.Suppressed = true
			return res
		}
		if err = d.injector.Hotkey(a.Keys...); err == nil {
			d.state.fire(key, now, a.Cooldown)
		}

	case gesture.KindExit:
		d.counts[a.Kind]++
		res.Exit = true
		return res

	default:
		log.Printf("dispatch: ignoring unknown action %s", a)
		return res
	}

	if err != nil {
		d.failures++
		log.Printf("dispatch: %s failed: %v", a, err)
		res.Err = err
		return res
	}

	d.counts[a.Kind]++
	res.Injected = true
	return res
}

// Release lets go of a held drag. It is called when the loop stops.
func (d *Dispatcher) Release() error {
	if !d.state.held {
		return nil
	}
	if err := d.injector.MouseUp(inject.LeftButton); err != nil {
		return err
	}
	d.state.held = false
	return nil
}

// Counts returns how many actions of each kind were carried out.
func (d *Dispatcher) Counts() map[gesture.Kind]int {
	out := make(map[gesture.Kind]int, len(d.counts))
	for k, v := range d.counts {
		out[k] = v
	}
	return out
}

// Failures returns how many injector calls failed.
func (d *Dispatcher) Failures() int {
	return d.failures
}
