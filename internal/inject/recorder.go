package inject

import (
	"fmt"
	"log"
	"strings"
	"sync"
)

// Op names an injector method.
type Op string

const (
	OpMove      Op = "move"
	OpMouseDown Op = "mouse-down"
	OpMouseUp   Op = "mouse-up"
	OpClick     Op = "click"
	OpScroll    Op = "scroll"
	OpHotkey    Op = "hotkey"
)

// Call is one recorded injector call.
type Call struct {
	Op     Op
	X, Y   int
	Button Button
	Amount int
	Keys   []string
}

// Recorder is an Injector that only records what it was asked to do.
// It backs tests and the dry-run mode.
type Recorder struct {
	mu    sync.Mutex
	calls []Call
	fail  map[Op]error
	echo  bool
}

// NewRecorder creates a Recorder. With echo set, every call is also logged.
func NewRecorder(echo bool) *Recorder {
	return &Recorder{
		fail: make(map[Op]error),
		echo: echo,
	}
}

// FailOn makes every subsequent call of op return err; a nil err clears it.
func (r *Recorder) FailOn(op Op, err error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if err == nil {
		delete(r.fail, op)
		return
	}
	r.fail[op] = err
}

// Calls returns a copy of the recorded calls. Failed calls are not recorded.
func (r *Recorder) Calls() []Call {
	r.mu.Lock()
	defer r.mu.Unlock()

	out := make([]Call, len(r.calls))
	copy(out, r.calls)
	return out
}

// Count returns how many successful calls of op were recorded.
func (r *Recorder) Count(op Op) int {
	r.mu.Lock()
	defer r.mu.Unlock()

	n := 0
	for _, c := range r.calls {
		if c.Op == op {
			n++
		}
	}
	return n
}

// Reset forgets all recorded calls.
func (r *Recorder) Reset() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.calls = nil
}

func (r *Recorder) record(c Call) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if err := r.fail[c.Op]; err != nil {
		return err
	}
	r.calls = append(r.calls, c)

	if r.echo && c.Op != OpMove {
		log.Printf("dry-run: %s %s", c.Op, describe(c))
	}
	return nil
}

func describe(c Call) string {
	switch c.Op {
	case OpScroll:
		return fmt.Sprintf("by %d", c.Amount)
	case OpHotkey:
		return strings.Join(c.Keys, "+")
	default:
		return string(c.Button)
	}
}

func (r *Recorder) MoveTo(x, y int) error {
	return r.record(Call{Op: OpMove, X: x, Y: y})
}

func (r *Recorder) MouseDown(b Button) error {
	return r.record(Call{Op: OpMouseDown, Button: b})
}

func (r *Recorder) MouseUp(b Button) error {
	return r.record(Call{Op: OpMouseUp, Button: b})
}

func (r *Recorder) Click(b Button) error {
	return r.record(Call{Op: OpClick, Button: b})
}

func (r *Recorder) Scroll(amount int) error {
	return r.record(Call{Op: OpScroll, Amount: amount})
}

func (r *Recorder) Hotkey(keys ...string) error {
	if len(keys) == 0 {
		return ErrNoKeys
	}
	return r.record(Call{Op: OpHotkey, Keys: append([]string(nil), keys...)})
}
