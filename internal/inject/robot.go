package inject

import (
	"errors"
	"fmt"
	"sync"

	"github.com/go-vgo/robotgo"
)

// ErrNoKeys is returned by Hotkey when called without keys.
var ErrNoKeys = errors.New("hotkey needs at least one key")

// robotMu serializes every robotgo call so OS events from different
// pipelines never interleave.
var robotMu sync.Mutex

// Robot injects input through robotgo.
type Robot struct{}

// NewRobot creates a robotgo-backed Injector.
func NewRobot() *Robot {
	return &Robot{}
}

// MoveTo moves the cursor to an absolute screen position.
func (r *Robot) MoveTo(x, y int) error {
	robotMu.Lock()
	defer robotMu.Unlock()

	robotgo.Move(x, y)
	return nil
}

// MouseDown presses and holds a button.
func (r *Robot) MouseDown(b Button) error {
	robotMu.Lock()
	defer robotMu.Unlock()

	if err := robotgo.Toggle(string(b)); err != nil {
		return fmt.Errorf("mouse down %s: %w", b, err)
	}
	return nil
}

// MouseUp releases a held button.
func (r *Robot) MouseUp(b Button) error {
	robotMu.Lock()
	defer robotMu.Unlock()

	if err := robotgo.Toggle(string(b), "up"); err != nil {
		return fmt.Errorf("mouse up %s: %w", b, err)
	}
	return nil
}

// Click clicks a button once.
func (r *Robot) Click(b Button) error {
	robotMu.Lock()
	defer robotMu.Unlock()

	robotgo.Click(string(b))
	return nil
}

// Scroll scrolls vertically by amount.
func (r *Robot) Scroll(amount int) error {
	if amount == 0 {
		return nil
	}

	robotMu.Lock()
	defer robotMu.Unlock()

	robotgo.Scroll(0, amount)
	return nil
}

// Hotkey taps the last key while holding the others.
func (r *Robot) Hotkey(keys ...string) error {
	if len(keys) == 0 {
		return ErrNoKeys
	}

	key := keys[len(keys)-1]
	modifiers := make([]interface{}, 0, len(keys)-1)
	for _, m := range keys[:len(keys)-1] {
		modifiers = append(modifiers, m)
	}

	robotMu.Lock()
	defer robotMu.Unlock()

	if err := robotgo.KeyTap(key, modifiers...); err != nil {
		return fmt.Errorf("hotkey %v: %w", keys, err)
	}
	return nil
}

// ScreenSize returns the main display size in pixels.
func ScreenSize() (int, int) {
	robotMu.Lock()
	defer robotMu.Unlock()

	return robotgo.GetScreenSize()
}
