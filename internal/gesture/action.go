// Package gesture turns hand landmarks into finger digests and classifies them
// into pointer actions.
package gesture

import (
	"fmt"
	"strings"
	"time"
)

// Kind tags an Action.
type Kind int

const (
	KindNone Kind = iota
	KindMove
	KindClick
	KindDragStart
	KindDragEnd
	KindScroll
	KindKeyCombo
	KindExit
)

var kindNames = [...]string{
	KindNone:      "none",
	KindMove:      "move",
	KindClick:     "click",
	KindDragStart: "drag-start",
	KindDragEnd:   "drag-end",
	KindScroll:    "scroll",
	KindKeyCombo:  "key-combo",
	KindExit:      "exit",
}

func (k Kind) String() string {
	if k < 0 || int(k) >= len(kindNames) {
		return fmt.Sprintf("kind(%d)", int(k))
	}
	return kindNames[k]
}

// Action is the single decision produced for a frame. Only the fields that
// belong to Kind are meaningful.
type Action struct {
	Kind Kind

	// X and Y are the cursor target for KindMove.
	X, Y float64

	// Delta is the scroll amount for KindScroll; positive means the hand is
	// low in the frame.
	Delta int

	// Keys is the hotkey for KindKeyCombo; modifiers first, key last.
	Keys []string

	// Cooldown is how long the same combo stays blocked after firing.
	Cooldown time.Duration
}

// None is the no-op action.
func None() Action { return Action{Kind: KindNone} }

// MoveCursor targets an absolute position.
func MoveCursor(x, y float64) Action { return Action{Kind: KindMove, X: x, Y: y} }

// Click is a single left click.
func Click() Action { return Action{Kind: KindClick} }

// DragStart presses and holds the left button.
func DragStart() Action { return Action{Kind: KindDragStart} }

// DragEnd releases a held left button.
func DragEnd() Action { return Action{Kind: KindDragEnd} }

// Scroll scrolls by delta.
func Scroll(delta int) Action { return Action{Kind: KindScroll, Delta: delta} }

// PressKeyCombo sends a hotkey and blocks repeats of it for cooldown.
func PressKeyCombo(cooldown time.Duration, keys ...string) Action {
	return Action{Kind: KindKeyCombo, Keys: keys, Cooldown: cooldown}
}

// Exit asks the pipeline to stop.
func Exit() Action { return Action{Kind: KindExit} }

// ClickCooldownKey is the cooldown slot shared by all clicks.
const ClickCooldownKey = "click"

// CooldownKey names the cooldown slot an action occupies, or "" when the
// action is not rate limited.
func (a Action) CooldownKey() string {
	switch a.Kind {
	case KindClick:
		return ClickCooldownKey
	case KindKeyCombo:
		return ComboKey(a.Keys)
	default:
		return ""
	}
}

// ComboKey is the cooldown slot for a hotkey.
func ComboKey(keys []string) string {
	return "keys:" + strings.Join(keys, "+")
}

func (a Action) String() string {
	switch a.Kind {
	case KindMove:
		return fmt.Sprintf("move(%.0f,%.0f)", a.X, a.Y)
	case KindScroll:
		return fmt.Sprintf("scroll(%d)", a.Delta)
	case KindKeyCombo:
		return "keys(" + strings.Join(a.Keys, "+") + ")"
	default:
		return a.Kind.String()
	}
}
