package gesture

import (
	"time"

	"github.com/ayusman/gesturemouse/internal/pointer"
)

// RuleName identifies one entry of the classifier's rule table.
type RuleName string

// Rules in evaluation order.
const (
	RuleExit    RuleName = "exit"
	RuleRelease RuleName = "release"
	RuleGrab    RuleName = "grab"
	RuleClick   RuleName = "click"
	RuleScroll  RuleName = "scroll"
	RuleMove    RuleName = "move"
	RuleHotkeys RuleName = "hotkeys"
)

// ruleOrder is the fixed priority of the rule table.
var ruleOrder = []RuleName{RuleExit, RuleRelease, RuleGrab, RuleClick, RuleScroll, RuleMove, RuleHotkeys}

var (
	openHand   = MustDigest("11111")
	fist       = MustDigest("00000")
	twoFingers = MustDigest("01100")
)

// DispatchView is the part of the dispatcher's state the classifier reads.
type DispatchView interface {
	DragHeld() bool
	CoolingDown(key string, now time.Time) bool
}

// Hotkey binds one or more digests to a key combo.
type Hotkey struct {
	Name     string
	Digests  []Digest
	Keys     []string
	Cooldown time.Duration
}

// Config selects the rules and thresholds of a classifier.
type Config struct {
	// Rules lists the enabled rules; order is ignored, evaluation always
	// follows the fixed priority.
	Rules []RuleName

	// ClickDistance is the pinch distance below which two raised fingers click.
	ClickDistance float64

	// ExitDrop is how far the thumb tip must hang below its base to exit.
	ExitDrop float64

	// Inset is the dead-zone border used when mapping the fingertip to a
	// scroll amount.
	Inset float64

	// ScrollRange bounds the scroll delta to [-ScrollRange, ScrollRange].
	ScrollRange float64

	// MoveIndexOnly lets the cursor move whenever the index finger is up,
	// regardless of the middle finger.
	MoveIndexOnly bool

	Hotkeys []Hotkey
}

// Input is everything the classifier may look at for one frame.
type Input struct {
	Digest Digest
	Aux    Aux

	// IndexX and IndexY are the raw camera position of the index fingertip.
	IndexX, IndexY float64
	HasIndex       bool

	FrameHeight float64

	State DispatchView
	Now   time.Time
}

// Rule is one (predicate, producer) pair of the table.
type Rule struct {
	Name    RuleName
	Match   func(Input) bool
	Produce func(Input) Action
}

// Classifier evaluates an ordered rule table; the first matching rule decides.
type Classifier struct {
	config Config
	rules  []Rule
}

// NewClassifier builds the rule table for config.
func NewClassifier(config Config) *Classifier {
	enabled := make(map[RuleName]bool, len(config.Rules))
	for _, r := range config.Rules {
		enabled[r] = true
	}

	c := &Classifier{config: config}
	for _, name := range ruleOrder {
		if enabled[name] {
			c.rules = append(c.rules, c.rule(name))
		}
	}
	return c
}

// Rules returns the enabled rules in evaluation order.
func (c *Classifier) Rules() []Rule {
	return c.rules
}

// Classify returns the frame's action and the rule that produced it. The
// rule name is empty when nothing matched.
func (c *Classifier) Classify(in Input) (Action, RuleName) {
	for _, r := range c.rules {
		if r.Match(in) {
			return r.Produce(in), r.Name
		}
	}
	return None(), ""
}

func (c *Classifier) rule(name RuleName) Rule {
	switch name {
	case RuleExit:
		return Rule{
			Name: name,
			Match: func(in Input) bool {
				return in.Aux.HasThumb && in.Aux.ThumbDrop > c.config.ExitDrop
			},
			Produce: func(Input) Action { return Exit() },
		}

	case RuleRelease:
		return Rule{
			Name:    name,
			Match:   func(in Input) bool { return in.Digest == openHand },
			Produce: func(Input) Action { return DragEnd() },
		}

	case RuleGrab:
		return Rule{
			Name:  name,
			Match: func(in Input) bool { return in.Digest == fist },
			Produce: func(in Input) Action {
				if in.State != nil && in.State.DragHeld() {
					return None()
				}
				return DragStart()
			},
		}

	case RuleClick:
		return Rule{
			Name: name,
			Match: func(in Input) bool {
				return in.Digest == twoFingers && in.Aux.HasPinch && in.Aux.PinchDistance < c.config.ClickDistance
			},
			Produce: func(in Input) Action {
				if in.State != nil && in.State.CoolingDown(ClickCooldownKey, in.Now) {
					return None()
				}
				return Click()
			},
		}

	case RuleScroll:
		return Rule{
			Name:  name,
			Match: func(in Input) bool { return in.Digest == twoFingers && in.HasIndex },
			Produce: func(in Input) Action {
				r := c.config.ScrollRange
				speed := pointer.Interp(in.IndexY, c.config.Inset, in.FrameHeight-c.config.Inset, -r, r)
				return Scroll(int(speed))
			},
		}

	case RuleMove:
		return Rule{
			Name: name,
			Match: func(in Input) bool {
				if !in.HasIndex || !in.Digest[Index] {
					return false
				}
				return c.config.MoveIndexOnly || !in.Digest[Middle]
			},
			Produce: func(in Input) Action { return MoveCursor(in.IndexX, in.IndexY) },
		}

	case RuleHotkeys:
		return Rule{
			Name: name,
			Match: func(in Input) bool {
				_, ok := c.hotkeyFor(in.Digest)
				return ok
			},
			Produce: func(in Input) Action {
				hk, _ := c.hotkeyFor(in.Digest)
				if in.State != nil && in.State.CoolingDown(ComboKey(hk.Keys), in.Now) {
					return None()
				}
				return PressKeyCombo(hk.Cooldown, hk.Keys...)
			},
		}
	}

	return Rule{
		Name:    name,
		Match:   func(Input) bool { return false },
		Produce: func(Input) Action { return None() },
	}
}

func (c *Classifier) hotkeyFor(d Digest) (Hotkey, bool) {
	for _, hk := range c.config.Hotkeys {
		for _, hd := range hk.Digests {
			if hd == d {
				return hk, true
			}
		}
	}
	return Hotkey{}, false
}
