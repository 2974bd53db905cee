// Package profile defines the operating modes a user can launch.
package profile

import (
	"errors"
	"fmt"
	"time"

	"github.com/ayusman/gesturemouse/internal/gesture"
)

// ErrUnknownMode is returned by Lookup for an unrecognized mode id.
var ErrUnknownMode = errors.New("unknown mode")

// ID names a profile.
type ID string

const (
	Gesture      ID = "gesture"
	Normal       ID = "normal"
	Presentation ID = "presentation"
	Gaming       ID = "gaming"
)

// Profile is the immutable configuration of one mode.
type Profile struct {
	ID          ID
	Name        string
	Description string

	Rules         []gesture.RuleName
	Hotkeys       []gesture.Hotkey
	MoveIndexOnly bool

	ClickDistance float64
	ClickCooldown time.Duration
	ExitDrop      float64
	ScrollRange   float64

	// Inset is the camera border, in pixels, excluded from the pointer map.
	Inset float64
	// Smoothing is the smoother factor; 1 follows the hand exactly.
	Smoothing float64
	// FingerMargin is the extra rise a fingertip needs over its PIP joint.
	FingerMargin float64
}

// ClassifierConfig builds the classifier settings for p.
func (p Profile) ClassifierConfig() gesture.Config {
	return gesture.Config{
		Rules:         append([]gesture.RuleName(nil), p.Rules...),
		ClickDistance: p.ClickDistance,
		ExitDrop:      p.ExitDrop,
		Inset:         p.Inset,
		ScrollRange:   p.ScrollRange,
		MoveIndexOnly: p.MoveIndexOnly,
		Hotkeys:       append([]gesture.Hotkey(nil), p.Hotkeys...),
	}
}

// Has reports whether rule r is enabled.
func (p Profile) Has(r gesture.RuleName) bool {
	for _, x := range p.Rules {
		if x == r {
			return true
		}
	}
	return false
}

const (
	defaultClickCooldown = 250 * time.Millisecond
	defaultExitDrop      = 40
	defaultScrollRange   = 15
)

func builtin() []Profile {
	return []Profile{
		{
			ID:          Gesture,
			Name:        "Gesture",
			Description: "Cursor, click, drag, scroll and window shortcuts",
			Rules: []gesture.RuleName{
				gesture.RuleExit, gesture.RuleRelease, gesture.RuleGrab,
				gesture.RuleClick, gesture.RuleScroll, gesture.RuleMove,
				gesture.RuleHotkeys,
			},
			Hotkeys: []gesture.Hotkey{
				{
					Name:     "minimize",
					Digests:  []gesture.Digest{gesture.MustDigest("10001")},
					Keys:     []string{"cmd", "m"},
					Cooldown: 1500 * time.Millisecond,
				},
				{
					// Not 11001: index up with middle down is always a move.
					Name:     "close",
					Digests:  []gesture.Digest{gesture.MustDigest("10011")},
					Keys:     []string{"ctrl", "w"},
					Cooldown: 2 * time.Second,
				},
			},
			ClickDistance: 20,
			Inset:         100,
			Smoothing:     9,
		},
		{
			ID:            Normal,
			Name:          "Normal",
			Description:   "Cursor and click only",
			Rules:         []gesture.RuleName{gesture.RuleClick, gesture.RuleMove},
			ClickDistance: 20,
			Inset:         100,
			Smoothing:     9,
		},
		{
			ID:          Presentation,
			Name:        "Presentation",
			Description: "Slide navigation",
			Rules:       []gesture.RuleName{gesture.RuleExit, gesture.RuleHotkeys},
			Hotkeys: []gesture.Hotkey{
				{
					Name:     "next",
					Digests:  []gesture.Digest{gesture.MustDigest("01100")},
					Keys:     []string{"right"},
					Cooldown: 1500 * time.Millisecond,
				},
				{
					Name:     "previous",
					Digests:  []gesture.Digest{gesture.MustDigest("01110")},
					Keys:     []string{"left"},
					Cooldown: 1500 * time.Millisecond,
				},
			},
			Inset:     100,
			Smoothing: 9,
		},
		{
			ID:          Gaming,
			Name:        "Gaming",
			Description: "Fast cursor with click and drag",
			Rules: []gesture.RuleName{
				gesture.RuleExit, gesture.RuleRelease, gesture.RuleGrab,
				gesture.RuleClick, gesture.RuleMove,
			},
			MoveIndexOnly: true,
			ClickDistance: 15,
			Inset:         120,
			Smoothing:     5,
		},
	}
}

func withDefaults(p Profile) Profile {
	if p.ClickCooldown == 0 {
		p.ClickCooldown = defaultClickCooldown
	}
	if p.ExitDrop == 0 {
		p.ExitDrop = defaultExitDrop
	}
	if p.ScrollRange == 0 {
		p.ScrollRange = defaultScrollRange
	}
	return p
}

// All returns every built-in profile in menu order.
func All() []Profile {
	ps := builtin()
	for i := range ps {
		ps[i] = withDefaults(ps[i])
	}
	return ps
}

// Lookup returns the profile named id.
func Lookup(id string) (Profile, error) {
	for _, p := range All() {
		if string(p.ID) == id {
			return p, nil
		}
	}
	return Profile{}, fmt.Errorf("%w: %q", ErrUnknownMode, id)
}

// IDs returns the ids of every built-in profile.
func IDs() []string {
	ps := builtin()
	ids := make([]string, len(ps))
	for i, p := range ps {
		ids[i] = string(p.ID)
	}
	return ids
}

// Overrides tunes the thresholds of a profile. Nil fields keep the built-in
// value. Rules and hotkeys cannot be overridden.
type Overrides struct {
	ClickDistance *float64       `yaml:"click_distance"`
	ClickCooldown *time.Duration `yaml:"click_cooldown"`
	ExitDrop      *float64       `yaml:"exit_drop"`
	Inset         *float64       `yaml:"inset"`
	Smoothing     *float64       `yaml:"smoothing"`
	FingerMargin  *float64       `yaml:"finger_margin"`
}

// With returns a copy of p with o applied.
func (p Profile) With(o Overrides) Profile {
	if o.ClickDistance != nil {
		p.ClickDistance = *o.ClickDistance
	}
	if o.ClickCooldown != nil {
		p.ClickCooldown = *o.ClickCooldown
	}
	if o.ExitDrop != nil {
		p.ExitDrop = *o.ExitDrop
	}
	if o.Inset != nil {
		p.Inset = *o.Inset
	}
	if o.Smoothing != nil {
		p.Smoothing = *o.Smoothing
	}
	if o.FingerMargin != nil {
		p.FingerMargin = *o.FingerMargin
	}
	return p
}

// Validate checks that o does not produce an unusable profile.
func (o Overrides) Validate() error {
	if o.Smoothing != nil && *o.Smoothing < 1 {
		return fmt.Errorf("smoothing must be at least 1, got %v", *o.Smoothing)
	}
	if o.Inset != nil && *o.Inset < 0 {
		return fmt.Errorf("inset must not be negative, got %v", *o.Inset)
	}
	if o.ClickDistance != nil && *o.ClickDistance <= 0 {
		return fmt.Errorf("click distance must be positive, got %v", *o.ClickDistance)
	}
	if o.ExitDrop != nil && *o.ExitDrop <= 0 {
		return fmt.Errorf("exit drop must be positive, got %v", *o.ExitDrop)
	}
	if o.ClickCooldown != nil && *o.ClickCooldown < 0 {
		return fmt.Errorf("click cooldown must not be negative, got %v", *o.ClickCooldown)
	}
	if o.FingerMargin != nil && *o.FingerMargin < 0 {
		return fmt.Errorf("finger margin must not be negative, got %v", *o.FingerMargin)
	}
	return nil
}
