package profile

import (
	"errors"
	"testing"
	"time"

	"github.com/ayusman/gesturemouse/internal/detector"
	"github.com/ayusman/gesturemouse/internal/gesture"
)

func TestLookup(t *testing.T) {
	tests := []struct {
		id            string
		clickDistance float64
		inset         float64
		smoothing     float64
		rules         int
	}{
		{"gesture", 20, 100, 9, 7},
		{"normal", 20, 100, 9, 2},
		{"presentation", 0, 100, 9, 2},
		{"gaming", 15, 120, 5, 5},
	}

	for _, tt := range tests {
		t.Run(tt.id, func(t *testing.T) {
			p, err := Lookup(tt.id)
			if err != nil {
				t.Fatalf("Lookup(%q) error: %v", tt.id, err)
			}
			if string(p.ID) != tt.id {
				t.Errorf("ID = %q, want %q", p.ID, tt.id)
			}
			if p.ClickDistance != tt.clickDistance {
				t.Errorf("ClickDistance = %v, want %v", p.ClickDistance, tt.clickDistance)
			}
			if p.Inset != tt.inset {
				t.Errorf("Inset = %v, want %v", p.Inset, tt.inset)
			}
			if p.Smoothing != tt.smoothing {
				t.Errorf("Smoothing = %v, want %v", p.Smoothing, tt.smoothing)
			}
			if len(p.Rules) != tt.rules {
				t.Errorf("len(Rules) = %d, want %d", len(p.Rules), tt.rules)
			}
			if p.ClickCooldown != 250*time.Millisecond {
				t.Errorf("ClickCooldown = %v, want 250ms", p.ClickCooldown)
			}
			if p.ExitDrop != 40 || p.ScrollRange != 15 {
				t.Errorf("ExitDrop, ScrollRange = %v, %v, want 40, 15", p.ExitDrop, p.ScrollRange)
			}
		})
	}
}

func TestLookup_Unknown(t *testing.T) {
	_, err := Lookup("karaoke")
	if !errors.Is(err, ErrUnknownMode) {
		t.Errorf("Lookup(karaoke) error = %v, want ErrUnknownMode", err)
	}
}

func TestNormalHasNoExit(t *testing.T) {
	p, _ := Lookup("normal")
	if p.Has(gesture.RuleExit) {
		t.Error("normal mode should not have an exit gesture")
	}
	if !p.Has(gesture.RuleClick) || !p.Has(gesture.RuleMove) {
		t.Error("normal mode should click and move")
	}
}

func TestGamingMovesOnIndexOnly(t *testing.T) {
	p, _ := Lookup("gaming")
	if !p.MoveIndexOnly {
		t.Error("gaming should move whenever the index finger is up")
	}
	if p.Has(gesture.RuleScroll) || p.Has(gesture.RuleHotkeys) {
		t.Error("gaming should not scroll or send hotkeys")
	}
}

func TestPresentationHotkeys(t *testing.T) {
	p, _ := Lookup("presentation")

	c := gesture.NewClassifier(p.ClassifierConfig())
	now := time.Now()

	tests := []struct {
		digest string
		keys   string
	}{
		{"01100", "right"},
		{"01110", "left"},
	}

	for _, tt := range tests {
		t.Run(tt.digest, func(t *testing.T) {
			a, rule := c.Classify(handInput(detector.Pose{Fingers: detector.Fingers(tt.digest)}, p, now))
			if rule != gesture.RuleHotkeys || a.Kind != gesture.KindKeyCombo {
				t.Fatalf("Classify(%s) = %v via %q, want key combo", tt.digest, a, rule)
			}
			if len(a.Keys) != 1 || a.Keys[0] != tt.keys {
				t.Errorf("Keys = %v, want [%s]", a.Keys, tt.keys)
			}
			if a.Cooldown != 1500*time.Millisecond {
				t.Errorf("Cooldown = %v, want 1.5s", a.Cooldown)
			}
		})
	}
}

// handInput classifies a synthetic hand the way the frame pipeline does.
func handInput(pose detector.Pose, p Profile, now time.Time) gesture.Input {
	if pose.IndexX == 0 && pose.IndexY == 0 {
		pose.IndexX, pose.IndexY = 320, 240
	}
	hand := detector.PoseLandmarks(pose)
	in := gesture.Input{
		Digest:      gesture.ComputeDigest(&hand, p.FingerMargin),
		Aux:         gesture.ComputeAux(&hand),
		FrameHeight: 480,
		State:       idleState{},
		Now:         now,
	}
	if tip, ok := hand.Point(detector.IndexTip); ok {
		in.IndexX, in.IndexY, in.HasIndex = tip.X, tip.Y, true
	}
	return in
}

func TestGestureTable(t *testing.T) {
	p, _ := Lookup("gesture")
	c := gesture.NewClassifier(p.ClassifierConfig())
	now := time.Now()

	tests := []struct {
		name  string
		pose  detector.Pose
		rule  gesture.RuleName
		kind  gesture.Kind
		combo string
	}{
		{"point", detector.Pose{Fingers: detector.Fingers("01000")}, gesture.RuleMove, gesture.KindMove, ""},
		{"pinch", detector.Pose{Fingers: detector.Fingers("01100"), Pinch: 15}, gesture.RuleClick, gesture.KindClick, ""},
		{"two fingers apart", detector.Pose{Fingers: detector.Fingers("01100"), Pinch: 40}, gesture.RuleScroll, gesture.KindScroll, ""},
		{"fist", detector.Pose{Fingers: detector.Fingers("00000")}, gesture.RuleGrab, gesture.KindDragStart, ""},
		{"open hand", detector.Pose{Fingers: detector.Fingers("11111")}, gesture.RuleRelease, gesture.KindDragEnd, ""},
		{"thumb down", detector.Pose{Fingers: detector.Fingers("01000"), ThumbDown: true}, gesture.RuleExit, gesture.KindExit, ""},
		{"thumb and pinky", detector.Pose{Fingers: detector.Fingers("10001")}, gesture.RuleHotkeys, gesture.KindKeyCombo, "keys:cmd+m"},
		{"thumb ring pinky", detector.Pose{Fingers: detector.Fingers("10011")}, gesture.RuleHotkeys, gesture.KindKeyCombo, "keys:ctrl+w"},
		{"thumb index pinky", detector.Pose{Fingers: detector.Fingers("11001")}, gesture.RuleMove, gesture.KindMove, ""},
		{"left thumb and pinky", detector.Pose{Fingers: detector.Fingers("10001"), Handedness: detector.Left}, gesture.RuleHotkeys, gesture.KindKeyCombo, "keys:cmd+m"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			a, rule := c.Classify(handInput(tt.pose, p, now))
			if rule != tt.rule || a.Kind != tt.kind {
				t.Fatalf("Classify() = %v via %q, want %s via %q", a, rule, tt.kind, tt.rule)
			}
			if tt.combo != "" && a.CooldownKey() != tt.combo {
				t.Errorf("CooldownKey() = %q, want %q", a.CooldownKey(), tt.combo)
			}
		})
	}
}

// Every hotkey pose a profile lists must reach the hotkey rule.
func TestHotkeysReachable(t *testing.T) {
	now := time.Now()
	for _, p := range All() {
		c := gesture.NewClassifier(p.ClassifierConfig())
		for _, hk := range p.Hotkeys {
			for _, d := range hk.Digests {
				var fingers [5]bool
				copy(fingers[:], d[:])
				a, rule := c.Classify(handInput(detector.Pose{Fingers: fingers}, p, now))
				if rule != gesture.RuleHotkeys || a.Kind != gesture.KindKeyCombo {
					t.Errorf("%s/%s digest %s: %v via %q, want key combo", p.ID, hk.Name, d, a, rule)
				}
			}
		}
	}
}

func TestWith(t *testing.T) {
	p, _ := Lookup("gesture")
	click := 30.0
	smoothing := 4.0

	got := p.With(Overrides{ClickDistance: &click, Smoothing: &smoothing})
	if got.ClickDistance != 30 || got.Smoothing != 4 {
		t.Errorf("With() = click %v, smoothing %v", got.ClickDistance, got.Smoothing)
	}
	if got.Inset != p.Inset {
		t.Errorf("Inset changed to %v", got.Inset)
	}
	if p.ClickDistance != 20 {
		t.Error("With() must not modify the receiver")
	}
}

func TestOverridesValidate(t *testing.T) {
	bad := 0.5
	if err := (Overrides{Smoothing: &bad}).Validate(); err == nil {
		t.Error("smoothing 0.5 should be rejected")
	}
	neg := -1.0
	if err := (Overrides{Inset: &neg}).Validate(); err == nil {
		t.Error("negative inset should be rejected")
	}
	if err := (Overrides{}).Validate(); err != nil {
		t.Errorf("empty overrides: %v", err)
	}
}

func TestClassifierConfigCopies(t *testing.T) {
	p, _ := Lookup("gesture")
	cfg := p.ClassifierConfig()
	cfg.Rules[0] = gesture.RuleMove

	again, _ := Lookup("gesture")
	if again.Rules[0] != gesture.RuleExit {
		t.Error("ClassifierConfig() should not share the rule slice")
	}
	if len(IDs()) != 4 {
		t.Errorf("IDs() = %v", IDs())
	}
}

type idleState struct{}

func (idleState) DragHeld() bool { return false }
func (idleState) CoolingDown(string, time.Time) bool { return false }
