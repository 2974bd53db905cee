package gesture

import (
	"fmt"

	"github.com/ayusman/gesturemouse/internal/detector"
)

// Finger positions within a Digest.
const (
	Thumb = iota
	Index
	Middle
	Ring
	Pinky
)

// Digest records which fingers are extended: thumb, index, middle, ring, pinky.
type Digest [5]bool

// ParseDigest reads a five-character 0/1 pattern such as "01100".
func ParseDigest(pattern string) (Digest, error) {
	var d Digest
	if len(pattern) != len(d) {
		return d, fmt.Errorf("digest %q: want %d characters", pattern, len(d))
	}
	for i := range d {
		switch pattern[i] {
		case '1':
			d[i] = true
		case '0':
		default:
			return Digest{}, fmt.Errorf("digest %q: invalid character %q", pattern, pattern[i])
		}
	}
	return d, nil
}

// MustDigest is ParseDigest for literal patterns; it panics on a bad pattern.
func MustDigest(pattern string) Digest {
	d, err := ParseDigest(pattern)
	if err != nil {
		panic(err)
	}
	return d
}

func (d Digest) String() string {
	b := make([]byte, len(d))
	for i, up := range d {
		b[i] = '0'
		if up {
			b[i] = '1'
		}
	}
	return string(b)
}

// fingerJoints pairs each non-thumb fingertip with the middle joint it is
// compared against.
var fingerJoints = [...]struct{ finger, tip, joint int }{
	{Index, detector.IndexTip, detector.IndexPIP},
	{Middle, detector.MiddleTip, detector.MiddlePIP},
	{Ring, detector.RingTip, detector.RingPIP},
	{Pinky, detector.PinkyTip, detector.PinkyPIP},
}

// ComputeDigest derives the finger digest from a hand.
//
// A finger is extended when its tip is more than margin pixels above its
// middle joint. The thumb compares tip and IP joint horizontally, with the
// sign flipped for a left hand. A finger whose landmarks are missing reads as
// curled.
func ComputeDigest(hand *detector.HandLandmarks, margin float64) Digest {
	var d Digest

	if tip, ok := hand.Point(detector.ThumbTip); ok {
		if ip, ok := hand.Point(detector.ThumbIP); ok {
			if hand.Handedness == detector.Left {
				d[Thumb] = tip.X < ip.X-margin
			} else {
				d[Thumb] = tip.X > ip.X+margin
			}
		}
	}

	for _, f := range fingerJoints {
		tip, ok := hand.Point(f.tip)
		if !ok {
			continue
		}
		joint, ok := hand.Point(f.joint)
		if !ok {
			continue
		}
		d[f.finger] = tip.Y < joint.Y-margin
	}

	return d
}

// Aux holds the per-frame scalars the classifier uses besides the digest.
type Aux struct {
	// PinchDistance is the pixel distance between index and middle fingertips.
	PinchDistance float64
	HasPinch      bool

	// ThumbDrop is how far the thumb tip sits below its base joint; positive
	// means pointing down.
	ThumbDrop float64
	HasThumb  bool
}

// ComputeAux measures the auxiliary scalars for a hand.
func ComputeAux(hand *detector.HandLandmarks) Aux {
	var aux Aux

	aux.PinchDistance, aux.HasPinch = hand.Distance(detector.IndexTip, detector.MiddleTip)

	tip, tipOK := hand.Point(detector.ThumbTip)
	base, baseOK := hand.Point(detector.ThumbIP)
	if tipOK && baseOK {
		aux.ThumbDrop = tip.Y - base.Y
		aux.HasThumb = true
	}

	return aux
}
