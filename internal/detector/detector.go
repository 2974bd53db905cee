package detector

import "gocv.io/x/gocv"

// Detector defines the interface for hand landmark sources.
type Detector interface {
	// Detect analyzes a video frame and returns detected hands in pixel space.
	// An empty slice means no hand was found, which is not an error.
	Detect(frame *gocv.Mat) ([]HandLandmarks, error)

	// Close releases any resources held by the detector.
	Close() error
}

// Config holds configuration options for hand detection.
type Config struct {
	// MaxHands is the maximum number of hands to detect. The pointer pipeline
	// only ever looks at the first one.
	MaxHands int

	// MinConfidence is the minimum detection confidence threshold (0.0-1.0).
	MinConfidence float64

	// MinTrackingConf is the minimum tracking confidence threshold (0.0-1.0).
	MinTrackingConf float64

	// ScriptPath points at the landmark helper. Empty searches the usual
	// install locations.
	ScriptPath string

	// Python is the interpreter running the helper. Empty prefers a nearby
	// virtualenv and falls back to python3.
	Python string
}

// DefaultConfig returns a Config tuned for single-hand pointer control.
func DefaultConfig() Config {
	return Config{
		MaxHands:        1,
		MinConfidence:   0.5,
		MinTrackingConf: 0.5,
	}
}
