package pose

import (
	"errors"
	"fmt"
	"time"
)

// ErrNoPose is returned when a frame carries no detected pose.
var ErrNoPose = errors.New("frame has no pose")

// #region keypoint
// Position is a keypoint location in image space. Z is zero for 2D estimators.
type Position struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
	Z float64 `json:"z,omitempty"`
}

// Keypoint is a named anatomical landmark with the estimator's confidence.
type Keypoint struct {
	Part     string   `json:"part"`
	Score    float64  `json:"score"`
	Position Position `json:"position"`
}

// #endregion keypoint

// #region pose
// Pose is one detected body.
type Pose struct {
	Score     float64    `json:"score"`
	Keypoints []Keypoint `json:"keypoints"`
}

// Frame is one output of the pose estimator.
type Frame struct {
	CapturedAt time.Time `json:"captured_at"`
	Poses      []Pose    `json:"poses"`
}

// #endregion pose

// #region feature-mode
// FeatureMode selects which keypoint fields become classifier features.
type FeatureMode string

const (
	FeatureXY      FeatureMode = "xy"       // [x, y] per keypoint
	FeatureScoreXY FeatureMode = "score_xy" // [score, x, y] per keypoint
	FeatureXYZ     FeatureMode = "xyz"      // [x, y, z] per keypoint
)

// ParseFeatureMode validates a config value. Empty selects FeatureScoreXY.
func ParseFeatureMode(s string) (FeatureMode, error) {
	switch FeatureMode(s) {
	case "":
		return FeatureScoreXY, nil
	case FeatureXY, FeatureScoreXY, FeatureXYZ:
		return FeatureMode(s), nil
	}
	return "", fmt.Errorf("unknown feature mode %q (want xy, score_xy or xyz)", s)
}

// Width returns the number of features produced per keypoint.
func (m FeatureMode) Width() int {
	if m == FeatureXY {
		return 2
	}
	return 3
}

// #endregion feature-mode
