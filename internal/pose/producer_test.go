package pose

import (
	"errors"
	"testing"
)

func twoPointFrame() Frame {
	return Frame{Poses: []Pose{{
		Score: 0.9,
		Keypoints: []Keypoint{
			{Part: "nose", Score: 0.8, Position: Position{X: 10, Y: 20, Z: 1}},
			{Part: "leftEye", Score: 0.7, Position: Position{X: 11, Y: 21, Z: 2}},
		},
	}}}
}

func TestFeatures_Modes(t *testing.T) {
	tests := []struct {
		mode FeatureMode
		want []float64
	}{
		{FeatureXY, []float64{10, 20, 11, 21}},
		{FeatureScoreXY, []float64{0.8, 10, 20, 0.7, 11, 21}},
		{FeatureXYZ, []float64{10, 20, 1, 11, 21, 2}},
	}
	for _, tt := range tests {
		t.Run(string(tt.mode), func(t *testing.T) {
			got, err := NewProducer(tt.mode).Features(twoPointFrame())
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if len(got) != len(tt.want) {
				t.Fatalf("expected %d features, got %d", len(tt.want), len(got))
			}
			for i := range got {
				if got[i] != tt.want[i] {
					t.Errorf("feature %d: expected %v, got %v", i, tt.want[i], got[i])
				}
			}
		})
	}
}

func TestFeatures_UsesFirstPoseOnly(t *testing.T) {
	f := twoPointFrame()
	f.Poses = append(f.Poses, Pose{Keypoints: []Keypoint{{Position: Position{X: 99, Y: 99}}}})
	got, err := NewProducer(FeatureXY).Features(f)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(got) != 4 {
		t.Fatalf("expected 4 features from first pose, got %d", len(got))
	}
}

func TestFeatures_NoPose(t *testing.T) {
	p := NewProducer("")
	if p.Mode() != FeatureScoreXY {
		t.Fatalf("expected default mode score_xy, got %s", p.Mode())
	}
	if _, err := p.Features(Frame{}); !errors.Is(err, ErrNoPose) {
		t.Fatalf("expected ErrNoPose, got %v", err)
	}
	if _, err := p.Features(Frame{Poses: []Pose{{}}}); !errors.Is(err, ErrNoPose) {
		t.Fatalf("expected ErrNoPose for empty keypoints, got %v", err)
	}
}

func TestParseFeatureMode(t *testing.T) {
	if m, err := ParseFeatureMode(""); err != nil || m != FeatureScoreXY {
		t.Fatalf("empty mode: got %s, %v", m, err)
	}
	if _, err := ParseFeatureMode("polar"); err == nil {
		t.Fatal("expected error for unknown mode")
	}
}
