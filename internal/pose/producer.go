package pose

// #region producer

// Producer flattens the first pose of a frame into a classifier feature vector.
type Producer struct {
	mode FeatureMode
}

// NewProducer creates a Producer for mode. An empty mode selects FeatureScoreXY.
func NewProducer(mode FeatureMode) *Producer {
	if mode == "" {
		mode = FeatureScoreXY
	}
	return &Producer{mode: mode}
}

// Mode returns the active feature mode.
func (p *Producer) Mode() FeatureMode {
	return p.mode
}

// #endregion producer

// #region features

// Features returns the feature vector for the first pose in frame, or ErrNoPose.
// Keypoint order is preserved, so the estimator must emit a fixed skeleton.
func (p *Producer) Features(frame Frame) ([]float64, error) {
	if len(frame.Poses) == 0 || len(frame.Poses[0].Keypoints) == 0 {
		return nil, ErrNoPose
	}
	kps := frame.Poses[0].Keypoints
	out := make([]float64, 0, len(kps)*p.mode.Width())
	for _, kp := range kps {
		switch p.mode {
		case FeatureXY:
			out = append(out, kp.Position.X, kp.Position.Y)
		case FeatureXYZ:
			out = append(out, kp.Position.X, kp.Position.Y, kp.Position.Z)
		default:
			out = append(out, kp.Score, kp.Position.X, kp.Position.Y)
		}
	}
	return out, nil
}

// #endregion features
