package classifier

import (
	"fmt"

	"google.golang.org/protobuf/types/known/structpb"
)

// #region field-names
const (
	fieldFeatures    = "features"
	fieldLabel       = "label"
	fieldConfidences = "confidences"
	fieldCounts      = "counts"
	fieldRemoved     = "removed"
)

// #endregion field-names

// #region encode
func encodeFeatures(features []float64) []any {
	vals := make([]any, len(features))
	for i, f := range features {
		vals[i] = f
	}
	return vals
}

func exampleRequest(features []float64, label string) (*structpb.Struct, error) {
	return structpb.NewStruct(map[string]any{
		fieldFeatures: encodeFeatures(features),
		fieldLabel:    label,
	})
}

func classifyRequest(features []float64) (*structpb.Struct, error) {
	return structpb.NewStruct(map[string]any{
		fieldFeatures: encodeFeatures(features),
	})
}

func labelRequest(label string) (*structpb.Struct, error) {
	return structpb.NewStruct(map[string]any{fieldLabel: label})
}

func resultMessage(r Result) (*structpb.Struct, error) {
	conf := make(map[string]any, len(r.ConfidencesByLabel))
	for label, c := range r.ConfidencesByLabel {
		conf[label] = c
	}
	return structpb.NewStruct(map[string]any{
		fieldLabel:       r.Label,
		fieldConfidences: conf,
	})
}

func countsMessage(counts map[string]int) (*structpb.Struct, error) {
	m := make(map[string]any, len(counts))
	for label, n := range counts {
		m[label] = n
	}
	return structpb.NewStruct(map[string]any{fieldCounts: m})
}

func removedMessage(n int) (*structpb.Struct, error) {
	return structpb.NewStruct(map[string]any{fieldRemoved: n})
}

// #endregion encode

// #region decode
func decodeFeatures(s *structpb.Struct) ([]float64, error) {
	v, ok := s.GetFields()[fieldFeatures]
	if !ok {
		return nil, fmt.Errorf("missing %q", fieldFeatures)
	}
	list := v.GetListValue()
	if list == nil {
		return nil, fmt.Errorf("%q is not a list", fieldFeatures)
	}
	out := make([]float64, len(list.GetValues()))
	for i, item := range list.GetValues() {
		n, ok := item.GetKind().(*structpb.Value_NumberValue)
		if !ok {
			return nil, fmt.Errorf("%s[%d] is not a number", fieldFeatures, i)
		}
		out[i] = n.NumberValue
	}
	return out, nil
}

func decodeLabel(s *structpb.Struct) string {
	return s.GetFields()[fieldLabel].GetStringValue()
}

func decodeResult(s *structpb.Struct) Result {
	r := Result{
		Label:              decodeLabel(s),
		ConfidencesByLabel: make(map[string]float64),
	}
	for label, v := range s.GetFields()[fieldConfidences].GetStructValue().GetFields() {
		r.ConfidencesByLabel[label] = v.GetNumberValue()
	}
	return r
}

func decodeCounts(s *structpb.Struct) map[string]int {
	counts := make(map[string]int)
	for label, v := range s.GetFields()[fieldCounts].GetStructValue().GetFields() {
		counts[label] = int(v.GetNumberValue())
	}
	return counts
}

func decodeRemoved(s *structpb.Struct) int {
	return int(s.GetFields()[fieldRemoved].GetNumberValue())
}

// #endregion decode
