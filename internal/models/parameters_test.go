package models

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func ptr[T any](v T) *T { return &v }

func TestModelParameters_ValidateFor(t *testing.T) {
	tests := []struct {
		name    string
		params  *ModelParameters
		typ     ModelType
		wantErr bool
	}{
		{"nil parameters", nil, ModelTypeDetection, false},
		{"common only", &ModelParameters{ConfidenceThreshold: ptr(0.5), BatchSize: ptr(4), UseGPU: ptr(true)}, ModelTypeCustom, false},
		{"threshold above one", &ModelParameters{ConfidenceThreshold: ptr(1.5)}, ModelTypeClassification, true},
		{"zero batch", &ModelParameters{BatchSize: ptr(0)}, ModelTypeClassification, true},
		{"classification block", &ModelParameters{Classification: &ClassificationParameters{TopK: 5}}, ModelTypeClassification, false},
		{"topK zero", &ModelParameters{Classification: &ClassificationParameters{}}, ModelTypeClassification, true},
		{"segmentation block", &ModelParameters{Segmentation: &SegmentationParameters{MaskThreshold: 0.4, Labels: []string{"vessel"}}}, ModelTypeSegmentation, false},
		{"mask threshold negative", &ModelParameters{Segmentation: &SegmentationParameters{MaskThreshold: -0.1}}, ModelTypeSegmentation, true},
		{"detection block", &ModelParameters{Detection: &DetectionParameters{IoUThreshold: 0.5, MaxDetections: 10}}, ModelTypeDetection, false},
		{"detection without max", &ModelParameters{Detection: &DetectionParameters{IoUThreshold: 0.5}}, ModelTypeDetection, true},
		{"block for another type", &ModelParameters{Detection: &DetectionParameters{IoUThreshold: 0.5, MaxDetections: 1}}, ModelTypeClassification, true},
		{"block on custom model", &ModelParameters{Classification: &ClassificationParameters{TopK: 1}}, ModelTypeCustom, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.params.ValidateFor(tt.typ)
			if tt.wantErr {
				assert.ErrorIs(t, err, ErrInvalidParameters)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}
