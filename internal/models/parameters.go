package models

import (
	"errors"
	"fmt"
)

// ErrInvalidParameters is returned when run parameters do not fit a model.
var ErrInvalidParameters = errors.New("invalid model parameters")

// ModelParameters holds run options for a model selection. Besides the common
// options, at most one type-specific block may be set and it must match the
// selected model's type.
type ModelParameters struct {
	ConfidenceThreshold *float64 `json:"confidenceThreshold,omitempty"`
	BatchSize           *int     `json:"batchSize,omitempty"`
	UseGPU              *bool    `json:"useGPU,omitempty"`

	Classification *ClassificationParameters `json:"classification,omitempty"`
	Segmentation   *SegmentationParameters   `json:"segmentation,omitempty"`
	Detection      *DetectionParameters      `json:"detection,omitempty"`
}

// ClassificationParameters are options for classification models.
type ClassificationParameters struct {
	TopK int `json:"topK"`
}

// SegmentationParameters are options for segmentation models.
type SegmentationParameters struct {
	MaskThreshold float64  `json:"maskThreshold"`
	Labels        []string `json:"labels,omitempty"`
}

// DetectionParameters are options for detection models.
type DetectionParameters struct {
	IoUThreshold  float64 `json:"iouThreshold"`
	MaxDetections int     `json:"maxDetections"`
}

// ValidateFor checks the parameters against a model type.
func (p *ModelParameters) ValidateFor(t ModelType) error {
	if p == nil {
		return nil
	}
	if p.ConfidenceThreshold != nil && (*p.ConfidenceThreshold < 0 || *p.ConfidenceThreshold > 1) {
		return fmt.Errorf("%w: confidenceThreshold must be within [0, 1]", ErrInvalidParameters)
	}
	if p.BatchSize != nil && *p.BatchSize < 1 {
		return fmt.Errorf("%w: batchSize must be at least 1", ErrInvalidParameters)
	}

	blocks := []struct {
		typ ModelType
		set bool
	}{
		{ModelTypeClassification, p.Classification != nil},
		{ModelTypeSegmentation, p.Segmentation != nil},
		{ModelTypeDetection, p.Detection != nil},
	}
	for _, b := range blocks {
		if b.set && b.typ != t {
			return fmt.Errorf("%w: %s options given for a %s model", ErrInvalidParameters, b.typ, t)
		}
	}

	switch {
	case p.Classification != nil:
		if p.Classification.TopK < 1 {
			return fmt.Errorf("%w: classification.topK must be at least 1", ErrInvalidParameters)
		}
	case p.Segmentation != nil:
		if p.Segmentation.MaskThreshold < 0 || p.Segmentation.MaskThreshold > 1 {
			return fmt.Errorf("%w: segmentation.maskThreshold must be within [0, 1]", ErrInvalidParameters)
		}
	case p.Detection != nil:
		if p.Detection.IoUThreshold < 0 || p.Detection.IoUThreshold > 1 {
			return fmt.Errorf("%w: detection.iouThreshold must be within [0, 1]", ErrInvalidParameters)
		}
		if p.Detection.MaxDetections < 1 {
			return fmt.Errorf("%w: detection.maxDetections must be at least 1", ErrInvalidParameters)
		}
	}
	return nil
}
