package models

import "time"

// ModelType is the kind of inference a model performs.
type ModelType string

const (
	ModelTypeClassification ModelType = "classification"
	ModelTypeSegmentation   ModelType = "segmentation"
	ModelTypeDetection      ModelType = "detection"
	ModelTypeCustom         ModelType = "custom"
)

// Valid reports whether t is one of the known model types.
func (t ModelType) Valid() bool {
	switch t {
	case ModelTypeClassification, ModelTypeSegmentation, ModelTypeDetection, ModelTypeCustom:
		return true
	}
	return false
}

// ModelStatus represents the availability of a model.
type ModelStatus string

const (
	ModelStatusAvailable   ModelStatus = "available"
	ModelStatusLoading     ModelStatus = "loading"
	ModelStatusUnavailable ModelStatus = "unavailable"
	ModelStatusError       ModelStatus = "error"
)

// Valid reports whether s is one of the known model statuses.
func (s ModelStatus) Valid() bool {
	switch s {
	case ModelStatusAvailable, ModelStatusLoading, ModelStatusUnavailable, ModelStatusError:
		return true
	}
	return false
}

// InputSize is the pixel resolution a model expects.
type InputSize struct {
	Width  int `json:"width" yaml:"width" msgpack:"width"`
	Height int `json:"height" yaml:"height" msgpack:"height"`
}

// AIModel describes an inference model available to the dashboard.
type AIModel struct {
	ID            string      `json:"id" yaml:"id" msgpack:"id"`
	Name          string      `json:"name" yaml:"name" msgpack:"name"`
	Description   string      `json:"description" yaml:"description" msgpack:"description"`
	Type          ModelType   `json:"type" yaml:"type" msgpack:"type"`
	Version       string      `json:"version" yaml:"version" msgpack:"version"`
	Status        ModelStatus `json:"status" yaml:"status" msgpack:"status"`
	Capabilities  []string    `json:"capabilities" yaml:"capabilities" msgpack:"capabilities"`
	InputSize     InputSize   `json:"inputSize" yaml:"input_size" msgpack:"inputSize"`
	FileSize      float64     `json:"fileSize" yaml:"file_size" msgpack:"fileSize"` // MB
	Accuracy      *float64    `json:"accuracy,omitempty" yaml:"accuracy,omitempty" msgpack:"accuracy,omitempty"`
	InferenceTime *int        `json:"inferenceTime,omitempty" yaml:"inference_time,omitempty" msgpack:"inferenceTime,omitempty"` // ms
	Diseases      []string    `json:"diseases,omitempty" yaml:"diseases,omitempty" msgpack:"diseases,omitempty"`
	LastUpdated   time.Time   `json:"lastUpdated" yaml:"last_updated" msgpack:"lastUpdated"`
	Author        string      `json:"author,omitempty" yaml:"author,omitempty" msgpack:"author,omitempty"`
	IsLocal       bool        `json:"isLocal" yaml:"is_local" msgpack:"isLocal"`
}

// ModelCategory groups catalog models sharing a type.
type ModelCategory struct {
	ID          ModelType `json:"id" msgpack:"id"`
	Name        string    `json:"name" msgpack:"name"`
	Description string    `json:"description" msgpack:"description"`
	Models      []AIModel `json:"models" msgpack:"models"`
}

// ModelSelection is a user's choice of model and run parameters.
type ModelSelection struct {
	ModelID    string           `json:"modelId"`
	Model      AIModel          `json:"model"`
	SelectedAt time.Time        `json:"selectedAt"`
	Parameters *ModelParameters `json:"parameters,omitempty"`
}
