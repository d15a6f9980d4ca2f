package intake

import (
	"path/filepath"
	"slices"

	"github.com/rcm-webdev/insight-lens/internal/models"
)

// Code identifies a rule violation.
type Code string

const (
	FileTooLarge    Code = "FILE_TOO_LARGE"
	UnsupportedType Code = "UNSUPPORTED_TYPE"
	QueueFull       Code = "QUEUE_FULL"
)

// Messages surfaced in ValidationResult.Errors.
const (
	MsgFileTooLarge    = "file too large"
	MsgUnsupportedType = "unsupported type"
	MsgQueueFull       = "queue full"
)

// Violation is one failed admission rule.
type Violation struct {
	Code    Code   `json:"code"`
	Message string `json:"message"`
}

// Check evaluates every admission rule for a file and returns the violations
// in rule order: size, type, capacity. queueLen is the number of files already
// in the queue.
func Check(meta models.FileMetadata, queueLen int, cfg models.UploadConfig) []Violation {
	var violations []Violation

	if meta.Size > cfg.MaxFileSize {
		violations = append(violations, Violation{Code: FileTooLarge, Message: MsgFileTooLarge})
	}

	if !typeAccepted(meta, cfg) {
		violations = append(violations, Violation{Code: UnsupportedType, Message: MsgUnsupportedType})
	}

	if queueLen+1 > cfg.MaxFiles {
		violations = append(violations, Violation{Code: QueueFull, Message: MsgQueueFull})
	}

	return violations
}

// Validate checks a file against cfg and summarises the outcome.
func Validate(meta models.FileMetadata, queueLen int, cfg models.UploadConfig) models.ValidationResult {
	return Result(Check(meta, queueLen, cfg))
}

// Result converts violations into a ValidationResult.
func Result(violations []Violation) models.ValidationResult {
	errs := make([]string, 0, len(violations))
	for _, v := range violations {
		errs = append(errs, v.Message)
	}
	return models.ValidationResult{IsValid: len(violations) == 0, Errors: errs}
}

// typeAccepted passes when either the MIME type or the file extension is in
// the accepted sets. Empty sets accept nothing.
func typeAccepted(meta models.FileMetadata, cfg models.UploadConfig) bool {
	if t := normalizeType(meta.Type); t != "" {
		for _, accepted := range cfg.AcceptedTypes {
			if normalizeType(accepted) == t {
				return true
			}
		}
	}

	ext := normalizeExtension(filepath.Ext(meta.Name))
	if ext == "" {
		return false
	}
	return slices.ContainsFunc(cfg.AcceptedExtensions, func(accepted string) bool {
		return normalizeExtension(accepted) == ext
	})
}
