package domain

import (
	"errors"
	"fmt"
	"strings"
)

var (
	ErrNotFound = errors.New("resource not found")

	// ErrValidation marks bad or missing input to a stage.
	ErrValidation = errors.New("validation error")
	// ErrProvider marks transient provider failures (network, quota,
	// rate limit, timeout, bad credential).
	ErrProvider = errors.New("provider error")
	// ErrEmptyResult marks a provider call that succeeded but returned
	// no usable content.
	ErrEmptyResult = errors.New("empty result")
	// ErrPersistence marks a failed store operation.
	ErrPersistence = errors.New("persistence error")
	// ErrAssembly marks a single subtitle that failed to persist.
	ErrAssembly = errors.New("assembly error")
)

// WrapError tags err with one of the sentinel markers above, adding stage
// and operation context so failure messages stay human readable.
func WrapError(marker error, stage, message string, err error) error {
	detail := buildDetail(stage, message)
	if marker == nil {
		marker = ErrProvider
	}
	if err != nil {
		return fmt.Errorf("%w: %s: %w", marker, detail, err)
	}
	return fmt.Errorf("%w: %s", marker, detail)
}

func buildDetail(stage, message string) string {
	parts := make([]string, 0, 2)
	if stage = strings.TrimSpace(stage); stage != "" {
		parts = append(parts, stage)
	}
	if message = strings.TrimSpace(message); message != "" {
		parts = append(parts, message)
	}
	if len(parts) == 0 {
		return "stage failure"
	}
	return strings.Join(parts, ": ")
}
