package domain

import (
	"errors"
	"fmt"
)

// Sentinel errors for the pipeline and storage taxonomy. Callers match with
// errors.Is; the typed variants below carry context.
var (
	ErrSchema            = errors.New("required columns missing")
	ErrSourceUnavailable = errors.New("source unavailable")
	ErrReferenceNotFound = errors.New("reference record not found")
	ErrDivision          = errors.New("reference metric is zero")
)

// SchemaError reports which required columns were absent from the storage
// shape. Per-row missing values are filtered, not errored.
type SchemaError struct {
	Missing []string
}

func (e SchemaError) Error() string {
	return fmt.Sprintf("required columns missing: %v", e.Missing)
}

func (e SchemaError) Is(target error) bool {
	return target == ErrSchema
}

// SourceUnavailableError wraps a storage read failure.
type SourceUnavailableError struct {
	Path string
	Err  error
}

func (e SourceUnavailableError) Error() string {
	return fmt.Sprintf("source %q unavailable: %v", e.Path, e.Err)
}

func (e SourceUnavailableError) Is(target error) bool {
	return target == ErrSourceUnavailable
}

func (e SourceUnavailableError) Unwrap() error {
	return e.Err
}

// ReferenceNotFoundError reports a failed reference selection.
type ReferenceNotFoundError struct {
	Policy string
	Title  string
}

func (e ReferenceNotFoundError) Error() string {
	if e.Title != "" {
		return fmt.Sprintf("reference record not found: policy %s, title %q", e.Policy, e.Title)
	}
	return fmt.Sprintf("reference record not found: policy %s, no eligible records", e.Policy)
}

func (e ReferenceNotFoundError) Is(target error) bool {
	return target == ErrReferenceNotFound
}

// DivisionError reports a zero reference metric. Cohort filtering keeps
// zero-metric records out, so normalization never reaches this in practice.
type DivisionError struct {
	Metric string
}

func (e DivisionError) Error() string {
	return fmt.Sprintf("reference metric %s is zero", e.Metric)
}

func (e DivisionError) Is(target error) bool {
	return target == ErrDivision
}
