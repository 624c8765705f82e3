// Copyright (c) 2026, AT&T Intellectual Property.
// All rights reserved.
//
// SPDX-License-Identifier: MPL-2.0

package tree

import (
	"errors"
	"fmt"

	"github.com/danos/datatree/data"
	"github.com/danos/datatree/internal/metrics"
	"github.com/danos/datatree/schema"
)

var (
	// ErrInvalidPath is returned when a path that must exist does not.
	ErrInvalidPath = errors.New("invalid path")

	// ErrSchemaValidation is matched by every *ValidationError.
	ErrSchemaValidation = errors.New("schema validation failed")

	// ErrConflictingModification is returned when a modification
	// prepared against an older snapshot touches data that changed
	// since.
	ErrConflictingModification = errors.New("conflicting modification")

	// ErrNotReady is returned when a modification that has not been
	// sealed with Ready is applied.
	ErrNotReady = errors.New("modification not ready")

	// ErrStaleVersion is returned when a snapshot is asked to apply a
	// modification at a version that is not newer than its own.
	ErrStaleVersion = errors.New("stale version")

	// ErrSealed is returned when a sealed modification is changed.
	ErrSealed = errors.New("modification already sealed")

	// ErrUnknownNode is returned for paths the schema does not know.
	ErrUnknownNode = schema.ErrUnknownNode

	// ErrInvalidInstanceID is returned for malformed path strings.
	ErrInvalidInstanceID = data.ErrInvalidInstanceID
)

// Constraints reported by ValidationError.
const (
	ConstraintShape       = "shape"
	ConstraintType        = "type"
	ConstraintKey         = "key"
	ConstraintMandatory   = "mandatory"
	ConstraintMinElements = "min-elements"
	ConstraintMaxElements = "max-elements"
	ConstraintChoice      = "choice"
	ConstraintConfig      = "config"
	ConstraintExistence   = "existence"
)

// ValidationError describes a modification that violates the schema.
type ValidationError struct {
	Path       *data.InstanceID
	Constraint string
	Reason     string
}

func validationErrorf(
	path *data.InstanceID, constraint, format string, args ...interface{},
) *ValidationError {
	metrics.ValidationFailures.WithLabelValues(constraint).Inc()
	return &ValidationError{
		Path:       path,
		Constraint: constraint,
		Reason:     fmt.Sprintf(format, args...),
	}
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("%s at %s: %s", ErrSchemaValidation, e.Path, e.Reason)
}

// Is makes errors.Is(err, ErrSchemaValidation) match.
func (e *ValidationError) Is(target error) bool {
	return target == ErrSchemaValidation
}
