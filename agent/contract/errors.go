package contract

import "errors"

var (
	ErrModelInvoke     = errors.New("model invoke failed")
	ErrSchemaViolation = errors.New("model response violates schema")
	ErrValidation      = errors.New("validation failed")
	ErrNoOutput        = errors.New("dispatch produced no output")
	ErrCodec           = errors.New("speech codec failed")
)
