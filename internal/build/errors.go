package build

import "errors"

var (
	ErrConfiguration  = errors.New("invalid build configuration")
	ErrStage          = errors.New("stage execution failed")
	ErrNotImplemented = errors.New("not implemented")
)
