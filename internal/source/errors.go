package source

import "errors"

var (
	ErrAcquisition        = errors.New("source acquisition failed")
	ErrExhausted          = errors.New("all mirrors exhausted")
	ErrChecksum           = errors.New("checksum verification failed")
	ErrUnsupportedArchive = errors.New("unsupported archive format")
)
