package file

import "errors"

var (
	ErrInvalidConfig      = errors.New("invalid configuration")
	ErrInvalidKey         = errors.New("invalid object key")
	ErrFailedToLoadConfig = errors.New("failed to load AWS config")
	ErrFailedToWriteFile  = errors.New("failed to write file")

	// S3 classification
	ErrBucketNotFound     = errors.New("bucket not found")
	ErrAccessDenied       = errors.New("access denied")
	ErrServiceUnavailable = errors.New("service temporarily unavailable")

	ErrOperationTimeout  = errors.New("operation timed out")
	ErrOperationCanceled = errors.New("operation canceled")
)
