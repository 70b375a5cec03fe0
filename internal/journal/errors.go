package journal

import "errors"

// Configuration errors
var (
	ErrInvalidDriver         = errors.New("invalid journal driver")
	ErrMissingHost           = errors.New("journal database host is required")
	ErrMissingDatabase       = errors.New("journal database name is required")
	ErrMissingUsername       = errors.New("journal database username is required")
	ErrInvalidPort           = errors.New("invalid journal database port")
	ErrInvalidMaxOpenConns   = errors.New("max open connections must be >= 0")
	ErrInvalidTimeout        = errors.New("timeout must be positive")
	ErrInvalidSubscriberSize = errors.New("subscriber buffer must be > 0")
)
