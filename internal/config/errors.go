package config

import "github.com/dfilippo/lavoro/internal/apperr"

var (
	errConfigOption = &apperr.Error{
		Message: "config option error",
	}

	errConfigValidation = &apperr.Error{
		Message: "config validation error",
	}

	errInvalidRounding = &apperr.Error{
		Message: "unknown rounding rule: %s (must be one of %v)",
	}

	errInvalidCurrency = &apperr.Error{
		Message: "currency must be a three-letter ISO code (e.g. EUR), got %s",
	}

	errNegativeBreak = &apperr.Error{
		Message: "default break minutes cannot be negative, got %d",
	}

	errMissingBucket = &apperr.Error{
		Message: "sync is enabled but sync.bucket is not set",
	}
)
