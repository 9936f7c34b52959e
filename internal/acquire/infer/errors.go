package infer

import "errors"

var (
	ErrProviderUnavailable = errors.New("inference provider unavailable")
	ErrInferenceTimeout    = errors.New("inference timeout")
	ErrInvalidResponse     = errors.New("inference provider returned invalid response")
)
