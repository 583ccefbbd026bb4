package domain

import "errors"

var (
	ErrUpstreamUnavailable = errors.New("upstream unavailable")
	ErrUnsupportedMedia    = errors.New("unsupported media type")
)
