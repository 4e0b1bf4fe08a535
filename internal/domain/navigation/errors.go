package navigation

import "errors"

// Sentinel kinds for route table construction errors.
var (
	ErrInvalidRoute = errors.New("invalid route")
	ErrRedirectLoop = errors.New("redirect loop")
	ErrNoFallback   = errors.New("route table has no wildcard fallback")
)
