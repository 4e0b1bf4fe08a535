package web

import "errors"

// Sentinel kinds for web front-end errors.
var (
	ErrTemplates  = errors.New("page templates could not be loaded")
	ErrNoResponse = errors.New("backend returned no response")
)
