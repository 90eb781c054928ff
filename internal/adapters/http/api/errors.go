package api

import "errors"

// Sentinel kinds for API errors.
var (
	ErrServe           = errors.New("api setup failed")
	ErrBadRequest      = errors.New("bad request")
	ErrPayloadTooLarge = errors.New("payload too large")
	ErrNoModel         = errors.New("no model loaded")
)

// Error codes carried in JSON error bodies.
const (
	codeInvalidJSON     = "invalid_json"
	codeInvalidRequest  = "invalid_request"
	codeOutOfRange      = "out_of_range"
	codeNotFinite       = "not_finite"
	codeUnknownField    = "unknown_field"
	codePayloadTooLarge = "payload_too_large"
	codeNoModel         = "no_model"
	codeInternal        = "internal"
)
