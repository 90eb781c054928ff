package bom

import "errors"

// Sentinel kinds for BOM errors.
var (
	ErrNoModel = errors.New("no model artifact to describe")
	ErrEncode  = errors.New("encode bom")
)
