package classifier

import (
	"errors"
)

// Sentinel error kinds for this package. These allow errors.Is/As from callers.
var (
	ErrLoad            = errors.New("load model failed")
	ErrUnknownFormat   = errors.New("unknown model format")
	ErrUnsupported     = errors.New("unsupported model")
	ErrColumnMismatch  = errors.New("model feature columns do not match")
	ErrPredict         = errors.New("predict failed")
	ErrRuntimeNotReady = errors.New("onnx runtime not initialized")
)
