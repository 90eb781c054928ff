package service

import (
	"errors"
)

// Sentinel error kinds for this package. These allow errors.Is/As from callers.
var (
	ErrNoClassifier    = errors.New("no classifier loaded")
	ErrClassifierPanic = errors.New("classifier panicked")
)
