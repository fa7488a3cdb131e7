package services

import "errors"

// ErrInvalidAppID rejects malformed input before any side effect.
var ErrInvalidAppID = errors.New("appid must be a positive integer")
