package svc

import "errors"

// ErrNoVenues: neither venue could be constructed from configuration.
var ErrNoVenues = errors.New("no venues configured")

// ErrStorageInitFailed: journal backend initialization failed.
var ErrStorageInitFailed = errors.New("storage initialization failed")
