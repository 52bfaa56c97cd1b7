package service

import "errors"

// ErrOutputWrite marks a failure writing an output file. It always aborts the
// run since rows already on disk can no longer be trusted.
var ErrOutputWrite = errors.New("output write failed")
