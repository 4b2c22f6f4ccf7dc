package repository

import "errors"

// ErrStaleVersion indicates an optimistic-concurrency guard rejected the write.
var ErrStaleVersion = errors.New("record version is stale")
