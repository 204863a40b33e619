package network

import "errors"

// Per-host failures. All of them are recovered by the audit and
// routed to a review bucket.
var (
	ErrUnresolvable = errors.New("hostname does not resolve")
	ErrUnreachable  = errors.New("hostname does not accept connections")
	ErrInspection   = errors.New("certificate inspection failed")
)
