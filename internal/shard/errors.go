package shard

import "errors"

// Sentinel errors returned by shard operations. internal/command maps
// these to RESP error prefixes.
var (
	// ErrNotFound is returned by Get when the key is absent or expired.
	ErrNotFound = errors.New("not found")
	// ErrWrongType is returned when an operation targets a key holding
	// an incompatible kind.
	ErrWrongType = errors.New("WRONGTYPE Operation against a key holding the wrong kind of value")
	// ErrNoSuchKey is returned by RENAME when the source key is absent.
	ErrNoSuchKey = errors.New("ERR no such key")
	// ErrNotInteger is returned when an argument expected to parse as an
	// integer does not.
	ErrNotInteger = errors.New("ERR value is not an integer or out of range")
	// ErrNotFloat is returned when an argument expected to parse as a
	// float does not.
	ErrNotFloat = errors.New("ERR value is not a valid float")
	// ErrIndexOutOfRange is returned by list index/LSET operations.
	ErrIndexOutOfRange = errors.New("ERR index out of range")
	// ErrOutOfMemory is the error for a write over a configured memory
	// cap. No shard operation returns it: the store accounts memory but
	// does not refuse writes when the accountant rejects an addition.
	ErrOutOfMemory = errors.New("OOM command not allowed when used memory > 'maxmemory'")
)
