package shard

import "unsafe"

// uintptrOf gives a stable total order over shard pointers for the
// ascending-pointer-order locking discipline cross-shard rename relies
// on.
func uintptrOf(s *Shard) uintptr {
	return uintptr(unsafe.Pointer(s))
}
