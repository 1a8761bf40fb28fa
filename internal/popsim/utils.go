package popsim

import (
	"crypto/rand"
	"encoding/binary"
)

// NewRandomSeed draws a seed from the operating system for worlds that were
// not given one explicitly.
func NewRandomSeed() uint64 {
	var b [8]byte
	_, _ = rand.Read(b[:])
	return binary.LittleEndian.Uint64(b[:])
}
